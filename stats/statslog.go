// Copyright (c) 2024, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.


package stats

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/jszwec/csvutil"

	"github.com/ransim/ran-ns/logger"
)

type logEntry struct {
	TimeSec float64 `csv:"timeSec"`
	Signal  string  `csv:"signal"`
	Count   int     `csv:"count"`
	Sum     float64 `csv:"sum"`
	Mean    float64 `csv:"mean"`
}

// StatsLog writes every concluded time window to a CSV file, one line per signal.
type StatsLog struct {
	logFile       *os.File
	logFileName   string
	isFileEnabled bool
	csvWriter     *csv.Writer
	enc           *csvutil.Encoder
}

func GetStatsLogFileName(outputDir string, simulationId int) string {
	return fmt.Sprintf("%s/%d_stats.csv", outputDir, simulationId)
}

// NewStatsLog creates the log file. On failure the log is disabled and an error logged.
func NewStatsLog(fileName string) *StatsLog {
	sl := &StatsLog{
		logFileName:   fileName,
		isFileEnabled: true,
	}
	sl.createLogFile()
	return sl
}

func (sl *StatsLog) createLogFile() {
	logger.AssertNil(sl.logFile)

	var err error
	_ = os.Remove(sl.logFileName)

	sl.logFile, err = os.OpenFile(sl.logFileName, os.O_CREATE|os.O_WRONLY, 0664)
	if err != nil {
		logger.Errorf("creating new stats log file %s failed: %+v", sl.logFileName, err)
		sl.isFileEnabled = false
		return
	}
	sl.csvWriter = csv.NewWriter(sl.logFile)
	sl.enc = csvutil.NewEncoder(sl.csvWriter)
	logger.Debugf("Stats log file '%s' created.", sl.logFileName)
}

func (sl *StatsLog) IsFileEnabled() bool {
	return sl.isFileEnabled
}

func (sl *StatsLog) OnTimeWindow(stats *TimeWindowStats) {
	if !sl.isFileEnabled {
		return
	}
	timeSec := float64(stats.WinStartUs+stats.WinWidthUs) / 1e6
	for _, name := range stats.SortedSignals() {
		w := stats.Signals[name]
		entry := logEntry{
			TimeSec: timeSec,
			Signal:  name,
			Count:   w.Count,
			Sum:     w.Sum,
			Mean:    w.Mean(),
		}
		if err := sl.enc.Encode(entry); err != nil {
			logger.Errorf("couldn't write to stats log file (%s), closing it", sl.logFileName)
			sl.Close()
			return
		}
	}
	sl.csvWriter.Flush()
}

func (sl *StatsLog) Close() {
	if sl.logFile != nil {
		sl.csvWriter.Flush()
		_ = sl.logFile.Close()
		sl.logFile = nil
		sl.isFileEnabled = false
		logger.Debugf("stats log file closed.")
	}
}
