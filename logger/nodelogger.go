// Copyright (c) 2022-2024, The OTNS Authors.
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

package logger

import (
	"fmt"
	"os"
	"sync"
	"time"

	. "github.com/ransim/ran-ns/types"
)

const nodeLogEntriesCapacity = 1000

// NodeLogger is a node-specific log object. Levels and output file can be set per individual node,
// which allows following the scheduling and HARQ decisions taken for a single UE or cell.
// Entries are buffered during a TTI and flushed with the simulated timestamp of that TTI.
type NodeLogger struct {
	Id           NodeId
	fileLevel    Level
	displayLevel Level

	logFile       *os.File
	logFileName   string
	isFileEnabled bool
	entries       chan logEntry
	timestampUs   SimTime
}

var (
	nodeLogs = make(map[NodeId]*NodeLogger, 10)
	mutex    = sync.Mutex{}
)

// GetNodeLogger gets the NodeLogger instance for the given ( output dir, simulation ID, node config ) and configures it.
func GetNodeLogger(outputDir string, simulationId int, cfg *NodeConfig) *NodeLogger {
	mutex.Lock()
	defer mutex.Unlock()

	nodeid := cfg.ID
	nl, ok := nodeLogs[nodeid]
	if !ok {
		nl = &NodeLogger{
			Id:            nodeid,
			fileLevel:     InfoLevel,
			displayLevel:  OffLevel,
			entries:       make(chan logEntry, nodeLogEntriesCapacity),
			logFileName:   getLogFileName(outputDir, simulationId, nodeid),
			isFileEnabled: cfg.NodeLogFile,
		}
		nodeLogs[nodeid] = nl
		if nl.isFileEnabled {
			nl.createLogFile()
		}
	} else {
		nl.isFileEnabled = cfg.NodeLogFile
		if nl.isFileEnabled && nl.logFile == nil {
			nl.createLogFile()
		}
	}
	return nl
}

// GetExistingNodeLogger returns the NodeLogger of a node, or nil if none was created.
func GetExistingNodeLogger(nodeid NodeId) *NodeLogger {
	mutex.Lock()
	defer mutex.Unlock()
	return nodeLogs[nodeid]
}

// RemoveNodeLogger closes and forgets the NodeLogger of a deleted node.
func RemoveNodeLogger(nodeid NodeId) {
	mutex.Lock()
	nl, ok := nodeLogs[nodeid]
	delete(nodeLogs, nodeid)
	mutex.Unlock()
	if ok {
		nl.Close()
	}
}

func getLogFileName(outputPath string, simId int, nodeId NodeId) string {
	return fmt.Sprintf("%s/%d_%d.log", outputPath, simId, nodeId)
}

func (nl *NodeLogger) createLogFile() {
	var err error
	nl.logFile, err = os.OpenFile(nl.logFileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0664)
	if err != nil {
		Errorf("creating node log file %s failed: %+v", nl.logFileName, err)
		nl.isFileEnabled = false
		return
	}

	header := fmt.Sprintf("#\n# MAC log for node %d Created %s\n", nl.Id, time.Now().Format(time.RFC3339)) +
		"# SimTimeUs  Message"
	_ = nl.writeToLogFile(header)
}

// NodeLogf logs a formatted log message for the specific nodeid; correct NodeLogger object will be auto-found.
// Messages for nodes without a NodeLogger are passed to the global log.
func NodeLogf(nodeid NodeId, level Level, format string, args ...interface{}) {
	mutex.Lock()
	nl := nodeLogs[nodeid]
	mutex.Unlock()
	if nl == nil {
		Logf(level, fmt.Sprintf("node %d - %s", nodeid, format), args)
		return
	}
	if level > nl.fileLevel && level > nl.displayLevel {
		return
	}
	entry := logEntry{
		NodeId: nodeid,
		Level:  level,
		Msg:    getMessage(format, args),
	}
	select {
	case nl.entries <- entry:
	default:
		nl.FlushPendingLogEntries(nl.timestampUs)
		nl.entries <- entry
	}
}

func (nl *NodeLogger) SetFileLevel(level Level) {
	nl.fileLevel = level
}

func (nl *NodeLogger) SetDisplayLevel(level Level) {
	nl.displayLevel = level
}

func (nl *NodeLogger) GetDisplayLevel() Level {
	return nl.displayLevel
}

func (nl *NodeLogger) Tracef(format string, args ...interface{}) {
	NodeLogf(nl.Id, TraceLevel, format, args...)
}

func (nl *NodeLogger) Debugf(format string, args ...interface{}) {
	NodeLogf(nl.Id, DebugLevel, format, args...)
}

func (nl *NodeLogger) Infof(format string, args ...interface{}) {
	NodeLogf(nl.Id, InfoLevel, format, args...)
}

func (nl *NodeLogger) Warnf(format string, args ...interface{}) {
	NodeLogf(nl.Id, WarnLevel, format, args...)
}

func (nl *NodeLogger) Errorf(format string, args ...interface{}) {
	NodeLogf(nl.Id, ErrorLevel, format, args...)
}

func (nl *NodeLogger) writeToLogFile(line string) error {
	_, err := nl.logFile.WriteString(line + "\n")
	if err != nil {
		_ = nl.logFile.Close()
		nl.logFile = nil
		nl.isFileEnabled = false
		Errorf("couldn't write to node log file (%s), closing it", nl.logFileName)
	}
	return err
}

// FlushPendingLogEntries displays and saves all pending log entries for the node, using given simulation time ts.
func (nl *NodeLogger) FlushPendingLogEntries(ts SimTime) {
	nl.timestampUs = ts
	tsStr := fmt.Sprintf("%11d ", ts)
	nodeStr := fmt.Sprintf("node %-4d ", nl.Id)
	for {
		select {
		case entry := <-nl.entries:
			logStr := tsStr + entry.Msg
			// whatever is displayed (watch), will also be logged to file.
			if nl.isFileEnabled && (nl.fileLevel >= entry.Level || nl.displayLevel >= entry.Level) {
				_ = nl.writeToLogFile(logStr)
			}
			if nl.displayLevel >= entry.Level {
				logAlways(entry.Level, nodeStr+logStr)
			}
		default:
			return
		}
	}
}

// FlushAllNodeLogs flushes the pending entries of every NodeLogger.
func FlushAllNodeLogs(ts SimTime) {
	mutex.Lock()
	loggers := make([]*NodeLogger, 0, len(nodeLogs))
	for _, nl := range nodeLogs {
		loggers = append(loggers, nl)
	}
	mutex.Unlock()
	for _, nl := range loggers {
		nl.FlushPendingLogEntries(ts)
	}
}

// IsFileEnabled returns true if logging to file is currently enabled, false if not.
func (nl *NodeLogger) IsFileEnabled() bool {
	return nl.isFileEnabled
}

// Close closes the node log file and also saves/displays any pending entries.
func (nl *NodeLogger) Close() {
	nl.FlushPendingLogEntries(nl.timestampUs)
	if nl.logFile != nil {
		_ = nl.logFile.Close()
		nl.logFile = nil
	}
}
