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

package simulation

import (
	"github.com/ransim/ran-ns/comp"
	"github.com/ransim/ran-ns/harq"
	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/radiomodel"
	"github.com/ransim/ran-ns/scheduler"
	. "github.com/ransim/ran-ns/types"
)

const (
	DefaultNumBands      = 25
	DefaultBlocksPerBand = 2
	DefaultCqiPeriod     = 5       // in TTIs
	DefaultStatsWindowUs = 1000000 // 1 s
	DefaultMaxSamples    = 100000
	DefaultOutputDir     = "tmp"
	MaxSimulateSpeed     = 1000000
)

type Config struct {
	Id            int
	OutputDir     string
	Seed          int64
	Speed         float64
	ReadOnly      bool
	AutoGo        bool
	NumBands      int
	BlocksPerBand int
	Harq          harq.Config
	Scheduler     scheduler.Config
	Radio         radiomodel.ModelType
	CqiPeriod     int
	CqiTrace      string
	Bus           comp.BusConfig
	StatsWindow   SimTime
	StatsLog      bool
	MaxSamples    int
	ResidualBler  float64 // decode failure probability of links with a configured or traced CQI
	LogLevel      logger.Level
}

func DefaultConfig() *Config {
	cfg := &Config{
		Id:            0,
		OutputDir:     DefaultOutputDir,
		Seed:          0,
		Speed:         MaxSimulateSpeed,
		ReadOnly:      false,
		AutoGo:        true,
		NumBands:      DefaultNumBands,
		BlocksPerBand: DefaultBlocksPerBand,
		Harq:          harq.DefaultConfig(),
		Scheduler:     scheduler.DefaultConfig(),
		Radio:         radiomodel.ModelUma,
		CqiPeriod:     DefaultCqiPeriod,
		StatsWindow:   DefaultStatsWindowUs,
		StatsLog:      false,
		MaxSamples:    DefaultMaxSamples,
		ResidualBler:  0,
		LogLevel:      logger.WarnLevel,
	}
	cfg.Bus = comp.BusConfig{
		LatencyTtis:     1,
		DropProbability: 0,
		Tti:             cfg.Harq.SlotDuration(),
	}
	return cfg
}

// Tti returns the TTI length in microseconds.
func (cfg *Config) Tti() SimTime {
	return cfg.Harq.SlotDuration()
}
