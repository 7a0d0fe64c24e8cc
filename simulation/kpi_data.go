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
	"github.com/ransim/ran-ns/stats"
	. "github.com/ransim/ran-ns/types"
)

type KpiTimeUs struct {
	StartTimeUs uint64 `json:"start" yaml:"start"`
	EndTimeUs   uint64 `json:"end" yaml:"end"`
	PeriodUs    uint64 `json:"duration" yaml:"duration"`
}

type KpiTimeSec struct {
	StartTimeSec float64 `json:"start" yaml:"start"`
	EndTimeSec   float64 `json:"end" yaml:"end"`
	PeriodSec    float64 `json:"duration" yaml:"duration"`
}

type KpiCell struct {
	ThroughputBps map[string]float64 `json:"throughput_bps" yaml:"throughput_bps"`
	CompStale     uint64             `json:"comp_stale" yaml:"comp_stale"`
}

type KpiFlow struct {
	Dir            string  `json:"dir" yaml:"dir"`
	OfferedBytes   uint64  `json:"offered_bytes" yaml:"offered_bytes"`
	DeliveredBytes uint64  `json:"delivered_bytes" yaml:"delivered_bytes"`
	OfferedBps     float64 `json:"offered_bps" yaml:"offered_bps"`
	GoodputBps     float64 `json:"goodput_bps" yaml:"goodput_bps"`
}

type KpiX2 struct {
	Sent    uint64 `json:"sent" yaml:"sent"`
	Dropped uint64 `json:"dropped" yaml:"dropped"`
}

type Kpi struct {
	FileTime string                   `json:"created" yaml:"created"`
	Status   string                   `json:"status" yaml:"status"`
	TimeUs   KpiTimeUs                `json:"time_us" yaml:"time_us"`
	TimeSec  KpiTimeSec               `json:"time_sec" yaml:"time_sec"`
	Cells    map[NodeId]KpiCell       `json:"cells" yaml:"cells"`
	Flows    map[string]KpiFlow       `json:"flows" yaml:"flows"`
	X2       KpiX2                    `json:"x2" yaml:"x2"`
	Signals  map[string]stats.Summary `json:"signals" yaml:"signals"`
	Counters map[NodeId]NodeCounters  `json:"counters" yaml:"counters"`
}
