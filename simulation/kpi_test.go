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
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeCounters(t *testing.T) {
	n1 := make(NodeCounters)
	n1["test1.key"] = 42
	n1["test3.key"] = 987

	n2 := make(NodeCounters)
	n2["test1.key"] = 42
	n2["test2.key"] = 121

	n2.Add(n1)

	assert.Equal(t, uint64(42), n1["test1.key"])
	_, n1HasTest2Key := n1["test2.key"]
	assert.False(t, n1HasTest2Key)
	assert.Equal(t, uint64(987), n1["test3.key"])

	assert.Equal(t, uint64(84), n2["test1.key"])
	assert.Equal(t, uint64(121), n2["test2.key"])
	assert.Equal(t, uint64(987), n2["test3.key"])
}

func TestGetCountersDiff(t *testing.T) {
	start := NodeCounters{"a": 10, "b": 3}
	cur := NodeCounters{"a": 15, "b": 3, "c": 7}
	assert.Equal(t, NodeCounters{"a": 5, "b": 0, "c": 7}, getCountersDiff(cur, start))
	assert.Equal(t, cur, getCountersDiff(cur, nil))
}

func TestKpiPeriod(t *testing.T) {
	s := newTestSimulation(t)
	_, err := s.AddCell(DefaultCellConfig())
	require.Nil(t, err)
	ue := addTestUe(t, s, 1, 12, false)
	f, err := s.AddFlow(DefaultFlowConfig(ue.Id))
	require.Nil(t, err)
	runTtis(t, s, 100)

	km := s.GetKpiManager()
	km.Start()
	assert.True(t, km.IsRunning())
	sentBefore, deliveredBefore := f.SentBytes, f.DeliveredBytes
	runTtis(t, s, 500)

	data := km.Data()
	assert.Equal(t, uint64(100000), data.TimeUs.StartTimeUs)
	assert.Equal(t, uint64(600000), data.TimeUs.EndTimeUs)
	assert.InDelta(t, 0.5, data.TimeSec.PeriodSec, 1e-9)

	kf := data.Flows["2:0"]
	assert.Equal(t, "dl", kf.Dir)
	assert.Equal(t, f.SentBytes-sentBefore, kf.OfferedBytes)
	assert.Equal(t, f.DeliveredBytes-deliveredBefore, kf.DeliveredBytes)
	assert.True(t, kf.DeliveredBytes > 0)
	assert.InDelta(t, 8*float64(kf.DeliveredBytes)/0.5, kf.GoodputBps, 1e-6)
	assert.True(t, data.Cells[1].ThroughputBps["dl"] > 0)

	km.Stop()
	assert.False(t, km.IsRunning())

	raw, err := os.ReadFile(filepath.Join(s.GetConfig().OutputDir, "0_kpi.json"))
	require.Nil(t, err)
	var saved Kpi
	require.Nil(t, json.Unmarshal(raw, &saved))
	assert.Equal(t, "ok", saved.Status)
	assert.Equal(t, kf.DeliveredBytes, saved.Flows["2:0"].DeliveredBytes)
}
