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
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/ransim/ran-ns/types"
)

func TestParseTrafficModel(t *testing.T) {
	m, err := ParseTrafficModel("Poisson")
	assert.Nil(t, err)
	assert.Equal(t, TrafficPoisson, m)
	m, err = ParseTrafficModel("")
	assert.Nil(t, err)
	assert.Equal(t, TrafficCbr, m)
	_, err = ParseTrafficModel("bursty")
	assert.NotNil(t, err)
}

func TestCbrFlowArrivals(t *testing.T) {
	cfg := DefaultFlowConfig(2)
	cfg.Rate = 100000 // 100 packets of 1000 bytes per second
	cfg.Start = 5000
	cfg.Stop = 45000
	f, err := newFlow(cfg, Cid{Node: 2, Lcid: 0}, 1)
	assert.Nil(t, err)

	assert.Empty(t, f.Arrivals(4999))
	assert.Equal(t, []SimTime{5000}, f.Arrivals(5000))
	assert.Equal(t, []SimTime{15000, 25000}, f.Arrivals(30000))
	assert.Equal(t, []SimTime{35000}, f.Arrivals(100000))
	assert.Empty(t, f.Arrivals(200000))
}

func TestPoissonFlowRate(t *testing.T) {
	cfg := DefaultFlowConfig(3)
	cfg.Model = TrafficPoisson
	cfg.Rate = 1000000 // 1000 packets per second
	f, err := newFlow(cfg, Cid{Node: 3, Lcid: 7}, 1)
	assert.Nil(t, err)

	n := len(f.Arrivals(10000000))
	assert.InDelta(t, 10000, n, 500)
}

func TestFlowValidation(t *testing.T) {
	cfg := DefaultFlowConfig(2)
	cfg.Rate = 0
	_, err := newFlow(cfg, Cid{Node: 2}, 1)
	assert.NotNil(t, err)

	cfg = DefaultFlowConfig(2)
	cfg.PacketSize = 0
	_, err = newFlow(cfg, Cid{Node: 2}, 1)
	assert.NotNil(t, err)
}

func TestUeAllocLcid(t *testing.T) {
	ue := newUe(NodeConfig{ID: 4, Cell: 1})
	lcid, ok := ue.allocLcid(-1)
	assert.True(t, ok)
	assert.Equal(t, 0, lcid)
	lcid, ok = ue.allocLcid(3)
	assert.True(t, ok)
	assert.Equal(t, 3, lcid)
	_, ok = ue.allocLcid(3)
	assert.False(t, ok)
	lcid, _ = ue.allocLcid(-1)
	assert.Equal(t, 4, lcid)

	ue.removeFlow(Cid{Node: 4, Lcid: 3})
	assert.Equal(t, []Cid{{Node: 4, Lcid: 0}, {Node: 4, Lcid: 4}}, ue.Flows())
}
