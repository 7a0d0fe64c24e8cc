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


package comp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ransim/ran-ns/bandmap"
	. "github.com/ransim/ran-ns/types"
)

type fixedDemand struct {
	queues map[Cid]uint
}

func (d *fixedDemand) ActiveSet(dirs ...Direction) []Cid {
	var cids []Cid
	for cid, q := range d.queues {
		if q > 0 {
			cids = append(cids, cid)
		}
	}
	return cids
}

func (d *fixedDemand) Occupancy(cid Cid) uint {
	return d.queues[cid]
}

// flatChannel serves 10 bytes per block to every node.
type flatChannel struct{}

func (flatChannel) BytesOnBlocks(node NodeId, dir Direction, band Band, blocks int) uint {
	return uint(10 * blocks)
}

type maskRecorder struct {
	masks []bandmap.UsableMask
}

func (r *maskRecorder) SetUsableMask(m bandmap.UsableMask) {
	r.masks = append(r.masks, m)
}

type countingEmitter struct {
	last map[string]float64
	n    map[string]int
}

func newCountingEmitter() *countingEmitter {
	return &countingEmitter{last: map[string]float64{}, n: map[string]int{}}
}

func (e *countingEmitter) Emit(node NodeId, signal string, value float64) {
	e.last[signal] = value
	e.n[signal]++
}

const tti = SimTime(1000)

func newClient(t *testing.T, id NodeId, coord NodeId, bus *Bus, queue uint, sink MaskSink, em Emitter) *Manager {
	cfg := DefaultConfig()
	cfg.Coordinator = coord
	d := &fixedDemand{queues: map[Cid]uint{{Node: id + 100, Lcid: 1}: queue}}
	m, err := NewManager(id, cfg, 100, bus, d, flatChannel{}, sink, em)
	require.Nil(t, err)
	return m
}

func TestRoundVector(t *testing.T) {
	assert.Equal(t, []int{}, RoundVector(nil, 0))
	assert.Equal(t, []int{30, 50, 20}, RoundVector([]float64{30, 50, 20}, 100))
	assert.Equal(t, []int{4, 3, 3}, RoundVector([]float64{10.0 / 3, 10.0 / 3, 10.0 / 3}, 10))
	assert.Equal(t, []int{2, 4, 4}, RoundVector([]float64{2.2, 3.5, 4.3}, 10))
	assert.Equal(t, []int{3, 3, 4}, RoundVector([]float64{3.3, 3.3, 3.4}, 10))

	// target differs from the vector sum
	assert.Equal(t, []int{2, 1}, RoundVector([]float64{2.5, 2.5}, 3))
	assert.Equal(t, []int{3, 5, 2}, RoundVector([]float64{30, 50, 20}, 10))
	assert.Equal(t, []int{60, 100, 40}, RoundVector([]float64{30, 50, 20}, 200))
	assert.Equal(t, []int{3, 2, 2}, RoundVector([]float64{0, 0, 0}, 7))
	assert.Equal(t, []int{0, 0}, RoundVector([]float64{1, 2}, 0))

	r := rand.New(rand.NewSource(7))
	for i := 0; i < 400; i++ {
		n := 1 + r.Intn(8)
		vec := make([]float64, n)
		total := 0.0
		for j := range vec {
			vec[j] = r.Float64() * 20
			total += vec[j]
		}
		target := int(math.Round(total))
		if i%2 == 1 {
			target = r.Intn(300)
		}
		out := RoundVector(vec, target)
		sum := 0
		for j, v := range out {
			sum += v
			ideal := vec[j] * float64(target) / total
			assert.Less(t, math.Abs(float64(v)-ideal), 1.0)
		}
		assert.Equal(t, target, sum)
	}
}

func TestProportionalPartitioning(t *testing.T) {
	bus := NewBus(BusConfig{Tti: tti})
	coordCfg := DefaultConfig()
	coordCfg.Type = CompCoordinator
	coordCfg.Clients = []NodeId{1, 2, 3}
	coord, err := NewManager(10, coordCfg, 100, bus, &fixedDemand{}, flatChannel{}, nil, nil)
	require.Nil(t, err)

	sinks := []*maskRecorder{{}, {}, {}}
	em := newCountingEmitter()
	clients := []*Manager{
		newClient(t, 1, 10, bus, 300, sinks[0], em),
		newClient(t, 2, 10, bus, 500, sinks[1], em),
		newClient(t, 3, 10, bus, 195, sinks[2], em),
	}

	// TTI 0: requests sent
	for _, c := range clients {
		c.ClientTick(0)
	}
	require.Nil(t, coord.CoordinatorTick(0))
	assert.Equal(t, 30, clients[0].ProvisionedBlocks())
	assert.Equal(t, 20, clients[2].ProvisionedBlocks())

	// TTI 1: coordinator gets the requests and coordinates, replies go out
	require.Nil(t, bus.Advance(tti))
	for _, c := range clients {
		c.ClientTick(tti)
	}
	require.Nil(t, coord.CoordinatorTick(tti))
	ids, blocks, offset := coord.Partitioning()
	assert.Equal(t, []NodeId{1, 2, 3}, ids)
	assert.Equal(t, []int{30, 50, 20}, blocks)
	assert.Equal(t, []int{0, 30, 80}, offset)

	// TTI 2: clients install their masks
	require.Nil(t, bus.Advance(2*tti))
	for i, c := range clients {
		require.Len(t, sinks[i].masks, 1)
		assert.Equal(t, blocks[i], c.Mask().NumUsable())
	}
	assert.True(t, clients[1].Mask().IsUsable(30))
	assert.True(t, clients[1].Mask().IsUsable(79))
	assert.False(t, clients[1].Mask().IsUsable(80))
	assert.Equal(t, 3, em.n[SignalReservedBlocks])

	// the masks are disjoint and cover every band
	for b := 0; b < 100; b++ {
		owners := 0
		for _, c := range clients {
			if c.Mask().IsUsable(b) {
				owners++
			}
		}
		assert.Equal(t, 1, owners, "band %d", b)
	}
}

func TestEqualShareWithoutDemand(t *testing.T) {
	bus := NewBus(BusConfig{Tti: tti})
	cfg := DefaultConfig()
	cfg.Type = CompClientCoordinator
	cfg.Clients = []NodeId{2}
	sink := &maskRecorder{}
	coord, err := NewManager(1, cfg, 10, bus, &fixedDemand{}, flatChannel{}, sink, nil)
	require.Nil(t, err)
	client := newClient(t, 2, 1, bus, 0, nil, nil)

	client.ClientTick(0)
	require.Nil(t, coord.Tick(0))
	require.Nil(t, bus.Advance(tti))
	client.ClientTick(tti)
	require.Nil(t, coord.Tick(tti))

	_, blocks, offset := coord.Partitioning()
	assert.Equal(t, []int{5, 5}, blocks)
	assert.Equal(t, []int{0, 5}, offset)
	// the local reply is installed without going through the bus
	require.Len(t, sink.masks, 1)
	assert.Equal(t, "1111100000", sink.masks[0].String())
}

func TestStaleMaskOnLostReplies(t *testing.T) {
	bus := NewBus(BusConfig{Tti: tti})
	coordCfg := DefaultConfig()
	coordCfg.Type = CompCoordinator
	coordCfg.Clients = []NodeId{1}
	coord, err := NewManager(10, coordCfg, 100, bus, &fixedDemand{}, flatChannel{}, nil, nil)
	require.Nil(t, err)
	em := newCountingEmitter()
	sink := &maskRecorder{}
	client := newClient(t, 1, 10, bus, 100, sink, em)

	tick := func(now SimTime) {
		require.Nil(t, bus.Advance(now))
		client.ClientTick(now)
		require.Nil(t, coord.CoordinatorTick(now))
	}
	tick(0)
	tick(tti)
	tick(2 * tti)
	require.Len(t, sink.masks, 1)
	mask := client.Mask()
	assert.Equal(t, 100, mask.NumUsable())
	assert.Equal(t, 0, client.StaleCount())

	// the X2 link goes down, the reply already in flight still arrives
	bus.SetLink(0, 1.0)
	for now := 3 * tti; now <= 6*tti; now += tti {
		tick(now)
	}
	assert.Len(t, sink.masks, 2)
	assert.Equal(t, mask, client.Mask())
	assert.Equal(t, 1, client.StaleCount())
	assert.Equal(t, float64(client.StaleCount()), em.last[SignalStaleMask])
	assert.Greater(t, bus.Dropped(), uint64(0))

	bus.SetLink(0, 0)
	tick(7 * tti)
	stale := client.StaleCount()
	tick(8 * tti)
	tick(9 * tti)
	assert.Len(t, sink.masks, 4)
	assert.Equal(t, stale, client.StaleCount())
}

func TestBusLatency(t *testing.T) {
	bus := NewBus(BusConfig{LatencyTtis: 2, Tti: tti})
	h := &recordingHandler{}
	bus.Register(5, h)
	assert.True(t, bus.Send(&Message{Src: 1, Dst: 5, Request: &Request{NumBlocks: 1}}, 0))
	assert.True(t, bus.Send(&Message{Src: 2, Dst: 5, Request: &Request{NumBlocks: 2}}, 0))
	require.Nil(t, bus.Advance(tti))
	assert.Empty(t, h.got)
	require.Nil(t, bus.Advance(2*tti))
	require.Len(t, h.got, 2)
	assert.Equal(t, NodeId(1), h.got[0].Src)
	assert.Equal(t, NodeId(2), h.got[1].Src)
	assert.Equal(t, 0, bus.Pending())
}

type recordingHandler struct {
	got []*Message
}

func (h *recordingHandler) HandleX2(msg *Message, now SimTime) error {
	h.got = append(h.got, msg)
	return nil
}

func TestClientRejectsForeignSender(t *testing.T) {
	bus := NewBus(BusConfig{Tti: tti})
	client := newClient(t, 1, 10, bus, 0, nil, nil)
	err := client.HandleX2(&Message{Src: 11, Dst: 1, Reply: &Reply{AllowedBlocks: make([]RbStatus, 100)}}, 0)
	assert.True(t, IsInvariantViolation(err))

	cfg := DefaultConfig()
	_, err = NewManager(2, cfg, 10, bus, &fixedDemand{}, flatChannel{}, nil, nil)
	assert.NotNil(t, err)
}
