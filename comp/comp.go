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


// Package comp implements proportional Comp coordination between cells. Clients report how many
// blocks they would use, the coordinator splits the bands in proportion to the requests and sends
// each client the contiguous range it may use.
package comp

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"

	"github.com/ransim/ran-ns/bandmap"
	"github.com/ransim/ran-ns/logger"
	. "github.com/ransim/ran-ns/types"
)

const (
	SignalReservedBlocks = "compReservedBlocks"
	SignalStaleMask      = "compStaleMask"
)

// Demand exposes the pending downlink data of the cell.
type Demand interface {
	ActiveSet(dirs ...Direction) []Cid
	Occupancy(cid Cid) uint
}

// ChannelQuality gives the capacity of one block towards a node.
type ChannelQuality interface {
	BytesOnBlocks(node NodeId, dir Direction, band Band, blocks int) uint
}

// MaskSink is the scheduler band limit the usable mask goes to.
type MaskSink interface {
	SetUsableMask(m bandmap.UsableMask)
}

type Emitter interface {
	Emit(node NodeId, signal string, value float64)
}

type nopEmitter struct{}

func (nopEmitter) Emit(NodeId, string, float64) {}

// Manager is the Comp entity of one cell.
type Manager struct {
	id       NodeId
	cfg      Config
	numBands int
	bus      *Bus
	demand   Demand
	cq       ChannelQuality
	sink     MaskSink
	emitter  Emitter

	started          bool
	nextCoordination SimTime
	replyDeadline    SimTime

	// client
	provisionedBlocks int
	mask              bandmap.UsableMask
	staleCount        int

	// coordinator
	reqBlocks    map[NodeId]int
	order        []NodeId
	partitioning []int
	offset       []int
}

// NewManager creates the Comp manager of cell id and registers it on the bus.
func NewManager(id NodeId, cfg Config, numBands int, bus *Bus, demand Demand, cq ChannelQuality,
	sink MaskSink, em Emitter) (*Manager, error) {
	if err := cfg.Validate(id); err != nil {
		return nil, err
	}
	if numBands <= 0 {
		return nil, errors.Errorf("comp: cell %d has no bands", id)
	}
	if em == nil {
		em = nopEmitter{}
	}
	m := &Manager{
		id:        id,
		cfg:       cfg,
		numBands:  numBands,
		bus:       bus,
		demand:    demand,
		cq:        cq,
		sink:      sink,
		emitter:   em,
		reqBlocks: map[NodeId]int{},
	}
	bus.Register(id, m)
	return m, nil
}

func (m *Manager) Id() NodeId {
	return m.id
}

func (m *Manager) Config() Config {
	return m.cfg
}

func (m *Manager) IsClient() bool {
	return m.cfg.Type != CompCoordinator
}

func (m *Manager) IsCoordinator() bool {
	return m.cfg.Type != CompClient
}

// Mask returns the usable bands last installed, nil before the first reply.
func (m *Manager) Mask() bandmap.UsableMask {
	return m.mask
}

// StaleCount returns how many times the reply timeout expired.
func (m *Manager) StaleCount() int {
	return m.staleCount
}

func (m *Manager) ProvisionedBlocks() int {
	return m.provisionedBlocks
}

// Partitioning returns the last coordination result: the clients in node id order, their number of
// bands and their first band.
func (m *Manager) Partitioning() (clients []NodeId, blocks []int, offset []int) {
	return m.order, m.partitioning, m.offset
}

func (m *Manager) start(now SimTime) {
	m.started = true
	m.nextCoordination = now + m.cfg.CoordinationPeriod
	// the first reply cannot come before the first coordination
	m.replyDeadline = m.nextCoordination + m.cfg.ReplyTimeout
}

// Tick runs the TTI operations of the manager: client ones every TTI, coordinator ones once per
// coordination period. Within a TTI, all clients must tick before any coordinator; use ClientTick
// and CoordinatorTick to order several managers.
func (m *Manager) Tick(now SimTime) error {
	m.ClientTick(now)
	return m.CoordinatorTick(now)
}

// ClientTick computes and sends this TTI's request. No-op for a pure coordinator.
func (m *Manager) ClientTick(now SimTime) {
	if !m.started {
		m.start(now)
	}
	if !m.IsClient() {
		return
	}
	m.checkReplyTimeout(now)
	m.provisionalSchedule()
	m.sendClientRequest(m.buildClientRequest(), now)
}

// CoordinatorTick runs coordination when the period elapsed. No-op for a pure client.
func (m *Manager) CoordinatorTick(now SimTime) error {
	if !m.started {
		m.start(now)
	}
	if !m.IsCoordinator() || now < m.nextCoordination {
		return nil
	}
	for m.nextCoordination <= now {
		m.nextCoordination += m.cfg.CoordinationPeriod
	}
	return m.runCoordinatorOperations(now)
}

func (m *Manager) checkReplyTimeout(now SimTime) {
	if now <= m.replyDeadline {
		return
	}
	m.staleCount++
	m.emitter.Emit(m.id, SignalStaleMask, float64(m.staleCount))
	logger.Warnf("Comp client %d: no reply from coordinator %d, keeping mask %v", m.id, m.cfg.Coordinator, m.mask)
	m.replyDeadline = now + m.cfg.ReplyTimeout
}

// provisionalSchedule estimates the blocks needed to empty the downlink queues.
func (m *Manager) provisionalSchedule() {
	m.provisionedBlocks = 0
	for _, cid := range m.demand.ActiveSet(DirDl) {
		queue := m.demand.Occupancy(cid)
		// the band index does not matter for a wideband estimate
		bpb := m.cq.BytesOnBlocks(cid.Node, DirDl, 0, 1)
		if bpb == 0 {
			continue
		}
		m.provisionedBlocks += int((queue + bpb - 1) / bpb)
	}
}

func (m *Manager) buildClientRequest() *Request {
	return &Request{NumBlocks: m.provisionedBlocks}
}

func (m *Manager) sendClientRequest(req *Request, now SimTime) {
	msg := &Message{Src: m.id, Dst: m.cfg.Coordinator, Request: req}
	if m.cfg.Type == CompClientCoordinator {
		m.handleClientRequest(msg)
		return
	}
	m.bus.Send(msg, now)
}

func (m *Manager) runCoordinatorOperations(now SimTime) error {
	m.doCoordination()
	for _, client := range m.cfg.Clients {
		m.bus.Send(&Message{Src: m.id, Dst: client, Reply: m.buildCoordinatorReply(client)}, now)
	}
	if m.cfg.Type == CompClientCoordinator {
		return m.handleCoordinatorReply(&Message{Src: m.id, Dst: m.id, Reply: m.buildCoordinatorReply(m.id)}, now)
	}
	return nil
}

// HandleX2 processes a message delivered by the bus.
func (m *Manager) HandleX2(msg *Message, now SimTime) error {
	if m.IsCoordinator() {
		if msg.Request == nil {
			return InvariantErrorf("comp: coordinator %d expected a request from %d", m.id, msg.Src)
		}
		m.handleClientRequest(msg)
		return nil
	}
	if msg.Src != m.cfg.Coordinator {
		return InvariantErrorf("comp: client %d got a message from %d, which is not its coordinator", m.id, msg.Src)
	}
	if msg.Reply == nil {
		return InvariantErrorf("comp: client %d expected a reply from %d", m.id, msg.Src)
	}
	return m.handleCoordinatorReply(msg, now)
}

func (m *Manager) handleClientRequest(msg *Message) {
	m.reqBlocks[msg.Src] = msg.Request.NumBlocks
	logger.NodeLogf(m.id, logger.TraceLevel, "Comp request from %d: %d blocks", msg.Src, msg.Request.NumBlocks)
}

func (m *Manager) handleCoordinatorReply(msg *Message, now SimTime) error {
	if len(msg.Reply.AllowedBlocks) != m.numBands {
		return InvariantErrorf("comp: reply for %d has %d bands, cell has %d", m.id, len(msg.Reply.AllowedBlocks), m.numBands)
	}
	m.mask = m.parseAllowedBlocksMap(msg.Reply.AllowedBlocks)
	m.replyDeadline = now + m.cfg.ReplyTimeout
	if m.sink != nil {
		m.sink.SetUsableMask(m.mask)
	}
	logger.NodeLogf(m.id, logger.DebugLevel, "Comp usable bands %v", m.mask)
	return nil
}

func (m *Manager) parseAllowedBlocksMap(allowed []RbStatus) bandmap.UsableMask {
	mask := make(bandmap.UsableMask, len(allowed))
	reserved := 0
	for b, st := range allowed {
		if st == AvailableRb {
			mask[b] = true
			reserved++
		}
	}
	m.emitter.Emit(m.id, SignalReservedBlocks, float64(reserved))
	return mask
}

// doCoordination splits the bands among the requesting clients in proportion to their requests.
func (m *Manager) doCoordination() {
	m.order = maps.Keys(m.reqBlocks)
	slices.Sort(m.order)

	sum := 0
	for _, req := range m.reqBlocks {
		sum += req
	}

	shares := make([]float64, len(m.order))
	total := 0.0
	for i, id := range m.order {
		var fraction float64
		if sum == 0 {
			// remote clients plus this node
			fraction = 1.0 / float64(len(m.cfg.Clients)+1)
		} else {
			fraction = float64(m.reqBlocks[id]) / float64(sum)
		}
		shares[i] = float64(m.numBands) * fraction
		total += shares[i]
	}

	m.partitioning = RoundVector(shares, int(math.Round(total)))
	m.offset = make([]int, len(m.partitioning))
	for i := 1; i < len(m.partitioning); i++ {
		m.offset[i] = m.offset[i-1] + m.partitioning[i-1]
	}
}

func (m *Manager) buildCoordinatorReply(client NodeId) *Reply {
	allowed := make([]RbStatus, m.numBands)
	if i := slices.Index(m.order, client); i >= 0 {
		ub := m.offset[i] + m.partitioning[i]
		if ub > m.numBands {
			ub = m.numBands
		}
		for b := m.offset[i]; b < ub; b++ {
			allowed[b] = AvailableRb
		}
	} else {
		logger.Debugf("Comp coordinator %d: no request from %d, no bands granted", m.id, client)
	}
	return &Reply{AllowedBlocks: allowed}
}

// RoundVector scales vec to target and rounds it to integers summing exactly to target, using
// largest remainders. Every element gets the floor of its scaled value, the remaining units go to
// the largest fractional parts, lower index first on ties, so no element is one or more away from
// its proportional share. A zero vector spreads target evenly.
func RoundVector(vec []float64, target int) []int {
	out := make([]int, len(vec))
	if len(vec) == 0 || target <= 0 {
		return out
	}
	scaled := make([]float64, len(vec))
	if sum := floats.Sum(vec); sum > 0 {
		floats.ScaleTo(scaled, float64(target)/sum, vec)
	} else {
		for i := range scaled {
			scaled[i] = float64(target) / float64(len(vec))
		}
	}

	floorSum := 0
	idx := make([]int, len(scaled))
	for i, v := range scaled {
		out[i] = int(math.Floor(v))
		floorSum += out[i]
		idx[i] = i
	}
	frac := func(i int) float64 {
		return scaled[i] - math.Floor(scaled[i])
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		fa, fb := frac(a), frac(b)
		switch {
		case fa > fb:
			return -1
		case fa < fb:
			return 1
		default:
			return a - b
		}
	})
	for k := 0; k < target-floorSum; k++ {
		out[idx[k%len(idx)]]++
	}
	return out
}
