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

// Package scheduler implements the per-TTI MAC scheduler of a cell: retransmissions first, then
// new data ranked by a pluggable strategy (Max-CI, proportional fair, deficit round robin).
package scheduler

import (
	"math"

	"github.com/ransim/ran-ns/bandmap"
	"github.com/ransim/ran-ns/conn"
	"github.com/ransim/ran-ns/harq"
	"github.com/ransim/ran-ns/logger"
	. "github.com/ransim/ran-ns/types"
)

// ChannelQuality converts reported CQI into capacity.
type ChannelQuality interface {
	WidebandCqi(node NodeId, dir Direction) int
	BytesOnBlocks(node NodeId, dir Direction, band Band, blocks int) uint
	ReqBlocks(node NodeId, dir Direction, band Band, bytes uint) int
}

// Context gives the scheduler access to the cell's nodes and HARQ buffers.
type Context interface {
	// IsAttached reports whether the node is served by this scheduler's cell.
	IsAttached(node NodeId) bool
	// TxBuffer returns the HARQ Tx buffer of owner towards peer, nil if not created yet.
	TxBuffer(owner NodeId, peer NodeId, dir Direction) *harq.TxBuffer
	// TxBuffers returns the Tx buffers of the cell for a direction, ordered by owner then peer.
	TxBuffers(dir Direction) []*harq.TxBuffer
	// RxBuffers returns the cell's Rx buffers for a direction, ordered by peer.
	RxBuffers(dir Direction) []*harq.RxBuffer
}

// Scheduler schedules one cell in one direction group: downlink, or uplink together with the
// D2D links the cell grants.
type Scheduler struct {
	cfg      Config
	cell     NodeId
	dirs     []Direction
	numBands int
	ctx      Context
	cq       ChannelQuality
	conns    *conn.Registry
	strategy Strategy

	alloc            *bandmap.Allocator
	bandLimit        bandmap.BandLimitVector
	usable           bandmap.UsableMask
	periodCounter    int
	maxPeriodCounter int

	schedule []ScheduleEntry
	granted  map[Cid]uint
}

// NewScheduler creates the scheduler of a cell for the given directions.
func NewScheduler(cfg Config, cell NodeId, dirs []Direction, numBands int, blocksPerBand int,
	ctx Context, cq ChannelQuality, conns *conn.Registry) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		cfg:              cfg,
		cell:             cell,
		dirs:             dirs,
		numBands:         numBands,
		ctx:              ctx,
		cq:               cq,
		conns:            conns,
		strategy:         NewStrategy(cfg),
		alloc:            bandmap.NewAllocator(numBands, blocksPerBand),
		maxPeriodCounter: cfg.MaxSchedulingPeriodCounter(),
	}
	s.resetTti()
	return s, nil
}

func (s *Scheduler) Config() Config {
	return s.cfg
}

func (s *Scheduler) Strategy() Strategy {
	return s.strategy
}

// SetStrategy replaces the ranking strategy, dropping the state of the previous one.
func (s *Scheduler) SetStrategy(d SchedDiscipline) {
	s.cfg.Discipline = d
	s.strategy = NewStrategy(s.cfg)
}

func (s *Scheduler) Allocator() *bandmap.Allocator {
	return s.alloc
}

// SetUsableMask installs the Comp usable-band mask applied from the next TTI on. nil lifts it.
func (s *Scheduler) SetUsableMask(m bandmap.UsableMask) {
	s.usable = m.Clone()
}

func (s *Scheduler) UsableMask() bandmap.UsableMask {
	return s.usable
}

// ScheduleList returns the schedule of the last scheduled TTI.
func (s *Scheduler) ScheduleList() []ScheduleEntry {
	return s.schedule
}

// ForgetConnection drops strategy state of a removed connection.
func (s *Scheduler) ForgetConnection(cid Cid) {
	if f, ok := s.strategy.(Forgetter); ok {
		f.Forget(cid)
	}
}

func (s *Scheduler) resetTti() {
	s.alloc.Reset()
	s.bandLimit = bandmap.NewBandLimitVector(s.numBands)
	s.bandLimit.ApplyMask(s.usable)
	s.schedule = nil
	s.granted = make(map[Cid]uint)
}

// Schedule runs one TTI: retransmissions first, then new data unless the pool is exhausted. On
// TTIs skipped because of the numerology it returns an empty schedule.
func (s *Scheduler) Schedule(now SimTime) ([]ScheduleEntry, error) {
	run := s.periodCounter == 0
	s.periodCounter = (s.periodCounter + 1) % s.maxPeriodCounter
	if !run {
		return nil, nil
	}

	s.resetTti()
	exhausted, err := s.rtxschedule()
	if err != nil {
		return nil, err
	}
	if !exhausted {
		if err = s.prepareSchedule(); err != nil {
			return nil, err
		}
		s.commitSchedule()
	}
	if len(s.schedule) > 0 {
		logger.Tracef("cell %d %v: %d entries, %d/%d blocks used", s.cell, s.dirs, len(s.schedule),
			s.alloc.TotalBlocks()-s.alloc.TotalAvailableBlocks(), s.alloc.TotalBlocks())
	}
	return s.schedule, nil
}

// usableAvailableBlocks counts the free blocks on bands not blocked for codeword 0.
func (s *Scheduler) usableAvailableBlocks() int {
	n := 0
	for _, bl := range s.bandLimit {
		if !bl.IsBlocked(0) {
			n += s.alloc.AvailableBlocks(bl.Band)
		}
	}
	return n
}

// senderBuffer returns the Tx buffer carrying the connection's data.
func (s *Scheduler) senderBuffer(c *conn.Connection) *harq.TxBuffer {
	switch c.Dir {
	case DirDl:
		return s.ctx.TxBuffer(s.cell, c.Cid.Node, DirDl)
	case DirUl:
		return s.ctx.TxBuffer(c.Cid.Node, s.cell, DirUl)
	default:
		return s.ctx.TxBuffer(c.Cid.Node, c.Peer, c.Dir)
	}
}

// checkEligibility reports whether the connection's node can take new data and on which
// codeword.
func (s *Scheduler) checkEligibility(c *conn.Connection) (Codeword, bool) {
	node := c.Cid.Node
	if s.alloc.AllocatedCws(node) > 0 {
		return 0, false
	}
	buf := s.senderBuffer(c)
	if buf == nil {
		return 0, true
	}
	free := buf.FirstAvailable()
	if free.IsNone() || len(free.Cws) == 0 {
		return 0, false
	}
	cw := free.Cws[0]
	if cw >= s.cfg.Codewords {
		return 0, false
	}
	return cw, true
}

func (s *Scheduler) scoreInput(c *conn.Connection) ScoreInput {
	in := ScoreInput{
		Cid:       c.Cid,
		Dir:       c.Dir,
		Class:     c.Class,
		Occupancy: c.Buffer.Occupancy(),
	}
	for _, bl := range s.bandLimit {
		if bl.IsBlocked(0) {
			continue
		}
		blocks := s.alloc.AvailableBlocks(bl.Band)
		in.AvailableBlocks += blocks
		in.AvailableBytes += s.cq.BytesOnBlocks(c.Cid.Node, c.Dir, bl.Band, blocks)
	}
	return in
}

// prepareSchedule ranks the eligible active connections and grants them in score order.
func (s *Scheduler) prepareSchedule() error {
	var sl ScoreList
	for _, cid := range s.conns.ActiveSet(s.dirs...) {
		c := s.conns.Get(cid)
		if !s.ctx.IsAttached(cid.Node) {
			continue
		}
		if s.cq.WidebandCqi(cid.Node, c.Dir) == 0 {
			continue
		}
		if s.alloc.AllocatedCws(cid.Node) >= s.cfg.Codewords {
			continue
		}
		s.granted[cid] = 0
		sl.Push(s.strategy.ComputeScore(s.scoreInput(c)))
	}

	limiter, _ := s.strategy.(GrantLimiter)
	for !sl.Empty() {
		cur := sl.Top()
		limit := uint(math.MaxUint32)
		if limiter != nil {
			limit = limiter.GrantCap(cur.Cid)
		}
		res, err := s.requestGrant(cur.Cid, limit)
		if err != nil {
			return err
		}
		s.granted[cur.Cid] += res.bytes
		if res.terminate {
			break
		}
		sl.Pop()
		if !res.active {
			s.conns.Deactivate(cur.Cid)
		}
	}
	return nil
}

// commitSchedule feeds the TTI's grants back into the strategy.
func (s *Scheduler) commitSchedule() {
	if c, ok := s.strategy.(Committer); ok {
		c.Commit(s.granted, s.alloc.TotalBlocks())
	}
}

type grantResult struct {
	bytes     uint
	terminate bool
	active    bool
	eligible  bool
}

// grantLimit returns the bytes a connection may get in one grant given its traffic class.
func (s *Scheduler) grantLimit(c *conn.Connection, limit uint) uint {
	gt := s.cfg.GrantTypes[c.Class]
	switch gt {
	case GrantFixedSize:
		if size := s.cfg.GrantSizes[c.Class]; size < limit {
			return size
		}
	case GrantUrgent:
		return math.MaxUint32
	}
	return limit
}

// requestGrant walks the band limit and allocates blocks to the connection until its buffer
// need or the limit is met.
func (s *Scheduler) requestGrant(cid Cid, limit uint) (grantResult, error) {
	res := grantResult{active: true, eligible: true}
	c := s.conns.Get(cid)
	if c == nil {
		res.active = false
		return res, nil
	}
	if s.usableAvailableBlocks() == 0 {
		res.terminate = true
		return res, nil
	}
	cw, eligible := s.checkEligibility(c)
	if !eligible {
		res.eligible = false
		return res, nil
	}
	queue := c.Buffer.Occupancy()
	if queue == 0 {
		res.active = false
		return res, nil
	}

	node := cid.Node
	toServe := queue + s.cfg.HeaderOverhead
	if l := s.grantLimit(c, limit); l < toServe {
		toServe = l
	}
	var bands []Band
	var allocBytes uint
	allocBlocks := 0
	for i := range s.bandLimit {
		bl := &s.bandLimit[i]
		lim := bl.Limit[cw]
		if lim == bandmap.LimitBlocked {
			continue
		}
		blocks := s.alloc.AvailableBlocks(bl.Band)
		if lim >= 0 && lim < blocks {
			blocks = lim
		}
		bandBytes := s.cq.BytesOnBlocks(node, c.Dir, bl.Band, blocks)
		if bandBytes == 0 {
			continue
		}
		uBytes := bandBytes
		if toServe < uBytes {
			uBytes = toServe
		}
		uBlocks := s.cq.ReqBlocks(node, c.Dir, bl.Band, uBytes)
		if err := s.alloc.AddBlocks(node, bl.Band, uBlocks, uBytes); err != nil {
			return res, err
		}
		if lim > 0 {
			bl.Limit[cw] -= uBlocks
		}
		bands = append(bands, bl.Band)
		allocBytes += uBytes
		allocBlocks += uBlocks
		toServe -= uBytes
		if toServe == 0 {
			break
		}
	}

	if allocBytes == 0 {
		res.eligible = false
		return res, nil
	}
	consumed := uint(0)
	if allocBytes > s.cfg.HeaderOverhead {
		consumed = allocBytes - s.cfg.HeaderOverhead
	}
	s.conns.Consume(cid, consumed)
	res.active = !c.Buffer.IsEmpty()
	res.bytes = allocBytes

	s.alloc.IncAllocatedCws(node)
	s.schedule = append(s.schedule, ScheduleEntry{
		Cid:      cid,
		Node:     node,
		Dir:      c.Dir,
		Peer:     c.Peer,
		Codeword: cw,
		Acid:     AcidNone,
		Bands:    bands,
		Blocks:   allocBlocks,
		Bytes:    allocBytes,
	})
	s.strategy.OnGrant(cid, bands, allocBytes)
	logger.NodeLogf(node, logger.DebugLevel, "cid %v granted %d bytes on %d blocks (cw %d)", cid, allocBytes, allocBlocks, cw)
	return res, nil
}
