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
	"context"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ransim/ran-ns/amc"
	"github.com/ransim/ran-ns/comp"
	"github.com/ransim/ran-ns/harq"
	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/prng"
	"github.com/ransim/ran-ns/progctx"
	"github.com/ransim/ran-ns/radiomodel"
	"github.com/ransim/ran-ns/scheduler"
	"github.com/ransim/ran-ns/stats"
	. "github.com/ransim/ran-ns/types"
)

type goRequest struct {
	duration SimTime
	done     chan error
}

// Simulation owns the cells, UEs, HARQ buffers and traffic of one run and advances them TTI by
// TTI. It is not safe for concurrent use: other goroutines post their work with PostAsync while
// Run is executing.
type Simulation struct {
	Started    chan struct{}
	ctx        *progctx.ProgCtx
	cfg        *Config
	stopped    bool
	curTime    SimTime // start of the next TTI
	ticks      uint64
	err        error
	cells      map[NodeId]*Cell
	ues        map[NodeId]*Ue
	groups     map[NodeId][]NodeId
	flows      map[Cid]*Flow
	txBuffers  map[linkKey]*harq.TxBuffer
	rxBuffers  map[linkKey]*harq.RxBuffer
	selected   map[linkKey]struct{}
	radio      *radiomodel.Model
	trace      *radiomodel.CqiTrace
	bus        *comp.Bus
	rec        *stats.Recorder
	window     *stats.TimeWindow
	statsLog   *stats.StatsLog
	kpimgr     *KpiManager
	nodePlacer *NodeAutoPlacer
	pduSeq     uint64
	speed      float64
	logLevel   logger.Level
	taskChan   chan func()
	goChan     chan goRequest
}

func NewSimulation(ctx *progctx.ProgCtx, cfg *Config) (*Simulation, error) {
	if ctx == nil {
		ctx = progctx.New(context.Background())
	}
	if cfg.NumBands <= 0 || cfg.BlocksPerBand <= 0 {
		return nil, errors.Errorf("invalid carrier: %d bands of %d blocks", cfg.NumBands, cfg.BlocksPerBand)
	}
	prng.Init(cfg.Seed)
	cfg.Bus.Tti = cfg.Tti()

	s := &Simulation{
		Started:    make(chan struct{}),
		ctx:        ctx,
		cfg:        cfg,
		cells:      map[NodeId]*Cell{},
		ues:        map[NodeId]*Ue{},
		groups:     map[NodeId][]NodeId{},
		flows:      map[Cid]*Flow{},
		txBuffers:  map[linkKey]*harq.TxBuffer{},
		rxBuffers:  map[linkKey]*harq.RxBuffer{},
		selected:   map[linkKey]struct{}{},
		radio:      radiomodel.NewModel(radiomodel.NewParams(cfg.Radio)),
		bus:        comp.NewBus(cfg.Bus),
		rec:        stats.NewRecorder(cfg.MaxSamples),
		nodePlacer: NewNodeAutoPlacer(),
		speed:      cfg.Speed,
		taskChan:   make(chan func(), 100),
		goChan:     make(chan goRequest),
	}
	s.SetLogLevel(cfg.LogLevel)

	if err := s.createOutputDir(); err != nil {
		return nil, errors.Wrapf(err, "creating output directory %s", cfg.OutputDir)
	}
	if err := s.cleanOutputDir(); err != nil {
		return nil, errors.Wrapf(err, "cleaning output files '%d_*.*'", cfg.Id)
	}
	if len(cfg.CqiTrace) > 0 {
		trace, err := radiomodel.LoadCqiTrace(cfg.CqiTrace)
		if err != nil {
			return nil, err
		}
		s.trace = trace
	}

	var sinks []stats.WindowSink
	if cfg.StatsLog {
		s.statsLog = stats.NewStatsLog(stats.GetStatsLogFileName(cfg.OutputDir, cfg.Id))
		sinks = append(sinks, s.statsLog)
	}
	s.window = stats.NewTimeWindow(cfg.StatsWindow, sinks...)
	s.rec.AddListener(s.window)

	s.kpimgr = NewKpiManager()
	s.kpimgr.Init(s)
	return s, nil
}

// AddCell creates a cell. Cells should be added before the UEs they serve.
func (s *Simulation) AddCell(cfg CellConfig) (*Cell, error) {
	if cfg.ID <= 0 {
		cfg.ID = s.genNodeId()
	}
	if s.isNodeIdUsed(cfg.ID) {
		return nil, errors.Errorf("node %d already exists", cfg.ID)
	}
	if cfg.Comp != nil {
		cc := *cfg.Comp
		cc.Tti = s.cfg.Tti()
		cfg.Comp = &cc
	}

	c, err := newCell(s, cfg)
	if err != nil {
		return nil, err
	}
	rn := radiomodel.NewRadioNode(c.Id, true, &radiomodel.RadioNodeConfig{X: cfg.X, Y: cfg.Y}, s.radio.Params())
	if err = s.radio.AddNode(rn); err != nil {
		if c.comp != nil {
			s.bus.Unregister(c.Id)
		}
		return nil, err
	}
	s.cells[c.Id] = c
	ncfg := DefaultNodeConfig()
	ncfg.ID, ncfg.X, ncfg.Y = c.Id, cfg.X, cfg.Y
	logger.GetNodeLogger(s.cfg.OutputDir, s.cfg.Id, &ncfg)
	s.nodePlacer.UpdateReference(cfg.X+s.nodePlacer.NodeDelta, cfg.Y+s.nodePlacer.NodeDelta)
	logger.Infof("added cell %d at (%.0f, %.0f)", c.Id, c.X, c.Y)
	return c, nil
}

// AddUe creates a UE and attaches it to its cell, the nearest one unless configured.
func (s *Simulation) AddUe(cfg *NodeConfig) (*Ue, error) {
	s.NodeConfigFinalize(cfg)
	if s.isNodeIdUsed(cfg.ID) {
		s.nodePlacer.ReuseNextNodePosition()
		return nil, errors.Errorf("node %d already exists", cfg.ID)
	}
	cell := s.cells[cfg.Cell]
	if cell == nil {
		s.nodePlacer.ReuseNextNodePosition()
		return nil, errors.Errorf("cell %d not found", cfg.Cell)
	}
	if cfg.Cqi < amc.MinCqi || cfg.Cqi > amc.MaxCqi {
		return nil, errors.Errorf("CQI %d out of range", cfg.Cqi)
	}
	rn := radiomodel.NewRadioNode(cfg.ID, false, &radiomodel.RadioNodeConfig{X: cfg.X, Y: cfg.Y}, s.radio.Params())
	if err := s.radio.AddNode(rn); err != nil {
		return nil, err
	}

	ue := newUe(*cfg)
	s.ues[ue.Id] = ue
	cell.attach(ue.Id)
	logger.GetNodeLogger(s.cfg.OutputDir, s.cfg.Id, cfg)
	if err := s.updateUeCqi(ue); err != nil {
		_ = s.DeleteUe(ue.Id)
		return nil, err
	}
	logger.NodeLogf(ue.Id, logger.InfoLevel, "attached to cell %d at (%.0f, %.0f)", cell.Id, ue.X, ue.Y)
	return ue, nil
}

// DeleteUe detaches a UE and drops its flows, the D2D flows towards it and its HARQ buffers.
func (s *Simulation) DeleteUe(id NodeId) error {
	ue := s.ues[id]
	if ue == nil {
		return errors.Errorf("UE %d not found", id)
	}
	for _, cid := range slices.Clone(ue.flows) {
		s.removeFlow(cid)
	}
	for _, cid := range s.GetFlows() {
		if f := s.flows[cid]; f.cfg.Dir == DirD2d && f.cfg.Peer == id {
			s.removeFlow(cid)
		}
	}
	for gid, members := range s.groups {
		if i := slices.Index(members, id); i >= 0 {
			s.groups[gid] = slices.Delete(members, i, i+1)
		}
	}
	for k := range s.txBuffers {
		if k.owner == id || k.peer == id {
			delete(s.txBuffers, k)
		}
	}
	for k := range s.rxBuffers {
		if k.owner == id || k.peer == id {
			delete(s.rxBuffers, k)
		}
	}
	s.cells[ue.Cell].detach(id)
	s.radio.RemoveNode(id)
	s.kpimgr.stopNode(id)
	logger.RemoveNodeLogger(id)
	delete(s.ues, id)
	return nil
}

// AddD2dGroup creates a D2D multicast group of D2D capable UEs.
func (s *Simulation) AddD2dGroup(id NodeId, members []NodeId) (NodeId, error) {
	if id <= 0 {
		id = s.genNodeId()
	}
	if s.isNodeIdUsed(id) {
		return id, errors.Errorf("node %d already exists", id)
	}
	for _, m := range members {
		ue := s.ues[m]
		if ue == nil || !ue.cfg.D2dCapable {
			return id, errors.Errorf("group member %d is not a D2D capable UE", m)
		}
	}
	s.groups[id] = slices.Clone(members)
	return id, nil
}

// AddFlow creates the connection of a traffic source and the HARQ buffers it needs.
func (s *Simulation) AddFlow(cfg FlowConfig) (*Flow, error) {
	ue := s.ues[cfg.Ue]
	if ue == nil {
		return nil, errors.Errorf("UE %d not found", cfg.Ue)
	}
	cell := s.cells[ue.Cell]
	switch cfg.Dir {
	case DirDl, DirUl:
		cfg.Peer = cell.Id
	case DirD2d:
		peer := s.ues[cfg.Peer]
		if peer == nil || peer.Id == ue.Id {
			return nil, errors.Errorf("D2D peer %d is not another UE", cfg.Peer)
		}
		if !ue.cfg.D2dCapable || !peer.cfg.D2dCapable {
			return nil, errors.Errorf("D2D flow %d->%d: both UEs must be D2D capable", ue.Id, peer.Id)
		}
		if peer.Cell != ue.Cell {
			return nil, errors.Errorf("D2D flow %d->%d: UEs are served by different cells", ue.Id, peer.Id)
		}
	case DirD2dMulti:
		if _, ok := s.groups[cfg.Peer]; !ok {
			return nil, errors.Errorf("D2D group %d not found", cfg.Peer)
		}
		if !ue.cfg.D2dCapable {
			return nil, errors.Errorf("UE %d is not D2D capable", ue.Id)
		}
	}

	lcid, ok := ue.allocLcid(cfg.Lcid)
	if !ok {
		return nil, errors.Errorf("UE %d already has a flow on lcid %d", ue.Id, lcid)
	}
	cid := Cid{Node: ue.Id, Lcid: lcid}
	cfg.Lcid = lcid
	if cfg.Start < s.curTime {
		cfg.Start = s.curTime
	}
	f, err := newFlow(cfg, cid, cell.Id)
	if err == nil {
		_, err = cell.conns.AddConnection(cid, cfg.Dir, cfg.Class, cfg.Peer)
	}
	if err != nil {
		ue.removeFlow(cid)
		return nil, err
	}
	s.flows[cid] = f
	s.ensureBuffers(cell, ue.Id, cfg.Dir, cfg.Peer)
	if cfg.Dir == DirD2d || cfg.Dir == DirD2dMulti {
		if err = s.updateUeCqi(ue); err != nil {
			return nil, err
		}
	}
	logger.NodeLogf(ue.Id, logger.InfoLevel, "added flow %v", f)
	return f, nil
}

func (s *Simulation) removeFlow(cid Cid) {
	f := s.flows[cid]
	if f == nil {
		return
	}
	c := s.cells[f.Cell]
	c.dl.ForgetConnection(cid)
	c.ul.ForgetConnection(cid)
	c.conns.RemoveConnection(cid)
	if ue := s.ues[cid.Node]; ue != nil {
		ue.removeFlow(cid)
	}
	delete(s.flows, cid)
}

// DeleteFlow stops a traffic source and removes its connection.
func (s *Simulation) DeleteFlow(cid Cid) error {
	if s.flows[cid] == nil {
		return errors.Errorf("flow %v not found", cid)
	}
	s.removeFlow(cid)
	return nil
}

func (s *Simulation) ensureBuffers(cell *Cell, ue NodeId, dir Direction, peer NodeId) {
	var link harq.Link
	switch dir {
	case DirDl:
		link = harq.Link{Owner: cell.Id, Peer: ue, Cell: cell.Id, Dir: dir}
	case DirUl:
		link = harq.Link{Owner: ue, Peer: cell.Id, Cell: cell.Id, Dir: dir}
	default:
		link = harq.Link{Owner: ue, Peer: peer, Cell: cell.Id, Dir: dir}
	}
	key := linkKey{link.Owner, link.Peer, dir}
	if s.txBuffers[key] == nil {
		s.txBuffers[key] = harq.NewTxBuffer(s.cfg.Harq, link, s.rec)
	}
	for _, rcv := range s.receivers(link) {
		rkey := linkKey{rcv, link.Owner, dir}
		if s.rxBuffers[rkey] == nil {
			rlink := harq.Link{Owner: rcv, Peer: link.Owner, Cell: cell.Id, Dir: dir}
			s.rxBuffers[rkey] = harq.NewRxBuffer(s.cfg.Harq, rlink, cell.counters[dir], s.rec)
		}
	}
}

// receivers returns the nodes a transmission on the link reaches.
func (s *Simulation) receivers(link harq.Link) []NodeId {
	if link.Dir != DirD2dMulti {
		return []NodeId{link.Peer}
	}
	var res []NodeId
	for _, m := range s.groups[link.Peer] {
		if m != link.Owner {
			res = append(res, m)
		}
	}
	return res
}

// SetCqi pins the CQI of a UE in one direction; band < 0 sets every band. The radio model no
// longer updates a pinned UE.
func (s *Simulation) SetCqi(id NodeId, dir Direction, band Band, cqi int) error {
	ue := s.ues[id]
	if ue == nil {
		return errors.Errorf("UE %d not found", id)
	}
	a := s.cells[ue.Cell].amc
	var err error
	if band < 0 {
		err = a.SetCqi(id, dir, cqi)
	} else {
		err = a.SetBandCqi(id, dir, band, cqi)
	}
	if err != nil {
		return err
	}
	if !ue.HasFixedCqi() {
		ue.cfg.Cqi = a.WidebandCqi(id, dir)
	}
	return nil
}

func (s *Simulation) updateUeCqi(ue *Ue) error {
	cell := s.cells[ue.Cell]
	if ue.HasFixedCqi() {
		for _, dir := range []Direction{DirDl, DirUl, DirD2d, DirD2dMulti} {
			if cell.amc.WidebandCqi(ue.Id, dir) > 0 {
				continue
			}
			if err := cell.amc.SetCqi(ue.Id, dir, ue.cfg.Cqi); err != nil {
				return err
			}
		}
		return nil
	}
	if s.trace != nil {
		return nil
	}

	dl, err := s.radio.Cqi(cell.Id, ue.Id)
	if err != nil {
		return err
	}
	ul, err := s.radio.Cqi(ue.Id, cell.Id)
	if err != nil {
		return err
	}
	if err = cell.amc.SetCqi(ue.Id, DirDl, dl); err != nil {
		return err
	}
	if err = cell.amc.SetCqi(ue.Id, DirUl, ul); err != nil {
		return err
	}

	// one CQI per D2D direction: the worst receiver of the UE's D2D flows
	d2d := map[Direction]int{}
	for _, cid := range ue.flows {
		f := s.flows[cid]
		if f.cfg.Dir != DirD2d && f.cfg.Dir != DirD2dMulti {
			continue
		}
		link := harq.Link{Owner: ue.Id, Peer: f.cfg.Peer, Cell: cell.Id, Dir: f.cfg.Dir}
		for _, rcv := range s.receivers(link) {
			cqi, err := s.radio.Cqi(ue.Id, rcv)
			if err != nil {
				return err
			}
			if cur, ok := d2d[f.cfg.Dir]; !ok || cqi < cur {
				d2d[f.cfg.Dir] = cqi
			}
		}
	}
	for _, dir := range []Direction{DirD2d, DirD2dMulti} {
		if cqi, ok := d2d[dir]; ok {
			if err = cell.amc.SetCqi(ue.Id, dir, cqi); err != nil {
				return err
			}
		}
	}
	return nil
}

// cqiRouter delivers traced CQI reports to the AMC of the UE's cell.
type cqiRouter struct {
	s *Simulation
}

func (r cqiRouter) ueAmc(node NodeId) *amc.Amc {
	ue := r.s.ues[node]
	if ue == nil {
		logger.Warnf("CQI trace: UE %d not found", node)
		return nil
	}
	return r.s.cells[ue.Cell].amc
}

func (r cqiRouter) SetCqi(node NodeId, dir Direction, cqi int) error {
	if a := r.ueAmc(node); a != nil {
		return a.SetCqi(node, dir, cqi)
	}
	return nil
}

func (r cqiRouter) SetBandCqi(node NodeId, dir Direction, band Band, cqi int) error {
	if a := r.ueAmc(node); a != nil {
		return a.SetBandCqi(node, dir, band, cqi)
	}
	return nil
}

// Tick runs the TTI that starts at now: CQI and traffic updates, Comp coordination, scheduling,
// HARQ transmission, the channel and HARQ reception. The first error stops the simulation; it is
// returned by this and every later call.
func (s *Simulation) Tick(now SimTime) error {
	if s.err != nil {
		return s.err
	}
	if s.ticks > 0 && now < s.curTime {
		return errors.Errorf("tick at %d us is before the current time %d us", now, s.curTime)
	}
	logger.SetSimTime(now)
	s.err = s.runTti(now)
	s.curTime = now + s.cfg.Tti()
	s.ticks++
	if s.err != nil {
		logger.Errorf("simulation halted at %d us: %v", now, s.err)
	}
	return s.err
}

func (s *Simulation) runTti(now SimTime) error {
	s.rec.SetTime(now)
	s.radio.OnAdvanceTime(now)
	if err := s.updateCqi(now); err != nil {
		return err
	}
	if err := s.generateTraffic(now); err != nil {
		return err
	}
	if err := s.coordinate(now); err != nil {
		return err
	}
	for _, id := range s.GetCells() {
		if err := s.scheduleCell(s.cells[id], now); err != nil {
			return err
		}
	}
	if err := s.transmit(now); err != nil {
		return err
	}
	if err := s.receive(now); err != nil {
		return err
	}
	s.window.Advance(now)
	logger.FlushAllNodeLogs(now)
	return nil
}

func (s *Simulation) updateCqi(now SimTime) error {
	if s.trace != nil {
		return s.trace.Apply(now, cqiRouter{s})
	}
	if s.cfg.CqiPeriod <= 0 || s.ticks%uint64(s.cfg.CqiPeriod) != 0 {
		return nil
	}
	for _, id := range s.GetUes() {
		if err := s.updateUeCqi(s.ues[id]); err != nil {
			return err
		}
	}
	return nil
}

func (s *Simulation) generateTraffic(now SimTime) error {
	for _, cid := range s.GetFlows() {
		f := s.flows[cid]
		c := s.cells[f.Cell]
		for _, t := range f.Arrivals(now) {
			if err := c.conns.Enqueue(cid, f.cfg.PacketSize, t); err != nil {
				return err
			}
			f.SentPackets++
			f.SentBytes += uint64(f.cfg.PacketSize)
		}
	}
	return nil
}

// coordinate delivers due X2 messages, then lets every Comp client compute its request before any
// coordinator partitions the bands.
func (s *Simulation) coordinate(now SimTime) error {
	if err := s.bus.Advance(now); err != nil {
		return err
	}
	cells := s.GetCells()
	for _, id := range cells {
		if m := s.cells[id].comp; m != nil {
			m.ClientTick(now)
		}
	}
	for _, id := range cells {
		if m := s.cells[id].comp; m != nil {
			if err := m.CoordinatorTick(now); err != nil {
				return errors.Wrapf(err, "comp coordinator %d", id)
			}
		}
	}
	return nil
}

func (s *Simulation) scheduleCell(c *Cell, now SimTime) error {
	for _, sch := range []*scheduler.Scheduler{c.dl, c.ul} {
		entries, err := sch.Schedule(now)
		if err != nil {
			return errors.Wrapf(err, "cell %d", c.Id)
		}
		for _, e := range entries {
			if err = s.applyGrant(c, e, now); err != nil {
				return err
			}
		}
		if len(entries) > 0 {
			suffix := "Dl"
			if sch == c.ul {
				suffix = "Ul"
			}
			s.rec.Emit(c.Id, "macScheduledBlocks"+suffix, float64(scheduler.TotalBlocks(entries)))
		}
	}
	return nil
}

// senderKey names the Tx buffer a grant transmits from.
func senderKey(c *Cell, e scheduler.ScheduleEntry) linkKey {
	switch e.Dir {
	case DirDl:
		return linkKey{c.Id, e.Cid.Node, DirDl}
	case DirUl:
		return linkKey{e.Cid.Node, c.Id, DirUl}
	default:
		return linkKey{e.Cid.Node, e.Peer, e.Dir}
	}
}

// applyGrant fills a new-data grant with a PDU. Retransmission grants were already selected by
// the scheduler.
func (s *Simulation) applyGrant(c *Cell, e scheduler.ScheduleEntry, now SimTime) error {
	key := senderKey(c, e)
	buf := s.txBuffers[key]
	if buf == nil {
		return InvariantErrorf("grant %v without a HARQ Tx buffer %d->%d", e, key.owner, key.peer)
	}
	s.selected[key] = struct{}{}
	if e.Rtx {
		return nil
	}
	free := buf.FirstAvailable()
	if free.IsNone() {
		return InvariantErrorf("grant %v: no free HARQ process at node %d", e, key.owner)
	}
	s.pduSeq++
	pdu := &harq.Pdu{
		Id:      s.pduSeq,
		Cid:     e.Cid,
		Src:     key.owner,
		Dst:     key.peer,
		Dir:     e.Dir,
		Bytes:   e.Bytes,
		Blocks:  e.Blocks,
		Created: now,
	}
	logger.NodeLogf(e.Node, logger.TraceLevel, "new PDU %d on acid %d cw %d: %d bytes", pdu.Id, free.Acid,
		e.Codeword, pdu.Bytes)
	return buf.InsertPdu(free.Acid, e.Codeword, pdu)
}

func (s *Simulation) transmit(now SimTime) error {
	keys := maps.Keys(s.selected)
	slices.SortFunc(keys, compareLinkKeys)
	maps.Clear(s.selected)
	for _, key := range keys {
		buf := s.txBuffers[key]
		pdus, err := buf.SendSelectedDown(now)
		if err != nil {
			return err
		}
		for _, pdu := range pdus {
			if err = s.deliver(buf.Link(), pdu, now); err != nil {
				return err
			}
		}
	}
	return nil
}

// deliver passes a transmitted PDU through the channel to the Rx buffers of its receivers.
func (s *Simulation) deliver(link harq.Link, pdu *harq.Pdu, now SimTime) error {
	cqi := s.cells[link.Cell].amc.WidebandCqi(link.Ue(), link.Dir)
	for _, rcv := range s.receivers(link) {
		rx := s.rxBuffers[linkKey{rcv, link.Owner, link.Dir}]
		if rx == nil {
			return InvariantErrorf("PDU %d on %v: no HARQ Rx buffer at node %d", pdu.Id, link, rcv)
		}
		decoded := s.isDecoded(link, rcv, cqi)
		if err := rx.InsertPdu(pdu, decoded, now); err != nil {
			return err
		}
		logger.NodeLogf(link.Ue(), logger.TraceLevel, "PDU %d acid %d cw %d tx %d to %d decoded=%v", pdu.Id,
			pdu.Acid, pdu.Cw, pdu.TxNumber, rcv, decoded)
	}
	return nil
}

func (s *Simulation) isDecoded(link harq.Link, rcv NodeId, cqi int) bool {
	ue := s.ues[link.Ue()]
	if s.trace != nil || (ue != nil && ue.HasFixedCqi()) {
		return prng.NewDecoderRandom() >= s.cfg.ResidualBler
	}
	return s.radio.IsDecoded(link.Owner, rcv, cqi)
}

// receive concludes the HARQ evaluations of every Rx buffer, routes the feedback to the
// transmitters and hands the decoded PDUs to their flows.
func (s *Simulation) receive(now SimTime) error {
	for _, key := range sortedLinkKeys(s.rxBuffers) {
		pdus, fbs, err := s.rxBuffers[key].ExtractCorrectPdus(now)
		if err != nil {
			return err
		}
		for _, fb := range fbs {
			tx := s.txBuffers[linkKey{fb.Dst, fb.Src, fb.Dir}]
			if tx == nil {
				continue
			}
			if err = tx.ReceiveHarqFeedback(fb); err != nil {
				return err
			}
		}
		for _, pdu := range pdus {
			if f := s.flows[pdu.Cid]; f != nil {
				f.DeliveredPdus++
				f.DeliveredBytes += uint64(pdu.Bytes)
			}
		}
	}
	return nil
}

// RunFor advances the simulation by duration, one Tick per TTI, on the calling goroutine.
func (s *Simulation) RunFor(duration SimTime) error {
	end := s.curTime + duration
	startReal, startTime := time.Now(), s.curTime
	for s.curTime < end {
		s.handleTasks()
		if s.ctx.Err() != nil {
			return exitError
		}
		if err := s.Tick(s.curTime); err != nil {
			return err
		}
		s.pace(startReal, startTime)
	}
	return nil
}

// pace sleeps so that simulated time advances at the set speed relative to real time.
func (s *Simulation) pace(startReal time.Time, startTime SimTime) {
	if s.speed <= 0 || s.speed >= MaxSimulateSpeed {
		return
	}
	target := startReal.Add(time.Duration(float64(s.curTime-startTime)/s.speed) * time.Microsecond)
	if d := time.Until(target); d > 0 {
		time.Sleep(d)
	}
}

// Run executes posted tasks and 'go' requests on the current goroutine until the program
// context is done.
func (s *Simulation) Run() {
	s.ctx.WaitAdd("simulation", 1)
	defer s.ctx.WaitDone("simulation")
	defer logger.Debugf("simulation exit.")
	defer s.Stop()

	close(s.Started)
	done := s.ctx.Done()
loop:
	for {
		select {
		case f := <-s.taskChan:
			f()
		case req := <-s.goChan:
			req.done <- s.RunFor(req.duration)
			close(req.done)
		case <-done:
			break loop
		}
	}
}

// Go requests the Run goroutine to simulate for duration. The returned channel delivers the result.
func (s *Simulation) Go(duration time.Duration) <-chan error {
	done := make(chan error, 1)
	select {
	case s.goChan <- goRequest{duration: SimTime(duration / time.Microsecond), done: done}:
	case <-s.ctx.Done():
		done <- exitError
		close(done)
	}
	return done
}

// PostAsync queues a task to run on the simulation goroutine. It returns false when the task was not queued,
// either because the simulation is exiting or because a trivial task found the queue full.
func (s *Simulation) PostAsync(trivial bool, task func()) bool {
	if s.ctx.Err() != nil {
		return false
	}
	if trivial {
		select {
		case s.taskChan <- task:
			return true
		default:
			return false
		}
	}
	select {
	case s.taskChan <- task:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Simulation) handleTasks() {
	defer func() {
		err := recover()
		if err != nil {
			logger.Errorf("simulation handle task failed: %+v", err)
		}
	}()

	for {
		select {
		case t := <-s.taskChan:
			t()
		default:
			return
		}
	}
}

func (s *Simulation) Stop() {
	if s.stopped {
		return
	}
	logger.Infof("stopping simulation at %d us ...", s.curTime)
	s.kpimgr.Stop()
	s.stopped = true
	s.window.Finalize()
	if s.statsLog != nil {
		s.statsLog.Close()
	}
	logger.FlushAllNodeLogs(s.curTime)
	s.ctx.Cancel("simulation-stop")
}

func (s *Simulation) IsStopping() bool {
	return s.stopped || s.ctx.Err() != nil
}

// Err returns the error that halted the simulation, if any.
func (s *Simulation) Err() error {
	return s.err
}

func (s *Simulation) genNodeId() NodeId {
	nodeid := 1
	for s.isNodeIdUsed(nodeid) {
		nodeid += 1
	}
	return nodeid
}

func (s *Simulation) isNodeIdUsed(id NodeId) bool {
	_, isCell := s.cells[id]
	_, isUe := s.ues[id]
	_, isGroup := s.groups[id]
	return isCell || isUe || isGroup
}

// GetCells returns a sorted array of cell ids.
func (s *Simulation) GetCells() []NodeId {
	ids := maps.Keys(s.cells)
	slices.Sort(ids)
	return ids
}

// GetUes returns a sorted array of UE ids.
func (s *Simulation) GetUes() []NodeId {
	ids := maps.Keys(s.ues)
	slices.Sort(ids)
	return ids
}

// GetFlows returns the connections of all flows, sorted.
func (s *Simulation) GetFlows() []Cid {
	cids := maps.Keys(s.flows)
	slices.SortFunc(cids, CompareCids)
	return cids
}

func (s *Simulation) GetD2dGroups() map[NodeId][]NodeId {
	return s.groups
}

func (s *Simulation) Cell(id NodeId) *Cell {
	return s.cells[id]
}

func (s *Simulation) Ue(id NodeId) *Ue {
	return s.ues[id]
}

func (s *Simulation) Flow(cid Cid) *Flow {
	return s.flows[cid]
}

func (s *Simulation) TxBuffer(owner NodeId, peer NodeId, dir Direction) *harq.TxBuffer {
	return s.txBuffers[linkKey{owner, peer, dir}]
}

func (s *Simulation) RxBuffer(owner NodeId, peer NodeId, dir Direction) *harq.RxBuffer {
	return s.rxBuffers[linkKey{owner, peer, dir}]
}

// HarqBuffersOf returns the Tx and Rx buffers a node owns, ordered by peer and direction.
func (s *Simulation) HarqBuffersOf(node NodeId) ([]*harq.TxBuffer, []*harq.RxBuffer) {
	var txs []*harq.TxBuffer
	var rxs []*harq.RxBuffer
	for _, k := range sortedLinkKeys(s.txBuffers) {
		if k.owner == node {
			txs = append(txs, s.txBuffers[k])
		}
	}
	for _, k := range sortedLinkKeys(s.rxBuffers) {
		if k.owner == node {
			rxs = append(rxs, s.rxBuffers[k])
		}
	}
	return txs, rxs
}

// SetDiscipline switches the ranking strategy of every scheduler.
func (s *Simulation) SetDiscipline(d SchedDiscipline) {
	s.cfg.Scheduler.Discipline = d
	for _, c := range s.cells {
		c.dl.SetStrategy(d)
		c.ul.SetStrategy(d)
	}
}

func (s *Simulation) CurTime() SimTime {
	return s.curTime
}

func (s *Simulation) Recorder() *stats.Recorder {
	return s.rec
}

func (s *Simulation) Bus() *comp.Bus {
	return s.bus
}

func (s *Simulation) Radio() *radiomodel.Model {
	return s.radio
}

func (s *Simulation) GetConfig() *Config {
	return s.cfg
}

func (s *Simulation) GetKpiManager() *KpiManager {
	return s.kpimgr
}

func (s *Simulation) AutoGo() bool {
	return s.cfg.AutoGo
}

func (s *Simulation) SetSpeed(speed float64) {
	if speed <= 0 || speed > MaxSimulateSpeed {
		speed = MaxSimulateSpeed
	}
	s.speed = speed
}

func (s *Simulation) GetSpeed() float64 {
	return s.speed
}

func (s *Simulation) GetLogLevel() logger.Level {
	return s.logLevel
}

func (s *Simulation) SetLogLevel(level logger.Level) {
	s.logLevel = level
	logger.SetLevel(level)
	simplelogger.SetLevel(GetSimpleloggerLevel(level))
}

func (s *Simulation) createOutputDir() error {
	err := os.MkdirAll(s.cfg.OutputDir, 0775)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	return err
}

func (s *Simulation) cleanOutputDir() error {
	return removeAllFiles(fmt.Sprintf("%s/%d_*.*", s.cfg.OutputDir, s.cfg.Id))
}
