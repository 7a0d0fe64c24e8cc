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
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ransim/ran-ns/amc"
	"github.com/ransim/ran-ns/bandmap"
	"github.com/ransim/ran-ns/comp"
	"github.com/ransim/ran-ns/conn"
	"github.com/ransim/ran-ns/harq"
	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/scheduler"
	. "github.com/ransim/ran-ns/types"
)

// CellConfig is the configuration of a new cell (eNB/gNB).
type CellConfig struct {
	ID   NodeId
	X, Y float64
	Comp *comp.Config // nil for an uncoordinated cell
}

func DefaultCellConfig() CellConfig {
	return CellConfig{
		ID: -1,
	}
}

// Cell is one base station with its downlink and uplink schedulers. It implements
// scheduler.Context over the HARQ buffers of the simulation.
type Cell struct {
	Id       NodeId
	X, Y     float64
	sim      *Simulation
	amc      *amc.Amc
	conns    *conn.Registry
	dl       *scheduler.Scheduler
	ul       *scheduler.Scheduler
	comp     *comp.Manager
	counters map[Direction]*harq.CellCounter
	ues      map[NodeId]struct{}
}

func newCell(s *Simulation, cfg CellConfig) (*Cell, error) {
	c := &Cell{
		Id:       cfg.ID,
		X:        cfg.X,
		Y:        cfg.Y,
		sim:      s,
		amc:      amc.NewAmc(s.cfg.NumBands),
		conns:    conn.NewRegistry(),
		counters: map[Direction]*harq.CellCounter{},
		ues:      map[NodeId]struct{}{},
	}
	for _, dir := range []Direction{DirDl, DirUl, DirD2d, DirD2dMulti} {
		c.counters[dir] = &harq.CellCounter{}
	}

	var err error
	if c.dl, err = scheduler.NewScheduler(s.cfg.Scheduler, c.Id, []Direction{DirDl}, s.cfg.NumBands,
		s.cfg.BlocksPerBand, c, c.amc, c.conns); err != nil {
		return nil, err
	}
	if c.ul, err = scheduler.NewScheduler(s.cfg.Scheduler, c.Id, []Direction{DirUl, DirD2d, DirD2dMulti},
		s.cfg.NumBands, s.cfg.BlocksPerBand, c, c.amc, c.conns); err != nil {
		return nil, err
	}

	if cfg.Comp != nil {
		if c.comp, err = comp.NewManager(c.Id, *cfg.Comp, s.cfg.NumBands, s.bus, c.conns, c.amc, c, s.rec); err != nil {
			return nil, errors.Wrapf(err, "cell %d", c.Id)
		}
	}
	return c, nil
}

// SetUsableMask restricts the downlink scheduler to the bands Comp allowed.
func (c *Cell) SetUsableMask(m bandmap.UsableMask) {
	logger.NodeLogf(c.Id, logger.DebugLevel, "usable bands %v", m)
	c.dl.SetUsableMask(m)
}

func (c *Cell) IsAttached(node NodeId) bool {
	_, ok := c.ues[node]
	return ok
}

func (c *Cell) TxBuffer(owner NodeId, peer NodeId, dir Direction) *harq.TxBuffer {
	return c.sim.txBuffers[linkKey{owner, peer, dir}]
}

func (c *Cell) TxBuffers(dir Direction) []*harq.TxBuffer {
	var res []*harq.TxBuffer
	for _, k := range sortedLinkKeys(c.sim.txBuffers) {
		b := c.sim.txBuffers[k]
		if k.dir == dir && b.Link().Cell == c.Id {
			res = append(res, b)
		}
	}
	return res
}

func (c *Cell) RxBuffers(dir Direction) []*harq.RxBuffer {
	var res []*harq.RxBuffer
	for _, k := range sortedLinkKeys(c.sim.rxBuffers) {
		if k.dir == dir && k.owner == c.Id {
			res = append(res, c.sim.rxBuffers[k])
		}
	}
	return res
}

// Ues returns the attached UEs in id order.
func (c *Cell) Ues() []NodeId {
	ids := maps.Keys(c.ues)
	slices.Sort(ids)
	return ids
}

func (c *Cell) Amc() *amc.Amc {
	return c.amc
}

func (c *Cell) Connections() *conn.Registry {
	return c.conns
}

func (c *Cell) Scheduler(dir Direction) *scheduler.Scheduler {
	if dir == DirDl {
		return c.dl
	}
	return c.ul
}

// Comp returns the coordination manager, nil for an uncoordinated cell.
func (c *Cell) Comp() *comp.Manager {
	return c.comp
}

func (c *Cell) attach(ue NodeId) {
	c.ues[ue] = struct{}{}
}

func (c *Cell) detach(ue NodeId) {
	for _, cid := range c.conns.NodeCids(ue) {
		c.dl.ForgetConnection(cid)
		c.ul.ForgetConnection(cid)
	}
	c.conns.RemoveNode(ue)
	c.amc.RemoveNode(ue)
	delete(c.ues, ue)
}

// linkKey names a HARQ buffer: the node holding it, its peer and the direction.
type linkKey struct {
	owner NodeId
	peer  NodeId
	dir   Direction
}

func compareLinkKeys(a, b linkKey) int {
	if a.owner != b.owner {
		return a.owner - b.owner
	}
	if a.peer != b.peer {
		return a.peer - b.peer
	}
	return int(a.dir) - int(b.dir)
}

func sortedLinkKeys[V any](m map[linkKey]V) []linkKey {
	keys := maps.Keys(m)
	slices.SortFunc(keys, compareLinkKeys)
	return keys
}
