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
	"math"

	"github.com/ransim/ran-ns/logger"
	. "github.com/ransim/ran-ns/types"
)

// NodeAutoPlacer places new UEs on a grid next to the most recently placed cell, in meters.
type NodeAutoPlacer struct {
	X, Y       float64
	Xref, Yref float64
	Xmax       float64
	NodeDelta  float64
	isReset    bool
}

func NewNodeAutoPlacer() *NodeAutoPlacer {
	return &NodeAutoPlacer{
		Xref:      50,
		Yref:      50,
		Xmax:      500,
		X:         50,
		Y:         50,
		NodeDelta: 50,
		isReset:   true,
	}
}

// UpdateReference moves the grid origin to 'x', 'y'. Placing starts from there.
func (nap *NodeAutoPlacer) UpdateReference(x, y float64) {
	nap.Xref = x
	nap.X = x
	nap.Yref = y
	nap.Y = y
	nap.isReset = true
}

// NextNodePosition picks the position of the next UE.
func (nap *NodeAutoPlacer) NextNodePosition() (float64, float64) {
	if !nap.isReset {
		nap.X += nap.NodeDelta
		if nap.X > nap.Xref+nap.Xmax {
			nap.X = nap.Xref
			nap.Y += nap.NodeDelta
		}
	}
	nap.isReset = false
	return nap.X, nap.Y
}

// ReuseNextNodePosition makes the next call to NextNodePosition return the last position again.
func (nap *NodeAutoPlacer) ReuseNextNodePosition() {
	nap.isReset = true
}

// NodeConfigFinalize completes the configuration of a new UE: node id, position and serving cell.
// It is not mandatory to call, AddUe calls it for the caller.
func (s *Simulation) NodeConfigFinalize(nodeCfg *NodeConfig) {
	if nodeCfg.ID <= 0 {
		nodeCfg.ID = s.genNodeId()
	}
	if nodeCfg.IsAutoPlaced {
		nodeCfg.X, nodeCfg.Y = s.nodePlacer.NextNodePosition()
		nodeCfg.IsAutoPlaced = false
	}
	if nodeCfg.Cell == InvalidNodeId {
		nodeCfg.Cell = s.nearestCell(nodeCfg.X, nodeCfg.Y)
	}
	logger.Debugf("UE config %+v", *nodeCfg)
}

func (s *Simulation) nearestCell(x, y float64) NodeId {
	best := InvalidNodeId
	bestDist := math.Inf(1)
	for _, id := range s.GetCells() {
		c := s.cells[id]
		d := math.Hypot(c.X-x, c.Y-y)
		if d < bestDist {
			best, bestDist = id, d
		}
	}
	return best
}
