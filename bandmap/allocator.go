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

package bandmap

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	. "github.com/ransim/ran-ns/types"
)

type nodeBand struct {
	node NodeId
	band Band
}

// Allocator tracks the blocks handed out in the current TTI. It is reset at the start of every
// scheduling round.
type Allocator struct {
	numBands      int
	blocksPerBand int
	used          []int
	nodeBlocks    map[nodeBand]int
	nodeBytes     map[nodeBand]uint
	allocatedCws  map[NodeId]int
}

func NewAllocator(numBands int, blocksPerBand int) *Allocator {
	a := &Allocator{
		numBands:      numBands,
		blocksPerBand: blocksPerBand,
	}
	a.Reset()
	return a
}

// Reset frees every block and clears per-node bookkeeping.
func (a *Allocator) Reset() {
	a.used = make([]int, a.numBands)
	a.nodeBlocks = make(map[nodeBand]int)
	a.nodeBytes = make(map[nodeBand]uint)
	a.allocatedCws = make(map[NodeId]int)
}

func (a *Allocator) NumBands() int {
	return a.numBands
}

func (a *Allocator) BlocksPerBand() int {
	return a.blocksPerBand
}

// TotalBlocks is the size of the grid.
func (a *Allocator) TotalBlocks() int {
	return a.numBands * a.blocksPerBand
}

// AvailableBlocks returns the free blocks on a band.
func (a *Allocator) AvailableBlocks(band Band) int {
	if band < 0 || band >= a.numBands {
		return 0
	}
	return a.blocksPerBand - a.used[band]
}

// TotalAvailableBlocks returns the free blocks over all bands.
func (a *Allocator) TotalAvailableBlocks() int {
	n := 0
	for b := 0; b < a.numBands; b++ {
		n += a.AvailableBlocks(b)
	}
	return n
}

// AllocatedBlocks returns the blocks already handed out on a band.
func (a *Allocator) AllocatedBlocks(band Band) int {
	if band < 0 || band >= a.numBands {
		return 0
	}
	return a.used[band]
}

// AddBlocks hands blocks of a band to a node. It fails without side effects if the band does not
// have that many free blocks.
func (a *Allocator) AddBlocks(node NodeId, band Band, blocks int, bytes uint) error {
	if blocks <= 0 {
		return InvariantErrorf("node %d: allocating %d blocks on band %d", node, blocks, band)
	}
	if free := a.AvailableBlocks(band); blocks > free {
		return InvariantErrorf("node %d: allocating %d blocks on band %d with %d free", node, blocks, band, free)
	}
	a.used[band] += blocks
	key := nodeBand{node, band}
	a.nodeBlocks[key] += blocks
	a.nodeBytes[key] += bytes
	return nil
}

// NodeBlocks returns the blocks allocated to a node over all bands.
func (a *Allocator) NodeBlocks(node NodeId) int {
	n := 0
	for k, v := range a.nodeBlocks {
		if k.node == node {
			n += v
		}
	}
	return n
}

// NodeBytes returns the bytes allocated to a node over all bands.
func (a *Allocator) NodeBytes(node NodeId) uint {
	var n uint
	for k, v := range a.nodeBytes {
		if k.node == node {
			n += v
		}
	}
	return n
}

// NodeBands lists the bands on which a node got blocks, ascending.
func (a *Allocator) NodeBands(node NodeId) []Band {
	var bands []Band
	for k := range a.nodeBlocks {
		if k.node == node {
			bands = append(bands, k.band)
		}
	}
	slices.Sort(bands)
	return bands
}

// Nodes lists the nodes that got blocks in this TTI, ascending.
func (a *Allocator) Nodes() []NodeId {
	set := map[NodeId]struct{}{}
	for k := range a.nodeBlocks {
		set[k.node] = struct{}{}
	}
	nodes := maps.Keys(set)
	slices.Sort(nodes)
	return nodes
}

// IncAllocatedCws records that one more codeword of the node has been filled in this TTI.
func (a *Allocator) IncAllocatedCws(node NodeId) {
	a.allocatedCws[node]++
}

func (a *Allocator) AllocatedCws(node NodeId) int {
	return a.allocatedCws[node]
}
