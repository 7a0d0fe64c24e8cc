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

package scheduler

import (
	"golang.org/x/exp/slices"

	. "github.com/ransim/ran-ns/types"
)

// drr is deficit round robin. Connections are visited in ring order; each visit adds a quantum
// to the connection's deficit, which caps its grant.
type drr struct {
	quantum uint
	ring    []Cid
	deficit map[Cid]uint
	served  []Cid
}

func newDrr(quantum uint) *drr {
	return &drr{
		quantum: quantum,
		deficit: make(map[Cid]uint),
	}
}

func (d *drr) position(cid Cid) int {
	idx := slices.Index(d.ring, cid)
	if idx < 0 {
		d.ring = append(d.ring, cid)
		idx = len(d.ring) - 1
	}
	return idx
}

func (d *drr) ComputeScore(in ScoreInput) ScoreDesc {
	return ScoreDesc{Cid: in.Cid, Score: float64(-d.position(in.Cid))}
}

func (d *drr) GrantCap(cid Cid) uint {
	d.deficit[cid] += d.quantum
	return d.deficit[cid]
}

func (d *drr) OnGrant(cid Cid, _ []Band, bytes uint) {
	if bytes >= d.deficit[cid] {
		d.deficit[cid] = 0
	} else {
		d.deficit[cid] -= bytes
	}
	d.served = append(d.served, cid)
}

// Commit moves the connections served in this TTI to the back of the ring, in service order.
func (d *drr) Commit(map[Cid]uint, int) {
	for _, cid := range d.served {
		if idx := slices.Index(d.ring, cid); idx >= 0 {
			d.ring = slices.Delete(d.ring, idx, idx+1)
			d.ring = append(d.ring, cid)
		}
	}
	d.served = d.served[:0]
}

func (d *drr) Forget(cid Cid) {
	if idx := slices.Index(d.ring, cid); idx >= 0 {
		d.ring = slices.Delete(d.ring, idx, idx+1)
	}
	delete(d.deficit, cid)
}
