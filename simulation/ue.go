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
	"golang.org/x/exp/slices"

	. "github.com/ransim/ran-ns/types"
)

// Ue is a simulated user equipment attached to one cell.
type Ue struct {
	Id       NodeId
	Cell     NodeId
	X, Y     float64
	cfg      NodeConfig
	nextLcid LogicalCid
	flows    []Cid
}

func newUe(cfg NodeConfig) *Ue {
	return &Ue{
		Id:   cfg.ID,
		Cell: cfg.Cell,
		X:    cfg.X,
		Y:    cfg.Y,
		cfg:  cfg,
	}
}

func (u *Ue) Config() NodeConfig {
	return u.cfg
}

// HasFixedCqi reports whether the UE's CQI is pinned instead of computed by the radio model.
func (u *Ue) HasFixedCqi() bool {
	return u.cfg.Cqi > 0
}

func (u *Ue) Flows() []Cid {
	return u.flows
}

// allocLcid reserves lcid, or the next free one when lcid < 0.
func (u *Ue) allocLcid(lcid LogicalCid) (LogicalCid, bool) {
	if lcid < 0 {
		lcid = u.nextLcid
		for slices.ContainsFunc(u.flows, func(c Cid) bool { return c.Lcid == lcid }) {
			lcid++
		}
	} else if slices.ContainsFunc(u.flows, func(c Cid) bool { return c.Lcid == lcid }) {
		return lcid, false
	}
	if lcid >= u.nextLcid {
		u.nextLcid = lcid + 1
	}
	u.flows = append(u.flows, Cid{Node: u.Id, Lcid: lcid})
	return lcid, true
}

func (u *Ue) removeFlow(cid Cid) {
	if i := slices.Index(u.flows, cid); i >= 0 {
		u.flows = slices.Delete(u.flows, i, i+1)
	}
}
