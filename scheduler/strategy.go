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
	. "github.com/ransim/ran-ns/types"
)

// ScoreInput is what a strategy knows about a connection when ranking it.
type ScoreInput struct {
	Cid             Cid
	Dir             Direction
	Class           TrafficClass
	AvailableBytes  uint
	AvailableBlocks int
	Occupancy       uint
}

// BytesPerBlock is the achievable rate of the connection on the blocks still free.
func (in ScoreInput) BytesPerBlock() float64 {
	if in.AvailableBlocks <= 0 {
		return 0
	}
	return float64(in.AvailableBytes) / float64(in.AvailableBlocks)
}

// Strategy ranks connections for new-data scheduling.
type Strategy interface {
	ComputeScore(in ScoreInput) ScoreDesc
	OnGrant(cid Cid, bands []Band, bytes uint)
}

// Committer is implemented by strategies that keep state across TTIs. granted holds the bytes
// granted to every connection considered in the TTI, zero included.
type Committer interface {
	Commit(granted map[Cid]uint, totalBlocks int)
}

// GrantLimiter is implemented by strategies that cap the bytes granted to a connection per TTI.
type GrantLimiter interface {
	GrantCap(cid Cid) uint
}

// Forgetter is implemented by strategies holding per-connection state.
type Forgetter interface {
	Forget(cid Cid)
}

func NewStrategy(cfg Config) Strategy {
	switch cfg.Discipline {
	case SchedPf:
		return newPf(cfg.PfAlpha, cfg.PfEpsilon, cfg.PfJitter)
	case SchedDrr:
		return newDrr(cfg.DrrQuantum)
	default:
		return &maxCi{}
	}
}
