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
	"github.com/ransim/ran-ns/prng"
	. "github.com/ransim/ran-ns/types"
)

// pf is proportional fair: achievable rate over the smoothed rate granted so far.
type pf struct {
	alpha   float64
	epsilon float64
	jitter  bool
	rate    map[Cid]float64
}

func newPf(alpha, epsilon float64, jitter bool) *pf {
	return &pf{
		alpha:   alpha,
		epsilon: epsilon,
		jitter:  jitter,
		rate:    make(map[Cid]float64),
	}
}

func (p *pf) ComputeScore(in ScoreInput) ScoreDesc {
	r := p.rate[in.Cid]
	var s float64
	if r < p.epsilon {
		s = 1.0 / p.epsilon
	} else if in.AvailableBlocks > 0 {
		s = in.BytesPerBlock() / r
		if p.jitter {
			s += prng.NewScoreJitter(p.epsilon)
		}
	}
	return ScoreDesc{Cid: in.Cid, Score: s}
}

func (p *pf) OnGrant(Cid, []Band, uint) {}

func (p *pf) Commit(granted map[Cid]uint, totalBlocks int) {
	for cid, bytes := range granted {
		shortTerm := 0.0
		if totalBlocks > 0 {
			shortTerm = float64(bytes) / float64(totalBlocks)
		}
		p.rate[cid] = (1.0-p.alpha)*p.rate[cid] + p.alpha*shortTerm
	}
}

func (p *pf) Forget(cid Cid) {
	delete(p.rate, cid)
}

// Rate returns the smoothed granted rate of a connection.
func (p *pf) Rate(cid Cid) float64 {
	return p.rate[cid]
}
