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
	"container/heap"

	. "github.com/ransim/ran-ns/types"
)

// ScoreDesc ranks one connection. Higher Score first, then higher TieBreak, then lower Cid.
type ScoreDesc struct {
	Cid      Cid
	Score    float64
	TieBreak float64
}

func (a ScoreDesc) before(b ScoreDesc) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TieBreak != b.TieBreak {
		return a.TieBreak > b.TieBreak
	}
	return a.Cid.Less(b.Cid)
}

type scoreHeap []ScoreDesc

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i].before(h[j]) }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x interface{}) { *h = append(*h, x.(ScoreDesc)) }
func (h *scoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// ScoreList is a max-priority queue of connection scores.
type ScoreList struct {
	h scoreHeap
}

func (sl *ScoreList) Push(sd ScoreDesc) {
	heap.Push(&sl.h, sd)
}

// Top returns the best entry without removing it.
func (sl *ScoreList) Top() ScoreDesc {
	return sl.h[0]
}

func (sl *ScoreList) Pop() ScoreDesc {
	return heap.Pop(&sl.h).(ScoreDesc)
}

func (sl *ScoreList) Len() int {
	return sl.h.Len()
}

func (sl *ScoreList) Empty() bool {
	return sl.h.Len() == 0
}
