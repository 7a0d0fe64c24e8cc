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
	"fmt"

	. "github.com/ransim/ran-ns/types"
)

// ScheduleEntry is one grant of a TTI: blocks on bands for one codeword of one node.
type ScheduleEntry struct {
	Cid      Cid
	Node     NodeId // granted node
	Dir      Direction
	Peer     NodeId
	Codeword Codeword
	Acid     Acid // set for retransmissions; new data goes to the first available process
	Bands    []Band
	Blocks   int
	Bytes    uint
	Rtx      bool
}

func (e ScheduleEntry) String() string {
	kind := "new"
	if e.Rtx {
		kind = "rtx"
	}
	return fmt.Sprintf("%s %v cw %d acid %d: %d blocks %d bytes bands %v", kind, e.Cid, e.Codeword, e.Acid,
		e.Blocks, e.Bytes, e.Bands)
}

// TotalBlocks sums the blocks of a schedule.
func TotalBlocks(entries []ScheduleEntry) int {
	n := 0
	for _, e := range entries {
		n += e.Blocks
	}
	return n
}
