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

// Package conn keeps the per-MAC connection registry: virtual buffers of pending SDUs, connection
// attributes and the set of connections with data to send.
package conn

import (
	. "github.com/ransim/ran-ns/types"
)

// PacketInfo is one pending SDU in a virtual buffer.
type PacketInfo struct {
	Size    uint
	Arrival SimTime
}

// VirtualBuffer is a FIFO of pending SDU sizes. It mirrors the RLC buffer occupancy without
// holding payload.
type VirtualBuffer struct {
	queue     []PacketInfo
	occupancy uint
}

// Push appends an SDU of size bytes.
func (vb *VirtualBuffer) Push(size uint, arrival SimTime) {
	if size == 0 {
		return
	}
	vb.queue = append(vb.queue, PacketInfo{Size: size, Arrival: arrival})
	vb.occupancy += size
}

// Occupancy returns the bytes pending.
func (vb *VirtualBuffer) Occupancy() uint {
	return vb.occupancy
}

func (vb *VirtualBuffer) Len() int {
	return len(vb.queue)
}

func (vb *VirtualBuffer) IsEmpty() bool {
	return len(vb.queue) == 0
}

// Front returns the head SDU. ok is false when the buffer is empty.
func (vb *VirtualBuffer) Front() (pkt PacketInfo, ok bool) {
	if len(vb.queue) == 0 {
		return PacketInfo{}, false
	}
	return vb.queue[0], true
}

// Consume removes bytes from the head of the buffer, segmenting the last touched SDU if needed,
// and returns the bytes actually removed.
func (vb *VirtualBuffer) Consume(bytes uint) uint {
	var done uint
	for bytes > 0 && len(vb.queue) > 0 {
		head := &vb.queue[0]
		if head.Size <= bytes {
			bytes -= head.Size
			done += head.Size
			vb.queue = vb.queue[1:]
		} else {
			head.Size -= bytes
			done += bytes
			bytes = 0
		}
	}
	vb.occupancy -= done
	return done
}

// Clear drops every pending SDU.
func (vb *VirtualBuffer) Clear() {
	vb.queue = nil
	vb.occupancy = 0
}
