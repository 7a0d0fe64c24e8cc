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

// Package harq implements the HARQ transmitter and receiver buffers. One buffer exists per
// (owner, peer) link; each holds a number of parallel processes with up to MaxCodewords units.
// The same types serve infrastructure links and D2D links, the Link direction selects the mode.
package harq

import (
	"fmt"

	. "github.com/ransim/ran-ns/types"
)

const (
	DefaultNumProcesses      = 8
	DefaultMaxHarqRtx        = 3
	DefaultFbEvaluationTimer = 4
)

// Config holds the HARQ parameters of a run.
type Config struct {
	NumProcesses      int
	MaxHarqRtx        int     // retransmissions after the first transmission
	FbEvaluationTimer int     // decode latency, in slots
	Numerology        int     // slot duration is 1 ms >> Numerology
	Warmup            SimTime // throughput statistics exclude this period
}

func DefaultConfig() Config {
	return Config{
		NumProcesses:      DefaultNumProcesses,
		MaxHarqRtx:        DefaultMaxHarqRtx,
		FbEvaluationTimer: DefaultFbEvaluationTimer,
		Numerology:        0,
		Warmup:            0,
	}
}

// SlotDuration returns the TTI length in microseconds.
func (c Config) SlotDuration() SimTime {
	return SimTime(1000) >> uint(c.Numerology)
}

// Emitter receives statistic samples attributed to a node.
type Emitter interface {
	Emit(node NodeId, signal string, value float64)
}

type nopEmitter struct{}

func (nopEmitter) Emit(NodeId, string, float64) {}

// Link names the node holding a buffer, its peer and the serving cell.
type Link struct {
	Owner NodeId
	Peer  NodeId
	Cell  NodeId
	Dir   Direction
}

// Ue returns the node that UE-level statistics are attributed to.
func (l Link) Ue() NodeId {
	if l.Owner == l.Cell {
		return l.Peer
	}
	return l.Owner
}

func (l Link) Mode() HarqMode {
	return HarqModeOf(l.Dir)
}

func (l Link) String() string {
	return fmt.Sprintf("%d->%d %v", l.Owner, l.Peer, l.Dir)
}

// Pdu is a MAC PDU as seen by HARQ. Payload is not modeled.
type Pdu struct {
	Id       uint64
	Cid      Cid
	Src      NodeId
	Dst      NodeId
	Dir      Direction
	Bytes    uint
	Blocks   int // blocks used by the first transmission
	Created  SimTime
	Acid     Acid
	Cw       Codeword
	Ndi      bool
	TxNumber int
}

func (p *Pdu) clone() *Pdu {
	c := *p
	return &c
}

// Feedback is a HARQ acknowledgment sent by the receiver for one unit.
type Feedback struct {
	Src    NodeId // receiver of the PDU
	Dst    NodeId // transmitter of the PDU
	Dir    Direction
	Acid   Acid
	Cw     Codeword
	PduId  uint64
	Result bool
}

func (fb Feedback) Ack() HarqAck {
	if fb.Result {
		return HarqAckResult
	}
	return HarqNackResult
}

// UnitList selects codewords of one process.
type UnitList struct {
	Acid Acid
	Cws  []Codeword
}

func (ul UnitList) IsNone() bool {
	return ul.Acid == AcidNone
}

func noUnits() UnitList {
	return UnitList{Acid: AcidNone}
}
