// Copyright (c) 2020-2024, The OTNS Authors.
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

package types

import (
	"fmt"
	"math"
)

type NodeId = int
type LogicalCid = int
type Band = int
type Codeword = int
type Acid = int

// SimTime is the simulated time in microseconds since the start of the simulation.
type SimTime = uint64

const (
	MaxNodeId       NodeId = 0xffff
	InvalidNodeId   NodeId = 0
	BroadcastNodeId NodeId = -1
)

const (
	// MaxCodewords is the number of parallel transport blocks per HARQ process.
	MaxCodewords = 2
	// AcidNone is returned where no HARQ process qualifies.
	AcidNone Acid = -1
	// InvalidTime marks an unset timestamp.
	InvalidTime SimTime = math.MaxUint64
)

// Cid identifies a connection: one logical channel (flow) of one node.
type Cid struct {
	Node NodeId
	Lcid LogicalCid
}

// Less is the total order used as final tie-break wherever connections are ranked.
func (c Cid) Less(o Cid) bool {
	if c.Node != o.Node {
		return c.Node < o.Node
	}
	return c.Lcid < o.Lcid
}

func (c Cid) String() string {
	return fmt.Sprintf("%d/%d", c.Node, c.Lcid)
}

// CompareCids orders two connections for slices.SortFunc.
func CompareCids(a, b Cid) int {
	if a.Less(b) {
		return -1
	} else if b.Less(a) {
		return 1
	}
	return 0
}

// NodeConfig is the configuration of a new simulated UE.
type NodeConfig struct {
	ID           NodeId
	Cell         NodeId
	X, Y         float64
	IsAutoPlaced bool
	Cqi          int  // initial wideband CQI, 0 means determined by the radio model
	D2dCapable   bool // may act as D2D transmitter/receiver
	NodeLogFile  bool
}

func DefaultNodeConfig() NodeConfig {
	return NodeConfig{
		ID:           -1, // -1 for the next available nodeid
		Cell:         InvalidNodeId,
		IsAutoPlaced: true,
		Cqi:          0,
		D2dCapable:   false,
		NodeLogFile:  false,
	}
}
