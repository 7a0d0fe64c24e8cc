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


package radiomodel

import (
	"math"

	. "github.com/ransim/ran-ns/types"
)

// RadioNode is the radio state of a cell or UE.
type RadioNode struct {
	Id     NodeId
	IsCell bool

	// TxPowerDbm is the total transmit power over the carrier.
	TxPowerDbm DbValue

	// Position in meters.
	X, Y    float64
	HeightM float64
}

type RadioNodeConfig struct {
	X, Y    float64
	HeightM float64 // 0 selects the model default for the node type
}

func NewRadioNode(nodeid NodeId, isCell bool, cfg *RadioNodeConfig, params *Params) *RadioNode {
	rn := &RadioNode{
		Id:      nodeid,
		IsCell:  isCell,
		X:       cfg.X,
		Y:       cfg.Y,
		HeightM: cfg.HeightM,
	}
	if isCell {
		rn.TxPowerDbm = params.CellTxPowerDbm
		if rn.HeightM == 0 {
			rn.HeightM = params.CellHeightM
		}
	} else {
		rn.TxPowerDbm = params.UeTxPowerDbm
		if rn.HeightM == 0 {
			rn.HeightM = params.UeHeightM
		}
	}
	return rn
}

func (rn *RadioNode) SetNodePos(x, y float64) {
	rn.X, rn.Y = x, y
}

// Distance2d gets the ground distance to another RadioNode in meters.
func (rn *RadioNode) Distance2d(other *RadioNode) float64 {
	dx := other.X - rn.X
	dy := other.Y - rn.Y
	return math.Sqrt(dx*dx + dy*dy)
}
