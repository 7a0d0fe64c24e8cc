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


// Package radiomodel provides the synthetic channel of the simulation: the SINR of every link from
// pathloss, shadow and time-variant fading and inter-cell interference, the CQI a UE reports for it
// and the decoder outcome of each received transport block.
package radiomodel

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/prng"
	. "github.com/ransim/ran-ns/types"
)

// Model computes link quality between the cells and UEs of a simulation.
type Model struct {
	params *Params
	nodes  map[NodeId]*RadioNode
	cells  []NodeId
	fading *fadingModel
}

func NewModel(params *Params) *Model {
	return &Model{
		params: params,
		nodes:  map[NodeId]*RadioNode{},
		fading: newFadingModel(),
	}
}

func (m *Model) Params() *Params {
	return m.params
}

func (m *Model) AddNode(n *RadioNode) error {
	if _, ok := m.nodes[n.Id]; ok {
		return errors.Errorf("radio node %d already exists", n.Id)
	}
	m.nodes[n.Id] = n
	if n.IsCell {
		m.cells = append(m.cells, n.Id)
		slices.Sort(m.cells)
	}
	return nil
}

func (m *Model) RemoveNode(id NodeId) {
	delete(m.nodes, id)
	if i := slices.Index(m.cells, id); i >= 0 {
		m.cells = slices.Delete(m.cells, i, i+1)
	}
}

func (m *Model) Node(id NodeId) *RadioNode {
	return m.nodes[id]
}

// OnAdvanceTime moves the time-variant fading to the given time.
func (m *Model) OnAdvanceTime(ts SimTime) {
	m.fading.onAdvanceTime(ts)
}

func (m *Model) rxPower(tx *RadioNode, rx *RadioNode) DbValue {
	return computeRxPower(tx, rx, m.params) - m.fading.computeFading(tx, rx, m.params)
}

// Sinr returns the SINR in dB of the link from tx to rx. In downlink the other cells interfere,
// uplink and D2D see noise only.
func (m *Model) Sinr(tx NodeId, rx NodeId) (DbValue, error) {
	txn, rxn := m.nodes[tx], m.nodes[rx]
	if txn == nil || rxn == nil {
		return 0, errors.Errorf("no radio link %d->%d", tx, rx)
	}
	signal := m.rxPower(txn, rxn)
	noise := []DbValue{m.params.NoiseFloorDbm}
	if txn.IsCell && !rxn.IsCell && m.params.InterCellInterference {
		for _, c := range m.cells {
			if c != tx {
				noise = append(noise, m.rxPower(m.nodes[c], rxn))
			}
		}
	}
	return signal - sumPowersDbm(noise), nil
}

// Cqi returns the wideband CQI the receiver reports for the link from tx.
func (m *Model) Cqi(tx NodeId, rx NodeId) (int, error) {
	if m.params.Type == ModelFixed {
		return m.params.FixedCqi, nil
	}
	sinr, err := m.Sinr(tx, rx)
	if err != nil {
		return 0, err
	}
	return SinrToCqi(sinr), nil
}

// IsDecoded draws whether a transport block sent at the given CQI decodes at rx. The fixed model
// never loses a block sent at or below its CQI.
func (m *Model) IsDecoded(tx NodeId, rx NodeId, cqi int) bool {
	var bler float64
	if m.params.Type == ModelFixed {
		if cqi > m.params.FixedCqi || cqi <= 0 {
			bler = 1.0
		}
	} else {
		sinr, err := m.Sinr(tx, rx)
		if err != nil {
			logger.Warnf("decoder: %v", err)
			return false
		}
		bler = ComputeBler(sinr, cqi)
	}
	return bler == 0 || prng.NewDecoderRandom() >= bler
}
