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

// Package amc holds the channel quality reported per node and band, and converts it into
// transport capacity per resource block.
package amc

import (
	"math"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	. "github.com/ransim/ran-ns/types"
)

const (
	MinCqi = 0
	MaxCqi = 15

	// DataResourceElementsPerBlock is the number of data carrying resource elements in one
	// resource block of one TTI (12 subcarriers, 11 data symbols).
	DataResourceElementsPerBlock = 132
)

// cqiEfficiency is the spectral efficiency in bits per resource element for each CQI, as given by
// 3GPP TS 36.213 Table 7.2.3-1.
var cqiEfficiency = [MaxCqi + 1]float64{
	0, 0.1523, 0.2344, 0.3770, 0.6016, 0.8770, 1.1758, 1.4766,
	1.9141, 2.4063, 2.7305, 3.3223, 3.9023, 4.5234, 5.1152, 5.5547,
}

// BytesPerBlock returns the transport block bytes one resource block carries at the given CQI.
func BytesPerBlock(cqi int) uint {
	if cqi <= MinCqi {
		return 0
	}
	if cqi > MaxCqi {
		cqi = MaxCqi
	}
	return uint(math.Floor(cqiEfficiency[cqi] * DataResourceElementsPerBlock / 8))
}

type linkKey struct {
	node NodeId
	dir  Direction
}

// Amc stores per-band CQI of every (node, direction) link of one cell.
type Amc struct {
	numBands int
	cqi      map[linkKey][]int
}

func NewAmc(numBands int) *Amc {
	return &Amc{
		numBands: numBands,
		cqi:      make(map[linkKey][]int),
	}
}

func (a *Amc) NumBands() int {
	return a.numBands
}

func checkCqi(cqi int) error {
	if cqi < MinCqi || cqi > MaxCqi {
		return errors.Errorf("CQI %d out of range [%d,%d]", cqi, MinCqi, MaxCqi)
	}
	return nil
}

// SetCqi sets a wideband CQI report: the same value on every band.
func (a *Amc) SetCqi(node NodeId, dir Direction, cqi int) error {
	if err := checkCqi(cqi); err != nil {
		return err
	}
	v := make([]int, a.numBands)
	for b := range v {
		v[b] = cqi
	}
	a.cqi[linkKey{node, dir}] = v
	return nil
}

// SetBandCqi sets a sub-band CQI report for a single band.
func (a *Amc) SetBandCqi(node NodeId, dir Direction, band Band, cqi int) error {
	if err := checkCqi(cqi); err != nil {
		return err
	}
	if band < 0 || band >= a.numBands {
		return errors.Errorf("band %d out of range (%d bands)", band, a.numBands)
	}
	key := linkKey{node, dir}
	v, ok := a.cqi[key]
	if !ok {
		v = make([]int, a.numBands)
		a.cqi[key] = v
	}
	v[band] = cqi
	return nil
}

// Cqi returns the CQI of the link on the given band, 0 if never reported.
func (a *Amc) Cqi(node NodeId, dir Direction, band Band) int {
	v, ok := a.cqi[linkKey{node, dir}]
	if !ok || band < 0 || band >= len(v) {
		return 0
	}
	return v[band]
}

// WidebandCqi returns the mean CQI over all bands, rounded down.
func (a *Amc) WidebandCqi(node NodeId, dir Direction) int {
	v, ok := a.cqi[linkKey{node, dir}]
	if !ok || len(v) == 0 {
		return 0
	}
	sum := 0
	for _, c := range v {
		sum += c
	}
	return sum / len(v)
}

// BytesOnBlocks returns the bytes that fit into the given number of blocks on a band.
func (a *Amc) BytesOnBlocks(node NodeId, dir Direction, band Band, blocks int) uint {
	if blocks <= 0 {
		return 0
	}
	return uint(blocks) * BytesPerBlock(a.Cqi(node, dir, band))
}

// ReqBlocks returns the number of blocks on a band needed to carry the given bytes.
func (a *Amc) ReqBlocks(node NodeId, dir Direction, band Band, bytes uint) int {
	bpb := BytesPerBlock(a.Cqi(node, dir, band))
	if bpb == 0 {
		return 0
	}
	return int((bytes + bpb - 1) / bpb)
}

// RemoveNode forgets every link of a node.
func (a *Amc) RemoveNode(node NodeId) {
	for _, k := range maps.Keys(a.cqi) {
		if k.node == node {
			delete(a.cqi, k)
		}
	}
}
