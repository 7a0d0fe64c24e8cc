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

// Package bandmap models the resource block grid of one carrier: bands of equal size, per-band
// per-codeword limits, the Comp usable-band mask and the per-TTI block allocation state.
package bandmap

import (
	"fmt"
	"strings"

	. "github.com/ransim/ran-ns/types"
)

const (
	// LimitUnlimited allows any number of blocks of the band to be used.
	LimitUnlimited = -1
	// LimitBlocked forbids the band.
	LimitBlocked = -2
)

// BandLimit restricts the blocks usable on one band, per codeword.
type BandLimit struct {
	Band  Band
	Limit [MaxCodewords]int
}

func (bl BandLimit) IsBlocked(cw Codeword) bool {
	return bl.Limit[cw] == LimitBlocked
}

// BandLimitVector is the ordered list of band limits the scheduler walks when granting.
type BandLimitVector []BandLimit

// NewBandLimitVector returns a vector with every band unlimited on every codeword.
func NewBandLimitVector(numBands int) BandLimitVector {
	v := make(BandLimitVector, numBands)
	for b := range v {
		v[b].Band = b
		for cw := 0; cw < MaxCodewords; cw++ {
			v[b].Limit[cw] = LimitUnlimited
		}
	}
	return v
}

// ApplyMask blocks every band not set in usable. A nil mask leaves the vector unchanged.
func (v BandLimitVector) ApplyMask(usable UsableMask) {
	if usable == nil {
		return
	}
	for i := range v {
		if !usable.IsUsable(v[i].Band) {
			for cw := 0; cw < MaxCodewords; cw++ {
				v[i].Limit[cw] = LimitBlocked
			}
		}
	}
}

func (v BandLimitVector) NumBlocked(cw Codeword) int {
	n := 0
	for _, bl := range v {
		if bl.IsBlocked(cw) {
			n++
		}
	}
	return n
}

// UsableMask marks which bands a Comp client may use; index is the band.
type UsableMask []bool

// NewUsableMask returns a mask of numBands bands, all usable.
func NewUsableMask(numBands int) UsableMask {
	m := make(UsableMask, numBands)
	for b := range m {
		m[b] = true
	}
	return m
}

func (m UsableMask) IsUsable(band Band) bool {
	return band >= 0 && band < len(m) && m[band]
}

func (m UsableMask) NumUsable() int {
	n := 0
	for _, u := range m {
		if u {
			n++
		}
	}
	return n
}

func (m UsableMask) Clone() UsableMask {
	if m == nil {
		return nil
	}
	c := make(UsableMask, len(m))
	copy(c, m)
	return c
}

// String renders the mask as a string of '1' (usable) and '0' (reserved), band 0 first.
func (m UsableMask) String() string {
	var sb strings.Builder
	for _, u := range m {
		if u {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// Bands lists the usable bands in ascending order.
func (m UsableMask) Bands() []Band {
	var res []Band
	for b, u := range m {
		if u {
			res = append(res, b)
		}
	}
	return res
}

func (bl BandLimit) String() string {
	return fmt.Sprintf("%d:%d/%d", bl.Band, bl.Limit[0], bl.Limit[1])
}
