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

package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/ransim/ran-ns/types"
)

func TestNodeAutoPlacer(t *testing.T) {
	nap := NewNodeAutoPlacer()
	nap.Xmax = 100
	nap.UpdateReference(200, 300)

	var xs, ys []float64
	for i := 0; i < 4; i++ {
		x, y := nap.NextNodePosition()
		xs = append(xs, x)
		ys = append(ys, y)
	}
	assert.Equal(t, []float64{200, 250, 300, 200}, xs)
	assert.Equal(t, []float64{300, 300, 300, 350}, ys)

	nap.ReuseNextNodePosition()
	x, y := nap.NextNodePosition()
	assert.Equal(t, 200.0, x)
	assert.Equal(t, 350.0, y)
}

func TestNodeConfigFinalizePicksNearestCell(t *testing.T) {
	s := newTestSimulation(t)
	_, err := s.AddCell(CellConfig{ID: 10, X: 0, Y: 0})
	assert.Nil(t, err)
	_, err = s.AddCell(CellConfig{ID: 20, X: 1000, Y: 0})
	assert.Nil(t, err)

	cfg := DefaultNodeConfig()
	cfg.IsAutoPlaced = false
	cfg.X, cfg.Y = 900, 50
	s.NodeConfigFinalize(&cfg)
	assert.Equal(t, 20, cfg.Cell)
	assert.Equal(t, 1, cfg.ID)

	// auto placement starts next to the last added cell
	cfg = DefaultNodeConfig()
	s.NodeConfigFinalize(&cfg)
	assert.Equal(t, 1050.0, cfg.X)
	assert.Equal(t, 50.0, cfg.Y)
	assert.Equal(t, 20, cfg.Cell)
}
