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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ransim/ran-ns/amc"
	. "github.com/ransim/ran-ns/types"
)

func TestSinrToCqi(t *testing.T) {
	assert.Equal(t, 0, SinrToCqi(-20))
	assert.Equal(t, 1, SinrToCqi(-6.7))
	assert.Equal(t, 7, SinrToCqi(6.0))
	assert.Equal(t, 15, SinrToCqi(40))

	prev := 0
	for sinr := -10.0; sinr < 30; sinr += 0.5 {
		c := SinrToCqi(sinr)
		assert.GreaterOrEqual(t, c, prev)
		prev = c
	}
}

func TestComputeBler(t *testing.T) {
	for cqi := 1; cqi <= amc.MaxCqi; cqi++ {
		assert.InDelta(t, targetBler, ComputeBler(cqiSinrThresholdDb[cqi], cqi), 1e-9)
		assert.Less(t, ComputeBler(cqiSinrThresholdDb[cqi]+5, cqi), 0.01)
		assert.Greater(t, ComputeBler(cqiSinrThresholdDb[cqi]-5, cqi), 0.9)
	}
	assert.Equal(t, 1.0, ComputeBler(30, 0))
}

func TestPathlossMonotonic(t *testing.T) {
	prev := 0.0
	for d := 10.0; d < 2000; d += 10 {
		pl := pathlossUma(d, defaultCarrierGhz, defaultCellHeightM, defaultUeHeightM)
		assert.GreaterOrEqual(t, pl, prev)
		prev = pl
	}
	assert.InDelta(t, pathlossIndoor(0, 2.0, 3, 1.5), pathlossIndoor(0.5, 2.0, 3, 1.5), 1.0)
}

func newTestModel(t *testing.T, typ ModelType) *Model {
	p := NewParams(typ)
	p.ShadowFadingSigmaDb = 0
	p.TimeFadingSigmaMaxDb = 0
	m := NewModel(p)
	require.Nil(t, m.AddNode(NewRadioNode(1, true, &RadioNodeConfig{X: 0, Y: 0}, p)))
	require.Nil(t, m.AddNode(NewRadioNode(2, false, &RadioNodeConfig{X: 50, Y: 0}, p)))
	require.Nil(t, m.AddNode(NewRadioNode(3, false, &RadioNodeConfig{X: 800, Y: 0}, p)))
	return m
}

func TestModelCqiByDistance(t *testing.T) {
	m := newTestModel(t, ModelUma)
	assert.NotNil(t, m.AddNode(NewRadioNode(1, true, &RadioNodeConfig{}, m.Params())))

	near, err := m.Cqi(1, 2)
	require.Nil(t, err)
	far, err := m.Cqi(1, 3)
	require.Nil(t, err)
	assert.Equal(t, 15, near)
	assert.Less(t, far, near)

	// a second cell next to the far UE interferes with its downlink
	sinrBefore, _ := m.Sinr(1, 3)
	require.Nil(t, m.AddNode(NewRadioNode(4, true, &RadioNodeConfig{X: 1000, Y: 0}, m.Params())))
	sinrAfter, _ := m.Sinr(1, 3)
	assert.Less(t, sinrAfter, sinrBefore)
	// uplink is not affected
	ulBefore, _ := m.Sinr(3, 1)
	m.RemoveNode(4)
	ulAfter, _ := m.Sinr(3, 1)
	assert.Equal(t, ulBefore, ulAfter)

	_, err = m.Sinr(1, 99)
	assert.NotNil(t, err)
}

func TestFixedModel(t *testing.T) {
	m := newTestModel(t, ModelFixed)
	m.Params().FixedCqi = 9
	cqi, err := m.Cqi(1, 3)
	require.Nil(t, err)
	assert.Equal(t, 9, cqi)
	for i := 0; i < 100; i++ {
		assert.True(t, m.IsDecoded(1, 3, 9))
		assert.False(t, m.IsDecoded(1, 3, 10))
	}
}

func TestDecoderRate(t *testing.T) {
	m := newTestModel(t, ModelUma)
	sinr, err := m.Sinr(1, 3)
	require.Nil(t, err)
	cqi := SinrToCqi(sinr)
	require.Greater(t, cqi, 0)

	n, ok := 2000, 0
	for i := 0; i < n; i++ {
		if m.IsDecoded(1, 3, cqi) {
			ok++
		}
	}
	// the link is at or above the threshold of its own CQI
	assert.Greater(t, float64(ok)/float64(n), 0.8)
}

func TestFadingSymmetricAndReproducible(t *testing.T) {
	p := NewParams(ModelUma)
	f := newFadingModel()
	a := NewRadioNode(1, true, &RadioNodeConfig{}, p)
	b := NewRadioNode(2, false, &RadioNodeConfig{X: 100}, p)
	p.TimeFadingSigmaMaxDb = 0
	assert.Equal(t, f.computeFading(a, b, p), f.computeFading(b, a, p))
	assert.NotEqual(t, calcLinkUID(a, b), calcLinkUID(a, a))
}

func TestCqiTrace(t *testing.T) {
	data := []byte("time_ms,node,dir,band,cqi\n" +
		"5,2,ul,-1,7\n" +
		"0,2,dl,-1,12\n" +
		"5,2,dl,1,3\n")
	tr, err := ParseCqiTrace(data)
	require.Nil(t, err)
	assert.Equal(t, 3, tr.Len())

	a := amc.NewAmc(4)
	require.Nil(t, tr.Apply(0, a))
	assert.Equal(t, 12, a.Cqi(2, DirDl, 3))
	assert.Equal(t, 0, a.Cqi(2, DirUl, 0))
	assert.False(t, tr.Done())

	require.Nil(t, tr.Apply(4999, a))
	assert.Equal(t, 0, a.Cqi(2, DirUl, 0))
	require.Nil(t, tr.Apply(5000, a))
	assert.Equal(t, 7, a.Cqi(2, DirUl, 2))
	assert.Equal(t, 3, a.Cqi(2, DirDl, 1))
	assert.Equal(t, 12, a.Cqi(2, DirDl, 0))
	assert.True(t, tr.Done())

	_, err = ParseCqiTrace([]byte("time_ms,node,dir,band,cqi\n0,1,sideways,-1,3\n"))
	assert.NotNil(t, err)
}

func TestSumPowersDbm(t *testing.T) {
	assert.InDelta(t, -90.0+3.0103, sumPowersDbm([]DbValue{-90, -90}), 0.001)
	assert.InDelta(t, -80.0, sumPowersDbm([]DbValue{-80, -120}), 1e-9)
	assert.InDelta(t, -70.0, sumPowersDbm([]DbValue{-70}), 1e-9)
}
