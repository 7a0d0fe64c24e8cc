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

package conn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/ransim/ran-ns/types"
)

func TestVirtualBuffer(t *testing.T) {
	var vb VirtualBuffer
	vb.Push(100, 1)
	vb.Push(50, 2)
	vb.Push(0, 3)
	assert.Equal(t, 2, vb.Len())
	assert.Equal(t, uint(150), vb.Occupancy())

	assert.Equal(t, uint(30), vb.Consume(30))
	head, ok := vb.Front()
	assert.True(t, ok)
	assert.Equal(t, uint(70), head.Size)
	assert.Equal(t, SimTime(1), head.Arrival)

	assert.Equal(t, uint(120), vb.Consume(500))
	assert.True(t, vb.IsEmpty())
	assert.Equal(t, uint(0), vb.Occupancy())
	_, ok = vb.Front()
	assert.False(t, ok)
}

func TestRegistryActiveSet(t *testing.T) {
	r := NewRegistry()
	c1 := Cid{Node: 2, Lcid: 0}
	c2 := Cid{Node: 1, Lcid: 1}
	c3 := Cid{Node: 1, Lcid: 0}
	for _, cid := range []Cid{c1, c2} {
		_, err := r.AddConnection(cid, DirDl, Background, 100)
		assert.Nil(t, err)
	}
	_, err := r.AddConnection(c3, DirUl, Conversational, 100)
	assert.Nil(t, err)
	_, err = r.AddConnection(c3, DirUl, Conversational, 100)
	assert.NotNil(t, err)

	assert.Empty(t, r.ActiveSet())
	assert.Nil(t, r.Enqueue(c1, 10, 0))
	assert.Nil(t, r.Enqueue(c2, 20, 0))
	assert.Nil(t, r.Enqueue(c3, 30, 0))
	assert.NotNil(t, r.Enqueue(Cid{Node: 9}, 1, 0))

	assert.Equal(t, []Cid{c3, c2, c1}, r.ActiveSet())
	assert.Equal(t, []Cid{c2, c1}, r.ActiveSet(DirDl))
	assert.Equal(t, []Cid{c3}, r.ActiveSet(DirUl, DirD2d))

	assert.Equal(t, uint(10), r.Consume(c1, 15))
	assert.False(t, r.IsActive(c1))
	assert.Equal(t, uint(5), r.Consume(c2, 5))
	assert.True(t, r.IsActive(c2))
	assert.Equal(t, uint(15), r.Occupancy(c2))

	r.RemoveNode(1)
	assert.Empty(t, r.ActiveSet())
	assert.Equal(t, []Cid{c1}, r.Cids())
}
