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

package progctx

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	var ctx context.Context = New(context.Background())
	assert.Nil(t, ctx.Err())
	ctx = New(nil) // nolint
	assert.Nil(t, ctx.Err())
}

func TestCancelRunsDeferredOnce(t *testing.T) {
	ctx := New(context.Background())
	var order []int
	ctx.Defer(func() { order = append(order, 1) })
	ctx.Defer(func() { order = append(order, 2) })

	err := errors.Errorf("test error")
	ctx.Cancel(err)
	ctx.Cancel(errors.Errorf("second"))
	<-ctx.Done()

	assert.Equal(t, context.Canceled, ctx.Err())
	assert.Equal(t, err, ctx.Cause())
	assert.Equal(t, []int{2, 1}, order)
	assert.Panics(t, func() { ctx.Defer(func() {}) })
}

func TestCancelWithoutError(t *testing.T) {
	ctx := New(context.Background())
	ctx.Cancel("simulation-stop")
	<-ctx.Done()
	assert.Nil(t, ctx.Cause())
}

func TestWait(t *testing.T) {
	ctx := New(context.Background())
	ctx.WaitAdd("test1", 1)
	ctx.WaitAdd("test2", 2)
	assert.Equal(t, []string{"test1(1)", "test2(2)"}, ctx.Routines())

	go func() {
		ctx.WaitDone("test1")
	}()
	for i := 0; i < 2; i++ {
		go func() { defer ctx.WaitDone("test2") }()
	}
	ctx.Wait()
	assert.Empty(t, ctx.Routines())
	assert.Panics(t, func() { ctx.WaitDone("test1") })
}

func TestGoCancelsOnPanic(t *testing.T) {
	ctx := New(context.Background())
	ctx.Go("worker", func() {
		panic("boom")
	})
	ctx.Wait()
	<-ctx.Done()
	assert.Contains(t, ctx.Cause().Error(), "worker panicked: boom")
}
