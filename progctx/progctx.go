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

// Package progctx tracks the lifetime of the simulator process: the goroutines that must finish
// before exit and the cleanups that run once on shutdown.
package progctx

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"
)

// ProgCtx is a cancellable context.Context plus a registry of named goroutines.
type ProgCtx struct {
	context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lock     sync.Mutex
	routines map[string]int
	deferred []func()
	cause    error
}

// New creates a new ProgCtx from the parent context.
func New(parent context.Context) *ProgCtx {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &ProgCtx{
		Context:  ctx,
		cancel:   cancel,
		routines: map[string]int{},
	}
}

// Cancel stops the program with the given reason, an error or any printable value. Only the first
// call has effect; it runs the deferred functions in reverse registration order.
func (ctx *ProgCtx) Cancel(reason interface{}) {
	ctx.lock.Lock()
	if ctx.Err() != nil {
		ctx.lock.Unlock()
		return
	}
	if e, ok := reason.(error); ok {
		ctx.cause = e
		simplelogger.TraceError("program exit: %v", e)
	} else {
		simplelogger.Infof("program exit: %v", reason)
	}
	ctx.cancel()
	deferred := ctx.deferred
	ctx.deferred = nil
	ctx.lock.Unlock()

	for i := len(deferred) - 1; i >= 0; i-- {
		deferred[i]()
	}
}

// Cause returns the error Cancel was called with, nil if it was cancelled for another reason or
// is still running.
func (ctx *ProgCtx) Cause() error {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()
	return ctx.cause
}

// WaitAdd registers delta running goroutines under name.
func (ctx *ProgCtx) WaitAdd(name string, delta int) {
	ctx.lock.Lock()
	ctx.routines[name] += delta
	ctx.lock.Unlock()

	ctx.wg.Add(delta)
}

// WaitDone notifies that a goroutine registered under name has finished.
func (ctx *ProgCtx) WaitDone(name string) {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()

	if ctx.routines[name] <= 0 {
		simplelogger.Panicf("routine %s is not running, should not call WaitDone", name)
	}
	ctx.routines[name] -= 1
	if ctx.routines[name] == 0 {
		delete(ctx.routines, name)
	}
	ctx.wg.Done()
}

// Go runs f in a goroutine registered under name. A panic in f cancels the context.
func (ctx *ProgCtx) Go(name string, f func()) {
	ctx.WaitAdd(name, 1)
	go func() {
		defer ctx.WaitDone(name)
		defer func() {
			if r := recover(); r != nil {
				ctx.Cancel(errors.Errorf("%s panicked: %v", name, r))
			}
		}()
		f()
	}()
}

// Routines returns the names of the running goroutines with their count, sorted by name.
func (ctx *ProgCtx) Routines() []string {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()

	res := make([]string, 0, len(ctx.routines))
	for name, n := range ctx.routines {
		res = append(res, fmt.Sprintf("%s(%d)", name, n))
	}
	sort.Strings(res)
	return res
}

// Wait waits for all registered goroutines to finish.
func (ctx *ProgCtx) Wait() {
	simplelogger.Infof("program context waiting routines: %v", ctx.Routines())
	ctx.wg.Wait()
}

// Defer registers a function to be called when the program context is cancelled.
func (ctx *ProgCtx) Defer(f func()) {
	ctx.lock.Lock()
	defer ctx.lock.Unlock()
	if ctx.Err() != nil {
		panic(errors.Errorf("Can not `Defer` after context is done"))
	}
	ctx.deferred = append(ctx.deferred, f)
}
