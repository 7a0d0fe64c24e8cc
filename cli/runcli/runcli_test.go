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

package runcli

import (
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockCliHandler struct {
	t           *testing.T
	expectedCmd string
	handleCount int
	handleError error
}

func (hnd *mockCliHandler) RunCommand(cmd string, output io.Writer) error {
	assert.Equal(hnd.t, hnd.expectedCmd, cmd)
	hnd.handleCount += 1
	return hnd.handleError
}

func (hnd *mockCliHandler) GetPrompt() string {
	return "> "
}

func TestCliStartStop(t *testing.T) {
	Cli = newCliInstance()
	handler := mockCliHandler{
		expectedCmd: "time",
		handleError: nil,
		t:           t,
	}

	opt := DefaultCliOptions()
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- Cli.Run(&handler, opt)
	}()
	<-Cli.Started
	fmt.Fprint(w, "  time \n")
	time.Sleep(time.Millisecond * 500)
	_ = w.Close()
	Cli.Stop()

	assert.Nil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)
}

func TestCliCommandError(t *testing.T) {
	Cli = newCliInstance()
	handler := mockCliHandler{
		expectedCmd: "exit",
		handleError: fmt.Errorf("simulation exited"),
		t:           t,
	}

	opt := DefaultCliOptions()
	r, w, _ := os.Pipe()
	opt.Stdin = r
	err := make(chan error, 1)
	go func() {
		err <- Cli.Run(&handler, opt)
	}()
	<-Cli.Started
	fmt.Fprint(w, "exit\n") // a handler error causes CLI exit.

	assert.NotNil(t, <-err)
	assert.Equal(t, 1, handler.handleCount)

	Cli.Stop() // calling Stop() after CLI has already exited.
}
