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

package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/ransim/ran-ns/types"
)

func TestParseLevelString(t *testing.T) {
	lv, err := ParseLevelString("debug")
	assert.Nil(t, err)
	assert.Equal(t, DebugLevel, lv)

	lv, err = ParseLevelString("W")
	assert.Nil(t, err)
	assert.Equal(t, WarnLevel, lv)

	lv, err = ParseLevelString("none")
	assert.Nil(t, err)
	assert.Equal(t, OffLevel, lv)

	_, err = ParseLevelString("loud")
	assert.NotNil(t, err)

	for _, l := range []Level{TraceLevel, DebugLevel, InfoLevel, NoteLevel, WarnLevel, ErrorLevel, OffLevel} {
		parsed, err := ParseLevelString(GetLevelString(l))
		assert.Nil(t, err)
		assert.Equal(t, l, parsed)
	}
}

func TestAssertPanics(t *testing.T) {
	assert.Panics(t, func() {
		AssertTrue(false, "must panic")
	})
	assert.NotPanics(t, func() {
		AssertEqual(3, 3)
	})
}

func TestNodeLoggerFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultNodeConfig()
	cfg.ID = 7
	cfg.NodeLogFile = true
	nl := GetNodeLogger(dir, 1, &cfg)
	defer RemoveNodeLogger(7)

	nl.SetFileLevel(DebugLevel)
	nl.Debugf("acid %d selected", 3)
	nl.Tracef("not saved")
	nl.FlushPendingLogEntries(2000)
	nl.Close()

	data, err := os.ReadFile(filepath.Join(dir, "1_7.log"))
	assert.Nil(t, err)
	content := string(data)
	assert.True(t, strings.Contains(content, "2000 acid 3 selected"))
	assert.False(t, strings.Contains(content, "not saved"))
	assert.Equal(t, nl, GetExistingNodeLogger(7))
}

func TestSetSimTime(t *testing.T) {
	SetSimTime(1500250)
	assert.Equal(t, uint64(1500250), simTimeUs.Load())
	SetSimTime(0)
}

func TestSetOutputFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "sim.log")
	SetOutput([]string{fn})
	defer SetOutput([]string{"stderr"})

	SetSimTime(2000001)
	defer SetSimTime(0)
	Errorf("harq buffer %d full", 3)
	_ = zaplogger.Sync()

	data, err := os.ReadFile(fn)
	assert.Nil(t, err)
	assert.Contains(t, string(data), "[2.000001] - harq buffer 3 full")
}
