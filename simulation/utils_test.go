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
	"os"
	"path/filepath"
	"testing"

	"github.com/simonlingoogle/go-simplelogger"
	"github.com/stretchr/testify/assert"

	"github.com/ransim/ran-ns/logger"
)

func TestRemoveAllFiles(t *testing.T) {
	dir := t.TempDir()
	for _, fn := range []string{"3_kpi.json", "3_stats.csv", "4_kpi.json"} {
		assert.Nil(t, os.WriteFile(filepath.Join(dir, fn), []byte("x"), 0644))
	}
	assert.Nil(t, removeAllFiles(filepath.Join(dir, "3_*.*")))

	files, err := filepath.Glob(filepath.Join(dir, "*"))
	assert.Nil(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "4_kpi.json")}, files)
}

func TestMergeNodeCounters(t *testing.T) {
	m := mergeNodeCounters(NodeCounters{"a": 1, "b": 2}, NodeCounters{"b": 5, "c": 3})
	assert.Equal(t, NodeCounters{"a": 1, "b": 5, "c": 3}, m)
}

func TestGetSimpleloggerLevel(t *testing.T) {
	assert.Equal(t, simplelogger.DebugLevel, GetSimpleloggerLevel(logger.TraceLevel))
	assert.Equal(t, simplelogger.InfoLevel, GetSimpleloggerLevel(logger.NoteLevel))
	assert.Equal(t, simplelogger.WarnLevel, GetSimpleloggerLevel(logger.WarnLevel))
	assert.Equal(t, simplelogger.ErrorLevel, GetSimpleloggerLevel(logger.ErrorLevel))
	assert.Equal(t, simplelogger.PanicLevel, GetSimpleloggerLevel(logger.OffLevel))
}
