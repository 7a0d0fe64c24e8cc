// Copyright (c) 2020-2024, The OTNS Authors.
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
	"strings"

	"github.com/pkg/errors"
)

const (
	OffLevelString     = "off"
	NoneLevelString    = "none"
	DefaultLevelString = "default"
)

// levelNames holds the canonical name of each level first, then its aliases.
var levelNames = []struct {
	level    Level
	names    []string
	settable bool
}{
	{TraceLevel, []string{"trace", "t"}, true},
	{DebugLevel, []string{"debug", "d"}, true},
	{InfoLevel, []string{"info", "i"}, true},
	{NoteLevel, []string{"note", "n"}, true},
	{WarnLevel, []string{"warn", "warning", "w"}, true},
	{ErrorLevel, []string{"error", "err", "crit", "critical", "e", "c"}, true},
	{PanicLevel, []string{"panic"}, false},
	{FatalLevel, []string{"fatal"}, false},
	{OffLevel, []string{OffLevelString, NoneLevelString}, true},
}

// ParseLevelString parses a level name or alias, case-insensitive. "default" gives DefaultLevel.
func ParseLevelString(level string) (Level, error) {
	s := strings.ToLower(strings.TrimSpace(level))
	if s == DefaultLevelString || s == "def" {
		return DefaultLevel, nil
	}
	for _, ln := range levelNames {
		if !ln.settable {
			continue
		}
		for _, name := range ln.names {
			if s == name {
				return ln.level, nil
			}
		}
	}
	return DefaultLevel, errors.Errorf("invalid log level string: %s", level)
}

func GetLevelString(level Level) string {
	for _, ln := range levelNames {
		if ln.level == level {
			return ln.names[0]
		}
	}
	Panicf("Unknown Level: %d", level)
	return ""
}
