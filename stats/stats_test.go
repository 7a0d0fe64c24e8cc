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


package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type windowCollector struct {
	windows []TimeWindowStats
}

func (c *windowCollector) OnTimeWindow(s *TimeWindowStats) {
	cp := *s
	cp.Signals = map[string]SignalWindow{}
	for k, v := range s.Signals {
		cp.Signals[k] = v
	}
	c.windows = append(c.windows, cp)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(0)
	r.SetTime(10)
	r.Emit(2, "macDelayDl", 0.002)
	r.Emit(1, "macDelayDl", 0.004)
	r.SetTime(20)
	r.Emit(2, "macDelayDl", 0.006)
	r.Emit(2, "harqTxAttemptsDl", 1)

	assert.Equal(t, []string{"harqTxAttemptsDl", "macDelayDl"}, r.Signals())
	assert.Equal(t, []int{1, 2}, r.Nodes("macDelayDl"))
	assert.Equal(t, []float64{0.004, 0.002, 0.006}, r.Values(AllNodes, "macDelayDl"))
	assert.Equal(t, []Sample{{10, 0.002}, {20, 0.006}}, r.Samples(2, "macDelayDl"))

	s := r.Summary(2, "macDelayDl")
	assert.Equal(t, 2, s.Count)
	assert.InDelta(t, 0.004, s.Mean, 1e-12)
	assert.Equal(t, 0.006, s.Max)

	r.Reset()
	assert.Empty(t, r.Signals())
	assert.Equal(t, 0, r.Summary(AllNodes, "macDelayDl").Count)
}

func TestRecorderMaxSamples(t *testing.T) {
	r := NewRecorder(2)
	for i := 0; i < 5; i++ {
		r.Emit(1, "x", float64(i))
	}
	assert.Equal(t, []float64{3, 4}, r.Values(1, "x"))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{5, 1, 4, 2, 3})
	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 15.0, s.Sum)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.P50)
	assert.Equal(t, 5.0, s.P95)
	assert.InDelta(t, 1.5811, s.StdDev, 1e-4)

	assert.Equal(t, Summary{}, Summarize(nil))
	assert.Equal(t, 0.0, Summarize([]float64{7}).StdDev)
}

func TestTimeWindow(t *testing.T) {
	c := &windowCollector{}
	tw := NewTimeWindow(1000, c)
	r := NewRecorder(0)
	r.AddListener(tw)

	r.SetTime(100)
	r.Emit(1, "a", 1)
	r.SetTime(900)
	r.Emit(2, "a", 3)
	r.SetTime(3500)
	r.Emit(1, "b", 10)
	tw.Finalize()

	require.Len(t, c.windows, 4)
	assert.Equal(t, uint64(0), c.windows[0].WinStartUs)
	assert.Equal(t, SignalWindow{Count: 2, Sum: 4}, c.windows[0].Signals["a"])
	assert.Equal(t, 2.0, c.windows[0].Signals["a"].Mean())
	// empty windows keep reporting known signals
	assert.Equal(t, SignalWindow{}, c.windows[1].Signals["a"])
	assert.Equal(t, uint64(2000), c.windows[2].WinStartUs)
	assert.Equal(t, uint64(3000), c.windows[3].WinStartUs)
	assert.Equal(t, SignalWindow{Count: 1, Sum: 10}, c.windows[3].Signals["b"])
	assert.Equal(t, []string{"a", "b"}, c.windows[3].SortedSignals())
}

func TestStatsLog(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "1_stats.csv")
	sl := NewStatsLog(fn)
	require.True(t, sl.IsFileEnabled())
	tw := NewTimeWindow(1000, sl)
	tw.OnSample(10, 1, "macThroughputDl", 100)
	tw.OnSample(20, 2, "macThroughputDl", 300)
	tw.Advance(1000)
	sl.Close()

	data, err := os.ReadFile(fn)
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timeSec,signal,count,sum,mean", lines[0])
	assert.Equal(t, "0.001,macThroughputDl,2,400,200", lines[1])

	assert.Equal(t, "out/3_stats.csv", GetStatsLogFileName("out", 3))
}
