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
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	. "github.com/ransim/ran-ns/types"
)

// SignalWindow aggregates one signal over one time window, all nodes together.
type SignalWindow struct {
	Count int
	Sum   float64
}

func (w SignalWindow) Mean() float64 {
	if w.Count == 0 {
		return 0
	}
	return w.Sum / float64(w.Count)
}

// TimeWindowStats holds the per-signal aggregates of one time window.
type TimeWindowStats struct {
	WinStartUs SimTime
	WinWidthUs SimTime
	Signals    map[string]SignalWindow
}

// SortedSignals returns the signal names of the window, sorted.
func (s *TimeWindowStats) SortedSignals() []string {
	names := maps.Keys(s.Signals)
	slices.Sort(names)
	return names
}

// WindowSink receives every concluded window.
type WindowSink interface {
	OnTimeWindow(stats *TimeWindowStats)
}

// TimeWindow cuts the sample stream into fixed-width windows. It is a recorder Listener.
type TimeWindow struct {
	cur   TimeWindowStats
	seen  map[string]struct{}
	sinks []WindowSink
}

func NewTimeWindow(widthUs SimTime, sinks ...WindowSink) *TimeWindow {
	return &TimeWindow{
		cur: TimeWindowStats{
			WinWidthUs: widthUs,
			Signals:    map[string]SignalWindow{},
		},
		seen:  map[string]struct{}{},
		sinks: sinks,
	}
}

func (tw *TimeWindow) Current() *TimeWindowStats {
	return &tw.cur
}

func (tw *TimeWindow) OnSample(now SimTime, node NodeId, signal string, value float64) {
	tw.Advance(now)
	w := tw.cur.Signals[signal]
	w.Count++
	w.Sum += value
	tw.cur.Signals[signal] = w
	tw.seen[signal] = struct{}{}
}

// Advance concludes the current window if now is past its end, and moves ahead one or more windows.
func (tw *TimeWindow) Advance(now SimTime) {
	winEndTime := tw.cur.WinStartUs + tw.cur.WinWidthUs
	if now < winEndTime {
		return
	}
	tw.send()
	tw.cur.WinStartUs += tw.cur.WinWidthUs

	for now >= tw.cur.WinStartUs+tw.cur.WinWidthUs {
		// empty windows are reported too, with every signal seen so far at zero
		tw.send()
		tw.cur.WinStartUs += tw.cur.WinWidthUs
	}
}

// Finalize reports the current, possibly partial, window.
func (tw *TimeWindow) Finalize() {
	tw.send()
}

func (tw *TimeWindow) send() {
	for s := range tw.seen {
		if _, ok := tw.cur.Signals[s]; !ok {
			tw.cur.Signals[s] = SignalWindow{}
		}
	}
	for _, sink := range tw.sinks {
		sink.OnTimeWindow(&tw.cur)
	}
	tw.cur.Signals = map[string]SignalWindow{}
}
