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


// Package stats records the statistic signals of a simulation run, per node, and summarizes them.
package stats

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	. "github.com/ransim/ran-ns/types"
)

// AllNodes selects the samples of every node in queries.
const AllNodes NodeId = BroadcastNodeId

type Sample struct {
	Time  SimTime
	Value float64
}

type vectorKey struct {
	node   NodeId
	signal string
}

// Listener is notified of every sample, e.g. to aggregate time windows.
type Listener interface {
	OnSample(now SimTime, node NodeId, signal string, value float64)
}

// Recorder stores the samples emitted by the HARQ buffers, schedulers and Comp managers.
type Recorder struct {
	now        SimTime
	maxSamples int // per vector, 0 is unlimited
	vectors    map[vectorKey][]Sample
	listeners  []Listener
}

func NewRecorder(maxSamples int) *Recorder {
	return &Recorder{
		maxSamples: maxSamples,
		vectors:    map[vectorKey][]Sample{},
	}
}

// SetTime sets the timestamp of the samples that follow.
func (r *Recorder) SetTime(now SimTime) {
	r.now = now
}

func (r *Recorder) Now() SimTime {
	return r.now
}

func (r *Recorder) AddListener(l Listener) {
	r.listeners = append(r.listeners, l)
}

func (r *Recorder) Emit(node NodeId, signal string, value float64) {
	k := vectorKey{node, signal}
	v := append(r.vectors[k], Sample{Time: r.now, Value: value})
	if r.maxSamples > 0 && len(v) > r.maxSamples {
		v = v[len(v)-r.maxSamples:]
	}
	r.vectors[k] = v
	for _, l := range r.listeners {
		l.OnSample(r.now, node, signal, value)
	}
}

// Reset drops every sample, e.g. at the end of the warm-up.
func (r *Recorder) Reset() {
	r.vectors = map[vectorKey][]Sample{}
}

// Signals returns the names of the recorded signals, sorted.
func (r *Recorder) Signals() []string {
	set := map[string]struct{}{}
	for k := range r.vectors {
		set[k.signal] = struct{}{}
	}
	names := maps.Keys(set)
	slices.Sort(names)
	return names
}

// Nodes returns the nodes that emitted a signal, sorted.
func (r *Recorder) Nodes(signal string) []NodeId {
	var nodes []NodeId
	for k := range r.vectors {
		if k.signal == signal {
			nodes = append(nodes, k.node)
		}
	}
	slices.Sort(nodes)
	return nodes
}

// Samples returns the samples of one node, in emission order.
func (r *Recorder) Samples(node NodeId, signal string) []Sample {
	return r.vectors[vectorKey{node, signal}]
}

// Values returns the sample values of a node, or of all nodes in node order with AllNodes.
func (r *Recorder) Values(node NodeId, signal string) []float64 {
	nodes := []NodeId{node}
	if node == AllNodes {
		nodes = r.Nodes(signal)
	}
	var values []float64
	for _, n := range nodes {
		for _, s := range r.vectors[vectorKey{n, signal}] {
			values = append(values, s.Value)
		}
	}
	return values
}

// Summary summarizes the samples of a node, or of all nodes with AllNodes.
func (r *Recorder) Summary(node NodeId, signal string) Summary {
	return Summarize(r.Values(node, signal))
}
