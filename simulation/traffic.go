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
	"fmt"
	"math"
	"strings"

	"github.com/iti/rngstream"
	"github.com/pkg/errors"

	. "github.com/ransim/ran-ns/types"
)

type TrafficModel int

const (
	TrafficCbr TrafficModel = iota
	TrafficPoisson
)

func (m TrafficModel) String() string {
	if m == TrafficPoisson {
		return "poisson"
	}
	return "cbr"
}

func ParseTrafficModel(s string) (TrafficModel, error) {
	switch strings.ToLower(s) {
	case "cbr", "const", "constant", "":
		return TrafficCbr, nil
	case "poisson", "exp", "expon", "exponential":
		return TrafficPoisson, nil
	default:
		return TrafficCbr, errors.Errorf("unknown traffic model: %s", s)
	}
}

const (
	DefaultPacketSize = 1000
	DefaultFlowRate   = 125000 // bytes/s
)

// FlowConfig describes a synthetic traffic source on one connection of a UE.
type FlowConfig struct {
	Ue         NodeId
	Lcid       LogicalCid // < 0 for the next free lcid of the UE
	Dir        Direction
	Peer       NodeId // D2D destination UE or multicast group; the serving cell otherwise
	Class      TrafficClass
	Model      TrafficModel
	Rate       float64 // bytes per second
	PacketSize uint
	Start      SimTime
	Stop       SimTime // 0 for no end
}

func DefaultFlowConfig(ue NodeId) FlowConfig {
	return FlowConfig{
		Ue:         ue,
		Lcid:       -1,
		Dir:        DirDl,
		Peer:       InvalidNodeId,
		Class:      Background,
		Model:      TrafficCbr,
		Rate:       DefaultFlowRate,
		PacketSize: DefaultPacketSize,
	}
}

// Flow generates packet arrivals for one connection.
type Flow struct {
	cfg         FlowConfig
	Cid         Cid
	Cell        NodeId
	rng         *rngstream.RngStream
	nextArrival SimTime

	SentPackets    uint64
	SentBytes      uint64
	DeliveredPdus  uint64
	DeliveredBytes uint64
}

func newFlow(cfg FlowConfig, cid Cid, cell NodeId) (*Flow, error) {
	if cfg.Rate <= 0 || cfg.PacketSize == 0 {
		return nil, errors.Errorf("flow %v: rate and packet size must be positive", cid)
	}
	f := &Flow{
		cfg:         cfg,
		Cid:         cid,
		Cell:        cell,
		rng:         rngstream.New(fmt.Sprintf("flow-%d-%d", cid.Node, cid.Lcid)),
		nextArrival: cfg.Start,
	}
	return f, nil
}

func (f *Flow) Config() FlowConfig {
	return f.cfg
}

func expRV(u01, rate float64) float64 {
	return -math.Log(1.0-u01) / rate
}

// interarrival returns the time to the next packet in microseconds.
func (f *Flow) interarrival() SimTime {
	pktRate := f.cfg.Rate / float64(f.cfg.PacketSize)
	var sec float64
	switch f.cfg.Model {
	case TrafficPoisson:
		sec = expRV(f.rng.RandU01(), pktRate)
	default:
		sec = 1.0 / pktRate
	}
	us := SimTime(math.Round(sec * 1e6))
	if us == 0 {
		us = 1
	}
	return us
}

// Arrivals returns the arrival times of the packets generated up to and including now.
func (f *Flow) Arrivals(now SimTime) []SimTime {
	var res []SimTime
	for f.nextArrival <= now {
		if f.cfg.Stop > 0 && f.nextArrival >= f.cfg.Stop {
			break
		}
		res = append(res, f.nextArrival)
		f.nextArrival += f.interarrival()
	}
	return res
}

func (f *Flow) String() string {
	return fmt.Sprintf("%v %v %v %.0fB/s", f.Cid, f.cfg.Dir, f.cfg.Model, f.cfg.Rate)
}
