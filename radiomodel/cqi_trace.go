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


package radiomodel

import (
	"os"

	"github.com/jszwec/csvutil"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	. "github.com/ransim/ran-ns/types"
)

// WidebandBand marks a trace sample that applies to every band.
const WidebandBand = -1

// CqiSample is one line of a CQI trace file:
//
//	time_ms,node,dir,band,cqi
//	0,2,dl,-1,12
type CqiSample struct {
	TimeMs uint64 `csv:"time_ms"`
	Node   int    `csv:"node"`
	Dir    string `csv:"dir"`
	Band   int    `csv:"band"`
	Cqi    int    `csv:"cqi"`
}

// CqiSink receives CQI reports.
type CqiSink interface {
	SetCqi(node NodeId, dir Direction, cqi int) error
	SetBandCqi(node NodeId, dir Direction, band Band, cqi int) error
}

// CqiTrace replays recorded CQI reports instead of the synthetic channel.
type CqiTrace struct {
	samples []CqiSample
	next    int
}

// ParseCqiTrace reads a trace from CSV data with a header line.
func ParseCqiTrace(data []byte) (*CqiTrace, error) {
	var samples []CqiSample
	if err := csvutil.Unmarshal(data, &samples); err != nil {
		return nil, errors.Wrap(err, "CQI trace")
	}
	for i, s := range samples {
		if _, err := ParseDirection(s.Dir); err != nil {
			return nil, errors.Wrapf(err, "CQI trace line %d", i+2)
		}
	}
	slices.SortStableFunc(samples, func(a, b CqiSample) int {
		switch {
		case a.TimeMs < b.TimeMs:
			return -1
		case a.TimeMs > b.TimeMs:
			return 1
		default:
			return 0
		}
	})
	return &CqiTrace{samples: samples}, nil
}

func LoadCqiTrace(filename string) (*CqiTrace, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseCqiTrace(data)
}

func (t *CqiTrace) Len() int {
	return len(t.samples)
}

// Done reports whether every sample was applied.
func (t *CqiTrace) Done() bool {
	return t.next >= len(t.samples)
}

// Apply delivers the samples due at now that were not delivered yet.
func (t *CqiTrace) Apply(now SimTime, sink CqiSink) error {
	for ; t.next < len(t.samples); t.next++ {
		s := t.samples[t.next]
		if SimTime(s.TimeMs)*1000 > now {
			break
		}
		dir, _ := ParseDirection(s.Dir)
		var err error
		if s.Band == WidebandBand {
			err = sink.SetCqi(s.Node, dir, s.Cqi)
		} else {
			err = sink.SetBandCqi(s.Node, dir, s.Band, s.Cqi)
		}
		if err != nil {
			return errors.Wrapf(err, "CQI trace at %d ms", s.TimeMs)
		}
	}
	return nil
}
