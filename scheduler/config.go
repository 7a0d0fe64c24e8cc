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

package scheduler

import (
	"github.com/pkg/errors"

	. "github.com/ransim/ran-ns/types"
)

const (
	DefaultPfAlpha        = 0.95
	DefaultPfEpsilon      = 1e-6
	DefaultDrrQuantum     = 400
	DefaultHeaderOverhead = 4 // MAC header + RLC UM header, bytes
	DefaultFixedGrantSize = 256
	DefaultCodewords      = 1
)

// Config holds the scheduler parameters of one cell and direction.
type Config struct {
	Discipline     SchedDiscipline
	PfAlpha        float64
	PfEpsilon      float64
	PfJitter       bool // perturb PF scores with a seeded jitter in [-eps/2, eps/2)
	DrrQuantum     uint
	HeaderOverhead uint
	Codewords      int // codewords a node can use per TTI
	Numerology     int
	MaxNumerology  int
	GrantTypes     [NumTrafficClasses]GrantType
	GrantSizes     [NumTrafficClasses]uint
}

func DefaultConfig() Config {
	cfg := Config{
		Discipline:     SchedMaxCi,
		PfAlpha:        DefaultPfAlpha,
		PfEpsilon:      DefaultPfEpsilon,
		PfJitter:       false,
		DrrQuantum:     DefaultDrrQuantum,
		HeaderOverhead: DefaultHeaderOverhead,
		Codewords:      DefaultCodewords,
		Numerology:     0,
		MaxNumerology:  0,
	}
	cfg.GrantTypes[Conversational] = GrantUrgent
	cfg.GrantTypes[Streaming] = GrantUnlimited
	cfg.GrantTypes[Interactive] = GrantUnlimited
	cfg.GrantTypes[Background] = GrantUnlimited
	for c := range cfg.GrantSizes {
		cfg.GrantSizes[c] = DefaultFixedGrantSize
	}
	return cfg
}

func (cfg *Config) Validate() error {
	if cfg.PfAlpha < 0 || cfg.PfAlpha > 1 {
		return errors.Errorf("pfAlpha %f out of range [0,1]", cfg.PfAlpha)
	}
	if cfg.PfEpsilon <= 0 {
		return errors.Errorf("pfEpsilon must be positive")
	}
	if cfg.Codewords < 1 || cfg.Codewords > MaxCodewords {
		return errors.Errorf("codewords %d out of range [1,%d]", cfg.Codewords, MaxCodewords)
	}
	if cfg.Numerology < 0 || cfg.Numerology > cfg.MaxNumerology {
		return errors.Errorf("numerology %d out of range [0,%d]", cfg.Numerology, cfg.MaxNumerology)
	}
	for c, gt := range cfg.GrantTypes {
		if gt == GrantFixedSize && cfg.GrantSizes[c] == 0 {
			return errors.Errorf("fixed grant size of class %v is 0", TrafficClass(c))
		}
	}
	return nil
}

// MaxSchedulingPeriodCounter is the number of TTIs of the fastest numerology per TTI of this one.
func (cfg *Config) MaxSchedulingPeriodCounter() int {
	return 1 << uint(cfg.MaxNumerology-cfg.Numerology)
}
