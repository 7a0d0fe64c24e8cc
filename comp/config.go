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


package comp

import (
	"github.com/pkg/errors"

	. "github.com/ransim/ran-ns/types"
)

const (
	DefaultTti                = SimTime(1000)
	DefaultCoordinationPeriod = SimTime(1000)
)

// Config holds the Comp parameters of one cell.
type Config struct {
	Type               CompNodeType
	Coordinator        NodeId   // ignored by a pure coordinator
	Clients            []NodeId // remote clients served by a coordinator
	CoordinationPeriod SimTime
	Tti                SimTime
	// ReplyTimeout is how long a client keeps using a mask without a new reply before it reports
	// the mask as stale. Zero means one coordination period.
	ReplyTimeout SimTime
}

func DefaultConfig() Config {
	return Config{
		Type:               CompClient,
		Coordinator:        InvalidNodeId,
		CoordinationPeriod: DefaultCoordinationPeriod,
		Tti:                DefaultTti,
	}
}

// Validate checks the role specific parameters and applies the period floor and timeout default.
func (c *Config) Validate(self NodeId) error {
	if c.Tti == 0 {
		return errors.Errorf("comp: TTI must be positive")
	}
	if c.CoordinationPeriod < c.Tti {
		c.CoordinationPeriod = c.Tti
	}
	if c.ReplyTimeout == 0 {
		c.ReplyTimeout = c.CoordinationPeriod
	}
	if c.Type != CompCoordinator && c.Type != CompClientCoordinator && c.Coordinator == InvalidNodeId {
		return errors.Errorf("comp: client %d has no coordinator", self)
	}
	if c.Type == CompClientCoordinator {
		c.Coordinator = self
	}
	for _, id := range c.Clients {
		if id == self {
			return errors.Errorf("comp: coordinator %d lists itself as remote client", self)
		}
	}
	return nil
}
