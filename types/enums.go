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

package types

import (
	"fmt"
	"strings"

	"github.com/simonlingoogle/go-simplelogger"
)

type Direction int

const (
	DirDl Direction = iota
	DirUl
	DirD2d
	DirD2dMulti
)

func (d Direction) String() string {
	switch d {
	case DirDl:
		return "dl"
	case DirUl:
		return "ul"
	case DirD2d:
		return "d2d"
	case DirD2dMulti:
		return "d2dmulti"
	default:
		simplelogger.Panicf("invalid direction: %d", int(d))
		return "invalid"
	}
}

// SignalSuffix is the suffix of statistic signal names recorded for this direction.
func (d Direction) SignalSuffix() string {
	switch d {
	case DirDl:
		return "Dl"
	case DirUl:
		return "Ul"
	default:
		return "D2D"
	}
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "dl", "down", "downlink":
		return DirDl, nil
	case "ul", "up", "uplink":
		return DirUl, nil
	case "d2d":
		return DirD2d, nil
	case "d2dmulti", "multicast":
		return DirD2dMulti, nil
	default:
		return DirDl, fmt.Errorf("invalid direction: %s", s)
	}
}

// HarqMode selects the peer relation of a HARQ buffer.
type HarqMode int

const (
	HarqInfrastructure HarqMode = iota
	HarqD2dUnicast
	HarqD2dMulticast
)

func (m HarqMode) String() string {
	switch m {
	case HarqInfrastructure:
		return "infrastructure"
	case HarqD2dUnicast:
		return "d2d-unicast"
	case HarqD2dMulticast:
		return "d2d-multicast"
	default:
		simplelogger.Panicf("invalid HARQ mode: %d", int(m))
		return "invalid"
	}
}

// HarqModeOf maps a link direction to the HARQ mode serving it.
func HarqModeOf(dir Direction) HarqMode {
	switch dir {
	case DirD2d:
		return HarqD2dUnicast
	case DirD2dMulti:
		return HarqD2dMulticast
	default:
		return HarqInfrastructure
	}
}

type TxHarqStatus int

const (
	TxHarqPduEmpty TxHarqStatus = iota
	TxHarqPduBuffered
	TxHarqPduSelected
	TxHarqPduWaiting
)

func (s TxHarqStatus) String() string {
	switch s {
	case TxHarqPduEmpty:
		return "EMPTY"
	case TxHarqPduBuffered:
		return "BUFFERED"
	case TxHarqPduSelected:
		return "SELECTED"
	case TxHarqPduWaiting:
		return "WAITING"
	default:
		simplelogger.Panicf("invalid TX HARQ status: %d", int(s))
		return "invalid"
	}
}

type RxHarqStatus int

const (
	RxHarqPduEmpty RxHarqStatus = iota
	RxHarqPduEvaluating
	RxHarqPduCorrect
	RxHarqPduCorrupted
)

func (s RxHarqStatus) String() string {
	switch s {
	case RxHarqPduEmpty:
		return "EMPTY"
	case RxHarqPduEvaluating:
		return "EVALUATING"
	case RxHarqPduCorrect:
		return "CORRECT"
	case RxHarqPduCorrupted:
		return "CORRUPTED"
	default:
		simplelogger.Panicf("invalid RX HARQ status: %d", int(s))
		return "invalid"
	}
}

type HarqAck int

const (
	HarqNone HarqAck = iota
	HarqAckResult
	HarqNackResult
)

func (a HarqAck) String() string {
	switch a {
	case HarqNone:
		return "NONE"
	case HarqAckResult:
		return "ACK"
	case HarqNackResult:
		return "NACK"
	default:
		simplelogger.Panicf("invalid HARQ acknowledgement: %d", int(a))
		return "invalid"
	}
}

type SchedDiscipline int

const (
	SchedMaxCi SchedDiscipline = iota
	SchedPf
	SchedDrr
)

func (d SchedDiscipline) String() string {
	switch d {
	case SchedMaxCi:
		return "maxci"
	case SchedPf:
		return "pf"
	case SchedDrr:
		return "drr"
	default:
		simplelogger.Panicf("invalid scheduling discipline: %d", int(d))
		return "invalid"
	}
}

func ParseSchedDiscipline(s string) (SchedDiscipline, error) {
	switch strings.ToLower(s) {
	case "maxci", "max_ci":
		return SchedMaxCi, nil
	case "pf", "proportional":
		return SchedPf, nil
	case "drr":
		return SchedDrr, nil
	default:
		return SchedMaxCi, fmt.Errorf("invalid scheduling discipline: %s", s)
	}
}

type CompNodeType int

const (
	CompClient CompNodeType = iota
	CompCoordinator
	CompClientCoordinator
)

func (t CompNodeType) String() string {
	switch t {
	case CompClient:
		return "COMP_CLIENT"
	case CompCoordinator:
		return "COMP_COORDINATOR"
	case CompClientCoordinator:
		return "COMP_CLIENT_COORDINATOR"
	default:
		simplelogger.Panicf("invalid Comp node type: %d", int(t))
		return "invalid"
	}
}

func ParseCompNodeType(s string) (CompNodeType, error) {
	switch strings.ToUpper(strings.ReplaceAll(s, "-", "_")) {
	case "COMP_CLIENT", "CLIENT":
		return CompClient, nil
	case "COMP_COORDINATOR", "COORDINATOR":
		return CompCoordinator, nil
	case "COMP_CLIENT_COORDINATOR", "CLIENT_COORDINATOR":
		return CompClientCoordinator, nil
	default:
		return CompClient, fmt.Errorf("unrecognized Comp node type: %s", s)
	}
}

type RbStatus int

const (
	NotAvailableRb RbStatus = iota
	AvailableRb
)

type TrafficClass int

const (
	Conversational TrafficClass = iota
	Streaming
	Interactive
	Background
	NumTrafficClasses
)

func (c TrafficClass) String() string {
	switch c {
	case Conversational:
		return "conversational"
	case Streaming:
		return "streaming"
	case Interactive:
		return "interactive"
	case Background:
		return "background"
	default:
		simplelogger.Panicf("invalid traffic class: %d", int(c))
		return "invalid"
	}
}

func ParseTrafficClass(s string) (TrafficClass, error) {
	for c := Conversational; c < NumTrafficClasses; c++ {
		if strings.ToLower(s) == c.String() {
			return c, nil
		}
	}
	return Background, fmt.Errorf("invalid traffic class: %s", s)
}

type GrantType int

const (
	GrantFixedSize GrantType = iota
	GrantUrgent
	GrantUnlimited
)

func (g GrantType) String() string {
	switch g {
	case GrantFixedSize:
		return "FIXED"
	case GrantUrgent:
		return "URGENT"
	case GrantUnlimited:
		return "UNLIMITED"
	default:
		simplelogger.Panicf("invalid grant type: %d", int(g))
		return "invalid"
	}
}

func ParseGrantType(s string) (GrantType, error) {
	switch strings.ToUpper(s) {
	case "FIXED", "FIXED_SIZE", "FIXED_":
		return GrantFixedSize, nil
	case "URGENT":
		return GrantUrgent, nil
	case "UNLIMITED", "":
		return GrantUnlimited, nil
	default:
		return GrantUnlimited, fmt.Errorf("unknown grant type: %s", s)
	}
}
