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

package harq

import (
	. "github.com/ransim/ran-ns/types"
)

type rxUnit struct {
	pdu           *Pdu
	rxTime        SimTime
	seq           uint64 // buffer-wide insertion order, orders PDUs received in the same TTI
	decoded       bool
	status        RxHarqStatus
	transmissions int
}

// RxProcess is the receiving end of one HARQ process.
type RxProcess struct {
	acid       Acid
	maxHarqRtx int
	evalDelay  SimTime
	units      [MaxCodewords]rxUnit
}

func newRxProcess(cfg Config, acid Acid) *RxProcess {
	timer := cfg.FbEvaluationTimer
	if timer < 1 {
		timer = 1
	}
	return &RxProcess{
		acid:       acid,
		maxHarqRtx: cfg.MaxHarqRtx,
		evalDelay:  cfg.SlotDuration() * SimTime(timer-1),
	}
}

func (p *RxProcess) Acid() Acid {
	return p.acid
}

// InsertPdu stores a received PDU together with the decoder outcome. New data needs an empty
// unit; a retransmission may also replace a corrupted one.
func (p *RxProcess) InsertPdu(cw Codeword, pdu *Pdu, decoded bool, now SimTime) error {
	u := &p.units[cw]
	switch {
	case pdu.Ndi && u.status != RxHarqPduEmpty:
		return InvariantErrorf("rx acid %d cw %d: new data into unit in state %v", p.acid, cw, u.status)
	case !pdu.Ndi && u.status != RxHarqPduEmpty && u.status != RxHarqPduCorrupted:
		return InvariantErrorf("rx acid %d cw %d: retransmission into unit in state %v", p.acid, cw, u.status)
	}
	u.pdu = pdu
	u.decoded = decoded
	u.status = RxHarqPduEvaluating
	u.rxTime = now
	u.transmissions++
	return nil
}

// IsEvaluated reports whether the decode latency of an evaluating unit has elapsed.
func (p *RxProcess) IsEvaluated(cw Codeword, now SimTime) bool {
	u := &p.units[cw]
	return u.status == RxHarqPduEvaluating && now >= u.rxTime && now-u.rxTime >= p.evalDelay
}

// CreateFeedback concludes the evaluation of a unit. A corrupted PDU that used up all
// retransmissions is purged.
func (p *RxProcess) CreateFeedback(cw Codeword) (Feedback, error) {
	u := &p.units[cw]
	if u.status != RxHarqPduEvaluating {
		return Feedback{}, InvariantErrorf("rx acid %d cw %d: feedback for unit in state %v", p.acid, cw, u.status)
	}
	fb := Feedback{
		Src:    u.pdu.Dst,
		Dst:    u.pdu.Src,
		Dir:    u.pdu.Dir,
		Acid:   p.acid,
		Cw:     cw,
		PduId:  u.pdu.Id,
		Result: u.decoded,
	}
	if u.decoded {
		u.status = RxHarqPduCorrect
	} else {
		u.status = RxHarqPduCorrupted
		if u.transmissions == p.maxHarqRtx+1 {
			p.resetCodeword(cw)
		}
	}
	return fb, nil
}

func (p *RxProcess) IsCorrect(cw Codeword) bool {
	return p.units[cw].status == RxHarqPduCorrect
}

func (p *RxProcess) UnitStatus(cw Codeword) RxHarqStatus {
	return p.units[cw].status
}

// UnitPdu returns the PDU held by a unit, nil if empty.
func (p *RxProcess) UnitPdu(cw Codeword) *Pdu {
	return p.units[cw].pdu
}

// ExtractPdu hands a correctly decoded PDU upwards and frees the unit.
func (p *RxProcess) ExtractPdu(cw Codeword) (*Pdu, error) {
	if !p.IsCorrect(cw) {
		return nil, InvariantErrorf("rx acid %d cw %d: extracting from unit in state %v", p.acid, cw, p.units[cw].status)
	}
	pdu := p.units[cw].pdu
	p.resetCodeword(cw)
	return pdu, nil
}

func (p *RxProcess) resetCodeword(cw Codeword) {
	p.units[cw] = rxUnit{status: RxHarqPduEmpty}
}

func (p *RxProcess) IsEmpty() bool {
	for cw := range p.units {
		if p.units[cw].status != RxHarqPduEmpty {
			return false
		}
	}
	return true
}

func (p *RxProcess) EmptyUnitsIds() []Codeword {
	var cws []Codeword
	for cw := range p.units {
		if p.units[cw].status == RxHarqPduEmpty {
			cws = append(cws, cw)
		}
	}
	return cws
}

func (p *RxProcess) Status() []RxHarqStatus {
	st := make([]RxHarqStatus, MaxCodewords)
	for cw := range p.units {
		st[cw] = p.units[cw].status
	}
	return st
}
