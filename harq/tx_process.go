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

// TxProcess is one stop-and-wait HARQ process with MaxCodewords units.
type TxProcess struct {
	acid    Acid
	units   [MaxCodewords]*TxUnit
	dropped bool
}

func newTxProcess(link *txLink, acid Acid) *TxProcess {
	p := &TxProcess{acid: acid}
	for cw := 0; cw < MaxCodewords; cw++ {
		p.units[cw] = newTxUnit(link, acid, cw)
	}
	return p
}

func (p *TxProcess) Acid() Acid {
	return p.acid
}

func (p *TxProcess) Unit(cw Codeword) *TxUnit {
	return p.units[cw]
}

// Dropped reports whether the process was force-dropped since its last PDU insertion. Late
// feedback for a dropped process is ignored.
func (p *TxProcess) Dropped() bool {
	return p.dropped
}

func (p *TxProcess) IsEmpty() bool {
	return p.NumEmptyUnits() == MaxCodewords
}

func (p *TxProcess) IsUnitEmpty(cw Codeword) bool {
	return p.units[cw].IsEmpty()
}

// IsActive reports whether any unit holds a PDU.
func (p *TxProcess) IsActive() bool {
	return !p.IsEmpty()
}

func (p *TxProcess) NumEmptyUnits() int {
	n := 0
	for _, u := range p.units {
		if u.IsEmpty() {
			n++
		}
	}
	return n
}

func (p *TxProcess) HasReadyUnits() bool {
	for _, u := range p.units {
		if u.IsReady() {
			return true
		}
	}
	return false
}

// OldestUnitTxTime returns the earliest last-transmission time of the ready units.
func (p *TxProcess) OldestUnitTxTime() SimTime {
	oldest := InvalidTime
	for _, u := range p.units {
		if u.IsReady() && u.TxTime() < oldest {
			oldest = u.TxTime()
		}
	}
	return oldest
}

func (p *TxProcess) unitsIn(status TxHarqStatus) []Codeword {
	var cws []Codeword
	for cw, u := range p.units {
		if u.Status() == status {
			cws = append(cws, cw)
		}
	}
	return cws
}

func (p *TxProcess) ReadyUnitsIds() []Codeword {
	return p.unitsIn(TxHarqPduBuffered)
}

func (p *TxProcess) EmptyUnitsIds() []Codeword {
	return p.unitsIn(TxHarqPduEmpty)
}

func (p *TxProcess) SelectedUnitsIds() []Codeword {
	return p.unitsIn(TxHarqPduSelected)
}

func (p *TxProcess) InsertPdu(cw Codeword, pdu *Pdu) error {
	if err := p.units[cw].InsertPdu(pdu); err != nil {
		return err
	}
	p.dropped = false
	return nil
}

func (p *TxProcess) MarkSelected(cw Codeword) error {
	return p.units[cw].MarkSelected()
}

func (p *TxProcess) ExtractPdu(cw Codeword, now SimTime) (*Pdu, error) {
	return p.units[cw].ExtractPdu(now)
}

// PduFeedback applies feedback to a unit and returns true when the whole process became empty.
func (p *TxProcess) PduFeedback(ack HarqAck, cw Codeword) (bool, error) {
	if _, err := p.units[cw].PduFeedback(ack); err != nil {
		return false, err
	}
	return p.IsEmpty(), nil
}

// SelfNack returns true when the whole process became empty.
func (p *TxProcess) SelfNack(cw Codeword, now SimTime) (bool, error) {
	if _, err := p.units[cw].SelfNack(now); err != nil {
		return false, err
	}
	return p.IsEmpty(), nil
}

func (p *TxProcess) DropPdu(cw Codeword) error {
	return p.units[cw].DropPdu()
}

// ForceDropProcess empties every unit and marks the process dropped.
func (p *TxProcess) ForceDropProcess() {
	for _, u := range p.units {
		u.ForceDropUnit()
	}
	p.dropped = true
}

// ForceDropUnit empties one unit and returns true when the whole process became empty.
func (p *TxProcess) ForceDropUnit(cw Codeword) bool {
	p.units[cw].ForceDropUnit()
	if p.IsEmpty() {
		p.dropped = true
		return true
	}
	return false
}

func (p *TxProcess) Status() []TxHarqStatus {
	st := make([]TxHarqStatus, MaxCodewords)
	for cw, u := range p.units {
		st[cw] = u.Status()
	}
	return st
}
