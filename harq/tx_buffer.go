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
	"github.com/ransim/ran-ns/logger"
	. "github.com/ransim/ran-ns/types"
)

// TxBuffer is the transmitter side HARQ buffer of one link.
type TxBuffer struct {
	link         *txLink
	processes    []*TxProcess
	selectedAcid Acid
}

// NewTxBuffer creates the Tx buffer the owner uses towards its peer. A nil emitter discards
// statistics.
func NewTxBuffer(cfg Config, link Link, em Emitter) *TxBuffer {
	if em == nil {
		em = nopEmitter{}
	}
	tl := &txLink{
		Link:       link,
		maxHarqRtx: cfg.MaxHarqRtx,
		emitter:    em,
	}
	b := &TxBuffer{
		link:         tl,
		processes:    make([]*TxProcess, cfg.NumProcesses),
		selectedAcid: AcidNone,
	}
	for i := range b.processes {
		b.processes[i] = newTxProcess(tl, i)
	}
	return b
}

func (b *TxBuffer) Link() Link {
	return b.link.Link
}

func (b *TxBuffer) Mode() HarqMode {
	return b.link.Mode()
}

func (b *TxBuffer) NumProcesses() int {
	return len(b.processes)
}

func (b *TxBuffer) SelectedAcid() Acid {
	return b.selectedAcid
}

// Process returns the process with the given acid, nil if out of range.
func (b *TxBuffer) Process(acid Acid) *TxProcess {
	if acid < 0 || acid >= len(b.processes) {
		return nil
	}
	return b.processes[acid]
}

func (b *TxBuffer) process(acid Acid) (*TxProcess, error) {
	p := b.Process(acid)
	if p == nil {
		return nil, InvariantErrorf("%v: acid %d out of bounds", b.link, acid)
	}
	return p, nil
}

// NumEmptyProcesses counts processes with all units empty.
func (b *TxBuffer) NumEmptyProcesses() int {
	n := 0
	for _, p := range b.processes {
		if p.IsEmpty() {
			n++
		}
	}
	return n
}

// FirstReadyForRtx returns the ready units of the process whose ready units were transmitted
// longest ago.
func (b *TxBuffer) FirstReadyForRtx() UnitList {
	res := noUnits()
	oldest := InvalidTime
	for _, p := range b.processes {
		if p.HasReadyUnits() {
			if t := p.OldestUnitTxTime(); res.IsNone() || t < oldest {
				oldest = t
				res.Acid = p.Acid()
			}
		}
	}
	if !res.IsNone() {
		res.Cws = b.processes[res.Acid].ReadyUnitsIds()
	}
	return res
}

// FirstAvailable returns the process new data goes to: the process already selected in this
// TTI, or else the first completely empty one.
func (b *TxBuffer) FirstAvailable() UnitList {
	acid := b.selectedAcid
	if acid == AcidNone {
		for _, p := range b.processes {
			if p.IsEmpty() {
				acid = p.Acid()
				break
			}
		}
	}
	if acid == AcidNone {
		return noUnits()
	}
	return UnitList{Acid: acid, Cws: b.processes[acid].EmptyUnitsIds()}
}

func (b *TxBuffer) EmptyUnits(acid Acid) UnitList {
	p := b.Process(acid)
	if p == nil {
		return noUnits()
	}
	return UnitList{Acid: acid, Cws: p.EmptyUnitsIds()}
}

// MarkSelected selects the listed ready units for retransmission. When more codewords are ready
// than transport blocks are available their PDUs are merged into the first codeword.
func (b *TxBuffer) MarkSelected(ul UnitList, availableTbs int) error {
	if len(ul.Cws) == 0 || availableTbs == 0 {
		return nil
	}
	p, err := b.process(ul.Acid)
	if err != nil {
		return err
	}
	if len(ul.Cws) > availableTbs {
		base := p.Unit(ul.Cws[0])
		if base.Pdu() == nil {
			return InvariantErrorf("%v acid %d cw %d: merging into empty unit", b.link, ul.Acid, ul.Cws[0])
		}
		for _, cw := range ul.Cws[1:] {
			guest := p.Unit(cw).Pdu()
			if guest == nil {
				return InvariantErrorf("%v acid %d cw %d: merging empty unit", b.link, ul.Acid, cw)
			}
			base.pdu.Bytes += guest.Bytes
			base.pdu.Blocks += guest.Blocks
			if err = p.DropPdu(cw); err != nil {
				return err
			}
		}
		if err = p.MarkSelected(ul.Cws[0]); err != nil {
			return err
		}
	} else {
		for _, cw := range ul.Cws {
			if err = p.MarkSelected(cw); err != nil {
				return err
			}
		}
	}
	b.selectedAcid = ul.Acid
	return nil
}

// InsertPdu stores a new PDU and selects it for transmission in the current TTI. If no process is
// selected yet the target process must be completely empty.
func (b *TxBuffer) InsertPdu(acid Acid, cw Codeword, pdu *Pdu) error {
	p, err := b.process(acid)
	if err != nil {
		return err
	}
	if b.selectedAcid == AcidNone && !p.IsEmpty() {
		return InvariantErrorf("%v: new process %d selected for tx is not empty", b.link, acid)
	}
	if b.selectedAcid != AcidNone && b.selectedAcid != acid {
		return InvariantErrorf("%v: inserting into acid %d while acid %d is selected", b.link, acid, b.selectedAcid)
	}
	if !p.IsUnitEmpty(cw) {
		return InvariantErrorf("%v acid %d cw %d: unit is not empty", b.link, acid, cw)
	}
	if err = p.InsertPdu(cw, pdu); err != nil {
		return err
	}
	if err = p.MarkSelected(cw); err != nil {
		return err
	}
	b.selectedAcid = acid
	logger.NodeLogf(b.link.Owner, logger.TraceLevel, "pdu %d (%d bytes) inserted into acid %d cw %d for node %d",
		pdu.Id, pdu.Bytes, acid, cw, b.link.Peer)
	return nil
}

// ReceiveHarqFeedback routes feedback to its unit. Feedback for a dropped process is ignored.
func (b *TxBuffer) ReceiveHarqFeedback(fb Feedback) error {
	p, err := b.process(fb.Acid)
	if err != nil {
		return err
	}
	if p.Dropped() {
		logger.NodeLogf(b.link.Owner, logger.DebugLevel, "feedback for dropped acid %d ignored", fb.Acid)
		return nil
	}
	if fb.Cw < 0 || fb.Cw >= MaxCodewords {
		return InvariantErrorf("%v acid %d: codeword %d out of bounds", b.link, fb.Acid, fb.Cw)
	}
	if id := p.Unit(fb.Cw).PduId(); id != fb.PduId {
		return InvariantErrorf("%v acid %d cw %d: feedback for pdu %d, unit holds pdu %d",
			b.link, fb.Acid, fb.Cw, fb.PduId, id)
	}
	_, err = p.PduFeedback(fb.Ack(), fb.Cw)
	logger.NodeLogf(b.link.Owner, logger.TraceLevel, "acid %d cw %d feedback %v", fb.Acid, fb.Cw, fb.Ack())
	return err
}

// SendSelectedDown extracts the PDUs of the selected process for transmission.
func (b *TxBuffer) SendSelectedDown(now SimTime) ([]*Pdu, error) {
	if b.selectedAcid == AcidNone {
		return nil, nil
	}
	p := b.processes[b.selectedAcid]
	var pdus []*Pdu
	for _, cw := range p.SelectedUnitsIds() {
		pdu, err := p.ExtractPdu(cw, now)
		if err != nil {
			return pdus, err
		}
		pdus = append(pdus, pdu)
	}
	b.selectedAcid = AcidNone
	return pdus, nil
}

// DropProcess discards the buffered PDUs of a process.
func (b *TxBuffer) DropProcess(acid Acid) error {
	p, err := b.process(acid)
	if err != nil {
		return err
	}
	for _, cw := range p.ReadyUnitsIds() {
		if err = p.DropPdu(cw); err != nil {
			return err
		}
	}
	return nil
}

// SelfNack self-NACKs every ready unit of a process.
func (b *TxBuffer) SelfNack(acid Acid, now SimTime) error {
	p, err := b.process(acid)
	if err != nil {
		return err
	}
	for _, cw := range p.ReadyUnitsIds() {
		if _, err = p.SelfNack(cw, now); err != nil {
			return err
		}
	}
	return nil
}

func (b *TxBuffer) ForceDropProcess(acid Acid) error {
	p, err := b.process(acid)
	if err != nil {
		return err
	}
	p.ForceDropProcess()
	if acid == b.selectedAcid {
		b.selectedAcid = AcidNone
	}
	return nil
}

func (b *TxBuffer) ForceDropUnit(acid Acid, cw Codeword) error {
	p, err := b.process(acid)
	if err != nil {
		return err
	}
	if p.ForceDropUnit(cw) && acid == b.selectedAcid {
		b.selectedAcid = AcidNone
	}
	return nil
}

// BufferStatus returns the unit states of every process.
func (b *TxBuffer) BufferStatus() [][]TxHarqStatus {
	bs := make([][]TxHarqStatus, len(b.processes))
	for i, p := range b.processes {
		bs[i] = p.Status()
	}
	return bs
}

// IsActive reports whether any process holds a PDU.
func (b *TxBuffer) IsActive() bool {
	for _, p := range b.processes {
		if p.IsActive() {
			return true
		}
	}
	return false
}
