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

var attemptSignals = [...]string{"harqErrorRate_1st_", "harqErrorRate_2nd_", "harqErrorRate_3rd_", "harqErrorRate_4th_"}

// txLink is the state a Tx unit shares with its buffer.
type txLink struct {
	Link
	maxHarqRtx int
	emitter    Emitter
}

// TxUnit holds one PDU on one codeword of a Tx process until it is acknowledged or abandoned.
type TxUnit struct {
	link          *txLink
	acid          Acid
	cw            Codeword
	pdu           *Pdu
	transmissions int
	status        TxHarqStatus
	txTime        SimTime
}

func newTxUnit(link *txLink, acid Acid, cw Codeword) *TxUnit {
	return &TxUnit{
		link:   link,
		acid:   acid,
		cw:     cw,
		status: TxHarqPduEmpty,
	}
}

func (u *TxUnit) Status() TxHarqStatus {
	return u.status
}

func (u *TxUnit) Transmissions() int {
	return u.transmissions
}

func (u *TxUnit) TxTime() SimTime {
	return u.txTime
}

func (u *TxUnit) Pdu() *Pdu {
	return u.pdu
}

// PduId returns the id of the held PDU, 0 if empty.
func (u *TxUnit) PduId() uint64 {
	if u.pdu == nil {
		return 0
	}
	return u.pdu.Id
}

func (u *TxUnit) IsEmpty() bool {
	return u.status == TxHarqPduEmpty
}

func (u *TxUnit) IsReady() bool {
	return u.status == TxHarqPduBuffered
}

// InsertPdu places a new PDU into the unit. The unit must be empty, or buffered with a PDU that
// was never transmitted.
func (u *TxUnit) InsertPdu(pdu *Pdu) error {
	if pdu == nil {
		return InvariantErrorf("%v acid %d cw %d: inserting nil pdu", u.link, u.acid, u.cw)
	}
	switch {
	case u.status == TxHarqPduEmpty:
	case u.status == TxHarqPduBuffered && u.transmissions == 0:
	default:
		return InvariantErrorf("%v acid %d cw %d: inserting pdu into busy unit (%v, %d tx)",
			u.link, u.acid, u.cw, u.status, u.transmissions)
	}
	pdu.Acid = u.acid
	pdu.Cw = u.cw
	u.pdu = pdu
	u.transmissions = 0
	u.status = TxHarqPduBuffered
	return nil
}

// MarkSelected selects a buffered unit for transmission in the current TTI.
func (u *TxUnit) MarkSelected() error {
	if u.status != TxHarqPduBuffered {
		return InvariantErrorf("%v acid %d cw %d: selecting unit in state %v", u.link, u.acid, u.cw, u.status)
	}
	u.status = TxHarqPduSelected
	logger.NodeLogf(u.link.Owner, logger.TraceLevel, "acid %d cw %d selected", u.acid, u.cw)
	return nil
}

// ExtractPdu returns a copy of the PDU to transmit and waits for its feedback. Multicast units do
// not wait: they are freed at once.
func (u *TxUnit) ExtractPdu(now SimTime) (*Pdu, error) {
	if u.status != TxHarqPduSelected {
		return nil, InvariantErrorf("%v acid %d cw %d: extracting from unit in state %v", u.link, u.acid, u.cw, u.status)
	}
	u.txTime = now
	u.transmissions++
	u.status = TxHarqPduWaiting
	u.pdu.TxNumber = u.transmissions
	u.pdu.Ndi = u.transmissions == 1
	out := u.pdu.clone()

	if u.link.Mode() == HarqD2dMulticast {
		u.emitLoss(0)
		u.reset()
	}
	return out, nil
}

// PduFeedback applies an ACK or NACK and returns true when the unit became empty.
func (u *TxUnit) PduFeedback(ack HarqAck) (bool, error) {
	if u.status != TxHarqPduWaiting {
		return false, InvariantErrorf("%v acid %d cw %d: feedback for unit in state %v", u.link, u.acid, u.cw, u.status)
	}
	ntx := u.transmissions
	reset := false
	var sample float64

	switch ack {
	case HarqAckResult:
		reset = true
	case HarqNackResult:
		sample = 1
		if u.transmissions == u.link.maxHarqRtx+1 {
			logger.NodeLogf(u.link.Owner, logger.DebugLevel, "acid %d cw %d pdu %d discarded after %d tx",
				u.acid, u.cw, u.pdu.Id, ntx)
			reset = true
		} else {
			u.status = TxHarqPduBuffered
		}
	default:
		return false, InvariantErrorf("%v acid %d cw %d: unknown feedback %d", u.link, u.acid, u.cw, int(ack))
	}

	ue := u.link.Ue()
	suffix := u.link.Dir.SignalSuffix()
	em := u.link.emitter
	if ntx >= 1 && ntx <= len(attemptSignals) {
		em.Emit(ue, attemptSignals[ntx-1]+suffix, sample)
	}
	em.Emit(ue, "harqErrorRate"+suffix, sample)
	if ack == HarqAckResult {
		em.Emit(u.link.Owner, "harqTxAttempts"+suffix, float64(ntx))
	}
	if reset {
		u.emitLoss(sample)
		u.reset()
	}
	return reset, nil
}

func (u *TxUnit) emitLoss(sample float64) {
	suffix := u.link.Dir.SignalSuffix()
	u.link.emitter.Emit(u.link.Ue(), "macPacketLoss"+suffix, sample)
	u.link.emitter.Emit(u.link.Cell, "macCellPacketLoss"+suffix, sample)
}

// SelfNack counts a missed transmission opportunity of a buffered unit as a failed transmission.
func (u *TxUnit) SelfNack(now SimTime) (bool, error) {
	if u.status != TxHarqPduBuffered {
		return false, InvariantErrorf("%v acid %d cw %d: self NACK for unit in state %v", u.link, u.acid, u.cw, u.status)
	}
	u.transmissions++
	u.txTime = now
	u.status = TxHarqPduWaiting
	return u.PduFeedback(HarqNackResult)
}

// DropPdu discards a buffered PDU.
func (u *TxUnit) DropPdu() error {
	if u.status != TxHarqPduBuffered {
		return InvariantErrorf("%v acid %d cw %d: dropping pdu of unit in state %v", u.link, u.acid, u.cw, u.status)
	}
	u.reset()
	return nil
}

// ForceDropUnit empties the unit whatever its state. Returns true if a PDU was held.
func (u *TxUnit) ForceDropUnit() bool {
	held := u.status != TxHarqPduEmpty
	u.reset()
	return held
}

func (u *TxUnit) reset() {
	u.pdu = nil
	u.transmissions = 0
	u.status = TxHarqPduEmpty
}
