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
	"golang.org/x/exp/slices"

	"github.com/ransim/ran-ns/logger"
	. "github.com/ransim/ran-ns/types"
)

// CellCounter accumulates the bytes received in one cell for the cell throughput statistic.
type CellCounter struct {
	RcvdBytes uint64
}

// RxBuffer is the receiver side HARQ buffer of one link. D2D receivers keep one per source.
type RxBuffer struct {
	link           Link
	warmup         SimTime
	processes      []*RxProcess
	totalRcvdBytes uint64
	nextSeq        uint64
	cell           *CellCounter
	emitter        Emitter
}

// NewRxBuffer creates the Rx buffer the owner uses for PDUs from its peer. Buffers of the same
// cell share the cell counter; nil gives the buffer its own.
func NewRxBuffer(cfg Config, link Link, cell *CellCounter, em Emitter) *RxBuffer {
	if em == nil {
		em = nopEmitter{}
	}
	if cell == nil {
		cell = &CellCounter{}
	}
	b := &RxBuffer{
		link:      link,
		warmup:    cfg.Warmup,
		processes: make([]*RxProcess, cfg.NumProcesses),
		cell:      cell,
		emitter:   em,
	}
	for i := range b.processes {
		b.processes[i] = newRxProcess(cfg, i)
		if b.IsMulticast() {
			// no retransmissions follow a failed multicast PDU
			b.processes[i].maxHarqRtx = 0
		}
	}
	return b
}

func (b *RxBuffer) Link() Link {
	return b.link
}

// IsMulticast reports whether the buffer receives D2D multicast, which is never acknowledged.
func (b *RxBuffer) IsMulticast() bool {
	return b.link.Mode() == HarqD2dMulticast
}

func (b *RxBuffer) NumProcesses() int {
	return len(b.processes)
}

func (b *RxBuffer) Process(acid Acid) *RxProcess {
	if acid < 0 || acid >= len(b.processes) {
		return nil
	}
	return b.processes[acid]
}

func (b *RxBuffer) TotalRcvdBytes() uint64 {
	return b.totalRcvdBytes
}

// InsertPdu stores a received PDU in the process and codeword it was sent on.
func (b *RxBuffer) InsertPdu(pdu *Pdu, decoded bool, now SimTime) error {
	p := b.Process(pdu.Acid)
	if p == nil || pdu.Cw < 0 || pdu.Cw >= MaxCodewords {
		return InvariantErrorf("%v: pdu %d on acid %d cw %d out of bounds", b.link, pdu.Id, pdu.Acid, pdu.Cw)
	}
	if err := p.InsertPdu(pdu.Cw, pdu, decoded, now); err != nil {
		return err
	}
	p.units[pdu.Cw].seq = b.nextSeq
	b.nextSeq++
	logger.NodeLogf(b.link.Owner, logger.TraceLevel, "pdu %d from %d inserted into rx acid %d cw %d",
		pdu.Id, b.link.Peer, pdu.Acid, pdu.Cw)
	return nil
}

// SendFeedback concludes every evaluated unit and returns the feedback to send to the
// transmitter. Multicast buffers conclude evaluations but return no feedback.
func (b *RxBuffer) SendFeedback(now SimTime) ([]Feedback, error) {
	var fbs []Feedback
	for _, p := range b.processes {
		for cw := 0; cw < MaxCodewords; cw++ {
			if !p.IsEvaluated(cw, now) {
				continue
			}
			fb, err := p.CreateFeedback(cw)
			if err != nil {
				return fbs, err
			}
			if b.IsMulticast() {
				continue
			}
			logger.NodeLogf(b.link.Owner, logger.TraceLevel, "acid %d cw %d feedback %v to %d",
				fb.Acid, fb.Cw, fb.Ack(), fb.Dst)
			fbs = append(fbs, fb)
		}
	}
	return fbs, nil
}

type correctUnit struct {
	p      *RxProcess
	cw     Codeword
	rxTime SimTime
	seq    uint64
}

// ExtractCorrectPdus sends the pending feedback, then drains the correctly decoded PDUs in
// arrival order and updates the delay and throughput statistics.
func (b *RxBuffer) ExtractCorrectPdus(now SimTime) ([]*Pdu, []Feedback, error) {
	fbs, err := b.SendFeedback(now)
	if err != nil {
		return nil, fbs, err
	}

	var correct []correctUnit
	for _, p := range b.processes {
		for cw := 0; cw < MaxCodewords; cw++ {
			if p.IsCorrect(cw) {
				u := &p.units[cw]
				correct = append(correct, correctUnit{p: p, cw: cw, rxTime: u.rxTime, seq: u.seq})
			}
		}
	}
	slices.SortFunc(correct, func(x, y correctUnit) int {
		switch {
		case x.rxTime < y.rxTime:
			return -1
		case x.rxTime > y.rxTime:
			return 1
		case x.seq < y.seq:
			return -1
		case x.seq > y.seq:
			return 1
		default:
			return 0
		}
	})

	ue := b.link.Ue()
	suffix := b.link.Dir.SignalSuffix()
	var pdus []*Pdu
	for _, c := range correct {
		pdu, err := c.p.ExtractPdu(c.cw)
		if err != nil {
			return pdus, fbs, err
		}
		b.emitter.Emit(ue, "macDelay"+suffix, float64(now-pdu.Created)/1e6)
		b.totalRcvdBytes += uint64(pdu.Bytes)
		b.cell.RcvdBytes += uint64(pdu.Bytes)
		if now > b.warmup {
			den := float64(now-b.warmup) / 1e6
			b.emitter.Emit(ue, "macThroughput"+suffix, float64(b.totalRcvdBytes)/den)
			b.emitter.Emit(b.link.Cell, "macCellThroughput"+suffix, float64(b.cell.RcvdBytes)/den)
		}
		pdus = append(pdus, pdu)
	}
	return pdus, fbs, nil
}

// PurgeCorruptedPdus frees every corrupted unit and returns how many were purged.
func (b *RxBuffer) PurgeCorruptedPdus() int {
	n := 0
	for _, p := range b.processes {
		for cw := 0; cw < MaxCodewords; cw++ {
			if p.UnitStatus(cw) == RxHarqPduCorrupted {
				p.resetCodeword(cw)
				n++
			}
		}
	}
	return n
}

// CorruptedUnits lists, per process, the codewords waiting for a retransmission.
func (b *RxBuffer) CorruptedUnits() []UnitList {
	var res []UnitList
	for _, p := range b.processes {
		var cws []Codeword
		for cw := 0; cw < MaxCodewords; cw++ {
			if p.UnitStatus(cw) == RxHarqPduCorrupted {
				cws = append(cws, cw)
			}
		}
		if len(cws) > 0 {
			res = append(res, UnitList{Acid: p.Acid(), Cws: cws})
		}
	}
	return res
}

func (b *RxBuffer) FirstAvailable() UnitList {
	for _, p := range b.processes {
		if p.IsEmpty() {
			return UnitList{Acid: p.Acid(), Cws: p.EmptyUnitsIds()}
		}
	}
	return noUnits()
}

func (b *RxBuffer) EmptyUnits(acid Acid) UnitList {
	p := b.Process(acid)
	if p == nil {
		return noUnits()
	}
	return UnitList{Acid: acid, Cws: p.EmptyUnitsIds()}
}

func (b *RxBuffer) BufferStatus() [][]RxHarqStatus {
	bs := make([][]RxHarqStatus, len(b.processes))
	for i, p := range b.processes {
		bs[i] = p.Status()
	}
	return bs
}

func (b *RxBuffer) IsActive() bool {
	for _, p := range b.processes {
		if !p.IsEmpty() {
			return true
		}
	}
	return false
}
