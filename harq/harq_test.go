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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/ransim/ran-ns/types"
)

type sample struct {
	node   NodeId
	signal string
	value  float64
}

type recordingEmitter struct {
	samples []sample
}

func (r *recordingEmitter) Emit(node NodeId, signal string, value float64) {
	r.samples = append(r.samples, sample{node, signal, value})
}

func (r *recordingEmitter) count(signal string, value float64) int {
	n := 0
	for _, s := range r.samples {
		if s.signal == signal && s.value == value {
			n++
		}
	}
	return n
}

func (r *recordingEmitter) countSignal(signal string) int {
	n := 0
	for _, s := range r.samples {
		if s.signal == signal {
			n++
		}
	}
	return n
}

const (
	testCell NodeId = 1
	testUe   NodeId = 2
)

func dlLink() Link {
	return Link{Owner: testCell, Peer: testUe, Cell: testCell, Dir: DirDl}
}

func newPdu(id uint64) *Pdu {
	return &Pdu{Id: id, Src: testCell, Dst: testUe, Dir: DirDl, Bytes: 100, Blocks: 3, Created: 0}
}

func TestTxUnitStatusWalk(t *testing.T) {
	em := &recordingEmitter{}
	b := NewTxBuffer(DefaultConfig(), dlLink(), em)
	u := b.Process(0).Unit(0)
	assert.Equal(t, TxHarqPduEmpty, u.Status())

	require.Nil(t, u.InsertPdu(newPdu(1)))
	assert.Equal(t, TxHarqPduBuffered, u.Status())
	assert.Equal(t, 0, u.Transmissions())

	// a never transmitted PDU may be replaced
	require.Nil(t, u.InsertPdu(newPdu(2)))
	assert.Equal(t, uint64(2), u.PduId())

	require.Nil(t, u.MarkSelected())
	assert.Equal(t, TxHarqPduSelected, u.Status())
	assert.ErrorIs(t, u.MarkSelected(), ErrInvariantViolation)
	assert.ErrorIs(t, u.InsertPdu(newPdu(3)), ErrInvariantViolation)

	pdu, err := u.ExtractPdu(1000)
	require.Nil(t, err)
	assert.True(t, pdu.Ndi)
	assert.Equal(t, 1, pdu.TxNumber)
	assert.Equal(t, TxHarqPduWaiting, u.Status())
	assert.Equal(t, SimTime(1000), u.TxTime())

	_, err = u.ExtractPdu(1000)
	assert.ErrorIs(t, err, ErrInvariantViolation)
	assert.ErrorIs(t, u.MarkSelected(), ErrInvariantViolation)

	reset, err := u.PduFeedback(HarqNackResult)
	require.Nil(t, err)
	assert.False(t, reset)
	assert.Equal(t, TxHarqPduBuffered, u.Status())

	// a transmitted PDU may not be replaced
	assert.ErrorIs(t, u.InsertPdu(newPdu(3)), ErrInvariantViolation)
	_, err = u.PduFeedback(HarqAckResult)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestNackThenAck(t *testing.T) {
	em := &recordingEmitter{}
	b := NewTxBuffer(DefaultConfig(), dlLink(), em)
	require.Nil(t, b.InsertPdu(0, 0, newPdu(7)))

	pdus, err := b.SendSelectedDown(1000)
	require.Nil(t, err)
	require.Len(t, pdus, 1)
	require.Nil(t, b.ReceiveHarqFeedback(Feedback{Acid: 0, Cw: 0, PduId: 7, Result: false}))

	ul := b.FirstReadyForRtx()
	assert.Equal(t, UnitList{Acid: 0, Cws: []Codeword{0}}, ul)
	require.Nil(t, b.MarkSelected(ul, MaxCodewords))
	pdus, err = b.SendSelectedDown(2000)
	require.Nil(t, err)
	require.Len(t, pdus, 1)
	assert.False(t, pdus[0].Ndi)
	assert.Equal(t, 3, pdus[0].Blocks)

	u := b.Process(0).Unit(0)
	assert.Equal(t, 2, u.Transmissions())
	require.Nil(t, b.ReceiveHarqFeedback(Feedback{Acid: 0, Cw: 0, PduId: 7, Result: true}))

	assert.Equal(t, TxHarqPduEmpty, u.Status())
	assert.False(t, b.IsActive())
	assert.Equal(t, 1, em.count("harqErrorRate_1st_Dl", 1))
	assert.Equal(t, 1, em.count("harqErrorRate_2nd_Dl", 0))
	assert.Equal(t, 1, em.count("harqTxAttemptsDl", 2))
	assert.Equal(t, 1, em.count("macPacketLossDl", 0))
	assert.Equal(t, 0, em.count("macPacketLossDl", 1))
	assert.Equal(t, 1, em.count("macCellPacketLossDl", 0))
	for _, s := range em.samples {
		if s.signal == "macPacketLossDl" {
			assert.Equal(t, testUe, s.node)
		}
		if s.signal == "macCellPacketLossDl" {
			assert.Equal(t, testCell, s.node)
		}
	}
}

func TestMaxRetransmissionsLoss(t *testing.T) {
	em := &recordingEmitter{}
	cfg := DefaultConfig()
	cfg.MaxHarqRtx = 3
	b := NewTxBuffer(cfg, dlLink(), em)
	require.Nil(t, b.InsertPdu(0, 1, newPdu(9)))

	now := SimTime(0)
	for tx := 1; tx <= cfg.MaxHarqRtx+1; tx++ {
		if tx > 1 {
			require.Nil(t, b.MarkSelected(b.FirstReadyForRtx(), MaxCodewords))
		}
		_, err := b.SendSelectedDown(now)
		require.Nil(t, err)
		require.Nil(t, b.ReceiveHarqFeedback(Feedback{Acid: 0, Cw: 1, PduId: 9, Result: false}))
		now += 8000
	}

	assert.Equal(t, TxHarqPduEmpty, b.Process(0).Unit(1).Status())
	assert.Equal(t, 1, em.count("macPacketLossDl", 1))
	assert.Equal(t, 0, em.count("macPacketLossDl", 0))
	assert.Equal(t, 1, em.count("harqErrorRate_4th_Dl", 1))
	assert.Equal(t, 4, em.countSignal("harqErrorRateDl"))
	assert.Equal(t, 0, em.countSignal("harqTxAttemptsDl"))
	assert.True(t, b.FirstReadyForRtx().IsNone())
}

func TestTxBufferFirstAvailable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumProcesses = 2
	b := NewTxBuffer(cfg, dlLink(), nil)

	assert.Equal(t, UnitList{Acid: 0, Cws: []Codeword{0, 1}}, b.FirstAvailable())
	require.Nil(t, b.InsertPdu(0, 0, newPdu(1)))
	// the selected process keeps receiving new data in the same TTI
	assert.Equal(t, UnitList{Acid: 0, Cws: []Codeword{1}}, b.FirstAvailable())
	assert.ErrorIs(t, b.InsertPdu(1, 0, newPdu(2)), ErrInvariantViolation)
	require.Nil(t, b.InsertPdu(0, 1, newPdu(2)))

	_, err := b.SendSelectedDown(0)
	require.Nil(t, err)
	assert.Equal(t, UnitList{Acid: 1, Cws: []Codeword{0, 1}}, b.FirstAvailable())
	assert.Equal(t, 1, b.NumEmptyProcesses())

	require.Nil(t, b.InsertPdu(1, 0, newPdu(3)))
	_, err = b.SendSelectedDown(0)
	require.Nil(t, err)
	assert.True(t, b.FirstAvailable().IsNone())

	assert.ErrorIs(t, b.ReceiveHarqFeedback(Feedback{Acid: 0, Cw: 0, PduId: 99, Result: true}), ErrInvariantViolation)
	assert.ErrorIs(t, b.ReceiveHarqFeedback(Feedback{Acid: 5, Cw: 0, PduId: 1, Result: true}), ErrInvariantViolation)

	// late feedback of a force-dropped process is ignored
	require.Nil(t, b.ForceDropProcess(1))
	assert.Nil(t, b.ReceiveHarqFeedback(Feedback{Acid: 1, Cw: 0, PduId: 3, Result: true}))
	assert.Equal(t, [][]TxHarqStatus{
		{TxHarqPduWaiting, TxHarqPduWaiting},
		{TxHarqPduEmpty, TxHarqPduEmpty},
	}, b.BufferStatus())
}

func TestTxBufferMergeOnFewerTbs(t *testing.T) {
	b := NewTxBuffer(DefaultConfig(), dlLink(), nil)
	require.Nil(t, b.InsertPdu(0, 0, newPdu(1)))
	require.Nil(t, b.InsertPdu(0, 1, newPdu(2)))
	_, err := b.SendSelectedDown(0)
	require.Nil(t, err)
	require.Nil(t, b.ReceiveHarqFeedback(Feedback{Acid: 0, Cw: 0, PduId: 1}))
	require.Nil(t, b.ReceiveHarqFeedback(Feedback{Acid: 0, Cw: 1, PduId: 2}))

	ul := b.FirstReadyForRtx()
	assert.Equal(t, []Codeword{0, 1}, ul.Cws)
	require.Nil(t, b.MarkSelected(ul, 1))

	p := b.Process(0)
	assert.Equal(t, []Codeword{0}, p.SelectedUnitsIds())
	assert.True(t, p.IsUnitEmpty(1))
	assert.Equal(t, uint(200), p.Unit(0).Pdu().Bytes)
	assert.Equal(t, 6, p.Unit(0).Pdu().Blocks)
}

func TestTxSelfNackAndDrop(t *testing.T) {
	em := &recordingEmitter{}
	cfg := DefaultConfig()
	cfg.MaxHarqRtx = 1
	b := NewTxBuffer(cfg, Link{Owner: testUe, Peer: testCell, Cell: testCell, Dir: DirUl}, em)
	u := b.Process(0).Unit(0)
	require.Nil(t, u.InsertPdu(newPdu(1)))

	reset, err := u.SelfNack(100)
	require.Nil(t, err)
	assert.False(t, reset)
	assert.Equal(t, TxHarqPduBuffered, u.Status())
	assert.Equal(t, 1, em.count("harqErrorRate_1st_Ul", 1))

	require.Nil(t, b.SelfNack(0, 200))
	assert.Equal(t, TxHarqPduEmpty, u.Status())
	assert.Equal(t, 1, em.count("macPacketLossUl", 1))
	assert.Equal(t, 1, em.count("macCellPacketLossUl", 1))

	require.Nil(t, u.InsertPdu(newPdu(2)))
	require.Nil(t, b.DropProcess(0))
	assert.True(t, u.IsEmpty())
	assert.ErrorIs(t, u.DropPdu(), ErrInvariantViolation)
	_, err = u.SelfNack(300)
	assert.ErrorIs(t, err, ErrInvariantViolation)
}

func TestTxMulticastResetAtExtract(t *testing.T) {
	em := &recordingEmitter{}
	link := Link{Owner: 3, Peer: BroadcastNodeId, Cell: testCell, Dir: DirD2dMulti}
	b := NewTxBuffer(DefaultConfig(), link, em)
	assert.Equal(t, HarqD2dMulticast, b.Mode())
	require.Nil(t, b.InsertPdu(0, 0, newPdu(1)))
	pdus, err := b.SendSelectedDown(0)
	require.Nil(t, err)
	require.Len(t, pdus, 1)
	assert.True(t, pdus[0].Ndi)
	assert.False(t, b.IsActive())
	assert.Equal(t, 1, em.count("macPacketLossD2D", 0))
}

func TestRxFeedbackExactlyOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FbEvaluationTimer = 4
	slot := cfg.SlotDuration()
	em := &recordingEmitter{}
	b := NewRxBuffer(cfg, Link{Owner: testUe, Peer: testCell, Cell: testCell, Dir: DirDl}, nil, em)

	pdu := newPdu(5)
	pdu.Ndi = true
	pdu.Acid = 2
	require.Nil(t, b.InsertPdu(pdu, true, 10*slot))
	assert.ErrorIs(t, b.InsertPdu(pdu, true, 10*slot), ErrInvariantViolation)

	var total []Feedback
	for tti := SimTime(10); tti < 20; tti++ {
		fbs, err := b.SendFeedback(tti * slot)
		require.Nil(t, err)
		for range fbs {
			assert.True(t, tti*slot-10*slot >= slot*SimTime(cfg.FbEvaluationTimer-1))
		}
		total = append(total, fbs...)
	}
	require.Len(t, total, 1)
	assert.Equal(t, Feedback{Src: testUe, Dst: testCell, Dir: DirDl, Acid: 2, Cw: 0, PduId: 5, Result: true}, total[0])

	pdus, fbs, err := b.ExtractCorrectPdus(20 * slot)
	require.Nil(t, err)
	assert.Empty(t, fbs)
	require.Len(t, pdus, 1)
	assert.False(t, b.IsActive())
	assert.Equal(t, uint64(100), b.TotalRcvdBytes())
	assert.Equal(t, 1, em.countSignal("macDelayDl"))
	assert.Equal(t, 1, em.countSignal("macThroughputDl"))
	assert.Equal(t, 1, em.countSignal("macCellThroughputDl"))
}

func TestRxCorruptedRetransmission(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHarqRtx = 1
	b := NewRxBuffer(cfg, Link{Owner: testCell, Peer: testUe, Cell: testCell, Dir: DirUl}, nil, nil)
	pdu := newPdu(1)
	pdu.Ndi = true
	require.Nil(t, b.InsertPdu(pdu, false, 0))
	fbs, err := b.SendFeedback(10000)
	require.Nil(t, err)
	require.Len(t, fbs, 1)
	assert.False(t, fbs[0].Result)
	assert.Equal(t, []UnitList{{Acid: 0, Cws: []Codeword{0}}}, b.CorruptedUnits())

	// new data is refused while a corrupted PDU waits for its retransmission
	assert.ErrorIs(t, b.InsertPdu(pdu, false, 10000), ErrInvariantViolation)
	rtx := *pdu
	rtx.Ndi = false
	require.Nil(t, b.InsertPdu(&rtx, false, 10000))
	fbs, err = b.SendFeedback(20000)
	require.Nil(t, err)
	require.Len(t, fbs, 1)
	// second failure exhausts the retransmissions and frees the unit
	assert.False(t, b.IsActive())

	require.Nil(t, b.InsertPdu(pdu, false, 30000))
	_, err = b.SendFeedback(40000)
	require.Nil(t, err)
	assert.Equal(t, 1, b.PurgeCorruptedPdus())
	assert.Equal(t, UnitList{Acid: 0, Cws: []Codeword{0, 1}}, b.FirstAvailable())
}

func TestRxMulticastNoFeedback(t *testing.T) {
	b := NewRxBuffer(DefaultConfig(), Link{Owner: 4, Peer: 3, Cell: testCell, Dir: DirD2dMulti}, nil, nil)
	assert.True(t, b.IsMulticast())
	pdu := newPdu(1)
	pdu.Ndi = true
	require.Nil(t, b.InsertPdu(pdu, true, 0))
	pdus, fbs, err := b.ExtractCorrectPdus(10000)
	require.Nil(t, err)
	assert.Empty(t, fbs)
	assert.Len(t, pdus, 1)
}

func TestRxExtractInArrivalOrder(t *testing.T) {
	b := NewRxBuffer(DefaultConfig(), Link{Owner: testUe, Peer: testCell, Cell: testCell, Dir: DirDl}, nil, nil)

	first := newPdu(1)
	first.Ndi = true
	first.Acid = 3
	second := newPdu(2)
	second.Ndi = true
	second.Acid = 0
	third := newPdu(3)
	third.Ndi = true
	third.Acid = 0
	third.Cw = 1
	fourth := newPdu(4)
	fourth.Ndi = true
	fourth.Acid = 1

	require.Nil(t, b.InsertPdu(first, true, 0))
	require.Nil(t, b.InsertPdu(second, true, 1000))
	// same TTI: insertion order decides
	require.Nil(t, b.InsertPdu(fourth, true, 2000))
	require.Nil(t, b.InsertPdu(third, true, 2000))

	pdus, _, err := b.ExtractCorrectPdus(10000)
	require.Nil(t, err)
	var ids []uint64
	for _, p := range pdus {
		ids = append(ids, p.Id)
	}
	assert.Equal(t, []uint64{1, 2, 4, 3}, ids)
}
