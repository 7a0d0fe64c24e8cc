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
	"github.com/ransim/ran-ns/bandmap"
	"github.com/ransim/ran-ns/harq"
	"github.com/ransim/ran-ns/logger"
	. "github.com/ransim/ran-ns/types"
)

type bandBlocks struct {
	band   Band
	blocks int
	bytes  uint
}

// rtxschedule grants retransmissions before any new data. Downlink and D2D retransmissions come
// from the senders' Tx buffers, uplink ones from the cell's corrupted Rx units. Returns true when
// no blocks are left.
func (s *Scheduler) rtxschedule() (bool, error) {
	for _, dir := range s.dirs {
		var err error
		if dir == DirUl {
			err = s.rtxscheduleUl()
		} else {
			err = s.rtxscheduleTx(dir)
		}
		if err != nil {
			return false, err
		}
	}
	return s.usableAvailableBlocks() == 0, nil
}

func (s *Scheduler) rtxscheduleTx(dir Direction) error {
	for _, buf := range s.ctx.TxBuffers(dir) {
		link := buf.Link()
		node := link.Ue()
		if !s.ctx.IsAttached(node) {
			continue
		}
		free := s.cfg.Codewords - s.alloc.AllocatedCws(node)
		if free <= 0 {
			continue
		}
		ul := buf.FirstReadyForRtx()
		if ul.IsNone() {
			continue
		}
		proc := buf.Process(ul.Acid)
		if len(ul.Cws) > free {
			// the ready codewords are merged into one transport block of their joint shape
			blocks := 0
			var bytes uint
			for _, cw := range ul.Cws {
				blocks += proc.Unit(cw).Pdu().Blocks
				bytes += proc.Unit(cw).Pdu().Bytes
			}
			ok, err := s.schedulePerAcidRtx(node, link, ul.Cws[0], ul.Acid, blocks, bytes)
			if err != nil {
				return err
			}
			if ok {
				if err = buf.MarkSelected(ul, free); err != nil {
					return err
				}
			}
			continue
		}
		for _, cw := range ul.Cws {
			if s.alloc.AllocatedCws(node) >= s.cfg.Codewords {
				break
			}
			pdu := proc.Unit(cw).Pdu()
			ok, err := s.schedulePerAcidRtx(node, link, cw, ul.Acid, pdu.Blocks, pdu.Bytes)
			if err != nil {
				return err
			}
			if ok {
				if err = buf.MarkSelected(harq.UnitList{Acid: ul.Acid, Cws: []Codeword{cw}}, MaxCodewords); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Scheduler) rtxscheduleUl() error {
	for _, rx := range s.ctx.RxBuffers(DirUl) {
		node := rx.Link().Peer
		if !s.ctx.IsAttached(node) {
			continue
		}
		tx := s.ctx.TxBuffer(node, s.cell, DirUl)
		if tx == nil {
			continue
		}
		for _, ul := range rx.CorruptedUnits() {
			for _, cw := range ul.Cws {
				if s.alloc.AllocatedCws(node) >= s.cfg.Codewords {
					break
				}
				unit := tx.Process(ul.Acid).Unit(cw)
				if !unit.IsReady() {
					continue
				}
				pdu := rx.Process(ul.Acid).UnitPdu(cw)
				ok, err := s.schedulePerAcidRtx(node, tx.Link(), cw, ul.Acid, pdu.Blocks, pdu.Bytes)
				if err != nil {
					return err
				}
				if ok {
					if err = tx.MarkSelected(harq.UnitList{Acid: ul.Acid, Cws: []Codeword{cw}}, MaxCodewords); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

// schedulePerAcidRtx grants exactly the given number of blocks to a retransmission. If the usable
// bands cannot provide them nothing is allocated and false is returned; the unit stays pending.
func (s *Scheduler) schedulePerAcidRtx(node NodeId, link harq.Link, cw Codeword, acid Acid, blocks int, bytes uint) (bool, error) {
	if blocks <= 0 {
		return false, InvariantErrorf("node %d acid %d cw %d: retransmission of pdu without blocks", node, acid, cw)
	}
	limCw := cw
	if limCw >= s.cfg.Codewords {
		limCw = 0
	}
	need := blocks
	var plan []bandBlocks
	for _, bl := range s.bandLimit {
		lim := bl.Limit[limCw]
		if lim == bandmap.LimitBlocked {
			continue
		}
		avail := s.alloc.AvailableBlocks(bl.Band)
		if lim >= 0 && lim < avail {
			avail = lim
		}
		if avail <= 0 {
			continue
		}
		take := avail
		if need < take {
			take = need
		}
		plan = append(plan, bandBlocks{band: bl.Band, blocks: take})
		need -= take
		if need == 0 {
			break
		}
	}
	if need > 0 {
		logger.NodeLogf(node, logger.DebugLevel, "acid %d cw %d: rtx needs %d blocks, %d missing", acid, cw, blocks, need)
		return false, nil
	}

	// spread the PDU bytes over the planned blocks, the last band takes the rounding remainder
	var bands []Band
	left := bytes
	for i, p := range plan {
		share := bytes * uint(p.blocks) / uint(blocks)
		if i == len(plan)-1 {
			share = left
		}
		left -= share
		if err := s.alloc.AddBlocks(node, p.band, p.blocks, share); err != nil {
			return false, err
		}
		bands = append(bands, p.band)
	}
	s.alloc.IncAllocatedCws(node)

	cid := Cid{Node: node}
	if pdu := s.pduOf(link, acid, cw); pdu != nil {
		cid = pdu.Cid
	}
	s.schedule = append(s.schedule, ScheduleEntry{
		Cid:      cid,
		Node:     node,
		Dir:      link.Dir,
		Peer:     link.Peer,
		Codeword: cw,
		Acid:     acid,
		Bands:    bands,
		Blocks:   blocks,
		Bytes:    bytes,
		Rtx:      true,
	})
	logger.NodeLogf(node, logger.DebugLevel, "acid %d cw %d: rtx granted %d blocks on bands %v", acid, cw, blocks, bands)
	return true, nil
}

func (s *Scheduler) pduOf(link harq.Link, acid Acid, cw Codeword) *harq.Pdu {
	buf := s.ctx.TxBuffer(link.Owner, link.Peer, link.Dir)
	if buf == nil || buf.Process(acid) == nil {
		return nil
	}
	return buf.Process(acid).Unit(cw).Pdu()
}
