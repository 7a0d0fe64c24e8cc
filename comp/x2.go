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
	"container/heap"

	"github.com/pkg/errors"

	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/prng"
	. "github.com/ransim/ran-ns/types"
)

// Request is the client information element: the blocks the client would use this TTI.
type Request struct {
	NumBlocks int
}

// Reply is the coordinator information element: per band, whether the client may use it.
type Reply struct {
	AllowedBlocks []RbStatus
}

// Message is one X2 Comp message. Exactly one of Request and Reply is set.
type Message struct {
	Src     NodeId
	Dst     NodeId
	Request *Request
	Reply   *Reply
}

// Handler receives messages delivered by the bus.
type Handler interface {
	HandleX2(msg *Message, now SimTime) error
}

type x2Event struct {
	deliverAt SimTime
	seq       uint64
	msg       *Message
}

type x2Queue []*x2Event

func (q x2Queue) Len() int {
	return len(q)
}

func (q x2Queue) Less(i, j int) bool {
	if q[i].deliverAt != q[j].deliverAt {
		return q[i].deliverAt < q[j].deliverAt
	}
	return q[i].seq < q[j].seq
}

func (q x2Queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
}

func (q *x2Queue) Push(x interface{}) {
	*q = append(*q, x.(*x2Event))
}

func (q *x2Queue) Pop() (elem interface{}) {
	n := len(*q)
	elem = (*q)[n-1]
	*q = (*q)[:n-1]
	return
}

// BusConfig sets the behaviour of the X2 links between Comp managers.
type BusConfig struct {
	LatencyTtis     int
	DropProbability float64
	Tti             SimTime
}

// Bus is an in-process X2 network. A message sent at time t is delivered by the first Advance
// called with a time at or after t + latency. The simulation advances the bus at the start of each
// TTI, so even a zero latency link delivers in the TTI after the send.
type Bus struct {
	cfg      BusConfig
	q        x2Queue
	seq      uint64
	handlers map[NodeId]Handler
	sent     uint64
	dropped  uint64
}

func NewBus(cfg BusConfig) *Bus {
	if cfg.Tti == 0 {
		cfg.Tti = DefaultTti
	}
	b := &Bus{
		cfg:      cfg,
		q:        x2Queue{},
		handlers: map[NodeId]Handler{},
	}
	heap.Init(&b.q)
	return b
}

func (b *Bus) Config() BusConfig {
	return b.cfg
}

// SetLink changes latency and drop probability for messages sent from now on.
func (b *Bus) SetLink(latencyTtis int, dropProbability float64) {
	b.cfg.LatencyTtis = latencyTtis
	b.cfg.DropProbability = dropProbability
}

func (b *Bus) Register(id NodeId, h Handler) {
	logger.AssertNil(b.handlers[id])
	b.handlers[id] = h
}

func (b *Bus) Unregister(id NodeId) {
	delete(b.handlers, id)
}

// Send queues a message. Returns false if the link dropped it.
func (b *Bus) Send(msg *Message, now SimTime) bool {
	b.sent++
	if b.cfg.DropProbability > 0 && prng.NewCompLinkRandom() < b.cfg.DropProbability {
		b.dropped++
		logger.Debugf("X2 %d->%d: message dropped", msg.Src, msg.Dst)
		return false
	}
	b.seq++
	heap.Push(&b.q, &x2Event{
		deliverAt: now + SimTime(b.cfg.LatencyTtis)*b.cfg.Tti,
		seq:       b.seq,
		msg:       msg,
	})
	return true
}

// Advance delivers every queued message that is due at now, in send order.
func (b *Bus) Advance(now SimTime) error {
	for b.q.Len() > 0 && b.q[0].deliverAt <= now {
		e := heap.Pop(&b.q).(*x2Event)
		h := b.handlers[e.msg.Dst]
		if h == nil {
			logger.Debugf("X2 %d->%d: no such node, message discarded", e.msg.Src, e.msg.Dst)
			continue
		}
		if err := h.HandleX2(e.msg, now); err != nil {
			return errors.Wrapf(err, "X2 %d->%d", e.msg.Src, e.msg.Dst)
		}
	}
	return nil
}

// Pending returns the number of messages in flight.
func (b *Bus) Pending() int {
	return b.q.Len()
}

func (b *Bus) Sent() uint64 {
	return b.sent
}

func (b *Bus) Dropped() uint64 {
	return b.dropped
}
