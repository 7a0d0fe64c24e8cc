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

package conn

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	. "github.com/ransim/ran-ns/types"
)

// Connection is one flow registered at a MAC.
type Connection struct {
	Cid    Cid
	Dir    Direction
	Class  TrafficClass
	Peer   NodeId // D2D destination (or multicast group); the cell for DL/UL
	Buffer VirtualBuffer
}

// Registry holds the connections of one MAC and which of them have pending data.
type Registry struct {
	conns  map[Cid]*Connection
	active map[Cid]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[Cid]*Connection),
		active: make(map[Cid]struct{}),
	}
}

// AddConnection registers a new flow.
func (r *Registry) AddConnection(cid Cid, dir Direction, class TrafficClass, peer NodeId) (*Connection, error) {
	if _, ok := r.conns[cid]; ok {
		return nil, errors.Errorf("connection %v already exists", cid)
	}
	c := &Connection{
		Cid:   cid,
		Dir:   dir,
		Class: class,
		Peer:  peer,
	}
	r.conns[cid] = c
	return c, nil
}

// RemoveConnection forgets a flow and its pending data.
func (r *Registry) RemoveConnection(cid Cid) {
	delete(r.conns, cid)
	delete(r.active, cid)
}

// RemoveNode forgets every flow of a node.
func (r *Registry) RemoveNode(node NodeId) {
	for _, cid := range maps.Keys(r.conns) {
		if cid.Node == node {
			r.RemoveConnection(cid)
		}
	}
}

func (r *Registry) Get(cid Cid) *Connection {
	return r.conns[cid]
}

// Cids lists all registered connections in Cid order.
func (r *Registry) Cids() []Cid {
	cids := maps.Keys(r.conns)
	slices.SortFunc(cids, CompareCids)
	return cids
}

// NodeCids lists the connections of one node in Cid order.
func (r *Registry) NodeCids(node NodeId) []Cid {
	var cids []Cid
	for cid := range r.conns {
		if cid.Node == node {
			cids = append(cids, cid)
		}
	}
	slices.SortFunc(cids, CompareCids)
	return cids
}

// Enqueue adds an SDU to the virtual buffer of a connection and activates it.
func (r *Registry) Enqueue(cid Cid, size uint, now SimTime) error {
	c, ok := r.conns[cid]
	if !ok {
		return errors.Errorf("enqueue on unknown connection %v", cid)
	}
	c.Buffer.Push(size, now)
	if !c.Buffer.IsEmpty() {
		r.active[cid] = struct{}{}
	}
	return nil
}

// Consume drains bytes from a connection's virtual buffer; the connection leaves the active set
// when its buffer becomes empty.
func (r *Registry) Consume(cid Cid, bytes uint) uint {
	c, ok := r.conns[cid]
	if !ok {
		return 0
	}
	done := c.Buffer.Consume(bytes)
	if c.Buffer.IsEmpty() {
		delete(r.active, cid)
	}
	return done
}

// Occupancy returns the pending bytes of a connection.
func (r *Registry) Occupancy(cid Cid) uint {
	if c, ok := r.conns[cid]; ok {
		return c.Buffer.Occupancy()
	}
	return 0
}

func (r *Registry) IsActive(cid Cid) bool {
	_, ok := r.active[cid]
	return ok
}

// Deactivate removes a connection from the active set without touching its buffer.
func (r *Registry) Deactivate(cid Cid) {
	delete(r.active, cid)
}

// ActiveSet returns the active connections of the given directions in Cid order.
func (r *Registry) ActiveSet(dirs ...Direction) []Cid {
	var res []Cid
	for cid := range r.active {
		c := r.conns[cid]
		if len(dirs) == 0 || slices.Contains(dirs, c.Dir) {
			res = append(res, cid)
		}
	}
	slices.SortFunc(res, CompareCids)
	return res
}
