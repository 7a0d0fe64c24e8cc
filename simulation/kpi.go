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

package simulation

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/stats"
	. "github.com/ransim/ran-ns/types"
)

type KpiManager struct {
	sim           *Simulation
	data          *Kpi
	startCounters NodeCountersStore
	curCounters   NodeCountersStore
	startX2       KpiX2
	flowStart     map[Cid]KpiFlow
	isRunning     bool
}

type NodeCountersStore map[NodeId]NodeCounters

// NewKpiManager creates a new KPI manager/bookkeeper for a particular simulation.
func NewKpiManager() *KpiManager {
	km := &KpiManager{}
	return km
}

// Init inits the KPI manager for the given simulation.
func (km *KpiManager) Init(sim *Simulation) {
	logger.AssertNil(km.sim)
	logger.AssertFalse(km.isRunning)
	km.sim = sim
	km.data = &Kpi{Status: "ok"}
	km.startCounters = NodeCountersStore{}
	km.curCounters = NodeCountersStore{}
	km.flowStart = map[Cid]KpiFlow{}
}

// Start begins a KPI period. Previously recorded signal samples are discarded.
func (km *KpiManager) Start() {
	logger.AssertNotNil(km.sim)
	km.startCounters = km.retrieveNodeCounters()
	km.startX2 = km.retrieveX2()
	km.flowStart = map[Cid]KpiFlow{}
	for cid, f := range km.sim.flows {
		km.flowStart[cid] = KpiFlow{OfferedBytes: f.SentBytes, DeliveredBytes: f.DeliveredBytes}
	}
	km.data = &Kpi{Status: "ok"}
	km.data.TimeUs.StartTimeUs = km.sim.CurTime()
	km.sim.Recorder().Reset()
	km.isRunning = true
	km.SaveDefaultFile()
}

func (km *KpiManager) Stop() {
	if km.isRunning {
		km.curCounters = km.retrieveNodeCounters()
		km.isRunning = false
		km.calculateKpis()
		km.SaveDefaultFile()
	}
}

func (km *KpiManager) IsRunning() bool {
	return km.isRunning
}

// Data returns the KPIs, updated to the current time when a period is running.
func (km *KpiManager) Data() *Kpi {
	if km.isRunning {
		km.curCounters = km.retrieveNodeCounters()
		km.calculateKpis()
	}
	return km.data
}

func (km *KpiManager) SaveDefaultFile() {
	km.SaveFile(km.getDefaultSaveFileName())
}

func (km *KpiManager) SaveFile(fn string) {
	logger.AssertNotNil(km.sim)
	if km.isRunning {
		km.curCounters = km.retrieveNodeCounters()
		km.calculateKpis()
	}

	km.data.FileTime = time.Now().Format(time.RFC3339)
	json, err := json.MarshalIndent(km.data, "", "    ")
	if err != nil {
		logger.Fatalf("Could not marshal KPI JSON data: %v", err)
		return
	}

	err = os.WriteFile(fn, json, 0644)
	if err != nil {
		logger.Errorf("Could not write  KPI JSON file %s: %v", fn, err)
		return
	}
}

func (km *KpiManager) stopNode(nodeid NodeId) {
	// deleted nodes during a KPI period won't be used anymore in final node-specific KPI calculations.
	delete(km.startCounters, nodeid)
	delete(km.curCounters, nodeid)
}

func (km *KpiManager) retrieveNodeCounters() NodeCountersStore {
	if km.sim.IsStopping() {
		return nil
	}
	s := km.sim
	res := NodeCountersStore{}
	for _, id := range s.GetCells() {
		c := s.cells[id]
		mac := NodeCounters{}
		for dir, ctr := range c.counters {
			mac[fmt.Sprintf("mac.rcvdBytes.%s", dir)] = ctr.RcvdBytes
		}
		cmp := NodeCounters{}
		if c.comp != nil {
			cmp["comp.stale"] = uint64(c.comp.StaleCount())
		}
		res[id] = mergeNodeCounters(mac, cmp)
	}
	for _, id := range s.GetUes() {
		ctr := NodeCounters{}
		for _, cid := range s.ues[id].flows {
			f := s.flows[cid]
			ctr.Add(NodeCounters{
				"traffic.sentPackets":    f.SentPackets,
				"traffic.sentBytes":      f.SentBytes,
				"traffic.deliveredBytes": f.DeliveredBytes,
			})
		}
		_, rxs := s.HarqBuffersOf(id)
		for _, rx := range rxs {
			ctr.Add(NodeCounters{"harq.rcvdBytes": rx.TotalRcvdBytes()})
		}
		res[id] = ctr
	}
	return res
}

func (km *KpiManager) retrieveX2() KpiX2 {
	return KpiX2{
		Sent:    km.sim.Bus().Sent(),
		Dropped: km.sim.Bus().Dropped(),
	}
}

func getCountersDiff(curCtr NodeCounters, startCtr NodeCounters) NodeCounters {
	ret := NodeCounters{}
	for k, v := range curCtr {
		var startVal uint64 // if node wasn't known at start, it was created during - use 0 for a counter's start value.
		if sv, ok := startCtr[k]; ok && sv <= v {
			startVal = sv
		}
		ret[k] = v - startVal
	}
	return ret
}

func (km *KpiManager) calculateKpis() {
	s := km.sim

	// time
	km.data.TimeUs.EndTimeUs = s.CurTime()
	km.data.TimeUs.PeriodUs = km.data.TimeUs.EndTimeUs - km.data.TimeUs.StartTimeUs
	km.data.TimeSec.StartTimeSec = float64(km.data.TimeUs.StartTimeUs) / 1e6
	km.data.TimeSec.EndTimeSec = float64(km.data.TimeUs.EndTimeUs) / 1e6
	km.data.TimeSec.PeriodSec = float64(km.data.TimeUs.PeriodUs) / 1e6
	period := km.data.TimeSec.PeriodSec

	perSec := func(v uint64) float64 {
		if period <= 0 {
			return 0
		}
		return float64(v) / period
	}

	// counters
	km.data.Counters = make(map[NodeId]NodeCounters)
	km.data.Cells = make(map[NodeId]KpiCell)
	if km.curCounters == nil {
		km.data.Status = "'counters' and 'cells' not included due to interrupted simulation"
	} else {
		for nid, ctr := range km.curCounters {
			counters := getCountersDiff(ctr, km.startCounters[nid])
			km.data.Counters[nid] = counters
			if _, isCell := s.cells[nid]; !isCell {
				continue
			}
			kc := KpiCell{ThroughputBps: map[string]float64{}, CompStale: counters["comp.stale"]}
			for _, dir := range []Direction{DirDl, DirUl, DirD2d, DirD2dMulti} {
				kc.ThroughputBps[dir.String()] = 8 * perSec(counters[fmt.Sprintf("mac.rcvdBytes.%s", dir)])
			}
			km.data.Cells[nid] = kc
		}
	}

	// flows; a flow added during the period counts from zero
	km.data.Flows = make(map[string]KpiFlow)
	for _, cid := range s.GetFlows() {
		f := s.flows[cid]
		start := km.flowStart[cid]
		offered := f.SentBytes - start.OfferedBytes
		delivered := f.DeliveredBytes - start.DeliveredBytes
		km.data.Flows[fmt.Sprintf("%d:%d", cid.Node, cid.Lcid)] = KpiFlow{
			Dir:            f.cfg.Dir.String(),
			OfferedBytes:   offered,
			DeliveredBytes: delivered,
			OfferedBps:     8 * perSec(offered),
			GoodputBps:     8 * perSec(delivered),
		}
	}

	x2 := km.retrieveX2()
	km.data.X2 = KpiX2{
		Sent:    x2.Sent - km.startX2.Sent,
		Dropped: x2.Dropped - km.startX2.Dropped,
	}

	rec := s.Recorder()
	km.data.Signals = make(map[string]stats.Summary)
	for _, sig := range rec.Signals() {
		km.data.Signals[sig] = rec.Summary(stats.AllNodes, sig)
	}
}

func (km *KpiManager) getDefaultSaveFileName() string {
	return fmt.Sprintf("%s/%d_kpi.json", km.sim.cfg.OutputDir, km.sim.cfg.Id)
}
