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
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ransim/ran-ns/comp"
	"github.com/ransim/ran-ns/logger"
	. "github.com/ransim/ran-ns/types"
)

// ExportScenario exports the run parameters, nodes and traffic of the simulation to a YAML-friendly
// object.
func (s *Simulation) ExportScenario() *YamlConfigFile {
	cfg := s.cfg
	discipline := cfg.Scheduler.Discipline.String()
	y := &YamlConfigFile{
		NetworkConfig: YamlNetworkConfig{}, // when exporting, always a 0-offset is used.
		HarqConfig: &YamlHarqConfig{
			Processes:  &cfg.Harq.NumProcesses,
			MaxRtx:     &cfg.Harq.MaxHarqRtx,
			FbTimer:    &cfg.Harq.FbEvaluationTimer,
			Numerology: &cfg.Harq.Numerology,
		},
		SchedulerConfig: &YamlSchedulerConfig{
			Discipline:    &discipline,
			PfAlpha:       &cfg.Scheduler.PfAlpha,
			PfEpsilon:     &cfg.Scheduler.PfEpsilon,
			Codewords:     &cfg.Scheduler.Codewords,
			Bands:         &cfg.NumBands,
			BlocksPerBand: &cfg.BlocksPerBand,
		},
		CompConfig: &YamlCompLinkConfig{
			LatencyTtis:     cfg.Bus.LatencyTtis,
			DropProbability: cfg.Bus.DropProbability,
		},
	}

	for _, id := range s.GetCells() {
		c := s.cells[id]
		yc := YamlCellConfig{ID: id, Position: [2]float64{c.X, c.Y}}
		if c.comp != nil {
			cc := c.comp.Config()
			yc.Comp = &YamlCellComp{
				Type:        cc.Type.String(),
				Coordinator: cc.Coordinator,
				Clients:     cc.Clients,
				PeriodMs:    float64(cc.CoordinationPeriod) / 1000,
			}
		}
		y.CellsList = append(y.CellsList, yc)
	}

	for _, id := range s.GetUes() {
		ue := s.ues[id]
		yu := YamlUeConfig{
			ID:       id,
			Cell:     ue.Cell,
			Position: &[2]float64{ue.X, ue.Y},
			D2d:      ue.cfg.D2dCapable,
		}
		if ue.HasFixedCqi() {
			cqi := ue.cfg.Cqi
			yu.Cqi = &cqi
		}
		y.UesList = append(y.UesList, yu)
	}

	groups := maps.Keys(s.groups)
	slices.Sort(groups)
	for _, gid := range groups {
		y.D2dGroupsList = append(y.D2dGroupsList, YamlD2dGroupConfig{ID: gid, Members: s.groups[gid]})
	}

	for _, cid := range s.GetFlows() {
		fc := s.flows[cid].cfg
		lcid := int(fc.Lcid)
		yf := YamlFlowConfig{
			Ue:         fc.Ue,
			Lcid:       &lcid,
			Dir:        fc.Dir.String(),
			Class:      fc.Class.String(),
			Model:      fc.Model.String(),
			Rate:       fc.Rate,
			PacketSize: fc.PacketSize,
			StartMs:    float64(fc.Start) / 1000,
			StopMs:     float64(fc.Stop) / 1000,
		}
		if fc.Dir == DirD2d || fc.Dir == DirD2dMulti {
			yf.Peer = fc.Peer
		}
		y.FlowsList = append(y.FlowsList, yf)
	}
	return y
}

// ImportScenario adds the cells, UEs, D2D groups and flows of a scenario. Node ids and positions
// are shifted by the network offsets. Import continues past errors and reports them at the end.
func (s *Simulation) ImportScenario(y *YamlConfigFile) error {
	allOk := true
	warn := func(err error) {
		logger.Warnf("Warn: %s", err)
		allOk = false // continue trying to import remaining entries
	}
	posOffset := y.NetworkConfig.Position
	idOffset := 0
	if y.NetworkConfig.BaseId != nil {
		idOffset = *y.NetworkConfig.BaseId
	}
	shift := func(id NodeId) NodeId {
		if id <= 0 {
			return id
		}
		return id + idOffset
	}

	for _, yc := range y.CellsList {
		cfg := DefaultCellConfig()
		cfg.ID = shift(yc.ID)
		cfg.X = yc.Position[0] + posOffset[0]
		cfg.Y = yc.Position[1] + posOffset[1]
		if yc.Comp != nil {
			cc, err := yc.Comp.compConfig(shift)
			if err != nil {
				warn(err)
				continue
			}
			cfg.Comp = cc
		}
		if _, err := s.AddCell(cfg); err != nil {
			warn(err)
		}
	}

	for _, yu := range y.UesList {
		cfg := DefaultNodeConfig()
		cfg.ID = shift(yu.ID)
		cfg.Cell = shift(yu.Cell)
		if yu.Position != nil {
			cfg.IsAutoPlaced = false
			cfg.X = yu.Position[0] + posOffset[0]
			cfg.Y = yu.Position[1] + posOffset[1]
		}
		if yu.Cqi != nil {
			cfg.Cqi = *yu.Cqi
		}
		cfg.D2dCapable = yu.D2d
		if _, err := s.AddUe(&cfg); err != nil {
			warn(err)
		}
	}

	for _, yg := range y.D2dGroupsList {
		members := make([]NodeId, len(yg.Members))
		for i, m := range yg.Members {
			members[i] = shift(m)
		}
		if _, err := s.AddD2dGroup(shift(yg.ID), members); err != nil {
			warn(err)
		}
	}

	for _, yf := range y.FlowsList {
		cfg, err := yf.flowConfig(shift)
		if err == nil {
			_, err = s.AddFlow(cfg)
		}
		if err != nil {
			warn(err)
		}
	}

	if !allOk {
		return fmt.Errorf("not all scenario entries could be imported - see error log above")
	}
	return nil
}

func (yc *YamlCellComp) compConfig(shift func(NodeId) NodeId) (*comp.Config, error) {
	cc := comp.DefaultConfig()
	t, err := ParseCompNodeType(yc.Type)
	if err != nil {
		return nil, err
	}
	cc.Type = t
	cc.Coordinator = shift(yc.Coordinator)
	for _, c := range yc.Clients {
		cc.Clients = append(cc.Clients, shift(c))
	}
	if yc.PeriodMs > 0 {
		cc.CoordinationPeriod = SimTime(yc.PeriodMs * 1000)
	}
	return &cc, nil
}

func (yf *YamlFlowConfig) flowConfig(shift func(NodeId) NodeId) (FlowConfig, error) {
	cfg := DefaultFlowConfig(shift(yf.Ue))
	var err error
	if cfg.Dir, err = ParseDirection(yf.Dir); err != nil {
		return cfg, err
	}
	if yf.Lcid != nil {
		cfg.Lcid = *yf.Lcid
	}
	cfg.Peer = shift(yf.Peer)
	if len(yf.Class) > 0 {
		if cfg.Class, err = ParseTrafficClass(yf.Class); err != nil {
			return cfg, err
		}
	}
	if cfg.Model, err = ParseTrafficModel(yf.Model); err != nil {
		return cfg, err
	}
	if yf.Rate > 0 {
		cfg.Rate = yf.Rate
	}
	if yf.PacketSize > 0 {
		cfg.PacketSize = yf.PacketSize
	}
	cfg.Start = SimTime(yf.StartMs * 1000)
	cfg.Stop = SimTime(yf.StopMs * 1000)
	return cfg, nil
}
