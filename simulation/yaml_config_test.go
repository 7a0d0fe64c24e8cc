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
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	. "github.com/ransim/ran-ns/types"
)

const testScenario = `
network:
  pos-shift: [0, 0]
  base-id: 100
harq:
  processes: 4
  max-rtx: 2
  numerology: 1
scheduler:
  discipline: pf
  pf-alpha: 0.8
  bands: 6
comp:
  latency: 3
  drop: 0.1
cells:
  - id: 1
    pos: [0, 0]
    comp: {type: client-coordinator, clients: [2], period-ms: 2}
  - id: 2
    pos: [400, 0]
    comp: {type: client, coordinator: 1}
ues:
  - id: 3
    cell: 1
    d2d: true
d2d:
  - id: 9
    members: [3]
`

func TestApplyRunConfig(t *testing.T) {
	y, err := ParseYamlConfig([]byte(testScenario))
	assert.Nil(t, err)

	cfg := DefaultConfig()
	assert.Nil(t, y.ApplyRunConfig(cfg))
	assert.Equal(t, 4, cfg.Harq.NumProcesses)
	assert.Equal(t, 2, cfg.Harq.MaxHarqRtx)
	assert.Equal(t, 1, cfg.Harq.Numerology)
	assert.Equal(t, 1, cfg.Scheduler.Numerology)
	assert.Equal(t, SimTime(500), cfg.Tti())
	assert.Equal(t, SimTime(500), cfg.Bus.Tti)
	assert.Equal(t, SchedPf, cfg.Scheduler.Discipline)
	assert.Equal(t, 0.8, cfg.Scheduler.PfAlpha)
	assert.Equal(t, 6, cfg.NumBands)
	assert.Equal(t, DefaultBlocksPerBand, cfg.BlocksPerBand)
	assert.Equal(t, 3, cfg.Bus.LatencyTtis)
	assert.Equal(t, 0.1, cfg.Bus.DropProbability)

	assert.Equal(t, 100, *y.NetworkConfig.BaseId)
	assert.Len(t, y.CellsList, 2)
	assert.Equal(t, []NodeId{2}, y.CellsList[0].Comp.Clients)
	assert.Equal(t, 2.0, y.CellsList[0].Comp.PeriodMs)
	assert.True(t, y.UesList[0].D2d)
	assert.Nil(t, y.UesList[0].Position)
	assert.Equal(t, []NodeId{3}, y.D2dGroupsList[0].Members)
}

func TestApplyRunConfigBadDiscipline(t *testing.T) {
	y, err := ParseYamlConfig([]byte("scheduler: {discipline: fifo}\n"))
	assert.Nil(t, err)
	assert.NotNil(t, y.ApplyRunConfig(DefaultConfig()))

	_, err = ParseYamlConfig([]byte("cells: 5\n"))
	assert.NotNil(t, err)
}

func TestImportScenarioBaseId(t *testing.T) {
	y, err := ParseYamlConfig([]byte(testScenario))
	assert.Nil(t, err)
	s := newTestSimulation(t)
	assert.Nil(t, s.ImportScenario(y))

	assert.Equal(t, []NodeId{101, 102}, s.GetCells())
	assert.Equal(t, []NodeId{103}, s.GetUes())
	assert.Equal(t, []NodeId{103}, s.GetD2dGroups()[109])
	assert.Equal(t, []NodeId{102}, s.Cell(101).Comp().Config().Clients)
	assert.Equal(t, 101, s.Cell(102).Comp().Config().Coordinator)
	assert.Equal(t, SimTime(2000), s.Cell(101).Comp().Config().CoordinationPeriod)

	data, err := yaml.Marshal(s.ExportScenario())
	assert.Nil(t, err)
	y2, err := ParseYamlConfig(data)
	assert.Nil(t, err)
	assert.Len(t, y2.CellsList, 2)
	assert.Equal(t, "COMP_CLIENT_COORDINATOR", y2.CellsList[0].Comp.Type)
}
