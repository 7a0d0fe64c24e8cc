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
	"github.com/pkg/errors"

	"github.com/ransim/ran-ns/logger"
	. "github.com/ransim/ran-ns/types"
)

// SimulationController is the asynchronous control surface offered to remote clients. Requests are
// posted to the simulation goroutine; their failures are only logged.
type SimulationController interface {
	CtrlSetSpeed(speed float64) error
	CtrlAddUe(x, y float64, cell NodeId, cqi int) error
	CtrlDeleteUe(nodeid NodeId) error
	CtrlSetDiscipline(d SchedDiscipline) error
}

type simulationController struct {
	sim *Simulation
}

func (sc *simulationController) CtrlSetSpeed(speed float64) error {
	sim := sc.sim
	sim.PostAsync(true, func() {
		sim.SetSpeed(speed)
	})
	return nil
}

func (sc *simulationController) CtrlAddUe(x, y float64, cell NodeId, cqi int) error {
	sim := sc.sim
	nodeCfg := DefaultNodeConfig()
	nodeCfg.X, nodeCfg.Y = x, y
	nodeCfg.IsAutoPlaced = false
	nodeCfg.Cell = cell
	nodeCfg.Cqi = cqi

	if !sim.PostAsync(false, func() {
		logger.Infof("CtrlAddUe: %+v", nodeCfg)
		_, err := sim.AddUe(&nodeCfg)
		if err != nil {
			logger.Errorf("add UE failed: %v", err)
		}
	}) {
		return CommandInterruptedError
	}
	return nil
}

func (sc *simulationController) CtrlDeleteUe(nodeid NodeId) error {
	sim := sc.sim
	if !sim.PostAsync(false, func() {
		if err := sim.DeleteUe(nodeid); err != nil {
			logger.Errorf("delete UE failed: %v", err)
		}
	}) {
		return CommandInterruptedError
	}
	return nil
}

func (sc *simulationController) CtrlSetDiscipline(d SchedDiscipline) error {
	sim := sc.sim
	if !sim.PostAsync(false, func() {
		sim.SetDiscipline(d)
	}) {
		return CommandInterruptedError
	}
	return nil
}

type readonlySimulationController struct {
}

var readonlySimulationError = errors.Errorf("simulation is readonly")

func (r readonlySimulationController) CtrlSetSpeed(speed float64) error {
	return readonlySimulationError
}

func (r readonlySimulationController) CtrlAddUe(x, y float64, cell NodeId, cqi int) error {
	return readonlySimulationError
}

func (r readonlySimulationController) CtrlDeleteUe(nodeid NodeId) error {
	return readonlySimulationError
}

func (r readonlySimulationController) CtrlSetDiscipline(d SchedDiscipline) error {
	return readonlySimulationError
}

func NewSimulationController(sim *Simulation) SimulationController {
	if !sim.cfg.ReadOnly {
		return &simulationController{sim}
	} else {
		return readonlySimulationController{}
	}
}
