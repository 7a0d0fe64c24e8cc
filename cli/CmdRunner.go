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

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"

	"github.com/ransim/ran-ns/comp"
	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/progctx"
	"github.com/ransim/ran-ns/simulation"
	"github.com/ransim/ran-ns/stats"
	. "github.com/ransim/ran-ns/types"
)

const (
	Prompt = "> "
)

type CommandContext struct {
	context.Context
	*Command
	rt     *CmdRunner
	err    error
	output io.Writer
}

func (cc *CommandContext) outputStr(msg string) {
	_, _ = fmt.Fprint(cc.output, msg)
}

func (cc *CommandContext) outputf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cc.output, format, args...)
}

func (cc *CommandContext) errorf(format string, args ...interface{}) {
	cc.error(errors.Errorf(format, args...))
}

func (cc *CommandContext) error(err error) {
	if err != nil {
		if cc.err != nil { // if previous error, print it now and keep the last.
			cc.outputf("Error: %s\n", cc.err)
		}
		cc.err = err
	}
}

// Err returns the last error that occurred during command execution.
func (cc *CommandContext) Err() error {
	return cc.err
}

func (cc *CommandContext) outputItemsAsYaml(items interface{}) {
	var itemsYaml yaml.Node

	err := itemsYaml.Encode(items)
	logger.PanicIfError(err)

	for _, content := range itemsYaml.Content {
		content.Style = yaml.FlowStyle
	}

	data, err := yaml.Marshal(&itemsYaml)
	logger.PanicIfError(err)

	_, err = cc.output.Write(data)
	logger.PanicIfError(err)
}

// CmdRunner parses and executes CLI commands against a running simulation.
type CmdRunner struct {
	sim  *simulation.Simulation
	ctx  *progctx.ProgCtx
	help Help
}

func NewCmdRunner(ctx *progctx.ProgCtx, sim *simulation.Simulation) *CmdRunner {
	cr := &CmdRunner{
		ctx:  ctx,
		sim:  sim,
		help: newHelp(),
	}
	return cr
}

func (rt *CmdRunner) RunCommand(cmdline string, output io.Writer) error {
	if rt.ctx.Err() == nil {
		cmd := Command{}

		if err := parseBytes([]byte(cmdline), &cmd); err != nil {
			if _, err := fmt.Fprintf(output, "Error: %v\n", err); err != nil {
				return err
			}
		} else {
			rt.execute(&cmd, output)
		}
	}
	return rt.ctx.Err()
}

func (rt *CmdRunner) GetPrompt() string {
	return Prompt
}

func (rt *CmdRunner) execute(cmd *Command, output io.Writer) {
	cc := &CommandContext{
		Context: rt.ctx,
		Command: cmd,
		rt:      rt,
		output:  output,
	}

	defer func() {
		if cc.Err() != nil {
			cc.outputf("Error: %v\n", cc.Err())
		} else {
			cc.outputf("Done\n")
		}
	}()

	defer func() {
		rerr := recover()

		if rerr != nil {
			if err, ok := rerr.(error); ok {
				cc.err = errors.Wrapf(err, "panic: %v", err)
			} else {
				cc.err = errors.Errorf("panic: %v", rerr)
			}
		}
	}()

	if cmd.Go != nil {
		rt.executeGo(cc, cmd.Go)
	} else if cmd.Add != nil {
		rt.executeAdd(cc, cmd.Add)
	} else if cmd.Del != nil {
		rt.executeDel(cc, cmd.Del)
	} else if cmd.Cells != nil {
		rt.executeLsCells(cc)
	} else if cmd.Ues != nil {
		rt.executeLsUes(cc)
	} else if cmd.Comp != nil {
		rt.executeComp(cc)
	} else if cmd.Cqi != nil {
		rt.executeCqi(cc, cmd.Cqi)
	} else if cmd.Flow != nil {
		rt.executeFlow(cc, cmd.Flow)
	} else if cmd.Flows != nil {
		rt.executeLsFlows(cc)
	} else if cmd.Group != nil {
		rt.executeGroup(cc, cmd.Group)
	} else if cmd.Harq != nil {
		rt.executeHarq(cc, cmd.Harq)
	} else if cmd.Kpi != nil {
		rt.executeKpi(cc, cmd.Kpi)
	} else if cmd.Load != nil {
		rt.executeLoad(cc, cmd.Load)
	} else if cmd.Save != nil {
		rt.executeSave(cc, cmd.Save)
	} else if cmd.Sched != nil {
		rt.executeSched(cc, cmd.Sched)
	} else if cmd.Speed != nil {
		rt.executeSpeed(cc, cmd.Speed)
	} else if cmd.Stats != nil {
		rt.executeStats(cc, cmd.Stats)
	} else if cmd.Exit != nil {
		rt.executeExit(cc, cmd.Exit)
	} else if cmd.LogLevel != nil {
		rt.executeLogLevel(cc, cmd.LogLevel)
	} else if cmd.Watch != nil {
		rt.executeWatch(cc, cmd.Watch)
	} else if cmd.Unwatch != nil {
		rt.executeUnwatch(cc, cmd.Unwatch)
	} else if cmd.Time != nil {
		rt.executeTime(cc, cmd.Time)
	} else if cmd.Help != nil {
		rt.executeHelp(cc, cmd.Help)
	} else {
		logger.Panicf("unimplemented command: %#v", cmd)
	}
}

// parseGoDuration parses a 'go' time argument. A bare number means seconds, the "tti" suffix
// counts TTIs.
func parseGoDuration(arg string, tti SimTime) (time.Duration, error) {
	if n, ok := strings.CutSuffix(arg, "tti"); ok {
		ttis, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return 0, errors.Errorf("could not parse TTI count: %s", arg)
		}
		return time.Duration(ttis*tti) * time.Microsecond, nil
	}
	d, err := time.ParseDuration(arg)
	if err != nil {
		d, err = time.ParseDuration(arg + "s") // try parsing as seconds
		if err != nil {
			return 0, errors.Errorf("could not parse time duration: %s", arg)
		}
	}
	return d, nil
}

func (rt *CmdRunner) executeGo(cc *CommandContext, cmd *GoCmd) {
	var timeDurToGo time.Duration
	if cmd.Ever == nil {
		var err error
		if timeDurToGo, err = parseGoDuration(cmd.Time, rt.sim.GetConfig().Tti()); err != nil {
			cc.error(err)
			return
		}
	}

	if cmd.Speed != nil {
		var prevSpeed float64
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			prevSpeed = sim.GetSpeed()
			sim.SetSpeed(*cmd.Speed)
		})
		if cmd.Ever == nil {
			defer rt.sim.PostAsync(false, func() {
				rt.sim.SetSpeed(prevSpeed)
			})
		}
	}
	if cc.Err() != nil {
		return
	}

	if cmd.Ever == nil {
		cc.error(<-rt.sim.Go(timeDurToGo)) // block for the simulation period.
		return
	}
	for { // run forever but stop if rt.ctx.Err indicates "done"
		err := <-rt.sim.Go(time.Hour)
		if rt.ctx.Err() != nil || err != nil {
			cc.error(err)
			break
		}
	}
}

func (rt *CmdRunner) executeSpeed(cc *CommandContext, cmd *SpeedCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if cmd.Speed == nil && cmd.Max == nil {
			cc.outputf("%v\n", sim.GetSpeed())
		} else if cmd.Max != nil {
			sim.SetSpeed(simulation.MaxSimulateSpeed)
		} else {
			sim.SetSpeed(*cmd.Speed)
		}
	})
}

func (rt *CmdRunner) postAsyncWait(cc *CommandContext, f func(sim *simulation.Simulation)) {
	done := make(chan struct{})
	if rt.sim.PostAsync(false, func() {
		defer close(done) // even if f() fails execution, 'done' should be closed.
		f(rt.sim)         // executing task (later) may set cc.err status if error occurs.
	}) {
		<-done // only block-wait if task was accepted.
	} else {
		cc.error(simulation.CommandInterruptedError) // report cc error if not accepted.
	}
}

func (rt *CmdRunner) executeAdd(cc *CommandContext, cmd *AddCmd) {
	logger.Debugf("Add: %#v", *cmd)
	if cmd.Type.Val == "cell" {
		rt.executeAddCell(cc, cmd)
		return
	}
	if cmd.Comp != nil {
		cc.errorf("comp is only valid for a cell")
		return
	}

	cfg := DefaultNodeConfig()
	if cmd.X != nil {
		cfg.X = *cmd.X
		cfg.IsAutoPlaced = false
	}
	if cmd.Y != nil {
		cfg.Y = *cmd.Y
		cfg.IsAutoPlaced = false
	}
	if cmd.Id != nil {
		cfg.ID = cmd.Id.Val
	}
	if cmd.Cell != nil {
		cfg.Cell = cmd.Cell.Val
	}
	if cmd.Cqi != nil {
		cfg.Cqi = cmd.Cqi.Val
	}
	cfg.D2dCapable = cmd.D2d != nil

	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		ue, err := sim.AddUe(&cfg)
		if err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%d\n", ue.Id)
	})
}

func (rt *CmdRunner) executeAddCell(cc *CommandContext, cmd *AddCmd) {
	if cmd.Cell != nil || cmd.Cqi != nil || cmd.D2d != nil {
		cc.errorf("cell, cqi and d2d are only valid for a UE")
		return
	}
	cfg := simulation.DefaultCellConfig()
	if cmd.X != nil {
		cfg.X = *cmd.X
	}
	if cmd.Y != nil {
		cfg.Y = *cmd.Y
	}
	if cmd.Id != nil {
		cfg.ID = cmd.Id.Val
	}
	if cmd.Comp != nil {
		ccfg := comp.DefaultConfig()
		t, err := ParseCompNodeType(cmd.Comp.Type)
		if err != nil {
			cc.error(err)
			return
		}
		ccfg.Type = t
		if cmd.Comp.Coordinator != nil {
			ccfg.Coordinator = *cmd.Comp.Coordinator
		}
		for _, sel := range cmd.Comp.Clients {
			ccfg.Clients = append(ccfg.Clients, sel.Id)
		}
		cfg.Comp = &ccfg
	}

	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		c, err := sim.AddCell(cfg)
		if err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%d\n", c.Id)
	})
}

func (rt *CmdRunner) executeDel(cc *CommandContext, cmd *DelCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, id := range getUniqueAndSorted(cmd.Nodes) {
			if sim.Ue(id) == nil {
				cc.outputf("Warn: UE %d not found, skipping\n", id)
				continue
			}

			err := sim.DeleteUe(id)
			if err != nil {
				cc.errorf("node %d, %+v", id, err)
			}
		}
	})
}

func (rt *CmdRunner) executeExit(cc *CommandContext, cmd *ExitCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		sim.Stop()
	})
}

type cellInfo struct {
	Id   NodeId  `yaml:"id"`
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Ues  int     `yaml:"ues"`
	Comp string  `yaml:"comp,omitempty"`
}

func (rt *CmdRunner) executeLsCells(cc *CommandContext) {
	var cells []cellInfo
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, id := range sim.GetCells() {
			c := sim.Cell(id)
			info := cellInfo{Id: id, X: c.X, Y: c.Y, Ues: len(c.Ues())}
			if c.Comp() != nil {
				info.Comp = c.Comp().Config().Type.String()
			}
			cells = append(cells, info)
		}
	})
	for _, info := range cells {
		cc.outputItemsAsYaml(info)
	}
}

type ueInfo struct {
	Id    NodeId  `yaml:"id"`
	Cell  NodeId  `yaml:"cell"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	CqiDl int     `yaml:"cqi_dl"`
	CqiUl int     `yaml:"cqi_ul"`
	D2d   bool    `yaml:"d2d"`
	Flows int     `yaml:"flows"`
}

func (rt *CmdRunner) executeLsUes(cc *CommandContext) {
	var ues []ueInfo
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, id := range sim.GetUes() {
			ue := sim.Ue(id)
			a := sim.Cell(ue.Cell).Amc()
			ues = append(ues, ueInfo{
				Id:    id,
				Cell:  ue.Cell,
				X:     ue.X,
				Y:     ue.Y,
				CqiDl: a.WidebandCqi(id, DirDl),
				CqiUl: a.WidebandCqi(id, DirUl),
				D2d:   ue.Config().D2dCapable,
				Flows: len(ue.Flows()),
			})
		}
	})
	for _, info := range ues {
		cc.outputItemsAsYaml(info)
	}
}

type compInfo struct {
	Cell        NodeId   `yaml:"cell"`
	Type        string   `yaml:"type"`
	Coordinator NodeId   `yaml:"coordinator"`
	Mask        string   `yaml:"mask"`
	Stale       int      `yaml:"stale"`
	Clients     []NodeId `yaml:"clients,omitempty"`
	Blocks      []int    `yaml:"blocks,omitempty"`
}

func (rt *CmdRunner) executeComp(cc *CommandContext) {
	var infos []compInfo
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, id := range sim.GetCells() {
			m := sim.Cell(id).Comp()
			if m == nil {
				continue
			}
			cfg := m.Config()
			info := compInfo{
				Cell:        id,
				Type:        cfg.Type.String(),
				Coordinator: cfg.Coordinator,
				Mask:        m.Mask().String(),
				Stale:       m.StaleCount(),
			}
			if m.IsCoordinator() {
				info.Clients, info.Blocks, _ = m.Partitioning()
			}
			infos = append(infos, info)
		}
	})
	for _, info := range infos {
		cc.outputItemsAsYaml(info)
	}
}

func (rt *CmdRunner) executeCqi(cc *CommandContext, cmd *CqiCmd) {
	dirs := []Direction{DirDl, DirUl, DirD2d}
	if cmd.Dir != nil {
		dir, err := ParseDirection(cmd.Dir.Val)
		if err != nil {
			cc.error(err)
			return
		}
		dirs = []Direction{dir}
	}
	band := Band(-1)
	if cmd.Band != nil {
		band = Band(cmd.Band.Val)
	}

	if cmd.Val != nil {
		// without a direction only the downlink CQI is set
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			cc.error(sim.SetCqi(cmd.Node.Id, dirs[0], band, *cmd.Val))
		})
		return
	}

	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		ue := sim.Ue(cmd.Node.Id)
		if ue == nil {
			cc.errorf("UE %d not found", cmd.Node.Id)
			return
		}
		a := sim.Cell(ue.Cell).Amc()
		for _, dir := range dirs {
			var cqis []int
			if band >= 0 {
				cqis = append(cqis, a.Cqi(ue.Id, dir, band))
			} else {
				for b := 0; b < a.NumBands(); b++ {
					cqis = append(cqis, a.Cqi(ue.Id, dir, Band(b)))
				}
			}
			cc.outputf("%s: ", dir)
			cc.outputItemsAsYaml(cqis)
		}
	})
}

func (rt *CmdRunner) executeFlow(cc *CommandContext, cmd *FlowCmd) {
	if cmd.Del != nil {
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			cc.error(sim.DeleteFlow(Cid{Node: cmd.Del.Node.Id, Lcid: cmd.Del.Lcid}))
		})
		return
	}

	add := cmd.Add
	cfg := simulation.DefaultFlowConfig(add.Node.Id)
	var err error
	if add.Lcid != nil {
		cfg.Lcid = *add.Lcid
	}
	if add.Dir != nil {
		if cfg.Dir, err = ParseDirection(add.Dir.Val); err != nil {
			cc.error(err)
			return
		}
	}
	if add.Peer != nil {
		cfg.Peer = *add.Peer
	}
	if add.Rate != nil {
		cfg.Rate = *add.Rate
	}
	if add.Size != nil {
		if *add.Size <= 0 {
			cc.errorf("packet size must be positive")
			return
		}
		cfg.PacketSize = uint(*add.Size)
	}
	if add.Class != nil {
		if cfg.Class, err = ParseTrafficClass(*add.Class); err != nil {
			cc.error(err)
			return
		}
	}
	if add.Model != nil {
		if cfg.Model, err = simulation.ParseTrafficModel(*add.Model); err != nil {
			cc.error(err)
			return
		}
	}

	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if add.Stop != nil {
			cfg.Stop = sim.CurTime() + SimTime(*add.Stop*1e6)
		}
		f, err := sim.AddFlow(cfg)
		if err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%d\n", f.Cid.Lcid)
	})
}

type flowInfo struct {
	Ue        NodeId     `yaml:"ue"`
	Lcid      LogicalCid `yaml:"lcid"`
	Dir       string     `yaml:"dir"`
	Peer      NodeId     `yaml:"peer"`
	Class     string     `yaml:"class"`
	Model     string     `yaml:"model"`
	Rate      float64    `yaml:"rate"`
	Sent      uint64     `yaml:"sent"`
	Delivered uint64     `yaml:"delivered"`
}

func (rt *CmdRunner) executeLsFlows(cc *CommandContext) {
	var flows []flowInfo
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		for _, cid := range sim.GetFlows() {
			f := sim.Flow(cid)
			cfg := f.Config()
			flows = append(flows, flowInfo{
				Ue:        cid.Node,
				Lcid:      cid.Lcid,
				Dir:       cfg.Dir.String(),
				Peer:      cfg.Peer,
				Class:     cfg.Class.String(),
				Model:     cfg.Model.String(),
				Rate:      cfg.Rate,
				Sent:      f.SentBytes,
				Delivered: f.DeliveredBytes,
			})
		}
	})
	for _, info := range flows {
		cc.outputItemsAsYaml(info)
	}
}

func (rt *CmdRunner) executeGroup(cc *CommandContext, cmd *GroupCmd) {
	if len(cmd.Members) == 0 {
		if cmd.Id != nil {
			cc.errorf("group %d needs members", cmd.Id.Val)
			return
		}
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			groups := sim.GetD2dGroups()
			ids := make([]NodeId, 0, len(groups))
			for id := range groups {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			for _, id := range ids {
				cc.outputf("%d: ", id)
				cc.outputItemsAsYaml(groups[id])
			}
		})
		return
	}

	id := InvalidNodeId
	if cmd.Id != nil {
		id = cmd.Id.Val
	}
	members := make([]NodeId, 0, len(cmd.Members))
	for _, sel := range cmd.Members {
		members = append(members, sel.Id)
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		gid, err := sim.AddD2dGroup(id, members)
		if err != nil {
			cc.error(err)
			return
		}
		cc.outputf("%d\n", gid)
	})
}

type harqInfo struct {
	Side      string     `yaml:"side"`
	Peer      NodeId     `yaml:"peer"`
	Dir       string     `yaml:"dir"`
	Processes [][]string `yaml:"processes"`
}

func (rt *CmdRunner) executeHarq(cc *CommandContext, cmd *HarqCmd) {
	var infos []harqInfo
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		if sim.Ue(cmd.Node.Id) == nil && sim.Cell(cmd.Node.Id) == nil {
			cc.errorf("node %d not found", cmd.Node.Id)
			return
		}
		txs, rxs := sim.HarqBuffersOf(cmd.Node.Id)
		for _, tx := range txs {
			info := harqInfo{Side: "tx", Peer: tx.Link().Peer, Dir: tx.Link().Dir.String()}
			for _, proc := range tx.BufferStatus() {
				var units []string
				for _, st := range proc {
					units = append(units, st.String())
				}
				info.Processes = append(info.Processes, units)
			}
			infos = append(infos, info)
		}
		for _, rx := range rxs {
			info := harqInfo{Side: "rx", Peer: rx.Link().Peer, Dir: rx.Link().Dir.String()}
			for _, proc := range rx.BufferStatus() {
				var units []string
				for _, st := range proc {
					units = append(units, st.String())
				}
				info.Processes = append(info.Processes, units)
			}
			infos = append(infos, info)
		}
	})
	for _, info := range infos {
		cc.outputItemsAsYaml(info)
	}
}

func (rt *CmdRunner) executeKpi(cc *CommandContext, cmd *KpiCmd) {
	if cmd.Filename != nil && cmd.Action != "save" {
		cc.errorf("a filename is only valid with 'kpi save'")
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		km := sim.GetKpiManager()
		switch cmd.Action {
		case "start":
			if km.IsRunning() {
				km.Stop()
			}
			km.Start()
		case "stop":
			if !km.IsRunning() {
				cc.errorf("KPI collection is not running")
				return
			}
			km.Stop()
		case "save":
			if cmd.Filename != nil {
				km.SaveFile(*cmd.Filename)
			} else {
				km.SaveDefaultFile()
			}
		default:
			data, err := yaml.Marshal(km.Data())
			if err != nil {
				cc.error(err)
				return
			}
			cc.outputStr(string(data))
		}
	})
}

func (rt *CmdRunner) executeLoad(cc *CommandContext, cmd *LoadCmd) {
	cfg, err := simulation.LoadYamlConfigFile(cmd.Filename)
	if err != nil {
		cc.error(err)
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		cc.error(sim.ImportScenario(cfg))
	})
}

func (rt *CmdRunner) executeSave(cc *CommandContext, cmd *SaveCmd) {
	var cfg *simulation.YamlConfigFile
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		cfg = sim.ExportScenario()
	})
	if cc.Err() != nil {
		return
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		cc.error(err)
		return
	}
	if err = os.WriteFile(cmd.Filename, data, 0644); err != nil {
		cc.error(errors.Wrapf(err, "could not write %s", cmd.Filename))
	}
}

func (rt *CmdRunner) executeSched(cc *CommandContext, cmd *SchedCmd) {
	if cmd.Discipline == "" {
		rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
			cc.outputf("%v\n", sim.GetConfig().Scheduler.Discipline)
		})
		return
	}
	d, err := ParseSchedDiscipline(cmd.Discipline)
	if err != nil {
		cc.error(err)
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		sim.SetDiscipline(d)
	})
}

func (rt *CmdRunner) executeStats(cc *CommandContext, cmd *StatsCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		rec := sim.Recorder()
		if cmd.Signal == "" {
			for _, sig := range rec.Signals() {
				cc.outputf("%-24s %s\n", sig, rec.Summary(stats.AllNodes, sig))
			}
			return
		}
		if !slices.Contains(rec.Signals(), cmd.Signal) {
			cc.errorf("no samples of signal %s", cmd.Signal)
			return
		}
		if cmd.Node != nil {
			cc.outputf("%d: %s\n", cmd.Node.Id, rec.Summary(cmd.Node.Id, cmd.Signal))
			return
		}
		for _, id := range rec.Nodes(cmd.Signal) {
			cc.outputf("%d: %s\n", id, rec.Summary(id, cmd.Signal))
		}
		cc.outputf("all: %s\n", rec.Summary(stats.AllNodes, cmd.Signal))
	})
}

func (rt *CmdRunner) executeLogLevel(cc *CommandContext, cmd *LogLevelCmd) {
	if cmd.Level == "" {
		cc.outputf("%v\n", logger.GetLevelString(rt.sim.GetLogLevel()))
		return
	}
	level, err := logger.ParseLevelString(cmd.Level)
	if err != nil {
		cc.error(err)
		return
	}
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		sim.SetLogLevel(level)
	})
}

// watchedNodes returns the nodes whose log lines are currently displayed.
func watchedNodes(sim *simulation.Simulation) []NodeId {
	var res []NodeId
	for _, id := range append(sim.GetCells(), sim.GetUes()...) {
		if nl := logger.GetExistingNodeLogger(id); nl != nil && nl.GetDisplayLevel() != logger.OffLevel {
			res = append(res, id)
		}
	}
	slices.Sort(res)
	return res
}

func (rt *CmdRunner) executeWatch(cc *CommandContext, cmd *WatchCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		var level = logger.DefaultLevel
		if len(cmd.Level) > 0 {
			var err error
			if level, err = logger.ParseLevelString(cmd.Level); err != nil {
				cc.error(err)
				return
			}
		}
		var nodesToWatch []NodeId

		if len(cmd.Nodes) == 0 && len(cmd.All) == 0 && len(cmd.Level) == 0 {
			// variant: 'watch'
			watchedList := strings.Trim(fmt.Sprintf("%v", watchedNodes(sim)), "[]")
			cc.outputf("%v\n", watchedList)
			return
		} else if len(cmd.Nodes) == 0 && len(cmd.All) > 0 {
			// variant: 'watch all [<level>]'
			nodesToWatch = append(sim.GetCells(), sim.GetUes()...)
		} else if len(cmd.Nodes) > 0 && len(cmd.All) == 0 {
			// variant: 'watch <nodeid> [<nodeid> ...] [<level>]'
			nodesToWatch = getUniqueAndSorted(cmd.Nodes)
		} else if len(cmd.Nodes) == 0 && len(cmd.All) == 0 && len(cmd.Level) > 0 {
			// variant: 'watch <level>', applies to the nodes already watched
			nodesToWatch = watchedNodes(sim)
		} else {
			cc.errorf("watch: unsupported combination of command options")
			return
		}

		for _, id := range nodesToWatch {
			nl := logger.GetExistingNodeLogger(id)
			if nl == nil {
				cc.errorf("node %d not found", id)
				continue
			}
			nl.SetDisplayLevel(level)
		}
	})
}

func (rt *CmdRunner) executeUnwatch(cc *CommandContext, cmd *UnwatchCmd) {
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		// if no node-number(s) given, unwatch all.
		if len(cmd.Nodes) == 0 {
			for _, id := range watchedNodes(sim) {
				logger.GetExistingNodeLogger(id).SetDisplayLevel(logger.OffLevel)
			}
		} else {
			for _, sel := range cmd.Nodes {
				nl := logger.GetExistingNodeLogger(sel.Id)
				if nl == nil {
					cc.outputf("Warn: node %d not found, skipping\n", sel.Id)
					continue
				}
				nl.SetDisplayLevel(logger.OffLevel)
			}
		}
	})
}

func (rt *CmdRunner) executeTime(cc *CommandContext, cmd *TimeCmd) {
	var simTime SimTime
	rt.postAsyncWait(cc, func(sim *simulation.Simulation) {
		simTime = sim.CurTime()
	})
	cc.outputf("%d\n", simTime)
}

func (rt *CmdRunner) executeHelp(cc *CommandContext, cmd *HelpCmd) {
	if len(cmd.HelpTopic) > 0 {
		cc.outputStr(rt.help.outputCommandHelp(cmd.HelpTopic))
	} else {
		cc.outputStr(rt.help.outputGeneralHelp())
	}
}
