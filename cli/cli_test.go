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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ransim/ran-ns/progctx"
	"github.com/ransim/ran-ns/radiomodel"
	"github.com/ransim/ran-ns/simulation"
	. "github.com/ransim/ran-ns/types"
)

func TestParseBytes(t *testing.T) {
	var cmd Command
	err := parseBytes([]byte("wrongcmd"), &cmd)
	assert.NotNil(t, err)

	assert.Nil(t, parseBytes([]byte("add cell"), &cmd))
	assert.True(t, cmd.Add != nil && cmd.Add.Type.Val == "cell")
	assert.Nil(t, parseBytes([]byte("add ue"), &cmd))
	assert.True(t, cmd.Add != nil && cmd.Add.Type.Val == "ue")
	assert.Nil(t, parseBytes([]byte("add ue x 100 y 200"), &cmd))
	assert.True(t, *cmd.Add.X == 100 && *cmd.Add.Y == 200)
	assert.Nil(t, parseBytes([]byte("add ue id 100"), &cmd))
	assert.True(t, cmd.Add.Id.Val == 100)
	assert.Nil(t, parseBytes([]byte("add ue cell 3 cqi 12 d2d"), &cmd))
	assert.True(t, cmd.Add.Cell.Val == 3 && cmd.Add.Cqi.Val == 12 && cmd.Add.D2d != nil)
	assert.Nil(t, parseBytes([]byte("add ue d2d cqi 12 y 2 x 1.5"), &cmd))
	assert.True(t, *cmd.Add.X == 1.5 && cmd.Add.D2d != nil)
	assert.Nil(t, parseBytes([]byte("add cell x 0 y 0 comp client coord 4"), &cmd))
	assert.True(t, cmd.Add.Comp.Type == "client" && *cmd.Add.Comp.Coordinator == 4)
	assert.Nil(t, parseBytes([]byte("add cell comp client_coordinator clients 2 3"), &cmd))
	assert.Equal(t, []NodeSelector{{Id: 2}, {Id: 3}}, cmd.Add.Comp.Clients)
	assert.NotNil(t, parseBytes([]byte("add router"), &cmd))

	assert.True(t, parseBytes([]byte("cells"), &cmd) == nil && cmd.Cells != nil)
	assert.True(t, parseBytes([]byte("comp"), &cmd) == nil && cmd.Comp != nil)

	assert.True(t, parseBytes([]byte("cqi 2"), &cmd) == nil && cmd.Cqi != nil && cmd.Cqi.Val == nil)
	assert.True(t, parseBytes([]byte("cqi 2 9"), &cmd) == nil && *cmd.Cqi.Val == 9)
	assert.True(t, parseBytes([]byte("cqi 2 9 band 4 dir ul"), &cmd) == nil &&
		cmd.Cqi.Band.Val == 4 && cmd.Cqi.Dir.Val == "ul")
	assert.True(t, parseBytes([]byte("cqi 2 dir d2dmulti"), &cmd) == nil && cmd.Cqi.Dir.Val == "d2dmulti")

	assert.True(t, parseBytes([]byte("del 1"), &cmd) == nil && cmd.Del != nil)
	assert.True(t, parseBytes([]byte("del 1 2 3"), &cmd) == nil && len(cmd.Del.Nodes) == 3)
	assert.True(t, parseBytes([]byte("del"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("exit"), &cmd) == nil && cmd.Exit != nil)

	assert.Nil(t, parseBytes([]byte("flow 2"), &cmd))
	assert.True(t, cmd.Flow.Add != nil && cmd.Flow.Add.Node.Id == 2)
	assert.Nil(t, parseBytes([]byte("flow 2 dir d2d peer 3 rate 1000.5 size 200 class streaming model poisson"), &cmd))
	assert.True(t, cmd.Flow.Add.Dir.Val == "d2d" && *cmd.Flow.Add.Peer == 3 && *cmd.Flow.Add.Rate == 1000.5)
	assert.True(t, *cmd.Flow.Add.Size == 200 && *cmd.Flow.Add.Class == "streaming" && *cmd.Flow.Add.Model == "poisson")
	assert.Nil(t, parseBytes([]byte("flow 2 lcid 4 stop 1.5"), &cmd))
	assert.True(t, *cmd.Flow.Add.Lcid == 4 && *cmd.Flow.Add.Stop == 1.5)
	assert.Nil(t, parseBytes([]byte("flow del 2 4"), &cmd))
	assert.True(t, cmd.Flow.Del != nil && cmd.Flow.Del.Node.Id == 2 && cmd.Flow.Del.Lcid == 4)
	assert.True(t, parseBytes([]byte("flows"), &cmd) == nil && cmd.Flows != nil)

	assert.Nil(t, parseBytes([]byte("go 1"), &cmd))
	assert.NotNil(t, cmd.Go)
	assert.Nil(t, parseBytes([]byte("go 1.1"), &cmd))
	assert.NotNil(t, cmd.Go)
	assert.Nil(t, parseBytes([]byte("go 64us"), &cmd))
	assert.Equal(t, "64us", cmd.Go.Time)
	assert.Nil(t, parseBytes([]byte("go 200tti"), &cmd))
	assert.Equal(t, "200tti", cmd.Go.Time)
	assert.Nil(t, parseBytes([]byte("go ever"), &cmd))
	assert.NotNil(t, cmd.Go.Ever)
	assert.Nil(t, parseBytes([]byte("go 100 speed 0.5"), &cmd))
	assert.Equal(t, 0.5, *cmd.Go.Speed)

	assert.True(t, parseBytes([]byte("group"), &cmd) == nil && cmd.Group != nil && len(cmd.Group.Members) == 0)
	assert.True(t, parseBytes([]byte("group id 9 2 3"), &cmd) == nil && cmd.Group.Id.Val == 9 && len(cmd.Group.Members) == 2)

	assert.True(t, parseBytes([]byte("harq 2"), &cmd) == nil && cmd.Harq != nil && cmd.Harq.Node.Id == 2)
	assert.True(t, parseBytes([]byte("harq"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("help"), &cmd) == nil && cmd.Help != nil)
	assert.True(t, parseBytes([]byte("help flow"), &cmd) == nil && cmd.Help.HelpTopic == "flow")

	assert.True(t, parseBytes([]byte("kpi"), &cmd) == nil && cmd.Kpi != nil && cmd.Kpi.Action == "")
	assert.True(t, parseBytes([]byte("kpi start"), &cmd) == nil && cmd.Kpi.Action == "start")
	assert.True(t, parseBytes([]byte("kpi save \"a.json\""), &cmd) == nil && *cmd.Kpi.Filename == "a.json")

	assert.True(t, parseBytes([]byte("load \"scenario.yaml\""), &cmd) == nil && cmd.Load.Filename == "scenario.yaml")
	assert.True(t, parseBytes([]byte("save \"scenario.yaml\""), &cmd) == nil && cmd.Save.Filename == "scenario.yaml")
	assert.True(t, parseBytes([]byte("load"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("log"), &cmd) == nil && cmd.LogLevel != nil)
	assert.True(t, parseBytes([]byte("log debug"), &cmd) == nil && cmd.LogLevel != nil)
	assert.True(t, parseBytes([]byte("log warn"), &cmd) == nil && cmd.LogLevel != nil)
	assert.True(t, parseBytes([]byte("log fatal"), &cmd) != nil) // not supported.

	assert.True(t, parseBytes([]byte("sched"), &cmd) == nil && cmd.Sched != nil && cmd.Sched.Discipline == "")
	assert.True(t, parseBytes([]byte("sched drr"), &cmd) == nil && cmd.Sched.Discipline == "drr")
	assert.True(t, parseBytes([]byte("sched fifo"), &cmd) != nil)

	assert.True(t, parseBytes([]byte("speed"), &cmd) == nil && cmd.Speed != nil && cmd.Speed.Speed == nil)
	assert.True(t, parseBytes([]byte("speed 1.5"), &cmd) == nil && cmd.Speed != nil && *cmd.Speed.Speed == 1.5)
	assert.True(t, parseBytes([]byte("speed max"), &cmd) == nil && cmd.Speed.Max != nil)

	assert.True(t, parseBytes([]byte("stats"), &cmd) == nil && cmd.Stats != nil && cmd.Stats.Signal == "")
	assert.True(t, parseBytes([]byte("stats macDelayDl"), &cmd) == nil && cmd.Stats.Signal == "macDelayDl")
	assert.True(t, parseBytes([]byte("stats macDelayDl 3"), &cmd) == nil && cmd.Stats.Node.Id == 3)

	assert.True(t, parseBytes([]byte("time"), &cmd) == nil && cmd.Time != nil)
	assert.True(t, parseBytes([]byte("ues"), &cmd) == nil && cmd.Ues != nil)

	assert.True(t, parseBytes([]byte("watch"), &cmd) == nil && cmd.Watch != nil)
	assert.True(t, parseBytes([]byte("watch 1 2 debug"), &cmd) == nil && len(cmd.Watch.Nodes) == 2 && cmd.Watch.Level == "debug")
	assert.True(t, parseBytes([]byte("watch all off"), &cmd) == nil && cmd.Watch.All == "all")
	assert.True(t, parseBytes([]byte("unwatch all"), &cmd) == nil && cmd.Unwatch != nil)
	assert.True(t, parseBytes([]byte("unwatch 1 2"), &cmd) == nil && len(cmd.Unwatch.Nodes) == 2)
}

func TestParseGoDuration(t *testing.T) {
	d, err := parseGoDuration("64us", 1000)
	assert.Nil(t, err)
	assert.Equal(t, 64*time.Microsecond, d)

	d, err = parseGoDuration("2", 1000)
	assert.Nil(t, err)
	assert.Equal(t, 2*time.Second, d)

	d, err = parseGoDuration("1.5", 1000)
	assert.Nil(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, err = parseGoDuration("200tti", 500)
	assert.Nil(t, err)
	assert.Equal(t, 100*time.Millisecond, d)

	_, err = parseGoDuration("1.5tti", 1000)
	assert.NotNil(t, err)
	_, err = parseGoDuration("xyz", 1000)
	assert.NotNil(t, err)
}

func TestNodeSelectorUniqueSorted(t *testing.T) {
	inp := []NodeSelector{{Id: 3}, {Id: 3}, {Id: 1}, {Id: 2}, {Id: 1234}}
	assert.Equal(t, []NodeId{1, 2, 3, 1234}, getUniqueAndSorted(inp))

	inp = []NodeSelector{{Id: 1}, {Id: 18}, {Id: 17}, {Id: 18}, {Id: 2}, {Id: 19}, {Id: 1}}
	assert.Equal(t, []NodeId{1, 2, 17, 18, 19}, getUniqueAndSorted(inp))

	assert.Equal(t, []NodeId{42}, getUniqueAndSorted([]NodeSelector{{Id: 42}}))
	assert.Equal(t, []NodeId{}, getUniqueAndSorted([]NodeSelector{}))
}

func newTestRunner(t *testing.T) (*CmdRunner, *progctx.ProgCtx) {
	cfg := simulation.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.Seed = 1
	cfg.NumBands = 10
	cfg.Radio = radiomodel.ModelFixed

	ctx := progctx.New(context.Background())
	sim, err := simulation.NewSimulation(ctx, cfg)
	require.Nil(t, err)
	go sim.Run()
	<-sim.Started
	t.Cleanup(func() {
		ctx.Cancel(nil)
		ctx.Wait()
	})
	return NewCmdRunner(ctx, sim), ctx
}

func runCmd(t *testing.T, rt *CmdRunner, cmd string) string {
	var out bytes.Buffer
	_ = rt.RunCommand(cmd, &out)
	return out.String()
}

func TestCmdRunner(t *testing.T) {
	rt, ctx := newTestRunner(t)

	assert.Equal(t, "1\nDone\n", runCmd(t, rt, "add cell x 0 y 0"))
	assert.Equal(t, "2\nDone\n", runCmd(t, rt, "add ue x 50 y 0 cqi 12"))
	assert.Equal(t, "3\nDone\n", runCmd(t, rt, "add ue x 60 y 0 cqi 9 d2d"))
	assert.True(t, strings.HasPrefix(runCmd(t, rt, "add ue cell 77"), "Error: "))
	assert.True(t, strings.HasPrefix(runCmd(t, rt, "wrongcmd"), "Error: "))

	assert.Contains(t, runCmd(t, rt, "cells"), "{id: 1, x: 0, y: 0, ues: 2}")
	assert.Contains(t, runCmd(t, rt, "ues"), "id: 2, cell: 1")
	assert.Contains(t, runCmd(t, rt, "cqi 2 dir dl"), "dl: [12, 12, 12, 12, 12, 12, 12, 12, 12, 12]")
	assert.Equal(t, "Done\n", runCmd(t, rt, "cqi 2 7 band 0"))
	assert.Contains(t, runCmd(t, rt, "cqi 2 dir dl band 0"), "dl: [7]")

	assert.Equal(t, "0\nDone\n", runCmd(t, rt, "flow 2 rate 125000"))
	assert.Equal(t, "0\nDone\n", runCmd(t, rt, "flow 3 dir ul class streaming"))
	assert.Contains(t, runCmd(t, rt, "flows"), "ue: 3, lcid: 0, dir: ul")

	assert.Equal(t, "Done\n", runCmd(t, rt, "go 10ms"))
	assert.Equal(t, "10000\nDone\n", runCmd(t, rt, "time"))
	assert.Equal(t, "Done\n", runCmd(t, rt, "go 5tti"))
	assert.Equal(t, "15000\nDone\n", runCmd(t, rt, "time"))

	assert.Contains(t, runCmd(t, rt, "harq 2"), "side: rx")
	assert.True(t, strings.HasPrefix(runCmd(t, rt, "harq 99"), "Error: "))
	assert.Contains(t, runCmd(t, rt, "kpi"), "status: ok")
	assert.True(t, strings.HasSuffix(runCmd(t, rt, "stats"), "Done\n"))

	assert.Equal(t, "Done\n", runCmd(t, rt, "sched pf"))
	assert.Equal(t, "pf\nDone\n", runCmd(t, rt, "sched"))

	assert.Equal(t, "Done\n", runCmd(t, rt, "watch 2 debug"))
	assert.Equal(t, "2\nDone\n", runCmd(t, rt, "watch"))
	assert.Equal(t, "Done\n", runCmd(t, rt, "unwatch all"))
	assert.Equal(t, "\nDone\n", runCmd(t, rt, "watch"))

	fn := filepath.Join(t.TempDir(), "scenario.yaml")
	assert.Equal(t, "Done\n", runCmd(t, rt, "save \""+fn+"\""))
	data, err := os.ReadFile(fn)
	assert.Nil(t, err)
	assert.Contains(t, string(data), "cells:")

	assert.Equal(t, "Done\n", runCmd(t, rt, "flow del 2 0"))
	assert.Contains(t, runCmd(t, rt, "del 3 99"), "Warn: UE 99 not found")
	assert.Contains(t, runCmd(t, rt, "help"), "flow")

	assert.Equal(t, "Done\n", runCmd(t, rt, "exit"))
	<-ctx.Done()
	var out bytes.Buffer
	assert.NotNil(t, rt.RunCommand("time", &out))
}

func TestHelp(t *testing.T) {
	h := newHelp()
	assert.Equal(t, "add", h.order[0])
	assert.Equal(t, "watch", h.order[len(h.order)-1])
	assert.Contains(t, h.order, "harq")
	assert.Equal(t, "Add a cell or a UE to the simulation and print its node ID.", h.entries["add"].summary)

	general := h.outputGeneralHelp()
	assert.Contains(t, general, "sched")
	assert.Contains(t, general, "'help <command>'")

	flowHelp := h.outputCommandHelp("flow")
	assert.Contains(t, flowHelp, "Definition:")
	assert.Contains(t, flowHelp, "flow del <ue-id> <lcid>")
	assert.Contains(t, flowHelp, "Example:")
	assert.Contains(t, h.outputCommandHelp("fly"), "no such command")
}
