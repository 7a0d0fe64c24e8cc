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

package ran_main

import (
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/simonlingoogle/go-simplelogger"

	"github.com/ransim/ran-ns/cli"
	"github.com/ransim/ran-ns/cli/runcli"
	"github.com/ransim/ran-ns/ctrlserver"
	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/progctx"
	"github.com/ransim/ran-ns/radiomodel"
	"github.com/ransim/ran-ns/simulation"
	. "github.com/ransim/ran-ns/types"
)

type MainArgs struct {
	Speed      string
	AutoGo     bool
	ReadOnly   bool
	LogLevel   string
	LogFile    string
	Scenario   string
	GrpcAddr   string
	OutputDir  string
	SimId      int
	Seed       int64
	Radio      string
	CqiTrace   string
	Discipline string
	StatsLog   bool
	Duration   time.Duration
}

var (
	args MainArgs
)

func parseArgs() {
	flag.StringVar(&args.Speed, "speed", "1", "set simulating speed, or 'max'")
	flag.BoolVar(&args.AutoGo, "autogo", true, "auto go (runs the simulation at given speed, without issuing 'go' commands.)")
	flag.BoolVar(&args.ReadOnly, "readonly", false, "readonly simulation can not be manipulated over gRPC")
	flag.StringVar(&args.LogLevel, "log", "warn", "set logging level: trace, debug, info, note, warn, error.")
	flag.StringVar(&args.LogFile, "logfile", "", "also write the simulator log to this file")
	flag.StringVar(&args.Scenario, "scenario", "", "YAML scenario file with cells, UEs, flows and run parameters")
	flag.StringVar(&args.GrpcAddr, "grpc", "localhost:8999", "gRPC control server listen address, or empty to disable")
	flag.StringVar(&args.OutputDir, "out", simulation.DefaultOutputDir, "output directory for logs, statistics and KPI files")
	flag.IntVar(&args.SimId, "id", 0, "simulation ID, used in output file names")
	flag.Int64Var(&args.Seed, "seed", 0, "random seed, 0 for a time based seed")
	flag.StringVar(&args.Radio, "radio", radiomodel.ModelUma.String(), "radio model: uma, indoor, fixed")
	flag.StringVar(&args.CqiTrace, "cqi-trace", "", "CSV file with per-TTI CQI reports, replaces the radio model CQI")
	flag.StringVar(&args.Discipline, "sched", "", "scheduling discipline: maxci, pf, drr")
	flag.BoolVar(&args.StatsLog, "stats-log", false, "write windowed statistics to a CSV file")
	flag.DurationVar(&args.Duration, "duration", 0, "run non-interactively for the given simulated time, then exit")

	flag.Parse()
}

func Main(ctx *progctx.ProgCtx, cliOptions *runcli.CliOptions) {
	parseArgs()
	level, err := logger.ParseLevelString(args.LogLevel)
	if err != nil {
		simplelogger.Fatalf("invalid log level: %s", args.LogLevel)
	}
	logger.SetLevel(level)
	if len(args.LogFile) > 0 {
		logger.SetOutput([]string{"stderr", args.LogFile})
	}
	simplelogger.SetLevel(simulation.GetSimpleloggerLevel(level))

	handleSignals(ctx)

	sim := createSimulation(ctx, level)
	if sim == nil {
		return
	}
	rt := cli.NewCmdRunner(ctx, sim)
	go sim.Run()
	<-sim.Started
	sim.PostAsync(false, sim.GetKpiManager().Start)

	if len(args.GrpcAddr) > 0 {
		srv := ctrlserver.NewServer(args.GrpcAddr, sim, rt)
		ctx.Defer(srv.Stop)
		ctx.Go("ctrlserver", func() {
			if err := srv.Run(); err != nil && ctx.Err() == nil {
				logger.Errorf("control server stopped unexpectedly: %+v", err)
			}
		})
	}

	if args.Duration > 0 {
		err = <-sim.Go(args.Duration)
		ctx.Cancel(errors.Wrapf(err, "simulation run"))
	} else {
		logger.SetStdoutCallback(runcli.Cli)
		ctx.Defer(func() {
			_ = os.Stdin.Close()
		})
		go func() {
			err := runcli.Cli.Run(rt, cliOptions)
			ctx.Cancel(errors.Wrapf(err, "console exit"))
		}()
		if args.AutoGo {
			go autoGo(ctx, sim)
		}
	}

	<-ctx.Done()
	simplelogger.Debugf("waiting for simulation to stop gracefully ...")
	ctx.Wait()
	if err = sim.Err(); err != nil {
		simplelogger.Errorf("simulation halted: %v", err)
	}
}

func handleSignals(ctx *progctx.ProgCtx) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	signal.Ignore(syscall.SIGALRM)

	ctx.WaitAdd("handleSignals", 1)
	go func() {
		defer simplelogger.Debugf("handleSignals exit.")
		defer ctx.WaitDone("handleSignals")

		for {
			select {
			case sig := <-c:
				simplelogger.Infof("signal received: %v", sig)
				ctx.Cancel(nil)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func autoGo(ctx *progctx.ProgCtx, sim *simulation.Simulation) {
	for {
		err := <-sim.Go(time.Second)
		if ctx.Err() != nil { // exit when context is Done.
			return
		}
		if err != nil {
			ctx.Cancel(errors.Wrapf(err, "simulation halted"))
			return
		}
	}
}

func parseSpeed(s string) (float64, error) {
	s = strings.ToLower(s)
	if s == "max" || s == "inf" {
		return simulation.MaxSimulateSpeed, nil
	}
	return strconv.ParseFloat(s, 64)
}

func createSimulation(ctx *progctx.ProgCtx, level logger.Level) *simulation.Simulation {
	var err error

	simcfg := simulation.DefaultConfig()
	simcfg.Id = args.SimId
	simcfg.OutputDir = args.OutputDir
	simcfg.Seed = args.Seed
	simcfg.ReadOnly = args.ReadOnly
	simcfg.AutoGo = args.AutoGo
	simcfg.CqiTrace = args.CqiTrace
	simcfg.StatsLog = args.StatsLog
	simcfg.LogLevel = level
	simcfg.Speed, err = parseSpeed(args.Speed)
	simplelogger.PanicIfError(err)
	simcfg.Radio, err = radiomodel.ParseModelType(args.Radio)
	simplelogger.FatalIfError(err)

	var scenario *simulation.YamlConfigFile
	if len(args.Scenario) > 0 {
		if scenario, err = simulation.LoadYamlConfigFile(args.Scenario); err != nil {
			simplelogger.Errorf("%v", err)
			return nil
		}
		if err = scenario.ApplyRunConfig(simcfg); err != nil {
			simplelogger.Errorf("scenario %s: %v", args.Scenario, err)
			return nil
		}
	}
	if len(args.Discipline) > 0 {
		simcfg.Scheduler.Discipline, err = ParseSchedDiscipline(args.Discipline)
		simplelogger.FatalIfError(err)
	}

	sim, err := simulation.NewSimulation(ctx, simcfg)
	simplelogger.FatalIfError(err)
	if scenario != nil {
		if err = sim.ImportScenario(scenario); err != nil {
			simplelogger.Errorf("scenario %s: %v", args.Scenario, err)
		}
	}
	return sim
}
