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

// Package rantester runs a complete simulator instance in-process and drives it through its console
// and gRPC control service, for end-to-end tests.
package rantester

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/simonlingoogle/go-simplelogger"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
	"gopkg.in/yaml.v3"

	"github.com/ransim/ran-ns/cli/runcli"
	"github.com/ransim/ran-ns/ctrlserver"
	"github.com/ransim/ran-ns/progctx"
	"github.com/ransim/ran-ns/ran_main"
	"github.com/ransim/ran-ns/simulation"
	. "github.com/ransim/ran-ns/types"
)

const (
	GrpcAddr = "localhost:18999"
)

var (
	stdinPipeFile             = "stdin.namedpipe"
	stdoutPipeFile            = "stdout.namedpipe"
	ranTestSingleton *RanTest = nil
)

type RanTest struct {
	*testing.T

	stdin         *os.File
	stdout        *os.File
	simDone       chan struct{}
	pendingOutput chan string
	ctx           *progctx.ProgCtx
	grpcConn      *grpc.ClientConn
	client        ctrlserver.ControlClient
}

// UeInfo is one line of the `ues` command output.
type UeInfo struct {
	Id    NodeId  `yaml:"id"`
	Cell  NodeId  `yaml:"cell"`
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	CqiDl int     `yaml:"cqi_dl"`
	CqiUl int     `yaml:"cqi_ul"`
	D2d   bool    `yaml:"d2d"`
	Flows int     `yaml:"flows"`
}

// FlowInfo is one line of the `flows` command output.
type FlowInfo struct {
	Ue        NodeId  `yaml:"ue"`
	Lcid      int     `yaml:"lcid"`
	Dir       string  `yaml:"dir"`
	Peer      NodeId  `yaml:"peer"`
	Sent      uint64  `yaml:"sent"`
	Delivered uint64  `yaml:"delivered"`
	Rate      float64 `yaml:"rate"`
}

func (rt *RanTest) Go(duration time.Duration) {
	rt.sendCommandf("go %dus", duration.Microseconds())
	rt.expectDone()
}

func (rt *RanTest) Join() {
	<-rt.simDone
}

func (rt *RanTest) AddCell(x int, y int) NodeId {
	rt.sendCommandf("add cell x %d y %d", x, y)
	return rt.expectCommandResultInt()
}

func (rt *RanTest) AddUe(cell NodeId, x int, y int, cqi int) NodeId {
	rt.sendCommandf("add ue x %d y %d cell %d cqi %d", x, y, cell, cqi)
	return rt.expectCommandResultInt()
}

// AddFlow starts a flow of the UE and returns its logical channel ID.
func (rt *RanTest) AddFlow(ue NodeId, dir string, rate int) int {
	rt.sendCommandf("flow %d dir %s rate %d", ue, dir, rate)
	return rt.expectCommandResultInt()
}

func (rt *RanTest) sendCommand(cmd string) {
	simplelogger.Infof("> %s", cmd)
	_, err := rt.stdin.WriteString(cmd + "\n")
	simplelogger.PanicIfError(err)
}

func (rt *RanTest) sendCommandf(format string, args ...interface{}) {
	rt.sendCommand(fmt.Sprintf(format, args...))
}

func (rt *RanTest) stdoutReadRoutine() {
	simplelogger.Infof("stdout reader started.")

	scanner := bufio.NewScanner(rt.stdout)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		line := strings.TrimPrefix(scanner.Text(), "> ")
		simplelogger.Infof("read stdout: %#v", line)
		rt.pendingOutput <- line
	}
}

func (rt *RanTest) expectDone() {
	rt.expectCommandResultLines()
}

func (rt *RanTest) expectCommandResultLines() (output []string) {
	deadline := time.After(time.Second * 30)
loop:
	for {
		select {
		case line := <-rt.pendingOutput:
			if line == "Done" {
				break loop
			} else if strings.HasPrefix(line, "Error") {
				simplelogger.Panicf("%s", line)
			} else if len(line) > 0 {
				output = append(output, line)
			}
		case <-deadline:
			simplelogger.Panicf("command timeout, output so far: %#v", output)
		}
	}

	simplelogger.Infof("expectCommandResultLines: %#v", output)
	return
}

func (rt *RanTest) expectCommandResultInt() int {
	lines := rt.expectCommandResultLines()
	simplelogger.AssertTrue(len(lines) == 1)

	v, err := strconv.Atoi(lines[0])
	simplelogger.PanicIfError(err)

	return v
}

func (rt *RanTest) Shutdown() {
	rt.ctx.Cancel(nil)
	rt.Join()
	if rt.grpcConn != nil {
		_ = rt.grpcConn.Close()
	}
}

func (rt *RanTest) SetSpeed(speed float64) {
	_, err := rt.client.SetSpeed(context.Background(), wrapperspb.Double(speed))
	rt.ExpectNoError(err)
}

func (rt *RanTest) Start(testFunc string) {
	rt.Reset()
	simplelogger.Infof("Go test Start(): %v", testFunc)
}

// Reset removes all UEs with their flows and restores the default discipline and speed. Cells are
// kept since they cannot be deleted.
func (rt *RanTest) Reset() {
	rt.SetSpeed(simulation.MaxSimulateSpeed)
	rt.RemoveAllUes()
	rt.Command("sched maxci")
	rt.Go(time.Millisecond * 10)
}

func (rt *RanTest) RemoveAllUes() {
	ues := rt.ListUes()
	simplelogger.Infof("Remove all UEs: %+v", ues)
	ids := make([]NodeId, 0, len(ues))
	for id := range ues {
		ids = append(ids, id)
	}
	rt.DeleteUe(ids...)
}

func (rt *RanTest) ListUes() map[NodeId]*UeInfo {
	var items []*UeInfo
	rt.parseYamlLines(rt.Command("ues"), &items)
	ues := map[NodeId]*UeInfo{}
	for _, ue := range items {
		ues[ue.Id] = ue
	}
	return ues
}

func (rt *RanTest) ListFlows() []*FlowInfo {
	var items []*FlowInfo
	rt.parseYamlLines(rt.Command("flows"), &items)
	return items
}

func (rt *RanTest) parseYamlLines(lines []string, out interface{}) {
	if len(lines) == 0 {
		return
	}
	err := yaml.Unmarshal([]byte(strings.Join(lines, "\n")), out)
	rt.ExpectNoError(err)
}

// Kpi fetches the KPIs of the current period over the control service.
func (rt *RanTest) Kpi() map[string]interface{} {
	kpi, err := rt.client.Kpi(context.Background(), &emptypb.Empty{})
	rt.ExpectNoError(err)
	return kpi.AsMap()
}

func (rt *RanTest) ExpectNoError(err error) {
	if err != nil {
		rt.Shutdown()
	}
	assert.Nil(rt, err, "unexpected error")
	if err != nil {
		rt.FailNow()
	}
}

func (rt *RanTest) ExpectTrue(value bool, msgAndArgs ...interface{}) {
	if !value {
		rt.Shutdown()
	}
	assert.True(rt, value, msgAndArgs...)

	if !value {
		rt.FailNow()
	}
}

func (rt *RanTest) ExpectEqual(expected interface{}, actual interface{}) {
	if !assert.ObjectsAreEqual(expected, actual) {
		rt.Shutdown()
	}
	assert.Equal(rt, expected, actual)
	if !assert.ObjectsAreEqual(expected, actual) {
		rt.FailNow()
	}
}

func (rt *RanTest) DeleteUe(ids ...NodeId) {
	if len(ids) == 0 {
		return
	}

	cmd := "del"
	for _, id := range ids {
		cmd = cmd + fmt.Sprintf(" %d", id)
	}
	rt.Command(cmd)
}

func (rt *RanTest) Command(cmd string) []string {
	rt.sendCommand(cmd)
	return rt.expectCommandResultLines()
}

func (rt *RanTest) Commandf(format string, args ...interface{}) []string {
	rt.sendCommandf(format, args...)
	return rt.expectCommandResultLines()
}

// RemoteCommand runs a CLI command over the control service.
func (rt *RanTest) RemoteCommand(cmd string) string {
	out, err := rt.client.Command(context.Background(), wrapperspb.String(cmd))
	rt.ExpectNoError(err)
	return out.GetValue()
}

func Instance(t *testing.T) *RanTest {
	if ranTestSingleton == nil {
		ranTestSingleton = NewRanTest(t)
	}
	ranTestSingleton.T = t
	return ranTestSingleton
}

func NewRanTest(t *testing.T) *RanTest {
	// ensure test is run from the repo base directory.
	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..")
	err := os.Chdir(dir)
	if err != nil {
		panic(err)
	}

	rt := &RanTest{
		T:             t,
		simDone:       make(chan struct{}),
		pendingOutput: make(chan string, 1000),
	}

	os.Args = append(os.Args, "-log", "debug", "-autogo=false", "-seed", "1", "-radio", "fixed",
		"-speed", "max", "-grpc", GrpcAddr, "-out", os.TempDir())

	_ = os.Remove(stdinPipeFile)
	_ = os.Remove(stdoutPipeFile)

	err = syscall.Mkfifo(stdinPipeFile, 0644)
	simplelogger.PanicIfError(err)

	rt.stdin, err = os.OpenFile(stdinPipeFile, os.O_RDWR, os.ModeNamedPipe)
	simplelogger.PanicIfError(err)

	err = syscall.Mkfifo(stdoutPipeFile, 0644)
	simplelogger.PanicIfError(err)

	rt.stdout, err = os.OpenFile(stdoutPipeFile, os.O_RDWR, os.ModeNamedPipe)
	simplelogger.PanicIfError(err)

	rt.ctx = progctx.New(context.Background())

	go func() {
		defer func() {
			simplelogger.Infof("simulator exited.")
			close(rt.simDone)
		}()

		ran_main.Main(rt.ctx, &runcli.CliOptions{
			EchoInput: false,
			Stdin:     rt.stdin,
			Stdout:    rt.stdout,
		})
	}()

	rt.grpcConn, err = grpc.Dial(GrpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	rt.ExpectNoError(err)
	rt.client = ctrlserver.NewControlClient(rt.grpcConn)

	go rt.stdoutReadRoutine()

	// wait until the console and the control service both respond.
	rt.Command("time")
	deadline := time.Now().Add(time.Second * 10)
	for time.Now().Before(deadline) {
		if _, err = rt.client.Command(context.Background(), wrapperspb.String("time")); err == nil {
			break
		}
		time.Sleep(time.Millisecond * 100)
	}
	rt.ExpectNoError(err)
	return rt
}
