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

// Package ctrlserver serves the ransim.Control gRPC service, the remote control surface of a
// running simulation, next to the standard gRPC health service.
package ctrlserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/simulation"
)

type Server struct {
	server  *grpc.Server
	health  *health.Server
	address string
	sim     *simulation.Simulation
	runner  simulation.CmdRunner
	simctrl simulation.SimulationController
}

// NewServer creates the control server of sim. Commands are executed by runner.
func NewServer(address string, sim *simulation.Simulation, runner simulation.CmdRunner) *Server {
	server := grpc.NewServer(grpc.ReadBufferSize(1024*8), grpc.WriteBufferSize(1024*1024*1))
	s := &Server{
		server:  server,
		health:  health.NewServer(),
		address: address,
		sim:     sim,
		runner:  runner,
		simctrl: simulation.NewSimulationController(sim),
	}
	RegisterControlServer(server, s)
	healthpb.RegisterHealthServer(server, s.health)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s
}

func (s *Server) Command(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	var output bytes.Buffer
	logger.Debugf("gRPC command: %s", req.GetValue())
	if err := s.runner.RunCommand(req.GetValue(), &output); err != nil {
		return wrapperspb.String(output.String()), status.Error(codes.Unavailable, err.Error())
	}
	return wrapperspb.String(output.String()), nil
}

func (s *Server) Kpi(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	var data []byte
	var err error
	done := make(chan struct{})
	if !s.sim.PostAsync(false, func() {
		defer close(done)
		data, err = json.Marshal(s.sim.GetKpiManager().Data())
	}) {
		return nil, status.Error(codes.Unavailable, simulation.CommandInterruptedError.Error())
	}
	select {
	case <-done:
	case <-ctx.Done():
		return nil, status.FromContextError(ctx.Err()).Err()
	}
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	var kpi map[string]interface{}
	if err = json.Unmarshal(data, &kpi); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	res, err := structpb.NewStruct(kpi)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return res, nil
}

func (s *Server) SetSpeed(ctx context.Context, req *wrapperspb.DoubleValue) (*emptypb.Empty, error) {
	if req.GetValue() < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "speed %v is negative", req.GetValue())
	}
	return &emptypb.Empty{}, ctrlStatus(s.simctrl.CtrlSetSpeed(req.GetValue()))
}

func (s *Server) DeleteUe(ctx context.Context, req *wrapperspb.Int32Value) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, ctrlStatus(s.simctrl.CtrlDeleteUe(int(req.GetValue())))
}

func ctrlStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, simulation.CommandInterruptedError):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.PermissionDenied, err.Error())
	}
}

// Run listens on the server address and serves until Stop.
func (s *Server) Run() error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return errors.Wrapf(err, "control server")
	}
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	logger.Infof("gRPC control server serving on %s ...", lis.Addr())
	return s.server.Serve(lis)
}

func (s *Server) Stop() {
	s.health.Shutdown()
	s.server.Stop()
}
