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
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	. "github.com/ransim/ran-ns/types"
)

// YamlConfigFile is a scenario file: cells, UEs, traffic and the run parameters that override the
// defaults. Pointer fields are optional.
type YamlConfigFile struct {
	NetworkConfig   YamlNetworkConfig    `yaml:"network"`
	HarqConfig      *YamlHarqConfig      `yaml:"harq,omitempty"`
	SchedulerConfig *YamlSchedulerConfig `yaml:"scheduler,omitempty"`
	CompConfig      *YamlCompLinkConfig  `yaml:"comp,omitempty"`
	CellsList       []YamlCellConfig     `yaml:"cells"`
	UesList         []YamlUeConfig       `yaml:"ues"`
	FlowsList       []YamlFlowConfig     `yaml:"flows,omitempty"`
	D2dGroupsList   []YamlD2dGroupConfig `yaml:"d2d,omitempty"`
}

type YamlNetworkConfig struct {
	Position [2]float64 `yaml:"pos-shift,flow"`
	BaseId   *int       `yaml:"base-id,omitempty"`
}

type YamlHarqConfig struct {
	Processes  *int `yaml:"processes,omitempty"`
	MaxRtx     *int `yaml:"max-rtx,omitempty"`
	FbTimer    *int `yaml:"fb-timer,omitempty"`
	Numerology *int `yaml:"numerology,omitempty"`
}

type YamlSchedulerConfig struct {
	Discipline    *string  `yaml:"discipline,omitempty"`
	PfAlpha       *float64 `yaml:"pf-alpha,omitempty"`
	PfEpsilon     *float64 `yaml:"pf-epsilon,omitempty"`
	Codewords     *int     `yaml:"codewords,omitempty"`
	Bands         *int     `yaml:"bands,omitempty"`
	BlocksPerBand *int     `yaml:"blocks-per-band,omitempty"`
}

// YamlCompLinkConfig configures the X2 link between coordinated cells.
type YamlCompLinkConfig struct {
	LatencyTtis     int     `yaml:"latency"`
	DropProbability float64 `yaml:"drop,omitempty"`
}

type YamlCellConfig struct {
	ID       NodeId        `yaml:"id"`
	Position [2]float64    `yaml:"pos,flow"`
	Comp     *YamlCellComp `yaml:"comp,omitempty"`
}

type YamlCellComp struct {
	Type        string   `yaml:"type"`
	Coordinator NodeId   `yaml:"coordinator,omitempty"`
	Clients     []NodeId `yaml:"clients,omitempty,flow"`
	PeriodMs    float64  `yaml:"period-ms,omitempty"`
}

type YamlUeConfig struct {
	ID       NodeId      `yaml:"id"`
	Cell     NodeId      `yaml:"cell,omitempty"`
	Position *[2]float64 `yaml:"pos,omitempty,flow"`
	Cqi      *int        `yaml:"cqi,omitempty"`
	D2d      bool        `yaml:"d2d,omitempty"`
}

type YamlFlowConfig struct {
	Ue         NodeId  `yaml:"ue"`
	Lcid       *int    `yaml:"lcid,omitempty"`
	Dir        string  `yaml:"dir"`
	Peer       NodeId  `yaml:"peer,omitempty"`
	Class      string  `yaml:"class,omitempty"`
	Model      string  `yaml:"model,omitempty"`
	Rate       float64 `yaml:"rate"`
	PacketSize uint    `yaml:"packet-size,omitempty"`
	StartMs    float64 `yaml:"start-ms,omitempty"`
	StopMs     float64 `yaml:"stop-ms,omitempty"`
}

// YamlD2dGroupConfig is a D2D multicast group.
type YamlD2dGroupConfig struct {
	ID      NodeId   `yaml:"id"`
	Members []NodeId `yaml:"members,flow"`
}

// ParseYamlConfig parses a scenario from YAML text.
func ParseYamlConfig(data []byte) (*YamlConfigFile, error) {
	cfgFile := &YamlConfigFile{}
	if err := yaml.Unmarshal(data, cfgFile); err != nil {
		return nil, errors.Wrapf(err, "parsing scenario")
	}
	return cfgFile, nil
}

func LoadYamlConfigFile(filename string) (*YamlConfigFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseYamlConfig(data)
}

// ApplyRunConfig copies the run parameters of the scenario into cfg. It must be applied before
// the simulation is created.
func (y *YamlConfigFile) ApplyRunConfig(cfg *Config) error {
	if h := y.HarqConfig; h != nil {
		setIfPresent(&cfg.Harq.NumProcesses, h.Processes)
		setIfPresent(&cfg.Harq.MaxHarqRtx, h.MaxRtx)
		setIfPresent(&cfg.Harq.FbEvaluationTimer, h.FbTimer)
		setIfPresent(&cfg.Harq.Numerology, h.Numerology)
		cfg.Scheduler.Numerology = cfg.Harq.Numerology
		if cfg.Scheduler.MaxNumerology < cfg.Harq.Numerology {
			cfg.Scheduler.MaxNumerology = cfg.Harq.Numerology
		}
		cfg.Bus.Tti = cfg.Tti()
	}
	if sc := y.SchedulerConfig; sc != nil {
		if sc.Discipline != nil {
			d, err := ParseSchedDiscipline(*sc.Discipline)
			if err != nil {
				return err
			}
			cfg.Scheduler.Discipline = d
		}
		setIfPresent(&cfg.Scheduler.PfAlpha, sc.PfAlpha)
		setIfPresent(&cfg.Scheduler.PfEpsilon, sc.PfEpsilon)
		setIfPresent(&cfg.Scheduler.Codewords, sc.Codewords)
		setIfPresent(&cfg.NumBands, sc.Bands)
		setIfPresent(&cfg.BlocksPerBand, sc.BlocksPerBand)
	}
	if cc := y.CompConfig; cc != nil {
		cfg.Bus.LatencyTtis = cc.LatencyTtis
		cfg.Bus.DropProbability = cc.DropProbability
	}
	return nil
}

func setIfPresent[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
