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


package radiomodel

import (
	"github.com/pkg/errors"
)

// DbValue is a power or power ratio in dB or dBm.
type DbValue = float64

// default radio parameters
const (
	defaultNoiseFloorDbm   DbValue = -95.0 // thermal noise over 10 MHz plus a 9 dB receiver noise figure
	defaultCellTxPowerDbm  DbValue = 46.0
	defaultUeTxPowerDbm    DbValue = 23.0
	defaultCarrierGhz      float64 = 2.0
	defaultCellHeightM     float64 = 25.0
	defaultUeHeightM       float64 = 1.5
	minDistanceM           float64 = 1.0
	defaultMeanFadingTimeS float64 = 0.05
)

type ModelType int

const (
	ModelUma ModelType = iota
	ModelIndoor
	ModelFixed
)

func (t ModelType) String() string {
	switch t {
	case ModelUma:
		return "uma"
	case ModelIndoor:
		return "indoor"
	case ModelFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

func ParseModelType(s string) (ModelType, error) {
	switch s {
	case "uma", "UMa":
		return ModelUma, nil
	case "indoor":
		return ModelIndoor, nil
	case "fixed":
		return ModelFixed, nil
	default:
		return ModelUma, errors.Errorf("unknown radio model: %s", s)
	}
}

// Params stores the parameters of the channel model.
type Params struct {
	Type                  ModelType
	CarrierGhz            float64 // carrier frequency
	NoiseFloorDbm         DbValue // noise over the carrier bandwidth
	CellTxPowerDbm        DbValue
	UeTxPowerDbm          DbValue
	CellHeightM           float64
	UeHeightM             float64
	ShadowFadingSigmaDb   DbValue // sigma (stddev) of the per-link shadow fading
	TimeFadingSigmaMaxDb  DbValue // max sigma of the time-variant fading
	MeanTimeFadingChange  float64 // mean time in sec between time-variant fading changes
	InterCellInterference bool    // other cells transmit on the same bands in downlink
	FixedCqi              int     // CQI of every link with ModelFixed
}

// NewParams returns the parameters of the given model with default values.
func NewParams(t ModelType) *Params {
	p := &Params{
		Type:                  t,
		CarrierGhz:            defaultCarrierGhz,
		NoiseFloorDbm:         defaultNoiseFloorDbm,
		CellTxPowerDbm:        defaultCellTxPowerDbm,
		UeTxPowerDbm:          defaultUeTxPowerDbm,
		CellHeightM:           defaultCellHeightM,
		UeHeightM:             defaultUeHeightM,
		MeanTimeFadingChange:  defaultMeanFadingTimeS,
		InterCellInterference: true,
		FixedCqi:              15,
	}
	switch t {
	case ModelUma:
		setUmaModelParams(p)
	case ModelIndoor:
		setIndoorModelParams(p)
	case ModelFixed:
		p.InterCellInterference = false
	}
	return p
}

// see 3GPP TR 38.901 V17.0.0, Table 7.4.1-1 (UMa NLOS).
func setUmaModelParams(p *Params) {
	p.ShadowFadingSigmaDb = 6.0
	p.TimeFadingSigmaMaxDb = 4.0
}

// see 3GPP TR 38.901 V17.0.0, Table 7.4.1-1 (InH office).
func setIndoorModelParams(p *Params) {
	p.CellTxPowerDbm = 24.0
	p.CellHeightM = 3.0
	p.ShadowFadingSigmaDb = 8.03
	p.TimeFadingSigmaMaxDb = 4.0
}
