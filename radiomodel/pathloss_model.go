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

import "math"

// custom parameter rounding function
func paround(param float64) float64 {
	return math.Round(param*100.0) / 100.0
}

func distance3d(d2D, hTx, hRx float64) float64 {
	d3 := math.Sqrt(d2D*d2D + (hTx-hRx)*(hTx-hRx))
	return math.Max(d3, minDistanceM)
}

// breakpointDistance as in 3GPP TR 38.901 Table 7.4.1-1 note 1, effective environment height 1 m.
func breakpointDistance(fcGhz, hTx, hRx float64) float64 {
	const c = 3.0e8
	return 4 * (hTx - 1.0) * (hRx - 1.0) * fcGhz * 1e9 / c
}

// pathlossUmaLos is the UMa LOS pathloss in dB over a 2D distance in meters.
func pathlossUmaLos(d2D, fcGhz, hTx, hRx float64) DbValue {
	d3 := distance3d(d2D, hTx, hRx)
	dBP := breakpointDistance(fcGhz, hTx, hRx)
	if d2D < dBP {
		return 28.0 + 22*math.Log10(d3) + 20*math.Log10(fcGhz)
	}
	return 28.0 + 40*math.Log10(d3) + 20*math.Log10(fcGhz) -
		9*math.Log10(dBP*dBP+(hTx-hRx)*(hTx-hRx))
}

// pathlossUma is the UMa NLOS pathloss, never below the LOS one.
func pathlossUma(d2D, fcGhz, hTx, hRx float64) DbValue {
	d3 := distance3d(d2D, hTx, hRx)
	nlos := 13.54 + 39.08*math.Log10(d3) + 20*math.Log10(fcGhz) - 0.6*(hRx-1.5)
	return math.Max(pathlossUmaLos(d2D, fcGhz, hTx, hRx), nlos)
}

// pathlossIndoor is the InH office pathloss, the maximum of the LOS and NLOS formulas.
func pathlossIndoor(d2D, fcGhz, hTx, hRx float64) DbValue {
	d3 := distance3d(d2D, hTx, hRx)
	los := 32.4 + 17.3*math.Log10(d3) + 20*math.Log10(fcGhz)
	nlos := 17.3 + 38.3*math.Log10(d3) + 24.9*math.Log10(fcGhz)
	return math.Max(los, nlos)
}

// computeRxPower computes the received power of a transmission from tx at rx, fading excluded.
func computeRxPower(tx *RadioNode, rx *RadioNode, params *Params) DbValue {
	d2D := tx.Distance2d(rx)
	var pl DbValue
	switch params.Type {
	case ModelIndoor:
		pl = pathlossIndoor(d2D, params.CarrierGhz, tx.HeightM, rx.HeightM)
	default:
		pl = pathlossUma(d2D, params.CarrierGhz, tx.HeightM, rx.HeightM)
	}
	return tx.TxPowerDbm - paround(pl)
}
