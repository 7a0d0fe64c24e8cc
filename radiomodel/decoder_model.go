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
	"math"

	"github.com/ransim/ran-ns/amc"
)

const (
	targetBler = 0.1
	// blerSlope is the steepness of the BLER waterfall, per dB of SINR.
	blerSlope = 1.5
)

// cqiSinrThresholdDb is the SINR at which a CQI reaches the target BLER. Index 0 is out of range.
var cqiSinrThresholdDb = [amc.MaxCqi + 1]DbValue{
	math.Inf(-1), -6.7, -4.7, -2.3, 0.2, 2.4, 4.3, 5.9,
	8.1, 10.3, 11.7, 14.1, 16.3, 18.7, 21.0, 22.7,
}

// SinrToCqi returns the highest CQI whose target BLER is met at the given SINR, 0 if none is.
func SinrToCqi(sinrDb DbValue) int {
	cqi := amc.MinCqi
	for c := 1; c <= amc.MaxCqi; c++ {
		if sinrDb >= cqiSinrThresholdDb[c] {
			cqi = c
		}
	}
	return cqi
}

// ComputeBler returns the block error rate of a transport block sent with the given CQI over a link
// of the given SINR. At the CQI threshold this equals the target BLER.
func ComputeBler(sinrDb DbValue, cqi int) float64 {
	if cqi <= amc.MinCqi {
		return 1.0
	}
	if cqi > amc.MaxCqi {
		cqi = amc.MaxCqi
	}
	offset := math.Log(1/targetBler - 1)
	return 1.0 / (1.0 + math.Exp(blerSlope*(sinrDb-cqiSinrThresholdDb[cqi])+offset))
}
