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
	"math/rand"

	"github.com/ransim/ran-ns/logger"
	"github.com/ransim/ran-ns/prng"
	. "github.com/ransim/ran-ns/types"
)

const (
	initialCacheSize = 1000
	maxCacheSize     = 1000000
)

type fadingModel struct {
	rndSeed          int64
	rnd              *rand.Rand
	ts               SimTime
	shFadeMap        map[int64]DbValue
	tvFadeMap        map[int64]DbValue
	tvFadeSigmaMap   map[int64]DbValue
	changeTvfTimeMap map[int64]SimTime
}

func newFadingModel() *fadingModel {
	seed := int64(prng.NewRadioModelRandomSeed())
	sf := &fadingModel{
		rndSeed: seed,
		rnd:     rand.New(rand.NewSource(seed)),
	}
	sf.clearCaches()
	return sf
}

// computeFading calculates shadow fading (SF) and time-variant fading (TVF) for a radio link.
//
// SF models a fixed attenuation (SF>0) or gain (SF<0) of the link due to obstacles, drawn once per
// link from a normal distribution (mu=0, sigma). The link is symmetric, reversing roles gives the
// same SF value. See 3GPP TR 38.901 V17.0.0, section 7.4.1 and 7.4.4.
//
// TVF is redrawn at exponentially distributed intervals with a per-link sigma. It makes the reported
// CQI of a static UE move over time, which is what exercises the schedulers and HARQ.
func (sf *fadingModel) computeFading(src *RadioNode, dst *RadioNode, params *Params) DbValue {
	// each unique link gets a unique random seed
	seed := sf.rndSeed + calcLinkUID(src, dst)

	var vSF, vTVF float64
	if v, ok := sf.shFadeMap[seed]; ok {
		vSF = v
		vTVF = sf.tvFadeMap[seed]
		if sf.ts > sf.changeTvfTimeMap[seed] {
			sigmaTVF := sf.tvFadeSigmaMap[seed]
			vTVF = sf.rnd.NormFloat64() * sigmaTVF
			sf.tvFadeMap[seed] = vTVF
			sf.changeTvfTimeMap[seed] = sf.nextChangeTime(params)
		}
	} else {
		rnd := rand.New(rand.NewSource(seed))

		// SF and the TVF sigma are reproducible per link
		vSF = rnd.NormFloat64() * params.ShadowFadingSigmaDb
		sf.shFadeMap[seed] = vSF
		sigmaTVF := rnd.Float64() * params.TimeFadingSigmaMaxDb
		sf.tvFadeSigmaMap[seed] = sigmaTVF

		vTVF = sf.rnd.NormFloat64() * sigmaTVF
		sf.tvFadeMap[seed] = vTVF
		sf.changeTvfTimeMap[seed] = sf.nextChangeTime(params)
	}

	return vSF + vTVF
}

func (sf *fadingModel) nextChangeTime(params *Params) SimTime {
	nextChangeDeltaSec := sf.rnd.ExpFloat64() * params.MeanTimeFadingChange
	return sf.ts + SimTime(nextChangeDeltaSec*1e6)
}

func (sf *fadingModel) onAdvanceTime(ts SimTime) {
	if len(sf.shFadeMap) > maxCacheSize {
		sf.clearCaches()
	}
	sf.ts = ts
}

func (sf *fadingModel) clearCaches() {
	logger.Debugf("Radio fading model: purging fadeMap caches")
	sf.shFadeMap = make(map[int64]DbValue, initialCacheSize)
	sf.tvFadeSigmaMap = make(map[int64]DbValue, initialCacheSize)
	sf.tvFadeMap = make(map[int64]DbValue, initialCacheSize)
	sf.changeTvfTimeMap = make(map[int64]SimTime, initialCacheSize)
}

// calcLinkUID gives each unordered node pair its own int64 value.
func calcLinkUID(src *RadioNode, dst *RadioNode) int64 {
	lo, hi := src.Id, dst.Id
	if lo > hi {
		lo, hi = hi, lo
	}
	return int64(uint32(lo)) + int64(uint32(hi))<<32
}
