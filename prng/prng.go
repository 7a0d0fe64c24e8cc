// Copyright (c) 2023-2024, The OTNS Authors.
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

// Package prng provides the seeded pseudo-random generators of a simulation run. Each concern draws
// from its own generator, so that e.g. adding a UE does not perturb the decoder outcomes of others.
package prng

import (
	"math/rand"
	"time"
)

type RandomSeed int64

var (
	rootSeedUsed            int64
	newNodeSeedGenerator    *rand.Rand
	decoderRandGenerator    *rand.Rand
	scoreJitterGenerator    *rand.Rand
	compLinkDropGenerator   *rand.Rand
	radioModelSeedGenerator *rand.Rand
)

func init() {
	Init(1)
}

// Init initializes the prng package, either with a fixed PRNG seed (rootSeed != 0) or a 'random' time-based PRNG
// seed (if rootSeed == 0).
func Init(rootSeed int64) {
	if rootSeed == 0 {
		rootSeed = time.Now().UnixNano()
	}
	rootSeedUsed = rootSeed
	root := rand.New(rand.NewSource(rootSeed))

	newNodeSeedGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	decoderRandGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	scoreJitterGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	compLinkDropGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
	radioModelSeedGenerator = rand.New(rand.NewSource(rootSeed + root.Int63n(1e10)))
}

// RootSeed returns the seed the generators were initialized with.
func RootSeed() int64 {
	return rootSeedUsed
}

// NewNodeRandomSeed generates unique random-seeds for newly created nodes (e.g. their traffic streams).
func NewNodeRandomSeed() RandomSeed {
	return RandomSeed(newNodeSeedGenerator.Int63())
}

// NewRadioModelRandomSeed generates the seed of a new radio model instance.
func NewRadioModelRandomSeed() RandomSeed {
	return RandomSeed(radioModelSeedGenerator.Int63())
}

// NewDecoderRandom draws a unit [0, 1) value that decides whether a received transport block decodes.
func NewDecoderRandom() float64 {
	return decoderRandGenerator.Float64()
}

// NewScoreJitter draws a value uniformly from [-eps/2, eps/2], used to perturb PF scores.
func NewScoreJitter(eps float64) float64 {
	return (scoreJitterGenerator.Float64() - 0.5) * eps
}

// NewCompLinkRandom draws a unit [0, 1) value for dropping Comp messages on the X2 link.
func NewCompLinkRandom() float64 {
	return compLinkDropGenerator.Float64()
}
