// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package base holds utilities shared by all models.
package base

import (
	"math/rand"
)

// RandomGenerator is the random generator used by model initialization, shuffling and
// negative sampling. It is not safe for concurrent use: all draws happen before the
// parallel phase of training.
type RandomGenerator struct {
	*rand.Rand
}

// NewRandomGenerator creates a RandomGenerator.
func NewRandomGenerator(seed int64) RandomGenerator {
	return RandomGenerator{rand.New(rand.NewSource(seed))}
}

// UniformVector makes a vec filled with uniform random floats in [low, high).
func (rng RandomGenerator) UniformVector(size int, low, high float32) []float32 {
	ret := make([]float32, size)
	rng.FillUniform(ret, low, high)
	return ret
}

// FillUniform fills dst with uniform random floats in [low, high).
func (rng RandomGenerator) FillUniform(dst []float32, low, high float32) {
	scale := high - low
	for i := range dst {
		dst[i] = rng.Float32()*scale + low
	}
}

// Shuffle permutes a in place with draws from rng.
func Shuffle[T any](rng RandomGenerator, a []T) {
	rng.Rand.Shuffle(len(a), func(i, j int) {
		a[i], a[j] = a[j], a[i]
	})
}
