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

package base

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestRandomGenerator_UniformVector(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := rng.UniformVector(1000, 1, 2)
	assert.Len(t, vec, 1000)
	assert.GreaterOrEqual(t, lo.Min(vec), float32(1))
	assert.Less(t, lo.Max(vec), float32(2))
	mean := lo.Sum(vec) / float32(len(vec))
	assert.InDelta(t, 1.5, mean, 0.1)
}

func TestRandomGenerator_FillUniform(t *testing.T) {
	rng := NewRandomGenerator(0)
	vec := make([]float32, 300)
	rng.FillUniform(vec, -0.5, 0.5)
	assert.GreaterOrEqual(t, lo.Min(vec), float32(-0.5))
	assert.Less(t, lo.Max(vec), float32(0.5))
}

func TestRandomGenerator_Deterministic(t *testing.T) {
	a := NewRandomGenerator(42)
	b := NewRandomGenerator(42)
	assert.Equal(t, a.UniformVector(10, 0, 1), b.UniformVector(10, 0, 1))
	x := lo.Range(20)
	y := lo.Range(20)
	Shuffle(a, x)
	Shuffle(b, y)
	assert.Equal(t, x, y)
	assert.ElementsMatch(t, lo.Range(20), x)
}

func TestShuffle(t *testing.T) {
	rng := NewRandomGenerator(0)
	type pair struct{ a, b int }
	x := lo.Map(lo.Range(50), func(i, _ int) pair { return pair{i, -i} })
	Shuffle(rng, x)
	assert.ElementsMatch(t, lo.Map(lo.Range(50), func(i, _ int) pair { return pair{i, -i} }), x)
	assert.NotEqual(t, lo.Map(lo.Range(50), func(i, _ int) pair { return pair{i, -i} }), x)
	Shuffle(rng, []pair{})
}
