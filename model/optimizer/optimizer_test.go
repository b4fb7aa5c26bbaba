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

package optimizer

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	opt, err := New("adagrad", 0.1)
	require.NoError(t, err)
	assert.IsType(t, &AdaGrad{}, opt)
	opt, err = New("Adam", 0.1)
	require.NoError(t, err)
	assert.IsType(t, &Adam{}, opt)
	_, err = New("sgd", 0.1)
	assert.True(t, errors.Is(err, errors.NotSupported))
}

func TestAdaGrad(t *testing.T) {
	param := []float32{1, 2}
	slot := NewAdaGrad(0.5).Bind(param).(*adaGradSlot)
	assert.Equal(t, []float32{1, 1}, slot.acc)

	slot.Update(0, 1)
	// acc = 1 + 1, param = 1 - 0.5 * 1 / sqrt(2)
	assert.Equal(t, float32(2), slot.acc[0])
	assert.InDelta(t, 1-0.5/math32.Sqrt(2), param[0], 1e-6)
	assert.Equal(t, float32(2), param[1])

	slot.Update(0, 2)
	// acc = 2 + 4
	assert.Equal(t, float32(6), slot.acc[0])
	assert.InDelta(t, 1-0.5/math32.Sqrt(2)-1/math32.Sqrt(6), param[0], 1e-6)
}

func TestAdaGrad_ZeroGradient(t *testing.T) {
	param := []float32{3}
	slot := NewAdaGrad(0.1).Bind(param)
	slot.Update(0, 0)
	assert.Equal(t, float32(3), param[0])
}

func TestAdam(t *testing.T) {
	param := []float32{1, 1}
	slot := NewAdam(0.01).Bind(param).(*adamSlot)
	assert.Equal(t, []float32{0, 0}, slot.m)
	assert.Equal(t, []float32{0, 0}, slot.v)

	slot.Update(1, 2)
	assert.InDelta(t, 0.2, slot.m[1], 1e-6)
	assert.InDelta(t, 0.004, slot.v[1], 1e-6)
	// mHat = 2, vHat = 4, step = 0.01 * 2 / (2 + 1e-8)
	assert.InDelta(t, 0.99, param[1], 1e-6)
	assert.Equal(t, float32(1), param[0])
}

// The constant bias correction makes the first step of every coordinate equal to
// alpha*sign(g), and later steps keep scaling with the moment estimates only.
func TestAdam_ConstantBiasCorrection(t *testing.T) {
	param := []float32{0}
	slot := NewAdam(0.1).Bind(param).(*adamSlot)
	slot.Update(0, 1)
	assert.InDelta(t, -0.1, param[0], 1e-6)
	slot.Update(0, 1)
	// m = 0.19, v = 0.001999, mHat = 1.9, vHat = 1.999
	m := float32(0.19)
	v := float32(0.001999)
	expected := -0.1 - 0.1*(m/0.1)/(math32.Sqrt(v/0.001)+1e-8)
	assert.InDelta(t, expected, param[0], 1e-5)
	assert.InDelta(t, m, slot.m[0], 1e-6)
	assert.InDelta(t, v, slot.v[0], 1e-6)
}

func TestSlotsAreIndependent(t *testing.T) {
	opt := NewAdaGrad(0.1)
	a := []float32{1}
	b := []float32{1}
	slotA := opt.Bind(a)
	slotB := opt.Bind(b)
	slotA.Update(0, 1)
	assert.Equal(t, float32(1), b[0])
	slotB.Update(0, 1)
	assert.Equal(t, a, b)
}
