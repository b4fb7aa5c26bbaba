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

// Package optimizer implements per-coordinate update rules for SGD.
//
// A Slot accumulates state for one parameter buffer. Slots are updated by many workers
// at once without synchronization, the same way as the parameters they are bound to.
package optimizer

import (
	"strings"

	"github.com/chewxy/math32"
	"github.com/juju/errors"
)

const (
	AdaGradName = "adagrad"
	AdamName    = "adam"
)

// Optimizer creates update state for parameter buffers.
type Optimizer interface {
	Bind(param []float32) Slot
}

// Slot applies gradients to the buffer it was bound to.
type Slot interface {
	Update(i int, g float32)
}

// New creates an optimizer by name.
func New(name string, lr float32) (Optimizer, error) {
	switch strings.ToLower(name) {
	case AdaGradName:
		return NewAdaGrad(lr), nil
	case AdamName:
		return NewAdam(lr), nil
	default:
		return nil, errors.NotSupportedf("optimizer %q", name)
	}
}

// AdaGrad scales the learning rate of each coordinate by its gradient history.
type AdaGrad struct {
	Lr float32
}

func NewAdaGrad(lr float32) *AdaGrad {
	return &AdaGrad{Lr: lr}
}

// Bind allocates an accumulator initialized to 1.
func (opt *AdaGrad) Bind(param []float32) Slot {
	acc := make([]float32, len(param))
	for i := range acc {
		acc[i] = 1
	}
	return &adaGradSlot{lr: opt.Lr, param: param, acc: acc}
}

type adaGradSlot struct {
	lr    float32
	param []float32
	acc   []float32
}

func (s *adaGradSlot) Update(i int, g float32) {
	s.acc[i] += g * g
	s.param[i] -= s.lr * g / math32.Sqrt(s.acc[i])
}

// Adam keeps first and second moment estimates. The bias correction uses the constant
// denominators (1-Beta1) and (1-Beta2) at every step, not (1-Beta^t).
type Adam struct {
	Alpha float32
	Beta1 float32
	Beta2 float32
	Eps   float32
}

func NewAdam(alpha float32) *Adam {
	return &Adam{Alpha: alpha, Beta1: 0.9, Beta2: 0.999, Eps: 1e-8}
}

// Bind allocates zero moment estimates.
func (opt *Adam) Bind(param []float32) Slot {
	return &adamSlot{
		Adam:  *opt,
		param: param,
		m:     make([]float32, len(param)),
		v:     make([]float32, len(param)),
	}
}

type adamSlot struct {
	Adam
	param []float32
	m     []float32
	v     []float32
}

func (s *adamSlot) Update(i int, g float32) {
	s.m[i] = s.Beta1*s.m[i] + (1-s.Beta1)*g
	s.v[i] = s.Beta2*s.v[i] + (1-s.Beta2)*g*g
	mHat := s.m[i] / (1 - s.Beta1)
	vHat := s.v[i] / (1 - s.Beta2)
	s.param[i] -= s.Alpha * mHat / (math32.Sqrt(vHat) + s.Eps)
}
