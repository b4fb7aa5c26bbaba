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

package model

import (
	"github.com/gorse-io/mfkit/base"
)

// Model is the interface for all models.
type Model interface {
	SetParams(params Params)
	GetParams() Params
}

// BaseModel must be included by every model. Hyper-parameters and the random generator
// are managed by the BaseModel.
type BaseModel struct {
	Params    Params               // Hyper-parameters
	rng       base.RandomGenerator // Random generator
	randState int64                // Random seed
}

// SetParams sets a copy of hyper-parameters and reseeds the random generator.
func (model *BaseModel) SetParams(params Params) {
	model.Params = params.Copy()
	model.randState = model.Params.GetInt64(RandomState, 0)
	model.rng = base.NewRandomGenerator(model.randState)
}

// GetParams returns all hyper-parameters.
func (model *BaseModel) GetParams() Params {
	return model.Params
}

func (model *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return model.rng
}

// ResetRandomGenerator reseeds the random generator with RandomState, so that
// successive fits of the same model draw the same numbers.
func (model *BaseModel) ResetRandomGenerator() base.RandomGenerator {
	model.rng = base.NewRandomGenerator(model.randState)
	return model.rng
}
