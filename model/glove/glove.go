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

// Package glove learns word vectors from a co-occurrence matrix by weighted least
// squares on log counts.
package glove

import (
	"context"

	"github.com/chewxy/math32"
	"github.com/gorse-io/mfkit/base"
	"github.com/gorse-io/mfkit/common/floats"
	"github.com/gorse-io/mfkit/common/log"
	"github.com/gorse-io/mfkit/dataset"
	"github.com/gorse-io/mfkit/model"
	"github.com/gorse-io/mfkit/model/optimizer"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	DefaultNFactors = 50
	DefaultLr       = 0.05
	DefaultAlpha    = 0.75
	DefaultXMax     = 100
)

// GloVe fits two factor matrices and two bias vectors so that
//
//	central[i]·context[j] + bCentral[i] + bContext[j] ≈ log X[i][j]
//
// for every nonzero co-occurrence count X[i][j], each sample weighted by
// f(X) = min((X/xMax)^alpha, 1).
type GloVe struct {
	model.BaseModel
	Central     *model.Matrix
	Context     *model.Matrix
	CentralBias []float32
	ContextBias []float32
	History     []model.Record

	nFactors  int
	lr        float32
	alpha     float32
	xMax      float32
	optimizer string

	centralSlot     optimizer.Slot
	contextSlot     optimizer.Slot
	centralBiasSlot optimizer.Slot
	contextBiasSlot optimizer.Slot
}

func NewGloVe(params model.Params) *GloVe {
	g := new(GloVe)
	g.SetParams(params)
	return g
}

func (g *GloVe) SetParams(params model.Params) {
	g.BaseModel.SetParams(params)
	g.nFactors = g.Params.GetInt(model.NFactors, DefaultNFactors)
	g.lr = g.Params.GetFloat32(model.Lr, DefaultLr)
	g.alpha = g.Params.GetFloat32(model.Alpha, DefaultAlpha)
	g.xMax = g.Params.GetFloat32(model.XMax, DefaultXMax)
	g.optimizer = g.Params.GetString(model.Optimizer, optimizer.AdaGradName)
}

// Weight of a co-occurrence count.
func (g *GloVe) Weight(count float32) float32 {
	if count < g.xMax {
		return math32.Pow(count/g.xMax, g.alpha)
	}
	return 1
}

// Forward returns the weighted squared error of pair (i, j) and the weighted residual
// e = f(count)·(p - log count) consumed by Backward.
func (g *GloVe) Forward(i, j int, count float32) (loss, e float32) {
	p := floats.Dot(g.Central.Row(i), g.Context.Row(j)) + g.CentralBias[i] + g.ContextBias[j]
	diff := p - math32.Log(count)
	f := g.Weight(count)
	return f * diff * diff, f * diff
}

// Backward applies the gradients of pair (i, j) given the residual e from Forward.
// Both gradients of a coordinate are read from the values before its update.
func (g *GloVe) Backward(i, j int, e float32) {
	central, context := g.Central.Row(i), g.Context.Row(j)
	offsetI, offsetJ := i*g.nFactors, j*g.nFactors
	for k := range central {
		gradCentral := e * context[k]
		gradContext := e * central[k]
		g.centralSlot.Update(offsetI+k, gradCentral)
		g.contextSlot.Update(offsetJ+k, gradContext)
	}
	g.centralBiasSlot.Update(i, e)
	g.contextBiasSlot.Update(j, e)
}

// Fit trains on a square co-occurrence matrix and returns the mean of the central and
// context matrices. Validation is an optional co-occurrence matrix of the same shape.
func (g *GloVe) Fit(ctx context.Context, train dataset.Matrix, config *model.FitConfig) (*model.Matrix, error) {
	trainSet, err := dataset.AsSparse(train)
	if err != nil {
		return nil, errors.Trace(err)
	}
	n, cols := trainSet.Shape()
	if n != cols {
		return nil, errors.NotValidf("non-square co-occurrence matrix (%d, %d)", n, cols)
	}
	var validationSet *dataset.CSR
	if config.Validation != nil {
		if validationSet, err = dataset.AsSparse(config.Validation); err != nil {
			return nil, errors.Annotate(err, "validation")
		}
		if rows, cols := validationSet.Shape(); rows != n || cols != n {
			return nil, errors.NotValidf("validation shape (%d, %d) for vocabulary of %d", rows, cols, n)
		}
	}
	if g.nFactors <= 0 {
		return nil, errors.NotValidf("%d factors", g.nFactors)
	}
	if config.Epochs < 0 {
		return nil, errors.NotValidf("%d epochs", config.Epochs)
	}
	opt, err := optimizer.New(g.optimizer, g.lr)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if config.Test != nil {
		log.Logger().Warn("glove ignores the test matrix")
	}
	log.Logger().Info("fit glove",
		zap.Int("vocabulary_size", n),
		zap.Int("train_set_size", trainSet.NNZ()),
		zap.Int("validation_set_size", lenOrZero(validationSet)),
		zap.Any("params", g.GetParams()),
		zap.Object("config", config))

	g.init(n, opt)
	t := &task{GloVe: g, samples: trainSet.Triples()}
	rng := g.GetRandomGenerator()
	base.Shuffle(rng, t.samples)
	var records []model.Record
	scheduler := model.NewScheduler("glove", config)
	if validationSet != nil {
		v := &validatedTask{task: t, validation: validationSet.Triples()}
		base.Shuffle(rng, v.validation)
		records, err = scheduler.Run(ctx, v)
	} else {
		records, err = scheduler.Run(ctx, t)
	}
	g.History = records
	g.releaseSlots()
	if err != nil {
		return nil, errors.Trace(err)
	}
	return model.Average(g.Central, g.Context)
}

func (g *GloVe) init(n int, opt optimizer.Optimizer) {
	rng := g.ResetRandomGenerator()
	r := 0.5 / float32(g.nFactors)
	g.Central = model.InitUniform(rng, n, g.nFactors, r)
	g.Context = model.InitUniform(rng, n, g.nFactors, r)
	g.CentralBias = model.InitBias(rng, n, r)
	g.ContextBias = model.InitBias(rng, n, r)
	g.centralSlot = opt.Bind(g.Central.Data)
	g.contextSlot = opt.Bind(g.Context.Data)
	g.centralBiasSlot = opt.Bind(g.CentralBias)
	g.contextBiasSlot = opt.Bind(g.ContextBias)
}

func (g *GloVe) releaseSlots() {
	g.centralSlot, g.contextSlot = nil, nil
	g.centralBiasSlot, g.contextBiasSlot = nil, nil
}

type task struct {
	*GloVe
	samples []dataset.Triple
}

func (t *task) Len() int {
	return len(t.samples)
}

func (t *task) Step(_, i int) float32 {
	s := t.samples[i]
	loss, e := t.Forward(int(s.Row), int(s.Col), s.Value)
	t.Backward(int(s.Row), int(s.Col), e)
	return loss
}

type validatedTask struct {
	*task
	validation []dataset.Triple
}

func (t *validatedTask) ValidationLen() int {
	return len(t.validation)
}

func (t *validatedTask) Validate(_, i int) float32 {
	s := t.validation[i]
	loss, _ := t.Forward(int(s.Row), int(s.Col), s.Value)
	return loss
}

func lenOrZero(m *dataset.CSR) int {
	if m == nil {
		return 0
	}
	return m.NNZ()
}
