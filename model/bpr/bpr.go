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

// Package bpr implements Bayesian Personalized Ranking for implicit feedback.
package bpr

import (
	"context"

	"github.com/chewxy/math32"
	"github.com/gorse-io/mfkit/base"
	"github.com/gorse-io/mfkit/common/floats"
	"github.com/gorse-io/mfkit/common/log"
	"github.com/gorse-io/mfkit/dataset"
	"github.com/gorse-io/mfkit/model"
	"github.com/gorse-io/mfkit/model/optimizer"
	"github.com/gorse-io/mfkit/model/ranking"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

const (
	DefaultNFactors = 20
	DefaultLr       = 0.001
	DefaultReg      = 0.01
)

// BPR learns user and item factors from (user, positive, negative) triples by
// maximizing the log likelihood that a user prefers observed items over the others.
//
//	x = W[u]·(H[i] - H[j])
//	loss = -log σ(x) + λ(|W[u]|² + |H[i]|² + |H[j]|²)
type BPR struct {
	model.BaseModel
	UserFactor *model.Matrix
	ItemFactor *model.Matrix

	nFactors  int
	lr        float32
	reg       float32
	optimizer string

	userSlot optimizer.Slot
	itemSlot optimizer.Slot
}

func NewBPR(params model.Params) *BPR {
	bpr := new(BPR)
	bpr.SetParams(params)
	return bpr
}

func (bpr *BPR) SetParams(params model.Params) {
	bpr.BaseModel.SetParams(params)
	bpr.nFactors = bpr.Params.GetInt(model.NFactors, DefaultNFactors)
	bpr.lr = bpr.Params.GetFloat32(model.Lr, DefaultLr)
	bpr.reg = bpr.Params.GetFloat32(model.Reg, DefaultReg)
	bpr.optimizer = bpr.Params.GetString(model.Optimizer, optimizer.AdamName)
}

// Predict returns the preference score of user u for item i.
func (bpr *BPR) Predict(u, i int) float32 {
	return floats.Dot(bpr.UserFactor.Row(u), bpr.ItemFactor.Row(i))
}

// Forward returns the loss of preferring item i to item j for user u. If update is set,
// the gradients are applied through the optimizer. Every gradient of a coordinate is
// computed before any of them is applied.
func (bpr *BPR) Forward(u, i, j int, update bool) float32 {
	wu, hi, hj := bpr.UserFactor.Row(u), bpr.ItemFactor.Row(i), bpr.ItemFactor.Row(j)
	x := floats.Dot(wu, hi) - floats.Dot(wu, hj)
	loss := negLogSigmoid(x) + bpr.reg*(floats.SquareSum(wu)+floats.SquareSum(hi)+floats.SquareSum(hj))
	if update {
		s := sigmoid(-x)
		offsetU, offsetI, offsetJ := u*bpr.nFactors, i*bpr.nFactors, j*bpr.nFactors
		for k := range wu {
			w, pi, pj := wu[k], hi[k], hj[k]
			gradU := -(s*(pi-pj) - bpr.reg*w)
			gradI := -(s*w - bpr.reg*pi)
			gradJ := -(-s*w - bpr.reg*pj)
			bpr.userSlot.Update(offsetU+k, gradU)
			bpr.itemSlot.Update(offsetI+k, gradI)
			bpr.itemSlot.Update(offsetJ+k, gradJ)
		}
	}
	return loss
}

// Fit trains on the positives of train and returns one record per epoch. Validation
// positives are scored with a fixed set of negatives drawn once. Test positives are
// evaluated after every epoch with training positives and the exclude matrix removed
// from the candidates.
func (bpr *BPR) Fit(ctx context.Context, train dataset.Matrix, config *model.FitConfig) ([]model.Record, error) {
	trainSet, err := dataset.AsSparse(train)
	if err != nil {
		return nil, errors.Trace(err)
	}
	nUsers, nItems := trainSet.Shape()
	validationSet, err := sameShape(config.Validation, nUsers, nItems, "validation")
	if err != nil {
		return nil, errors.Trace(err)
	}
	testSet, err := sameShape(config.Test, nUsers, nItems, "test")
	if err != nil {
		return nil, errors.Trace(err)
	}
	excludeSet, err := sameShape(config.Exclude, nUsers, nItems, "exclude")
	if err != nil {
		return nil, errors.Trace(err)
	}
	if bpr.nFactors <= 0 {
		return nil, errors.NotValidf("%d factors", bpr.nFactors)
	}
	if config.Epochs < 0 {
		return nil, errors.NotValidf("%d epochs", config.Epochs)
	}
	if testSet != nil && config.TopK <= 0 {
		return nil, errors.NotValidf("top %d", config.TopK)
	}
	opt, err := optimizer.New(bpr.optimizer, bpr.lr)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("fit bpr",
		zap.Int("n_users", nUsers),
		zap.Int("n_items", nItems),
		zap.Int("train_set_size", trainSet.NNZ()),
		zap.Int("validation_set_size", nnz(validationSet)),
		zap.Int("test_set_size", nnz(testSet)),
		zap.Any("params", bpr.GetParams()),
		zap.Object("config", config))

	// The model is left untouched until every draw has succeeded.
	rng := bpr.ResetRandomGenerator()
	r := 0.1 / float32(bpr.nFactors)
	userFactor := model.InitUniform(rng, nUsers, bpr.nFactors, r)
	itemFactor := model.InitUniform(rng, nItems, bpr.nFactors, r)
	t := &task{BPR: bpr, samples: trainSet.Triples()}
	base.Shuffle(rng, t.samples)
	var exclude []*dataset.CSR
	if excludeSet != nil {
		exclude = append(exclude, excludeSet)
	}
	if t.negatives, err = SampleNegatives(rng, trainSet, t.samples, config.Epochs, exclude...); err != nil {
		return nil, errors.Trace(err)
	}
	var fitTask model.Task = t
	var v *validatedTask
	if validationSet != nil {
		v = &validatedTask{task: t, validation: validationSet.Triples()}
		base.Shuffle(rng, v.validation)
		v.validationNegatives, err = SampleNegatives(rng, trainSet, v.validation, 1, append(exclude, validationSet)...)
		if err != nil {
			return nil, errors.Annotate(err, "validation")
		}
		fitTask = v
	}
	if testSet != nil {
		e := newEvaluator(bpr, trainSet, testSet, exclude, config)
		if v != nil {
			fitTask = &validatedEvaluatedTask{validatedTask: v, evaluator: e}
		} else {
			fitTask = &evaluatedTask{task: t, evaluator: e}
		}
	}

	bpr.UserFactor, bpr.ItemFactor = userFactor, itemFactor
	bpr.userSlot, bpr.itemSlot = opt.Bind(userFactor.Data), opt.Bind(itemFactor.Data)
	defer func() {
		bpr.userSlot, bpr.itemSlot = nil, nil
	}()
	records, err := model.NewScheduler("bpr", config).Run(ctx, fitTask)
	if err != nil {
		return records, errors.Trace(err)
	}
	return records, nil
}

// Evaluate scores the current factors on test.
func (bpr *BPR) Evaluate(test dataset.Matrix, k int, opts ...ranking.Option) (ranking.Score, error) {
	if bpr.UserFactor == nil || bpr.ItemFactor == nil {
		return ranking.Score{}, errors.NotValidf("unfitted model")
	}
	return ranking.Evaluate(bpr.UserFactor, bpr.ItemFactor, test, k, opts...)
}

func sameShape(m dataset.Matrix, rows, cols int, name string) (*dataset.CSR, error) {
	if m == nil {
		return nil, nil
	}
	csr, err := dataset.AsSparse(m)
	if err != nil {
		return nil, errors.Annotate(err, name)
	}
	if r, c := csr.Shape(); r != rows || c != cols {
		return nil, errors.NotValidf("%s shape (%d, %d) for train shape (%d, %d)", name, r, c, rows, cols)
	}
	return csr, nil
}

func nnz(m *dataset.CSR) int {
	if m == nil {
		return 0
	}
	return m.NNZ()
}

// negLogSigmoid computes -log σ(x) = log(1 + e^-x) without overflow.
func negLogSigmoid(x float32) float32 {
	if x >= 0 {
		return math32.Log1p(math32.Exp(-x))
	}
	return -x + math32.Log1p(math32.Exp(x))
}

func sigmoid(x float32) float32 {
	if x >= 0 {
		return 1 / (1 + math32.Exp(-x))
	}
	e := math32.Exp(x)
	return e / (1 + e)
}

type task struct {
	*BPR
	samples   []dataset.Triple
	negatives []int32
}

func (t *task) Len() int {
	return len(t.samples)
}

func (t *task) Step(epoch, i int) float32 {
	s := t.samples[i]
	j := t.negatives[epoch*len(t.samples)+i]
	return t.Forward(int(s.Row), int(s.Col), int(j), true)
}

type validatedTask struct {
	*task
	validation          []dataset.Triple
	validationNegatives []int32
}

func (t *validatedTask) ValidationLen() int {
	return len(t.validation)
}

func (t *validatedTask) Validate(_, i int) float32 {
	s := t.validation[i]
	return t.Forward(int(s.Row), int(s.Col), int(t.validationNegatives[i]), false)
}

type evaluatedTask struct {
	*task
	*evaluator
}

type validatedEvaluatedTask struct {
	*validatedTask
	*evaluator
}

// evaluator ranks test positives after each epoch.
type evaluator struct {
	bpr     *BPR
	test    *dataset.CSR
	options []ranking.Option
	topK    int
}

func newEvaluator(bpr *BPR, train, test *dataset.CSR, exclude []*dataset.CSR, config *model.FitConfig) *evaluator {
	options := []ranking.Option{ranking.WithJobs(config.ResolveJobs()), ranking.WithExclude(train)}
	for _, m := range exclude {
		options = append(options, ranking.WithExclude(m))
	}
	return &evaluator{bpr: bpr, test: test, options: options, topK: config.TopK}
}

func (e *evaluator) Evaluate(int) (map[string]float32, error) {
	score, err := e.bpr.Evaluate(e.test, e.topK, e.options...)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return score.Metrics(), nil
}
