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
	"context"
	"fmt"
	"time"

	"github.com/gorse-io/mfkit/common/floats"
	"github.com/gorse-io/mfkit/common/log"
	"github.com/gorse-io/mfkit/common/parallel"
	"github.com/gorse-io/mfkit/common/progress"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// Task is a set of training samples. Step runs the forward and backward pass of
// sample i in epoch (counted from 0) and returns its loss. Step is called concurrently
// for distinct samples.
type Task interface {
	Len() int
	Step(epoch, i int) float32
}

// Validator is implemented by tasks with held-out samples. Validate must not
// update parameters.
type Validator interface {
	ValidationLen() int
	Validate(epoch, i int) float32
}

// Evaluator is implemented by tasks that score the current parameters after
// each epoch.
type Evaluator interface {
	Evaluate(epoch int) (map[string]float32, error)
}

// Scheduler runs the epoch loop of a Task.
type Scheduler struct {
	Name     string
	Epochs   int
	Jobs     int
	Verbose  int
	Observer Observer
}

// NewScheduler creates a scheduler from fit options. Jobs are resolved here.
func NewScheduler(name string, config *FitConfig) *Scheduler {
	return &Scheduler{
		Name:     name,
		Epochs:   config.Epochs,
		Jobs:     config.ResolveJobs(),
		Verbose:  config.Verbose,
		Observer: config.Observer,
	}
}

// Run trains task for all epochs. The samples are partitioned into Jobs contiguous
// ranges every epoch and the workers share parameters without synchronization. The
// context carries progress spans only: a run is not cancellable.
func (s *Scheduler) Run(ctx context.Context, task Task) ([]Record, error) {
	logger := log.ModelLogger(s.Name)
	jobs := max(s.Jobs, 1)
	loss := make([]float32, task.Len())
	validator, hasValidation := task.(Validator)
	var validationLoss []float32
	if hasValidation {
		validationLoss = make([]float32, validator.ValidationLen())
	}
	evaluator, hasEvaluation := task.(Evaluator)

	_, span := progress.Start(ctx, s.Name+".Fit", s.Epochs)
	records := make([]Record, 0, s.Epochs)
	for epoch := 0; epoch < s.Epochs; epoch++ {
		fitStart := time.Now()
		err := parallel.Partition(len(loss), jobs, func(_, begin, end int) error {
			for i := begin; i < end; i++ {
				loss[i] = task.Step(epoch, i)
			}
			return nil
		})
		if err != nil {
			span.Fail(err)
			return records, errors.Annotatef(err, "epoch %d", epoch+1)
		}
		record := Record{
			Epoch:   epoch + 1,
			Loss:    mean(loss),
			FitTime: time.Since(fitStart),
		}

		evalStart := time.Now()
		if hasValidation {
			err = parallel.Partition(len(validationLoss), jobs, func(_, begin, end int) error {
				for i := begin; i < end; i++ {
					validationLoss[i] = validator.Validate(epoch, i)
				}
				return nil
			})
			if err != nil {
				span.Fail(err)
				return records, errors.Annotatef(err, "validate epoch %d", epoch+1)
			}
			record.HasValidation = true
			record.ValidationLoss = mean(validationLoss)
		}
		if hasEvaluation {
			record.Metrics, err = evaluator.Evaluate(epoch)
			if err != nil {
				span.Fail(err)
				return records, errors.Annotatef(err, "evaluate epoch %d", epoch+1)
			}
		}
		record.EvalTime = time.Since(evalStart)
		records = append(records, record)

		msg := fmt.Sprintf("fit %s %v/%v", s.Name, record.Epoch, s.Epochs)
		if s.Verbose > 0 && (record.Epoch%s.Verbose == 0 || record.Epoch == s.Epochs) {
			logger.Info(msg, record.fields()...)
		} else {
			logger.Debug(msg, record.fields()...)
		}
		span.Add(1)
		if s.Observer != nil {
			s.Observer.Observe(record)
		}
	}
	span.End()

	fields := []zap.Field{zap.Int("epochs", s.Epochs)}
	if len(records) > 0 {
		fields = append(fields, records[len(records)-1].fields()...)
	}
	logger.Info(fmt.Sprintf("fit %s complete", s.Name), fields...)
	return records, nil
}

// mean is zero for an empty buffer.
func mean(a []float32) float32 {
	if len(a) == 0 {
		return 0
	}
	return floats.Sum(a) / float32(len(a))
}
