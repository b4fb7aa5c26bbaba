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
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/gorse-io/mfkit/dataset"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FitConfig holds the options of a fit that are not hyper-parameters.
type FitConfig struct {
	Epochs     int
	Jobs       int // non-positive means one job per logical core
	Verbose    int // log at info level every Verbose epochs, 0 keeps quiet
	TopK       int
	Validation dataset.Matrix // forward-only loss after each epoch
	Test       dataset.Matrix // ranking evaluation after each epoch
	Exclude    dataset.Matrix // positives removed from negatives and candidates
	Observer   Observer
}

func NewFitConfig() *FitConfig {
	return &FitConfig{
		Epochs:  10,
		Jobs:    runtime.NumCPU(),
		Verbose: 1,
		TopK:    10,
	}
}

func (config *FitConfig) SetEpochs(epochs int) *FitConfig {
	config.Epochs = epochs
	return config
}

func (config *FitConfig) SetJobs(jobs int) *FitConfig {
	config.Jobs = jobs
	return config
}

func (config *FitConfig) SetVerbose(verbose int) *FitConfig {
	config.Verbose = verbose
	return config
}

func (config *FitConfig) SetTopK(topK int) *FitConfig {
	config.TopK = topK
	return config
}

func (config *FitConfig) SetValidation(validation dataset.Matrix) *FitConfig {
	config.Validation = validation
	return config
}

func (config *FitConfig) SetTest(test dataset.Matrix) *FitConfig {
	config.Test = test
	return config
}

func (config *FitConfig) SetExclude(exclude dataset.Matrix) *FitConfig {
	config.Exclude = exclude
	return config
}

func (config *FitConfig) SetObserver(observer Observer) *FitConfig {
	config.Observer = observer
	return config
}

// ResolveJobs returns the number of workers to use.
func (config *FitConfig) ResolveJobs() int {
	if config.Jobs <= 0 {
		return runtime.NumCPU()
	}
	return config.Jobs
}

func (config *FitConfig) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("epochs", config.Epochs)
	enc.AddInt("jobs", config.Jobs)
	enc.AddInt("verbose", config.Verbose)
	enc.AddInt("top_k", config.TopK)
	enc.AddBool("validation", config.Validation != nil)
	enc.AddBool("test", config.Test != nil)
	enc.AddBool("exclude", config.Exclude != nil)
	return nil
}

// Record is the outcome of one epoch.
type Record struct {
	Epoch          int
	Loss           float32
	HasValidation  bool
	ValidationLoss float32
	Metrics        map[string]float32
	FitTime        time.Duration
	EvalTime       time.Duration
}

// MetricNames returns the metric names in lexical order.
func (r Record) MetricNames() []string {
	names := lo.Keys(r.Metrics)
	sort.Strings(names)
	return names
}

func (r Record) fields() []zap.Field {
	fields := []zap.Field{
		zap.String("fit_time", r.FitTime.String()),
		zap.String("eval_time", r.EvalTime.String()),
		zap.Float32("loss", r.Loss),
	}
	if r.HasValidation {
		fields = append(fields, zap.Float32("validation_loss", r.ValidationLoss))
	}
	for _, name := range r.MetricNames() {
		fields = append(fields, zap.Float32(name, r.Metrics[name]))
	}
	return fields
}

func (r Record) String() string {
	s := fmt.Sprintf("epoch %d: loss=%v", r.Epoch, r.Loss)
	if r.HasValidation {
		s += fmt.Sprintf(" validation_loss=%v", r.ValidationLoss)
	}
	for _, name := range r.MetricNames() {
		s += fmt.Sprintf(" %s=%v", name, r.Metrics[name])
	}
	return s
}

// Observer is notified after every epoch.
type Observer interface {
	Observe(record Record)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(record Record)

func (f ObserverFunc) Observe(record Record) {
	f(record)
}

type observers []Observer

func (o observers) Observe(record Record) {
	for _, observer := range o {
		observer.Observe(record)
	}
}

// Observers combines observers, notified in order. Nil observers are skipped.
func Observers(list ...Observer) Observer {
	return observers(lo.Filter(list, func(o Observer, _ int) bool {
		return o != nil
	}))
}
