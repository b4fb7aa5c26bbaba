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

// Package ranking evaluates factor models on held-out interactions with top-K metrics.
package ranking

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/mfkit/common/floats"
	"github.com/gorse-io/mfkit/common/parallel"
	"github.com/gorse-io/mfkit/dataset"
	"github.com/juju/errors"
)

// Score is the mean of top-K metrics over the rows with at least one positive.
type Score struct {
	K      int
	Recall float32
	NDCG   float32
	MAP    float32
}

// Metrics names the metrics as "<metric>@K".
func (s Score) Metrics() map[string]float32 {
	return map[string]float32{
		fmt.Sprintf("Recall@%d", s.K): s.Recall,
		fmt.Sprintf("NDCG@%d", s.K):   s.NDCG,
		fmt.Sprintf("MAP@%d", s.K):    s.MAP,
	}
}

type options struct {
	jobs    int
	exclude []*dataset.CSR
}

type Option func(*options)

// WithJobs evaluates rows with n workers. Results do not depend on n.
func WithJobs(n int) Option {
	return func(o *options) {
		o.jobs = n
	}
}

// WithExclude removes the items stored in each row of m, usually the training
// positives, from the candidates of that row. It may be given several times.
func WithExclude(m *dataset.CSR) Option {
	return func(o *options) {
		if m != nil {
			o.exclude = append(o.exclude, m)
		}
	}
}

// Evaluate ranks all items for every user by userFactors[u]·itemFactors[j] and scores the
// top k against the positives of test, which may be sparse or dense.
func Evaluate(userFactors, itemFactors dataset.Vectors, test dataset.Matrix, k int, opts ...Option) (Score, error) {
	nUsers, userDim := userFactors.Shape()
	nItems, itemDim := itemFactors.Shape()
	if userDim != itemDim {
		return Score{}, errors.NotValidf("user factors of %d dimensions and item factors of %d", userDim, itemDim)
	}
	return evaluate(nUsers, nItems, test, k, func(u int, scores []float32) {
		w := userFactors.Row(u)
		for j := range scores {
			scores[j] = floats.Dot(w, itemFactors.Row(j))
		}
	}, opts)
}

// EvaluateScores scores the top k of each row of a precomputed score matrix against
// the positives of test.
func EvaluateScores(scores dataset.Vectors, test dataset.Matrix, k int, opts ...Option) (Score, error) {
	rows, cols := scores.Shape()
	return evaluate(rows, cols, test, k, func(u int, buf []float32) {
		copy(buf, scores.Row(u))
	}, opts)
}

func evaluate(nUsers, nItems int, test dataset.Matrix, k int, score func(u int, scores []float32), opts []Option) (Score, error) {
	o := options{jobs: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if k <= 0 {
		return Score{}, errors.NotValidf("top %d", k)
	}
	testSet, err := heldOut(test)
	if err != nil {
		return Score{}, errors.Trace(err)
	}
	if rows, cols := testSet.Shape(); rows != nUsers || cols != nItems {
		return Score{}, errors.NotValidf("test shape (%d, %d) for scores (%d, %d)", rows, cols, nUsers, nItems)
	}
	for _, m := range o.exclude {
		if rows, cols := m.Shape(); rows != nUsers || cols != nItems {
			return Score{}, errors.NotValidf("exclude shape (%d, %d) for scores (%d, %d)", rows, cols, nUsers, nItems)
		}
	}

	recall := make([]float32, nUsers)
	ndcg := make([]float32, nUsers)
	ap := make([]float32, nUsers)
	jobs := max(o.jobs, 1)
	scores := make([][]float32, jobs)
	masks := make([]*bitset.BitSet, jobs)
	for i := range scores {
		scores[i] = make([]float32, nItems)
		if len(o.exclude) > 0 {
			masks[i] = bitset.New(uint(nItems))
		}
	}
	err = parallel.Parallel(context.Background(), nUsers, jobs, func(workerId, u int) error {
		positives := testSet.RowIndices(u)
		if len(positives) == 0 {
			return nil
		}
		mask := masks[workerId]
		if mask != nil {
			mask.ClearAll()
			for _, m := range o.exclude {
				for _, j := range m.RowIndices(u) {
					mask.Set(uint(j))
				}
			}
		}
		score(u, scores[workerId])
		rankList := TopK(scores[workerId], k, mask)
		targetSet := mapset.NewThreadUnsafeSet(positives...)
		recall[u] = Recall(targetSet, rankList)
		ndcg[u] = NDCG(targetSet, rankList)
		ap[u] = MAP(targetSet, rankList)
		return nil
	})
	if err != nil {
		return Score{}, errors.Trace(err)
	}

	result := Score{K: k}
	count := 0
	for u := 0; u < nUsers; u++ {
		if testSet.RowNNZ(u) == 0 {
			continue
		}
		count++
		result.Recall += recall[u]
		result.NDCG += ndcg[u]
		result.MAP += ap[u]
	}
	if count > 0 {
		result.Recall /= float32(count)
		result.NDCG /= float32(count)
		result.MAP /= float32(count)
	}
	return result, nil
}

// heldOut accepts dense held-out matrices besides the sparse types taken by AsSparse.
func heldOut(test dataset.Matrix) (*dataset.CSR, error) {
	if dense, ok := test.(*dataset.Dense); ok {
		if dense == nil {
			return nil, errors.NotValidf("nil matrix")
		}
		m := dense.ToCSR()
		if err := m.Validate(); err != nil {
			return nil, errors.Trace(err)
		}
		return m, nil
	}
	return dataset.AsSparse(test)
}
