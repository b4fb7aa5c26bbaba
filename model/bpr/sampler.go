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

package bpr

import (
	"github.com/gorse-io/mfkit/base"
	"github.com/gorse-io/mfkit/dataset"
	"github.com/juju/errors"
)

// SampleNegatives draws one negative item for every sample of every epoch. The item of
// sample s in epoch e is stored at negatives[e*len(samples)+s] and is drawn uniformly
// from the items not in the row of the sample user in positives or in any exclude
// matrix.
func SampleNegatives(rng base.RandomGenerator, positives *dataset.CSR, samples []dataset.Triple, epochs int, exclude ...*dataset.CSR) ([]int32, error) {
	nUsers, nItems := positives.Shape()
	for _, m := range exclude {
		if rows, cols := m.Shape(); rows != nUsers || cols != nItems {
			return nil, errors.NotValidf("exclude shape (%d, %d) for (%d, %d)", rows, cols, nUsers, nItems)
		}
	}
	// sorted excluded items per user, built on first use
	excluded := make([][]int32, nUsers)
	built := make([]bool, nUsers)
	for _, s := range samples {
		u := s.Row
		if built[u] {
			continue
		}
		row := positives.RowIndices(int(u))
		for _, m := range exclude {
			row = mergeSorted(row, m.RowIndices(int(u)))
		}
		if len(row) >= nItems {
			return nil, errors.NotValidf("no negative item for user %d", u)
		}
		excluded[u], built[u] = row, true
	}
	negatives := make([]int32, epochs*len(samples))
	for epoch := 0; epoch < epochs; epoch++ {
		offset := epoch * len(samples)
		for i, s := range samples {
			row := excluded[s.Row]
			negatives[offset+i] = selectRank(row, int32(rng.Intn(nItems-len(row))))
		}
	}
	return negatives, nil
}

// selectRank returns the r-th item, counted from 0, that is not in the sorted list
// excluded.
func selectRank(excluded []int32, r int32) int32 {
	for _, e := range excluded {
		if e > r {
			break
		}
		r++
	}
	return r
}

// mergeSorted returns the sorted union of two sorted lists without duplicates.
func mergeSorted(a, b []int32) []int32 {
	merged := make([]int32, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] < b[j]:
			merged = append(merged, a[i])
			i++
		case a[i] > b[j]:
			merged = append(merged, b[j])
			j++
		default:
			merged = append(merged, a[i])
			i++
			j++
		}
	}
	merged = append(merged, a[i:]...)
	return append(merged, b[j:]...)
}
