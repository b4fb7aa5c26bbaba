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

package ranking

import (
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/chewxy/math32"
	mapset "github.com/deckarep/golang-set/v2"
)

// Metric scores a rank list against the relevant items. K is the length of the rank list.
type Metric func(targetSet mapset.Set[int32], rankList []int32) float32

// Recall is the fraction of relevant items that are retrieved.
//
//	\frac{|relevant \cap retrieved|}{|relevant|}
func Recall(targetSet mapset.Set[int32], rankList []int32) float32 {
	if targetSet.Cardinality() == 0 {
		return 0
	}
	hit := 0
	for _, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
		}
	}
	return float32(hit) / float32(targetSet.Cardinality())
}

// NDCG means Normalized Discounted Cumulative Gain with binary relevance.
//
//	DCG = rel_1 + \sum^{K}_{r=2} \frac{rel_r}{\log_2 r}
//
// IDCG is the DCG of min(|relevant|, K) relevant items ranked first.
func NDCG(targetSet mapset.Set[int32], rankList []int32) float32 {
	idcg := float32(0)
	for r := 1; r <= targetSet.Cardinality() && r <= len(rankList); r++ {
		idcg += discount(r)
	}
	if idcg == 0 {
		return 0
	}
	dcg := float32(0)
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			dcg += discount(i + 1)
		}
	}
	return dcg / idcg
}

func discount(rank int) float32 {
	if rank == 1 {
		return 1
	}
	return 1 / math32.Log2(float32(rank))
}

// MAP means Mean Average Precision: the mean of the precision at each hit, zero
// without hits.
func MAP(targetSet mapset.Set[int32], rankList []int32) float32 {
	sumPrecision := float32(0)
	hit := 0
	for i, itemId := range rankList {
		if targetSet.Contains(itemId) {
			hit++
			sumPrecision += float32(hit) / float32(i+1)
		}
	}
	if hit == 0 {
		return 0
	}
	return sumPrecision / float32(hit)
}

// TopK returns the indices of the k highest scores in descending order. Ties are
// broken by the lower index. Indices set in mask are skipped, mask may be nil.
func TopK(scores []float32, k int, mask *bitset.BitSet) []int32 {
	candidates := make([]int32, 0, len(scores))
	for i := range scores {
		if mask == nil || !mask.Test(uint(i)) {
			candidates = append(candidates, int32(i))
		}
	}
	slices.SortStableFunc(candidates, func(a, b int32) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		default:
			return 0
		}
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}
