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

package parallel

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
)

func TestParallel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		a := lo.Range(10000)
		b := make([]int, len(a))
		workerIds := make([]int, len(a))
		// multiple threads
		_ = Parallel(context.Background(), len(a), 4, func(workerId, jobId int) error {
			b[jobId] = a[jobId]
			workerIds[jobId] = workerId
			time.Sleep(time.Microsecond)
			return nil
		})
		workersSet := mapset.NewSet(workerIds...)
		assert.Equal(t, a, b)
		assert.GreaterOrEqual(t, 4, workersSet.Cardinality())
		assert.Less(t, 1, workersSet.Cardinality())
		// single thread
		_ = Parallel(context.Background(), len(a), 1, func(workerId, jobId int) error {
			b[jobId] = a[jobId]
			workerIds[jobId] = workerId
			return nil
		})
		workersSet = mapset.NewSet(workerIds...)
		assert.Equal(t, a, b)
		assert.Equal(t, 1, workersSet.Cardinality())
	})
}

func TestParallelFail(t *testing.T) {
	// multiple threads
	err := Parallel(context.Background(), 10000, 4, func(workerId, jobId int) error {
		if jobId%2 == 1 {
			return fmt.Errorf("error from %d", jobId)
		}
		return nil
	})
	assert.Error(t, err)
	// single thread
	err = Parallel(context.Background(), 10000, 1, func(workerId, jobId int) error {
		if jobId%2 == 1 {
			return fmt.Errorf("error from %d", jobId)
		}
		return nil
	})
	assert.Error(t, err)
}

func TestParallelCancel(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var count atomic.Int32

		err := Parallel(ctx, 100, 4, func(_, jobId int) error {
			if jobId == 0 {
				cancel()
			}
			count.Add(1)
			time.Sleep(100 * time.Millisecond)
			return nil
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, int(count.Load()), 100)
	})
}

func TestPartition(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		a := lo.Range(1001)
		b := make([]int, len(a))
		owners := make([]int, len(a))
		err := Partition(len(a), 4, func(workerId, begin, end int) error {
			for i := begin; i < end; i++ {
				b[i] = a[i]
				owners[i] = workerId
			}
			time.Sleep(time.Microsecond)
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, a, b)
		// contiguous ownership
		assert.Equal(t, 0, owners[0])
		assert.Equal(t, 0, owners[250])
		assert.Equal(t, 1, owners[251])
		assert.Equal(t, 3, owners[1000])
	})
}

func TestPartitionEmpty(t *testing.T) {
	called := false
	err := Partition(0, 4, func(_, _, _ int) error {
		called = true
		return nil
	})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestPartitionMoreWorkersThanJobs(t *testing.T) {
	var calls atomic.Int32
	err := Partition(3, 8, func(_, begin, end int) error {
		assert.Equal(t, 1, end-begin)
		calls.Add(1)
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPartitionFail(t *testing.T) {
	// error
	err := Partition(100, 4, func(workerId, _, _ int) error {
		if workerId == 2 {
			return fmt.Errorf("error from %d", workerId)
		}
		return nil
	})
	assert.ErrorContains(t, err, "error from 2")
	// panic in multiple threads
	err = Partition(100, 4, func(workerId, begin, _ int) error {
		if workerId == 1 {
			var a []int
			_ = a[begin]
		}
		return nil
	})
	assert.ErrorContains(t, err, "worker 1 panicked")
	// panic in single thread
	err = Partition(100, 1, func(_, _, _ int) error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "boom")
}

func TestSplitRange(t *testing.T) {
	assert.Equal(t, []lo.Tuple2[int, int]{{A: 0, B: 3}, {A: 3, B: 5}, {A: 5, B: 7}}, SplitRange(7, 3))
	assert.Equal(t, []lo.Tuple2[int, int]{{A: 0, B: 2}}, SplitRange(2, 0))
	assert.Nil(t, SplitRange(0, 3))
}

func TestParallelPanic(t *testing.T) {
	err := Parallel(context.Background(), 100, 4, func(_, jobId int) error {
		if jobId == 42 {
			panic("boom")
		}
		return nil
	})
	assert.ErrorContains(t, err, "job 42")
	err = Parallel(context.Background(), 10, 1, func(_, jobId int) error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "boom")
}

func TestParallelWorkerBuffers(t *testing.T) {
	buffers := make([][]int, 3)
	err := Parallel(context.Background(), 300, 3, func(workerId, jobId int) error {
		buffers[workerId] = append(buffers[workerId], jobId)
		return nil
	})
	assert.NoError(t, err)
	assert.ElementsMatch(t, lo.Range(300), lo.Flatten(buffers))
}
