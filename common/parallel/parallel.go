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
	"sync"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Parallel runs worker on every job id in [0, nJobs) with nWorkers goroutines pulling ids
// from a shared channel. Each worker id is owned by one goroutine, so callers may keep
// per-worker buffers indexed by it. A panic inside a job is reported as an error. Once a
// job fails, no further jobs are started and the error of the lowest failed job id is
// returned.
func Parallel(ctx context.Context, nJobs, nWorkers int, worker func(workerId, jobId int) error) error {
	if nWorkers <= 1 {
		for i := 0; i < nJobs; i++ {
			if err := ctx.Err(); err != nil {
				return errors.Trace(err)
			}
			if err := guardJob(0, i, worker); err != nil {
				return errors.Trace(err)
			}
		}
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	jobs := make(chan int, nWorkers)
	go func() {
		defer close(jobs)
		for i := 0; i < nJobs; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	var wg sync.WaitGroup
	errs := make([]error, nJobs)
	for workerId := 0; workerId < nWorkers; workerId++ {
		wg.Go(func() {
			for jobId := range jobs {
				if err := guardJob(workerId, jobId, worker); err != nil {
					errs[jobId] = err
					cancel()
					return
				}
			}
		})
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(ctx.Err())
}

func guardJob(workerId, jobId int, worker func(workerId, jobId int) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("worker %d panicked on job %d: %v", workerId, jobId, p)
		}
	}()
	return worker(workerId, jobId)
}

// Partition splits [0, n) into at most nWorkers contiguous ranges and runs worker on each
// range in its own goroutine. It returns once every worker has returned. Workers are not
// synchronized with each other. A panic inside a worker is recovered and reported as an
// error, the first error by worker id is returned.
func Partition(n, nWorkers int, worker func(workerId, begin, end int) error) error {
	ranges := SplitRange(n, nWorkers)
	if len(ranges) == 0 {
		return nil
	}
	errs := make([]error, len(ranges))
	if len(ranges) == 1 {
		errs[0] = guard(0, ranges[0], worker)
	} else {
		var wg sync.WaitGroup
		for workerId, r := range ranges {
			wg.Go(func() {
				errs[workerId] = guard(workerId, r, worker)
			})
		}
		wg.Wait()
	}
	for _, err := range errs {
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

func guard(workerId int, r lo.Tuple2[int, int], worker func(workerId, begin, end int) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = errors.Errorf("worker %d panicked on range [%d, %d): %v", workerId, r.A, r.B, p)
		}
	}()
	return worker(workerId, r.A, r.B)
}

// SplitRange splits [0, n) into at most nWorkers contiguous ranges [A, B). Sizes differ by
// at most one and leading ranges are larger.
func SplitRange(n, nWorkers int) []lo.Tuple2[int, int] {
	if n <= 0 {
		return nil
	}
	if nWorkers < 1 {
		nWorkers = 1
	}
	if nWorkers > n {
		nWorkers = n
	}
	minChunkSize := n / nWorkers
	maxChunkNum := n % nWorkers
	ranges := make([]lo.Tuple2[int, int], nWorkers)
	for i, j := 0, 0; i < nWorkers; i++ {
		chunkSize := minChunkSize
		if i < maxChunkNum {
			chunkSize++
		}
		ranges[i] = lo.Tuple2[int, int]{A: j, B: j + chunkSize}
		j += chunkSize
	}
	return ranges
}
