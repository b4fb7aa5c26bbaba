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

/*
Package model holds the pieces shared by all embedding models: hyper-parameters, the
dense parameter store, fitting options and the epoch scheduler.

# HOGWILD updates

Training runs lock-free parallel SGD. Within an epoch the samples are split into
contiguous partitions, one goroutine each, and every worker reads and writes parameter
rows and optimizer accumulators without locks, atomics or fences. Two workers touching
the same row may lose or interleave updates for a few coordinates. This is an accepted
data race: every update touches O(K) coordinates of a few rows, so collisions add noise
comparable to the stochasticity of SGD itself. The only ordering guarantee is the
barrier at the end of each epoch. The race detector reports these writes, so tests that
train with more than one job are built with the !race tag.

Runs with a single job and a fixed RandomState are deterministic.
*/
package model
