// Copyright The Flowcheck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scheduler runs per-definition analyses and per-target query
// passes across disjoint worker shards, fanning goroutines out the way
// a cache build scatters its population steps, then joining shard
// results with a caller-supplied associative, commutative reduce.
package scheduler

import (
	"sync"
)

// Policy bounds how many shards a MapReduce call fans its inputs out
// across. Workers of zero or less is treated as one shard per input
// (maximal parallelism); a positive value caps the shard count.
type Policy struct {
	Workers int
}

// shardOf splits inputs into at most p.Workers contiguous shards,
// leaving each worker a disjoint slice to map over.
func (p Policy) shardOf(n int) []int {
	workers := p.Workers
	if workers <= 0 || workers > n {
		workers = n
	}
	if workers == 0 {
		return nil
	}
	bounds := make([]int, 0, workers+1)
	base, extra := n/workers, n%workers
	start := 0
	bounds = append(bounds, start)
	for i := 0; i < workers; i++ {
		size := base
		if i < extra {
			size++
		}
		start += size
		bounds = append(bounds, start)
	}
	return bounds
}

// MapReduce applies mapFn to every item in inputs, sharded across
// worker goroutines per policy, then folds the per-item results into a
// single accumulator with reduceFn in input order. mapFn must be safe
// to call concurrently; reduceFn only ever runs on the calling
// goroutine, so it needs no synchronization of its own.
func MapReduce[In, Out, Acc any](policy Policy, initial Acc, mapFn func(In) Out, reduceFn func(Acc, Out) Acc, inputs []In) Acc {
	n := len(inputs)
	results := make([]Out, n)
	bounds := policy.shardOf(n)

	wg := &sync.WaitGroup{}
	for i := 0; i < len(bounds)-1; i++ {
		lo, hi := bounds[i], bounds[i+1]
		if lo == hi {
			continue
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for j := lo; j < hi; j++ {
				results[j] = mapFn(inputs[j])
			}
		}(lo, hi)
	}
	wg.Wait()

	acc := initial
	for _, r := range results {
		acc = reduceFn(acc, r)
	}
	return acc
}
