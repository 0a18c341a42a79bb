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

package scheduler

import "testing"

func TestMapReduce_SumOfSquares(t *testing.T) {
	inputs := []int{1, 2, 3, 4, 5}
	sum := MapReduce(Policy{Workers: 2}, 0,
		func(n int) int { return n * n },
		func(acc, n int) int { return acc + n },
		inputs,
	)
	if sum != 55 {
		t.Errorf("expected sum of squares 55, got %d", sum)
	}
}

func TestMapReduce_EmptyInput(t *testing.T) {
	sum := MapReduce(Policy{Workers: 4}, 0,
		func(n int) int { return n }, func(acc, n int) int { return acc + n },
		[]int{},
	)
	if sum != 0 {
		t.Errorf("expected 0 for an empty input slice, got %d", sum)
	}
}

func TestMapReduce_SingleWorkerIsDeterministicOrder(t *testing.T) {
	inputs := []string{"a", "b", "c"}
	joined := MapReduce(Policy{Workers: 1}, "",
		func(s string) string { return s },
		func(acc, s string) string { return acc + s },
		inputs,
	)
	if joined != "abc" {
		t.Errorf("expected reduce to preserve input order as abc, got %q", joined)
	}
}
