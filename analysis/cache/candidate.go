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

package cache

// CandidateTargetsFromCache is the lattice Top | Set<Target> a
// read-from-cache query's where-clause is abstractly interpreted
// against to derive a restricted candidate target set before running
// the full constraint match: meet(Top, x) = x, meet(Set a, Set b) =
// Set(a∩b); join(Top, _) = Top, join(Set a, Set b) = Set(a∪b); bottom
// is Set(∅). Meet and join are idempotent, commutative and associative;
// Top absorbs join and Set(∅) absorbs meet.
type CandidateTargetsFromCache struct {
	top bool
	set TargetSet
}

// Top returns the unconstrained top element.
func Top() CandidateTargetsFromCache {
	return CandidateTargetsFromCache{top: true}
}

// Bottom returns Set(∅), the absorbing element of Meet.
func Bottom() CandidateTargetsFromCache {
	return CandidateTargetsFromCache{set: TargetSet{}}
}

// FromSet wraps a concrete target set as a lattice element.
func FromSet(s TargetSet) CandidateTargetsFromCache {
	return CandidateTargetsFromCache{set: s}
}

// IsTop reports whether c is the unconstrained top element.
func (c CandidateTargetsFromCache) IsTop() bool {
	return c.top
}

// Targets returns c's concrete target set and true, or (nil, false) if
// c is Top.
func (c CandidateTargetsFromCache) Targets() (TargetSet, bool) {
	if c.top {
		return nil, false
	}
	return c.set, true
}

// Meet computes meet(a, b) per the lattice laws above.
func Meet(a, b CandidateTargetsFromCache) CandidateTargetsFromCache {
	if a.top {
		return b
	}
	if b.top {
		return a
	}
	return FromSet(a.set.Intersect(b.set))
}

// Join computes join(a, b) per the lattice laws above.
func Join(a, b CandidateTargetsFromCache) CandidateTargetsFromCache {
	if a.top || b.top {
		return Top()
	}
	return FromSet(a.set.Union(b.set))
}
