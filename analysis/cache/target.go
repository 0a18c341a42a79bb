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

// Package cache implements the inter-query read/write cache a query
// executor consults to restrict one query's candidate targets by
// another query's prior results: a two-level kind/name index
// (ReadWriteCache) and the Top|Set(Target) lattice
// (CandidateTargetsFromCache) used to derive a restricted candidate set
// from a constraint over that index.
package cache

import "golang.org/x/exp/slices"

// Target identifies a modelable the cache indexes, independent of
// whichever richer target representation a query executor uses
// internally: the cache only ever needs a target's kind and its fully
// qualified name to key and compare entries.
type Target struct {
	Kind string
	Name string
}

// TargetSet is a set of Target.
type TargetSet map[Target]struct{}

// NewTargetSet returns a set containing ts.
func NewTargetSet(ts ...Target) TargetSet {
	s := make(TargetSet, len(ts))
	for _, t := range ts {
		s[t] = struct{}{}
	}
	return s
}

// Contains reports whether t is in s.
func (s TargetSet) Contains(t Target) bool {
	_, ok := s[t]
	return ok
}

// Union returns the union of s and other, a fresh set.
func (s TargetSet) Union(other TargetSet) TargetSet {
	out := make(TargetSet, len(s)+len(other))
	for t := range s {
		out[t] = struct{}{}
	}
	for t := range other {
		out[t] = struct{}{}
	}
	return out
}

// Intersect returns the intersection of s and other, a fresh set.
func (s TargetSet) Intersect(other TargetSet) TargetSet {
	out := make(TargetSet)
	for t := range s {
		if other.Contains(t) {
			out[t] = struct{}{}
		}
	}
	return out
}

// Ordered returns s's targets sorted by (Kind, Name), for callers that
// need a deterministic iteration order (reports, tests) over what is
// otherwise an unordered set.
func (s TargetSet) Ordered() []Target {
	out := make([]Target, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b Target) bool {
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Name < b.Name
	})
	return out
}
