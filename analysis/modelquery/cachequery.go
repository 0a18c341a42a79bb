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

package modelquery

import (
	"github.com/taintkit/flowcheck/analysis/cache"
	"github.com/taintkit/flowcheck/analysis/flowerrors"
)

// ReadFromCache is a Constraint leaf: it matches a target that was
// written into the frozen cache under (Kind, Name) during an earlier
// write-to-cache phase.
type ReadFromCache struct {
	Kind string
	Name string
}

func (rc ReadFromCache) matches(target Target, env Env) bool {
	if env.Cache == nil {
		return false
	}
	return env.Cache.Contains(rc.Kind, rc.Name, toCacheTarget(target))
}

func toCacheTarget(t Target) cache.Target {
	return cache.Target{Kind: t.Kind.String(), Name: t.FullyQualified}
}

// FromConstraint abstractly interprets c over rwc to derive a
// CandidateTargetsFromCache, per §4.H phase 2: a ReadFromCache leaf
// becomes the concrete set recorded under its (kind, name); AllOf
// meets its operands, AnyOf joins them; every other leaf carries no
// cache information and is Top. Top surviving to the top level of an
// AllOf(where) is a query-verification failure that should have been
// rejected before this ever runs; callers that skip verification may
// treat it as a ConfigError.
func FromConstraint(rwc *cache.ReadWriteCache, c Constraint) cache.CandidateTargetsFromCache {
	switch {
	case c.allOf != nil:
		acc := cache.Top()
		for _, sub := range c.allOf {
			acc = cache.Meet(acc, FromConstraint(rwc, sub))
		}
		return acc
	case c.anyOf != nil:
		acc := cache.Bottom()
		for _, sub := range c.anyOf {
			acc = cache.Join(acc, FromConstraint(rwc, sub))
		}
		return acc
	case c.readFromCache != nil:
		return cache.FromSet(rwc.Get(c.readFromCache.Kind, c.readFromCache.Name))
	default:
		return cache.Top()
	}
}

// CandidatesFromCache restricts targets to those the frozen cache
// records as satisfying q's where clause, per §4.H phase 2: the where
// clause is abstractly interpreted via FromConstraint(rwc,
// AllOf(q.Where)) to derive the candidate set before the full
// constraint match runs. A Top surviving to the top level is a
// ConfigError: the query verifier should have rejected a
// read-from-cache query whose where clause leaves no ReadFromCache
// leaf load-bearing before this ever runs.
func CandidatesFromCache(rwc *cache.ReadWriteCache, q Query, targets []Target) ([]Target, error) {
	derived := FromConstraint(rwc, AllOf(q.Where))
	set, ok := derived.Targets()
	if !ok {
		return nil, flowerrors.NewConfigError(flowerrors.ConfigErrorReadFromCacheTop, q.Name)
	}
	var out []Target
	for _, t := range targets {
		if set.Contains(toCacheTarget(t)) {
			out = append(out, t)
		}
	}
	return out, nil
}

// referencesReadFromCache reports whether c's tree contains a
// ReadFromCache leaf anywhere, the test a query's where clause is
// classified by during write/read/regular phase partitioning.
func (c Constraint) referencesReadFromCache() bool {
	switch {
	case c.readFromCache != nil:
		return true
	case c.not != nil:
		return c.not.referencesReadFromCache()
	default:
		for _, sub := range c.anyOf {
			if sub.referencesReadFromCache() {
				return true
			}
		}
		for _, sub := range c.allOf {
			if sub.referencesReadFromCache() {
				return true
			}
		}
		return false
	}
}
