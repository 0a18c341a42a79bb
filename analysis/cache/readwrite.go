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

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/taintkit/flowcheck/internal/funcutil"
)

// ReadWriteCache is the two-level kind -> name -> set<Target> mapping a
// write-to-cache query population feeds, and a read-from-cache query's
// ReadFromCache leaf consults. It is built once across every worker
// shard's write-phase output, via pointwise-union Merge, then frozen for
// the read phase.
type ReadWriteCache struct {
	entries map[string]map[string]TargetSet
}

// New returns an empty ReadWriteCache.
func New() *ReadWriteCache {
	return &ReadWriteCache{entries: map[string]map[string]TargetSet{}}
}

// Put records that target belongs under (kind, name).
func (c *ReadWriteCache) Put(kind, name string, target Target) {
	byName, ok := c.entries[kind]
	if !ok {
		byName = map[string]TargetSet{}
		c.entries[kind] = byName
	}
	set, ok := byName[name]
	if !ok {
		set = TargetSet{}
		byName[name] = set
	}
	set[target] = struct{}{}
}

// Get returns the set of targets recorded under (kind, name), or an
// empty set if nothing was ever written there.
func (c *ReadWriteCache) Get(kind, name string) TargetSet {
	if byName, ok := c.entries[kind]; ok {
		if set, ok := byName[name]; ok {
			return set
		}
	}
	return TargetSet{}
}

// Contains reports whether target was recorded under (kind, name).
func (c *ReadWriteCache) Contains(kind, name string, target Target) bool {
	return c.Get(kind, name).Contains(target)
}

// Kinds returns the sorted list of kinds the cache has any entries
// under, for callers reporting what a write phase actually populated.
func (c *ReadWriteCache) Kinds() []string {
	kinds := maps.Keys(c.entries)
	slices.Sort(kinds)
	return kinds
}

// Merge returns a new cache holding the pointwise union of c and other,
// the map-reduce join operation worker shards' per-shard caches are
// reduced with.
func (c *ReadWriteCache) Merge(other *ReadWriteCache) *ReadWriteCache {
	out := New()
	for _, src := range []*ReadWriteCache{c, other} {
		if src == nil {
			continue
		}
		funcutil.Merge(out.entries, copyByKind(src.entries), mergeByName)
	}
	return out
}

// mergeByName is the both-function Merge uses to combine two kinds'
// name -> TargetSet buckets, unioning the sets that share a name.
func mergeByName(a, b map[string]TargetSet) map[string]TargetSet {
	funcutil.Merge(a, b, func(x, y TargetSet) TargetSet { return x.Union(y) })
	return a
}

func copyByKind(entries map[string]map[string]TargetSet) map[string]map[string]TargetSet {
	out := make(map[string]map[string]TargetSet, len(entries))
	for kind, byName := range entries {
		cp := make(map[string]TargetSet, len(byName))
		for name, set := range byName {
			cp[name] = set.Union(TargetSet{})
		}
		out[kind] = cp
	}
	return out
}
