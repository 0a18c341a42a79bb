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

import "github.com/taintkit/flowcheck/analysis/domain"

// Model is the accumulated set of taint annotations a target has been
// given across every query that matched it, one slice of kinds per
// facet ("return", a parameter name, or "" for a whole attribute or
// global).
type Model struct {
	Target Target
	Facets map[string][]domain.Kind
}

func newModel(target Target) *Model {
	return &Model{Target: target, Facets: map[string][]domain.Kind{}}
}

// JoinUserModels merges other into m, deduplicating kinds within a
// facet by Kind.Key so the same annotation produced by two queries (or
// two worker shards) is not recorded twice.
func (m *Model) JoinUserModels(other *Model) {
	for facet, kinds := range other.Facets {
		existing := m.Facets[facet]
		seen := make(map[string]struct{}, len(existing))
		for _, k := range existing {
			seen[k.Key()] = struct{}{}
		}
		for _, k := range kinds {
			if _, ok := seen[k.Key()]; ok {
				continue
			}
			seen[k.Key()] = struct{}{}
			existing = append(existing, k)
		}
		m.Facets[facet] = existing
	}
}

// ModelQueryRegistryMap accumulates Model entries keyed by target
// identity, across every query and every worker shard.
type ModelQueryRegistryMap struct {
	models map[string]*Model
}

// NewModelQueryRegistryMap returns an empty registry.
func NewModelQueryRegistryMap() *ModelQueryRegistryMap {
	return &ModelQueryRegistryMap{models: map[string]*Model{}}
}

func registryKey(t Target) string {
	return t.Kind.String() + "|" + t.FullyQualified
}

// Add records the annotations produced for target, creating or joining
// into its Model entry.
func (r *ModelQueryRegistryMap) Add(target Target, annotations []AnnotationResult) {
	if len(annotations) == 0 {
		return
	}
	key := registryKey(target)
	m, ok := r.models[key]
	if !ok {
		m = newModel(target)
		r.models[key] = m
	}
	for _, a := range annotations {
		m.Facets[a.Facet] = append(m.Facets[a.Facet], a.Kind)
	}
}

// Models returns every accumulated Model, in no particular order.
func (r *ModelQueryRegistryMap) Models() []*Model {
	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	return out
}

// Merge returns a new registry holding the pointwise, commutative,
// associative join of r and other: entries unique to either side pass
// through, entries present in both are combined with
// Model.JoinUserModels.
func (r *ModelQueryRegistryMap) Merge(other *ModelQueryRegistryMap) *ModelQueryRegistryMap {
	out := NewModelQueryRegistryMap()
	for _, src := range []*ModelQueryRegistryMap{r, other} {
		if src == nil {
			continue
		}
		for key, m := range src.models {
			existing, ok := out.models[key]
			if !ok {
				copied := newModel(m.Target)
				copied.JoinUserModels(m)
				out.models[key] = copied
				continue
			}
			existing.JoinUserModels(m)
		}
	}
	return out
}
