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

// Package issue defines the candidate table, the issue handle/dedup
// model, and the stable JSON schema issues are exported under.
package issue

import (
	"sort"

	"github.com/taintkit/flowcheck/analysis/domain"
)

// Target identifies the definition an issue or candidate belongs to: the
// callable's stable name and the line its definition starts at.
type Target struct {
	Callable string
	Line     int
}

// CandidateKey is the key the Candidates table is keyed by: one entry per
// (location, sink handle) pair at a definition.
type CandidateKey struct {
	Location domain.Location
	Sink     domain.SinkHandle
}

// Candidate accumulates every flow found at a single (location, sink
// handle) pair prior to rule application.
type Candidate struct {
	Key   CandidateKey
	Flows []domain.Flow
}

// Join concatenates the flow lists of c and other; their keys must be
// equal.
func (c Candidate) Join(other Candidate) Candidate {
	flows := make([]domain.Flow, 0, len(c.Flows)+len(other.Flows))
	flows = append(flows, c.Flows...)
	flows = append(flows, other.Flows...)
	return Candidate{Key: c.Key, Flows: flows}
}

// Table is the per-definition Candidates table: owned exclusively by one
// definition's forward analysis, consumed at issue generation.
type Table struct {
	entries map[CandidateKey]*Candidate
	order   []CandidateKey
}

// NewTable returns an empty candidate table.
func NewTable() *Table {
	return &Table{entries: map[CandidateKey]*Candidate{}}
}

// Add appends flow to the candidate at key, creating the entry if absent.
func (t *Table) Add(key CandidateKey, flow domain.Flow) {
	if flow.IsBottom() {
		return
	}
	if existing, ok := t.entries[key]; ok {
		existing.Flows = append(existing.Flows, flow)
		return
	}
	t.entries[key] = &Candidate{Key: key, Flows: []domain.Flow{flow}}
	t.order = append(t.order, key)
}

// Candidates returns the table's candidates in insertion order, so
// rule application is deterministic given the order flows were added.
func (t *Table) Candidates() []Candidate {
	out := make([]Candidate, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.entries[k])
	}
	return out
}

// Handle re-exports domain.Handle: the stable identifier of an issue.
type Handle = domain.Handle

// Issue is a flow that matched a rule, keyed by a handle for downstream
// deduplication.
type Issue struct {
	Flow      domain.Flow
	Handle    Handle
	Locations map[domain.Location]struct{}
	Define    Target
}

// New returns a single-location issue.
func New(flow domain.Flow, handle Handle, loc domain.Location, define Target) Issue {
	return Issue{
		Flow:      flow,
		Handle:    handle,
		Locations: map[domain.Location]struct{}{loc: {}},
		Define:    define,
	}
}

// Join combines i and other: flow join, the (equal) handle and define are
// kept, location sets are unioned. Panics if the handles differ, since
// two issues are only ever joined within a handle-keyed group.
func (i Issue) Join(other Issue) Issue {
	if i.Handle != other.Handle {
		panic("issue: Join called on issues with different handles")
	}
	locs := make(map[domain.Location]struct{}, len(i.Locations)+len(other.Locations))
	for l := range i.Locations {
		locs[l] = struct{}{}
	}
	for l := range other.Locations {
		locs[l] = struct{}{}
	}
	return Issue{
		Flow:      i.Flow.Join(other.Flow),
		Handle:    i.Handle,
		Locations: locs,
		Define:    i.Define,
	}
}

// CanonicalLocation returns the minimum of i.Locations under
// domain.Location.Less.
func (i Issue) CanonicalLocation() domain.Location {
	locs := make([]domain.Location, 0, len(i.Locations))
	for l := range i.Locations {
		locs = append(locs, l)
	}
	return domain.MinLocation(locs)
}

// GroupByHandle groups issues by handle, joining every issue that shares
// a handle into one. Used by the rule engine's merge-access-path mode to
// enforce the "at most one issue per handle" invariant.
func GroupByHandle(issues []Issue) []Issue {
	order := make([]Handle, 0, len(issues))
	grouped := map[Handle]Issue{}
	for _, iss := range issues {
		if existing, ok := grouped[iss.Handle]; ok {
			grouped[iss.Handle] = existing.Join(iss)
		} else {
			grouped[iss.Handle] = iss
			order = append(order, iss.Handle)
		}
	}
	out := make([]Issue, 0, len(order))
	for _, h := range order {
		out = append(out, grouped[h])
	}
	return out
}

// SortByHandle sorts issues by their handle's string form, giving a total
// order useful for deterministic test comparisons.
func SortByHandle(issues []Issue) {
	sort.Slice(issues, func(i, j int) bool {
		return issues[i].Handle.String() < issues[j].Handle.String()
	})
}
