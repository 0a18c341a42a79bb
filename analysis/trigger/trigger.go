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

// Package trigger implements the multi-source triggered-sink protocol:
// combined-source rules whose flow needs two complementary sources
// meeting at one sink are tracked here across calls until both halves
// are seen.
package trigger

import (
	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/flowmatch"
	"github.com/taintkit/flowcheck/analysis/issue"
	"github.com/taintkit/flowcheck/analysis/ruleengine"
)

// Config is the host-provided rule configuration §4.F reads: given a
// partial sink kind and a candidate source kind, it reports the
// complementary TriggeredPartialSink kind the source half satisfies, if
// any, and the other half's kind for a given triggered kind.
type Config interface {
	GetTriggeredSink(partialSink, source domain.Kind) (domain.Kind, bool)
	Complement(triggered domain.Kind) (domain.Kind, bool)
}

// Entry is one partial sink's state within a single call's SinkMap: the
// synthetic backward taint accumulated for it so far, and the provisional
// issue handles recorded against it.
type Entry struct {
	Sink               *domain.Tree
	ProvisionalHandles domain.HandleSet
}

// SinkMap is the per-call TriggeredSinkHashMap: exclusively owned by the
// analysis of one call site, consumed when the call returns.
type SinkMap map[string]*Entry

// NewSinkMap returns an empty per-call sink map.
func NewSinkMap() SinkMap {
	return SinkMap{}
}

// LocationMap is the per-definition TriggeredSinkLocationMap: keyed by
// the call's location, it carries the backward state to be joined into
// the definition's backward result.
type LocationMap map[domain.Location]*domain.Tree

// NewLocationMap returns an empty per-definition location map.
func NewLocationMap() LocationMap {
	return LocationMap{}
}

// Result is what ProcessCall reports for one call site: the provisional
// issues recorded for any newly half- or fully-triggered partial sink,
// and whether any partial sink at this call became fully triggered.
type Result struct {
	ProvisionalIssues []issue.Issue
	FullyTriggered    []domain.Kind
}

// ProcessCall scans sinkTree's leaves for partial-sink kinds and, for
// each one paired with a source kind present in sourceTree that the
// configuration recognizes as triggering it, builds a synthetic sink
// leaf and runs the flow matcher and rule engine against it, recording
// the result in sinkMap under the triggered kind's key. If the map
// already held the complement of a newly triggered kind, both halves are
// now known and their handle sets are cross-referenced.
func ProcessCall(sinkMap SinkMap, loc domain.Location, sourceTree, sinkTree *domain.Tree, cfg Config, rules []ruleengine.Rule, lineage bool, define issue.Target) Result {
	var result Result
	if sourceTree.IsBottom() || sinkTree.IsBottom() {
		return result
	}
	partialSinks := sinkTree.KindsPresent()
	sourceKinds := sourceTree.KindsPresent()

	for _, partial := range partialSinks {
		for _, source := range sourceKinds {
			triggered, ok := cfg.GetTriggeredSink(partial, source)
			if !ok {
				continue
			}
			key := triggered.Key()
			origin := domain.NewFrame(domain.OriginCallInfo(loc)).WithExtraTrace(domain.ExtraTraceFrame{
				CallInfo: domain.CallInfo{Location: loc},
				LeafKind: "Source",
				Label:    source.Name,
			})
			syntheticSink := domain.Singleton(triggered, origin)

			flows := flowmatch.Match(sourceTree, syntheticSink)
			if len(flows) == 0 {
				continue
			}

			cand := issue.Candidate{
				Key: issue.CandidateKey{
					Location: loc,
					Sink:     domain.SinkHandle{Kind: domain.SinkHandleTriggered, Port: key},
				},
				Flows: flows,
			}
			provisional := ruleengine.Apply(rules, lineage, cand, define)
			handles := domain.NewHandleSet()
			for _, iss := range provisional {
				handles.Add(iss.Handle)
			}
			result.ProvisionalIssues = append(result.ProvisionalIssues, provisional...)

			if existing, ok := sinkMap[key]; ok {
				existing.Sink = existing.Sink.Join(syntheticSink)
				existing.ProvisionalHandles = existing.ProvisionalHandles.Union(handles)
			} else {
				sinkMap[key] = &Entry{Sink: syntheticSink, ProvisionalHandles: handles}
			}

			if complement, ok := cfg.Complement(triggered); ok {
				if compEntry, found := sinkMap[complement.Key()]; found {
					merged := sinkMap[key].ProvisionalHandles.Union(compEntry.ProvisionalHandles)
					sinkMap[key].ProvisionalHandles = merged
					compEntry.ProvisionalHandles = merged
					result.FullyTriggered = append(result.FullyTriggered, triggered)
				}
			}
		}
	}
	return result
}

// Transfer moves every entry of sinkMap into locMap under loc, joining
// with whatever backward state locMap already carries for that location.
// Called once the call returns; sinkMap is not reused afterward.
func Transfer(locMap LocationMap, loc domain.Location, sinkMap SinkMap) {
	tree := domain.Bottom()
	for _, entry := range sinkMap {
		tree = tree.Join(entry.Sink)
	}
	if tree.IsBottom() {
		return
	}
	if existing, ok := locMap[loc]; ok {
		locMap[loc] = existing.Join(tree)
	} else {
		locMap[loc] = tree
	}
}
