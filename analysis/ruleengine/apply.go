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

package ruleengine

import (
	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/issue"
	"github.com/taintkit/flowcheck/analysis/transform"
)

// partitionedFlow is a candidate's flows folded into kind-partition maps,
// keyed by Kind.PartitionKey (discard-subkind ∘ discard-transforms).
type partitionedFlow struct {
	source map[string]*domain.Tree
	sink   map[string]*domain.Tree
}

func partitionCandidate(c issue.Candidate) partitionedFlow {
	pf := partitionedFlow{source: map[string]*domain.Tree{}, sink: map[string]*domain.Tree{}}
	for _, flow := range c.Flows {
		for key, t := range flow.Source.Partition(func(k domain.Kind) string { return k.PartitionKey() }) {
			pf.source[key] = pf.source[key].Join(t)
		}
		for key, t := range flow.Sink.Partition(func(k domain.Kind) string { return k.PartitionKey() }) {
			pf.sink[key] = pf.sink[key].Join(t)
		}
	}
	return pf
}

func joinKinds(partition map[string]*domain.Tree, kinds []domain.Kind) *domain.Tree {
	acc := domain.Bottom()
	for _, k := range kinds {
		if t, ok := partition[k.PartitionKey()]; ok {
			acc = acc.Join(t)
		}
	}
	return acc
}

// Apply runs every rule against one candidate, implementing spec.md
// §4.E's two modes. In merge-access-path mode (lineage == false) a rule
// that matches produces at most one issue for the candidate's handle. In
// lineage mode a rule emits one issue per (source-kind, sink-kind)
// partition pair that yields a non-bottom flow.
func Apply(rules []Rule, lineage bool, c issue.Candidate, define issue.Target) []issue.Issue {
	pf := partitionCandidate(c)
	var issues []issue.Issue
	for _, rule := range rules {
		if lineage {
			issues = append(issues, applyLineage(rule, pf, c, define)...)
			continue
		}
		if iss, ok := applyMerged(rule, pf, c, define); ok {
			issues = append(issues, iss)
		}
	}
	return issues
}

func applyMerged(rule Rule, pf partitionedFlow, c issue.Candidate, define issue.Target) (issue.Issue, bool) {
	sourceTaint := joinKinds(pf.source, rule.Sources)
	sinkTaint := joinKinds(pf.sink, rule.Sinks)
	flow := transform.Apply(rule.Transforms, domain.Flow{Source: sourceTaint, Sink: sinkTaint})
	if flow.IsBottom() {
		return issue.Issue{}, false
	}
	handle := domain.Handle{Code: rule.Code, Callable: define.Callable, Sink: c.Key.Sink}
	return issue.New(flow, handle, c.Key.Location, define), true
}

func applyLineage(rule Rule, pf partitionedFlow, c issue.Candidate, define issue.Target) []issue.Issue {
	var out []issue.Issue
	handle := domain.Handle{Code: rule.Code, Callable: define.Callable, Sink: c.Key.Sink}
	for _, sk := range rule.Sources {
		sourcePart, ok := pf.source[sk.PartitionKey()]
		if !ok {
			continue
		}
		for _, tk := range rule.Sinks {
			sinkPart, ok := pf.sink[tk.PartitionKey()]
			if !ok {
				continue
			}
			flow := transform.Apply(rule.Transforms, domain.Flow{Source: sourcePart, Sink: sinkPart})
			if flow.IsBottom() {
				continue
			}
			out = append(out, issue.New(flow, handle, c.Key.Location, define))
		}
	}
	return out
}
