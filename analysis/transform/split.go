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

// Package transform enumerates the valid source/sink decompositions of a
// rule's required named-transform sequence and applies the sanitizer
// fixpoint to each.
package transform

import (
	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/sanitize"
)

// Split is one way of dividing a rule's transform list into a source-side
// prefix already applied on the source trace and a sink-side suffix
// still to be applied on the sink trace.
type Split struct {
	Source []domain.TransformName
	Sink   []domain.TransformName
}

// Splits enumerates the n+1 ways to split ts into a (source prefix, sink
// suffix) pair, preserving order on both sides.
func Splits(ts []domain.TransformName) []Split {
	out := make([]Split, 0, len(ts)+1)
	for i := 0; i <= len(ts); i++ {
		out = append(out, Split{
			Source: append([]domain.TransformName(nil), ts[:i]...),
			Sink:   append([]domain.TransformName(nil), ts[i:]...),
		})
	}
	return out
}

// Apply enumerates Splits(transforms); for each split it partitions
// source and sink by exact named-transform match, and if both sides are
// non-bottom, runs the sanitizer fixpoint on the sub-flow and joins the
// result into an accumulator starting at domain.BottomFlow().
func Apply(transforms []domain.TransformName, f domain.Flow) domain.Flow {
	acc := domain.BottomFlow()
	for _, split := range Splits(transforms) {
		sourcePart := partitionByTransforms(f.Source, split.Source)
		sinkPart := partitionByTransforms(f.Sink, split.Sink)
		if sourcePart.IsBottom() || sinkPart.IsBottom() {
			continue
		}
		sub := sanitize.Apply(domain.Flow{Source: sourcePart, Sink: sinkPart})
		acc = acc.Join(sub)
	}
	return acc
}

// partitionByTransforms returns a copy of t keeping only the leaves whose
// kind carries exactly the given named-transform sequence.
func partitionByTransforms(t *domain.Tree, transforms []domain.TransformName) *domain.Tree {
	return t.Transform(func(k domain.Kind, fr domain.Frame) (domain.Kind, domain.Frame, bool) {
		return k, fr, transformsEqual(k.GetNamedTransforms(), transforms)
	})
}

func transformsEqual(a, b []domain.TransformName) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
