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

// Package flowmatch enumerates (source, sink) path pairs between a
// forward and a backward taint tree, producing one Flow per sink leaf
// with a non-bottom matching source.
package flowmatch

import "github.com/taintkit/flowcheck/analysis/domain"

// Breadcrumb is the label attached to a source subtree when it is
// collapsed to meet a sink leaf, recording which widening step produced
// the match.
const Breadcrumb = "matched"

// Match folds sink path by path and, for each leaf path, reads the
// source tree at that path, collapses it, and emits one Flow if the
// collapsed source taint is non-bottom. If source is bottom outright, no
// flow is produced for any path — an empty forward tree can never match.
func Match(source, sink *domain.Tree) []domain.Flow {
	if source.IsBottom() || sink.IsBottom() {
		return nil
	}
	var flows []domain.Flow
	leafPaths(sink, nil, func(path domain.Path, sinkLeaf *domain.Tree) {
		collapsed := source.Read(path).Collapse(Breadcrumb)
		if collapsed.IsBottom() {
			return
		}
		flows = append(flows, domain.Flow{Source: collapsed, Sink: sinkLeaf})
	})
	return flows
}

// leafPaths calls visit once per path-to-leaf of t: every node that
// itself carries a non-empty kind set, regardless of whether it also has
// children, since a node's own kind set is a leaf in the sense spec.md
// means (a (kind, frame) pair attached at that access path). The leaf
// passed to visit carries only that node's own kinds, not its children's.
func leafPaths(t *domain.Tree, prefix domain.Path, visit func(path domain.Path, leaf *domain.Tree)) {
	if t.IsBottom() {
		return
	}
	if len(t.Kinds) > 0 {
		visit(prefix, &domain.Tree{Kinds: t.Kinds})
	}
	for access, child := range t.Children {
		leafPaths(child, append(append(domain.Path(nil), prefix...), access), visit)
	}
}
