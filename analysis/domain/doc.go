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

/*
Package domain implements the taint abstract domain consumed by the
flow-matching, sanitizer and rule-application passes.

A [Kind] identifies a source or sink type. A [Frame] carries the leaf
payload attached to a kind at a particular access path: features,
breadcrumbs, call info, trace length, extra traces and the set of issue
handles already associated with that leaf. A [Tree] is a trie keyed by
[Path] that holds a [KindFrameSet] at every node; [Flow] pairs a forward
tree with a backward tree.

This package deliberately does not know about rules, queries or issues:
it is the lattice that every other package in this module is built on
top of, the same way the host analysis's abstract-value lattice is
opaque to the flow-matching and rule-application code that consumes it.
*/
package domain
