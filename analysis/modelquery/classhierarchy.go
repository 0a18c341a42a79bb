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

import "github.com/yourbasic/graph"

// ClassHierarchy is the directed "extends" graph a ClassConstraint is
// evaluated against: an edge from a parent to a child records that the
// child directly extends the parent. Ancestry queries on an unknown
// class return false rather than erroring, per spec.md §7's
// ClassHierarchy.Untracked treatment.
type ClassHierarchy struct {
	index    map[string]int
	names    []string
	children map[string][]string
}

// NewClassHierarchy returns an empty class hierarchy.
func NewClassHierarchy() *ClassHierarchy {
	return &ClassHierarchy{index: map[string]int{}, children: map[string][]string{}}
}

func (h *ClassHierarchy) id(name string) int {
	if i, ok := h.index[name]; ok {
		return i
	}
	i := len(h.names)
	h.index[name] = i
	h.names = append(h.names, name)
	return i
}

// AddExtends records that child directly extends parent.
func (h *ClassHierarchy) AddExtends(child, parent string) {
	h.id(child)
	h.id(parent)
	h.children[parent] = append(h.children[parent], child)
}

// classGraphIterator adapts ClassHierarchy to graph.Iterator, the same
// wrapping pattern the teacher uses for its call graph in
// internal/graphutil/graph.go's CGraph, so library traversal algorithms
// like graph.StrongComponents can run directly over the extends edges.
type classGraphIterator struct {
	h *ClassHierarchy
}

func (it classGraphIterator) Order() int { return len(it.h.names) }

func (it classGraphIterator) Visit(v int, do func(w int, c int64) bool) bool {
	for _, child := range it.h.children[it.h.names[v]] {
		if do(it.h.id(child), 1) {
			return true
		}
	}
	return false
}

// Iterator returns h as a graph.Iterator, for traversal by the
// yourbasic/graph algorithms.
func (h *ClassHierarchy) Iterator() graph.Iterator {
	return classGraphIterator{h: h}
}

// Cycles returns, for each strongly connected component of the extends
// graph with more than one member, the class names participating in
// it: an extends hierarchy with such a component is malformed, since a
// class cannot (even transitively) extend itself. Grounded on the
// teacher's own use of graph.StrongComponents for cycle detection over
// a callgraph (internal/graphutil/cycles.go's FindAllElementaryCycles).
func (h *ClassHierarchy) Cycles() [][]string {
	var cycles [][]string
	for _, component := range graph.StrongComponents(h.Iterator()) {
		if len(component) < 2 {
			continue
		}
		names := make([]string, len(component))
		for i, v := range component {
			names[i] = h.names[v]
		}
		cycles = append(cycles, names)
	}
	return cycles
}

// IsDescendant reports whether child is a (transitive) descendant of
// parent: child extends parent directly, or extends something that
// does. Unknown classes are Untracked and report false, never an error.
func (h *ClassHierarchy) IsDescendant(child, parent string) bool {
	if _, ok := h.index[parent]; !ok {
		return false
	}
	visited := map[string]bool{}
	var walk func(string) bool
	walk = func(cur string) bool {
		if visited[cur] {
			return false
		}
		visited[cur] = true
		for _, c := range h.children[cur] {
			if c == child || walk(c) {
				return true
			}
		}
		return false
	}
	return walk(parent)
}

// Descendants returns the reflexive-or-not transitive children of class.
func (h *ClassHierarchy) Descendants(class string, includeSelf bool) []string {
	visited := map[string]bool{}
	var out []string
	var walk func(string)
	walk = func(cur string) {
		for _, c := range h.children[cur] {
			if visited[c] {
				continue
			}
			visited[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(class)
	if includeSelf {
		out = append(out, class)
	}
	return out
}

// DirectChildren returns the classes that directly extend class.
func (h *ClassHierarchy) DirectChildren(class string) []string {
	return append([]string(nil), h.children[class]...)
}

// ClassConstraint is its own algebra over Extends and AnyChildConstraint.
type ClassConstraint struct {
	Extends  *ExtendsConstraint
	AnyChild *AnyChildConstraint
}

// ExtendsConstraint matches when the target's class extends Class,
// transitively if Transitive, and also matches the class itself when
// IncludesSelf.
type ExtendsConstraint struct {
	Class        string
	Transitive   bool
	IncludesSelf bool
}

// AnyChildConstraint matches when any of the (reflexive-or-not,
// transitive-or-not) children of Class satisfies Where.
type AnyChildConstraint struct {
	Class        string
	Transitive   bool
	IncludesSelf bool
	Where        func(class string) bool
}

func (cc ClassConstraint) matches(target Target, h *ClassHierarchy) bool {
	class, err := target.ClassNameOf()
	if err != nil {
		return false
	}
	switch {
	case cc.Extends != nil:
		return cc.Extends.matches(class, h)
	case cc.AnyChild != nil:
		return cc.AnyChild.matches(h)
	default:
		return false
	}
}

func (ec ExtendsConstraint) matches(class string, h *ClassHierarchy) bool {
	if ec.IncludesSelf && class == ec.Class {
		return true
	}
	if ec.Transitive {
		return h.IsDescendant(class, ec.Class)
	}
	for _, c := range h.children[ec.Class] {
		if c == class {
			return true
		}
	}
	return false
}

func (ac AnyChildConstraint) matches(h *ClassHierarchy) bool {
	var candidates []string
	if ac.Transitive {
		candidates = h.Descendants(ac.Class, ac.IncludesSelf)
	} else {
		candidates = h.DirectChildren(ac.Class)
		if ac.IncludesSelf {
			candidates = append(candidates, ac.Class)
		}
	}
	for _, c := range candidates {
		if ac.Where(c) {
			return true
		}
	}
	return false
}
