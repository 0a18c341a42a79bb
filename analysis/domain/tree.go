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

package domain

// KindFrameSet maps a kind to the frame attached to it at a single tree
// node. Kinds are keyed by Kind.Key() since Kind is not itself a valid Go
// map key.
type KindFrameSet map[string]kindFrameEntry

type kindFrameEntry struct {
	Kind  Kind
	Frame Frame
}

func newKindFrameSet() KindFrameSet {
	return KindFrameSet{}
}

// Put sets the frame for k, joining with any frame already present for an
// equal kind.
func (s KindFrameSet) Put(k Kind, f Frame) {
	key := k.Key()
	if existing, ok := s[key]; ok {
		s[key] = kindFrameEntry{Kind: k, Frame: existing.Frame.Join(f)}
		return
	}
	s[key] = kindFrameEntry{Kind: k, Frame: f}
}

// Join returns the union of s and other, joining frames of equal kinds.
func (s KindFrameSet) Join(other KindFrameSet) KindFrameSet {
	out := make(KindFrameSet, len(s)+len(other))
	for key, e := range s {
		out[key] = e
	}
	for key, e := range other {
		if existing, ok := out[key]; ok {
			out[key] = kindFrameEntry{Kind: e.Kind, Frame: existing.Frame.Join(e.Frame)}
		} else {
			out[key] = e
		}
	}
	return out
}

// Entries returns the kind/frame pairs in the set, in no particular order.
func (s KindFrameSet) Entries() []kindFrameEntry {
	out := make([]kindFrameEntry, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	return out
}

func (s KindFrameSet) clone() KindFrameSet {
	out := make(KindFrameSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Tree is a trie keyed by access path. Every node, including the root,
// carries a KindFrameSet of the kinds tainting that exact access path;
// children refine the path one step further. A nil *Tree is bottom: no
// taint at any path.
type Tree struct {
	Kinds    KindFrameSet
	Children map[Access]*Tree
}

// Bottom returns the empty tree: no taint anywhere.
func Bottom() *Tree {
	return nil
}

// IsBottom reports whether t carries no taint at any path.
func (t *Tree) IsBottom() bool {
	return t == nil || (len(t.Kinds) == 0 && len(t.Children) == 0)
}

// IsEmpty is an alias for IsBottom, matching the host lattice's
// is_empty/is_bottom naming for the leaf set at a single node.
func (t *Tree) IsEmpty() bool {
	return t.IsBottom()
}

// Singleton returns a one-node tree tainting the root path with kind k and
// frame f.
func Singleton(k Kind, f Frame) *Tree {
	t := &Tree{Kinds: newKindFrameSet()}
	t.Kinds.Put(k, f)
	return t
}

// CreateLeaf returns a tree tainting exactly path with kind k and frame f,
// all other paths untainted.
func CreateLeaf(path Path, k Kind, f Frame) *Tree {
	if path.Empty() {
		return Singleton(k, f)
	}
	head, rest, _ := path.Head()
	return &Tree{Children: map[Access]*Tree{head: CreateLeaf(rest, k, f)}}
}

// Join returns the least upper bound of t and other: the union of taint at
// every path, joining frames of equal kinds at each shared path.
func (t *Tree) Join(other *Tree) *Tree {
	if t.IsBottom() {
		return other
	}
	if other.IsBottom() {
		return t
	}
	out := &Tree{Kinds: t.Kinds.Join(other.Kinds)}
	if len(t.Children) == 0 && len(other.Children) == 0 {
		return out
	}
	out.Children = make(map[Access]*Tree, len(t.Children)+len(other.Children))
	for a, c := range t.Children {
		out.Children[a] = c
	}
	for a, c := range other.Children {
		if existing, ok := out.Children[a]; ok {
			out.Children[a] = existing.Join(c)
		} else {
			out.Children[a] = c
		}
	}
	return out
}

// Read returns the subtree rooted at path, or Bottom() if path is not
// present.
func (t *Tree) Read(path Path) *Tree {
	if t.IsBottom() {
		return Bottom()
	}
	if path.Empty() {
		return t
	}
	head, rest, _ := path.Head()
	child, ok := t.Children[head]
	if !ok {
		return Bottom()
	}
	return child.Read(rest)
}

// Collapse folds every descendant of t into the root node's kind set,
// tagging every folded frame with breadcrumb labels describing the step
// it was collapsed through. Used when a definition writes through an
// access path the analysis cannot track field-sensitively any further.
func (t *Tree) Collapse(breadcrumbs ...string) *Tree {
	if t.IsBottom() {
		return Bottom()
	}
	out := &Tree{Kinds: newKindFrameSet()}
	label := "collapsed"
	if len(breadcrumbs) > 0 {
		label = breadcrumbs[0]
	}
	for _, e := range t.Kinds.Entries() {
		out.Kinds.Put(e.Kind, e.Frame.WithBreadcrumb(label))
	}
	for access, child := range t.Children {
		collapsedChild := child.Collapse(access.String())
		for _, e := range collapsedChild.Kinds.Entries() {
			out.Kinds.Put(e.Kind, e.Frame.WithBreadcrumb(label))
		}
	}
	return out
}

// Fold calls visit for every (path, kind, frame) triple in t, depth first.
func (t *Tree) Fold(visit func(path Path, k Kind, f Frame)) {
	t.foldFrom(nil, visit)
}

func (t *Tree) foldFrom(prefix Path, visit func(path Path, k Kind, f Frame)) {
	if t.IsBottom() {
		return
	}
	for _, e := range t.Kinds.Entries() {
		visit(prefix, e.Kind, e.Frame)
	}
	for access, child := range t.Children {
		child.foldFrom(append(append(Path(nil), prefix...), access), visit)
	}
}

// Transform returns a copy of t with f applied to every (kind, frame)
// pair; if f returns ok == false, that leaf is dropped.
func (t *Tree) Transform(f func(k Kind, fr Frame) (Kind, Frame, bool)) *Tree {
	if t.IsBottom() {
		return Bottom()
	}
	out := &Tree{Kinds: newKindFrameSet()}
	for _, e := range t.Kinds.Entries() {
		if nk, nf, ok := f(e.Kind, e.Frame); ok {
			out.Kinds.Put(nk, nf)
		}
	}
	if len(t.Children) > 0 {
		out.Children = make(map[Access]*Tree, len(t.Children))
		for access, child := range t.Children {
			transformed := child.Transform(f)
			if !transformed.IsBottom() {
				out.Children[access] = transformed
			}
		}
	}
	return out
}

// Partition splits t into groups keyed by keyFn applied to each kind.
// Every frame lands in exactly one group: a kind that maps to the empty
// string is grouped under the "" key like any other.
func (t *Tree) Partition(keyFn func(k Kind) string) map[string]*Tree {
	out := map[string]*Tree{}
	t.Fold(func(path Path, k Kind, f Frame) {
		key := keyFn(k)
		leaf := CreateLeaf(path, k, f)
		if existing, ok := out[key]; ok {
			out[key] = existing.Join(leaf)
		} else {
			out[key] = leaf
		}
	})
	return out
}

// SanitizeTaintKinds returns a copy of t with every leaf whose kind name
// is in sanitized removed, at every path.
func (t *Tree) SanitizeTaintKinds(sanitized KindNameSet) *Tree {
	return t.Transform(func(k Kind, f Frame) (Kind, Frame, bool) {
		return k, f, !sanitized.Contains(k.Name)
	})
}

// KindsPresent returns the set of distinct kinds tainting any path of t.
func (t *Tree) KindsPresent() []Kind {
	seen := map[string]Kind{}
	t.Fold(func(_ Path, k Kind, _ Frame) {
		seen[k.Key()] = k
	})
	out := make([]Kind, 0, len(seen))
	for _, k := range seen {
		out = append(out, k)
	}
	return out
}

// JoinedBreadcrumbs returns the union of every breadcrumb set attached to
// any leaf of t.
func (t *Tree) JoinedBreadcrumbs() BreadcrumbSet {
	out := BreadcrumbSet{}
	t.Fold(func(_ Path, _ Kind, f Frame) {
		out = out.Union(f.Breadcrumbs)
	})
	return out
}

// FirstIndices returns the set of index steps present as direct children
// of the root of t.
func (t *Tree) FirstIndices() []int {
	if t.IsBottom() {
		return nil
	}
	var out []int
	for a := range t.Children {
		if a.Kind == AccessIndex {
			out = append(out, a.Index)
		}
	}
	return out
}

// FirstFields returns the set of field steps present as direct children
// of the root of t.
func (t *Tree) FirstFields() []string {
	if t.IsBottom() {
		return nil
	}
	var out []string
	for a := range t.Children {
		if a.Kind == AccessField {
			out = append(out, a.Field)
		}
	}
	return out
}
