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

import (
	"sort"
	"strings"
)

// TransformName identifies a named transform a rule requires between a
// source and a sink, e.g. "Base64Decode".
type TransformName string

// SanitizeTransforms is the pair of disjoint sets a kind carries to
// describe which complementary kinds it sanitizes: the names of the
// source kinds it sanitizes, and the names of the sink kinds it
// sanitizes. A kind that sanitizes sources is attached to a sink; a kind
// that sanitizes sinks is attached to a source.
type SanitizeTransforms struct {
	Sources []string
	Sinks   []string
}

// IsEmpty returns true if the sanitize-transform pair carries no names.
func (s SanitizeTransforms) IsEmpty() bool {
	return len(s.Sources) == 0 && len(s.Sinks) == 0
}

// Kind is an opaque identifier for a source or sink type. Two kinds are
// equal iff their name, subkind, sanitize transforms and named
// transforms are all equal.
type Kind struct {
	Name       string
	Subkind    string
	Sanitize   SanitizeTransforms
	Transforms []TransformName
}

// NewKind returns a plain kind with no subkind, sanitize transforms or
// named transforms.
func NewKind(name string) Kind {
	return Kind{Name: name}
}

// DiscardSubkind returns a copy of k with the subkind cleared.
func (k Kind) DiscardSubkind() Kind {
	k.Subkind = ""
	return k
}

// DiscardTransforms returns a copy of k with the named transforms cleared.
func (k Kind) DiscardTransforms() Kind {
	k.Transforms = nil
	return k
}

// DiscardSanitizeTransforms returns a copy of k with the sanitize
// transforms cleared.
func (k Kind) DiscardSanitizeTransforms() Kind {
	k.Sanitize = SanitizeTransforms{}
	return k
}

// ExtractSanitizeTransforms returns the sanitize transforms carried by k.
func (k Kind) ExtractSanitizeTransforms() SanitizeTransforms {
	return k.Sanitize
}

// ContainsSanitizeTransforms returns true if k carries any sanitize
// transform, on either side.
func (k Kind) ContainsSanitizeTransforms() bool {
	return !k.Sanitize.IsEmpty()
}

// GetNamedTransforms returns the named transforms carried by k.
func (k Kind) GetNamedTransforms() []TransformName {
	return k.Transforms
}

// Base returns discard-sanitize-transforms ∘ discard-subkind applied to
// k: the "base" kind used by the sanitizer fixpoint's single-base-source
// / single-base-sink computation.
func (k Kind) Base() Kind {
	return k.DiscardSubkind().DiscardSanitizeTransforms()
}

// PartitionKey returns discard-subkind ∘ discard-transforms applied to k,
// as a comparable string: the key the rule engine partitions flows by.
func (k Kind) PartitionKey() string {
	return k.DiscardSubkind().DiscardTransforms().Key()
}

// Equal returns true iff every component of k and other are equal.
func (k Kind) Equal(other Kind) bool {
	return k.Key() == other.Key()
}

// Key returns a canonical, comparable string encoding of k suitable for
// use as a map key; two kinds are Equal iff their Key is equal.
func (k Kind) Key() string {
	var b strings.Builder
	b.WriteString(k.Name)
	b.WriteByte('|')
	b.WriteString(k.Subkind)
	b.WriteByte('|')
	srcs := append([]string(nil), k.Sanitize.Sources...)
	sinks := append([]string(nil), k.Sanitize.Sinks...)
	sort.Strings(srcs)
	sort.Strings(sinks)
	b.WriteString(strings.Join(srcs, ","))
	b.WriteByte('|')
	b.WriteString(strings.Join(sinks, ","))
	b.WriteByte('|')
	for i, t := range k.Transforms {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(t))
	}
	return b.String()
}

// String returns a display representation of the kind, e.g.
// "UserControlled[low]" or just "UserControlled" when there is no subkind.
func (k Kind) String() string {
	if k.Subkind == "" {
		return k.Name
	}
	return k.Name + "[" + k.Subkind + "]"
}

// KindNameSet is a set of kind base names, as used by the sanitizer
// fixpoint to describe "the sink kinds sanitized by the source side".
type KindNameSet map[string]struct{}

// NewKindNameSet returns a set containing the given names.
func NewKindNameSet(names ...string) KindNameSet {
	s := make(KindNameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains returns true if name is in the set.
func (s KindNameSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Intersect returns the intersection of s and other.
func (s KindNameSet) Intersect(other KindNameSet) KindNameSet {
	out := make(KindNameSet)
	for n := range s {
		if other.Contains(n) {
			out[n] = struct{}{}
		}
	}
	return out
}

// Union returns the union of s and other.
func (s KindNameSet) Union(other KindNameSet) KindNameSet {
	out := make(KindNameSet, len(s)+len(other))
	for n := range s {
		out[n] = struct{}{}
	}
	for n := range other {
		out[n] = struct{}{}
	}
	return out
}

// SortedKindNames returns the sorted, deduplicated list of kind names in
// ks, which rule message-template substitution joins with commas.
func SortedKindNames(ks []Kind) []string {
	seen := make(map[string]struct{}, len(ks))
	var names []string
	for _, k := range ks {
		if _, ok := seen[k.Name]; !ok {
			seen[k.Name] = struct{}{}
			names = append(names, k.Name)
		}
	}
	sort.Strings(names)
	return names
}
