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

import "strings"

// AccessKind discriminates the shape of a single access-path step.
type AccessKind int

const (
	// AccessIndex is a numeric index step, e.g. into a tuple or argument list.
	AccessIndex AccessKind = iota
	// AccessField is a named field step, e.g. into a struct.
	AccessField
)

// Access is a single step of an access path: either an Index or a Field.
type Access struct {
	Kind  AccessKind
	Index int
	Field string
}

// IndexAccess returns an index access step.
func IndexAccess(i int) Access {
	return Access{Kind: AccessIndex, Index: i}
}

// FieldAccess returns a field access step.
func FieldAccess(name string) Access {
	return Access{Kind: AccessField, Field: name}
}

// String returns a display representation of the step, e.g. "[2]" or ".Name".
func (a Access) String() string {
	if a.Kind == AccessField {
		return "." + a.Field
	}
	return "[" + itoa(a.Index) + "]"
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// Path is a sequence of access steps identifying a node in a Tree, read
// root to leaf.
type Path []Access

// Empty reports whether the path has no steps, i.e. names the tree root.
func (p Path) Empty() bool {
	return len(p) == 0
}

// String returns a display representation of the full path.
func (p Path) String() string {
	var b strings.Builder
	for _, a := range p {
		b.WriteString(a.String())
	}
	return b.String()
}

// HasPrefix reports whether p starts with the steps of prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, a := range prefix {
		if a != p[i] {
			return false
		}
	}
	return true
}

// Head returns the first step of p and the remaining path, when p is
// non-empty.
func (p Path) Head() (Access, Path, bool) {
	if len(p) == 0 {
		return Access{}, nil, false
	}
	return p[0], p[1:], true
}
