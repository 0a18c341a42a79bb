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

import "testing"

func TestTree_BottomIsEmpty(t *testing.T) {
	if !Bottom().IsBottom() {
		t.Errorf("Bottom() should be bottom")
	}
	if !(*Tree)(nil).IsEmpty() {
		t.Errorf("nil tree should be empty")
	}
}

func TestTree_SingletonJoinIsIdempotent(t *testing.T) {
	k := NewKind("UserControlled")
	f := NewFrame(CallInfo{Callee: "main"})
	tr := Singleton(k, f)
	joined := tr.Join(tr)
	kinds := joined.KindsPresent()
	if len(kinds) != 1 {
		t.Fatalf("expected 1 kind after self-join, got %d", len(kinds))
	}
}

func TestTree_CreateLeafThenRead(t *testing.T) {
	k := NewKind("UserControlled")
	f := NewFrame(CallInfo{Callee: "main"})
	path := Path{FieldAccess("Name"), IndexAccess(0)}
	tr := CreateLeaf(path, k, f)

	sub := tr.Read(path)
	if sub.IsBottom() {
		t.Fatalf("expected taint at %s, got bottom", path)
	}
	if len(sub.KindsPresent()) != 1 {
		t.Errorf("expected exactly one kind at leaf")
	}

	missing := tr.Read(Path{FieldAccess("Other")})
	if !missing.IsBottom() {
		t.Errorf("expected bottom at untainted path")
	}
}

func TestTree_JoinUnionsDisjointPaths(t *testing.T) {
	k := NewKind("UserControlled")
	f := NewFrame(CallInfo{Callee: "main"})
	left := CreateLeaf(Path{FieldAccess("A")}, k, f)
	right := CreateLeaf(Path{FieldAccess("B")}, k, f)
	joined := left.Join(right)

	if joined.Read(Path{FieldAccess("A")}).IsBottom() {
		t.Errorf("expected taint at .A after join")
	}
	if joined.Read(Path{FieldAccess("B")}).IsBottom() {
		t.Errorf("expected taint at .B after join")
	}
}

func TestTree_CollapseMergesChildrenIntoRoot(t *testing.T) {
	k := NewKind("UserControlled")
	f := NewFrame(CallInfo{Callee: "main"})
	tr := CreateLeaf(Path{FieldAccess("Inner")}, k, f)

	collapsed := tr.Collapse("write")
	if len(collapsed.Children) != 0 {
		t.Errorf("expected no children after collapse, got %d", len(collapsed.Children))
	}
	if len(collapsed.KindsPresent()) != 1 {
		t.Errorf("expected collapsed kind to survive at root")
	}
	for _, e := range collapsed.Kinds.Entries() {
		if _, ok := e.Frame.Breadcrumbs["write"]; !ok {
			t.Errorf("expected breadcrumb %q on collapsed frame, got %v", "write", e.Frame.Breadcrumbs)
		}
	}
}

func TestTree_SanitizeTaintKindsRemovesMatchingKind(t *testing.T) {
	tainted := NewKind("SQLInjection")
	clean := NewKind("XSS")
	f := NewFrame(CallInfo{Callee: "main"})
	tr := Singleton(tainted, f).Join(Singleton(clean, f))

	sanitized := tr.SanitizeTaintKinds(NewKindNameSet("SQLInjection"))
	names := map[string]bool{}
	for _, k := range sanitized.KindsPresent() {
		names[k.Name] = true
	}
	if names["SQLInjection"] {
		t.Errorf("expected SQLInjection to be sanitized away")
	}
	if !names["XSS"] {
		t.Errorf("expected XSS to survive sanitization")
	}
}

func TestTree_PartitionGroupsByKey(t *testing.T) {
	a := NewKind("SQLInjection")
	b := NewKind("XSS")
	f := NewFrame(CallInfo{Callee: "main"})
	tr := CreateLeaf(Path{FieldAccess("A")}, a, f).Join(CreateLeaf(Path{FieldAccess("B")}, b, f))

	groups := tr.Partition(func(k Kind) string { return k.Name })
	if len(groups) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(groups))
	}
	if groups["SQLInjection"].Read(Path{FieldAccess("A")}).IsBottom() {
		t.Errorf("expected SQLInjection partition to carry .A taint")
	}
	if !groups["SQLInjection"].Read(Path{FieldAccess("B")}).IsBottom() {
		t.Errorf("expected SQLInjection partition not to carry .B taint")
	}
}

func TestTree_FirstIndicesAndFirstFields(t *testing.T) {
	k := NewKind("UserControlled")
	f := NewFrame(CallInfo{Callee: "main"})
	tr := CreateLeaf(Path{IndexAccess(0)}, k, f).Join(CreateLeaf(Path{FieldAccess("Name")}, k, f))

	indices := tr.FirstIndices()
	if len(indices) != 1 || indices[0] != 0 {
		t.Errorf("FirstIndices() = %v, want [0]", indices)
	}
	fields := tr.FirstFields()
	if len(fields) != 1 || fields[0] != "Name" {
		t.Errorf("FirstFields() = %v, want [Name]", fields)
	}
}
