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

package cache

import "testing"

func TestReadWriteCache_PutGetContains(t *testing.T) {
	c := New()
	tgt := Target{Kind: "Function", Name: "pkg.Foo"}
	c.Put("handlers", "Foo", tgt)

	if !c.Contains("handlers", "Foo", tgt) {
		t.Fatalf("expected cache to contain the written target")
	}
	if c.Contains("handlers", "Bar", tgt) {
		t.Errorf("expected no entry under an unwritten name")
	}
	if got := c.Get("handlers", "Foo"); len(got) != 1 {
		t.Errorf("expected exactly one target, got %d", len(got))
	}
}

func TestReadWriteCache_MergeIsPointwiseUnion(t *testing.T) {
	a := New()
	a.Put("handlers", "Foo", Target{Kind: "Function", Name: "pkg.Foo"})
	b := New()
	b.Put("handlers", "Foo", Target{Kind: "Function", Name: "pkg.Bar"})
	b.Put("models", "Baz", Target{Kind: "Attribute", Name: "pkg.Baz"})

	merged := a.Merge(b)
	if got := merged.Get("handlers", "Foo"); len(got) != 2 {
		t.Fatalf("expected union of both shards' targets, got %d", len(got))
	}
	if got := merged.Get("models", "Baz"); len(got) != 1 {
		t.Errorf("expected the second shard's independent bucket to survive the merge")
	}
}

func TestCandidateTargetsFromCache_MeetJoinLaws(t *testing.T) {
	a := FromSet(NewTargetSet(Target{Kind: "Function", Name: "x"}, Target{Kind: "Function", Name: "y"}))
	b := FromSet(NewTargetSet(Target{Kind: "Function", Name: "y"}, Target{Kind: "Function", Name: "z"}))

	if meet := Meet(Top(), a); meet.top != a.top {
		t.Errorf("expected meet(Top, a) = a")
	}
	meetAB := Meet(a, b)
	set, ok := meetAB.Targets()
	if !ok || len(set) != 1 || !set.Contains(Target{Kind: "Function", Name: "y"}) {
		t.Errorf("expected meet(a, b) to be the singleton intersection {y}, got %v", set)
	}

	if join := Join(Top(), a); !join.IsTop() {
		t.Errorf("expected Top to absorb join")
	}
	joinAB := Join(a, b)
	set, ok = joinAB.Targets()
	if !ok || len(set) != 3 {
		t.Errorf("expected join(a, b) to have 3 members, got %d", len(set))
	}

	if meetBottom := Meet(a, Bottom()); len(mustSet(t, meetBottom)) != 0 {
		t.Errorf("expected Set(∅) to absorb meet")
	}
}

func TestReadWriteCache_KindsIsSorted(t *testing.T) {
	c := New()
	c.Put("models", "Baz", Target{Kind: "Attribute", Name: "pkg.Baz"})
	c.Put("handlers", "Foo", Target{Kind: "Function", Name: "pkg.Foo"})

	kinds := c.Kinds()
	if len(kinds) != 2 || kinds[0] != "handlers" || kinds[1] != "models" {
		t.Errorf("expected sorted kinds [handlers models], got %v", kinds)
	}
}

func TestTargetSet_OrderedSortsByKindThenName(t *testing.T) {
	s := NewTargetSet(
		Target{Kind: "Function", Name: "b"},
		Target{Kind: "Attribute", Name: "a"},
		Target{Kind: "Function", Name: "a"},
	)
	ordered := s.Ordered()
	if len(ordered) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(ordered))
	}
	if ordered[0] != (Target{Kind: "Attribute", Name: "a"}) ||
		ordered[1] != (Target{Kind: "Function", Name: "a"}) ||
		ordered[2] != (Target{Kind: "Function", Name: "b"}) {
		t.Errorf("expected targets sorted by kind then name, got %v", ordered)
	}
}

func mustSet(t *testing.T, c CandidateTargetsFromCache) TargetSet {
	t.Helper()
	set, ok := c.Targets()
	if !ok {
		t.Fatalf("expected a concrete target set, got Top")
	}
	return set
}
