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

package flowmatch

import (
	"testing"

	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/issue"
)

func leaf(name string) (domain.Kind, domain.Frame) {
	return domain.NewKind(name), domain.NewFrame(domain.CallInfo{Callee: "main"})
}

func TestMatch_SingleFlowAtRoot(t *testing.T) {
	sk, sf := leaf("UserControlled")
	kk, kf := leaf("Sql")
	source := domain.Singleton(sk, sf)
	sink := domain.Singleton(kk, kf)

	flows := Match(source, sink)
	if len(flows) != 1 {
		t.Fatalf("Match() = %d flows, want 1", len(flows))
	}
	if flows[0].Source.IsBottom() || flows[0].Sink.IsBottom() {
		t.Errorf("expected non-bottom flow, got %+v", flows[0])
	}
}

func TestMatch_NoSourceMeansNoFlow(t *testing.T) {
	kk, kf := leaf("Sql")
	sink := domain.Singleton(kk, kf)

	flows := Match(domain.Bottom(), sink)
	if len(flows) != 0 {
		t.Errorf("Match() = %d flows, want 0 when source is bottom", len(flows))
	}
}

func TestMatch_OneFlowPerSinkLeafPath(t *testing.T) {
	sk, sf := leaf("UserControlled")
	kk, kf := leaf("Sql")

	source := domain.CreateLeaf(domain.Path{domain.FieldAccess("A")}, sk, sf).
		Join(domain.CreateLeaf(domain.Path{domain.FieldAccess("B")}, sk, sf))
	sink := domain.CreateLeaf(domain.Path{domain.FieldAccess("A")}, kk, kf).
		Join(domain.CreateLeaf(domain.Path{domain.FieldAccess("B")}, kk, kf))

	flows := Match(source, sink)
	if len(flows) != 2 {
		t.Fatalf("Match() = %d flows, want 2 (one per sink leaf path)", len(flows))
	}
}

func TestMatch_SinkLeafWithNoMatchingSourceProducesNoFlow(t *testing.T) {
	sk, sf := leaf("UserControlled")
	kk, kf := leaf("Sql")

	source := domain.CreateLeaf(domain.Path{domain.FieldAccess("A")}, sk, sf)
	sink := domain.CreateLeaf(domain.Path{domain.FieldAccess("A")}, kk, kf).
		Join(domain.CreateLeaf(domain.Path{domain.FieldAccess("Unmatched")}, kk, kf))

	flows := Match(source, sink)
	if len(flows) != 1 {
		t.Fatalf("Match() = %d flows, want 1 (the unmatched path has bottom source)", len(flows))
	}
}

func TestCheckFlow_AppendsIntoCandidateTable(t *testing.T) {
	sk, sf := leaf("UserControlled")
	kk, kf := leaf("Sql")
	source := domain.Singleton(sk, sf)
	sink := domain.Singleton(kk, kf)

	table := issue.NewTable()
	loc := domain.Location{Filename: "a.go", Line: 1}
	handle := domain.SinkHandle{Kind: domain.SinkHandleCall, Callee: "exec", Port: "arg0"}

	CheckFlow(table, loc, handle, source, sink)
	candidates := table.Candidates()
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(candidates[0].Flows) != 1 {
		t.Errorf("expected 1 flow in candidate, got %d", len(candidates[0].Flows))
	}
}
