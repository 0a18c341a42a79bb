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

package ruleengine

import (
	"testing"

	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/issue"
)

func singleFlowCandidate(t *testing.T) issue.Candidate {
	t.Helper()
	userControlled := domain.NewKind("UserControlled")
	sql := domain.NewKind("Sql")
	f := domain.NewFrame(domain.CallInfo{Callee: "main"})
	flow := domain.Flow{Source: domain.Singleton(userControlled, f), Sink: domain.Singleton(sql, f)}
	key := issue.CandidateKey{
		Location: domain.Location{Filename: "a.go", Line: 1},
		Sink:     domain.SinkHandle{Kind: domain.SinkHandleCall, Callee: "exec", Port: "arg0"},
	}
	return issue.Candidate{Key: key, Flows: []domain.Flow{flow}}
}

func TestApply_SingleFlowSingleRule(t *testing.T) {
	rule := Rule{
		Code:          1,
		Sources:       []domain.Kind{domain.NewKind("UserControlled")},
		Sinks:         []domain.Kind{domain.NewKind("Sql")},
		MessageFormat: "flow from {$sources} to {$sinks}",
	}
	define := issue.Target{Callable: "main"}
	c := singleFlowCandidate(t)

	issues := Apply([]Rule{rule}, false, c, define)
	if len(issues) != 1 {
		t.Fatalf("Apply() = %d issues, want 1", len(issues))
	}
	got := issues[0]
	if got.Handle.Code != 1 || got.Handle.Callable != "main" {
		t.Errorf("handle = %+v", got.Handle)
	}
	if _, ok := got.Locations[c.Key.Location]; !ok {
		t.Errorf("expected issue location to be candidate location")
	}
	if msg := RenderMessage(rule); msg != "flow from UserControlled to Sql" {
		t.Errorf("RenderMessage() = %q", msg)
	}
}

func TestApply_NoMatchingRuleProducesNoIssue(t *testing.T) {
	rule := Rule{
		Code:    1,
		Sources: []domain.Kind{domain.NewKind("PermissiveContext")},
		Sinks:   []domain.Kind{domain.NewKind("Sql")},
	}
	define := issue.Target{Callable: "main"}
	c := singleFlowCandidate(t)

	issues := Apply([]Rule{rule}, false, c, define)
	if len(issues) != 0 {
		t.Errorf("Apply() = %d issues, want 0", len(issues))
	}
}

func TestGenerateIssues_MergeModeEnforcesAtMostOnePerHandle(t *testing.T) {
	rule := Rule{
		Code:    1,
		Sources: []domain.Kind{domain.NewKind("UserControlled")},
		Sinks:   []domain.Kind{domain.NewKind("Sql")},
	}
	define := issue.Target{Callable: "main"}

	table := issue.NewTable()
	c := singleFlowCandidate(t)
	table.Add(c.Key, c.Flows[0])
	table.Add(c.Key, c.Flows[0])

	issues, err := GenerateIssues(table, []Rule{rule}, false, define)
	if err != nil {
		t.Fatalf("GenerateIssues() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("GenerateIssues() = %d issues, want 1 (grouped by handle)", len(issues))
	}
}

func TestValidateHandles_UnknownCodeIsConfigError(t *testing.T) {
	define := issue.Target{Callable: "main"}
	h := domain.Handle{Code: 99, Callable: "main"}
	iss := issue.New(domain.Flow{}, h, domain.Location{Filename: "a.go"}, define)

	err := ValidateHandles([]issue.Issue{iss}, map[int]Rule{1: {Code: 1}})
	if err == nil {
		t.Fatalf("expected ConfigError for unknown rule code")
	}
}
