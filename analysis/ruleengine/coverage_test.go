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
	"strings"
	"testing"

	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/issue"
)

func TestRecordCoverage_FiltersByPathAndSkipsBottomFlows(t *testing.T) {
	table := issue.NewTable()

	loc1 := domain.Location{Filename: "app/handlers.go", Line: 10, EndLine: 10, EndCol: 20}
	flow := domain.Flow{
		Source: domain.Singleton(domain.Kind{Name: "HttpParam"}, domain.NewFrame(domain.OriginCallInfo(loc1))),
		Sink:   domain.Bottom(),
	}
	table.Add(issue.CandidateKey{Location: loc1}, flow)

	loc2 := domain.Location{Filename: "vendor/other.go", Line: 3, EndLine: 3, EndCol: 9}
	table.Add(issue.CandidateKey{Location: loc2}, flow)

	loc3 := domain.Location{Filename: "app/bottom.go", Line: 1, EndLine: 1, EndCol: 1}
	table.Add(issue.CandidateKey{Location: loc3}, domain.BottomFlow())

	coverage := map[string]bool{}
	RecordCoverage(table, "app/", coverage)

	if len(coverage) != 1 {
		t.Fatalf("expected exactly one covered line, got %d: %v", len(coverage), coverage)
	}
	for line := range coverage {
		if !strings.Contains(line, "app/handlers.go") {
			t.Errorf("expected the covered line to reference app/handlers.go, got %q", line)
		}
	}
}

func TestRecordCoverage_NilMapIsNoOp(t *testing.T) {
	table := issue.NewTable()
	RecordCoverage(table, "", nil)
}

func TestWriteCoverage_SortsBeforeWriting(t *testing.T) {
	coverage := map[string]bool{
		"b.go:2.1,2.2 1 1\n": true,
		"a.go:1.1,1.2 1 1\n": true,
	}
	var sb strings.Builder
	WriteCoverage(coverage, &sb)
	want := "a.go:1.1,1.2 1 1\nb.go:2.1,2.2 1 1\n"
	if sb.String() != want {
		t.Errorf("expected sorted coverage output %q, got %q", want, sb.String())
	}
}
