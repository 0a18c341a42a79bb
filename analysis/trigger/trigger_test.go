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

package trigger

import (
	"testing"

	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/issue"
	"github.com/taintkit/flowcheck/analysis/ruleengine"
)

// combinedConfig implements Config for a single combined rule requiring
// a UserControlled half ("uc") and a PermissiveContext half ("vc") to
// meet at the same partial sink.
type combinedConfig struct{}

var (
	partialSink = domain.NewKind("PartialSink")
	triggeredUC = domain.Kind{Name: "UC_and_VC", Subkind: "uc"}
	triggeredVC = domain.Kind{Name: "UC_and_VC", Subkind: "vc"}
)

func (combinedConfig) GetTriggeredSink(partial, source domain.Kind) (domain.Kind, bool) {
	if partial.Name != "PartialSink" {
		return domain.Kind{}, false
	}
	switch source.Name {
	case "UserControlled":
		return triggeredUC, true
	case "PermissiveContext":
		return triggeredVC, true
	default:
		return domain.Kind{}, false
	}
}

func (combinedConfig) Complement(triggered domain.Kind) (domain.Kind, bool) {
	switch triggered.Subkind {
	case "uc":
		return triggeredVC, true
	case "vc":
		return triggeredUC, true
	default:
		return domain.Kind{}, false
	}
}

func TestProcessCall_TwoHalvesPromoteBothIssues(t *testing.T) {
	cfg := combinedConfig{}
	rules := []ruleengine.Rule{{
		Code:    1,
		Sources: []domain.Kind{domain.NewKind("UserControlled"), domain.NewKind("PermissiveContext")},
		Sinks:   []domain.Kind{triggeredUC, triggeredVC},
	}}
	define := issue.Target{Callable: "main"}
	sinkMap := NewSinkMap()
	locMap := NewLocationMap()

	loc1 := domain.Location{Filename: "a.go", Line: 1}
	uc := domain.NewKind("UserControlled")
	sourceTree1 := domain.Singleton(uc, domain.NewFrame(domain.CallInfo{Callee: "f"}))
	sinkTree1 := domain.Singleton(partialSink, domain.NewFrame(domain.CallInfo{Callee: "f"}))

	result1 := ProcessCall(sinkMap, loc1, sourceTree1, sinkTree1, cfg, rules, false, define)
	if len(result1.ProvisionalIssues) != 1 {
		t.Fatalf("expected 1 provisional issue after first half, got %d", len(result1.ProvisionalIssues))
	}
	if len(result1.FullyTriggered) != 0 {
		t.Fatalf("expected no fully-triggered kinds after only one half is seen")
	}

	loc2 := domain.Location{Filename: "a.go", Line: 2}
	vc := domain.NewKind("PermissiveContext")
	sourceTree2 := domain.Singleton(vc, domain.NewFrame(domain.CallInfo{Callee: "f"}))
	sinkTree2 := domain.Singleton(partialSink, domain.NewFrame(domain.CallInfo{Callee: "f"}))

	result2 := ProcessCall(sinkMap, loc2, sourceTree2, sinkTree2, cfg, rules, false, define)
	if len(result2.FullyTriggered) != 1 {
		t.Fatalf("expected the second half to fully trigger, got %d", len(result2.FullyTriggered))
	}

	ucEntry := sinkMap[triggeredUC.Key()]
	vcEntry := sinkMap[triggeredVC.Key()]
	if len(ucEntry.ProvisionalHandles) == 0 || len(vcEntry.ProvisionalHandles) == 0 {
		t.Fatalf("expected both halves to cross-reference recorded handles")
	}
	for h := range ucEntry.ProvisionalHandles {
		if !vcEntry.ProvisionalHandles.Contains(h) {
			t.Errorf("expected uc and vc handle sets to match after promotion")
		}
	}

	Transfer(locMap, loc1, sinkMap)
	if _, ok := locMap[loc1]; !ok {
		t.Errorf("expected Transfer to record backward state at loc1")
	}
}
