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

package sanitize

import (
	"testing"

	"github.com/taintkit/flowcheck/analysis/domain"
)

func frame() domain.Frame {
	return domain.NewFrame(domain.CallInfo{Callee: "main"})
}

func TestApply_SanitizerEliminatesMatchingSink(t *testing.T) {
	userControlled := domain.Kind{
		Name:     "UserControlled",
		Sanitize: domain.SanitizeTransforms{Sinks: []string{"Sql"}},
	}
	sql := domain.NewKind("Sql")

	flow := domain.Flow{
		Source: domain.Singleton(userControlled, frame()),
		Sink:   domain.Singleton(sql, frame()),
	}

	result := Apply(flow)
	if !result.Sink.IsBottom() {
		t.Errorf("expected Sql sink to be sanitized away, got %+v", result.Sink.KindsPresent())
	}
	if result.IsBottom() != true {
		t.Errorf("expected the whole flow to become bottom once the sink side is sanitized away")
	}
}

func TestApply_NoSanitizerMeansNoChange(t *testing.T) {
	userControlled := domain.NewKind("UserControlled")
	sql := domain.NewKind("Sql")

	flow := domain.Flow{
		Source: domain.Singleton(userControlled, frame()),
		Sink:   domain.Singleton(sql, frame()),
	}

	result := Apply(flow)
	if result.IsBottom() {
		t.Errorf("expected flow to survive when no sanitizer applies")
	}
}

func TestApply_Idempotent(t *testing.T) {
	userControlled := domain.Kind{
		Name:     "UserControlled",
		Sanitize: domain.SanitizeTransforms{Sinks: []string{"Sql"}},
	}
	sql := domain.NewKind("Sql")
	xss := domain.NewKind("Xss")

	flow := domain.Flow{
		Source: domain.Singleton(userControlled, frame()),
		Sink:   domain.Singleton(sql, frame()).Join(domain.Singleton(xss, frame())),
	}

	once := Apply(flow)
	twice := Apply(once)

	onceNames := map[string]bool{}
	for _, k := range once.Sink.KindsPresent() {
		onceNames[k.Name] = true
	}
	twiceNames := map[string]bool{}
	for _, k := range twice.Sink.KindsPresent() {
		twiceNames[k.Name] = true
	}
	if len(onceNames) != len(twiceNames) {
		t.Fatalf("Apply() not idempotent: %v vs %v", onceNames, twiceNames)
	}
	for name := range onceNames {
		if !twiceNames[name] {
			t.Errorf("Apply() not idempotent: %v vs %v", onceNames, twiceNames)
		}
	}
}

func TestApply_MonotoneSinkNeverGrows(t *testing.T) {
	userControlled := domain.Kind{
		Name:     "UserControlled",
		Sanitize: domain.SanitizeTransforms{Sinks: []string{"Sql"}},
	}
	sql := domain.NewKind("Sql")
	xss := domain.NewKind("Xss")

	flow := domain.Flow{
		Source: domain.Singleton(userControlled, frame()),
		Sink:   domain.Singleton(sql, frame()).Join(domain.Singleton(xss, frame())),
	}

	before := len(flow.Sink.KindsPresent())
	after := len(Apply(flow).Sink.KindsPresent())
	if after > before {
		t.Errorf("sanitizer fixpoint must not grow the sink kind set: %d -> %d", before, after)
	}
}
