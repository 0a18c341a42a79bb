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

package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/taintkit/flowcheck/analysis/flowerrors"
)

const sampleDefinitions = `
[
  {
    "callable": "pkg.Handler",
    "line": 42,
    "candidates": [
      {
        "location": {"filename": "pkg/handler.go", "line": 10, "col": 2, "end_line": 10, "end_col": 20},
        "sink": {"kind": "call", "callee": "pkg.Exec", "call_index": 0, "port": "cmd"},
        "source_leaves": [
          {"path": [{"field": "Body"}], "kind": {"name": "HttpParam"}, "breadcrumbs": ["origin"]}
        ],
        "sink_leaves": [
          {"path": [], "kind": {"name": "ShellArg"}}
        ]
      }
    ]
  }
]
`

func TestDecodeDefinitions_BuildsTableAndTarget(t *testing.T) {
	defs, err := DecodeDefinitions(strings.NewReader(sampleDefinitions))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("expected 1 definition, got %d", len(defs))
	}

	table, define := defs[0].Table()
	if define.Callable != "pkg.Handler" || define.Line != 42 {
		t.Errorf("unexpected target: %+v", define)
	}
	candidates := table.Candidates()
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(candidates[0].Flows) != 1 {
		t.Fatalf("expected 1 flow, got %d", len(candidates[0].Flows))
	}
	flow := candidates[0].Flows[0]
	if flow.Source.IsBottom() {
		t.Errorf("expected a non-bottom source tree")
	}
	if flow.Sink.IsBottom() {
		t.Errorf("expected a non-bottom sink tree")
	}
}

func TestDecodeDefinitions_MalformedJSONIsJsonError(t *testing.T) {
	_, err := DecodeDefinitions(strings.NewReader(`not json`))
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
	var je *flowerrors.JsonError
	if !errors.As(err, &je) {
		t.Errorf("expected a *flowerrors.JsonError, got %T: %v", err, err)
	}
}

const sampleTargets = `
[
  {
    "kind": "function",
    "name": "Exec",
    "fully_qualified": "pkg.Exec",
    "class_name": "Runner",
    "extends": "Base",
    "return_annotation": "error",
    "parameters": [
      {"name": "cmd", "position": 0, "annotation": "string"}
    ],
    "decorators": [
      {"name": "traced", "positional": ["slow"], "keyword": {"level": "debug"}}
    ]
  },
  {
    "kind": "attribute",
    "name": "Version",
    "fully_qualified": "pkg.Version",
    "type_annotation": "string"
  }
]
`

func TestDecodeTargets_BuildsTargetsAndHierarchy(t *testing.T) {
	targets, hierarchy, err := DecodeTargets(strings.NewReader(sampleTargets))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}

	fn := targets[0]
	if fn.Name != "Exec" || fn.ClassName != "Runner" {
		t.Errorf("unexpected function target: %+v", fn)
	}
	if len(fn.Parameters) != 1 || fn.Parameters[0].Name != "cmd" {
		t.Errorf("unexpected parameters: %+v", fn.Parameters)
	}
	if len(fn.Decorators) != 1 || fn.Decorators[0].Name != "traced" {
		t.Errorf("unexpected decorators: %+v", fn.Decorators)
	}

	attr := targets[1]
	if attr.TypeAnnotation != "string" {
		t.Errorf("expected a type annotation on the attribute target, got %+v", attr)
	}

	if !hierarchy.IsDescendant("Runner", "Base") {
		t.Errorf("expected the class hierarchy to record Runner extends Base")
	}
}

func TestDecodeTargets_MalformedJSONIsJsonError(t *testing.T) {
	_, _, err := DecodeTargets(strings.NewReader(`{"not": "an array"}`))
	if err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
	var je *flowerrors.JsonError
	if !errors.As(err, &je) {
		t.Errorf("expected a *flowerrors.JsonError, got %T: %v", err, err)
	}
}
