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

package modelquery

import (
	"regexp"
	"testing"

	"github.com/taintkit/flowcheck/analysis/cache"
	"github.com/taintkit/flowcheck/analysis/domain"
)

func TestQuery_MatchesFindAndWhere(t *testing.T) {
	q := Query{
		Find:  Function,
		Where: Name(EqualsName("handle_request")),
	}
	env := Env{}

	match := Target{Kind: Function, Name: "handle_request"}
	if !q.Matches(match, env) {
		t.Errorf("expected matching name and kind to satisfy the query")
	}

	wrongName := Target{Kind: Function, Name: "other"}
	if q.Matches(wrongName, env) {
		t.Errorf("expected a non-matching name to fail")
	}

	wrongKind := Target{Kind: Attribute, Name: "handle_request"}
	if q.Matches(wrongKind, env) {
		t.Errorf("expected find to gate on target kind")
	}
}

func TestEvaluate_ReturnTaintAnnotation(t *testing.T) {
	q := Query{
		Find:  Function,
		Where: Name(EqualsName("get_input")),
		Models: []ModelClause{
			ModelReturn(ProduceTaint(domain.NewKind("UserControlled"))),
		},
	}
	target := Target{Kind: Function, Name: "get_input", ReturnAnnotation: "str"}

	anns, err := Evaluate(q, target, Env{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anns) != 1 || anns[0].Facet != "return" || anns[0].Kind.Name != "UserControlled" {
		t.Fatalf("expected a single return UserControlled annotation, got %+v", anns)
	}
}

func TestEvaluate_AllParametersExcludesSelf(t *testing.T) {
	q := Query{
		Find:  Function,
		Where: Name(EqualsName("handler")),
		Models: []ModelClause{
			ModelAllParameters([]string{"self"}, ProduceTaint(domain.NewKind("UserControlled"))),
		},
	}
	target := Target{
		Kind: Function,
		Name: "handler",
		Parameters: []Parameter{
			{Name: "self", Position: 0},
			{Name: "request", Position: 1},
		},
	}

	anns, err := Evaluate(q, target, Env{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anns) != 1 || anns[0].Facet != "request" {
		t.Fatalf("expected self excluded and only request annotated, got %+v", anns)
	}
}

func TestEvaluate_ParametricSourceFromAnnotation(t *testing.T) {
	q := Query{
		Find:  Function,
		Where: Name(EqualsName("view")),
		Models: []ModelClause{
			ModelNamedParameter("request", ProduceParametricSource(nil, "")),
		},
	}
	target := Target{
		Kind: Function,
		Name: "view",
		Parameters: []Parameter{
			{Name: "request", Position: 0, Annotation: `Annotated[HttpRequest, Source("UserControlled", "low")]`},
		},
	}

	anns, err := Evaluate(q, target, Env{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(anns) != 1 || anns[0].Kind.Name != "UserControlled" || anns[0].Kind.Subkind != "low" {
		t.Fatalf("expected a single parsed UserControlled[low] annotation, got %+v", anns)
	}
}

func TestEvaluate_WriteToCachePopulatesCache(t *testing.T) {
	q := Query{
		Find:  Function,
		Where: Name(EqualsName("view")),
		Models: []ModelClause{
			ModelWriteToCache("views", Literal("pkg."), FunctionNameToken()),
		},
	}
	target := Target{Kind: Function, Name: "view", FullyQualified: "pkg.view"}
	rwc := cache.New()

	if _, err := Evaluate(q, target, Env{}, rwc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rwc.Contains("views", "pkg.view", toCacheTarget(target)) {
		t.Errorf("expected write-to-cache clause to populate the cache under the expanded key")
	}
}

func TestQuery_PhaseClassification(t *testing.T) {
	write := Query{Models: []ModelClause{ModelWriteToCache("k", Literal("x"))}}
	if write.Phase() != PhaseWrite {
		t.Errorf("expected a WriteToCache model clause to classify as PhaseWrite")
	}

	read := Query{Where: AllOf(ReadFromCacheConstraint(ReadFromCache{Kind: "k", Name: "n"}))}
	if read.Phase() != PhaseRead {
		t.Errorf("expected a ReadFromCache leaf to classify as PhaseRead")
	}

	regular := Query{Where: Name(EqualsName("x"))}
	if regular.Phase() != PhaseRegular {
		t.Errorf("expected a plain where clause to classify as PhaseRegular")
	}
}

func TestFromConstraint_DerivesCandidateSetFromCache(t *testing.T) {
	rwc := cache.New()
	rwc.Put("views", "a", cache.Target{Kind: "Function", Name: "pkg.a"})
	rwc.Put("views", "a", cache.Target{Kind: "Function", Name: "pkg.b"})

	c := AllOf(ReadFromCacheConstraint(ReadFromCache{Kind: "views", Name: "a"}))
	derived := FromConstraint(rwc, c)
	set, ok := derived.Targets()
	if !ok {
		t.Fatalf("expected a concrete candidate set, got Top")
	}
	if len(set) != 2 {
		t.Errorf("expected 2 candidate targets, got %d", len(set))
	}
}

func TestCandidatesFromCache_RestrictsToCacheMembers(t *testing.T) {
	rwc := cache.New()
	rwc.Put("views", "a", cache.Target{Kind: "Function", Name: "pkg.a"})

	q := Query{
		Find:  Function,
		Where: ReadFromCacheConstraint(ReadFromCache{Kind: "views", Name: "a"}),
	}
	targets := []Target{
		{Kind: Function, Name: "a", FullyQualified: "pkg.a"},
		{Kind: Function, Name: "b", FullyQualified: "pkg.b"},
	}

	candidates, err := CandidatesFromCache(rwc, q, targets)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 || candidates[0].FullyQualified != "pkg.a" {
		t.Errorf("expected only pkg.a to survive the cache restriction, got %+v", candidates)
	}
}

func TestCandidatesFromCache_TopAtTopLevelIsConfigError(t *testing.T) {
	rwc := cache.New()
	q := Query{Find: Function, Where: Name(EqualsName("x"))}

	if _, err := CandidatesFromCache(rwc, q, nil); err == nil {
		t.Fatalf("expected a where clause with no ReadFromCache leaf to raise a ConfigError")
	}
}

func TestNameConstraint_MatchRecordsCaptures(t *testing.T) {
	captures := NewNameCaptures()
	nc := MatchesName(regexp.MustCompile(`^get_(\w+)$`))
	if !nc.matches("get_token", captures) {
		t.Fatalf("expected pattern to match")
	}
	if v, ok := captures.At(0, 1); !ok || v != "token" {
		t.Errorf("expected the first capture group to be %q, got %q (ok=%v)", "token", v, ok)
	}
}

func TestRegistryMap_MergeJoinsUserModels(t *testing.T) {
	target := Target{Kind: Function, Name: "view", FullyQualified: "pkg.view"}

	a := NewModelQueryRegistryMap()
	a.Add(target, []AnnotationResult{{Target: target, Facet: "return", Kind: domain.NewKind("UserControlled")}})

	b := NewModelQueryRegistryMap()
	b.Add(target, []AnnotationResult{{Target: target, Facet: "return", Kind: domain.NewKind("UserControlled")}})
	b.Add(target, []AnnotationResult{{Target: target, Facet: "return", Kind: domain.NewKind("PermissiveContext")}})

	merged := a.Merge(b)
	models := merged.Models()
	if len(models) != 1 {
		t.Fatalf("expected a single merged model entry, got %d", len(models))
	}
	if len(models[0].Facets["return"]) != 2 {
		t.Errorf("expected duplicate UserControlled to be deduplicated, leaving 2 kinds, got %d", len(models[0].Facets["return"]))
	}
}
