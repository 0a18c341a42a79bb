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
	"strings"

	"github.com/taintkit/flowcheck/analysis/cache"
	"github.com/taintkit/flowcheck/analysis/domain"
)

// Query is a single named model query: it matches a modelable target
// against Where, then projects Models into annotations for every
// target that matches.
type Query struct {
	Name             string
	Find             ModelableKind
	Where            Constraint
	Models           []ModelClause
	ExpectedModels   []string
	UnexpectedModels []string
	Location         domain.Location

	// DependsOn names other write-to-cache queries that must run before
	// this one, for configurations where one query's cache population
	// is written with another's already-populated entries in mind even
	// though neither query's where clause reads the other directly.
	DependsOn []string
}

// Matches reports whether target is the kind Find names and satisfies
// Where under env.
func (q Query) Matches(target Target, env Env) bool {
	return q.Find == target.Kind && q.Where.Matches(target, env)
}

// SchedulerName implements scheduler.Dependent.
func (q Query) SchedulerName() string { return q.Name }

// SchedulerDependsOn implements scheduler.Dependent.
func (q Query) SchedulerDependsOn() []string { return q.DependsOn }

// Phase discriminates the three execution bins §4.H partitions queries
// into.
type Phase int

const (
	// PhaseWrite queries populate the cache; they run first.
	PhaseWrite Phase = iota
	// PhaseRead queries consult the frozen cache; they run second.
	PhaseRead
	// PhaseRegular queries reference the cache neither way; they run last.
	PhaseRegular
)

// HasWriteToCache reports whether any of q's model clauses writes to
// the cache.
func (q Query) HasWriteToCache() bool {
	for _, m := range q.Models {
		if m.writeToCache != nil {
			return true
		}
	}
	return false
}

// Phase classifies q per §4.H: write-to-cache if it has a WriteToCache
// model clause, read-from-cache if its where clause references
// ReadFromCache, regular otherwise. A query satisfying both is
// classified write-to-cache, since its where clause is required to not
// reference ReadFromCache (an invariant enforced upstream, before
// Phase is consulted).
func (q Query) Phase() Phase {
	if q.HasWriteToCache() {
		return PhaseWrite
	}
	if q.Where.referencesReadFromCache() {
		return PhaseRead
	}
	return PhaseRegular
}

// AnnotationResult is one taint annotation a models clause projected onto a
// target, scoped to a facet: "return" for a function's return value,
// a parameter name for a parameter, or "" for the whole target
// (attributes and globals).
type AnnotationResult struct {
	Target Target
	Facet  string
	Kind   domain.Kind
}

// ModelClause is the closed algebra of a query's models clause.
type ModelClause struct {
	ret                 []Production
	namedParameter      *namedParameterClause
	positionalParameter *positionalParameterClause
	allParameters       *allParametersClause
	parameter           *parameterClause
	writeToCache        *writeToCacheClause
}

type namedParameterClause struct {
	Name        string
	Productions []Production
}

type positionalParameterClause struct {
	Index       int
	Productions []Production
}

type allParametersClause struct {
	Excludes    map[string]struct{}
	Productions []Production
}

type parameterClause struct {
	Where       Constraint
	Productions []Production
}

type writeToCacheClause struct {
	Kind string
	Key  []KeyToken
}

// ModelReturn builds a models clause projecting productions over a
// function's return annotation (or an attribute/global's type
// annotation).
func ModelReturn(productions ...Production) ModelClause {
	return ModelClause{ret: productions}
}

// ModelNamedParameter builds a models clause projecting productions
// over the parameter with the given (sanitized) name.
func ModelNamedParameter(name string, productions ...Production) ModelClause {
	return ModelClause{namedParameter: &namedParameterClause{Name: name, Productions: productions}}
}

// ModelPositionalParameter builds a models clause projecting
// productions over the parameter at the given position.
func ModelPositionalParameter(index int, productions ...Production) ModelClause {
	return ModelClause{positionalParameter: &positionalParameterClause{Index: index, Productions: productions}}
}

// ModelAllParameters builds a models clause projecting productions over
// every parameter not named in excludes.
func ModelAllParameters(excludes []string, productions ...Production) ModelClause {
	ex := make(map[string]struct{}, len(excludes))
	for _, e := range excludes {
		ex[e] = struct{}{}
	}
	return ModelClause{allParameters: &allParametersClause{Excludes: ex, Productions: productions}}
}

// ModelParameter builds a models clause projecting productions over
// every parameter whose sub-target matches where.
func ModelParameter(where Constraint, productions ...Production) ModelClause {
	return ModelClause{parameter: &parameterClause{Where: where, Productions: productions}}
}

// ModelWriteToCache builds a models clause that, instead of producing
// an annotation, writes the matched target into the cache under kind
// and the key computed by expanding the key template against the
// target.
func ModelWriteToCache(kind string, key ...KeyToken) ModelClause {
	return ModelClause{writeToCache: &writeToCacheClause{Kind: kind, Key: key}}
}

// KeyToken is one piece of a write-to-cache key template: Literal s |
// FunctionName | MethodName | ClassName | Capture id.
type KeyToken struct {
	literal   *string
	kind      keyTokenKind
	captureID int
}

type keyTokenKind int

const (
	keyLiteral keyTokenKind = iota
	keyFunctionName
	keyMethodName
	keyClassName
	keyCapture
)

// Literal builds a key token contributing the literal string s.
func Literal(s string) KeyToken { return KeyToken{literal: &s, kind: keyLiteral} }

// FunctionNameToken builds a key token contributing the target's name.
func FunctionNameToken() KeyToken { return KeyToken{kind: keyFunctionName} }

// MethodNameToken builds a key token contributing the target's name,
// the method-target analogue of FunctionNameToken.
func MethodNameToken() KeyToken { return KeyToken{kind: keyMethodName} }

// ClassNameToken builds a key token contributing the target's class
// name.
func ClassNameToken() KeyToken { return KeyToken{kind: keyClassName} }

// CaptureToken builds a key token contributing the id-th captured
// regex match's first submatch group, read from the name-captures
// buffer populated during this target's constraint matching.
func CaptureToken(id int) KeyToken { return KeyToken{kind: keyCapture, captureID: id} }

func expandKey(tokens []KeyToken, target Target, captures *NameCaptures) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch tok.kind {
		case keyLiteral:
			b.WriteString(*tok.literal)
		case keyFunctionName, keyMethodName:
			b.WriteString(target.Name)
		case keyClassName:
			b.WriteString(target.ClassName)
		case keyCapture:
			if v, ok := captures.At(tok.captureID, 1); ok {
				b.WriteString(v)
			}
		}
	}
	return b.String()
}

// Production is the closed algebra of what a models clause can project
// onto a matched facet: a fixed taint annotation, or a parametric
// source/sink parsed out of the facet's own annotation expression.
type Production struct {
	taint            *domain.Kind
	parametricSource *parametricSpec
	parametricSink   *parametricSpec
}

type parametricSpec struct {
	Pattern *regexp.Regexp
	Subkind string
}

// ProduceTaint builds a production yielding the fixed kind k on every
// match.
func ProduceTaint(k domain.Kind) Production { return Production{taint: &k} }

// ProduceParametricSource builds a production that parses every
// `Source(pattern(subkind))` call out of the facet's annotation
// expression, keeping only those whose pattern matches filterPattern
// (nil matches everything) and overriding the subkind when
// overrideSubkind is non-empty.
func ProduceParametricSource(filterPattern *regexp.Regexp, overrideSubkind string) Production {
	return Production{parametricSource: &parametricSpec{Pattern: filterPattern, Subkind: overrideSubkind}}
}

// ProduceParametricSink is the sink-side symmetric counterpart of
// ProduceParametricSource.
func ProduceParametricSink(filterPattern *regexp.Regexp, overrideSubkind string) Production {
	return Production{parametricSink: &parametricSpec{Pattern: filterPattern, Subkind: overrideSubkind}}
}

// Evaluate matches q against target under env; on a match, it projects
// every models clause into annotations and, for a WriteToCache clause,
// writes target into rwc under the expanded key. rwc may be nil for a
// regular-phase query with no write clause.
func Evaluate(q Query, target Target, env Env, rwc *cache.ReadWriteCache) ([]AnnotationResult, error) {
	if !q.Matches(target, env) {
		return nil, nil
	}
	var out []AnnotationResult
	for _, m := range q.Models {
		anns, err := evaluateClause(m, target, env)
		if err != nil {
			return nil, err
		}
		out = append(out, anns...)
		if m.writeToCache != nil && rwc != nil {
			key := expandKey(m.writeToCache.Key, target, env.Captures)
			rwc.Put(m.writeToCache.Kind, key, toCacheTarget(target))
		}
	}
	return out, nil
}

func evaluateClause(m ModelClause, target Target, env Env) ([]AnnotationResult, error) {
	switch {
	case m.ret != nil:
		ann, err := annotationOf(target)
		if err != nil {
			return nil, err
		}
		return produceAll(m.ret, target, "return", ann, env)
	case m.namedParameter != nil:
		params, err := target.ParametersOf()
		if err != nil {
			return nil, err
		}
		for _, p := range params {
			if sanitizeIdent(p.Name) == sanitizeIdent(m.namedParameter.Name) {
				return produceAll(m.namedParameter.Productions, target, p.Name, p.Annotation, env)
			}
		}
		return nil, nil
	case m.positionalParameter != nil:
		params, err := target.ParametersOf()
		if err != nil {
			return nil, err
		}
		for _, p := range params {
			if p.Position == m.positionalParameter.Index {
				return produceAll(m.positionalParameter.Productions, target, p.Name, p.Annotation, env)
			}
		}
		return nil, nil
	case m.allParameters != nil:
		params, err := target.ParametersOf()
		if err != nil {
			return nil, err
		}
		var out []AnnotationResult
		for _, p := range params {
			if _, excluded := m.allParameters.Excludes[p.Name]; excluded {
				continue
			}
			anns, err := produceAll(m.allParameters.Productions, target, p.Name, p.Annotation, env)
			if err != nil {
				return nil, err
			}
			out = append(out, anns...)
		}
		return out, nil
	case m.parameter != nil:
		params, err := target.ParametersOf()
		if err != nil {
			return nil, err
		}
		var out []AnnotationResult
		for _, p := range params {
			sub := Target{Kind: Attribute, Name: p.Name, TypeAnnotation: p.Annotation}
			if !m.parameter.Where.Matches(sub, env) {
				continue
			}
			anns, err := produceAll(m.parameter.Productions, target, p.Name, p.Annotation, env)
			if err != nil {
				return nil, err
			}
			out = append(out, anns...)
		}
		return out, nil
	case m.writeToCache != nil:
		return nil, nil
	default:
		return nil, nil
	}
}

func produceAll(productions []Production, target Target, facet, annotationExpr string, env Env) ([]AnnotationResult, error) {
	var out []AnnotationResult
	for _, prod := range productions {
		anns, err := produce(prod, target, facet, annotationExpr)
		if err != nil {
			return nil, err
		}
		out = append(out, anns...)
	}
	return out, nil
}

func produce(prod Production, target Target, facet, annotationExpr string) ([]AnnotationResult, error) {
	if prod.taint != nil {
		return []AnnotationResult{{Target: target, Facet: facet, Kind: *prod.taint}}, nil
	}
	if prod.parametricSource == nil && prod.parametricSink == nil {
		return nil, nil
	}
	if annotationExpr == "" {
		return nil, nil
	}
	expr, _, err := ParseAnnotation(annotationExpr)
	if err != nil {
		return nil, err
	}
	rewritten := RewriteGlobalPlaceholder(expr, facet)
	var out []AnnotationResult
	if prod.parametricSource != nil {
		for _, pa := range ParametricSourceFromAnnotation(rewritten) {
			if prod.parametricSource.Pattern != nil && !prod.parametricSource.Pattern.MatchString(pa.Pattern) {
				continue
			}
			subkind := pa.Subkind
			if prod.parametricSource.Subkind != "" {
				subkind = prod.parametricSource.Subkind
			}
			out = append(out, AnnotationResult{Target: target, Facet: facet, Kind: domain.Kind{Name: pa.Pattern, Subkind: subkind}})
		}
	}
	if prod.parametricSink != nil {
		for _, pa := range ParametricSinkFromAnnotation(rewritten) {
			if prod.parametricSink.Pattern != nil && !prod.parametricSink.Pattern.MatchString(pa.Pattern) {
				continue
			}
			subkind := pa.Subkind
			if prod.parametricSink.Subkind != "" {
				subkind = prod.parametricSink.Subkind
			}
			out = append(out, AnnotationResult{Target: target, Facet: facet, Kind: domain.Kind{Name: pa.Pattern, Subkind: subkind}})
		}
	}
	return out, nil
}
