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
)

// Constraint is the closed algebra a query's where clause is built from.
// Exactly one of the embedded cases should be non-nil on any Constraint
// value produced by the constructors in this file; Matches dispatches on
// which one is set the same way isMatchingCodeId dispatches on a fixed
// set of node kinds.
type Constraint struct {
	anyOf          []Constraint
	allOf          []Constraint
	not            *Constraint
	name           *NameConstraint
	fullyQualified *NameConstraint
	annotation     *AnnotationConstraint
	ret            *Constraint
	anyParameter   *Constraint
	anyDecorator   *ArgumentsConstraint
	class          *ClassConstraint
	readFromCache  *ReadFromCache
}

// AnyOf builds a Constraint satisfied when any of cs matches.
func AnyOf(cs ...Constraint) Constraint { return Constraint{anyOf: cs} }

// AllOf builds a Constraint satisfied when every one of cs matches.
func AllOf(cs ...Constraint) Constraint { return Constraint{allOf: cs} }

// Not negates c.
func Not(c Constraint) Constraint { return Constraint{not: &c} }

// Name builds a Constraint matching on the target's own name.
func Name(nc NameConstraint) Constraint { return Constraint{name: &nc} }

// FullyQualifiedName builds a Constraint matching on the target's fully
// qualified name.
func FullyQualifiedName(nc NameConstraint) Constraint { return Constraint{fullyQualified: &nc} }

// Annotation builds a Constraint matching on a function's return
// annotation, or an attribute/global's type annotation.
func Annotation(ac AnnotationConstraint) Constraint { return Constraint{annotation: &ac} }

// Return builds a Constraint that re-evaluates inner against the
// target's return/type annotation treated as its own modelable facet.
func Return(inner Constraint) Constraint { return Constraint{ret: &inner} }

// AnyParameter builds a Constraint satisfied when inner matches at least
// one of the target's parameters.
func AnyParameter(inner Constraint) Constraint { return Constraint{anyParameter: &inner} }

// AnyDecorator builds a Constraint satisfied when at least one of the
// target's decorators matches ac.
func AnyDecorator(ac ArgumentsConstraint) Constraint { return Constraint{anyDecorator: &ac} }

// Class builds a Constraint matching on the target's class via cc.
func Class(cc ClassConstraint) Constraint { return Constraint{class: &cc} }

// ReadFromCacheConstraint builds a Constraint that defers to the
// read-from-cache lattice, per §4.H.
func ReadFromCacheConstraint(rc ReadFromCache) Constraint { return Constraint{readFromCache: &rc} }

// Env is the evaluation context Matches needs beyond the target itself:
// capture storage for the current (query, target) pair, the class
// hierarchy used by ClassConstraint, and the frozen cache a
// ReadFromCache leaf consults.
type Env struct {
	Hierarchy *ClassHierarchy
	Captures  *NameCaptures
	Cache     *cache.ReadWriteCache
}

// Matches evaluates c against target under env, recording any regex
// capture groups from a NameConstraint match into env.Captures.
func (c Constraint) Matches(target Target, env Env) bool {
	switch {
	case c.anyOf != nil:
		for _, sub := range c.anyOf {
			if sub.Matches(target, env) {
				return true
			}
		}
		return false
	case c.allOf != nil:
		for _, sub := range c.allOf {
			if !sub.Matches(target, env) {
				return false
			}
		}
		return true
	case c.not != nil:
		return !c.not.Matches(target, env)
	case c.name != nil:
		return c.name.matches(target.Name, env.Captures)
	case c.fullyQualified != nil:
		return c.fullyQualified.matches(target.FullyQualified, env.Captures)
	case c.annotation != nil:
		ann, err := annotationOf(target)
		if err != nil {
			return false
		}
		return c.annotation.matches(ann)
	case c.ret != nil:
		ann, err := target.ReturnAnnotationOf()
		if err != nil {
			return false
		}
		sub := Target{Kind: Attribute, Name: target.Name, TypeAnnotation: ann}
		return c.ret.Matches(sub, env)
	case c.anyParameter != nil:
		params, err := target.ParametersOf()
		if err != nil {
			return false
		}
		for _, p := range params {
			sub := Target{Kind: Attribute, Name: p.Name, TypeAnnotation: p.Annotation}
			if c.anyParameter.Matches(sub, env) {
				return true
			}
		}
		return false
	case c.anyDecorator != nil:
		decorators, err := target.DecoratorsOf()
		if err != nil {
			return false
		}
		for _, d := range decorators {
			if c.anyDecorator.matches(d) {
				return true
			}
		}
		return false
	case c.class != nil:
		return c.class.matches(target, env.Hierarchy)
	case c.readFromCache != nil:
		return c.readFromCache.matches(target, env)
	default:
		return false
	}
}

func annotationOf(target Target) (string, error) {
	if target.Kind == Function {
		return target.ReturnAnnotationOf()
	}
	return target.TypeAnnotationOf()
}

// NameConstraint is Equals s | Matches regex, following
// config.CodeIdentifier's compiled-regex-with-empty-means-wildcard
// convention: an empty pattern always matches.
type NameConstraint struct {
	Equals  string
	Pattern *regexp.Regexp
}

// EqualsName builds a NameConstraint requiring an exact match.
func EqualsName(s string) NameConstraint { return NameConstraint{Equals: s} }

// MatchesName builds a NameConstraint requiring pattern to match, storing
// any capture groups into the per-(query,target) capture buffer.
func MatchesName(pattern *regexp.Regexp) NameConstraint { return NameConstraint{Pattern: pattern} }

func (nc NameConstraint) matches(name string, captures *NameCaptures) bool {
	if nc.Pattern == nil {
		return nc.Equals == "" || nc.Equals == name
	}
	groups := nc.Pattern.FindStringSubmatch(name)
	if groups == nil {
		return false
	}
	if captures != nil {
		captures.record(nc.Pattern, groups)
	}
	return true
}

// ArgumentsConstraint is Contains C | Equals C for a decorator's
// arguments, following CodeIdentifier.equalOnNonEmptyFields's "unset
// means wildcard" convention for the Contains case.
type ArgumentsConstraint struct {
	Mode       ArgumentsMode
	Name       string
	Positional []string
	Keyword    map[string]string
}

// ArgumentsMode discriminates Contains from Equals.
type ArgumentsMode int

const (
	// ArgumentsContains requires a subset/prefix match.
	ArgumentsContains ArgumentsMode = iota
	// ArgumentsEquals requires an exact match.
	ArgumentsEquals
)

func (ac ArgumentsConstraint) matches(d Decorator) bool {
	if ac.Name != "" && ac.Name != d.Name {
		return false
	}
	switch ac.Mode {
	case ArgumentsEquals:
		return argsEqual(ac.Positional, d.Positional) && kwargsEqual(ac.Keyword, d.Keyword)
	default:
		return isPrefix(ac.Positional, d.Positional) && kwargsSubset(ac.Keyword, d.Keyword)
	}
}

func isPrefix(want, have []string) bool {
	if len(want) > len(have) {
		return false
	}
	for i, w := range want {
		if sanitizeIdent(w) != sanitizeIdent(have[i]) {
			return false
		}
	}
	return true
}

func argsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	return isPrefix(a, b)
}

func kwargsSubset(want, have map[string]string) bool {
	for k, v := range want {
		if hv, ok := have[k]; !ok || sanitizeIdent(hv) != sanitizeIdent(v) {
			return false
		}
	}
	return true
}

func kwargsEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	return kwargsSubset(a, b)
}

// sanitizeIdent normalizes whitespace the way identifier comparison
// across two otherwise-equal decorator argument strings should, per
// spec.md's "equal up to identifier-sanitization".
func sanitizeIdent(s string) string {
	return strings.TrimSpace(s)
}
