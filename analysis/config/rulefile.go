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

package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/flowerrors"
	"github.com/taintkit/flowcheck/analysis/modelquery"
	"github.com/taintkit/flowcheck/analysis/ruleengine"
)

var globalConfigFile string

// SetGlobalConfig sets the global config filename.
func SetGlobalConfig(filename string) {
	globalConfigFile = filename
}

// LoadGlobal loads the config file set by SetGlobalConfig.
func LoadGlobal() (*RuleFile, error) {
	return Load(globalConfigFile)
}

// Options carries the ambient settings that are not themselves rules
// or queries: how verbose to log, how to shard work, and how to cap
// reporting.
type Options struct {
	ReportsDir      string `yaml:"reports-dir"`
	MaxAlarms       int    `yaml:"max-alarms"`
	LogLevel        int    `yaml:"log-level"`
	SilenceWarn     bool   `yaml:"silence-warn"`
	Workers         int    `yaml:"workers"`
	LineageAnalysis bool   `yaml:"lineage-analysis"`
}

// RuleFile is the top-level configuration: the ambient Options plus
// every rule and query the analysis should run. Private fields are
// computed after load, not populated from yaml.
type RuleFile struct {
	Options `yaml:",inline"`

	Rules   []RuleSpec  `yaml:"rules"`
	Queries []QuerySpec `yaml:"queries"`

	sourceFile string
}

// NewDefault returns an empty RuleFile with default Options.
func NewDefault() *RuleFile {
	return &RuleFile{
		Options: Options{
			LogLevel:   int(InfoLevel),
			Workers:    0,
			MaxAlarms:  DefaultMaxAlarms,
			ReportsDir: DefaultReportsDir,
		},
	}
}

// Load reads and parses a RuleFile from filename.
func Load(filename string) (*RuleFile, error) {
	rf := NewDefault()
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, rf); err != nil {
		return nil, fmt.Errorf("could not parse rule file %s: %w", filename, err)
	}
	rf.sourceFile = filename

	if rf.LogLevel == 0 {
		rf.LogLevel = int(InfoLevel)
	}
	if rf.Workers < 0 {
		rf.Workers = 0
	}
	if rf.MaxAlarms == 0 {
		rf.MaxAlarms = DefaultMaxAlarms
	}
	if rf.ReportsDir == "" {
		rf.ReportsDir = DefaultReportsDir
	}
	return rf, nil
}

// SourceFile returns the filename rf was loaded from.
func (rf *RuleFile) SourceFile() string {
	return rf.sourceFile
}

// Build translates rf's wire-format rules and queries into the
// concrete ruleengine.Rule and modelquery.Query values the engine
// runs, compiling every regex and class constraint along the way.
// A malformed constraint or unparseable regex is reported as a
// flowerrors.ConfigError, naming the offending query.
func (rf *RuleFile) Build() ([]ruleengine.Rule, []modelquery.Query, error) {
	rules := make([]ruleengine.Rule, len(rf.Rules))
	for i, rs := range rf.Rules {
		rules[i] = rs.toRule()
	}

	queries := make([]modelquery.Query, 0, len(rf.Queries))
	for _, qs := range rf.Queries {
		q, err := qs.toQuery()
		if err != nil {
			ce := flowerrors.NewConfigError(flowerrors.ConfigErrorWriteToCacheShape, qs.Name)
			return nil, nil, errors.Wrap(ce, err.Error())
		}
		queries = append(queries, q)
	}
	return rules, queries, nil
}

// KindSpec is the yaml wire format for a domain.Kind.
type KindSpec struct {
	Name             string   `yaml:"name"`
	Subkind          string   `yaml:"subkind"`
	SanitizesSources []string `yaml:"sanitizes-sources"`
	SanitizesSinks   []string `yaml:"sanitizes-sinks"`
	Transforms       []string `yaml:"transforms"`
}

func (k KindSpec) toKind() domain.Kind {
	transforms := make([]domain.TransformName, len(k.Transforms))
	for i, t := range k.Transforms {
		transforms[i] = domain.TransformName(t)
	}
	return domain.Kind{
		Name:    k.Name,
		Subkind: k.Subkind,
		Sanitize: domain.SanitizeTransforms{
			Sources: k.SanitizesSources,
			Sinks:   k.SanitizesSinks,
		},
		Transforms: transforms,
	}
}

// RuleSpec is the yaml wire format for a ruleengine.Rule.
type RuleSpec struct {
	Code             int        `yaml:"code"`
	Sources          []KindSpec `yaml:"sources"`
	Sinks            []KindSpec `yaml:"sinks"`
	Transforms       []string   `yaml:"transforms"`
	Name             string     `yaml:"name"`
	Message          string     `yaml:"message"`
	ExpectedModels   []string   `yaml:"expected-models"`
	UnexpectedModels []string   `yaml:"unexpected-models"`
}

func (r RuleSpec) toRule() ruleengine.Rule {
	sources := make([]domain.Kind, len(r.Sources))
	for i, s := range r.Sources {
		sources[i] = s.toKind()
	}
	sinks := make([]domain.Kind, len(r.Sinks))
	for i, s := range r.Sinks {
		sinks[i] = s.toKind()
	}
	transforms := make([]domain.TransformName, len(r.Transforms))
	for i, t := range r.Transforms {
		transforms[i] = domain.TransformName(t)
	}
	return ruleengine.Rule{
		Code:             r.Code,
		Sources:          sources,
		Sinks:            sinks,
		Transforms:       transforms,
		Name:             r.Name,
		MessageFormat:    r.Message,
		ExpectedModels:   r.ExpectedModels,
		UnexpectedModels: r.UnexpectedModels,
	}
}

// NameSpec is the yaml wire format shared by NameConstraint and
// AnnotationConstraint: Equals s | Pattern regex.
type NameSpec struct {
	Equals  string `yaml:"equals"`
	Pattern string `yaml:"pattern"`
}

func (n NameSpec) toNameConstraint() (modelquery.NameConstraint, error) {
	if n.Pattern != "" {
		re, err := regexp.Compile(n.Pattern)
		if err != nil {
			return modelquery.NameConstraint{}, err
		}
		return modelquery.MatchesName(re), nil
	}
	return modelquery.EqualsName(n.Equals), nil
}

func (n NameSpec) toAnnotationConstraint() (modelquery.AnnotationConstraint, error) {
	if n.Pattern != "" {
		re, err := regexp.Compile(n.Pattern)
		if err != nil {
			return modelquery.AnnotationConstraint{}, err
		}
		return modelquery.AnnotationConstraint{Pattern: re}, nil
	}
	return modelquery.AnnotationConstraint{Equals: n.Equals}, nil
}

// ArgumentsSpec is the yaml wire format for an ArgumentsConstraint.
type ArgumentsSpec struct {
	Name       string            `yaml:"name"`
	Mode       string            `yaml:"mode"`
	Positional []string          `yaml:"positional"`
	Keyword    map[string]string `yaml:"keyword"`
}

func (a ArgumentsSpec) toArgumentsConstraint() modelquery.ArgumentsConstraint {
	mode := modelquery.ArgumentsContains
	if a.Mode == "equals" {
		mode = modelquery.ArgumentsEquals
	}
	return modelquery.ArgumentsConstraint{
		Mode:       mode,
		Name:       a.Name,
		Positional: a.Positional,
		Keyword:    a.Keyword,
	}
}

// ExtendsSpec is the yaml wire format for ExtendsConstraint.
type ExtendsSpec struct {
	Class        string `yaml:"class"`
	Transitive   bool   `yaml:"transitive"`
	IncludesSelf bool   `yaml:"includes-self"`
}

// AnyChildSpec is the yaml wire format for AnyChildConstraint: its
// Where predicate is a regex over candidate child class names.
type AnyChildSpec struct {
	Class        string `yaml:"class"`
	Transitive   bool   `yaml:"transitive"`
	IncludesSelf bool   `yaml:"includes-self"`
	NamePattern  string `yaml:"name-pattern"`
}

// ClassSpec is the yaml wire format for a ClassConstraint.
type ClassSpec struct {
	Extends  *ExtendsSpec  `yaml:"extends"`
	AnyChild *AnyChildSpec `yaml:"any-child"`
}

func (c ClassSpec) toClassConstraint() (modelquery.ClassConstraint, error) {
	switch {
	case c.Extends != nil:
		return modelquery.ClassConstraint{Extends: &modelquery.ExtendsConstraint{
			Class:        c.Extends.Class,
			Transitive:   c.Extends.Transitive,
			IncludesSelf: c.Extends.IncludesSelf,
		}}, nil
	case c.AnyChild != nil:
		pattern := c.AnyChild.NamePattern
		if pattern == "" {
			pattern = ".*"
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return modelquery.ClassConstraint{}, err
		}
		return modelquery.ClassConstraint{AnyChild: &modelquery.AnyChildConstraint{
			Class:        c.AnyChild.Class,
			Transitive:   c.AnyChild.Transitive,
			IncludesSelf: c.AnyChild.IncludesSelf,
			Where:        func(class string) bool { return re.MatchString(class) },
		}}, nil
	default:
		return modelquery.ClassConstraint{}, fmt.Errorf("config: empty class constraint")
	}
}

// ReadFromCacheSpec is the yaml wire format for a ReadFromCache leaf.
type ReadFromCacheSpec struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`
}

// ConstraintSpec is the yaml wire format for the Constraint algebra.
// Exactly one field should be set on any well-formed value.
type ConstraintSpec struct {
	AnyOf          []ConstraintSpec   `yaml:"any-of"`
	AllOf          []ConstraintSpec   `yaml:"all-of"`
	Not            *ConstraintSpec    `yaml:"not"`
	Name           *NameSpec          `yaml:"name"`
	FullyQualified *NameSpec          `yaml:"fully-qualified-name"`
	Identifier     *TargetIdentifier  `yaml:"identifier"`
	Annotation     *NameSpec          `yaml:"annotation"`
	Return         *ConstraintSpec    `yaml:"return"`
	AnyParameter   *ConstraintSpec    `yaml:"any-parameter"`
	AnyDecorator   *ArgumentsSpec     `yaml:"any-decorator"`
	Class          *ClassSpec         `yaml:"class"`
	ReadFromCache  *ReadFromCacheSpec `yaml:"read-from-cache"`
}

func (cs ConstraintSpec) toConstraint() (modelquery.Constraint, error) {
	switch {
	case len(cs.AnyOf) > 0:
		subs, err := toConstraintSlice(cs.AnyOf)
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.AnyOf(subs...), nil
	case len(cs.AllOf) > 0:
		subs, err := toConstraintSlice(cs.AllOf)
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.AllOf(subs...), nil
	case cs.Not != nil:
		inner, err := cs.Not.toConstraint()
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.Not(inner), nil
	case cs.Name != nil:
		nc, err := cs.Name.toNameConstraint()
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.Name(nc), nil
	case cs.FullyQualified != nil:
		nc, err := cs.FullyQualified.toNameConstraint()
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.FullyQualifiedName(nc), nil
	case cs.Identifier != nil:
		nc, err := cs.Identifier.ToNameConstraint()
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.FullyQualifiedName(nc), nil
	case cs.Annotation != nil:
		ac, err := cs.Annotation.toAnnotationConstraint()
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.Annotation(ac), nil
	case cs.Return != nil:
		inner, err := cs.Return.toConstraint()
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.Return(inner), nil
	case cs.AnyParameter != nil:
		inner, err := cs.AnyParameter.toConstraint()
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.AnyParameter(inner), nil
	case cs.AnyDecorator != nil:
		return modelquery.AnyDecorator(cs.AnyDecorator.toArgumentsConstraint()), nil
	case cs.Class != nil:
		cc, err := cs.Class.toClassConstraint()
		if err != nil {
			return modelquery.Constraint{}, err
		}
		return modelquery.Class(cc), nil
	case cs.ReadFromCache != nil:
		return modelquery.ReadFromCacheConstraint(modelquery.ReadFromCache{
			Kind: cs.ReadFromCache.Kind,
			Name: cs.ReadFromCache.Name,
		}), nil
	default:
		return modelquery.Constraint{}, fmt.Errorf("config: empty constraint")
	}
}

func toConstraintSlice(specs []ConstraintSpec) ([]modelquery.Constraint, error) {
	out := make([]modelquery.Constraint, len(specs))
	for i, s := range specs {
		c, err := s.toConstraint()
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// ParametricSpec is the yaml wire format shared by
// ProduceParametricSource and ProduceParametricSink.
type ParametricSpec struct {
	Pattern string `yaml:"pattern"`
	Subkind string `yaml:"subkind"`
}

func (p ParametricSpec) pattern() (*regexp.Regexp, error) {
	if p.Pattern == "" {
		return nil, nil
	}
	return regexp.Compile(p.Pattern)
}

// ProductionSpec is the yaml wire format for a Production.
type ProductionSpec struct {
	Taint            *KindSpec       `yaml:"taint"`
	ParametricSource *ParametricSpec `yaml:"parametric-source"`
	ParametricSink   *ParametricSpec `yaml:"parametric-sink"`
}

func (p ProductionSpec) toProduction() (modelquery.Production, error) {
	switch {
	case p.Taint != nil:
		return modelquery.ProduceTaint(p.Taint.toKind()), nil
	case p.ParametricSource != nil:
		re, err := p.ParametricSource.pattern()
		if err != nil {
			return modelquery.Production{}, err
		}
		return modelquery.ProduceParametricSource(re, p.ParametricSource.Subkind), nil
	case p.ParametricSink != nil:
		re, err := p.ParametricSink.pattern()
		if err != nil {
			return modelquery.Production{}, err
		}
		return modelquery.ProduceParametricSink(re, p.ParametricSink.Subkind), nil
	default:
		return modelquery.Production{}, fmt.Errorf("config: empty production")
	}
}

func toProductionSlice(specs []ProductionSpec) ([]modelquery.Production, error) {
	out := make([]modelquery.Production, len(specs))
	for i, s := range specs {
		p, err := s.toProduction()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// KeyTokenSpec is the yaml wire format for a write-to-cache key token.
type KeyTokenSpec struct {
	Literal      string `yaml:"literal"`
	FunctionName bool   `yaml:"function-name"`
	MethodName   bool   `yaml:"method-name"`
	ClassName    bool   `yaml:"class-name"`
	Capture      *int   `yaml:"capture"`
}

func (k KeyTokenSpec) toKeyToken() modelquery.KeyToken {
	switch {
	case k.FunctionName:
		return modelquery.FunctionNameToken()
	case k.MethodName:
		return modelquery.MethodNameToken()
	case k.ClassName:
		return modelquery.ClassNameToken()
	case k.Capture != nil:
		return modelquery.CaptureToken(*k.Capture)
	default:
		return modelquery.Literal(k.Literal)
	}
}

func toKeyTokenSlice(specs []KeyTokenSpec) []modelquery.KeyToken {
	out := make([]modelquery.KeyToken, len(specs))
	for i, s := range specs {
		out[i] = s.toKeyToken()
	}
	return out
}

// ModelClauseSpec is the yaml wire format for a ModelClause.
type ModelClauseSpec struct {
	Return              []ProductionSpec       `yaml:"return"`
	NamedParameter      *namedParameterSpec    `yaml:"named-parameter"`
	PositionalParameter *positionalParamSpec   `yaml:"positional-parameter"`
	AllParameters       *allParametersSpec     `yaml:"all-parameters"`
	Parameter           *parameterModelSpec    `yaml:"parameter"`
	WriteToCache        *writeToCacheModelSpec `yaml:"write-to-cache"`
}

type namedParameterSpec struct {
	Name        string           `yaml:"name"`
	Productions []ProductionSpec `yaml:"productions"`
}

type positionalParamSpec struct {
	Index       int              `yaml:"index"`
	Productions []ProductionSpec `yaml:"productions"`
}

type allParametersSpec struct {
	Excludes    []string         `yaml:"excludes"`
	Productions []ProductionSpec `yaml:"productions"`
}

type parameterModelSpec struct {
	Where       ConstraintSpec   `yaml:"where"`
	Productions []ProductionSpec `yaml:"productions"`
}

type writeToCacheModelSpec struct {
	Kind string         `yaml:"kind"`
	Key  []KeyTokenSpec `yaml:"key"`
}

func (m ModelClauseSpec) toModelClause() (modelquery.ModelClause, error) {
	switch {
	case m.Return != nil:
		prods, err := toProductionSlice(m.Return)
		if err != nil {
			return modelquery.ModelClause{}, err
		}
		return modelquery.ModelReturn(prods...), nil
	case m.NamedParameter != nil:
		prods, err := toProductionSlice(m.NamedParameter.Productions)
		if err != nil {
			return modelquery.ModelClause{}, err
		}
		return modelquery.ModelNamedParameter(m.NamedParameter.Name, prods...), nil
	case m.PositionalParameter != nil:
		prods, err := toProductionSlice(m.PositionalParameter.Productions)
		if err != nil {
			return modelquery.ModelClause{}, err
		}
		return modelquery.ModelPositionalParameter(m.PositionalParameter.Index, prods...), nil
	case m.AllParameters != nil:
		prods, err := toProductionSlice(m.AllParameters.Productions)
		if err != nil {
			return modelquery.ModelClause{}, err
		}
		return modelquery.ModelAllParameters(m.AllParameters.Excludes, prods...), nil
	case m.Parameter != nil:
		where, err := m.Parameter.Where.toConstraint()
		if err != nil {
			return modelquery.ModelClause{}, err
		}
		prods, err := toProductionSlice(m.Parameter.Productions)
		if err != nil {
			return modelquery.ModelClause{}, err
		}
		return modelquery.ModelParameter(where, prods...), nil
	case m.WriteToCache != nil:
		return modelquery.ModelWriteToCache(m.WriteToCache.Kind, toKeyTokenSlice(m.WriteToCache.Key)...), nil
	default:
		return modelquery.ModelClause{}, fmt.Errorf("config: empty model clause")
	}
}

func toModelClauseSlice(specs []ModelClauseSpec) ([]modelquery.ModelClause, error) {
	out := make([]modelquery.ModelClause, len(specs))
	for i, s := range specs {
		mc, err := s.toModelClause()
		if err != nil {
			return nil, err
		}
		out[i] = mc
	}
	return out, nil
}

// QuerySpec is the yaml wire format for a modelquery.Query.
type QuerySpec struct {
	Name             string            `yaml:"name"`
	Find             string            `yaml:"find"`
	Where            ConstraintSpec    `yaml:"where"`
	Models           []ModelClauseSpec `yaml:"models"`
	ExpectedModels   []string          `yaml:"expected-models"`
	UnexpectedModels []string          `yaml:"unexpected-models"`
	DependsOn        []string          `yaml:"depends-on"`
}

func parseModelableKind(s string) (modelquery.ModelableKind, error) {
	switch s {
	case "function", "method", "":
		return modelquery.Function, nil
	case "attribute":
		return modelquery.Attribute, nil
	case "global":
		return modelquery.Global, nil
	default:
		return 0, fmt.Errorf("config: unknown find kind %q", s)
	}
}

func (qs QuerySpec) toQuery() (modelquery.Query, error) {
	find, err := parseModelableKind(qs.Find)
	if err != nil {
		return modelquery.Query{}, err
	}
	where, err := qs.Where.toConstraint()
	if err != nil {
		return modelquery.Query{}, err
	}
	models, err := toModelClauseSlice(qs.Models)
	if err != nil {
		return modelquery.Query{}, err
	}
	return modelquery.Query{
		Name:             qs.Name,
		Find:             find,
		Where:            where,
		Models:           models,
		ExpectedModels:   qs.ExpectedModels,
		UnexpectedModels: qs.UnexpectedModels,
		DependsOn:        qs.DependsOn,
	}, nil
}
