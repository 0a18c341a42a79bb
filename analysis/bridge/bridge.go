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

// Package bridge decodes the JSON a host analysis feeds this engine:
// one file of modelable targets for the query executor, and one file
// of per-definition candidate flows for the rule engine. Malformed
// input is reported as a flowerrors.JsonError, never a panic.
package bridge

import (
	"encoding/json"
	"io"

	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/flowerrors"
	"github.com/taintkit/flowcheck/analysis/issue"
	"github.com/taintkit/flowcheck/analysis/modelquery"
)

// AccessSpec is the wire format for one domain.Access step: a Field
// name, or an Index when Field is empty.
type AccessSpec struct {
	Field string `json:"field"`
	Index *int   `json:"index"`
}

func (a AccessSpec) toAccess() domain.Access {
	if a.Field != "" {
		return domain.FieldAccess(a.Field)
	}
	idx := 0
	if a.Index != nil {
		idx = *a.Index
	}
	return domain.IndexAccess(idx)
}

// PathSpec is the wire format for a domain.Path.
type PathSpec []AccessSpec

func (p PathSpec) toPath() domain.Path {
	path := make(domain.Path, len(p))
	for i, a := range p {
		path[i] = a.toAccess()
	}
	return path
}

// KindSpec is the wire format for a leaf's bare domain.Kind: a flow leaf
// only ever carries the name and subkind a rule matches or partitions
// on, never the sanitize/transform metadata a rule's own Kind spec
// carries.
type KindSpec struct {
	Name    string `json:"name"`
	Subkind string `json:"subkind"`
}

func (k KindSpec) toKind() domain.Kind {
	return domain.Kind{Name: k.Name, Subkind: k.Subkind}
}

// LocationSpec is the wire format for a domain.Location.
type LocationSpec struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
	Col      int    `json:"col"`
	EndLine  int    `json:"end_line"`
	EndCol   int    `json:"end_col"`
}

func (l LocationSpec) toLocation() domain.Location {
	return domain.Location{Filename: l.Filename, Line: l.Line, Col: l.Col, EndLine: l.EndLine, EndCol: l.EndCol}
}

// SinkHandleSpec is the wire format for a domain.SinkHandle. Kind is one
// of "call", "return", "global" or "triggered"; unrecognized kinds
// default to "call", matching domain.SinkHandleCall's zero value.
type SinkHandleSpec struct {
	Kind      string `json:"kind"`
	Callee    string `json:"callee"`
	CallIndex int    `json:"call_index"`
	Port      string `json:"port"`
}

func (s SinkHandleSpec) toSinkHandle() domain.SinkHandle {
	kind := domain.SinkHandleCall
	switch s.Kind {
	case "return":
		kind = domain.SinkHandleReturn
	case "global":
		kind = domain.SinkHandleGlobal
	case "triggered":
		kind = domain.SinkHandleTriggered
	}
	return domain.SinkHandle{Kind: kind, Callee: s.Callee, CallIndex: s.CallIndex, Port: s.Port}
}

// LeafSpec is one leaf of a candidate's source or sink tree.
type LeafSpec struct {
	Path        PathSpec `json:"path"`
	Kind        KindSpec `json:"kind"`
	Breadcrumbs []string `json:"breadcrumbs"`
}

func (l LeafSpec) toTree(origin domain.Location) *domain.Tree {
	frame := domain.NewFrame(domain.OriginCallInfo(origin))
	for _, b := range l.Breadcrumbs {
		frame = frame.WithBreadcrumb(b)
	}
	if l.Path.toPath().Empty() {
		return domain.Singleton(l.Kind.toKind(), frame)
	}
	return domain.CreateLeaf(l.Path.toPath(), l.Kind.toKind(), frame)
}

// CandidateSpec is one (location, sink) candidate, its source and sink
// trees described as a flat leaf list rather than the nested Tree
// structure, which is an analysis-internal representation only.
type CandidateSpec struct {
	Location    LocationSpec   `json:"location"`
	Sink        SinkHandleSpec `json:"sink"`
	SourceLeafs []LeafSpec     `json:"source_leaves"`
	SinkLeafs   []LeafSpec     `json:"sink_leaves"`
}

func (c CandidateSpec) toFlow() domain.Flow {
	loc := c.Location.toLocation()
	source := domain.Bottom()
	for _, l := range c.SourceLeafs {
		source = source.Join(l.toTree(loc))
	}
	sink := domain.Bottom()
	for _, l := range c.SinkLeafs {
		sink = sink.Join(l.toTree(loc))
	}
	return domain.Flow{Source: source, Sink: sink}
}

// DefinitionSpec is one definition's worth of candidates: the unit a
// host analysis reports flows for.
type DefinitionSpec struct {
	Callable   string          `json:"callable"`
	Line       int             `json:"line"`
	Candidates []CandidateSpec `json:"candidates"`
}

// Table builds d's candidate table and its issue.Target, ready for
// ruleengine.GenerateIssues.
func (d DefinitionSpec) Table() (*issue.Table, issue.Target) {
	table := issue.NewTable()
	for _, c := range d.Candidates {
		key := issue.CandidateKey{Location: c.Location.toLocation(), Sink: c.Sink.toSinkHandle()}
		table.Add(key, c.toFlow())
	}
	return table, issue.Target{Callable: d.Callable, Line: d.Line}
}

// DecodeDefinitions reads a JSON array of DefinitionSpec from r.
func DecodeDefinitions(r io.Reader) ([]DefinitionSpec, error) {
	var defs []DefinitionSpec
	if err := json.NewDecoder(r).Decode(&defs); err != nil {
		return nil, flowerrors.NewJsonError("could not decode definitions", err)
	}
	return defs, nil
}

// ParameterSpec is the wire format for a modelquery.Parameter.
type ParameterSpec struct {
	Name       string `json:"name"`
	Position   int    `json:"position"`
	Annotation string `json:"annotation"`
}

// DecoratorSpec is the wire format for a modelquery.Decorator.
type DecoratorSpec struct {
	Name       string            `json:"name"`
	Positional []string          `json:"positional"`
	Keyword    map[string]string `json:"keyword"`
}

// TargetSpec is the wire format for a modelquery.Target: Kind is one of
// "function", "attribute" or "global". Extends names the target's
// direct parent class, if any, for ClassHierarchy construction.
type TargetSpec struct {
	Kind             string          `json:"kind"`
	Name             string          `json:"name"`
	FullyQualified   string          `json:"fully_qualified"`
	ClassName        string          `json:"class_name"`
	Extends          string          `json:"extends"`
	ReturnAnnotation string          `json:"return_annotation"`
	TypeAnnotation   string          `json:"type_annotation"`
	Parameters       []ParameterSpec `json:"parameters"`
	Decorators       []DecoratorSpec `json:"decorators"`
}

func (ts TargetSpec) toTarget() modelquery.Target {
	kind := modelquery.Function
	switch ts.Kind {
	case "attribute":
		kind = modelquery.Attribute
	case "global":
		kind = modelquery.Global
	}
	params := make([]modelquery.Parameter, len(ts.Parameters))
	for i, p := range ts.Parameters {
		params[i] = modelquery.Parameter{Name: p.Name, Position: p.Position, Annotation: p.Annotation}
	}
	decorators := make([]modelquery.Decorator, len(ts.Decorators))
	for i, d := range ts.Decorators {
		decorators[i] = modelquery.Decorator{Name: d.Name, Positional: d.Positional, Keyword: d.Keyword}
	}
	return modelquery.Target{
		Kind:             kind,
		Name:             ts.Name,
		FullyQualified:   ts.FullyQualified,
		ClassName:        ts.ClassName,
		ReturnAnnotation: ts.ReturnAnnotation,
		TypeAnnotation:   ts.TypeAnnotation,
		Parameters:       params,
		Decorators:       decorators,
	}
}

// DecodeTargets reads a JSON array of TargetSpec from r, returning the
// decoded modelquery.Target values alongside a ClassHierarchy built from
// every target's Extends edge.
func DecodeTargets(r io.Reader) ([]modelquery.Target, *modelquery.ClassHierarchy, error) {
	var specs []TargetSpec
	if err := json.NewDecoder(r).Decode(&specs); err != nil {
		return nil, nil, flowerrors.NewJsonError("could not decode targets", err)
	}
	hierarchy := modelquery.NewClassHierarchy()
	targets := make([]modelquery.Target, len(specs))
	for i, ts := range specs {
		targets[i] = ts.toTarget()
		if ts.ClassName != "" && ts.Extends != "" {
			hierarchy.AddExtends(ts.ClassName, ts.Extends)
		}
	}
	return targets, hierarchy, nil
}
