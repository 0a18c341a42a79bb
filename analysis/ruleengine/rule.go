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

// Package ruleengine applies the configured rules to a definition's
// candidate table, producing issues grouped by handle.
package ruleengine

import "github.com/taintkit/flowcheck/analysis/domain"

// Rule is a single source-kind × sink-kind → issue-code mapping, together
// with the transform sequence required between source and sink and the
// message template to render on a match.
type Rule struct {
	Code             int
	Sources          []domain.Kind
	Sinks            []domain.Kind
	Transforms       []domain.TransformName
	Name             string
	MessageFormat    string
	ExpectedModels   []string
	UnexpectedModels []string
}

// ByCode builds a lookup table from rule code to rule, as consumed by the
// handle-validation step: an issue handle referencing a code with no
// entry here is a ConfigError.
func ByCode(rules []Rule) map[int]Rule {
	out := make(map[int]Rule, len(rules))
	for _, r := range rules {
		out[r.Code] = r
	}
	return out
}
