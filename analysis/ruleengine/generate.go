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
	"github.com/taintkit/flowcheck/analysis/flowerrors"
	"github.com/taintkit/flowcheck/analysis/issue"
)

// GenerateIssues converts table's candidates to issues by running every
// rule's pipeline, implementing spec.md §6's generate_issues. In
// merge-access-path mode (lineage == false) results are grouped by
// handle so the at-most-one-issue-per-handle invariant holds.
func GenerateIssues(table *issue.Table, rules []Rule, lineage bool, define issue.Target) ([]issue.Issue, error) {
	var issues []issue.Issue
	for _, c := range table.Candidates() {
		issues = append(issues, Apply(rules, lineage, c, define)...)
	}
	if !lineage {
		issues = issue.GroupByHandle(issues)
	}
	return issues, nil
}

// ValidateHandles checks that every issue's rule code is present in
// byCode, returning a ConfigError for the first one that is not, per
// spec.md §7: "an issue references a rule code with no matching rule" is
// a fatal configuration error, not a panic.
func ValidateHandles(issues []issue.Issue, byCode map[int]Rule) error {
	for _, iss := range issues {
		if _, ok := byCode[iss.Handle.Code]; !ok {
			return flowerrors.NewConfigError(flowerrors.ConfigErrorUnknownRuleCode, iss.Handle.String())
		}
	}
	return nil
}
