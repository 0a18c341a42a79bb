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
	"strings"

	"github.com/taintkit/flowcheck/analysis/domain"
)

// RenderMessage substitutes {$sources}, {$sinks} and {$transforms} in
// rule.MessageFormat with the comma-joined, sorted, deduplicated kind
// names and the rule's transform list, per spec.md §6.
func RenderMessage(rule Rule) string {
	msg := rule.MessageFormat
	msg = strings.ReplaceAll(msg, "{$sources}", strings.Join(domain.SortedKindNames(rule.Sources), ", "))
	msg = strings.ReplaceAll(msg, "{$sinks}", strings.Join(domain.SortedKindNames(rule.Sinks), ", "))
	msg = strings.ReplaceAll(msg, "{$transforms}", joinTransformNames(rule.Transforms))
	return msg
}

func joinTransformNames(ts []domain.TransformName) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
