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
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/taintkit/flowcheck/analysis/issue"
)

// RecordCoverage adds one "mode: set"-style entry per candidate in table
// whose location falls under pathFilter (an empty filter matches every
// candidate) to coverage, so a run can report which lines a rule
// actually considered a candidate at, independent of whether any rule
// matched. coverage may be nil, in which case RecordCoverage is a no-op;
// this is purely a diagnostic and never influences GenerateIssues.
func RecordCoverage(table *issue.Table, pathFilter string, coverage map[string]bool) {
	if coverage == nil {
		return
	}
	for _, c := range table.Candidates() {
		if len(c.Flows) == 0 {
			continue
		}
		loc := c.Key.Location
		if pathFilter != "" && !strings.Contains(loc.Filename, pathFilter) {
			continue
		}
		line := fmt.Sprintf("%s:%d.1,%d.%d 1 1\n", loc.Filename, loc.Line, loc.EndLine, loc.EndCol)
		coverage[line] = true
	}
}

// WriteCoverage writes coverage's entries to w in sorted order, so two
// runs over the same inputs produce byte-identical coverage files.
func WriteCoverage(coverage map[string]bool, w io.StringWriter) {
	if w == nil {
		return
	}
	lines := make([]string, 0, len(coverage))
	for line := range coverage {
		lines = append(lines, line)
	}
	sort.Strings(lines)
	for _, line := range lines {
		w.WriteString(line)
	}
}
