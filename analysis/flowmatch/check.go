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

package flowmatch

import (
	"github.com/taintkit/flowcheck/analysis/domain"
	"github.com/taintkit/flowcheck/analysis/issue"
)

// CheckFlow runs Match and appends every produced flow to table under the
// (location, sink handle) candidate key, implementing spec.md §6's
// check_flow entry point.
func CheckFlow(table *issue.Table, loc domain.Location, handle domain.SinkHandle, source, sink *domain.Tree) {
	key := issue.CandidateKey{Location: loc, Sink: handle}
	for _, flow := range Match(source, sink) {
		table.Add(key, flow)
	}
}
