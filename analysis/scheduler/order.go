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

package scheduler

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Dependent is anything schedulable that can declare, by name, which
// other named items it must run after.
type Dependent interface {
	SchedulerName() string
	SchedulerDependsOn() []string
}

// TopoOrder orders items so that every item appears after everything
// it declares a dependency on, the ordering write-to-cache queries
// that populate the same cache kind in a deliberate sequence need. If
// the declared dependencies contain a cycle, TopoOrder returns items
// unchanged in their original order and ok=false, so a caller can fall
// back to input order rather than fail the whole query phase over a
// misconfigured dependency.
func TopoOrder[D Dependent](items []D) (ordered []D, ok bool) {
	index := make(map[string]int64, len(items))
	for i, item := range items {
		index[item.SchedulerName()] = int64(i)
	}

	g := simple.NewDirectedGraph()
	for i := range items {
		g.AddNode(simple.Node(int64(i)))
	}
	for i, item := range items {
		for _, dep := range item.SchedulerDependsOn() {
			if j, known := index[dep]; known {
				g.SetEdge(simple.Edge{F: simple.Node(j), T: simple.Node(int64(i))})
			}
		}
	}

	sorted, err := topo.Sort(g)
	if err != nil {
		return items, false
	}

	ordered = make([]D, 0, len(items))
	for _, n := range sorted {
		ordered = append(ordered, items[n.ID()])
	}
	return ordered, true
}
