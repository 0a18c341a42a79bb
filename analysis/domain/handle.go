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

package domain

import "fmt"

// SinkHandleKind discriminates the different ways a sink can be attached
// to a definition: at a call site, at a global, or synthetically (for a
// triggered partial sink).
type SinkHandleKind int

const (
	// SinkHandleCall identifies a sink at a specific call site, callee and
	// parameter port.
	SinkHandleCall SinkHandleKind = iota
	// SinkHandleReturn identifies a sink on a function's return value.
	SinkHandleReturn
	// SinkHandleGlobal identifies a sink on a global variable.
	SinkHandleGlobal
	// SinkHandleTriggered identifies a synthetic sink created by the
	// triggered-sink tracker for the second half of a combined-source rule.
	SinkHandleTriggered
)

func (k SinkHandleKind) String() string {
	switch k {
	case SinkHandleCall:
		return "call"
	case SinkHandleReturn:
		return "return"
	case SinkHandleGlobal:
		return "global"
	case SinkHandleTriggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// SinkHandle distinguishes call sites at a definition: a callee, a call
// index (in case the same callee is invoked more than once in the
// definition) and a parameter port, or a global kind, or a triggered
// partial-sink key.
type SinkHandle struct {
	Kind      SinkHandleKind
	Callee    string
	CallIndex int
	Port      string
}

// String returns a stable textual representation of the sink handle,
// used both for display and as the input to the master-handle digest.
func (s SinkHandle) String() string {
	switch s.Kind {
	case SinkHandleGlobal:
		return fmt.Sprintf("global:%s", s.Port)
	case SinkHandleTriggered:
		return fmt.Sprintf("triggered:%s", s.Port)
	case SinkHandleReturn:
		return fmt.Sprintf("%s#%d:return", s.Callee, s.CallIndex)
	default:
		return fmt.Sprintf("%s#%d:%s", s.Callee, s.CallIndex, s.Port)
	}
}

// Handle is the stable identifier of an issue: the rule code, the
// callable the issue was generated for, and the sink handle within that
// callable. Two issues with an equal handle must be joined except in
// lineage-analysis mode.
type Handle struct {
	Code     int
	Callable string
	Sink     SinkHandle
}

// String returns a stable textual representation used for display and
// as the input to the master-handle digest.
func (h Handle) String() string {
	return fmt.Sprintf("%d:%s:%s", h.Code, h.Callable, h.Sink.String())
}

// HandleSet is a set of handles, used by Frame to track which issues a
// leaf has already contributed to.
type HandleSet map[Handle]struct{}

// NewHandleSet returns a new, empty handle set, or one containing the
// handles provided.
func NewHandleSet(handles ...Handle) HandleSet {
	s := make(HandleSet, len(handles))
	for _, h := range handles {
		s[h] = struct{}{}
	}
	return s
}

// Add inserts h into the set.
func (s HandleSet) Add(h Handle) {
	s[h] = struct{}{}
}

// Contains returns true if h is in the set.
func (s HandleSet) Contains(h Handle) bool {
	_, ok := s[h]
	return ok
}

// Union returns a new handle set containing the handles of both s and other.
func (s HandleSet) Union(other HandleSet) HandleSet {
	out := make(HandleSet, len(s)+len(other))
	for h := range s {
		out[h] = struct{}{}
	}
	for h := range other {
		out[h] = struct{}{}
	}
	return out
}

// Slice returns the handles in the set, in no particular order.
func (s HandleSet) Slice() []Handle {
	out := make([]Handle, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	return out
}
