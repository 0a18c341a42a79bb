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

// CallInfo describes where a taint leaf originated or was observed: either
// at a concrete call (Callee, at Location), or at the origin of a
// synthetic leaf created by the triggered-sink tracker (Origin == true).
type CallInfo struct {
	Origin   bool
	Location Location
	Callee   string
}

// OriginCallInfo returns the call info for a synthetic leaf created at loc,
// as used by the triggered-sink tracker's "CallInfo.Origin(location)" leaves.
func OriginCallInfo(loc Location) CallInfo {
	return CallInfo{Origin: true, Location: loc}
}

// BreadcrumbSet is a set of breadcrumb labels attached to a frame as it is
// collapsed or joined; breadcrumbs record coarse provenance (e.g. the
// access paths a tree was collapsed through) without keeping the full
// trace.
type BreadcrumbSet map[string]struct{}

// NewBreadcrumbSet returns a breadcrumb set containing the given labels.
func NewBreadcrumbSet(labels ...string) BreadcrumbSet {
	s := make(BreadcrumbSet, len(labels))
	for _, l := range labels {
		s[l] = struct{}{}
	}
	return s
}

// Union returns the union of s and other.
func (s BreadcrumbSet) Union(other BreadcrumbSet) BreadcrumbSet {
	out := make(BreadcrumbSet, len(s)+len(other))
	for l := range s {
		out[l] = struct{}{}
	}
	for l := range other {
		out[l] = struct{}{}
	}
	return out
}

// ExtraTraceFrame records an extra hop appended to a frame's trace by the
// triggered-sink tracker, e.g. ExtraTraceFirstHop{call_info, leaf_kind, message}.
type ExtraTraceFrame struct {
	CallInfo CallInfo
	LeafKind string // "Source" or "Sink"
	Label    string // the kind name this hop names, e.g. the triggering source
	Message  string
}

// Frame is the leaf payload of a taint tree path.
type Frame struct {
	Features    []string
	Breadcrumbs BreadcrumbSet
	CallInfo    CallInfo
	TraceLength int
	ExtraTraces []ExtraTraceFrame
	Handles     HandleSet
}

// NewFrame returns an empty frame with the given call info.
func NewFrame(ci CallInfo) Frame {
	return Frame{CallInfo: ci, Handles: HandleSet{}}
}

// Join combines f and other: features and breadcrumbs are unioned, extra
// traces are concatenated and deduplicated, handles are unioned, and the
// trace length is the minimum of the two (the shortest known trace to a
// source wins, matching the teacher's preference for minimal witnessing
// traces when summaries are joined).
func (f Frame) Join(other Frame) Frame {
	out := Frame{
		CallInfo: f.CallInfo,
	}
	out.Features = unionStrings(f.Features, other.Features)
	out.Breadcrumbs = f.Breadcrumbs.Union(other.Breadcrumbs)
	out.ExtraTraces = joinExtraTraces(f.ExtraTraces, other.ExtraTraces)
	out.Handles = f.Handles.Union(other.Handles)
	switch {
	case f.TraceLength == 0:
		out.TraceLength = other.TraceLength
	case other.TraceLength == 0:
		out.TraceLength = f.TraceLength
	case f.TraceLength < other.TraceLength:
		out.TraceLength = f.TraceLength
	default:
		out.TraceLength = other.TraceLength
	}
	return out
}

// WithBreadcrumb returns a copy of f with label added to its breadcrumbs.
func (f Frame) WithBreadcrumb(label string) Frame {
	bc := make(BreadcrumbSet, len(f.Breadcrumbs)+1)
	for l := range f.Breadcrumbs {
		bc[l] = struct{}{}
	}
	bc[label] = struct{}{}
	f.Breadcrumbs = bc
	return f
}

// WithExtraTrace returns a copy of f with t appended to its extra traces.
func (f Frame) WithExtraTrace(t ExtraTraceFrame) Frame {
	f.ExtraTraces = append(append([]ExtraTraceFrame(nil), f.ExtraTraces...), t)
	return f
}

// WithHandle returns a copy of f with h added to its handle set.
func (f Frame) WithHandle(h Handle) Frame {
	hs := make(HandleSet, len(f.Handles)+1)
	for x := range f.Handles {
		hs[x] = struct{}{}
	}
	hs[h] = struct{}{}
	f.Handles = hs
	return f
}

func unionStrings(a, b []string) []string {
	if len(a) == 0 {
		return append([]string(nil), b...)
	}
	if len(b) == 0 {
		return append([]string(nil), a...)
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string(nil), a...), b...) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}

func joinExtraTraces(a, b []ExtraTraceFrame) []ExtraTraceFrame {
	if len(a) == 0 {
		return append([]ExtraTraceFrame(nil), b...)
	}
	if len(b) == 0 {
		return append([]ExtraTraceFrame(nil), a...)
	}
	seen := make(map[ExtraTraceFrame]struct{}, len(a)+len(b))
	var out []ExtraTraceFrame
	for _, t := range append(append([]ExtraTraceFrame(nil), a...), b...) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}
