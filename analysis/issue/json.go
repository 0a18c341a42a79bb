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

package issue

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/taintkit/flowcheck/analysis/domain"
)

// TraceJSON is one entry of an issue's "traces" field: the set of root
// paths reached on one side of the flow.
type TraceJSON struct {
	Name  string   `json:"name"`
	Roots []string `json:"roots"`
}

// JSON is the stable wire schema an issue is exported under.
type JSON struct {
	Callable     string      `json:"callable"`
	CallableLine int         `json:"callable_line"`
	Code         int         `json:"code"`
	Line         int         `json:"line"`
	Start        int         `json:"start"`
	End          int         `json:"end"`
	Filename     string      `json:"filename"`
	Message      string      `json:"message"`
	Traces       []TraceJSON `json:"traces"`
	Features     []string    `json:"features"`
	SinkHandle   string      `json:"sink_handle"`
	MasterHandle string      `json:"master_handle"`
}

// ToJSON renders issue i to its stable wire schema, with message as the
// already-template-substituted message string.
func ToJSON(i Issue, message string) JSON {
	loc := i.CanonicalLocation()
	return JSON{
		Callable:     i.Define.Callable,
		CallableLine: i.Define.Line,
		Code:         i.Handle.Code,
		Line:         loc.Line,
		Start:        loc.Col,
		End:          loc.EndCol,
		Filename:     loc.Filename,
		Message:      message,
		Traces:       traceJSON(i.Flow),
		Features:     features(i.Flow),
		SinkHandle:   i.Handle.Sink.String(),
		MasterHandle: MasterHandle(i.Handle),
	}
}

// MasterHandle computes the stable 32-hex-char digest of h: an md5 sum of
// its canonical string form.
func MasterHandle(h Handle) string {
	sum := md5.Sum([]byte(h.String()))
	return hex.EncodeToString(sum[:])
}

func traceJSON(flow domain.Flow) []TraceJSON {
	return []TraceJSON{
		{Name: "forward", Roots: rootPaths(flow.Source)},
		{Name: "backward", Roots: rootPaths(flow.Sink)},
	}
}

func rootPaths(t *domain.Tree) []string {
	var paths []string
	t.Fold(func(path domain.Path, k domain.Kind, _ domain.Frame) {
		paths = append(paths, fmt.Sprintf("%s:%s", path.String(), k.String()))
	})
	sort.Strings(paths)
	return paths
}

func features(flow domain.Flow) []string {
	seen := map[string]struct{}{}
	var out []string
	collect := func(t *domain.Tree) {
		t.Fold(func(_ domain.Path, _ domain.Kind, f domain.Frame) {
			for _, feat := range f.Features {
				if _, ok := seen[feat]; !ok {
					seen[feat] = struct{}{}
					out = append(out, feat)
				}
			}
		})
	}
	collect(flow.Source)
	collect(flow.Sink)
	sort.Strings(out)
	return out
}
