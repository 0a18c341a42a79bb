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

// Flow pairs the two trees a definition's abstract state carries at a
// program point: Source, the taint reaching this point from above
// (forward), and Sink, the taint this point reaches below (backward).
// Flow matching joins a Source tree from one definition against a Sink
// tree from another at a shared access path.
type Flow struct {
	Source *Tree
	Sink   *Tree
}

// BottomFlow returns the flow with no taint on either side.
func BottomFlow() Flow {
	return Flow{Source: Bottom(), Sink: Bottom()}
}

// IsBottom reports whether neither side of the flow carries any taint.
func (fl Flow) IsBottom() bool {
	return fl.Source.IsBottom() && fl.Sink.IsBottom()
}

// Join returns the pointwise join of fl and other on both sides.
func (fl Flow) Join(other Flow) Flow {
	return Flow{
		Source: fl.Source.Join(other.Source),
		Sink:   fl.Sink.Join(other.Sink),
	}
}
