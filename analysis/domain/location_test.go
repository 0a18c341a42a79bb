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

import "testing"

func TestLocation_LessOrdersByFileThenLineThenCol(t *testing.T) {
	a := Location{Filename: "a.go", Line: 1, Col: 1}
	b := Location{Filename: "a.go", Line: 1, Col: 2}
	c := Location{Filename: "b.go", Line: 0, Col: 0}

	if !a.Less(b) {
		t.Errorf("expected %v < %v", a, b)
	}
	if !b.Less(c) {
		t.Errorf("expected %v < %v", b, c)
	}
	if c.Less(a) {
		t.Errorf("did not expect %v < %v", c, a)
	}
}

func TestMinLocation(t *testing.T) {
	locs := []Location{
		{Filename: "b.go", Line: 1, Col: 1},
		{Filename: "a.go", Line: 5, Col: 1},
		{Filename: "a.go", Line: 2, Col: 1},
	}
	min := MinLocation(locs)
	if min.Filename != "a.go" || min.Line != 2 {
		t.Errorf("MinLocation() = %v, want a.go:2", min)
	}
}
