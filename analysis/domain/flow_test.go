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

func TestFlow_BottomFlowIsBottom(t *testing.T) {
	if !BottomFlow().IsBottom() {
		t.Errorf("BottomFlow() should be bottom")
	}
}

func TestFlow_JoinCombinesBothSides(t *testing.T) {
	k := NewKind("UserControlled")
	f := NewFrame(CallInfo{Callee: "main"})

	a := Flow{Source: Singleton(k, f)}
	b := Flow{Sink: Singleton(k, f)}

	joined := a.Join(b)
	if joined.Source.IsBottom() {
		t.Errorf("expected source side to survive join")
	}
	if joined.Sink.IsBottom() {
		t.Errorf("expected sink side to survive join")
	}
}
