// Copyright 2026 The JaCe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ordered_test

import (
	"testing"

	"github.com/GridTools/jace/base/ordered"
	"github.com/google/go-cmp/cmp"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := ordered.NewMap[string, int]()
	m.Store("c", 3)
	m.Store("a", 1)
	m.Store("b", 2)
	m.Store("a", 10)

	var keys []string
	var vals []int
	for k, v := range m.Iter() {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	wantKeys := []string{"c", "a", "b"}
	wantVals := []int{3, 10, 2}
	if diff := cmp.Diff(keys, wantKeys); diff != "" {
		t.Errorf("unexpected key order:\n%s", diff)
	}
	if diff := cmp.Diff(vals, wantVals); diff != "" {
		t.Errorf("unexpected values:\n%s", diff)
	}
	if got := m.Size(); got != 3 {
		t.Errorf("Size() = %d but want 3", got)
	}
	if v, ok := m.Load("a"); !ok || v != 10 {
		t.Errorf("Load(a) = %d,%v but want 10,true", v, ok)
	}
	if m.Has("d") {
		t.Errorf("Has(d) = true but want false")
	}
}
