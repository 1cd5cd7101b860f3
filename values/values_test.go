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

package values_test

import (
	"testing"

	"github.com/GridTools/jace/values"
	"github.com/google/go-cmp/cmp"
)

func TestFlattenTopology(t *testing.T) {
	tests := []struct {
		value      values.Value
		wantTopo   string
		wantLeaves int
	}{
		{
			value:      values.Vector[float64](1, 2, 3),
			wantTopo:   "*",
			wantLeaves: 1,
		},
		{
			value:      values.NewSlice(values.Scalar[float64](1), values.Vector[float64](1, 2)),
			wantTopo:   "[*,*]",
			wantLeaves: 2,
		},
		{
			value: values.NewStruct().
				Set("y", values.Vector[float64](1)).
				Set("x", values.Vector[float64](2)).
				Set("n", values.StaticInt(4)),
			wantTopo:   "{n:*,x:*,y:*}",
			wantLeaves: 3,
		},
		{
			value: values.NewSlice(
				values.NewStruct().Set("a", values.Vector[int64](1, 2)),
				values.StaticBool(true),
			),
			wantTopo:   "[{a:*},*]",
			wantLeaves: 2,
		},
	}
	for i, test := range tests {
		leaves, topo, err := values.Flatten(test.value)
		if err != nil {
			t.Errorf("test %d: unexpected error: %v", i, err)
			continue
		}
		if got := topo.String(); got != test.wantTopo {
			t.Errorf("test %d: topology %s but want %s", i, got, test.wantTopo)
		}
		if len(leaves) != test.wantLeaves {
			t.Errorf("test %d: got %d leaves but want %d", i, len(leaves), test.wantLeaves)
		}
		if got := topo.NumLeaves(); got != test.wantLeaves {
			t.Errorf("test %d: NumLeaves() = %d but want %d", i, got, test.wantLeaves)
		}
	}
}

func TestStructFlattenOrderInsensitive(t *testing.T) {
	a := values.NewStruct().
		Set("x", values.Vector[float64](1)).
		Set("y", values.Vector[float64](2))
	b := values.NewStruct().
		Set("y", values.Vector[float64](2)).
		Set("x", values.Vector[float64](1))
	_, topoA, err := values.Flatten(a)
	if err != nil {
		t.Fatal(err)
	}
	_, topoB, err := values.Flatten(b)
	if err != nil {
		t.Fatal(err)
	}
	if !topoA.Equal(topoB) {
		t.Errorf("topologies differ: %s vs %s", topoA.String(), topoB.String())
	}
}

func TestUnflattenRoundTrip(t *testing.T) {
	src := values.NewStruct().
		Set("x", values.Vector[float64](1, 2, 3)).
		Set("y", values.NewSlice(values.Scalar[int64](4), values.Vector[int64](5, 6)))
	leaves, topo, err := values.Flatten(src)
	if err != nil {
		t.Fatal(err)
	}
	rebuilt, err := values.Unflatten(topo, leaves)
	if err != nil {
		t.Fatal(err)
	}
	strct, ok := rebuilt.(*values.Struct)
	if !ok {
		t.Fatalf("rebuilt value has type %T, not *values.Struct", rebuilt)
	}
	if diff := cmp.Diff(strct.FieldNames(), []string{"x", "y"}); diff != "" {
		t.Errorf("unexpected field names:\n%s", diff)
	}
	x, err := strct.Field("x")
	if err != nil {
		t.Fatal(err)
	}
	xs, err := values.ToSlice[float64](x.(*values.HostArray))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(xs, []float64{1, 2, 3}); diff != "" {
		t.Errorf("unexpected x values:\n%s", diff)
	}
}

func TestUnflattenLeafMismatch(t *testing.T) {
	_, topo, err := values.Flatten(values.NewSlice(values.Vector[float64](1), values.Vector[float64](2)))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := values.Unflatten(topo, []values.Value{values.Vector[float64](1)}); err == nil {
		t.Errorf("expected an error for missing leaves")
	}
	leaves := []values.Value{
		values.Vector[float64](1),
		values.Vector[float64](2),
		values.Vector[float64](3),
	}
	if _, err := values.Unflatten(topo, leaves); err == nil {
		t.Errorf("expected an error for leftover leaves")
	}
}

func TestStaticKeys(t *testing.T) {
	tests := []struct {
		a, b      values.Static
		wantEqual bool
	}{
		{a: values.StaticInt(4), b: values.StaticInt(4), wantEqual: true},
		{a: values.StaticInt(4), b: values.StaticInt(5), wantEqual: false},
		{a: values.StaticInt(1), b: values.StaticBool(true), wantEqual: false},
		{a: values.StaticFloat(2), b: values.StaticFloat(2), wantEqual: true},
		{a: values.StaticString("a"), b: values.StaticString("b"), wantEqual: false},
	}
	for i, test := range tests {
		gotEqual := test.a.Key() == test.b.Key()
		if gotEqual != test.wantEqual {
			t.Errorf("test %d: Key() equality is %t but want %t (%s vs %s)", i, gotEqual, test.wantEqual, test.a.Key(), test.b.Key())
		}
	}
}
