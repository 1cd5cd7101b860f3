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

package kernels_test

import (
	"testing"

	"github.com/GridTools/jace/backend/kernels"
	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/values"
	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
)

func array(t *testing.T, vals []float64, axes ...int) *values.HostArray {
	t.Helper()
	a, err := values.FromSlice(vals, axes)
	if err != nil {
		t.Fatalf("cannot build array: %v", err)
	}
	return a
}

func alloc(t *testing.T, dt dtype.DataType, axes ...int) *values.HostArray {
	t.Helper()
	sh := &shape.Shape{DType: dt, AxisLengths: axes}
	a, err := values.NewHostArray(sh, make([]byte, sh.ByteSize()))
	if err != nil {
		t.Fatalf("cannot allocate array: %v", err)
	}
	return a
}

func run(t *testing.T, node *sdfg.Node, ins []*values.HostArray, out *values.HostArray) {
	t.Helper()
	inShapes := make([]*shape.Shape, len(ins))
	for i, in := range ins {
		inShapes[i] = in.Shape()
	}
	kernel, err := kernels.Build(node, inShapes, []*shape.Shape{out.Shape()})
	if err != nil {
		t.Fatalf("cannot build %s kernel: %v", node.Kind, err)
	}
	if err := kernel(ins, []*values.HostArray{out}); err != nil {
		t.Fatalf("cannot run %s kernel: %v", node.Kind, err)
	}
}

func checkFloats(t *testing.T, name string, out *values.HostArray, want []float64) {
	t.Helper()
	got, err := values.ToSlice[float64](out)
	if err != nil {
		t.Fatalf("%s: cannot read output: %v", name, err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("%s: unexpected output (-want +got):\n%s", name, diff)
	}
}

func TestBinaryBroadcast(t *testing.T) {
	tests := []struct {
		name string
		x, y *values.HostArray
		want []float64
	}{
		{
			name: "array array",
			x:    array(t, []float64{1, 2, 3, 4}, 4),
			y:    array(t, []float64{10, 20, 30, 40}, 4),
			want: []float64{11, 22, 33, 44},
		},
		{
			name: "array atomic",
			x:    array(t, []float64{1, 2, 3, 4}, 4),
			y:    array(t, []float64{10}, 1),
			want: []float64{11, 12, 13, 14},
		},
		{
			name: "atomic array",
			x:    array(t, []float64{10}, 1),
			y:    array(t, []float64{1, 2, 3, 4}, 4),
			want: []float64{11, 12, 13, 14},
		},
	}
	for _, test := range tests {
		out := alloc(t, dtype.Float64, 4)
		run(t, &sdfg.Node{Kind: "add"}, []*values.HostArray{test.x, test.y}, out)
		checkFloats(t, test.name, out, test.want)
	}
}

func TestReduce(t *testing.T) {
	tests := []struct {
		op   string
		axis int
		want []float64
	}{
		{op: "reduce_sum", axis: 0, want: []float64{5, 7, 9}},
		{op: "reduce_sum", axis: 1, want: []float64{6, 15}},
		{op: "reduce_sum", axis: sdfg.AllAxes, want: []float64{21}},
		{op: "reduce_prod", axis: sdfg.AllAxes, want: []float64{720}},
		{op: "reduce_max", axis: 0, want: []float64{4, 5, 6}},
		{op: "reduce_min", axis: 1, want: []float64{1, 4}},
	}
	in := array(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	for _, test := range tests {
		acc := alloc(t, dtype.Float64, len(test.want))
		run(t, &sdfg.Node{Kind: test.op + "_init"}, nil, acc)
		run(t, &sdfg.Node{
			Kind:  test.op + "_update",
			Attrs: &sdfg.Attributes{Axis: test.axis},
		}, []*values.HostArray{in, acc}, acc)
		checkFloats(t, test.op, acc, test.want)
	}
}

func TestBroadcastInDim(t *testing.T) {
	in := array(t, []float64{1, 2, 3}, 3)
	out := alloc(t, dtype.Float64, 2, 3)
	run(t, &sdfg.Node{
		Kind:  "broadcast_in_dim",
		Attrs: &sdfg.Attributes{Dims: []int{2, 3}, BroadcastDims: []int{1}},
	}, []*values.HostArray{in}, out)
	checkFloats(t, "broadcast", out, []float64{1, 2, 3, 1, 2, 3})
}

func TestConcatenate(t *testing.T) {
	x := array(t, []float64{1, 2}, 2)
	y := array(t, []float64{3, 4, 5}, 3)
	out := alloc(t, dtype.Float64, 5)
	run(t, &sdfg.Node{
		Kind:  "concatenate",
		Attrs: &sdfg.Attributes{Axis: 0},
	}, []*values.HostArray{x, y}, out)
	checkFloats(t, "concat", out, []float64{1, 2, 3, 4, 5})
}

func TestSlice(t *testing.T) {
	in := array(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	out := alloc(t, dtype.Float64, 1, 2)
	run(t, &sdfg.Node{
		Kind:  "slice",
		Attrs: &sdfg.Attributes{Starts: []int{1, 1}, Limits: []int{2, 3}},
	}, []*values.HostArray{in}, out)
	checkFloats(t, "slice", out, []float64{5, 6})
}

func TestGather(t *testing.T) {
	in := array(t, []float64{1, 2, 3, 4, 5, 6}, 3, 2)
	idx := values.Vector[int64](2, 0, 2)
	out := alloc(t, dtype.Float64, 3, 2)
	run(t, &sdfg.Node{
		Kind:  "gather",
		Attrs: &sdfg.Attributes{Axis: 0},
	}, []*values.HostArray{in, idx}, out)
	checkFloats(t, "gather", out, []float64{5, 6, 1, 2, 5, 6})
}

func TestGatherOutOfRange(t *testing.T) {
	in := array(t, []float64{1, 2}, 2, 1)
	idx := values.Vector[int64](5)
	out := alloc(t, dtype.Float64, 1, 1)
	kernel, err := kernels.Build(&sdfg.Node{Kind: "gather"},
		[]*shape.Shape{in.Shape(), idx.Shape()}, []*shape.Shape{out.Shape()})
	if err != nil {
		t.Fatalf("cannot build gather kernel: %v", err)
	}
	if err := kernel([]*values.HostArray{in, idx}, []*values.HostArray{out}); err == nil {
		t.Errorf("expected an error for an out-of-range index")
	}
}

func TestIota(t *testing.T) {
	out := alloc(t, dtype.Float64, 4)
	run(t, &sdfg.Node{Kind: "iota", Attrs: &sdfg.Attributes{Dims: []int{4}}}, nil, out)
	checkFloats(t, "iota", out, []float64{0, 1, 2, 3})
}

func TestConvert(t *testing.T) {
	in := values.Vector[int64](1, 2, 3)
	out := alloc(t, dtype.Float64, 3)
	run(t, &sdfg.Node{
		Kind:  "convert_element_type",
		Attrs: &sdfg.Attributes{DType: dtype.Float64},
	}, []*values.HostArray{in}, out)
	checkFloats(t, "convert", out, []float64{1, 2, 3})
}

func TestSelect(t *testing.T) {
	cond := values.Vector[bool](true, false, true)
	onTrue := array(t, []float64{1, 2, 3}, 3)
	onFalse := array(t, []float64{-1, -2, -3}, 3)
	out := alloc(t, dtype.Float64, 3)
	run(t, &sdfg.Node{Kind: "select_n"}, []*values.HostArray{cond, onTrue, onFalse}, out)
	checkFloats(t, "select", out, []float64{1, -2, 3})
}

func TestIntegerDivisionByZero(t *testing.T) {
	x := values.Vector[int64](1, 2)
	y := values.Vector[int64](1, 0)
	out := alloc(t, dtype.Int64, 2)
	kernel, err := kernels.Build(&sdfg.Node{Kind: "div"},
		[]*shape.Shape{x.Shape(), y.Shape()}, []*shape.Shape{out.Shape()})
	if err != nil {
		t.Fatalf("cannot build div kernel: %v", err)
	}
	if err := kernel([]*values.HostArray{x, y}, []*values.HostArray{out}); err == nil {
		t.Errorf("expected an error for a zero divisor")
	}
}

func TestUnknownKind(t *testing.T) {
	_, err := kernels.Build(&sdfg.Node{Kind: "fft"}, nil, nil)
	if err == nil {
		t.Errorf("expected an error for an unknown operation")
	}
}
