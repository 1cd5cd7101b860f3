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

package backend_test

import (
	"testing"

	"github.com/GridTools/jace/backend"
	"github.com/GridTools/jace/lower"
	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/signature"
	"github.com/GridTools/jace/tracer"
	"github.com/GridTools/jace/values"
	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
)

func compile(t *testing.T, name string, fn tracer.Func, args ...values.Value) *backend.Artifact {
	t.Helper()
	tr, err := tracer.Capture(name, fn, args, signature.Options{})
	if err != nil {
		t.Fatalf("cannot capture %s: %v", name, err)
	}
	p, err := lower.Lower(tr)
	if err != nil {
		t.Fatalf("cannot lower %s: %v", name, err)
	}
	artifact, err := backend.Compile(p, "")
	if err != nil {
		t.Fatalf("cannot compile %s: %v", name, err)
	}
	return artifact
}

func outputFloats(t *testing.T, outs []*values.HostArray, i int) []float64 {
	t.Helper()
	got, err := values.ToSlice[float64](outs[i])
	if err != nil {
		t.Fatalf("cannot read output %d: %v", i, err)
	}
	return got
}

func TestCompileAndRun(t *testing.T) {
	x := values.Vector[float64](1, 2, 3, 4)
	y := values.Vector[float64](5, 6, 7, 8)
	artifact := compile(t, "scale_and_shift", func(ctx *tracer.Context, args []tracer.Element) ([]tracer.Element, error) {
		a := args[0].(*tracer.Node)
		b := args[1].(*tracer.Node)
		return []tracer.Element{a.Mul(ctx.Float(2)).Add(b)}, nil
	}, x, y)
	outs, err := artifact.Run([]*values.HostArray{x, y})
	if err != nil {
		t.Fatalf("cannot run: %v", err)
	}
	want := []float64{7, 10, 13, 16}
	if diff := cmp.Diff(want, outputFloats(t, outs, 0)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestRunReduction(t *testing.T) {
	mat, err := values.FromSlice([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3})
	if err != nil {
		t.Fatalf("cannot build array: %v", err)
	}
	artifact := compile(t, "row_sums", func(ctx *tracer.Context, args []tracer.Element) ([]tracer.Element, error) {
		return []tracer.Element{args[0].(*tracer.Node).Sum(1)}, nil
	}, mat)
	outs, err := artifact.Run([]*values.HostArray{mat})
	if err != nil {
		t.Fatalf("cannot run: %v", err)
	}
	if diff := cmp.Diff([]float64{6, 15}, outputFloats(t, outs, 0)); diff != "" {
		t.Errorf("unexpected result (-want +got):\n%s", diff)
	}
}

func TestRunIsReentrant(t *testing.T) {
	x := values.Vector[float64](1, 2)
	artifact := compile(t, "double", func(ctx *tracer.Context, args []tracer.Element) ([]tracer.Element, error) {
		a := args[0].(*tracer.Node)
		return []tracer.Element{a.Add(a)}, nil
	}, x)
	first, err := artifact.Run([]*values.HostArray{x})
	if err != nil {
		t.Fatalf("cannot run: %v", err)
	}
	second, err := artifact.Run([]*values.HostArray{values.Vector[float64](10, 20)})
	if err != nil {
		t.Fatalf("cannot run: %v", err)
	}
	if diff := cmp.Diff([]float64{2, 4}, outputFloats(t, first, 0)); diff != "" {
		t.Errorf("first invocation clobbered (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{20, 40}, outputFloats(t, second, 0)); diff != "" {
		t.Errorf("unexpected second result (-want +got):\n%s", diff)
	}
}

func TestRunInputMismatch(t *testing.T) {
	x := values.Vector[float64](1, 2)
	artifact := compile(t, "identity", func(ctx *tracer.Context, args []tracer.Element) ([]tracer.Element, error) {
		return []tracer.Element{args[0]}, nil
	}, x)
	_, err := artifact.Run([]*values.HostArray{values.Vector[float64](1, 2, 3)})
	if err == nil {
		t.Fatalf("expected an error for a mismatching input")
	}
	execErr, ok := err.(*backend.ExecError)
	if !ok {
		t.Fatalf("error has type %T, not *backend.ExecError", err)
	}
	if execErr.ArtifactID != artifact.ID() {
		t.Errorf("error carries artifact %s, want %s", execErr.ArtifactID, artifact.ID())
	}
}

func TestRunRejectsTransposedInput(t *testing.T) {
	mat, err := values.FromSlice([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3})
	if err != nil {
		t.Fatalf("cannot build array: %v", err)
	}
	artifact := compile(t, "row_sums", func(ctx *tracer.Context, args []tracer.Element) ([]tracer.Element, error) {
		return []tracer.Element{args[0].(*tracer.Node).Sum(1)}, nil
	}, mat)
	// Same element count, different axis lengths.
	flipped, err := values.FromSlice([]float64{1, 2, 3, 4, 5, 6}, []int{3, 2})
	if err != nil {
		t.Fatalf("cannot build array: %v", err)
	}
	_, err = artifact.Run([]*values.HostArray{flipped})
	if err == nil {
		t.Fatalf("expected an error for transposed axis lengths")
	}
	if _, ok := err.(*backend.ExecError); !ok {
		t.Errorf("error has type %T, not *backend.ExecError", err)
	}
}

func TestCompileInvalidProgram(t *testing.T) {
	p := sdfg.NewProgram("bad")
	p.AddNode("exp", nil, []string{"missing"}, nil)
	_, err := backend.Compile(p, "")
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*backend.CompileError); !ok {
		t.Errorf("error has type %T, not *backend.CompileError", err)
	}
}

func TestCompileUnknownKernel(t *testing.T) {
	p := sdfg.NewProgram("bad")
	sh := &shape.Shape{DType: dtype.Float64, AxisLengths: []int{2}}
	if err := p.AddContainer(&sdfg.Container{Name: "a", Shape: sh, Kind: sdfg.Input}); err != nil {
		t.Fatalf("cannot add container: %v", err)
	}
	if err := p.AddContainer(&sdfg.Container{Name: "b", Shape: sh, Kind: sdfg.Output}); err != nil {
		t.Fatalf("cannot add container: %v", err)
	}
	p.AddNode("fft", nil, []string{"a"}, []string{"b"})
	_, err := backend.Compile(p, "")
	if err == nil {
		t.Errorf("expected an error for an unknown operation")
	}
}
