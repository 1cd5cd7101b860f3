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

// Package backend compiles a data-centric program into an executable
// artifact running on host arrays.
package backend

import (
	"fmt"

	"github.com/GridTools/jace/backend/kernels"
	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/values"
	"github.com/google/uuid"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// CompileError reports a failure to compile a program.
type CompileError struct {
	// Program that could not be compiled.
	Program string
	err     error
}

// Error returns a string description of the error.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling %s: %v", e.Program, e.err)
}

// Unwrap the error.
func (e *CompileError) Unwrap() error { return e.err }

// ExecError reports a failure during the execution of an artifact.
type ExecError struct {
	// ArtifactID identifies the failing artifact.
	ArtifactID uuid.UUID
	// Signature is the abstract signature the artifact was compiled for.
	Signature string
	err       error
}

// Error returns a string description of the error.
func (e *ExecError) Error() string {
	return fmt.Sprintf("executing artifact %s (signature %s): %v", e.ArtifactID, e.Signature, e.err)
}

// Unwrap the error.
func (e *ExecError) Unwrap() error { return e.err }

// step is one compiled computation bound to frame slots.
type step struct {
	kernel    kernels.Kernel
	ins, outs []int
}

// slot describes one frame buffer of an invocation.
type slot struct {
	name  string
	shape *shape.Shape
	// init aliases the data of a constant container. Constant buffers
	// are shared across invocations and never written.
	init *values.HostArray
	// input position in the calling convention, -1 otherwise.
	input int
}

// Artifact is an executable program. It is immutable once compiled and
// can be invoked concurrently: every invocation works on its own buffers.
type Artifact struct {
	id    uuid.UUID
	name  string
	sig   string
	steps []step
	slots []slot
	// frame indices of the outputs, in calling convention order.
	outs []int
	// shapes of the inputs, in calling convention order.
	inputs []*shape.Shape
}

// Compile translates a validated program into an artifact. The signature
// string identifies the compilation in execution errors.
func Compile(p *sdfg.Program, sig string) (*Artifact, error) {
	if err := p.Validate(); err != nil {
		return nil, &CompileError{Program: p.Name(), err: err}
	}
	order, err := p.TopologicalOrder()
	if err != nil {
		return nil, &CompileError{Program: p.Name(), err: err}
	}
	a := &Artifact{id: uuid.New(), name: p.Name(), sig: sig}
	index := map[string]int{}
	for _, c := range p.Containers() {
		index[c.Name] = len(a.slots)
		s := slot{name: c.Name, shape: c.Shape, input: -1}
		if c.Kind == sdfg.Constant {
			s.init = c.Init
		}
		a.slots = append(a.slots, s)
	}
	for i, name := range p.Inputs() {
		a.slots[index[name]].input = i
		a.inputs = append(a.inputs, a.slots[index[name]].shape)
	}
	for _, name := range p.Outputs() {
		a.outs = append(a.outs, index[name])
	}
	for _, id := range order {
		node := p.Node(id)
		ins := make([]*shape.Shape, len(node.Ins))
		inIdx := make([]int, len(node.Ins))
		for i, name := range node.Ins {
			inIdx[i] = index[name]
			ins[i] = a.slots[inIdx[i]].shape
		}
		outs := make([]*shape.Shape, len(node.Outs))
		outIdx := make([]int, len(node.Outs))
		for i, name := range node.Outs {
			outIdx[i] = index[name]
			outs[i] = a.slots[outIdx[i]].shape
		}
		kernel, err := kernels.Build(node, ins, outs)
		if err != nil {
			return nil, &CompileError{Program: p.Name(), err: err}
		}
		a.steps = append(a.steps, step{kernel: kernel, ins: inIdx, outs: outIdx})
	}
	return a, nil
}

// ID returns the unique identifier of the artifact.
func (a *Artifact) ID() uuid.UUID { return a.id }

// Name of the compiled program.
func (a *Artifact) Name() string { return a.name }

// Signature the artifact was compiled for.
func (a *Artifact) Signature() string { return a.sig }

// NumInputs returns the number of arrays the artifact expects.
func (a *Artifact) NumInputs() int { return len(a.inputs) }

// InputShape returns the expected shape of the i-th input.
func (a *Artifact) InputShape(i int) *shape.Shape { return a.inputs[i] }

func (a *Artifact) execErrorf(format string, args ...any) error {
	return &ExecError{ArtifactID: a.id, Signature: a.sig, err: errors.Errorf(format, args...)}
}

// Run executes the artifact over the given input arrays and returns
// freshly allocated output arrays owned by the caller.
func (a *Artifact) Run(args []*values.HostArray) ([]*values.HostArray, error) {
	if len(args) != len(a.inputs) {
		return nil, a.execErrorf("got %d arrays but the artifact expects %d", len(args), len(a.inputs))
	}
	frame := make([]*values.HostArray, len(a.slots))
	for i, s := range a.slots {
		switch {
		case s.init != nil:
			frame[i] = s.init
		case s.input >= 0:
			arg := args[s.input]
			if arg.DType() != s.shape.DType || !slices.Equal(arg.Shape().AxisLengths, s.shape.AxisLengths) {
				return nil, a.execErrorf("input %d has shape %s but the artifact expects %s", s.input, arg.Shape().String(), s.shape.String())
			}
			frame[i] = arg
		default:
			buf, err := values.NewHostArray(s.shape, make([]byte, s.shape.ByteSize()))
			if err != nil {
				return nil, a.execErrorf("cannot allocate container %s: %v", s.name, err)
			}
			frame[i] = buf
		}
	}
	scratch := struct {
		ins, outs []*values.HostArray
	}{}
	for _, st := range a.steps {
		scratch.ins = scratch.ins[:0]
		for _, idx := range st.ins {
			scratch.ins = append(scratch.ins, frame[idx])
		}
		scratch.outs = scratch.outs[:0]
		for _, idx := range st.outs {
			scratch.outs = append(scratch.outs, frame[idx])
		}
		if err := st.kernel(scratch.ins, scratch.outs); err != nil {
			return nil, &ExecError{ArtifactID: a.id, Signature: a.sig, err: err}
		}
	}
	outs := make([]*values.HostArray, len(a.outs))
	for i, idx := range a.outs {
		outs[i] = frame[idx]
	}
	return outs, nil
}
