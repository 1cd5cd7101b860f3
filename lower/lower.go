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

// Package lower translates a captured trace into a data-centric program.
// Every distinct trace value becomes a named container, every primitive
// becomes one or more computation nodes, and every data dependency or
// write hazard becomes an explicit edge.
package lower

import (
	"fmt"

	"github.com/GridTools/jace/base/uname"
	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/tracer"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// Error reports a failure to lower a trace.
type Error struct {
	// Kind of the primitive that could not be lowered, empty when the
	// failure is not tied to one operation.
	Kind string
	err  error
}

func errorf(kind tracer.OpKind, format string, a ...any) *Error {
	return &Error{Kind: kind.String(), err: errors.Errorf(format, a...)}
}

// Error returns a string description of the error.
func (e *Error) Error() string {
	if e.Kind == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("lowering %s: %v", e.Kind, e.err)
}

// Unwrap the error.
func (e *Error) Unwrap() error { return e.err }

// builder lowers one trace into one program.
type builder struct {
	trace *tracer.Trace
	prog  *sdfg.Program
	names *uname.Unique

	// container name of each trace value.
	containers []string
	// lastWriter is the node that last wrote a container.
	lastWriter map[string]sdfg.NodeID
	// readers are the nodes that read a container since its last write.
	readers map[string][]sdfg.NodeID
}

// Lower translates a trace into a validated program.
func Lower(tr *tracer.Trace) (*sdfg.Program, error) {
	b := &builder{
		trace:      tr,
		prog:       sdfg.NewProgram(tr.Name()),
		names:      uname.New(),
		containers: make([]string, tr.NumValues()),
		lastWriter: map[string]sdfg.NodeID{},
		readers:    map[string][]sdfg.NodeID{},
	}
	if err := b.declareContainers(); err != nil {
		return nil, err
	}
	for _, op := range tr.Ops() {
		translate, ok := translators[op.Kind]
		if !ok {
			return nil, errorf(op.Kind, "no translator for this primitive")
		}
		if err := translate(b, op); err != nil {
			return nil, err
		}
	}
	if err := b.bindOutputs(); err != nil {
		return nil, err
	}
	if err := b.prog.Validate(); err != nil {
		return nil, &Error{err: err}
	}
	return b.prog, nil
}

// containerShape normalizes a value shape for storage: atomic values
// become arrays of one element.
func containerShape(sh *shape.Shape) *shape.Shape {
	if len(sh.AxisLengths) == 0 {
		return &shape.Shape{DType: sh.DType, AxisLengths: []int{1}}
	}
	return sh
}

// declareContainers names every trace value after its position in the
// trace and registers inputs and constants. Operation outputs are
// registered lazily by the translators so that multi-node lowerings can
// retag them.
func (b *builder) declareContainers() error {
	isConst := map[tracer.ValueRef]*tracer.ConstEntry{}
	for i := range b.trace.Consts() {
		cst := &b.trace.Consts()[i]
		isConst[cst.Ref] = cst
	}
	for ref := 0; ref < b.trace.NumValues(); ref++ {
		base := uname.Letters(ref)
		if _, ok := isConst[tracer.ValueRef(ref)]; ok {
			base = "__const_" + base
		}
		b.containers[ref] = b.names.Name(base)
	}
	for ref := 0; ref < b.trace.NumInputs(); ref++ {
		sh := b.trace.Value(tracer.ValueRef(ref)).Shape
		err := b.prog.AddContainer(&sdfg.Container{
			Name:  b.containers[ref],
			Shape: containerShape(sh),
			Kind:  sdfg.Input,
		})
		if err != nil {
			return &Error{err: err}
		}
	}
	for _, cst := range b.trace.Consts() {
		err := b.prog.AddContainer(&sdfg.Container{
			Name:  b.containers[cst.Ref],
			Shape: containerShape(cst.Value.Shape()),
			Kind:  sdfg.Constant,
			Init:  cst.Value,
		})
		if err != nil {
			return &Error{err: err}
		}
	}
	return nil
}

// addTransient registers the output container of an operation.
func (b *builder) addTransient(ref tracer.ValueRef, accumulator bool) (string, error) {
	name := b.containers[ref]
	err := b.prog.AddContainer(&sdfg.Container{
		Name:        name,
		Shape:       containerShape(b.trace.Value(ref).Shape),
		Kind:        sdfg.Transient,
		Accumulator: accumulator,
	})
	if err != nil {
		return "", &Error{err: err}
	}
	return name, nil
}

// addNode appends a computation node and the explicit edges implied by
// its reads and writes: a data edge from the producer of every operand,
// an ordering edge from every prior reader of a written container, and a
// write-write edge from its prior writer.
func (b *builder) addNode(kind string, attrs *sdfg.Attributes, ins, outs []string) sdfg.NodeID {
	id := b.prog.AddNode(kind, attrs, ins, outs)
	for _, in := range ins {
		if producer, ok := b.lastWriter[in]; ok {
			b.prog.AddEdge(sdfg.DataEdge, producer, id, in)
		}
		b.readers[in] = append(b.readers[in], id)
	}
	for _, out := range outs {
		for _, reader := range b.readers[out] {
			if reader == id {
				continue
			}
			b.prog.AddEdge(sdfg.ReadWriteEdge, reader, id, out)
		}
		if writer, ok := b.lastWriter[out]; ok {
			b.prog.AddEdge(sdfg.WriteWriteEdge, writer, id, out)
		}
		b.lastWriter[out] = id
		b.readers[out] = nil
	}
	return id
}

// in returns the container names of the operands of an operation.
func (b *builder) in(op *tracer.Op) []string {
	ins := make([]string, len(op.Ins))
	for i, ref := range op.Ins {
		ins[i] = b.containers[ref]
	}
	return ins
}

// bindOutputs declares one output container per trace output, in output
// order, fed by a copy from its source container. Copying keeps outputs
// distinct even when the callable returns the same value twice or returns
// an input unchanged.
func (b *builder) bindOutputs() error {
	for i, ref := range b.trace.Outputs() {
		name := b.names.Name(fmt.Sprintf("__return_%d", i))
		err := b.prog.AddContainer(&sdfg.Container{
			Name:  name,
			Shape: containerShape(b.trace.Value(ref).Shape),
			Kind:  sdfg.Output,
		})
		if err != nil {
			return &Error{err: err}
		}
		b.addNode("copy", nil, []string{b.containers[ref]}, []string{name})
	}
	return nil
}
