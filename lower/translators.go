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

package lower

import (
	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/tracer"
)

// translator lowers one primitive operation into program nodes.
type translator func(b *builder, op *tracer.Op) error

var translators = map[tracer.OpKind]translator{
	tracer.OpNeg:     elementwise,
	tracer.OpAbs:     elementwise,
	tracer.OpExp:     elementwise,
	tracer.OpLog:     elementwise,
	tracer.OpSqrt:    elementwise,
	tracer.OpSin:     elementwise,
	tracer.OpCos:     elementwise,
	tracer.OpTanh:    elementwise,
	tracer.OpNot:     elementwise,
	tracer.OpCopy:    elementwise,
	tracer.OpAdd:     elementwise,
	tracer.OpSub:     elementwise,
	tracer.OpMul:     elementwise,
	tracer.OpDiv:     elementwise,
	tracer.OpRem:     elementwise,
	tracer.OpPow:     elementwise,
	tracer.OpMaximum: elementwise,
	tracer.OpMinimum: elementwise,
	tracer.OpAnd:     elementwise,
	tracer.OpOr:      elementwise,
	tracer.OpEq:      elementwise,
	tracer.OpNe:      elementwise,
	tracer.OpLt:      elementwise,
	tracer.OpLe:      elementwise,
	tracer.OpGt:      elementwise,
	tracer.OpGe:      elementwise,

	tracer.OpSelect: elementwise,

	tracer.OpReduceSum:  reduction,
	tracer.OpReduceProd: reduction,
	tracer.OpReduceMax:  reduction,
	tracer.OpReduceMin:  reduction,

	tracer.OpReshape:        dataMovement,
	tracer.OpSqueeze:        dataMovement,
	tracer.OpBroadcastInDim: dataMovement,
	tracer.OpConcatenate:    dataMovement,
	tracer.OpConvertType:    dataMovement,
	tracer.OpIota:           dataMovement,
	tracer.OpSlice:          dataMovement,
	tracer.OpGather:         dataMovement,
}

// sdfgAttrs converts the static parameters of a trace operation.
func sdfgAttrs(a *tracer.Attributes) *sdfg.Attributes {
	if a == nil {
		return nil
	}
	return &sdfg.Attributes{
		Axis:          a.Axis,
		Dims:          a.Dims,
		BroadcastDims: a.BroadcastDims,
		Starts:        a.Starts,
		Limits:        a.Limits,
		DType:         a.DType,
	}
}

// elementwise lowers an operation into a single node writing a fresh
// container.
func elementwise(b *builder, op *tracer.Op) error {
	out, err := b.addTransient(op.Out, false)
	if err != nil {
		return err
	}
	b.addNode(op.Kind.String(), sdfgAttrs(op.Attrs), b.in(op), []string{out})
	return nil
}

// dataMovement lowers shape, layout, and type operations. They share the
// single-node form of elementwise operations; the distinction matters to
// the backend, not to the graph structure.
func dataMovement(b *builder, op *tracer.Op) error {
	return elementwise(b, op)
}

// reduction lowers a reduction into a two-node sub-graph over an
// accumulation container: an initialization node writes the neutral
// element, then an update node folds the input into the container.
// A write-write edge chains the two writers.
func reduction(b *builder, op *tracer.Op) error {
	if op.Attrs == nil {
		return errorf(op.Kind, "missing reduction axis")
	}
	acc, err := b.addTransient(op.Out, true)
	if err != nil {
		return err
	}
	b.addNode(op.Kind.String()+"_init", nil, nil, []string{acc})
	ins := append(b.in(op), acc)
	b.addNode(op.Kind.String()+"_update", &sdfg.Attributes{Axis: op.Attrs.Axis}, ins, []string{acc})
	return nil
}
