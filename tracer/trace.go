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

package tracer

import (
	"fmt"
	"strings"

	"github.com/GridTools/jace/values"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
)

// OpKind is the kind of a primitive operation recorded in a trace.
type OpKind int

// Primitive operation kinds.
const (
	OpInvalid OpKind = iota

	// Unary elementwise.
	OpNeg
	OpAbs
	OpExp
	OpLog
	OpSqrt
	OpSin
	OpCos
	OpTanh
	OpNot
	OpCopy

	// Binary elementwise.
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpMaximum
	OpMinimum
	OpAnd
	OpOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Conditional selection.
	OpSelect

	// Reductions.
	OpReduceSum
	OpReduceProd
	OpReduceMax
	OpReduceMin

	// Shape and type operations.
	OpReshape
	OpSqueeze
	OpBroadcastInDim
	OpConcatenate
	OpConvertType
	OpIota
	OpSlice
	OpGather
)

var opKindNames = map[OpKind]string{
	OpNeg:            "neg",
	OpAbs:            "abs",
	OpExp:            "exp",
	OpLog:            "log",
	OpSqrt:           "sqrt",
	OpSin:            "sin",
	OpCos:            "cos",
	OpTanh:           "tanh",
	OpNot:            "not",
	OpCopy:           "copy",
	OpAdd:            "add",
	OpSub:            "sub",
	OpMul:            "mul",
	OpDiv:            "div",
	OpRem:            "rem",
	OpPow:            "pow",
	OpMaximum:        "max",
	OpMinimum:        "min",
	OpAnd:            "and",
	OpOr:             "or",
	OpEq:             "eq",
	OpNe:             "ne",
	OpLt:             "lt",
	OpLe:             "le",
	OpGt:             "gt",
	OpGe:             "ge",
	OpSelect:         "select_n",
	OpReduceSum:      "reduce_sum",
	OpReduceProd:     "reduce_prod",
	OpReduceMax:      "reduce_max",
	OpReduceMin:      "reduce_min",
	OpReshape:        "reshape",
	OpSqueeze:        "squeeze",
	OpBroadcastInDim: "broadcast_in_dim",
	OpConcatenate:    "concatenate",
	OpConvertType:    "convert_element_type",
	OpIota:           "iota",
	OpSlice:          "slice",
	OpGather:         "gather",
}

// String returns the primitive name of the kind.
func (k OpKind) String() string {
	name, ok := opKindNames[k]
	if !ok {
		return fmt.Sprintf("opkind(%d)", int(k))
	}
	return name
}

// ValueRef references a value of the trace by its position in the trace
// value table. Inputs come first, then constants, then operation outputs.
type ValueRef int

// AbstractValue is a data-free value of the trace: a shape and an element
// type, but no numerical content.
type AbstractValue struct {
	Shape *shape.Shape
}

// Attributes carries the static parameters of an operation.
type Attributes struct {
	// Axis of a reduction, concatenation, squeeze, or gather.
	// AllAxes for a total reduction.
	Axis int
	// Dims are the target axis lengths of a reshape, broadcast, or iota.
	Dims []int
	// BroadcastDims maps each input axis to an output axis of a
	// broadcast_in_dim.
	BroadcastDims []int
	// Starts and Limits bound a slice operation, one entry per axis.
	Starts, Limits []int
	// DType is the target element type of a convert_element_type or iota.
	DType dtype.DataType
}

// AllAxes requests a reduction over every axis of the input.
const AllAxes = -1

// Op is one primitive operation of a trace.
type Op struct {
	Kind  OpKind
	Ins   []ValueRef
	Out   ValueRef
	Attrs *Attributes
}

// ConstEntry is an external constant captured by the trace.
type ConstEntry struct {
	Ref   ValueRef
	Value *values.HostArray
}

// Trace is an ordered sequence of abstract operations captured from a
// callable. It is immutable once capture completes and is owned by the
// lowering step that consumes it.
type Trace struct {
	name      string
	vals      []*AbstractValue
	numInputs int
	consts    []ConstEntry
	ops       []*Op
	outs      []ValueRef
	outTopo   *values.Topology
}

// Name of the traced callable.
func (tr *Trace) Name() string { return tr.name }

// NumInputs returns the number of placeholder inputs of the trace.
func (tr *Trace) NumInputs() int { return tr.numInputs }

// Value returns the abstract value referenced by ref.
func (tr *Trace) Value(ref ValueRef) *AbstractValue { return tr.vals[ref] }

// NumValues returns the size of the trace value table.
func (tr *Trace) NumValues() int { return len(tr.vals) }

// Consts returns the constants captured by the trace.
func (tr *Trace) Consts() []ConstEntry { return tr.consts }

// Ops returns the operations of the trace in capture order.
func (tr *Trace) Ops() []*Op { return tr.ops }

// Outputs returns the references of the trace outputs.
func (tr *Trace) Outputs() []ValueRef { return tr.outs }

// OutTopology returns the nested structure of the traced callable's result.
func (tr *Trace) OutTopology() *values.Topology { return tr.outTopo }

// String returns a pretty-printed form of the trace. Two traces are
// structurally equal if and only if their strings are equal.
func (tr *Trace) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(", tr.name)
	for i := 0; i < tr.numInputs; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%%%d: %s", i, tr.vals[i].Shape.String())
	}
	b.WriteString(") {\n")
	for _, cst := range tr.consts {
		fmt.Fprintf(&b, "  %%%d = const %s\n", cst.Ref, tr.vals[cst.Ref].Shape.String())
	}
	for _, op := range tr.ops {
		fmt.Fprintf(&b, "  %%%d = %s(", op.Out, op.Kind)
		for i, in := range op.Ins {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%%%d", in)
		}
		b.WriteString(")")
		if op.Attrs != nil {
			fmt.Fprintf(&b, " %s", op.Attrs.String())
		}
		fmt.Fprintf(&b, " : %s\n", tr.vals[op.Out].Shape.String())
	}
	b.WriteString("  return ")
	for i, out := range tr.outs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%%%d", out)
	}
	b.WriteString("\n}")
	return b.String()
}

// Equal returns true if both traces have the same operation sequence over
// the same abstract values.
func (tr *Trace) Equal(o *Trace) bool {
	return tr.String() == o.String()
}

// String representation of the attributes.
func (a *Attributes) String() string {
	parts := []string{}
	if a.Axis != 0 {
		parts = append(parts, fmt.Sprintf("axis=%d", a.Axis))
	}
	if len(a.Dims) > 0 {
		parts = append(parts, fmt.Sprintf("dims=%v", a.Dims))
	}
	if len(a.BroadcastDims) > 0 {
		parts = append(parts, fmt.Sprintf("bdims=%v", a.BroadcastDims))
	}
	if len(a.Starts) > 0 {
		parts = append(parts, fmt.Sprintf("starts=%v limits=%v", a.Starts, a.Limits))
	}
	if a.DType != dtype.Invalid {
		parts = append(parts, fmt.Sprintf("dtype=%s", a.DType.String()))
	}
	return strings.Join(parts, " ")
}
