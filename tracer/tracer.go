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

// Package tracer records the primitive operations performed by a callable
// on abstract placeholder values, producing a data-free trace of its
// computation.
package tracer

import (
	"fmt"

	"github.com/GridTools/jace/base/ordered"
	"github.com/GridTools/jace/signature"
	"github.com/GridTools/jace/values"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Element is a value manipulated by a traced callable. The set of
// implementations is closed: *Node, Static, *Slice, and *Struct.
type Element interface {
	element()
}

// Static is a concrete value passed through tracing by value. It never
// becomes a placeholder and is free to steer Go control flow inside the
// traced callable.
type Static struct {
	val values.Static
}

var _ Element = Static{}

func (Static) element() {}

// Int returns the integer carried by the value.
func (s Static) Int() (int64, bool) { return s.val.Int() }

// Float returns the float carried by the value.
func (s Static) Float() (float64, bool) { return s.val.Float() }

// Bool returns the boolean carried by the value.
func (s Static) Bool() (bool, bool) { return s.val.Bool() }

// Value returns the underlying host value.
func (s Static) Value() values.Static { return s.val }

// Node is an abstract array value of the trace: a shape and an element
// type with no numerical content. Operations on nodes are recorded into
// the trace of the context that owns them.
type Node struct {
	ctx *Context
	ref ValueRef
}

var _ Element = (*Node)(nil)

func (*Node) element() {}

// Ref returns the trace reference of the node.
func (n *Node) Ref() ValueRef { return n.ref }

// Shape of the node.
func (n *Node) Shape() *shape.Shape {
	return n.ctx.trace.vals[n.ref].Shape
}

// Slice is an ordered sequence of elements.
type Slice struct {
	elts []Element
}

var _ Element = (*Slice)(nil)

// NewSlice returns a slice of elements.
func NewSlice(elts ...Element) *Slice {
	return &Slice{elts: elts}
}

func (*Slice) element() {}

// Len returns the number of elements in the slice.
func (s *Slice) Len() int { return len(s.elts) }

// Element returns the i-th element of the slice.
func (s *Slice) Element(i int) Element { return s.elts[i] }

// Struct is a set of named elements.
type Struct struct {
	fields *ordered.Map[string, Element]
}

var _ Element = (*Struct)(nil)

// NewStruct returns an empty structure element.
func NewStruct() *Struct {
	return &Struct{fields: ordered.NewMap[string, Element]()}
}

func (*Struct) element() {}

// Set the value of a field, adding the field if necessary.
func (s *Struct) Set(name string, elt Element) *Struct {
	s.fields.Store(name, elt)
	return s
}

// Field returns the element stored under a field name.
func (s *Struct) Field(name string) (Element, bool) {
	return s.fields.Load(name)
}

// Context records the operations of one capture. A context is only valid
// for the duration of the capture that created it.
type Context struct {
	trace *Trace
	prec  signature.Precision
}

func (ctx *Context) newValue(sh *shape.Shape) ValueRef {
	ctx.trace.vals = append(ctx.trace.vals, &AbstractValue{Shape: sh})
	return ValueRef(len(ctx.trace.vals) - 1)
}

func (ctx *Context) newInput(sh *shape.Shape) *Node {
	ref := ctx.newValue(sh)
	ctx.trace.numInputs++
	return &Node{ctx: ctx, ref: ref}
}

// Constant bakes a concrete host array into the trace as an external
// constant. The array's element type follows the precision policy of
// the capture.
func (ctx *Context) Constant(a *values.HostArray) *Node {
	conv, err := values.Convert(a, ctx.prec.Apply(a.DType()))
	if err != nil {
		tracePanicf("cannot capture constant %s: %v", a.String(), err)
	}
	ref := ctx.newValue(conv.Shape())
	ctx.trace.consts = append(ctx.trace.consts, ConstEntry{Ref: ref, Value: conv})
	return &Node{ctx: ctx, ref: ref}
}

// Float returns a constant atomic float value.
func (ctx *Context) Float(v float64) *Node {
	return ctx.Constant(values.Scalar(v))
}

// Int returns a constant atomic integer value.
func (ctx *Context) Int(v int64) *Node {
	return ctx.Constant(values.Scalar(v))
}

func (ctx *Context) emit(kind OpKind, out *shape.Shape, attrs *Attributes, ins ...*Node) *Node {
	refs := make([]ValueRef, len(ins))
	for i, in := range ins {
		if in.ctx != ctx {
			tracePanicf("%s: operand %d belongs to a different capture", kind, i)
		}
		refs[i] = in.ref
	}
	ref := ctx.newValue(out)
	ctx.trace.ops = append(ctx.trace.ops, &Op{Kind: kind, Ins: refs, Out: ref, Attrs: attrs})
	return &Node{ctx: ctx, ref: ref}
}

type traceError struct {
	err error
}

func tracePanicf(format string, a ...any) {
	panic(traceError{err: errors.Errorf(format, a...)})
}

// CaptureError reports a failure while tracing a callable: the callable
// returned an error, panicked, or performed an operation the tracing
// engine rejects.
type CaptureError struct {
	name string
	err  error
}

// Error returns a string description of the error.
func (e *CaptureError) Error() string {
	return fmt.Sprintf("capturing %s: %v", e.name, e.err)
}

// Unwrap the error.
func (e *CaptureError) Unwrap() error {
	return e.err
}

// Func is a callable that can be traced. During capture the function
// receives one element per original argument: arrays arrive as abstract
// placeholder nodes and static values arrive as concrete values.
type Func func(ctx *Context, args []Element) ([]Element, error)

// Capture traces fn once. Placeholders are built from the structure of
// args; static arguments, designated by opts, are passed through by value.
// Capturing twice with arguments of equal signature produces structurally
// equal traces.
func Capture(name string, fn Func, args []values.Value, opts signature.Options) (tr *Trace, err error) {
	ctx := &Context{
		trace: &Trace{name: name},
		prec:  opts.Precision,
	}
	staticPos := make(map[int]bool, len(opts.StaticArgs))
	for _, pos := range opts.StaticArgs {
		staticPos[pos] = true
	}
	defer func() {
		if r := recover(); r != nil {
			err = recoveredError(name, r)
		}
	}()
	elts := make([]Element, len(args))
	for i, arg := range args {
		elt, eltErr := ctx.buildElement(arg, staticPos[i])
		if eltErr != nil {
			return nil, &CaptureError{name: name, err: eltErr}
		}
		elts[i] = elt
	}
	outs, fnErr := fn(ctx, elts)
	if fnErr != nil {
		return nil, &CaptureError{name: name, err: fnErr}
	}
	if err := ctx.recordOutputs(outs); err != nil {
		return nil, &CaptureError{name: name, err: err}
	}
	return ctx.trace, nil
}

func recoveredError(name string, r any) error {
	if te, ok := r.(traceError); ok {
		return &CaptureError{name: name, err: te.err}
	}
	return &CaptureError{name: name, err: errors.Errorf("callable panicked: %v", r)}
}

// buildElement mirrors the structure of a host value with trace elements.
// Struct fields are visited in sorted name order, matching the flatten
// order used by signatures and by argument marshalling.
func (ctx *Context) buildElement(v values.Value, static bool) (Element, error) {
	switch vT := v.(type) {
	case *values.HostArray:
		if static {
			return ctx.Constant(vT), nil
		}
		sh := vT.Shape()
		return ctx.newInput(&shape.Shape{
			DType:       ctx.prec.Apply(sh.DType),
			AxisLengths: sh.AxisLengths,
		}), nil
	case values.Static:
		return Static{val: vT}, nil
	case *values.Slice:
		elts := make([]Element, vT.Len())
		for i, sub := range vT.Elements() {
			var err error
			elts[i], err = ctx.buildElement(sub, static)
			if err != nil {
				return nil, err
			}
		}
		return NewSlice(elts...), nil
	case *values.Struct:
		strct := NewStruct()
		for _, name := range sortedFieldNames(vT) {
			field, err := vT.Field(name)
			if err != nil {
				return nil, err
			}
			elt, err := ctx.buildElement(field, static)
			if err != nil {
				return nil, err
			}
			strct.Set(name, elt)
		}
		return strct, nil
	}
	return nil, errors.Errorf("value of type %T not supported for tracing", v)
}

// recordOutputs flattens the result elements of the callable and records
// their references and nested structure into the trace.
func (ctx *Context) recordOutputs(outs []Element) error {
	skeletons := make([]values.Value, len(outs))
	for i, out := range outs {
		skel, err := ctx.recordOutput(out)
		if err != nil {
			return err
		}
		skeletons[i] = skel
	}
	_, topo, err := values.Flatten(values.NewSlice(skeletons...))
	if err != nil {
		return err
	}
	ctx.trace.outTopo = topo
	return nil
}

// recordOutput appends the output references of one element in flatten
// order and returns a skeleton host value with the same structure.
func (ctx *Context) recordOutput(out Element) (values.Value, error) {
	switch outT := out.(type) {
	case *Node:
		if outT.ctx != ctx {
			return nil, errors.Errorf("returned node belongs to a different capture")
		}
		ctx.trace.outs = append(ctx.trace.outs, outT.ref)
		return values.StaticBool(false), nil
	case *Slice:
		elts := make([]values.Value, outT.Len())
		for i := range elts {
			var err error
			elts[i], err = ctx.recordOutput(outT.Element(i))
			if err != nil {
				return nil, err
			}
		}
		return values.NewSlice(elts...), nil
	case *Struct:
		strct := values.NewStruct()
		names := make([]string, 0, outT.fields.Size())
		for name := range outT.fields.Keys() {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			elt, _ := outT.fields.Load(name)
			skel, err := ctx.recordOutput(elt)
			if err != nil {
				return nil, err
			}
			strct.Set(name, skel)
		}
		return strct, nil
	case Static:
		return nil, errors.Errorf("a traced callable cannot return a static value")
	}
	return nil, errors.Errorf("returned element of type %T not supported", out)
}

func sortedFieldNames(s *values.Struct) []string {
	names := s.FieldNames()
	slices.Sort(names)
	return names
}
