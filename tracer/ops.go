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
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"golang.org/x/exp/slices"
)

// Operations on nodes record one primitive into the owning trace and
// return the abstract result. A shape or element type mismatch aborts the
// capture; the error surfaces to the Capture caller as a CaptureError.

func (n *Node) unary(kind OpKind) *Node {
	return n.ctx.emit(kind, n.Shape(), nil, n)
}

// Neg returns the elementwise negation of the node.
func (n *Node) Neg() *Node { return n.unary(OpNeg) }

// Abs returns the elementwise absolute value of the node.
func (n *Node) Abs() *Node { return n.unary(OpAbs) }

// Exp returns the elementwise exponential of the node.
func (n *Node) Exp() *Node { return n.unary(OpExp) }

// Log returns the elementwise natural logarithm of the node.
func (n *Node) Log() *Node { return n.unary(OpLog) }

// Sqrt returns the elementwise square root of the node.
func (n *Node) Sqrt() *Node { return n.unary(OpSqrt) }

// Sin returns the elementwise sine of the node.
func (n *Node) Sin() *Node { return n.unary(OpSin) }

// Cos returns the elementwise cosine of the node.
func (n *Node) Cos() *Node { return n.unary(OpCos) }

// Tanh returns the elementwise hyperbolic tangent of the node.
func (n *Node) Tanh() *Node { return n.unary(OpTanh) }

// Copy returns a copy of the node.
func (n *Node) Copy() *Node { return n.unary(OpCopy) }

// Not returns the elementwise logical negation of a boolean node.
func (n *Node) Not() *Node {
	if n.Shape().DType != dtype.Bool {
		tracePanicf("not: operand has element type %s, not bool", n.Shape().DType.String())
	}
	return n.unary(OpNot)
}

func (n *Node) binary(kind OpKind, y *Node, outDType dtype.DataType) *Node {
	xSh, ySh := n.Shape(), y.Shape()
	if xSh.DType != ySh.DType {
		tracePanicf("%s: mismatching element types %s and %s", kind, xSh.DType.String(), ySh.DType.String())
	}
	var axes []int
	switch {
	case slices.Equal(xSh.AxisLengths, ySh.AxisLengths):
		axes = xSh.AxisLengths
	case xSh.IsAtomic():
		axes = ySh.AxisLengths
	case ySh.IsAtomic():
		axes = xSh.AxisLengths
	default:
		tracePanicf("%s: mismatching shapes %s and %s", kind, xSh.String(), ySh.String())
	}
	if outDType == dtype.Invalid {
		outDType = xSh.DType
	}
	return n.ctx.emit(kind, &shape.Shape{DType: outDType, AxisLengths: axes}, nil, n, y)
}

// Add returns the elementwise sum of both nodes.
func (n *Node) Add(y *Node) *Node { return n.binary(OpAdd, y, dtype.Invalid) }

// Sub returns the elementwise difference of both nodes.
func (n *Node) Sub(y *Node) *Node { return n.binary(OpSub, y, dtype.Invalid) }

// Mul returns the elementwise product of both nodes.
func (n *Node) Mul(y *Node) *Node { return n.binary(OpMul, y, dtype.Invalid) }

// Div returns the elementwise quotient of both nodes.
func (n *Node) Div(y *Node) *Node { return n.binary(OpDiv, y, dtype.Invalid) }

// Rem returns the elementwise remainder of both integer nodes.
func (n *Node) Rem(y *Node) *Node { return n.binary(OpRem, y, dtype.Invalid) }

// Pow raises the node elementwise to the power of y.
func (n *Node) Pow(y *Node) *Node { return n.binary(OpPow, y, dtype.Invalid) }

// Maximum returns the elementwise maximum of both nodes.
func (n *Node) Maximum(y *Node) *Node { return n.binary(OpMaximum, y, dtype.Invalid) }

// Minimum returns the elementwise minimum of both nodes.
func (n *Node) Minimum(y *Node) *Node { return n.binary(OpMinimum, y, dtype.Invalid) }

// And returns the elementwise conjunction of both boolean nodes.
func (n *Node) And(y *Node) *Node { return n.binary(OpAnd, y, dtype.Invalid) }

// Or returns the elementwise disjunction of both boolean nodes.
func (n *Node) Or(y *Node) *Node { return n.binary(OpOr, y, dtype.Invalid) }

// Eq returns the elementwise equality comparison of both nodes.
func (n *Node) Eq(y *Node) *Node { return n.binary(OpEq, y, dtype.Bool) }

// Ne returns the elementwise inequality comparison of both nodes.
func (n *Node) Ne(y *Node) *Node { return n.binary(OpNe, y, dtype.Bool) }

// Lt returns the elementwise less-than comparison of both nodes.
func (n *Node) Lt(y *Node) *Node { return n.binary(OpLt, y, dtype.Bool) }

// Le returns the elementwise less-or-equal comparison of both nodes.
func (n *Node) Le(y *Node) *Node { return n.binary(OpLe, y, dtype.Bool) }

// Gt returns the elementwise greater-than comparison of both nodes.
func (n *Node) Gt(y *Node) *Node { return n.binary(OpGt, y, dtype.Bool) }

// Ge returns the elementwise greater-or-equal comparison of both nodes.
func (n *Node) Ge(y *Node) *Node { return n.binary(OpGe, y, dtype.Bool) }

// Select returns onTrue where the boolean node is true and onFalse
// elsewhere.
func (n *Node) Select(onTrue, onFalse *Node) *Node {
	condSh := n.Shape()
	if condSh.DType != dtype.Bool {
		tracePanicf("select: condition has element type %s, not bool", condSh.DType.String())
	}
	tSh, fSh := onTrue.Shape(), onFalse.Shape()
	if tSh.DType != fSh.DType || !slices.Equal(tSh.AxisLengths, fSh.AxisLengths) {
		tracePanicf("select: mismatching branch shapes %s and %s", tSh.String(), fSh.String())
	}
	if !condSh.IsAtomic() && !slices.Equal(condSh.AxisLengths, tSh.AxisLengths) {
		tracePanicf("select: condition shape %s does not match branch shape %s", condSh.String(), tSh.String())
	}
	return n.ctx.emit(OpSelect, &shape.Shape{DType: tSh.DType, AxisLengths: tSh.AxisLengths}, nil, n, onTrue, onFalse)
}

func (n *Node) reduce(kind OpKind, axis int) *Node {
	sh := n.Shape()
	if sh.DType == dtype.Bool {
		tracePanicf("%s: boolean arrays cannot be reduced", kind)
	}
	var axes []int
	if axis != AllAxes {
		if axis < 0 || axis >= len(sh.AxisLengths) {
			tracePanicf("%s: axis %d out of range for shape %s", kind, axis, sh.String())
		}
		axes = slices.Delete(slices.Clone(sh.AxisLengths), axis, axis+1)
	}
	return n.ctx.emit(kind, &shape.Shape{DType: sh.DType, AxisLengths: axes}, &Attributes{Axis: axis}, n)
}

// Sum reduces the node by summation over one axis, or over every axis
// when given AllAxes.
func (n *Node) Sum(axis int) *Node { return n.reduce(OpReduceSum, axis) }

// Prod reduces the node by multiplication over one axis, or over every
// axis when given AllAxes.
func (n *Node) Prod(axis int) *Node { return n.reduce(OpReduceProd, axis) }

// ReduceMax reduces the node by maximum over one axis, or over every axis
// when given AllAxes.
func (n *Node) ReduceMax(axis int) *Node { return n.reduce(OpReduceMax, axis) }

// ReduceMin reduces the node by minimum over one axis, or over every axis
// when given AllAxes.
func (n *Node) ReduceMin(axis int) *Node { return n.reduce(OpReduceMin, axis) }

// Reshape returns the node with its values rearranged to the given axis
// lengths. The total number of elements is preserved.
func (n *Node) Reshape(axisLengths ...int) *Node {
	sh := n.Shape()
	out := &shape.Shape{DType: sh.DType, AxisLengths: axisLengths}
	if out.Size() != sh.Size() {
		tracePanicf("reshape: cannot reshape %s to %v", sh.String(), axisLengths)
	}
	return n.ctx.emit(OpReshape, out, &Attributes{Dims: axisLengths}, n)
}

// Squeeze removes an axis of length one.
func (n *Node) Squeeze(axis int) *Node {
	sh := n.Shape()
	if axis < 0 || axis >= len(sh.AxisLengths) || sh.AxisLengths[axis] != 1 {
		tracePanicf("squeeze: axis %d of shape %s does not have length one", axis, sh.String())
	}
	axes := slices.Delete(slices.Clone(sh.AxisLengths), axis, axis+1)
	return n.ctx.emit(OpSqueeze, &shape.Shape{DType: sh.DType, AxisLengths: axes}, &Attributes{Axis: axis}, n)
}

// BroadcastInDim expands the node to the given axis lengths.
// broadcastDims maps each input axis to an output axis; input axes of
// length one are stretched to the output length.
func (n *Node) BroadcastInDim(axisLengths []int, broadcastDims []int) *Node {
	sh := n.Shape()
	if len(broadcastDims) != len(sh.AxisLengths) {
		tracePanicf("broadcast_in_dim: got %d broadcast dimensions for an input of rank %d", len(broadcastDims), len(sh.AxisLengths))
	}
	for i, dim := range broadcastDims {
		if dim < 0 || dim >= len(axisLengths) {
			tracePanicf("broadcast_in_dim: dimension %d out of range for output shape %v", dim, axisLengths)
		}
		inLen := sh.AxisLengths[i]
		if inLen != 1 && inLen != axisLengths[dim] {
			tracePanicf("broadcast_in_dim: input axis %d of length %d does not match output axis %d of length %d", i, inLen, dim, axisLengths[dim])
		}
	}
	out := &shape.Shape{DType: sh.DType, AxisLengths: axisLengths}
	return n.ctx.emit(OpBroadcastInDim, out, &Attributes{Dims: axisLengths, BroadcastDims: broadcastDims}, n)
}

// Cast converts the node elementwise to the target element type.
// The target follows the precision policy of the capture.
func (n *Node) Cast(target dtype.DataType) *Node {
	target = n.ctx.prec.Apply(target)
	sh := n.Shape()
	out := &shape.Shape{DType: target, AxisLengths: sh.AxisLengths}
	return n.ctx.emit(OpConvertType, out, &Attributes{DType: target}, n)
}

// Slice extracts the sub-array bounded by starts (inclusive) and limits
// (exclusive), one pair per axis.
func (n *Node) Slice(starts, limits []int) *Node {
	sh := n.Shape()
	if len(starts) != len(sh.AxisLengths) || len(limits) != len(sh.AxisLengths) {
		tracePanicf("slice: got %d bounds for an input of rank %d", len(starts), len(sh.AxisLengths))
	}
	axes := make([]int, len(starts))
	for i := range starts {
		if starts[i] < 0 || limits[i] > sh.AxisLengths[i] || starts[i] >= limits[i] {
			tracePanicf("slice: bounds [%d, %d) invalid for axis %d of shape %s", starts[i], limits[i], i, sh.String())
		}
		axes[i] = limits[i] - starts[i]
	}
	out := &shape.Shape{DType: sh.DType, AxisLengths: axes}
	return n.ctx.emit(OpSlice, out, &Attributes{Starts: slices.Clone(starts), Limits: slices.Clone(limits)}, n)
}

// Gather takes the rows of the node indexed by a one-dimensional integer
// node along the first axis.
func (n *Node) Gather(indices *Node) *Node {
	sh := n.Shape()
	if len(sh.AxisLengths) == 0 {
		tracePanicf("gather: cannot gather from an atomic value")
	}
	idxSh := indices.Shape()
	if len(idxSh.AxisLengths) != 1 {
		tracePanicf("gather: indices have shape %s, not a vector", idxSh.String())
	}
	if idxSh.DType != dtype.Int64 && idxSh.DType != dtype.Int32 {
		tracePanicf("gather: indices have element type %s, not an integer type", idxSh.DType.String())
	}
	axes := append([]int{idxSh.AxisLengths[0]}, sh.AxisLengths[1:]...)
	out := &shape.Shape{DType: sh.DType, AxisLengths: axes}
	return n.ctx.emit(OpGather, out, &Attributes{Axis: 0}, n, indices)
}

// Concat concatenates nodes along an axis.
func (ctx *Context) Concat(axis int, nodes ...*Node) *Node {
	if len(nodes) == 0 {
		tracePanicf("concatenate: no operand")
	}
	first := nodes[0].Shape()
	if axis < 0 || axis >= len(first.AxisLengths) {
		tracePanicf("concatenate: axis %d out of range for shape %s", axis, first.String())
	}
	total := 0
	for _, node := range nodes {
		sh := node.Shape()
		if sh.DType != first.DType || len(sh.AxisLengths) != len(first.AxisLengths) {
			tracePanicf("concatenate: mismatching operand shapes %s and %s", first.String(), sh.String())
		}
		for i, length := range sh.AxisLengths {
			if i == axis {
				continue
			}
			if length != first.AxisLengths[i] {
				tracePanicf("concatenate: mismatching lengths on axis %d: %s and %s", i, first.String(), sh.String())
			}
		}
		total += sh.AxisLengths[axis]
	}
	axes := slices.Clone(first.AxisLengths)
	axes[axis] = total
	out := &shape.Shape{DType: first.DType, AxisLengths: axes}
	return ctx.emit(OpConcatenate, out, &Attributes{Axis: axis}, nodes...)
}

// Iota returns a vector of n consecutive values starting at zero.
// The element type follows the precision policy of the capture.
func (ctx *Context) Iota(dt dtype.DataType, n int) *Node {
	if n < 0 {
		tracePanicf("iota: negative length %d", n)
	}
	dt = ctx.prec.Apply(dt)
	out := &shape.Shape{DType: dt, AxisLengths: []int{n}}
	return ctx.emit(OpIota, out, &Attributes{Dims: []int{n}, DType: dt})
}
