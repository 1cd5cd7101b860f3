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

package kernels

import (
	"math"

	"github.com/GridTools/jace/values"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// Constraints narrowing the storable Go types by numeric class.
type floats interface {
	dtype.GoDataType
	~float32 | ~float64
}

type sints interface {
	dtype.GoDataType
	~int32 | ~int64
}

type uints interface {
	dtype.GoDataType
	~uint32 | ~uint64
}

type integers interface {
	dtype.GoDataType
	~int32 | ~int64 | ~uint32 | ~uint64
}

type numerics interface {
	dtype.GoDataType
	~float32 | ~float64 | ~int32 | ~int64 | ~uint32 | ~uint64
}

func unaryKernel[T dtype.GoDataType](f func(T) T) Kernel {
	return func(ins, outs []*values.HostArray) error {
		x, err := values.ToSlice[T](ins[0])
		if err != nil {
			return err
		}
		out, err := values.ToSlice[T](outs[0])
		if err != nil {
			return err
		}
		for i := range out {
			out[i] = f(x[i])
		}
		return nil
	}
}

// binaryKernel iterates both operands in lockstep. An operand holding a
// single element broadcasts over the other.
func binaryKernel[T, O dtype.GoDataType](f func(a, b T) O) Kernel {
	return func(ins, outs []*values.HostArray) error {
		x, err := values.ToSlice[T](ins[0])
		if err != nil {
			return err
		}
		y, err := values.ToSlice[T](ins[1])
		if err != nil {
			return err
		}
		out, err := values.ToSlice[O](outs[0])
		if err != nil {
			return err
		}
		sx, sy := 1, 1
		if len(x) == 1 {
			sx = 0
		}
		if len(y) == 1 {
			sy = 0
		}
		for i := range out {
			out[i] = f(x[i*sx], y[i*sy])
		}
		return nil
	}
}

// checkedDivKernel guards integer division against zero divisors.
func checkedDivKernel[T integers](rem bool) Kernel {
	return func(ins, outs []*values.HostArray) error {
		x, err := values.ToSlice[T](ins[0])
		if err != nil {
			return err
		}
		y, err := values.ToSlice[T](ins[1])
		if err != nil {
			return err
		}
		out, err := values.ToSlice[T](outs[0])
		if err != nil {
			return err
		}
		sx, sy := 1, 1
		if len(x) == 1 {
			sx = 0
		}
		if len(y) == 1 {
			sy = 0
		}
		for i := range out {
			d := y[i*sy]
			if d == 0 {
				return errors.Errorf("integer division by zero at element %d", i)
			}
			if rem {
				out[i] = x[i*sx] % d
			} else {
				out[i] = x[i*sx] / d
			}
		}
		return nil
	}
}

func mathFn[T floats](f func(float64) float64) func(T) T {
	return func(v T) T { return T(f(float64(v))) }
}

func buildUnary(kind string, x *shape.Shape) (Kernel, error) {
	switch x.DType {
	case dtype.Bool:
		if kind == "not" {
			return unaryKernel(func(v bool) bool { return !v }), nil
		}
	case dtype.Float32:
		return buildUnaryFloat[float32](kind)
	case dtype.Float64:
		return buildUnaryFloat[float64](kind)
	case dtype.Int32:
		return buildUnarySigned[int32](kind)
	case dtype.Int64:
		return buildUnarySigned[int64](kind)
	}
	return nil, errors.Errorf("operation %s not supported for %s arrays", kind, x.DType.String())
}

func buildUnaryFloat[T floats](kind string) (Kernel, error) {
	switch kind {
	case "neg":
		return unaryKernel(func(v T) T { return -v }), nil
	case "abs":
		return unaryKernel(mathFn[T](math.Abs)), nil
	case "exp":
		return unaryKernel(mathFn[T](math.Exp)), nil
	case "log":
		return unaryKernel(mathFn[T](math.Log)), nil
	case "sqrt":
		return unaryKernel(mathFn[T](math.Sqrt)), nil
	case "sin":
		return unaryKernel(mathFn[T](math.Sin)), nil
	case "cos":
		return unaryKernel(mathFn[T](math.Cos)), nil
	case "tanh":
		return unaryKernel(mathFn[T](math.Tanh)), nil
	}
	return nil, errors.Errorf("operation %s not supported for %s arrays", kind, dtype.Generic[T]().String())
}

func buildUnarySigned[T sints](kind string) (Kernel, error) {
	switch kind {
	case "neg":
		return unaryKernel(func(v T) T { return -v }), nil
	case "abs":
		return unaryKernel(func(v T) T {
			if v < 0 {
				return -v
			}
			return v
		}), nil
	}
	return nil, errors.Errorf("operation %s not supported for %s arrays", kind, dtype.Generic[T]().String())
}

func buildBinary(kind string, x *shape.Shape) (Kernel, error) {
	switch x.DType {
	case dtype.Bool:
		switch kind {
		case "and":
			return binaryKernel(func(a, b bool) bool { return a && b }), nil
		case "or":
			return binaryKernel(func(a, b bool) bool { return a || b }), nil
		}
	case dtype.Float32:
		return buildBinaryFloat[float32](kind)
	case dtype.Float64:
		return buildBinaryFloat[float64](kind)
	case dtype.Int32:
		return buildBinaryInteger[int32](kind)
	case dtype.Int64:
		return buildBinaryInteger[int64](kind)
	case dtype.Uint32:
		return buildBinaryInteger[uint32](kind)
	case dtype.Uint64:
		return buildBinaryInteger[uint64](kind)
	}
	return nil, errors.Errorf("operation %s not supported for %s arrays", kind, x.DType.String())
}

func buildBinaryFloat[T floats](kind string) (Kernel, error) {
	switch kind {
	case "add":
		return binaryKernel(func(a, b T) T { return a + b }), nil
	case "sub":
		return binaryKernel(func(a, b T) T { return a - b }), nil
	case "mul":
		return binaryKernel(func(a, b T) T { return a * b }), nil
	case "div":
		return binaryKernel(func(a, b T) T { return a / b }), nil
	case "rem":
		return binaryKernel(func(a, b T) T { return T(math.Mod(float64(a), float64(b))) }), nil
	case "pow":
		return binaryKernel(func(a, b T) T { return T(math.Pow(float64(a), float64(b))) }), nil
	case "max":
		return binaryKernel(greater[T]), nil
	case "min":
		return binaryKernel(lesser[T]), nil
	}
	return nil, errors.Errorf("operation %s not supported for %s arrays", kind, dtype.Generic[T]().String())
}

func buildBinaryInteger[T integers](kind string) (Kernel, error) {
	switch kind {
	case "add":
		return binaryKernel(func(a, b T) T { return a + b }), nil
	case "sub":
		return binaryKernel(func(a, b T) T { return a - b }), nil
	case "mul":
		return binaryKernel(func(a, b T) T { return a * b }), nil
	case "div":
		return checkedDivKernel[T](false), nil
	case "rem":
		return checkedDivKernel[T](true), nil
	case "pow":
		return binaryKernel(ipow[T]), nil
	case "max":
		return binaryKernel(greater[T]), nil
	case "min":
		return binaryKernel(lesser[T]), nil
	}
	return nil, errors.Errorf("operation %s not supported for %s arrays", kind, dtype.Generic[T]().String())
}

func greater[T numerics](a, b T) T {
	if b > a {
		return b
	}
	return a
}

func lesser[T numerics](a, b T) T {
	if b < a {
		return b
	}
	return a
}

// ipow raises by squaring. A negative exponent yields zero, matching
// integer division semantics.
func ipow[T integers](a, b T) T {
	if b < 0 {
		return 0
	}
	result := T(1)
	for b > 0 {
		if b&1 == 1 {
			result *= a
		}
		a *= a
		b >>= 1
	}
	return result
}

func buildCompare(kind string, x *shape.Shape) (Kernel, error) {
	switch x.DType {
	case dtype.Bool:
		switch kind {
		case "eq":
			return binaryKernel(func(a, b bool) bool { return a == b }), nil
		case "ne":
			return binaryKernel(func(a, b bool) bool { return a != b }), nil
		}
		return nil, errors.Errorf("comparison %s not supported for bool arrays", kind)
	case dtype.Float32:
		return compareKernel[float32](kind)
	case dtype.Float64:
		return compareKernel[float64](kind)
	case dtype.Int32:
		return compareKernel[int32](kind)
	case dtype.Int64:
		return compareKernel[int64](kind)
	case dtype.Uint32:
		return compareKernel[uint32](kind)
	case dtype.Uint64:
		return compareKernel[uint64](kind)
	}
	return nil, errors.Errorf("comparison %s not supported for %s arrays", kind, x.DType.String())
}

func compareKernel[T numerics](kind string) (Kernel, error) {
	switch kind {
	case "eq":
		return binaryKernel(func(a, b T) bool { return a == b }), nil
	case "ne":
		return binaryKernel(func(a, b T) bool { return a != b }), nil
	case "lt":
		return binaryKernel(func(a, b T) bool { return a < b }), nil
	case "le":
		return binaryKernel(func(a, b T) bool { return a <= b }), nil
	case "gt":
		return binaryKernel(func(a, b T) bool { return a > b }), nil
	case "ge":
		return binaryKernel(func(a, b T) bool { return a >= b }), nil
	}
	return nil, errors.Errorf("unknown comparison %s", kind)
}

func buildSelect(out *shape.Shape) (Kernel, error) {
	switch out.DType {
	case dtype.Bool:
		return selectKernel[bool](), nil
	case dtype.Float32:
		return selectKernel[float32](), nil
	case dtype.Float64:
		return selectKernel[float64](), nil
	case dtype.Int32:
		return selectKernel[int32](), nil
	case dtype.Int64:
		return selectKernel[int64](), nil
	case dtype.Uint32:
		return selectKernel[uint32](), nil
	case dtype.Uint64:
		return selectKernel[uint64](), nil
	}
	return nil, errors.Errorf("selection not supported for %s arrays", out.DType.String())
}

func selectKernel[T dtype.GoDataType]() Kernel {
	return func(ins, outs []*values.HostArray) error {
		cond, err := values.ToSlice[bool](ins[0])
		if err != nil {
			return err
		}
		onTrue, err := values.ToSlice[T](ins[1])
		if err != nil {
			return err
		}
		onFalse, err := values.ToSlice[T](ins[2])
		if err != nil {
			return err
		}
		out, err := values.ToSlice[T](outs[0])
		if err != nil {
			return err
		}
		sc := 1
		if len(cond) == 1 {
			sc = 0
		}
		for i := range out {
			if cond[i*sc] {
				out[i] = onTrue[i]
			} else {
				out[i] = onFalse[i]
			}
		}
		return nil
	}
}
