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
	"strings"

	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/values"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// reduceOp extracts the fold name from a node kind such as
// "reduce_sum_init" or "reduce_max_update".
func reduceOp(kind string) string {
	op := strings.TrimPrefix(kind, "reduce_")
	op = strings.TrimSuffix(op, "_init")
	return strings.TrimSuffix(op, "_update")
}

func fillKernel[T dtype.GoDataType](v T) Kernel {
	return func(ins, outs []*values.HostArray) error {
		out, err := values.ToSlice[T](outs[0])
		if err != nil {
			return err
		}
		for i := range out {
			out[i] = v
		}
		return nil
	}
}

// buildReduceInit fills the accumulation container with the neutral
// element of the fold.
func buildReduceInit(kind string, out *shape.Shape) (Kernel, error) {
	op := reduceOp(kind)
	switch out.DType {
	case dtype.Float32:
		return floatInit[float32](op)
	case dtype.Float64:
		return floatInit[float64](op)
	case dtype.Int32:
		v, err := signedNeutral[int32](op, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		return fillKernel(v), nil
	case dtype.Int64:
		v, err := signedNeutral[int64](op, math.MinInt64, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		return fillKernel(v), nil
	case dtype.Uint32:
		return uintInit[uint32](op)
	case dtype.Uint64:
		return uintInit[uint64](op)
	}
	return nil, errors.Errorf("reduction %s not supported for %s arrays", op, out.DType.String())
}

func floatInit[T floats](op string) (Kernel, error) {
	switch op {
	case "sum":
		return fillKernel(T(0)), nil
	case "prod":
		return fillKernel(T(1)), nil
	case "max":
		return fillKernel(T(math.Inf(-1))), nil
	case "min":
		return fillKernel(T(math.Inf(1))), nil
	}
	return nil, errors.Errorf("unknown reduction %s", op)
}

func signedNeutral[T sints](op string, least, greatest T) (T, error) {
	switch op {
	case "sum":
		return 0, nil
	case "prod":
		return 1, nil
	case "max":
		return least, nil
	case "min":
		return greatest, nil
	}
	return 0, errors.Errorf("unknown reduction %s", op)
}

func uintInit[T uints](op string) (Kernel, error) {
	switch op {
	case "sum":
		return fillKernel(T(0)), nil
	case "prod":
		return fillKernel(T(1)), nil
	case "max":
		return fillKernel(T(0)), nil
	case "min":
		return fillKernel(^T(0)), nil
	}
	return nil, errors.Errorf("unknown reduction %s", op)
}

// buildReduceUpdate folds the input into the accumulation container,
// either over one axis or over the whole array.
func buildReduceUpdate(kind string, attrs *sdfg.Attributes, in *shape.Shape) (Kernel, error) {
	if attrs == nil {
		return nil, errors.Errorf("operation %s is missing its axis", kind)
	}
	op := reduceOp(kind)
	switch in.DType {
	case dtype.Float32:
		return updateKernel[float32](op, attrs.Axis, in.AxisLengths)
	case dtype.Float64:
		return updateKernel[float64](op, attrs.Axis, in.AxisLengths)
	case dtype.Int32:
		return updateKernel[int32](op, attrs.Axis, in.AxisLengths)
	case dtype.Int64:
		return updateKernel[int64](op, attrs.Axis, in.AxisLengths)
	case dtype.Uint32:
		return updateKernel[uint32](op, attrs.Axis, in.AxisLengths)
	case dtype.Uint64:
		return updateKernel[uint64](op, attrs.Axis, in.AxisLengths)
	}
	return nil, errors.Errorf("reduction %s not supported for %s arrays", op, in.DType.String())
}

func updateKernel[T numerics](op string, axis int, inAxes []int) (Kernel, error) {
	fold, err := foldFn[T](op)
	if err != nil {
		return nil, err
	}
	outer, length, inner := 1, prod(inAxes), 1
	if axis != sdfg.AllAxes {
		if axis < 0 || axis >= len(inAxes) {
			return nil, errors.Errorf("reduction axis %d out of range for %d axes", axis, len(inAxes))
		}
		outer = prod(inAxes[:axis])
		length = inAxes[axis]
		inner = prod(inAxes[axis+1:])
	}
	return func(ins, outs []*values.HostArray) error {
		x, err := values.ToSlice[T](ins[0])
		if err != nil {
			return err
		}
		acc, err := values.ToSlice[T](outs[0])
		if err != nil {
			return err
		}
		for o := 0; o < outer; o++ {
			for k := 0; k < length; k++ {
				row := (o*length + k) * inner
				for j := 0; j < inner; j++ {
					acc[o*inner+j] = fold(acc[o*inner+j], x[row+j])
				}
			}
		}
		return nil
	}, nil
}

func foldFn[T numerics](op string) (func(a, b T) T, error) {
	switch op {
	case "sum":
		return func(a, b T) T { return a + b }, nil
	case "prod":
		return func(a, b T) T { return a * b }, nil
	case "max":
		return greater[T], nil
	case "min":
		return lesser[T], nil
	}
	return nil, errors.Errorf("unknown reduction %s", op)
}
