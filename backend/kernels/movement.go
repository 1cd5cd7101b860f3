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
	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/values"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// buildBroadcast expands an input to the axis lengths of the attributes.
// BroadcastDims maps each logical input axis to an output axis; an empty
// mapping broadcasts a single element everywhere.
func buildBroadcast(attrs *sdfg.Attributes, in *shape.Shape) Kernel {
	outDims := attrs.Dims
	bdims := attrs.BroadcastDims
	elem := dtype.Sizeof(in.DType)
	return func(ins, outs []*values.HostArray) error {
		src, dst := ins[0].Data(), outs[0].Data()
		inAxes := ins[0].Shape().AxisLengths
		strides := make([]int, len(bdims))
		stride := 1
		for i := len(bdims) - 1; i >= 0; i-- {
			strides[i] = stride
			stride *= inAxes[i]
		}
		coords := make([]int, len(outDims))
		total := prod(outDims)
		for o := 0; o < total; o++ {
			rem := o
			for i := len(outDims) - 1; i >= 0; i-- {
				coords[i] = rem % outDims[i]
				rem /= outDims[i]
			}
			idx := 0
			for i, dim := range bdims {
				c := coords[dim]
				if inAxes[i] == 1 {
					c = 0
				}
				idx += c * strides[i]
			}
			copy(dst[o*elem:(o+1)*elem], src[idx*elem:(idx+1)*elem])
		}
		return nil
	}
}

// buildConcat copies each input block after the previous one along the
// concatenation axis.
func buildConcat(axis int) Kernel {
	return func(ins, outs []*values.HostArray) error {
		out := outs[0]
		outAxes := out.Shape().AxisLengths
		elem := dtype.Sizeof(out.DType())
		inner := prod(outAxes[axis+1:]) * elem
		outer := prod(outAxes[:axis])
		outRow := outAxes[axis] * inner
		dst := out.Data()
		offset := 0
		for _, in := range ins {
			src := in.Data()
			block := in.Shape().AxisLengths[axis] * inner
			for o := 0; o < outer; o++ {
				copy(dst[o*outRow+offset:o*outRow+offset+block], src[o*block:(o+1)*block])
			}
			offset += block
		}
		return nil
	}
}

func buildConvert(target dtype.DataType) Kernel {
	return func(ins, outs []*values.HostArray) error {
		conv, err := values.Convert(ins[0], target)
		if err != nil {
			return err
		}
		copy(outs[0].Data(), conv.Data())
		return nil
	}
}

func buildIota(out *shape.Shape) (Kernel, error) {
	switch out.DType {
	case dtype.Float32:
		return iotaKernel[float32](), nil
	case dtype.Float64:
		return iotaKernel[float64](), nil
	case dtype.Int32:
		return iotaKernel[int32](), nil
	case dtype.Int64:
		return iotaKernel[int64](), nil
	case dtype.Uint32:
		return iotaKernel[uint32](), nil
	case dtype.Uint64:
		return iotaKernel[uint64](), nil
	}
	return nil, errors.Errorf("iota not supported for %s arrays", out.DType.String())
}

func iotaKernel[T numerics]() Kernel {
	return func(ins, outs []*values.HostArray) error {
		out, err := values.ToSlice[T](outs[0])
		if err != nil {
			return err
		}
		for i := range out {
			out[i] = T(i)
		}
		return nil
	}
}

// buildSlice copies the sub-array bounded by the starts and limits of the
// attributes, one pair per input axis.
func buildSlice(attrs *sdfg.Attributes) Kernel {
	starts, limits := attrs.Starts, attrs.Limits
	return func(ins, outs []*values.HostArray) error {
		in := ins[0]
		inAxes := in.Shape().AxisLengths
		elem := dtype.Sizeof(in.DType())
		outDims := make([]int, len(starts))
		for i := range starts {
			outDims[i] = limits[i] - starts[i]
		}
		strides := make([]int, len(inAxes))
		stride := 1
		for i := len(inAxes) - 1; i >= 0; i-- {
			strides[i] = stride
			stride *= inAxes[i]
		}
		src, dst := in.Data(), outs[0].Data()
		coords := make([]int, len(outDims))
		total := prod(outDims)
		for o := 0; o < total; o++ {
			rem := o
			for i := len(outDims) - 1; i >= 0; i-- {
				coords[i] = rem % outDims[i]
				rem /= outDims[i]
			}
			idx := 0
			for i, c := range coords {
				idx += (starts[i] + c) * strides[i]
			}
			copy(dst[o*elem:(o+1)*elem], src[idx*elem:(idx+1)*elem])
		}
		return nil
	}
}

// buildGather copies the rows of the input selected by an integer index
// vector along the first axis.
func buildGather(in *shape.Shape) (Kernel, error) {
	if len(in.AxisLengths) == 0 {
		return nil, errors.Errorf("cannot gather from an atomic value")
	}
	rowBytes := prod(in.AxisLengths[1:]) * dtype.Sizeof(in.DType)
	return func(ins, outs []*values.HostArray) error {
		idx, err := indexValues(ins[1])
		if err != nil {
			return err
		}
		src, dst := ins[0].Data(), outs[0].Data()
		rows := ins[0].Shape().AxisLengths[0]
		for i, row := range idx {
			if row < 0 || row >= int64(rows) {
				return errors.Errorf("gather index %d out of range for %d rows", row, rows)
			}
			copy(dst[i*rowBytes:(i+1)*rowBytes], src[int(row)*rowBytes:(int(row)+1)*rowBytes])
		}
		return nil
	}, nil
}

func indexValues(a *values.HostArray) ([]int64, error) {
	switch a.DType() {
	case dtype.Int64:
		return values.ToSlice[int64](a)
	case dtype.Int32:
		narrow, err := values.ToSlice[int32](a)
		if err != nil {
			return nil, err
		}
		idx := make([]int64, len(narrow))
		for i, v := range narrow {
			idx[i] = int64(v)
		}
		return idx, nil
	}
	return nil, errors.Errorf("gather indices have element type %s, not an integer type", a.DType().String())
}
