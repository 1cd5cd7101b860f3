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

package values

import (
	"fmt"
	"unsafe"

	"github.com/GridTools/jace/fmt/fmtarray"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// HostArray is a dense array stored on the host in row-major,
// contiguous layout. An array with no axis is an atomic (scalar) value.
type HostArray struct {
	sh   *shape.Shape
	data []byte
}

var _ Value = (*HostArray)(nil)

// NewHostArray returns an array given its shape and raw data.
// The data is used directly, not copied.
func NewHostArray(sh *shape.Shape, data []byte) (*HostArray, error) {
	if len(data) != sh.ByteSize() {
		return nil, errors.Errorf("buffer size is %d but shape %s requires %d bytes", len(data), sh.String(), sh.ByteSize())
	}
	return &HostArray{sh: sh, data: data}, nil
}

// FromSlice returns an array of the given axis lengths from a Go slice.
// The data is copied.
func FromSlice[T dtype.GoDataType](vals []T, axisLengths []int) (*HostArray, error) {
	sh := &shape.Shape{DType: dtype.Generic[T](), AxisLengths: axisLengths}
	if sh.Size() != len(vals) {
		return nil, errors.Errorf("got %d values but shape %s requires %d", len(vals), sh.String(), sh.Size())
	}
	data := make([]byte, sh.ByteSize())
	copy(data, sliceBytes(vals))
	return &HostArray{sh: sh, data: data}, nil
}

// Vector returns a one-dimensional array from a Go slice.
func Vector[T dtype.GoDataType](vals ...T) *HostArray {
	a, err := FromSlice(vals, []int{len(vals)})
	if err != nil {
		// Unreachable: the shape is derived from the slice.
		panic(err)
	}
	return a
}

// Scalar returns an atomic array, that is an array with no axis,
// holding a single value.
func Scalar[T dtype.GoDataType](val T) *HostArray {
	a, err := FromSlice([]T{val}, nil)
	if err != nil {
		panic(err)
	}
	return a
}

func (*HostArray) value() {}

// Shape of the array.
func (a *HostArray) Shape() *shape.Shape {
	return a.sh
}

// DType returns the element type of the array.
func (a *HostArray) DType() dtype.DataType {
	return a.sh.DType
}

// Data returns the raw data of the array, without copying.
func (a *HostArray) Data() []byte {
	return a.data
}

// String representation of the array.
func (a *HostArray) String() string {
	axes := a.sh.AxisLengths
	switch a.sh.DType {
	case dtype.Bool:
		return fmtarray.Sprint(dtype.ToSlice[bool](a.data), axes)
	case dtype.Float32:
		return fmtarray.Sprint(dtype.ToSlice[float32](a.data), axes)
	case dtype.Float64:
		return fmtarray.Sprint(dtype.ToSlice[float64](a.data), axes)
	case dtype.Int32:
		return fmtarray.Sprint(dtype.ToSlice[int32](a.data), axes)
	case dtype.Int64:
		return fmtarray.Sprint(dtype.ToSlice[int64](a.data), axes)
	case dtype.Uint32:
		return fmtarray.Sprint(dtype.ToSlice[uint32](a.data), axes)
	case dtype.Uint64:
		return fmtarray.Sprint(dtype.ToSlice[uint64](a.data), axes)
	}
	return fmt.Sprintf("%s<%d bytes>", a.sh.String(), len(a.data))
}

// ToSlice returns the values of the array as a Go slice.
// The slice aliases the array data.
func ToSlice[T dtype.GoDataType](a *HostArray) ([]T, error) {
	want := dtype.Generic[T]()
	if a.sh.DType != want {
		return nil, errors.Errorf("array has element type %s, not %s", a.sh.DType.String(), want.String())
	}
	return dtype.ToSlice[T](a.data), nil
}

func sliceBytes[T dtype.GoDataType](vals []T) []byte {
	if len(vals) == 0 {
		return nil
	}
	ptr := unsafe.Pointer(&vals[0])
	return unsafe.Slice((*byte)(ptr), len(vals)*dtype.Sizeof(dtype.Generic[T]()))
}
