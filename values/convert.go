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
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// Convert returns an array with the same shape and the values of a
// converted to the target element type. The source array is returned
// unchanged if it already has the target type.
func Convert(a *HostArray, target dtype.DataType) (*HostArray, error) {
	if a.sh.DType == target {
		return a, nil
	}
	switch a.sh.DType {
	case dtype.Float32:
		return convertFrom[float32](a, target)
	case dtype.Float64:
		return convertFrom[float64](a, target)
	case dtype.Int32:
		return convertFrom[int32](a, target)
	case dtype.Int64:
		return convertFrom[int64](a, target)
	case dtype.Uint32:
		return convertFrom[uint32](a, target)
	case dtype.Uint64:
		return convertFrom[uint64](a, target)
	}
	return nil, errors.Errorf("cannot convert an array of %s to %s", a.sh.DType.String(), target.String())
}

type numeric interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint32 | ~uint64
}

func convertFrom[F numeric](a *HostArray, target dtype.DataType) (*HostArray, error) {
	src := dtype.ToSlice[F](a.data)
	switch target {
	case dtype.Float32:
		return converted[F, float32](a.sh, src)
	case dtype.Float64:
		return converted[F, float64](a.sh, src)
	case dtype.Int32:
		return converted[F, int32](a.sh, src)
	case dtype.Int64:
		return converted[F, int64](a.sh, src)
	case dtype.Uint32:
		return converted[F, uint32](a.sh, src)
	case dtype.Uint64:
		return converted[F, uint64](a.sh, src)
	}
	return nil, errors.Errorf("cannot convert an array of %s to %s", a.sh.DType.String(), target.String())
}

func converted[F numeric, T interface {
	numeric
	dtype.GoDataType
}](sh *shape.Shape, src []F) (*HostArray, error) {
	dst := make([]T, len(src))
	for i, v := range src {
		dst[i] = T(v)
	}
	return FromSlice(dst, sh.AxisLengths)
}
