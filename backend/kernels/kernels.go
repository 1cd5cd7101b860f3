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

// Package kernels implements the computation nodes of a program on host
// arrays. Kernels are built once per node at compilation time and invoked
// with per-call buffers.
package kernels

import (
	"github.com/GridTools/jace/sdfg"
	"github.com/GridTools/jace/values"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// Kernel executes one computation node. The buffers are resolved by the
// caller: one array per container read, one per container written.
type Kernel func(ins, outs []*values.HostArray) error

// Build returns the kernel implementing a node given the shapes of the
// containers it reads and writes.
func Build(node *sdfg.Node, ins, outs []*shape.Shape) (Kernel, error) {
	switch node.Kind {
	case "copy", "reshape", "squeeze":
		return copyKernel, nil
	case "neg", "abs", "exp", "log", "sqrt", "sin", "cos", "tanh", "not":
		return buildUnary(node.Kind, ins[0])
	case "add", "sub", "mul", "div", "rem", "pow", "max", "min", "and", "or":
		return buildBinary(node.Kind, ins[0])
	case "eq", "ne", "lt", "le", "gt", "ge":
		return buildCompare(node.Kind, ins[0])
	case "select_n":
		return buildSelect(outs[0])
	case "reduce_sum_init", "reduce_prod_init", "reduce_max_init", "reduce_min_init":
		return buildReduceInit(node.Kind, outs[0])
	case "reduce_sum_update", "reduce_prod_update", "reduce_max_update", "reduce_min_update":
		return buildReduceUpdate(node.Kind, node.Attrs, ins[0])
	case "broadcast_in_dim":
		return buildBroadcast(node.Attrs, ins[0]), nil
	case "concatenate":
		return buildConcat(node.Attrs.Axis), nil
	case "convert_element_type":
		return buildConvert(node.Attrs.DType), nil
	case "iota":
		return buildIota(outs[0])
	case "slice":
		return buildSlice(node.Attrs), nil
	case "gather":
		return buildGather(ins[0])
	}
	return nil, errors.Errorf("no kernel for operation %s", node.Kind)
}

func copyKernel(ins, outs []*values.HostArray) error {
	src, dst := ins[0].Data(), outs[0].Data()
	if len(src) != len(dst) {
		return errors.Errorf("copying %d bytes into a buffer of %d bytes", len(src), len(dst))
	}
	copy(dst, src)
	return nil
}

func prod(axes []int) int {
	p := 1
	for _, n := range axes {
		p *= n
	}
	return p
}
