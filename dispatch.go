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

package jace

import (
	"github.com/GridTools/jace/values"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// call marshals the arguments into the artifact's calling convention,
// runs it, and rebuilds the result tree recorded at capture time.
func (c *Compiled) call(args []values.Value) ([]values.Value, error) {
	ins, err := c.marshalInputs(args)
	if err != nil {
		return nil, err
	}
	outs, err := c.artifact.Run(ins)
	if err != nil {
		return nil, err
	}
	return c.unmarshalOutputs(outs)
}

// marshalInputs flattens the arguments in signature order, validates
// every leaf against the compiled signature, and converts the array
// leaves to the artifact's convention: static leaves are skipped (their
// values are baked into the artifact), element types follow the
// precision-normalized signature, and atomic arrays are passed as arrays
// of one element.
func (c *Compiled) marshalInputs(args []values.Value) ([]*values.HostArray, error) {
	leaves, topo, err := values.Flatten(values.NewSlice(args...))
	if err != nil {
		return nil, err
	}
	if !topo.Equal(c.sig.Topology()) {
		return nil, errors.Errorf("call structure %s does not match the compiled signature structure %s", topo, c.sig.Topology())
	}
	descs := c.sig.Leaves()
	ins := make([]*values.HostArray, 0, c.artifact.NumInputs())
	for i, leaf := range leaves {
		desc := descs[i]
		if err := desc.Matches(leaf); err != nil {
			return nil, errors.Wrapf(err, "argument leaf %d", i)
		}
		if desc.Static {
			continue
		}
		conv, err := values.Convert(leaf.(*values.HostArray), desc.Shape.DType)
		if err != nil {
			return nil, err
		}
		ins = append(ins, asContainer(conv))
	}
	return ins, nil
}

// asContainer returns the array under its storage shape: atomic values
// become arrays of one element sharing the same data.
func asContainer(a *values.HostArray) *values.HostArray {
	sh := a.Shape()
	if len(sh.AxisLengths) > 0 {
		return a
	}
	stored, err := values.NewHostArray(&shape.Shape{
		DType:       sh.DType,
		AxisLengths: []int{1},
	}, a.Data())
	if err != nil {
		// Unreachable: a rank-zero array holds exactly one element.
		panic(err)
	}
	return stored
}

// unmarshalOutputs rebuilds the nested result from the flat output
// arrays. Outputs keep their storage shape: a result that was atomic
// during capture is returned as an array of one element.
func (c *Compiled) unmarshalOutputs(outs []*values.HostArray) ([]values.Value, error) {
	refs := c.trace.Outputs()
	if len(outs) != len(refs) {
		return nil, errors.Errorf("the artifact produced %d arrays but the trace records %d outputs", len(outs), len(refs))
	}
	leaves := make([]values.Value, len(outs))
	for i, out := range outs {
		leaves[i] = out
	}
	tree, err := values.Unflatten(c.trace.OutTopology(), leaves)
	if err != nil {
		return nil, err
	}
	return tree.(*values.Slice).Elements(), nil
}
