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
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// TopologyKind discriminates the nodes of a Topology.
type TopologyKind int

// Kinds of topology nodes.
const (
	// LeafTopology is a single leaf value (array or static).
	LeafTopology TopologyKind = iota
	// SliceTopology is an ordered sequence of sub-topologies.
	SliceTopology
	// StructTopology is a set of named sub-topologies.
	StructTopology
)

// Topology describes the nested structure of a value, independently of the
// leaf values it contains. Structure fields are recorded in sorted name
// order so that two structures with the same field set always share the
// same topology.
type Topology struct {
	kind   TopologyKind
	fields []string
	elts   []*Topology
}

var leafTopology = &Topology{kind: LeafTopology}

// Kind of the topology node.
func (t *Topology) Kind() TopologyKind {
	return t.kind
}

// Elements returns the sub-topologies of a slice or structure node.
func (t *Topology) Elements() []*Topology {
	return t.elts
}

// NumLeaves returns the number of leaves in the topology.
func (t *Topology) NumLeaves() int {
	if t.kind == LeafTopology {
		return 1
	}
	n := 0
	for _, elt := range t.elts {
		n += elt.NumLeaves()
	}
	return n
}

// String returns a canonical fingerprint of the topology.
func (t *Topology) String() string {
	switch t.kind {
	case LeafTopology:
		return "*"
	case SliceTopology:
		elts := make([]string, len(t.elts))
		for i, elt := range t.elts {
			elts[i] = elt.String()
		}
		return "[" + strings.Join(elts, ",") + "]"
	case StructTopology:
		elts := make([]string, len(t.elts))
		for i, elt := range t.elts {
			elts[i] = t.fields[i] + ":" + elt.String()
		}
		return "{" + strings.Join(elts, ",") + "}"
	}
	return "?"
}

// Equal returns true if both topologies have the same structure.
func (t *Topology) Equal(o *Topology) bool {
	return t.String() == o.String()
}

// Flatten returns the leaves of a value in a deterministic order together
// with the topology required to rebuild the nested structure.
func Flatten(v Value) ([]Value, *Topology, error) {
	switch vT := v.(type) {
	case *HostArray, Static:
		return []Value{v}, leafTopology, nil
	case *Slice:
		leaves := []Value{}
		topo := &Topology{kind: SliceTopology}
		for _, elt := range vT.Elements() {
			sub, subTopo, err := Flatten(elt)
			if err != nil {
				return nil, nil, err
			}
			leaves = append(leaves, sub...)
			topo.elts = append(topo.elts, subTopo)
		}
		return leaves, topo, nil
	case *Struct:
		names := vT.FieldNames()
		slices.Sort(names)
		leaves := []Value{}
		topo := &Topology{kind: StructTopology, fields: names}
		for _, name := range names {
			field, err := vT.Field(name)
			if err != nil {
				return nil, nil, err
			}
			sub, subTopo, err := Flatten(field)
			if err != nil {
				return nil, nil, err
			}
			leaves = append(leaves, sub...)
			topo.elts = append(topo.elts, subTopo)
		}
		return leaves, topo, nil
	case nil:
		return nil, nil, errors.Errorf("cannot flatten a nil value")
	}
	return nil, nil, errors.Errorf("value of type %T not supported", v)
}

// Unflatten rebuilds a nested value from a topology and a flat sequence of
// leaves. The number of leaves must match the topology exactly.
func Unflatten(topo *Topology, leaves []Value) (Value, error) {
	v, rest, err := unflatten(topo, leaves)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, errors.Errorf("%d leaves left over after rebuilding the value structure", len(rest))
	}
	return v, nil
}

func unflatten(topo *Topology, leaves []Value) (Value, []Value, error) {
	switch topo.kind {
	case LeafTopology:
		if len(leaves) == 0 {
			return nil, nil, errors.Errorf("not enough leaves to rebuild the value structure")
		}
		return leaves[0], leaves[1:], nil
	case SliceTopology:
		elts := make([]Value, len(topo.elts))
		var err error
		for i, subTopo := range topo.elts {
			elts[i], leaves, err = unflatten(subTopo, leaves)
			if err != nil {
				return nil, nil, err
			}
		}
		return NewSlice(elts...), leaves, nil
	case StructTopology:
		strct := NewStruct()
		for i, subTopo := range topo.elts {
			var elt Value
			var err error
			elt, leaves, err = unflatten(subTopo, leaves)
			if err != nil {
				return nil, nil, err
			}
			strct.Set(topo.fields[i], elt)
		}
		return strct, leaves, nil
	}
	return nil, nil, errors.Errorf("topology kind %d not supported", topo.kind)
}
