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

// Package sdfg defines a data-centric intermediate representation.
// A program is a set of named data containers, computation nodes reading
// and writing those containers, and explicit edges ordering the nodes.
package sdfg

import (
	"github.com/GridTools/jace/base/ordered"
	"github.com/GridTools/jace/values"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// ContainerKind classifies a data container of a program.
type ContainerKind int

// Kinds of containers.
const (
	// Input containers are bound to caller arguments.
	Input ContainerKind = iota
	// Output containers are read back by the caller.
	Output
	// Transient containers hold intermediate results owned by the
	// program.
	Transient
	// Constant containers carry values baked in at lowering time.
	Constant
)

var containerKindNames = [...]string{"input", "output", "transient", "const"}

// String returns the name of the kind.
func (k ContainerKind) String() string {
	if int(k) >= len(containerKindNames) {
		return "container(?)"
	}
	return containerKindNames[k]
}

// Container is a named data descriptor. Containers always have a rank of
// at least one: atomic values are stored as arrays of one element.
type Container struct {
	// Name of the container, unique within its program.
	Name string
	// Shape of the data.
	Shape *shape.Shape
	// Kind of the container.
	Kind ContainerKind
	// Accumulator marks a container that is written more than once by
	// update nodes of a single commutative reduction. All other
	// containers are written at most once.
	Accumulator bool
	// Init carries the data of a Constant container.
	Init *values.HostArray
}

// NodeID identifies a computation node within a program.
type NodeID int

// AllAxes marks a reduction over every axis of its input.
const AllAxes = -1

// Attributes carries the static parameters of a computation node.
type Attributes struct {
	// Axis of a reduction step, concatenation, squeeze, or gather.
	Axis int
	// Dims are the target axis lengths of a reshape, broadcast, or iota.
	Dims []int
	// BroadcastDims maps input axes to output axes of a broadcast.
	BroadcastDims []int
	// Starts and Limits bound a slice, one entry per axis.
	Starts, Limits []int
	// DType is the target element type of a conversion.
	DType dtype.DataType
}

// Node is one computation of a program. It reads the containers listed in
// Ins and writes the containers listed in Outs.
type Node struct {
	ID    NodeID
	Kind  string
	Ins   []string
	Outs  []string
	Attrs *Attributes
}

// EdgeKind classifies the dependency carried by an edge.
type EdgeKind int

// Kinds of edges.
const (
	// DataEdge orders a producer before a consumer of a container.
	DataEdge EdgeKind = iota
	// ReadWriteEdge orders a reader before a later writer of the same
	// container.
	ReadWriteEdge
	// WriteWriteEdge orders two writers of the same container.
	WriteWriteEdge
)

var edgeKindNames = [...]string{"data", "war", "waw"}

// String returns the name of the kind.
func (k EdgeKind) String() string {
	if int(k) >= len(edgeKindNames) {
		return "edge(?)"
	}
	return edgeKindNames[k]
}

// Edge is an explicit ordering constraint between two nodes, carried by a
// container.
type Edge struct {
	Kind      EdgeKind
	Src, Dst  NodeID
	Container string
}

// Program is a complete data-centric program. Programs are built by a
// lowering step and are immutable once validated.
type Program struct {
	name       string
	containers *ordered.Map[string, *Container]
	nodes      []*Node
	edges      []*Edge

	inputs  []string
	outputs []string
}

// NewProgram returns an empty program.
func NewProgram(name string) *Program {
	return &Program{
		name:       name,
		containers: ordered.NewMap[string, *Container](),
	}
}

// Name of the program.
func (p *Program) Name() string { return p.name }

// AddContainer registers a data container.
func (p *Program) AddContainer(c *Container) error {
	if p.containers.Has(c.Name) {
		return errors.Errorf("container %s already defined", c.Name)
	}
	if len(c.Shape.AxisLengths) == 0 {
		return errors.Errorf("container %s has rank zero", c.Name)
	}
	p.containers.Store(c.Name, c)
	switch c.Kind {
	case Input:
		p.inputs = append(p.inputs, c.Name)
	case Output:
		p.outputs = append(p.outputs, c.Name)
	}
	return nil
}

// Container returns a container by name.
func (p *Program) Container(name string) (*Container, bool) {
	return p.containers.Load(name)
}

// Containers returns all containers in definition order.
func (p *Program) Containers() []*Container {
	out := make([]*Container, 0, p.containers.Size())
	for c := range p.containers.Values() {
		out = append(out, c)
	}
	return out
}

// Inputs returns the names of the input containers in definition order.
// The order is the program's calling convention.
func (p *Program) Inputs() []string { return p.inputs }

// Outputs returns the names of the output containers in definition order.
func (p *Program) Outputs() []string { return p.outputs }

// AddNode appends a computation node and returns its identifier.
func (p *Program) AddNode(kind string, attrs *Attributes, ins, outs []string) NodeID {
	id := NodeID(len(p.nodes))
	p.nodes = append(p.nodes, &Node{ID: id, Kind: kind, Ins: ins, Outs: outs, Attrs: attrs})
	return id
}

// Node returns a node by identifier.
func (p *Program) Node(id NodeID) *Node { return p.nodes[id] }

// Nodes returns all nodes in definition order.
func (p *Program) Nodes() []*Node { return p.nodes }

// AddEdge appends an explicit ordering constraint between two nodes.
func (p *Program) AddEdge(kind EdgeKind, src, dst NodeID, container string) {
	p.edges = append(p.edges, &Edge{Kind: kind, Src: src, Dst: dst, Container: container})
}

// Edges returns all edges in definition order.
func (p *Program) Edges() []*Edge { return p.edges }
