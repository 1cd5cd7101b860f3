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

// Package signature derives a structural descriptor from the arguments of a
// call: shapes, element types, static values, and nesting, but never
// numerical content. Equal signatures guarantee identical compilation, so
// the descriptor is the key of the compilation cache.
package signature

import (
	"fmt"
	"strings"

	"github.com/GridTools/jace/values"
	"github.com/cespare/xxhash/v2"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

// Error reports an argument whose type cannot be traced.
type Error struct {
	err error
}

// Errorf returns a new signature error.
func Errorf(format string, a ...any) *Error {
	return &Error{err: errors.Errorf(format, a...)}
}

// Error returns a string description of the error.
func (e *Error) Error() string {
	return "signature: " + e.err.Error()
}

// Unwrap the error.
func (e *Error) Unwrap() error {
	return e.err
}

// Precision is the policy applied to element types before they enter the
// signature and the compiled artifact's calling convention.
type Precision int

const (
	// PromoteWide forces 64-bit element types, so that the precision of
	// the caller's arrays never becomes a recompilation dimension.
	PromoteWide Precision = iota
	// KeepPrecision keeps element types as given by the caller, making
	// precision part of the cache key.
	KeepPrecision
)

// Apply the policy to an element type.
func (p Precision) Apply(dt dtype.DataType) dtype.DataType {
	if p == KeepPrecision {
		return dt
	}
	switch dt {
	case dtype.Float32:
		return dtype.Float64
	case dtype.Int32:
		return dtype.Int64
	case dtype.Uint32:
		return dtype.Uint64
	}
	return dt
}

// Leaf describes one leaf argument.
type Leaf struct {
	// Shape of the argument after precision normalisation.
	// Nil for static leaves.
	Shape *shape.Shape
	// Static is true if the leaf participates in the signature by value.
	Static bool
	// StaticKey is the canonical representation of a static leaf's value.
	StaticKey string
}

// Signature is the abstract, immutable descriptor of a call.
type Signature struct {
	topo      *values.Topology
	leaves    []Leaf
	canonical string
	fp        uint64
}

// Options configure signature extraction.
type Options struct {
	// StaticArgs lists the top-level argument positions whose values,
	// rather than structures, are part of the signature.
	StaticArgs []int
	// Precision policy applied to all array leaves.
	Precision Precision
}

// Extract computes the signature of a list of call arguments.
// The extraction is linear in the number of leaf values and never reads
// the numerical content of non-static arrays.
func Extract(args []values.Value, opts Options) (*Signature, error) {
	staticPos := make(map[int]bool, len(opts.StaticArgs))
	for _, pos := range opts.StaticArgs {
		if pos < 0 || pos >= len(args) {
			return nil, Errorf("static argument position %d out of range for a %d-argument call", pos, len(args))
		}
		staticPos[pos] = true
	}
	leaves, topo, err := values.Flatten(values.NewSlice(args...))
	if err != nil {
		return nil, Errorf("%v", err)
	}
	sig := &Signature{topo: topo}
	next := 0
	for i, argTopo := range topo.Elements() {
		n := argTopo.NumLeaves()
		for _, leaf := range leaves[next : next+n] {
			desc, err := describeLeaf(leaf, staticPos[i], opts.Precision)
			if err != nil {
				return nil, err
			}
			sig.leaves = append(sig.leaves, desc)
		}
		next += n
	}
	sig.canonical = canonicalString(sig.topo, sig.leaves)
	sig.fp = xxhash.Sum64String(sig.canonical)
	return sig, nil
}

func describeLeaf(leaf values.Value, forceStatic bool, prec Precision) (Leaf, error) {
	switch leafT := leaf.(type) {
	case values.Static:
		key := leafT.Key()
		if strings.HasPrefix(key, "?") {
			return Leaf{}, Errorf("static value %s not supported", leafT.String())
		}
		return Leaf{Static: true, StaticKey: key}, nil
	case *values.HostArray:
		if forceStatic {
			return Leaf{
				Static:    true,
				StaticKey: fmt.Sprintf("a:%s:%x", leafT.Shape().String(), xxhash.Sum64(leafT.Data())),
			}, nil
		}
		sh := leafT.Shape()
		return Leaf{Shape: &shape.Shape{
			DType:       prec.Apply(sh.DType),
			AxisLengths: sh.AxisLengths,
		}}, nil
	}
	return Leaf{}, Errorf("argument leaf of type %T not supported for tracing", leaf)
}

// Matches checks that a call leaf is compatible with the descriptor:
// a static leaf must carry an equal value, an array leaf must have the
// descriptor's axis lengths. Element types are not compared, arrays are
// converted to the compiled convention at call time.
func (l Leaf) Matches(leaf values.Value) error {
	if l.Static {
		desc, err := describeLeaf(leaf, true, KeepPrecision)
		if err != nil {
			return err
		}
		if desc.StaticKey != l.StaticKey {
			return Errorf("static value %s does not match the compiled value %s", desc.StaticKey, l.StaticKey)
		}
		return nil
	}
	arr, ok := leaf.(*values.HostArray)
	if !ok {
		return Errorf("got a value of type %T where the compiled signature expects an array", leaf)
	}
	if !slices.Equal(arr.Shape().AxisLengths, l.Shape.AxisLengths) {
		return Errorf("got shape %s where the compiled signature expects %s", arr.Shape().String(), l.Shape.String())
	}
	return nil
}

// Topology returns the nesting structure of the call arguments.
func (sig *Signature) Topology() *values.Topology {
	return sig.topo
}

// Leaves returns the per-leaf descriptors in flatten order.
func (sig *Signature) Leaves() []Leaf {
	return sig.leaves
}

// Key returns the canonical description of the signature. Two calls have
// equal keys if and only if they are structurally compatible.
func (sig *Signature) Key() string {
	return sig.canonical
}

// Fingerprint returns a 64-bit digest of the key, used to label compiled
// artifacts and log records.
func (sig *Signature) Fingerprint() uint64 {
	return sig.fp
}

// Equal returns true if both signatures describe structurally
// compatible calls.
func (sig *Signature) Equal(o *Signature) bool {
	return sig.canonical == o.canonical
}

// String representation of the signature.
func (sig *Signature) String() string {
	return sig.canonical
}

func canonicalString(topo *values.Topology, leaves []Leaf) string {
	var b strings.Builder
	b.WriteString(topo.String())
	b.WriteString("|")
	for i, leaf := range leaves {
		if i > 0 {
			b.WriteString(";")
		}
		if leaf.Static {
			b.WriteString(leaf.StaticKey)
			continue
		}
		b.WriteString(leaf.Shape.String())
	}
	return b.String()
}
