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

package sdfg

import (
	"fmt"
	"strings"

	"github.com/gx-org/backend/dtype"
)

// String returns a pretty-printed form of the program. Two programs are
// structurally equal if and only if their strings are equal.
func (p *Program) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "program %s {\n", p.name)
	for _, c := range p.Containers() {
		fmt.Fprintf(&b, "  %s %s: %s", c.Kind, c.Name, c.Shape.String())
		if c.Accumulator {
			b.WriteString(" accumulator")
		}
		b.WriteString("\n")
	}
	for _, node := range p.nodes {
		fmt.Fprintf(&b, "  %%%d = %s(%s) -> (%s)", node.ID, node.Kind,
			strings.Join(node.Ins, ", "), strings.Join(node.Outs, ", "))
		if node.Attrs != nil {
			if attrs := node.Attrs.String(); attrs != "" {
				fmt.Fprintf(&b, " %s", attrs)
			}
		}
		b.WriteString("\n")
	}
	for _, edge := range p.edges {
		fmt.Fprintf(&b, "  %%%d -%s-> %%%d [%s]\n", edge.Src, edge.Kind, edge.Dst, edge.Container)
	}
	b.WriteString("}")
	return b.String()
}

// Equal returns true if both programs have the same containers, nodes,
// and edges.
func (p *Program) Equal(o *Program) bool {
	return p.String() == o.String()
}

// String representation of the attributes.
func (a *Attributes) String() string {
	parts := []string{}
	if a.Axis != 0 {
		parts = append(parts, fmt.Sprintf("axis=%d", a.Axis))
	}
	if len(a.Dims) > 0 {
		parts = append(parts, fmt.Sprintf("dims=%v", a.Dims))
	}
	if len(a.BroadcastDims) > 0 {
		parts = append(parts, fmt.Sprintf("bdims=%v", a.BroadcastDims))
	}
	if len(a.Starts) > 0 {
		parts = append(parts, fmt.Sprintf("starts=%v limits=%v", a.Starts, a.Limits))
	}
	if a.DType != dtype.Invalid {
		parts = append(parts, fmt.Sprintf("dtype=%s", a.DType.String()))
	}
	return strings.Join(parts, " ")
}
