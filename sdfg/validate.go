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
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Validate checks the structural invariants of the program:
// every node reads and writes defined containers, every edge connects
// defined nodes, every container other than an accumulator is written by
// at most one node, and the edges admit a topological order.
// All violations are reported together.
func (p *Program) Validate() error {
	var errs error
	writers := map[string][]NodeID{}
	for _, node := range p.nodes {
		for _, in := range node.Ins {
			if !p.containers.Has(in) {
				errs = multierr.Append(errs, errors.Errorf("node %d (%s) reads undefined container %s", node.ID, node.Kind, in))
			}
		}
		for _, out := range node.Outs {
			if !p.containers.Has(out) {
				errs = multierr.Append(errs, errors.Errorf("node %d (%s) writes undefined container %s", node.ID, node.Kind, out))
				continue
			}
			writers[out] = append(writers[out], node.ID)
		}
	}
	for _, c := range p.Containers() {
		if c.Kind == Constant && len(writers[c.Name]) > 0 {
			errs = multierr.Append(errs, errors.Errorf("constant container %s is written by node %d", c.Name, writers[c.Name][0]))
			continue
		}
		if !c.Accumulator && len(writers[c.Name]) > 1 {
			errs = multierr.Append(errs, errors.Errorf("container %s is written by %d nodes", c.Name, len(writers[c.Name])))
		}
	}
	for _, edge := range p.edges {
		if int(edge.Src) >= len(p.nodes) || int(edge.Dst) >= len(p.nodes) {
			errs = multierr.Append(errs, errors.Errorf("%s edge connects undefined nodes %d and %d", edge.Kind, edge.Src, edge.Dst))
			continue
		}
		if !p.containers.Has(edge.Container) {
			errs = multierr.Append(errs, errors.Errorf("%s edge from %d to %d carries undefined container %s", edge.Kind, edge.Src, edge.Dst, edge.Container))
		}
	}
	if _, err := p.TopologicalOrder(); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}

// TopologicalOrder returns the node identifiers sorted such that every
// edge goes from an earlier to a later node. Among unordered nodes, lower
// identifiers come first, so the order is deterministic.
func (p *Program) TopologicalOrder() ([]NodeID, error) {
	preds := make([]int, len(p.nodes))
	succs := make([][]NodeID, len(p.nodes))
	for _, edge := range p.edges {
		if int(edge.Src) >= len(p.nodes) || int(edge.Dst) >= len(p.nodes) {
			return nil, errors.Errorf("%s edge connects undefined nodes %d and %d", edge.Kind, edge.Src, edge.Dst)
		}
		preds[edge.Dst]++
		succs[edge.Src] = append(succs[edge.Src], edge.Dst)
	}
	// Kahn's algorithm over a sorted frontier.
	frontier := &idHeap{}
	for id := range p.nodes {
		if preds[id] == 0 {
			frontier.push(NodeID(id))
		}
	}
	order := make([]NodeID, 0, len(p.nodes))
	for frontier.len() > 0 {
		id := frontier.pop()
		order = append(order, id)
		for _, succ := range succs[id] {
			preds[succ]--
			if preds[succ] == 0 {
				frontier.push(succ)
			}
		}
	}
	if len(order) < len(p.nodes) {
		return nil, errors.Errorf("the program edges form a cycle over %d nodes", len(p.nodes)-len(order))
	}
	return order, nil
}

// idHeap is a minimum heap of node identifiers.
type idHeap struct {
	ids []NodeID
}

func (h *idHeap) len() int { return len(h.ids) }

func (h *idHeap) push(id NodeID) {
	h.ids = append(h.ids, id)
	i := len(h.ids) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if h.ids[parent] <= h.ids[i] {
			break
		}
		h.ids[parent], h.ids[i] = h.ids[i], h.ids[parent]
		i = parent
	}
}

func (h *idHeap) pop() NodeID {
	top := h.ids[0]
	last := len(h.ids) - 1
	h.ids[0] = h.ids[last]
	h.ids = h.ids[:last]
	i := 0
	for {
		left, right := 2*i+1, 2*i+2
		least := i
		if left < len(h.ids) && h.ids[left] < h.ids[least] {
			least = left
		}
		if right < len(h.ids) && h.ids[right] < h.ids[least] {
			least = right
		}
		if least == i {
			break
		}
		h.ids[i], h.ids[least] = h.ids[least], h.ids[i]
		i = least
	}
	return top
}
