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

// Package fmtarray formats dense row-major arrays into strings.
package fmtarray

import (
	"fmt"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
)

const tab = "\t"

type printer[T dtype.GoDataType] struct {
	w       strings.Builder
	data    []T
	axes    []int
	strides []int
}

func newPrinter[T dtype.GoDataType](data []T, axes []int) (*printer[T], error) {
	p := &printer[T]{data: data, axes: axes, strides: strides(axes)}
	total := 1
	for _, n := range axes {
		total *= n
	}
	if total != len(data) {
		return nil, errors.Errorf("got %d values but axes %v require %d", len(data), axes, total)
	}
	return p, nil
}

func strides(axes []int) []int {
	out := make([]int, len(axes))
	stride := 1
	for i := len(axes) - 1; i >= 0; i-- {
		out[i] = stride
		stride *= axes[i]
	}
	return out
}

func (p *printer[T]) index(coords []int) int {
	idx := 0
	for i, c := range coords {
		idx += c * p.strides[i]
	}
	return idx
}

// value formats one element, trimming non-significant digits of floats.
func (p *printer[T]) value(v T) string {
	var format string
	switch any(v).(type) {
	case float32:
		format = "%.6f"
	case float64:
		format = "%.10f"
	default:
		return fmt.Sprint(v)
	}
	s := fmt.Sprintf(format, v)
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func (p *printer[T]) printVector(coords []int) {
	n := p.axes[len(p.axes)-1]
	full := make([]int, len(p.axes))
	copy(full, coords)
	elts := make([]string, n)
	for i := 0; i < n; i++ {
		full[len(full)-1] = i
		elts[i] = p.value(p.data[p.index(full)])
	}
	fmt.Fprintf(&p.w, "{%s}", strings.Join(elts, ", "))
}

func (p *printer[T]) printRec(indent string, coords []int) {
	if len(p.axes)-len(coords) == 1 {
		p.w.WriteString(indent)
		p.printVector(coords)
		return
	}
	p.w.WriteString(indent + "{\n")
	sub := append(append([]int{}, coords...), 0)
	for i := 0; i < p.axes[len(coords)]; i++ {
		sub[len(sub)-1] = i
		p.printRec(indent+tab, sub)
		p.w.WriteString(",\n")
	}
	p.w.WriteString(indent + "}")
}

func (p *printer[T]) printValues() {
	switch len(p.axes) {
	case 0:
		fmt.Fprintf(&p.w, "(%s)", p.value(p.data[0]))
	case 1:
		p.printVector(nil)
	default:
		p.printRec("", nil)
	}
}

func (p *printer[T]) printType() {
	for _, n := range p.axes {
		fmt.Fprintf(&p.w, "[%d]", n)
	}
	p.w.WriteString(dtype.Generic[T]().String())
}

// SprintValues returns the content of an array without its type.
func SprintValues[T dtype.GoDataType](data []T, axes []int) string {
	p, err := newPrinter(data, axes)
	if err != nil {
		return err.Error()
	}
	p.printValues()
	return p.w.String()
}

// Sprint returns a string representation of an array, type included.
func Sprint[T dtype.GoDataType](data []T, axes []int) string {
	p, err := newPrinter(data, axes)
	if err != nil {
		return err.Error()
	}
	p.printType()
	p.printValues()
	return p.w.String()
}
