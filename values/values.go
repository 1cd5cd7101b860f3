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

// Package values defines the host values passed to and returned by
// JIT-compiled functions: numerical arrays, static values, and nested
// structures of those.
package values

import (
	"fmt"
	"strings"

	"github.com/GridTools/jace/base/ordered"
	"github.com/pkg/errors"
)

// Value is a host value. The set of implementations is closed:
// *HostArray, Static, *Slice, and *Struct.
type Value interface {
	value()

	// String representation of the value.
	String() string
}

// Static is a value that participates in a call by value, not by structure.
// Static values may steer control flow inside a traced function and are
// therefore part of the compilation cache key.
type Static struct {
	v any
}

var _ Value = Static{}

// StaticInt returns a static integer value.
func StaticInt(v int64) Static { return Static{v: v} }

// StaticFloat returns a static floating point value.
func StaticFloat(v float64) Static { return Static{v: v} }

// StaticBool returns a static boolean value.
func StaticBool(v bool) Static { return Static{v: v} }

// StaticString returns a static string value.
func StaticString(v string) Static { return Static{v: v} }

func (Static) value() {}

// Int returns the integer carried by the value.
func (s Static) Int() (int64, bool) {
	v, ok := s.v.(int64)
	return v, ok
}

// Float returns the float carried by the value.
func (s Static) Float() (float64, bool) {
	v, ok := s.v.(float64)
	return v, ok
}

// Bool returns the boolean carried by the value.
func (s Static) Bool() (bool, bool) {
	v, ok := s.v.(bool)
	return v, ok
}

// Key returns a canonical representation of the value,
// suitable for use in a cache key.
func (s Static) Key() string {
	switch v := s.v.(type) {
	case int64:
		return fmt.Sprintf("i:%d", v)
	case float64:
		return fmt.Sprintf("f:%x", v)
	case bool:
		return fmt.Sprintf("b:%t", v)
	case string:
		return fmt.Sprintf("s:%q", v)
	}
	return fmt.Sprintf("?:%v", s.v)
}

// String representation of the value.
func (s Static) String() string {
	return fmt.Sprintf("static(%v)", s.v)
}

// Slice is an ordered sequence of values.
type Slice struct {
	elts []Value
}

var _ Value = (*Slice)(nil)

// NewSlice returns a slice of values.
func NewSlice(elts ...Value) *Slice {
	return &Slice{elts: elts}
}

func (*Slice) value() {}

// Len returns the number of elements in the slice.
func (s *Slice) Len() int {
	return len(s.elts)
}

// Element returns the i-th element of the slice.
func (s *Slice) Element(i int) Value {
	return s.elts[i]
}

// Elements returns all the elements of the slice.
func (s *Slice) Elements() []Value {
	return s.elts
}

// String representation of the slice.
func (s *Slice) String() string {
	elts := make([]string, len(s.elts))
	for i, elt := range s.elts {
		elts[i] = elt.String()
	}
	return "[" + strings.Join(elts, ", ") + "]"
}

// Struct is a set of named values.
type Struct struct {
	fields *ordered.Map[string, Value]
}

var _ Value = (*Struct)(nil)

// NewStruct returns an empty structure value.
func NewStruct() *Struct {
	return &Struct{fields: ordered.NewMap[string, Value]()}
}

func (*Struct) value() {}

// Set the value of a field, adding the field if necessary.
func (s *Struct) Set(name string, v Value) *Struct {
	s.fields.Store(name, v)
	return s
}

// Field returns the value of a field.
func (s *Struct) Field(name string) (Value, error) {
	v, ok := s.fields.Load(name)
	if !ok {
		return nil, errors.Errorf("structure has no field %q", name)
	}
	return v, nil
}

// NumFields returns the number of fields in the structure.
func (s *Struct) NumFields() int {
	return s.fields.Size()
}

// FieldNames returns the names of the fields in insertion order.
func (s *Struct) FieldNames() []string {
	names := make([]string, 0, s.fields.Size())
	for name := range s.fields.Keys() {
		names = append(names, name)
	}
	return names
}

// String representation of the structure.
func (s *Struct) String() string {
	var b strings.Builder
	b.WriteString("{")
	first := true
	for name, v := range s.fields.Iter() {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s: %s", name, v.String())
	}
	b.WriteString("}")
	return b.String()
}
