// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import "fmt"

// Value is the tagged sum of decoded field values described in spec.md
// §3: unsigned/signed/float scalars, strings, arrays, structures, and
// enumerations.
type Value interface {
	fmt.Stringer
	value()
}

// UInt64 is a decoded unsigned integer.
type UInt64 uint64

func (v UInt64) value()         {}
func (v UInt64) String() string { return fmt.Sprintf("%d", uint64(v)) }

// SInt64 is a decoded signed integer.
type SInt64 int64

func (v SInt64) value()         {}
func (v SInt64) String() string { return fmt.Sprintf("%d", int64(v)) }

// Float64 is a decoded real (both F32 and F64 fields widen to this).
type Float64 float64

func (v Float64) value()         {}
func (v Float64) String() string { return fmt.Sprintf("%g", float64(v)) }

// Str is a decoded null-terminated string.
type Str string

func (v Str) value()         {}
func (v Str) String() string { return string(v) }

// Array is a decoded array, static or dynamic.
type Array []Value

func (v Array) value() {}
func (v Array) String() string {
	return fmt.Sprintf("%v", []Value(v))
}

// Enum is a decoded enumeration: the raw promoted value and every label
// whose range covers it (zero, one, or several).
type Enum struct {
	Raw    int64
	Labels []string
}

func (v Enum) value() {}
func (v Enum) String() string {
	if len(v.Labels) == 0 {
		return fmt.Sprintf("%d", v.Raw)
	}
	return fmt.Sprintf("%d(%v)", v.Raw, v.Labels)
}

// field is one name/value pair in a Struct, in declared order.
type field struct {
	name  string
	value Value
}

// Struct is a decoded structure: an ordered mapping from member name to
// decoded value, preserving the schema's declared order.
type Struct struct {
	fields []field
	index  map[string]int
}

func newStruct(n int) *Struct {
	return &Struct{fields: make([]field, 0, n), index: make(map[string]int, n)}
}

func (s *Struct) set(name string, v Value) {
	s.index[name] = len(s.fields)
	s.fields = append(s.fields, field{name, v})
}

func (Struct) value() {}

func (s *Struct) String() string {
	out := "{"
	for i, f := range s.fields {
		if i > 0 {
			out += ", "
		}
		out += f.name + "=" + f.value.String()
	}
	return out + "}"
}

// Len returns the number of members.
func (s *Struct) Len() int { return len(s.fields) }

// At returns the name and value of the i'th member in declared order.
func (s *Struct) At(i int) (string, Value) {
	f := s.fields[i]
	return f.name, f.value
}

// Get looks up a member by unqualified name. ok is false if the member
// has not been decoded yet (or does not exist) in this structure.
func (s *Struct) Get(name string) (Value, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[i].value, true
}

// UintValue extracts an unsigned integer length reference, used for
// dynamic array lengths. It accepts both UInt64 and non-negative SInt64.
func (s *Struct) UintValue(name string) (uint64, error) {
	v, ok := s.Get(name)
	if !ok {
		return 0, &DecodeError{Kind: UnknownLengthField, Msg: fmt.Sprintf("length field %q not yet decoded", name)}
	}
	switch n := v.(type) {
	case UInt64:
		return uint64(n), nil
	case SInt64:
		if n < 0 {
			return 0, &DecodeError{Kind: LengthFieldNotInteger, Msg: "length field is negative"}
		}
		return uint64(n), nil
	default:
		return 0, &DecodeError{Kind: LengthFieldNotInteger, Msg: fmt.Sprintf("length field %q is not an integer", name)}
	}
}
