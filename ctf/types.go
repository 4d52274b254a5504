// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

// ByteOrder is the wire byte order of a field.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// DisplayBase is a hint for how an integer should be rendered, carried
// through from the configuration but never interpreted by the decoder
// itself.
type DisplayBase int

const (
	BaseDecimal DisplayBase = iota
	BaseHex
	BaseOctal
	BaseBinary
)

// FieldDesc is the tagged sum of field descriptor kinds described in
// spec.md §3. It is implemented by exactly the nine kinds below; the
// unexported marker keeps the set closed so the decoder's dispatch is a
// plain type switch over a fixed number of kinds, not open-ended dynamic
// dispatch.
type FieldDesc interface {
	fieldDesc()
}

// UIntDesc describes an unsigned integer field.
type UIntDesc struct {
	Bits      int // 1..64
	AlignBits int // positive power of two
	ByteOrder ByteOrder
	Base      DisplayBase
}

func (UIntDesc) fieldDesc() {}

// SIntDesc describes a two's-complement signed integer field.
type SIntDesc struct {
	Bits      int
	AlignBits int
	ByteOrder ByteOrder
	Base      DisplayBase
}

func (SIntDesc) fieldDesc() {}

// F32Desc describes an IEEE-754 single-precision field.
type F32Desc struct {
	AlignBits int
	ByteOrder ByteOrder
}

func (F32Desc) fieldDesc() {}

// F64Desc describes an IEEE-754 double-precision field.
type F64Desc struct {
	AlignBits int
	ByteOrder ByteOrder
}

func (F64Desc) fieldDesc() {}

// StringDesc describes a null-terminated byte string, always byte-aligned.
type StringDesc struct{}

func (StringDesc) fieldDesc() {}

// EnumRange is one inclusive integer range mapped to a label. Multiple
// ranges, for the same or different labels, may overlap.
type EnumRange struct {
	Label string
	Lo    int64
	Hi    int64 // inclusive
}

// EnumDesc describes an enumeration: an underlying integer plus a set of
// labeled, possibly overlapping, inclusive ranges.
//
// Per spec.md §9, enumerations are always decoded as 64-bit integers
// regardless of the underlying descriptor's declared width; Underlying
// decides how many bits are read and their alignment, byte order and
// signedness, and the result is then widened to 64 bits.
type EnumDesc struct {
	Underlying FieldDesc // UIntDesc or SIntDesc
	Ranges     []EnumRange
}

func (EnumDesc) fieldDesc() {}

// StaticArrayDesc describes a fixed-length array whose length is known at
// compile time.
type StaticArrayDesc struct {
	Len     int
	Element FieldDesc
}

func (StaticArrayDesc) fieldDesc() {}

// DynamicArrayDesc describes an array whose length is read from a
// previously decoded unsigned integer field in the same enclosing
// structure.
type DynamicArrayDesc struct {
	LengthFieldName string
	Element         FieldDesc
}

func (DynamicArrayDesc) fieldDesc() {}

// StructMember is one named member of a StructDesc, in declared order.
type StructMember struct {
	Name string
	Type FieldDesc
}

// StructDesc describes an ordered list of named fields.
type StructDesc struct {
	Members []StructMember
}

func (StructDesc) fieldDesc() {}

// isSigned reports whether the underlying descriptor of an enum (or any
// integer descriptor) is signed.
func isSigned(d FieldDesc) bool {
	_, ok := d.(SIntDesc)
	return ok
}
