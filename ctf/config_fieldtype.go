// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import (
	"fmt"
	"strconv"
	"strings"
)

// parseFieldType implements spec.md §4.1's rules: a field type may be
// given as a shorthand name string, or as an explicit class+options
// mapping.
func parseFieldType(t Tree, native ByteOrder, path string) (FieldDesc, error) {
	if s, ok := asString(t); ok {
		return parseShorthand(s, native, path)
	}
	m, ok := asMap(t)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "field type must be a string or a mapping")
	}
	classT, ok := m["class"]
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "mapping field type must have a class")
	}
	class, ok := asString(classT)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "class must be a string")
	}

	switch class {
	case "int", "integer":
		return parseExplicitInt(m, native, path)
	case "real", "float":
		return parseExplicitReal(m, native, path)
	case "string":
		return StringDesc{}, nil
	case "enum", "enumeration":
		return parseEnum(m, native, path)
	case "static-array":
		return parseStaticArray(m, native, path)
	case "dynamic-array":
		return parseDynamicArray(m, native, path)
	case "structure", "struct":
		return parseStruct(m, native, path)
	default:
		return nil, newConfigErr(UnknownClass, path, "unknown field class "+class)
	}
}

var shorthandInt = map[string]struct {
	bits       int
	signed     bool
	bytePacked bool
}{
	"uint8":               {8, false, false},
	"uint16":              {16, false, false},
	"uint32":              {32, false, false},
	"uint64":              {64, false, false},
	"sint8":               {8, true, false},
	"sint16":              {16, true, false},
	"sint32":              {32, true, false},
	"sint64":              {64, true, false},
	"byte-packed-uint8":   {8, false, true},
	"byte-packed-uint16":  {16, false, true},
	"byte-packed-uint32":  {32, false, true},
	"byte-packed-uint64":  {64, false, true},
	"byte-packed-sint8":   {8, true, true},
	"byte-packed-sint16":  {16, true, true},
	"byte-packed-sint32":  {32, true, true},
	"byte-packed-sint64":  {64, true, true},
}

func parseShorthand(name string, native ByteOrder, path string) (FieldDesc, error) {
	if sh, ok := shorthandInt[name]; ok {
		align := sh.bits
		if sh.bytePacked {
			align = 8
		}
		if sh.signed {
			return SIntDesc{Bits: sh.bits, AlignBits: align, ByteOrder: native}, nil
		}
		return UIntDesc{Bits: sh.bits, AlignBits: align, ByteOrder: native}, nil
	}
	switch name {
	case "float":
		return F32Desc{AlignBits: 32, ByteOrder: native}, nil
	case "double":
		return F64Desc{AlignBits: 64, ByteOrder: native}, nil
	case "string":
		return StringDesc{}, nil
	}
	return nil, newConfigErr(UnknownClass, path, "unknown shorthand field type "+strconv.Quote(name))
}

func naturalAlign(bits int) int {
	switch {
	case bits <= 8:
		return 8
	case bits == 16, bits == 32, bits == 64:
		return bits
	default:
		// Not a standard width; spec.md leaves this case unspecified.
		// Byte alignment is the conservative default.
		return 8
	}
}

func parseByteOrder(t Tree, native ByteOrder, path string) (ByteOrder, error) {
	if t == nil {
		return native, nil
	}
	s, ok := asString(t)
	if !ok {
		return native, newConfigErr(BadFieldSpec, path, "byte-order must be a string")
	}
	switch strings.ToLower(s) {
	case "little-endian", "le":
		return LittleEndian, nil
	case "big-endian", "be":
		return BigEndian, nil
	default:
		return native, newConfigErr(BadFieldSpec, path, "unknown byte order "+s)
	}
}

func parseDisplayBase(t Tree, path string) (DisplayBase, error) {
	if t == nil {
		return BaseDecimal, nil
	}
	s, ok := asString(t)
	if !ok {
		return BaseDecimal, newConfigErr(BadFieldSpec, path, "preferred-display-base must be a string")
	}
	switch strings.ToLower(s) {
	case "decimal", "dec", "":
		return BaseDecimal, nil
	case "hexadecimal", "hex":
		return BaseHex, nil
	case "octal", "oct":
		return BaseOctal, nil
	case "binary", "bin":
		return BaseBinary, nil
	default:
		return BaseDecimal, newConfigErr(BadFieldSpec, path, "unknown preferred-display-base "+s)
	}
}

func parseExplicitInt(m map[string]any, native ByteOrder, path string) (FieldDesc, error) {
	sizeT, ok := m["size"]
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "integer field type requires size")
	}
	size, ok := asInt64(sizeT)
	if !ok || size < 1 || size > 64 {
		return nil, newConfigErr(BadFieldSpec, path+".size", "integer size must be in [1,64]")
	}

	align := naturalAlign(int(size))
	if a, ok := m["alignment"]; ok {
		n, ok := asInt64(a)
		if !ok || n <= 0 || n&(n-1) != 0 {
			return nil, newConfigErr(BadFieldSpec, path+".alignment", "alignment must be a positive power of two")
		}
		align = int(n)
	}

	order, err := parseByteOrder(m["byte-order"], native, path+".byte-order")
	if err != nil {
		return nil, err
	}

	base, err := parseDisplayBase(m["preferred-display-base"], path+".preferred-display-base")
	if err != nil {
		return nil, err
	}

	signed := false
	if s, ok := m["signed"]; ok {
		b, ok := asBool(s)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, path+".signed", "signed must be a boolean")
		}
		signed = b
	}

	if signed {
		return SIntDesc{Bits: int(size), AlignBits: align, ByteOrder: order, Base: base}, nil
	}
	return UIntDesc{Bits: int(size), AlignBits: align, ByteOrder: order, Base: base}, nil
}

func parseExplicitReal(m map[string]any, native ByteOrder, path string) (FieldDesc, error) {
	size := int64(64)
	if s, ok := m["size"]; ok {
		n, ok := asInt64(s)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, path+".size", "real size must be an integer")
		}
		size = n
	}
	order, err := parseByteOrder(m["byte-order"], native, path+".byte-order")
	if err != nil {
		return nil, err
	}
	switch size {
	case 32:
		align := int64(32)
		if a, ok := m["alignment"]; ok {
			n, ok := asInt64(a)
			if !ok || n <= 0 || n&(n-1) != 0 {
				return nil, newConfigErr(BadFieldSpec, path+".alignment", "alignment must be a positive power of two")
			}
			align = n
		}
		return F32Desc{AlignBits: int(align), ByteOrder: order}, nil
	case 64:
		align := int64(64)
		if a, ok := m["alignment"]; ok {
			n, ok := asInt64(a)
			if !ok || n <= 0 || n&(n-1) != 0 {
				return nil, newConfigErr(BadFieldSpec, path+".alignment", "alignment must be a positive power of two")
			}
			align = n
		}
		return F64Desc{AlignBits: int(align), ByteOrder: order}, nil
	default:
		return nil, newConfigErr(BadFieldSpec, path+".size", "real size must be 32 or 64")
	}
}

func parseRanges(t Tree, path string) ([][2]int64, error) {
	if n, ok := asInt64(t); ok {
		return [][2]int64{{n, n}}, nil
	}
	seq, ok := asSeq(t)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "enum member value must be an integer or a range")
	}
	if len(seq) == 2 {
		if lo, ok1 := asInt64(seq[0]); ok1 {
			if hi, ok2 := asInt64(seq[1]); ok2 {
				if hi < lo {
					return nil, newConfigErr(BadFieldSpec, path, "range hi < lo")
				}
				return [][2]int64{{lo, hi}}, nil
			}
		}
	}
	var out [][2]int64
	for i, item := range seq {
		sub, err := parseRanges(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func parseEnum(m map[string]any, native ByteOrder, path string) (FieldDesc, error) {
	vt, ok := m["value-type"]
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "enum field type requires value-type")
	}
	underlying, err := parseFieldType(vt, native, path+".value-type")
	if err != nil {
		return nil, err
	}
	switch underlying.(type) {
	case UIntDesc, SIntDesc:
	default:
		return nil, newConfigErr(BadFieldSpec, path+".value-type", "enum underlying type must be an integer")
	}

	membersT, ok := m["members"]
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "enum field type requires members")
	}
	members, ok := asMap(membersT)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path+".members", "members must be a mapping")
	}

	var ranges []EnumRange
	for label, v := range members {
		rs, err := parseRanges(v, path+".members."+label)
		if err != nil {
			return nil, err
		}
		for _, r := range rs {
			ranges = append(ranges, EnumRange{Label: label, Lo: r[0], Hi: r[1]})
		}
	}

	return EnumDesc{Underlying: underlying, Ranges: ranges}, nil
}

func parseStaticArray(m map[string]any, native ByteOrder, path string) (FieldDesc, error) {
	lenT, ok := m["length"]
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "static-array requires length")
	}
	n, ok := asInt64(lenT)
	if !ok || n < 0 {
		return nil, newConfigErr(BadFieldSpec, path+".length", "length must be a non-negative integer")
	}
	elemT, ok := m["element-type"]
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "static-array requires element-type")
	}
	elem, err := parseFieldType(elemT, native, path+".element-type")
	if err != nil {
		return nil, err
	}
	return StaticArrayDesc{Len: int(n), Element: elem}, nil
}

func parseDynamicArray(m map[string]any, native ByteOrder, path string) (FieldDesc, error) {
	nameT, ok := m["length-field-name"]
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "dynamic-array requires length-field-name")
	}
	name, ok := asString(nameT)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path+".length-field-name", "length-field-name must be a string")
	}
	elemT, ok := m["element-type"]
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path, "dynamic-array requires element-type")
	}
	elem, err := parseFieldType(elemT, native, path+".element-type")
	if err != nil {
		return nil, err
	}
	return DynamicArrayDesc{LengthFieldName: name, Element: elem}, nil
}

func parseStruct(m map[string]any, native ByteOrder, path string) (FieldDesc, error) {
	membersT, ok := m["member-types"]
	if !ok {
		return StructDesc{}, nil
	}
	seq, ok := asSeq(membersT)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, path+".member-types", "member-types must be a sequence")
	}
	seen := map[string]bool{}
	var out []StructMember
	for i, item := range seq {
		entry, ok := asMap(item)
		if !ok || len(entry) != 1 {
			return nil, newConfigErr(BadFieldSpec, fmt.Sprintf("%s.member-types[%d]", path, i), "each member must be a single-key mapping {name: type}")
		}
		for name, typ := range entry {
			if seen[name] {
				return nil, newConfigErr(DuplicateName, fmt.Sprintf("%s.member-types[%d]", path, i), "duplicate member name "+name)
			}
			seen[name] = true
			desc, err := parseFieldType(typ, native, fmt.Sprintf("%s.member-types[%d].%s", path, i, name))
			if err != nil {
				return nil, err
			}
			out = append(out, StructMember{Name: name, Type: desc})
		}
	}
	return StructDesc{Members: out}, nil
}
