// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

// decodeField dispatches on a field descriptor to produce a typed value,
// per spec.md §4.3. scope holds the already-decoded members of the
// immediately enclosing structure, so dynamic array lengths can be
// resolved by unqualified name.
func decodeField(desc FieldDesc, cur *bitCursor, scope *Struct) (Value, error) {
	switch d := desc.(type) {
	case UIntDesc:
		if err := cur.align(d.AlignBits); err != nil {
			return nil, err
		}
		u, err := cur.readUint(d.Bits, d.ByteOrder)
		if err != nil {
			return nil, err
		}
		return UInt64(u), nil

	case SIntDesc:
		if err := cur.align(d.AlignBits); err != nil {
			return nil, err
		}
		s, err := cur.readSint(d.Bits, d.ByteOrder)
		if err != nil {
			return nil, err
		}
		return SInt64(s), nil

	case F32Desc:
		if err := cur.align(d.AlignBits); err != nil {
			return nil, err
		}
		f, err := cur.readF32(d.ByteOrder)
		if err != nil {
			return nil, err
		}
		return Float64(f), nil

	case F64Desc:
		if err := cur.align(d.AlignBits); err != nil {
			return nil, err
		}
		f, err := cur.readF64(d.ByteOrder)
		if err != nil {
			return nil, err
		}
		return Float64(f), nil

	case StringDesc:
		if err := cur.align(8); err != nil {
			return nil, err
		}
		s, err := cur.readCString()
		if err != nil {
			return nil, err
		}
		return Str(s), nil

	case EnumDesc:
		return decodeEnum(d, cur)

	case StructDesc:
		return decodeStruct(d, cur)

	case StaticArrayDesc:
		return decodeArray(d.Element, d.Len, cur, scope)

	case DynamicArrayDesc:
		n, err := scope.UintValue(d.LengthFieldName)
		if err != nil {
			return nil, err
		}
		return decodeArray(d.Element, int(n), cur, scope)

	default:
		return nil, &DecodeError{Kind: BitsOutOfRange, Msg: "unknown field descriptor kind"}
	}
}

func decodeEnum(d EnumDesc, cur *bitCursor) (Value, error) {
	var raw int64
	switch u := d.Underlying.(type) {
	case UIntDesc:
		if err := cur.align(u.AlignBits); err != nil {
			return nil, err
		}
		v, err := cur.readUint(u.Bits, u.ByteOrder)
		if err != nil {
			return nil, err
		}
		raw = int64(v)
	case SIntDesc:
		if err := cur.align(u.AlignBits); err != nil {
			return nil, err
		}
		v, err := cur.readSint(u.Bits, u.ByteOrder)
		if err != nil {
			return nil, err
		}
		raw = v
	default:
		return nil, &DecodeError{Kind: BadMagic, Msg: "enum underlying type must be an integer"}
	}

	var labels []string
	for _, r := range d.Ranges {
		if raw >= r.Lo && raw <= r.Hi {
			labels = append(labels, r.Label)
		}
	}
	return Enum{Raw: raw, Labels: labels}, nil
}

func decodeStruct(d StructDesc, cur *bitCursor) (Value, error) {
	s := newStruct(len(d.Members))
	for _, m := range d.Members {
		v, err := decodeField(m.Type, cur, s)
		if err != nil {
			return nil, err
		}
		s.set(m.Name, v)
	}
	return s, nil
}

func decodeArray(elem FieldDesc, n int, cur *bitCursor, scope *Struct) (Value, error) {
	if n < 0 {
		return nil, &DecodeError{Kind: LengthFieldNotInteger, Msg: "negative array length"}
	}
	out := make(Array, 0, n)
	for i := 0; i < n; i++ {
		v, err := decodeField(elem, cur, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
