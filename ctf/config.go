// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import (
	"fmt"
)

// Compile lowers an already-parsed configuration tree into a compiled,
// immutable Schema, per spec.md §4.1. includes resolves `$include`
// directives; it may be nil if the configuration has none.
func Compile(tree Tree, includes IncludeResolver) (*Schema, error) {
	resolved, err := resolveIncludes(tree, includes, "$")
	if err != nil {
		return nil, err
	}

	root, ok := asMap(resolved)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, "$", "configuration root must be a mapping")
	}
	traceT, ok := root["trace"]
	if !ok {
		return nil, newConfigErr(MissingFeature, "$", "configuration is missing top-level \"trace\" key")
	}
	trace, ok := asMap(traceT)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, "$.trace", "\"trace\" must be a mapping")
	}
	typeT, ok := trace["type"]
	if !ok {
		return nil, newConfigErr(MissingFeature, "$.trace", "\"trace\" is missing \"type\"")
	}
	typ, ok := asMap(typeT)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, "$.trace.type", "\"trace.type\" must be a mapping")
	}

	nativeOrder, err := parseRequiredByteOrder(typ, "$.trace.type.native-byte-order")
	if err != nil {
		return nil, err
	}

	traceType := TraceType{NativeByteOrder: nativeOrder}

	if uuidT, ok := typ["uuid"]; ok {
		s, ok := asString(uuidT)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, "$.trace.type.uuid", "uuid must be a string")
		}
		u, err := parseUUID(s)
		if err != nil {
			return nil, wrapConfigErr(BadFieldSpec, "$.trace.type.uuid", err)
		}
		traceType.UUID = &u
	}

	var streamIDDesc FieldDesc
	if featT, ok := typ["$features"]; ok {
		feat, ok := asMap(featT)
		if !ok {
			return nil, newConfigErr(BadFieldSpec, "$.trace.type.$features", "$features must be a mapping")
		}
		for k := range feat {
			switch k {
			case "magic-field-type", "uuid-field-type", "data-stream-type-id-field-type":
			default:
				return nil, newConfigErr(UnsupportedFeature, "$.trace.type.$features."+k, "unsupported trace feature toggle")
			}
		}

		if mt, ok := feat["magic-field-type"]; ok {
			if b, isBool := asBool(mt); isBool && !b {
				// explicitly disabled
			} else {
				desc, err := parseFieldType(mt, nativeOrder, "$.trace.type.$features.magic-field-type")
				if err != nil {
					return nil, err
				}
				u, ok := desc.(UIntDesc)
				if !ok || u.Bits != 32 {
					return nil, newConfigErr(UnsupportedFeature, "$.trace.type.$features.magic-field-type", "magic-field-type must be uint32")
				}
				traceType.HasMagic = true
			}
		}

		if ut, ok := feat["uuid-field-type"]; ok {
			b, ok := asBool(ut)
			if !ok {
				return nil, newConfigErr(BadFieldSpec, "$.trace.type.$features.uuid-field-type", "uuid-field-type must be a boolean")
			}
			traceType.HasUUIDField = b
		}

		if st, ok := feat["data-stream-type-id-field-type"]; ok {
			if b, isBool := asBool(st); isBool && !b {
				// explicitly disabled
			} else {
				desc, err := parseFieldType(st, nativeOrder, "$.trace.type.$features.data-stream-type-id-field-type")
				if err != nil {
					return nil, err
				}
				u, ok := desc.(UIntDesc)
				if !ok {
					return nil, newConfigErr(UnsupportedFeature, "$.trace.type.$features.data-stream-type-id-field-type", "stream id field must be unsigned")
				}
				switch u.Bits {
				case 8, 16, 32, 64:
				default:
					return nil, newConfigErr(UnsupportedFeature, "$.trace.type.$features.data-stream-type-id-field-type", "stream id field must be 8/16/32/64 bits")
				}
				streamIDDesc = desc
				traceType.HasStreamID = true
			}
		}
	}

	var headerMembers []StructMember
	if traceType.HasMagic {
		headerMembers = append(headerMembers, StructMember{Name: "magic", Type: UIntDesc{Bits: 32, AlignBits: 32, ByteOrder: nativeOrder}})
	}
	if traceType.HasUUIDField {
		headerMembers = append(headerMembers, StructMember{Name: "uuid", Type: StaticArrayDesc{
			Len:     16,
			Element: UIntDesc{Bits: 8, AlignBits: 8, ByteOrder: nativeOrder},
		}})
	}
	if traceType.HasStreamID {
		traceType.StreamIDDesc = streamIDDesc
		headerMembers = append(headerMembers, StructMember{Name: "stream_id", Type: streamIDDesc})
	}
	traceType.Header = StructDesc{Members: headerMembers}

	streamsT, ok := typ["data-stream-types"]
	if !ok {
		return nil, newConfigErr(MissingFeature, "$.trace.type", "trace.type is missing data-stream-types")
	}
	streamsMap, ok := asMap(streamsT)
	if !ok {
		return nil, newConfigErr(BadFieldSpec, "$.trace.type.data-stream-types", "data-stream-types must be a mapping")
	}
	if len(streamsMap) == 0 {
		return nil, newConfigErr(MissingFeature, "$.trace.type.data-stream-types", "at least one data stream type is required")
	}

	schema := &Schema{Trace: traceType, StreamsByID: map[uint64]*DataStreamType{}}
	for name, raw := range streamsMap {
		st, err := compileDataStreamType(name, raw, nativeOrder, fmt.Sprintf("$.trace.type.data-stream-types.%s", name))
		if err != nil {
			return nil, err
		}
		if _, dup := schema.StreamsByID[st.ID]; dup {
			return nil, newConfigErr(DuplicateName, "$.trace.type.data-stream-types", fmt.Sprintf("duplicate data stream type id %d", st.ID))
		}
		schema.StreamsByID[st.ID] = st
	}

	if !traceType.HasStreamID {
		if len(schema.StreamsByID) != 1 {
			return nil, newConfigErr(MissingFeature, "$.trace.type", "no data-stream-type-id field configured but more than one data stream type is defined")
		}
		for _, st := range schema.StreamsByID {
			schema.DefaultStream = st
		}
	}

	return schema, nil
}

func parseRequiredByteOrder(typ map[string]any, path string) (ByteOrder, error) {
	raw, ok := typ["native-byte-order"]
	if !ok {
		return 0, newConfigErr(MissingFeature, path, "native-byte-order is required")
	}
	s, ok := asString(raw)
	if !ok {
		return 0, newConfigErr(BadFieldSpec, path, "native-byte-order must be a string")
	}
	switch s {
	case "little-endian":
		return LittleEndian, nil
	case "big-endian":
		return BigEndian, nil
	default:
		return 0, newConfigErr(BadFieldSpec, path, "native-byte-order must be little-endian or big-endian")
	}
}

func parseUUID(s string) ([16]byte, error) {
	var out [16]byte
	clean := make([]byte, 0, 32)
	for _, r := range s {
		if r == '-' {
			continue
		}
		clean = append(clean, byte(r))
	}
	if len(clean) != 32 {
		return out, fmt.Errorf("uuid %q does not have 32 hex digits", s)
	}
	for i := 0; i < 16; i++ {
		hi, ok1 := hexDigit(clean[i*2])
		lo, ok2 := hexDigit(clean[i*2+1])
		if !ok1 || !ok2 {
			return out, fmt.Errorf("uuid %q has invalid hex digits", s)
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
