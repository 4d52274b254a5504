// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var fixtureUUID = [16]byte{0x79, 0xe4, 0x90, 0x40, 0x21, 0xb5, 0x42, 0xd4, 0xa8, 0x3b, 0x64, 0x6f, 0x78, 0x66, 0x6b, 0x62}

// fixtureSchema builds, directly as Go structs, the seed-test schema
// described in spec.md §8: one stream with init/foobar/floats/enums/
// arrays/shutdown event types.
func fixtureSchema() *Schema {
	// Byte-packed (AlignBits: 8) rather than naturally aligned, so that
	// the fixed 168-bit trace header never forces an implicit alignment
	// gap before the hand-built packet context and event bytes that
	// follow it.
	u8 := UIntDesc{Bits: 8, AlignBits: 8, ByteOrder: LittleEndian}
	u32 := UIntDesc{Bits: 32, AlignBits: 8, ByteOrder: LittleEndian}

	trace := TraceType{
		NativeByteOrder: LittleEndian,
		UUID:            &fixtureUUID,
		HasMagic:        true,
		HasUUIDField:    true,
		HasStreamID:     true,
		StreamIDDesc:    u8,
		Header: StructDesc{Members: []StructMember{
			{Name: "magic", Type: UIntDesc{Bits: 32, AlignBits: 32, ByteOrder: LittleEndian}},
			{Name: "uuid", Type: StaticArrayDesc{Len: 16, Element: u8}},
			{Name: "stream_id", Type: u8},
		}},
	}

	packetContext := StructDesc{Members: []StructMember{
		{Name: "timestamp_begin", Type: u32},
		{Name: "timestamp_end", Type: u32},
		{Name: "total_size", Type: u32},
		{Name: "content_size", Type: u32},
		{Name: "pc", Type: u32},
	}}

	eventHeader := StructDesc{Members: []StructMember{
		{Name: "id", Type: u8},
		{Name: "timestamp", Type: u32},
	}}

	initPayload := StructDesc{Members: []StructMember{
		{Name: "cpu_id", Type: u8},
		{Name: "version", Type: StringDesc{}},
	}}
	foobarPayload := StructDesc{Members: []StructMember{
		{Name: "val", Type: u8},
		{Name: "val2", Type: u8},
	}}
	floatsPayload := StructDesc{Members: []StructMember{
		{Name: "f32", Type: F32Desc{AlignBits: 8, ByteOrder: LittleEndian}},
		{Name: "f64", Type: F64Desc{AlignBits: 8, ByteOrder: LittleEndian}},
	}}
	enumsPayload := StructDesc{Members: []StructMember{
		{Name: "foo", Type: EnumDesc{Underlying: u8, Ranges: []EnumRange{{"A", 1, 1}, {"B", 2, 2}}}},
		{Name: "bar", Type: EnumDesc{Underlying: u8, Ranges: []EnumRange{{"C", 3, 3}}}},
		{Name: "biz", Type: EnumDesc{Underlying: u8, Ranges: []EnumRange{{"RUNNING", 2, 2}, {"STOPPED", 0, 0}}}},
		{Name: "baz", Type: EnumDesc{Underlying: u32, Ranges: []EnumRange{{"on", 400, 600}, {"off", 0, 1000}}}},
	}}
	arraysPayload := StructDesc{Members: []StructMember{
		{Name: "foo", Type: StaticArrayDesc{Len: 4, Element: u8}},
		{Name: "bar_len", Type: u8},
		{Name: "bar", Type: DynamicArrayDesc{LengthFieldName: "bar_len", Element: StringDesc{}}},
	}}

	events := map[uint64]*EventRecordType{
		0: {Name: "init", ID: 0, Payload: &initPayload},
		1: {Name: "foobar", ID: 1, Payload: &foobarPayload},
		2: {Name: "floats", ID: 2, Payload: &floatsPayload},
		3: {Name: "enums", ID: 3, Payload: &enumsPayload},
		4: {Name: "arrays", ID: 4, Payload: &arraysPayload},
		5: {Name: "shutdown", ID: 5},
	}

	stream := &DataStreamType{
		ID:                0,
		Name:              "default",
		PacketContext:     packetContext,
		EventHeader:       eventHeader,
		HasEventTypeID:    true,
		HasEventTimestamp: true,
		EventsByID:        events,
	}

	return &Schema{
		Trace:       trace,
		StreamsByID: map[uint64]*DataStreamType{0: stream},
	}
}

// buildShutdownPacket encodes the full seed scenario of spec.md §8#1:
// init, foobar, floats, enums, arrays, shutdown, in order, followed by
// padBits bits of padding (so content_size < total_size when padBits > 0).
func buildShutdownPacket(t *testing.T, padBits int) []byte {
	t.Helper()
	w := &bitWriter{}

	w.writeUint(packetMagic, 32, LittleEndian)
	for _, b := range fixtureUUID {
		w.writeUint(uint64(b), 8, LittleEndian)
	}
	w.writeUint(0, 8, LittleEndian) // stream_id

	headerBits := w.bitLen()

	// Reserve space for the packet context; total_size/content_size are
	// patched in after we know the final length.
	ctxStart := w.bitLen()
	w.writeUint(100, 32, LittleEndian) // timestamp_begin
	w.writeUint(106, 32, LittleEndian) // timestamp_end
	totalSizeOff := w.bitLen()
	w.writeUint(0, 32, LittleEndian) // total_size placeholder
	contentSizeOff := w.bitLen()
	w.writeUint(0, 32, LittleEndian) // content_size placeholder
	w.writeUint(22, 32, LittleEndian) // pc
	_ = headerBits
	_ = ctxStart

	// init(cpu_id=1, version="1.0.0")
	w.writeUint(0, 8, LittleEndian)
	w.writeUint(0, 32, LittleEndian) // timestamp
	w.writeUint(1, 8, LittleEndian)  // cpu_id
	w.writeCString("1.0.0")

	// foobar(val=3, val2=21)
	w.writeUint(1, 8, LittleEndian)
	w.writeUint(1, 32, LittleEndian)
	w.writeUint(3, 8, LittleEndian)
	w.writeUint(21, 8, LittleEndian)

	// floats(f32=1.1, f64=2.2)
	w.writeUint(2, 8, LittleEndian)
	w.writeUint(2, 32, LittleEndian)
	w.writeF32(1.1, LittleEndian)
	w.writeF64(2.2, LittleEndian)

	// enums(foo=A(1), bar=C(3), biz=RUNNING(2), baz=500)
	w.writeUint(3, 8, LittleEndian)
	w.writeUint(3, 32, LittleEndian)
	w.writeUint(1, 8, LittleEndian)
	w.writeUint(3, 8, LittleEndian)
	w.writeUint(2, 8, LittleEndian)
	w.writeUint(500, 32, LittleEndian)

	// arrays(foo=[1,2,3,4], bar=["b0","b1","b2"])
	w.writeUint(4, 8, LittleEndian)
	w.writeUint(4, 32, LittleEndian)
	for _, v := range []uint64{1, 2, 3, 4} {
		w.writeUint(v, 8, LittleEndian)
	}
	w.writeUint(3, 8, LittleEndian) // bar_len
	w.writeCString("b0")
	w.writeCString("b1")
	w.writeCString("b2")

	// shutdown()
	w.writeUint(5, 8, LittleEndian)
	w.writeUint(5, 32, LittleEndian)

	contentEnd := w.bitLen()
	for i := 0; i < padBits; i++ {
		w.bits = append(w.bits, 0)
	}
	totalEnd := w.bitLen()

	// Patch total_size/content_size now that the packet is fully written.
	patchUint32(w, totalSizeOff, uint64(totalEnd))
	patchUint32(w, contentSizeOff, uint64(contentEnd))

	return w.bytes()
}

// patchUint32 overwrites a little-endian 32-bit field already present at
// bitOff, matching bitWriter's own byte-aligned encoding.
func patchUint32(w *bitWriter, bitOff int, val uint64) {
	for k := 0; k < 4; k++ {
		b := byte(val >> uint(8*k))
		for j := 7; j >= 0; j-- {
			w.bits[bitOff+k*8+(7-j)] = (b >> uint(j)) & 1
		}
	}
}

func TestDecodePacketShutdownScenario(t *testing.T) {
	schema := fixtureSchema()
	buf := buildShutdownPacket(t, 0)

	pkt, err := DecodePacket(schema, nil, buf)
	require.NoError(t, err)
	require.Len(t, pkt.Events, 6)

	names := make([]string, len(pkt.Events))
	for i, ev := range pkt.Events {
		names[i] = ev.Type.Name
	}
	require.Equal(t, []string{"init", "foobar", "floats", "enums", "arrays", "shutdown"}, names)

	init := pkt.Events[0].Payload
	v, ok := init.Get("cpu_id")
	require.True(t, ok)
	require.Equal(t, UInt64(1), v)
	v, ok = init.Get("version")
	require.True(t, ok)
	require.Equal(t, Str("1.0.0"), v)

	foobar := pkt.Events[1].Payload
	v, _ = foobar.Get("val")
	require.Equal(t, UInt64(3), v)
	v, _ = foobar.Get("val2")
	require.Equal(t, UInt64(21), v)

	floats := pkt.Events[2].Payload
	v, _ = floats.Get("f32")
	require.InDelta(t, 1.1, float64(v.(Float64)), 0.001)
	v, _ = floats.Get("f64")
	require.InDelta(t, 2.2, float64(v.(Float64)), 0.0000001)

	enums := pkt.Events[3].Payload
	v, _ = enums.Get("foo")
	require.Equal(t, []string{"A"}, v.(Enum).Labels)
	v, _ = enums.Get("bar")
	require.Equal(t, []string{"C"}, v.(Enum).Labels)
	v, _ = enums.Get("biz")
	require.Equal(t, []string{"RUNNING"}, v.(Enum).Labels)
	v, _ = enums.Get("baz")
	require.ElementsMatch(t, []string{"on", "off"}, v.(Enum).Labels)

	arrays := pkt.Events[4].Payload
	v, _ = arrays.Get("foo")
	require.Equal(t, Array{UInt64(1), UInt64(2), UInt64(3), UInt64(4)}, v)
	v, _ = arrays.Get("bar")
	require.Equal(t, Array{Str("b0"), Str("b1"), Str("b2")}, v)

	require.Nil(t, pkt.Events[5].Payload)
}

func TestDecodePacketPadding(t *testing.T) {
	schema := fixtureSchema()
	buf := buildShutdownPacket(t, 16)

	pkt, err := DecodePacket(schema, nil, buf)
	require.NoError(t, err)
	require.Len(t, pkt.Events, 6)
}

func TestDecodePacketBadMagic(t *testing.T) {
	schema := fixtureSchema()
	buf := buildShutdownPacket(t, 0)
	buf[0] ^= 0xFF

	_, err := DecodePacket(schema, nil, buf)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, BadMagic, de.Kind)
}

func TestDecodePacketUuidMismatch(t *testing.T) {
	schema := fixtureSchema()
	buf := buildShutdownPacket(t, 0)
	buf[4] ^= 0xFF // first UUID byte, after the 4-byte magic

	_, err := DecodePacket(schema, nil, buf)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, UuidMismatch, de.Kind)
}

func TestDecodePacketDynamicArrayZeroLength(t *testing.T) {
	schema := fixtureSchema()
	w := &bitWriter{}
	w.writeUint(packetMagic, 32, LittleEndian)
	for _, b := range fixtureUUID {
		w.writeUint(uint64(b), 8, LittleEndian)
	}
	w.writeUint(0, 8, LittleEndian)

	totalSizeOff := w.bitLen() + 64
	contentSizeOff := totalSizeOff + 32
	w.writeUint(0, 32, LittleEndian)
	w.writeUint(0, 32, LittleEndian)
	w.writeUint(0, 32, LittleEndian)
	w.writeUint(0, 32, LittleEndian)
	w.writeUint(22, 32, LittleEndian)

	// arrays(foo=[1,2,3,4], bar=[] length 0)
	w.writeUint(4, 8, LittleEndian)
	w.writeUint(0, 32, LittleEndian)
	for _, v := range []uint64{1, 2, 3, 4} {
		w.writeUint(v, 8, LittleEndian)
	}
	w.writeUint(0, 8, LittleEndian) // bar_len = 0

	contentEnd := w.bitLen()
	totalEnd := contentEnd
	patchUint32(w, totalSizeOff, uint64(totalEnd))
	patchUint32(w, contentSizeOff, uint64(contentEnd))

	pkt, err := DecodePacket(schema, nil, w.bytes())
	require.NoError(t, err)
	require.Len(t, pkt.Events, 1)
	arr, ok := pkt.Events[0].Payload.Get("bar")
	require.True(t, ok)
	require.Equal(t, Array{}, arr)
}

func TestDecodePacketTruncatedEvent(t *testing.T) {
	schema := fixtureSchema()
	buf := buildShutdownPacket(t, 0)

	// content_size sits after timestamp_begin, timestamp_end and
	// total_size in the packet context, which itself follows the 168-bit
	// trace header.
	// Cut it so it lands inside the final (shutdown) event's header,
	// leaving total_size alone so the frame-bounds check still passes.
	contentSizeByteOff := (168 + 64 + 32) / 8
	writeU32LE(buf, contentSizeByteOff, 880)

	_, err := DecodePacket(schema, nil, buf)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, TruncatedEvent, de.Kind)
}

func writeU32LE(buf []byte, byteOff int, val uint32) {
	buf[byteOff] = byte(val)
	buf[byteOff+1] = byte(val >> 8)
	buf[byteOff+2] = byte(val >> 16)
	buf[byteOff+3] = byte(val >> 24)
}
