// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitCursorByteAligned(t *testing.T) {
	c := newBitCursor([]byte{0x01, 0x02, 0x03, 0x04})

	v, err := c.readUint(16, LittleEndian)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0201), v)

	v, err = c.readUint(16, BigEndian)
	require.NoError(t, err)
	require.Equal(t, uint64(0x0304), v)
}

func TestBitCursorBitLevel(t *testing.T) {
	// 0b10110100 0b00000001
	c := newBitCursor([]byte{0b10110100, 0b00000001})

	v, err := c.readUint(4, BigEndian)
	require.NoError(t, err)
	require.Equal(t, uint64(0b1011), v)

	v, err = c.readUint(4, BigEndian)
	require.NoError(t, err)
	require.Equal(t, uint64(0b0100), v)

	require.NoError(t, c.align(8))
	require.Equal(t, int64(8), c.bitOffset())

	v, err = c.readUint(8, LittleEndian)
	require.NoError(t, err)
	require.Equal(t, uint64(0x01), v)
}

func TestBitCursorLittleEndianBitOrder(t *testing.T) {
	// A byte-aligned, whole-byte little-endian read returns the byte's
	// value as is; it does not go through the bit-by-bit path.
	c := newBitCursor([]byte{0b00000001})
	v, err := c.readUint(8, LittleEndian)
	require.NoError(t, err)
	require.Equal(t, uint64(0b00000001), v)
}

func TestBitCursorInsufficientDataLeavesCursorUnchanged(t *testing.T) {
	c := newBitCursor([]byte{0x01})
	_, err := c.readUint(16, LittleEndian)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, InsufficientData, de.Kind)
	require.Equal(t, int64(0), c.bitOffset())
}

func TestBitCursorSignExtend(t *testing.T) {
	c := newBitCursor([]byte{0xFF})
	v, err := c.readSint(8, LittleEndian)
	require.NoError(t, err)
	require.Equal(t, int64(-1), v)

	c = newBitCursor([]byte{0b11110000})
	v, err = c.readSint(4, BigEndian)
	require.NoError(t, err)
	require.Equal(t, int64(-1), v)
}

func TestBitCursorFloat(t *testing.T) {
	// IEEE-754 1.0f = 0x3F800000
	c := newBitCursor([]byte{0x00, 0x00, 0x80, 0x3F})
	f, err := c.readF32(LittleEndian)
	require.NoError(t, err)
	require.InDelta(t, 1.0, f, 0.0001)
}

func TestBitCursorCString(t *testing.T) {
	c := newBitCursor([]byte{'h', 'i', 0, 'x'})
	s, err := c.readCString()
	require.NoError(t, err)
	require.Equal(t, "hi", s)
	require.Equal(t, int64(24), c.bitOffset())
}

func TestBitCursorSkipTo(t *testing.T) {
	c := newBitCursor(make([]byte, 4))
	require.NoError(t, c.skipTo(16))
	require.Equal(t, int64(16), c.bitOffset())
	require.Error(t, c.skipTo(8))
}
