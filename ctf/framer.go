// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import (
	"bufio"
	"context"
	"io"
)

// Framer reads packets one at a time from a transport. It peeks the
// header and packet-context of each packet to learn total_size_bits,
// accumulates that many bytes, and hands the complete buffer to
// DecodePacket. Per spec.md §4.5, a short read exactly at a packet
// boundary ends the sequence cleanly (ErrStreamDone); a short read
// mid-packet is UnexpectedEof.
//
// A Framer is a lazy, finite, non-restartable sequence: once Next returns
// ErrStreamDone or a non-DecodeError, the Framer must not be used again.
//
// Per spec.md §5's resource policy, a Framer's memory is bounded by
// maxPacketSize: no packet larger than that can ever be framed, and the
// Framer allocates no more than that up front.
type Framer struct {
	schema *Schema
	br     *bufio.Reader
	max    int
	buf    []byte // owned scratch, reused and grown (up to max) across calls
	done   bool
}

// NewFramer returns a Framer that reads packets from r using schema to
// determine packet boundaries. maxPacketSize bounds both the largest
// packet this Framer will accept and the memory it holds onto.
func NewFramer(schema *Schema, r io.Reader, maxPacketSize int) *Framer {
	return &Framer{schema: schema, br: bufio.NewReaderSize(r, maxPacketSize), max: maxPacketSize}
}

// Next reads and decodes the next packet. It returns ErrStreamDone when
// the transport reaches a clean end of stream at a packet boundary. A
// *DecodeError for one packet does not end the sequence; the caller may
// call Next again to attempt to resynchronize on the following packet,
// though this package does not implement resynchronization itself.
//
// ctx is checked before each transport read, and Next returns ctx's error
// once it is cancelled; a read already blocked in the transport is not
// interrupted. Per spec.md §5 this is the one suspension point in the
// whole package.
func (f *Framer) Next(ctx context.Context) (*Packet, error) {
	if f.done {
		return nil, ErrStreamDone
	}

	n := 64
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if n > f.max {
			return nil, &DecodeError{Kind: PacketSizeInvalid, Msg: "packet header/context exceeds configured maximum packet size"}
		}

		peek, _ := f.br.Peek(n)
		if len(peek) == 0 {
			f.done = true
			return nil, ErrStreamDone
		}

		totalBits, err := peekTotalSizeBits(f.schema, peek)
		if de, ok := err.(*DecodeError); ok && de.Kind == InsufficientData {
			if len(peek) < n {
				// Transport is exhausted before a full header/context arrived.
				return nil, &DecodeError{Kind: UnexpectedEof, Msg: "short read at packet boundary"}
			}
			n *= 2
			continue
		}
		if err != nil {
			return nil, err
		}

		totalBytes := int(totalBits / 8)
		if totalBits%8 != 0 || totalBytes > f.max {
			return nil, &DecodeError{Kind: PacketSizeInvalid, Msg: "total_size is not byte-aligned or exceeds configured maximum"}
		}
		if totalBytes < len(peek) {
			return nil, &DecodeError{Kind: PacketSizeInvalid, Msg: "total_size is smaller than the header and packet context it declares"}
		}

		if cap(f.buf) < totalBytes {
			f.buf = make([]byte, totalBytes)
		}
		buf := f.buf[:totalBytes]
		full, err := f.br.Peek(totalBytes)
		copy(buf, full)
		if err != nil {
			if len(full) < totalBytes {
				return nil, &DecodeError{Kind: UnexpectedEof, Msg: "short read mid-packet"}
			}
			return nil, err
		}
		if _, err := f.br.Discard(totalBytes); err != nil {
			return nil, err
		}

		return DecodePacket(f.schema, nil, buf)
	}
}

// peekTotalSizeBits decodes just enough of a packet (header and packet
// context) out of a peek buffer to learn total_size_bits, without
// requiring the whole packet to be in hand yet.
func peekTotalSizeBits(schema *Schema, peek []byte) (uint64, error) {
	cur := newBitCursor(peek)
	hdrStruct := newStruct(len(schema.Trace.Header.Members))
	var streamID *uint64
	for _, m := range schema.Trace.Header.Members {
		v, err := decodeField(m.Type, cur, hdrStruct)
		if err != nil {
			return 0, err
		}
		hdrStruct.set(m.Name, v)
		if m.Name == "stream_id" {
			id := valueAsUint(v)
			streamID = &id
		}
	}
	stream, err := schema.StreamByHint(streamID)
	if err != nil {
		return 0, err
	}
	ctxStruct := newStruct(len(stream.PacketContext.Members))
	for _, m := range stream.PacketContext.Members {
		v, err := decodeField(m.Type, cur, ctxStruct)
		if err != nil {
			return 0, err
		}
		ctxStruct.set(m.Name, v)
	}
	total, ok := lookupUint(ctxStruct, "total_size")
	if !ok {
		return 0, &DecodeError{Kind: PacketSizeInvalid, Msg: "stream has no total-size-field-type configured; Framer cannot determine packet boundaries"}
	}
	return total, nil
}
