// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

// packetMagic is the fixed magic value barectf packets begin with when a
// magic field is configured.
const packetMagic = 0xC1FC1FC1

// Event is one decoded event record within a packet.
type Event struct {
	Type            *EventRecordType
	Timestamp       *uint64
	CommonContext   *Struct
	SpecificContext *Struct
	Payload         *Struct
}

// Packet is the result of decoding one packet: header fields, context
// fields, and the event records it contains, in byte order.
type Packet struct {
	Stream  *DataStreamType
	Header  *Struct
	Context *Struct
	Events  []Event
}

// DecodePacket orchestrates header -> packet-context -> (event)* within
// one packet buffer, per spec.md §4.4's S0..S4 state machine. buf must
// hold exactly one packet (total_size/8 bytes); streamHint, if non-nil,
// overrides schema-driven stream selection (useful when the caller
// already knows which stream a packet belongs to).
func DecodePacket(schema *Schema, streamHint *uint64, buf []byte) (*Packet, error) {
	cur := newBitCursor(buf)

	// S0_Header
	hdrStruct := newStruct(len(schema.Trace.Header.Members))
	var streamID *uint64
	for _, m := range schema.Trace.Header.Members {
		v, err := decodeField(m.Type, cur, hdrStruct)
		if err != nil {
			return nil, err
		}
		hdrStruct.set(m.Name, v)

		switch m.Name {
		case "magic":
			u, ok := v.(UInt64)
			if !ok || uint64(u) != packetMagic {
				return nil, &DecodeError{Kind: BadMagic, BitOffset: cur.bitOffset(), Msg: "packet magic mismatch"}
			}
		case "uuid":
			if schema.Trace.UUID != nil {
				arr, ok := v.(Array)
				if !ok || !uuidEquals(arr, *schema.Trace.UUID) {
					return nil, &DecodeError{Kind: UuidMismatch, BitOffset: cur.bitOffset(), Msg: "packet uuid does not match trace uuid"}
				}
			}
		case "stream_id":
			id := valueAsUint(v)
			streamID = &id
		}
	}
	if streamHint != nil {
		streamID = streamHint
	}

	stream, err := schema.StreamByHint(streamID)
	if err != nil {
		return nil, err
	}

	// S1_PacketContext
	ctxStruct := newStruct(len(stream.PacketContext.Members))
	for _, m := range stream.PacketContext.Members {
		v, err := decodeField(m.Type, cur, ctxStruct)
		if err != nil {
			return nil, err
		}
		ctxStruct.set(m.Name, v)
	}

	packetOrigin := int64(0)
	totalSizeBits, hasTotal := lookupUint(ctxStruct, "total_size")
	contentSizeBits, hasContent := lookupUint(ctxStruct, "content_size")
	if !hasTotal {
		totalSizeBits = uint64(cur.bitLen())
	}
	if !hasContent {
		contentSizeBits = totalSizeBits
	}
	remaining := uint64(cur.bitLen() - packetOrigin)
	if contentSizeBits > totalSizeBits || totalSizeBits > remaining {
		return nil, &DecodeError{Kind: PacketSizeInvalid, BitOffset: cur.bitOffset(), Msg: "content_size/total_size out of range for packet frame"}
	}

	// S2_Events
	var events []Event
	contentEnd := packetOrigin + int64(contentSizeBits)
	for cur.bitOffset() < contentEnd {
		startOff := cur.bitOffset()
		ev, err := decodeEvent(stream, cur, contentEnd)
		if err != nil {
			if de, ok := err.(*DecodeError); ok && de.Kind == InsufficientData {
				return nil, &DecodeError{Kind: TruncatedEvent, BitOffset: startOff, Msg: "event would cross content_size boundary"}
			}
			return nil, err
		}
		if cur.bitOffset() > contentEnd {
			return nil, &DecodeError{Kind: TruncatedEvent, BitOffset: startOff, Msg: "event extends past content_size boundary"}
		}
		events = append(events, ev)
	}

	// S3_Padding
	totalEnd := packetOrigin + int64(totalSizeBits)
	if err := cur.skipTo(totalEnd); err != nil {
		return nil, err
	}

	// S4_Done
	if totalEnd != cur.bitLen() {
		return nil, &DecodeError{Kind: PacketSizeInvalid, BitOffset: cur.bitOffset(), Msg: "total_size does not match packet frame length"}
	}

	return &Packet{Stream: stream, Header: hdrStruct, Context: ctxStruct, Events: events}, nil
}

func decodeEvent(stream *DataStreamType, cur *bitCursor, contentEnd int64) (Event, error) {
	hdrStruct := newStruct(len(stream.EventHeader.Members))
	var typeID *uint64
	var timestamp *uint64
	for _, m := range stream.EventHeader.Members {
		v, err := decodeField(m.Type, cur, hdrStruct)
		if err != nil {
			return Event{}, err
		}
		hdrStruct.set(m.Name, v)
		switch m.Name {
		case "id":
			id := valueAsUint(v)
			typeID = &id
		case "timestamp":
			ts := valueAsUint(v)
			timestamp = &ts
		}
	}

	var evType *EventRecordType
	if typeID == nil {
		evType = stream.DefaultEventType
		if evType == nil {
			return Event{}, &DecodeError{Kind: UnknownEventType, BitOffset: cur.bitOffset(), Msg: "no type-id field configured and no default event type"}
		}
	} else {
		t, ok := stream.EventsByID[*typeID]
		if !ok {
			return Event{}, &DecodeError{Kind: UnknownEventType, BitOffset: cur.bitOffset(), Msg: "unknown event type id"}
		}
		evType = t
	}

	ev := Event{Type: evType, Timestamp: timestamp}

	if stream.CommonContext != nil {
		v, err := decodeField(*stream.CommonContext, cur, nil)
		if err != nil {
			return Event{}, err
		}
		ev.CommonContext = v.(*Struct)
	}
	if evType.SpecificContext != nil {
		v, err := decodeField(*evType.SpecificContext, cur, nil)
		if err != nil {
			return Event{}, err
		}
		ev.SpecificContext = v.(*Struct)
	}
	if evType.Payload != nil {
		v, err := decodeField(*evType.Payload, cur, nil)
		if err != nil {
			return Event{}, err
		}
		ev.Payload = v.(*Struct)
	}

	return ev, nil
}

func uuidEquals(a Array, b [16]byte) bool {
	if len(a) != 16 {
		return false
	}
	for i, v := range a {
		u, ok := v.(UInt64)
		if !ok || byte(u) != b[i] {
			return false
		}
	}
	return true
}

func valueAsUint(v Value) uint64 {
	switch n := v.(type) {
	case UInt64:
		return uint64(n)
	case SInt64:
		return uint64(n)
	default:
		return 0
	}
}

func lookupUint(s *Struct, name string) (uint64, bool) {
	v, ok := s.Get(name)
	if !ok {
		return 0, false
	}
	return valueAsUint(v), true
}
