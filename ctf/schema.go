// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

// TraceType is the trace-wide portion of a compiled schema: byte order,
// optional UUID, and the packet header layout derived from the trace's
// feature toggles.
type TraceType struct {
	NativeByteOrder ByteOrder
	UUID            *[16]byte // nil if the trace has no UUID

	HasMagic      bool
	HasUUIDField  bool
	HasStreamID   bool
	StreamIDDesc  FieldDesc // only meaningful if HasStreamID

	// Header is the ordered packet-header structure: magic, uuid,
	// stream-type-id, in that order, for whichever are present.
	Header StructDesc
}

// EventRecordType is one event type within a data stream's event table.
type EventRecordType struct {
	Name            string
	ID              uint64
	LogLevel        *int64
	SpecificContext *StructDesc // nil if the event has no specific context
	Payload         *StructDesc // nil if the event has no payload
}

// DataStreamType is one data stream type, keyed by numeric ID.
type DataStreamType struct {
	ID                uint64
	Name              string
	DefaultClockType  string
	PacketContext     StructDesc
	CommonContext     *StructDesc // nil if the stream has no common context
	EventHeader       StructDesc
	HasEventTypeID    bool
	HasEventTimestamp bool
	DefaultEventType  *EventRecordType // selected when no type-id field is configured
	EventsByID        map[uint64]*EventRecordType
}

// Schema is the compiled, immutable result of Compile. It owns every
// descriptor reachable from it and may be shared freely across goroutines
// and decoder instances: nothing about it is mutated after Compile
// returns.
type Schema struct {
	Trace         TraceType
	StreamsByID   map[uint64]*DataStreamType
	DefaultStream *DataStreamType // selected when no stream-type-id field is configured
}

// StreamByHint resolves the data stream type to use for a packet, given an
// optional numeric hint decoded from the packet header's stream-type-id
// field.
func (s *Schema) StreamByHint(id *uint64) (*DataStreamType, error) {
	if id == nil {
		if s.DefaultStream == nil {
			return nil, &DecodeError{Kind: UnknownStreamType, Msg: "no stream-type-id field configured and no default stream"}
		}
		return s.DefaultStream, nil
	}
	st, ok := s.StreamsByID[*id]
	if !ok {
		return nil, &DecodeError{Kind: UnknownStreamType, Msg: "unknown stream type id"}
	}
	return st, nil
}
