// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ctf

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigErrorKind classifies a failure to compile a configuration tree
// into a Schema, per spec.md §7.
type ConfigErrorKind int

const (
	UnsupportedFeature ConfigErrorKind = iota
	BadFieldSpec
	UnknownClass
	MissingFeature
	IncludeNotFound
	DuplicateName
)

func (k ConfigErrorKind) String() string {
	switch k {
	case UnsupportedFeature:
		return "unsupported-feature"
	case BadFieldSpec:
		return "bad-field-spec"
	case UnknownClass:
		return "unknown-class"
	case MissingFeature:
		return "missing-feature"
	case IncludeNotFound:
		return "include-not-found"
	case DuplicateName:
		return "duplicate-name"
	default:
		return "unknown-config-error"
	}
}

// ConfigError reports a fatal failure to compile a configuration tree.
type ConfigError struct {
	Kind ConfigErrorKind
	Path string // dotted path into the configuration tree, best effort
	Msg  string
	Err  error // wrapped cause, if any
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config: %s at %s: %s", e.Kind, e.Path, e.Msg)
	}
	return fmt.Sprintf("config: %s: %s", e.Kind, e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func newConfigErr(kind ConfigErrorKind, path, msg string) error {
	return &ConfigError{Kind: kind, Path: path, Msg: msg}
}

func wrapConfigErr(kind ConfigErrorKind, path string, cause error) error {
	return &ConfigError{Kind: kind, Path: path, Msg: cause.Error(), Err: errors.WithStack(cause)}
}

// DecodeErrorKind classifies a failure to decode a packet, per spec.md §7.
type DecodeErrorKind int

const (
	InsufficientData DecodeErrorKind = iota
	BadMagic
	UuidMismatch
	UnknownStreamType
	UnknownEventType
	PacketSizeInvalid
	TruncatedEvent
	UnknownLengthField
	LengthFieldNotInteger
	BitsOutOfRange
	UnexpectedEof
)

func (k DecodeErrorKind) String() string {
	switch k {
	case InsufficientData:
		return "insufficient-data"
	case BadMagic:
		return "bad-magic"
	case UuidMismatch:
		return "uuid-mismatch"
	case UnknownStreamType:
		return "unknown-stream-type"
	case UnknownEventType:
		return "unknown-event-type"
	case PacketSizeInvalid:
		return "packet-size-invalid"
	case TruncatedEvent:
		return "truncated-event"
	case UnknownLengthField:
		return "unknown-length-field"
	case LengthFieldNotInteger:
		return "length-field-not-integer"
	case BitsOutOfRange:
		return "bits-out-of-range"
	case UnexpectedEof:
		return "unexpected-eof"
	default:
		return "unknown-decode-error"
	}
}

// DecodeError reports a failure to decode the current packet. Per
// spec.md §7, a DecodeError aborts only the current packet, not the
// whole stream: the caller decides whether to keep framing.
type DecodeError struct {
	Kind      DecodeErrorKind
	BitOffset int64 // bit offset at which the failure was detected, if known
	Msg       string
	Err       error
}

func (e *DecodeError) Error() string {
	if e.BitOffset != 0 {
		return fmt.Sprintf("decode: %s at bit %d: %s", e.Kind, e.BitOffset, e.Msg)
	}
	return fmt.Sprintf("decode: %s: %s", e.Kind, e.Msg)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ErrStreamDone signals that a Framer reached a clean end of stream at a
// packet boundary. It is not a DecodeError.
var ErrStreamDone = errors.New("ctf: stream done")
