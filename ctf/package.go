// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ctf compiles a barectf-style effective configuration into a
// schema and decodes CTF binary trace packets against it.
//
// Compiling a configuration starts with a call to Compile, which turns an
// already-parsed configuration tree (see the ctfconfig package for turning
// YAML text into such a tree) into a *Schema. Packets are then decoded one
// at a time with DecodePacket, or streamed from a transport with a Framer.
package ctf // import "github.com/tracekit/ctftrace/ctf"
