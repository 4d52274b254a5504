// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// openTransport opens path for the dump subcommand, either as a plain
// buffered file (the common case) or, when useMmap is set, as a
// read-only memory map handed to the Framer as a bytes.Reader.
func openTransport(path string, useMmap bool) (r io.Reader, closeFn func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "opening %s", path)
	}
	if !useMmap {
		return f, func() { f.Close() }, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "mapping %s", path)
	}
	closeFn = func() {
		data.Unmap()
		f.Close()
	}
	return bytes.NewReader(data), closeFn, nil
}
