// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mmap provides access to memory-mapped bus windows.
package mmap // import "github.com/go-lpc/corrctl/internal/mmap"

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sys/unix"
)

var (
	errClosed = errors.New("mmap: closed")
)

// Handle is a memory-mapped bus window.
type Handle struct {
	data []byte
	base int64
}

// Map maps span bytes of f, starting at the physical address base.
func Map(f *os.File, base, span int64) (*Handle, error) {
	if span <= 0 {
		return nil, fmt.Errorf("mmap: invalid span %d", span)
	}
	data, err := unix.Mmap(
		int(f.Fd()), base, int(span),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap: could not map 0x%x+0x%x from %q: %w", base, span, f.Name(), err)
	}
	if int64(len(data)) != span {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("mmap: invalid mmap'd window size: %d", len(data))
	}
	h := HandleFrom(data)
	h.base = base
	return h, nil
}

// HandleFrom wraps an already mapped window.
func HandleFrom(data []byte) *Handle {
	h := &Handle{data: data}
	runtime.SetFinalizer(h, (*Handle).Close)
	return h
}

// Close unmaps the window.
func (h *Handle) Close() error {
	if h == nil {
		return os.ErrInvalid
	}

	if h.data == nil {
		return nil
	}
	data := h.data
	h.data = nil
	runtime.SetFinalizer(h, nil)

	return unix.Munmap(data)
}

// Base returns the physical address of the start of the window.
func (h *Handle) Base() int64 { return h.base }

// Len returns the size of the window.
func (h *Handle) Len() int {
	return len(h.data)
}

// ReadAt reads len(p) bytes at offset off of the window.
// Partial reads past the end of the window are errors.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if err := h.check(off); err != nil {
		return 0, fmt.Errorf("mmap: invalid ReadAt: %w", err)
	}
	n := copy(p, h.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// WriteAt writes p at offset off of the window.
func (h *Handle) WriteAt(p []byte, off int64) (int, error) {
	if err := h.check(off); err != nil {
		return 0, fmt.Errorf("mmap: invalid WriteAt: %w", err)
	}
	n := copy(h.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

func (h *Handle) check(off int64) error {
	switch {
	case h == nil:
		return os.ErrInvalid
	case h.data == nil:
		return errClosed
	case off < 0 || int64(len(h.data)) < off:
		return fmt.Errorf("offset %d out of window [0, %d)", off, len(h.data))
	}
	return nil
}

var (
	_ io.ReaderAt = (*Handle)(nil)
	_ io.WriterAt = (*Handle)(nil)
	_ io.Closer   = (*Handle)(nil)
)
