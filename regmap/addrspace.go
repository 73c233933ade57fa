// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import (
	"fmt"
	"io"
	"os"

	"github.com/go-lpc/corrctl/internal/mmap"
)

// ReadWriterAt is a random-access address space.
type ReadWriterAt interface {
	io.ReaderAt
	io.WriterAt
}

// AddrSpace is a Transport over a random-access address space, such as a
// memory-mapped HPS-to-FPGA bus window.
type AddrSpace struct {
	rw   ReadWriterAt
	offs map[string]int64 // register name -> offset in the address space
}

// NewAddrSpace creates a transport over rw, given the offset of each
// register in the address space.
func NewAddrSpace(rw ReadWriterAt, offsets map[string]int64) *AddrSpace {
	offs := make(map[string]int64, len(offsets))
	for k, v := range offsets {
		offs[k] = v
	}
	return &AddrSpace{rw: rw, offs: offs}
}

// OpenDevMem maps span bytes of the physical memory device fname
// (usually /dev/mem), starting at base.
func OpenDevMem(fname string, base, span int64, offsets map[string]int64) (*AddrSpace, error) {
	f, err := os.OpenFile(fname, os.O_RDWR|os.O_SYNC, 0666)
	if err != nil {
		return nil, fmt.Errorf("regmap: could not open %q: %w", fname, err)
	}
	defer f.Close()

	h, err := mmap.Map(f, base, span)
	if err != nil {
		return nil, fmt.Errorf("regmap: could not map bus window: %w", err)
	}

	for name, off := range offsets {
		if off < 0 || off >= span {
			_ = h.Close()
			return nil, fmt.Errorf("regmap: %q offset 0x%x outside bus window (span=0x%x)", name, off, span)
		}
	}

	return NewAddrSpace(h, offsets), nil
}

func (as *AddrSpace) offset(name string) (int64, error) {
	off, ok := as.offs[name]
	if !ok {
		return 0, fmt.Errorf("regmap: no address for %q: %w", name, ErrNotFound)
	}
	return off, nil
}

func (as *AddrSpace) ReadRaw(name string, size int) ([]byte, error) {
	off, err := as.offset(name)
	if err != nil {
		return nil, err
	}
	p := make([]byte, size)
	n, err := as.rw.ReadAt(p, off)
	if err != nil {
		return p[:n], fmt.Errorf("regmap: could not read %q at 0x%x: %w", name, off, err)
	}
	return p, nil
}

func (as *AddrSpace) WriteRaw(name string, p []byte) error {
	off, err := as.offset(name)
	if err != nil {
		return err
	}
	_, err = as.rw.WriteAt(p, off)
	if err != nil {
		return fmt.Errorf("regmap: could not write %q at 0x%x: %w", name, off, err)
	}
	return nil
}

// Close releases the underlying address space, if it can be closed.
func (as *AddrSpace) Close() error {
	if c, ok := as.rw.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var (
	_ Transport = (*AddrSpace)(nil)
	_ io.Closer = (*AddrSpace)(nil)
)
