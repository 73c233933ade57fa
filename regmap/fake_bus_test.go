// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import (
	"fmt"
	"io"
	"sync"
)

// fakeBus is an in-memory transport recording all raw accesses.
type fakeBus struct {
	mu     sync.Mutex
	mem    map[string][]byte
	reads  int
	writes [][]byte
	short  bool // return truncated reads
}

func newFakeBus(mem map[string][]byte) *fakeBus {
	return &fakeBus{mem: mem}
}

func (bus *fakeBus) ReadRaw(name string, size int) ([]byte, error) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	bus.reads++
	v, ok := bus.mem[name]
	if !ok {
		return nil, fmt.Errorf("fake: no register %q", name)
	}
	if bus.short {
		size--
	}
	if size > len(v) {
		size = len(v)
	}
	o := make([]byte, size)
	copy(o, v)
	return o, nil
}

func (bus *fakeBus) WriteRaw(name string, p []byte) error {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	if _, ok := bus.mem[name]; !ok {
		return fmt.Errorf("fake: no register %q", name)
	}
	v := make([]byte, len(p))
	copy(v, p)
	bus.writes = append(bus.writes, v)
	bus.mem[name] = v
	return nil
}

// ram is a random-access address space held in memory.
type ram []byte

func (r ram) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(r)) {
		return 0, fmt.Errorf("ram: invalid offset %d", off)
	}
	n := copy(p, r[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (r ram) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(r)) {
		return 0, fmt.Errorf("ram: invalid offset %d", off)
	}
	n := copy(r[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// fakeSMBus is an in-memory SMBus device.
type fakeSMBus struct {
	addr   uint8
	regs   [256]uint8
	closed bool
}

func (dev *fakeSMBus) ReadReg(addr, reg uint8) (uint8, error) {
	if addr != dev.addr {
		return 0, fmt.Errorf("fake-smbus: no device at 0x%x", addr)
	}
	return dev.regs[reg], nil
}

func (dev *fakeSMBus) WriteReg(addr, reg, v uint8) error {
	if addr != dev.addr {
		return fmt.Errorf("fake-smbus: no device at 0x%x", addr)
	}
	dev.regs[reg] = v
	return nil
}

func (dev *fakeSMBus) Close() error {
	dev.closed = true
	return nil
}
