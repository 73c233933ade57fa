// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import (
	"fmt"

	"github.com/go-daq/smbus"
)

type smbusConn interface {
	ReadReg(addr, reg uint8) (uint8, error)
	WriteReg(addr, reg, v uint8) error
	Close() error
}

// SMBus is a Transport to the byte-wide registers of an SMBus/I2C device,
// such as the board controller of a digitiser.
//
// A register of n bytes spans n consecutive command codes, most
// significant byte first.
type SMBus struct {
	conn smbusConn
	addr uint8
	regs map[string]uint8 // register name -> command code
}

// OpenSMBus opens the device at addr on the given SMBus.
func OpenSMBus(bus int, addr uint8, regs map[string]uint8) (*SMBus, error) {
	conn, err := smbus.Open(bus, addr)
	if err != nil {
		return nil, fmt.Errorf("regmap: could not open smbus-%d device 0x%x: %w", bus, addr, err)
	}
	return newSMBus(conn, addr, regs), nil
}

func newSMBus(conn smbusConn, addr uint8, regs map[string]uint8) *SMBus {
	cmds := make(map[string]uint8, len(regs))
	for k, v := range regs {
		cmds[k] = v
	}
	return &SMBus{conn: conn, addr: addr, regs: cmds}
}

func (bus *SMBus) cmd(name string, size int) (uint8, error) {
	reg, ok := bus.regs[name]
	if !ok {
		return 0, fmt.Errorf("regmap: no smbus command for %q: %w", name, ErrNotFound)
	}
	if int(reg)+size > 0x100 {
		return 0, fmt.Errorf("regmap: %q (0x%x+%d) overflows smbus command space", name, reg, size)
	}
	return reg, nil
}

func (bus *SMBus) ReadRaw(name string, size int) ([]byte, error) {
	reg, err := bus.cmd(name, size)
	if err != nil {
		return nil, err
	}
	p := make([]byte, size)
	for i := range p {
		p[i], err = bus.conn.ReadReg(bus.addr, reg+uint8(i))
		if err != nil {
			return nil, fmt.Errorf("regmap: could not read %q byte %d: %w", name, i, err)
		}
	}
	return p, nil
}

func (bus *SMBus) WriteRaw(name string, p []byte) error {
	reg, err := bus.cmd(name, len(p))
	if err != nil {
		return err
	}
	for i, v := range p {
		err = bus.conn.WriteReg(bus.addr, reg+uint8(i), v)
		if err != nil {
			return fmt.Errorf("regmap: could not write %q byte %d: %w", name, i, err)
		}
	}
	return nil
}

func (bus *SMBus) Close() error {
	return bus.conn.Close()
}

var _ Transport = (*SMBus)(nil)
