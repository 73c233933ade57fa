// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import (
	"fmt"

	"github.com/go-lpc/corrctl/bitfield"
)

// Memory is a hardware memory made of length back-to-back words,
// each described by the same bitfield.
// A Memory of length 1 is a register.
//
// A Memory must not be written concurrently from multiple goroutines.
type Memory struct {
	bf   *bitfield.Bitfield
	n    int
	dir  Direction
	tr   Transport
	opts map[string]string
}

// NewMemory creates a new memory of length words.
func NewMemory(bf *bitfield.Bitfield, length int, dir Direction, tr Transport, opts ...Option) (*Memory, error) {
	if bf == nil {
		return nil, fmt.Errorf("regmap: nil bitfield")
	}
	if tr == nil {
		return nil, fmt.Errorf("regmap: %q has no transport", bf.Name())
	}
	if length < 1 {
		return nil, fmt.Errorf("regmap: %q has length %d: %w", bf.Name(), length, ErrLength)
	}

	m := &Memory{
		bf:   bf,
		n:    length,
		dir:  dir,
		tr:   tr,
		opts: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// NewRegister creates a new single-word register.
func NewRegister(bf *bitfield.Bitfield, dir Direction, tr Transport, opts ...Option) (*Memory, error) {
	return NewMemory(bf, 1, dir, tr, opts...)
}

func (m *Memory) Name() string                 { return m.bf.Name() }
func (m *Memory) Bitfield() *bitfield.Bitfield { return m.bf }
func (m *Memory) Len() int                     { return m.n }
func (m *Memory) Direction() Direction         { return m.dir }

// Size returns the size in bytes of the whole memory.
func (m *Memory) Size() int { return m.n * m.bf.Size() }

// IsRegister returns whether m holds a single word.
func (m *Memory) IsRegister() bool { return m.n == 1 }

// Option returns the value of a metadata option.
func (m *Memory) Option(k string) (string, bool) {
	v, ok := m.opts[k]
	return v, ok
}

// ReadRaw reads the raw content of the memory.
func (m *Memory) ReadRaw() ([]byte, error) {
	raw, err := m.tr.ReadRaw(m.Name(), m.Size())
	if err != nil {
		return nil, fmt.Errorf("regmap: could not read %q: %w", m.Name(), err)
	}
	if len(raw) != m.Size() {
		return nil, fmt.Errorf(
			"regmap: read %d bytes from %q, want %d: %w",
			len(raw), m.Name(), m.Size(), ErrShortRead,
		)
	}
	return raw, nil
}

// Read reads and decodes the memory.
func (m *Memory) Read() (bitfield.Columns, error) {
	raw, err := m.ReadRaw()
	if err != nil {
		return nil, err
	}
	cols, err := m.bf.Unpack(raw)
	if err != nil {
		return nil, fmt.Errorf("regmap: could not decode %q: %w", m.Name(), err)
	}
	return cols, nil
}

// Write applies the operations to the fields of a register.
//
// The current value of the register is read first so fields not named
// in ops keep their value. Pulsed fields are restored by a second write.
// Nothing is read nor written if ops names an unknown field.
func (m *Memory) Write(ops map[string]bitfield.Op) error {
	if !m.IsRegister() {
		return fmt.Errorf("regmap: could not write fields of %q (length=%d): %w", m.Name(), m.n, ErrNotRegister)
	}
	for name := range ops {
		if _, ok := m.bf.Field(name); !ok {
			return fmt.Errorf("regmap: %q has no field %q: %w", m.Name(), name, bitfield.ErrUnknownField)
		}
	}

	raw, err := m.ReadRaw()
	if err != nil {
		return err
	}

	cur, err := m.bf.Decode(raw)
	if err != nil {
		return fmt.Errorf("regmap: could not decode %q: %w", m.Name(), err)
	}

	p, err := m.bf.Pack(cur, ops)
	if err != nil {
		return fmt.Errorf("regmap: could not pack %q: %w", m.Name(), err)
	}

	err = m.tr.WriteRaw(m.Name(), p.Word)
	if err != nil {
		return fmt.Errorf("regmap: could not write %q: %w", m.Name(), err)
	}

	if p.Restore == nil {
		return nil
	}

	logger.Debug("restoring pulsed fields", "register", m.Name(), "fields", p.Pulsed)
	err = m.tr.WriteRaw(m.Name(), p.Restore)
	if err != nil {
		return fmt.Errorf("regmap: could not restore pulsed fields %q of %q: %w", p.Pulsed, m.Name(), err)
	}
	return nil
}

// WriteRaw writes the whole raw content of the memory.
func (m *Memory) WriteRaw(p []byte) error {
	if len(p) != m.Size() {
		return fmt.Errorf(
			"regmap: could not write %d bytes to %q (size=%d): %w",
			len(p), m.Name(), m.Size(), bitfield.ErrLength,
		)
	}
	err := m.tr.WriteRaw(m.Name(), p)
	if err != nil {
		return fmt.Errorf("regmap: could not write %q: %w", m.Name(), err)
	}
	return nil
}
