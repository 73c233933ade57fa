// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hwdesc describes the register map of a board: its registers,
// memories and their bitfield layouts.
package hwdesc // import "github.com/go-lpc/corrctl/hwdesc"

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-lpc/corrctl/bitfield"
	"github.com/go-lpc/corrctl/regmap"
	"gopkg.in/yaml.v3"
)

const (
	defaultWidth  = 32
	defaultLength = 1
)

// Board is the register map of a board.
type Board struct {
	Name      string     `yaml:"board"`
	Registers []Register `yaml:"registers"`
}

// Register describes a register (length 1) or a block memory.
type Register struct {
	Name      string            `yaml:"name"`
	Offset    int64             `yaml:"offset"`
	Width     int               `yaml:"width,omitempty"`  // word width, in bits
	Length    int               `yaml:"length,omitempty"` // number of words
	Direction string            `yaml:"direction,omitempty"`
	Options   map[string]string `yaml:"options,omitempty"`
	Fields    []Field           `yaml:"fields"`
}

// Field describes a bitfield of a register.
type Field struct {
	Name     string           `yaml:"name"`
	Type     bitfield.NumType `yaml:"type"`
	Width    int              `yaml:"width"`
	BinaryPt int              `yaml:"binary_pt,omitempty"`
	Offset   int              `yaml:"offset"`
}

// UnmarshalYAML decodes a field, accepting both string and integer
// numeric type codes.
func (f *Field) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		Name     string    `yaml:"name"`
		Type     yaml.Node `yaml:"type"`
		Width    int       `yaml:"width"`
		BinaryPt int       `yaml:"binary_pt"`
		Offset   int       `yaml:"offset"`
	}
	err := node.Decode(&raw)
	if err != nil {
		return err
	}

	typ := bitfield.Unsigned
	if raw.Type.Kind != 0 {
		typ, err = bitfield.ParseNumType(raw.Type.Value)
		if err != nil {
			return fmt.Errorf("hwdesc: field %q (line %d): %w", raw.Name, node.Line, err)
		}
	}

	*f = Field{
		Name:     raw.Name,
		Type:     typ,
		Width:    raw.Width,
		BinaryPt: raw.BinaryPt,
		Offset:   raw.Offset,
	}
	return nil
}

// MarshalYAML encodes a field with its string numeric type code.
func (f Field) MarshalYAML() (any, error) {
	return struct {
		Name     string `yaml:"name"`
		Type     string `yaml:"type"`
		Width    int    `yaml:"width"`
		BinaryPt int    `yaml:"binary_pt,omitempty"`
		Offset   int    `yaml:"offset"`
	}{f.Name, f.Type.String(), f.Width, f.BinaryPt, f.Offset}, nil
}

func (f Field) bitfield() bitfield.Field {
	return bitfield.Field{
		Name:     f.Name,
		Type:     f.Type,
		Width:    f.Width,
		BinaryPt: f.BinaryPt,
		Offset:   f.Offset,
	}
}

// Decode reads a YAML board description from r.
func Decode(r io.Reader) (*Board, error) {
	var brd Board
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err := dec.Decode(&brd)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("hwdesc: could not decode board description: %w", err)
	}

	err = brd.Validate()
	if err != nil {
		return nil, err
	}
	return &brd, nil
}

// Load reads the YAML board description file fname.
func Load(fname string) (*Board, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, fmt.Errorf("hwdesc: could not open board description: %w", err)
	}
	defer f.Close()

	brd, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("hwdesc: could not load %q: %w", fname, err)
	}
	return brd, nil
}

// Encode writes the YAML board description to w.
func (brd *Board) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	err := enc.Encode(brd)
	if err != nil {
		return fmt.Errorf("hwdesc: could not encode board %q: %w", brd.Name, err)
	}
	return enc.Close()
}

// Validate checks every register of the board has a valid layout.
func (brd *Board) Validate() error {
	if brd.Name == "" {
		return fmt.Errorf("hwdesc: board with no name")
	}
	names := make(map[string]struct{}, len(brd.Registers))
	for _, reg := range brd.Registers {
		if _, dup := names[reg.Name]; dup {
			return fmt.Errorf("hwdesc: board %q: duplicate register %q", brd.Name, reg.Name)
		}
		names[reg.Name] = struct{}{}

		_, err := reg.Bitfield()
		if err != nil {
			return fmt.Errorf("hwdesc: board %q: %w", brd.Name, err)
		}
		if _, err := regmap.ParseDirection(reg.Direction); err != nil {
			return fmt.Errorf("hwdesc: board %q: register %q: %w", brd.Name, reg.Name, err)
		}
		if reg.Length < 0 {
			return fmt.Errorf("hwdesc: board %q: register %q has negative length", brd.Name, reg.Name)
		}
	}
	return nil
}

func (reg Register) width() int {
	if reg.Width == 0 {
		return defaultWidth
	}
	return reg.Width
}

func (reg Register) length() int {
	if reg.Length == 0 {
		return defaultLength
	}
	return reg.Length
}

// Bitfield builds the bitfield layout of a word of the register.
func (reg Register) Bitfield() (*bitfield.Bitfield, error) {
	fields := make([]bitfield.Field, len(reg.Fields))
	for i, f := range reg.Fields {
		fields[i] = f.bitfield()
	}
	return bitfield.New(reg.Name, reg.width(), fields...)
}

// Offsets returns the address offset of each register of the board.
func (brd *Board) Offsets() map[string]int64 {
	o := make(map[string]int64, len(brd.Registers))
	for _, reg := range brd.Registers {
		o[reg.Name] = reg.Offset
	}
	return o
}

// Build creates the register map of the board, accessed through tr.
func (brd *Board) Build(tr regmap.Transport) (*regmap.Map, error) {
	m := regmap.NewMap(brd.Name)
	for _, reg := range brd.Registers {
		bf, err := reg.Bitfield()
		if err != nil {
			return nil, fmt.Errorf("hwdesc: board %q: %w", brd.Name, err)
		}
		dir, err := regmap.ParseDirection(reg.Direction)
		if err != nil {
			return nil, fmt.Errorf("hwdesc: board %q: register %q: %w", brd.Name, reg.Name, err)
		}
		mem, err := regmap.NewMemory(bf, reg.length(), dir, tr, regmap.WithOptions(reg.Options))
		if err != nil {
			return nil, fmt.Errorf("hwdesc: board %q: %w", brd.Name, err)
		}
		err = m.Add(mem)
		if err != nil {
			return nil, fmt.Errorf("hwdesc: board %q: %w", brd.Name, err)
		}
	}
	return m, nil
}
