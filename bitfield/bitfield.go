// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitfield describes FPGA registers and block memories as packed
// sequences of named, typed sub-fields, and encodes/decodes them to and from
// raw big-endian words.
package bitfield // import "github.com/go-lpc/corrctl/bitfield"

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "bitfield"})

// SetLogger sets the logger used to report degraded decodings.
func SetLogger(l *log.Logger) {
	if l == nil {
		return
	}
	logger = l
}

// Bitfield is an ordered collection of non-overlapping fields laid out
// inside a word of a fixed bit width.
//
// Fields are packed back-to-back from the most significant end of the
// word down to bit 0, in descending offset order. The declared offsets
// only order the fields: gaps between them are not kept. The remaining
// bits are padding, at the top of the word, and are always packed as zero.
type Bitfield struct {
	name   string
	width  int
	fields map[string]Field
	layout []*slot // MSB first
}

type slot struct {
	Field
	pos  int // position of the least significant bit in the packed word
	warn sync.Once
}

// New creates a new Bitfield of the given width, in bits, with an optional
// initial set of fields.
func New(name string, width int, fields ...Field) (*Bitfield, error) {
	if width <= 0 || width%8 != 0 {
		return nil, fmt.Errorf("bitfield: %q width %d is not a positive multiple of 8: %w", name, width, ErrWidth)
	}

	bf := &Bitfield{
		name:   name,
		width:  width,
		fields: make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		err := f.Validate()
		if err != nil {
			return nil, err
		}
		bf.fields[f.Name] = f
	}

	layout, err := bf.build(bf.fields)
	if err != nil {
		return nil, err
	}
	bf.layout = layout

	return bf, nil
}

func (bf *Bitfield) Name() string { return bf.name }

// Width returns the width of a word, in bits.
func (bf *Bitfield) Width() int { return bf.width }

// Size returns the size of a word, in bytes.
func (bf *Bitfield) Size() int { return bf.width / 8 }

// Padding returns the number of bits not covered by any field.
func (bf *Bitfield) Padding() int {
	pad := bf.width
	for _, s := range bf.layout {
		pad -= s.Width
	}
	return pad
}

// Field returns the named field.
func (bf *Bitfield) Field(name string) (Field, bool) {
	f, ok := bf.fields[name]
	return f, ok
}

// Position returns the bit position of the named field in a packed word,
// counted from bit 0.
func (bf *Bitfield) Position(name string) (int, bool) {
	for _, s := range bf.layout {
		if s.Name == name {
			return s.pos, true
		}
	}
	return 0, false
}

// Fields returns the fields in layout order, most significant first.
func (bf *Bitfield) Fields() []Field {
	o := make([]Field, len(bf.layout))
	for i, s := range bf.layout {
		o[i] = s.Field
	}
	return o
}

func (bf *Bitfield) String() string {
	var o strings.Builder
	fmt.Fprintf(&o, "%s[%d]{", bf.name, bf.width)
	if pad := bf.Padding(); pad > 0 {
		fmt.Fprintf(&o, "pad:%d", pad)
		if len(bf.layout) > 0 {
			o.WriteString(" ")
		}
	}
	for i, s := range bf.layout {
		if i > 0 {
			o.WriteString(" ")
		}
		o.WriteString(s.Field.String())
	}
	o.WriteString("}")
	return o.String()
}

// AddField adds f to the bitfield, replacing any field with the same name.
// The bitfield is left untouched if the new field set is invalid.
func (bf *Bitfield) AddField(f Field) error {
	err := f.Validate()
	if err != nil {
		return err
	}

	fields := bf.clone()
	fields[f.Name] = f
	return bf.update(fields)
}

// AddFields adds all the provided fields, keyed by name.
func (bf *Bitfield) AddFields(fs map[string]Field) error {
	if len(fs) == 0 {
		return fmt.Errorf("bitfield: could not add fields to %q: %w", bf.name, ErrEmpty)
	}

	fields := bf.clone()
	for name, f := range fs {
		if name != f.Name {
			return fmt.Errorf("bitfield: field key %q does not match field %v: %w", name, f, ErrField)
		}
		err := f.Validate()
		if err != nil {
			return err
		}
		fields[name] = f
	}
	return bf.update(fields)
}

func (bf *Bitfield) clone() map[string]Field {
	o := make(map[string]Field, len(bf.fields)+1)
	for k, v := range bf.fields {
		o[k] = v
	}
	return o
}

func (bf *Bitfield) update(fields map[string]Field) error {
	layout, err := bf.build(fields)
	if err != nil {
		return err
	}
	bf.fields = fields
	bf.layout = layout
	return nil
}

// build computes the packing plan of the provided fields.
func (bf *Bitfield) build(fields map[string]Field) ([]*slot, error) {
	var (
		layout = make([]*slot, 0, len(fields))
		sum    = 0
	)
	for _, f := range fields {
		layout = append(layout, &slot{Field: f})
		sum += f.Width
	}
	sort.Slice(layout, func(i, j int) bool {
		if layout[i].Offset != layout[j].Offset {
			return layout[i].Offset > layout[j].Offset
		}
		return layout[i].Name < layout[j].Name
	})

	for i, s := range layout {
		if s.Offset+s.Width > bf.width {
			return nil, fmt.Errorf(
				"bitfield: %q field %v extends past bit %d: %w",
				bf.name, s.Field, bf.width-1, ErrOverflow,
			)
		}
		if i == 0 {
			continue
		}
		prev := layout[i-1]
		if s.Offset+s.Width > prev.Offset {
			return nil, fmt.Errorf(
				"bitfield: %q fields %v and %v overlap: %w",
				bf.name, prev.Field, s.Field, ErrOverlap,
			)
		}
	}

	if pad := bf.width - sum; pad < 0 {
		return nil, fmt.Errorf(
			"bitfield: %q fields span %d bits, width is %d: %w",
			bf.name, sum, bf.width, ErrOverflow,
		)
	}

	pos := sum
	for _, s := range layout {
		pos -= s.Width
		s.pos = pos
	}

	return layout, nil
}

// Decode decodes a single word into the raw value of each field.
func (bf *Bitfield) Decode(word []byte) (map[string]uint64, error) {
	if len(word) != bf.Size() {
		return nil, fmt.Errorf(
			"bitfield: %q could not decode %d bytes (word size=%d): %w",
			bf.name, len(word), bf.Size(), ErrLength,
		)
	}

	o := make(map[string]uint64, len(bf.layout))
	for _, s := range bf.layout {
		o[s.Name] = getBits(word, s.pos, s.Width)
	}
	return o, nil
}

// Encode packs the raw value of each field into a word.
// Fields missing from vs are packed as zero.
func (bf *Bitfield) Encode(vs map[string]uint64) ([]byte, error) {
	p, err := bf.Pack(vs, nil)
	if err != nil {
		return nil, err
	}
	return p.Word, nil
}

// Unpack decodes one or more back-to-back words.
// The length of raw must be a non-zero multiple of the word size.
// Each field of the returned columns holds one value per word, in order.
func (bf *Bitfield) Unpack(raw []byte) (Columns, error) {
	sz := bf.Size()
	if len(raw) == 0 || len(raw)%sz != 0 {
		return nil, fmt.Errorf(
			"bitfield: %q could not unpack %d bytes (word size=%d): %w",
			bf.name, len(raw), sz, ErrLength,
		)
	}

	var (
		n    = len(raw) / sz
		vals = make([][]uint64, len(bf.layout))
	)
	for i := range vals {
		vals[i] = make([]uint64, n)
	}

	for i := 0; i < n; i++ {
		word := raw[i*sz : (i+1)*sz]
		for j, s := range bf.layout {
			vals[j][i] = getBits(word, s.pos, s.Width)
		}
	}

	cols := make(Columns, len(bf.layout))
	for j, s := range bf.layout {
		col := Column{
			Field: s.Field,
			Raw:   vals[j],
			warn:  &s.warn,
			owner: bf.name,
		}
		if s.unscaled() {
			col.degraded()
		}
		cols[s.Name] = col
	}
	return cols, nil
}

// Packed is the result of packing field values into a word.
type Packed struct {
	Word    []byte   // word to write
	Restore []byte   // follow-up word restoring pulsed fields, nil if none
	Pulsed  []string // names of pulsed fields, in layout order
}

// Pack builds a word from the current raw field values and a set of
// per-field operations.
//
// Fields missing from cur are taken as zero.
// No word is built if ops refers to an unknown field.
func (bf *Bitfield) Pack(cur map[string]uint64, ops map[string]Op) (Packed, error) {
	for name := range ops {
		if _, ok := bf.fields[name]; !ok {
			return Packed{}, fmt.Errorf("bitfield: %q has no field %q: %w", bf.name, name, ErrUnknownField)
		}
	}
	for name, v := range cur {
		f, ok := bf.fields[name]
		if !ok {
			return Packed{}, fmt.Errorf("bitfield: %q has no field %q: %w", bf.name, name, ErrUnknownField)
		}
		if v > f.Max() {
			return Packed{}, fmt.Errorf("bitfield: value 0x%x does not fit %v: %w", v, f, ErrRange)
		}
	}

	var (
		word   = make([]byte, bf.Size())
		pulsed []string
	)
	for _, s := range bf.layout {
		v := cur[s.Name]
		if op, ok := ops[s.Name]; ok {
			switch op.kind {
			case opSet:
				if op.v > s.Max() {
					return Packed{}, fmt.Errorf("bitfield: value 0x%x does not fit %v: %w", op.v, s.Field, ErrRange)
				}
				v = op.v
			case opToggle:
				v = not(v)
			case opPulse:
				v = not(v)
				pulsed = append(pulsed, s.Name)
			default:
				panic(fmt.Errorf("bitfield: invalid op kind %d", op.kind))
			}
		}
		setBits(word, s.pos, s.Width, v)
	}

	p := Packed{Word: word, Pulsed: pulsed}
	if len(pulsed) > 0 {
		p.Restore = make([]byte, len(word))
		copy(p.Restore, word)
		for _, s := range bf.layout {
			if op, ok := ops[s.Name]; ok && op.kind == opPulse {
				setBits(p.Restore, s.pos, s.Width, cur[s.Name])
			}
		}
	}
	return p, nil
}

func not(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	return 0
}

// getBits extracts width bits starting at bit off (LSB-relative) of the
// big-endian word.
func getBits(word []byte, off, width int) uint64 {
	var (
		v uint64
		n = len(word)
	)
	for i := width - 1; i >= 0; i-- {
		bit := off + i
		v = v<<1 | uint64(word[n-1-bit/8]>>uint(bit%8)&1)
	}
	return v
}

func setBits(word []byte, off, width int, v uint64) {
	n := len(word)
	for i := 0; i < width; i++ {
		var (
			bit  = off + i
			idx  = n - 1 - bit/8
			mask = byte(1) << uint(bit%8)
		)
		if (v>>uint(i))&1 == 1 {
			word[idx] |= mask
		} else {
			word[idx] &^= mask
		}
	}
}
