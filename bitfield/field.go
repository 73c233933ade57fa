// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitfield

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NumType describes how the raw bits of a Field are interpreted.
type NumType uint8

const (
	Unsigned      NumType = iota // unsigned integer
	SignedFixed                  // two's-complement fixed-point
	UnsignedFixed                // unsigned fixed-point
	Bool                         // single flag bit
)

func (nt NumType) String() string {
	switch nt {
	case Unsigned:
		return "uint"
	case SignedFixed:
		return "fix"
	case UnsignedFixed:
		return "ufix"
	case Bool:
		return "bool"
	default:
		return fmt.Sprintf("NumType(%d)", uint8(nt))
	}
}

// ParseNumType parses a numeric type code.
// Both the string codes ("uint", "fix", "ufix", "bool") and the legacy
// integer codes ("0" to "3") are accepted.
func ParseNumType(s string) (NumType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint", "unsigned":
		return Unsigned, nil
	case "fix", "signed":
		return SignedFixed, nil
	case "ufix":
		return UnsignedFixed, nil
	case "bool", "boolean":
		return Bool, nil
	}
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil || v > uint64(Bool) {
		return 0, fmt.Errorf("bitfield: invalid numeric type %q: %w", s, ErrField)
	}
	return NumType(v), nil
}

// Field describes a named sub-range of a bit-packed word.
type Field struct {
	Name     string
	Type     NumType
	Width    int // number of bits
	BinaryPt int // number of fractional bits (fixed-point only)
	Offset   int // declared position of the least significant bit, orders the layout
}

func (f Field) String() string {
	return fmt.Sprintf("%s(%d,%d,%d,%v)", f.Name, f.Offset, f.Width, f.BinaryPt, f.Type)
}

// Validate checks the field is self-consistent.
func (f Field) Validate() error {
	switch {
	case f.Name == "":
		return fmt.Errorf("bitfield: field with no name: %w", ErrField)
	case f.Width < 1 || f.Width > 64:
		return fmt.Errorf("bitfield: field %v has invalid width %d: %w", f, f.Width, ErrField)
	case f.Offset < 0:
		return fmt.Errorf("bitfield: field %v has negative offset: %w", f, ErrField)
	case f.BinaryPt < 0 || (f.BinaryPt > 0 && f.BinaryPt >= f.Width):
		return fmt.Errorf("bitfield: field %v has invalid binary point %d: %w", f, f.BinaryPt, ErrField)
	}

	switch f.Type {
	case Unsigned, SignedFixed, UnsignedFixed:
	case Bool:
		if f.Width != 1 || f.BinaryPt != 0 {
			return fmt.Errorf("bitfield: boolean field %v must be a single bit: %w", f, ErrField)
		}
	default:
		return fmt.Errorf("bitfield: field %v has unknown numeric type: %w", f, ErrField)
	}
	return nil
}

// Mask returns the mask of the field, aligned on bit 0.
func (f Field) Mask() uint64 {
	if f.Width >= 64 {
		return math.MaxUint64
	}
	return 1<<uint(f.Width) - 1
}

// Max returns the largest raw value the field can hold.
func (f Field) Max() uint64 { return f.Mask() }

// Float converts a raw value to its numeric value.
// ok is false when the value can not be represented, i.e. for signed
// fields wider than 32 bits: the raw value is then returned unscaled.
func (f Field) Float(raw uint64) (v float64, ok bool) {
	raw &= f.Mask()
	switch f.Type {
	case SignedFixed:
		if f.unscaled() {
			return float64(raw), false
		}
		shift := uint(32 - f.Width)
		s := int32(uint32(raw)<<shift) >> shift
		return math.Ldexp(float64(s), -f.BinaryPt), true
	default:
		return math.Ldexp(float64(raw), -f.BinaryPt), true
	}
}

// Encode converts a numeric value to the raw bit pattern of the field.
// Negative values of signed fields are encoded as two's-complement.
func (f Field) Encode(v float64) (uint64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("bitfield: can not encode %v into %v: %w", v, f, ErrRange)
	}

	scaled := math.Round(math.Ldexp(v, f.BinaryPt))
	switch f.Type {
	case SignedFixed:
		if f.Width > 32 {
			return 0, fmt.Errorf("bitfield: signed field %v wider than 32 bits: %w", f, ErrRange)
		}
		lo := -math.Ldexp(1, f.Width-1)
		hi := math.Ldexp(1, f.Width-1) - 1
		if scaled < lo || scaled > hi {
			return 0, fmt.Errorf("bitfield: value %v out of range for %v: %w", v, f, ErrRange)
		}
		return uint64(int64(scaled)) & f.Mask(), nil
	default:
		if scaled < 0 || scaled >= math.Ldexp(1, f.Width) {
			return 0, fmt.Errorf("bitfield: value %v out of range for %v: %w", v, f, ErrRange)
		}
		return uint64(scaled), nil
	}
}

// unscaled reports whether raw values of the field can not be converted.
func (f Field) unscaled() bool {
	return f.Type == SignedFixed && f.Width > 32
}
