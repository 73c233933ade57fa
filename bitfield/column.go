// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitfield

import "sync"

// Columns holds unpacked words, keyed by field name.
type Columns map[string]Column

// Len returns the number of words held by the columns.
func (cols Columns) Len() int {
	for _, col := range cols {
		return col.Len()
	}
	return 0
}

// Column holds the raw values of a field, one per unpacked word.
type Column struct {
	Field Field
	Raw   []uint64

	warn  *sync.Once
	owner string
}

func (col Column) Len() int { return len(col.Raw) }

func (col Column) Uint(i int) uint64 { return col.Raw[i] }

func (col Column) Bool(i int) bool { return col.Raw[i] != 0 }

// Float returns the i-th value, scaled by the binary point of the field.
// Signed fields wider than 32 bits are returned unscaled.
func (col Column) Float(i int) float64 {
	v, ok := col.Field.Float(col.Raw[i])
	if !ok {
		col.degraded()
	}
	return v
}

// Value returns the i-th value with its natural Go type:
// bool for flags, uint64 for plain unsigned integers and float64 otherwise.
func (col Column) Value(i int) any {
	switch {
	case col.Field.Type == Bool:
		return col.Bool(i)
	case col.Field.Type == Unsigned && col.Field.BinaryPt == 0:
		return col.Uint(i)
	default:
		return col.Float(i)
	}
}

func (col Column) Uints() []uint64 {
	o := make([]uint64, len(col.Raw))
	copy(o, col.Raw)
	return o
}

func (col Column) Bools() []bool {
	o := make([]bool, len(col.Raw))
	for i := range o {
		o[i] = col.Bool(i)
	}
	return o
}

func (col Column) Floats() []float64 {
	o := make([]float64, len(col.Raw))
	for i := range o {
		o[i] = col.Float(i)
	}
	return o
}

func (col Column) Values() []any {
	o := make([]any, len(col.Raw))
	for i := range o {
		o[i] = col.Value(i)
	}
	return o
}

func (col Column) degraded() {
	warn := func() {
		logger.Warn(
			"signed field wider than 32 bits, returning raw value",
			"bitfield", col.owner, "field", col.Field.String(),
		)
	}
	if col.warn == nil {
		warn()
		return
	}
	col.warn.Do(warn)
}
