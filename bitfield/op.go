// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitfield

import "fmt"

type opKind uint8

const (
	opSet opKind = iota
	opPulse
	opToggle
)

// Op is a write operation on a single field.
//
// The zero value sets the field to 0.
type Op struct {
	kind opKind
	v    uint64
}

var (
	// Pulse sets a field to the complement of its current value for a
	// single write. The current value is restored by a follow-up write.
	Pulse = Op{kind: opPulse}

	// Toggle sets a field to the complement of its current value.
	Toggle = Op{kind: opToggle}
)

// Set sets a field to the raw value v.
func Set(v uint64) Op { return Op{kind: opSet, v: v} }

// SetBool sets a flag field.
func SetBool(v bool) Op {
	if v {
		return Set(1)
	}
	return Set(0)
}

func (op Op) String() string {
	switch op.kind {
	case opSet:
		return fmt.Sprintf("set(0x%x)", op.v)
	case opPulse:
		return "pulse"
	case opToggle:
		return "toggle"
	default:
		return fmt.Sprintf("Op(%d)", op.kind)
	}
}
