// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bitfield

import "errors"

var (
	ErrField        = errors.New("bitfield: invalid field")
	ErrWidth        = errors.New("bitfield: invalid bitfield width")
	ErrEmpty        = errors.New("bitfield: empty field collection")
	ErrOverlap      = errors.New("bitfield: overlapping fields")
	ErrOverflow     = errors.New("bitfield: fields overflow bitfield width")
	ErrLength       = errors.New("bitfield: invalid raw data length")
	ErrUnknownField = errors.New("bitfield: unknown field")
	ErrRange        = errors.New("bitfield: value out of range")
)
