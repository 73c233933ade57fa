// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package regmap binds bitfield layouts to hardware registers and block
// memories, and reads/writes them through a raw byte transport.
package regmap // import "github.com/go-lpc/corrctl/regmap"

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "regmap"})

// SetLogger sets the logger of the package.
func SetLogger(l *log.Logger) {
	if l == nil {
		return
	}
	logger = l
}

var (
	ErrLength      = errors.New("regmap: invalid memory length")
	ErrShortRead   = errors.New("regmap: invalid raw read size")
	ErrNotRegister = errors.New("regmap: not a single-word register")
	ErrNotFound    = errors.New("regmap: no such register")
	ErrDuplicate   = errors.New("regmap: duplicate register")
)

// Transport reads and writes the raw content of named registers and
// memories.
type Transport interface {
	// ReadRaw reads size bytes from the named register.
	ReadRaw(name string, size int) ([]byte, error)
	// WriteRaw writes p, a big-endian value, to the named register.
	WriteRaw(name string, p []byte) error
}

// Direction describes the direction of the data flow between the FPGA
// fabric and the host processor.
type Direction uint8

const (
	Bidirectional Direction = iota
	ToProcessor
	FromProcessor
)

func (dir Direction) String() string {
	switch dir {
	case Bidirectional:
		return "bidirectional"
	case ToProcessor:
		return "to_processor"
	case FromProcessor:
		return "from_processor"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(dir))
	}
}

// ParseDirection parses a direction name.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bidirectional", "inout", "rw":
		return Bidirectional, nil
	case "to_processor", "in", "ro":
		return ToProcessor, nil
	case "from_processor", "out", "wo":
		return FromProcessor, nil
	}
	return 0, fmt.Errorf("regmap: invalid direction %q", s)
}

// Option configures a Memory.
type Option func(*Memory)

// WithOptions attaches free-form metadata to a Memory.
func WithOptions(kvs map[string]string) Option {
	return func(m *Memory) {
		for k, v := range kvs {
			m.opts[k] = v
		}
	}
}
