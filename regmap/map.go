// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regmap

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-lpc/corrctl/bitfield"
	"golang.org/x/sync/errgroup"
)

// Map holds the registers and memories of a board, keyed by name.
type Map struct {
	board string
	mems  map[string]*Memory
}

func NewMap(board string) *Map {
	return &Map{
		board: board,
		mems:  make(map[string]*Memory),
	}
}

func (m *Map) Board() string { return m.board }

// Add adds a memory to the map.
func (m *Map) Add(mem *Memory) error {
	if _, dup := m.mems[mem.Name()]; dup {
		return fmt.Errorf("regmap: board %q already has %q: %w", m.board, mem.Name(), ErrDuplicate)
	}
	m.mems[mem.Name()] = mem
	return nil
}

// Lookup returns the named memory.
func (m *Map) Lookup(name string) (*Memory, error) {
	mem, ok := m.mems[name]
	if !ok {
		return nil, fmt.Errorf("regmap: board %q has no %q: %w", m.board, name, ErrNotFound)
	}
	return mem, nil
}

// Names returns the sorted names of all the memories of the map.
func (m *Map) Names() []string {
	names := make([]string, 0, len(m.mems))
	for name := range m.mems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Read reads and decodes the named memory.
func (m *Map) Read(name string) (bitfield.Columns, error) {
	mem, err := m.Lookup(name)
	if err != nil {
		return nil, err
	}
	return mem.Read()
}

// Write applies the operations to the fields of the named register.
func (m *Map) Write(name string, ops map[string]bitfield.Op) error {
	mem, err := m.Lookup(name)
	if err != nil {
		return err
	}
	return mem.Write(ops)
}

// Each runs f once per board, concurrently, with one worker per board.
// Each call is given at most timeout to complete (no limit if timeout is 0).
// The first error cancels the context passed to the other workers.
func Each(ctx context.Context, maps []*Map, timeout time.Duration, f func(ctx context.Context, m *Map) error) error {
	grp, ctx := errgroup.WithContext(ctx)
	for i := range maps {
		m := maps[i]
		grp.Go(func() error {
			ctx := ctx
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			errc := make(chan error, 1)
			go func() {
				errc <- f(ctx, m)
			}()

			select {
			case err := <-errc:
				if err != nil {
					return fmt.Errorf("regmap: board %q: %w", m.board, err)
				}
				logger.Debug("board done", "board", m.board)
				return nil
			case <-ctx.Done():
				return fmt.Errorf("regmap: board %q: %w", m.board, ctx.Err())
			}
		})
	}
	return grp.Wait()
}
