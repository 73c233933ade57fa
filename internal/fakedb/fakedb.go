// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fakedb holds types to fake an in-memory DB.
//
// Queries are served, in order, from the result sets handed to Run.
package fakedb // import "github.com/go-lpc/corrctl/internal/fakedb"

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrExhausted is returned when a query is issued with no result set left.
var ErrExhausted = errors.New("fakedb: no result set left")

var session struct {
	mu    sync.Mutex // serializes Run calls
	state sync.Mutex // guards queue and log
	queue []Rows
	log   []Query
}

// Query is a query issued against the fake database.
type Query struct {
	SQL  string
	Args []driver.Value
}

// Run executes f with the fake database serving results, one per query.
// Run returns the queries f issued.
func Run(ctx context.Context, f func(ctx context.Context) error, results ...Rows) ([]Query, error) {
	session.mu.Lock()
	defer session.mu.Unlock()

	session.state.Lock()
	session.queue = append([]Rows(nil), results...)
	session.log = nil
	session.state.Unlock()

	err := f(ctx)

	session.state.Lock()
	defer session.state.Unlock()
	return session.log, err
}

func next(query string, args []driver.Value) (*Rows, error) {
	session.state.Lock()
	defer session.state.Unlock()

	session.log = append(session.log, Query{SQL: query, Args: args})
	if len(session.queue) == 0 {
		return nil, fmt.Errorf("fakedb: query %q: %w", query, ErrExhausted)
	}
	rows := session.queue[0]
	session.queue = session.queue[1:]
	if rows.Err != nil {
		return nil, rows.Err
	}
	rows.Values = append([][]driver.Value(nil), rows.Values...)
	return &rows, nil
}

func init() {
	sql.Register("fakedb", &Driver{})
}

type Driver struct{}

// Open returns a new connection to the database.
func (drv *Driver) Open(name string) (driver.Conn, error) {
	return &Conn{}, nil
}

type Conn struct{}

// Prepare returns a prepared statement, bound to this connection.
func (c *Conn) Prepare(query string) (driver.Stmt, error) {
	return &Stmt{query: query}, nil
}

func (c *Conn) Close() error {
	return nil
}

func (c *Conn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("fakedb: transactions not supported")
}

type Stmt struct {
	query string
}

func (stmt *Stmt) Close() error {
	return nil
}

// NumInput returns -1: placeholders are not checked.
func (stmt *Stmt) NumInput() int {
	return -1
}

func (stmt *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	return nil, fmt.Errorf("fakedb: exec not supported")
}

func (stmt *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	return next(stmt.query, args)
}

func (stmt *Stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vs := make([]driver.Value, len(args))
	for i, arg := range args {
		vs[i] = arg.Value
	}
	return next(stmt.query, vs)
}

// Rows is a result set. A non-nil Err fails the query instead.
type Rows struct {
	Names  []string
	Values [][]driver.Value
	Err    error
}

func (rows *Rows) Columns() []string {
	return rows.Names
}

func (rows *Rows) Close() error {
	return nil
}

// Next populates dest with the next row, or returns io.EOF.
func (rows *Rows) Next(dest []driver.Value) error {
	if len(rows.Values) == 0 {
		return io.EOF
	}
	copy(dest, rows.Values[0])
	rows.Values = rows.Values[1:]
	return nil
}

var (
	_ driver.Driver           = (*Driver)(nil)
	_ driver.Conn             = (*Conn)(nil)
	_ driver.Stmt             = (*Stmt)(nil)
	_ driver.StmtQueryContext = (*Stmt)(nil)
	_ driver.Rows             = (*Rows)(nil)
)
