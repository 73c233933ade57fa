// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package conddb holds types to retrieve board register maps from the
// configuration database.
package conddb // import "github.com/go-lpc/corrctl/conddb"

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-lpc/corrctl/bitfield"
	"github.com/go-lpc/corrctl/hwdesc"
	_ "github.com/go-sql-driver/mysql"
)

const (
	host    = "localhost"
	timeout = 5 * time.Second
)

var (
	usr = "username"
	pwd = "s3cr3t"

	drvName = "mysql"
)

// ErrNotFound is returned when a board has no register in the database.
var ErrNotFound = errors.New("conddb: no such board")

// DB exposes convenience methods to easily retrieve register maps
// from the configuration database.
type DB struct {
	db   *sql.DB
	name string // name of the configuration database
}

// Open opens a connection to the configuration database dbname.
func Open(dbname string) (*DB, error) {
	db, err := sql.Open(drvName, dsn(dbname))
	if err != nil {
		return nil, fmt.Errorf("conddb: could not open %q db: %w", dbname, err)
	}

	err = ping(db, dbname)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return &DB{db: db, name: dbname}, nil
}

func dsn(db string) string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s", usr, pwd, host, db)
}

func ping(db *sql.DB, dbname string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("conddb: could not ping %q db: %w", dbname, err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// Boards returns the names of all the boards known to the database.
func (db *DB) Boards(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var names []string
	rows, err := db.db.QueryContext(ctx, "SELECT name FROM boards ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("conddb: could not run boards query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return nil, fmt.Errorf("conddb: could not scan board name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conddb: could not scan db for boards: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("conddb: context error while retrieving boards: %w", err)
	}

	return names, nil
}

const queryBoard = `
SELECT
	registers.name, registers.offset, registers.width, registers.length, registers.direction,
	fields.name, fields.numtype, fields.width, fields.binary_pt, fields.offset
FROM registers
JOIN boards      ON boards.identifier=registers.board
LEFT JOIN fields ON fields.register=registers.identifier
WHERE boards.name=?
ORDER BY registers.offset, registers.name, fields.offset DESC
`

// Board retrieves the register map of the named board.
func (db *DB) Board(ctx context.Context, name string) (*hwdesc.Board, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rows, err := db.db.QueryContext(ctx, queryBoard, name)
	if err != nil {
		return nil, fmt.Errorf("conddb: could not run board %q query: %w", name, err)
	}
	defer rows.Close()

	var (
		brd = hwdesc.Board{Name: name}
		i   = 0
	)
	for rows.Next() {
		var (
			reg hwdesc.Register
			dir sql.NullString

			fname sql.NullString
			ftype sql.NullString
			fwid  sql.NullInt64
			fbp   sql.NullInt64
			foff  sql.NullInt64
		)
		err = rows.Scan(
			&reg.Name, &reg.Offset, &reg.Width, &reg.Length, &dir,
			&fname, &ftype, &fwid, &fbp, &foff,
		)
		if err != nil {
			return nil, fmt.Errorf("conddb: could not scan row %d for board %q: %w", i, name, err)
		}
		i++
		reg.Direction = dir.String

		n := len(brd.Registers)
		if n == 0 || brd.Registers[n-1].Name != reg.Name {
			brd.Registers = append(brd.Registers, reg)
			n++
		}
		if !fname.Valid {
			continue
		}

		typ, err := bitfield.ParseNumType(ftype.String)
		if err != nil {
			return nil, fmt.Errorf("conddb: board %q register %q field %q: %w", name, reg.Name, fname.String, err)
		}
		cur := &brd.Registers[n-1]
		cur.Fields = append(cur.Fields, hwdesc.Field{
			Name:     fname.String,
			Type:     typ,
			Width:    int(fwid.Int64),
			BinaryPt: int(fbp.Int64),
			Offset:   int(foff.Int64),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("conddb: could not scan db for board %q: %w", name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("conddb: context error while retrieving board %q: %w", name, err)
	}

	if len(brd.Registers) == 0 {
		return nil, fmt.Errorf("conddb: board %q: %w", name, ErrNotFound)
	}

	err = brd.Validate()
	if err != nil {
		return nil, fmt.Errorf("conddb: invalid board %q: %w", name, err)
	}

	return &brd, nil
}
