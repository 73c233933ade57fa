// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package conddb

import (
	"context"
	"database/sql/driver"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/go-lpc/corrctl/bitfield"
	"github.com/go-lpc/corrctl/hwdesc"
	"github.com/go-lpc/corrctl/internal/fakedb"
)

func init() {
	drvName = "fakedb"
}

var boardColumns = []string{
	"name", "offset", "width", "length", "direction",
	"name", "numtype", "width", "binary_pt", "offset",
}

func TestOpen(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()
}

func TestBoards(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	_, err = fakedb.Run(context.Background(), func(ctx context.Context) error {
		names, err := db.Boards(ctx)
		if err != nil {
			t.Fatalf("could not retrieve boards: %+v", err)
		}

		if got, want := names, []string{"fengine-0", "xengine-3"}; !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid boards:\ngot= %q\nwant=%q", got, want)
		}
		return nil
	}, fakedb.Rows{
		Names: []string{"name"},
		Values: [][]driver.Value{
			{"fengine-0"},
			{"xengine-3"},
		},
	})
	if err != nil {
		t.Fatalf("could not run fake db: %+v", err)
	}
}

func TestBoard(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	want := &hwdesc.Board{
		Name: "fengine-0",
		Registers: []hwdesc.Register{
			{
				Name: "ctrl", Offset: 0, Width: 32, Length: 1, Direction: "bidirectional",
				Fields: []hwdesc.Field{
					{Name: "sys_rst", Type: bitfield.Bool, Width: 1, Offset: 31},
					{Name: "gain", Type: bitfield.UnsignedFixed, Width: 16, BinaryPt: 8, Offset: 0},
				},
			},
			{
				Name: "scratch", Offset: 4, Width: 32, Length: 1, Direction: "",
			},
			{
				Name: "adc_snap", Offset: 0x100, Width: 32, Length: 1024, Direction: "to_processor",
				Fields: []hwdesc.Field{
					{Name: "re", Type: bitfield.SignedFixed, Width: 16, BinaryPt: 15, Offset: 16},
					{Name: "im", Type: bitfield.SignedFixed, Width: 16, BinaryPt: 15, Offset: 0},
				},
			},
		},
	}

	queries, err := fakedb.Run(context.Background(), func(ctx context.Context) error {
		brd, err := db.Board(ctx, "fengine-0")
		if err != nil {
			t.Fatalf("could not retrieve board: %+v", err)
		}

		if got, want := brd, want; !reflect.DeepEqual(got, want) {
			t.Fatalf("invalid board:\ngot= %#v\nwant=%#v", got, want)
		}
		return nil
	}, fakedb.Rows{
		Names: boardColumns,
		Values: [][]driver.Value{
			{"ctrl", int64(0), int64(32), int64(1), "bidirectional", "sys_rst", "bool", int64(1), int64(0), int64(31)},
			{"ctrl", int64(0), int64(32), int64(1), "bidirectional", "gain", "ufix", int64(16), int64(8), int64(0)},
			{"scratch", int64(4), int64(32), int64(1), nil, nil, nil, nil, nil, nil},
			{"adc_snap", int64(0x100), int64(32), int64(1024), "to_processor", "re", int64(1), int64(16), int64(15), int64(16)},
			{"adc_snap", int64(0x100), int64(32), int64(1024), "to_processor", "im", "fix", int64(16), int64(15), int64(0)},
		},
	})
	if err != nil {
		t.Fatalf("could not run fake db: %+v", err)
	}

	if got, want := len(queries), 1; got != want {
		t.Fatalf("invalid number of queries: got=%d, want=%d", got, want)
	}
	if got, want := queries[0].Args, []driver.Value{"fengine-0"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("invalid query args: got=%v, want=%v", got, want)
	}
	if !strings.Contains(queries[0].SQL, "LEFT JOIN fields") {
		t.Fatalf("invalid query:\n%s", queries[0].SQL)
	}
}

func TestBoardErrors(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	errBoom := errors.New("boom")

	for _, tc := range []struct {
		name string
		rows fakedb.Rows
		want error
		msg  string
	}{
		{
			name: "not-found",
			rows: fakedb.Rows{Names: boardColumns},
			want: ErrNotFound,
		},
		{
			name: "query",
			rows: fakedb.Rows{Err: errBoom},
			want: errBoom,
		},
		{
			name: "numtype",
			rows: fakedb.Rows{
				Names: boardColumns,
				Values: [][]driver.Value{
					{"ctrl", int64(0), int64(32), int64(1), "", "x", "float", int64(4), int64(0), int64(0)},
				},
			},
			want: bitfield.ErrField,
		},
		{
			name: "overlap",
			rows: fakedb.Rows{
				Names: boardColumns,
				Values: [][]driver.Value{
					{"ctrl", int64(0), int64(32), int64(1), "", "x", "uint", int64(4), int64(0), int64(0)},
					{"ctrl", int64(0), int64(32), int64(1), "", "y", "uint", int64(4), int64(0), int64(2)},
				},
			},
			want: bitfield.ErrOverlap,
		},
		{
			name: "direction",
			rows: fakedb.Rows{
				Names: boardColumns,
				Values: [][]driver.Value{
					{"ctrl", int64(0), int64(32), int64(1), "sideways", nil, nil, nil, nil, nil},
				},
			},
			msg: `invalid direction "sideways"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fakedb.Run(context.Background(), func(ctx context.Context) error {
				_, err := db.Board(ctx, "fengine-0")
				return err
			}, tc.rows)
			if err == nil {
				t.Fatalf("expected an error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("invalid error: got=%+v, want=%+v", err, tc.want)
			}
			if tc.msg != "" && !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("invalid error: got=%q, want=%q", err.Error(), tc.msg)
			}
		})
	}
}

func TestQueryContext(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	const query = "SELECT COUNT(*) FROM registers"

	queries, err := fakedb.Run(context.Background(), func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, query)
		if err != nil {
			t.Fatalf("could not execute query %q: %+v", query, err)
		}
		defer rows.Close()

		var n int64
		for rows.Next() {
			err = rows.Scan(&n)
			if err != nil {
				t.Fatalf("could not scan count: %+v", err)
			}
		}

		if err := rows.Err(); err != nil {
			t.Fatalf("could not scan count: %+v", err)
		}

		if got, want := n, int64(139); got != want {
			t.Fatalf("invalid count: got=%d, want=%d", got, want)
		}
		return nil
	}, fakedb.Rows{
		Names:  []string{"count"},
		Values: [][]driver.Value{{int64(139)}},
	})
	if err != nil {
		t.Fatalf("could not run fake db: %+v", err)
	}
	if got, want := queries[0].SQL, query; got != want {
		t.Fatalf("invalid query: got=%q, want=%q", got, want)
	}
}

func TestExhausted(t *testing.T) {
	db, err := Open("fakedb")
	if err != nil {
		t.Fatalf("could not open conddb: %+v", err)
	}
	defer db.Close()

	_, err = fakedb.Run(context.Background(), func(ctx context.Context) error {
		_, err := db.Boards(ctx)
		return err
	})
	if !errors.Is(err, fakedb.ErrExhausted) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, fakedb.ErrExhausted)
	}
}
