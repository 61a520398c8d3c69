// Package testutil provides a stub database/sql driver for postgres history tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
)

var stubSeq atomic.Int64

// StubConn emulates the runs table the postgres history store talks to.
type StubConn struct {
	Execs    []string
	Rows     []map[string]any
	FailExec bool
	FailPing bool
	RowsErr  error
	nextID   int64
}

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("transactions not supported") }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	return driver.RowsAffected(0), nil
}

// QueryContext implements driver.QueryerContext. INSERT ... RETURNING id
// appends a row; SELECT filters on layout ($1) and honours LIMIT (last arg).
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(trimmed, "INSERT INTO"):
		cols, err := insertColumns(query)
		if err != nil {
			return nil, err
		}
		if len(cols) != len(args) {
			return nil, fmt.Errorf("column/arg mismatch")
		}
		c.nextID++
		row := map[string]any{"id": c.nextID}
		for i, col := range cols {
			row[col] = args[i].Value
		}
		c.Rows = append(c.Rows, row)
		return &stubRows{cols: []string{"id"}, rows: [][]driver.Value{{c.nextID}}}, nil
	case strings.HasPrefix(trimmed, "SELECT"):
		cols, err := selectColumns(query)
		if err != nil {
			return nil, err
		}
		layout := ""
		if len(args) > 0 {
			layout, _ = args[0].Value.(string)
		}
		var limit int64
		if len(args) > 1 {
			limit, _ = args[len(args)-1].Value.(int64)
		}
		var values [][]driver.Value
		for i := len(c.Rows) - 1; i >= 0; i-- {
			row := c.Rows[i]
			if layout != "" && row["layout"] != layout {
				continue
			}
			vals := make([]driver.Value, len(cols))
			for j, col := range cols {
				vals[j] = row[col]
			}
			values = append(values, vals)
			if limit > 0 && int64(len(values)) == limit {
				break
			}
		}
		return &stubRows{cols: cols, rows: values, err: c.RowsErr}, nil
	}
	return nil, fmt.Errorf("unsupported query: %s", query)
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
	err  error
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}

func insertColumns(query string) ([]string, error) {
	open := strings.Index(query, "(")
	closeIdx := strings.Index(query, ")")
	if open == -1 || closeIdx == -1 || closeIdx <= open {
		return nil, fmt.Errorf("cannot parse insert: %s", query)
	}
	return splitColumns(query[open+1 : closeIdx]), nil
}

func selectColumns(query string) ([]string, error) {
	lower := strings.ToLower(query)
	fromIdx := strings.Index(lower, " from ")
	if fromIdx == -1 {
		return nil, fmt.Errorf("cannot parse select: %s", query)
	}
	return splitColumns(strings.TrimSpace(query)[len("select "):fromIdx]), nil
}

func splitColumns(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(part)))
	}
	return out
}
