// Package testutil provides a stub database/sql driver that speaks the
// snapshot-bucket protocol used by the postgres store, so store behavior can
// be tested without a running server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"
)

var stubSeq uint64

// StubConn records executed statements and holds the bucket payloads written
// through the state table. Fail* fields force the corresponding call to
// error so failure paths can be exercised.
type StubConn struct {
	Execs   []string
	Buckets map[string][]byte

	FailPing    bool
	FailExec    bool
	FailBegin   bool
	FailCommit  bool
	FailQuery   bool
	FailBuckets map[string]bool
	RowsErr     error
}

// NewStubDB registers a sql.DB backed by an in-memory stub connection.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Buckets: make(map[string][]byte)}
	name := fmt.Sprintf("stubpg_%d", atomic.AddUint64(&stubSeq, 1))
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
func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported by stub")
}

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

// BeginTx implements driver.ConnBeginTx.
func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	if c.FailBegin {
		return nil, fmt.Errorf("begin fail")
	}
	return &stubTx{conn: c}, nil
}

// Ping implements driver.Pinger.
func (c *StubConn) Ping(context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext implements driver.ExecerContext. CREATE TABLE statements are
// accepted as no-ops; state upserts land in Buckets.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Execs = append(c.Execs, query)
	if c.FailExec {
		return nil, fmt.Errorf("exec fail")
	}
	upper := strings.ToUpper(strings.TrimSpace(query))
	switch {
	case strings.HasPrefix(upper, "CREATE TABLE"):
		return driver.RowsAffected(0), nil
	case strings.HasPrefix(upper, "INSERT INTO STATE"):
		if len(args) != 2 {
			return nil, fmt.Errorf("state upsert expects 2 args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("state upsert bucket must be a string, got %T", args[0].Value)
		}
		if c.FailBuckets != nil && c.FailBuckets[bucket] {
			return nil, fmt.Errorf("exec fail for %s", bucket)
		}
		payload, ok := args[1].Value.([]byte)
		if !ok {
			return nil, fmt.Errorf("state upsert payload must be bytes, got %T", args[1].Value)
		}
		if c.Buckets == nil {
			c.Buckets = make(map[string][]byte)
		}
		c.Buckets[bucket] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	default:
		return driver.RowsAffected(0), nil
	}
}

// QueryContext implements driver.QueryerContext for the snapshot select.
func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	if c.FailQuery {
		return nil, fmt.Errorf("query fail")
	}
	if !strings.Contains(strings.ToUpper(query), "FROM STATE") {
		return nil, fmt.Errorf("unsupported query: %s", query)
	}
	buckets := make([]string, 0, len(c.Buckets))
	for bucket := range c.Buckets {
		buckets = append(buckets, bucket)
	}
	sort.Strings(buckets)
	values := make([][]driver.Value, 0, len(buckets))
	for _, bucket := range buckets {
		values = append(values, []driver.Value{bucket, append([]byte(nil), c.Buckets[bucket]...)})
	}
	return &stubRows{cols: []string{"bucket", "payload"}, rows: values, err: c.RowsErr}, nil
}

type stubTx struct {
	conn *StubConn
}

func (t *stubTx) Commit() error {
	if t.conn.FailCommit {
		return fmt.Errorf("commit fail")
	}
	return nil
}

func (t *stubTx) Rollback() error { return nil }

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
