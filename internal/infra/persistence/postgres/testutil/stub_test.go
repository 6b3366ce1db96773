package testutil

import (
	"context"
	"strings"
	"testing"
)

func TestStubStateRoundTrip(t *testing.T) {
	db, conn := NewStubDB()
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (bucket TEXT PRIMARY KEY, payload JSONB NOT NULL)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, "rolls", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, "rolls", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if got := string(conn.Buckets["rolls"]); got != `{"a":2}` {
		t.Fatalf("expected upsert to replace payload, got %s", got)
	}

	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer func() { _ = rows.Close() }()
	count := 0
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if bucket != "rolls" || string(payload) != `{"a":2}` {
			t.Fatalf("unexpected row %s=%s", bucket, payload)
		}
		count++
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestStubFailureModes(t *testing.T) {
	db, conn := NewStubDB()
	ctx := context.Background()

	conn.FailPing = true
	if err := db.PingContext(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailPing = false

	conn.FailExec = true
	if _, err := db.ExecContext(ctx, `CREATE TABLE state (bucket TEXT)`); err == nil {
		t.Fatalf("expected exec failure")
	}
	conn.FailExec = false

	conn.FailQuery = true
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err == nil {
		_ = rows.Close()
		t.Fatalf("expected query failure")
	}
	conn.FailQuery = false

	conn.FailBuckets = map[string]bool{"catalogs": true}
	if _, err := db.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2)`, "catalogs", []byte(`{}`)); err == nil {
		t.Fatalf("expected bucket failure")
	} else if !strings.Contains(err.Error(), "catalogs") {
		t.Fatalf("expected bucket name in error, got %v", err)
	}
}
