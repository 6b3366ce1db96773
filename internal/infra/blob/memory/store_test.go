package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"rollcore/internal/blob/core"
)

func TestStoreMissingKeys(t *testing.T) {
	store := New()
	ctx := context.Background()
	if _, err := store.Head(ctx, "missing"); err == nil {
		t.Fatalf("expected head error")
	}
	if _, _, err := store.Get(ctx, "missing"); err == nil {
		t.Fatalf("expected get error")
	}
	if ok, err := store.Delete(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected delete false")
	}
}

func TestStoreLifecycle(t *testing.T) {
	store := New()
	ctx := context.Background()
	md := map[string]string{"a": "1"}
	info, err := store.Put(ctx, "exports/a.json", bytes.NewReader([]byte("v")), core.PutOptions{ContentType: "application/json", Metadata: md})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 1 || info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "exports/a.json", bytes.NewReader([]byte("v2")), core.PutOptions{}); err == nil {
		t.Fatalf("expected duplicate put error")
	}
	md["a"] = "mutated"
	h, err := store.Head(ctx, "exports/a.json")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if h.Metadata["a"] != "1" {
		t.Fatalf("expected metadata isolation, got %q", h.Metadata["a"])
	}
	g, rc, err := store.Get(ctx, "exports/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if err := rc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if string(b) != "v" || g.ETag != h.ETag {
		t.Fatalf("unexpected get result")
	}
	if list, err := store.List(ctx, ""); err != nil || len(list) != 1 {
		t.Fatalf("list all: %v %d", err, len(list))
	}
	if list, err := store.List(ctx, "exports/"); err != nil || len(list) != 1 {
		t.Fatalf("list prefix: %v %d", err, len(list))
	}
	if list, err := store.List(ctx, "other/"); err != nil || len(list) != 0 {
		t.Fatalf("list other: %v %d", err, len(list))
	}
	if _, err := store.PresignURL(ctx, "exports/a.json", core.SignedURLOptions{}); err == nil {
		t.Fatalf("expected unsupported presign")
	}
	if ok, err := store.Delete(ctx, "exports/a.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
}

func TestStoreListSorted(t *testing.T) {
	store := New()
	ctx := context.Background()
	for _, k := range []string{"c", "a", "b"} {
		if _, err := store.Put(ctx, k, bytes.NewReader([]byte(k)), core.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	list, err := store.List(ctx, "")
	if err != nil || len(list) != 3 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	for i, want := range []string{"a", "b", "c"} {
		if list[i].Key != want {
			t.Fatalf("expected %s at %d, got %s", want, i, list[i].Key)
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, fmt.Errorf("fail") }

func TestStorePutReadErrorAndDriver(t *testing.T) {
	store := New()
	if store.Driver() != core.DriverMemory {
		t.Fatalf("expected memory driver")
	}
	if _, err := store.Put(context.Background(), "bad", failingReader{}, core.PutOptions{}); err == nil {
		t.Fatalf("expected read error")
	}
}
