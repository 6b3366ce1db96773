package blob

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
)

func withEnv(t *testing.T, key, value string) {
	t.Helper()
	prev, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("setenv %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func TestOpenWithSelectsDrivers(t *testing.T) {
	ctx := context.Background()
	store, err := OpenWith(ctx, Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}
	store, err = OpenWith(ctx, Options{Driver: DriverFilesystem, FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}
	if _, err := OpenWith(ctx, Options{Driver: Driver("tape")}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestOpenWithDefaultsToFilesystem(t *testing.T) {
	store, err := OpenWith(context.Background(), Options{FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs default, got %s", store.Driver())
	}
}

func TestOpenReadsEnvironment(t *testing.T) {
	ctx := context.Background()
	withEnv(t, "ROLLCORE_BLOB_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("expected memory driver, got %s", store.Driver())
	}

	withEnv(t, "ROLLCORE_BLOB_DRIVER", "fs")
	withEnv(t, "ROLLCORE_BLOB_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("expected fs driver, got %s", store.Driver())
	}

	withEnv(t, "ROLLCORE_BLOB_DRIVER", "carrier-pigeon")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestFacadeRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	info, err := store.Put(ctx, "stats/agg.json", bytes.NewReader([]byte(`{"total":3}`)), PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.ContentType != "application/json" {
		t.Fatalf("unexpected info %+v", info)
	}
	_, rc, err := store.Get(ctx, "stats/agg.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(b) != `{"total":3}` {
		t.Fatalf("payload mismatch: %s", b)
	}
	if _, err := store.PresignURL(ctx, "stats/agg.json", SignedURLOptions{}); err == nil {
		t.Fatalf("expected presign unsupported on memory driver")
	}
}

func TestMockS3FacadeExposesDriver(t *testing.T) {
	store := NewMockS3ForTests()
	if store.Driver() != DriverS3 {
		t.Fatalf("expected s3 driver, got %s", store.Driver())
	}
}
