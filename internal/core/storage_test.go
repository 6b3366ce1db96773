package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"rollcore/internal/infra/persistence/sqlite"
)

// helper to unset and restore env vars
func withEnv(key, value string, fn func()) {
	orig, had := os.LookupEnv(key)
	if value == "" {
		_ = os.Unsetenv(key)
	} else {
		_ = os.Setenv(key, value)
	}
	defer func() {
		if had {
			_ = os.Setenv(key, orig)
		} else {
			_ = os.Unsetenv(key)
		}
	}()
	fn()
}

func TestOpenPersistentStore_DefaultSQLite(t *testing.T) {
	dir := t.TempDir()
	withEnv("ROLLCORE_STORAGE_DRIVER", "", func() {
		withEnv("ROLLCORE_SQLITE_PATH", filepath.Join(dir, "default.db"), func() {
			engine := NewDefaultRulesEngine()
			store, err := OpenPersistentStore(engine)
			if err != nil {
				t.Skipf("sqlite unavailable: %v", err)
			}
			sqliteStore, ok := store.(*sqlite.Store)
			if !ok {
				t.Fatalf("expected *sqlite.Store, got %T", store)
			}
			if _, err := sqliteStore.RunInTransaction(context.Background(), func(tx Transaction) error { return nil }); err != nil {
				t.Fatalf("empty transaction: %v", err)
			}
		})
	})
}

func TestOpenPersistentStore_Memory(t *testing.T) {
	withEnv("ROLLCORE_STORAGE_DRIVER", "memory", func() {
		engine := NewDefaultRulesEngine()
		store, err := OpenPersistentStore(engine)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("expected *MemoryStore, got %T", store)
		}
	})
}

func TestOpenPersistentStore_CustomSQLitePath(t *testing.T) {
	withEnv("ROLLCORE_STORAGE_DRIVER", "sqlite", func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "custom.db")
		withEnv("ROLLCORE_SQLITE_PATH", path, func() {
			engine := NewDefaultRulesEngine()
			store, err := OpenPersistentStore(engine)
			if err != nil {
				t.Skipf("sqlite unavailable: %v", err)
			}
			s, ok := store.(*sqlite.Store)
			if !ok {
				t.Fatalf("expected *sqlite.Store, got %T", store)
			}
			if s.Path() != path {
				t.Fatalf("expected path %s, got %s", path, s.Path())
			}
		})
	})
}

func TestOpenPersistentStore_PostgresUnreachable(t *testing.T) {
	withEnv("ROLLCORE_STORAGE_DRIVER", "postgres", func() {
		withEnv("ROLLCORE_POSTGRES_DSN", "postgres://127.0.0.1:1/rollcore?sslmode=disable&connect_timeout=1", func() {
			engine := NewDefaultRulesEngine()
			if _, err := OpenPersistentStore(engine); err == nil {
				t.Fatalf("expected connection error for unreachable postgres")
			}
		})
	})
}

func TestOpenPersistentStore_UnknownDriver(t *testing.T) {
	withEnv("ROLLCORE_STORAGE_DRIVER", "gibberish", func() {
		engine := NewDefaultRulesEngine()
		store, err := OpenPersistentStore(engine)
		if err == nil || store != nil {
			t.Fatalf("expected error for unknown driver, got store=%v err=%v", store, err)
		}
	})
}

func TestOpenPersistentStoreWithExplicitOptions(t *testing.T) {
	engine := NewDefaultRulesEngine()

	mem, err := OpenPersistentStoreWith(StorageOptions{Driver: StorageMemory}, engine)
	if err != nil {
		t.Fatalf("memory open: %v", err)
	}
	if _, ok := mem.(*MemoryStore); !ok {
		t.Fatalf("expected *MemoryStore, got %T", mem)
	}

	if _, err := OpenPersistentStoreWith(StorageOptions{Driver: "gibberish"}, engine); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
