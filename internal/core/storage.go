package core

import (
	"fmt"
	"os"

	"rollcore/internal/infra/persistence/memory"
	"rollcore/internal/infra/persistence/sqlite"
)

// StorageDriver identifies a concrete persistent storage implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// StorageOptions selects and parameterizes a persistence backend.
type StorageOptions struct {
	Driver      StorageDriver
	SQLitePath  string
	PostgresDSN string
}

// OpenPersistentStore selects a backend using environment variables.
// Defaults to sqlite when unset.
//
//	ROLLCORE_STORAGE_DRIVER: memory|sqlite|postgres (default sqlite)
//	ROLLCORE_SQLITE_PATH: path to sqlite file (default ./rollcore.db)
//	ROLLCORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenPersistentStore(engine *RulesEngine) (PersistentStore, error) {
	return OpenPersistentStoreWith(StorageOptions{
		Driver:      StorageDriver(os.Getenv("ROLLCORE_STORAGE_DRIVER")),
		SQLitePath:  os.Getenv("ROLLCORE_SQLITE_PATH"),
		PostgresDSN: os.Getenv("ROLLCORE_POSTGRES_DSN"),
	}, engine)
}

// OpenPersistentStoreWith selects a backend from explicit options. An empty
// driver means sqlite.
func OpenPersistentStoreWith(opts StorageOptions, engine *RulesEngine) (PersistentStore, error) {
	driver := opts.Driver
	if driver == "" {
		driver = StorageSQLite
	}
	switch driver {
	case StorageMemory:
		return memory.NewStore(engine), nil
	case StorageSQLite:
		return sqlite.NewStore(opts.SQLitePath, engine)
	case StoragePostgres:
		return NewPostgresStore(opts.PostgresDSN, engine)
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
}
