package core

import "rollcore/internal/infra/persistence/sqlite"

// NewSQLiteStore constructs a SQLite-backed persistent store using the
// provided file path (may be empty for the default) and rules engine.
func NewSQLiteStore(path string, engine *RulesEngine) (*sqlite.Store, error) {
	return sqlite.NewStore(path, engine)
}
