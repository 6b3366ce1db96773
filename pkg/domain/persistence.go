package domain

import "context"

// Transaction exposes the inventory operations that a persistence
// implementation must support within an atomic scope. Mutators receive a
// pointer to the stored record and may return an error to abort the write.
type Transaction interface {
	Snapshot() TransactionView
	CreateRoll(Roll) (Roll, error)
	UpdateRoll(id string, mutator func(*Roll) error) (Roll, error)
	DeleteRoll(id string) error
	CreateCatalog(Catalog) (Catalog, error)
	UpdateCatalog(id string, mutator func(*Catalog) error) (Catalog, error)
	DeleteCatalog(id string) error
	FindRoll(id string) (Roll, bool)
	FindCatalog(id string) (Catalog, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListRolls() []Roll
	ListCatalogs() []Catalog
	FindRoll(id string) (Roll, bool)
	FindCatalog(id string) (Catalog, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It
// mirrors the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetRoll(id string) (Roll, bool)
	ListRolls() []Roll
	GetCatalog(id string) (Catalog, bool)
	ListCatalogs() []Catalog
}
