// Package memory provides an in-memory implementation of the inventory
// persistence store used for tests and ephemeral environments. Durable
// backends wrap it and persist its exported snapshots.
package memory

import (
	"context"
	"fmt"
	"rollcore/pkg/domain"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Roll aliases domain.Roll for in-memory persistence operations.
	Roll = domain.Roll
	// Catalog aliases domain.Catalog.
	Catalog = domain.Catalog
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	rolls    map[string]Roll
	catalogs map[string]Catalog
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Rolls    map[string]Roll    `json:"rolls"`
	Catalogs map[string]Catalog `json:"catalogs"`
}

func newMemoryState() memoryState {
	return memoryState{
		rolls:    make(map[string]Roll),
		catalogs: make(map[string]Catalog),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Rolls:    make(map[string]Roll, len(state.rolls)),
		Catalogs: make(map[string]Catalog, len(state.catalogs)),
	}
	for k, v := range state.rolls {
		s.Rolls[k] = cloneRoll(v)
	}
	for k, v := range state.catalogs {
		s.Catalogs[k] = cloneCatalog(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Rolls {
		state.rolls[k] = cloneRoll(v)
	}
	for k, v := range s.Catalogs {
		state.catalogs[k] = cloneCatalog(v)
	}
	return state
}

// migrateSnapshot normalizes snapshots written by earlier revisions of the
// store: nil buckets become empty maps and rolls persisted without a status
// default to in_stock, the state every roll starts in.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Rolls == nil {
		snapshot.Rolls = map[string]Roll{}
	}
	if snapshot.Catalogs == nil {
		snapshot.Catalogs = map[string]Catalog{}
	}
	for id, roll := range snapshot.Rolls {
		if roll.Status == "" {
			roll.Status = domain.StatusInStock
			snapshot.Rolls[id] = roll
		}
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.rolls {
		cloned.rolls[k] = cloneRoll(v)
	}
	for k, v := range s.catalogs {
		cloned.catalogs[k] = cloneCatalog(v)
	}
	return cloned
}

// Roll and Catalog are plain value types without reference fields, so a
// struct copy is a deep copy.
func cloneRoll(r Roll) Roll          { return r }
func cloneCatalog(c Catalog) Catalog { return c }

// Store provides an in-memory transactional store for the inventory domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider. Tests use it to pin timestamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

// transaction represents a mutation set applied to the store state. The
// first payload marshal failure is parked in err and aborts the commit.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
	err     error
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListRolls returns all rolls within the transaction snapshot.
func (v transactionView) ListRolls() []Roll {
	out := make([]Roll, 0, len(v.state.rolls))
	for _, r := range v.state.rolls {
		out = append(out, cloneRoll(r))
	}
	return out
}

// ListCatalogs returns all catalogs within the transaction snapshot.
func (v transactionView) ListCatalogs() []Catalog {
	out := make([]Catalog, 0, len(v.state.catalogs))
	for _, c := range v.state.catalogs {
		out = append(out, cloneCatalog(c))
	}
	return out
}

// FindRoll retrieves a roll by ID from the snapshot.
func (v transactionView) FindRoll(id string) (Roll, bool) {
	r, ok := v.state.rolls[id]
	if !ok {
		return Roll{}, false
	}
	return cloneRoll(r), true
}

// FindCatalog retrieves a catalog by ID from the snapshot.
func (v transactionView) FindCatalog(id string) (Catalog, bool) {
	c, ok := v.state.catalogs[id]
	if !ok {
		return Catalog{}, false
	}
	return cloneCatalog(c), true
}

// RunInTransaction executes fn within a transactional copy of the store
// state. The rules engine evaluates the accumulated changes before commit;
// blocking violations roll everything back.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}
	if tx.err != nil {
		return Result{}, tx.err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// changePayloadFromValue marshals a record into a change payload. Marshal
// failures abort the transaction at commit instead of panicking mid-mutation.
func changePayloadFromValue(tx *transaction, value any) domain.ChangePayload {
	payload, err := domain.NewChangePayloadFromValue(value)
	if err != nil {
		if tx.err == nil {
			tx.err = fmt.Errorf("memory: encode change payload: %w", err)
		}
		return domain.UndefinedChangePayload()
	}
	return payload
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindRoll exposes roll lookup within the transaction scope.
func (tx *transaction) FindRoll(id string) (Roll, bool) {
	r, ok := tx.state.rolls[id]
	if !ok {
		return Roll{}, false
	}
	return cloneRoll(r), true
}

// FindCatalog exposes catalog lookup within the transaction scope.
func (tx *transaction) FindCatalog(id string) (Catalog, bool) {
	c, ok := tx.state.catalogs[id]
	if !ok {
		return Catalog{}, false
	}
	return cloneCatalog(c), true
}

// CreateRoll stores a new roll within the transaction.
func (tx *transaction) CreateRoll(r Roll) (Roll, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.rolls[r.ID]; exists {
		return Roll{}, fmt.Errorf("roll %q already exists", r.ID)
	}
	if r.Status == "" {
		r.Status = domain.StatusInStock
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.rolls[r.ID] = cloneRoll(r)
	tx.recordChange(Change{
		Entity: domain.EntityRoll,
		Action: domain.ActionCreate,
		After:  changePayloadFromValue(tx, cloneRoll(r)),
	})
	return cloneRoll(r), nil
}

// UpdateRoll mutates a roll using the provided mutator function.
func (tx *transaction) UpdateRoll(id string, mutator func(*Roll) error) (Roll, error) {
	current, ok := tx.state.rolls[id]
	if !ok {
		return Roll{}, fmt.Errorf("roll %q not found", id)
	}
	before := cloneRoll(current)
	if err := mutator(&current); err != nil {
		return Roll{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.rolls[id] = cloneRoll(current)
	tx.recordChange(Change{
		Entity: domain.EntityRoll,
		Action: domain.ActionUpdate,
		Before: changePayloadFromValue(tx, before),
		After:  changePayloadFromValue(tx, cloneRoll(current)),
	})
	return cloneRoll(current), nil
}

// DeleteRoll removes a roll from the transaction state.
func (tx *transaction) DeleteRoll(id string) error {
	current, ok := tx.state.rolls[id]
	if !ok {
		return fmt.Errorf("roll %q not found", id)
	}
	delete(tx.state.rolls, id)
	tx.recordChange(Change{
		Entity: domain.EntityRoll,
		Action: domain.ActionDelete,
		Before: changePayloadFromValue(tx, cloneRoll(current)),
	})
	return nil
}

// CreateCatalog stores a new catalog record.
func (tx *transaction) CreateCatalog(c Catalog) (Catalog, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.catalogs[c.ID]; exists {
		return Catalog{}, fmt.Errorf("catalog %q already exists", c.ID)
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.catalogs[c.ID] = cloneCatalog(c)
	tx.recordChange(Change{
		Entity: domain.EntityCatalog,
		Action: domain.ActionCreate,
		After:  changePayloadFromValue(tx, cloneCatalog(c)),
	})
	return cloneCatalog(c), nil
}

// UpdateCatalog mutates an existing catalog.
func (tx *transaction) UpdateCatalog(id string, mutator func(*Catalog) error) (Catalog, error) {
	current, ok := tx.state.catalogs[id]
	if !ok {
		return Catalog{}, fmt.Errorf("catalog %q not found", id)
	}
	before := cloneCatalog(current)
	if err := mutator(&current); err != nil {
		return Catalog{}, err
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.catalogs[id] = cloneCatalog(current)
	tx.recordChange(Change{
		Entity: domain.EntityCatalog,
		Action: domain.ActionUpdate,
		Before: changePayloadFromValue(tx, before),
		After:  changePayloadFromValue(tx, cloneCatalog(current)),
	})
	return cloneCatalog(current), nil
}

// DeleteCatalog removes a catalog from state. Rolls still pointing at the
// catalog block the delete so stats never reference vanished groupings.
func (tx *transaction) DeleteCatalog(id string) error {
	current, ok := tx.state.catalogs[id]
	if !ok {
		return fmt.Errorf("catalog %q not found", id)
	}
	for _, roll := range tx.state.rolls {
		if roll.CatalogID == id {
			return domain.CatalogInUseError{CatalogID: id, RollID: roll.ID}
		}
	}
	delete(tx.state.catalogs, id)
	tx.recordChange(Change{
		Entity: domain.EntityCatalog,
		Action: domain.ActionDelete,
		Before: changePayloadFromValue(tx, cloneCatalog(current)),
	})
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetRoll retrieves a roll by ID from committed state.
func (s *Store) GetRoll(id string) (Roll, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.rolls[id]
	if !ok {
		return Roll{}, false
	}
	return cloneRoll(r), true
}

// ListRolls returns all rolls from committed state.
func (s *Store) ListRolls() []Roll {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Roll, 0, len(s.state.rolls))
	for _, r := range s.state.rolls {
		out = append(out, cloneRoll(r))
	}
	return out
}

// GetCatalog retrieves a catalog by ID from committed state.
func (s *Store) GetCatalog(id string) (Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.catalogs[id]
	if !ok {
		return Catalog{}, false
	}
	return cloneCatalog(c), true
}

// ListCatalogs returns all catalogs from committed state.
func (s *Store) ListCatalogs() []Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Catalog, 0, len(s.state.catalogs))
	for _, c := range s.state.catalogs {
		out = append(out, cloneCatalog(c))
	}
	return out
}
