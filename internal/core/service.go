package core

import (
	"context"
	"fmt"
	"time"

	memory "rollcore/internal/infra/persistence/memory"
	"rollcore/pkg/domain"
)

// MemoryStore is the in-memory persistence backend used by tests and
// ephemeral deployments.
type MemoryStore = memory.Store

// NewMemoryStore constructs an in-memory store wired to the given engine.
func NewMemoryStore(engine *RulesEngine) *MemoryStore {
	return memory.NewStore(engine)
}

// Service exposes higher-level transactional operations for the inventory
// schema. Guards from pkg/domain run before any write; the store's rules
// engine re-checks the committed state as a defense in depth.
type Service struct {
	store   PersistentStore
	logger  Logger
	clock   Clock
	audit   AuditRecorder
	metrics MetricsRecorder
	tracer  Tracer
	now     func() time.Time
}

// ServiceOption customizes service construction.
type ServiceOption func(*Service)

// WithLogger overrides the no-op logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the timestamp source used for audit entries.
func WithClock(clock Clock) ServiceOption {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithAuditRecorder attaches an audit sink.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.audit = recorder
		}
	}
}

// WithMetricsRecorder attaches a metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if recorder != nil {
			s.metrics = recorder
		}
	}
}

// WithTracer attaches a tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(s *Service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// NewService constructs a service backed by the supplied store. All
// observability collaborators default to no-ops.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	svc := &Service{
		store:   store,
		logger:  noopLogger{},
		clock:   ClockFunc(nil),
		audit:   noopAuditRecorder{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	svc.now = selectNowFunc(store, svc.clock)
	return svc
}

// NewInMemoryService creates a service and in-memory store with the given
// rules engine. A nil engine yields a store with no registered rules.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// RulesEngine returns the engine backing the store, or nil when the store
// does not expose one.
func (s *Service) RulesEngine() *RulesEngine {
	return extractRulesEngine(s.store)
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrUnknownStatus is returned when a caller supplies a status outside the
// closed roll status set.
type ErrUnknownStatus struct {
	Status RollStatus
}

func (e ErrUnknownStatus) Error() string {
	return fmt.Sprintf("unknown roll status %q", e.Status)
}

// CreateRoll validates the input and persists a new roll. Field validation
// runs before the transaction; the barcode claim is checked against the
// transaction snapshot so concurrent writers cannot race past it.
func (s *Service) CreateRoll(ctx context.Context, input CreateRollInput) (Roll, Result, error) {
	var created Roll
	var res Result
	err := s.run(ctx, "create_roll", func(ctx context.Context) (string, error) {
		if input.Status != "" && !input.Status.Valid() {
			return "", ErrUnknownStatus{Status: input.Status}
		}
		if err := domain.CheckCreate(input); err != nil {
			return "", err
		}
		var txErr error
		res, txErr = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if err := domain.CheckBarcodeAvailable(input.Barcode, tx.Snapshot().ListRolls(), ""); err != nil {
				return err
			}
			var err error
			created, err = tx.CreateRoll(Roll{
				Barcode:      input.Barcode,
				Status:       input.Status,
				LengthMeters: input.LengthMeters,
				CatalogID:    input.CatalogID,
				Location:     input.Location,
			})
			return err
		})
		if txErr != nil {
			return "", txErr
		}
		return created.ID, nil
	})
	return created, res, err
}

// UpdateRoll applies a partial patch to an existing roll. Guards run in
// order: locked-record and field validation, status transition, then the
// barcode claim when the barcode actually changes. The first failure aborts
// before any write.
func (s *Service) UpdateRoll(ctx context.Context, id string, patch RollPatch) (Roll, Result, error) {
	var updated Roll
	var res Result
	err := s.run(ctx, "update_roll", func(ctx context.Context) (string, error) {
		var txErr error
		res, txErr = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			current, ok := tx.FindRoll(id)
			if !ok {
				return ErrNotFound{Entity: EntityRoll, ID: id}
			}
			if err := domain.CheckUpdate(current, patch); err != nil {
				return err
			}
			if patch.IsEmpty() {
				updated = current
				return nil
			}
			if patch.Barcode != nil && *patch.Barcode != current.Barcode {
				if err := domain.CheckBarcodeAvailable(*patch.Barcode, tx.Snapshot().ListRolls(), id); err != nil {
					return err
				}
			}
			var err error
			updated, err = tx.UpdateRoll(id, func(roll *Roll) error {
				applyRollPatch(roll, patch)
				return nil
			})
			return err
		})
		return id, txErr
	})
	return updated, res, err
}

// DeleteRoll removes a roll record. Deletion is unrestricted by policy; the
// guard call stays in the path so a future policy lands in one place.
func (s *Service) DeleteRoll(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_roll", func(ctx context.Context) (string, error) {
		var txErr error
		res, txErr = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			current, ok := tx.FindRoll(id)
			if !ok {
				return ErrNotFound{Entity: EntityRoll, ID: id}
			}
			if err := domain.ValidateRollDelete(current); err != nil {
				return err
			}
			return tx.DeleteRoll(id)
		})
		return id, txErr
	})
	return res, err
}

// GetRoll fetches a roll by id.
func (s *Service) GetRoll(ctx context.Context, id string) (Roll, error) {
	var roll Roll
	err := s.run(ctx, "get_roll", func(context.Context) (string, error) {
		found, ok := s.store.GetRoll(id)
		if !ok {
			return id, ErrNotFound{Entity: EntityRoll, ID: id}
		}
		roll = found
		return id, nil
	})
	return roll, err
}

// ListRolls returns all rolls.
func (s *Service) ListRolls(ctx context.Context) ([]Roll, error) {
	var rolls []Roll
	err := s.run(ctx, "list_rolls", func(context.Context) (string, error) {
		rolls = s.store.ListRolls()
		return "", nil
	})
	return rolls, err
}

// AllowedTransitions reports the legal next statuses for a roll.
func (s *Service) AllowedTransitions(ctx context.Context, id string) ([]RollStatus, error) {
	var next []RollStatus
	err := s.run(ctx, "roll_transitions", func(context.Context) (string, error) {
		roll, ok := s.store.GetRoll(id)
		if !ok {
			return id, ErrNotFound{Entity: EntityRoll, ID: id}
		}
		next = domain.AllowedNext(roll.Status)
		return id, nil
	})
	return next, err
}

// RollStats aggregates counts over the full roll set.
func (s *Service) RollStats(ctx context.Context) (RollStats, error) {
	var stats RollStats
	err := s.run(ctx, "roll_stats", func(ctx context.Context) (string, error) {
		viewErr := s.store.View(ctx, func(view TransactionView) error {
			stats = domain.AggregateRolls(view.ListRolls())
			return nil
		})
		return "", viewErr
	})
	return stats, err
}

// CreateCatalog persists a new catalog entry.
func (s *Service) CreateCatalog(ctx context.Context, catalog Catalog) (Catalog, Result, error) {
	var created Catalog
	var res Result
	err := s.run(ctx, "create_catalog", func(ctx context.Context) (string, error) {
		if catalog.Code == "" {
			return "", fmt.Errorf("catalog code is required")
		}
		var txErr error
		res, txErr = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var err error
			created, err = tx.CreateCatalog(catalog)
			return err
		})
		if txErr != nil {
			return "", txErr
		}
		return created.ID, nil
	})
	return created, res, err
}

// UpdateCatalog mutates a catalog entry.
func (s *Service) UpdateCatalog(ctx context.Context, id string, mutator func(*Catalog) error) (Catalog, Result, error) {
	var updated Catalog
	var res Result
	err := s.run(ctx, "update_catalog", func(ctx context.Context) (string, error) {
		var txErr error
		res, txErr = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindCatalog(id); !ok {
				return ErrNotFound{Entity: EntityCatalog, ID: id}
			}
			var err error
			updated, err = tx.UpdateCatalog(id, mutator)
			return err
		})
		return id, txErr
	})
	return updated, res, err
}

// DeleteCatalog removes a catalog entry. The store rejects the delete while
// any roll still references the catalog.
func (s *Service) DeleteCatalog(ctx context.Context, id string) (Result, error) {
	var res Result
	err := s.run(ctx, "delete_catalog", func(ctx context.Context) (string, error) {
		var txErr error
		res, txErr = s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindCatalog(id); !ok {
				return ErrNotFound{Entity: EntityCatalog, ID: id}
			}
			return tx.DeleteCatalog(id)
		})
		return id, txErr
	})
	return res, err
}

// GetCatalog fetches a catalog entry by id.
func (s *Service) GetCatalog(ctx context.Context, id string) (Catalog, error) {
	var catalog Catalog
	err := s.run(ctx, "get_catalog", func(context.Context) (string, error) {
		found, ok := s.store.GetCatalog(id)
		if !ok {
			return id, ErrNotFound{Entity: EntityCatalog, ID: id}
		}
		catalog = found
		return id, nil
	})
	return catalog, err
}

// ListCatalogs returns all catalog entries.
func (s *Service) ListCatalogs(ctx context.Context) ([]Catalog, error) {
	var catalogs []Catalog
	err := s.run(ctx, "list_catalogs", func(context.Context) (string, error) {
		catalogs = s.store.ListCatalogs()
		return "", nil
	})
	return catalogs, err
}

// run wraps an operation with tracing, metrics, audit, and logging. The fn
// returns the affected entity id for audit purposes.
func (s *Service) run(ctx context.Context, operation string, fn func(ctx context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	entityID, err := fn(ctx)
	duration := time.Since(started)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	span.End(err)
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "error", err)
		s.recordAuditError(ctx, operation, entityID, duration, err)
		return err
	}
	s.logger.Debug("operation completed", "operation", operation, "duration", duration)
	s.recordAuditSuccess(ctx, operation, entityID, duration)
	return nil
}

type auditOperation struct {
	entity EntityType
	action Action
}

// auditOperations maps instrumented operations to the entity and action
// recorded in audit entries. Read-only operations are deliberately absent.
var auditOperations = map[string]auditOperation{
	"create_roll":    {entity: EntityRoll, action: ActionCreate},
	"update_roll":    {entity: EntityRoll, action: ActionUpdate},
	"delete_roll":    {entity: EntityRoll, action: ActionDelete},
	"create_catalog": {entity: EntityCatalog, action: ActionCreate},
	"update_catalog": {entity: EntityCatalog, action: ActionUpdate},
	"delete_catalog": {entity: EntityCatalog, action: ActionDelete},
}

func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	meta, ok := auditOperations[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.now(),
	})
}

func (s *Service) recordAuditError(ctx context.Context, operation, entityID string, duration time.Duration, opErr error) {
	meta, ok := auditOperations[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    meta.entity,
		Action:    meta.action,
		EntityID:  entityID,
		Status:    AuditStatusError,
		Error:     opErr.Error(),
		Duration:  duration,
		Timestamp: s.now(),
	})
}

func applyRollPatch(roll *Roll, patch RollPatch) {
	if patch.Barcode != nil {
		roll.Barcode = *patch.Barcode
	}
	if patch.Status != nil {
		roll.Status = *patch.Status
	}
	if patch.LengthMeters != nil {
		roll.LengthMeters = *patch.LengthMeters
	}
	if patch.CatalogID != nil {
		roll.CatalogID = *patch.CatalogID
	}
	if patch.Location != nil {
		roll.Location = *patch.Location
	}
}

// extractRulesEngine recovers the rules engine from stores that expose one.
func extractRulesEngine(store PersistentStore) *RulesEngine {
	provider, ok := store.(interface{ RulesEngine() *domain.RulesEngine })
	if !ok {
		return nil
	}
	return provider.RulesEngine()
}

// selectNowFunc picks the timestamp source for audit entries: the store's
// own clock when it exposes a non-nil one, otherwise the supplied clock,
// otherwise the system clock. All results are UTC.
func selectNowFunc(store PersistentStore, clock Clock) func() time.Time {
	if provider, ok := store.(interface{ NowFunc() func() time.Time }); ok {
		if now := provider.NowFunc(); now != nil {
			return func() time.Time { return now().UTC() }
		}
	}
	if clock != nil {
		return func() time.Time { return clock.Now().UTC() }
	}
	return func() time.Time { return time.Now().UTC() }
}
