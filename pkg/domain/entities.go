// Package domain defines the core inventory entities, the business-rule
// guards that protect them, and the rule evaluation primitives used by
// rollcore. Everything in this package is pure: no I/O, no clocks beyond
// the timestamps callers set, no persistence.
package domain

import "time"

// EntityType identifies the type of record stored in the inventory core.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityRoll identifies a physical roll of material.
	EntityRoll EntityType = "roll"
	// EntityCatalog identifies a catalog article grouping rolls.
	EntityCatalog EntityType = "catalog"
)

// RollStatus represents the sales lifecycle state of a roll.
type RollStatus string

// Canonical roll statuses. A roll enters stock, may be held for a customer,
// and eventually leaves the inventory permanently once sold.
const (
	// StatusInStock indicates the roll is available for reservation or sale.
	StatusInStock RollStatus = "in_stock"
	// StatusReserved indicates the roll is held for a pending order.
	StatusReserved RollStatus = "reserved"
	// StatusSold indicates the roll has left the inventory. Terminal.
	StatusSold RollStatus = "sold"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all inventory records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Roll represents a single physical roll of material tracked by barcode.
type Roll struct {
	Base
	Barcode      string     `json:"barcode"`
	Status       RollStatus `json:"status"`
	LengthMeters float64    `json:"length_meters"`
	CatalogID    string     `json:"catalog_id"`
	Location     string     `json:"location"`
}

// Catalog represents the article a roll is an instance of. The guards treat
// CatalogID as an opaque key; the record exists so stores, stats and the
// service layer share one model of the grouping dimension.
type Catalog struct {
	Base
	Code     string `json:"code"`
	Name     string `json:"name"`
	Material string `json:"material"`
}

// CreateRollInput carries the caller-supplied fields for a new roll.
// Status is optional; callers that leave it empty get StatusInStock.
type CreateRollInput struct {
	Barcode      string     `json:"barcode"`
	Status       RollStatus `json:"status,omitempty"`
	LengthMeters float64    `json:"length_meters"`
	CatalogID    string     `json:"catalog_id"`
	Location     string     `json:"location,omitempty"`
}

// RollPatch is a partial update of a roll. Field presence is first-class:
// a nil pointer means "leave unchanged", a non-nil pointer is an explicit
// request to set the field, so patches survive serialization boundaries
// without losing the absent/present distinction.
type RollPatch struct {
	Barcode      *string     `json:"barcode,omitempty"`
	Status       *RollStatus `json:"status,omitempty"`
	LengthMeters *float64    `json:"length_meters,omitempty"`
	CatalogID    *string     `json:"catalog_id,omitempty"`
	Location     *string     `json:"location,omitempty"`
}

// Fields returns the names of the fields present in the patch, in
// declaration order. The names match the JSON wire keys.
func (p RollPatch) Fields() []string {
	var fields []string
	if p.Barcode != nil {
		fields = append(fields, "barcode")
	}
	if p.Status != nil {
		fields = append(fields, "status")
	}
	if p.LengthMeters != nil {
		fields = append(fields, "length_meters")
	}
	if p.CatalogID != nil {
		fields = append(fields, "catalog_id")
	}
	if p.Location != nil {
		fields = append(fields, "location")
	}
	return fields
}

// IsEmpty reports whether the patch carries no fields at all.
func (p RollPatch) IsEmpty() bool {
	return p.Barcode == nil && p.Status == nil && p.LengthMeters == nil &&
		p.CatalogID == nil && p.Location == nil
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change describes a mutation applied to an entity during a transaction.
// Before and After hold JSON snapshots of the record around the mutation;
// creates have an undefined Before, deletes an undefined After. Record IDs
// travel inside the snapshots.
type Change struct {
	Entity EntityType
	Action Action
	Before ChangePayload
	After  ChangePayload
}

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
