package domain

import (
	"fmt"
	"strings"
)

// GuardKind tags a guard failure so callers can branch on the category
// without inspecting concrete types. Every guard error exposes exactly one
// kind; the kinds below are the complete set.
type GuardKind string

// Guard failure kinds.
const (
	GuardKindInvalidTransition GuardKind = "invalid_transition"
	GuardKindInvalidLength     GuardKind = "invalid_length"
	GuardKindLengthTooLarge    GuardKind = "length_too_large"
	GuardKindInvalidBarcode    GuardKind = "invalid_barcode"
	GuardKindLockedRecord      GuardKind = "locked_record"
	GuardKindBarcodeConflict   GuardKind = "barcode_conflict"
)

// GuardError is implemented by every business-rule rejection produced by
// the guards in this package. Guard failures are expected outcomes, not
// faults: nothing is retried, nothing is fatal, and the payload carries
// enough context to present to a caller verbatim.
type GuardError interface {
	error
	Kind() GuardKind
}

// InvalidTransitionError rejects a status change the transition table does
// not permit. Allowed lists every status legally reachable from From.
type InvalidTransitionError struct {
	From    RollStatus   `json:"from"`
	To      RollStatus   `json:"to"`
	Allowed []RollStatus `json:"allowed"`
}

// Kind returns GuardKindInvalidTransition.
func (e *InvalidTransitionError) Kind() GuardKind { return GuardKindInvalidTransition }

func (e *InvalidTransitionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid transition from %s to %s: %s is terminal", e.From, e.To, e.From)
	}
	return fmt.Sprintf("invalid transition from %s to %s (allowed: %s)", e.From, e.To, joinStatuses(e.Allowed))
}

// InvalidLengthError rejects a non-positive roll length.
type InvalidLengthError struct {
	Provided float64 `json:"provided"`
}

// Kind returns GuardKindInvalidLength.
func (e *InvalidLengthError) Kind() GuardKind { return GuardKindInvalidLength }

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("roll length must be positive, got %v", e.Provided)
}

// LengthTooLargeError rejects a roll length above the physical maximum.
type LengthTooLargeError struct {
	Limit    float64 `json:"limit"`
	Provided float64 `json:"provided"`
}

// Kind returns GuardKindLengthTooLarge.
func (e *LengthTooLargeError) Kind() GuardKind { return GuardKindLengthTooLarge }

func (e *LengthTooLargeError) Error() string {
	return fmt.Sprintf("roll length %v exceeds the maximum of %v meters", e.Provided, e.Limit)
}

// InvalidBarcodeError rejects a barcode that is too short to identify a
// roll once surrounding whitespace is stripped.
type InvalidBarcodeError struct {
	Barcode   string `json:"barcode"`
	MinLength int    `json:"min_length"`
}

// Kind returns GuardKindInvalidBarcode.
func (e *InvalidBarcodeError) Kind() GuardKind { return GuardKindInvalidBarcode }

func (e *InvalidBarcodeError) Error() string {
	return fmt.Sprintf("barcode %q must contain at least %d characters", e.Barcode, e.MinLength)
}

// LockedRecordError rejects an update that touches immutable fields of a
// sold roll. InvalidFields names every offending field in the patch, not
// just the first, so a caller can fix the whole request in one round trip.
type LockedRecordError struct {
	ID            string   `json:"id"`
	InvalidFields []string `json:"invalid_fields"`
	AllowedFields []string `json:"allowed_fields"`
}

// Kind returns GuardKindLockedRecord.
func (e *LockedRecordError) Kind() GuardKind { return GuardKindLockedRecord }

func (e *LockedRecordError) Error() string {
	return fmt.Sprintf("roll %s is sold: fields [%s] are locked, only [%s] may change",
		e.ID, strings.Join(e.InvalidFields, ", "), strings.Join(e.AllowedFields, ", "))
}

// BarcodeConflictError rejects a barcode already claimed by another roll
// that is still active. Holder identifies the conflicting record.
type BarcodeConflictError struct {
	Barcode      string     `json:"barcode"`
	HolderID     string     `json:"holder_id"`
	HolderStatus RollStatus `json:"holder_status"`
}

// Kind returns GuardKindBarcodeConflict.
func (e *BarcodeConflictError) Kind() GuardKind { return GuardKindBarcodeConflict }

func (e *BarcodeConflictError) Error() string {
	return fmt.Sprintf("barcode %q is already in use by roll %s (status %s)", e.Barcode, e.HolderID, e.HolderStatus)
}

// CatalogInUseError rejects deleting a catalog while rolls still reference
// it. Deleting or re-pointing the rolls first releases the catalog.
type CatalogInUseError struct {
	CatalogID string `json:"catalog_id"`
	RollID    string `json:"roll_id"`
}

func (e CatalogInUseError) Error() string {
	return fmt.Sprintf("catalog %q still referenced by roll %q", e.CatalogID, e.RollID)
}

func joinStatuses(statuses []RollStatus) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
