package core

import (
	"context"
	"errors"
	"fmt"

	"rollcore/pkg/domain"
)

// NewBarcodeConflictRule enforces barcode uniqueness among active rolls in
// the committed state.
func NewBarcodeConflictRule() Rule {
	return barcodeConflictRule{}
}

type barcodeConflictRule struct{}

func (barcodeConflictRule) Name() string { return "barcode_conflict" }

func (barcodeConflictRule) Evaluate(_ context.Context, view RuleView, _ []Change) (Result, error) {
	rolls := view.ListRolls()

	res := Result{}
	flagged := make(map[string]struct{})
	for _, roll := range rolls {
		if domain.IsTerminal(roll.Status) {
			continue
		}
		if _, done := flagged[roll.Barcode]; done {
			continue
		}
		err := domain.CheckBarcodeAvailable(roll.Barcode, rolls, roll.ID)
		if err == nil {
			continue
		}
		flagged[roll.Barcode] = struct{}{}
		var conflict *domain.BarcodeConflictError
		if !errors.As(err, &conflict) {
			return Result{}, err
		}
		res.Violations = append(res.Violations, Violation{
			Rule:     "barcode_conflict",
			Severity: SeverityBlock,
			Message:  fmt.Sprintf("barcode %q claimed by active rolls %s and %s", roll.Barcode, roll.ID, conflict.HolderID),
			Entity:   EntityRoll,
			EntityID: conflict.HolderID,
		})
	}
	return res, nil
}
