package core

import (
	"context"
	"fmt"

	"rollcore/pkg/domain"
)

// NewLengthBoundsRule blocks writes that leave a roll with a length outside
// the (0, MaxRollLengthMeters] interval.
func NewLengthBoundsRule() Rule {
	return lengthBoundsRule{}
}

type lengthBoundsRule struct{}

func (lengthBoundsRule) Name() string { return "length_bounds" }

func (lengthBoundsRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	res := Result{}
	for _, change := range changes {
		if change.Entity != EntityRoll || change.Action == ActionDelete {
			continue
		}
		after, ok := decodeChangePayload[domain.Roll](change.After)
		if !ok {
			continue
		}
		if after.LengthMeters > 0 && after.LengthMeters <= domain.MaxRollLengthMeters {
			continue
		}
		res.Violations = append(res.Violations, Violation{
			Rule:     "length_bounds",
			Severity: SeverityBlock,
			Message:  fmt.Sprintf("roll %s length %.3f m outside (0, %.0f]", after.ID, after.LengthMeters, domain.MaxRollLengthMeters),
			Entity:   EntityRoll,
			EntityID: after.ID,
		})
	}
	return res, nil
}
