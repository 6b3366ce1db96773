package core

import (
	"context"
	"fmt"

	"rollcore/pkg/domain"
)

// NewStatusTransitionRule returns the in-transaction rule blocking illegal
// roll status edges and unknown statuses in the committed state.
func NewStatusTransitionRule() domain.Rule {
	return statusTransitionRule{}
}

type statusTransitionRule struct{}

func (statusTransitionRule) Name() string { return "status_transition" }

func (statusTransitionRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityRoll {
			continue
		}
		after, ok := decodeChangePayload[domain.Roll](change.After)
		if !ok {
			continue
		}
		if !after.Status.Valid() {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("roll %s written with unknown status %q", after.ID, after.Status),
				Entity:   domain.EntityRoll,
				EntityID: after.ID,
			})
			continue
		}
		if change.Action != domain.ActionUpdate {
			continue
		}
		before, ok := decodeChangePayload[domain.Roll](change.Before)
		if !ok || before.Status == after.Status {
			continue
		}
		if err := domain.CheckTransition(before.Status, after.Status); err != nil {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "status_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("roll %s: %s", after.ID, err.Error()),
				Entity:   domain.EntityRoll,
				EntityID: after.ID,
			})
		}
	}
	return res, nil
}
