package domain

import "context"

// RuleView provides read-only access to inventory state for rule evaluation.
type RuleView interface {
	ListRolls() []Roll
	ListCatalogs() []Catalog
	FindRoll(id string) (Roll, bool)
	FindCatalog(id string) (Catalog, bool)
}

// Rule defines an evaluation executed within a transaction boundary.
// Rules see the post-mutation state plus the change stream that produced
// it, and report violations rather than mutating anything.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
// The first rule returning an evaluation error aborts the run; violations
// are not errors and accumulate across rules.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
