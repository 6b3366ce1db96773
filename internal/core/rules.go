package core

import "rollcore/pkg/domain"

// NewRulesEngine constructs an engine instance with no registered rules.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
// The rules re-check invariants the service guards already enforce, so a
// write path that bypasses the service still cannot commit a bad state.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewStatusTransitionRule())
	engine.Register(NewBarcodeConflictRule())
	engine.Register(NewLengthBoundsRule())
	return engine
}
