package core

import "rollcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	RollStatus         = domain.RollStatus
	Severity           = domain.Severity
	Base               = domain.Base
	Roll               = domain.Roll
	Catalog            = domain.Catalog
	CreateRollInput    = domain.CreateRollInput
	RollPatch          = domain.RollPatch
	RollStats          = domain.RollStats
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	Transaction        = domain.Transaction
	TransactionView    = domain.TransactionView
	PersistentStore    = domain.PersistentStore
)

const (
	EntityRoll    = domain.EntityRoll
	EntityCatalog = domain.EntityCatalog
)

const (
	StatusInStock  = domain.StatusInStock
	StatusReserved = domain.StatusReserved
	StatusSold     = domain.StatusSold
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
