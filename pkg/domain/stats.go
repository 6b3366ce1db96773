package domain

// RollStats summarises the inventory for dashboards and reports.
type RollStats struct {
	Total     int                `json:"total"`
	ByStatus  map[RollStatus]int `json:"by_status"`
	ByCatalog map[string]int     `json:"by_catalog"`
}

// AggregateRolls reduces a set of rolls to summary counts. ByStatus always
// carries every known status, zeroes included, so consumers can render
// complete breakdowns without guarding against missing keys. ByCatalog is
// sparse: only catalogs that actually have rolls appear. The reduction is
// a pure fold and does not depend on input order.
func AggregateRolls(rolls []Roll) RollStats {
	stats := RollStats{
		Total:     len(rolls),
		ByStatus:  make(map[RollStatus]int, len(KnownStatuses())),
		ByCatalog: make(map[string]int),
	}
	for _, status := range KnownStatuses() {
		stats.ByStatus[status] = 0
	}
	for _, roll := range rolls {
		stats.ByStatus[roll.Status]++
		if roll.CatalogID != "" {
			stats.ByCatalog[roll.CatalogID]++
		}
	}
	return stats
}
