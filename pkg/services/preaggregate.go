package services

import (
	"github.com/finlens/finlens-engine/pkg/models"
)

// PreAggregate computes the authoritative totals for every aggregated
// result in the data map and attaches them as "<alias>_total" and
// "<alias>_count" side-channel entries. The responder instructs the oracle
// to use these values verbatim, so this is the single place the number the
// user sees is computed. Runs after the executor, before the responder.
func PreAggregate(data models.DataMap) {
	for alias, value := range data {
		rows, ok := value.([]models.ResultRow)
		if !ok || len(rows) == 0 {
			continue
		}

		var total float64
		for _, row := range rows {
			total += row.Total
		}
		data[alias+"_total"] = total
		data[alias+"_count"] = float64(len(rows))
	}
}
