package view

import "github.com/jask/finplan/internal/api"

// Selector is a UI surface that holds a debtor selection.
type Selector int

const (
	SelectDebtForm Selector = iota
	SelectDebtQuery
	SelectSnapshot
	SelectReport
)

// Selectors lists every surface reconciled after a debtors reload.
var Selectors = []Selector{SelectDebtForm, SelectDebtQuery, SelectSnapshot, SelectReport}

// ReconcileSelection keeps current when it is still present in debtors,
// otherwise falls back to the first debtor, or 0 when there are none.
func ReconcileSelection(current int64, debtors []api.Debtor) int64 {
	if len(debtors) == 0 {
		return 0
	}
	if current != 0 {
		for _, d := range debtors {
			if d.ID == current {
				return current
			}
		}
	}
	return debtors[0].ID
}
