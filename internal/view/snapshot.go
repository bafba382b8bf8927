package view

import (
	"github.com/shopspring/decimal"

	"github.com/jask/finplan/internal/api"
)

// SnapshotView is either a local Preview or a Materialized server snapshot.
type SnapshotView interface {
	snapshotView()
}

// Preview is a locally derived estimate shown while the server has no
// snapshot for the month. It is never authoritative.
type Preview struct {
	MonthFreeAmount decimal.Decimal
	UnpaidTotal     decimal.Decimal
	Amount          decimal.Decimal
}

// Materialized wraps the server's snapshot.
type Materialized struct {
	Snapshot api.SalarySnapshot
}

func (Preview) snapshotView()      {}
func (Materialized) snapshotView() {}

var two = decimal.NewFromInt(2)

// PreviewAmount computes (monthFree / 2) - sum(unpaid installment amounts).
// Installments already paid are ignored.
func PreviewAmount(monthFree decimal.Decimal, installments []api.Installment) Preview {
	unpaid := decimal.Zero
	for _, in := range installments {
		if in.Paid() {
			continue
		}
		unpaid = unpaid.Add(in.Amount)
	}
	return Preview{
		MonthFreeAmount: monthFree,
		UnpaidTotal:     unpaid,
		Amount:          monthFree.Div(two).Sub(unpaid),
	}
}

// SnapshotPanel is the open salary view for one debtor month.
type SnapshotPanel struct {
	Query   api.MonthQuery
	Unpaid  []api.Installment
	View    SnapshotView
	Loading bool
}
