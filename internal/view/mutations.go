package view

import "github.com/jask/finplan/internal/api"

// MutationKind names a write the user can trigger.
type MutationKind int

const (
	CreateDebtor MutationKind = iota
	CreateSalary
	CreateSavingsGoal
	CreateExpense
	UpdateExpense
	DeleteExpense
	CreateDebt
	DeleteDebt
	PayInstallment
	PaySalary
)

// Mutation is a completed write plus what it touched.
type Mutation struct {
	Kind MutationKind
	// ExpenseType is the partition of an expense write; empty when unknown.
	ExpenseType api.ExpenseType
	DebtorID    int64
	DebtID      int64
	Month       api.MonthQuery
}

// AffectedSlices returns the slices a completed mutation may have
// invalidated, given the views currently open.
func (m *Model) AffectedSlices(mu Mutation) []Slice {
	switch mu.Kind {
	case CreateDebtor:
		return []Slice{SliceDebtors}
	case CreateSalary, CreateSavingsGoal:
		return []Slice{SliceFreeAmount}
	case CreateExpense, UpdateExpense, DeleteExpense:
		if mu.ExpenseType.Valid() {
			return []Slice{partitionSlice(mu.ExpenseType)}
		}
		return []Slice{SliceFixedExpenses, SliceOptionalExpenses}
	case CreateDebt, DeleteDebt, PayInstallment:
		out := []Slice{SliceDebtors}
		if m.detail != nil && m.detail.DebtorID == mu.DebtorID {
			out = append(out, SliceDebtDetail)
		}
		if m.query != nil && m.query.Query.DebtorID == mu.DebtorID {
			out = append(out, SliceDebtQuery)
		}
		return out
	case PaySalary:
		if m.snapshot != nil && m.snapshot.Query == mu.Month {
			return []Slice{SliceSnapshot}
		}
	}
	return nil
}
