package view

import "github.com/jask/finplan/internal/api"

// Slice names one independently refreshed part of the view state.
type Slice int

const (
	SliceDebtors Slice = iota
	SliceFixedExpenses
	SliceOptionalExpenses
	SliceFreeAmount
	SliceDebtDetail
	SliceDebtQuery
	SliceSnapshot
)

var sliceNames = map[Slice]string{
	SliceDebtors:          "debtors",
	SliceFixedExpenses:    "fixed expenses",
	SliceOptionalExpenses: "optional expenses",
	SliceFreeAmount:       "free amount",
	SliceDebtDetail:       "debt detail",
	SliceDebtQuery:        "debt query",
	SliceSnapshot:         "snapshot",
}

func (s Slice) String() string {
	if name, ok := sliceNames[s]; ok {
		return name
	}
	return "unknown"
}

// startupSlices are read concurrently before the main view is revealed.
var startupSlices = []Slice{SliceDebtors, SliceFixedExpenses, SliceOptionalExpenses, SliceFreeAmount}

// partitionSlice maps an expense type to the slice holding its list and total.
func partitionSlice(t api.ExpenseType) Slice {
	if t == api.ExpenseOptional {
		return SliceOptionalExpenses
	}
	return SliceFixedExpenses
}

// sequencer tags every issued load with a per-slice counter. Only the result
// of the latest issued load for a slice is applied; earlier ones are dropped
// even when they resolve last.
type sequencer map[Slice]uint64

func (s sequencer) next(sl Slice) uint64 {
	s[sl]++
	return s[sl]
}

func (s sequencer) current(sl Slice, n uint64) bool {
	return s[sl] == n
}
