// Package view holds the client's view state and the orchestration that keeps
// it in step with the backend.
//
// Model is driven by bubbletea: actions and loaders return tea.Cmds that run
// off the UI goroutine and report back through messages, and Update applies
// those messages as named transitions. State is only ever touched from
// Update and the action methods, so no locking is needed.
package view

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/finplan/internal/api"
)

// Backend is the subset of the REST client the orchestrator calls.
type Backend interface {
	ListDebtors(ctx context.Context) ([]api.Debtor, error)
	CreateDebtor(ctx context.Context, req api.CreateDebtorRequest) (api.Debtor, error)

	CreateSalary(ctx context.Context, req api.AmountRequest) (api.Salary, error)
	CreateSavingsGoal(ctx context.Context, req api.AmountRequest) (api.SavingsGoal, error)
	MonthlyFreeAmount(ctx context.Context, year int) (api.MonthlyFreeAmount, error)
	SalarySnapshot(ctx context.Context, q api.MonthQuery) (api.SalarySnapshot, error)
	PaySalary(ctx context.Context, req api.PaySalaryRequest) (api.SalarySnapshot, error)
	MonthlySummaryReport(ctx context.Context, q api.MonthQuery) (api.Report, error)

	CreateExpense(ctx context.Context, req api.CreateExpenseRequest) (api.RecurringExpense, error)
	ListExpenses(ctx context.Context, t api.ExpenseType) ([]api.RecurringExpense, error)
	ExpenseTotal(ctx context.Context, t api.ExpenseType) (decimal.Decimal, error)
	UpdateExpense(ctx context.Context, id int64, req api.UpdateExpenseRequest) (api.RecurringExpense, error)
	DeleteExpense(ctx context.Context, id int64) error

	CreateDebt(ctx context.Context, req api.CreateDebtRequest) (api.Debt, error)
	DeleteDebt(ctx context.Context, id int64) error
	GetDebt(ctx context.Context, id int64) (api.Debt, error)
	QueryDebts(ctx context.Context, q api.DebtQuery) ([]api.Debt, error)
	PayInstallment(ctx context.Context, id int64, req api.PayInstallmentRequest) (api.Installment, error)
	UnpaidInstallments(ctx context.Context, q api.MonthQuery) ([]api.Installment, error)
}

// Phase tracks startup.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseFailed
)

// Options configures a Model.
type Options struct {
	Logger     *slog.Logger
	Now        func() time.Time
	ReportsDir string
}

// DebtDetailView is an open debt detail.
type DebtDetailView struct {
	DebtID   int64
	DebtorID int64
	Debt     *api.Debt
}

// DebtQueryView is an open date-range query.
type DebtQueryView struct {
	Query  api.DebtQuery
	Debts  []api.Debt
	Loaded bool
}

// Model is the explicit view-state container.
type Model struct {
	ctx        context.Context
	backend    Backend
	log        *slog.Logger
	now        func() time.Time
	reportsDir string

	phase  Phase
	notice Notice
	seq    sequencer

	debtors   []api.Debtor
	selection map[Selector]int64

	expenses      map[api.ExpenseType][]api.RecurringExpense
	expenseTotals map[api.ExpenseType]decimal.Decimal

	planYear   int
	freeAmount *api.MonthlyFreeAmount

	detail   *DebtDetailView
	query    *DebtQueryView
	snapshot *SnapshotPanel
}

func New(ctx context.Context, backend Backend, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReportsDir == "" {
		opts.ReportsDir = "."
	}
	return &Model{
		ctx:           ctx,
		backend:       backend,
		log:           opts.Logger,
		now:           opts.Now,
		reportsDir:    opts.ReportsDir,
		phase:         PhaseLoading,
		seq:           sequencer{},
		selection:     map[Selector]int64{},
		expenses:      map[api.ExpenseType][]api.RecurringExpense{},
		expenseTotals: map[api.ExpenseType]decimal.Decimal{},
		planYear:      opts.Now().Year(),
	}
}

func (m *Model) Phase() Phase   { return m.phase }
func (m *Model) Notice() Notice { return m.notice }
func (m *Model) PlanYear() int  { return m.planYear }

// ClearNotice drops the current notice.
func (m *Model) ClearNotice() { m.notice = Notice{} }

func (m *Model) Debtors() []api.Debtor { return m.debtors }

// Debtor looks up a loaded debtor.
func (m *Model) Debtor(id int64) (api.Debtor, bool) {
	for _, d := range m.debtors {
		if d.ID == id {
			return d, true
		}
	}
	return api.Debtor{}, false
}

// Selected returns the debtor id held by a selector, 0 for none.
func (m *Model) Selected(s Selector) int64 { return m.selection[s] }

// Select sets a selector. Unknown ids are ignored.
func (m *Model) Select(s Selector, debtorID int64) {
	if _, ok := m.Debtor(debtorID); ok {
		m.selection[s] = debtorID
	}
}

func (m *Model) Expenses(t api.ExpenseType) []api.RecurringExpense { return m.expenses[t] }

func (m *Model) ExpenseTotal(t api.ExpenseType) decimal.Decimal { return m.expenseTotals[t] }

// FreeAmount returns the loaded report for PlanYear, if any.
func (m *Model) FreeAmount() (api.MonthlyFreeAmount, bool) {
	if m.freeAmount == nil {
		return api.MonthlyFreeAmount{}, false
	}
	return *m.freeAmount, true
}

func (m *Model) Detail() (DebtDetailView, bool) {
	if m.detail == nil {
		return DebtDetailView{}, false
	}
	return *m.detail, true
}

func (m *Model) Query() (DebtQueryView, bool) {
	if m.query == nil {
		return DebtQueryView{}, false
	}
	return *m.query, true
}

func (m *Model) Snapshot() (SnapshotPanel, bool) {
	if m.snapshot == nil {
		return SnapshotPanel{}, false
	}
	return *m.snapshot, true
}

// setDebtors replaces the collection and reconciles every selector.
func (m *Model) setDebtors(debtors []api.Debtor) {
	m.debtors = debtors
	for _, s := range Selectors {
		m.selection[s] = ReconcileSelection(m.selection[s], debtors)
	}
}
