package view

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/jask/finplan/internal/api"
)

// fakeBackend is an in-memory Backend that records every call.
type fakeBackend struct {
	mu sync.Mutex

	debtors      []api.Debtor
	expenses     []api.RecurringExpense
	debts        map[int64]api.Debt
	snapshots    map[api.MonthQuery]api.SalarySnapshot
	freeAmount   api.MonthlyFreeAmount
	unpaid       []api.Installment
	report       []byte
	nextID       int64
	failures     map[string]error
	calls        []string
	startupGate  chan struct{}
	startupCalls int
	gateTimedOut bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		debts:     map[int64]api.Debt{},
		snapshots: map[api.MonthQuery]api.SalarySnapshot{},
		failures:  map[string]error{},
		nextID:    100,
	}
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.failures[name]
}

func (f *fakeBackend) failWith(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[name] = err
}

func (f *fakeBackend) takeCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.calls
	f.calls = nil
	return out
}

// gate blocks startup reads until want of them are in flight at once.
func (f *fakeBackend) gate(want int) {
	f.mu.Lock()
	if f.startupGate == nil {
		f.mu.Unlock()
		return
	}
	f.startupCalls++
	if f.startupCalls == want {
		close(f.startupGate)
	}
	g := f.startupGate
	f.mu.Unlock()
	select {
	case <-g:
	case <-time.After(2 * time.Second):
		f.mu.Lock()
		f.gateTimedOut = true
		f.mu.Unlock()
	}
}

func (f *fakeBackend) ListDebtors(ctx context.Context) ([]api.Debtor, error) {
	f.gate(6)
	if err := f.record("ListDebtors"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Debtor(nil), f.debtors...), nil
}

func (f *fakeBackend) CreateDebtor(ctx context.Context, req api.CreateDebtorRequest) (api.Debtor, error) {
	if err := f.record("CreateDebtor"); err != nil {
		return api.Debtor{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	d := api.Debtor{ID: f.nextID, Name: req.Name, Email: req.Email}
	f.debtors = append(f.debtors, d)
	return d, nil
}

func (f *fakeBackend) CreateSalary(ctx context.Context, req api.AmountRequest) (api.Salary, error) {
	return api.Salary{Amount: req.Amount}, f.record("CreateSalary")
}

func (f *fakeBackend) CreateSavingsGoal(ctx context.Context, req api.AmountRequest) (api.SavingsGoal, error) {
	return api.SavingsGoal{Amount: req.Amount}, f.record("CreateSavingsGoal")
}

func (f *fakeBackend) MonthlyFreeAmount(ctx context.Context, year int) (api.MonthlyFreeAmount, error) {
	f.gate(6)
	if err := f.record("MonthlyFreeAmount"); err != nil {
		return api.MonthlyFreeAmount{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	fa := f.freeAmount
	fa.Year = year
	return fa, nil
}

func (f *fakeBackend) SalarySnapshot(ctx context.Context, q api.MonthQuery) (api.SalarySnapshot, error) {
	if err := f.record("SalarySnapshot"); err != nil {
		return api.SalarySnapshot{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snapshots[q]
	if !ok {
		return api.SalarySnapshot{}, &api.Error{Status: http.StatusNotFound, Message: "snapshot not found"}
	}
	return s, nil
}

func (f *fakeBackend) PaySalary(ctx context.Context, req api.PaySalaryRequest) (api.SalarySnapshot, error) {
	if err := f.record("PaySalary"); err != nil {
		return api.SalarySnapshot{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q := api.MonthQuery{DebtorID: req.DebtorID, Year: req.Year, Month: req.Month}
	paid := req.PaymentDate.Time
	s := api.SalarySnapshot{ID: 1, DebtorID: req.DebtorID, Year: req.Year, Month: req.Month, Status: api.SnapshotPaid, PaidAt: &paid}
	f.snapshots[q] = s
	return s, nil
}

func (f *fakeBackend) MonthlySummaryReport(ctx context.Context, q api.MonthQuery) (api.Report, error) {
	if err := f.record("MonthlySummaryReport"); err != nil {
		return api.Report{}, err
	}
	return api.Report{ContentType: "application/pdf", Data: f.report}, nil
}

func (f *fakeBackend) CreateExpense(ctx context.Context, req api.CreateExpenseRequest) (api.RecurringExpense, error) {
	if err := f.record("CreateExpense"); err != nil {
		return api.RecurringExpense{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e := api.RecurringExpense{ID: f.nextID, Description: req.Description, Amount: req.Amount, Type: req.Type}
	f.expenses = append(f.expenses, e)
	return e, nil
}

func (f *fakeBackend) ListExpenses(ctx context.Context, t api.ExpenseType) ([]api.RecurringExpense, error) {
	f.gate(6)
	if err := f.record("ListExpenses:" + string(t)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.RecurringExpense
	for _, e := range f.expenses {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeBackend) ExpenseTotal(ctx context.Context, t api.ExpenseType) (decimal.Decimal, error) {
	f.gate(6)
	if err := f.record("ExpenseTotal:" + string(t)); err != nil {
		return decimal.Zero, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	total := decimal.Zero
	for _, e := range f.expenses {
		if e.Type == t {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (f *fakeBackend) UpdateExpense(ctx context.Context, id int64, req api.UpdateExpenseRequest) (api.RecurringExpense, error) {
	if err := f.record("UpdateExpense"); err != nil {
		return api.RecurringExpense{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.expenses {
		if f.expenses[i].ID == id {
			f.expenses[i].Description = req.Description
			f.expenses[i].Amount = req.Amount
			return f.expenses[i], nil
		}
	}
	return api.RecurringExpense{}, &api.Error{Status: http.StatusNotFound, Message: "expense not found"}
}

func (f *fakeBackend) DeleteExpense(ctx context.Context, id int64) error {
	if err := f.record("DeleteExpense"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.expenses {
		if f.expenses[i].ID == id {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeBackend) CreateDebt(ctx context.Context, req api.CreateDebtRequest) (api.Debt, error) {
	if err := f.record("CreateDebt"); err != nil {
		return api.Debt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	d := api.Debt{ID: f.nextID, DebtorID: req.Debt.DebtorID, Description: req.Debt.Description, TotalAmount: req.Debt.TotalAmount}
	f.debts[d.ID] = d
	return d, nil
}

func (f *fakeBackend) DeleteDebt(ctx context.Context, id int64) error {
	if err := f.record("DeleteDebt"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.debts, id)
	return nil
}

func (f *fakeBackend) GetDebt(ctx context.Context, id int64) (api.Debt, error) {
	if err := f.record("GetDebt"); err != nil {
		return api.Debt{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.debts[id]
	if !ok {
		return api.Debt{}, &api.Error{Status: http.StatusNotFound, Message: "debt not found"}
	}
	return d, nil
}

func (f *fakeBackend) QueryDebts(ctx context.Context, q api.DebtQuery) ([]api.Debt, error) {
	if err := f.record("QueryDebts"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []api.Debt
	for _, d := range f.debts {
		if d.DebtorID == q.DebtorID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeBackend) PayInstallment(ctx context.Context, id int64, req api.PayInstallmentRequest) (api.Installment, error) {
	if err := f.record("PayInstallment"); err != nil {
		return api.Installment{}, err
	}
	paid := req.PaymentDate.Time
	return api.Installment{ID: id, PaidAt: &paid}, nil
}

func (f *fakeBackend) UnpaidInstallments(ctx context.Context, q api.MonthQuery) ([]api.Installment, error) {
	if err := f.record("UnpaidInstallments"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]api.Installment(nil), f.unpaid...), nil
}

var errBoom = errors.New("boom")

// run executes cmd and every follow-up synchronously, feeding each message
// back into the model until nothing is left.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatal("command loop did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			queue = append(queue, m.Update(msg))
		}
	}
}

var fixedNow = func() time.Time { return time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC) }

func newTestModel(t *testing.T, f *fakeBackend) *Model {
	t.Helper()
	return New(context.Background(), f, Options{Now: fixedNow, ReportsDir: t.TempDir()})
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
