package view

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/jask/finplan/internal/api"
)

// Init starts the concurrent startup reads.
func (m *Model) Init() tea.Cmd {
	m.notice = Notice{}
	return m.startup()
}

// Retry re-runs startup after a failure. It is a no-op otherwise.
func (m *Model) Retry() tea.Cmd {
	if m.phase != PhaseFailed {
		return nil
	}
	return m.Init()
}

// mutate clears the notice and runs write in the background. On success the
// slices affected by the returned Mutation are refreshed.
func (m *Model) mutate(success string, write func() (Mutation, error)) tea.Cmd {
	m.notice = Notice{}
	return func() tea.Msg {
		mu, err := write()
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{success: success, mutation: &mu}
	}
}

func (m *Model) CreateDebtor(name, email string) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Debtor created", func() (Mutation, error) {
		_, err := b.CreateDebtor(ctx, api.CreateDebtorRequest{Name: name, Email: email})
		return Mutation{Kind: CreateDebtor}, err
	})
}

func (m *Model) CreateSalary(amount decimal.Decimal) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Salary saved", func() (Mutation, error) {
		_, err := b.CreateSalary(ctx, api.AmountRequest{Amount: amount})
		return Mutation{Kind: CreateSalary}, err
	})
}

func (m *Model) CreateSavingsGoal(amount decimal.Decimal) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Savings goal saved", func() (Mutation, error) {
		_, err := b.CreateSavingsGoal(ctx, api.AmountRequest{Amount: amount})
		return Mutation{Kind: CreateSavingsGoal}, err
	})
}

func (m *Model) CreateExpense(description string, amount decimal.Decimal, t api.ExpenseType) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Expense created", func() (Mutation, error) {
		_, err := b.CreateExpense(ctx, api.CreateExpenseRequest{Description: description, Amount: amount, Type: t})
		return Mutation{Kind: CreateExpense, ExpenseType: t}, err
	})
}

// UpdateExpense edits description and amount. t is the partition the expense
// lives in; pass "" when unknown to refresh both.
func (m *Model) UpdateExpense(id int64, t api.ExpenseType, description string, amount decimal.Decimal) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Expense updated", func() (Mutation, error) {
		_, err := b.UpdateExpense(ctx, id, api.UpdateExpenseRequest{Description: description, Amount: amount})
		return Mutation{Kind: UpdateExpense, ExpenseType: t}, err
	})
}

func (m *Model) DeleteExpense(id int64, t api.ExpenseType) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Expense deleted", func() (Mutation, error) {
		err := b.DeleteExpense(ctx, id)
		return Mutation{Kind: DeleteExpense, ExpenseType: t}, err
	})
}

func (m *Model) CreateDebt(req api.CreateDebtRequest) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Debt created", func() (Mutation, error) {
		d, err := b.CreateDebt(ctx, req)
		return Mutation{Kind: CreateDebt, DebtorID: req.Debt.DebtorID, DebtID: d.ID}, err
	})
}

func (m *Model) DeleteDebt(debtID, debtorID int64) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Debt deleted", func() (Mutation, error) {
		err := b.DeleteDebt(ctx, debtID)
		return Mutation{Kind: DeleteDebt, DebtorID: debtorID, DebtID: debtID}, err
	})
}

// PayInstallment pays one installment of a debt owned by debtorID.
func (m *Model) PayInstallment(installmentID, debtID, debtorID int64, paid api.Date) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Installment paid", func() (Mutation, error) {
		_, err := b.PayInstallment(ctx, installmentID, api.PayInstallmentRequest{PaymentDate: paid})
		return Mutation{Kind: PayInstallment, DebtorID: debtorID, DebtID: debtID}, err
	})
}

// PaySalary pays the month. Once paid, the snapshot panel shows that month;
// on failure the panel is left as it was.
func (m *Model) PaySalary(q api.MonthQuery, paid api.Date) tea.Cmd {
	ctx, b := m.ctx, m.backend
	return m.mutate("Salary paid", func() (Mutation, error) {
		_, err := b.PaySalary(ctx, api.PaySalaryRequest{DebtorID: q.DebtorID, Year: q.Year, Month: q.Month, PaymentDate: paid})
		return Mutation{Kind: PaySalary, DebtorID: q.DebtorID, Month: q}, err
	})
}

// DownloadReport saves the monthly summary PDF into the reports directory.
func (m *Model) DownloadReport(q api.MonthQuery) tea.Cmd {
	m.notice = Notice{}
	ctx, b, dir := m.ctx, m.backend, m.reportsDir
	return func() tea.Msg {
		rep, err := b.MonthlySummaryReport(ctx, q)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		path, err := writeReport(dir, q, rep)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{success: "Report saved to " + path}
	}
}

// ReportFileName names the saved monthly summary.
func ReportFileName(q api.MonthQuery) string {
	return fmt.Sprintf("monthly-summary-%d-%04d-%02d.pdf", q.DebtorID, q.Year, q.Month)
}

func writeReport(dir string, q api.MonthQuery, rep api.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	path := filepath.Join(dir, ReportFileName(q))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, rep.Data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// SetPlanYear switches the free-amount report to another year.
func (m *Model) SetPlanYear(year int) tea.Cmd {
	m.notice = Notice{}
	m.planYear = year
	m.freeAmount = nil
	return m.loadFreeAmount()
}

// ReloadExpenses refreshes one partition, or both when t is empty.
func (m *Model) ReloadExpenses(t api.ExpenseType) tea.Cmd {
	if t.Valid() {
		return m.refresh(partitionSlice(t))
	}
	return m.refresh(SliceFixedExpenses, SliceOptionalExpenses)
}

// ReloadDebtors refreshes the debtor collection.
func (m *Model) ReloadDebtors() tea.Cmd {
	return m.refresh(SliceDebtors)
}

// OpenDebt shows the detail of one debt.
func (m *Model) OpenDebt(debtID, debtorID int64) tea.Cmd {
	m.notice = Notice{}
	m.detail = &DebtDetailView{DebtID: debtID, DebtorID: debtorID}
	return m.loadDetail()
}

func (m *Model) CloseDebt() {
	m.detail = nil
	m.seq.next(SliceDebtDetail)
}

// RunDebtQuery opens (or replaces) the date-range query view.
func (m *Model) RunDebtQuery(q api.DebtQuery) tea.Cmd {
	m.notice = Notice{}
	m.query = &DebtQueryView{Query: q}
	return m.loadQuery()
}

func (m *Model) CloseQuery() {
	m.query = nil
	m.seq.next(SliceDebtQuery)
}

// OpenSnapshot shows the salary view for one debtor month.
func (m *Model) OpenSnapshot(q api.MonthQuery) tea.Cmd {
	m.notice = Notice{}
	m.snapshot = &SnapshotPanel{Query: q}
	return m.loadSnapshot()
}

func (m *Model) CloseSnapshot() {
	m.snapshot = nil
	m.seq.next(SliceSnapshot)
}
