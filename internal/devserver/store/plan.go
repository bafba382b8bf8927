package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/finplan/internal/api"
)

var two = decimal.NewFromInt(2)

func (s *Store) CreateSalary(ctx context.Context, amount decimal.Decimal) (api.Salary, error) {
	id, at, err := s.insertAmount(ctx, "salaries", amount)
	return api.Salary{ID: id, Amount: amount, CreatedAt: at}, err
}

func (s *Store) CreateSavingsGoal(ctx context.Context, amount decimal.Decimal) (api.SavingsGoal, error) {
	id, at, err := s.insertAmount(ctx, "savings_goals", amount)
	return api.SavingsGoal{ID: id, Amount: amount, CreatedAt: at}, err
}

// insertAmount appends to one of the amount history tables.
func (s *Store) insertAmount(ctx context.Context, table string, amount decimal.Decimal) (int64, time.Time, error) {
	at := s.stamp()
	res, err := s.db.ExecContext(ctx, `INSERT INTO `+table+`(amount, created_at) VALUES (?, ?)`, amount.String(), formatTime(at))
	if err != nil {
		return 0, time.Time{}, err
	}
	id, err := res.LastInsertId()
	return id, at, err
}

type amountRecord struct {
	amount decimal.Decimal
	at     time.Time
}

func (s *Store) amountHistory(ctx context.Context, table string) ([]amountRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT amount, created_at FROM `+table+` ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []amountRecord
	for rows.Next() {
		var amt, at string
		if err := rows.Scan(&amt, &at); err != nil {
			return nil, err
		}
		var r amountRecord
		if r.amount, err = parseAmount(amt); err != nil {
			return nil, err
		}
		if r.at, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// latestBefore returns the last record strictly before end.
func latestBefore(hist []amountRecord, end time.Time) (decimal.Decimal, bool) {
	amt, ok := decimal.Zero, false
	for _, r := range hist {
		if !r.at.Before(end) {
			break
		}
		amt, ok = r.amount, true
	}
	return amt, ok
}

// MonthlyFreeAmount computes the year's breakdown. Each month uses the
// latest salary and savings goal recorded by the month's end and the current
// expense totals; a month with neither a salary nor a goal is all zeros. The
// top-level figures are those of the last month that has started.
func (s *Store) MonthlyFreeAmount(ctx context.Context, year int) (api.MonthlyFreeAmount, error) {
	salaries, err := s.amountHistory(ctx, "salaries")
	if err != nil {
		return api.MonthlyFreeAmount{}, fmt.Errorf("salaries: %w", err)
	}
	goals, err := s.amountHistory(ctx, "savings_goals")
	if err != nil {
		return api.MonthlyFreeAmount{}, fmt.Errorf("savings goals: %w", err)
	}
	fixed, err := s.ExpenseTotal(ctx, api.ExpenseFixed)
	if err != nil {
		return api.MonthlyFreeAmount{}, err
	}
	optional, err := s.ExpenseTotal(ctx, api.ExpenseOptional)
	if err != nil {
		return api.MonthlyFreeAmount{}, err
	}

	now := s.now().UTC()
	current := zeroMonth(0)
	months := make([]api.MonthFreeAmount, 0, 12)
	for m := 1; m <= 12; m++ {
		start := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		mo := zeroMonth(m)
		salary, hasSalary := latestBefore(salaries, end)
		goal, hasGoal := latestBefore(goals, end)
		if hasSalary || hasGoal {
			mo.Salary = salary
			mo.SavingsGoal = goal
			mo.FixedExpenses = fixed
			mo.OptionalExpenses = optional
			mo.FreeAmount = salary.Sub(goal).Sub(fixed).Sub(optional)
		}
		months = append(months, mo)
		if !start.After(now) {
			current = mo
		}
	}
	return api.MonthlyFreeAmount{
		Year:             year,
		Salary:           current.Salary,
		SavingsGoal:      current.SavingsGoal,
		FixedExpenses:    current.FixedExpenses,
		OptionalExpenses: current.OptionalExpenses,
		FreeAmount:       current.FreeAmount,
		Months:           months,
	}, nil
}

func zeroMonth(m int) api.MonthFreeAmount {
	return api.MonthFreeAmount{
		Month:            m,
		Salary:           decimal.Zero,
		SavingsGoal:      decimal.Zero,
		FixedExpenses:    decimal.Zero,
		OptionalExpenses: decimal.Zero,
		FreeAmount:       decimal.Zero,
	}
}

// SalarySnapshot returns the stored snapshot, ErrNotFound until it is paid.
func (s *Store) SalarySnapshot(ctx context.Context, q api.MonthQuery) (api.SalarySnapshot, error) {
	var (
		out                           api.SalarySnapshot
		free, half, inst, pay, status string
		created                       string
		paid                          sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT id, debtor_id, year, month, monthly_free_amount, half_free_amount, installments_total,
	       amount_to_pay, status, created_at, paid_at
	FROM salary_snapshots WHERE debtor_id = ? AND year = ? AND month = ?`,
		q.DebtorID, q.Year, q.Month).Scan(&out.ID, &out.DebtorID, &out.Year, &out.Month,
		&free, &half, &inst, &pay, &status, &created, &paid)
	if err != nil {
		return api.SalarySnapshot{}, notFound(err)
	}
	out.Status = api.SnapshotStatus(status)
	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{{&out.MonthlyFreeAmount, free}, {&out.HalfFreeAmount, half}, {&out.InstallmentsTotal, inst}, {&out.AmountToPay, pay}} {
		if *f.dst, err = parseAmount(f.raw); err != nil {
			return api.SalarySnapshot{}, err
		}
	}
	if out.CreatedAt, err = parseTime(created); err != nil {
		return api.SalarySnapshot{}, err
	}
	if out.PaidAt, err = parseNullTime(paid); err != nil {
		return api.SalarySnapshot{}, err
	}
	return out, nil
}

// Figures computes a month's snapshot amounts: half the month's free amount
// less the debtor's unpaid installments due that month.
func (s *Store) Figures(ctx context.Context, q api.MonthQuery) (api.SalarySnapshot, []api.Installment, error) {
	fa, err := s.MonthlyFreeAmount(ctx, q.Year)
	if err != nil {
		return api.SalarySnapshot{}, nil, err
	}
	unpaid, err := s.UnpaidInstallments(ctx, q)
	if err != nil {
		return api.SalarySnapshot{}, nil, err
	}
	total := decimal.Zero
	for _, in := range unpaid {
		total = total.Add(in.Amount)
	}
	free := fa.ForMonth(q.Month)
	half := free.Div(two)
	return api.SalarySnapshot{
		DebtorID:          q.DebtorID,
		Year:              q.Year,
		Month:             q.Month,
		MonthlyFreeAmount: free,
		HalfFreeAmount:    half,
		InstallmentsTotal: total,
		AmountToPay:       half.Sub(total),
		Status:            api.SnapshotPending,
	}, unpaid, nil
}

// PaySalary materialises the month's snapshot as paid.
func (s *Store) PaySalary(ctx context.Context, req api.PaySalaryRequest) (api.SalarySnapshot, error) {
	q := api.MonthQuery{DebtorID: req.DebtorID, Year: req.Year, Month: req.Month}
	if err := s.exists(ctx, `SELECT 1 FROM debtors WHERE id = ?`, q.DebtorID); err != nil {
		return api.SalarySnapshot{}, fmt.Errorf("debtor %d: %w", q.DebtorID, err)
	}
	_, err := s.SalarySnapshot(ctx, q)
	switch {
	case err == nil:
		return api.SalarySnapshot{}, ErrAlreadyPaid
	case !errors.Is(err, ErrNotFound):
		return api.SalarySnapshot{}, err
	}

	snap, _, err := s.Figures(ctx, q)
	if err != nil {
		return api.SalarySnapshot{}, err
	}
	created := s.stamp()
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO salary_snapshots(debtor_id, year, month, monthly_free_amount, half_free_amount,
	    installments_total, amount_to_pay, status, created_at, paid_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.DebtorID, q.Year, q.Month, snap.MonthlyFreeAmount.String(), snap.HalfFreeAmount.String(),
		snap.InstallmentsTotal.String(), snap.AmountToPay.String(), string(api.SnapshotPaid),
		formatTime(created), formatTime(req.PaymentDate.Time))
	if err != nil {
		return api.SalarySnapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}
	return s.SalarySnapshot(ctx, q)
}
