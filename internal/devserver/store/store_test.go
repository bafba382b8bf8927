package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/finplan/internal/api"
)

var clock = func() time.Time { return time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC) }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "dev.db"), clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func date(t *testing.T, v string) api.Date {
	t.Helper()
	d, err := api.ParseDate(v)
	require.NoError(t, err)
	return d
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "dev.db")
	s, err := Open(path, clock)
	require.NoError(t, err)
	_, err = s.CreateDebtor(context.Background(), "Ana", "ana@x.com")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path, clock)
	require.NoError(t, err)
	defer s.Close()
	list, err := s.ListDebtors(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestDebtScheduleAndPayment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	ana, err := s.CreateDebtor(ctx, "Ana", "ana@x.com")
	require.NoError(t, err)

	debt, err := s.CreateDebt(ctx, api.CreateDebtRequest{
		Debt:         api.NewDebt{DebtorID: ana.ID, Description: "Laptop", TotalAmount: dec("3000")},
		Installments: api.InstallmentPlan{Count: 3, Amount: dec("1000"), FirstDueDate: date(t, "2024-01-31")},
	})
	require.NoError(t, err)
	require.Len(t, debt.Installments, 3)
	require.False(t, debt.Settled)
	wantDue := []string{"2024-01-31", "2024-02-29", "2024-03-31"}
	for i, in := range debt.Installments {
		require.Equal(t, i+1, in.Number)
		require.Equal(t, wantDue[i], in.DueDate.String())
		require.False(t, in.Paid())
	}

	list, err := s.ListDebtors(ctx)
	require.NoError(t, err)
	require.Equal(t, "3000", list[0].TotalDebt.String())

	first := debt.Installments[0]
	paid, err := s.PayInstallment(ctx, first.ID, date(t, "2024-01-20"))
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)

	_, err = s.PayInstallment(ctx, first.ID, date(t, "2024-01-21"))
	require.ErrorIs(t, err, ErrAlreadyPaid)
	_, err = s.PayInstallment(ctx, 999, date(t, "2024-01-21"))
	require.ErrorIs(t, err, ErrNotFound)

	debt, err = s.GetDebt(ctx, debt.ID)
	require.NoError(t, err)
	require.True(t, debt.Installments[0].Paid())
	require.False(t, debt.Settled)

	for _, in := range debt.Installments[1:] {
		_, err := s.PayInstallment(ctx, in.ID, date(t, "2024-03-01"))
		require.NoError(t, err)
	}
	debt, err = s.GetDebt(ctx, debt.ID)
	require.NoError(t, err)
	require.True(t, debt.Settled)

	list, err = s.ListDebtors(ctx)
	require.NoError(t, err)
	require.True(t, list[0].TotalDebt.IsZero())
}

func TestCreateDebtUnknownDebtor(t *testing.T) {
	t.Parallel()
	s := openTestStore(t)
	_, err := s.CreateDebt(context.Background(), api.CreateDebtRequest{
		Debt:         api.NewDebt{DebtorID: 42, Description: "x", TotalAmount: dec("1")},
		Installments: api.InstallmentPlan{Count: 1, Amount: dec("1"), FirstDueDate: date(t, "2024-01-01")},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteDebtCascades(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)
	ana, err := s.CreateDebtor(ctx, "Ana", "ana@x.com")
	require.NoError(t, err)
	debt, err := s.CreateDebt(ctx, api.CreateDebtRequest{
		Debt:         api.NewDebt{DebtorID: ana.ID, Description: "Phone", TotalAmount: dec("200")},
		Installments: api.InstallmentPlan{Count: 2, Amount: dec("100"), FirstDueDate: date(t, "2024-03-10")},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDebt(ctx, debt.ID))
	require.ErrorIs(t, s.DeleteDebt(ctx, debt.ID), ErrNotFound)
	_, err = s.GetDebt(ctx, debt.ID)
	require.ErrorIs(t, err, ErrNotFound)

	unpaid, err := s.UnpaidInstallments(ctx, api.MonthQuery{DebtorID: ana.ID, Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Empty(t, unpaid)
}

func TestQueryDebtsByCreationDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)
	ana, err := s.CreateDebtor(ctx, "Ana", "ana@x.com")
	require.NoError(t, err)
	_, err = s.CreateDebt(ctx, api.CreateDebtRequest{
		Debt:         api.NewDebt{DebtorID: ana.ID, Description: "Desk", TotalAmount: dec("50")},
		Installments: api.InstallmentPlan{Count: 1, Amount: dec("50"), FirstDueDate: date(t, "2024-04-01")},
	})
	require.NoError(t, err)

	cases := []struct {
		name  string
		q     api.DebtQuery
		count int
	}{
		{"open range", api.DebtQuery{DebtorID: ana.ID}, 1},
		{"covering", api.DebtQuery{DebtorID: ana.ID, StartDate: date(t, "2024-03-15"), EndDate: date(t, "2024-03-15")}, 1},
		{"before", api.DebtQuery{DebtorID: ana.ID, EndDate: date(t, "2024-03-14")}, 0},
		{"other debtor", api.DebtQuery{DebtorID: ana.ID + 1}, 0},
	}
	for _, tc := range cases {
		got, err := s.QueryDebts(ctx, tc.q)
		require.NoError(t, err, tc.name)
		require.Len(t, got, tc.count, tc.name)
	}
}

func TestExpensePartitions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	rent, err := s.CreateExpense(ctx, api.CreateExpenseRequest{Description: "Rent", Amount: dec("900.50"), Type: api.ExpenseFixed})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, api.CreateExpenseRequest{Description: "Gym", Amount: dec("40"), Type: api.ExpenseOptional})
	require.NoError(t, err)

	fixed, err := s.ListExpenses(ctx, api.ExpenseFixed)
	require.NoError(t, err)
	require.Len(t, fixed, 1)
	all, err := s.ListExpenses(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	updated, err := s.UpdateExpense(ctx, rent.ID, api.UpdateExpenseRequest{Description: "Rent+", Amount: dec("950")})
	require.NoError(t, err)
	require.Equal(t, api.ExpenseFixed, updated.Type)

	total, err := s.ExpenseTotal(ctx, api.ExpenseFixed)
	require.NoError(t, err)
	require.Equal(t, "950", total.String())

	require.NoError(t, s.DeleteExpense(ctx, rent.ID))
	require.ErrorIs(t, s.DeleteExpense(ctx, rent.ID), ErrNotFound)
	_, err = s.UpdateExpense(ctx, rent.ID, api.UpdateExpenseRequest{Description: "x", Amount: dec("1")})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMonthlyFreeAmount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)

	empty, err := s.MonthlyFreeAmount(ctx, 2024)
	require.NoError(t, err)
	require.True(t, empty.FreeAmount.IsZero())
	require.True(t, empty.Salary.IsZero())
	require.Len(t, empty.Months, 12)

	_, err = s.CreateSalary(ctx, dec("5000"))
	require.NoError(t, err)
	_, err = s.CreateSavingsGoal(ctx, dec("1000"))
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, api.CreateExpenseRequest{Description: "Rent", Amount: dec("900"), Type: api.ExpenseFixed})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, api.CreateExpenseRequest{Description: "Gym", Amount: dec("100"), Type: api.ExpenseOptional})
	require.NoError(t, err)

	fa, err := s.MonthlyFreeAmount(ctx, 2024)
	require.NoError(t, err)
	require.Equal(t, "3000", fa.FreeAmount.String())
	require.Equal(t, "5000", fa.Salary.String())
	// recorded in March: earlier months predate it
	require.True(t, fa.ForMonth(2).IsZero())
	require.Equal(t, "3000", fa.ForMonth(3).String())
	require.Equal(t, "3000", fa.ForMonth(12).String())

	prev, err := s.MonthlyFreeAmount(ctx, 2023)
	require.NoError(t, err)
	require.True(t, prev.FreeAmount.IsZero())
}

func TestSalarySnapshotLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := openTestStore(t)
	ana, err := s.CreateDebtor(ctx, "Ana", "ana@x.com")
	require.NoError(t, err)
	_, err = s.CreateSalary(ctx, dec("6000"))
	require.NoError(t, err)
	_, err = s.CreateDebt(ctx, api.CreateDebtRequest{
		Debt:         api.NewDebt{DebtorID: ana.ID, Description: "Car", TotalAmount: dec("1000")},
		Installments: api.InstallmentPlan{Count: 2, Amount: dec("500"), FirstDueDate: date(t, "2024-03-05")},
	})
	require.NoError(t, err)

	q := api.MonthQuery{DebtorID: ana.ID, Year: 2024, Month: 3}
	_, err = s.SalarySnapshot(ctx, q)
	require.ErrorIs(t, err, ErrNotFound)

	snap, err := s.PaySalary(ctx, api.PaySalaryRequest{DebtorID: ana.ID, Year: 2024, Month: 3, PaymentDate: date(t, "2024-03-28")})
	require.NoError(t, err)
	require.Equal(t, api.SnapshotPaid, snap.Status)
	require.Equal(t, "6000", snap.MonthlyFreeAmount.String())
	require.Equal(t, "3000", snap.HalfFreeAmount.String())
	require.Equal(t, "500", snap.InstallmentsTotal.String())
	require.Equal(t, "2500", snap.AmountToPay.String())
	require.NotNil(t, snap.PaidAt)

	got, err := s.SalarySnapshot(ctx, q)
	require.NoError(t, err)
	require.Equal(t, snap, got)

	_, err = s.PaySalary(ctx, api.PaySalaryRequest{DebtorID: ana.ID, Year: 2024, Month: 3, PaymentDate: date(t, "2024-03-29")})
	require.ErrorIs(t, err, ErrAlreadyPaid)
	_, err = s.PaySalary(ctx, api.PaySalaryRequest{DebtorID: 99, Year: 2024, Month: 3, PaymentDate: date(t, "2024-03-29")})
	require.ErrorIs(t, err, ErrNotFound)
}
