package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jask/finplan/internal/api"
)

// CreateDebt stores a debt and its schedule of Count monthly installments
// numbered from 1, the first due on FirstDueDate.
func (s *Store) CreateDebt(ctx context.Context, req api.CreateDebtRequest) (api.Debt, error) {
	if err := s.exists(ctx, `SELECT 1 FROM debtors WHERE id = ?`, req.Debt.DebtorID); err != nil {
		return api.Debt{}, fmt.Errorf("debtor %d: %w", req.Debt.DebtorID, err)
	}
	created := s.stamp()
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO debts(debtor_id, description, total_amount, created_at) VALUES (?, ?, ?, ?)`,
			req.Debt.DebtorID, req.Debt.Description, req.Debt.TotalAmount.String(), formatTime(created))
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		plan := req.Installments
		for n := 1; n <= plan.Count; n++ {
			due := addMonths(plan.FirstDueDate.Time, n-1)
			if _, err := tx.ExecContext(ctx, `INSERT INTO installments(debt_id, number, due_date, amount) VALUES (?, ?, ?, ?)`,
				id, n, due.Format(api.DateLayout), plan.Amount.String()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return api.Debt{}, fmt.Errorf("create debt: %w", err)
	}
	return s.GetDebt(ctx, id)
}

// addMonths moves t by n calendar months, clamping to the last day of a
// shorter month.
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(t.Day(), last), 0, 0, 0, 0, t.Location())
}

func (s *Store) DeleteDebt(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM debts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) GetDebt(ctx context.Context, id int64) (api.Debt, error) {
	debts, err := s.debtsWhere(ctx, `id = ?`, id)
	if err != nil {
		return api.Debt{}, err
	}
	if len(debts) == 0 {
		return api.Debt{}, ErrNotFound
	}
	return debts[0], nil
}

// QueryDebts lists a debtor's debts whose creation date falls in the
// inclusive range. Zero bounds are open.
func (s *Store) QueryDebts(ctx context.Context, q api.DebtQuery) ([]api.Debt, error) {
	where := []string{`debtor_id = ?`}
	args := []any{q.DebtorID}
	if !q.StartDate.IsZero() {
		where = append(where, `substr(created_at, 1, 10) >= ?`)
		args = append(args, q.StartDate.String())
	}
	if !q.EndDate.IsZero() {
		where = append(where, `substr(created_at, 1, 10) <= ?`)
		args = append(args, q.EndDate.String())
	}
	return s.debtsWhere(ctx, strings.Join(where, " AND "), args...)
}

func (s *Store) debtsWhere(ctx context.Context, where string, args ...any) ([]api.Debt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, debtor_id, description, total_amount, created_at FROM debts WHERE `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.Debt{}
	for rows.Next() {
		var (
			d            api.Debt
			total, ctime string
		)
		if err := rows.Scan(&d.ID, &d.DebtorID, &d.Description, &total, &ctime); err != nil {
			return nil, err
		}
		if d.TotalAmount, err = parseAmount(total); err != nil {
			return nil, err
		}
		if d.CreatedAt, err = parseTime(ctime); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// one connection: release it before loading schedules
	rows.Close()

	for i := range out {
		inst, err := s.installmentsWhere(ctx, `i.debt_id = ?`, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Installments = inst
		out[i].Settled = settled(inst)
	}
	return out, nil
}

// settled is true once every installment of a non-empty schedule is paid.
func settled(inst []api.Installment) bool {
	if len(inst) == 0 {
		return false
	}
	for _, i := range inst {
		if !i.Paid() {
			return false
		}
	}
	return true
}

func (s *Store) installmentsWhere(ctx context.Context, where string, args ...any) ([]api.Installment, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT i.id, i.debt_id, i.number, i.due_date, i.amount, i.paid_at
	FROM installments i JOIN debts d ON d.id = i.debt_id
	WHERE `+where+`
	ORDER BY i.due_date, i.debt_id, i.number`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.Installment{}
	for rows.Next() {
		var (
			in       api.Installment
			due, amt string
			paid     sql.NullString
		)
		if err := rows.Scan(&in.ID, &in.DebtID, &in.Number, &due, &amt, &paid); err != nil {
			return nil, err
		}
		if in.DueDate, err = api.ParseDate(due); err != nil {
			return nil, err
		}
		if in.Amount, err = parseAmount(amt); err != nil {
			return nil, err
		}
		if in.PaidAt, err = parseNullTime(paid); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// PayInstallment records the payment date. A paid installment stays paid.
func (s *Store) PayInstallment(ctx context.Context, id int64, paid api.Date) (api.Installment, error) {
	var paidAt sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT paid_at FROM installments WHERE id = ?`, id).Scan(&paidAt)
	if err != nil {
		return api.Installment{}, notFound(err)
	}
	if paidAt.Valid {
		return api.Installment{}, ErrAlreadyPaid
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE installments SET paid_at = ? WHERE id = ?`, formatTime(paid.Time), id); err != nil {
		return api.Installment{}, err
	}
	out, err := s.installmentsWhere(ctx, `i.id = ?`, id)
	if err != nil {
		return api.Installment{}, err
	}
	if len(out) == 0 {
		return api.Installment{}, ErrNotFound
	}
	return out[0], nil
}

// UnpaidInstallments lists a debtor's unpaid installments due in the month.
func (s *Store) UnpaidInstallments(ctx context.Context, q api.MonthQuery) ([]api.Installment, error) {
	return s.installmentsWhere(ctx, `d.debtor_id = ? AND i.paid_at IS NULL AND substr(i.due_date, 1, 7) = ?`,
		q.DebtorID, fmt.Sprintf("%04d-%02d", q.Year, q.Month))
}
