package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/jask/finplan/internal/api"
)

func (s *Store) CreateExpense(ctx context.Context, req api.CreateExpenseRequest) (api.RecurringExpense, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO recurring_expenses(description, amount, type) VALUES (?, ?, ?)`,
		req.Description, req.Amount.String(), string(req.Type))
	if err != nil {
		return api.RecurringExpense{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return api.RecurringExpense{}, err
	}
	return api.RecurringExpense{ID: id, Description: req.Description, Amount: req.Amount, Type: req.Type}, nil
}

// ListExpenses lists one type, or every expense when t is empty.
func (s *Store) ListExpenses(ctx context.Context, t api.ExpenseType) ([]api.RecurringExpense, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, description, amount, type FROM recurring_expenses
	WHERE ? = '' OR type = ?
	ORDER BY id`, string(t), string(t))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.RecurringExpense{}
	for rows.Next() {
		var (
			e   api.RecurringExpense
			raw string
		)
		if err := rows.Scan(&e.ID, &e.Description, &raw, &e.Type); err != nil {
			return nil, err
		}
		if e.Amount, err = parseAmount(raw); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ExpenseTotal(ctx context.Context, t api.ExpenseType) (decimal.Decimal, error) {
	list, err := s.ListExpenses(ctx, t)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range list {
		total = total.Add(e.Amount)
	}
	return total, nil
}

// UpdateExpense changes description and amount; the type is kept.
func (s *Store) UpdateExpense(ctx context.Context, id int64, req api.UpdateExpenseRequest) (api.RecurringExpense, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE recurring_expenses SET description = ?, amount = ? WHERE id = ?`,
		req.Description, req.Amount.String(), id)
	if err != nil {
		return api.RecurringExpense{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return api.RecurringExpense{}, ErrNotFound
	}
	e := api.RecurringExpense{ID: id, Description: req.Description, Amount: req.Amount}
	err = s.db.QueryRowContext(ctx, `SELECT type FROM recurring_expenses WHERE id = ?`, id).Scan(&e.Type)
	return e, notFound(err)
}

func (s *Store) DeleteExpense(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_expenses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// notFound maps sql.ErrNoRows to ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
