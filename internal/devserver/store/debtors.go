package store

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jask/finplan/internal/api"
)

// ListDebtors returns every debtor with the sum of its unpaid installments.
func (s *Store) ListDebtors(ctx context.Context) ([]api.Debtor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email FROM debtors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []api.Debtor{}
	for rows.Next() {
		var d api.Debtor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	totals, err := s.pendingTotals(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].TotalDebt = totals[out[i].ID]
	}
	return out, nil
}

// pendingTotals sums unpaid installment amounts per debtor.
func (s *Store) pendingTotals(ctx context.Context) (map[int64]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT d.debtor_id, i.amount
	FROM installments i JOIN debts d ON d.id = i.debt_id
	WHERE i.paid_at IS NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	totals := map[int64]decimal.Decimal{}
	for rows.Next() {
		var (
			debtorID int64
			raw      string
		)
		if err := rows.Scan(&debtorID, &raw); err != nil {
			return nil, err
		}
		amt, err := parseAmount(raw)
		if err != nil {
			return nil, err
		}
		totals[debtorID] = totals[debtorID].Add(amt)
	}
	return totals, rows.Err()
}

func (s *Store) CreateDebtor(ctx context.Context, name, email string) (api.Debtor, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO debtors(name, email, created_at) VALUES (?, ?, ?)`,
		name, email, formatTime(s.stamp()))
	if err != nil {
		return api.Debtor{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return api.Debtor{}, err
	}
	return api.Debtor{ID: id, Name: name, Email: email, TotalDebt: decimal.Zero}, nil
}

// Debtor returns one debtor without its total.
func (s *Store) Debtor(ctx context.Context, id int64) (api.Debtor, error) {
	d := api.Debtor{ID: id}
	err := s.db.QueryRowContext(ctx, `SELECT name, email FROM debtors WHERE id = ?`, id).Scan(&d.Name, &d.Email)
	if err != nil {
		return api.Debtor{}, notFound(err)
	}
	return d, nil
}
