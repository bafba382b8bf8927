package api

import (
	"context"
	"net/http"
)

// ListDebtors returns every debtor with their running total debt.
func (c *Client) ListDebtors(ctx context.Context) ([]Debtor, error) {
	var out []Debtor
	if err := c.call(ctx, http.MethodGet, "/api/debtors", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateDebtor adds a debtor.
func (c *Client) CreateDebtor(ctx context.Context, req CreateDebtorRequest) (Debtor, error) {
	var out Debtor
	err := c.call(ctx, http.MethodPost, "/api/debtors", nil, req, &out)
	return out, err
}
