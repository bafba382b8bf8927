package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const debtsPath = "/api/debts"

// CreateDebt creates a debt together with its installment schedule.
func (c *Client) CreateDebt(ctx context.Context, req CreateDebtRequest) (Debt, error) {
	var out Debt
	err := c.call(ctx, http.MethodPost, debtsPath, nil, req, &out)
	return out, err
}

// DeleteDebt removes a debt and its installments.
func (c *Client) DeleteDebt(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, idPath(debtsPath, id), nil, nil, nil)
}

// GetDebt fetches one debt with its installments.
func (c *Client) GetDebt(ctx context.Context, id int64) (Debt, error) {
	var out Debt
	err := c.call(ctx, http.MethodGet, idPath(debtsPath, id), nil, nil, &out)
	return out, err
}

// QueryDebts lists a debtor's debts created within the date range.
func (c *Client) QueryDebts(ctx context.Context, q DebtQuery) ([]Debt, error) {
	params := url.Values{"debtorId": {strconv.FormatInt(q.DebtorID, 10)}}
	if !q.StartDate.IsZero() {
		params.Set("startDate", q.StartDate.String())
	}
	if !q.EndDate.IsZero() {
		params.Set("endDate", q.EndDate.String())
	}
	var out []Debt
	if err := c.call(ctx, http.MethodGet, debtsPath, params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PayInstallment marks one installment paid. It cannot be undone.
func (c *Client) PayInstallment(ctx context.Context, id int64, req PayInstallmentRequest) (Installment, error) {
	var out Installment
	err := c.call(ctx, http.MethodPatch, fmt.Sprintf("/api/installments/%d/pay", id), nil, req, &out)
	return out, err
}

// UnpaidInstallments lists a debtor's unpaid installments due in a month.
func (c *Client) UnpaidInstallments(ctx context.Context, q MonthQuery) ([]Installment, error) {
	var out []Installment
	if err := c.call(ctx, http.MethodGet, "/api/installments/unpaid", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (q MonthQuery) values() url.Values {
	return url.Values{
		"debtorId": {strconv.FormatInt(q.DebtorID, 10)},
		"year":     {strconv.Itoa(q.Year)},
		"month":    {strconv.Itoa(q.Month)},
	}
}
