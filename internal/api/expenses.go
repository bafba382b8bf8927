package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"
)

const expensesPath = "/api/recurring-expenses"

func typeQuery(t ExpenseType) url.Values {
	if t == "" {
		return nil
	}
	return url.Values{"type": {string(t)}}
}

// CreateExpense adds a recurring expense to its type's partition.
func (c *Client) CreateExpense(ctx context.Context, req CreateExpenseRequest) (RecurringExpense, error) {
	var out RecurringExpense
	err := c.call(ctx, http.MethodPost, expensesPath, nil, req, &out)
	return out, err
}

// ListExpenses lists one partition, or all expenses when t is empty.
func (c *Client) ListExpenses(ctx context.Context, t ExpenseType) ([]RecurringExpense, error) {
	var out []RecurringExpense
	if err := c.call(ctx, http.MethodGet, expensesPath, typeQuery(t), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpenseTotal sums one partition.
func (c *Client) ExpenseTotal(ctx context.Context, t ExpenseType) (decimal.Decimal, error) {
	var out ExpenseTotal
	if err := c.call(ctx, http.MethodGet, expensesPath+"/total", typeQuery(t), nil, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Total, nil
}

// UpdateExpense changes description and amount; the type cannot change.
func (c *Client) UpdateExpense(ctx context.Context, id int64, req UpdateExpenseRequest) (RecurringExpense, error) {
	var out RecurringExpense
	err := c.call(ctx, http.MethodPatch, idPath(expensesPath, id), nil, req, &out)
	return out, err
}

// DeleteExpense removes a recurring expense.
func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	return c.call(ctx, http.MethodDelete, idPath(expensesPath, id), nil, nil, nil)
}
