package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// CreateSalary records a new monthly salary.
func (c *Client) CreateSalary(ctx context.Context, req AmountRequest) (Salary, error) {
	var out Salary
	err := c.call(ctx, http.MethodPost, "/api/salaries", nil, req, &out)
	return out, err
}

// CreateSavingsGoal records a new monthly savings goal.
func (c *Client) CreateSavingsGoal(ctx context.Context, req AmountRequest) (SavingsGoal, error) {
	var out SavingsGoal
	err := c.call(ctx, http.MethodPost, "/api/savings-goals", nil, req, &out)
	return out, err
}

// MonthlyFreeAmount fetches the free-amount report for a year.
func (c *Client) MonthlyFreeAmount(ctx context.Context, year int) (MonthlyFreeAmount, error) {
	var out MonthlyFreeAmount
	q := url.Values{"year": {strconv.Itoa(year)}}
	err := c.call(ctx, http.MethodGet, "/api/financial-plan/monthly-free-amount", q, nil, &out)
	return out, err
}

// SalarySnapshot fetches a materialized snapshot. A snapshot that does not
// exist yet yields an *Error with status 404; see IsNotFound.
func (c *Client) SalarySnapshot(ctx context.Context, q MonthQuery) (SalarySnapshot, error) {
	var out SalarySnapshot
	err := c.call(ctx, http.MethodGet, "/api/salary-snapshots", q.values(), nil, &out)
	return out, err
}

// PaySalary materializes (if needed) and pays the snapshot for a month.
func (c *Client) PaySalary(ctx context.Context, req PaySalaryRequest) (SalarySnapshot, error) {
	var out SalarySnapshot
	err := c.call(ctx, http.MethodPost, "/api/salary-snapshots/pay", nil, req, &out)
	return out, err
}

// MonthlySummaryReport downloads the PDF summary as an opaque blob.
func (c *Client) MonthlySummaryReport(ctx context.Context, q MonthQuery) (Report, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/reports/monthly-summary.pdf", acceptPDF, q.values(), nil)
	if err != nil {
		return Report{}, err
	}
	return Report{ContentType: resp.contentType, Data: resp.body}, nil
}
