package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/finplan/internal/api"
)

// money renders a decimal with the configured currency symbol and two places.
func (a *App) money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + a.currency + d.Neg().StringFixed(2)
	}
	return a.currency + d.StringFixed(2)
}

func (a *App) date(d api.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format(a.dateFormat)
}

func (a *App) timestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(a.tz).Format(a.dateFormat)
}

func (a *App) today() api.Date {
	return api.NewDate(a.now().In(a.tz))
}

func monthName(m int) string {
	if m < 1 || m > 12 {
		return "?"
	}
	return time.Month(m).String()[:3]
}

// parseAmount accepts "1234.50", "1,234.50" and a leading currency symbol.
func parseAmount(raw, currency string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if currency != "" {
		s = strings.TrimPrefix(s, currency)
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount must be a decimal number")
	}
	return d, nil
}

// parseOptionalDate parses YYYY-MM-DD; blank yields the zero Date.
func parseOptionalDate(raw string) (api.Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return api.Date{}, nil
	}
	d, err := api.ParseDate(s)
	if err != nil {
		return api.Date{}, fmt.Errorf("dates use YYYY-MM-DD")
	}
	return d, nil
}
