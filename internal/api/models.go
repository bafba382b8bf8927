package api

import (
	"time"

	"github.com/shopspring/decimal"
)

// Debtor is a person tracked with their running pending debt.
type Debtor struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	TotalDebt decimal.Decimal `json:"totalDebt"`
}

// ExpenseType partitions recurring expenses.
type ExpenseType string

const (
	ExpenseFixed    ExpenseType = "FIXED"
	ExpenseOptional ExpenseType = "OPTIONAL"
)

// ExpenseTypes lists every partition in display order.
var ExpenseTypes = []ExpenseType{ExpenseFixed, ExpenseOptional}

// Valid reports whether t is a known partition.
func (t ExpenseType) Valid() bool {
	return t == ExpenseFixed || t == ExpenseOptional
}

// RecurringExpense is a periodic expense. Type is fixed at creation.
type RecurringExpense struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        ExpenseType     `json:"type"`
}

// ExpenseTotal is the sum of one partition.
type ExpenseTotal struct {
	Type  ExpenseType     `json:"type"`
	Total decimal.Decimal `json:"total"`
}

// Debt is a lump amount owed by a debtor. Settled is computed by the server.
type Debt struct {
	ID           int64           `json:"id"`
	DebtorID     int64           `json:"debtorId"`
	Description  string          `json:"description"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	CreatedAt    time.Time       `json:"createdAt"`
	Settled      bool            `json:"settled"`
	Installments []Installment   `json:"installments"`
}

// Installment is one scheduled payment of a debt. Number is 1-based.
type Installment struct {
	ID      int64           `json:"id"`
	DebtID  int64           `json:"debtId"`
	Number  int             `json:"number"`
	DueDate Date            `json:"dueDate"`
	Amount  decimal.Decimal `json:"amount"`
	PaidAt  *time.Time      `json:"paidAt"`
}

// Paid reports whether the installment has been paid.
func (i Installment) Paid() bool {
	return i.PaidAt != nil
}

// SnapshotStatus is the payment state of a salary snapshot.
type SnapshotStatus string

const (
	SnapshotPending SnapshotStatus = "PENDING"
	SnapshotPaid    SnapshotStatus = "PAID"
)

// SalarySnapshot is the materialized monthly record for a debtor.
type SalarySnapshot struct {
	ID                int64           `json:"id"`
	DebtorID          int64           `json:"debtorId"`
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	MonthlyFreeAmount decimal.Decimal `json:"monthlyFreeAmount"`
	HalfFreeAmount    decimal.Decimal `json:"halfFreeAmount"`
	InstallmentsTotal decimal.Decimal `json:"installmentsTotal"`
	AmountToPay       decimal.Decimal `json:"amountToPay"`
	Status            SnapshotStatus  `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	PaidAt            *time.Time      `json:"paidAt"`
}

// MonthFreeAmount is one month of the yearly breakdown.
type MonthFreeAmount struct {
	Month            int             `json:"month"`
	Salary           decimal.Decimal `json:"salary"`
	SavingsGoal      decimal.Decimal `json:"savingsGoal"`
	FixedExpenses    decimal.Decimal `json:"fixedExpenses"`
	OptionalExpenses decimal.Decimal `json:"optionalExpenses"`
	FreeAmount       decimal.Decimal `json:"freeAmount"`
}

// MonthlyFreeAmount is the server-computed report for a year.
type MonthlyFreeAmount struct {
	Year             int               `json:"year"`
	Salary           decimal.Decimal   `json:"salary"`
	SavingsGoal      decimal.Decimal   `json:"savingsGoal"`
	FixedExpenses    decimal.Decimal   `json:"fixedExpenses"`
	OptionalExpenses decimal.Decimal   `json:"optionalExpenses"`
	FreeAmount       decimal.Decimal   `json:"freeAmount"`
	Months           []MonthFreeAmount `json:"months"`
}

// ForMonth returns the free amount for month (1-12), falling back to the
// yearly figure when the breakdown has no entry for it.
func (m MonthlyFreeAmount) ForMonth(month int) decimal.Decimal {
	for _, mo := range m.Months {
		if mo.Month == month {
			return mo.FreeAmount
		}
	}
	return m.FreeAmount
}

// Salary is a recorded monthly salary.
type Salary struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// SavingsGoal is a recorded monthly savings target.
type SavingsGoal struct {
	ID        int64           `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Report is an opaque binary document.
type Report struct {
	ContentType string
	Data        []byte
}

// request payloads

type CreateDebtorRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type CreateExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        ExpenseType     `json:"type"`
}

type UpdateExpenseRequest struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

type NewDebt struct {
	DebtorID    int64           `json:"debtorId"`
	Description string          `json:"description"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type InstallmentPlan struct {
	Count        int             `json:"count"`
	Amount       decimal.Decimal `json:"amount"`
	FirstDueDate Date            `json:"firstDueDate"`
}

type CreateDebtRequest struct {
	Debt         NewDebt         `json:"debt"`
	Installments InstallmentPlan `json:"installments"`
}

type PayInstallmentRequest struct {
	PaymentDate Date `json:"paymentDate"`
}

type PaySalaryRequest struct {
	DebtorID    int64 `json:"debtorId"`
	Year        int   `json:"year"`
	Month       int   `json:"month"`
	PaymentDate Date  `json:"paymentDate"`
}

// DebtQuery selects debts of a debtor created within [StartDate, EndDate].
type DebtQuery struct {
	DebtorID  int64
	StartDate Date
	EndDate   Date
}

// MonthQuery addresses one debtor month.
type MonthQuery struct {
	DebtorID int64
	Year     int
	Month    int
}
