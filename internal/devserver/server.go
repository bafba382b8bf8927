// Package devserver is a local stand-in for the finance backend. It serves
// the same HTTP contract the client consumes, backed by sqlite, so the
// terminal client can be run and integration-tested without the real service.
package devserver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jask/finplan/internal/api"
	"github.com/jask/finplan/internal/devserver/store"
)

// Server routes HTTP requests to the store.
type Server struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

func New(st *store.Store, log *slog.Logger, now func() time.Time) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &Server{store: st, log: log, now: now}
}

// Handler returns the router with every route mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/debtors", s.listDebtors)
		r.Post("/debtors", s.createDebtor)

		r.Post("/salaries", s.createSalary)
		r.Post("/savings-goals", s.createSavingsGoal)
		r.Get("/financial-plan/monthly-free-amount", s.monthlyFreeAmount)

		r.Get("/salary-snapshots", s.salarySnapshot)
		r.Post("/salary-snapshots/pay", s.paySalary)
		r.Get("/reports/monthly-summary.pdf", s.monthlySummary)

		r.Route("/recurring-expenses", func(r chi.Router) {
			r.Get("/", s.listExpenses)
			r.Post("/", s.createExpense)
			r.Get("/total", s.expenseTotal)
			r.Patch("/{id}", s.updateExpense)
			r.Delete("/{id}", s.deleteExpense)
		})

		r.Route("/debts", func(r chi.Router) {
			r.Get("/", s.queryDebts)
			r.Post("/", s.createDebt)
			r.Get("/{id}", s.getDebt)
			r.Delete("/{id}", s.deleteDebt)
		})

		r.Get("/installments/unpaid", s.unpaidInstallments)
		r.Patch("/installments/{id}/pay", s.payInstallment)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, fmt.Errorf("route %s: %w", r.URL.Path, store.ErrNotFound))
	})
	return r
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, invalid("invalid id")
	}
	return id, nil
}

// debtors

func (s *Server) listDebtors(w http.ResponseWriter, r *http.Request) {
	out, err := s.store.ListDebtors(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createDebtor(w http.ResponseWriter, r *http.Request) {
	var req api.CreateDebtorRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Name, req.Email = strings.TrimSpace(req.Name), strings.TrimSpace(req.Email)
	if req.Name == "" || !strings.Contains(req.Email, "@") {
		s.writeError(w, r, invalid("name and a valid email are required"))
		return
	}
	out, err := s.store.CreateDebtor(r.Context(), req.Name, req.Email)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// plan

func amountFrom(r *http.Request) (api.AmountRequest, error) {
	var req api.AmountRequest
	if err := decode(r, &req); err != nil {
		return req, err
	}
	if req.Amount.IsNegative() {
		return req, invalid("amount must not be negative")
	}
	return req, nil
}

func (s *Server) createSalary(w http.ResponseWriter, r *http.Request) {
	req, err := amountFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.CreateSalary(r.Context(), req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) createSavingsGoal(w http.ResponseWriter, r *http.Request) {
	req, err := amountFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.CreateSavingsGoal(r.Context(), req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) monthlyFreeAmount(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err == nil {
		err = validMonth(int(year), 1)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.MonthlyFreeAmount(r.Context(), int(year))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) salarySnapshot(w http.ResponseWriter, r *http.Request) {
	q, err := monthQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.SalarySnapshot(r.Context(), q)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("salary snapshot: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) paySalary(w http.ResponseWriter, r *http.Request) {
	var req api.PaySalaryRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := validMonth(req.Year, req.Month); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.PaymentDate.IsZero() {
		s.writeError(w, r, invalid("paymentDate is required"))
		return
	}
	out, err := s.store.PaySalary(r.Context(), req)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("salary: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) monthlySummary(w http.ResponseWriter, r *http.Request) {
	q, err := monthQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pdf, err := s.renderSummary(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="monthly-summary-%d-%04d-%02d.pdf"`, q.DebtorID, q.Year, q.Month))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

// recurring expenses

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	t, err := expenseType(r.URL.Query().Get("type"), true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.ListExpenses(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) expenseTotal(w http.ResponseWriter, r *http.Request) {
	t, err := expenseType(r.URL.Query().Get("type"), true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	total, err := s.store.ExpenseTotal(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.ExpenseTotal{Type: t, Total: total})
}

func expenseType(raw string, optional bool) (api.ExpenseType, error) {
	t := api.ExpenseType(strings.ToUpper(strings.TrimSpace(raw)))
	if t == "" && optional {
		return "", nil
	}
	if !t.Valid() {
		return "", invalid("type must be FIXED or OPTIONAL")
	}
	return t, nil
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req api.CreateExpenseRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := expenseType(string(req.Type), false)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req.Type = t
	if strings.TrimSpace(req.Description) == "" || !req.Amount.IsPositive() {
		s.writeError(w, r, invalid("description and a positive amount are required"))
		return
	}
	out, err := s.store.CreateExpense(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req api.UpdateExpenseRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Description) == "" || !req.Amount.IsPositive() {
		s.writeError(w, r, invalid("description and a positive amount are required"))
		return
	}
	out, err := s.store.UpdateExpense(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("recurring expense %d: %w", id, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteExpense(r.Context(), id); err != nil {
		s.writeError(w, r, fmt.Errorf("recurring expense %d: %w", id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// debts

func (s *Server) createDebt(w http.ResponseWriter, r *http.Request) {
	var req api.CreateDebtRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	switch {
	case strings.TrimSpace(req.Debt.Description) == "":
		s.writeError(w, r, invalid("description is required"))
		return
	case !req.Debt.TotalAmount.IsPositive() || !req.Installments.Amount.IsPositive():
		s.writeError(w, r, invalid("amounts must be positive"))
		return
	case req.Installments.Count < 1:
		s.writeError(w, r, invalid("at least one installment is required"))
		return
	case req.Installments.FirstDueDate.IsZero():
		s.writeError(w, r, invalid("firstDueDate is required"))
		return
	}
	out, err := s.store.CreateDebt(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) getDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.GetDebt(r.Context(), id)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("debt %d: %w", id, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) deleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.DeleteDebt(r.Context(), id); err != nil {
		s.writeError(w, r, fmt.Errorf("debt %d: %w", id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) queryDebts(w http.ResponseWriter, r *http.Request) {
	debtor, err := queryInt(r, "debtorId")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := api.DebtQuery{DebtorID: debtor}
	if q.StartDate, err = queryDate(r, "startDate"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if q.EndDate, err = queryDate(r, "endDate"); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.QueryDebts(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) payInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req api.PayInstallmentRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.PaymentDate.IsZero() {
		s.writeError(w, r, invalid("paymentDate is required"))
		return
	}
	out, err := s.store.PayInstallment(r.Context(), id, req.PaymentDate)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("installment %d: %w", id, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) unpaidInstallments(w http.ResponseWriter, r *http.Request) {
	q, err := monthQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.UnpaidInstallments(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
