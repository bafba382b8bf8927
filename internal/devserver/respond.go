package devserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jask/finplan/internal/api"
	"github.com/jask/finplan/internal/devserver/store"
)

// errorBody is the error shape every failed route writes.
type errorBody struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Message   string `json:"message"`
}

// badRequest marks a client input problem.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func invalid(msg string) error { return badRequest{msg: msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := http.StatusInternalServerError, "Internal server error"
	var br badRequest
	switch {
	case errors.As(err, &br):
		status, msg = http.StatusBadRequest, br.msg
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, store.ErrAlreadyPaid):
		status, msg = http.StatusConflict, err.Error()
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   msg,
	})
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalid("Invalid request body")
	}
	return nil
}

// queryInt reads a required integer query parameter.
func queryInt(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, invalid(name + " is required")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, invalid("invalid " + name)
	}
	return v, nil
}

// monthQuery reads debtorId, year and month.
func monthQuery(r *http.Request) (api.MonthQuery, error) {
	debtor, err := queryInt(r, "debtorId")
	if err != nil {
		return api.MonthQuery{}, err
	}
	year, err := queryInt(r, "year")
	if err != nil {
		return api.MonthQuery{}, err
	}
	month, err := queryInt(r, "month")
	if err != nil {
		return api.MonthQuery{}, err
	}
	q := api.MonthQuery{DebtorID: debtor, Year: int(year), Month: int(month)}
	return q, validMonth(q.Year, q.Month)
}

func validMonth(year, month int) error {
	if year < 1 || month < 1 || month > 12 {
		return invalid("invalid year or month")
	}
	return nil
}

// queryDate reads an optional YYYY-MM-DD parameter.
func queryDate(r *http.Request, name string) (api.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return api.Date{}, nil
	}
	d, err := api.ParseDate(raw)
	if err != nil {
		return api.Date{}, invalid("invalid " + name)
	}
	return d, nil
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
				"duration", time.Since(start),
			)
		})
	}
}
