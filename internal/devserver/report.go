package devserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/jask/finplan/internal/api"
	"github.com/jask/finplan/internal/devserver/store"
)

// renderSummary builds the monthly summary PDF for one debtor month. Before
// the salary is paid the figures are the pending estimate.
func (s *Server) renderSummary(ctx context.Context, q api.MonthQuery) ([]byte, error) {
	debtor, err := s.store.Debtor(ctx, q.DebtorID)
	if err != nil {
		return nil, fmt.Errorf("debtor %d: %w", q.DebtorID, err)
	}
	pending, unpaid, err := s.store.Figures(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("summary figures: %w", err)
	}
	snap, err := s.store.SalarySnapshot(ctx, q)
	switch {
	case errors.Is(err, store.ErrNotFound):
		snap = pending
	case err != nil:
		return nil, fmt.Errorf("salary snapshot: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	period := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
	pdf.SetTitle("Monthly summary "+period, true)
	pdf.SetCreationDate(s.now())
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "Monthly summary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s <%s>", debtor.Name, debtor.Email)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, period, "", 1, "L", false, 0, "")
	pdf.Ln(6)

	row := func(label, value string) {
		pdf.CellFormat(70, 7, label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, value, "B", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Salary", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	row("Monthly free amount", snap.MonthlyFreeAmount.StringFixed(2))
	row("Half of free amount", snap.HalfFreeAmount.StringFixed(2))
	row("Installments due", snap.InstallmentsTotal.StringFixed(2))
	row("Amount to pay", snap.AmountToPay.StringFixed(2))
	status := string(snap.Status)
	if snap.PaidAt != nil {
		status += " on " + snap.PaidAt.Format(api.DateLayout)
	}
	row("Status", status)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Unpaid installments", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	if len(unpaid) == 0 {
		pdf.CellFormat(0, 7, "None", "", 1, "L", false, 0, "")
	}
	for _, in := range unpaid {
		pdf.CellFormat(30, 7, fmt.Sprintf("Debt %d", in.DebtID), "B", 0, "L", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("#%d", in.Number), "B", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, in.DueDate.String(), "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, in.Amount.StringFixed(2), "B", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
