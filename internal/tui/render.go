package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jask/finplan/internal/api"
	"github.com/jask/finplan/internal/view"
)

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("finplan"))
	b.WriteString("\n\n")

	switch a.model.Phase() {
	case view.PhaseLoading:
		b.WriteString("Loading debtors, expenses and plan...\n")
		b.WriteString(a.statusLine())
		return b.String()
	case view.PhaseFailed:
		fmt.Fprintf(&b, "Could not load data from %s\n", a.cfg.API.BaseURL)
		b.WriteString(a.statusLine())
		b.WriteString("\n" + helpStyle.Render("[r] Retry  [q] Quit"))
		return b.String()
	}

	b.WriteString(a.renderTabs())
	b.WriteString("\n\n")
	switch a.state {
	case tabDebtors:
		b.WriteString(a.renderDebtors())
	case tabDebts:
		b.WriteString(a.renderDebts())
	case tabExpenses:
		b.WriteString(a.renderExpenses())
	case tabPlan:
		b.WriteString(a.renderPlan())
	}
	if a.modal != modalNone {
		b.WriteString("\n\n")
		b.WriteString(a.renderModal())
	}
	b.WriteString("\n")
	b.WriteString(a.statusLine())
	b.WriteString("\n" + helpStyle.Render("[1-4/tab] Switch  [r] Reload  [c] Settings  [q] Quit"))
	return b.String()
}

func (a *App) renderTabs() string {
	parts := make([]string, 0, len(tabs))
	for i, t := range tabs {
		label := fmt.Sprintf("%d %s", i+1, tabTitles[t])
		if t == a.state {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// statusLine shows a local input problem first, else the model's notice.
func (a *App) statusLine() string {
	if a.status != "" {
		if strings.HasPrefix(a.status, "error: ") {
			return errorStyle.Render(a.status)
		}
		return warningStyle.Render(a.status)
	}
	n := a.model.Notice()
	switch n.Kind {
	case view.NoticeSuccess:
		return successStyle.Render(n.Text)
	case view.NoticeError:
		return errorStyle.Render("error: " + n.Text)
	}
	return ""
}

func cursor(selected bool) string {
	if selected {
		return cursorStyle.Render("▶ ")
	}
	return "  "
}

func (a *App) renderDebtors() string {
	var b strings.Builder
	debtors := a.model.Debtors()
	b.WriteString(headerStyle.Render(fmt.Sprintf("Debtors (%d)", len(debtors))))
	b.WriteString("\n")
	if len(debtors) == 0 {
		b.WriteString("No debtors yet. Press n to add one.\n")
	}
	for i, d := range debtors {
		fmt.Fprintf(&b, "%s%-20s %-28s %s\n", cursor(i == a.debtorCursor), d.Name, d.Email, amountStyle.Render(a.money(d.TotalDebt)))
	}
	b.WriteString(helpStyle.Render("[n] New  [/] Find  [enter] Use for debts"))
	return b.String()
}

func (a *App) renderDebts() string {
	if d, ok := a.model.Detail(); ok {
		return a.renderDebtDetail(d)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n",
		headerStyle.Render("Debts of "+a.debtorName(view.SelectDebtQuery)),
		helpStyle.Render("new debts go to "+a.debtorName(view.SelectDebtForm)))

	q, ok := a.model.Query()
	switch {
	case !ok:
		b.WriteString("No query yet. Add a debtor, then press f.\n")
	case !q.Loaded:
		b.WriteString("Loading debts...\n")
	default:
		fmt.Fprintf(&b, "Created %s to %s\n", a.rangeBound(q.Query.StartDate), a.rangeBound(q.Query.EndDate))
		if len(q.Debts) == 0 {
			b.WriteString("No debts in range.\n")
		}
		for i, d := range q.Debts {
			state := "open"
			if d.Settled {
				state = "settled"
			}
			fmt.Fprintf(&b, "%s#%-4d %-24s %s  created %s  %s\n",
				cursor(i == a.debtCursor), d.ID, d.Description,
				amountStyle.Render(a.money(d.TotalAmount)), a.timestamp(&d.CreatedAt), state)
		}
	}
	b.WriteString(helpStyle.Render("[[/]] Query debtor  [{/}] Form debtor  [n] New debt  [f] Date range  [enter] Open"))
	return b.String()
}

func (a *App) rangeBound(d api.Date) string {
	if d.IsZero() {
		return "any"
	}
	return a.date(d)
}

func (a *App) renderDebtDetail(d view.DebtDetailView) string {
	var b strings.Builder
	if d.Debt == nil {
		fmt.Fprintf(&b, "Loading debt #%d...\n", d.DebtID)
		b.WriteString(helpStyle.Render("[esc] Back"))
		return b.String()
	}
	debt := d.Debt
	b.WriteString(headerStyle.Render(fmt.Sprintf("Debt #%d: %s", debt.ID, debt.Description)))
	settled := "no"
	if debt.Settled {
		settled = "yes"
	}
	fmt.Fprintf(&b, "\nTotal %s  Created %s  Settled: %s\n\n",
		amountStyle.Render(a.money(debt.TotalAmount)), a.timestamp(&debt.CreatedAt), settled)
	for i, in := range debt.Installments {
		paid := "unpaid"
		if in.Paid() {
			paid = "paid " + a.timestamp(in.PaidAt)
		}
		fmt.Fprintf(&b, "%s%2d  due %s  %s  %s\n", cursor(i == a.instCursor), in.Number, a.date(in.DueDate), a.money(in.Amount), paid)
	}
	b.WriteString(helpStyle.Render("[p] Pay installment  [x] Delete debt  [esc] Back"))
	return b.String()
}

func (a *App) renderExpenses() string {
	var b strings.Builder
	for _, t := range api.ExpenseTypes {
		title := fmt.Sprintf("%s expenses (total %s)", partitionTitles[t], a.money(a.model.ExpenseTotal(t)))
		if t == a.expenseType {
			b.WriteString(headerStyle.Render("▸ " + title))
		} else {
			b.WriteString(helpStyle.Render("  " + title))
		}
		b.WriteString("\n")
		list := a.model.Expenses(t)
		if len(list) == 0 {
			b.WriteString("  (none)\n")
		}
		for i, e := range list {
			fmt.Fprintf(&b, "%s%-28s %s\n", cursor(t == a.expenseType && i == a.expenseCursor), e.Description, amountStyle.Render(a.money(e.Amount)))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("[h/l] Switch list  [n] New  [e] Edit  [x] Delete"))
	return b.String()
}

var partitionTitles = map[api.ExpenseType]string{
	api.ExpenseFixed:    "Fixed",
	api.ExpenseOptional: "Optional",
}

func (a *App) renderPlan() string {
	var b strings.Builder
	year := a.model.PlanYear()
	b.WriteString(headerStyle.Render(fmt.Sprintf("Plan %d", year)))
	b.WriteString("\n")

	fa, ok := a.model.FreeAmount()
	if !ok {
		b.WriteString("Loading free amount...\n")
	} else {
		fmt.Fprintf(&b, "Salary %s  Savings goal %s  Fixed %s  Optional %s  Free %s\n\n",
			a.money(fa.Salary), a.money(fa.SavingsGoal), a.money(fa.FixedExpenses),
			a.money(fa.OptionalExpenses), amountStyle.Render(a.money(fa.FreeAmount)))
		fmt.Fprintf(&b, "  %-5s %12s %12s %12s\n", "Month", "Salary", "Goal", "Free")
		for m := 1; m <= 12; m++ {
			var salary, goal string
			for _, mo := range fa.Months {
				if mo.Month == m {
					salary, goal = a.money(mo.Salary), a.money(mo.SavingsGoal)
				}
			}
			fmt.Fprintf(&b, "%s%-5s %12s %12s %12s\n", cursor(m == a.planMonth), monthName(m), salary, goal, a.money(fa.ForMonth(m)))
		}
	}

	b.WriteString("\n")
	b.WriteString(a.renderSnapshot())
	fmt.Fprintf(&b, "Snapshot debtor: %s  Report debtor: %s\n",
		a.debtorName(view.SelectSnapshot), a.debtorName(view.SelectReport))
	b.WriteString(helpStyle.Render("[</>] Year  [s] Salary  [g] Savings goal  [[/]] Snapshot debtor  [{/}] Report debtor\n[enter] Snapshot  [p] Pay salary  [d] Download report  [esc] Close snapshot"))
	return b.String()
}

func (a *App) renderSnapshot() string {
	panel, ok := a.model.Snapshot()
	if !ok {
		return ""
	}
	var b strings.Builder
	name := "debtor"
	if d, found := a.model.Debtor(panel.Query.DebtorID); found {
		name = d.Name
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("Salary for %s, %s %d", name, monthName(panel.Query.Month), panel.Query.Year)))
	b.WriteString("\n")
	if panel.Loading {
		b.WriteString("Loading snapshot...\n")
		return b.String()
	}
	switch v := panel.View.(type) {
	case view.Preview:
		fmt.Fprintf(&b, "Estimate (not yet paid): free %s / 2 - unpaid %s = %s\n",
			a.money(v.MonthFreeAmount), a.money(v.UnpaidTotal), amountStyle.Render(a.money(v.Amount)))
	case view.Materialized:
		s := v.Snapshot
		fmt.Fprintf(&b, "%s: half of %s is %s, installments %s, to pay %s",
			s.Status, a.money(s.MonthlyFreeAmount), a.money(s.HalfFreeAmount),
			a.money(s.InstallmentsTotal), amountStyle.Render(a.money(s.AmountToPay)))
		if s.PaidAt != nil {
			b.WriteString(", paid " + a.timestamp(s.PaidAt))
		}
		b.WriteString("\n")
	}
	for _, in := range panel.Unpaid {
		fmt.Fprintf(&b, "  debt #%d installment %d due %s  %s\n", in.DebtID, in.Number, a.date(in.DueDate), a.money(in.Amount))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderModal() string {
	if a.modal == modalConfirm {
		return modalStyle.Render(a.confirm.prompt + "\n" + helpStyle.Render("[y] Yes  [n] No"))
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(a.form.title))
	b.WriteString("\n")
	for i, f := range a.form.fields {
		line := fmt.Sprintf("%s: %s", f.label, f.value)
		if i == a.form.focus {
			line = cursorStyle.Render("▶ ") + line + "_"
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	if a.modal == modalFind {
		for i, d := range a.model.FindDebtor(a.form.value(0)) {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "    %s <%s>\n", d.Name, d.Email)
		}
	}
	b.WriteString(helpStyle.Render("[tab] Next field  [enter] Next/Submit  [esc] Cancel"))
	return modalStyle.Render(b.String())
}
