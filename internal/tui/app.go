package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/finplan/internal/api"
	"github.com/jask/finplan/internal/config"
	"github.com/jask/finplan/internal/view"
)

// App is the terminal front end over a view.Model.
type App struct {
	ctx        context.Context
	model      *view.Model
	cfg        config.Config
	cfgPath    string
	state      appState
	modal      modalState
	form       form
	confirm    confirmation
	status     string
	tz         *time.Location
	currency   string
	dateFormat string
	now        func() time.Time

	debtorCursor  int
	debtCursor    int
	instCursor    int
	expenseType   api.ExpenseType
	expenseCursor int
	planMonth     int
}

type appState string

const (
	tabDebtors  appState = "debtors"
	tabDebts    appState = "debts"
	tabExpenses appState = "expenses"
	tabPlan     appState = "plan"
)

var tabs = []appState{tabDebtors, tabDebts, tabExpenses, tabPlan}

var tabTitles = map[appState]string{
	tabDebtors:  "Debtors",
	tabDebts:    "Debts",
	tabExpenses: "Expenses",
	tabPlan:     "Plan",
}

// New builds the App. cfgPath is where settings edits are saved; empty means
// the default location.
func New(ctx context.Context, model *view.Model, cfg config.Config, cfgPath string, tz *time.Location) *App {
	if tz == nil {
		tz = time.Local
	}
	now := time.Now
	return &App{
		ctx:         ctx,
		model:       model,
		cfg:         cfg,
		cfgPath:     cfgPath,
		state:       tabDebtors,
		tz:          tz,
		currency:    cfg.UI.CurrencySymbol,
		dateFormat:  cfg.UI.DateFormat,
		now:         now,
		expenseType: api.ExpenseFixed,
		planMonth:   int(now().In(tz).Month()),
	}
}

func (a *App) Init() tea.Cmd {
	return a.model.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.modal != modalNone {
			return a, a.handleModalKey(m)
		}
		a.status = ""
		switch a.model.Phase() {
		case view.PhaseLoading:
			if m.String() == "q" {
				return a, tea.Quit
			}
			return a, nil
		case view.PhaseFailed:
			switch m.String() {
			case "q":
				return a, tea.Quit
			case "r":
				return a, a.model.Retry()
			}
			return a, nil
		}
		return a.handleKey(m)
	case settingsSavedMsg:
		if m.err != nil {
			a.status = "error: " + m.err.Error()
			return a, nil
		}
		a.cfg = m.cfg
		a.currency = m.cfg.UI.CurrencySymbol
		a.dateFormat = m.cfg.UI.DateFormat
		a.status = "settings saved"
		return a, nil
	}
	cmd := a.model.Update(msg)
	a.clampCursors()
	return a, cmd
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q":
		return a, tea.Quit
	case "1", "2", "3", "4":
		return a, a.switchTab(tabs[int(m.String()[0]-'1')])
	case "tab":
		return a, a.switchTab(tabs[(a.tabIndex()+1)%len(tabs)])
	case "shift+tab":
		return a, a.switchTab(tabs[(a.tabIndex()+len(tabs)-1)%len(tabs)])
	case "c":
		a.openForm(modalSettings, "Settings (API URL applies on restart)",
			field{"Currency symbol", a.currency},
			field{"Date format", a.dateFormat},
			field{"API base URL", a.cfg.API.BaseURL},
		)
		return a, nil
	case "r":
		return a, a.reload()
	}
	switch a.state {
	case tabDebtors:
		return a, a.handleDebtorsKey(m)
	case tabDebts:
		return a, a.handleDebtsKey(m)
	case tabExpenses:
		return a, a.handleExpensesKey(m)
	case tabPlan:
		return a, a.handlePlanKey(m)
	}
	return a, nil
}

func (a *App) tabIndex() int {
	for i, t := range tabs {
		if t == a.state {
			return i
		}
	}
	return 0
}

// switchTab changes tab and runs the debts query on first visit.
func (a *App) switchTab(to appState) tea.Cmd {
	a.state = to
	if to == tabDebts {
		if _, ok := a.model.Query(); !ok {
			return a.runQuery(api.Date{}, api.Date{})
		}
	}
	return nil
}

// reload refreshes what the current tab shows.
func (a *App) reload() tea.Cmd {
	switch a.state {
	case tabDebtors:
		return a.model.ReloadDebtors()
	case tabDebts:
		if d, ok := a.model.Detail(); ok {
			return a.model.OpenDebt(d.DebtID, d.DebtorID)
		}
		if q, ok := a.model.Query(); ok {
			return a.model.RunDebtQuery(q.Query)
		}
		return a.runQuery(api.Date{}, api.Date{})
	case tabExpenses:
		return a.model.ReloadExpenses("")
	case tabPlan:
		return a.model.SetPlanYear(a.model.PlanYear())
	}
	return nil
}

func (a *App) handleDebtorsKey(m tea.KeyMsg) tea.Cmd {
	debtors := a.model.Debtors()
	switch m.String() {
	case "up", "k":
		if a.debtorCursor > 0 {
			a.debtorCursor--
		}
	case "down", "j":
		if a.debtorCursor < len(debtors)-1 {
			a.debtorCursor++
		}
	case "n":
		a.openForm(modalNewDebtor, "New debtor", field{label: "Name"}, field{label: "Email"})
	case "/":
		a.openForm(modalFind, "Find debtor", field{label: "Name or email"})
	case "enter":
		if len(debtors) == 0 {
			a.status = "no debtors yet"
			return nil
		}
		d := debtors[a.debtorCursor]
		a.useDebtor(d.ID)
		a.state = tabDebts
		return a.runQuery(api.Date{}, api.Date{})
	}
	return nil
}

// useDebtor points every debtor selector at id.
func (a *App) useDebtor(id int64) {
	for _, s := range view.Selectors {
		a.model.Select(s, id)
	}
}

// cycleDebtor moves selector s by delta through the debtor list.
func (a *App) cycleDebtor(s view.Selector, delta int) bool {
	debtors := a.model.Debtors()
	if len(debtors) == 0 {
		a.status = "no debtors yet"
		return false
	}
	idx := 0
	for i, d := range debtors {
		if d.ID == a.model.Selected(s) {
			idx = i
		}
	}
	idx = (idx + delta + len(debtors)) % len(debtors)
	a.model.Select(s, debtors[idx].ID)
	return true
}

func (a *App) debtorName(s view.Selector) string {
	if d, ok := a.model.Debtor(a.model.Selected(s)); ok {
		return d.Name
	}
	return "(none)"
}

func (a *App) runQuery(start, end api.Date) tea.Cmd {
	id := a.model.Selected(view.SelectDebtQuery)
	if id == 0 {
		return nil
	}
	a.debtCursor = 0
	return a.model.RunDebtQuery(api.DebtQuery{DebtorID: id, StartDate: start, EndDate: end})
}

func (a *App) handleDebtsKey(m tea.KeyMsg) tea.Cmd {
	if d, ok := a.model.Detail(); ok {
		return a.handleDetailKey(m, d)
	}
	q, _ := a.model.Query()
	switch m.String() {
	case "up", "k":
		if a.debtCursor > 0 {
			a.debtCursor--
		}
	case "down", "j":
		if a.debtCursor < len(q.Debts)-1 {
			a.debtCursor++
		}
	case "[", "]":
		delta := 1
		if m.String() == "[" {
			delta = -1
		}
		if a.cycleDebtor(view.SelectDebtQuery, delta) {
			return a.runQuery(q.Query.StartDate, q.Query.EndDate)
		}
	case "{", "}":
		delta := 1
		if m.String() == "{" {
			delta = -1
		}
		a.cycleDebtor(view.SelectDebtForm, delta)
	case "n":
		if a.model.Selected(view.SelectDebtForm) == 0 {
			a.status = "add a debtor first"
			return nil
		}
		a.openForm(modalNewDebt, "New debt for "+a.debtorName(view.SelectDebtForm),
			field{label: "Description"},
			field{label: "Total amount"},
			field{label: "Installments", value: "1"},
			field{label: "Installment amount"},
			field{label: "First due date (YYYY-MM-DD)", value: a.today().String()},
		)
	case "f":
		a.openForm(modalDebtQuery, "Debts created between (blank = open)",
			field{"Start date (YYYY-MM-DD)", q.Query.StartDate.String()},
			field{"End date (YYYY-MM-DD)", q.Query.EndDate.String()},
		)
	case "enter":
		if len(q.Debts) == 0 {
			return nil
		}
		d := q.Debts[a.debtCursor]
		a.instCursor = 0
		return a.model.OpenDebt(d.ID, d.DebtorID)
	}
	return nil
}

func (a *App) handleDetailKey(m tea.KeyMsg, d view.DebtDetailView) tea.Cmd {
	var inst []api.Installment
	if d.Debt != nil {
		inst = d.Debt.Installments
	}
	switch m.String() {
	case "esc":
		a.model.CloseDebt()
	case "up", "k":
		if a.instCursor > 0 {
			a.instCursor--
		}
	case "down", "j":
		if a.instCursor < len(inst)-1 {
			a.instCursor++
		}
	case "p":
		if len(inst) == 0 {
			return nil
		}
		in := inst[a.instCursor]
		if in.Paid() {
			a.status = "installment already paid"
			return nil
		}
		return a.model.PayInstallment(in.ID, d.DebtID, d.DebtorID, a.today())
	case "x":
		debtID, debtorID := d.DebtID, d.DebtorID
		a.ask("Delete this debt and all its installments?", func() tea.Cmd {
			return a.model.DeleteDebt(debtID, debtorID)
		})
	}
	return nil
}

func (a *App) handleExpensesKey(m tea.KeyMsg) tea.Cmd {
	list := a.model.Expenses(a.expenseType)
	switch m.String() {
	case "left", "h", "right", "l":
		if a.expenseType == api.ExpenseFixed {
			a.expenseType = api.ExpenseOptional
		} else {
			a.expenseType = api.ExpenseFixed
		}
		a.expenseCursor = 0
	case "up", "k":
		if a.expenseCursor > 0 {
			a.expenseCursor--
		}
	case "down", "j":
		if a.expenseCursor < len(list)-1 {
			a.expenseCursor++
		}
	case "n":
		a.openForm(modalNewExpense, "New "+strings.ToLower(string(a.expenseType))+" expense",
			field{label: "Description"}, field{label: "Amount"})
	case "e":
		if len(list) == 0 {
			return nil
		}
		e := list[a.expenseCursor]
		a.openForm(modalEditExpense, "Edit expense",
			field{"Description", e.Description}, field{"Amount", e.Amount.StringFixed(2)})
		a.form.id = e.ID
	case "x":
		if len(list) == 0 {
			return nil
		}
		e := list[a.expenseCursor]
		a.ask("Delete expense "+e.Description+"?", func() tea.Cmd {
			return a.model.DeleteExpense(e.ID, e.Type)
		})
	}
	return nil
}

func (a *App) monthQuery(s view.Selector) (api.MonthQuery, bool) {
	id := a.model.Selected(s)
	if id == 0 {
		a.status = "add a debtor first"
		return api.MonthQuery{}, false
	}
	return api.MonthQuery{DebtorID: id, Year: a.model.PlanYear(), Month: a.planMonth}, true
}

func (a *App) handlePlanKey(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "<", ",":
		a.model.CloseSnapshot()
		return a.model.SetPlanYear(a.model.PlanYear() - 1)
	case ">", ".":
		a.model.CloseSnapshot()
		return a.model.SetPlanYear(a.model.PlanYear() + 1)
	case "up", "k":
		if a.planMonth > 1 {
			a.planMonth--
		}
	case "down", "j":
		if a.planMonth < 12 {
			a.planMonth++
		}
	case "s":
		a.openForm(modalSalary, "Record monthly salary", field{label: "Amount"})
	case "g":
		a.openForm(modalSavingsGoal, "Record savings goal", field{label: "Amount"})
	case "[", "]":
		delta := 1
		if m.String() == "[" {
			delta = -1
		}
		if a.cycleDebtor(view.SelectSnapshot, delta) {
			a.model.CloseSnapshot()
		}
	case "{", "}":
		delta := 1
		if m.String() == "{" {
			delta = -1
		}
		a.cycleDebtor(view.SelectReport, delta)
	case "enter":
		if q, ok := a.monthQuery(view.SelectSnapshot); ok {
			return a.model.OpenSnapshot(q)
		}
	case "p":
		if q, ok := a.monthQuery(view.SelectSnapshot); ok {
			return a.model.PaySalary(q, a.today())
		}
	case "d":
		if q, ok := a.monthQuery(view.SelectReport); ok {
			return a.model.DownloadReport(q)
		}
	case "esc":
		a.model.CloseSnapshot()
	}
	return nil
}

// clampCursors keeps cursors inside lists that may have shrunk.
func (a *App) clampCursors() {
	clamp := func(c *int, n int) {
		if *c >= n {
			*c = max(n-1, 0)
		}
	}
	clamp(&a.debtorCursor, len(a.model.Debtors()))
	q, _ := a.model.Query()
	clamp(&a.debtCursor, len(q.Debts))
	if d, ok := a.model.Detail(); ok && d.Debt != nil {
		clamp(&a.instCursor, len(d.Debt.Installments))
	}
	clamp(&a.expenseCursor, len(a.model.Expenses(a.expenseType)))
}

// messages
type settingsSavedMsg struct {
	cfg config.Config
	err error
}
