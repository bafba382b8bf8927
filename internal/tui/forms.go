package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/finplan/internal/api"
	"github.com/jask/finplan/internal/config"
	"github.com/jask/finplan/internal/view"
)

type modalState string

const (
	modalNone        modalState = ""
	modalNewDebtor   modalState = "new_debtor"
	modalFind        modalState = "find"
	modalNewDebt     modalState = "new_debt"
	modalDebtQuery   modalState = "debt_query"
	modalNewExpense  modalState = "new_expense"
	modalEditExpense modalState = "edit_expense"
	modalSalary      modalState = "salary"
	modalSavingsGoal modalState = "savings_goal"
	modalSettings    modalState = "settings"
	modalConfirm     modalState = "confirm"
)

type field struct {
	label string
	value string
}

// form is the single open input form. id carries the record being edited.
type form struct {
	title  string
	fields []field
	focus  int
	id     int64
}

func (f form) value(i int) string {
	return strings.TrimSpace(f.fields[i].value)
}

type confirmation struct {
	prompt string
	run    func() tea.Cmd
}

func (a *App) openForm(mode modalState, title string, fields ...field) {
	a.modal = mode
	a.form = form{title: title, fields: fields}
}

func (a *App) ask(prompt string, run func() tea.Cmd) {
	a.modal = modalConfirm
	a.confirm = confirmation{prompt: prompt, run: run}
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.form = form{}
	a.confirm = confirmation{}
}

func (a *App) handleModalKey(m tea.KeyMsg) tea.Cmd {
	if a.modal == modalConfirm {
		switch m.String() {
		case "y", "Y":
			run := a.confirm.run
			a.closeModal()
			return run()
		case "n", "N", "esc":
			a.closeModal()
		}
		return nil
	}

	f := &a.form
	switch m.Type {
	case tea.KeyEsc:
		a.closeModal()
		a.status = ""
		return nil
	case tea.KeyTab, tea.KeyDown:
		f.focus = (f.focus + 1) % len(f.fields)
		return nil
	case tea.KeyShiftTab, tea.KeyUp:
		f.focus = (f.focus + len(f.fields) - 1) % len(f.fields)
		return nil
	case tea.KeyEnter:
		if f.focus < len(f.fields)-1 {
			f.focus++
			return nil
		}
		return a.submit()
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		r := []rune(f.fields[f.focus].value)
		if len(r) > 0 {
			f.fields[f.focus].value = string(r[:len(r)-1])
		}
		return nil
	case tea.KeySpace:
		f.fields[f.focus].value += " "
		return nil
	case tea.KeyRunes:
		f.fields[f.focus].value += string(m.Runes)
		return nil
	}
	return nil
}

// submit validates the open form. On a validation error the form stays open
// and the problem is shown in the status line.
func (a *App) submit() tea.Cmd {
	cmd, err := a.submitForm()
	if err != nil {
		a.status = err.Error()
		return nil
	}
	a.status = ""
	a.closeModal()
	return cmd
}

func (a *App) submitForm() (tea.Cmd, error) {
	f := a.form
	switch a.modal {
	case modalNewDebtor:
		name, email := f.value(0), f.value(1)
		if name == "" {
			return nil, fmt.Errorf("name is required")
		}
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("email must contain @")
		}
		return a.model.CreateDebtor(name, email), nil

	case modalFind:
		found := a.model.FindDebtor(f.value(0))
		if len(found) == 0 {
			return nil, fmt.Errorf("no debtor matches %q", f.value(0))
		}
		for i, d := range a.model.Debtors() {
			if d.ID == found[0].ID {
				a.debtorCursor = i
			}
		}
		a.useDebtor(found[0].ID)
		return nil, nil

	case modalNewDebt:
		desc := f.value(0)
		if desc == "" {
			return nil, fmt.Errorf("description is required")
		}
		total, err := parseAmount(f.value(1), a.currency)
		if err != nil {
			return nil, err
		}
		count, err := strconv.Atoi(f.value(2))
		if err != nil || count < 1 {
			return nil, fmt.Errorf("installments must be a whole number of at least 1")
		}
		amount, err := parseAmount(f.value(3), a.currency)
		if err != nil {
			return nil, err
		}
		first, err := parseOptionalDate(f.value(4))
		if err != nil {
			return nil, err
		}
		if first.IsZero() {
			return nil, fmt.Errorf("first due date is required")
		}
		return a.model.CreateDebt(api.CreateDebtRequest{
			Debt: api.NewDebt{
				DebtorID:    a.model.Selected(view.SelectDebtForm),
				Description: desc,
				TotalAmount: total,
			},
			Installments: api.InstallmentPlan{Count: count, Amount: amount, FirstDueDate: first},
		}), nil

	case modalDebtQuery:
		start, err := parseOptionalDate(f.value(0))
		if err != nil {
			return nil, err
		}
		end, err := parseOptionalDate(f.value(1))
		if err != nil {
			return nil, err
		}
		if !start.IsZero() && !end.IsZero() && end.Before(start.Time) {
			return nil, fmt.Errorf("end date is before start date")
		}
		return a.runQuery(start, end), nil

	case modalNewExpense, modalEditExpense:
		desc := f.value(0)
		if desc == "" {
			return nil, fmt.Errorf("description is required")
		}
		amount, err := parseAmount(f.value(1), a.currency)
		if err != nil {
			return nil, err
		}
		if a.modal == modalEditExpense {
			return a.model.UpdateExpense(f.id, a.model.ExpenseType(f.id), desc, amount), nil
		}
		return a.model.CreateExpense(desc, amount, a.expenseType), nil

	case modalSalary, modalSavingsGoal:
		amount, err := parseAmount(f.value(0), a.currency)
		if err != nil {
			return nil, err
		}
		if a.modal == modalSalary {
			return a.model.CreateSalary(amount), nil
		}
		return a.model.CreateSavingsGoal(amount), nil

	case modalSettings:
		cfg := a.cfg
		cfg.UI.CurrencySymbol = f.value(0)
		cfg.UI.DateFormat = f.value(1)
		cfg.API.BaseURL = f.value(2)
		if cfg.UI.DateFormat == "" {
			return nil, fmt.Errorf("date format is required")
		}
		if cfg.API.BaseURL == "" {
			return nil, fmt.Errorf("API base URL is required")
		}
		path := a.cfgPath
		return func() tea.Msg {
			return settingsSavedMsg{cfg: cfg, err: config.Save(path, cfg)}
		}, nil
	}
	return nil, nil
}
