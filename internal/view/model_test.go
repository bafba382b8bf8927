package view

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/finplan/internal/api"
)

func TestReconcileSelection(t *testing.T) {
	t.Parallel()
	ana := api.Debtor{ID: 1, Name: "Ana"}
	bo := api.Debtor{ID: 2, Name: "Bo"}
	cy := api.Debtor{ID: 3, Name: "Cy"}

	cases := []struct {
		name    string
		current int64
		debtors []api.Debtor
		want    int64
	}{
		{"empty list clears", 2, nil, 0},
		{"nothing selected picks first", 0, []api.Debtor{bo, ana}, 2},
		{"kept when present", 3, []api.Debtor{ana, bo, cy}, 3},
		{"removed falls back to first", 4, []api.Debtor{cy, ana}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ReconcileSelection(tc.current, tc.debtors))
		})
	}
}

func TestReconcileSelectionAcrossReloads(t *testing.T) {
	t.Parallel()
	reloads := [][]api.Debtor{
		{{ID: 5}, {ID: 6}},
		{{ID: 7}, {ID: 6}},
		{{ID: 7}},
		{},
		{{ID: 9}, {ID: 7}},
	}
	sel := int64(6)
	for _, list := range reloads {
		prev := sel
		sel = ReconcileSelection(sel, list)
		present := false
		for _, d := range list {
			present = present || d.ID == prev
		}
		switch {
		case present:
			require.Equal(t, prev, sel)
		case len(list) == 0:
			require.Zero(t, sel)
		default:
			require.Equal(t, list[0].ID, sel)
		}
	}
}

func TestStartupReadsRunConcurrently(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.startupGate = make(chan struct{})
	f.debtors = []api.Debtor{{ID: 1, Name: "Ana"}}
	f.expenses = []api.RecurringExpense{{ID: 1, Description: "Rent", Amount: dec("900"), Type: api.ExpenseFixed}}
	m := newTestModel(t, f)

	require.Equal(t, PhaseLoading, m.Phase())
	run(t, m, m.Init())

	require.False(t, f.gateTimedOut, "startup reads were serialized")
	require.Equal(t, PhaseReady, m.Phase())
	require.Equal(t, NoticeNone, m.Notice().Kind)
	require.Len(t, m.Debtors(), 1)
	require.Len(t, m.Expenses(api.ExpenseFixed), 1)
	require.True(t, dec("900").Equal(m.ExpenseTotal(api.ExpenseFixed)))
	require.Empty(t, m.Expenses(api.ExpenseOptional))
	fa, ok := m.FreeAmount()
	require.True(t, ok)
	require.Equal(t, 2024, fa.Year)
	for _, s := range Selectors {
		require.Equal(t, int64(1), m.Selected(s))
	}
}

func TestStartupFailureLeavesFailedPhase(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.failWith("ExpenseTotal:OPTIONAL", &api.Error{Status: 500, Message: "database unavailable"})
	m := newTestModel(t, f)

	run(t, m, m.Init())
	require.Equal(t, PhaseFailed, m.Phase())
	require.Equal(t, Notice{Kind: NoticeError, Text: "database unavailable"}, m.Notice())
	require.Empty(t, m.Debtors())

	f.failWith("ExpenseTotal:OPTIONAL", nil)
	run(t, m, m.Retry())
	require.Equal(t, PhaseReady, m.Phase())
	require.Equal(t, NoticeNone, m.Notice().Kind)
	require.Nil(t, m.Retry())
}

func TestCreatedDebtorBecomesDefaultEverywhere(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	m := newTestModel(t, f)
	run(t, m, m.Init())
	require.Empty(t, m.Debtors())
	for _, s := range Selectors {
		require.Zero(t, m.Selected(s))
	}

	run(t, m, m.CreateDebtor("Ana", "ana@x.com"))

	require.Len(t, m.Debtors(), 1)
	ana := m.Debtors()[0]
	require.Equal(t, "Ana", ana.Name)
	for _, s := range Selectors {
		require.Equal(t, ana.ID, m.Selected(s))
	}
	require.Equal(t, Notice{Kind: NoticeSuccess, Text: "Debtor created"}, m.Notice())
}

func TestSelectionSurvivesReloadWhenPresent(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.debtors = []api.Debtor{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bo"}}
	m := newTestModel(t, f)
	run(t, m, m.Init())

	m.Select(SelectSnapshot, 2)
	m.Select(SelectReport, 99) // unknown, ignored
	f.debtors = []api.Debtor{{ID: 3, Name: "Cy"}, {ID: 2, Name: "Bo"}}
	run(t, m, m.ReloadDebtors())

	require.Equal(t, int64(2), m.Selected(SelectSnapshot))
	require.Equal(t, int64(3), m.Selected(SelectReport))
	require.Equal(t, int64(3), m.Selected(SelectDebtForm))
}

func TestExpenseWriteRefreshesOnlyItsPartition(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.expenses = []api.RecurringExpense{{ID: 1, Description: "Gym", Amount: dec("40"), Type: api.ExpenseOptional}}
	m := newTestModel(t, f)
	run(t, m, m.Init())
	f.takeCalls()

	run(t, m, m.CreateExpense("Rent", dec("900.50"), api.ExpenseFixed))

	require.ElementsMatch(t, []string{"CreateExpense", "ListExpenses:FIXED", "ExpenseTotal:FIXED"}, f.takeCalls())
	fixed := m.Expenses(api.ExpenseFixed)
	require.Len(t, fixed, 1)
	require.Equal(t, "Rent", fixed[0].Description)
	require.True(t, dec("900.50").Equal(m.ExpenseTotal(api.ExpenseFixed)))
	require.Len(t, m.Expenses(api.ExpenseOptional), 1)
	require.True(t, dec("40").Equal(m.ExpenseTotal(api.ExpenseOptional)))
	require.Equal(t, api.ExpenseFixed, m.ExpenseType(fixed[0].ID))
}

func TestExpenseWriteWithUnknownTypeRefreshesBoth(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.expenses = []api.RecurringExpense{{ID: 1, Description: "Gym", Amount: dec("40"), Type: api.ExpenseOptional}}
	m := newTestModel(t, f)
	run(t, m, m.Init())
	f.takeCalls()

	run(t, m, m.DeleteExpense(1, ""))

	require.ElementsMatch(t, []string{
		"DeleteExpense",
		"ListExpenses:FIXED", "ExpenseTotal:FIXED",
		"ListExpenses:OPTIONAL", "ExpenseTotal:OPTIONAL",
	}, f.takeCalls())
	require.Empty(t, m.Expenses(api.ExpenseOptional))
	require.True(t, m.ExpenseTotal(api.ExpenseOptional).IsZero())
}

func TestUpdateExpenseRefreshesPartition(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.expenses = []api.RecurringExpense{{ID: 1, Description: "Gym", Amount: dec("40"), Type: api.ExpenseOptional}}
	m := newTestModel(t, f)
	run(t, m, m.Init())
	f.takeCalls()

	run(t, m, m.UpdateExpense(1, m.ExpenseType(1), "Gym+", dec("45")))

	require.ElementsMatch(t, []string{"UpdateExpense", "ListExpenses:OPTIONAL", "ExpenseTotal:OPTIONAL"}, f.takeCalls())
	require.Equal(t, "Gym+", m.Expenses(api.ExpenseOptional)[0].Description)
	require.Equal(t, Notice{Kind: NoticeSuccess, Text: "Expense updated"}, m.Notice())
}

func TestDebtMutationRefreshesOnlyAffectedDebtorViews(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.debtors = []api.Debtor{{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bo"}}
	f.debts[10] = api.Debt{ID: 10, DebtorID: 1, Description: "Laptop"}
	m := newTestModel(t, f)
	run(t, m, m.Init())
	run(t, m, m.OpenDebt(10, 1))
	run(t, m, m.RunDebtQuery(api.DebtQuery{DebtorID: 2}))
	f.takeCalls()

	run(t, m, m.PayInstallment(77, 10, 1, api.NewDate(fixedNow())))
	require.ElementsMatch(t, []string{"PayInstallment", "ListDebtors", "GetDebt"}, f.takeCalls())

	run(t, m, m.CreateDebt(api.CreateDebtRequest{Debt: api.NewDebt{DebtorID: 2, Description: "Bike"}}))
	require.ElementsMatch(t, []string{"CreateDebt", "ListDebtors", "QueryDebts"}, f.takeCalls())
	q, ok := m.Query()
	require.True(t, ok)
	require.True(t, q.Loaded)
	require.Len(t, q.Debts, 1)
}

func TestDeletingOpenDebtClosesDetail(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.debtors = []api.Debtor{{ID: 1, Name: "Ana"}}
	f.debts[10] = api.Debt{ID: 10, DebtorID: 1}
	m := newTestModel(t, f)
	run(t, m, m.Init())
	run(t, m, m.OpenDebt(10, 1))
	d, ok := m.Detail()
	require.True(t, ok)
	require.NotNil(t, d.Debt)
	f.takeCalls()

	run(t, m, m.DeleteDebt(10, 1))

	_, ok = m.Detail()
	require.False(t, ok)
	require.ElementsMatch(t, []string{"DeleteDebt", "ListDebtors"}, f.takeCalls())
	require.Equal(t, Notice{Kind: NoticeSuccess, Text: "Debt deleted"}, m.Notice())
}

func TestSnapshotNotFoundShowsPreview(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.debtors = []api.Debtor{{ID: 1, Name: "Ana"}}
	f.freeAmount = api.MonthlyFreeAmount{
		FreeAmount: dec("9999"),
		Months:     []api.MonthFreeAmount{{Month: 3, FreeAmount: dec("3000")}},
	}
	f.unpaid = []api.Installment{
		{ID: 1, Amount: dec("500")},
		{ID: 2, Amount: dec("200.25")},
	}
	m := newTestModel(t, f)
	run(t, m, m.Init())
	f.takeCalls()

	q := api.MonthQuery{DebtorID: 1, Year: 2024, Month: 3}
	run(t, m, m.OpenSnapshot(q))

	require.Equal(t, []string{"MonthlyFreeAmount", "UnpaidInstallments", "SalarySnapshot"}, f.takeCalls())
	require.Equal(t, NoticeNone, m.Notice().Kind)
	panel, ok := m.Snapshot()
	require.True(t, ok)
	require.False(t, panel.Loading)
	preview, ok := panel.View.(Preview)
	require.True(t, ok, "expected preview, got %T", panel.View)
	require.Equal(t, "799.75", preview.Amount.String())
	require.Equal(t, "700.25", preview.UnpaidTotal.String())
	require.Len(t, panel.Unpaid, 2)

	run(t, m, m.PaySalary(q, api.NewDate(fixedNow())))
	panel, _ = m.Snapshot()
	mat, ok := panel.View.(Materialized)
	require.True(t, ok, "expected materialized, got %T", panel.View)
	require.Equal(t, api.SnapshotPaid, mat.Snapshot.Status)
	require.Equal(t, Notice{Kind: NoticeSuccess, Text: "Salary paid"}, m.Notice())
}

func TestSnapshotOtherErrorsSurface(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.failWith("SalarySnapshot", &api.Error{Status: 500, Message: "HTTP 500"})
	m := newTestModel(t, f)
	run(t, m, m.Init())

	run(t, m, m.OpenSnapshot(api.MonthQuery{DebtorID: 1, Year: 2024, Month: 1}))
	require.Equal(t, Notice{Kind: NoticeError, Text: "HTTP 500"}, m.Notice())
	panel, _ := m.Snapshot()
	require.Nil(t, panel.View)
}

func TestFailedSalaryPayKeepsOpenSnapshot(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.debtors = []api.Debtor{{ID: 1, Name: "Ana"}}
	f.freeAmount = api.MonthlyFreeAmount{Months: []api.MonthFreeAmount{{Month: 3, FreeAmount: dec("3000")}}}
	m := newTestModel(t, f)
	run(t, m, m.Init())

	march := api.MonthQuery{DebtorID: 1, Year: 2024, Month: 3}
	run(t, m, m.OpenSnapshot(march))
	f.takeCalls()

	f.failWith("PaySalary", &api.Error{Status: 409, Message: "already paid"})
	april := api.MonthQuery{DebtorID: 1, Year: 2024, Month: 4}
	run(t, m, m.PaySalary(april, api.NewDate(fixedNow())))

	require.Equal(t, []string{"PaySalary"}, f.takeCalls())
	require.Equal(t, Notice{Kind: NoticeError, Text: "already paid"}, m.Notice())
	panel, ok := m.Snapshot()
	require.True(t, ok)
	require.Equal(t, march, panel.Query)
	preview, ok := panel.View.(Preview)
	require.True(t, ok, "expected preview, got %T", panel.View)
	require.Equal(t, "1500", preview.Amount.String())
}

func TestSalaryPayOpensPaidMonth(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.debtors = []api.Debtor{{ID: 1, Name: "Ana"}}
	m := newTestModel(t, f)
	run(t, m, m.Init())

	march := api.MonthQuery{DebtorID: 1, Year: 2024, Month: 3}
	run(t, m, m.OpenSnapshot(march))
	april := api.MonthQuery{DebtorID: 1, Year: 2024, Month: 4}
	run(t, m, m.PaySalary(april, api.NewDate(fixedNow())))

	panel, ok := m.Snapshot()
	require.True(t, ok)
	require.Equal(t, april, panel.Query)
	_, ok = panel.View.(Materialized)
	require.True(t, ok, "expected materialized, got %T", panel.View)
}

func TestPreviewIgnoresPaidInstallments(t *testing.T) {
	t.Parallel()
	paid := fixedNow()
	p := PreviewAmount(dec("1000"), []api.Installment{
		{Amount: dec("100")},
		{Amount: dec("300"), PaidAt: &paid},
	})
	require.Equal(t, "400", p.Amount.String())
}

func TestStaleResponseIsDropped(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.debtors = []api.Debtor{{ID: 1, Name: "Old"}}
	m := newTestModel(t, f)
	run(t, m, m.Init())

	older := m.loadDebtors()()
	f.debtors = []api.Debtor{{ID: 2, Name: "New"}}
	newer := m.loadDebtors()()

	// the later request resolves first, the earlier one last
	require.Nil(t, m.Update(newer))
	require.Nil(t, m.Update(older))
	require.Equal(t, "New", m.Debtors()[0].Name)
	require.Equal(t, int64(2), m.Selected(SelectDebtForm))
}

func TestClosedViewIgnoresLateResult(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.debts[10] = api.Debt{ID: 10, DebtorID: 1}
	m := newTestModel(t, f)
	run(t, m, m.Init())

	cmd := m.OpenDebt(10, 1)
	m.CloseDebt()
	m.Update(cmd())
	_, ok := m.Detail()
	require.False(t, ok)
}

func TestActionFailureReplacesNotice(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	m := newTestModel(t, f)
	run(t, m, m.Init())
	run(t, m, m.CreateSalary(dec("5000")))
	require.Equal(t, Notice{Kind: NoticeSuccess, Text: "Salary saved"}, m.Notice())

	f.failWith("CreateSavingsGoal", errBoom)
	cmd := m.CreateSavingsGoal(dec("100"))
	require.Equal(t, NoticeNone, m.Notice().Kind, "notice is cleared when an action starts")
	run(t, m, cmd)
	require.Equal(t, Notice{Kind: NoticeError, Text: "boom"}, m.Notice())
}

func TestNonJSONErrorBodyBecomesNotice(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, "<html>upstream down</html>")
			return
		}
		switch r.URL.Path {
		case "/api/debtors", "/api/recurring-expenses":
			_, _ = io.WriteString(w, "[]")
		case "/api/recurring-expenses/total":
			_, _ = io.WriteString(w, `{"total":"0"}`)
		default:
			_, _ = io.WriteString(w, `{"year":2024}`)
		}
	}))
	t.Cleanup(srv.Close)

	m := New(context.Background(), api.New(srv.URL), Options{Now: fixedNow})
	run(t, m, m.Init())
	require.Equal(t, PhaseReady, m.Phase())

	run(t, m, m.CreateDebtor("Ana", "ana@x.com"))
	require.Equal(t, Notice{Kind: NoticeError, Text: "HTTP 502"}, m.Notice())
}

func TestDownloadReportWritesFile(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	f.report = []byte("%PDF-1.3 test")
	dir := filepath.Join(t.TempDir(), "reports")
	m := New(context.Background(), f, Options{Now: fixedNow, ReportsDir: dir})

	q := api.MonthQuery{DebtorID: 4, Year: 2024, Month: 2}
	run(t, m, m.DownloadReport(q))

	path := filepath.Join(dir, "monthly-summary-4-2024-02.pdf")
	require.Equal(t, Notice{Kind: NoticeSuccess, Text: "Report saved to " + path}, m.Notice())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, f.report, data)
}

func TestSetPlanYearReloadsFreeAmount(t *testing.T) {
	t.Parallel()
	f := newFakeBackend()
	m := newTestModel(t, f)
	run(t, m, m.Init())
	f.takeCalls()

	run(t, m, m.SetPlanYear(2023))
	require.Equal(t, []string{"MonthlyFreeAmount"}, f.takeCalls())
	fa, ok := m.FreeAmount()
	require.True(t, ok)
	require.Equal(t, 2023, fa.Year)
	require.True(t, fa.FreeAmount.IsZero())

	run(t, m, m.CreateSalary(dec("10")))
	require.Equal(t, []string{"CreateSalary", "MonthlyFreeAmount"}, f.takeCalls())
}

func TestFindDebtor(t *testing.T) {
	t.Parallel()
	debtors := []api.Debtor{
		{ID: 1, Name: "Joana", Email: "jo@x.com"},
		{ID: 2, Name: "Ana", Email: "ana@x.com"},
		{ID: 3, Name: "Mariana", Email: "mari@x.com"},
		{ID: 4, Name: "Zed", Email: "zed@y.com"},
	}
	got := rankDebtors(debtors, "ana")
	ids := make([]int64, len(got))
	for i, d := range got {
		ids[i] = d.ID
	}
	// prefix, then substrings by distance
	require.Equal(t, []int64{2, 1, 3}, ids)

	got = rankDebtors(debtors, "zod")
	require.Len(t, got, 1)
	require.Equal(t, int64(4), got[0].ID)

	require.Nil(t, rankDebtors(debtors, "  "))
}
