package view

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jask/finplan/internal/api"
)

// messages

type startupMsg struct {
	seqs map[Slice]uint64
	data startupData
	err  error
}

type startupData struct {
	debtors    []api.Debtor
	partitions []partitionData // indexed like api.ExpenseTypes
	freeAmount api.MonthlyFreeAmount
	year       int
}

type partitionData struct {
	typ   api.ExpenseType
	list  []api.RecurringExpense
	total decimal.Decimal
}

type debtorsLoadedMsg struct {
	seq     uint64
	debtors []api.Debtor
	err     error
}

type expensesLoadedMsg struct {
	seq  uint64
	data partitionData
	err  error
}

type freeAmountLoadedMsg struct {
	seq  uint64
	year int
	data api.MonthlyFreeAmount
	err  error
}

type debtDetailLoadedMsg struct {
	seq  uint64
	debt api.Debt
	err  error
}

type debtQueryLoadedMsg struct {
	seq   uint64
	debts []api.Debt
	err   error
}

type snapshotLoadedMsg struct {
	seq    uint64
	query  api.MonthQuery
	unpaid []api.Installment
	view   SnapshotView
	err    error
}

// actionDoneMsg reports a user action. mutation is nil for reads such as a
// report download.
type actionDoneMsg struct {
	success  string
	mutation *Mutation
	err      error
}

// startup fires every independent read at once and reports them together.
func (m *Model) startup() tea.Cmd {
	m.phase = PhaseLoading
	seqs := make(map[Slice]uint64, len(startupSlices))
	for _, s := range startupSlices {
		seqs[s] = m.seq.next(s)
	}
	ctx, b, year := m.ctx, m.backend, m.planYear
	return func() tea.Msg {
		data := startupData{year: year, partitions: make([]partitionData, len(api.ExpenseTypes))}
		var g errgroup.Group
		g.Go(func() error {
			d, err := b.ListDebtors(ctx)
			data.debtors = d
			return err
		})
		for i, t := range api.ExpenseTypes {
			data.partitions[i].typ = t
			g.Go(func() error {
				list, err := b.ListExpenses(ctx, t)
				data.partitions[i].list = list
				return err
			})
			g.Go(func() error {
				total, err := b.ExpenseTotal(ctx, t)
				data.partitions[i].total = total
				return err
			})
		}
		g.Go(func() error {
			fa, err := b.MonthlyFreeAmount(ctx, year)
			data.freeAmount = fa
			return err
		})
		err := g.Wait()
		return startupMsg{seqs: seqs, data: data, err: err}
	}
}

// refresh issues one loader per slice, each tagged with a fresh sequence.
func (m *Model) refresh(slices ...Slice) tea.Cmd {
	var cmds []tea.Cmd
	for _, s := range slices {
		if cmd := m.load(s); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) load(s Slice) tea.Cmd {
	switch s {
	case SliceDebtors:
		return m.loadDebtors()
	case SliceFixedExpenses:
		return m.loadPartition(api.ExpenseFixed)
	case SliceOptionalExpenses:
		return m.loadPartition(api.ExpenseOptional)
	case SliceFreeAmount:
		return m.loadFreeAmount()
	case SliceDebtDetail:
		return m.loadDetail()
	case SliceDebtQuery:
		return m.loadQuery()
	case SliceSnapshot:
		return m.loadSnapshot()
	}
	return nil
}

func (m *Model) loadDebtors() tea.Cmd {
	seq := m.seq.next(SliceDebtors)
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		d, err := b.ListDebtors(ctx)
		return debtorsLoadedMsg{seq: seq, debtors: d, err: err}
	}
}

// loadPartition reads one expense type's list and total concurrently.
func (m *Model) loadPartition(t api.ExpenseType) tea.Cmd {
	seq := m.seq.next(partitionSlice(t))
	ctx, b := m.ctx, m.backend
	return func() tea.Msg {
		data := partitionData{typ: t}
		var g errgroup.Group
		g.Go(func() error {
			list, err := b.ListExpenses(ctx, t)
			data.list = list
			return err
		})
		g.Go(func() error {
			total, err := b.ExpenseTotal(ctx, t)
			data.total = total
			return err
		})
		err := g.Wait()
		return expensesLoadedMsg{seq: seq, data: data, err: err}
	}
}

func (m *Model) loadFreeAmount() tea.Cmd {
	seq := m.seq.next(SliceFreeAmount)
	ctx, b, year := m.ctx, m.backend, m.planYear
	return func() tea.Msg {
		fa, err := b.MonthlyFreeAmount(ctx, year)
		return freeAmountLoadedMsg{seq: seq, year: year, data: fa, err: err}
	}
}

func (m *Model) loadDetail() tea.Cmd {
	if m.detail == nil {
		return nil
	}
	seq := m.seq.next(SliceDebtDetail)
	ctx, b, id := m.ctx, m.backend, m.detail.DebtID
	return func() tea.Msg {
		d, err := b.GetDebt(ctx, id)
		return debtDetailLoadedMsg{seq: seq, debt: d, err: err}
	}
}

func (m *Model) loadQuery() tea.Cmd {
	if m.query == nil {
		return nil
	}
	seq := m.seq.next(SliceDebtQuery)
	ctx, b, q := m.ctx, m.backend, m.query.Query
	return func() tea.Msg {
		debts, err := b.QueryDebts(ctx, q)
		return debtQueryLoadedMsg{seq: seq, debts: debts, err: err}
	}
}

func (m *Model) loadSnapshot() tea.Cmd {
	if m.snapshot == nil {
		return nil
	}
	m.snapshot.Loading = true
	seq := m.seq.next(SliceSnapshot)
	ctx, b, q := m.ctx, m.backend, m.snapshot.Query
	return func() tea.Msg {
		unpaid, view, err := readSnapshot(ctx, b, q)
		return snapshotLoadedMsg{seq: seq, query: q, unpaid: unpaid, view: view, err: err}
	}
}

// readSnapshot runs the dependent reads in order: the month's free amount,
// the unpaid installments, then the snapshot itself. A missing snapshot
// yields a Preview.
func readSnapshot(ctx context.Context, b Backend, q api.MonthQuery) ([]api.Installment, SnapshotView, error) {
	fa, err := b.MonthlyFreeAmount(ctx, q.Year)
	if err != nil {
		return nil, nil, fmt.Errorf("free amount: %w", err)
	}
	unpaid, err := b.UnpaidInstallments(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("unpaid installments: %w", err)
	}
	snap, err := b.SalarySnapshot(ctx, q)
	switch {
	case api.IsNotFound(err):
		return unpaid, PreviewAmount(fa.ForMonth(q.Month), unpaid), nil
	case err != nil:
		return unpaid, nil, fmt.Errorf("salary snapshot: %w", err)
	}
	return unpaid, Materialized{Snapshot: snap}, nil
}
