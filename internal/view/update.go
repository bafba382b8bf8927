package view

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/finplan/internal/api"
)

// Update applies a message produced by one of the Model's commands and
// returns any follow-up loads. Messages it does not own are ignored.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case startupMsg:
		m.applyStartup(msg)
	case debtorsLoadedMsg:
		if !m.seq.current(SliceDebtors, msg.seq) {
			return nil
		}
		if msg.err != nil {
			m.loadFailed(SliceDebtors, msg.err)
			return nil
		}
		m.setDebtors(msg.debtors)
	case expensesLoadedMsg:
		s := partitionSlice(msg.data.typ)
		if !m.seq.current(s, msg.seq) {
			return nil
		}
		if msg.err != nil {
			m.loadFailed(s, msg.err)
			return nil
		}
		m.setPartition(msg.data)
	case freeAmountLoadedMsg:
		if !m.seq.current(SliceFreeAmount, msg.seq) {
			return nil
		}
		if msg.err != nil {
			m.loadFailed(SliceFreeAmount, msg.err)
			return nil
		}
		fa := msg.data
		m.freeAmount = &fa
	case debtDetailLoadedMsg:
		if m.detail == nil || !m.seq.current(SliceDebtDetail, msg.seq) {
			return nil
		}
		if msg.err != nil {
			m.loadFailed(SliceDebtDetail, msg.err)
			return nil
		}
		d := msg.debt
		m.detail.Debt = &d
		m.detail.DebtorID = d.DebtorID
	case debtQueryLoadedMsg:
		if m.query == nil || !m.seq.current(SliceDebtQuery, msg.seq) {
			return nil
		}
		if msg.err != nil {
			m.loadFailed(SliceDebtQuery, msg.err)
			return nil
		}
		m.query.Debts = msg.debts
		m.query.Loaded = true
	case snapshotLoadedMsg:
		if m.snapshot == nil || !m.seq.current(SliceSnapshot, msg.seq) {
			return nil
		}
		m.snapshot.Loading = false
		if msg.err != nil {
			m.loadFailed(SliceSnapshot, msg.err)
			return nil
		}
		m.snapshot.Unpaid = msg.unpaid
		m.snapshot.View = msg.view
	case actionDoneMsg:
		if msg.err != nil {
			m.log.Warn("action failed", "err", msg.err)
			m.notice = errorNotice(msg.err)
			return nil
		}
		m.notice = successNotice(msg.success)
		if msg.mutation == nil {
			return nil
		}
		return m.afterMutation(*msg.mutation)
	}
	return nil
}

func (m *Model) applyStartup(msg startupMsg) {
	if msg.err != nil {
		m.log.Error("startup load failed", "err", msg.err)
		m.phase = PhaseFailed
		m.notice = errorNotice(msg.err)
		return
	}
	if m.seq.current(SliceDebtors, msg.seqs[SliceDebtors]) {
		m.setDebtors(msg.data.debtors)
	}
	for _, p := range msg.data.partitions {
		if m.seq.current(partitionSlice(p.typ), msg.seqs[partitionSlice(p.typ)]) {
			m.setPartition(p)
		}
	}
	if m.seq.current(SliceFreeAmount, msg.seqs[SliceFreeAmount]) && msg.data.year == m.planYear {
		fa := msg.data.freeAmount
		m.freeAmount = &fa
	}
	m.phase = PhaseReady
}

func (m *Model) setPartition(p partitionData) {
	m.expenses[p.typ] = p.list
	m.expenseTotals[p.typ] = p.total
}

func (m *Model) loadFailed(s Slice, err error) {
	m.log.Warn("load failed", "slice", s.String(), "err", err)
	m.notice = errorNotice(err)
}

// afterMutation drops views the mutation removed and refreshes the rest of
// what it touched.
func (m *Model) afterMutation(mu Mutation) tea.Cmd {
	if mu.Kind == DeleteDebt && m.detail != nil && m.detail.DebtID == mu.DebtID {
		m.CloseDebt()
	}
	if mu.Kind == PaySalary && (m.snapshot == nil || m.snapshot.Query != mu.Month) {
		m.snapshot = &SnapshotPanel{Query: mu.Month}
	}
	slices := m.AffectedSlices(mu)
	m.log.Debug("refresh after mutation", "kind", int(mu.Kind), "slices", len(slices))
	return m.refresh(slices...)
}

// ExpenseType reports the partition of a loaded expense, "" when unknown.
func (m *Model) ExpenseType(id int64) api.ExpenseType {
	for t, list := range m.expenses {
		for _, e := range list {
			if e.ID == id {
				return t
			}
		}
	}
	return ""
}
