package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/anshimpay/anshim/internal/escrow"
)

// PaymentsModel is a read-only table of escrow payments with status
// filter cycling.
type PaymentsModel struct {
	CommonModel
	ledger *escrow.Ledger

	table    table.Model
	payments []*escrow.Payment

	statusFilterIdx int
	filter          escrow.ListFilter

	loading bool
	err     error
}

func NewPaymentsModel(ledger *escrow.Ledger) PaymentsModel {
	columns := []table.Column{
		{Title: "Created", Width: 12},
		{Title: "Contract", Width: 36},
		{Title: "Kind", Width: 8},
		{Title: "Status", Width: 17},
		{Title: "Amount", Width: 14},
		{Title: "Reject Reason", Width: 30},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return PaymentsModel{
		ledger: ledger,
		table:  t,
		filter: escrow.ListFilter{},
	}
}

func (m PaymentsModel) Init() tea.Cmd {
	return m.loadPaymentsCmd()
}

func (m PaymentsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadPaymentsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}

		m.payments = msg.payments
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadPaymentsCmd()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % 5
			m.applyFilter()

			return m, m.loadPaymentsCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m PaymentsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading payments...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabels := []string{"All", "Held", "Pending Approval", "Released", "Refunded"}

	header := fmt.Sprintf(
		"Filter: [s] Status: %s | [r] refresh | [esc] back",
		lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(statusLabels[m.statusFilterIdx]),
	)

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.NewStyle().PaddingBottom(1).Render(header),
			tableView,
		),
	)
}

func (m *PaymentsModel) applyFilter() {
	switch m.statusFilterIdx {
	case 1:
		m.filter.Status = new(escrow.StatusHeld)
	case 2:
		m.filter.Status = new(escrow.StatusPendingApproval)
	case 3:
		m.filter.Status = new(escrow.StatusReleased)
	case 4:
		m.filter.Status = new(escrow.StatusRefunded)
	default:
		m.filter.Status = nil
	}
}

func (m *PaymentsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.payments))
	for _, p := range m.payments {
		rows = append(rows, table.Row{
			FormatDate(p.CreatedAt),
			p.ContractID.String(),
			string(p.Kind),
			string(p.Status),
			FormatAmount(p.Amount),
			p.RejectReason,
		})
	}

	m.table.SetRows(rows)
}

type loadPaymentsMsg struct {
	payments []*escrow.Payment
	err      error
}

func (m PaymentsModel) loadPaymentsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		payments, err := m.ledger.List(ctx, m.filter)

		return loadPaymentsMsg{payments: payments, err: err}
	}
}
