package view

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/anshimpay/anshim/internal/auth"
	"github.com/anshimpay/anshim/internal/contract"
	"github.com/anshimpay/anshim/internal/escrow"
)

// ReviewModel walks the admin through the pending-approval queue, one
// payment at a time: approve, reject with a reason, or skip.
type ReviewModel struct {
	CommonModel
	ledger      *escrow.Ledger
	contractSvc *contract.Service
	principal   auth.Principal

	state ReviewState

	queue      []*escrow.Payment
	current    *escrow.Payment
	contracts  map[string]*contract.Contract
	totalCount int

	form       *huh.Form
	formReason string

	status  string
	loading bool
}

type ReviewState int

const (
	StateLoading ReviewState = iota
	StateReviewing
	StateRejecting
)

func NewReviewModel(ledger *escrow.Ledger, contractSvc *contract.Service, principal auth.Principal) ReviewModel {
	return ReviewModel{
		ledger:      ledger,
		contractSvc: contractSvc,
		principal:   principal,
		state:       StateLoading,
		contracts:   make(map[string]*contract.Contract),
		status:      "Loading pending approvals...",
		loading:     true,
	}
}

func (m ReviewModel) Init() tea.Cmd {
	return m.loadQueueCmd()
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadQueueMsg:
		m.loading = false
		if msg.err != nil {
			m.status = fmt.Sprintf("Error loading queue: %v", msg.err)
			break
		}

		m.queue = msg.payments
		m.totalCount = len(m.queue)
		m.state = StateReviewing
		m.nextPayment()

		return m, nil

	case decisionResultMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			m.state = StateReviewing

			return m, nil
		}

		m.state = StateReviewing
		m.nextPayment()

		return m, nil

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}

		if m.state == StateRejecting {
			return m.updateRejectForm(msg)
		}

		switch msg.String() {
		case "esc":
			return m, Back
		case "a":
			if m.current != nil {
				return m, m.approveCmd(m.current)
			}
		case "r":
			if m.current != nil {
				return m.enterRejectMode()
			}
		case "s":
			if m.current != nil {
				m.nextPayment()
			}
		}
	}

	if m.state == StateRejecting && m.form != nil {
		return m.updateRejectForm(msg)
	}

	return m, nil
}

func (m ReviewModel) enterRejectMode() (tea.Model, tea.Cmd) {
	m.formReason = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("reason").
				Title("Rejection reason (shown to the payer)").
				Value(&m.formReason).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("reason cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(60).WithShowHelp(false)

	m.state = StateRejecting

	return m, m.form.Init()
}

func (m ReviewModel) updateRejectForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = StateReviewing
			m.form = nil

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	payment := m.current
	reason := m.formReason
	m.form = nil

	return m, m.rejectCmd(payment, reason)
}

func (m ReviewModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render(m.status)
	}

	if m.current == nil {
		return lipgloss.NewStyle().Padding(2).Render(m.status + "\n\n(Esc to back)")
	}

	contractLine := m.current.ContractID.String()
	if c, ok := m.contracts[m.current.ContractID.String()]; ok {
		contractLine = fmt.Sprintf("%s (%s)", c.Title, c.Status)
	}

	info := fmt.Sprintf(
		"Contract: %s\nKind:     %s\nAmount:   %s won\nHeld at:  %s\n",
		contractLine,
		m.current.Kind,
		FormatAmount(m.current.Amount),
		FormatDate(m.current.CreatedAt),
	)

	content := fmt.Sprintf("%s\n%s\n\n[a] approve  [r] reject  [s] skip  [esc] back", m.status, info)

	if m.state == StateRejecting && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(64).
			Render(m.form.View())

		content = fmt.Sprintf("%s\n%s\n\n%s", m.status, info, panel)
	}

	return lipgloss.NewStyle().Padding(2).Render(content)
}

func (m *ReviewModel) nextPayment() {
	if len(m.queue) == 0 {
		m.current = nil
		m.status = "All done! No more payments awaiting review."

		return
	}

	m.current = m.queue[0]
	m.queue = m.queue[1:]

	currentIdx := m.totalCount - len(m.queue)
	m.status = fmt.Sprintf("Reviewing %d/%d", currentIdx, m.totalCount)

	if _, ok := m.contracts[m.current.ContractID.String()]; !ok {
		ctx, cancel := DbCtx()
		defer cancel()

		if c, err := m.contractSvc.Get(ctx, m.current.ContractID); err == nil {
			m.contracts[c.ID.String()] = c
		}
	}
}

type loadQueueMsg struct {
	payments []*escrow.Payment
	err      error
}

func (m ReviewModel) loadQueueCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		payments, err := m.ledger.List(ctx, escrow.ListFilter{
			Status: new(escrow.StatusPendingApproval),
		})

		return loadQueueMsg{payments: payments, err: err}
	}
}

type decisionResultMsg struct {
	err error
}

func (m ReviewModel) approveCmd(p *escrow.Payment) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.ledger.Approve(ctx, m.principal, p.ID)

		return decisionResultMsg{err: err}
	}
}

func (m ReviewModel) rejectCmd(p *escrow.Payment, reason string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.ledger.Reject(ctx, m.principal, p.ID, reason)

		return decisionResultMsg{err: err}
	}
}
