package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/anshimpay/anshim/cmd/admin/internal/view"
	"github.com/anshimpay/anshim/internal/auth"
	"github.com/anshimpay/anshim/internal/config"
	"github.com/anshimpay/anshim/internal/contract"
	contractStore "github.com/anshimpay/anshim/internal/contract/store"
	"github.com/anshimpay/anshim/internal/database"
	"github.com/anshimpay/anshim/internal/escrow"
	escrowStore "github.com/anshimpay/anshim/internal/escrow/store"
)

type model struct {
	ledger      *escrow.Ledger
	contractSvc *contract.Service
	principal   auth.Principal

	currentView View

	reviewView   view.ReviewModel
	paymentsView view.PaymentsModel
}

type View int

const (
	ViewMenu     View = 0
	ViewReview   View = 1
	ViewPayments View = 2
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ledger := escrow.NewLedger(escrowStore.New(db))
	contractSvc := contract.NewService(contractStore.New(db))

	// Operator tooling talks to the database directly, so the session is a
	// locally minted admin principal rather than a bearer token.
	principal := auth.Principal{UserID: uuid.New(), Role: auth.RoleAdmin}

	return model{
		ledger:       ledger,
		contractSvc:  contractSvc,
		principal:    principal,
		currentView:  ViewMenu,
		reviewView:   view.NewReviewModel(ledger, contractSvc, principal),
		paymentsView: view.NewPaymentsModel(ledger),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewReview
				m.reviewView = view.NewReviewModel(m.ledger, m.contractSvc, m.principal)

				return m, m.reviewView.Init()
			case "2":
				m.currentView = ViewPayments
				m.paymentsView = view.NewPaymentsModel(m.ledger)

				return m, m.paymentsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewReview:
		var newModel tea.Model
		newModel, cmd = m.reviewView.Update(msg)
		m.reviewView = newModel.(view.ReviewModel)
	case ViewPayments:
		var newModel tea.Model
		newModel, cmd = m.paymentsView.Update(msg)
		m.paymentsView = newModel.(view.PaymentsModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Anshim Admin\n\n" +
				"1. Review Pending Approvals\n" +
				"2. List Payments\n\n" +
				"q. Quit",
		)
	case ViewReview:
		return m.reviewView.View()
	case ViewPayments:
		return m.paymentsView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
