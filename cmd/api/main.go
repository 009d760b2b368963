package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/anshimpay/anshim/internal/config"
	"github.com/anshimpay/anshim/internal/contract"
	contractStore "github.com/anshimpay/anshim/internal/contract/store"
	"github.com/anshimpay/anshim/internal/database"
	"github.com/anshimpay/anshim/internal/escrow"
	escrowStore "github.com/anshimpay/anshim/internal/escrow/store"
	anshimHttp "github.com/anshimpay/anshim/internal/http"
	contractHandler "github.com/anshimpay/anshim/internal/http/contract"
	escrowHandler "github.com/anshimpay/anshim/internal/http/escrow"
	importHandler "github.com/anshimpay/anshim/internal/http/importcsv"
	settlementHandler "github.com/anshimpay/anshim/internal/http/settlement"
	"github.com/anshimpay/anshim/internal/importer"
	"github.com/anshimpay/anshim/internal/reconcile"
	reconcileStore "github.com/anshimpay/anshim/internal/reconcile/store"
	"github.com/anshimpay/anshim/internal/settlement"
	settlementStore "github.com/anshimpay/anshim/internal/settlement/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		contractService   = contract.NewService(contractStore.New(db))
		ledger            = escrow.NewLedger(escrowStore.New(db))
		settlementService = settlement.NewService(settlementStore.New(db))
		reconcileService  = reconcile.NewService(reconcileStore.New(db))
		importService     = importer.NewService()
	)

	var (
		contractH   = contractHandler.NewHandler(contractService)
		escrowH     = escrowHandler.NewHandler(ledger)
		settlementH = settlementHandler.NewHandler(settlementService)
		importH     = importHandler.NewHandler(importService, reconcileService, ledger)
	)

	router := anshimHttp.New([]byte(cfg.Auth.JWTSecret), contractH, escrowH, settlementH, importH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
