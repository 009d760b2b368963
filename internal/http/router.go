package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/anshimpay/anshim/internal/auth"
	contractHandler "github.com/anshimpay/anshim/internal/http/contract"
	escrowHandler "github.com/anshimpay/anshim/internal/http/escrow"
	importHandler "github.com/anshimpay/anshim/internal/http/importcsv"
	settlementHandler "github.com/anshimpay/anshim/internal/http/settlement"
)

func New(
	jwtSecret []byte,
	contractsV1 *contractHandler.Handler,
	paymentsV1 *escrowHandler.Handler,
	settlementsV1 *settlementHandler.Handler,
	importV1 *importHandler.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(jwtSecret))

		r.Route("/contracts", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			contractsV1.Routes(r)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			paymentsV1.Routes(r)
		})

		r.Route("/settlements", settlementsV1.Routes)

		r.Route("/import", importV1.Routes)
	})

	return router
}
