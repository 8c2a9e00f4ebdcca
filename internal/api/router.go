package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/fastprodman/wagerledger/internal/config"
)

// RouterDeps are the collaborators of the HTTP surface. Idempotency and
// Metrics are optional.
type RouterDeps struct {
	Service        LedgerService
	Auth           config.AuthConfig
	Logger         zerolog.Logger
	Idempotency    IdempotencyStore
	IdempotencyTTL time.Duration
	Metrics        http.Handler
}

// NewRouter constructs a chi router with all API endpoints registered.
func NewRouter(deps RouterDeps) http.Handler {
	h := NewHandler(deps.Service)
	r := chi.NewRouter()

	r.Use(hlog.NewHandler(deps.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	var idempotent func(http.Handler) http.Handler
	if deps.Idempotency != nil {
		idempotent = Idempotency(deps.Idempotency, deps.IdempotencyTTL)
	} else {
		idempotent = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate(deps.Auth))

		r.Get("/me/balance", h.GetBalanceHandler)
		r.Get("/me/transactions", h.ListTransactionsHandler)
		r.Get("/me/bets", h.ListBetsHandler)
		r.Get("/me/activity", h.ListActivityHandler)

		r.With(idempotent).Post("/bets", h.PlaceBetHandler)

		r.With(RequireRole(RoleAdmin, RoleGame)).Post("/bets/{betId}/result", h.SettleBetHandler)
		r.With(RequireRole(RoleAdmin)).Post("/admin/users/{userId}/balance", h.AdjustBalanceHandler)
	})

	return r
}
