package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Set struct {
	Payment    *Payment
	Client     *Client
	Activation *Activation
	Withdrawal *Withdrawal
	Referral   *Referral
	Health     *Health
	Metrics    *Metrics
}

type RouterConfig struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(h Set, cfg RouterConfig) http.Handler {
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health.Handler)
	r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	r.Get("/metrics/snapshot", h.Metrics.Snapshot)

	r.Route("/payments", func(pr chi.Router) {
		pr.Post("/", h.Payment.Initiate)
		pr.Get("/{reference}", h.Payment.Get)
		pr.Post("/{reference}/check", h.Payment.Check)
	})
	r.Post("/webhooks/payments", h.Payment.Webhook)

	r.Get("/activation/fee", h.Activation.Fee)
	r.Get("/withdrawals/range", h.Withdrawal.Range)

	r.Route("/clients", func(cr chi.Router) {
		cr.Post("/", h.Client.Register)
		cr.Route("/{id}", func(ir chi.Router) {
			ir.Get("/", h.Client.Get)

			ir.Post("/activation", h.Activation.Initiate)
			ir.Get("/activation", h.Activation.Latest)

			ir.Post("/withdrawals", h.Withdrawal.Initiate)
			ir.Get("/withdrawals", h.Withdrawal.List)
			ir.Get("/withdrawals/stats", h.Withdrawal.Stats)

			ir.Get("/referrals", h.Referral.List)
			ir.Get("/referrals/stats", h.Referral.Stats)
		})
	})
	return r
}
