package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	consumerhandlers "affiliate/cmd/consumers/handlers"
	"affiliate/cmd/web/handlers"
	"affiliate/cmd/web/validator"
	"affiliate/internal/app"
	"affiliate/internal/config"
	"affiliate/kit/observability"
)

func main() {
	logger := observability.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("config error", "error", err.Error())
		return
	}
	if cfg.Log.Development {
		logger = observability.NewDevelopmentLogger()
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("app init error", "error", err.Error())
		return
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("app close error", "error", err.Error())
		}
	}()

	consumerhandlers.Register(a.Bus, consumerhandlers.Set{
		Activation:   consumerhandlers.NewActivationEvent(logger, a.Activations),
		Withdrawal:   consumerhandlers.NewWithdrawalEvent(logger, a.Withdrawals),
		Referral:     consumerhandlers.NewReferralEvent(logger, a.Referrals),
		Audit:        consumerhandlers.NewAuditEvent(a.Audit),
		Metrics:      consumerhandlers.NewMetricsEvent(a.Metrics),
		Notification: consumerhandlers.NewNotificationEvent(a.Notifications),
		Projector:    a.Projector,
		Relay:        a.Relay,
	})

	if cfg.Reconciliation.Embedded {
		go a.Poller.Run(ctx)
	}

	jsonV := validator.NewJSON()
	router := handlers.NewRouter(handlers.Set{
		Payment:    handlers.NewPayment(jsonV, a.Payments, a.Projector, logger),
		Client:     handlers.NewClient(jsonV, a.Clients, a.Projector, logger),
		Activation: handlers.NewActivation(jsonV, a.Activations, logger),
		Withdrawal: handlers.NewWithdrawal(jsonV, a.Withdrawals, logger),
		Referral:   handlers.NewReferral(a.Referrals, logger),
		Health:     handlers.NewHealth(a.Health),
		Metrics:    handlers.NewMetrics(a.Metrics.Registry, a.Snapshot),
	}, handlers.RouterConfig{CORSOrigins: cfg.Server.CORSOrigins})

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: router, ReadHeaderTimeout: 2 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("web server shutdown error", "error", err.Error())
		}
	}()

	logger.Info("web server started", "addr", srv.Addr, "gateway", cfg.Gateway.Mode, "embedded_poller", cfg.Reconciliation.Embedded)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("web server error", "error", err.Error())
	}
	logger.Info("web server stopped")
}
