// Package app assembles the services from configuration. Both binaries
// build the same graph; they differ only in which surfaces they run.
package app

import (
	"context"
	"errors"
	"time"

	"affiliate/internal/activation"
	"affiliate/internal/audit"
	"affiliate/internal/client"
	"affiliate/internal/config"
	"affiliate/internal/health"
	"affiliate/internal/metrics"
	"affiliate/internal/notification"
	"affiliate/internal/payment"
	"affiliate/internal/readmodels"
	"affiliate/internal/reconciliation"
	"affiliate/internal/referral"
	"affiliate/internal/withdrawal"
	"affiliate/kit/broker"
	"affiliate/kit/cache"
	"affiliate/kit/db"
	"affiliate/kit/gateway"
	"affiliate/kit/observability"
)

type App struct {
	Config  *config.Config
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Bus     *broker.Bus
	Cache   cache.Cache
	Gateway *gateway.CircuitBreaker
	// Sandbox is set when the gateway runs in sandbox mode.
	Sandbox *gateway.Sandbox
	Store   *db.Store

	Payments      *payment.Service
	Clients       *client.Service
	Activations   *activation.Service
	Withdrawals   *withdrawal.Service
	Referrals     *referral.Service
	Poller        *reconciliation.Poller
	Audit         *audit.Service
	Notifications *notification.Service
	Projector     *readmodels.Projector
	Health        *health.Service
	Snapshot      *metrics.Service
	// Relay is nil unless Kafka brokers are configured.
	Relay *broker.KafkaRelay

	closers []func() error
}

type repositories struct {
	payments    payment.RepositoryContract
	clients     client.RepositoryContract
	activations activation.RepositoryContract
	withdrawals withdrawal.RepositoryContract
}

// New connects the configured backends and builds every service. The
// returned App owns those connections until Close.
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
		Bus:     broker.New(logger),
	}
	checks := map[string]health.CheckFunc{}

	repos, err := a.openRepositories(ctx, checks)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.openCache(checks)
	a.openGateway()
	checks["gateway"] = health.Breaker(a.Gateway)

	if err := a.openRecorders(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.openRelay()

	ns := cfg.Cache.Namespace
	a.Payments = payment.NewService(a.Bus, a.Store, repos.payments, a.Gateway, a.Cache, a.Metrics, logger, payment.Config{
		ReferenceLength:   cfg.Payment.ReferenceLength,
		ReferenceAttempts: cfg.Payment.ReferenceAttempts,
		CheckWindow:       cfg.Payment.CheckWindow,
		CacheNamespace:    ns,
	})
	a.Clients = client.NewService(a.Bus, repos.clients, logger)
	a.Activations = activation.NewService(a.Bus, repos.activations, a.Clients, a.Payments, a.Cache, logger, activation.Config{
		Fee:            cfg.Activation.Fee,
		StatusTTL:      cfg.Activation.StatusTTL,
		CacheNamespace: ns,
	})
	a.Withdrawals = withdrawal.NewService(a.Bus, repos.withdrawals, a.Clients, a.Payments, a.Cache, a.Metrics, logger, withdrawal.Config{
		MinAmount:      cfg.Withdrawal.Min,
		MaxAmount:      cfg.Withdrawal.Max,
		FeePercent:     cfg.Withdrawal.FeePercent,
		Instant:        cfg.Withdrawal.Instant,
		CacheNamespace: ns,
	})
	a.Referrals = referral.NewService(a.Bus, a.Clients, a.Cache, a.Metrics, logger, referral.Config{
		Reward:         cfg.Referral.Reward,
		CacheNamespace: ns,
	})
	a.Poller = reconciliation.NewPoller(a.Payments, a.Bus, logger, cfg.Reconciliation.Interval)
	a.Notifications = notification.NewService(logger)
	a.Snapshot = metrics.NewService(a.Metrics)
	a.Health = health.NewService(2*time.Second, checks)
	return a, nil
}

func (a *App) openRepositories(ctx context.Context, checks map[string]health.CheckFunc) (repositories, error) {
	if a.Config.Database.URL == "" {
		a.Logger.Warn("database url not set, using in-memory storage", "layer", "app", "component", "storage")
		return repositories{
			payments:    payment.NewInMemoryRepository(),
			clients:     client.NewInMemoryRepository(),
			activations: activation.NewInMemoryRepository(),
			withdrawals: withdrawal.NewInMemoryRepository(),
		}, nil
	}

	pg, err := db.NewPostgres(ctx, db.PostgresConfig{
		URL:      a.Config.Database.URL,
		MaxConns: a.Config.Database.MaxConns,
		MinConns: a.Config.Database.MinConns,
	})
	if err != nil {
		a.Logger.Error("app error", "layer", "app", "component", "storage", "method", "openRepositories", "error", err.Error())
		return repositories{}, err
	}
	a.closers = append(a.closers, func() error { pg.Close(); return nil })
	if err := db.Migrate(ctx, pg); err != nil {
		a.Logger.Error("app error", "layer", "app", "component", "storage", "method", "Migrate", "error", err.Error())
		return repositories{}, err
	}
	checks["database"] = health.Ping(pg)

	return repositories{
		payments:    payment.NewSQLRepository(pg, a.Logger),
		clients:     client.NewSQLRepository(pg, a.Logger),
		activations: activation.NewSQLRepository(pg, a.Logger),
		withdrawals: withdrawal.NewSQLRepository(pg, a.Logger),
	}, nil
}

func (a *App) openCache(checks map[string]health.CheckFunc) {
	rc := a.Config.Redis
	if len(rc.Addrs) == 0 {
		a.Cache = cache.NewMemory()
		return
	}
	r := cache.NewRedis(cache.RedisOptions{Addrs: rc.Addrs, Password: rc.Password, DB: rc.DB, Cluster: rc.Cluster})
	a.closers = append(a.closers, r.Close)
	checks["cache"] = health.Ping(r)
	a.Cache = r
}

func (a *App) openGateway() {
	var next gateway.Gateway
	if a.Config.Gateway.Mode == config.GatewayPaystack {
		next = gateway.NewPaystack(gateway.PaystackConfig{
			BaseURL:   a.Config.Paystack.BaseURL,
			SecretKey: a.Config.Paystack.SecretKey,
			Timeout:   a.Config.Paystack.Timeout,
		}, a.Logger)
	} else {
		a.Sandbox = gateway.NewSandbox()
		next = a.Sandbox
	}
	a.Gateway = gateway.NewCircuitBreaker(next, gateway.CircuitBreakerConfig{
		FailureThreshold: a.Config.Breaker.FailureThreshold,
		SuccessThreshold: a.Config.Breaker.SuccessThreshold,
		OpenTimeout:      a.Config.Breaker.OpenTimeout,
	})
}

// openRecorders opens the event store and the audit trail, then rebuilds the
// read models from whatever the store already holds.
func (a *App) openRecorders(ctx context.Context) error {
	a.Store = db.NewStore(a.Logger)
	if path := a.Config.Events.Path; path != "" {
		s, err := db.NewStoreWithFile(a.Logger, path)
		if err != nil {
			a.Logger.Error("app error", "layer", "app", "component", "store", "method", "openRecorders", "path", path, "error", err.Error())
			return err
		}
		a.Store = s
		a.closers = append(a.closers, s.Close)
	}

	a.Audit = audit.NewService(a.Logger)
	if path := a.Config.Audit.Path; path != "" {
		s, err := audit.NewServiceWithFile(a.Logger, path)
		if err != nil {
			a.Logger.Error("app error", "layer", "app", "component", "audit", "method", "openRecorders", "path", path, "error", err.Error())
			return err
		}
		a.Audit = s
		a.closers = append(a.closers, s.Close)
	}

	a.Projector = readmodels.NewProjector()
	return a.Projector.Replay(ctx, a.Store)
}

func (a *App) openRelay() {
	kc := a.Config.Kafka
	if len(kc.Brokers) == 0 {
		return
	}
	w := broker.NewKafkaWriter(broker.KafkaConfig{Brokers: kc.Brokers, Topic: kc.Topic})
	a.closers = append(a.closers, w.Close)
	a.Relay = broker.NewKafkaRelay(w, a.Logger)
}

// Close releases connections in reverse order of opening.
func (a *App) Close() error {
	var errList []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errList = append(errList, err)
		}
	}
	a.closers = nil
	return errors.Join(errList...)
}
