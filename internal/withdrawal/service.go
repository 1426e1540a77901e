package withdrawal

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"affiliate/internal/events"
	"affiliate/internal/payment"
	"affiliate/kit/broker"
	"affiliate/kit/cache"
	"affiliate/kit/db"
	"affiliate/kit/errs"
	"affiliate/kit/observability"
)

const Reason = "Earnings withdrawal"

var (
	DefaultMinAmount  = decimal.NewFromInt(200)
	DefaultMaxAmount  = decimal.NewFromInt(100000)
	DefaultFeePercent = decimal.NewFromInt(10)
)

type Config struct {
	MinAmount  decimal.Decimal
	MaxAmount  decimal.Decimal
	FeePercent decimal.Decimal
	// Instant sends the payout as soon as the balance is debited.
	Instant        bool
	StatsTTL       time.Duration
	CacheNamespace string
}

// DefaultConfig mirrors the production withdrawal settings.
func DefaultConfig() Config {
	return Config{
		MinAmount:  DefaultMinAmount,
		MaxAmount:  DefaultMaxAmount,
		FeePercent: DefaultFeePercent,
		Instant:    true,
	}
}

type Service struct {
	bus        PublisherContract
	repository RepositoryContract
	clients    ClientsContract
	payments   PaymentsContract
	cache      cache.Cache
	metrics    *observability.Metrics
	logger     *observability.Logger

	cfg      Config
	statsKey cache.Key
	now      func() time.Time
}

func NewService(
	bus PublisherContract,
	repo RepositoryContract,
	clients ClientsContract,
	payments PaymentsContract,
	c cache.Cache,
	metrics *observability.Metrics,
	logger *observability.Logger,
	cfg Config,
) *Service {
	return &Service{
		bus:        bus,
		repository: repo,
		clients:    clients,
		payments:   payments,
		cache:      c,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		statsKey:   cache.NewKey(cfg.CacheNamespace, "withdrawal-stats", cfg.StatsTTL),
		now:        time.Now,
	}
}

func (s *Service) AmountRange() Range {
	return Range{Min: s.cfg.MinAmount, Max: s.cfg.MaxAmount}
}

// NetAmount is what reaches the client once the withdrawal fee is taken.
func (s *Service) NetAmount(amount decimal.Decimal) decimal.Decimal {
	fee := amount.Mul(s.cfg.FeePercent).Div(decimal.NewFromInt(100))
	return amount.Sub(fee).Round(2)
}

// Initiate debits amount from the client and, for instant withdrawals,
// pays out the net amount. Nothing is written unless every check passes.
func (s *Service) Initiate(ctx context.Context, clientID string, amount decimal.Decimal) (*Withdrawal, error) {
	c, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	switch {
	case c.Balance.LessThan(amount):
		return nil, errs.ErrInsufficientBalance.WithMessage(clientID)
	case amount.LessThan(s.cfg.MinAmount):
		return nil, errs.ErrBelowMinAmount.WithMessage(s.cfg.MinAmount.String())
	case amount.GreaterThan(s.cfg.MaxAmount):
		return nil, errs.ErrExceedsMaxAmount.WithMessage(s.cfg.MaxAmount.String())
	}

	w := &Withdrawal{
		ID:          ulid.Make().String(),
		ClientID:    clientID,
		Amount:      amount,
		Status:      StatusPending,
		InitiatedAt: s.now().UTC(),
	}
	if err := s.repository.Create(ctx, w); err != nil {
		s.logger.Error("withdrawal error", "layer", "service", "component", "withdrawal", "method", "Initiate", "client_id", clientID, "error", err.Error())
		return nil, err
	}
	if err := s.clients.DecrementBalance(ctx, clientID, amount); err != nil {
		s.logger.Warn("withdrawal debit refused", "layer", "service", "component", "withdrawal", "method", "Initiate", "withdrawal_id", w.ID, "error", err.Error())
		if _, uerr := s.repository.UpdateStatus(ctx, w.ID, StatusPending, StatusRejected); uerr != nil {
			s.logger.Error("withdrawal error", "layer", "service", "component", "withdrawal", "method", "Initiate", "withdrawal_id", w.ID, "error", uerr.Error())
		}
		s.metrics.WithdrawalAdd(string(StatusRejected))
		return nil, err
	}
	s.clearStats(ctx, clientID)
	s.metrics.WithdrawalAdd(string(StatusPending))
	s.logger.Info("withdrawal requested", "layer", "service", "component", "withdrawal", "withdrawal_id", w.ID, "client_id", clientID, "amount", amount.String())

	if !s.cfg.Instant {
		s.publish(ctx, events.WithdrawalRequested{WithdrawalID: w.ID, ClientID: clientID, Amount: amount, At: w.InitiatedAt})
		return w, nil
	}

	p, err := s.payments.Initiate(ctx, payment.InitiateRequest{
		Type:        payment.TypePayout,
		PhoneNumber: c.PhoneNumber,
		Amount:      s.NetAmount(amount),
		Metadata: payment.Metadata{
			Recipient: payment.Recipient{Username: c.Username, Name: c.Name, Email: c.Email, PhoneNumber: c.PhoneNumber},
			Reason:    Reason,
		},
		Bind: func(ctx context.Context, ref string) error {
			w.PaymentRef = ref
			return s.repository.SetPaymentRef(ctx, w.ID, ref)
		},
	})
	if err != nil {
		s.logger.Error("withdrawal payout failed", "layer", "service", "component", "withdrawal", "method", "Initiate", "withdrawal_id", w.ID, "error", err.Error())
		if _, ferr := s.fail(ctx, w, "payout initiation failed"); ferr != nil {
			s.logger.Error("withdrawal error", "layer", "service", "component", "withdrawal", "method", "Initiate", "withdrawal_id", w.ID, "error", ferr.Error())
		}
		return nil, errors.Join(errs.ErrPaymentFailed.WithMessage(w.ID), err)
	}

	s.publish(ctx, events.WithdrawalRequested{WithdrawalID: w.ID, ClientID: clientID, Amount: amount, PaymentRef: p.Reference, At: w.InitiatedAt})
	if cur, err := s.repository.Get(ctx, w.ID); err == nil {
		w = cur
	}
	return w, nil
}

// Stats summarises the client's withdrawals, served from the cache when
// possible.
func (s *Service) Stats(ctx context.Context, clientID string) (Stats, error) {
	return cache.GetOrLoad(ctx, s.cache, s.statsKey.For(clientID), s.statsKey.TTL, func(ctx context.Context) (Stats, error) {
		return s.repository.Stats(ctx, clientID)
	})
}

func (s *Service) List(ctx context.Context, clientID string) ([]*Withdrawal, error) {
	return s.repository.ListByClient(ctx, clientID)
}

func (s *Service) Count(ctx context.Context, clientID string) (int, error) {
	st, err := s.Stats(ctx, clientID)
	if err != nil {
		return 0, err
	}
	return st.Total, nil
}

// MarkFailed fails the withdrawal paid by ref and refunds its gross amount.
// It returns nil without error when ref is not a withdrawal payout.
func (s *Service) MarkFailed(ctx context.Context, ref, reason string) (*Withdrawal, error) {
	w, err := s.byRef(ctx, "MarkFailed", ref)
	if err != nil || w == nil {
		return nil, err
	}
	return s.fail(ctx, w, reason)
}

func (s *Service) MarkCompleted(ctx context.Context, ref string) (*Withdrawal, error) {
	w, err := s.byRef(ctx, "MarkCompleted", ref)
	if err != nil || w == nil {
		return nil, err
	}
	changed, err := s.move(ctx, w, StatusCompleted)
	if err != nil || !changed {
		return w, err
	}
	s.logger.Info("withdrawal completed", "layer", "service", "component", "withdrawal", "withdrawal_id", w.ID, "reference", ref)
	s.publish(ctx, events.WithdrawalCompleted{WithdrawalID: w.ID, ClientID: w.ClientID, Amount: w.Amount, PaymentRef: ref, At: s.now().UTC()})
	return w, nil
}

// fail moves w to failed and refunds it. Only the caller that performs the
// move issues the refund.
func (s *Service) fail(ctx context.Context, w *Withdrawal, reason string) (*Withdrawal, error) {
	changed, err := s.move(ctx, w, StatusFailed)
	if err != nil || !changed {
		return w, err
	}
	s.publish(ctx, events.WithdrawalFailed{WithdrawalID: w.ID, ClientID: w.ClientID, Amount: w.Amount, PaymentRef: w.PaymentRef, Reason: reason, At: s.now().UTC()})

	if err := s.clients.IncrementBalance(ctx, w.ClientID, w.Amount); err != nil {
		s.logger.Error("withdrawal refund failed", "layer", "service", "component", "withdrawal", "method", "fail", "withdrawal_id", w.ID, "client_id", w.ClientID, "amount", w.Amount.String(), "error", err.Error())
		return w, err
	}
	s.metrics.BalanceRefundAdd()
	s.logger.Info("withdrawal refunded", "layer", "service", "component", "withdrawal", "withdrawal_id", w.ID, "client_id", w.ClientID, "amount", w.Amount.String())
	s.publish(ctx, events.BalanceRefunded{ClientID: w.ClientID, WithdrawalID: w.ID, Amount: w.Amount, At: s.now().UTC()})
	return w, nil
}

func (s *Service) byRef(ctx context.Context, method, ref string) (*Withdrawal, error) {
	w, err := s.repository.GetByPaymentRef(ctx, ref)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		s.logger.Error("withdrawal error", "layer", "service", "component", "withdrawal", "method", method, "reference", ref, "error", err.Error())
		return nil, err
	}
	return w, nil
}

// move reports changed=false when w already holds to or another caller
// moved it first.
func (s *Service) move(ctx context.Context, w *Withdrawal, to Status) (bool, error) {
	if w.Status == to {
		return false, nil
	}
	if err := CheckTransition(w.Status, to); err != nil {
		s.logger.Warn("withdrawal transition refused", "layer", "service", "component", "withdrawal", "withdrawal_id", w.ID, "error", err.Error())
		return false, err
	}
	changed, err := s.repository.UpdateStatus(ctx, w.ID, w.Status, to)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}
	w.Status = to
	s.metrics.WithdrawalAdd(string(to))
	s.clearStats(ctx, w.ClientID)
	return true, nil
}

func (s *Service) clearStats(ctx context.Context, clientID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.statsKey.For(clientID)); err != nil {
		s.logger.Warn("withdrawal stats not cleared", "layer", "service", "component", "withdrawal", "client_id", clientID, "error", err.Error())
	}
}

func (s *Service) publish(ctx context.Context, evt broker.Event) {
	if s.bus == nil {
		return
	}
	for _, err := range s.bus.Publish(ctx, evt) {
		s.logger.Error("withdrawal subscriber failed", "layer", "service", "component", "withdrawal", "event", evt.Name(), "error", err.Error())
	}
}
