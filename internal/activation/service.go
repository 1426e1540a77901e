package activation

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"affiliate/internal/client"
	"affiliate/internal/events"
	"affiliate/internal/payment"
	"affiliate/kit/broker"
	"affiliate/kit/cache"
	"affiliate/kit/db"
	"affiliate/kit/errs"
	"affiliate/kit/observability"
)

const (
	DefaultStatusTTL = 10 * time.Minute
	Reason           = "Account activation"
)

var DefaultFee = decimal.NewFromInt(500)

type Config struct {
	Fee            decimal.Decimal
	StatusTTL      time.Duration
	CacheNamespace string
}

type Service struct {
	bus        PublisherContract
	repository RepositoryContract
	clients    ClientsContract
	payments   PaymentsContract
	cache      cache.Cache
	logger     *observability.Logger

	fee       decimal.Decimal
	statusKey cache.Key
	now       func() time.Time
}

func NewService(
	bus PublisherContract,
	repo RepositoryContract,
	clients ClientsContract,
	payments PaymentsContract,
	c cache.Cache,
	logger *observability.Logger,
	cfg Config,
) *Service {
	if !cfg.Fee.IsPositive() {
		cfg.Fee = DefaultFee
	}
	if cfg.StatusTTL <= 0 {
		cfg.StatusTTL = DefaultStatusTTL
	}
	return &Service{
		bus:        bus,
		repository: repo,
		clients:    clients,
		payments:   payments,
		cache:      c,
		logger:     logger,
		fee:        cfg.Fee,
		statusKey:  cache.NewKey(cfg.CacheNamespace, "client-activation-status", cfg.StatusTTL),
		now:        time.Now,
	}
}

func (s *Service) Fee() decimal.Decimal { return s.fee }

// ClientStatus reports whether the client has activated, served from the
// cache when possible.
func (s *Service) ClientStatus(ctx context.Context, clientID string) (client.Status, error) {
	return cache.GetOrLoad(ctx, s.cache, s.statusKey.For(clientID), s.statusKey.TTL, func(ctx context.Context) (client.Status, error) {
		c, err := s.clients.Get(ctx, clientID)
		if err != nil {
			return "", err
		}
		return c.Status, nil
	})
}

// Initiate charges the activation fee to phoneNumber. The activation is
// bound to the payment reference before the gateway is contacted. A client
// with a charge still in flight gets ErrActivationInProgress.
func (s *Service) Initiate(ctx context.Context, clientID, phoneNumber string) (*Activation, error) {
	c, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if c.IsActive() {
		return nil, errs.ErrAccountAlreadyActive.WithMessage(clientID)
	}
	latest, err := s.Latest(ctx, clientID)
	if err != nil {
		s.logger.Error("activation error", "layer", "service", "component", "activation", "method", "Initiate", "client_id", clientID, "error", err.Error())
		return nil, err
	}
	if latest != nil && latest.Status == StatusPending && latest.PaymentRef != "" {
		return nil, errs.ErrActivationInProgress.WithMessage(latest.PaymentRef)
	}
	if phoneNumber == "" {
		phoneNumber = c.PhoneNumber
	}

	a := &Activation{
		ID:        ulid.Make().String(),
		ClientID:  clientID,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repository.Create(ctx, a); err != nil {
		s.logger.Error("activation error", "layer", "service", "component", "activation", "method", "Initiate", "client_id", clientID, "error", err.Error())
		return nil, err
	}

	p, err := s.payments.Initiate(ctx, payment.InitiateRequest{
		Type:        payment.TypeCharge,
		PhoneNumber: phoneNumber,
		Amount:      s.fee,
		Metadata: payment.Metadata{
			Recipient: payment.Recipient{Username: c.Username, Name: c.Name, Email: c.Email, PhoneNumber: c.PhoneNumber},
			Reason:    Reason,
		},
		Bind: func(ctx context.Context, ref string) error {
			a.PaymentRef = ref
			return s.repository.SetPaymentRef(ctx, a.ID, ref)
		},
	})
	if err != nil {
		s.logger.Error("activation payment failed", "layer", "service", "component", "activation", "method", "Initiate", "activation_id", a.ID, "client_id", clientID, "error", err.Error())
		s.abandon(ctx, a)
		return nil, errors.Join(errs.ErrPaymentFailed.WithMessage(a.ID), err)
	}

	s.publish(ctx, events.ActivationRequested{ActivationID: a.ID, ClientID: clientID, PaymentRef: p.Reference, Fee: s.fee, At: a.CreatedAt})
	s.logger.Info("activation initiated", "layer", "service", "component", "activation", "activation_id", a.ID, "client_id", clientID, "reference", p.Reference)

	// The charge may already have settled during initiation.
	if cur, err := s.repository.Get(ctx, a.ID); err == nil {
		a = cur
	}
	return a, nil
}

// abandon fails an activation whose charge never got going, unless the
// payment broadcast already did.
func (s *Service) abandon(ctx context.Context, a *Activation) {
	changed, err := s.repository.UpdateStatus(ctx, a.ID, StatusPending, StatusFailed)
	if err != nil {
		s.logger.Error("activation error", "layer", "service", "component", "activation", "method", "abandon", "activation_id", a.ID, "error", err.Error())
		return
	}
	if !changed {
		return
	}
	s.publish(ctx, events.ActivationFailed{ActivationID: a.ID, ClientID: a.ClientID, PaymentRef: a.PaymentRef, At: s.now().UTC()})
}

func (s *Service) Latest(ctx context.Context, clientID string) (*Activation, error) {
	a, err := s.repository.LatestByClient(ctx, clientID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// MarkFailed records that the charge behind ref did not go through. It
// returns nil without error when ref is not an activation charge.
func (s *Service) MarkFailed(ctx context.Context, ref string) (*Activation, error) {
	a, changed, err := s.move(ctx, "MarkFailed", ref, StatusFailed)
	if err != nil || !changed {
		return a, err
	}
	s.publish(ctx, events.ActivationFailed{ActivationID: a.ID, ClientID: a.ClientID, PaymentRef: ref, At: s.now().UTC()})
	return a, nil
}

// MarkCompleted activates the client behind ref and announces it. The
// announcement happens once per client even when several of its charges
// complete.
func (s *Service) MarkCompleted(ctx context.Context, ref string) (*Activation, error) {
	a, changed, err := s.move(ctx, "MarkCompleted", ref, StatusCompleted)
	if err != nil || !changed {
		return a, err
	}
	activated, err := s.clients.Activate(ctx, a.ClientID)
	if err != nil {
		s.logger.Error("activation error", "layer", "service", "component", "activation", "method", "MarkCompleted", "client_id", a.ClientID, "error", err.Error())
		return a, err
	}
	if !activated {
		s.logger.Warn("client already active", "layer", "service", "component", "activation", "activation_id", a.ID, "client_id", a.ClientID, "reference", ref)
		return a, nil
	}
	if s.cache != nil {
		if err := cache.SetJSON(ctx, s.cache, s.statusKey.For(a.ClientID), client.StatusActive, s.statusKey.TTL); err != nil {
			s.logger.Warn("activation status not cached", "layer", "service", "component", "activation", "client_id", a.ClientID, "error", err.Error())
		}
	}
	s.logger.Info("client activated", "layer", "service", "component", "activation", "activation_id", a.ID, "client_id", a.ClientID, "reference", ref)
	s.publish(ctx, events.ClientActivated{ClientID: a.ClientID, At: s.now().UTC()})
	return a, nil
}

// move reports changed=false when ref is unknown or already holds to.
// Statuses only move forward, so a lost compare-and-set is retried against
// the fresh row until it either holds to or refuses the transition.
func (s *Service) move(ctx context.Context, method, ref string, to Status) (*Activation, bool, error) {
	for {
		a, err := s.repository.GetByPaymentRef(ctx, ref)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, false, nil
			}
			s.logger.Error("activation error", "layer", "service", "component", "activation", "method", method, "reference", ref, "error", err.Error())
			return nil, false, err
		}
		if a.Status == to {
			return a, false, nil
		}
		if err := CheckTransition(a.Status, to); err != nil {
			s.logger.Warn("activation transition refused", "layer", "service", "component", "activation", "method", method, "activation_id", a.ID, "error", err.Error())
			return a, false, err
		}
		changed, err := s.repository.UpdateStatus(ctx, a.ID, a.Status, to)
		if err != nil {
			s.logger.Error("activation error", "layer", "service", "component", "activation", "method", method, "activation_id", a.ID, "error", err.Error())
			return a, false, err
		}
		if changed {
			a.Status = to
			return a, true, nil
		}
	}
}

func (s *Service) publish(ctx context.Context, evt broker.Event) {
	if s.bus == nil {
		return
	}
	for _, err := range s.bus.Publish(ctx, evt) {
		s.logger.Error("activation subscriber failed", "layer", "service", "component", "activation", "event", evt.Name(), "error", err.Error())
	}
}
