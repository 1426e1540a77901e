package payment

import (
	"context"
	"errors"
	"time"

	"affiliate/kit/broker"
	"affiliate/kit/cache"
	"affiliate/kit/db"
	"affiliate/kit/errs"
	"affiliate/kit/gateway"
	"affiliate/kit/observability"
	"affiliate/kit/reference"
)

const (
	DefaultReferenceLength   = 6
	DefaultReferenceAttempts = 100
	DefaultCheckWindow       = 30 * time.Second
)

type Config struct {
	ReferenceLength   int
	ReferenceAttempts int
	// CheckWindow is how long a gateway lookup for one reference suppresses
	// further lookups for it.
	CheckWindow    time.Duration
	CacheNamespace string
}

// Service orchestrates the payment lifecycle. Statuses reported by the
// webhook and by polling both go through resolve, which applies each
// terminal status at most once and broadcasts it exactly when applied.
type Service struct {
	bus        PublisherContract
	store      StoreContract
	repository RepositoryContract
	gateway    gateway.Gateway
	cache      cache.Cache
	metrics    *observability.Metrics
	logger     *observability.Logger

	generator   *reference.Generator
	checkKey    cache.Key
	checkWindow time.Duration
	locks       *keyedMutex
}

func NewService(
	bus PublisherContract,
	store StoreContract,
	repo RepositoryContract,
	gw gateway.Gateway,
	c cache.Cache,
	metrics *observability.Metrics,
	logger *observability.Logger,
	cfg Config,
) *Service {
	if cfg.ReferenceLength <= 0 {
		cfg.ReferenceLength = DefaultReferenceLength
	}
	if cfg.ReferenceAttempts <= 0 {
		cfg.ReferenceAttempts = DefaultReferenceAttempts
	}
	if cfg.CheckWindow <= 0 {
		cfg.CheckWindow = DefaultCheckWindow
	}
	return &Service{
		bus:         bus,
		store:       store,
		repository:  repo,
		gateway:     gw,
		cache:       c,
		metrics:     metrics,
		logger:      logger,
		generator:   reference.NewGenerator(cfg.ReferenceLength, cfg.ReferenceAttempts),
		checkKey:    cache.NewKey(cfg.CacheNamespace, "payment-check", cfg.CheckWindow),
		checkWindow: cfg.CheckWindow,
		locks:       newKeyedMutex(),
	}
}

func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*Payment, error) {
	if err := ValidateInitiateRequest(req); err != nil {
		s.logger.Warn("payment rejected", "layer", "service", "component", "payment", "method", "Initiate", "type", req.Type, "error", err.Error())
		return nil, errors.Join(db.ErrInvalid, err)
	}

	ref, err := s.generator.Generate(ctx, func(ctx context.Context, candidate string) (bool, error) {
		exists, err := s.repository.Exists(ctx, candidate)
		return !exists, err
	})
	if err != nil {
		s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Initiate", "step", "reference", "error", err.Error())
		return nil, err
	}

	now := time.Now().UTC()
	p := &Payment{
		Reference:   ref,
		Type:        req.Type,
		PhoneNumber: req.PhoneNumber,
		Amount:      req.Amount,
		Metadata:    req.Metadata,
		Status:      StatusPending,
		InitiatedAt: now,
		UpdatedAt:   now,
	}
	if err := s.repository.Create(ctx, p); err != nil {
		s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Initiate", "reference", ref, "error", err.Error())
		return nil, err
	}
	s.metrics.PaymentInitiatedAdd(string(p.Type))

	if req.Bind != nil {
		if err := req.Bind(ctx, ref); err != nil {
			s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Initiate", "step", "bind", "reference", ref, "error", err.Error())
			s.failInitiation(ctx, p)
			return nil, err
		}
	}

	var gp *gateway.Payment
	if p.Type == TypeCharge {
		gp, err = s.gateway.InitiateCharge(ctx, ToGatewayRequest(p))
	} else {
		gp, err = s.gateway.InitiatePayout(ctx, ToGatewayRequest(p))
	}
	if err != nil {
		s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Initiate", "step", "gateway", "reference", ref, "type", p.Type, "error", err.Error())
		s.failInitiation(ctx, p)
		return nil, errors.Join(errs.ErrInitializationFailed.WithMessage(ref), err)
	}

	if gp != nil && gp.TransactionID != "" {
		if err := s.repository.SetTransactionID(ctx, ref, gp.TransactionID); err != nil {
			s.logger.Warn("payment transaction id not stored", "layer", "service", "component", "payment", "method", "Initiate", "reference", ref, "error", err.Error())
		} else {
			p.TransactionID = gp.TransactionID
		}
	}

	s.emit(ctx, ref, ToPaymentInitiatedEvent(p))

	if gp != nil && Status(gp.Status).IsTerminal() {
		reported := *gp
		reported.Reference = ref
		if _, err := s.resolve(ctx, reported); err != nil {
			s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Initiate", "step", "resolve", "reference", ref, "error", err.Error())
		}
		if cur, err := s.repository.Get(ctx, ref); err == nil {
			p = cur
		}
	} else {
		s.emit(ctx, ref, ToPaymentStatusChangedEvent(p))
	}

	s.logger.Info("payment initiated", "layer", "service", "component", "payment", "method", "Initiate", "reference", ref, "type", p.Type, "status", p.Status)
	return p, nil
}

// failInitiation marks a payment that never reached the provider as failed.
func (s *Service) failInitiation(ctx context.Context, p *Payment) {
	unlock := s.locks.Lock(p.Reference)
	defer unlock()
	if _, err := s.transition(ctx, p, StatusFailed, ""); err != nil {
		s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "failInitiation", "reference", p.Reference, "error", err.Error())
	}
}

// CheckPayment asks the gateway for the status of a pending payment. At
// most one lookup per reference happens within the check window.
func (s *Service) CheckPayment(ctx context.Context, ref string) (Outcome, error) {
	acquired, err := s.cache.SetNX(ctx, s.checkKey.For(ref), time.Now().UTC().Format(time.RFC3339), s.checkWindow)
	if err != nil {
		// Without the marker the check still runs; resolve stays safe.
		s.logger.Warn("payment check marker unavailable", "layer", "service", "component", "payment", "method", "CheckPayment", "reference", ref, "error", err.Error())
		acquired = true
	}
	if !acquired {
		s.metrics.PaymentCheckAdd(string(OutcomeDebounced))
		return OutcomeDebounced, nil
	}

	p, err := s.repository.Get(ctx, ref)
	if err != nil {
		if db.IsNotFound(err) {
			s.logger.Warn("payment check for unknown reference", "layer", "service", "component", "payment", "method", "CheckPayment", "reference", ref)
			s.metrics.PaymentCheckAdd(string(OutcomeUnknownPayment))
			return OutcomeUnknownPayment, nil
		}
		s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "CheckPayment", "reference", ref, "error", err.Error())
		return "", err
	}
	if p.Status.IsTerminal() {
		s.metrics.PaymentCheckAdd(string(OutcomeAlreadyTerminal))
		return OutcomeAlreadyTerminal, nil
	}

	gp, err := s.gateway.GetPayment(ctx, ref)
	if err != nil || gp == nil {
		s.metrics.PaymentCheckAdd("lookup_failed")
		lookupErr := errs.ErrPaymentLookupFailed.WithMessage(ref)
		if err != nil {
			s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "CheckPayment", "reference", ref, "error", err.Error())
			return "", errors.Join(lookupErr, err)
		}
		s.logger.Warn("payment unknown to gateway", "layer", "service", "component", "payment", "method", "CheckPayment", "reference", ref)
		return "", lookupErr
	}
	reported := *gp
	reported.Reference = ref

	outcome, err := s.resolve(ctx, reported)
	if err != nil {
		return "", err
	}
	s.metrics.PaymentCheckAdd(string(outcome))
	return outcome, nil
}

func (s *Service) ProcessCallback(ctx context.Context, raw []byte) (Outcome, error) {
	gp, err := s.gateway.DecodeCallback(ctx, raw)
	if err != nil {
		s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "ProcessCallback", "error", err.Error())
		return "", errors.Join(errs.ErrCallbackProcessingFailed, err)
	}
	return s.resolve(ctx, *gp)
}

// resolve applies a provider-reported status. Unknown references, repeated
// statuses and reports for finished payments are no-ops.
func (s *Service) resolve(ctx context.Context, gp gateway.Payment) (Outcome, error) {
	unlock := s.locks.Lock(gp.Reference)
	defer unlock()

	p, err := s.repository.Get(ctx, gp.Reference)
	if err != nil {
		if db.IsNotFound(err) {
			s.logger.Warn("status for unknown payment", "layer", "service", "component", "payment", "method", "resolve", "reference", gp.Reference, "status", gp.Status)
			return OutcomeUnknownPayment, nil
		}
		s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "resolve", "reference", gp.Reference, "error", err.Error())
		return "", errors.Join(errs.ErrCallbackProcessingFailed, err)
	}

	target := Status(gp.Status)
	if p.Status == target {
		return OutcomeUnchanged, nil
	}
	if p.Status.IsTerminal() {
		return OutcomeAlreadyTerminal, nil
	}
	if !CanTransition(p.Status, target) {
		return OutcomeUnchanged, nil
	}
	return s.transition(ctx, p, target, gp.TransactionID)
}

// transition must be called with the reference lock held.
func (s *Service) transition(ctx context.Context, p *Payment, to Status, transactionID string) (Outcome, error) {
	changed, err := s.repository.UpdateStatus(ctx, p.Reference, StatusPending, to, transactionID)
	if err != nil {
		return "", errors.Join(errs.ErrCallbackProcessingFailed, err)
	}
	if !changed {
		return OutcomeAlreadyTerminal, nil
	}

	p.Status = to
	if transactionID != "" {
		p.TransactionID = transactionID
	}
	p.UpdatedAt = time.Now().UTC()
	s.metrics.PaymentStatusChangedAdd(string(to))
	s.logger.Info("payment status changed", "layer", "service", "component", "payment", "method", "transition", "reference", p.Reference, "type", p.Type, "status", to)
	s.emit(ctx, p.Reference, ToPaymentStatusChangedEvent(p))
	return OutcomeApplied, nil
}

func (s *Service) emit(ctx context.Context, ref string, evt broker.Event) {
	if s.store != nil {
		if _, err := s.store.Append(ctx, ref, evt); err != nil {
			s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "emit", "reference", ref, "event", evt.Name(), "error", err.Error())
		}
	}
	if s.bus == nil {
		return
	}
	for _, err := range s.bus.Publish(ctx, evt) {
		s.logger.Error("payment subscriber failed", "layer", "service", "component", "payment", "method", "emit", "reference", ref, "event", evt.Name(), "error", err.Error())
	}
}

func (s *Service) Get(ctx context.Context, ref string) (*Payment, error) {
	p, err := s.repository.Get(ctx, ref)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, errors.Join(errs.ErrUnknownPayment.WithMessage(ref), err)
		}
		s.logger.Error("payment error", "layer", "service", "component", "payment", "method", "Get", "reference", ref, "error", err.Error())
		return nil, err
	}
	return p, nil
}

func (s *Service) ListPending(ctx context.Context) ([]*Payment, error) {
	return s.repository.ListByStatus(ctx, StatusPending)
}

func (s *Service) ListByPhoneNumber(ctx context.Context, phoneNumber string) ([]*Payment, error) {
	return s.repository.ListByPhoneNumber(ctx, phoneNumber)
}
