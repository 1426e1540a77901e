package client

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"affiliate/internal/events"
	"affiliate/kit/db"
	"affiliate/kit/errs"
	"affiliate/kit/observability"
)

type Service struct {
	bus        PublisherContract
	repository RepositoryContract
	logger     *observability.Logger
	now        func() time.Time
}

func NewService(bus PublisherContract, repo RepositoryContract, logger *observability.Logger) *Service {
	return &Service{bus: bus, repository: repo, logger: logger, now: time.Now}
}

// Register creates an inactive client with a zero balance. A non-empty
// InviterID must name an existing client.
func (s *Service) Register(ctx context.Context, req NewClient) (*Client, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := ValidateNewClient(req); err != nil {
		return nil, errors.Join(db.ErrInvalid, err)
	}
	if req.InviterID != "" {
		if _, err := s.Get(ctx, req.InviterID); err != nil {
			return nil, err
		}
	}

	c := &Client{
		ID:          ulid.Make().String(),
		Username:    req.Username,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		InviterID:   req.InviterID,
		Status:      StatusInactive,
		Balance:     decimal.Zero,
		JoinedAt:    s.now().UTC(),
	}
	if err := s.repository.Create(ctx, c); err != nil {
		s.logger.Error("client error", "layer", "service", "component", "client", "method", "Register", "username", c.Username, "error", err.Error())
		return nil, err
	}
	s.logger.Info("client registered", "layer", "service", "component", "client", "client_id", c.ID, "inviter_id", c.InviterID)

	if s.bus != nil {
		evt := events.ClientRegistered{ClientID: c.ID, Username: c.Username, InviterID: c.InviterID, At: c.JoinedAt}
		for _, err := range s.bus.Publish(ctx, evt) {
			s.logger.Error("client subscriber failed", "layer", "service", "component", "client", "method", "Register", "client_id", c.ID, "error", err.Error())
		}
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Client, error) {
	c, err := s.repository.Get(ctx, id)
	if err != nil {
		return nil, s.wrap("Get", id, err)
	}
	return c, nil
}

// GetInviter returns nil without error when the client was not invited.
func (s *Service) GetInviter(ctx context.Context, id string) (*Client, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.InviterID == "" {
		return nil, nil
	}
	return s.Get(ctx, c.InviterID)
}

// Activate moves an inactive client to active. It reports false when the
// client was already active.
func (s *Service) Activate(ctx context.Context, id string) (bool, error) {
	changed, err := s.repository.UpdateStatus(ctx, id, StatusInactive, StatusActive)
	if err != nil {
		return false, s.wrap("Activate", id, err)
	}
	if !changed {
		if _, err := s.Get(ctx, id); err != nil {
			return false, err
		}
	}
	return changed, nil
}

func (s *Service) IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return errors.Join(db.ErrInvalid, err)
	}
	if err := s.repository.IncrementBalance(ctx, id, amount); err != nil {
		return s.wrap("IncrementBalance", id, err)
	}
	return nil
}

func (s *Service) DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	if err := ValidateAmount(amount); err != nil {
		return errors.Join(db.ErrInvalid, err)
	}
	if err := s.repository.DecrementBalance(ctx, id, amount); err != nil {
		return s.wrap("DecrementBalance", id, err)
	}
	return nil
}

// ReferralCount counts the clients invited by id. An empty status counts
// all of them.
func (s *Service) ReferralCount(ctx context.Context, id string, status Status) (int, error) {
	n, err := s.repository.CountInvitees(ctx, id, status)
	if err != nil {
		return 0, s.wrap("ReferralCount", id, err)
	}
	return n, nil
}

func (s *Service) Invitees(ctx context.Context, id string, status Status) ([]*Client, error) {
	out, err := s.repository.ListInvitees(ctx, id, status)
	if err != nil {
		return nil, s.wrap("Invitees", id, err)
	}
	return out, nil
}

func (s *Service) wrap(method, id string, err error) error {
	if db.IsNotFound(err) {
		return errors.Join(errs.ErrAccountNotFound.WithMessage(id), err)
	}
	if !errs.IsBusiness(err) {
		s.logger.Error("client error", "layer", "service", "component", "client", "method", method, "client_id", id, "error", err.Error())
	}
	return err
}
