package referral

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"affiliate/internal/client"
	"affiliate/internal/events"
	"affiliate/kit/cache"
	"affiliate/kit/observability"
)

var DefaultReward = decimal.NewFromInt(100)

type Config struct {
	Reward         decimal.Decimal
	StatsTTL       time.Duration
	CacheNamespace string
}

type Service struct {
	bus     PublisherContract
	clients ClientsContract
	cache   cache.Cache
	metrics *observability.Metrics
	logger  *observability.Logger

	reward   decimal.Decimal
	statsKey cache.Key
	now      func() time.Time
}

func NewService(bus PublisherContract, clients ClientsContract, c cache.Cache, metrics *observability.Metrics, logger *observability.Logger, cfg Config) *Service {
	if !cfg.Reward.IsPositive() {
		cfg.Reward = DefaultReward
	}
	return &Service{
		bus:      bus,
		clients:  clients,
		cache:    c,
		metrics:  metrics,
		logger:   logger,
		reward:   cfg.Reward,
		statsKey: cache.NewKey(cfg.CacheNamespace, "referral-stats", cfg.StatsTTL),
		now:      time.Now,
	}
}

func (s *Service) Reward() decimal.Decimal { return s.reward }

// Stats counts the clients invited by clientID. Earnings assume the current
// reward applied to every active invitee.
func (s *Service) Stats(ctx context.Context, clientID string) (Stats, error) {
	c, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return Stats{}, err
	}
	return cache.GetOrLoad(ctx, s.cache, s.statsKey.For(c.Username), s.statsKey.TTL, func(ctx context.Context) (Stats, error) {
		total, err := s.clients.ReferralCount(ctx, clientID, "")
		if err != nil {
			return Stats{}, err
		}
		active, err := s.clients.ReferralCount(ctx, clientID, client.StatusActive)
		if err != nil {
			return Stats{}, err
		}
		return Stats{
			Total:    total,
			Active:   active,
			Inactive: total - active,
			Earnings: s.reward.Mul(decimal.NewFromInt(int64(active))),
		}, nil
	})
}

func (s *Service) Referrals(ctx context.Context, clientID string) ([]Referral, error) {
	invitees, err := s.clients.Invitees(ctx, clientID, "")
	if err != nil {
		return nil, err
	}
	out := make([]Referral, 0, len(invitees))
	for _, c := range invitees {
		out = append(out, Referral{Username: c.Username, Name: c.Name, Status: c.Status, JoinedOn: c.JoinedAt})
	}
	return out, nil
}

// AwardReward credits the inviter of a freshly activated client. A client
// without an inviter earns nobody a reward, and a client that is not active
// is skipped.
func (s *Service) AwardReward(ctx context.Context, clientID string) error {
	c, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return err
	}
	if !c.IsActive() {
		s.logger.Warn("referral reward skipped", "layer", "service", "component", "referral", "method", "AwardReward", "client_id", clientID, "status", string(c.Status))
		return nil
	}
	inviter, err := s.clients.GetInviter(ctx, clientID)
	if err != nil {
		return err
	}
	if inviter == nil {
		return nil
	}

	if err := s.clients.IncrementBalance(ctx, inviter.ID, s.reward); err != nil {
		s.logger.Error("referral reward failed", "layer", "service", "component", "referral", "method", "AwardReward", "inviter_id", inviter.ID, "client_id", clientID, "amount", s.reward.String(), "error", err.Error())
		return errors.Join(errors.New("reward referral failed"), err)
	}
	s.metrics.ReferralRewardAdd()
	s.clearStats(ctx, inviter.Username)
	s.logger.Info("referral rewarded", "layer", "service", "component", "referral", "inviter_id", inviter.ID, "client_id", clientID, "amount", s.reward.String())

	if s.bus != nil {
		evt := events.ReferralRewarded{InviterID: inviter.ID, ClientID: clientID, Amount: s.reward, At: s.now().UTC()}
		for _, err := range s.bus.Publish(ctx, evt) {
			s.logger.Error("referral subscriber failed", "layer", "service", "component", "referral", "event", evt.Name(), "error", err.Error())
		}
	}
	return nil
}

// InviteeRegistered drops the inviter's cached stats.
func (s *Service) InviteeRegistered(ctx context.Context, inviterID string) error {
	inviter, err := s.clients.Get(ctx, inviterID)
	if err != nil {
		return err
	}
	s.clearStats(ctx, inviter.Username)
	return nil
}

func (s *Service) clearStats(ctx context.Context, username string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.statsKey.For(username)); err != nil {
		s.logger.Warn("referral stats not cleared", "layer", "service", "component", "referral", "username", username, "error", err.Error())
	}
}
