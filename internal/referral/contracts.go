package referral

import (
	"context"

	"github.com/shopspring/decimal"

	"affiliate/internal/client"
	"affiliate/kit/broker"
)

// ServiceContract define referral service responsibility.
type ServiceContract interface {
	Reward() decimal.Decimal
	Stats(ctx context.Context, clientID string) (Stats, error)
	Referrals(ctx context.Context, clientID string) ([]Referral, error)
	AwardReward(ctx context.Context, clientID string) error
	InviteeRegistered(ctx context.Context, inviterID string) error
}

// ClientsContract is the part of the client service referrals need.
type ClientsContract interface {
	Get(ctx context.Context, id string) (*client.Client, error)
	GetInviter(ctx context.Context, id string) (*client.Client, error)
	IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) error
	ReferralCount(ctx context.Context, id string, status client.Status) (int, error)
	Invitees(ctx context.Context, id string, status client.Status) ([]*client.Client, error)
}

// PublisherContract define publish responsibility (broker).
type PublisherContract interface {
	Publish(ctx context.Context, evt broker.Event) []error
}
