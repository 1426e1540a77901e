package client

import (
	"context"

	"github.com/shopspring/decimal"

	"affiliate/kit/broker"
)

// RepositoryContract define client repository responsibility.
type RepositoryContract interface {
	Create(ctx context.Context, c *Client) error
	Get(ctx context.Context, id string) (*Client, error)
	GetByUsername(ctx context.Context, username string) (*Client, error)
	// UpdateStatus moves id from one status to another and reports whether
	// the row held from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) error
	// DecrementBalance fails with ErrInsufficientBalance rather than letting
	// the balance go below zero.
	DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) error
	CountInvitees(ctx context.Context, inviterID string, status Status) (int, error)
	ListInvitees(ctx context.Context, inviterID string, status Status) ([]*Client, error)
}

// ServiceContract define client service responsibility.
type ServiceContract interface {
	Register(ctx context.Context, req NewClient) (*Client, error)
	Get(ctx context.Context, id string) (*Client, error)
	GetInviter(ctx context.Context, id string) (*Client, error)
	Activate(ctx context.Context, id string) (bool, error)
	IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) error
	DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) error
	ReferralCount(ctx context.Context, id string, status Status) (int, error)
	Invitees(ctx context.Context, id string, status Status) ([]*Client, error)
}

// PublisherContract define publish responsibility (broker).
type PublisherContract interface {
	Publish(ctx context.Context, evt broker.Event) []error
}
