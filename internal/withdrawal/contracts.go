package withdrawal

import (
	"context"

	"github.com/shopspring/decimal"

	"affiliate/internal/client"
	"affiliate/internal/payment"
	"affiliate/kit/broker"
)

// RepositoryContract define withdrawal repository responsibility.
type RepositoryContract interface {
	Create(ctx context.Context, w *Withdrawal) error
	Get(ctx context.Context, id string) (*Withdrawal, error)
	GetByPaymentRef(ctx context.Context, ref string) (*Withdrawal, error)
	SetPaymentRef(ctx context.Context, id, ref string) error
	// UpdateStatus moves id from one status to another only if it currently
	// holds from. It reports whether the row changed.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
	ListByClient(ctx context.Context, clientID string) ([]*Withdrawal, error)
	Stats(ctx context.Context, clientID string) (Stats, error)
}

// ServiceContract define withdrawal service responsibility.
type ServiceContract interface {
	AmountRange() Range
	Initiate(ctx context.Context, clientID string, amount decimal.Decimal) (*Withdrawal, error)
	Stats(ctx context.Context, clientID string) (Stats, error)
	List(ctx context.Context, clientID string) ([]*Withdrawal, error)
	Count(ctx context.Context, clientID string) (int, error)
	MarkFailed(ctx context.Context, ref, reason string) (*Withdrawal, error)
	MarkCompleted(ctx context.Context, ref string) (*Withdrawal, error)
}

// ClientsContract is the part of the client service withdrawals need.
type ClientsContract interface {
	Get(ctx context.Context, id string) (*client.Client, error)
	IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) error
	DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) error
}

// PaymentsContract is the part of the payment service withdrawals need.
type PaymentsContract interface {
	Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.Payment, error)
}

// PublisherContract define publish responsibility (broker).
type PublisherContract interface {
	Publish(ctx context.Context, evt broker.Event) []error
}
