package activation

import (
	"context"

	"github.com/shopspring/decimal"

	"affiliate/internal/client"
	"affiliate/internal/payment"
	"affiliate/kit/broker"
)

// RepositoryContract define activation repository responsibility.
type RepositoryContract interface {
	Create(ctx context.Context, a *Activation) error
	Get(ctx context.Context, id string) (*Activation, error)
	GetByPaymentRef(ctx context.Context, ref string) (*Activation, error)
	LatestByClient(ctx context.Context, clientID string) (*Activation, error)
	SetPaymentRef(ctx context.Context, id, ref string) error
	// UpdateStatus moves id from one status to another and reports whether
	// the row held from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)
}

// ServiceContract define activation service responsibility.
type ServiceContract interface {
	Fee() decimal.Decimal
	ClientStatus(ctx context.Context, clientID string) (client.Status, error)
	Initiate(ctx context.Context, clientID, phoneNumber string) (*Activation, error)
	Latest(ctx context.Context, clientID string) (*Activation, error)
	MarkFailed(ctx context.Context, ref string) (*Activation, error)
	MarkCompleted(ctx context.Context, ref string) (*Activation, error)
}

// ClientsContract is the part of the client service activation needs.
type ClientsContract interface {
	Get(ctx context.Context, id string) (*client.Client, error)
	Activate(ctx context.Context, id string) (bool, error)
}

// PaymentsContract is the part of the payment service activation needs.
type PaymentsContract interface {
	Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.Payment, error)
}

// PublisherContract define publish responsibility (broker).
type PublisherContract interface {
	Publish(ctx context.Context, evt broker.Event) []error
}
