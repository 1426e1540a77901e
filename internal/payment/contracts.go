package payment

import (
	"context"

	"affiliate/kit/broker"
	"affiliate/kit/db"
)

// RepositoryContract define payment repository responsibility.
type RepositoryContract interface {
	Create(ctx context.Context, p *Payment) error
	Get(ctx context.Context, reference string) (*Payment, error)
	Exists(ctx context.Context, reference string) (bool, error)
	// UpdateStatus moves reference from one status to another only if it
	// currently holds from. It reports whether the row changed.
	UpdateStatus(ctx context.Context, reference string, from, to Status, transactionID string) (bool, error)
	SetTransactionID(ctx context.Context, reference, transactionID string) error
	ListByStatus(ctx context.Context, status Status) ([]*Payment, error)
	ListByPhoneNumber(ctx context.Context, phoneNumber string) ([]*Payment, error)
}

// ServiceContract define payment service responsibility.
type ServiceContract interface {
	Initiate(ctx context.Context, req InitiateRequest) (*Payment, error)
	CheckPayment(ctx context.Context, reference string) (Outcome, error)
	ProcessCallback(ctx context.Context, raw []byte) (Outcome, error)
	Get(ctx context.Context, reference string) (*Payment, error)
	ListPending(ctx context.Context) ([]*Payment, error)
	ListByPhoneNumber(ctx context.Context, phoneNumber string) ([]*Payment, error)
}

// PublisherContract define publish responsibility (broker).
type PublisherContract interface {
	Publish(ctx context.Context, evt broker.Event) []error
}

// StoreContract define append responsibility (event store).
type StoreContract interface {
	Append(ctx context.Context, aggregateID string, evt broker.Event) (db.Record, error)
}
