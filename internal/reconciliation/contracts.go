package reconciliation

import (
	"context"

	"affiliate/internal/payment"
	"affiliate/kit/broker"
)

// PaymentsContract is the part of the payment service the poller drives.
type PaymentsContract interface {
	ListPending(ctx context.Context) ([]*payment.Payment, error)
	CheckPayment(ctx context.Context, reference string) (payment.Outcome, error)
}

// PublisherContract define publish responsibility (broker).
type PublisherContract interface {
	Publish(ctx context.Context, evt broker.Event) []error
}
