package reconciliation

import (
	"context"

	"github.com/stretchr/testify/mock"

	"affiliate/internal/payment"
	"affiliate/kit/broker"
)

type PaymentsMock struct {
	mock.Mock
	PaymentsContract
}

func (m *PaymentsMock) ListPending(ctx context.Context) ([]*payment.Payment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *PaymentsMock) CheckPayment(ctx context.Context, reference string) (payment.Outcome, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(payment.Outcome), args.Error(1)
}

type PublisherMock struct {
	mock.Mock
	PublisherContract
}

func (m *PublisherMock) Publish(ctx context.Context, evt broker.Event) []error {
	args := m.Called(ctx, evt)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]error)
}
