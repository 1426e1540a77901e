package withdrawal

import (
	"context"

	"github.com/stretchr/testify/mock"

	"affiliate/internal/payment"
)

type PaymentsMock struct {
	mock.Mock
	PaymentsContract
}

func (m *PaymentsMock) Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	p := args.Get(0).(*payment.Payment)
	if req.Bind != nil {
		if err := req.Bind(ctx, p.Reference); err != nil {
			return nil, err
		}
	}
	return p, args.Error(1)
}

type RepositoryMock struct {
	mock.Mock
	RepositoryContract
}

func (m *RepositoryMock) Stats(ctx context.Context, clientID string) (Stats, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(Stats), args.Error(1)
}
