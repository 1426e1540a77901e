package activation

import (
	"context"

	"github.com/stretchr/testify/mock"

	"affiliate/internal/client"
	"affiliate/internal/payment"
)

type ClientsMock struct {
	mock.Mock
	ClientsContract
}

func (m *ClientsMock) Get(ctx context.Context, id string) (*client.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

// PaymentsMock binds the configured reference before returning, the way
// the payment service does.
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
