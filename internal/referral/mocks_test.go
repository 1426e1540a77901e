package referral

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"affiliate/internal/client"
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

func (m *ClientsMock) GetInviter(ctx context.Context, id string) (*client.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*client.Client), args.Error(1)
}

func (m *ClientsMock) IncrementBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}
