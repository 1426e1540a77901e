package client

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"affiliate/kit/broker"
)

type RepositoryMock struct {
	mock.Mock
	RepositoryContract
}

func (m *RepositoryMock) Create(ctx context.Context, c *Client) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *RepositoryMock) Get(ctx context.Context, id string) (*Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Client), args.Error(1)
}

func (m *RepositoryMock) DecrementBalance(ctx context.Context, id string, amount decimal.Decimal) error {
	args := m.Called(ctx, id, amount)
	return args.Error(0)
}

func (m *RepositoryMock) CountInvitees(ctx context.Context, inviterID string, status Status) (int, error) {
	args := m.Called(ctx, inviterID, status)
	return args.Int(0), args.Error(1)
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
