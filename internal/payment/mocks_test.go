package payment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"affiliate/kit/broker"
	"affiliate/kit/db"
	"affiliate/kit/gateway"
)

type RepositoryMock struct {
	mock.Mock
	RepositoryContract
}

func (m *RepositoryMock) Create(ctx context.Context, p *Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *RepositoryMock) Get(ctx context.Context, reference string) (*Payment, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Payment), args.Error(1)
}

func (m *RepositoryMock) Exists(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *RepositoryMock) UpdateStatus(ctx context.Context, reference string, from, to Status, transactionID string) (bool, error) {
	args := m.Called(ctx, reference, from, to, transactionID)
	return args.Bool(0), args.Error(1)
}

func (m *RepositoryMock) SetTransactionID(ctx context.Context, reference, transactionID string) error {
	args := m.Called(ctx, reference, transactionID)
	return args.Error(0)
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

type StoreMock struct {
	mock.Mock
	StoreContract
}

func (m *StoreMock) Append(ctx context.Context, aggregateID string, evt broker.Event) (db.Record, error) {
	args := m.Called(ctx, aggregateID, evt)
	return db.Record{AggregateID: aggregateID, EventName: evt.Name()}, args.Error(0)
}

type GatewayMock struct {
	mock.Mock
	gateway.Gateway
}

func (m *GatewayMock) InitiateCharge(ctx context.Context, req gateway.Request) (*gateway.Payment, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*gateway.Payment)
	return p, args.Error(1)
}

func (m *GatewayMock) InitiatePayout(ctx context.Context, req gateway.Request) (*gateway.Payment, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*gateway.Payment)
	return p, args.Error(1)
}

func (m *GatewayMock) GetPayment(ctx context.Context, reference string) (*gateway.Payment, error) {
	args := m.Called(ctx, reference)
	p, _ := args.Get(0).(*gateway.Payment)
	return p, args.Error(1)
}

func (m *GatewayMock) DecodeCallback(ctx context.Context, raw []byte) (*gateway.Payment, error) {
	args := m.Called(ctx, raw)
	p, _ := args.Get(0).(*gateway.Payment)
	return p, args.Error(1)
}
