package handlers

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"affiliate/internal/activation"
	"affiliate/internal/client"
	"affiliate/internal/payment"
	"affiliate/internal/withdrawal"
)

type paymentServiceMock struct{ mock.Mock }

func (m *paymentServiceMock) Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.Payment, error) {
	args := m.Called(ctx, req)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *paymentServiceMock) Get(ctx context.Context, reference string) (*payment.Payment, error) {
	args := m.Called(ctx, reference)
	p, _ := args.Get(0).(*payment.Payment)
	return p, args.Error(1)
}

func (m *paymentServiceMock) CheckPayment(ctx context.Context, reference string) (payment.Outcome, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(payment.Outcome), args.Error(1)
}

func (m *paymentServiceMock) ProcessCallback(ctx context.Context, raw []byte) (payment.Outcome, error) {
	args := m.Called(ctx, raw)
	return args.Get(0).(payment.Outcome), args.Error(1)
}

type activationServiceMock struct{ mock.Mock }

func (m *activationServiceMock) Fee() decimal.Decimal {
	return m.Called().Get(0).(decimal.Decimal)
}

func (m *activationServiceMock) ClientStatus(ctx context.Context, clientID string) (client.Status, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(client.Status), args.Error(1)
}

func (m *activationServiceMock) Initiate(ctx context.Context, clientID, phoneNumber string) (*activation.Activation, error) {
	args := m.Called(ctx, clientID, phoneNumber)
	a, _ := args.Get(0).(*activation.Activation)
	return a, args.Error(1)
}

func (m *activationServiceMock) Latest(ctx context.Context, clientID string) (*activation.Activation, error) {
	args := m.Called(ctx, clientID)
	a, _ := args.Get(0).(*activation.Activation)
	return a, args.Error(1)
}

type withdrawalServiceMock struct{ mock.Mock }

func (m *withdrawalServiceMock) AmountRange() withdrawal.Range {
	return m.Called().Get(0).(withdrawal.Range)
}

func (m *withdrawalServiceMock) NetAmount(amount decimal.Decimal) decimal.Decimal {
	return m.Called(amount).Get(0).(decimal.Decimal)
}

func (m *withdrawalServiceMock) Initiate(ctx context.Context, clientID string, amount decimal.Decimal) (*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, clientID, amount)
	w, _ := args.Get(0).(*withdrawal.Withdrawal)
	return w, args.Error(1)
}

func (m *withdrawalServiceMock) Stats(ctx context.Context, clientID string) (withdrawal.Stats, error) {
	args := m.Called(ctx, clientID)
	return args.Get(0).(withdrawal.Stats), args.Error(1)
}

func (m *withdrawalServiceMock) List(ctx context.Context, clientID string) ([]*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, clientID)
	list, _ := args.Get(0).([]*withdrawal.Withdrawal)
	return list, args.Error(1)
}
