package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"affiliate/internal/events"
	"affiliate/kit/broker"
	"affiliate/kit/errs"
	"affiliate/kit/observability"
)

func TestActivationEvent_HandlePaymentStatusChanged(t *testing.T) {
	ctx := context.Background()

	var tests = []struct {
		name        string
		evt         broker.Event
		svc         func() *ActivationMock
		expectedErr error
	}{
		{
			name:        "unexpected event type",
			evt:         events.ClientActivated{},
			svc:         func() *ActivationMock { return new(ActivationMock) },
			expectedErr: ErrUnexpectedEventType,
		},
		{
			name: "payouts are not activations",
			evt:  events.PaymentStatusChanged{Reference: "ABC123", Type: "payout", Status: "completed"},
			svc:  func() *ActivationMock { return new(ActivationMock) },
		},
		{
			name: "pending is ignored",
			evt:  events.PaymentStatusChanged{Reference: "ABC123", Type: "charge", Status: "pending"},
			svc:  func() *ActivationMock { return new(ActivationMock) },
		},
		{
			name: "completed",
			evt:  events.PaymentStatusChanged{Reference: "ABC123", Type: "charge", Status: "completed"},
			svc: func() *ActivationMock {
				m := new(ActivationMock)
				m.On("MarkCompleted", ctx, "ABC123").Return(nil, nil)
				return m
			},
		},
		{
			name: "cancelled counts as failed",
			evt:  events.PaymentStatusChanged{Reference: "ABC123", Type: "charge", Status: "cancelled"},
			svc: func() *ActivationMock {
				m := new(ActivationMock)
				m.On("MarkFailed", ctx, "ABC123").Return(nil, nil)
				return m
			},
		},
		{
			name: "service error surfaces",
			evt:  events.PaymentStatusChanged{Reference: "ABC123", Type: "charge", Status: "failed"},
			svc: func() *ActivationMock {
				m := new(ActivationMock)
				m.On("MarkFailed", ctx, "ABC123").Return(nil, errs.ErrInvalidStatusTransition)
				return m
			},
			expectedErr: errs.ErrInvalidStatusTransition,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := tt.svc()
			err := NewActivationEvent(observability.NewNopLogger(), svc).HandlePaymentStatusChanged(ctx, tt.evt)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				return
			}
			require.NoError(t, err)
			svc.AssertExpectations(t)
		})
	}
}

func TestWithdrawalEvent_HandlePaymentStatusChanged(t *testing.T) {
	ctx := context.Background()

	var tests = []struct {
		name        string
		evt         broker.Event
		svc         func() *WithdrawalMock
		expectedErr error
	}{
		{
			name:        "unexpected event type",
			evt:         events.PaymentInitiated{},
			svc:         func() *WithdrawalMock { return new(WithdrawalMock) },
			expectedErr: ErrUnexpectedEventType,
		},
		{
			name: "charges are not withdrawals",
			evt:  events.PaymentStatusChanged{Reference: "ABC123", Type: "charge", Status: "failed"},
			svc:  func() *WithdrawalMock { return new(WithdrawalMock) },
		},
		{
			name: "reversed payout fails the withdrawal",
			evt:  events.PaymentStatusChanged{Reference: "PAY001", Type: "payout", Status: "cancelled"},
			svc: func() *WithdrawalMock {
				m := new(WithdrawalMock)
				m.On("MarkFailed", ctx, "PAY001", "payout cancelled").Return(nil, nil)
				return m
			},
		},
		{
			name: "completed",
			evt:  events.PaymentStatusChanged{Reference: "PAY001", Type: "payout", Status: "completed"},
			svc: func() *WithdrawalMock {
				m := new(WithdrawalMock)
				m.On("MarkCompleted", ctx, "PAY001").Return(nil, errors.New("db down"))
				return m
			},
			expectedErr: errors.New("db down"),
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := tt.svc()
			err := NewWithdrawalEvent(nil, svc).HandlePaymentStatusChanged(ctx, tt.evt)
			if tt.expectedErr != nil {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.expectedErr.Error())
				return
			}
			require.NoError(t, err)
			svc.AssertExpectations(t)
		})
	}
}

func TestReferralEvent(t *testing.T) {
	ctx := context.Background()
	svc := new(ReferralMock)
	svc.On("AwardReward", ctx, "c1").Return(errs.ErrClientNotActive).Once()
	svc.On("InviteeRegistered", ctx, "inv").Return(nil).Once()
	h := NewReferralEvent(nil, svc)

	require.ErrorIs(t, h.HandleClientActivated(ctx, events.ClientActivated{ClientID: "c1"}), errs.ErrClientNotActive)
	require.ErrorIs(t, h.HandleClientActivated(ctx, events.ClientRegistered{}), ErrUnexpectedEventType)
	require.NoError(t, h.HandleClientRegistered(ctx, events.ClientRegistered{ClientID: "c2", InviterID: "inv"}))
	require.NoError(t, h.HandleClientRegistered(ctx, events.ClientRegistered{ClientID: "c3"}))
	svc.AssertExpectations(t)
}

func TestObservers_NilDependencies(t *testing.T) {
	ctx := context.Background()
	evt := events.ClientActivated{ClientID: "c1"}
	require.NoError(t, NewAuditEvent(nil).HandleAny(ctx, evt))
	require.NoError(t, NewMetricsEvent(nil).HandleAny(ctx, evt))
	require.NoError(t, NewNotificationEvent(nil).HandleAny(ctx, evt))
}
