package handlers

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"

	"affiliate/internal/activation"
	"affiliate/internal/withdrawal"
)

type ActivationMock struct {
	mock.Mock
	ActivationContract
}

func (m *ActivationMock) MarkFailed(ctx context.Context, ref string) (*activation.Activation, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activation.Activation), args.Error(1)
}

func (m *ActivationMock) MarkCompleted(ctx context.Context, ref string) (*activation.Activation, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activation.Activation), args.Error(1)
}

type WithdrawalMock struct {
	mock.Mock
	WithdrawalContract
}

func (m *WithdrawalMock) MarkFailed(ctx context.Context, ref, reason string) (*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, ref, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Withdrawal), args.Error(1)
}

func (m *WithdrawalMock) MarkCompleted(ctx context.Context, ref string) (*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Withdrawal), args.Error(1)
}

type ReferralMock struct {
	mock.Mock
	ReferralContract
}

func (m *ReferralMock) AwardReward(ctx context.Context, clientID string) error {
	args := m.Called(ctx, clientID)
	return args.Error(0)
}

func (m *ReferralMock) InviteeRegistered(ctx context.Context, inviterID string) error {
	args := m.Called(ctx, inviterID)
	return args.Error(0)
}

// recordingWriter keeps every message the relay writes.
type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (w *recordingWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.msgs))
	for _, m := range w.msgs {
		for _, h := range m.Headers {
			if h.Key == "event" {
				out = append(out, string(h.Value))
			}
		}
	}
	return out
}
