package handlers

import (
	"context"
	"errors"

	"affiliate/internal/activation"
	"affiliate/internal/audit"
	"affiliate/internal/withdrawal"
	"affiliate/kit/broker"
)

var ErrUnexpectedEventType = errors.New("unexpected event type")

// BusContract defines the publish responsibility used by consumers handlers.
type BusContract = broker.Publisher

type ActivationContract interface {
	MarkFailed(ctx context.Context, ref string) (*activation.Activation, error)
	MarkCompleted(ctx context.Context, ref string) (*activation.Activation, error)
}

type WithdrawalContract interface {
	MarkFailed(ctx context.Context, ref, reason string) (*withdrawal.Withdrawal, error)
	MarkCompleted(ctx context.Context, ref string) (*withdrawal.Withdrawal, error)
}

type ReferralContract interface {
	AwardReward(ctx context.Context, clientID string) error
	InviteeRegistered(ctx context.Context, inviterID string) error
}

type AuditorContract interface {
	Record(ctx context.Context, evt broker.Event) (audit.Entry, error)
}

type NotifierContract interface {
	Notify(ctx context.Context, evt broker.Event) error
}

type MetricsContract interface {
	EventAdd(name string)
}

type ProjectorContract interface {
	Apply(ctx context.Context, evt broker.Event) error
}
