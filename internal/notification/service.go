// Package notification tells clients about things that happened to their
// account. Delivery goes through a Sender; the default one only logs.
package notification

import (
	"context"
	"fmt"

	"affiliate/internal/events"
	"affiliate/kit/broker"
	"affiliate/kit/observability"
)

type Sender interface {
	Send(ctx context.Context, clientID, msg string) error
}

type logSender struct {
	logger *observability.Logger
}

func (l logSender) Send(ctx context.Context, clientID, msg string) error {
	l.logger.Info("notify", "client_id", clientID, "msg", msg)
	return nil
}

type Service struct {
	sender Sender
	logger *observability.Logger
}

func NewService(logger *observability.Logger) *Service {
	return NewServiceWithSender(logSender{logger: logger}, logger)
}

func NewServiceWithSender(sender Sender, logger *observability.Logger) *Service {
	return &Service{sender: sender, logger: logger}
}

// Notify sends the message for evt, if it concerns a client.
func (s *Service) Notify(ctx context.Context, evt broker.Event) error {
	clientID, msg, ok := Message(evt)
	if !ok {
		return nil
	}
	if err := s.sender.Send(ctx, clientID, msg); err != nil {
		s.logger.Error("notification error", "layer", "service", "component", "notification", "method", "Notify", "client_id", clientID, "event", evt.Name(), "error", err.Error())
		return err
	}
	return nil
}

// Message renders the client-facing text for evt.
func Message(evt broker.Event) (clientID, msg string, ok bool) {
	switch e := evt.(type) {
	case events.ClientActivated:
		return e.ClientID, "Your account is now active.", true
	case events.ActivationFailed:
		return e.ClientID, "We could not confirm your activation payment. Please try again.", true
	case events.WithdrawalCompleted:
		return e.ClientID, fmt.Sprintf("Your withdrawal of KES %s has been sent.", e.Amount.StringFixed(2)), true
	case events.BalanceRefunded:
		return e.ClientID, fmt.Sprintf("Your withdrawal failed. KES %s is back in your balance.", e.Amount.StringFixed(2)), true
	case events.ReferralRewarded:
		return e.InviterID, fmt.Sprintf("You earned KES %s for a referral.", e.Amount.StringFixed(2)), true
	default:
		return "", "", false
	}
}
