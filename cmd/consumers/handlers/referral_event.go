package handlers

import (
	"context"
	"fmt"

	"affiliate/internal/events"
	"affiliate/kit/broker"
	"affiliate/kit/observability"
)

type ReferralEvent struct {
	logger   *observability.Logger
	referral ReferralContract
}

func NewReferralEvent(logger *observability.Logger, svc ReferralContract) *ReferralEvent {
	return &ReferralEvent{logger: logger, referral: svc}
}

// HandleClientActivated rewards the inviter of the activated client.
func (h *ReferralEvent) HandleClientActivated(ctx context.Context, evt broker.Event) error {
	e, ok := evt.(events.ClientActivated)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedEventType, evt)
	}
	if err := h.referral.AwardReward(ctx, e.ClientID); err != nil {
		h.logger.Error("handler error", "layer", "handler", "component", "referral", "method", "HandleClientActivated", "client_id", e.ClientID, "error", err.Error())
		return err
	}
	return nil
}

func (h *ReferralEvent) HandleClientRegistered(ctx context.Context, evt broker.Event) error {
	e, ok := evt.(events.ClientRegistered)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedEventType, evt)
	}
	if e.InviterID == "" {
		return nil
	}
	return h.referral.InviteeRegistered(ctx, e.InviterID)
}
