package handlers

import (
	"context"
	"fmt"

	"affiliate/internal/events"
	"affiliate/internal/payment"
	"affiliate/kit/broker"
	"affiliate/kit/observability"
)

// ActivationEvent settles activations when their charge resolves.
type ActivationEvent struct {
	logger     *observability.Logger
	activation ActivationContract
}

func NewActivationEvent(logger *observability.Logger, svc ActivationContract) *ActivationEvent {
	return &ActivationEvent{logger: logger, activation: svc}
}

func (h *ActivationEvent) HandlePaymentStatusChanged(ctx context.Context, evt broker.Event) error {
	e, ok := evt.(events.PaymentStatusChanged)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedEventType, evt)
	}
	if e.Type != string(payment.TypeCharge) {
		return nil
	}

	var err error
	switch {
	case e.Completed():
		_, err = h.activation.MarkCompleted(ctx, e.Reference)
	case e.Failed():
		_, err = h.activation.MarkFailed(ctx, e.Reference)
	default:
		return nil
	}
	if err != nil {
		h.logger.Error("handler error", "layer", "handler", "component", "activation", "method", "HandlePaymentStatusChanged", "reference", e.Reference, "status", e.Status, "error", err.Error())
	}
	return err
}
