package handlers

import (
	"context"
	"fmt"

	"affiliate/internal/events"
	"affiliate/internal/payment"
	"affiliate/kit/broker"
	"affiliate/kit/observability"
)

// WithdrawalEvent settles withdrawals when their payout resolves. A payout
// that fails or is cancelled refunds the client.
type WithdrawalEvent struct {
	logger     *observability.Logger
	withdrawal WithdrawalContract
}

func NewWithdrawalEvent(logger *observability.Logger, svc WithdrawalContract) *WithdrawalEvent {
	return &WithdrawalEvent{logger: logger, withdrawal: svc}
}

func (h *WithdrawalEvent) HandlePaymentStatusChanged(ctx context.Context, evt broker.Event) error {
	e, ok := evt.(events.PaymentStatusChanged)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedEventType, evt)
	}
	if e.Type != string(payment.TypePayout) {
		return nil
	}

	var err error
	switch {
	case e.Completed():
		_, err = h.withdrawal.MarkCompleted(ctx, e.Reference)
	case e.Failed():
		_, err = h.withdrawal.MarkFailed(ctx, e.Reference, "payout "+e.Status)
	default:
		return nil
	}
	if err != nil {
		h.logger.Error("handler error", "layer", "handler", "component", "withdrawal", "method", "HandlePaymentStatusChanged", "reference", e.Reference, "status", e.Status, "error", err.Error())
	}
	return err
}
