package handlers

import (
	"context"

	"affiliate/kit/broker"
)

type NotificationEvent struct {
	n NotifierContract
}

func NewNotificationEvent(n NotifierContract) *NotificationEvent {
	return &NotificationEvent{n: n}
}

// HandleAny forwards client-facing events; the notifier ignores the rest.
func (h *NotificationEvent) HandleAny(ctx context.Context, evt broker.Event) error {
	if h.n == nil {
		return nil
	}
	return h.n.Notify(ctx, evt)
}
