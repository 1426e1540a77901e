package handlers

import (
	"context"

	"affiliate/kit/broker"
)

type AuditEvent struct {
	audit AuditorContract
}

func NewAuditEvent(a AuditorContract) *AuditEvent {
	return &AuditEvent{audit: a}
}

func (h *AuditEvent) HandleAny(ctx context.Context, evt broker.Event) error {
	if h.audit == nil {
		return nil
	}
	_, err := h.audit.Record(ctx, evt)
	return err
}
