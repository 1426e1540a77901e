// Package reconciliation catches up on payments whose webhook never
// arrived by asking the gateway for every pending payment on a fixed
// interval.
package reconciliation

import (
	"context"
	"time"

	"affiliate/internal/events"
	"affiliate/internal/payment"
	"affiliate/kit/observability"
)

const DefaultInterval = 30 * time.Second

// Report counts what one pass over the pending payments did.
type Report struct {
	Checked   int `json:"checked"`
	Applied   int `json:"applied"`
	Debounced int `json:"debounced"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

type Poller struct {
	payments PaymentsContract
	bus      PublisherContract
	logger   *observability.Logger
	interval time.Duration
}

func NewPoller(payments PaymentsContract, bus PublisherContract, logger *observability.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{payments: payments, bus: bus, logger: logger, interval: interval}
}

// Run ticks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("reconciliation started", "layer", "worker", "component", "reconciliation", "interval", p.interval.String())
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("reconciliation stopped", "layer", "worker", "component", "reconciliation")
			return
		case <-ticker.C:
			r := p.Tick(ctx)
			if r.Checked > 0 {
				p.logger.Info("reconciliation tick", "layer", "worker", "component", "reconciliation",
					"checked", r.Checked, "applied", r.Applied, "debounced", r.Debounced, "unchanged", r.Unchanged, "failed", r.Failed)
			}
		}
	}
}

// Tick checks every pending payment once. A failure for one reference is
// reported and does not stop the others.
func (p *Poller) Tick(ctx context.Context) Report {
	var r Report
	pending, err := p.payments.ListPending(ctx)
	if err != nil {
		p.logger.Error("reconciliation error", "layer", "worker", "component", "reconciliation", "method", "Tick", "error", err.Error())
		return r
	}

	for _, pay := range pending {
		if ctx.Err() != nil {
			break
		}
		r.Checked++
		outcome, err := p.payments.CheckPayment(ctx, pay.Reference)
		if err != nil {
			r.Failed++
			p.deadLetter(ctx, pay.Reference, err)
			continue
		}
		switch outcome {
		case payment.OutcomeApplied:
			r.Applied++
		case payment.OutcomeDebounced:
			r.Debounced++
		default:
			r.Unchanged++
		}
	}
	return r
}

func (p *Poller) deadLetter(ctx context.Context, ref string, cause error) {
	p.logger.Error("reconciliation failed", "layer", "worker", "component", "reconciliation", "reference", ref, "error", cause.Error())
	if p.bus == nil {
		return
	}
	for _, err := range p.bus.Publish(ctx, events.ReconciliationFailed{Reference: ref, Reason: cause.Error(), At: time.Now().UTC()}) {
		p.logger.Error("reconciliation subscriber failed", "layer", "worker", "component", "reconciliation", "reference", ref, "error", err.Error())
	}
}
