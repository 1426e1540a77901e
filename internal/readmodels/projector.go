// Package readmodels folds the event stream into query-friendly views:
// the latest state of each payment and a per-client activity summary.
package readmodels

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"affiliate/internal/events"
	"affiliate/kit/broker"
	"affiliate/kit/db"
)

type PaymentView struct {
	Reference     string          `json:"reference"`
	Type          string          `json:"type"`
	PhoneNumber   string          `json:"phone_number"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ClientView struct {
	ClientID         string          `json:"client_id"`
	Activated        bool            `json:"activated"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`
	Withdrawn        decimal.Decimal `json:"withdrawn"`
	Refunded         decimal.Decimal `json:"refunded"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type RecordSource interface {
	All(ctx context.Context) []db.Record
}

type Projector struct {
	mu       sync.RWMutex
	payments map[string]PaymentView
	clients  map[string]ClientView
}

func NewProjector() *Projector {
	return &Projector{
		payments: make(map[string]PaymentView),
		clients:  make(map[string]ClientView),
	}
}

// Replay rebuilds the views from stored records.
func (p *Projector) Replay(ctx context.Context, store RecordSource) error {
	for _, rec := range store.All(ctx) {
		if err := p.ApplyRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (p *Projector) Apply(ctx context.Context, evt broker.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e := evt.(type) {
	case events.PaymentInitiated:
		cur := p.payments[e.Reference]
		cur.Reference = e.Reference
		cur.Type = e.Type
		cur.PhoneNumber = e.PhoneNumber
		cur.Amount = e.Amount
		if cur.Status == "" {
			cur.Status = "pending"
		}
		cur.UpdatedAt = e.At
		p.payments[e.Reference] = cur
	case events.PaymentStatusChanged:
		cur := p.payments[e.Reference]
		cur.Reference = e.Reference
		cur.Type = e.Type
		cur.Status = e.Status
		if e.TransactionID != "" {
			cur.TransactionID = e.TransactionID
		}
		cur.UpdatedAt = e.At
		p.payments[e.Reference] = cur
	case events.ClientActivated:
		p.updateClient(e.ClientID, e.At, func(v *ClientView) { v.Activated = true })
	case events.ReferralRewarded:
		p.updateClient(e.InviterID, e.At, func(v *ClientView) { v.ReferralEarnings = v.ReferralEarnings.Add(e.Amount) })
	case events.WithdrawalCompleted:
		p.updateClient(e.ClientID, e.At, func(v *ClientView) { v.Withdrawn = v.Withdrawn.Add(e.Amount) })
	case events.BalanceRefunded:
		p.updateClient(e.ClientID, e.At, func(v *ClientView) { v.Refunded = v.Refunded.Add(e.Amount) })
	}
	return nil
}

// updateClient must be called with mu held.
func (p *Projector) updateClient(id string, at time.Time, fn func(*ClientView)) {
	cur := p.clients[id]
	cur.ClientID = id
	fn(&cur)
	cur.UpdatedAt = at
	p.clients[id] = cur
}

var decoders = map[string]func(json.RawMessage) (broker.Event, error){
	events.PaymentInitiated{}.Name():     decode[events.PaymentInitiated],
	events.PaymentStatusChanged{}.Name(): decode[events.PaymentStatusChanged],
	events.ClientActivated{}.Name():      decode[events.ClientActivated],
	events.ReferralRewarded{}.Name():     decode[events.ReferralRewarded],
	events.WithdrawalCompleted{}.Name():  decode[events.WithdrawalCompleted],
	events.BalanceRefunded{}.Name():      decode[events.BalanceRefunded],
}

func decode[T broker.Event](raw json.RawMessage) (broker.Event, error) {
	var e T
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, errors.Join(db.ErrInternal, err)
	}
	return e, nil
}

// ApplyRecord applies a stored record. Records for events the projector
// does not follow are skipped.
func (p *Projector) ApplyRecord(ctx context.Context, rec db.Record) error {
	dec, ok := decoders[rec.EventName]
	if !ok {
		return nil
	}
	evt, err := dec(rec.Payload)
	if err != nil {
		return err
	}
	return p.Apply(ctx, evt)
}

func (p *Projector) GetPayment(reference string) (PaymentView, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.payments[reference]
	return v, ok
}

func (p *Projector) GetClient(clientID string) (ClientView, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.clients[clientID]
	return v, ok
}
