package gateway

import (
	"context"
	"sync"
)

// Sandbox is an in-process provider for local runs and tests. Initiated
// payments start pending; SetStatus moves them and GetPayment reports the
// current value. Webhooks use the Paystack body format.
type Sandbox struct {
	mu       sync.Mutex
	payments map[string]Payment
	requests []Request
	failNext error
	lookups  map[string]int
}

func NewSandbox() *Sandbox {
	return &Sandbox{payments: make(map[string]Payment), lookups: make(map[string]int)}
}

func (s *Sandbox) InitiateCharge(ctx context.Context, req Request) (*Payment, error) {
	return s.initiate(req, ChargePhoneNumber)
}

func (s *Sandbox) InitiatePayout(ctx context.Context, req Request) (*Payment, error) {
	return s.initiate(req, PayoutPhoneNumber)
}

func (s *Sandbox) initiate(req Request, format func(string) (string, error)) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failNext; err != nil {
		s.failNext = nil
		return nil, err
	}
	if _, err := format(req.PhoneNumber); err != nil {
		return nil, ErrInitialization
	}
	s.requests = append(s.requests, req)
	p := Payment{Reference: req.Reference, TransactionID: "sbx_" + req.Reference, Status: StatusPending}
	s.payments[req.Reference] = p
	return &p, nil
}

func (s *Sandbox) GetPayment(ctx context.Context, reference string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups[reference]++
	p, ok := s.payments[reference]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Sandbox) DecodeCallback(ctx context.Context, raw []byte) (*Payment, error) {
	return DecodePaystackCallback(raw)
}

// SetStatus changes what GetPayment reports for reference.
func (s *Sandbox) SetStatus(reference string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.payments[reference]
	p.Reference = reference
	if p.TransactionID == "" {
		p.TransactionID = "sbx_" + reference
	}
	p.Status = status
	s.payments[reference] = p
}

// FailNext makes the next initiation return err.
func (s *Sandbox) FailNext(err error) {
	s.mu.Lock()
	s.failNext = err
	s.mu.Unlock()
}

func (s *Sandbox) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Lookups counts GetPayment calls for reference.
func (s *Sandbox) Lookups(reference string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups[reference]
}
