package gateway

import (
	"context"
	"sync"
	"time"
)

type CircuitBreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	IsFailure        func(error) bool
}

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards the remote operations of next. DecodeCallback is a
// local parse and always passes through.
type CircuitBreaker struct {
	next Gateway
	cfg  CircuitBreakerConfig
	now  func() time.Time

	mu           sync.Mutex
	state        BreakerState
	failures     int
	successes    int
	openedAt     time.Time
	halfInFlight bool
}

func NewCircuitBreaker(next Gateway, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = IsTransportFailure
	}
	return &CircuitBreaker{next: next, cfg: cfg, now: time.Now, state: BreakerClosed}
}

func (g *CircuitBreaker) InitiateCharge(ctx context.Context, req Request) (*Payment, error) {
	return g.call(func() (*Payment, error) { return g.next.InitiateCharge(ctx, req) })
}

func (g *CircuitBreaker) InitiatePayout(ctx context.Context, req Request) (*Payment, error) {
	return g.call(func() (*Payment, error) { return g.next.InitiatePayout(ctx, req) })
}

func (g *CircuitBreaker) GetPayment(ctx context.Context, reference string) (*Payment, error) {
	return g.call(func() (*Payment, error) { return g.next.GetPayment(ctx, reference) })
}

func (g *CircuitBreaker) DecodeCallback(ctx context.Context, raw []byte) (*Payment, error) {
	return g.next.DecodeCallback(ctx, raw)
}

func (g *CircuitBreaker) State() BreakerState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *CircuitBreaker) call(fn func() (*Payment, error)) (*Payment, error) {
	if err := g.beforeCall(); err != nil {
		return nil, err
	}
	p, err := fn()
	g.afterCall(err)
	return p, err
}

func (g *CircuitBreaker) beforeCall() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case BreakerClosed:
		return nil
	case BreakerOpen:
		if g.now().Sub(g.openedAt) < g.cfg.OpenTimeout {
			return ErrCircuitOpen
		}
		g.state = BreakerHalfOpen
		g.successes = 0
		g.halfInFlight = false
		fallthrough
	case BreakerHalfOpen:
		if g.halfInFlight {
			return ErrCircuitOpen
		}
		g.halfInFlight = true
		return nil
	default:
		return ErrCircuitOpen
	}
}

func (g *CircuitBreaker) afterCall(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == BreakerHalfOpen {
		g.halfInFlight = false
	}

	if err == nil || !g.cfg.IsFailure(err) {
		switch g.state {
		case BreakerClosed:
			g.failures = 0
		case BreakerHalfOpen:
			g.successes++
			if g.successes >= g.cfg.SuccessThreshold {
				g.state = BreakerClosed
				g.failures = 0
				g.successes = 0
			}
		}
		return
	}

	switch g.state {
	case BreakerClosed:
		g.failures++
		if g.failures >= g.cfg.FailureThreshold {
			g.trip()
		}
	case BreakerHalfOpen:
		g.trip()
	}
}

func (g *CircuitBreaker) trip() {
	g.state = BreakerOpen
	g.openedAt = g.now()
	g.failures = g.cfg.FailureThreshold
	g.successes = 0
	g.halfInFlight = false
}
