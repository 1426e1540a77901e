package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"affiliate/kit/gateway"
)

const checkTimeout = 2 * time.Second

type CheckFunc func(ctx context.Context) error

type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks a dependency that can be pinged (postgres, redis).
func Ping(p Pinger) CheckFunc {
	return p.Ping
}

// Breaker reports the gateway unhealthy while its breaker is open.
func Breaker(b interface{ State() gateway.BreakerState }) CheckFunc {
	return func(ctx context.Context) error {
		if s := b.State(); s == gateway.BreakerOpen {
			return fmt.Errorf("circuit %s", s)
		}
		return nil
	}
}

type Result struct {
	At     time.Time         `json:"at"`
	OK     bool              `json:"ok"`
	Checks map[string]string `json:"checks"`
}

// Service runs the registered checks at most once per ttl and serves the
// last result in between.
type Service struct {
	mu sync.Mutex

	checks map[string]CheckFunc
	ttl    time.Duration
	now    func() time.Time

	nextCheckAt time.Time
	lastResult  Result
}

func NewService(ttl time.Duration, checks map[string]CheckFunc) *Service {
	return &Service{ttl: ttl, checks: checks, now: time.Now, lastResult: Result{Checks: map[string]string{}}}
}

func (s *Service) Check(ctx context.Context) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Before(s.nextCheckAt) {
		return s.lastResult
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	res := Result{At: s.now().UTC(), OK: true, Checks: make(map[string]string, len(s.checks))}
	for _, name := range names {
		fn := s.checks[name]
		if fn == nil {
			res.OK = false
			res.Checks[name] = "invalid check"
			continue
		}
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := fn(cctx)
		cancel()
		if err != nil {
			res.OK = false
			res.Checks[name] = err.Error()
			continue
		}
		res.Checks[name] = "ok"
	}

	s.lastResult = res
	s.nextCheckAt = s.now().Add(s.ttl)
	return res
}
