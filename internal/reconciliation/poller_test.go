package reconciliation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"affiliate/internal/events"
	"affiliate/internal/payment"
	"affiliate/kit/broker"
	"affiliate/kit/cache"
	"affiliate/kit/db"
	"affiliate/kit/errs"
	"affiliate/kit/gateway"
	"affiliate/kit/observability"
)

func pending(refs ...string) []*payment.Payment {
	out := make([]*payment.Payment, 0, len(refs))
	for _, r := range refs {
		out = append(out, &payment.Payment{Reference: r, Status: payment.StatusPending})
	}
	return out
}

func TestPoller_Tick(t *testing.T) {
	ctx := context.Background()

	var tests = []struct {
		name     string
		setup    func() (*PaymentsMock, *PublisherMock)
		expected Report
	}{
		{
			name: "list error",
			setup: func() (*PaymentsMock, *PublisherMock) {
				m := new(PaymentsMock)
				m.On("ListPending", ctx).Return(nil, db.ErrInternal)
				return m, new(PublisherMock)
			},
		},
		{
			name: "mixed outcomes",
			setup: func() (*PaymentsMock, *PublisherMock) {
				m := new(PaymentsMock)
				m.On("ListPending", ctx).Return(pending("A", "B", "C", "D"), nil)
				m.On("CheckPayment", ctx, "A").Return(payment.OutcomeApplied, nil)
				m.On("CheckPayment", ctx, "B").Return(payment.OutcomeDebounced, nil)
				m.On("CheckPayment", ctx, "C").Return(payment.Outcome(""), errs.ErrPaymentLookupFailed)
				m.On("CheckPayment", ctx, "D").Return(payment.OutcomeUnchanged, nil)
				bus := new(PublisherMock)
				bus.On("Publish", ctx, mock.MatchedBy(func(e events.ReconciliationFailed) bool {
					return e.Reference == "C"
				})).Return([]error{errors.New("audit down")}).Once()
				return m, bus
			},
			expected: Report{Checked: 4, Applied: 1, Debounced: 1, Unchanged: 1, Failed: 1},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, bus := tt.setup()
			r := NewPoller(m, bus, nil, 0).Tick(ctx)
			require.Equal(t, tt.expected, r)
			m.AssertExpectations(t)
			bus.AssertExpectations(t)
		})
	}
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := new(PaymentsMock)
	ticked := make(chan struct{}, 1)
	m.On("ListPending", mock.Anything).Return(pending(), nil).Run(func(mock.Arguments) {
		select {
		case ticked <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		NewPoller(m, nil, nil, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	select {
	case <-ticked:
	case <-time.After(2 * time.Second):
		t.Fatal("poller never ticked")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
}

// A payment settled by webhook is not looked up again by the poller.
func TestPoller_WebhookThenTick(t *testing.T) {
	ctx := context.Background()
	gw := gateway.NewSandbox()
	svc := payment.NewService(broker.New(nil), db.NewStore(nil), payment.NewInMemoryRepository(), gw, cache.NewMemory(), observability.NewMetrics(), nil, payment.Config{})

	p, err := svc.Initiate(ctx, payment.InitiateRequest{Type: payment.TypeCharge, PhoneNumber: "0712345678", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	other, err := svc.Initiate(ctx, payment.InitiateRequest{Type: payment.TypeCharge, PhoneNumber: "0712345678", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	outcome, err := svc.ProcessCallback(ctx, []byte(`{"event":"charge.success","data":{"reference":"`+p.Reference+`","status":"success"}}`))
	require.NoError(t, err)
	require.Equal(t, payment.OutcomeApplied, outcome)

	gw.SetStatus(other.Reference, gateway.StatusCompleted)
	r := NewPoller(svc, nil, nil, 0).Tick(ctx)
	require.Equal(t, Report{Checked: 1, Applied: 1}, r)
	require.Zero(t, gw.Lookups(p.Reference))
	require.Equal(t, 1, gw.Lookups(other.Reference))
}
