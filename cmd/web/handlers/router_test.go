package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	consumerhandlers "affiliate/cmd/consumers/handlers"
	"affiliate/cmd/web/validator"
	"affiliate/internal/activation"
	"affiliate/internal/client"
	"affiliate/internal/health"
	"affiliate/internal/metrics"
	"affiliate/internal/payment"
	"affiliate/internal/readmodels"
	"affiliate/internal/referral"
	"affiliate/internal/withdrawal"
	"affiliate/kit/broker"
	"affiliate/kit/cache"
	"affiliate/kit/db"
	"affiliate/kit/gateway"
	"affiliate/kit/observability"
)

type app struct {
	srv *httptest.Server
	gw  *gateway.Sandbox
}

func newApp(t *testing.T) *app {
	t.Helper()
	logger := observability.NewNopLogger()
	m := observability.NewMetrics()
	bus := broker.New(logger)
	c := cache.NewMemory()
	gw := gateway.NewSandbox()
	projector := readmodels.NewProjector()

	payments := payment.NewService(bus, db.NewStore(logger), payment.NewInMemoryRepository(), gw, c, m, logger, payment.Config{CacheNamespace: "web"})
	clients := client.NewService(bus, client.NewInMemoryRepository(), logger)
	activations := activation.NewService(bus, activation.NewInMemoryRepository(), clients, payments, c, logger, activation.Config{CacheNamespace: "web"})
	withdrawals := withdrawal.NewService(bus, withdrawal.NewInMemoryRepository(), clients, payments, c, m, logger, withdrawal.DefaultConfig())
	referrals := referral.NewService(bus, clients, c, m, logger, referral.Config{CacheNamespace: "web"})

	consumerhandlers.Register(bus, consumerhandlers.Set{
		Activation: consumerhandlers.NewActivationEvent(logger, activations),
		Withdrawal: consumerhandlers.NewWithdrawalEvent(logger, withdrawals),
		Referral:   consumerhandlers.NewReferralEvent(logger, referrals),
		Metrics:    consumerhandlers.NewMetricsEvent(m),
		Projector:  projector,
	})

	jsonV := validator.NewJSON()
	router := NewRouter(Set{
		Payment:    NewPayment(jsonV, payments, projector, logger),
		Client:     NewClient(jsonV, clients, projector, logger),
		Activation: NewActivation(jsonV, activations, logger),
		Withdrawal: NewWithdrawal(jsonV, withdrawals, logger),
		Referral:   NewReferral(referrals, logger),
		Health:     NewHealth(health.NewService(time.Second, map[string]health.CheckFunc{"gateway": health.Breaker(gateway.NewCircuitBreaker(gw, gateway.CircuitBreakerConfig{}))})),
		Metrics:    NewMetrics(m.Registry, metrics.NewService(m)),
	}, RouterConfig{})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &app{srv: srv, gw: gw}
}

func (a *app) do(t *testing.T, method, path, body string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, a.srv.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	res, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return res.StatusCode, out
}

func TestRouter_ActivationFlow(t *testing.T) {
	a := newApp(t)

	code, inviter := a.do(t, http.MethodPost, "/clients", `{"username":"boss","phone_number":"0700000000"}`)
	require.Equal(t, http.StatusCreated, code)
	inviterID := inviter["id"].(string)

	code, invitee := a.do(t, http.MethodPost, "/clients", fmt.Sprintf(`{"username":"jane","email":"jane@example.com","phone_number":"0712345678","inviter_id":%q}`, inviterID))
	require.Equal(t, http.StatusCreated, code)
	inviteeID := invitee["id"].(string)
	require.Equal(t, "inactive", invitee["status"])

	code, fee := a.do(t, http.MethodGet, "/activation/fee", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "500", fee["fee"])

	code, act := a.do(t, http.MethodPost, "/clients/"+inviteeID+"/activation", "")
	require.Equal(t, http.StatusAccepted, code)
	ref := act["payment_ref"].(string)
	require.Len(t, ref, payment.DefaultReferenceLength)

	code, pay := a.do(t, http.MethodGet, "/payments/"+ref, "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "pending", pay["status"])

	code, out := a.do(t, http.MethodPost, "/webhooks/payments", fmt.Sprintf(`{"event":"charge.success","data":{"id":77,"reference":%q,"status":"success"}}`, ref))
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "applied", out["outcome"])

	code, got := a.do(t, http.MethodGet, "/clients/"+inviteeID, "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "active", got["status"])
	require.Equal(t, true, got["activity"].(map[string]any)["activated"])

	code, got = a.do(t, http.MethodGet, "/clients/"+inviteeID+"/activation", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "completed", got["status"])
	require.Equal(t, "active", got["client_status"])

	code, stats := a.do(t, http.MethodGet, "/clients/"+inviterID+"/referrals/stats", "")
	require.Equal(t, http.StatusOK, code)
	require.EqualValues(t, 1, stats["active"])
	require.Equal(t, "100", stats["earnings"])

	code, got = a.do(t, http.MethodGet, "/clients/"+inviterID, "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "100", got["balance"])

	// A second activation for the same client is refused.
	code, got = a.do(t, http.MethodPost, "/clients/"+inviteeID+"/activation", "")
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, "AccountAlreadyActive", got["code"])

	// Polling a resolved payment never reaches the gateway.
	code, got = a.do(t, http.MethodPost, "/payments/"+ref+"/check", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(payment.OutcomeAlreadyTerminal), got["outcome"])
	require.Zero(t, a.gw.Lookups(ref))
}

func TestRouter_WithdrawalBelowMinimum(t *testing.T) {
	a := newApp(t)

	_, c := a.do(t, http.MethodPost, "/clients", `{"username":"jane","phone_number":"0712345678"}`)
	id := c["id"].(string)

	code, got := a.do(t, http.MethodPost, "/clients/"+id+"/withdrawals", `{"amount":50}`)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Contains(t, []string{"InsufficientBalance", "BelowMinAmount"}, got["code"])
	require.Empty(t, a.gw.Requests())

	code, rng := a.do(t, http.MethodGet, "/withdrawals/range", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "200", rng["min"])
	require.Equal(t, "100000", rng["max"])
}

func TestRouter_UnknownWebhookAndOperationalRoutes(t *testing.T) {
	a := newApp(t)

	code, out := a.do(t, http.MethodPost, "/webhooks/payments", `{"event":"charge.success","data":{"reference":"NOPE01","status":"success"}}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, string(payment.OutcomeUnknownPayment), out["outcome"])

	code, out = a.do(t, http.MethodGet, "/clients/missing", "")
	require.Equal(t, http.StatusNotFound, code)
	require.Equal(t, "AccountNotFound", out["code"])

	code, out = a.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, out["ok"])

	res, err := a.srv.Client().Get(a.srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	_ = res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(body), "referral_rewards_total")

	code, snap := a.do(t, http.MethodGet, "/metrics/snapshot", "")
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, snap)
}
