package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"affiliate/cmd/web/validator"
	"affiliate/internal/activation"
	"affiliate/internal/client"
	"affiliate/kit/errs"
	"affiliate/kit/gateway"
	"affiliate/kit/observability"
)

func TestActivation_Initiate(t *testing.T) {
	var tests = []struct {
		name       string
		body       string
		phone      string
		result     *activation.Activation
		err        error
		wantStatus int
	}{
		{name: "client phone", result: &activation.Activation{ID: "a1", ClientID: "c1", PaymentRef: "ABC123", Status: activation.StatusPending}, wantStatus: http.StatusAccepted},
		{name: "override phone", body: `{"phone_number":"0799999999"}`, phone: "0799999999", result: &activation.Activation{ID: "a1", ClientID: "c1", Status: activation.StatusPending}, wantStatus: http.StatusAccepted},
		{name: "already active", err: errs.ErrAccountAlreadyActive.WithMessage("c1"), wantStatus: http.StatusConflict},
		{name: "charge in flight", err: errs.ErrActivationInProgress.WithMessage("ABC123"), wantStatus: http.StatusConflict},
		{name: "unknown client", err: errs.ErrAccountNotFound.WithMessage("c1"), wantStatus: http.StatusNotFound},
		{name: "gateway down", err: errors.Join(errs.ErrPaymentFailed, gateway.ErrCircuitOpen), wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			as := new(activationServiceMock)
			as.On("Initiate", mock.Anything, "c1", tt.phone).Return(tt.result, tt.err)
			h := NewActivation(validator.NewJSON(), as, observability.NewNopLogger())

			req := httptest.NewRequest(http.MethodPost, "/clients/c1/activation", bytes.NewBufferString(tt.body))
			rr := serve(http.MethodPost, "/clients/{id}/activation", h.Initiate, req)
			require.Equal(t, tt.wantStatus, rr.Code)
			as.AssertExpectations(t)
		})
	}
}

func TestActivation_Latest(t *testing.T) {
	t.Parallel()
	as := new(activationServiceMock)
	as.On("ClientStatus", mock.Anything, "c1").Return(client.StatusInactive, nil)
	as.On("Latest", mock.Anything, "c1").Return(nil, nil)
	as.On("ClientStatus", mock.Anything, "c2").Return(client.StatusActive, nil)
	as.On("Latest", mock.Anything, "c2").Return(&activation.Activation{ID: "a2", ClientID: "c2", PaymentRef: "XYZ789", Status: activation.StatusCompleted}, nil)
	as.On("ClientStatus", mock.Anything, "c3").Return(client.Status(""), errs.ErrAccountNotFound)
	h := NewActivation(validator.NewJSON(), as, observability.NewNopLogger())

	rr := serve(http.MethodGet, "/clients/{id}/activation", h.Latest, httptest.NewRequest(http.MethodGet, "/clients/c1/activation", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"client_status":"inactive"`)
	require.NotContains(t, rr.Body.String(), `"payment_ref"`)

	rr = serve(http.MethodGet, "/clients/{id}/activation", h.Latest, httptest.NewRequest(http.MethodGet, "/clients/c2/activation", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"payment_ref":"XYZ789"`)
	require.Contains(t, rr.Body.String(), `"client_status":"active"`)

	rr = serve(http.MethodGet, "/clients/{id}/activation", h.Latest, httptest.NewRequest(http.MethodGet, "/clients/c3/activation", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestActivation_Fee(t *testing.T) {
	t.Parallel()
	as := new(activationServiceMock)
	as.On("Fee").Return(decimal.NewFromInt(500))
	h := NewActivation(validator.NewJSON(), as, observability.NewNopLogger())

	rr := serve(http.MethodGet, "/activation/fee", h.Fee, httptest.NewRequest(http.MethodGet, "/activation/fee", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"fee":"500"}`, rr.Body.String())
}
