package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"affiliate/cmd/web/validator"
	"affiliate/internal/activation"
	"affiliate/kit/observability"
)

type Activation struct {
	json       *validator.JSON
	activation ActivationServiceContract
	logger     *observability.Logger
}

func NewActivation(jsonV *validator.JSON, activationSvc ActivationServiceContract, logger *observability.Logger) *Activation {
	return &Activation{json: jsonV, activation: activationSvc, logger: logger}
}

type initiateActivationReq struct {
	// PhoneNumber overrides the number on the client record.
	PhoneNumber string `json:"phone_number"`
}

type activationResp struct {
	ID           string    `json:"id,omitempty"`
	ClientID     string    `json:"client_id"`
	PaymentRef   string    `json:"payment_ref,omitempty"`
	Status       string    `json:"status,omitempty"`
	ClientStatus string    `json:"client_status,omitempty"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

type feeResp struct {
	Fee decimal.Decimal `json:"fee"`
}

func toActivationResp(a *activation.Activation) activationResp {
	return activationResp{
		ID:         a.ID,
		ClientID:   a.ClientID,
		PaymentRef: a.PaymentRef,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt,
	}
}

func (h *Activation) Initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateActivationReq
	if err := h.json.DecodeOptional(w, r, &req); err != nil {
		writeError(w, h.logger, "activation", "Initiate", err)
		return
	}
	a, err := h.activation.Initiate(r.Context(), chi.URLParam(r, "id"), req.PhoneNumber)
	if err != nil {
		writeError(w, h.logger, "activation", "Initiate", err)
		return
	}
	writeJSON(w, http.StatusAccepted, toActivationResp(a))
}

// Latest reports the most recent activation attempt together with the
// client's cached activation status.
func (h *Activation) Latest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	status, err := h.activation.ClientStatus(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "activation", "Latest", err)
		return
	}
	a, err := h.activation.Latest(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "activation", "Latest", err)
		return
	}

	resp := activationResp{ClientID: id}
	if a != nil {
		resp = toActivationResp(a)
	}
	resp.ClientStatus = string(status)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Activation) Fee(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, feeResp{Fee: h.activation.Fee()})
}
