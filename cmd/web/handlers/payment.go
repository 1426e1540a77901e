package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"affiliate/cmd/web/validator"
	"affiliate/internal/payment"
	"affiliate/kit/errs"
	"affiliate/kit/gateway"
	"affiliate/kit/observability"
)

type Payment struct {
	json    *validator.JSON
	payment PaymentServiceContract
	rm      PaymentReadModelContract
	logger  *observability.Logger
}

func NewPayment(jsonV *validator.JSON, paymentSvc PaymentServiceContract, rm PaymentReadModelContract, logger *observability.Logger) *Payment {
	return &Payment{json: jsonV, payment: paymentSvc, rm: rm, logger: logger}
}

type initiatePaymentReq struct {
	Type        string           `json:"type"`
	PhoneNumber string           `json:"phone_number"`
	Amount      decimal.Decimal  `json:"amount"`
	Metadata    payment.Metadata `json:"metadata"`
}

type paymentResp struct {
	Reference     string            `json:"reference"`
	Type          string            `json:"type"`
	PhoneNumber   string            `json:"phone_number"`
	Amount        decimal.Decimal   `json:"amount"`
	Status        string            `json:"status"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Metadata      *payment.Metadata `json:"metadata,omitempty"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

type outcomeResp struct {
	Reference string `json:"reference,omitempty"`
	Outcome   string `json:"outcome"`
}

func toPaymentResp(p *payment.Payment) paymentResp {
	md := p.Metadata
	return paymentResp{
		Reference:     p.Reference,
		Type:          string(p.Type),
		PhoneNumber:   p.PhoneNumber,
		Amount:        p.Amount,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		Metadata:      &md,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (h *Payment) Initiate(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, h.logger, "payment", "Initiate", err)
		return
	}

	p, err := h.payment.Initiate(r.Context(), payment.InitiateRequest{
		Type:        payment.Type(req.Type),
		PhoneNumber: req.PhoneNumber,
		Amount:      req.Amount,
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeError(w, h.logger, "payment", "Initiate", err)
		return
	}
	writeJSON(w, http.StatusAccepted, toPaymentResp(p))
}

func (h *Payment) Get(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")
	if h.rm != nil {
		if v, ok := h.rm.GetPayment(ref); ok {
			writeJSON(w, http.StatusOK, paymentResp{
				Reference:     v.Reference,
				Type:          v.Type,
				PhoneNumber:   v.PhoneNumber,
				Amount:        v.Amount,
				Status:        v.Status,
				TransactionID: v.TransactionID,
				UpdatedAt:     v.UpdatedAt,
			})
			return
		}
	}

	p, err := h.payment.Get(r.Context(), ref)
	if err != nil {
		writeError(w, h.logger, "payment", "Get", err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResp(p))
}

func (h *Payment) Check(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "reference")
	outcome, err := h.payment.CheckPayment(r.Context(), ref)
	if err != nil {
		writeError(w, h.logger, "payment", "Check", err)
		return
	}
	writeJSON(w, http.StatusOK, outcomeResp{Reference: ref, Outcome: string(outcome)})
}

// Webhook acknowledges every well-formed callback, including ones for
// references this service never issued and events it does not track, so the
// provider stops retrying them.
func (h *Payment) Webhook(w http.ResponseWriter, r *http.Request) {
	raw, err := h.json.Raw(w, r)
	if err != nil {
		writeError(w, h.logger, "payment", "Webhook", err)
		return
	}

	outcome, err := h.payment.ProcessCallback(r.Context(), raw)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, outcomeResp{Outcome: string(outcome)})
	case errors.Is(err, errs.ErrUnknownCallbackEvent):
		h.logger.Info("webhook ignored", "layer", "handler", "component", "payment", "method", "Webhook", "error", err.Error())
		writeJSON(w, http.StatusOK, outcomeResp{Outcome: "ignored"})
	case errors.Is(err, gateway.ErrCallbackDecode):
		writeError(w, h.logger, "payment", "Webhook", err)
	default:
		h.logger.Error("handler error", "layer", "handler", "component", "payment", "method", "Webhook", "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "Internal", Message: "internal error"})
	}
}
