package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"affiliate/cmd/web/validator"
	"affiliate/internal/withdrawal"
	"affiliate/kit/observability"
)

type Withdrawal struct {
	json       *validator.JSON
	withdrawal WithdrawalServiceContract
	logger     *observability.Logger
}

func NewWithdrawal(jsonV *validator.JSON, withdrawalSvc WithdrawalServiceContract, logger *observability.Logger) *Withdrawal {
	return &Withdrawal{json: jsonV, withdrawal: withdrawalSvc, logger: logger}
}

type initiateWithdrawalReq struct {
	Amount decimal.Decimal `json:"amount"`
}

type withdrawalResp struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"client_id"`
	Amount      decimal.Decimal `json:"amount"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	PaymentRef  string          `json:"payment_ref,omitempty"`
	Status      string          `json:"status"`
	InitiatedAt time.Time       `json:"initiated_at"`
}

func (h *Withdrawal) toResp(wd *withdrawal.Withdrawal) withdrawalResp {
	return withdrawalResp{
		ID:          wd.ID,
		ClientID:    wd.ClientID,
		Amount:      wd.Amount,
		NetAmount:   h.withdrawal.NetAmount(wd.Amount),
		PaymentRef:  wd.PaymentRef,
		Status:      string(wd.Status),
		InitiatedAt: wd.InitiatedAt,
	}
}

func (h *Withdrawal) Initiate(w http.ResponseWriter, r *http.Request) {
	var req initiateWithdrawalReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, h.logger, "withdrawal", "Initiate", err)
		return
	}
	wd, err := h.withdrawal.Initiate(r.Context(), chi.URLParam(r, "id"), req.Amount)
	if err != nil {
		writeError(w, h.logger, "withdrawal", "Initiate", err)
		return
	}
	writeJSON(w, http.StatusAccepted, h.toResp(wd))
}

func (h *Withdrawal) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.withdrawal.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "withdrawal", "List", err)
		return
	}
	out := make([]withdrawalResp, 0, len(list))
	for _, wd := range list {
		out = append(out, h.toResp(wd))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Withdrawal) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.withdrawal.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "withdrawal", "Stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Withdrawal) Range(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.withdrawal.AmountRange())
}
