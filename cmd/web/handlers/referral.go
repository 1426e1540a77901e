package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"affiliate/internal/referral"
	"affiliate/kit/observability"
)

type Referral struct {
	referral ReferralServiceContract
	logger   *observability.Logger
}

func NewReferral(referralSvc ReferralServiceContract, logger *observability.Logger) *Referral {
	return &Referral{referral: referralSvc, logger: logger}
}

type referralStatsResp struct {
	referral.Stats
	Reward decimal.Decimal `json:"reward"`
}

func (h *Referral) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.referral.Referrals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "referral", "List", err)
		return
	}
	if list == nil {
		list = []referral.Referral{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Referral) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.referral.Stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, "referral", "Stats", err)
		return
	}
	writeJSON(w, http.StatusOK, referralStatsResp{Stats: stats, Reward: h.referral.Reward()})
}
