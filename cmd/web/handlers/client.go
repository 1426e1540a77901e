package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"affiliate/cmd/web/validator"
	"affiliate/internal/client"
	"affiliate/internal/readmodels"
	"affiliate/kit/observability"
)

type Client struct {
	json   *validator.JSON
	client ClientServiceContract
	rm     ClientReadModelContract
	logger *observability.Logger
}

func NewClient(jsonV *validator.JSON, clientSvc ClientServiceContract, rm ClientReadModelContract, logger *observability.Logger) *Client {
	return &Client{json: jsonV, client: clientSvc, rm: rm, logger: logger}
}

type registerClientReq struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	InviterID   string `json:"inviter_id"`
}

type clientResp struct {
	ID          string                 `json:"id"`
	Username    string                 `json:"username"`
	Name        string                 `json:"name"`
	Email       string                 `json:"email"`
	PhoneNumber string                 `json:"phone_number"`
	InviterID   string                 `json:"inviter_id,omitempty"`
	Status      string                 `json:"status"`
	Balance     decimal.Decimal        `json:"balance"`
	JoinedAt    time.Time              `json:"joined_at"`
	Activity    *readmodels.ClientView `json:"activity,omitempty"`
}

func toClientResp(c *client.Client) clientResp {
	return clientResp{
		ID:          c.ID,
		Username:    c.Username,
		Name:        c.Name,
		Email:       c.Email,
		PhoneNumber: c.PhoneNumber,
		InviterID:   c.InviterID,
		Status:      string(c.Status),
		Balance:     c.Balance,
		JoinedAt:    c.JoinedAt,
	}
}

func (h *Client) Register(w http.ResponseWriter, r *http.Request) {
	var req registerClientReq
	if err := h.json.Decode(w, r, &req); err != nil {
		writeError(w, h.logger, "client", "Register", err)
		return
	}
	c, err := h.client.Register(r.Context(), client.NewClient{
		Username:    req.Username,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		InviterID:   req.InviterID,
	})
	if err != nil {
		writeError(w, h.logger, "client", "Register", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientResp(c))
}

func (h *Client) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.client.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "client", "Get", err)
		return
	}
	resp := toClientResp(c)
	if h.rm != nil {
		if v, ok := h.rm.GetClient(id); ok {
			resp.Activity = &v
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
