package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"affiliate/kit/observability"
)

const (
	currencyKES       = "KES"
	providerMpesa     = "mpesa"
	bankCodeMpesa     = "MPESA"
	recipientMobile   = "mobile_money"
	transferSourceBal = "balance"
)

type PaystackConfig struct {
	BaseURL   string
	SecretKey string
	Timeout   time.Duration
}

type Paystack struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	logger     *observability.Logger
}

func NewPaystack(cfg PaystackConfig, logger *observability.Logger) *Paystack {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Paystack{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chargeRequest struct {
	Reference   string      `json:"reference"`
	Amount      int64       `json:"amount"`
	Currency    string      `json:"currency"`
	Email       string      `json:"email"`
	MobileMoney mobileMoney `json:"mobile_money"`
}

type mobileMoney struct {
	Phone    string `json:"phone"`
	Provider string `json:"provider"`
}

type recipientRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	Currency      string `json:"currency"`
}

type transferRequest struct {
	Source    string `json:"source"`
	Reference string `json:"reference"`
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type statusResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	} `json:"data"`
}

type recipientResponse struct {
	Status bool `json:"status"`
	Data   struct {
		RecipientCode string `json:"recipient_code"`
	} `json:"data"`
}

type callbackPayload struct {
	Event string `json:"event"`
	Data  struct {
		ID        json.RawMessage `json:"id"`
		Reference string          `json:"reference"`
		Status    string          `json:"status"`
	} `json:"data"`
}

func (p *Paystack) InitiateCharge(ctx context.Context, req Request) (*Payment, error) {
	phone, err := ChargePhoneNumber(req.PhoneNumber)
	if err != nil {
		return nil, errors.Join(ErrInitialization, err)
	}

	var res statusResponse
	err = p.do(ctx, http.MethodPost, "/charge", chargeRequest{
		Reference: req.Reference,
		Amount:    MinorUnits(req.Amount),
		Currency:  currencyKES,
		Email:     req.Recipient.Email,
		MobileMoney: mobileMoney{
			Phone:    phone,
			Provider: providerMpesa,
		},
	}, &res)
	if err != nil {
		p.logger.Error("paystack error", "layer", "gateway", "component", "paystack", "method", "InitiateCharge", "reference", req.Reference, "error", err.Error())
		return nil, errors.Join(ErrInitialization, err)
	}
	if !res.Status {
		p.logger.Warn("paystack charge rejected", "layer", "gateway", "component", "paystack", "method", "InitiateCharge", "reference", req.Reference)
		return nil, ErrInitialization
	}

	ref := res.Data.Reference
	if ref == "" {
		ref = req.Reference
	}
	return &Payment{Reference: ref, TransactionID: ref, Status: MapStatus(res.Data.Status)}, nil
}

func (p *Paystack) InitiatePayout(ctx context.Context, req Request) (*Payment, error) {
	account, err := PayoutPhoneNumber(req.PhoneNumber)
	if err != nil {
		return nil, errors.Join(ErrInitialization, err)
	}

	var rcpt recipientResponse
	err = p.do(ctx, http.MethodPost, "/transferrecipient", recipientRequest{
		Type:          recipientMobile,
		Name:          req.Recipient.Name,
		BankCode:      bankCodeMpesa,
		AccountNumber: account,
		Currency:      currencyKES,
	}, &rcpt)
	if err != nil {
		p.logger.Error("paystack error", "layer", "gateway", "component", "paystack", "method", "InitiatePayout", "step", "recipient", "reference", req.Reference, "error", err.Error())
		return nil, errors.Join(ErrInitialization, err)
	}
	if rcpt.Data.RecipientCode == "" {
		return nil, errors.Join(ErrInitialization, errors.New("paystack: empty recipient code"))
	}

	var res statusResponse
	err = p.do(ctx, http.MethodPost, "/transfer", transferRequest{
		Source:    transferSourceBal,
		Reference: req.Reference,
		Recipient: rcpt.Data.RecipientCode,
		Amount:    MinorUnits(req.Amount),
		Currency:  currencyKES,
	}, &res)
	if err != nil {
		p.logger.Error("paystack error", "layer", "gateway", "component", "paystack", "method", "InitiatePayout", "step", "transfer", "reference", req.Reference, "error", err.Error())
		return nil, errors.Join(ErrInitialization, err)
	}
	if !res.Status {
		p.logger.Warn("paystack transfer rejected", "layer", "gateway", "component", "paystack", "method", "InitiatePayout", "reference", req.Reference)
		return nil, ErrInitialization
	}
	return &Payment{Reference: req.Reference, TransactionID: req.Reference, Status: MapStatus(res.Data.Status)}, nil
}

// GetPayment treats every failure as "not known" and returns (nil, nil),
// except a transport failure which is also reported so a breaker can trip.
func (p *Paystack) GetPayment(ctx context.Context, reference string) (*Payment, error) {
	var res statusResponse
	err := p.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &res)
	if err != nil {
		p.logger.Warn("paystack verify failed", "layer", "gateway", "component", "paystack", "method", "GetPayment", "reference", reference, "error", err.Error())
		if IsTransportFailure(err) {
			return nil, err
		}
		return nil, nil
	}
	if !res.Status {
		return nil, nil
	}
	ref := res.Data.Reference
	if ref == "" {
		ref = reference
	}
	return &Payment{Reference: ref, TransactionID: ref, Status: MapStatus(res.Data.Status)}, nil
}

func (p *Paystack) DecodeCallback(ctx context.Context, raw []byte) (*Payment, error) {
	return DecodePaystackCallback(raw)
}

// DecodePaystackCallback parses a webhook body.
func DecodePaystackCallback(raw []byte) (*Payment, error) {
	var cb callbackPayload
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, errors.Join(ErrCallbackDecode, err)
	}
	if cb.Data.Reference == "" {
		return nil, errors.Join(ErrCallbackDecode, errors.New("missing reference"))
	}

	txID := callbackID(cb.Data.ID)
	if txID == "" {
		txID = cb.Data.Reference
	}

	var status string
	switch cb.Event {
	case "charge.success", "transfer.success":
		status = cb.Data.Status
	case "transfer.failed":
		status = "failed"
	case "transfer.reversed":
		status = "reversed"
	default:
		return nil, ErrUnknownCallbackEvent.WithMessage(cb.Event)
	}
	return &Payment{Reference: cb.Data.Reference, TransactionID: txID, Status: MapStatus(status)}, nil
}

// callbackID accepts the id as either a JSON number or string.
func callbackID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func (p *Paystack) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return errors.Join(ErrTimeout, err)
		}
		return errors.Join(ErrServer, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Join(ErrServer, err)
	}
	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrClient, resp.StatusCode, truncate(b, 256))
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("paystack: decode %s: %w", path, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
