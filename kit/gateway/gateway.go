// Package gateway is the boundary to the external mobile-money provider.
package gateway

import (
	"context"
	"errors"
	"regexp"

	"github.com/shopspring/decimal"

	"affiliate/kit/errs"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var (
	ErrInitialization       = errors.New("gateway: initialization failed")
	ErrCallbackDecode       = errors.New("gateway: callback decode failed")
	ErrInvalidPhoneNumber   = errors.New("gateway: invalid phone number")
	ErrUnknownCallbackEvent = errs.ErrUnknownCallbackEvent

	ErrTimeout     = errors.New("gateway timeout")
	ErrServer      = errors.New("gateway 5xx")
	ErrClient      = errors.New("gateway 4xx")
	ErrCircuitOpen = errors.New("circuit open")
)

// Payment is the provider's view of a payment.
type Payment struct {
	Reference     string
	TransactionID string
	Status        Status
}

type Recipient struct {
	Username    string
	Name        string
	Email       string
	PhoneNumber string
}

type Request struct {
	Reference   string
	PhoneNumber string
	Amount      decimal.Decimal
	Recipient   Recipient
	Reason      string
}

// Gateway is implemented by every provider adapter. GetPayment returns
// (nil, nil) when the provider does not know the reference.
type Gateway interface {
	InitiateCharge(ctx context.Context, req Request) (*Payment, error)
	InitiatePayout(ctx context.Context, req Request) (*Payment, error)
	GetPayment(ctx context.Context, reference string) (*Payment, error)
	DecodeCallback(ctx context.Context, raw []byte) (*Payment, error)
}

// MapStatus translates a provider status word.
func MapStatus(s string) Status {
	switch s {
	case "success":
		return StatusCompleted
	case "failed":
		return StatusFailed
	case "reversed":
		return StatusCancelled
	default:
		return StatusPending
	}
}

var phonePattern = regexp.MustCompile(`^\+?(?:254|0)([17]\d{8})$`)

func subscriberNumber(phone string) (string, error) {
	m := phonePattern.FindStringSubmatch(phone)
	if m == nil {
		return "", ErrInvalidPhoneNumber
	}
	return m[1], nil
}

// ChargePhoneNumber formats phone as +254XXXXXXXXX.
func ChargePhoneNumber(phone string) (string, error) {
	n, err := subscriberNumber(phone)
	if err != nil {
		return "", err
	}
	return "+254" + n, nil
}

// PayoutPhoneNumber formats phone as 0XXXXXXXXX.
func PayoutPhoneNumber(phone string) (string, error) {
	n, err := subscriberNumber(phone)
	if err != nil {
		return "", err
	}
	return "0" + n, nil
}

// ValidPhoneNumber reports whether phone is a reachable mobile-money number.
func ValidPhoneNumber(phone string) bool {
	return phonePattern.MatchString(phone)
}

var hundred = decimal.NewFromInt(100)

// MinorUnits converts whole currency units to cents, rounding half up.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// IsTransportFailure reports whether err should count against a breaker.
func IsTransportFailure(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrServer) || errors.Is(err, context.DeadlineExceeded)
}
