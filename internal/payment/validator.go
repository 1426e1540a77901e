package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"affiliate/kit/errs"
)

var (
	ErrInvalidPayment = errs.ErrInvalidRequest.WithMessage("invalid payment")
)

type InitiateRequest struct {
	Type        Type
	PhoneNumber string
	Amount      decimal.Decimal
	Metadata    Metadata
	// Bind, when set, runs after the payment is stored and before the
	// gateway is contacted, so the owner can record the reference before
	// any status for it can be broadcast.
	Bind func(ctx context.Context, reference string) error
}

func ValidateInitiateRequest(r InitiateRequest) error {
	if !r.Type.Valid() || r.PhoneNumber == "" || !r.Amount.IsPositive() {
		return ErrInvalidPayment
	}
	return nil
}
