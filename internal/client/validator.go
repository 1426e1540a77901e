package client

import (
	"github.com/shopspring/decimal"

	"affiliate/kit/errs"
)

var (
	ErrInvalidClient = errs.ErrInvalidRequest.WithMessage("invalid client")
	ErrInvalidAmount = errs.ErrInvalidRequest.WithMessage("amount must be positive")
)

func ValidateNewClient(r NewClient) error {
	if r.Username == "" || r.PhoneNumber == "" {
		return ErrInvalidClient
	}
	return nil
}

func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
