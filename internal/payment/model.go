package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeCharge Type = "charge"
	TypePayout Type = "payout"
)

func (t Type) Valid() bool { return t == TypeCharge || t == TypePayout }

type Status string

const (
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

// IsTerminal reports whether s admits no further transition.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusFailed || s == StatusCompleted
}

func (s Status) Valid() bool {
	return s == StatusPending || s.IsTerminal()
}

// CanTransition holds only for pending to a terminal status.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.IsTerminal()
}

type Recipient struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

type Metadata struct {
	Recipient Recipient `json:"recipient"`
	Reason    string    `json:"reason"`
}

type Payment struct {
	Reference     string
	Type          Type
	PhoneNumber   string
	Amount        decimal.Decimal
	Metadata      Metadata
	Status        Status
	TransactionID string
	InitiatedAt   time.Time
	UpdatedAt     time.Time
}

// Outcome describes what a resolution attempt did. Every outcome is a
// success from the caller's point of view.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeUnchanged       Outcome = "unchanged"
	OutcomeAlreadyTerminal Outcome = "already_terminal"
	OutcomeUnknownPayment  Outcome = "unknown_payment"
	OutcomeDebounced       Outcome = "debounced"
)
