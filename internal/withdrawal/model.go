package withdrawal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"affiliate/kit/errs"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRejected  Status = "rejected"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusRejected, StatusFailed, StatusCompleted},
	StatusFailed:  {StatusCompleted},
}

// CheckTransition returns ErrInvalidStatusTransition unless from may move to to.
func CheckTransition(from, to Status) error {
	for _, s := range transitions[from] {
		if s == to {
			return nil
		}
	}
	return errs.ErrInvalidStatusTransition.WithMessage(fmt.Sprintf("withdrawal %s -> %s", from, to))
}

// Withdrawal holds the gross amount debited from the client balance.
type Withdrawal struct {
	ID          string
	ClientID    string
	Amount      decimal.Decimal
	PaymentRef  string
	Status      Status
	InitiatedAt time.Time
}

type Stats struct {
	Total           int             `json:"total"`
	Pending         int             `json:"pending"`
	Completed       int             `json:"completed"`
	AmountWithdrawn decimal.Decimal `json:"amountWithdrawn"`
}

type Range struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}
