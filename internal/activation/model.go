package activation

import (
	"fmt"
	"time"

	"affiliate/kit/errs"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
	StatusCompleted Status = "completed"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusFailed, StatusCompleted},
	StatusFailed:  {StatusCompleted},
}

// CheckTransition returns ErrInvalidStatusTransition unless from may move to to.
func CheckTransition(from, to Status) error {
	for _, s := range transitions[from] {
		if s == to {
			return nil
		}
	}
	return errs.ErrInvalidStatusTransition.WithMessage(fmt.Sprintf("activation %s -> %s", from, to))
}

type Activation struct {
	ID         string
	ClientID   string
	PaymentRef string
	Status     Status
	CreatedAt  time.Time
}
