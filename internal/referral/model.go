package referral

import (
	"time"

	"github.com/shopspring/decimal"

	"affiliate/internal/client"
)

type Stats struct {
	Total    int             `json:"total"`
	Active   int             `json:"active"`
	Inactive int             `json:"inactive"`
	Earnings decimal.Decimal `json:"earnings"`
}

type Referral struct {
	Username string        `json:"username"`
	Name     string        `json:"name"`
	Status   client.Status `json:"status"`
	JoinedOn time.Time     `json:"joinedOn"`
}
