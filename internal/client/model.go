package client

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInactive Status = "inactive"
	StatusActive   Status = "active"
)

type Client struct {
	ID          string
	Username    string
	Name        string
	Email       string
	PhoneNumber string
	InviterID   string
	Status      Status
	Balance     decimal.Decimal
	JoinedAt    time.Time
}

func (c *Client) IsActive() bool { return c.Status == StatusActive }

type NewClient struct {
	Username    string
	Name        string
	Email       string
	PhoneNumber string
	InviterID   string
}
