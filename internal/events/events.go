package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment events carry the payment reference as their partition key, the
// rest key on the client they concern.

type PaymentInitiated struct {
	Reference   string          `json:"reference"`
	Type        string          `json:"type"`
	PhoneNumber string          `json:"phone_number"`
	Amount      decimal.Decimal `json:"amount"`
	At          time.Time       `json:"at"`
}

func (PaymentInitiated) Name() string { return "payment.initiated" }

func (e PaymentInitiated) PartitionKey() string { return e.Reference }

// PaymentStatusChanged is broadcast once per applied status. Status is the
// stored value, so a reversed payout arrives as "cancelled".
type PaymentStatusChanged struct {
	Reference     string    `json:"reference"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	At            time.Time `json:"at"`
}

func (PaymentStatusChanged) Name() string { return "payment.status_changed" }

func (e PaymentStatusChanged) PartitionKey() string { return e.Reference }

// Failed reports whether downstream consumers should treat the payment as
// not having happened.
func (e PaymentStatusChanged) Failed() bool {
	return e.Status == "failed" || e.Status == "cancelled"
}

func (e PaymentStatusChanged) Completed() bool { return e.Status == "completed" }

type ClientRegistered struct {
	ClientID  string    `json:"client_id"`
	Username  string    `json:"username"`
	InviterID string    `json:"inviter_id,omitempty"`
	At        time.Time `json:"at"`
}

func (ClientRegistered) Name() string { return "client.registered" }

func (e ClientRegistered) PartitionKey() string { return e.ClientID }

type ClientActivated struct {
	ClientID string    `json:"client_id"`
	At       time.Time `json:"at"`
}

func (ClientActivated) Name() string { return "client.activated" }

func (e ClientActivated) PartitionKey() string { return e.ClientID }

type ActivationRequested struct {
	ActivationID string          `json:"activation_id"`
	ClientID     string          `json:"client_id"`
	PaymentRef   string          `json:"payment_ref"`
	Fee          decimal.Decimal `json:"fee"`
	At           time.Time       `json:"at"`
}

func (ActivationRequested) Name() string { return "activation.requested" }

func (e ActivationRequested) PartitionKey() string { return e.ClientID }

type ActivationFailed struct {
	ActivationID string    `json:"activation_id"`
	ClientID     string    `json:"client_id"`
	PaymentRef   string    `json:"payment_ref"`
	At           time.Time `json:"at"`
}

func (ActivationFailed) Name() string { return "activation.failed" }

func (e ActivationFailed) PartitionKey() string { return e.ClientID }

type WithdrawalRequested struct {
	WithdrawalID string          `json:"withdrawal_id"`
	ClientID     string          `json:"client_id"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentRef   string          `json:"payment_ref,omitempty"`
	At           time.Time       `json:"at"`
}

func (WithdrawalRequested) Name() string { return "withdrawal.requested" }

func (e WithdrawalRequested) PartitionKey() string { return e.ClientID }

type WithdrawalCompleted struct {
	WithdrawalID string          `json:"withdrawal_id"`
	ClientID     string          `json:"client_id"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentRef   string          `json:"payment_ref"`
	At           time.Time       `json:"at"`
}

func (WithdrawalCompleted) Name() string { return "withdrawal.completed" }

func (e WithdrawalCompleted) PartitionKey() string { return e.ClientID }

type WithdrawalFailed struct {
	WithdrawalID string          `json:"withdrawal_id"`
	ClientID     string          `json:"client_id"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentRef   string          `json:"payment_ref"`
	Reason       string          `json:"reason,omitempty"`
	At           time.Time       `json:"at"`
}

func (WithdrawalFailed) Name() string { return "withdrawal.failed" }

func (e WithdrawalFailed) PartitionKey() string { return e.ClientID }

type BalanceRefunded struct {
	ClientID     string          `json:"client_id"`
	WithdrawalID string          `json:"withdrawal_id"`
	Amount       decimal.Decimal `json:"amount"`
	At           time.Time       `json:"at"`
}

func (BalanceRefunded) Name() string { return "balance.refunded" }

func (e BalanceRefunded) PartitionKey() string { return e.ClientID }

type ReferralRewarded struct {
	InviterID string          `json:"inviter_id"`
	ClientID  string          `json:"client_id"`
	Amount    decimal.Decimal `json:"amount"`
	At        time.Time       `json:"at"`
}

func (ReferralRewarded) Name() string { return "referral.rewarded" }

func (e ReferralRewarded) PartitionKey() string { return e.InviterID }

// ReconciliationFailed is emitted when a background check could not reach
// a verdict for a pending payment.
type ReconciliationFailed struct {
	Reference string    `json:"reference"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

func (ReconciliationFailed) Name() string { return "reconciliation.failed" }

func (e ReconciliationFailed) PartitionKey() string { return e.Reference }

// Names lists every event name, in the order they appear above.
func Names() []string {
	return []string{
		PaymentInitiated{}.Name(),
		PaymentStatusChanged{}.Name(),
		ClientRegistered{}.Name(),
		ClientActivated{}.Name(),
		ActivationRequested{}.Name(),
		ActivationFailed{}.Name(),
		WithdrawalRequested{}.Name(),
		WithdrawalCompleted{}.Name(),
		WithdrawalFailed{}.Name(),
		BalanceRefunded{}.Name(),
		ReferralRewarded{}.Name(),
		ReconciliationFailed{}.Name(),
	}
}
