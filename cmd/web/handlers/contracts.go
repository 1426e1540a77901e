package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"affiliate/internal/activation"
	"affiliate/internal/client"
	"affiliate/internal/health"
	"affiliate/internal/payment"
	"affiliate/internal/readmodels"
	"affiliate/internal/referral"
	"affiliate/internal/withdrawal"
)

type PaymentServiceContract interface {
	Initiate(ctx context.Context, req payment.InitiateRequest) (*payment.Payment, error)
	Get(ctx context.Context, reference string) (*payment.Payment, error)
	CheckPayment(ctx context.Context, reference string) (payment.Outcome, error)
	ProcessCallback(ctx context.Context, raw []byte) (payment.Outcome, error)
}

type PaymentReadModelContract interface {
	GetPayment(reference string) (readmodels.PaymentView, bool)
}

type ClientServiceContract interface {
	Register(ctx context.Context, req client.NewClient) (*client.Client, error)
	Get(ctx context.Context, id string) (*client.Client, error)
}

type ClientReadModelContract interface {
	GetClient(clientID string) (readmodels.ClientView, bool)
}

type ActivationServiceContract interface {
	Fee() decimal.Decimal
	ClientStatus(ctx context.Context, clientID string) (client.Status, error)
	Initiate(ctx context.Context, clientID, phoneNumber string) (*activation.Activation, error)
	Latest(ctx context.Context, clientID string) (*activation.Activation, error)
}

type WithdrawalServiceContract interface {
	AmountRange() withdrawal.Range
	NetAmount(amount decimal.Decimal) decimal.Decimal
	Initiate(ctx context.Context, clientID string, amount decimal.Decimal) (*withdrawal.Withdrawal, error)
	Stats(ctx context.Context, clientID string) (withdrawal.Stats, error)
	List(ctx context.Context, clientID string) ([]*withdrawal.Withdrawal, error)
}

type ReferralServiceContract interface {
	Reward() decimal.Decimal
	Stats(ctx context.Context, clientID string) (referral.Stats, error)
	Referrals(ctx context.Context, clientID string) ([]referral.Referral, error)
}

type HealthContract interface {
	Check(ctx context.Context) health.Result
}

type SnapshotContract interface {
	Snapshot() map[string]float64
}
