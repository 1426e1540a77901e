package payment

import (
	"time"

	"affiliate/internal/events"
	"affiliate/kit/gateway"
)

func ToGatewayRequest(p *Payment) gateway.Request {
	return gateway.Request{
		Reference:   p.Reference,
		PhoneNumber: p.PhoneNumber,
		Amount:      p.Amount,
		Recipient: gateway.Recipient{
			Username:    p.Metadata.Recipient.Username,
			Name:        p.Metadata.Recipient.Name,
			Email:       p.Metadata.Recipient.Email,
			PhoneNumber: p.Metadata.Recipient.PhoneNumber,
		},
		Reason: p.Metadata.Reason,
	}
}

func ToPaymentInitiatedEvent(p *Payment) events.PaymentInitiated {
	return events.PaymentInitiated{
		Reference:   p.Reference,
		Type:        string(p.Type),
		PhoneNumber: p.PhoneNumber,
		Amount:      p.Amount,
		At:          time.Now().UTC(),
	}
}

func ToPaymentStatusChangedEvent(p *Payment) events.PaymentStatusChanged {
	return events.PaymentStatusChanged{
		Reference:     p.Reference,
		Type:          string(p.Type),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		At:            time.Now().UTC(),
	}
}
