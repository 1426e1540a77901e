package handlers

import (
	"affiliate/internal/events"
	"affiliate/kit/broker"
)

type Bus interface {
	broker.Subscriber
	SubscribeAll(h broker.Handler)
}

// Set is every consumer the process runs. Nil members are skipped.
type Set struct {
	Activation   *ActivationEvent
	Withdrawal   *WithdrawalEvent
	Referral     *ReferralEvent
	Audit        *AuditEvent
	Metrics      *MetricsEvent
	Notification *NotificationEvent
	Projector    ProjectorContract
	Relay        *broker.KafkaRelay
}

// Register wires the causal chain
//
//	payment.status_changed -> activation -> client.activated -> referral reward
//	payment.status_changed -> withdrawal -> refund on failure
//
// followed by the observers, which see every event after its reactions ran.
func Register(bus Bus, set Set) {
	statusChanged := events.PaymentStatusChanged{}.Name()
	if set.Activation != nil {
		bus.Subscribe(statusChanged, set.Activation.HandlePaymentStatusChanged)
	}
	if set.Withdrawal != nil {
		bus.Subscribe(statusChanged, set.Withdrawal.HandlePaymentStatusChanged)
	}
	if set.Referral != nil {
		bus.Subscribe(events.ClientActivated{}.Name(), set.Referral.HandleClientActivated)
		bus.Subscribe(events.ClientRegistered{}.Name(), set.Referral.HandleClientRegistered)
	}

	if set.Audit != nil {
		bus.SubscribeAll(set.Audit.HandleAny)
	}
	if set.Metrics != nil {
		bus.SubscribeAll(set.Metrics.HandleAny)
	}
	if set.Notification != nil {
		bus.SubscribeAll(set.Notification.HandleAny)
	}
	if set.Projector != nil {
		bus.SubscribeAll(set.Projector.Apply)
	}
	if set.Relay != nil {
		set.Relay.Attach(bus, events.Names()...)
	}
}
