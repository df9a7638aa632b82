package kafka

import (
	"context"
	"time"

	"github.com/juju/clock"
)

type EventType string

const (
	BookingRequested  EventType = "booking.requested"
	BookingAccepted   EventType = "booking.accepted"
	BookingRejected   EventType = "booking.rejected"
	PaymentCompleted  EventType = "payment.completed"
	TicketApproved    EventType = "ticket.approved"
	TicketRejected    EventType = "ticket.rejected"
	VendorMarkedFraud EventType = "vendor.fraud"
)

// Event is a notification about a completed mutation, addressed to Email.
type Event struct {
	Type      EventType `json:"type"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	At        time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

// Notifier publishes events after successful mutations. Publishing is
// best effort: after a few attempts a failure is logged and never fails
// the mutation.
type Notifier struct {
	publisher Publisher
	topic     string
	clock     clock.Clock
	attempts  int
}

type NotifierOption func(*Notifier)

// WithAttempts bounds how many times one event is published before it is
// dropped.
func WithAttempts(n int) NotifierOption {
	return func(nt *Notifier) {
		if n > 0 {
			nt.attempts = n
		}
	}
}

func NewNotifier(publisher Publisher, topic string, clk clock.Clock, opts ...NotifierOption) *Notifier {
	n := &Notifier{publisher: publisher, topic: topic, clock: clk, attempts: 3}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) Notify(ctx context.Context, ev Event) {
	if n == nil || n.publisher == nil || n.topic == "" || ev.Email == "" {
		return
	}
	if ev.At.IsZero() {
		ev.At = n.clock.Now()
	}
	if err := PublishWithRetry(context.WithoutCancel(ctx), n.publisher, n.clock, n.topic, ev.Email, ev, n.attempts); err != nil {
		logger.Warningf("publishing %s for %s: %v", ev.Type, ev.Email, err)
	}
}
