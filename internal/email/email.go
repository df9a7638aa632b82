// Package email turns marketplace events into notification emails.
package email

import (
	"bytes"
	"context"
	"text/template"

	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/Domenick1991/ticketbari/internal/kafka"
)

var logger = loggo.GetLogger("ticketbari.email")

type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers a rendered message.
type Transport interface {
	Deliver(ctx context.Context, m Message) error
}

// LogTransport writes messages to the log instead of sending them.
type LogTransport struct{}

func (LogTransport) Deliver(_ context.Context, m Message) error {
	logger.Infof("email to %s: %s\n%s", m.To, m.Subject, m.Body)
	return nil
}

type content struct {
	subject string
	body    *template.Template
}

var contents = map[kafka.EventType]content{
	kafka.BookingRequested: {
		subject: "New booking request",
		body:    template.Must(template.New("").Parse("{{.Actor}} requested a booking for {{.Subject}}. Review it under Requested Bookings.")),
	},
	kafka.BookingAccepted: {
		subject: "Your booking was accepted",
		body:    template.Must(template.New("").Parse("Your booking for {{.Subject}} was accepted. Complete the payment from My Booked Tickets.")),
	},
	kafka.BookingRejected: {
		subject: "Your booking was rejected",
		body:    template.Must(template.New("").Parse("Your booking for {{.Subject}} was rejected by the vendor.")),
	},
	kafka.PaymentCompleted: {
		subject: "Payment received",
		body:    template.Must(template.New("").Parse("We received your payment. Transaction ID: {{.Reference}}.")),
	},
	kafka.TicketApproved: {
		subject: "Ticket approved",
		body:    template.Must(template.New("").Parse("Your ticket {{.Subject}} was approved and is now listed.")),
	},
	kafka.TicketRejected: {
		subject: "Ticket rejected",
		body:    template.Must(template.New("").Parse("Your ticket {{.Subject}} was rejected by an admin.")),
	},
	kafka.VendorMarkedFraud: {
		subject: "Account restricted",
		body:    template.Must(template.New("").Parse("Your vendor account was marked as fraud. Your tickets are hidden and you cannot add new tickets.")),
	},
}

type Sender struct {
	transport Transport
}

func NewSender(t Transport) *Sender {
	if t == nil {
		t = LogTransport{}
	}
	return &Sender{transport: t}
}

// Render builds the message for ev. ok is false for events that produce
// no email.
func Render(ev kafka.Event) (Message, bool, error) {
	c, found := contents[ev.Type]
	if !found {
		return Message{}, false, nil
	}
	var buf bytes.Buffer
	if err := c.body.Execute(&buf, ev); err != nil {
		return Message{}, false, errors.Annotatef(err, "rendering %s", ev.Type)
	}
	return Message{To: ev.Email, Subject: "TicketBari: " + c.subject, Body: buf.String()}, true, nil
}

func (s *Sender) Send(ctx context.Context, ev kafka.Event) error {
	msg, ok, err := Render(ev)
	if err != nil {
		return err
	}
	if !ok {
		logger.Debugf("no email for event %s", ev.Type)
		return nil
	}
	return errors.Trace(s.transport.Deliver(ctx, msg))
}
