package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusAccepted BookingStatus = "accepted"
	BookingStatusRejected BookingStatus = "rejected"
	BookingStatusPaid     BookingStatus = "paid"
)

// CanTransition reports whether moving from s to next is allowed:
// pending -> accepted|rejected, accepted -> paid.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusAccepted || next == BookingStatusRejected
	case BookingStatusAccepted:
		return next == BookingStatusPaid
	default:
		return false
	}
}

type Booking struct {
	ID        string        `json:"_id"`
	TicketID  string        `json:"ticketId"`
	Quantity  int           `json:"quantity"`
	Status    BookingStatus `json:"status"`
	UserEmail string        `json:"user_email"`
	UserName  string        `json:"user_name"`
	CreatedAt time.Time     `json:"created_At"`

	// Ticket snapshot fields, present on list responses.
	Title     string          `json:"title,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Departure time.Time       `json:"departure,omitempty"`
	UnitPrice decimal.Decimal `json:"price,omitempty"`
	Image     string          `json:"image,omitempty"`
}

func (b Booking) Total() decimal.Decimal {
	return b.UnitPrice.Mul(decimal.NewFromInt(int64(b.Quantity)))
}

// Transaction is created by the backend after a completed payment; read-only here.
type Transaction struct {
	ID            string          `json:"_id"`
	TransactionID string          `json:"transactionId"`
	TicketTitle   string          `json:"ticketTitle"`
	Amount        decimal.Decimal `json:"amount"`
	PaidAt        time.Time       `json:"paidAt"`
	Status        string          `json:"status"`
}

type RevenueOverview struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalTicketsSold  int             `json:"totalTicketsSold"`
	TotalTicketsAdded int             `json:"totalTicketsAdded"`
}
