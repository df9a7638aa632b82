package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketStatusPending  TicketStatus = "pending"
	TicketStatusApproved TicketStatus = "approved"
	TicketStatusRejected TicketStatus = "rejected"
)

// Normalize folds the "accepted" spelling some API responses use into approved.
func (s TicketStatus) Normalize() TicketStatus {
	switch strings.ToLower(string(s)) {
	case "accepted", "approved":
		return TicketStatusApproved
	case "rejected":
		return TicketStatusRejected
	default:
		return TicketStatusPending
	}
}

var TransportTypes = []string{"Bus", "Train", "Plane", "Launch"}

var Perks = []string{"AC", "Breakfast", "Wi-Fi", "Snacks"}

type Ticket struct {
	ID            string          `json:"_id"`
	Title         string          `json:"title"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	TransportType string          `json:"transportType"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Departure     time.Time       `json:"departure"`
	Perks         []string        `json:"perks"`
	Image         string          `json:"image"`
	VendorName    string          `json:"vendor_name"`
	VendorEmail   string          `json:"vendor_email"`
	Status        TicketStatus    `json:"status"`
	Advertised    bool            `json:"advertised"`
	Hidden        bool            `json:"hidden"`
}

// Departed reports whether the departure time is at or before now.
func (t Ticket) Departed(now time.Time) bool {
	return !t.Departure.After(now)
}

func (t Ticket) SoldOut() bool {
	return t.Quantity <= 0
}

// Bookable reports whether a booking may be requested for the ticket at now.
func (t Ticket) Bookable(now time.Time) bool {
	return !t.Departed(now) && !t.SoldOut()
}

// TicketPage is one page of the filtered ticket listing.
type TicketPage struct {
	Tickets    []Ticket `json:"tickets"`
	TotalPages int      `json:"totalPages"`
}
