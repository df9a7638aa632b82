package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBookingStatus_CanTransition(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		ok       bool
	}{
		{BookingStatusPending, BookingStatusAccepted, true},
		{BookingStatusPending, BookingStatusRejected, true},
		{BookingStatusPending, BookingStatusPaid, false},
		{BookingStatusAccepted, BookingStatusPaid, true},
		{BookingStatusAccepted, BookingStatusRejected, false},
		{BookingStatusRejected, BookingStatusAccepted, false},
		{BookingStatusPaid, BookingStatusPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTicket_Bookable(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ticket := Ticket{Quantity: 3, Departure: now.Add(time.Hour)}
	assert.True(t, ticket.Bookable(now))

	ticket.Quantity = 0
	assert.False(t, ticket.Bookable(now))

	ticket.Quantity = 3
	ticket.Departure = now
	assert.False(t, ticket.Bookable(now))
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole(" Admin "))
	assert.Equal(t, RoleVendor, ParseRole("vendor"))
	assert.Equal(t, RoleNone, ParseRole("superuser"))
	assert.Equal(t, "none", RoleNone.String())
}

func TestTicketStatus_Normalize(t *testing.T) {
	assert.Equal(t, TicketStatusApproved, TicketStatus("accepted").Normalize())
	assert.Equal(t, TicketStatusApproved, TicketStatus("Approved").Normalize())
	assert.Equal(t, TicketStatusPending, TicketStatus("").Normalize())
}

func TestBooking_Total(t *testing.T) {
	b := Booking{Quantity: 3, UnitPrice: decimal.RequireFromString("450.50")}
	assert.True(t, decimal.RequireFromString("1351.50").Equal(b.Total()))
}
