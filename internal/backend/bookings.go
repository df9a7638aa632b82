package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

type BookingInput struct {
	TicketID  string               `json:"ticketId"`
	Quantity  int                  `json:"quantity"`
	Status    domain.BookingStatus `json:"status"`
	UserEmail string               `json:"user_email"`
	UserName  string               `json:"user_name"`
	CreatedAt time.Time            `json:"created_At"`
}

func (c *Client) CreateBooking(ctx context.Context, in BookingInput) error {
	if in.Status == "" {
		in.Status = domain.BookingStatusPending
	}
	return c.do(ctx, http.MethodPost, "/booked-tickets", nil, in, nil)
}

func (c *Client) UserBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if err := c.do(ctx, http.MethodGet, "/booked-tickets/"+escape(email), nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) VendorBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if err := c.do(ctx, http.MethodGet, "/vendor/bookings/"+escape(email), nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) AcceptBooking(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/bookings/accept/"+escape(id), nil, nil, nil)
}

func (c *Client) RejectBooking(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/bookings/reject/"+escape(id), nil, nil, nil)
}
