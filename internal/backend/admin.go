package backend

import (
	"context"
	"net/http"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

func (c *Client) AdminTickets(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/admin/tickets", nil, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) ApproveTicket(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/tickets/approve/"+escape(id), nil, nil, nil)
}

func (c *Client) RejectTicket(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/tickets/reject/"+escape(id), nil, nil, nil)
}

// AdvertiseCandidates lists approved tickets with their advertised flag.
func (c *Client) AdvertiseCandidates(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/admin/advertise-tickets", nil, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// ToggleAdvertise flips the advertised flag. The server rejects the call when
// the advertise-slot limit is reached.
func (c *Client) ToggleAdvertise(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/tickets/advertise/"+escape(id), nil, nil, nil)
}

func (c *Client) AdminUsers(ctx context.Context) ([]domain.UserProfile, error) {
	var users []domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) MakeAdmin(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/users/make-admin/"+escape(id), nil, nil, nil)
}

func (c *Client) MakeVendor(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/users/make-vendor/"+escape(id), nil, nil, nil)
}

func (c *Client) MarkFraud(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/admin/users/mark-fraud/"+escape(id), nil, nil, nil)
}
