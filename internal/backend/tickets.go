package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

// TicketQuery is the filter, sort and page tuple sent to /all-tickets.
type TicketQuery struct {
	From      string `url:"from,omitempty"`
	To        string `url:"to,omitempty"`
	Transport string `url:"transport,omitempty"`
	Sort      string `url:"sort,omitempty"`
	Page      int    `url:"page"`
	Limit     int    `url:"limit"`
}

type TicketInput struct {
	Title         string          `json:"title"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	TransportType string          `json:"transportType"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Departure     time.Time       `json:"departure"`
	Perks         []string        `json:"perks"`
	Image         string          `json:"image,omitempty"`
	VendorName    string          `json:"vendor_name,omitempty"`
	VendorEmail   string          `json:"vendor_email,omitempty"`
}

func (c *Client) ListTickets(ctx context.Context, q TicketQuery) (*domain.TicketPage, error) {
	values, err := query.Values(q)
	if err != nil {
		return nil, errors.Annotate(err, "failed to generate ticket query")
	}
	var page domain.TicketPage
	if err := c.do(ctx, http.MethodGet, "/all-tickets", values, nil, &page); err != nil {
		return nil, err
	}
	if page.TotalPages < 1 {
		page.TotalPages = 1
	}
	return &page, nil
}

func (c *Client) LatestTickets(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/latest-ticket", nil, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) AdvertisedTickets(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/advertised-tickets", nil, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets/"+escape(id), nil, nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (c *Client) CreateTicket(ctx context.Context, in TicketInput) error {
	return c.do(ctx, http.MethodPost, "/tickets", nil, in, nil)
}

func (c *Client) UpdateTicket(ctx context.Context, id string, in TicketInput) error {
	return c.do(ctx, http.MethodPut, "/tickets/"+escape(id), nil, in, nil)
}

func (c *Client) DeleteTicket(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tickets/"+escape(id), nil, nil, nil)
}

func (c *Client) VendorTickets(ctx context.Context, email string) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.do(ctx, http.MethodGet, "/tickets/vendor/"+escape(email), nil, nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}
