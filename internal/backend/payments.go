package backend

import (
	"context"
	"net/http"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

type checkoutRequest struct {
	BookingID string `json:"bookingId"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession asks the API for a hosted checkout URL for an
// accepted booking.
func (c *Client) CreateCheckoutSession(ctx context.Context, bookingID string) (string, error) {
	var resp checkoutResponse
	if err := c.do(ctx, http.MethodPost, "/create-checkout-session", nil, checkoutRequest{BookingID: bookingID}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

type paymentSuccessRequest struct {
	SessionID string `json:"sessionId"`
}

type PaymentResult struct {
	TransactionID string `json:"transactionId"`
}

// CompletePayment reports a finished checkout session to the API.
func (c *Client) CompletePayment(ctx context.Context, sessionID string) (*PaymentResult, error) {
	var res PaymentResult
	if err := c.do(ctx, http.MethodPost, "/payment-success", nil, paymentSuccessRequest{SessionID: sessionID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Transactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	var txs []domain.Transaction
	if err := c.do(ctx, http.MethodGet, "/transactions/"+escape(email), nil, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

func (c *Client) RevenueOverview(ctx context.Context, email string) (*domain.RevenueOverview, error) {
	var overview domain.RevenueOverview
	if err := c.do(ctx, http.MethodGet, "/vendor/revenue-overview/"+escape(email), nil, nil, &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}
