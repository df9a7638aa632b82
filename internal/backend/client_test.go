package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, time.Second)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", time.Second)
	assert.Error(t, err)
}

func TestClient_ListTickets_Query(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/all-tickets", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"tickets":[{"_id":"t1","title":"Green Line","price":"650"}],"totalPages":3}`))
	})

	page, err := c.ListTickets(context.Background(), TicketQuery{From: "Dhaka", To: "Sylhet", Page: 1, Limit: 6})
	require.NoError(t, err)

	assert.Equal(t, "from=Dhaka&limit=6&page=1&to=Sylhet", gotQuery)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Tickets, 1)
	assert.Equal(t, "t1", page.Tickets[0].ID)
	assert.Equal(t, "650", page.Tickets[0].Price.String())
}

func TestClient_ListTickets_TotalPagesFloor(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tickets":[],"totalPages":0}`))
	})

	page, err := c.ListTickets(context.Background(), TicketQuery{Page: 1, Limit: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalPages)
	assert.Empty(t, page.Tickets)
}

func TestClient_BearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"role":"vendor"}`))
	})

	role, err := c.Role(WithToken(context.Background(), "tok-1"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleVendor, role)
}

func TestClient_ErrorKinds(t *testing.T) {
	cases := []struct {
		status int
		kind   error
	}{
		{http.StatusNotFound, errors.NotFound},
		{http.StatusUnauthorized, errors.Unauthorized},
		{http.StatusForbidden, errors.Forbidden},
		{http.StatusBadRequest, errors.BadRequest},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		_, err := c.GetTicket(context.Background(), "abc123")
		require.Error(t, err)
		assert.True(t, errors.Is(err, tc.kind), "status %d", tc.status)
	}
}

func TestClient_ServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/admin/tickets/advertise/t9", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"You can't advertise more than 6 tickets"}`))
	})

	err := c.ToggleAdvertise(context.Background(), "t9")
	require.Error(t, err)
	assert.Equal(t, "You can't advertise more than 6 tickets", ServerMessage(err, "Cannot advertise more tickets"))
	assert.Equal(t, "fallback", ServerMessage(errors.New("network down"), "fallback"))
}

func TestClient_CreateBooking_DefaultsPending(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/booked-tickets", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "pending", body["status"])
		assert.Equal(t, "t1", body["ticketId"])
		assert.EqualValues(t, 2, body["quantity"])
		w.WriteHeader(http.StatusCreated)
	})

	err := c.CreateBooking(context.Background(), BookingInput{TicketID: "t1", Quantity: 2, UserEmail: "u@x.com"})
	assert.NoError(t, err)
}

func TestClient_CompletePayment(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cs_test_1", body["sessionId"])
		w.Write([]byte(`{"transactionId":"pi_123"}`))
	})

	res, err := c.CompletePayment(context.Background(), "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", res.TransactionID)
}
