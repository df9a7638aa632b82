package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/forms"
	"github.com/Domenick1991/ticketbari/internal/kafka"
	"github.com/Domenick1991/ticketbari/internal/query"
)

func TestAddTicket_FraudVendorBlocked(t *testing.T) {
	h := newHarness(t, vendor, query.Done(domain.RoleVendor))
	h.backend.On("GetUser", mock.Anything, vendor.Email).Return(&domain.UserProfile{Email: vendor.Email, IsFraud: true}, nil)

	w := h.do(http.MethodGet, "/dashboard/vendor/add-ticket", nil, sessionCookie())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), forms.FraudMessage)
	assert.NotContains(t, w.Body.String(), `name="title"`)

	w = h.do(http.MethodPost, "/dashboard/vendor/add-ticket", url.Values{"title": {"x"}}, sessionCookie())
	assert.Equal(t, http.StatusForbidden, w.Code)
	h.backend.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
}

func TestAddTicket_InvalidFormKeepsValues(t *testing.T) {
	h := newHarness(t, vendor, query.Done(domain.RoleVendor))
	h.backend.On("GetUser", mock.Anything, vendor.Email).Return(&domain.UserProfile{Email: vendor.Email}, nil)

	w := h.do(http.MethodPost, "/dashboard/vendor/add-ticket", url.Values{
		"title": {"Night Coach"},
		"from":  {"Dhaka"},
		"to":    {"Dhaka"},
	}, sessionCookie())

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `value="Night Coach"`)
	assert.Contains(t, body, "From and To must differ")
	assert.Contains(t, body, "Image is required")
	h.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
}

func TestMyTickets_Tabs(t *testing.T) {
	page := filterTickets([]domain.Ticket{
		{ID: "1", Status: domain.TicketStatusPending},
		{ID: "2", Status: "accepted"},
		{ID: "3", Status: domain.TicketStatusRejected},
		{ID: "4", Status: domain.TicketStatusApproved},
	}, domain.TicketStatusApproved)

	require.Len(t, page.Tickets, 2)
	assert.Equal(t, "2", page.Tickets[0].ID)
	require.Len(t, page.Tabs, 4)
	assert.Equal(t, 4, page.Tabs[0].Count)
	assert.Equal(t, 2, page.Tabs[2].Count)
	assert.True(t, page.Tabs[2].Active)
	assert.Equal(t, "/dashboard/vendor/my-tickets?status=approved", page.Tabs[2].Href)
}

func TestEditTicket_OtherVendorsTicketForbidden(t *testing.T) {
	h := newHarness(t, vendor, query.Done(domain.RoleVendor))
	ticket := sampleTicket()
	ticket.VendorEmail = "someone@example.com"
	h.backend.On("GetTicket", mock.Anything, "abc123").Return(ticket, nil)

	w := h.do(http.MethodGet, "/dashboard/vendor/my-tickets/abc123/edit", nil, sessionCookie())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestDeleteTicket_RejectedIsReadOnly(t *testing.T) {
	h := newHarness(t, vendor, query.Done(domain.RoleVendor))
	ticket := sampleTicket()
	ticket.Status = domain.TicketStatusRejected
	h.backend.On("GetTicket", mock.Anything, "abc123").Return(ticket, nil)

	w := h.do(http.MethodPost, "/dashboard/vendor/my-tickets/abc123/delete", url.Values{}, sessionCookie())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	h.backend.AssertNotCalled(t, "DeleteTicket", mock.Anything, mock.Anything)
}

func TestRequests_AcceptNotifiesBuyer(t *testing.T) {
	h := newHarness(t, vendor, query.Done(domain.RoleVendor))
	h.backend.On("VendorBookings", mock.Anything, vendor.Email).Return([]domain.Booking{
		{ID: "b1", Status: domain.BookingStatusPending, UserEmail: buyer.Email, Title: "Dhaka Express"},
	}, nil)
	h.backend.On("AcceptBooking", mock.Anything, "b1").Return(nil)

	// Form fields never address the notification.
	w := h.do(http.MethodPost, "/dashboard/vendor/requests/b1/accept", url.Values{
		"email": {"someone@else.com"},
		"title": {"Forged"},
	}, sessionCookie())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	events := h.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, kafka.BookingAccepted, events[0].Type)
	assert.Equal(t, buyer.Email, events[0].Email)
	assert.Equal(t, "Dhaka Express", events[0].Subject)
}

func TestRequests_UnknownBookingNotFound(t *testing.T) {
	h := newHarness(t, vendor, query.Done(domain.RoleVendor))
	h.backend.On("VendorBookings", mock.Anything, vendor.Email).Return([]domain.Booking{}, nil)

	w := h.do(http.MethodPost, "/dashboard/vendor/requests/b9/reject", nil, sessionCookie())

	assert.Equal(t, http.StatusNotFound, w.Code)
	h.backend.AssertNotCalled(t, "RejectBooking", mock.Anything, mock.Anything)
	assert.Empty(t, h.notifier.Events())
}

func TestRequests_OnlyValidTransitions(t *testing.T) {
	h := newHarness(t, vendor, query.Done(domain.RoleVendor))
	h.backend.On("VendorBookings", mock.Anything, vendor.Email).Return([]domain.Booking{
		{ID: "b1", Status: domain.BookingStatusPending, UserEmail: buyer.Email},
		{ID: "b2", Status: domain.BookingStatusAccepted, UserEmail: buyer.Email},
	}, nil)

	w := h.do(http.MethodGet, "/dashboard/vendor/requests", nil, sessionCookie())
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "/dashboard/vendor/requests/b1/accept")
	assert.Contains(t, body, "/dashboard/vendor/requests/b1/reject")
	assert.NotContains(t, body, "/dashboard/vendor/requests/b2/accept")
	assert.NotContains(t, body, "/dashboard/vendor/requests/b2/reject")

	w = h.do(http.MethodPost, "/dashboard/vendor/requests/b2/reject", nil, sessionCookie())
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard/vendor/requests", w.Header().Get("Location"))
	h.backend.AssertNotCalled(t, "RejectBooking", mock.Anything, mock.Anything)
	assert.Empty(t, h.notifier.Events())
}

func TestRevenue_Bars(t *testing.T) {
	h := newHarness(t, vendor, query.Done(domain.RoleVendor))
	h.backend.On("RevenueOverview", mock.Anything, vendor.Email).
		Return(&domain.RevenueOverview{TotalTicketsSold: 5, TotalTicketsAdded: 20}, nil)

	w := h.do(http.MethodGet, "/dashboard/vendor/revenue", nil, sessionCookie())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "width:25%")
	assert.Contains(t, w.Body.String(), "width:100%")
}
