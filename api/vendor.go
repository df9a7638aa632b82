package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"github.com/Domenick1991/ticketbari/internal/cache"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/forms"
	"github.com/Domenick1991/ticketbari/internal/guard"
	"github.com/Domenick1991/ticketbari/internal/kafka"
	"github.com/Domenick1991/ticketbari/internal/metrics"
)

type VendorHandler struct {
	*pages
	tickets   TicketAPI
	bookings  BookingAPI
	payments  PaymentAPI
	users     UserAPI
	submitter *forms.Submitter
	notifier  Notifier
	loc       *time.Location
}

func NewVendorHandler(p *pages, api Backend, submitter *forms.Submitter, notifier Notifier, loc *time.Location) *VendorHandler {
	return &VendorHandler{
		pages:     p,
		tickets:   api,
		bookings:  api,
		payments:  api,
		users:     api,
		submitter: submitter,
		notifier:  notifier,
		loc:       loc,
	}
}

// Register mounts the vendor pages on a group guarded by RequireVendor.
func (h *VendorHandler) Register(router *gin.RouterGroup) {
	router.GET("/add-ticket", h.addTicketPage)
	router.POST("/add-ticket", h.addTicket)
	router.GET("/my-tickets", h.myTickets)
	router.GET("/my-tickets/:id/edit", h.editTicketPage)
	router.POST("/my-tickets/:id/edit", h.editTicket)
	router.POST("/my-tickets/:id/delete", h.deleteTicket)
	router.GET("/requests", h.requests)
	router.POST("/requests/:id/accept", h.decide(domain.BookingStatusAccepted))
	router.POST("/requests/:id/reject", h.decide(domain.BookingStatusRejected))
	router.GET("/revenue", h.revenue)
}

type ticketFormPage struct {
	Form       forms.TicketForm
	Action     string
	Allowed    bool
	Blocked    string
	Transports []string
	Perks      []string
	Vendor     domain.Identity
	Errors     forms.FieldErrors
	Error      string
}

func (h *VendorHandler) formPage(c *gin.Context, form forms.TicketForm, action string) ticketFormPage {
	return ticketFormPage{
		Form:       form,
		Action:     action,
		Allowed:    true,
		Transports: domain.TransportTypes,
		Perks:      domain.Perks,
		Vendor:     identity(c),
	}
}

// gate looks up the vendor's profile. A fraud vendor gets the blocked
// message instead of the form.
func (h *VendorHandler) gate(c *gin.Context, page *ticketFormPage) bool {
	profile, err := h.users.GetUser(guard.Context(c), identity(c).Email)
	if err != nil {
		h.fail(c, err)
		return false
	}
	page.Allowed, page.Blocked = forms.VendorGate(profile)
	return true
}

func (h *VendorHandler) addTicketPage(c *gin.Context) {
	page := h.formPage(c, forms.TicketForm{}, "/dashboard/vendor/add-ticket")
	if !h.gate(c, &page) {
		return
	}
	h.render(c, http.StatusOK, "add_ticket", "Add Ticket", page)
}

func (h *VendorHandler) addTicket(c *gin.Context) {
	var form forms.TicketForm
	_ = c.ShouldBind(&form)
	page := h.formPage(c, form, "/dashboard/vendor/add-ticket")
	if !h.gate(c, &page) {
		return
	}
	if !page.Allowed {
		h.render(c, http.StatusForbidden, "add_ticket", "Add Ticket", page)
		return
	}

	errs := page.Form.Validate()
	img, err := imageFromRequest(c, "image")
	switch {
	case err != nil:
		errs.Add("image", err.Error())
	case img == nil:
		errs.Add("image", "Image is required")
	}
	if !errs.Empty() {
		page.Errors = errs
		h.render(c, http.StatusUnprocessableEntity, "add_ticket", "Add Ticket", page)
		return
	}

	vendor := identity(c)
	outcome := h.submitter.Submit(guard.Context(c), forms.Submission{
		Name:  "add-ticket",
		Image: img,
		Mutate: func(ctx context.Context, imageURL string) error {
			in, err := page.Form.Input(imageURL, vendor, h.loc)
			if err != nil {
				return errors.Annotate(err, "building ticket")
			}
			return h.tickets.CreateTicket(ctx, in)
		},
		Success:  "Ticket added successfully!",
		Fallback: "Failed to add ticket.",
	})
	if !outcome.OK() {
		page.Error = outcome.Message
		h.render(c, http.StatusUnprocessableEntity, "add_ticket", "Add Ticket", page)
		return
	}
	h.invalidate(c, cache.ScopeTickets)
	h.flash(c, "success", outcome.Message)
	c.Redirect(http.StatusSeeOther, "/dashboard/vendor/my-tickets")
}

type StatusTab struct {
	Label  string
	Href   string
	Count  int
	Active bool
}

type myTicketsPage struct {
	Tickets []domain.Ticket
	Tabs    []StatusTab
}

var ticketTabs = []struct {
	label  string
	status domain.TicketStatus
}{
	{"All", ""},
	{"Pending", domain.TicketStatusPending},
	{"Approved", domain.TicketStatusApproved},
	{"Rejected", domain.TicketStatusRejected},
}

func (h *VendorHandler) myTickets(c *gin.Context) {
	all, err := h.tickets.VendorTickets(guard.Context(c), identity(c).Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	selected := domain.TicketStatus(c.Query("status"))
	if selected != "" {
		selected = selected.Normalize()
	}
	h.render(c, http.StatusOK, "my_tickets", "My Added Tickets", filterTickets(all, selected))
}

func filterTickets(all []domain.Ticket, selected domain.TicketStatus) myTicketsPage {
	var page myTicketsPage
	counts := map[domain.TicketStatus]int{}
	for _, t := range all {
		st := t.Status.Normalize()
		counts[st]++
		if selected == "" || st == selected {
			page.Tickets = append(page.Tickets, t)
		}
	}
	for _, tab := range ticketTabs {
		href := "/dashboard/vendor/my-tickets"
		count := len(all)
		if tab.status != "" {
			href += "?status=" + string(tab.status)
			count = counts[tab.status]
		}
		page.Tabs = append(page.Tabs, StatusTab{Label: tab.label, Href: href, Count: count, Active: tab.status == selected})
	}
	return page
}

// owned fetches a ticket the signed-in vendor may change. Rejected
// tickets are read-only.
func (h *VendorHandler) owned(c *gin.Context) (*domain.Ticket, bool) {
	ticket, err := h.tickets.GetTicket(guard.Context(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	if ticket.VendorEmail != identity(c).Email {
		h.fail(c, errors.Forbiddenf("ticket %s", ticket.ID))
		return nil, false
	}
	if ticket.Status.Normalize() == domain.TicketStatusRejected {
		h.flash(c, "error", "Rejected tickets cannot be changed.")
		c.Redirect(http.StatusSeeOther, "/dashboard/vendor/my-tickets")
		return nil, false
	}
	return ticket, true
}

func (h *VendorHandler) editTicketPage(c *gin.Context) {
	ticket, ok := h.owned(c)
	if !ok {
		return
	}
	page := h.formPage(c, forms.TicketFormFrom(*ticket, h.loc), c.Request.URL.Path)
	h.render(c, http.StatusOK, "edit_ticket", "Update Ticket", page)
}

func (h *VendorHandler) editTicket(c *gin.Context) {
	ticket, ok := h.owned(c)
	if !ok {
		return
	}
	var form forms.TicketForm
	_ = c.ShouldBind(&form)
	form.Image = ticket.Image
	page := h.formPage(c, form, c.Request.URL.Path)

	errs := page.Form.Validate()
	img, err := imageFromRequest(c, "image")
	if err != nil {
		errs.Add("image", err.Error())
	}
	if !errs.Empty() {
		page.Errors = errs
		h.render(c, http.StatusUnprocessableEntity, "edit_ticket", "Update Ticket", page)
		return
	}

	vendor := identity(c)
	outcome := h.submitter.Submit(guard.Context(c), forms.Submission{
		Name:  "update-ticket",
		Image: img,
		Mutate: func(ctx context.Context, imageURL string) error {
			in, err := page.Form.Input(imageURL, vendor, h.loc)
			if err != nil {
				return errors.Annotate(err, "building ticket")
			}
			return h.tickets.UpdateTicket(ctx, ticket.ID, in)
		},
		Success:  "Ticket updated successfully!",
		Fallback: "Failed to update ticket.",
	})
	if !outcome.OK() {
		page.Error = outcome.Message
		h.render(c, http.StatusUnprocessableEntity, "edit_ticket", "Update Ticket", page)
		return
	}
	h.invalidate(c, cache.ScopeTickets, cache.ScopeAdvertise)
	h.flash(c, "success", outcome.Message)
	c.Redirect(http.StatusSeeOther, "/dashboard/vendor/my-tickets")
}

func (h *VendorHandler) deleteTicket(c *gin.Context) {
	ticket, ok := h.owned(c)
	if !ok {
		return
	}
	err := h.tickets.DeleteTicket(guard.Context(c), ticket.ID)
	metrics.Mutation("delete-ticket", err)
	if err != nil {
		h.flash(c, "error", serverMessage(err, "Failed to delete ticket."))
	} else {
		h.invalidate(c, cache.ScopeTickets, cache.ScopeAdvertise)
		h.flash(c, "success", "Ticket deleted.")
	}
	c.Redirect(http.StatusSeeOther, "/dashboard/vendor/my-tickets")
}

type requestsPage struct {
	Bookings []domain.Booking
}

func (h *VendorHandler) requests(c *gin.Context) {
	bookings, err := h.bookings.VendorBookings(guard.Context(c), identity(c).Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "requests", "Requested Bookings", requestsPage{Bookings: bookings})
}

// decide accepts or rejects one of the vendor's pending bookings. The
// booking is looked up in the vendor's own requests; that row addresses
// the buyer's notification.
func (h *VendorHandler) decide(next domain.BookingStatus) gin.HandlerFunc {
	act, event, done := h.bookings.AcceptBooking, kafka.BookingAccepted, "Booking accepted."
	if next == domain.BookingStatusRejected {
		act, event, done = h.bookings.RejectBooking, kafka.BookingRejected, "Booking rejected."
	}
	return func(c *gin.Context) {
		id := c.Param("id")
		booking, err := h.vendorBooking(c, id)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !booking.Status.CanTransition(next) {
			h.flash(c, "error", "This booking is already "+string(booking.Status)+".")
			c.Redirect(http.StatusSeeOther, "/dashboard/vendor/requests")
			return
		}
		err = act(guard.Context(c), id)
		metrics.Mutation("booking-"+string(next), err)
		if err != nil {
			h.flash(c, "error", serverMessage(err, "Could not update the booking."))
			c.Redirect(http.StatusSeeOther, "/dashboard/vendor/requests")
			return
		}
		h.notifier.Notify(c.Request.Context(), kafka.Event{
			Type:      event,
			Email:     booking.UserEmail,
			Subject:   booking.Title,
			Reference: id,
			Actor:     identity(c).Email,
		})
		h.flash(c, "success", done)
		c.Redirect(http.StatusSeeOther, "/dashboard/vendor/requests")
	}
}

func (h *VendorHandler) vendorBooking(c *gin.Context, id string) (*domain.Booking, error) {
	bookings, err := h.bookings.VendorBookings(guard.Context(c), identity(c).Email)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].ID == id {
			return &bookings[i], nil
		}
	}
	return nil, errors.NotFoundf("booking %q", id)
}

type revenuePage struct {
	Overview domain.RevenueOverview
	// Bars are percentages of the largest metric, for the chart.
	SoldBar  int
	AddedBar int
}

func (h *VendorHandler) revenue(c *gin.Context) {
	ov, err := h.payments.RevenueOverview(guard.Context(c), identity(c).Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	page := revenuePage{Overview: *ov}
	if top := max(ov.TotalTicketsSold, ov.TotalTicketsAdded); top > 0 {
		page.SoldBar = ov.TotalTicketsSold * 100 / top
		page.AddedBar = ov.TotalTicketsAdded * 100 / top
	}
	h.render(c, http.StatusOK, "revenue", "Revenue Overview", page)
}
