package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/forms"
	"github.com/Domenick1991/ticketbari/internal/guard"
	"github.com/Domenick1991/ticketbari/internal/kafka"
	"github.com/Domenick1991/ticketbari/internal/metrics"
	"github.com/Domenick1991/ticketbari/internal/ticker"
)

const paymentClaimTTL = 24 * time.Hour

type Clock interface {
	Now() time.Time
	Subscribe() (<-chan time.Time, func())
}

var _ Clock = (*ticker.Ticker)(nil)

type TicketHandler struct {
	*pages
	tickets  TicketAPI
	bookings BookingAPI
	payments PaymentAPI
	notifier Notifier
	clock    Clock
}

func NewTicketHandler(p *pages, tickets TicketAPI, bookings BookingAPI, payments PaymentAPI, notifier Notifier, clock Clock) *TicketHandler {
	return &TicketHandler{
		pages:    p,
		tickets:  tickets,
		bookings: bookings,
		payments: payments,
		notifier: notifier,
		clock:    clock,
	}
}

// Register mounts the ticket pages on a group that already requires a
// signed-in session.
func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.GET("/ticket/:id", h.details)
	router.POST("/ticket/:id/book", h.book)
}

// RegisterPublic mounts the routes that need no session.
func (h *TicketHandler) RegisterPublic(router *gin.RouterGroup) {
	router.GET("/payment-success", h.paymentSuccess)
	router.GET("/countdown", h.countdown)
}

type ticketPage struct {
	Ticket   domain.Ticket
	Bookable bool
	Form     forms.BookingForm
	Errors   forms.FieldErrors
	Error    string
}

func (h *TicketHandler) details(c *gin.Context) {
	ticket, err := h.tickets.GetTicket(guard.Context(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "ticket", ticket.Title, ticketPage{
		Ticket:   *ticket,
		Bookable: ticket.Bookable(h.clock.Now()),
		Form:     forms.BookingForm{Quantity: "1"},
	})
}

func (h *TicketHandler) book(c *gin.Context) {
	ctx := guard.Context(c)
	ticket, err := h.tickets.GetTicket(ctx, c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	var form forms.BookingForm
	_ = c.ShouldBind(&form)
	page := ticketPage{Ticket: *ticket, Bookable: ticket.Bookable(h.clock.Now()), Form: form}

	if !page.Bookable {
		page.Error = "This ticket can no longer be booked."
		h.render(c, http.StatusUnprocessableEntity, "ticket", ticket.Title, page)
		return
	}

	qty, errs := form.Validate(*ticket)
	if !errs.Empty() {
		page.Errors = errs
		h.render(c, http.StatusUnprocessableEntity, "ticket", ticket.Title, page)
		return
	}

	user := identity(c)
	err = h.bookings.CreateBooking(ctx, form.Input(ticket.ID, qty, user))
	metrics.Mutation("book-ticket", err)
	if err != nil {
		logger.Warningf("booking %s for %s: %v", ticket.ID, user.Email, err)
		page.Error = serverMessage(err, "Booking failed. Please try again.")
		h.render(c, http.StatusUnprocessableEntity, "ticket", ticket.Title, page)
		return
	}

	h.notifier.Notify(ctx, kafka.Event{
		Type:      kafka.BookingRequested,
		Email:     ticket.VendorEmail,
		Subject:   ticket.Title,
		Reference: ticket.ID,
		Actor:     user.Email,
	})
	h.flash(c, "success", "Booking request submitted!")
	c.Redirect(http.StatusSeeOther, "/dashboard/my-bookings")
}

type paymentPage struct {
	TransactionID string
	Error         string
}

// paymentSuccess reports the checkout session to the API once it has
// been confirmed; reloads after a success do not report it again. A
// failed report releases the claim so the next visit retries.
func (h *TicketHandler) paymentSuccess(c *gin.Context) {
	sessionID := c.Query("session_id")
	var page paymentPage
	if sessionID != "" {
		first, err := h.store.ClaimOnce(c.Request.Context(), "payment:"+sessionID, paymentClaimTTL)
		if err != nil {
			logger.Warningf("claiming payment %s: %v", sessionID, err)
			first = true
		}
		if first {
			res, err := h.payments.CompletePayment(guard.Context(c), sessionID)
			metrics.Mutation("payment-success", err)
			if err != nil {
				logger.Errorf("completing payment %s: %v", sessionID, err)
				if err := h.store.Release(c.Request.Context(), "payment:"+sessionID); err != nil {
					logger.Warningf("releasing payment %s: %v", sessionID, err)
				}
				page.Error = serverMessage(err, "We could not confirm your payment yet. It will appear in your transactions once processed.")
			} else {
				page.TransactionID = res.TransactionID
				h.notifier.Notify(c.Request.Context(), kafka.Event{
					Type:      kafka.PaymentCompleted,
					Email:     identity(c).Email,
					Reference: res.TransactionID,
				})
			}
		}
	}
	h.render(c, http.StatusOK, "payment_success", "Payment Success", page)
}

// countdown streams the time left until each "at" departure, one event
// per tick of the shared clock, until every departure has passed or the
// client goes away.
func (h *TicketHandler) countdown(c *gin.Context) {
	var departures []time.Time
	for _, v := range c.QueryArray("at") {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			departures = append(departures, t)
		}
		if len(departures) == 50 {
			break
		}
	}
	if len(departures) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	ticks, cancel := h.clock.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-store")
	c.Header("X-Accel-Buffering", "no")
	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case now, ok := <-ticks:
			if !ok {
				return false
			}
			left := make([]string, len(departures))
			live := false
			for i, d := range departures {
				left[i] = ticker.Countdown(d, now)
				live = live || d.After(now)
			}
			c.SSEvent("tick", left)
			return live
		}
	})
}
