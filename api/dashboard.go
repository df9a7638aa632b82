package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/forms"
	"github.com/Domenick1991/ticketbari/internal/guard"
	"github.com/Domenick1991/ticketbari/internal/metrics"
	"github.com/Domenick1991/ticketbari/internal/query"
)

// DashboardHandler serves the pages every signed-in role shares.
type DashboardHandler struct {
	*pages
	sessions Sessions
	bookings BookingAPI
	payments PaymentAPI
	users    UserAPI
	uploader forms.Uploader
}

func NewDashboardHandler(p *pages, sessions Sessions, bookings BookingAPI, payments PaymentAPI, users UserAPI, uploader forms.Uploader) *DashboardHandler {
	return &DashboardHandler{
		pages:    p,
		sessions: sessions,
		bookings: bookings,
		payments: payments,
		users:    users,
		uploader: uploader,
	}
}

func (h *DashboardHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.profile)
	router.POST("/profile", h.updateProfile)
	router.GET("/my-bookings", h.myBookings)
	router.POST("/my-bookings/:id/pay", h.pay)
	router.GET("/transactions", h.transactions)
}

type profilePage struct {
	Identity domain.Identity
	Role     domain.Role
	Profile  query.Result[*domain.UserProfile]
	Name     string
	Errors   forms.FieldErrors
	Error    string
}

func (h *DashboardHandler) profilePage(c *gin.Context) profilePage {
	id := identity(c)
	return profilePage{
		Identity: id,
		Role:     guard.RoleResult(c).Value,
		Profile:  query.Of(h.users.GetUser(guard.Context(c), id.Email)),
		Name:     id.DisplayName,
	}
}

func (h *DashboardHandler) profile(c *gin.Context) {
	h.render(c, http.StatusOK, "profile", "Profile", h.profilePage(c))
}

func (h *DashboardHandler) updateProfile(c *gin.Context) {
	sess := guard.State(c).Session
	name := strings.TrimSpace(c.PostForm("name"))

	fail := func(errs forms.FieldErrors, msg string) {
		page := h.profilePage(c)
		page.Name, page.Errors, page.Error = name, errs, msg
		h.render(c, http.StatusUnprocessableEntity, "profile", "Profile", page)
	}

	if name == "" {
		fail(forms.FieldErrors{"name": "Name is required"}, "")
		return
	}
	img, err := imageFromRequest(c, "image")
	if err != nil {
		fail(forms.FieldErrors{"image": err.Error()}, "")
		return
	}

	outcome := forms.NewSubmitter(h.uploader).Submit(c.Request.Context(), forms.Submission{
		Name:  "update-profile",
		Image: img,
		Mutate: func(ctx context.Context, imageURL string) error {
			if imageURL == "" {
				imageURL = sess.Identity.PhotoURL
			}
			if err := h.sessions.UpdateProfile(ctx, sess, name, imageURL); err != nil {
				return err
			}
			return h.users.SaveUser(guard.Context(c), sess.Identity)
		},
		Success:  "Profile updated!",
		Fallback: "Profile update failed.",
	})
	if !outcome.OK() {
		fail(nil, outcome.Message)
		return
	}
	h.flash(c, "success", outcome.Message)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

type bookingsPage struct {
	Bookings []domain.Booking
}

func (h *DashboardHandler) myBookings(c *gin.Context) {
	bookings, err := h.bookings.UserBookings(guard.Context(c), identity(c).Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "my_bookings", "My Booked Tickets", bookingsPage{Bookings: bookings})
}

// pay sends the buyer to the hosted checkout for an accepted booking.
func (h *DashboardHandler) pay(c *gin.Context) {
	link, err := h.payments.CreateCheckoutSession(guard.Context(c), c.Param("id"))
	metrics.Mutation("checkout", err)
	if err != nil || link == "" {
		logger.Warningf("checkout for booking %s: %v", c.Param("id"), err)
		h.flash(c, "error", serverMessage(err, "Could not start the payment. Try again."))
		c.Redirect(http.StatusSeeOther, "/dashboard/my-bookings")
		return
	}
	c.Redirect(http.StatusSeeOther, link)
}

type transactionsPage struct {
	Transactions []domain.Transaction
}

func (h *DashboardHandler) transactions(c *gin.Context) {
	txs, err := h.payments.Transactions(guard.Context(c), identity(c).Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "transactions", "Transaction History", transactionsPage{Transactions: txs})
}
