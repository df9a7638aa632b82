package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"

	"github.com/Domenick1991/ticketbari/internal/cache"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/forms"
	"github.com/Domenick1991/ticketbari/internal/guard"
	"github.com/Domenick1991/ticketbari/internal/kafka"
	"github.com/Domenick1991/ticketbari/internal/metrics"
)

// AdvertiseFallback is shown when toggling fails without a server message,
// typically because the advertised limit is reached.
const AdvertiseFallback = "Cannot advertise more tickets"

type AdminHandler struct {
	*pages
	admin     AdminAPI
	tickets   TicketAPI
	roles     RoleInvalidator
	submitter *forms.Submitter
	notifier  Notifier
}

func NewAdminHandler(p *pages, api Backend, roles RoleInvalidator, submitter *forms.Submitter, notifier Notifier) *AdminHandler {
	return &AdminHandler{pages: p, admin: api, tickets: api, roles: roles, submitter: submitter, notifier: notifier}
}

// Register mounts the admin pages on a group guarded by RequireAdmin.
func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/manage-tickets", h.manageTickets)
	router.POST("/manage-tickets/:id/approve", h.review(true))
	router.POST("/manage-tickets/:id/reject", h.review(false))
	router.GET("/manage-users", h.manageUsers)
	router.POST("/manage-users/:id/make-admin", h.userAction("make-admin", "User is now an admin.", h.admin.MakeAdmin))
	router.POST("/manage-users/:id/make-vendor", h.userAction("make-vendor", "User is now a vendor.", h.admin.MakeVendor))
	router.POST("/manage-users/:id/mark-fraud", h.userAction("mark-fraud", "Vendor marked as fraud.", h.admin.MarkFraud))
	router.GET("/advertise", h.advertise)
	router.POST("/advertise/:id/toggle", h.toggleAdvertise)
}

type manageTicketsPage struct {
	Tickets []domain.Ticket
}

func (h *AdminHandler) manageTickets(c *gin.Context) {
	tickets, err := h.admin.AdminTickets(guard.Context(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "manage_tickets", "Manage Tickets", manageTicketsPage{Tickets: tickets})
}

func (h *AdminHandler) review(approve bool) gin.HandlerFunc {
	name, act, event, done := "approve-ticket", h.admin.ApproveTicket, kafka.TicketApproved, "Ticket approved."
	if !approve {
		name, act, event, done = "reject-ticket", h.admin.RejectTicket, kafka.TicketRejected, "Ticket rejected."
	}
	return func(c *gin.Context) {
		id := c.Param("id")
		ticket, err := h.tickets.GetTicket(guard.Context(c), id)
		if err != nil {
			h.fail(c, err)
			return
		}
		err = act(guard.Context(c), id)
		metrics.Mutation(name, err)
		if err != nil {
			h.flash(c, "error", serverMessage(err, "Could not update the ticket."))
			c.Redirect(http.StatusSeeOther, "/dashboard/admin/manage-tickets")
			return
		}
		h.invalidate(c, cache.ScopeTickets, cache.ScopeAdvertise)
		h.notifier.Notify(c.Request.Context(), kafka.Event{
			Type:      event,
			Email:     ticket.VendorEmail,
			Subject:   ticket.Title,
			Reference: id,
			Actor:     identity(c).Email,
		})
		h.flash(c, "success", done)
		c.Redirect(http.StatusSeeOther, "/dashboard/admin/manage-tickets")
	}
}

type manageUsersPage struct {
	Users []domain.UserProfile
	Self  string
}

func (h *AdminHandler) manageUsers(c *gin.Context) {
	users, err := h.admin.AdminUsers(guard.Context(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.render(c, http.StatusOK, "manage_users", "Manage Users", manageUsersPage{Users: users, Self: identity(c).Email})
}

// userAction changes a user's role or fraud flag. The target is looked
// up in the user list, and their cached role is dropped so their next
// request resolves it again.
func (h *AdminHandler) userAction(name, done string, act func(context.Context, string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := h.user(c, c.Param("id"))
		if err != nil {
			h.fail(c, err)
			return
		}
		email := target.Email
		err = act(guard.Context(c), target.ID)
		metrics.Mutation(name, err)
		if err != nil {
			h.flash(c, "error", serverMessage(err, "Could not update the user."))
			c.Redirect(http.StatusSeeOther, "/dashboard/admin/manage-users")
			return
		}
		if err := h.roles.Invalidate(c.Request.Context(), email); err != nil {
			logger.Warningf("dropping cached role for %s: %v", email, err)
		}
		if name == "mark-fraud" {
			h.invalidate(c, cache.ScopeTickets, cache.ScopeAdvertise)
			h.notifier.Notify(c.Request.Context(), kafka.Event{
				Type:      kafka.VendorMarkedFraud,
				Email:     email,
				Subject:   target.Name,
				Reference: target.ID,
				Actor:     identity(c).Email,
			})
		}
		h.flash(c, "success", done)
		c.Redirect(http.StatusSeeOther, "/dashboard/admin/manage-users")
	}
}

func (h *AdminHandler) user(c *gin.Context, id string) (*domain.UserProfile, error) {
	users, err := h.admin.AdminUsers(guard.Context(c))
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, errors.NotFoundf("user %q", id)
}

type advertisePage struct {
	Tickets    []domain.Ticket
	Advertised int
}

func (h *AdminHandler) advertise(c *gin.Context) {
	tickets, err := h.admin.AdvertiseCandidates(guard.Context(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	page := advertisePage{Tickets: tickets}
	for _, t := range tickets {
		if t.Advertised {
			page.Advertised++
		}
	}
	h.render(c, http.StatusOK, "advertise", "Advertise Tickets", page)
}

// toggleAdvertise flips a ticket's advertised flag. On failure nothing is
// assumed: the page is rendered again from the server's list.
func (h *AdminHandler) toggleAdvertise(c *gin.Context) {
	id := c.Param("id")
	outcome := h.submitter.Submit(guard.Context(c), forms.Submission{
		Name: "toggle-advertise",
		Mutate: func(ctx context.Context, _ string) error {
			return h.admin.ToggleAdvertise(ctx, id)
		},
		Success:  "Advertisement updated.",
		Fallback: AdvertiseFallback,
	})
	if !outcome.OK() {
		h.flash(c, "error", outcome.Message)
	} else {
		h.invalidate(c, cache.ScopeAdvertise, cache.ScopeTickets)
		h.flash(c, "success", outcome.Message)
	}
	c.Redirect(http.StatusSeeOther, "/dashboard/admin/advertise")
}
