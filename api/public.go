package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/Domenick1991/ticketbari/internal/browser"
	"github.com/Domenick1991/ticketbari/internal/cache"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/query"
)

type Browser interface {
	Load(ctx context.Context, view string, st browser.State) (browser.Page, bool)
	PageSize() int
}

var _ Browser = (*browser.Service)(nil)

type PopularRoute struct {
	From  string
	To    string
	Price int
	Href  string
}

var popularRoutes = []PopularRoute{
	{From: "Dhaka", To: "Cox's Bazar", Price: 700},
	{From: "Dhaka", To: "Sylhet", Price: 300},
	{From: "Chattogram", To: "Dhaka", Price: 350},
	{From: "Khulna", To: "Barishal", Price: 250},
}

func init() {
	for i := range popularRoutes {
		popularRoutes[i].Href = browser.Initial().ApplyPreset(popularRoutes[i].From, popularRoutes[i].To).Href()
	}
}

type PublicHandler struct {
	*pages
	tickets TicketAPI
	browser Browser
}

func NewPublicHandler(p *pages, tickets TicketAPI, b Browser) *PublicHandler {
	return &PublicHandler{pages: p, tickets: tickets, browser: b}
}

func (h *PublicHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.home)
	router.GET("/all-tickets", h.allTickets)
	router.GET("/all-tickets/results", h.results)
	router.GET("/about", h.content("about", "About Us"))
	router.GET("/contact", h.content("contact", "Contact"))
}

type homePage struct {
	Advertised query.Result[[]domain.Ticket]
	Latest     query.Result[[]domain.Ticket]
	Routes     []PopularRoute
}

func (h *PublicHandler) home(c *gin.Context) {
	ctx := c.Request.Context()
	var data homePage
	data.Routes = popularRoutes

	// Each section keeps its own error state; one failing list does not
	// blank the page.
	var g errgroup.Group
	g.Go(func() error {
		data.Advertised = h.cachedList(ctx, cache.ScopeAdvertise, "advertised", h.tickets.AdvertisedTickets)
		return nil
	})
	g.Go(func() error {
		data.Latest = h.cachedList(ctx, cache.ScopeTickets, "latest", h.tickets.LatestTickets)
		return nil
	})
	_ = g.Wait()

	h.render(c, http.StatusOK, "home", "Home", data)
}

func (h *PublicHandler) cachedList(ctx context.Context, scope, key string, fetch func(context.Context) ([]domain.Ticket, error)) query.Result[[]domain.Ticket] {
	var tickets []domain.Ticket
	gen, ok, cacheErr := h.store.GetList(ctx, scope, key, &tickets)
	if cacheErr == nil && ok {
		return query.Done(tickets)
	}
	tickets, err := fetch(ctx)
	if err != nil {
		logger.Errorf("loading %s tickets: %v", key, err)
		return query.Fail[[]domain.Ticket](err)
	}
	if cacheErr != nil {
		return query.Done(tickets)
	}
	if err := h.store.SetList(ctx, scope, key, gen, tickets); err != nil {
		logger.Warningf("caching %s tickets: %v", key, err)
	}
	return query.Done(tickets)
}

type allTicketsPage struct {
	Page     browser.Page
	View     string
	PageSize int
}

func (h *PublicHandler) allTickets(c *gin.Context) {
	st := browser.Parse(c.Request.URL.Query())
	page, _ := h.browser.Load(c.Request.Context(), "", st)
	h.render(c, http.StatusOK, "all_tickets", "All Tickets", allTicketsPage{
		Page:     page,
		View:     newViewID(),
		PageSize: h.browser.PageSize(),
	})
}

// results renders just the browser section for in-page navigation. A
// response superseded by a newer request from the same view is dropped
// with 204.
func (h *PublicHandler) results(c *gin.Context) {
	st := browser.Parse(c.Request.URL.Query())
	view := c.Query("view")
	page, current := h.browser.Load(c.Request.Context(), view, st)
	if !current {
		c.Status(http.StatusNoContent)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "all_tickets#browser", h.view(c, "All Tickets", allTicketsPage{
		Page:     page,
		View:     view,
		PageSize: h.browser.PageSize(),
	}))
}

type contentPage struct {
	Body any
}

func (h *PublicHandler) content(name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := Markdown(name)
		if err != nil {
			h.fail(c, err)
			return
		}
		h.render(c, http.StatusOK, "content", title, contentPage{Body: body})
	}
}
