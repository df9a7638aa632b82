package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/ticketbari/internal/forms"
	"github.com/Domenick1991/ticketbari/internal/guard"
	"github.com/Domenick1991/ticketbari/internal/metrics"
)

// Deps is everything the page handlers are built from.
type Deps struct {
	Backend      Backend
	Store        Store
	Sessions     Sessions
	Lookup       guard.Sessions
	Roles        guard.Roles
	RoleCache    RoleInvalidator
	Browser      Browser
	Uploader     forms.Uploader
	Notifier     Notifier
	Clock        Clock
	Renderer     *Renderer
	CookieName   string
	SessionTTL   time.Duration
	SecureCookie bool
	Location     *time.Location
}

// NewRouter builds the gin engine serving every page. Every route sees
// the session; dashboard routes also resolve the role.
func NewRouter(d Deps) *gin.Engine {
	p := &pages{store: d.Store, secureCookie: d.SecureCookie}
	g := guard.New(d.Lookup, d.Roles, d.CookieName, guard.WithPlaceholder(p.Placeholder))
	submitter := forms.NewSubmitter(d.Uploader)
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), observe())
	engine.HTMLRender = d.Renderer
	engine.NoRoute(g.Identify(), p.NotFound)

	root := engine.Group("/", g.Identify())
	NewPublicHandler(p, d.Backend, d.Browser).Register(root)
	NewAuthHandler(p, d.Sessions, d.Backend, d.Uploader, d.CookieName, d.SessionTTL).Register(root)

	tickets := NewTicketHandler(p, d.Backend, d.Backend, d.Backend, d.Notifier, d.Clock)
	tickets.RegisterPublic(root)
	tickets.Register(root.Group("", g.RequireAuth()))

	dashboard := root.Group("/dashboard", g.RequireAuth(), g.LoadRole())
	NewDashboardHandler(p, d.Sessions, d.Backend, d.Backend, d.Backend, d.Uploader).Register(dashboard)
	NewVendorHandler(p, d.Backend, submitter, d.Notifier, loc).Register(dashboard.Group("/vendor", g.RequireVendor()))
	NewAdminHandler(p, d.Backend, d.RoleCache, submitter, d.Notifier).Register(dashboard.Group("/admin", g.RequireAdmin()))

	return engine
}

func observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.ObservePage(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
