package guard

import (
	"context"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/metrics"
	"github.com/Domenick1991/ticketbari/internal/query"
	"github.com/Domenick1991/ticketbari/internal/role"
	"github.com/Domenick1991/ticketbari/internal/session"
)

var logger = loggo.GetLogger("ticketbari.guard")

const (
	stateKey = "ticketbari.session"
	tokenKey = "ticketbari.token"
	roleKey  = "ticketbari.role"
)

type Sessions interface {
	Lookup(ctx context.Context, id string) session.State
	Token(ctx context.Context, sess *domain.Session) (string, error)
}

type Roles interface {
	Resolve(ctx context.Context, identity *domain.Identity, token string) query.Result[domain.Role]
}

// Placeholder writes the loading or failure page for d with status.
type Placeholder func(c *gin.Context, status int, d Decision)

type Guard struct {
	sessions    Sessions
	roles       Roles
	cookieName  string
	placeholder Placeholder
}

type Option func(*Guard)

func WithPlaceholder(p Placeholder) Option {
	return func(g *Guard) {
		g.placeholder = p
	}
}

func New(sessions Sessions, roles Roles, cookieName string, opts ...Option) *Guard {
	g := &Guard{
		sessions:    sessions,
		roles:       roles,
		cookieName:  cookieName,
		placeholder: defaultPlaceholder,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Identify resolves the session cookie for every request. It never
// blocks a page; guards decide what to do with the state.
func (g *Guard) Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(g.cookieName)
		c.Set(stateKey, g.sessions.Lookup(c.Request.Context(), id))
		c.Next()
	}
}

// RequireAuth admits signed-in sessions and stores a valid API token for
// the handlers behind it.
func (g *Guard) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := State(c)
		d := Authenticated(state, c.Request.URL.RequestURI())
		if d.Kind == Render {
			token, err := g.sessions.Token(c.Request.Context(), state.Session)
			switch {
			case errors.Is(err, errors.Unauthorized):
				c.SetCookie(g.cookieName, "", -1, "/", "", false, true)
				d = Decision{Kind: Redirect, Location: LoginPath(c.Request.URL.RequestURI())}
			case err != nil:
				d = Decision{Kind: Failed, Err: err}
			default:
				c.Set(tokenKey, token)
			}
		}
		g.apply(c, "auth", d)
	}
}

// LoadRole resolves the role of the signed-in identity without gating on
// it, so layouts can pick a menu. It must run after RequireAuth.
func (g *Guard) LoadRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		state := State(c)
		res := g.roles.Resolve(c.Request.Context(), state.Identity(), Token(c))
		c.Set(roleKey, role.Derive(state.Identity(), res))
		c.Next()
	}
}

func (g *Guard) RequireVendor() gin.HandlerFunc {
	return g.requireRole("vendor", domain.RoleVendor)
}

func (g *Guard) RequireAdmin() gin.HandlerFunc {
	return g.requireRole("admin", domain.RoleAdmin)
}

func (g *Guard) requireRole(name string, required domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		g.apply(c, name, RequireRole(RoleResult(c), required))
	}
}

func (g *Guard) apply(c *gin.Context, name string, d Decision) {
	metrics.GuardDecision(name, d.Kind.String())

	switch d.Kind {
	case Render:
		c.Next()
		return
	case Loading:
		c.Header("Cache-Control", "no-store")
		c.Header("Refresh", "1")
		g.placeholder(c, http.StatusOK, d)
	case Failed:
		logger.Warningf("%s guard on %s: %v", name, c.Request.URL.Path, d.Err)
		c.Header("Cache-Control", "no-store")
		c.Header("Retry-After", "2")
		g.placeholder(c, http.StatusServiceUnavailable, d)
	case Redirect:
		c.Redirect(http.StatusSeeOther, d.Location)
	}
	c.Abort()
}

// State returns the session state resolved by Identify.
func State(c *gin.Context) session.State {
	if v, ok := c.Get(stateKey); ok {
		return v.(session.State)
	}
	return session.State{}
}

// Token returns the API token stored by RequireAuth.
func Token(c *gin.Context) string {
	return c.GetString(tokenKey)
}

// RoleResult returns the role lookup stored by LoadRole, or Idle.
func RoleResult(c *gin.Context) query.Result[domain.Role] {
	if v, ok := c.Get(roleKey); ok {
		return v.(query.Result[domain.Role])
	}
	return query.Disabled[domain.Role]()
}

// Context carries the request's API token for backend calls.
func Context(c *gin.Context) context.Context {
	return backend.WithToken(c.Request.Context(), Token(c))
}

var placeholderPage = template.Must(template.New("placeholder").Parse(
	`<!doctype html><html><head><title>TicketBari</title></head><body>` +
		`{{if .Failed}}<p>Something went wrong. <a href="">Retry</a></p>{{else}}<p>Loading…</p>{{end}}` +
		`</body></html>`))

func defaultPlaceholder(c *gin.Context, status int, d Decision) {
	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := placeholderPage.Execute(c.Writer, struct{ Failed bool }{d.Kind == Failed}); err != nil {
		logger.Errorf("rendering placeholder: %v", err)
	}
}
