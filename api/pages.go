package api

import (
	"bytes"
	"html/template"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/cache"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/forms"
	"github.com/Domenick1991/ticketbari/internal/guard"
	"github.com/Domenick1991/ticketbari/internal/menu"
	"github.com/Domenick1991/ticketbari/internal/metrics"
	"github.com/Domenick1991/ticketbari/internal/upload"
)

var logger = loggo.GetLogger("ticketbari.api")

const flashCookie = "tb_flash"

// View is the data every page template receives.
type View struct {
	Title    string
	Path     string
	Identity *domain.Identity
	Menu     []menu.Item
	Flashes  []cache.Flash
	CSRF     template.HTML
	Content  any
}

// pages holds what every page handler needs to render and notify.
type pages struct {
	store        Store
	secureCookie bool
}

func (p *pages) view(c *gin.Context, title string, content any) View {
	return View{
		Title:    title,
		Path:     c.Request.URL.Path,
		Identity: guard.State(c).Identity(),
		Menu:     menu.For(guard.RoleResult(c), c.Request.URL.Path),
		Flashes:  p.popFlashes(c),
		CSRF:     csrf.TemplateField(c.Request),
		Content:  content,
	}
}

func (p *pages) render(c *gin.Context, status int, page, title string, content any) {
	c.HTML(status, page, p.view(c, title, content))
}

// flash queues a notification for the next rendered page.
func (p *pages) flash(c *gin.Context, kind, message string) {
	id, err := c.Cookie(flashCookie)
	if err != nil || id == "" {
		id = uuid.NewString()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(flashCookie, id, 0, "/", "", p.secureCookie, true)
	}
	if err := p.store.PushFlash(c.Request.Context(), id, cache.Flash{Kind: kind, Message: message}); err != nil {
		logger.Warningf("queueing flash: %v", err)
	}
}

func (p *pages) popFlashes(c *gin.Context) []cache.Flash {
	id, err := c.Cookie(flashCookie)
	if err != nil || id == "" {
		return nil
	}
	flashes, err := p.store.PopFlashes(c.Request.Context(), id)
	if err != nil {
		logger.Warningf("reading flashes: %v", err)
		return nil
	}
	return flashes
}

// invalidate drops cached lists after a successful mutation.
func (p *pages) invalidate(c *gin.Context, scopes ...string) {
	for _, scope := range scopes {
		if err := p.store.InvalidateScope(c.Request.Context(), scope); err != nil {
			logger.Warningf("invalidating %s: %v", scope, err)
			continue
		}
		metrics.CacheInvalidated(scope, "mutation")
	}
}

// fail renders the error page for a failed fetch, with a retry link.
func (p *pages) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errors.NotFound):
		p.render(c, http.StatusNotFound, "not_found", "Not Found", nil)
		return
	case errors.Is(err, errors.Unauthorized):
		c.Redirect(http.StatusSeeOther, guard.LoginPath(c.Request.URL.RequestURI()))
		return
	case errors.Is(err, errors.Forbidden):
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	p.render(c, http.StatusBadGateway, "error", "Something went wrong", errorPage{Retry: c.Request.URL.RequestURI()})
}

type errorPage struct {
	Retry string
}

// back redirects to the page a form was posted from.
func back(c *gin.Context, fallback string) {
	target := guard.SafeReturn(c.PostForm("back"))
	if target == "/" {
		target = fallback
	}
	c.Redirect(http.StatusSeeOther, target)
}

func identity(c *gin.Context) domain.Identity {
	if id := guard.State(c).Identity(); id != nil {
		return *id
	}
	return domain.Identity{}
}

// Placeholder renders the loading or retry page guards show.
func (p *pages) Placeholder(c *gin.Context, status int, d guard.Decision) {
	p.render(c, status, "placeholder", "Loading", placeholderPage{Failed: d.Kind == guard.Failed, Retry: c.Request.URL.RequestURI()})
}

type placeholderPage struct {
	Failed bool
	Retry  string
}

// NotFound renders for unmatched routes.
func (p *pages) NotFound(c *gin.Context) {
	p.render(c, http.StatusNotFound, "not_found", "Not Found", nil)
}

func newViewID() string {
	return uuid.NewString()
}

// imageFromRequest reads an optional uploaded file. It returns nil when
// no file was sent.
func imageFromRequest(c *gin.Context, field string) (*forms.Image, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.New("Could not read the image")
	}
	if fh.Size == 0 {
		return nil, nil
	}
	if fh.Size > upload.MaxSize {
		return nil, errors.New("Image must be 8 MB or smaller")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("Could not read the image")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.New("Could not read the image")
	}
	return &forms.Image{Name: fh.Filename, Body: bytes.NewReader(data)}, nil
}

func serverMessage(err error, fallback string) string {
	return backend.ServerMessage(err, fallback)
}
