package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"
	"github.com/juju/errors"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/ticker"
)

//go:embed templates content
var assets embed.FS

// Renderer holds one parsed template set per page: the shared layout and
// partials plus the page itself. Dashboard pages also get the sidebar
// layout.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// NewRenderer parses every page. Times are shown in loc.
func NewRenderer(clock Clock, loc *time.Location) (*Renderer, error) {
	funcs := templateFuncs(clock, loc)
	r := &Renderer{pages: make(map[string]*template.Template)}

	for _, dir := range []string{"pages", "dashboard"} {
		files, err := fs.Glob(assets, "templates/"+dir+"/*.html")
		if err != nil {
			return nil, errors.Trace(err)
		}
		for _, file := range files {
			layouts := []string{"templates/layout/base.html", "templates/layout/partials.html"}
			if dir == "dashboard" {
				layouts = append(layouts, "templates/layout/dashboard.html")
			}
			t, err := template.New(path.Base(file)).Funcs(funcs).ParseFS(assets, append(layouts, file)...)
			if err != nil {
				return nil, errors.Annotatef(err, "parsing %s", file)
			}
			r.pages[strings.TrimSuffix(path.Base(file), ".html")] = t
		}
	}
	return r, nil
}

// Instance renders the page called name through the base layout. A name
// of the form "page#block" renders just that block of the page.
func (r *Renderer) Instance(name string, data any) render.Render {
	page, block, found := strings.Cut(name, "#")
	if !found {
		block = "base"
	}
	t, ok := r.pages[page]
	if !ok {
		t = r.pages["not_found"]
	}
	return render.HTML{Template: t, Name: block, Data: data}
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

func templateFuncs(clock Clock, loc *time.Location) template.FuncMap {
	return template.FuncMap{
		"money": func(d decimal.Decimal) string {
			return "$" + d.StringFixed(2)
		},
		"date": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.In(loc).Format("02 Jan 2006, 03:04 PM")
		},
		"isoTime": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
		"countdown": func(t time.Time) string {
			return ticker.Countdown(t, clock.Now())
		},
		"bookable": func(t domain.Ticket) bool {
			return t.Bookable(clock.Now())
		},
		"canTransition": func(from domain.BookingStatus, to string) bool {
			return from.CanTransition(domain.BookingStatus(to))
		},
		"ticketStatus": func(s domain.TicketStatus) string {
			return string(s.Normalize())
		},
		"capitalize": func(v any) string {
			s := fmt.Sprint(v)
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"add": func(a, b int) int { return a + b },
		"seq": func(n int) []int {
			out := make([]int, n)
			for i := range out {
				out[i] = i
			}
			return out
		},
	}
}

var markdown = goldmark.New(goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()))

// Markdown renders an embedded content page. Raw HTML in the source is
// escaped.
func Markdown(name string) (template.HTML, error) {
	src, err := assets.ReadFile("content/" + name + ".md")
	if err != nil {
		return "", errors.Annotatef(err, "reading %s", name)
	}
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", errors.Annotatef(err, "rendering %s", name)
	}
	return template.HTML(buf.String()), nil
}
