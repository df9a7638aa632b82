// Package browser implements the ticket search page: a draft layer the
// user edits freely and a committed layer that keys the remote list.
package browser

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/domain"
)

const (
	PageSize = 6

	SortDefault = ""
	SortLow     = "low"
	SortHigh    = "high"
)

var Sorts = []string{SortDefault, SortLow, SortHigh}

type Draft struct {
	FromInput string
	ToInput   string
	Transport string
	Sort      string
	Page      int
}

type Committed struct {
	From      string `url:"from,omitempty"`
	To        string `url:"to,omitempty"`
	Transport string `url:"transport,omitempty"`
	Sort      string `url:"sort,omitempty"`
	Page      int    `url:"page,omitempty"`
}

type State struct {
	Draft     Draft
	Committed Committed
}

// Initial is the unfiltered first page.
func Initial() State {
	return State{Draft: Draft{Page: 1}, Committed: Committed{Page: 1}}
}

// Parse reads a committed state from URL query parameters. Unknown
// transports and sorts are dropped and the page is clamped to 1.
func Parse(v url.Values) State {
	s := Initial().ApplyPreset(v.Get("from"), v.Get("to"))
	if t := v.Get("transport"); validTransport(t) {
		s.Committed.Transport = t
		s.Draft.Transport = t
	}
	if o := v.Get("sort"); validSort(o) {
		s.Committed.Sort = o
		s.Draft.Sort = o
	}
	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 1 {
		s.Committed.Page = p
		s.Draft.Page = p
	}
	return s
}

func (s State) TypeFrom(v string) State {
	s.Draft.FromInput = v
	return s
}

func (s State) TypeTo(v string) State {
	s.Draft.ToInput = v
	return s
}

// SelectTransport commits immediately and returns to the first page.
func (s State) SelectTransport(t string) State {
	if !validTransport(t) {
		return s
	}
	s.Draft.Transport = t
	s.Committed.Transport = t
	return s.firstPage()
}

// SetSort commits immediately and returns to the first page.
func (s State) SetSort(o string) State {
	if !validSort(o) {
		return s
	}
	s.Draft.Sort = o
	s.Committed.Sort = o
	return s.firstPage()
}

// Search commits the typed from and to inputs.
func (s State) Search() State {
	s.Committed.From = strings.TrimSpace(s.Draft.FromInput)
	s.Committed.To = strings.TrimSpace(s.Draft.ToInput)
	return s.firstPage()
}

func (s State) Reset() State {
	return Initial()
}

func (s State) GoToPage(p int) State {
	if p < 1 {
		p = 1
	}
	s.Committed.Page = p
	s.Draft.Page = p
	return s
}

// ApplyPreset seeds both layers with incoming from and to values. It is
// applied again whenever those values change.
func (s State) ApplyPreset(from, to string) State {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == s.Committed.From && to == s.Committed.To {
		return s
	}
	s.Draft.FromInput, s.Committed.From = from, from
	s.Draft.ToInput, s.Committed.To = to, to
	return s.firstPage()
}

func (s State) firstPage() State {
	s.Committed.Page = 1
	s.Draft.Page = 1
	return s
}

// Filtered reports whether any filter or sort is committed.
func (c Committed) Filtered() bool {
	return c.From != "" || c.To != "" || c.Transport != "" || c.Sort != ""
}

// Query is the remote list request for the committed tuple.
func (c Committed) Query(limit int) backend.TicketQuery {
	page := c.Page
	if page < 1 {
		page = 1
	}
	return backend.TicketQuery{
		From:      c.From,
		To:        c.To,
		Transport: c.Transport,
		Sort:      c.Sort,
		Page:      page,
		Limit:     limit,
	}
}

// Key identifies the committed tuple; equal keys always fetch the same page.
func (c Committed) Key() string {
	return c.Values().Encode()
}

// Values encodes the committed tuple as page URL parameters. Page 1 is
// left implicit.
func (c Committed) Values() url.Values {
	if c.Page <= 1 {
		c.Page = 0
	}
	v, err := query.Values(c)
	if err != nil {
		return url.Values{}
	}
	return v
}

// Href is the all-tickets URL for s.
func (s State) Href() string {
	if enc := s.Committed.Values().Encode(); enc != "" {
		return "/all-tickets?" + enc
	}
	return "/all-tickets"
}

func validTransport(t string) bool {
	if t == "" {
		return true
	}
	for _, v := range domain.TransportTypes {
		if v == t {
			return true
		}
	}
	return false
}

func validSort(o string) bool {
	for _, v := range Sorts {
		if v == o {
			return true
		}
	}
	return false
}
