package browser

import (
	"strconv"

	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/query"
)

type Link struct {
	Label    string
	Href     string
	Active   bool
	Disabled bool
}

// Page is the view model of the ticket grid.
type Page struct {
	State      State
	Status     query.Status
	Err        error
	Tickets    []domain.Ticket
	TotalPages int

	// Skeletons is the number of placeholder cards while loading.
	Skeletons int
	Empty     bool

	Transports []Link
	Sorts      []Link
	Pages      []Link
	Prev       Link
	Next       Link
	ResetHref  string
	RetryHref  string
}

var sortLabels = map[string]string{
	SortDefault: "Default",
	SortLow:     "Price: Low to High",
	SortHigh:    "Price: High to Low",
}

func NewPage(s State, res query.Result[*domain.TicketPage], pageSize int) Page {
	p := Page{
		State:      s,
		Status:     res.Status,
		Err:        res.Err,
		TotalPages: 1,
		ResetHref:  s.Reset().Href(),
		RetryHref:  s.Href(),
	}

	p.Transports = append(p.Transports, Link{Label: "All", Href: s.SelectTransport("").Href(), Active: s.Committed.Transport == ""})
	for _, t := range domain.TransportTypes {
		p.Transports = append(p.Transports, Link{Label: t, Href: s.SelectTransport(t).Href(), Active: s.Committed.Transport == t})
	}
	for _, o := range Sorts {
		p.Sorts = append(p.Sorts, Link{Label: sortLabels[o], Href: s.SetSort(o).Href(), Active: s.Committed.Sort == o})
	}

	switch res.Status {
	case query.Idle, query.Loading:
		p.Skeletons = pageSize
		return p
	case query.Failed:
		return p
	}

	if res.Value != nil {
		p.Tickets = res.Value.Tickets
		if res.Value.TotalPages > 1 {
			p.TotalPages = res.Value.TotalPages
		}
	}
	p.Empty = len(p.Tickets) == 0

	cur := s.Committed.Page
	if cur < 1 {
		cur = 1
	}
	p.Prev = Link{Label: "Prev", Href: s.GoToPage(cur - 1).Href(), Disabled: cur <= 1}
	p.Next = Link{Label: "Next", Href: s.GoToPage(cur + 1).Href(), Disabled: cur >= p.TotalPages}
	for i := 1; i <= p.TotalPages; i++ {
		p.Pages = append(p.Pages, Link{Label: strconv.Itoa(i), Href: s.GoToPage(i).Href(), Active: i == cur})
	}
	return p
}
