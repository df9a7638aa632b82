package browser

import (
	"context"

	"github.com/juju/loggo/v2"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/cache"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/query"
)

var logger = loggo.GetLogger("ticketbari.browser")

type Lister interface {
	ListTickets(ctx context.Context, q backend.TicketQuery) (*domain.TicketPage, error)
}

type ListCache interface {
	GetList(ctx context.Context, scope, key string, dst any) (gen int64, ok bool, err error)
	SetList(ctx context.Context, scope, key string, gen int64, value any) error
}

type Service struct {
	lister   Lister
	cache    ListCache
	loader   *Loader
	pageSize int
}

func NewService(lister Lister, cache ListCache, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	return &Service{lister: lister, cache: cache, loader: NewLoader(), pageSize: pageSize}
}

func (s *Service) PageSize() int {
	return s.pageSize
}

// Load fetches the page for the committed tuple of st. For a non-empty
// view, current is false when a newer Load on the same view started
// before this one completed; its result must not be shown.
func (s *Service) Load(ctx context.Context, view string, st State) (page Page, current bool) {
	var ticket Ticket
	if view != "" {
		ticket = s.loader.Begin(view)
	}

	res := s.fetch(ctx, st.Committed)

	if view != "" && !s.loader.Finish(ticket) {
		logger.Debugf("discarding superseded result for view %s", view)
		return Page{}, false
	}
	return NewPage(st, res, s.pageSize), true
}

func (s *Service) fetch(ctx context.Context, c Committed) query.Result[*domain.TicketPage] {
	q := c.Query(s.pageSize)
	key := c.Key()

	var cached domain.TicketPage
	gen, ok, cacheErr := s.cache.GetList(ctx, cache.ScopeTickets, key, &cached)
	if cacheErr != nil {
		logger.Warningf("reading ticket list cache: %v", cacheErr)
	} else if ok {
		return query.Done(&cached)
	}

	tickets, err := s.lister.ListTickets(ctx, q)
	if err != nil {
		logger.Errorf("listing tickets %q: %v", key, err)
		return query.Fail[*domain.TicketPage](err)
	}
	if cacheErr != nil {
		// The generation is unknown; skip the fill.
		return query.Done(tickets)
	}
	if err := s.cache.SetList(ctx, cache.ScopeTickets, key, gen, tickets); err != nil {
		logger.Warningf("caching ticket list: %v", err)
	}
	return query.Done(tickets)
}
