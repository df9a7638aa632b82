package browser

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/domain"
	q "github.com/Domenick1991/ticketbari/internal/query"
)

func TestSearch_ResetsPage(t *testing.T) {
	s := Initial().GoToPage(4).TypeFrom("Dhaka").TypeTo(" Sylhet ")
	assert.Equal(t, "", s.Committed.From, "typing must not commit")

	s = s.Search()
	assert.Equal(t, 1, s.Committed.Page)
	assert.Equal(t, "Dhaka", s.Committed.From)
	assert.Equal(t, "Sylhet", s.Committed.To)

	v, err := query.Values(s.Committed.Query(PageSize))
	require.NoError(t, err)
	assert.Equal(t, "from=Dhaka&limit=6&page=1&to=Sylhet", v.Encode())
}

func TestReset(t *testing.T) {
	s := Parse(url.Values{"from": {"Dhaka"}, "transport": {"Bus"}, "sort": {"high"}, "page": {"3"}}).TypeTo("Khulna")
	s = s.Reset()

	assert.Equal(t, Initial(), s)
	assert.Equal(t, backend.TicketQuery{Page: 1, Limit: PageSize}, s.Committed.Query(PageSize))
	assert.Equal(t, "/all-tickets", s.Href())
}

func TestChipsAndSortCommit(t *testing.T) {
	s := Initial().TypeFrom("Dhaka").GoToPage(3)

	s = s.SelectTransport("Train")
	assert.Equal(t, "Train", s.Committed.Transport)
	assert.Equal(t, 1, s.Committed.Page)
	assert.Equal(t, "", s.Committed.From)

	s = s.GoToPage(2).SetSort(SortLow)
	assert.Equal(t, SortLow, s.Committed.Sort)
	assert.Equal(t, 1, s.Committed.Page)

	assert.Equal(t, s, s.SelectTransport("Rocket"))
	assert.Equal(t, s, s.SetSort("random"))
}

func TestParse(t *testing.T) {
	s := Parse(url.Values{"from": {"Dhaka"}, "to": {"Cox's Bazar"}, "transport": {"Ship"}, "page": {"-2"}})
	assert.Equal(t, Committed{From: "Dhaka", To: "Cox's Bazar", Page: 1}, s.Committed)
	assert.Equal(t, "Dhaka", s.Draft.FromInput)

	s = Parse(url.Values{"page": {"5"}, "sort": {"low"}})
	assert.Equal(t, 5, s.Committed.Page)
	assert.Equal(t, "/all-tickets?page=5&sort=low", s.Href())
}

func TestApplyPreset_Reapplies(t *testing.T) {
	s := Initial().ApplyPreset("Dhaka", "Sylhet").GoToPage(2)
	assert.Equal(t, s, s.ApplyPreset("Dhaka", "Sylhet"))

	s = s.ApplyPreset("Dhaka", "Rajshahi")
	assert.Equal(t, "Rajshahi", s.Committed.To)
	assert.Equal(t, "Rajshahi", s.Draft.ToInput)
	assert.Equal(t, 1, s.Committed.Page)
}

func TestKey_FullTuple(t *testing.T) {
	a := Committed{From: "Dhaka", Page: 1}
	b := Committed{From: "Dhaka", Page: 2}
	c := Committed{From: "Dhaka", Sort: SortHigh, Page: 1}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, a.Key(), Committed{From: "Dhaka"}.Key())
}

func TestLoader_LatestWins(t *testing.T) {
	l := NewLoader()
	page1 := l.Begin("v1")
	page2 := l.Begin("v1")
	other := l.Begin("v2")

	assert.True(t, l.Finish(page2))
	assert.False(t, l.Finish(page1))
	assert.True(t, l.Finish(other))
	assert.Equal(t, 0, l.Pending())
}

func TestNewPage(t *testing.T) {
	s := Initial().GoToPage(1)

	loading := NewPage(s, q.Pending[*domain.TicketPage](), PageSize)
	assert.Equal(t, PageSize, loading.Skeletons)
	assert.Empty(t, loading.Pages)

	failed := NewPage(s, q.Fail[*domain.TicketPage](errors.New("boom")), PageSize)
	assert.Equal(t, q.Failed, failed.Status)
	assert.Equal(t, "/all-tickets", failed.RetryHref)

	empty := NewPage(Initial().SelectTransport("Plane"), q.Done(&domain.TicketPage{TotalPages: 1}), PageSize)
	assert.True(t, empty.Empty)
	assert.Equal(t, "/all-tickets", empty.ResetHref)

	page := NewPage(s.GoToPage(2), q.Done(&domain.TicketPage{Tickets: []domain.Ticket{{ID: "t1"}}, TotalPages: 3}), PageSize)
	assert.False(t, page.Empty)
	assert.False(t, page.Prev.Disabled)
	assert.Equal(t, "/all-tickets", page.Prev.Href)
	assert.Equal(t, "/all-tickets?page=3", page.Next.Href)
	require.Len(t, page.Pages, 3)
	assert.True(t, page.Pages[1].Active)

	last := NewPage(s.GoToPage(3), q.Done(&domain.TicketPage{Tickets: []domain.Ticket{{ID: "t1"}}, TotalPages: 3}), PageSize)
	assert.True(t, last.Next.Disabled)
	require.Len(t, last.Transports, 5)
	assert.True(t, last.Transports[0].Active)
}

type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListTickets(ctx context.Context, tq backend.TicketQuery) (*domain.TicketPage, error) {
	args := m.Called(ctx, tq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TicketPage), args.Error(1)
}

type MockListCache struct {
	mock.Mock
}

func (m *MockListCache) GetList(ctx context.Context, scope, key string, dst any) (int64, bool, error) {
	args := m.Called(ctx, scope, key, dst)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockListCache) SetList(ctx context.Context, scope, key string, gen int64, value any) error {
	return m.Called(ctx, scope, key, gen, value).Error(0)
}

func TestService_Load(t *testing.T) {
	lister := &MockLister{}
	lc := &MockListCache{}
	svc := NewService(lister, lc, PageSize)
	ctx := context.Background()

	st := Initial().TypeFrom("Dhaka").TypeTo("Sylhet").Search()
	want := &domain.TicketPage{Tickets: []domain.Ticket{{ID: "t1", From: "Dhaka", To: "Sylhet"}}, TotalPages: 1}

	lc.On("GetList", ctx, "tickets", st.Committed.Key(), mock.Anything).Return(int64(3), false, nil).Once()
	lister.On("ListTickets", ctx, backend.TicketQuery{From: "Dhaka", To: "Sylhet", Page: 1, Limit: PageSize}).Return(want, nil).Once()
	lc.On("SetList", ctx, "tickets", st.Committed.Key(), int64(3), want).Return(nil).Once()

	page, current := svc.Load(ctx, "v1", st)
	assert.True(t, current)
	assert.Equal(t, want.Tickets, page.Tickets)
	lister.AssertExpectations(t)
	lc.AssertExpectations(t)
}

func TestService_Load_ErrorNotCached(t *testing.T) {
	lister := &MockLister{}
	lc := &MockListCache{}
	svc := NewService(lister, lc, PageSize)
	ctx := context.Background()

	lc.On("GetList", ctx, "tickets", "", mock.Anything).Return(int64(0), false, nil).Once()
	lister.On("ListTickets", ctx, mock.Anything).Return(nil, errors.New("502")).Once()

	page, current := svc.Load(ctx, "", Initial())
	assert.True(t, current)
	assert.Equal(t, q.Failed, page.Status)
	lc.AssertNotCalled(t, "SetList", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_Load_OutOfOrder(t *testing.T) {
	lister := &MockLister{}
	lc := &MockListCache{}
	svc := NewService(lister, lc, PageSize)
	ctx := context.Background()

	slow := make(chan struct{})
	lc.On("GetList", ctx, "tickets", mock.Anything, mock.Anything).Return(int64(0), false, nil)
	lc.On("SetList", ctx, "tickets", mock.Anything, int64(0), mock.Anything).Return(nil)
	lister.On("ListTickets", ctx, backend.TicketQuery{Page: 1, Limit: PageSize}).
		Run(func(mock.Arguments) { <-slow }).
		Return(&domain.TicketPage{Tickets: []domain.Ticket{{ID: "page-1"}}, TotalPages: 2}, nil).Once()
	lister.On("ListTickets", ctx, backend.TicketQuery{Page: 2, Limit: PageSize}).
		Return(&domain.TicketPage{Tickets: []domain.Ticket{{ID: "page-2"}}, TotalPages: 2}, nil).Once()

	var wg sync.WaitGroup
	var firstCurrent bool
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstCurrent = svc.Load(ctx, "v1", Initial())
	}()

	require.Eventually(t, func() bool { return svc.loader.Pending() == 1 }, time.Second, time.Millisecond)

	page, current := svc.Load(ctx, "v1", Initial().GoToPage(2))
	require.True(t, current)
	assert.Equal(t, "page-2", page.Tickets[0].ID)

	close(slow)
	wg.Wait()
	assert.False(t, firstCurrent)
}
