package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/browser"
	"github.com/Domenick1991/ticketbari/internal/cache"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/kafka"
	"github.com/Domenick1991/ticketbari/internal/query"
	"github.com/Domenick1991/ticketbari/internal/session"
	"github.com/Domenick1991/ticketbari/internal/ticker"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// MockBackend is a mock implementation of Backend
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) tickets(args mock.Arguments) ([]domain.Ticket, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Ticket), args.Error(1)
}

func (m *MockBackend) bookings(args mock.Arguments) ([]domain.Booking, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBackend) LatestTickets(ctx context.Context) ([]domain.Ticket, error) {
	return m.tickets(m.Called(ctx))
}

func (m *MockBackend) AdvertisedTickets(ctx context.Context) ([]domain.Ticket, error) {
	return m.tickets(m.Called(ctx))
}

func (m *MockBackend) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockBackend) CreateTicket(ctx context.Context, in backend.TicketInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockBackend) UpdateTicket(ctx context.Context, id string, in backend.TicketInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockBackend) DeleteTicket(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) VendorTickets(ctx context.Context, email string) ([]domain.Ticket, error) {
	return m.tickets(m.Called(ctx, email))
}

func (m *MockBackend) CreateBooking(ctx context.Context, in backend.BookingInput) error {
	return m.Called(ctx, in).Error(0)
}

func (m *MockBackend) UserBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	return m.bookings(m.Called(ctx, email))
}

func (m *MockBackend) VendorBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	return m.bookings(m.Called(ctx, email))
}

func (m *MockBackend) AcceptBooking(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) RejectBooking(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) CreateCheckoutSession(ctx context.Context, bookingID string) (string, error) {
	args := m.Called(ctx, bookingID)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) CompletePayment(ctx context.Context, sessionID string) (*backend.PaymentResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*backend.PaymentResult), args.Error(1)
}

func (m *MockBackend) Transactions(ctx context.Context, email string) ([]domain.Transaction, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockBackend) RevenueOverview(ctx context.Context, email string) (*domain.RevenueOverview, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RevenueOverview), args.Error(1)
}

func (m *MockBackend) GetUser(ctx context.Context, email string) (*domain.UserProfile, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UserProfile), args.Error(1)
}

func (m *MockBackend) SaveUser(ctx context.Context, id domain.Identity) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) AdminTickets(ctx context.Context) ([]domain.Ticket, error) {
	return m.tickets(m.Called(ctx))
}

func (m *MockBackend) ApproveTicket(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) RejectTicket(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) AdvertiseCandidates(ctx context.Context) ([]domain.Ticket, error) {
	return m.tickets(m.Called(ctx))
}

func (m *MockBackend) ToggleAdvertise(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) AdminUsers(ctx context.Context) ([]domain.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.UserProfile), args.Error(1)
}

func (m *MockBackend) MakeAdmin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) MakeVendor(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBackend) MarkFraud(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// MockSessions is a mock implementation of Sessions
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) session(args mock.Arguments) (*domain.Session, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessions) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	return m.session(m.Called(ctx, email, password))
}

func (m *MockSessions) Register(ctx context.Context, name, email, password, photoURL string) (*domain.Session, error) {
	return m.session(m.Called(ctx, name, email, password, photoURL))
}

func (m *MockSessions) SignInWithGoogle(ctx context.Context, code string) (*domain.Session, error) {
	return m.session(m.Called(ctx, code))
}

func (m *MockSessions) GoogleAuthURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockSessions) SendPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockSessions) SignOut(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockSessions) UpdateProfile(ctx context.Context, sess *domain.Session, name, photoURL string) error {
	return m.Called(ctx, sess, name, photoURL).Error(0)
}

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	args := m.Called(ctx, filename, r)
	return args.String(0), args.Error(1)
}

type MockRoleCache struct {
	mock.Mock
}

func (m *MockRoleCache) Invalidate(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

// memStore keeps page state in memory.
type memStore struct {
	mu      sync.Mutex
	lists   map[string]any
	gens    map[string]int64
	flashes map[string][]cache.Flash
	states  map[string]string
	claims  map[string]bool
	dropped []string
}

func newMemStore() *memStore {
	return &memStore{
		lists:   map[string]any{},
		gens:    map[string]int64{},
		flashes: map[string][]cache.Flash{},
		states:  map[string]string{},
		claims:  map[string]bool{},
	}
}

func (s *memStore) GetList(_ context.Context, scope, key string, dst any) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.gens[scope]
	v, ok := s.lists[fmt.Sprintf("%s/%d/%s", scope, gen, key)]
	if !ok {
		return gen, false, nil
	}
	*(dst.(*[]domain.Ticket)) = v.([]domain.Ticket)
	return gen, true, nil
}

func (s *memStore) SetList(_ context.Context, scope, key string, gen int64, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[fmt.Sprintf("%s/%d/%s", scope, gen, key)] = value
	return nil
}

func (s *memStore) InvalidateScope(_ context.Context, scope string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[scope]++
	s.dropped = append(s.dropped, scope)
	return nil
}

func (s *memStore) PushFlash(_ context.Context, id string, f cache.Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes[id] = append(s.flashes[id], f)
	return nil
}

func (s *memStore) PopFlashes(_ context.Context, id string) ([]cache.Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flashes[id]
	delete(s.flashes, id)
	return out, nil
}

func (s *memStore) SaveOAuthState(_ context.Context, state, returnTo string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state] = returnTo
	return nil
}

func (s *memStore) TakeOAuthState(_ context.Context, state string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.states[state]
	delete(s.states, state)
	return v, ok, nil
}

func (s *memStore) ClaimOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claims[key] {
		return false, nil
	}
	s.claims[key] = true
	return true, nil
}

func (s *memStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claims, key)
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev kafka.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []kafka.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]kafka.Event(nil), n.events...)
}

// fakeLookup signs in the session "s1" when a user is set.
type fakeLookup struct {
	user    *domain.Identity
	loading bool
}

func (f *fakeLookup) Lookup(_ context.Context, id string) session.State {
	if f.loading {
		return session.State{Loading: true}
	}
	if id != "s1" || f.user == nil {
		return session.State{}
	}
	return session.State{Session: &domain.Session{ID: "s1", Identity: *f.user}}
}

func (f *fakeLookup) Token(context.Context, *domain.Session) (string, error) {
	return "id-token", nil
}

type fixedRole struct {
	res query.Result[domain.Role]
}

func (r fixedRole) Resolve(context.Context, *domain.Identity, string) query.Result[domain.Role] {
	return r.res
}

type fakeBrowser struct {
	page    browser.Page
	current bool
}

func (b *fakeBrowser) Load(_ context.Context, _ string, st browser.State) (browser.Page, bool) {
	p := b.page
	p.State = st
	return p, b.current
}

func (b *fakeBrowser) PageSize() int { return 6 }

type harness struct {
	router   http.Handler
	backend  *MockBackend
	sessions *MockSessions
	uploader *MockUploader
	roles    *MockRoleCache
	store    *memStore
	notifier *recordingNotifier
	lookup   *fakeLookup
	browser  *fakeBrowser
}

func newHarness(t *testing.T, user *domain.Identity, role query.Result[domain.Role]) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clk := ticker.New(testclock.NewClock(testNow), time.Second)
	renderer, err := NewRenderer(clk, time.UTC)
	require.NoError(t, err)

	h := &harness{
		backend:  &MockBackend{},
		sessions: &MockSessions{},
		uploader: &MockUploader{},
		roles:    &MockRoleCache{},
		store:    newMemStore(),
		notifier: &recordingNotifier{},
		lookup:   &fakeLookup{user: user},
		browser:  &fakeBrowser{current: true},
	}
	h.router = NewRouter(Deps{
		Backend:    h.backend,
		Store:      h.store,
		Sessions:   h.sessions,
		Lookup:     h.lookup,
		Roles:      fixedRole{res: role},
		RoleCache:  h.roles,
		Browser:    h.browser,
		Uploader:   h.uploader,
		Notifier:   h.notifier,
		Clock:      clk,
		Renderer:   renderer,
		CookieName: "tb_session",
		SessionTTL: time.Hour,
	})
	return h
}

func (h *harness) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func sessionCookie() *http.Cookie {
	return &http.Cookie{Name: "tb_session", Value: "s1"}
}

func flashCookieFrom(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == flashCookie {
			return c
		}
	}
	return nil
}

var (
	buyer  = &domain.Identity{Email: "buyer@example.com", DisplayName: "Buyer"}
	vendor = &domain.Identity{Email: "vendor@example.com", DisplayName: "Green Line"}
	admin  = &domain.Identity{Email: "admin@example.com", DisplayName: "Admin"}
)

func sampleTicket() *domain.Ticket {
	return &domain.Ticket{
		ID:            "abc123",
		Title:         "Dhaka Express",
		From:          "Dhaka",
		To:            "Sylhet",
		TransportType: "Bus",
		Quantity:      5,
		Departure:     testNow.Add(48 * time.Hour),
		VendorName:    "Green Line",
		VendorEmail:   vendor.Email,
		Status:        domain.TicketStatusApproved,
	}
}

func errUnauthorized() error {
	return &backend.APIError{Status: http.StatusUnauthorized}
}
