package api

import (
	"context"
	"time"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/cache"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/kafka"
)

// Sessions is the session store as seen by the auth and profile pages.
type Sessions interface {
	SignIn(ctx context.Context, email, password string) (*domain.Session, error)
	Register(ctx context.Context, name, email, password, photoURL string) (*domain.Session, error)
	SignInWithGoogle(ctx context.Context, code string) (*domain.Session, error)
	GoogleAuthURL(state string) string
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, sess *domain.Session, name, photoURL string) error
}

type TicketAPI interface {
	LatestTickets(ctx context.Context) ([]domain.Ticket, error)
	AdvertisedTickets(ctx context.Context) ([]domain.Ticket, error)
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	CreateTicket(ctx context.Context, in backend.TicketInput) error
	UpdateTicket(ctx context.Context, id string, in backend.TicketInput) error
	DeleteTicket(ctx context.Context, id string) error
	VendorTickets(ctx context.Context, email string) ([]domain.Ticket, error)
}

type BookingAPI interface {
	CreateBooking(ctx context.Context, in backend.BookingInput) error
	UserBookings(ctx context.Context, email string) ([]domain.Booking, error)
	VendorBookings(ctx context.Context, email string) ([]domain.Booking, error)
	AcceptBooking(ctx context.Context, id string) error
	RejectBooking(ctx context.Context, id string) error
}

type PaymentAPI interface {
	CreateCheckoutSession(ctx context.Context, bookingID string) (string, error)
	CompletePayment(ctx context.Context, sessionID string) (*backend.PaymentResult, error)
	Transactions(ctx context.Context, email string) ([]domain.Transaction, error)
	RevenueOverview(ctx context.Context, email string) (*domain.RevenueOverview, error)
}

type UserAPI interface {
	GetUser(ctx context.Context, email string) (*domain.UserProfile, error)
	SaveUser(ctx context.Context, id domain.Identity) error
}

type AdminAPI interface {
	AdminTickets(ctx context.Context) ([]domain.Ticket, error)
	ApproveTicket(ctx context.Context, id string) error
	RejectTicket(ctx context.Context, id string) error
	AdvertiseCandidates(ctx context.Context) ([]domain.Ticket, error)
	ToggleAdvertise(ctx context.Context, id string) error
	AdminUsers(ctx context.Context) ([]domain.UserProfile, error)
	MakeAdmin(ctx context.Context, id string) error
	MakeVendor(ctx context.Context, id string) error
	MarkFraud(ctx context.Context, id string) error
}

// Backend is the full REST API surface used by the pages.
type Backend interface {
	TicketAPI
	BookingAPI
	PaymentAPI
	UserAPI
	AdminAPI
}

var _ Backend = (*backend.Client)(nil)

// Store is the Redis-backed page state: list cache, flashes and one-shot
// markers.
type Store interface {
	GetList(ctx context.Context, scope, key string, dst any) (gen int64, ok bool, err error)
	SetList(ctx context.Context, scope, key string, gen int64, value any) error
	InvalidateScope(ctx context.Context, scope string) error
	PushFlash(ctx context.Context, id string, f cache.Flash) error
	PopFlashes(ctx context.Context, id string) ([]cache.Flash, error)
	SaveOAuthState(ctx context.Context, state, returnTo string, ttl time.Duration) error
	TakeOAuthState(ctx context.Context, state string) (string, bool, error)
	ClaimOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

var _ Store = (*cache.RedisCache)(nil)

type RoleInvalidator interface {
	Invalidate(ctx context.Context, email string) error
}

type Notifier interface {
	Notify(ctx context.Context, ev kafka.Event)
}

var _ Notifier = (*kafka.Notifier)(nil)
