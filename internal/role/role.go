// Package role resolves the access tier of the signed-in identity.
package role

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"golang.org/x/sync/singleflight"

	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/query"
)

var logger = loggo.GetLogger("ticketbari.role")

type Fetcher interface {
	Role(ctx context.Context) (domain.Role, error)
}

type Cache interface {
	GetRole(ctx context.Context, email string) (domain.Role, bool, error)
	SetRole(ctx context.Context, email string, role domain.Role, ttl time.Duration) error
	DeleteRole(ctx context.Context, email string) error
}

// Derive combines the identity with the last known lookup result. The
// lookup is disabled until an identity is known.
func Derive(identity *domain.Identity, cached query.Result[domain.Role]) query.Result[domain.Role] {
	if identity == nil || identity.Email == "" {
		return query.Disabled[domain.Role]()
	}
	return cached
}

type Resolver struct {
	fetcher Fetcher
	cache   Cache
	clock   clock.Clock

	wait         time.Duration
	ttl          time.Duration
	fetchTimeout time.Duration

	group singleflight.Group

	// gens counts invalidations per email. A fetch only caches its role
	// while the count it started under is still current.
	mu   sync.Mutex
	gens map[string]uint64
}

type Option func(*Resolver)

func WithClock(c clock.Clock) Option {
	return func(r *Resolver) {
		r.clock = c
	}
}

// WithWait bounds how long Resolve blocks before reporting Loading.
func WithWait(d time.Duration) Option {
	return func(r *Resolver) {
		r.wait = d
	}
}

func WithTTL(d time.Duration) Option {
	return func(r *Resolver) {
		r.ttl = d
	}
}

func NewResolver(fetcher Fetcher, cache Cache, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:      fetcher,
		cache:        cache,
		clock:        clock.WallClock,
		wait:         800 * time.Millisecond,
		ttl:          10 * time.Minute,
		fetchTimeout: 15 * time.Second,
		gens:         make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the role for identity. Concurrent lookups for the same
// email share one request. A lookup still running after the wait budget
// reports Loading and keeps going in the background so a later call finds
// the cached role. Failures are returned but never cached.
func (r *Resolver) Resolve(ctx context.Context, identity *domain.Identity, token string) query.Result[domain.Role] {
	if identity == nil || identity.Email == "" {
		return query.Disabled[domain.Role]()
	}
	email := identity.Email

	role, ok, err := r.cache.GetRole(ctx, email)
	switch {
	case err != nil:
		logger.Warningf("reading cached role for %s: %v", email, err)
	case ok:
		return query.Done(role)
	}

	fetchCtx := backend.WithToken(context.WithoutCancel(ctx), token)
	ch := r.group.DoChan(email, func() (any, error) {
		fctx, cancel := context.WithTimeout(fetchCtx, r.fetchTimeout)
		defer cancel()

		gen := r.generation(email)
		role, err := r.fetcher.Role(fctx)
		if err != nil {
			return nil, errors.Annotatef(err, "fetching role for %s", email)
		}
		r.store(fctx, email, role, gen)
		return role, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			logger.Errorf("%v", res.Err)
			return query.Fail[domain.Role](res.Err)
		}
		return query.Done(res.Val.(domain.Role))
	case <-r.clock.After(r.wait):
		logger.Debugf("role lookup for %s still in flight", email)
		return query.Pending[domain.Role]()
	case <-ctx.Done():
		return query.Fail[domain.Role](ctx.Err())
	}
}

// store caches role unless email was invalidated after gen was read. An
// invalidation racing the write removes the entry again.
func (r *Resolver) store(ctx context.Context, email string, role domain.Role, gen uint64) {
	if r.generation(email) != gen {
		logger.Debugf("dropping role for %s fetched before invalidation", email)
		return
	}
	if err := r.cache.SetRole(ctx, email, role, r.ttl); err != nil {
		logger.Warningf("caching role for %s: %v", email, err)
		return
	}
	if r.generation(email) != gen {
		if err := r.cache.DeleteRole(ctx, email); err != nil {
			logger.Warningf("dropping stale role for %s: %v", email, err)
		}
	}
}

func (r *Resolver) generation(email string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gens[email]
}

// Invalidate drops the cached role so the next Resolve refetches it. A
// lookup already in flight does not cache its result.
func (r *Resolver) Invalidate(ctx context.Context, email string) error {
	r.mu.Lock()
	r.gens[email]++
	r.mu.Unlock()
	r.group.Forget(email)
	if err := r.cache.DeleteRole(ctx, email); err != nil {
		return errors.Annotatef(err, "invalidating role for %s", email)
	}
	return nil
}
