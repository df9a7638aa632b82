// Package session holds signed-in identities for the lifetime of a browser
// session. The Store is constructed once, started at process start and
// stopped at shutdown.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/Domenick1991/ticketbari/internal/auth"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/repository"
)

var logger = loggo.GetLogger("ticketbari.session")

// State is the outcome of resolving a session cookie. Loading means the
// lookup has not completed yet and must not be read as "signed out".
type State struct {
	Session *domain.Session
	Loading bool
	Err     error
}

func (s State) Identity() *domain.Identity {
	if s.Session == nil {
		return nil
	}
	return &s.Session.Identity
}

func (s State) SignedIn() bool {
	return s.Session != nil
}

type Store struct {
	repo     repository.SessionRepository
	provider auth.Provider
	clock    clock.Clock

	ttl         time.Duration
	lookupWait  time.Duration
	refreshSkew time.Duration

	mu          sync.Mutex
	unsubscribe func()
	endHooks    []func(ctx context.Context, email string)
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

func WithLookupWait(d time.Duration) Option {
	return func(s *Store) {
		s.lookupWait = d
	}
}

// WithEndHook registers fn to run whenever sessions for an account end,
// e.g. to drop cached per-identity data.
func WithEndHook(fn func(ctx context.Context, email string)) Option {
	return func(s *Store) {
		s.endHooks = append(s.endHooks, fn)
	}
}

func NewStore(repo repository.SessionRepository, provider auth.Provider, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		provider:    provider,
		clock:       clock.WallClock,
		ttl:         7 * 24 * time.Hour,
		lookupWait:  500 * time.Millisecond,
		refreshSkew: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start subscribes to provider auth-state changes. It must be called once.
func (s *Store) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		return errors.AlreadyExistsf("session store subscription")
	}
	s.unsubscribe = s.provider.Subscribe(func(change auth.StateChange) {
		s.handleChange(context.WithoutCancel(ctx), change)
	})
	logger.Infof("session store started")
	return nil
}

// Stop removes the provider subscription.
func (s *Store) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
		logger.Infof("session store stopped")
	}
}

func (s *Store) handleChange(ctx context.Context, change auth.StateChange) {
	switch change.Kind {
	case auth.ProfileUpdated:
		n, err := s.repo.UpdateIdentity(ctx, change.Email, change.Identity)
		if err != nil {
			logger.Errorf("updating sessions for %s: %v", change.Email, err)
			return
		}
		logger.Debugf("updated %d sessions for %s", n, change.Email)
	case auth.AccountDisabled:
		n, err := s.repo.DeleteByEmail(ctx, change.Email)
		if err != nil {
			logger.Errorf("ending sessions for %s: %v", change.Email, err)
			return
		}
		logger.Infof("ended %d sessions for disabled account %s", n, change.Email)
		s.runEndHooks(ctx, change.Email)
	}
}

func (s *Store) runEndHooks(ctx context.Context, email string) {
	for _, fn := range s.endHooks {
		fn(ctx, email)
	}
}

func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	creds, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, creds)
}

// Register creates the account and stamps the display name and avatar
// onto it before opening a session.
func (s *Store) Register(ctx context.Context, name, email, password, photoURL string) (*domain.Session, error) {
	creds, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	updated, err := s.provider.UpdateProfile(ctx, creds.IDToken, name, photoURL)
	if err != nil {
		return nil, err
	}
	creds.Identity.DisplayName = name
	creds.Identity.PhotoURL = photoURL
	if updated.IDToken != "" && updated.IDToken != creds.IDToken {
		creds.IDToken = updated.IDToken
		creds.ExpiresAt = updated.ExpiresAt
	}
	if updated.RefreshToken != "" {
		creds.RefreshToken = updated.RefreshToken
	}
	return s.create(ctx, creds)
}

func (s *Store) SignInWithGoogle(ctx context.Context, code string) (*domain.Session, error) {
	creds, err := s.provider.SignInWithGoogle(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, creds)
}

func (s *Store) GoogleAuthURL(state string) string {
	return s.provider.GoogleAuthURL(state)
}

func (s *Store) SendPasswordReset(ctx context.Context, email string) error {
	return s.provider.SendPasswordReset(ctx, email)
}

func (s *Store) create(ctx context.Context, creds *auth.Credentials) (*domain.Session, error) {
	now := s.clock.Now()
	sess := &domain.Session{
		ID:             uuid.NewString(),
		Identity:       creds.Identity,
		IDToken:        creds.IDToken,
		RefreshToken:   creds.RefreshToken,
		TokenExpiresAt: creds.ExpiresAt,
		ExpiresAt:      now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, errors.Annotate(err, "creating session")
	}
	logger.Infof("session opened for %s", sess.Identity.Email)
	return sess, nil
}

// SignOut ends one session.
func (s *Store) SignOut(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Annotate(err, "deleting session")
	}
	return nil
}

type lookupResult struct {
	sess *domain.Session
	err  error
}

// Lookup resolves a session id. It waits at most the lookup budget; a
// slower lookup reports Loading.
func (s *Store) Lookup(ctx context.Context, id string) State {
	if id == "" {
		return State{}
	}

	done := make(chan lookupResult, 1)
	go func() {
		sess, err := s.repo.Get(ctx, id)
		done <- lookupResult{sess: sess, err: err}
	}()

	select {
	case res := <-done:
		return s.settle(ctx, res)
	case <-s.clock.After(s.lookupWait):
		logger.Debugf("session lookup exceeded %v", s.lookupWait)
		return State{Loading: true}
	case <-ctx.Done():
		return State{Err: ctx.Err()}
	}
}

func (s *Store) settle(ctx context.Context, res lookupResult) State {
	if res.err != nil {
		if errors.Is(res.err, errors.NotFound) {
			return State{}
		}
		return State{Err: res.err}
	}
	if !res.sess.ExpiresAt.After(s.clock.Now()) {
		if err := s.repo.Delete(ctx, res.sess.ID); err != nil {
			logger.Warningf("deleting expired session: %v", err)
		}
		return State{}
	}
	return State{Session: res.sess}
}

// Token returns a valid ID token for sess, refreshing it when close to
// expiry. A refresh the provider rejects ends the session.
func (s *Store) Token(ctx context.Context, sess *domain.Session) (string, error) {
	if s.clock.Now().Add(s.refreshSkew).Before(sess.TokenExpiresAt) {
		return sess.IDToken, nil
	}
	creds, err := s.provider.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		var authErr *auth.Error
		if errors.As(err, &authErr) && authErr.Code != auth.CodeNetworkFailed {
			if delErr := s.repo.Delete(ctx, sess.ID); delErr != nil {
				logger.Warningf("deleting revoked session: %v", delErr)
			}
			return "", errors.NewUnauthorized(err, "session expired")
		}
		return "", errors.Annotate(err, "refreshing token")
	}
	if err := s.repo.UpdateTokens(ctx, sess.ID, creds.IDToken, creds.RefreshToken, creds.ExpiresAt); err != nil {
		return "", errors.Annotate(err, "storing refreshed token")
	}
	sess.IDToken = creds.IDToken
	sess.RefreshToken = creds.RefreshToken
	sess.TokenExpiresAt = creds.ExpiresAt
	return sess.IDToken, nil
}

// UpdateProfile edits the signed-in account's display name and photo.
func (s *Store) UpdateProfile(ctx context.Context, sess *domain.Session, name, photoURL string) error {
	token, err := s.Token(ctx, sess)
	if err != nil {
		return err
	}
	if _, err := s.provider.UpdateProfile(ctx, token, name, photoURL); err != nil {
		return err
	}
	sess.Identity.DisplayName = name
	sess.Identity.PhotoURL = photoURL
	return nil
}

// Sweep deletes sessions past their expiry.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.clock.Now())
}
