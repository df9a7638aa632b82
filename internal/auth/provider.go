// Package auth talks to the third-party identity provider: email/password
// accounts, password reset, token refresh and Google sign-in.
package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

// Credentials are what a successful sign-in yields.
type Credentials struct {
	Identity     domain.Identity
	IDToken      string
	RefreshToken string
	ExpiresAt    time.Time
}

type ChangeKind int

const (
	// ProfileUpdated carries the account's new display name and photo.
	ProfileUpdated ChangeKind = iota
	// AccountDisabled means every session for the account must end.
	AccountDisabled
)

// StateChange is an auth-state event for one account.
type StateChange struct {
	Kind     ChangeKind
	Email    string
	Identity domain.Identity
}

// Provider is the identity provider surface the session store needs.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Credentials, error)
	SignUp(ctx context.Context, email, password string) (*Credentials, error)
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Credentials, error)
	SendPasswordReset(ctx context.Context, email string) error
	Refresh(ctx context.Context, refreshToken string) (*Credentials, error)
	GoogleAuthURL(state string) string
	SignInWithGoogle(ctx context.Context, code string) (*Credentials, error)
	Subscribe(fn func(StateChange)) (unsubscribe func())
}

// tokenExpiry reads the exp claim without verifying the signature; the
// token is only ever forwarded to the API, which verifies it.
func tokenExpiry(idToken string, fallback time.Time) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	return exp.Time
}
