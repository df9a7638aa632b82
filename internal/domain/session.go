package domain

import "time"

// Session is a server-side sign-in record referenced by the session cookie.
type Session struct {
	ID             string
	Identity       Identity
	IDToken        string
	RefreshToken   string
	TokenExpiresAt time.Time
	CreatedAt      time.Time
	ExpiresAt      time.Time
}
