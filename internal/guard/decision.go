// Package guard gates routes on the signed-in identity and its role.
//
// The decision functions are pure; the gin middlewares in this package
// apply them to a request.
package guard

import (
	"net/url"
	"strings"

	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/query"
	"github.com/Domenick1991/ticketbari/internal/session"
)

type Kind int

const (
	Render Kind = iota
	Loading
	Failed
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Loading:
		return "loading"
	case Failed:
		return "failed"
	case Redirect:
		return "redirect"
	}
	return "unknown"
}

type Decision struct {
	Kind     Kind
	Location string
	Err      error
}

// Authenticated renders for a signed-in session and sends anyone else to
// the login page carrying path as the return target. It never redirects
// while the session is still loading.
func Authenticated(state session.State, path string) Decision {
	switch {
	case state.Loading:
		return Decision{Kind: Loading}
	case state.Err != nil:
		return Decision{Kind: Failed, Err: state.Err}
	case state.SignedIn():
		return Decision{Kind: Render}
	}
	return Decision{Kind: Redirect, Location: LoginPath(path)}
}

// RequireRole renders only when the resolved role equals required. A role
// that is not resolved yet, including a disabled lookup, is Loading; a
// failed lookup is Failed and is retried rather than treated as a
// mismatch.
func RequireRole(role query.Result[domain.Role], required domain.Role) Decision {
	switch role.Status {
	case query.Idle, query.Loading:
		return Decision{Kind: Loading}
	case query.Failed:
		return Decision{Kind: Failed, Err: role.Err}
	}
	if role.Value == required {
		return Decision{Kind: Render}
	}
	return Decision{Kind: Redirect, Location: "/"}
}

// LoginPath is the login URL that returns to returnTo after sign-in.
func LoginPath(returnTo string) string {
	if !IsLocalPath(returnTo) || returnTo == "/" || returnTo == "/login" {
		return "/login"
	}
	return "/login?" + url.Values{"redirect": {returnTo}}.Encode()
}

// IsLocalPath reports whether p is an absolute path on this site.
func IsLocalPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return false
	}
	u, err := url.Parse(p)
	return err == nil && u.Scheme == "" && u.Host == ""
}

// SafeReturn returns p when it is a local path, otherwise "/".
func SafeReturn(p string) string {
	if IsLocalPath(p) {
		return p
	}
	return "/"
}
