package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/Domenick1991/ticketbari/internal/domain"
)

var logger = loggo.GetLogger("ticketbari.auth")

const (
	DefaultIdentityURL = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL    = "https://securetoken.googleapis.com/v1"
)

type Config struct {
	APIKey             string
	IdentityURL        string
	TokenURL           string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	HTTPClient         *http.Client
	Clock              clock.Clock
}

// IdentityToolkit is a Provider backed by an identity-toolkit compatible
// REST API.
type IdentityToolkit struct {
	apiKey      string
	identityURL string
	tokenURL    string
	http        *http.Client
	oauth       *oauth2.Config
	clock       clock.Clock

	mu     sync.Mutex
	subs   map[int]func(StateChange)
	nextID int
}

func NewIdentityToolkit(cfg Config) *IdentityToolkit {
	p := &IdentityToolkit{
		apiKey:      cfg.APIKey,
		identityURL: strings.TrimRight(cfg.IdentityURL, "/"),
		tokenURL:    strings.TrimRight(cfg.TokenURL, "/"),
		http:        cfg.HTTPClient,
		clock:       cfg.Clock,
		subs:        make(map[int]func(StateChange)),
	}
	if p.identityURL == "" {
		p.identityURL = DefaultIdentityURL
	}
	if p.tokenURL == "" {
		p.tokenURL = DefaultTokenURL
	}
	if p.http == nil {
		p.http = &http.Client{Timeout: 10 * time.Second}
	}
	if p.clock == nil {
		p.clock = clock.WallClock
	}
	if cfg.GoogleClientID != "" {
		p.oauth = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoints.Google,
		}
	}
	return p
}

type accountResponse struct {
	IDToken          string `json:"idToken"`
	RefreshToken     string `json:"refreshToken"`
	ExpiresIn        string `json:"expiresIn"`
	Email            string `json:"email"`
	DisplayName      string `json:"displayName"`
	PhotoURL         string `json:"photoUrl"`
	NeedConfirmation bool   `json:"needConfirmation"`
}

func (p *IdentityToolkit) credentials(resp accountResponse) *Credentials {
	seconds, err := strconv.Atoi(resp.ExpiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	return &Credentials{
		Identity: domain.Identity{
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			PhotoURL:    resp.PhotoURL,
		},
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    tokenExpiry(resp.IDToken, p.clock.Now().Add(time.Duration(seconds)*time.Second)),
	}
}

func (p *IdentityToolkit) SignIn(ctx context.Context, email, password string) (*Credentials, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return p.credentials(resp), nil
}

func (p *IdentityToolkit) SignUp(ctx context.Context, email, password string) (*Credentials, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return p.credentials(resp), nil
}

func (p *IdentityToolkit) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (*Credentials, error) {
	var resp accountResponse
	err := p.post(ctx, "accounts:update", map[string]any{
		"idToken":           idToken,
		"displayName":       displayName,
		"photoUrl":          photoURL,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	creds := p.credentials(resp)
	if creds.IDToken == "" {
		creds.IDToken = idToken
	}
	p.publish(StateChange{Kind: ProfileUpdated, Email: creds.Identity.Email, Identity: creds.Identity})
	return creds, nil
}

func (p *IdentityToolkit) SendPasswordReset(ctx context.Context, email string) error {
	return p.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

type lookupResponse struct {
	Users []struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoUrl"`
		Disabled    bool   `json:"disabled"`
	} `json:"users"`
}

// Refresh exchanges a refresh token for a new ID token and re-reads the
// account profile.
func (p *IdentityToolkit) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	endpoint := fmt.Sprintf("%s/token?key=%s", p.tokenURL, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Trace(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var rr refreshResponse
	if err := p.send(req, &rr); err != nil {
		return nil, err
	}

	var lookup lookupResponse
	if err := p.post(ctx, "accounts:lookup", map[string]any{"idToken": rr.IDToken}, &lookup); err != nil {
		return nil, err
	}
	if len(lookup.Users) == 0 {
		return nil, &Error{Code: CodeUserNotFound}
	}
	user := lookup.Users[0]
	if user.Disabled {
		p.publish(StateChange{Kind: AccountDisabled, Email: user.Email})
		return nil, &Error{Code: CodeUserDisabled}
	}
	return p.credentials(accountResponse{
		IDToken:      rr.IDToken,
		RefreshToken: rr.RefreshToken,
		ExpiresIn:    rr.ExpiresIn,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PhotoURL:     user.PhotoURL,
	}), nil
}

// GoogleAuthURL returns the consent page URL, or "" when Google sign-in is
// not configured.
func (p *IdentityToolkit) GoogleAuthURL(state string) string {
	if p.oauth == nil {
		return ""
	}
	return p.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// SignInWithGoogle completes the OAuth flow. An empty code means the user
// closed or denied the consent screen.
func (p *IdentityToolkit) SignInWithGoogle(ctx context.Context, code string) (*Credentials, error) {
	if p.oauth == nil {
		return nil, errors.NotSupportedf("google sign-in")
	}
	if code == "" {
		return nil, &Error{Code: CodePopupClosed}
	}
	tok, err := p.oauth.Exchange(context.WithValue(ctx, oauth2.HTTPClient, p.http), code)
	if err != nil {
		return nil, &Error{Code: CodeInvalidCredential, Cause: err}
	}
	googleIDToken, _ := tok.Extra("id_token").(string)
	if googleIDToken == "" {
		return nil, &Error{Code: CodeInvalidCredential, Cause: errors.New("no id_token in google response")}
	}

	var resp accountResponse
	err = p.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            "id_token=" + url.QueryEscape(googleIDToken) + "&providerId=google.com",
		"requestUri":          p.oauth.RedirectURL,
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.NeedConfirmation {
		return nil, &Error{Code: CodeDifferentProvider}
	}
	return p.credentials(resp), nil
}

func (p *IdentityToolkit) Subscribe(fn func(StateChange)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *IdentityToolkit) publish(change StateChange) {
	p.mu.Lock()
	subs := make([]func(StateChange), 0, len(p.subs))
	for _, fn := range p.subs {
		subs = append(subs, fn)
	}
	p.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}

func (p *IdentityToolkit) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Trace(err)
	}
	target := fmt.Sprintf("%s/%s?key=%s", p.identityURL, endpoint, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return errors.Trace(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return p.send(req, out)
}

func (p *IdentityToolkit) send(req *http.Request, out any) error {
	resp, err := p.http.Do(req)
	if err != nil {
		logger.Warningf("identity provider unreachable: %v", err)
		return &Error{Code: CodeNetworkFailed, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Code: CodeNetworkFailed, Cause: err}
	}
	if resp.StatusCode >= 300 {
		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &body); err != nil || body.Error.Message == "" {
			return &Error{Code: CodeInternal, Cause: errors.Errorf("identity provider returned %d", resp.StatusCode)}
		}
		return fromProvider(body.Error.Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Code: CodeInternal, Cause: err}
	}
	return nil
}

var _ Provider = (*IdentityToolkit)(nil)
