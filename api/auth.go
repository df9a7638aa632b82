package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juju/errors"

	"github.com/Domenick1991/ticketbari/internal/auth"
	"github.com/Domenick1991/ticketbari/internal/backend"
	"github.com/Domenick1991/ticketbari/internal/domain"
	"github.com/Domenick1991/ticketbari/internal/forms"
	"github.com/Domenick1991/ticketbari/internal/guard"
)

const oauthStateTTL = 10 * time.Minute

type AuthHandler struct {
	*pages
	sessions   Sessions
	users      UserAPI
	uploader   forms.Uploader
	cookieName string
	sessionTTL time.Duration
}

func NewAuthHandler(p *pages, sessions Sessions, users UserAPI, uploader forms.Uploader, cookieName string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{
		pages:      p,
		sessions:   sessions,
		users:      users,
		uploader:   uploader,
		cookieName: cookieName,
		sessionTTL: ttl,
	}
}

func (h *AuthHandler) Register(router *gin.RouterGroup) {
	router.GET("/login", h.loginPage)
	router.POST("/login", h.login)
	router.GET("/register", h.registerPage)
	router.POST("/register", h.register)
	router.GET("/forgot-pass", h.forgotPage)
	router.POST("/forgot-pass", h.forgot)
	router.GET("/auth/google", h.googleStart)
	router.GET("/auth/google/callback", h.googleCallback)
	router.POST("/logout", h.logout)
}

type loginPage struct {
	Form   forms.LoginForm
	Errors forms.FieldErrors
	Error  string
}

func (h *AuthHandler) loginPage(c *gin.Context) {
	redirect := guard.SafeReturn(c.Query("redirect"))
	if guard.State(c).SignedIn() {
		c.Redirect(http.StatusSeeOther, redirect)
		return
	}
	h.render(c, http.StatusOK, "login", "Login", loginPage{
		Form: forms.LoginForm{Email: c.Query("email"), Redirect: redirect},
	})
}

func (h *AuthHandler) login(c *gin.Context) {
	var form forms.LoginForm
	_ = c.ShouldBind(&form)
	form.Redirect = guard.SafeReturn(form.Redirect)

	if errs := form.Validate(); !errs.Empty() {
		form.Password = ""
		h.render(c, http.StatusUnprocessableEntity, "login", "Login", loginPage{Form: form, Errors: errs})
		return
	}

	sess, err := h.sessions.SignIn(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		form.Password = ""
		h.render(c, http.StatusUnprocessableEntity, "login", "Login", loginPage{Form: form, Error: authMessage(err, "An unknown error occurred.")})
		return
	}

	h.open(c, sess)
	h.flash(c, "success", "Log In successful!")
	c.Redirect(http.StatusSeeOther, form.Redirect)
}

type registerPage struct {
	Form   forms.RegisterForm
	Rules  []forms.PasswordRule
	Errors forms.FieldErrors
	Error  string
}

func (h *AuthHandler) registerPage(c *gin.Context) {
	if guard.State(c).SignedIn() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.render(c, http.StatusOK, "register", "Register", registerPage{Rules: forms.PasswordRules("")})
}

func (h *AuthHandler) register(c *gin.Context) {
	var form forms.RegisterForm
	_ = c.ShouldBind(&form)

	fail := func(errs forms.FieldErrors, msg string) {
		rules := forms.PasswordRules(form.Password)
		form.Password = ""
		h.render(c, http.StatusUnprocessableEntity, "register", "Register", registerPage{Form: form, Rules: rules, Errors: errs, Error: msg})
	}

	if errs := form.Validate(); !errs.Empty() {
		fail(errs, "")
		return
	}

	photoURL := form.PhotoURL
	if img, err := imageFromRequest(c, "image"); err != nil {
		fail(forms.FieldErrors{"image": err.Error()}, "")
		return
	} else if img != nil {
		link, err := h.uploader.Upload(c.Request.Context(), img.Name, img.Body)
		if err != nil {
			logger.Errorf("uploading avatar: %v", err)
			fail(nil, forms.UploadFailedMessage)
			return
		}
		photoURL = link
	}

	sess, err := h.sessions.Register(c.Request.Context(), form.Name, form.Email, form.Password, photoURL)
	if err != nil {
		fail(nil, authMessage(err, "Registration failed. Try again."))
		return
	}

	h.open(c, sess)
	h.flash(c, "success", "Registration successful!")
	c.Redirect(http.StatusSeeOther, "/")
}

type forgotPage struct {
	Form   forms.ForgotForm
	Errors forms.FieldErrors
	Error  string
}

func (h *AuthHandler) forgotPage(c *gin.Context) {
	h.render(c, http.StatusOK, "forgot", "Reset Password", forgotPage{Form: forms.ForgotForm{Email: c.Query("email")}})
}

func (h *AuthHandler) forgot(c *gin.Context) {
	var form forms.ForgotForm
	_ = c.ShouldBind(&form)
	if errs := form.Validate(); !errs.Empty() {
		h.render(c, http.StatusUnprocessableEntity, "forgot", "Reset Password", forgotPage{Form: form, Errors: errs})
		return
	}
	if err := h.sessions.SendPasswordReset(c.Request.Context(), form.Email); err != nil {
		h.render(c, http.StatusUnprocessableEntity, "forgot", "Reset Password", forgotPage{Form: form, Error: authMessage(err, "Something went wrong. Try again.")})
		return
	}
	h.flash(c, "success", "Check your email! Password reset link sent.")
	c.Redirect(http.StatusSeeOther, "/login?email="+url.QueryEscape(form.Email))
}

func (h *AuthHandler) googleStart(c *gin.Context) {
	state := uuid.NewString()
	target := h.sessions.GoogleAuthURL(state)
	if target == "" {
		h.flash(c, "error", "Google sign-in is not available.")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}
	returnTo := guard.SafeReturn(c.Query("redirect"))
	if err := h.store.SaveOAuthState(c.Request.Context(), state, returnTo, oauthStateTTL); err != nil {
		h.fail(c, errors.Annotate(err, "saving oauth state"))
		return
	}
	c.Redirect(http.StatusSeeOther, target)
}

func (h *AuthHandler) googleCallback(c *gin.Context) {
	ctx := c.Request.Context()
	returnTo, ok, err := h.store.TakeOAuthState(ctx, c.Query("state"))
	if err != nil {
		h.fail(c, errors.Annotate(err, "reading oauth state"))
		return
	}
	if !ok {
		h.flash(c, "error", "Sign-in session expired. Try again.")
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	sess, err := h.sessions.SignInWithGoogle(ctx, c.Query("code"))
	if err != nil {
		h.flash(c, "error", authMessage(err, "Google sign in failed."))
		c.Redirect(http.StatusSeeOther, guard.LoginPath(returnTo))
		return
	}

	h.open(c, sess)
	h.flash(c, "success", "Google sign in successful!")
	c.Redirect(http.StatusSeeOther, guard.SafeReturn(returnTo))
}

func (h *AuthHandler) logout(c *gin.Context) {
	id, _ := c.Cookie(h.cookieName)
	if err := h.sessions.SignOut(c.Request.Context(), id); err != nil {
		logger.Warningf("signing out: %v", err)
	}
	h.setSessionCookie(c, "", -1)
	h.flash(c, "success", "Logged out successfully.")
	c.Redirect(http.StatusSeeOther, "/")
}

// open sets the session cookie and records the user with the API.
func (h *AuthHandler) open(c *gin.Context, sess *domain.Session) {
	h.setSessionCookie(c, sess.ID, int(h.sessionTTL/time.Second))
	ctx := backend.WithToken(context.WithoutCancel(c.Request.Context()), sess.IDToken)
	if err := h.users.SaveUser(ctx, sess.Identity); err != nil {
		logger.Warningf("saving user %s: %v", sess.Identity.Email, err)
	}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, value, maxAge, "/", "", h.secureCookie, true)
}

// authMessage returns the readable message of a provider error.
func authMessage(err error, fallback string) string {
	var authErr *auth.Error
	if errors.As(err, &authErr) {
		return authErr.Message()
	}
	return fallback
}
