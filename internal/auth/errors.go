package auth

import (
	"fmt"
	"strings"
)

// Error codes surfaced to the UI.
const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserDisabled      = "auth/user-disabled"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeInvalidCredential = "auth/invalid-credential"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeTooManyRequests   = "auth/too-many-requests"
	CodeNetworkFailed     = "auth/network-request-failed"
	CodePopupClosed       = "auth/popup-closed-by-user"
	CodeDifferentProvider = "auth/account-exists-with-different-credential"
	CodeTokenExpired      = "auth/user-token-expired"
	CodeInvalidOAuthState = "auth/invalid-oauth-state"
	CodeInternal          = "auth/internal-error"
)

var messages = map[string]string{
	CodeInvalidEmail:      "Invalid email address.",
	CodeUserDisabled:      "This user account has been disabled.",
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password. Please try again.",
	CodeInvalidCredential: "The login credential is invalid.",
	CodeEmailInUse:        "This email is already registered.",
	CodeWeakPassword:      "Password is too weak (min 6 characters).",
	CodeTooManyRequests:   "Too many attempts. Please try again later.",
	CodeNetworkFailed:     "Network error. Check your internet connection.",
	CodePopupClosed:       "Sign-in popup was closed.",
	CodeDifferentProvider: "Account exists with different sign-in method.",
	CodeTokenExpired:      "Your session has expired. Please log in again.",
	CodeInvalidOAuthState: "Sign-in request expired. Please try again.",
}

// providerCodes maps identity-toolkit error messages onto UI codes.
var providerCodes = map[string]string{
	"INVALID_EMAIL":                    CodeInvalidEmail,
	"MISSING_EMAIL":                    CodeInvalidEmail,
	"USER_DISABLED":                    CodeUserDisabled,
	"EMAIL_NOT_FOUND":                  CodeUserNotFound,
	"USER_NOT_FOUND":                   CodeUserNotFound,
	"INVALID_PASSWORD":                 CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":        CodeInvalidCredential,
	"INVALID_IDP_RESPONSE":             CodeInvalidCredential,
	"EMAIL_EXISTS":                     CodeEmailInUse,
	"WEAK_PASSWORD":                    CodeWeakPassword,
	"TOO_MANY_ATTEMPTS_TRY_LATER":      CodeTooManyRequests,
	"FEDERATED_USER_ID_ALREADY_LINKED": CodeDifferentProvider,
	"TOKEN_EXPIRED":                    CodeTokenExpired,
	"INVALID_REFRESH_TOKEN":            CodeTokenExpired,
	"INVALID_ID_TOKEN":                 CodeTokenExpired,
}

// Error is a provider failure carrying a UI error code.
type Error struct {
	Code  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Message returns the user-readable text for the error.
func (e *Error) Message() string {
	if m, ok := messages[e.Code]; ok {
		return m
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "An unknown error occurred."
}

// fromProvider converts an identity-toolkit error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func fromProvider(message string) *Error {
	key := strings.TrimSpace(strings.SplitN(message, ":", 2)[0])
	if code, ok := providerCodes[key]; ok {
		return &Error{Code: code}
	}
	return &Error{Code: CodeInternal, Cause: fmt.Errorf("%s", message)}
}
