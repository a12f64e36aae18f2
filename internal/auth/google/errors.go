// Package google implements the installed-app OAuth 2.0 Authorization-Code
// flow with PKCE against Google's endpoints: PKCE parameter generation,
// authorization URL construction, the single-use loopback callback receiver,
// token exchange, token verification, and the userinfo query.
package google

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthenticationError represents a failure of the authorization flow.
type AuthenticationError struct {
	// Type is the stable identifier of the failure class.
	Type string `json:"type"`
	// Message is a human-readable message describing the error.
	Message string `json:"message"`
	// Code is the HTTP-ish status code associated with the error. The
	// port-in-use error carries the special exit code 13.
	Code int `json:"code"`
	// Cause is the underlying error that caused this failure.
	Cause error `json:"-"`
}

// Error returns a string representation of the authentication error.
func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Failure classes of the flow. Each step fails fast with exactly one of
// these; there are no retries because authorization codes and PKCE
// verifiers are single-use.
var (
	// ErrInvalidConfiguration reports empty client credential fields.
	ErrInvalidConfiguration = &AuthenticationError{
		Type:    "invalid_configuration",
		Message: "Client ID or client secret is empty",
		Code:    http.StatusBadRequest,
	}

	// ErrNoPortAvailable reports an exhausted loopback port range.
	ErrNoPortAvailable = &AuthenticationError{
		Type:    "no_port_available",
		Message: "No loopback port available for the OAuth callback",
		Code:    http.StatusInternalServerError,
	}

	// ErrBrowserOpenFailed reports that the system browser could not be launched.
	ErrBrowserOpenFailed = &AuthenticationError{
		Type:    "browser_open_failed",
		Message: "Failed to open the system browser",
		Code:    http.StatusInternalServerError,
	}

	// ErrPortInUse reports that the reserved callback port could not be bound.
	ErrPortInUse = &AuthenticationError{
		Type:    "port_in_use",
		Message: "OAuth callback port is already in use",
		Code:    13, // Special exit code for port-in-use
	}

	// ErrCallbackTimeout reports that no callback arrived within the bound.
	ErrCallbackTimeout = &AuthenticationError{
		Type:    "callback_timeout",
		Message: "Timeout waiting for OAuth callback",
		Code:    http.StatusRequestTimeout,
	}

	// ErrTransportFailed reports an accept/connect-level I/O error.
	ErrTransportFailed = &AuthenticationError{
		Type:    "transport_failed",
		Message: "Network transport failure during the OAuth flow",
		Code:    http.StatusBadGateway,
	}

	// ErrAuthorizationDenied reports a provider-returned error parameter.
	ErrAuthorizationDenied = &AuthenticationError{
		Type:    "authorization_denied",
		Message: "Authorization was denied by the provider",
		Code:    http.StatusForbidden,
	}

	// ErrStateMismatch reports a callback state that differs from the one
	// generated for this run. Possible CSRF; never ignored.
	ErrStateMismatch = &AuthenticationError{
		Type:    "state_mismatch",
		Message: "OAuth state parameter does not match this flow",
		Code:    http.StatusBadRequest,
	}

	// ErrMissingCode reports a callback without an authorization code.
	ErrMissingCode = &AuthenticationError{
		Type:    "missing_code",
		Message: "No authorization code received in the callback",
		Code:    http.StatusBadRequest,
	}

	// ErrTokenExchangeFailed reports a failed code-for-token exchange.
	ErrTokenExchangeFailed = &AuthenticationError{
		Type:    "token_exchange_failed",
		Message: "Failed to exchange authorization code for tokens",
		Code:    http.StatusBadRequest,
	}

	// ErrDecodeFailed reports malformed JSON from a provider endpoint.
	ErrDecodeFailed = &AuthenticationError{
		Type:    "decode_failed",
		Message: "Failed to decode provider response",
		Code:    http.StatusBadGateway,
	}
)

// NewAuthenticationError creates an authentication error of the given base
// class with a cause attached.
func NewAuthenticationError(baseErr *AuthenticationError, cause error) *AuthenticationError {
	return &AuthenticationError{
		Type:    baseErr.Type,
		Message: baseErr.Message,
		Code:    baseErr.Code,
		Cause:   cause,
	}
}

// NewAuthorizationDenied creates an authorization_denied error carrying the
// provider-supplied reason. The reason is untrusted input and is reported
// verbatim to the operator only.
func NewAuthorizationDenied(reason string) *AuthenticationError {
	return &AuthenticationError{
		Type:    ErrAuthorizationDenied.Type,
		Message: fmt.Sprintf("Authorization was denied by the provider: %s", reason),
		Code:    ErrAuthorizationDenied.Code,
	}
}

// IsAuthenticationError checks if an error is an authentication error.
func IsAuthenticationError(err error) bool {
	var authenticationError *AuthenticationError
	return errors.As(err, &authenticationError)
}

// ErrorType returns the failure class of err, or an empty string when err is
// not an AuthenticationError.
func ErrorType(err error) string {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Type
	}
	return ""
}

// GetUserFriendlyMessage returns a user-friendly error message based on the
// error type.
func GetUserFriendlyMessage(err error) string {
	var authErr *AuthenticationError
	if !errors.As(err, &authErr) {
		return "An unexpected error occurred. Please try again."
	}
	switch authErr.Type {
	case "invalid_configuration":
		return "The client secret file is missing or incomplete. Download a fresh client_secret*.json and try again."
	case "no_port_available":
		return "No free loopback port was found for the sign-in callback. Close other applications and try again."
	case "browser_open_failed":
		return "Could not open your browser automatically. Please copy and paste the URL manually."
	case "port_in_use":
		return "The callback port is already in use. Close the application using it and try again."
	case "callback_timeout":
		return "Sign-in timed out. Please try again."
	case "authorization_denied":
		return "Sign-in was cancelled or denied."
	case "state_mismatch":
		return "The sign-in response did not match this attempt and was rejected. Please try again."
	case "missing_code":
		return "The sign-in response was incomplete. Please try again."
	case "token_exchange_failed":
		return "The provider rejected the sign-in. Please try again."
	case "decode_failed":
		return "The provider returned an unreadable response. Please try again later."
	default:
		return "Sign-in failed. Please try again."
	}
}
