package google

import (
	"context"
	"fmt"
	"time"

	"github.com/loginctl/loginctl/internal/browser"
	"github.com/loginctl/loginctl/internal/config"
	"github.com/loginctl/loginctl/internal/misc"
	log "github.com/sirupsen/logrus"
)

// FlowOptions customizes the interactive authorization flow.
type FlowOptions struct {
	// NoBrowser prints the authorization URL instead of opening a browser.
	NoBrowser bool
	// CallbackPort overrides the probed loopback port when positive.
	CallbackPort int
	// PortRangeMin and PortRangeMax bound the probed loopback port range.
	// Zero values fall back to the configured defaults.
	PortRangeMin int
	PortRangeMax int
	// Timeout bounds the wait for the authorization redirect.
	Timeout time.Duration
	// OpenURL is the browser-open capability. Defaults to the system
	// browser; tests inject their own.
	OpenURL func(url string) error
	// Prompt, when set, lets the user paste the callback URL manually in
	// no-browser mode before the loopback wait starts. Useful on headless
	// machines where the redirect cannot reach this process directly.
	Prompt func(message string) (string, error)
}

// LoginResult is the outcome of a completed authorization run.
type LoginResult struct {
	Token        *TokenData
	Verification *TokenVerification
	Profile      *UserProfile
}

// Flow drives one authorization run end to end. Exactly one state value and
// one PKCE pair exist per run; nothing is shared across runs.
type Flow struct {
	auth *GoogleAuth
	opts FlowOptions
	log  *log.Entry
}

// NewFlow creates a flow around an authentication service.
func NewFlow(auth *GoogleAuth, opts FlowOptions, logger *log.Entry) *Flow {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCallbackTimeout
	}
	if opts.PortRangeMin <= 0 {
		opts.PortRangeMin = config.DefaultPortRangeMin
	}
	if opts.PortRangeMax <= 0 {
		opts.PortRangeMax = config.DefaultPortRangeMax
	}
	if opts.OpenURL == nil {
		opts.OpenURL = browser.OpenURL
	}
	return &Flow{auth: auth, opts: opts, log: logger}
}

// Login executes the authorization sequence: state and PKCE generation,
// port reservation, browser hand-off, the bounded callback wait, callback
// validation, token exchange, token verification, and the userinfo query.
// Every step fails fast; a failed run releases its port and returns a
// tagged error.
func (f *Flow) Login(ctx context.Context) (*LoginResult, error) {
	f.log.Info("starting authorization flow")

	state, err := misc.GenerateRandomState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}
	pkceCodes, err := GeneratePKCECodes()
	if err != nil {
		return nil, err
	}

	port := f.opts.CallbackPort
	if port <= 0 {
		if port, err = ReservePort(f.opts.PortRangeMin, f.opts.PortRangeMax); err != nil {
			return nil, err
		}
	}
	server := NewCallbackServer(port, f.log)
	redirectURI := server.RedirectURI()

	authURL, err := f.auth.GenerateAuthURL(redirectURI, state, pkceCodes)
	if err != nil {
		return nil, err
	}

	result, err := f.receiveCallback(server, authURL)
	if err != nil {
		return nil, err
	}

	// The error parameter wins over everything else in the callback.
	if result.Error != "" {
		return nil, NewAuthorizationDenied(result.Error)
	}
	// A state mismatch is a possible CSRF and must abort before any
	// token exchange.
	if result.State != state {
		return nil, NewAuthenticationError(ErrStateMismatch, nil)
	}
	if result.Code == "" {
		return nil, NewAuthenticationError(ErrMissingCode, nil)
	}

	f.log.Info("authorization code received, exchanging for tokens")
	token, err := f.auth.ExchangeCodeForTokens(ctx, result.Code, result.State, redirectURI, pkceCodes)
	if err != nil {
		return nil, err
	}

	f.log.Info("verifying access token")
	verification, err := f.auth.VerifyAccessToken(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	f.log.Info("fetching user profile")
	profile, err := f.auth.FetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, Verification: verification, Profile: profile}, nil
}

// receiveCallback hands the authorization URL to the browser collaborator
// and blocks on the loopback listener until the redirect arrives or the
// wait times out. In no-browser mode the URL is printed instead, and an
// optional prompt lets the user paste the callback URL before the loopback
// wait starts.
func (f *Flow) receiveCallback(server *CallbackServer, authURL string) (*CallbackResult, error) {
	if f.opts.NoBrowser {
		fmt.Printf("Open this URL in your browser to continue:\n\n%s\n\n", authURL)
		if pasted, err := f.promptForCallback(); err != nil || pasted != nil {
			return pasted, err
		}
	} else {
		f.log.Debug("opening browser for authorization")
		if err := f.opts.OpenURL(authURL); err != nil {
			return nil, NewAuthenticationError(ErrBrowserOpenFailed, err)
		}
	}

	return server.WaitForCallback(f.opts.Timeout)
}

// promptForCallback asks once for a pasted callback URL. An empty answer,
// or no configured prompt, falls through to the loopback wait.
func (f *Flow) promptForCallback() (*CallbackResult, error) {
	if f.opts.Prompt == nil {
		return nil, nil
	}
	input, err := f.opts.Prompt("Paste the full callback URL (or press Enter to wait for the local redirect): ")
	if err != nil {
		return nil, err
	}
	parsed, err := misc.ParseOAuthCallback(input)
	if err != nil {
		return nil, NewAuthenticationError(ErrMissingCode, err)
	}
	if parsed == nil {
		return nil, nil
	}
	return &CallbackResult{Code: parsed.Code, State: parsed.State, Error: parsed.Error}, nil
}
