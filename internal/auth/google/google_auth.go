package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loginctl/loginctl/internal/config"
	"github.com/loginctl/loginctl/internal/util"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// authScopes is the fixed scope set requested during authorization.
const authScopes = "openid profile email"

// requestTimeout is the defensive per-request bound applied to all
// provider-side HTTP calls.
const requestTimeout = 30 * time.Second

// GoogleAuth talks to Google's OAuth endpoints: it builds authorization
// URLs, exchanges authorization codes for tokens, verifies access tokens,
// and fetches the user profile.
type GoogleAuth struct {
	httpClient   *http.Client
	endpoints    *WellKnownEndpoints
	credentials  *config.ClientCredentials
	tokenInfoURL string
	log          *log.Entry
}

// NewGoogleAuth creates a Google authentication service. It validates the
// client credentials and fetches the provider's discovery document.
func NewGoogleAuth(ctx context.Context, cfg *config.Config, credentials *config.ClientCredentials, logger *log.Entry) (*GoogleAuth, error) {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	if credentials == nil || credentials.ClientID == "" || credentials.ClientSecret == "" {
		return nil, NewAuthenticationError(ErrInvalidConfiguration, nil)
	}

	httpClient := util.NewHTTPClient(cfg.ProxyURL, requestTimeout)
	endpoints, err := discoverEndpoints(ctx, httpClient, cfg.IssuerBaseURL)
	if err != nil {
		return nil, err
	}
	logger.WithField("endpoint", endpoints.AuthorizationEndpoint).Debug("discovered provider endpoints")

	return &GoogleAuth{
		httpClient:   httpClient,
		endpoints:    endpoints,
		credentials:  credentials,
		tokenInfoURL: TokenInfoURL,
		log:          logger,
	}, nil
}

// GenerateAuthURL composes the authorization endpoint URL with all query
// parameters percent-encoded. Pure string construction, no side effects.
func (g *GoogleAuth) GenerateAuthURL(redirectURI, state string, pkceCodes *PKCECodes) (string, error) {
	if pkceCodes == nil {
		return "", fmt.Errorf("PKCE codes are required")
	}

	return fmt.Sprintf("%s?response_type=code&scope=%s&redirect_uri=%s&client_id=%s&state=%s&code_challenge=%s&code_challenge_method=S256",
		g.endpoints.AuthorizationEndpoint,
		percentEncode(authScopes),
		percentEncode(redirectURI),
		percentEncode(g.credentials.ClientID),
		percentEncode(state),
		percentEncode(pkceCodes.CodeChallenge),
	), nil
}

// ExchangeCodeForTokens exchanges an authorization code for a token set.
// Authorization codes are single-use, so exactly one attempt is made; any
// transport failure, non-2xx status, or decode failure fails the flow.
func (g *GoogleAuth) ExchangeCodeForTokens(ctx context.Context, code, state, redirectURI string, pkceCodes *PKCECodes) (*TokenData, error) {
	if pkceCodes == nil {
		return nil, fmt.Errorf("PKCE codes are required for token exchange")
	}

	data := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {g.credentials.ClientID},
		"client_secret": {g.credentials.ClientSecret},
		"redirect_uri":  {redirectURI},
		"code_verifier": {pkceCodes.CodeVerifier},
		"state":         {state},
		"scope":         {""},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.endpoints.TokenEndpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, NewAuthenticationError(ErrTokenExchangeFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAuthenticationError(ErrTokenExchangeFailed, fmt.Errorf("failed to read token response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewAuthenticationError(ErrTokenExchangeFailed, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var token TokenData
	if err = json.Unmarshal(body, &token); err != nil {
		return nil, NewAuthenticationError(ErrDecodeFailed, fmt.Errorf("failed to parse token response: %w", err))
	}
	return &token, nil
}

// VerifyAccessToken queries the tokeninfo endpoint for the given access
// token and decodes the introspection result.
func (g *GoogleAuth) VerifyAccessToken(ctx context.Context, accessToken string) (*TokenVerification, error) {
	uri := fmt.Sprintf("%s?access_token=%s", g.tokenInfoURL, percentEncode(accessToken))
	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("tokeninfo request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("failed to read tokeninfo response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("tokeninfo failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var verification TokenVerification
	if err = json.Unmarshal(body, &verification); err != nil {
		return nil, NewAuthenticationError(ErrDecodeFailed, fmt.Errorf("failed to parse tokeninfo response: %w", err))
	}
	return &verification, nil
}

// FetchUserInfo queries the userinfo endpoint with a bearer token and
// decodes the authenticated user's profile.
func (g *GoogleAuth) FetchUserInfo(ctx context.Context, accessToken string) (*UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", g.endpoints.UserinfoEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", accessToken))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("userinfo request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("failed to read userinfo response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("userinfo failed with status %d: %s", resp.StatusCode, string(body)))
	}

	if emailResult := gjson.GetBytes(body, "email"); emailResult.Exists() && emailResult.Type == gjson.String {
		g.log.Debugf("authenticated user email: %s", emailResult.String())
	}

	var profile UserProfile
	if err = json.Unmarshal(body, &profile); err != nil {
		return nil, NewAuthenticationError(ErrDecodeFailed, fmt.Errorf("failed to parse userinfo response: %w", err))
	}
	return &profile, nil
}
