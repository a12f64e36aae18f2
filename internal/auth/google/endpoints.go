package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	// discoveryPath is appended to the issuer base URL to locate the
	// OpenID discovery document.
	discoveryPath = "/.well-known/openid-configuration"

	// TokenInfoURL is Google's token introspection endpoint. It is not
	// listed in the discovery document.
	TokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"
)

// WellKnownEndpoints is the subset of the OpenID discovery document the
// flow needs.
type WellKnownEndpoints struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	RevocationEndpoint    string `json:"revocation_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

// discoverEndpoints fetches and decodes the provider's discovery document.
func discoverEndpoints(ctx context.Context, client *http.Client, issuerBaseURL string) (*WellKnownEndpoints, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", issuerBaseURL+discoveryPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("discovery request failed: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("failed to read discovery response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("discovery failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var endpoints WellKnownEndpoints
	if err = json.Unmarshal(body, &endpoints); err != nil {
		return nil, NewAuthenticationError(ErrDecodeFailed, fmt.Errorf("failed to parse discovery response: %w", err))
	}
	if endpoints.AuthorizationEndpoint == "" || endpoints.TokenEndpoint == "" {
		return nil, NewAuthenticationError(ErrDecodeFailed, fmt.Errorf("discovery document is missing required endpoints"))
	}
	return &endpoints, nil
}
