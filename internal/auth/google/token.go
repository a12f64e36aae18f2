package google

// TokenData is the decoded response of the token endpoint. It is owned by
// the flow for the remainder of the run and never persisted.
type TokenData struct {
	// AccessToken is the OAuth2 access token used for API requests.
	AccessToken string `json:"access_token"`
	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`
	// ExpiresIn is the remaining lifetime of the access token in seconds.
	ExpiresIn int `json:"expires_in"`
	// Scope lists the scopes granted to the access token.
	Scope string `json:"scope"`
	// RefreshToken can be exchanged for a new access token.
	RefreshToken string `json:"refresh_token"`
	// IDToken is only returned when identity scopes were requested.
	IDToken string `json:"id_token,omitempty"`
}

// TokenVerification mirrors the tokeninfo endpoint response. Google returns
// every field as a string, including the numeric ones.
type TokenVerification struct {
	AccessType      string `json:"access_type"`
	Audience        string `json:"aud"`
	AuthorizedParty string `json:"azp"`
	Email           string `json:"email"`
	EmailVerified   string `json:"email_verified"`
	Expiry          string `json:"exp"`
	ExpiresIn       string `json:"expires_in"`
	Scope           string `json:"scope"`
	Subject         string `json:"sub"`
}

// UserProfile is the userinfo endpoint response for the authenticated user.
type UserProfile struct {
	// Subject is the user ID, unique across all Google accounts.
	Subject string `json:"sub"`
	// Email is the user's email address.
	Email string `json:"email"`
	// EmailVerified is true when the address has been confirmed.
	EmailVerified bool `json:"email_verified"`
	// Name is the user's full name in displayable form.
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	// Picture is the URL of the user's profile photo.
	Picture string `json:"picture"`
	Locale  string `json:"locale"`
}
