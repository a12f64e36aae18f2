package google

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierLengthBytes is the entropy of the code verifier. 32 bytes encode
// to 43 base64url characters, the RFC 7636 minimum verifier length.
const verifierLengthBytes = 32

// PKCECodes holds a code verifier and its derived S256 challenge. A pair is
// generated once per flow run and discarded with it.
type PKCECodes struct {
	CodeVerifier  string
	CodeChallenge string
}

// GeneratePKCECodes generates a new pair of PKCE (Proof Key for Code
// Exchange) codes as specified in RFC 7636: a cryptographically random code
// verifier and its corresponding SHA256 code challenge.
func GeneratePKCECodes() (*PKCECodes, error) {
	codeVerifier, err := generateCodeVerifier(verifierLengthBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	return &PKCECodes{
		CodeVerifier:  codeVerifier,
		CodeChallenge: generateCodeChallenge(codeVerifier),
	}, nil
}

// generateCodeVerifier creates a high-entropy URL-safe random string usable
// unmodified inside a URL query value.
func generateCodeVerifier(lengthBytes int) (string, error) {
	bytes := make([]byte, lengthBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	// URL-safe base64 without padding
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// generateCodeChallenge derives the S256 challenge for a code verifier.
// Pure function: the same verifier always yields the same challenge.
func generateCodeChallenge(codeVerifier string) string {
	hash := sha256.Sum256([]byte(codeVerifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}
