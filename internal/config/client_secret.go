package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ClientCredentials holds the OAuth client identity of this installed app.
// Both fields must be non-empty before a flow may start.
type ClientCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// clientSecretFile mirrors the "installed" shape of a client_secret*.json
// file as downloaded from the Google Cloud console.
type clientSecretFile struct {
	Installed struct {
		ClientID     string   `json:"client_id"`
		ClientSecret string   `json:"client_secret"`
		RedirectURIs []string `json:"redirect_uris"`
		AuthURI      string   `json:"auth_uri"`
		TokenURI     string   `json:"token_uri"`
	} `json:"installed"`
}

// FindClientCredentials walks dir looking for client_secret*.json files and
// returns the credentials from the first file that parses with non-empty
// client ID and secret. Files that fail to parse are skipped with a warning.
func FindClientCredentials(dir string) (*ClientCredentials, error) {
	var found *ClientCredentials

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, errWalk error) error {
		if errWalk != nil {
			return errWalk
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasPrefix(name, "client_secret") || !strings.HasSuffix(name, ".json") {
			return nil
		}
		creds, errParse := ParseClientSecret(path)
		if errParse != nil {
			log.Warnf("skipping %s: %v", path, errParse)
			return nil
		}
		found = creds
		return fs.SkipAll
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s for client secrets: %w", dir, err)
	}
	if found == nil {
		return nil, fmt.Errorf("no usable client_secret*.json found under %s", dir)
	}
	return found, nil
}

// ParseClientSecret reads a single client secret file and validates that it
// carries a non-empty client ID and secret.
func ParseClientSecret(path string) (*ClientCredentials, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open client secret file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var secret clientSecretFile
	if err = json.NewDecoder(f).Decode(&secret); err != nil {
		return nil, fmt.Errorf("failed to parse client secret file: %w", err)
	}
	if secret.Installed.ClientID == "" {
		return nil, fmt.Errorf("client secret file has an empty client_id")
	}
	if secret.Installed.ClientSecret == "" {
		return nil, fmt.Errorf("client secret file has an empty client_secret")
	}
	return &ClientCredentials{
		ClientID:     secret.Installed.ClientID,
		ClientSecret: secret.Installed.ClientSecret,
	}, nil
}
