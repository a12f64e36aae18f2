package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validClientSecret = `{"installed":{"client_id":"id-1.apps.googleusercontent.com","client_secret":"secret-1","redirect_uris":["http://localhost"],"auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token"}}`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestFindClientCredentials(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nested", "client_secret_web.json"), validClientSecret)
	writeFile(t, filepath.Join(dir, "unrelated.json"), `{"foo":"bar"}`)

	credentials, err := FindClientCredentials(dir)
	if err != nil {
		t.Fatalf("FindClientCredentials() error = %v", err)
	}
	if credentials.ClientID != "id-1.apps.googleusercontent.com" || credentials.ClientSecret != "secret-1" {
		t.Fatalf("unexpected credentials %+v", credentials)
	}
}

func TestFindClientCredentialsSkipsUnparseableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", "client_secret_bad.json"), "not json")
	writeFile(t, filepath.Join(dir, "b", "client_secret_good.json"), validClientSecret)

	credentials, err := FindClientCredentials(dir)
	if err != nil {
		t.Fatalf("FindClientCredentials() error = %v", err)
	}
	if credentials.ClientSecret != "secret-1" {
		t.Fatalf("unexpected credentials %+v", credentials)
	}
}

func TestFindClientCredentialsNoneFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "client_secret_empty.json"), `{"installed":{"client_id":"","client_secret":""}}`)

	if _, err := FindClientCredentials(dir); err == nil {
		t.Fatal("expected an error when no usable client secret exists")
	}
}

func TestParseClientSecretValidation(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "client_secret_noid.json")
	writeFile(t, path, `{"installed":{"client_id":"","client_secret":"s"}}`)
	if _, err := ParseClientSecret(path); err == nil {
		t.Error("expected an error for an empty client_id")
	}

	path = filepath.Join(dir, "client_secret_nosecret.json")
	writeFile(t, path, `{"installed":{"client_id":"i","client_secret":""}}`)
	if _, err := ParseClientSecret(path); err == nil {
		t.Error("expected an error for an empty client_secret")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.CallbackTimeoutSeconds != DefaultCallbackTimeoutSeconds {
		t.Errorf("CallbackTimeoutSeconds = %d, want %d", cfg.CallbackTimeoutSeconds, DefaultCallbackTimeoutSeconds)
	}
	if cfg.PortRange.Min != DefaultPortRangeMin || cfg.PortRange.Max != DefaultPortRangeMax {
		t.Errorf("PortRange = %+v, want %d-%d", cfg.PortRange, DefaultPortRangeMin, DefaultPortRangeMax)
	}
	if cfg.IssuerBaseURL != DefaultIssuerBaseURL {
		t.Errorf("IssuerBaseURL = %q, want %q", cfg.IssuerBaseURL, DefaultIssuerBaseURL)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, "proxy-url: socks5://127.0.0.1:1080\ncallback-timeout-seconds: 30\nport-range:\n  min: 20000\n  max: 20010\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProxyURL != "socks5://127.0.0.1:1080" {
		t.Errorf("ProxyURL = %q", cfg.ProxyURL)
	}
	if cfg.CallbackTimeoutSeconds != 30 {
		t.Errorf("CallbackTimeoutSeconds = %d, want 30", cfg.CallbackTimeoutSeconds)
	}
	if cfg.PortRange.Min != 20000 || cfg.PortRange.Max != 20010 {
		t.Errorf("PortRange = %+v", cfg.PortRange)
	}

	if _, err = Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for an explicit missing config path")
	}
}
