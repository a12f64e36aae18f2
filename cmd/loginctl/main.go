// Package main provides the entry point for loginctl, a command-line tool
// that signs a user into Google with the OAuth 2.0 Authorization-Code +
// PKCE installed-app flow and prints the authenticated identity.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/loginctl/loginctl/internal/auth/google"
	"github.com/loginctl/loginctl/internal/buildinfo"
	"github.com/loginctl/loginctl/internal/config"
	"github.com/loginctl/loginctl/internal/logging"
	log "github.com/sirupsen/logrus"
)

var (
	Version           = "dev"
	Commit            = "none"
	BuildDate         = "unknown"
	DefaultConfigPath = ""
)

// init initializes the shared logger setup.
func init() {
	logging.SetupBaseLogger()
	buildinfo.Version = Version
	buildinfo.Commit = Commit
	buildinfo.BuildDate = BuildDate
}

// main parses command-line flags, loads the configuration and client
// credentials, and runs the interactive login flow. Success exits 0; any
// failure exits non-zero after the error is reported.
func main() {
	fmt.Printf("loginctl Version: %s, Commit: %s, BuiltAt: %s\n", buildinfo.Version, buildinfo.Commit, buildinfo.BuildDate)

	var configPath string
	var secretDir string
	var noBrowser bool
	var oauthCallbackPort int
	var debug bool

	flag.StringVar(&configPath, "config", DefaultConfigPath, "Configure File Path")
	flag.StringVar(&secretDir, "secret-dir", "", "Directory searched for client_secret*.json (defaults to the config value)")
	flag.BoolVar(&noBrowser, "no-browser", false, "Don't open browser automatically for OAuth")
	flag.IntVar(&oauthCallbackPort, "oauth-callback-port", 0, "Override OAuth callback port (defaults to a probed free port)")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	// Load environment variables from a .env file when present.
	_ = godotenv.Load()

	logging.SetDebug(debug)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Errorf("failed to load configuration: %v", err)
		os.Exit(1)
	}
	if err = logging.ConfigureLogOutput(cfg.LoggingToFile, "logs"); err != nil {
		log.Errorf("failed to configure log output: %v", err)
		os.Exit(1)
	}
	if secretDir == "" {
		secretDir = cfg.SecretDir
	}

	credentials, err := config.FindClientCredentials(secretDir)
	if err != nil {
		log.Errorf("failed to locate client credentials: %v", err)
		os.Exit(1)
	}

	// A short flow ID ties all log lines of this run together.
	flowID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	logger := log.WithField("flow_id", flowID)

	ctx := context.Background()
	auth, err := google.NewGoogleAuth(ctx, cfg, credentials, logger)
	if err != nil {
		exitWithError(logger, err)
	}

	opts := google.FlowOptions{
		NoBrowser:    noBrowser,
		CallbackPort: oauthCallbackPort,
		PortRangeMin: cfg.PortRange.Min,
		PortRangeMax: cfg.PortRange.Max,
		Timeout:      time.Duration(cfg.CallbackTimeoutSeconds) * time.Second,
	}
	if noBrowser {
		opts.Prompt = promptStdin
	}

	result, err := google.NewFlow(auth, opts, logger).Login(ctx)
	if err != nil {
		exitWithError(logger, err)
	}

	logger.WithField("status", result.Token.TokenType).Info("login succeeded")
	fmt.Printf("Signed in as %s (%s)\n", result.Profile.Name, result.Profile.Email)
	fmt.Printf("Subject: %s\n", result.Profile.Subject)
	fmt.Printf("Granted scopes: %s\n", result.Verification.Scope)
}

// promptStdin reads one line from standard input.
func promptStdin(message string) (string, error) {
	fmt.Print(message)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// exitWithError reports a flow failure and terminates with the appropriate
// exit code (13 when the callback port is taken, 1 otherwise).
func exitWithError(logger *log.Entry, err error) {
	logger.Error(google.GetUserFriendlyMessage(err))
	logger.Debugf("login failed: %v", err)

	var authErr *google.AuthenticationError
	if errors.As(err, &authErr) && authErr.Type == google.ErrPortInUse.Type {
		os.Exit(13)
	}
	os.Exit(1)
}
