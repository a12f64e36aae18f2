package google

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// acceptPollInterval is the deadline applied to each accept attempt so
	// the overall wait stays interruptible by elapsed wall-clock time.
	acceptPollInterval = 100 * time.Millisecond

	// DefaultCallbackTimeout bounds the wait for the authorization redirect.
	DefaultCallbackTimeout = 120 * time.Second

	// callbackResponse is written back on every accepted connection,
	// whether or not the expected parameters were present, so the browser
	// does not hang.
	callbackResponse = "HTTP/1.1 200 OK\r\n\r\nOk."
)

// CallbackResult holds the parameters of the one callback request. It is
// parsed from exactly one inbound connection and consumed once.
type CallbackResult struct {
	// Code is the authorization code received from the provider.
	Code string
	// State is the CSRF state parameter echoed by the provider.
	State string
	// Error carries a provider-reported denial, e.g. "access_denied".
	Error string
}

// CallbackServer receives the provider's redirect on a loopback port. It is
// single-use: it accepts exactly one connection, answers it, and releases
// the port on every exit path.
type CallbackServer struct {
	port int
	log  *log.Entry
}

// NewCallbackServer creates a callback server for the given loopback port.
func NewCallbackServer(port int, logger *log.Entry) *CallbackServer {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &CallbackServer{port: port, log: logger}
}

// Port returns the loopback port this server will bind.
func (s *CallbackServer) Port() int {
	return s.port
}

// RedirectURI returns the redirect URI the provider must be told to use.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d", s.port)
}

// ReservePort probes the loopback port range sequentially and returns the
// first port that accepts a bind. The probe listener is closed immediately;
// the real bind happens in WaitForCallback. A race with another process
// between probe and bind remains possible and surfaces there as a bind
// error.
func ReservePort(minPort, maxPort int) (int, error) {
	for port := minPort; port <= maxPort; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err != nil {
			continue
		}
		_ = ln.Close()
		return port, nil
	}
	return 0, NewAuthenticationError(ErrNoPortAvailable, fmt.Errorf("ports %d-%d are all in use", minPort, maxPort))
}

// WaitForCallback binds the port and waits for exactly one connection,
// bounded by timeout. The accept loop polls with a short deadline so a user
// who never completes consent cannot hang the flow. After one accepted
// connection, a timeout, or a fatal error the listener is closed and the
// port released; the server never accepts a second connection.
func (s *CallbackServer) WaitForCallback(timeout time.Duration) (*CallbackResult, error) {
	if timeout <= 0 {
		timeout = DefaultCallbackTimeout
	}

	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", s.port))
	if err != nil {
		return nil, NewAuthenticationError(ErrPortInUse, err)
	}
	defer func() {
		_ = ln.Close()
	}()

	tcpListener, ok := ln.(*net.TCPListener)
	if !ok {
		return nil, NewAuthenticationError(ErrTransportFailed, fmt.Errorf("unexpected listener type %T", ln))
	}

	s.log.WithField("port", s.port).Debug("waiting for OAuth callback")
	started := time.Now()
	for {
		if time.Since(started) >= timeout {
			return nil, NewAuthenticationError(ErrCallbackTimeout, fmt.Errorf("no callback within %s", timeout))
		}

		_ = tcpListener.SetDeadline(time.Now().Add(acceptPollInterval))
		conn, errAccept := tcpListener.Accept()
		if errAccept != nil {
			var netErr net.Error
			if errors.As(errAccept, &netErr) && netErr.Timeout() {
				continue
			}
			return nil, NewAuthenticationError(ErrTransportFailed, errAccept)
		}
		return s.handleConnection(conn), nil
	}
}

// handleConnection reads the single request, answers it, and extracts the
// callback parameters. The response is written before close in every case.
func (s *CallbackServer) handleConnection(conn net.Conn) *CallbackResult {
	defer func() {
		_ = conn.Close()
	}()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	query := parseCallbackRequest(bufio.NewReader(conn))
	s.log.Debugf("OAuth callback received with %d parameters", len(query))

	if _, err := io.WriteString(conn, callbackResponse); err != nil {
		s.log.WithField("error", err).Warn("failed to write callback response")
	}

	return &CallbackResult{
		Code:  query["code"],
		State: query["state"],
		Error: query["error"],
	}
}

// parseCallbackRequest consumes header lines until the first blank line and
// returns the query parameters of the request line. The body, if any, is
// ignored. Anything that is not a GET with a query string yields an empty
// map.
func parseCallbackRequest(r *bufio.Reader) map[string]string {
	var lines []string
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}

	for _, line := range lines {
		if target := requestTarget(line); target != "" {
			return splitQuery(target)
		}
	}
	return map[string]string{}
}

// requestTarget extracts the target from a "GET /path HTTP/1.1" request
// line, or returns an empty string for anything else.
func requestTarget(line string) string {
	if !strings.HasPrefix(line, "GET /") {
		return ""
	}
	fields := strings.Split(line, " ")
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// splitQuery parses the query portion of a request target. Pairs split on
// the first "=" only; values are percent-decoded, keys are not; the last
// occurrence of a duplicate key wins.
func splitQuery(target string) map[string]string {
	query := map[string]string{}
	idx := strings.Index(target, "?")
	if idx < 0 {
		return query
	}
	for _, pair := range strings.Split(target[idx+1:], "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		query[key] = percentDecode(value)
	}
	return query
}
