// Package util provides helper functions shared across the login command.
// It currently covers proxy-aware HTTP client construction.
package util

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// NewHTTPClient builds an HTTP client with the given per-request timeout,
// routed through proxyURL when one is configured. SOCKS5, HTTP, and HTTPS
// proxies are supported; an unusable proxy URL degrades to a direct client.
func NewHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	httpClient := &http.Client{Timeout: timeout}
	if proxyURL == "" {
		return httpClient
	}

	parsed, errParse := url.Parse(proxyURL)
	if errParse != nil {
		log.Errorf("invalid proxy URL %q: %v", proxyURL, errParse)
		return httpClient
	}

	var transport *http.Transport
	switch parsed.Scheme {
	case "socks5":
		var proxyAuth *proxy.Auth
		if parsed.User != nil {
			username := parsed.User.Username()
			password, _ := parsed.User.Password()
			proxyAuth = &proxy.Auth{User: username, Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", parsed.Host, proxyAuth, proxy.Direct)
		if errSOCKS5 != nil {
			log.Errorf("create SOCKS5 dialer failed: %v", errSOCKS5)
			return httpClient
		}
		transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "http", "https":
		transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	default:
		log.Warnf("unsupported proxy scheme %q, using direct connection", parsed.Scheme)
	}

	if transport != nil {
		httpClient.Transport = transport
	}
	return httpClient
}
