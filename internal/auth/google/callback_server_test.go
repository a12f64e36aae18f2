package google

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"
)

func TestParseCallbackRequest(t *testing.T) {
	tests := []struct {
		name    string
		request string
		want    map[string]string
	}{
		{
			name:    "code and state",
			request: "GET /?code=ABC123&state=XYZ789 HTTP/1.1\r\nHost: localhost\r\n\r\n",
			want:    map[string]string{"code": "ABC123", "state": "XYZ789"},
		},
		{
			name:    "provider error",
			request: "GET /?error=access_denied HTTP/1.1\r\n\r\n",
			want:    map[string]string{"error": "access_denied"},
		},
		{
			name:    "percent-decoded value",
			request: "GET /?code=A%20B%2FC HTTP/1.1\r\n\r\n",
			want:    map[string]string{"code": "A B/C"},
		},
		{
			name:    "value split on first equals only",
			request: "GET /?code=a=b=c HTTP/1.1\r\n\r\n",
			want:    map[string]string{"code": "a=b=c"},
		},
		{
			name:    "duplicate key last wins",
			request: "GET /?code=first&code=second HTTP/1.1\r\n\r\n",
			want:    map[string]string{"code": "second"},
		},
		{
			name:    "no query string",
			request: "GET / HTTP/1.1\r\n\r\n",
			want:    map[string]string{},
		},
		{
			name:    "non-GET request",
			request: "POST /?code=x HTTP/1.1\r\n\r\n",
			want:    map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCallbackRequest(bufio.NewReader(strings.NewReader(tt.request)))
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("query[%q] = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestReservePort(t *testing.T) {
	port, err := ReservePort(15000, 28999)
	if err != nil {
		t.Fatalf("ReservePort() error = %v", err)
	}
	if port < 15000 || port > 28999 {
		t.Fatalf("port %d outside probe range", port)
	}

	// The probe listener must have been released.
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("reserved port %d should be bindable: %v", port, err)
	}
	_ = ln.Close()
}

func TestWaitForCallbackTimeoutReleasesPort(t *testing.T) {
	port, err := ReservePort(15000, 28999)
	if err != nil {
		t.Fatalf("ReservePort() error = %v", err)
	}

	server := NewCallbackServer(port, nil)
	start := time.Now()
	_, err = server.WaitForCallback(200 * time.Millisecond)
	if ErrorType(err) != ErrCallbackTimeout.Type {
		t.Fatalf("WaitForCallback() error = %v, want callback_timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout took %s, want roughly 200ms", elapsed)
	}

	// The listener must be closed on the timeout path.
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("port %d should be released after timeout: %v", port, err)
	}
	_ = ln.Close()
}

func TestWaitForCallbackReceivesOneRequest(t *testing.T) {
	port, err := ReservePort(15000, 28999)
	if err != nil {
		t.Fatalf("ReservePort() error = %v", err)
	}
	server := NewCallbackServer(port, nil)

	type dialResult struct {
		response string
		err      error
	}
	dialDone := make(chan dialResult, 1)
	go func() {
		var conn net.Conn
		var errDial error
		for i := 0; i < 50; i++ {
			conn, errDial = net.Dial("tcp", fmt.Sprintf("127.0.0.1:%d", port))
			if errDial == nil {
				break
			}
			time.Sleep(20 * time.Millisecond)
		}
		if errDial != nil {
			dialDone <- dialResult{err: errDial}
			return
		}
		defer func() {
			_ = conn.Close()
		}()
		_, _ = io.WriteString(conn, "GET /?code=ABC123&state=XYZ789 HTTP/1.1\r\nHost: localhost\r\n\r\n")
		raw, _ := io.ReadAll(conn)
		dialDone <- dialResult{response: string(raw)}
	}()

	result, err := server.WaitForCallback(5 * time.Second)
	if err != nil {
		t.Fatalf("WaitForCallback() error = %v", err)
	}
	if result.Code != "ABC123" || result.State != "XYZ789" || result.Error != "" {
		t.Fatalf("unexpected result %+v", result)
	}

	dialed := <-dialDone
	if dialed.err != nil {
		t.Fatalf("dial failed: %v", dialed.err)
	}
	if !strings.Contains(dialed.response, "200 OK") {
		t.Fatalf("response %q should contain 200 OK", dialed.response)
	}

	// Single use: the port is released once the callback was consumed.
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("port %d should be released after the callback: %v", port, err)
	}
	_ = ln.Close()
}

func TestWaitForCallbackPortInUse(t *testing.T) {
	port, err := ReservePort(15000, 28999)
	if err != nil {
		t.Fatalf("ReservePort() error = %v", err)
	}
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("failed to occupy port: %v", err)
	}
	defer func() {
		_ = ln.Close()
	}()

	server := NewCallbackServer(port, nil)
	_, err = server.WaitForCallback(time.Second)
	if ErrorType(err) != ErrPortInUse.Type {
		t.Fatalf("WaitForCallback() error = %v, want port_in_use", err)
	}
}
