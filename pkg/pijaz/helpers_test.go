package pijaz

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// apiServer fakes the API server and records every request it receives.
type apiServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

type recordedRequest struct {
	Method    string
	Path      string
	Params    url.Values
	RequestID string
}

func newAPIServer(t *testing.T, status int, body string) *apiServer {
	t.Helper()
	s := &apiServer{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			Params:    r.Form,
			RequestID: r.Header.Get("X-Request-Id"),
		})
		status, body := s.status, s.body
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *apiServer) respond(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.body = status, body
}

func (s *apiServer) Requests() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

// flakyTransport fails the first failures round trips before delegating.
type flakyTransport struct {
	mu       sync.Mutex
	failures int
	calls    int
	next     http.RoundTripper
}

func (f *flakyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return nil, errors.New("connection reset by peer")
	}
	return f.next.RoundTrip(req)
}

func (f *flakyTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const tokenOK = `{"result":{"result_num":0},"info":{"lifetime":3600,"sig":"abc"}}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(apiURL, renderURL string) Config {
	cfg := DefaultConfig("app-1", "secret-key")
	cfg.APIServerURL = strings.TrimSuffix(apiURL, "/") + "/"
	cfg.RenderServerURL = strings.TrimSuffix(renderURL, "/") + "/"
	return cfg
}

func newTestManager(t *testing.T, cfg Config, clock Clock, opts ...Option) *ServerManager {
	t.Helper()
	opts = append([]Option{WithClock(clock), WithLogger(discardLogger())}, opts...)
	m, err := NewServerManager(cfg, opts...)
	require.NoError(t, err)
	return m
}
