package pijaz

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubHolder is a minimal AccessHolder.
type stubHolder struct {
	workflow string
	token    *AccessToken
}

func (h *stubHolder) WorkflowID() string             { return h.workflow }
func (h *stubHolder) AccessInfo() *AccessToken       { return h.token }
func (h *stubHolder) SetAccessInfo(tok *AccessToken) { h.token = tok }

func TestNewServerManager(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		m, err := NewServerManager(Config{AppID: "app", APIKey: NewSecret("key")})
		require.NoError(t, err)

		assert.Equal(t, "app", m.AppID())
		assert.Equal(t, "key", m.APIKey().Value())
		assert.Equal(t, DefaultAPIServerURL, m.APIServerURL())
		assert.Equal(t, DefaultRenderServerURL, m.RenderServerURL())
		assert.Equal(t, DefaultAPIVersion, m.APIVersion())
		assert.Equal(t, DefaultHTTPTimeout, m.httpClient.Timeout)
		assert.Equal(t, DefaultRefreshFuzz, m.RefreshFuzz())
		assert.Equal(t, DefaultRetryCount, m.RetryCount())
	})

	t.Run("sentinels turn fuzz and retries off", func(t *testing.T) {
		cfg := Config{AppID: "app", APIKey: NewSecret("key"), RefreshFuzz: NoRefreshFuzz, RetryCount: NoRetries}

		m, err := NewServerManager(cfg)
		require.NoError(t, err)

		assert.Equal(t, time.Duration(0), m.RefreshFuzz())
		assert.Equal(t, 0, m.RetryCount())
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		_, err := NewServerManager(Config{AppID: "app"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "APIKey")
	})

	t.Run("applies options", func(t *testing.T) {
		client := &http.Client{}
		clock := newFakeClock()
		m, err := NewServerManager(DefaultConfig("app", "key"),
			WithHTTPClient(client),
			WithClock(clock),
			WithRequestIDGenerator(func() string { return "fixed" }),
		)
		require.NoError(t, err)
		assert.Same(t, client, m.httpClient)
		assert.Equal(t, clock, m.clock)
		assert.Equal(t, "fixed", m.requestID())
	})
}

func TestBuildRenderServerURLRequest(t *testing.T) {
	m := newTestManager(t, testConfig("http://api.example.com", "http://render.example.com"), newFakeClock())

	got := m.BuildRenderServerURLRequest(Parameters{"message": "hello world", "workflow": "wf1"})

	assert.Equal(t, "http://render.example.com/render-image?message=hello+world&workflow=wf1", got)
}

func TestSendAPICommand(t *testing.T) {
	t.Run("adds authentication to GET query", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())

		callerParams := Parameters{"workflow": "wf1"}
		resp, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token", Parameters: callerParams})
		require.NoError(t, err)

		assert.True(t, resp.Success)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "abc", resp.Info["sig"])

		reqs := api.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodGet, reqs[0].Method)
		assert.Equal(t, "/get-token", reqs[0].Path)
		assert.Equal(t, "wf1", reqs[0].Params.Get("workflow"))
		assert.Equal(t, "app-1", reqs[0].Params.Get("app_id"))
		assert.Equal(t, "secret-key", reqs[0].Params.Get("api_key"))
		assert.Equal(t, DefaultAPIVersion, reqs[0].Params.Get("api_version"))
		assert.NotEmpty(t, reqs[0].RequestID)

		// The caller's map is not modified.
		assert.Equal(t, Parameters{"workflow": "wf1"}, callerParams)
	})

	t.Run("sends POST as form body", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())

		_, err := m.SendAPICommand(context.Background(), APICommand{
			Name:       "get-token",
			Parameters: Parameters{"workflow": "wf1"},
			Method:     "post",
		})
		require.NoError(t, err)

		reqs := api.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, http.MethodPost, reqs[0].Method)
		assert.Equal(t, "wf1", reqs[0].Params.Get("workflow"))
		assert.Equal(t, "secret-key", reqs[0].Params.Get("api_key"))
	})

	t.Run("rejects unsupported method", func(t *testing.T) {
		m := newTestManager(t, testConfig("http://api.example.com", "http://render.example.com"), newFakeClock())
		_, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token", Method: "DELETE"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported method")
	})

	t.Run("application failure is not an error", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, `{"result":{"result_num":5,"result_text":"invalid app"}}`)
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())

		resp, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token"})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, 5, resp.ResultNum)
		assert.Equal(t, "invalid app", resp.Message)
		assert.Len(t, api.Requests(), 1)
	})

	t.Run("non-200 status carries body as message", func(t *testing.T) {
		api := newAPIServer(t, http.StatusInternalServerError, "boom\n")
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())

		resp, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token"})
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "boom", resp.Message)
	})

	t.Run("protocol errors are not retried", func(t *testing.T) {
		tests := []struct {
			name   string
			body   string
			reason string
		}{
			{name: "invalid json", body: "<html>", reason: "not valid JSON"},
			{name: "missing result", body: `{"info":{}}`, reason: "missing result.result_num"},
			{name: "non-integer result", body: `{"result":{"result_num":1.5}}`, reason: "not an integer"},
			{name: "missing info", body: `{"result":{"result_num":0}}`, reason: "missing info"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				api := newAPIServer(t, http.StatusOK, tt.body)
				cfg := testConfig(api.URL, "http://render.example.com")
				cfg.RetryCount = 3
				m := newTestManager(t, cfg, newFakeClock())

				_, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token"})

				var pe *ProtocolError
				require.ErrorAs(t, err, &pe)
				assert.Contains(t, pe.Error(), tt.reason)
				assert.Len(t, api.Requests(), 1)
			})
		}
	})

	t.Run("transport failure then success uses exactly two attempts", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		flaky := &flakyTransport{failures: 1, next: http.DefaultTransport}
		cfg := testConfig(api.URL, "http://render.example.com")
		cfg.RetryCount = 1
		m := newTestManager(t, cfg, newFakeClock(), WithHTTPClient(&http.Client{Transport: flaky}))

		resp, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token", Parameters: Parameters{"workflow": "wf1"}})
		require.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, 2, flaky.Calls())

		reqs := api.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "secret-key", reqs[0].Params.Get("api_key"))
		assert.Equal(t, []string{"app-1"}, reqs[0].Params["app_id"])
	})

	t.Run("exhausted retries surface transport error", func(t *testing.T) {
		flaky := &flakyTransport{failures: 10, next: http.DefaultTransport}
		cfg := testConfig("http://api.example.com", "http://render.example.com")
		cfg.RetryCount = 2
		m := newTestManager(t, cfg, newFakeClock(), WithHTTPClient(&http.Client{Transport: flaky}))

		_, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token"})

		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 3, te.Attempts)
		assert.Equal(t, 3, flaky.Calls())
		assert.Equal(t, "http://api.example.com/get-token", te.URL)
		assert.NotContains(t, err.Error(), "secret-key")
	})

	t.Run("context ending during retry delay keeps transport error", func(t *testing.T) {
		flaky := &flakyTransport{failures: 10, next: http.DefaultTransport}
		cfg := testConfig("http://api.example.com", "http://render.example.com")
		cfg.RetryCount = 3
		cfg.RetryDelay = time.Second
		m := newTestManager(t, cfg, newFakeClock(), WithHTTPClient(&http.Client{Transport: flaky}))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_, err := m.SendAPICommand(ctx, APICommand{Name: "get-token"})

		require.Error(t, err)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, IsTransportError(err))

		var te *TransportError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 1, te.Attempts)
		assert.Equal(t, 1, flaky.Calls())
	})

	t.Run("NoRetries makes a single attempt", func(t *testing.T) {
		flaky := &flakyTransport{failures: 10, next: http.DefaultTransport}
		cfg := testConfig("http://api.example.com", "http://render.example.com")
		cfg.RetryCount = NoRetries
		m := newTestManager(t, cfg, newFakeClock(), WithHTTPClient(&http.Client{Transport: flaky}))

		_, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token"})
		assert.True(t, IsTransportError(err))
		assert.Equal(t, 1, flaky.Calls())
	})

	t.Run("api key never reaches the logs", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock(), WithLogger(logger))

		_, err := m.SendAPICommand(context.Background(), APICommand{Name: "get-token"})
		require.NoError(t, err)

		assert.NotEmpty(t, buf.String())
		assert.NotContains(t, buf.String(), "secret-key")
	})
}

func TestBuildRenderCommand(t *testing.T) {
	t.Run("acquires token and merges", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		clock := newFakeClock()
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), clock)
		holder := &stubHolder{workflow: "wf1"}

		params, err := m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf1", "message": "hello"})
		require.NoError(t, err)

		assert.Equal(t, Parameters{"workflow": "wf1", "message": "hello", "sig": "abc"}, params)
		require.NotNil(t, holder.token)
		assert.Equal(t, testEpoch, holder.token.IssuedAt)
		assert.Equal(t, time.Hour, holder.token.Lifetime)
		assert.Equal(t, "wf1", holder.token.Workflow)
		assert.Equal(t, Parameters{"sig": "abc"}, holder.token.AccessParameters)

		reqs := api.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "wf1", reqs[0].Params.Get("workflow"))
		_, hasXML := reqs[0].Params["xml"]
		assert.False(t, hasXML)
	})

	t.Run("forwards xml to get-token", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())
		holder := &stubHolder{workflow: "wf1"}

		_, err := m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf1", "xml": "<doc/>"})
		require.NoError(t, err)

		reqs := api.Requests()
		require.Len(t, reqs, 1)
		assert.Equal(t, "<doc/>", reqs[0].Params.Get("xml"))
		assert.Equal(t, "<doc/>", holder.token.XML)
	})

	t.Run("render parameters win over access parameters", func(t *testing.T) {
		m := newTestManager(t, testConfig("http://api.example.com", "http://render.example.com"), newFakeClock())
		holder := &stubHolder{
			workflow: "wf1",
			token: &AccessToken{
				IssuedAt:         testEpoch,
				Lifetime:         time.Hour,
				Workflow:         "wf1",
				AccessParameters: Parameters{"sig": "abc", "message": "from-token"},
			},
		}

		params, err := m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf1", "message": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", params["message"])
		assert.Equal(t, "abc", params["sig"])

		// The cached token is not aliased by the result.
		params["sig"] = "changed"
		assert.Equal(t, "abc", holder.token.AccessParameters["sig"])
	})

	t.Run("reuses token until the fuzzed expiry", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		clock := newFakeClock()
		cfg := testConfig(api.URL, "http://render.example.com")
		cfg.RefreshFuzz = 10 * time.Second
		m := newTestManager(t, cfg, clock)
		holder := &stubHolder{workflow: "wf1"}
		render := Parameters{"workflow": "wf1"}

		_, err := m.BuildRenderCommand(context.Background(), holder, render)
		require.NoError(t, err)

		clock.Advance(time.Hour - 10*time.Second)
		_, err = m.BuildRenderCommand(context.Background(), holder, render)
		require.NoError(t, err)
		assert.Len(t, api.Requests(), 1)

		clock.Advance(time.Second)
		_, err = m.BuildRenderCommand(context.Background(), holder, render)
		require.NoError(t, err)
		assert.Len(t, api.Requests(), 2)
		assert.Equal(t, testEpoch.Add(time.Hour-9*time.Second), holder.token.IssuedAt)
	})

	t.Run("token for another workflow is not reused", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())
		holder := &stubHolder{
			workflow: "wf2",
			token: &AccessToken{
				IssuedAt:         testEpoch,
				Lifetime:         time.Hour,
				Workflow:         "wf1",
				AccessParameters: Parameters{"sig": "old"},
			},
		}

		params, err := m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf2"})
		require.NoError(t, err)
		assert.Equal(t, "abc", params["sig"])
		assert.Equal(t, "wf2", holder.token.Workflow)
		assert.Len(t, api.Requests(), 1)
	})

	t.Run("token for another xml is not reused", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, tokenOK)
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())
		holder := &stubHolder{workflow: "wf1"}

		_, err := m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf1", "xml": "http://a/one.xml"})
		require.NoError(t, err)
		_, err = m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf1", "xml": "http://a/one.xml"})
		require.NoError(t, err)
		require.Len(t, api.Requests(), 1)

		_, err = m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf1", "xml": "http://a/two.xml"})
		require.NoError(t, err)

		reqs := api.Requests()
		require.Len(t, reqs, 2)
		assert.Equal(t, "http://a/two.xml", reqs[1].Params.Get("xml"))
		assert.Equal(t, "http://a/two.xml", holder.token.XML)
	})

	t.Run("application failure makes render unavailable", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, `{"result":{"result_num":5,"result_text":"invalid app"}}`)
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())
		holder := &stubHolder{workflow: "wf1"}

		params, err := m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf1"})
		assert.Nil(t, params)
		require.ErrorIs(t, err, ErrRenderUnavailable)

		var ae *ApplicationError
		require.ErrorAs(t, err, &ae)
		assert.Equal(t, 5, ae.Code)
		assert.Equal(t, "invalid app", ae.Text)
		assert.Nil(t, holder.token)
	})

	t.Run("failure does not fall back to the stale token", func(t *testing.T) {
		flaky := &flakyTransport{failures: 10, next: http.DefaultTransport}
		m := newTestManager(t, testConfig("http://api.example.com", "http://render.example.com"), newFakeClock(),
			WithHTTPClient(&http.Client{Transport: flaky}))
		stale := &AccessToken{
			IssuedAt:         testEpoch.Add(-2 * time.Hour),
			Lifetime:         time.Hour,
			Workflow:         "wf1",
			AccessParameters: Parameters{"sig": "old"},
		}
		holder := &stubHolder{workflow: "wf1", token: stale}

		_, err := m.BuildRenderCommand(context.Background(), holder, Parameters{"workflow": "wf1"})
		require.ErrorIs(t, err, ErrRenderUnavailable)
		assert.True(t, IsTransportError(err))
		assert.Same(t, stale, holder.token)
	})

	t.Run("missing lifetime is a protocol error", func(t *testing.T) {
		api := newAPIServer(t, http.StatusOK, `{"result":{"result_num":0},"info":{"sig":"abc"}}`)
		m := newTestManager(t, testConfig(api.URL, "http://render.example.com"), newFakeClock())

		_, err := m.BuildRenderCommand(context.Background(), &stubHolder{workflow: "wf1"}, Parameters{"workflow": "wf1"})
		require.ErrorIs(t, err, ErrRenderUnavailable)
		var pe *ProtocolError
		assert.ErrorAs(t, err, &pe)
	})
}

func TestFetchRender(t *testing.T) {
	render := newAPIServer(t, http.StatusOK, "PNGDATA")
	m := newTestManager(t, testConfig("http://api.example.com", render.URL), newFakeClock())

	resp, err := m.FetchRender(context.Background(), render.URL+"/render-image?workflow=wf1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.Equal(t, []byte("PNGDATA"), resp.Body)
}

func TestTransportErrorRedactsQuery(t *testing.T) {
	m := newTestManager(t, testConfig("http://api.example.com", "http://render.example.com"), newFakeClock(),
		WithHTTPClient(&http.Client{Transport: &flakyTransport{failures: 1}}))

	_, err := m.FetchRender(context.Background(), "http://render.example.com/render-image?api_key=secret-key&sig=abc")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "http://render.example.com/render-image", te.URL)
	assert.False(t, strings.Contains(err.Error(), "secret-key"))

	var ue *url.Error
	if errors.As(err, &ue) {
		assert.NotContains(t, ue.URL, "api_key")
	}
}
