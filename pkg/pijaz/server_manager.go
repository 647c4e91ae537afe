package pijaz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
)

const commandGetToken = "get-token"

// ServerManager talks to the Pijaz API and render servers on behalf of
// products. It owns the access token protocol and the retrying transport.
type ServerManager struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	clock      Clock
	requestID  func() string
}

// Option configures the ServerManager.
type Option func(*ServerManager)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(m *ServerManager) {
		m.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *ServerManager) {
		m.logger = logger
	}
}

// WithClock sets the clock used to stamp and validate access tokens.
func WithClock(clock Clock) Option {
	return func(m *ServerManager) {
		m.clock = clock
	}
}

// WithRequestIDGenerator sets the function producing X-Request-Id values.
func WithRequestIDGenerator(fn func() string) Option {
	return func(m *ServerManager) {
		m.requestID = fn
	}
}

// NewServerManager creates a ServerManager. Zero fields of cfg are filled
// from the named defaults.
func NewServerManager(cfg Config, opts ...Option) (*ServerManager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &ServerManager{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		logger:     slog.Default(),
		clock:      SystemClock{},
		requestID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

// AppID returns the client application ID.
func (m *ServerManager) AppID() string { return m.cfg.AppID }

// APIKey returns the API key of the client application.
func (m *ServerManager) APIKey() Secret { return m.cfg.APIKey }

// APIServerURL returns the API server base URL.
func (m *ServerManager) APIServerURL() string { return m.cfg.APIServerURL }

// RenderServerURL returns the render server base URL.
func (m *ServerManager) RenderServerURL() string { return m.cfg.RenderServerURL }

// APIVersion returns the API version in use.
func (m *ServerManager) APIVersion() string { return m.cfg.APIVersion }

// RefreshFuzz returns the margin subtracted from token lifetimes.
func (m *ServerManager) RefreshFuzz() time.Duration { return m.cfg.RefreshFuzz }

// RetryCount returns the number of additional attempts for API commands.
func (m *ServerManager) RetryCount() int { return m.cfg.RetryCount }

// BuildRenderCommand returns the full query parameter set for a render
// request: the holder's access parameters overlaid with renderParameters.
//
// When the holder carries no token, an expired one, or one issued for another
// workflow or xml, a get-token command is sent first and the fresh token is stored on
// the holder. Any failure to obtain a token wraps ErrRenderUnavailable; a
// previously cached token is never used as a fallback.
func (m *ServerManager) BuildRenderCommand(ctx context.Context, holder AccessHolder, renderParameters Parameters) (Parameters, error) {
	workflow := renderParameters["workflow"]
	if workflow == "" {
		workflow = holder.WorkflowID()
	}

	token := holder.AccessInfo()
	now := m.clock.Now()
	if token.ValidFor(workflow, now, m.cfg.RefreshFuzz) && token.IssuedFor(workflow, renderParameters["xml"]) {
		m.logger.Debug("Using cached access token",
			"workflow", workflow,
			"expires_at", token.ExpiresAt(m.cfg.RefreshFuzz).Format(time.RFC3339))
		return token.AccessParameters.Merge(renderParameters), nil
	}

	token, err := m.requestToken(ctx, workflow, renderParameters)
	if err != nil {
		return nil, fmt.Errorf("%w for workflow %q: %w", ErrRenderUnavailable, workflow, err)
	}
	holder.SetAccessInfo(token)

	return token.AccessParameters.Merge(renderParameters), nil
}

// requestToken sends get-token for workflow and converts the answer.
func (m *ServerManager) requestToken(ctx context.Context, workflow string, renderParameters Parameters) (*AccessToken, error) {
	commandParameters := Parameters{"workflow": workflow}
	if xml, ok := renderParameters["xml"]; ok {
		commandParameters["xml"] = xml
	}

	m.logger.Info("Requesting access token", "workflow", workflow)

	resp, err := m.SendAPICommand(ctx, APICommand{
		Name:       commandGetToken,
		Parameters: commandParameters,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &ApplicationError{
			Command:    commandGetToken,
			Code:       resp.ResultNum,
			StatusCode: resp.StatusCode,
			Text:       resp.Message,
		}
	}

	token, err := tokenFromInfo(resp.Info, workflow, m.clock.Now())
	if err != nil {
		return nil, err
	}
	token.XML = commandParameters["xml"]

	m.logger.Info("Access token acquired",
		"workflow", workflow,
		"lifetime", token.Lifetime.String(),
		"access_parameters", len(token.AccessParameters))

	return token, nil
}

// BuildRenderServerURLRequest returns the fully qualified render URL for params.
func (m *ServerManager) BuildRenderServerURLRequest(params Parameters) string {
	return m.cfg.RenderServerURL + renderEndpoint + "?" + params.Encode()
}

// SendAPICommand sends a command to the API server.
//
// The authentication fields are added to a fresh copy of cmd.Parameters on
// every attempt. Only transport failures are retried, up to RetryCount
// additional attempts; they surface as *TransportError once exhausted, also
// when ctx ends while waiting to retry. A body
// that is not the expected JSON envelope yields *ProtocolError immediately.
// Server-reported failures are returned as an APIResponse with Success false.
func (m *ServerManager) SendAPICommand(ctx context.Context, cmd APICommand) (*APIResponse, error) {
	method := strings.ToUpper(cmd.Method)
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, fmt.Errorf("unsupported method %q for API command %s", cmd.Method, cmd.Name)
	}
	if cmd.Name == "" {
		return nil, errors.New("API command name is required")
	}

	endpoint := m.cfg.APIServerURL + cmd.Name

	var (
		attempts      int
		reply         *httpReply
		lastTransport *TransportError
	)
	err := retry.Do(
		func() error {
			attempts++
			params := m.authenticate(cmd.Parameters)
			requestID := m.requestID()

			m.logger.Debug("Sending API command",
				"command", cmd.Name,
				"method", method,
				"attempt", attempts,
				"request_id", requestID,
				"parameters", redactParameters(params))

			r, err := m.send(ctx, method, endpoint, params, requestID)
			if err != nil {
				errors.As(err, &lastTransport)
				return err
			}
			reply = r
			return nil
		},
		retry.Attempts(uint(m.cfg.RetryCount)+1),
		retry.Delay(m.cfg.RetryDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsTransportError),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			m.logger.Warn("API command attempt failed",
				"command", cmd.Name,
				"attempt", n+1,
				"error", err)
		}),
	)
	if err != nil {
		// A context ending between attempts surfaces as the bare context
		// error; keep the transport failure that caused the wait.
		if lastTransport != nil && !IsTransportError(err) && ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", lastTransport, err)
		}
		var te *TransportError
		if errors.As(err, &te) {
			te.Attempts = attempts
		}
		return nil, err
	}

	return parseAPIResponse(cmd.Name, reply)
}

// authenticate returns a copy of params with the credential fields added.
func (m *ServerManager) authenticate(params Parameters) url.Values {
	values := params.Values()
	values.Set("app_id", m.cfg.AppID)
	values.Set("api_key", m.cfg.APIKey.Value())
	values.Set("api_version", m.cfg.APIVersion)
	return values
}

// RenderResponse is the raw answer of the render server.
type RenderResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// FetchRender issues a single GET for renderURL.
func (m *ServerManager) FetchRender(ctx context.Context, renderURL string) (*RenderResponse, error) {
	reply, err := m.send(ctx, http.MethodGet, renderURL, nil, m.requestID())
	if err != nil {
		return nil, err
	}
	return &RenderResponse{
		StatusCode:  reply.StatusCode,
		ContentType: reply.Header.Get("Content-Type"),
		Body:        reply.Body,
	}, nil
}

func redactParameters(values url.Values) string {
	redacted := make(url.Values, len(values))
	for k, vs := range values {
		if k == "api_key" {
			redacted.Set(k, "[REDACTED]")
			continue
		}
		redacted[k] = vs
	}
	return redacted.Encode()
}
