package pijaz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// httpReply is the raw outcome of a single HTTP exchange.
type httpReply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// send performs one HTTP exchange. GET requests carry params in the query
// string, POST requests as a form-encoded body. Failures of the exchange
// itself are returned as *TransportError; a non-2xx status is not an error.
func (m *ServerManager) send(ctx context.Context, method, endpoint string, params url.Values, requestID string) (*httpReply, error) {
	target, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}

	var body io.Reader
	switch method {
	case http.MethodGet:
		if len(params) > 0 {
			query := target.Query()
			for k, vs := range params {
				for _, v := range vs {
					query.Add(k, v)
				}
			}
			target.RawQuery = query.Encode()
		}
	case http.MethodPost:
		body = strings.NewReader(params.Encode())
	default:
		return nil, fmt.Errorf("unsupported HTTP method %q", method)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if requestID != "" {
		req.Header.Set("X-Request-Id", requestID)
	}

	publicURL := stripQuery(target)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, URL: publicURL, Attempts: 1, Err: scrubURLError(err, publicURL)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: publicURL, Attempts: 1, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	m.logger.Debug("HTTP exchange completed",
		"method", method,
		"url", publicURL,
		"status", resp.StatusCode,
		"request_id", requestID)

	return &httpReply{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// stripQuery drops the query string, which may hold api_key.
func stripQuery(u *url.URL) string {
	clean := *u
	clean.RawQuery = ""
	clean.Fragment = ""
	return clean.String()
}

// scrubURLError replaces the full request URL inside a *url.Error.
func scrubURLError(err error, publicURL string) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: publicURL, Err: ue.Err}
	}
	return err
}
