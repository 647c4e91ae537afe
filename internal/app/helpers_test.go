package app

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const testImage = "\x89PNG fake image"

// backend fakes the API and render servers.
type backend struct {
	api    *httptest.Server
	render *httptest.Server

	tokenCalls  atomic.Int32
	renderCalls atomic.Int32
	apiStatus   atomic.Int32
	declines    atomic.Bool

	mu      sync.Mutex
	queries []map[string]string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	b.apiStatus.Store(http.StatusOK)

	b.api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.tokenCalls.Add(1)
		if status := int(b.apiStatus.Load()); status != http.StatusOK {
			http.Error(w, "unavailable", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"result":{"result_num":0},"info":{"lifetime":3600,"sig":"s1"}}`)
	}))
	t.Cleanup(b.api.Close)

	b.render = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.renderCalls.Add(1)
		query := make(map[string]string)
		for k, v := range r.URL.Query() {
			query[k] = v[0]
		}
		b.mu.Lock()
		b.queries = append(b.queries, query)
		b.mu.Unlock()

		if b.declines.Load() {
			http.Error(w, "no", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = io.WriteString(w, testImage)
	}))
	t.Cleanup(b.render.Close)

	return b
}

func (b *backend) lastQuery() map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queries) == 0 {
		return nil
	}
	return b.queries[len(b.queries)-1]
}

// configYAML returns a client section pointing at b followed by rest.
func (b *backend) configYAML(rest string) string {
	return fmt.Sprintf(`client:
  appId: test-app
  apiKey: test-key
  apiServer: %s/
  renderServer: %s/
  retryCount: 0
  retryDelay: 1ms
`, b.api.URL, b.render.URL) + rest
}

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestApp(t *testing.T, content string) *Application {
	t.Helper()
	path := writeConfig(t, t.TempDir(), content)
	application, err := NewApplication(&Config{ConfigPath: path, LogOutput: io.Discard})
	require.NoError(t, err)
	return application
}
