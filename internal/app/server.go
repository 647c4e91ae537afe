package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pijaz/pijaz-go/internal/config"
	"github.com/pijaz/pijaz-go/pkg/logging"
	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

// ShutdownTimeout bounds how long in-flight renders may take after a stop.
const ShutdownTimeout = 5 * time.Second

// Server exposes the configured product over HTTP:
//
//	GET /render?key=value  streams the rendered image
//	GET /url?key=value     returns {"url": "...", "workflow": "..."}
//	GET /healthz           returns ok
//
// Query values are literal render parameters; "workflow" selects the
// workflow instead.
type Server struct {
	app   *Application
	addr  string
	watch bool

	server *http.Server
}

// NewServer creates a server for app listening on addr. With watch set the
// configuration is reloaded whenever the file changes.
func NewServer(app *Application, addr string, watch bool) *Server {
	s := &Server{app: app, addr: addr, watch: watch}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/render", s.handleRender)
	mux.HandleFunc("/url", s.handleURL)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then shuts
// down gracefully. ready, if not nil, receives the bound address.
func (s *Server) Run(ctx context.Context, ready func(addr string)) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}

	if s.watch {
		watcher, err := config.NewWatcher(config.WatcherConfig{
			ConfigPath: s.app.ConfigPath(),
			OnChange: func() {
				_ = s.app.Reload()
			},
		})
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			logging.Warn("Server", "Configuration reload disabled: %v", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	addr := listener.Addr().String()
	logging.Info("Server", "Serving renders on http://%s/render", addr)
	if ready != nil {
		ready(addr)
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Info("Server", "Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) product(r *http.Request) (*Services, *pijaz.Product, int, error) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return nil, nil, http.StatusMethodNotAllowed, errors.New("method not allowed")
	}

	opts := RenderOptions{Parameters: make(map[string]string)}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "workflow" {
			opts.Workflow = values[0]
			continue
		}
		opts.Parameters[key] = values[0]
	}

	services, cfg, err := s.app.current()
	if err != nil {
		return nil, nil, http.StatusServiceUnavailable, err
	}
	p, err := services.newProduct(cfg.Product, nil, opts)
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err
	}
	return services, p, http.StatusOK, nil
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	logging.Debug("Server", "%s %s", r.Method, r.URL.Path)

	services, p, status, err := s.product(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	served, err := p.Serve(r.Context(), w, nil)
	services.tokens.put(p.AccessInfo())
	if served {
		return
	}
	if r.Context().Err() != nil {
		return
	}
	if err != nil {
		logging.Error("Server", err, "Render of workflow %s failed", p.WorkflowID())
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	http.Error(w, "render server returned no image", http.StatusBadGateway)
}

func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	logging.Debug("Server", "%s %s", r.Method, r.URL.Path)

	services, p, status, err := s.product(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	renderURL, err := p.GenerateURL(r.Context(), nil)
	services.tokens.put(p.AccessInfo())
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"url":      renderURL,
		"workflow": p.WorkflowID(),
	})
}

func statusFor(err error) int {
	switch {
	case pijaz.IsTransportError(err):
		return http.StatusBadGateway
	case errors.Is(err, pijaz.ErrRenderUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
