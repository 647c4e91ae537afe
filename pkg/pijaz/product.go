package pijaz

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
)

// RenderService is the part of the ServerManager a Product depends on.
type RenderService interface {
	BuildRenderCommand(ctx context.Context, holder AccessHolder, renderParameters Parameters) (Parameters, error)
	BuildRenderServerURLRequest(params Parameters) string
	FetchRender(ctx context.Context, renderURL string) (*RenderResponse, error)
}

// FileWriter persists rendered image bytes.
type FileWriter func(path string, data []byte) error

// Product is one renderable item: a workflow, the caller's render parameter
// overrides on top of a set of defaults, and the access token cached for it.
// A Product is safe for concurrent use.
type Product struct {
	mu sync.RWMutex

	manager    RenderService
	workflowID string
	overrides  Parameters
	defaults   Parameters
	token      *AccessToken
	writeFile  FileWriter
}

type productOptions struct {
	defaults  Parameters
	initial   Parameters
	writeFile FileWriter
}

// ProductOption configures a Product.
type ProductOption func(*productOptions)

// WithParameterDefaults sets the default render parameter values.
func WithParameterDefaults(defaults Parameters) ProductOption {
	return func(o *productOptions) {
		o.defaults = defaults.Clone()
	}
}

// WithRenderParameters sets initial overrides. They are applied after the
// defaults with the same rules as SetRenderParameters.
func WithRenderParameters(params Parameters) ProductOption {
	return func(o *productOptions) {
		o.initial = o.initial.Merge(params)
	}
}

// WithFileWriter replaces the function used by SaveToFile to write images.
func WithFileWriter(fn FileWriter) ProductOption {
	return func(o *productOptions) {
		o.writeFile = fn
	}
}

func defaultFileWriter(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}

// NewProduct creates a Product for workflowID rendered through manager.
func NewProduct(manager RenderService, workflowID string, opts ...ProductOption) (*Product, error) {
	if manager == nil {
		return nil, errors.New("pijaz: server manager is required")
	}
	if workflowID == "" {
		return nil, errors.New("pijaz: workflow ID is required")
	}

	o := &productOptions{writeFile: defaultFileWriter}
	for _, opt := range opts {
		opt(o)
	}

	p := &Product{
		manager:    manager,
		workflowID: workflowID,
		overrides:  Parameters{},
		defaults:   o.defaults.Clone(),
		writeFile:  o.writeFile,
	}
	p.setRenderParameters(o.initial)

	return p, nil
}

// WorkflowID returns the workflow the product renders.
func (p *Product) WorkflowID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.workflowID
}

// SetWorkflowID replaces the workflow. A change drops the cached token.
func (p *Product) SetWorkflowID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if id == p.workflowID {
		return
	}
	p.workflowID = id
	p.token = nil
}

// SetRenderParameter stores an override for key. An empty value, or one equal
// to the key's default, removes the override instead.
func (p *Product) SetRenderParameter(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setRenderParameter(key, value)
}

// SetRenderParameters applies SetRenderParameter to every entry of params.
func (p *Product) SetRenderParameters(params Parameters) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setRenderParameters(params)
}

func (p *Product) setRenderParameters(params Parameters) {
	for _, key := range params.Keys() {
		p.setRenderParameter(key, params[key])
	}
}

func (p *Product) setRenderParameter(key, value string) {
	if def, ok := p.defaults[key]; value == "" || (ok && value == def) {
		delete(p.overrides, key)
		return
	}
	p.overrides[key] = value
}

// RenderParameter returns the effective value for key: the override if set,
// otherwise the default. The boolean is false when neither exists.
func (p *Product) RenderParameter(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.overrides[key]; ok {
		return v, true
	}
	v, ok := p.defaults[key]
	return v, ok
}

// RenderParameters returns a copy of the explicit overrides.
func (p *Product) RenderParameters() Parameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.overrides.Clone()
}

// ParameterDefaults returns a copy of the default values.
func (p *Product) ParameterDefaults() Parameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.defaults.Clone()
}

// ClearRenderParameters removes every override.
func (p *Product) ClearRenderParameters() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides = Parameters{}
}

// FinalParameters returns the overrides merged with extra, extra winning, and
// the workflow parameter set to the product's workflow.
func (p *Product) FinalParameters(extra Parameters) Parameters {
	p.mu.RLock()
	defer p.mu.RUnlock()
	params := p.overrides.Merge(extra)
	params["workflow"] = p.workflowID
	return params
}

// GenerateURL builds the render URL for the product. On failure the URL is
// empty and the error wraps ErrRenderUnavailable.
func (p *Product) GenerateURL(ctx context.Context, extra Parameters) (string, error) {
	command, err := p.manager.BuildRenderCommand(ctx, p, p.FinalParameters(extra))
	if err != nil {
		return "", err
	}
	return p.manager.BuildRenderServerURLRequest(command), nil
}

// fetch renders the product. A nil response with a nil error means the render
// server did not answer 200.
func (p *Product) fetch(ctx context.Context, extra Parameters) (*RenderResponse, error) {
	renderURL, err := p.GenerateURL(ctx, extra)
	if err != nil {
		return nil, err
	}
	resp, err := p.manager.FetchRender(ctx, renderURL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return resp, nil
}

// SaveToFile renders the product and writes the image to path.
//
// It returns false with a nil error when the render server answers with a
// status other than 200. Errors are returned when no URL could be generated,
// the render request failed in transit, or the file could not be written
// (*FileWriteError).
func (p *Product) SaveToFile(ctx context.Context, path string, extra Parameters) (bool, error) {
	resp, err := p.fetch(ctx, extra)
	if err != nil || resp == nil {
		return false, err
	}

	p.mu.RLock()
	write := p.writeFile
	p.mu.RUnlock()

	if err := write(path, resp.Body); err != nil {
		return false, &FileWriteError{Path: path, Err: err}
	}
	return true, nil
}

// Serve renders the product and writes the image to w with the render
// server's content type. Outcomes follow SaveToFile; nothing is written to w
// unless the result is true.
func (p *Product) Serve(ctx context.Context, w http.ResponseWriter, extra Parameters) (bool, error) {
	resp, err := p.fetch(ctx, extra)
	if err != nil || resp == nil {
		return false, err
	}

	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(resp.Body); err != nil {
		return false, err
	}
	return true, nil
}

// AccessInfo returns the cached access token, or nil.
func (p *Product) AccessInfo() *AccessToken {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// SetAccessInfo replaces the cached access token.
func (p *Product) SetAccessInfo(token *AccessToken) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = token
}
