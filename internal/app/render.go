package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pijaz/pijaz-go/internal/config"
	"github.com/pijaz/pijaz-go/internal/template"
	"github.com/pijaz/pijaz-go/pkg/logging"
	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

// DefaultConcurrency bounds the renders a batch save runs at once.
const DefaultConcurrency = 4

// RenderOptions selects what to render on top of the product section.
// Parameters are literal values; only values from the configuration file are
// expanded as templates.
type RenderOptions struct {
	// Workflow replaces the configured workflow when set.
	Workflow string

	// Parameters override configured parameters. An empty value removes the
	// configured override.
	Parameters map[string]string

	// Output is the destination file for Save.
	Output string
}

// SaveResult is the outcome of rendering one file.
type SaveResult struct {
	Output   string
	Workflow string

	// Saved is false with a nil Err when the render server declined.
	Saved bool
	Err   error
}

// NewProduct builds a product from the active configuration and opts.
func (a *Application) NewProduct(opts RenderOptions) (*pijaz.Product, error) {
	services, cfg, err := a.current()
	if err != nil {
		return nil, err
	}
	return services.newProduct(cfg.Product, nil, opts)
}

// newProduct layers the product section, the templated entry parameters of a
// batch render and the literal opts parameters, in that order. The product is
// seeded with the last token cached for its workflow and xml.
func (s *Services) newProduct(product config.ProductConfig, entry map[string]string, opts RenderOptions) (*pijaz.Product, error) {
	workflow := opts.Workflow
	if workflow == "" {
		workflow = product.Workflow
	}
	if workflow == "" {
		return nil, errors.New("no workflow configured: set product.workflow or pass --workflow")
	}

	tctx := template.NewContext(workflow)
	if opts.Output != "" {
		tctx = tctx.With("output", opts.Output)
	}

	defaults, err := s.Templates.ExpandParameters(product.Defaults, tctx)
	if err != nil {
		return nil, fmt.Errorf("failed to expand product defaults: %w", err)
	}

	configured := pijaz.Parameters(product.Parameters).Merge(entry)
	if product.XML != "" {
		if _, ok := configured["xml"]; !ok {
			configured["xml"] = product.XML
		}
	}
	expanded, err := s.Templates.ExpandParameters(configured, tctx)
	if err != nil {
		return nil, fmt.Errorf("failed to expand product parameters: %w", err)
	}

	p, err := pijaz.NewProduct(s.Manager, workflow,
		pijaz.WithParameterDefaults(defaults),
		pijaz.WithRenderParameters(pijaz.Parameters(expanded).Merge(opts.Parameters)),
	)
	if err != nil {
		return nil, err
	}
	p.SetAccessInfo(s.tokens.get(workflow, p.FinalParameters(nil)["xml"]))
	return p, nil
}

// GenerateURL returns a render URL for the configured product.
func (a *Application) GenerateURL(ctx context.Context, opts RenderOptions) (string, error) {
	services, cfg, err := a.current()
	if err != nil {
		return "", err
	}
	p, err := services.newProduct(cfg.Product, nil, opts)
	if err != nil {
		return "", err
	}

	renderURL, err := p.GenerateURL(ctx, nil)
	services.tokens.put(p.AccessInfo())
	return renderURL, err
}

// AccessToken acquires, or reuses, the token a render of opts would carry.
func (a *Application) AccessToken(ctx context.Context, opts RenderOptions) (*pijaz.AccessToken, error) {
	services, cfg, err := a.current()
	if err != nil {
		return nil, err
	}
	p, err := services.newProduct(cfg.Product, nil, opts)
	if err != nil {
		return nil, err
	}
	if _, err := p.GenerateURL(ctx, nil); err != nil {
		return nil, err
	}
	token := p.AccessInfo()
	services.tokens.put(token)
	return token, nil
}

// Save renders the configured product to opts.Output.
func (a *Application) Save(ctx context.Context, opts RenderOptions) SaveResult {
	if opts.Output == "" {
		return SaveResult{Err: errors.New("no output file given")}
	}

	services, cfg, err := a.current()
	if err != nil {
		return SaveResult{Output: opts.Output, Err: err}
	}
	return services.save(ctx, cfg.Product, nil, opts)
}

func (s *Services) save(ctx context.Context, product config.ProductConfig, entry map[string]string, opts RenderOptions) SaveResult {
	result := SaveResult{Output: opts.Output}

	p, err := s.newProduct(product, entry, opts)
	if err != nil {
		result.Err = err
		return result
	}
	result.Workflow = p.WorkflowID()

	result.Saved, result.Err = p.SaveToFile(ctx, opts.Output, nil)
	s.tokens.put(p.AccessInfo())

	if result.Err == nil {
		if result.Saved {
			logging.Info("Save", "Saved %s (workflow %s)", opts.Output, result.Workflow)
		} else {
			logging.Warn("Save", "Render server returned no image for %s", opts.Output)
		}
	}
	return result
}

// SaveAll renders every configured renders entry, at most concurrency at a
// time. params override the configured parameters of every entry. progress,
// if not nil, is called as each entry finishes; calls are serialized.
//
// Results are returned in configuration order. The error joins every
// per-entry failure; declined renders are reported only in the results.
func (a *Application) SaveAll(ctx context.Context, params map[string]string, concurrency int, progress func(SaveResult)) ([]SaveResult, error) {
	services, cfg, err := a.current()
	if err != nil {
		return nil, err
	}
	if len(cfg.Renders) == 0 {
		return nil, errors.New("no renders configured")
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]SaveResult, len(cfg.Renders))
	report := make(chan SaveResult)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range report {
			if progress != nil {
				progress(r)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, entry := range cfg.Renders {
		g.Go(func() error {
			opts := RenderOptions{Workflow: entry.Workflow, Parameters: params, Output: entry.Output}
			result := services.save(gctx, cfg.Product, entry.Parameters, opts)
			results[i] = result
			report <- result
			return nil
		})
	}
	_ = g.Wait()
	close(report)
	<-done

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Output, r.Err))
		}
	}
	return results, errors.Join(errs...)
}
