// Package app provides application bootstrap and the render operations behind
// the pijaz commands.
//
// # Architecture Overview
//
//  1. Bootstrap (bootstrap.go): loads the configuration, sets up logging,
//     validates and builds services. Reload repeats this for a running server.
//  2. Configuration (config.go): runtime flags such as debug, quiet and the
//     configuration path.
//  3. Services (services.go): the pijaz ServerManager, the parameter template
//     engine and a per-workflow token cache shared by short-lived products.
//  4. Render (render.go): URL generation, single saves and concurrent batch
//     saves of the configured renders entries.
//  5. Server (server.go): the HTTP endpoint used by `pijaz serve`, with
//     signal handling and configuration hot reload.
//
// # Parameter Layering
//
// A render combines, lowest precedence first:
//
//   - product.defaults, which only suppress identical overrides
//   - product.parameters and product.xml
//   - the parameters of a renders entry (batch saves only)
//   - parameters given on the command line or in the request query
//
// Values from the configuration file are expanded as text/template templates
// with the sprig function library. The variables workflow and output (batch
// saves) are available. Command line and query values are used verbatim.
//
// # Usage
//
//	cfg := app.NewConfig(debug, quiet, configPath)
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return err
//	}
//	results, err := application.SaveAll(ctx, nil, app.DefaultConcurrency, nil)
package app
