// Package pijaz is a client for the Pijaz rendering platform.
//
// A caller describes a renderable item as a Product: a workflow id (the
// server-side template) plus named render parameters such as message, font or
// color. The ServerManager turns a Product into an authenticated render URL,
// acquiring and caching the short-lived access token the render server
// requires, and can fetch the rendered bytes.
//
// # Core Components
//
//   - Config: credentials, server endpoints, refresh fuzz, retry budget
//   - ServerManager: token lifecycle, API command dispatch, retrying transport
//   - Product: workflow id, parameter overrides and defaults, cached AccessToken
//   - AccessToken: server-issued query parameters valid for a limited lifetime
//
// # Token Lifecycle
//
// A token is valid while now <= IssuedAt + Lifetime - RefreshFuzz and while it
// was issued for the current workflow and xml. Otherwise the ServerManager
// issues a get-token API command, stores the fresh token on the product and
// merges its access parameters with the render parameters. Render parameters
// win on key collisions.
//
// # Usage
//
//	manager, err := pijaz.NewServerManager(pijaz.DefaultConfig("my-app", "my-key"))
//	if err != nil {
//	    return err
//	}
//
//	product, err := pijaz.NewProduct(manager, "hello-world",
//	    pijaz.WithRenderParameters(pijaz.Parameters{"xml": workflowXMLURL}),
//	)
//	if err != nil {
//	    return err
//	}
//
//	url, err := product.GenerateURL(ctx, pijaz.Parameters{"message": "world"})
//
//	saved, err := product.SaveToFile(ctx, "/tmp/hello.jpg", nil)
//
// # Errors
//
// Transport failures are retried up to Config.RetryCount additional times and
// surface as *TransportError. Malformed API responses surface as
// *ProtocolError and are never retried. A server-reported failure becomes an
// *ApplicationError. Every failed render command build wraps
// ErrRenderUnavailable.
package pijaz
