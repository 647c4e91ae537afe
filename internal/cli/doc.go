// Package cli provides the terminal-facing helpers shared by the pijaz
// commands.
//
// # Output
//
// Printer renders command results as rounded go-pretty tables, indented JSON,
// or YAML (sigs.k8s.io/yaml, so JSON tags decide the keys in both formats).
//
// # Progress
//
// StartProgress wraps a briandowns/spinner that is disabled by --quiet.
//
// # Errors
//
// ClassifyConnectionError turns a transport failure into a ConnectionError
// with a category (DNS, timeout, TLS, network) and a hint for the user.
// ExitCode maps errors to the process exit status:
//
//	0  success
//	1  general failure (bad flags, invalid configuration)
//	2  render unavailable (token request rejected or malformed)
//	3  transport failure talking to the API or render server
//	4  the rendered image could not be written
//
// # Flags
//
// RegisterCommonFlags and RegisterRenderFlags keep flag names consistent
// across commands; ParseParams reads repeated --param key=value pairs.
package cli
