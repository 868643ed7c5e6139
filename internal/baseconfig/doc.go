// Package baseconfig models the answers collected by the setup wizard and
// turns them into files an operator can install.
//
// # Answers
//
// BaseConfig holds one field per wizard question: server name, statistics
// reporting, delegation, TLS termination, listener ports and database. The
// Builder offers one setter per wizard screen and clears answers that stop
// applying when an earlier choice changes (for example switching TLS away from
// manual certificates drops the certificate paths).
//
// # Validation
//
// Validation follows a two-tier model:
//   - Critical errors (empty server name, bad port) prevent rendering
//   - Warnings (prefixed "warning:") are reported but do not block
//
// ValidateScreen checks only the answers gathered on a single screen so the
// wizard can refuse to advance past a bad answer.
//
// # Rendering
//
// Three artefacts can be produced from a complete configuration:
//
//	yaml, err := baseconfig.RenderHomeserver(cfg)    // homeserver.yaml fragment
//	proxy, err := baseconfig.RenderReverseProxy(cfg) // nginx/Caddy/Apache/HAProxy snippet
//	deleg, err := baseconfig.RenderDelegation(cfg)   // .well-known bodies or SRV record
//
// Reverse proxy snippets are text/template documents with the sprig function
// library available. SRV records are built as miekg/dns resource records.
//
// # Error Handling
//
// Errors are *ConfigError values carrying an ErrorType and, for validation
// errors, the name of the offending field. Use IsValidationError,
// IsRenderError and IsTemplateError to classify them.
package baseconfig
