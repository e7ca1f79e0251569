// internal/middleware/security.go
//
// Security-header response middleware.
//
// Injects industry-standard headers on every response, error responses
// included:
//
//   • Strict-Transport-Security  –  forces HTTPS (2 years + preload)
//   • Content-Security-Policy   –  API responses never load sub-resources
//   • X-Frame-Options           –  click-jacking defence
//   • X-Content-Type-Options    –  MIME-sniffing defence
//   • Referrer-Policy           –  drops path/query from Referer
//   • Permissions-Policy        –  disables powerful features by default
//
// Notes
// -----
// • The middleware never overwrites a value an endpoint set through Reply
//   headers.

package middleware

import "github.com/illBeRoy/andromeda/dispatch"

var securityHeaders = [...][2]string{
	{"Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"X-Frame-Options", "DENY"},
	{"X-Content-Type-Options", "nosniff"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
}

// Security is a dispatch.MiddlewareFactory.
func Security(*dispatch.Dispatcher) dispatch.Middleware {
	return func(resp *dispatch.Response) {
		for _, kv := range securityHeaders {
			if resp.Header.Get(kv[0]) == "" {
				resp.Header.Set(kv[0], kv[1])
			}
		}
	}
}
