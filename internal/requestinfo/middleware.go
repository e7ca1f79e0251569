// internal/requestinfo/middleware.go
//
// Request-phase middleware that enriches each request with *RequestInfo.
//
/*
Context
--------
Installed on the dispatcher with Wrap, so it runs before endpoint
dispatch.  For every request it:

  1. Parses the User-Agent header and Accept-Language list.
  2. Extracts the left-most client IP from X-Forwarded-For or
     X-Real-IP, falling back to `r.RemoteAddr`.
  3. Performs a GeoLite2 lookup when InitGeo has loaded a database.
  4. Stores a `*RequestInfo` value in `request.Context`, where endpoints
     read it back through FromContext(e.Request.Context()).

Notes
-----
  • All look-ups are read-only, so the middleware is safe under
    concurrency.
*/
package requestinfo

import (
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich wraps an http.Handler, attaches *RequestInfo, and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		info := &RequestInfo{
			UA:        parseUA(r.UserAgent(), r.Header.Get("Accept-Language")),
			Geo:       lookupGeo(ip),
			URL:       r.URL,
			Path:      r.URL.Path,
			Timestamp: time.Now().UTC(),
		}

		zap.L().Debug("request info",
			zap.Stringer("ip", info.Geo.IP),
			zap.String("country", info.Geo.CountryISO),
			zap.String("browser", info.UA.Browser),
			zap.String("device", info.UA.Device),
			zap.Bool("bot", info.UA.IsBot),
			zap.String("path", r.URL.Path),
		)

		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), info)))
	})
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
