// internal/middleware/logging.go
//
// Access-log response middleware.  Runs after the endpoint (or error path)
// has produced a Response, so it sees the final status unless a later
// middleware rewrites it; register it last for that reason.
package middleware

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/illBeRoy/andromeda/dispatch"
)

// Logging writes one line per request to the dispatcher's logger.  5xx
// responses log at Warn, everything else at Info.
func Logging(app *dispatch.Dispatcher) dispatch.Middleware {
	log := app.Logger().Named("access")

	return func(resp *dispatch.Response) {
		lvl := zapcore.InfoLevel
		if resp.Status >= 500 {
			lvl = zapcore.WarnLevel
		}
		ce := log.Check(lvl, "request")
		if ce == nil {
			return
		}

		fields := []zap.Field{
			zap.Int("status", resp.Status),
			zap.Int("bytes", len(resp.Body)),
		}
		if r := resp.Request; r != nil {
			fields = append(fields,
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
			)
		}
		if id := resp.Header.Get(RequestIDHeader); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		if resp.Err != nil {
			fields = append(fields, zap.Error(resp.Err))
		}
		ce.Write(fields...)
	}
}
