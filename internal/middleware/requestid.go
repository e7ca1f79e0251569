package middleware

import (
	"github.com/google/uuid"

	"github.com/illBeRoy/andromeda/dispatch"
)

// RequestIDHeader carries the correlation ID in both directions.
const RequestIDHeader = "X-Request-ID"

// RequestID echoes a well-formed incoming X-Request-ID, or stamps a fresh
// UUID on the response.
func RequestID(*dispatch.Dispatcher) dispatch.Middleware {
	return func(resp *dispatch.Response) {
		if resp.Header.Get(RequestIDHeader) != "" {
			return
		}
		id := ""
		if resp.Request != nil {
			if in := resp.Request.Header.Get(RequestIDHeader); in != "" {
				if _, err := uuid.Parse(in); err == nil {
					id = in
				}
			}
		}
		if id == "" {
			id = uuid.NewString()
		}
		resp.Header.Set(RequestIDHeader, id)
	}
}
