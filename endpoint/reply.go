package endpoint

import "net/http"

// Reply overrides the default 200 status and lets a handler add headers.
// A handler that returns a plain value gets a JSON body with status 200.
type Reply struct {
	Body   any
	Status int         // 0 means 200
	Header http.Header // merged into the response headers; may be nil
}

// Status returns body with an explicit status code.
func Status(body any, status int) Reply {
	return Reply{Body: body, Status: status}
}

// WithHeaders returns body with an explicit status code and extra headers.
func WithHeaders(body any, status int, h http.Header) Reply {
	return Reply{Body: body, Status: status, Header: h}
}

// StatusCode resolves the zero value to 200.
func (r Reply) StatusCode() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}
