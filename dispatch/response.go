package dispatch

import (
	"encoding/json"
	"net/http"

	"github.com/illBeRoy/andromeda/endpoint"
	"github.com/illBeRoy/andromeda/httperr"
)

const contentTypeJSON = "application/json"

// Response is the fully rendered reply, held in memory until every
// middleware has seen it.  Middlewares may change Status, Header, and Body
// but cannot swap the *Response itself.
type Response struct {
	Request *http.Request // read-only
	Status  int
	Header  http.Header
	Body    []byte
	Err     error // set on the error path; nil on success
}

func (r *Response) write(w http.ResponseWriter) error {
	dst := w.Header()
	for k, vs := range r.Header {
		dst[k] = append([]string(nil), vs...)
	}
	// net/http panics on codes outside 1xx-9xx.
	if r.Status < 100 || r.Status > 999 {
		r.Status = http.StatusInternalServerError
	}
	w.WriteHeader(r.Status)
	_, err := w.Write(r.Body)
	return err
}

// renderValue turns a handler's return value into a Response.  A Reply
// carries its own status and headers; anything else is a 200.
func renderValue(req *http.Request, out any) (*Response, error) {
	var reply endpoint.Reply
	switch v := out.(type) {
	case endpoint.Reply:
		reply = v
	case *endpoint.Reply:
		if v != nil {
			reply = *v
		}
	default:
		reply = endpoint.Reply{Body: out}
	}

	body, err := json.Marshal(reply.Body)
	if err != nil {
		return nil, err
	}

	h := make(http.Header, 1+len(reply.Header))
	h.Set("Content-Type", contentTypeJSON)
	for k, vs := range reply.Header {
		h[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}

	return &Response{
		Request: req,
		Status:  reply.StatusCode(),
		Header:  h,
		Body:    body,
	}, nil
}

// renderError builds the {status, message} envelope.
func renderError(req *http.Request, status int, message string) *Response {
	// Body has two plain fields; Marshal cannot fail.
	body, _ := json.Marshal(httperr.Body{Status: status, Message: message})

	h := make(http.Header, 1)
	h.Set("Content-Type", contentTypeJSON)
	return &Response{
		Request: req,
		Status:  status,
		Header:  h,
		Body:    body,
	}
}
