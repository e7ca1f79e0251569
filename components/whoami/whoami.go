// components/whoami/whoami.go
//
// Whoami component – echoes the request's UA, IP, and Geo details as
// collected by requestinfo.Enrich.
package whoami

import (
	"net/http"

	"github.com/illBeRoy/andromeda/endpoint"
	"github.com/illBeRoy/andromeda/httperr"
	"github.com/illBeRoy/andromeda/internal/component"
	"github.com/illBeRoy/andromeda/internal/requestinfo"
	"github.com/illBeRoy/andromeda/parser"
)

// compile-time assertion
var _ component.Component = Comp{}

// Comp implements component.Component; it needs no shared state.
type Comp struct{}

func (Comp) Name() string                     { return "whoami" }
func (Comp) Endpoints() []endpoint.Descriptor { return []endpoint.Descriptor{Whoami} }

// Whoami serves GET /whoami.
var Whoami = endpoint.Declare("/whoami", func() endpoint.Handler { return &whoami{} })

// Optional "X-Whoami-Fields: ua" narrows the reply.
var fieldsArg = parser.Headers().
	MustAdd(parser.Arg{Name: "X-Whoami-Fields", Help: "ua, geo, or all", Default: "all"})

type whoami struct{ endpoint.Base }

func (e *whoami) Get(endpoint.Params) (any, error) {
	ri := requestinfo.FromContext(e.Request.Context())
	if ri == nil {
		return nil, httperr.New(http.StatusInternalServerError, "request info not available")
	}

	args, err := fieldsArg.Parse(e.Request)
	if err != nil {
		return nil, err
	}
	switch f := args.String("X-Whoami-Fields"); f {
	case "all":
		return ri, nil
	case "ua":
		return ri.UA, nil
	case "geo":
		return ri.Geo, nil
	default:
		return nil, httperr.BadRequest("unknown field set " + f)
	}
}

// Head mirrors Get so monitoring probes can use it.
func (e *whoami) Head(p endpoint.Params) (any, error) {
	return e.Get(p)
}

func init() {
	component.Register(Comp{})
}
