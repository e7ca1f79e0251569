// components/users/endpoints.go
//
// /users and /users/{id}.  Both endpoints find the *sqlx.DB the entry
// point stored in the shared context under "db"; without it every verb
// answers 503.
package users

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/illBeRoy/andromeda/appctx"
	"github.com/illBeRoy/andromeda/endpoint"
	"github.com/illBeRoy/andromeda/httperr"
	"github.com/illBeRoy/andromeda/parser"
)

// ContextKey is the shared-context name of the database pool.
const ContextKey = "db"

const (
	defaultLimit = 50
	maxLimit     = 500
)

// input is the PUT and POST body.
type input struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"required,email,max=255"`
}

var listArgs = parser.Querystring().
	MustAdd(parser.Arg{Name: "limit", Help: "page size", Default: strconv.Itoa(defaultLimit)}).
	MustAdd(parser.Arg{Name: "offset", Help: "rows to skip", Default: "0"})

var (
	// Collection serves GET and POST on /users.
	Collection = endpoint.Declare("/users", func() endpoint.Handler { return &collection{} })
	// Item serves GET, PUT, and DELETE on /users/{id}.
	Item = endpoint.Declare("/users/{id}", func() endpoint.Handler { return &item{} })
)

func store(c *appctx.Context) (*Store, error) {
	db, err := appctx.Value[*sqlx.DB](c, ContextKey)
	if errors.Is(err, appctx.ErrUnset) {
		return nil, httperr.New(http.StatusServiceUnavailable, "database unavailable")
	}
	if err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

// storeErr maps ErrNotFound to a 404; everything else stays generic.
func storeErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return httperr.New(http.StatusNotFound, ErrNotFound.Error())
	}
	return err
}

/*──────────────────────────── /users ───────────────────────────────────────*/

type collection struct{ endpoint.Base }

func (e *collection) Get(endpoint.Params) (any, error) {
	args, err := listArgs.Parse(e.Request)
	if err != nil {
		return nil, err
	}
	limit, err := boundedInt(args.String("limit"), 1, maxLimit)
	if err != nil {
		return nil, httperr.BadRequest("limit: " + err.Error())
	}
	offset, err := boundedInt(args.String("offset"), 0, -1)
	if err != nil {
		return nil, httperr.BadRequest("offset: " + err.Error())
	}

	s, err := store(e.Context)
	if err != nil {
		return nil, err
	}
	return s.List(e.Request.Context(), limit, offset)
}

func (e *collection) Post(endpoint.Params) (any, error) {
	var in input
	if err := parser.Bind(e.Request, &in); err != nil {
		return nil, err
	}
	s, err := store(e.Context)
	if err != nil {
		return nil, err
	}
	u, err := s.Create(e.Request.Context(), in.Name, in.Email)
	if err != nil {
		return nil, storeErr(err)
	}
	loc := http.Header{"Location": {fmt.Sprintf("/users/%d", u.ID)}}
	return endpoint.WithHeaders(u, http.StatusCreated, loc), nil
}

/*──────────────────────────── /users/{id} ──────────────────────────────────*/

type item struct{ endpoint.Base }

func (e *item) Get(p endpoint.Params) (any, error) {
	id, s, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	u, err := s.Get(e.Request.Context(), id)
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

func (e *item) Put(p endpoint.Params) (any, error) {
	id, s, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	var in input
	if err := parser.Bind(e.Request, &in); err != nil {
		return nil, err
	}
	u, err := s.Update(e.Request.Context(), id, in.Name, in.Email)
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

func (e *item) Delete(p endpoint.Params) (any, error) {
	id, s, err := e.prepare(p)
	if err != nil {
		return nil, err
	}
	if err := s.Delete(e.Request.Context(), id); err != nil {
		return nil, storeErr(err)
	}
	return map[string]int64{"deleted": id}, nil
}

func (e *item) prepare(p endpoint.Params) (int64, *Store, error) {
	id, err := strconv.ParseInt(p.Get("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, nil, httperr.BadRequest(fmt.Sprintf("invalid user id %q", p.Get("id")))
	}
	s, err := store(e.Context)
	if err != nil {
		return 0, nil, err
	}
	return id, s, nil
}

// boundedInt parses s and checks lo <= n (and n <= hi when hi >= 0).
func boundedInt(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if n < lo || (hi >= 0 && n > hi) {
		return 0, fmt.Errorf("out of range: %d", n)
	}
	return n, nil
}
