package parser

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illBeRoy/andromeda/httperr"
)

func jsonRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func requireBadRequest(t *testing.T, err error, msg string) {
	t.Helper()
	he, ok := httperr.As(err)
	require.True(t, ok, "want *httperr.Error, got %v", err)
	assert.Equal(t, http.StatusBadRequest, he.Status)
	assert.Equal(t, msg, he.Message)
}

func TestAddDeclarationRules(t *testing.T) {
	p := Body()
	require.NoError(t, p.Add(Arg{Name: "name", Kind: String}))
	assert.ErrorIs(t, p.Add(Arg{Name: "name"}), ErrDuplicateArg)
	assert.ErrorIs(t, p.Add(Arg{Name: "x", Required: true, Default: 1.0}), ErrRequiredDefault)
	assert.ErrorIs(t, p.Add(Arg{}), ErrEmptyName)

	assert.ErrorIs(t, Headers().Add(Arg{Name: "X-Token", Kind: String}), ErrTypedArg)
	assert.ErrorIs(t, Querystring().Add(Arg{Name: "page", Kind: Number}), ErrTypedArg)
	assert.NoError(t, Querystring().Add(Arg{Name: "page"}))

	assert.Panics(t, func() { Body().MustAdd(Arg{Name: "a"}).MustAdd(Arg{Name: "a"}) })
}

func TestBodyParse(t *testing.T) {
	p := Body().
		MustAdd(Arg{Name: "name", Kind: String, Required: true, Help: "display name"}).
		MustAdd(Arg{Name: "age", Kind: Number, Default: 18.0}).
		MustAdd(Arg{Name: "admin", Kind: Bool}).
		MustAdd(Arg{Name: "tags", Kind: Array})

	args, err := p.Parse(jsonRequest(`{"name":"ada","tags":["x"]}`))
	require.NoError(t, err)
	assert.Equal(t, "ada", args.String("name"))
	assert.Equal(t, 18, args.Int("age"))
	assert.False(t, args.Has("admin"))
	assert.Equal(t, []any{"x"}, args["tags"])
}

func TestBodyMissingRequired(t *testing.T) {
	p := Body().MustAdd(Arg{Name: "name", Kind: String, Required: true, Help: "display name"})

	_, err := p.Parse(jsonRequest(`{}`))
	requireBadRequest(t, err, `missing field "name" in body: display name`)

	// An undecodable body behaves like an empty one.
	_, err = p.Parse(jsonRequest(`not json`))
	requireBadRequest(t, err, `missing field "name" in body: display name`)

	// null counts as absent.
	_, err = p.Parse(jsonRequest(`{"name":null}`))
	requireBadRequest(t, err, `missing field "name" in body: display name`)
}

func TestBodyWrongType(t *testing.T) {
	p := Body().MustAdd(Arg{Name: "age", Kind: Number})
	_, err := p.Parse(jsonRequest(`{"age":"ten"}`))
	requireBadRequest(t, err, `field "age": wrong type. expected: number`)
}

func TestBodyIsRestored(t *testing.T) {
	r := jsonRequest(`{"a":"1","b":true}`)
	a, err := Body().MustAdd(Arg{Name: "a", Kind: String}).Parse(r)
	require.NoError(t, err)
	b, err := Body().MustAdd(Arg{Name: "b", Kind: Bool}).Parse(r)
	require.NoError(t, err)
	assert.Equal(t, "1", a.String("a"))
	assert.True(t, b.Bool("b"))
}

func TestHeadersParse(t *testing.T) {
	p := Headers().
		MustAdd(Arg{Name: "X-Api-Key", Required: true, Help: "issued key"}).
		MustAdd(Arg{Name: "X-Locale", Default: "en"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := p.Parse(r)
	requireBadRequest(t, err, `missing field "X-Api-Key" in headers: issued key`)

	r.Header.Set("x-api-key", "k1")
	args, err := p.Parse(r)
	require.NoError(t, err)
	assert.Equal(t, "k1", args.String("X-Api-Key"))
	assert.Equal(t, "en", args.String("X-Locale"))
}

func TestHeadersEmptyValueIsPresent(t *testing.T) {
	p := Headers().
		MustAdd(Arg{Name: "X-Api-Key", Required: true, Help: "issued key"}).
		MustAdd(Arg{Name: "X-Locale", Default: "en"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Api-Key", "")
	r.Header.Set("X-Locale", "")

	args, err := p.Parse(r)
	require.NoError(t, err)
	assert.True(t, args.Has("X-Api-Key"))
	assert.Equal(t, "", args.String("X-Api-Key"))
	assert.Equal(t, "", args.String("X-Locale"), "empty header wins over the default")
}

func TestQuerystringUnderscoreToDash(t *testing.T) {
	p := Querystring().
		MustAdd(Arg{Name: "page_size", Required: true}).
		MustAdd(Arg{Name: "q"})

	args, err := p.Parse(httptest.NewRequest(http.MethodGet, "/?page-size=20", nil))
	require.NoError(t, err)
	assert.Equal(t, "20", args.String("page_size"))
	assert.False(t, args.Has("q"))

	_, err = p.Parse(httptest.NewRequest(http.MethodGet, "/?page_size=20", nil))
	requireBadRequest(t, err, `missing field "page_size" in querystring: `)

	// Present but empty still counts as supplied.
	args, err = p.Parse(httptest.NewRequest(http.MethodGet, "/?page-size=", nil))
	require.NoError(t, err)
	assert.True(t, args.Has("page_size"))
}

func TestKindNames(t *testing.T) {
	for k, want := range map[Kind]string{Any: "any", String: "string", Number: "number", Bool: "bool", Object: "object", Array: "array"} {
		assert.Equal(t, want, k.String())
	}
	assert.Equal(t, SourceBody, Body().Source())
}
