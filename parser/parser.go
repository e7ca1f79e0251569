// parser/parser.go
//
// Declarative request-argument parsers.
//
// Context
// -------
// An endpoint declares which arguments it expects and where they come from,
// then parses them in one call:
//
//	p := parser.Body()
//	_ = p.Add(parser.Arg{Name: "name", Kind: parser.String, Required: true, Help: "display name"})
//	_ = p.Add(parser.Arg{Name: "age", Kind: parser.Number, Default: 18.0})
//	args, err := p.Parse(e.Request)
//
// Parse returns an *httperr.Error with status 400 when a required argument
// is missing or has the wrong JSON type, so handlers can return it as is.
//
// Sources
// -------
//   - body        – the request body decoded as JSON regardless of
//     Content-Type; an undecodable body counts as "no values".
//   - headers     – http.Header.Get.
//   - querystring – URL query; underscores in the name match dashes.
//
// Headers and querystring values are always strings, so those parsers
// accept only Kind Any.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/illBeRoy/andromeda/httperr"
)

// Declaration errors returned by Add.
var (
	ErrDuplicateArg    = errors.New("argument defined more than once")
	ErrRequiredDefault = errors.New("argument cannot be required and have a default value")
	ErrTypedArg        = errors.New("argument source does not support types")
	ErrEmptyName       = errors.New("argument name is empty")
)

// Kind is the expected JSON type of an argument.
type Kind int

const (
	Any Kind = iota
	String
	Number
	Bool
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	case Bool:
		return "bool"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "any"
	}
}

// matches reports whether a decoded JSON value has kind k.
func (k Kind) matches(v any) bool {
	switch k {
	case String:
		_, ok := v.(string)
		return ok
	case Number:
		_, ok := v.(float64)
		return ok
	case Bool:
		_, ok := v.(bool)
		return ok
	case Object:
		_, ok := v.(map[string]any)
		return ok
	case Array:
		_, ok := v.([]any)
		return ok
	}
	return true
}

// Arg declares one expected argument.
type Arg struct {
	Name     string
	Help     string
	Kind     Kind
	Required bool
	Default  any
}

// Source identifies the part of the request a Parser reads.
type Source string

const (
	SourceBody        Source = "body"
	SourceHeaders     Source = "headers"
	SourceQuerystring Source = "querystring"
)

// Parser holds argument declarations for one source.  It is built once,
// usually at package level, and is safe for concurrent Parse calls once
// all Add calls are done.
type Parser struct {
	source Source
	args   []Arg
	index  map[string]struct{}
}

// Body parses the JSON request body.
func Body() *Parser { return newParser(SourceBody) }

// Headers parses request headers.
func Headers() *Parser { return newParser(SourceHeaders) }

// Querystring parses URL query arguments.
func Querystring() *Parser { return newParser(SourceQuerystring) }

func newParser(s Source) *Parser {
	return &Parser{source: s, index: make(map[string]struct{})}
}

// Source reports where this parser reads from.
func (p *Parser) Source() Source { return p.source }

// Add declares an argument.
func (p *Parser) Add(a Arg) error {
	if a.Name == "" {
		return ErrEmptyName
	}
	if _, dup := p.index[a.Name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateArg, a.Name)
	}
	if a.Required && a.Default != nil {
		return fmt.Errorf("%w: %q", ErrRequiredDefault, a.Name)
	}
	if p.source != SourceBody && a.Kind != Any {
		return fmt.Errorf("%w: %s argument %q", ErrTypedArg, p.source, a.Name)
	}
	p.index[a.Name] = struct{}{}
	p.args = append(p.args, a)
	return nil
}

// MustAdd is Add for package-level declarations; it panics on error.
func (p *Parser) MustAdd(a Arg) *Parser {
	if err := p.Add(a); err != nil {
		panic("parser: " + err.Error())
	}
	return p
}

// Parse extracts every declared argument from r.
func (p *Parser) Parse(r *http.Request) (Args, error) {
	lookup := p.lookupFunc(r)

	out := make(Args, len(p.args))
	for _, a := range p.args {
		v, ok := lookup(a.Name)
		if !ok || v == nil {
			v = a.Default
		}
		if v == nil {
			if a.Required {
				return nil, httperr.BadRequest(fmt.Sprintf("missing field %q in %s: %s", a.Name, p.source, a.Help))
			}
			continue
		}
		if !a.Kind.matches(v) {
			return nil, httperr.BadRequest(fmt.Sprintf("field %q: wrong type. expected: %s", a.Name, a.Kind))
		}
		out[a.Name] = v
	}
	return out, nil
}

func (p *Parser) lookupFunc(r *http.Request) func(string) (any, bool) {
	switch p.source {
	case SourceHeaders:
		// A header sent with an empty value is present and yields "".
		return func(name string) (any, bool) {
			return r.Header.Get(name), len(r.Header.Values(name)) > 0
		}
	case SourceQuerystring:
		q := r.URL.Query()
		return func(name string) (any, bool) {
			key := strings.ReplaceAll(name, "_", "-")
			if !q.Has(key) {
				return nil, false
			}
			return q.Get(key), true
		}
	}

	body := decodeBody(r)
	return func(name string) (any, bool) {
		v, ok := body[name]
		return v, ok
	}
}

// decodeBody reads the body as a JSON object and restores it so later
// readers (another parser, Bind) see the same bytes.
func decodeBody(r *http.Request) map[string]any {
	if r.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return nil
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}
