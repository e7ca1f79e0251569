package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/illBeRoy/andromeda/httperr"
)

var validate = newValidator()

// newValidator reports fields by their json name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Bind decodes the JSON body into dst and validates it with `validate`
// struct tags.  Any failure is a 400 *httperr.Error.
//
//	var in struct {
//		Name  string `json:"name"  validate:"required"`
//		Email string `json:"email" validate:"required,email"`
//	}
//	if err := parser.Bind(e.Request, &in); err != nil {
//		return nil, err
//	}
func Bind(r *http.Request, dst any) error {
	if r.Body == nil {
		return httperr.BadRequest("missing request body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return httperr.BadRequest(fmt.Sprintf("invalid json body: %v", err))
	}
	if err := validate.Struct(dst); err != nil {
		return httperr.BadRequest(describe(err))
	}
	return nil
}

// describe flattens validator errors into one message, e.g.
// `field "email": failed "email" rule`.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("field %q: failed %q rule", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
