package parser

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestBindValid(t *testing.T) {
	var in signup
	require.NoError(t, Bind(jsonRequest(`{"name":"ada","email":"ada@example.com"}`), &in))
	assert.Equal(t, signup{Name: "ada", Email: "ada@example.com"}, in)
}

func TestBindValidationFailure(t *testing.T) {
	var in signup
	err := Bind(jsonRequest(`{"name":"ada","email":"nope"}`), &in)
	requireBadRequest(t, err, `field "email": failed "email" rule`)

	err = Bind(jsonRequest(`{}`), &in)
	requireBadRequest(t, err, `field "name": failed "required" rule; field "email": failed "required" rule`)
}

func TestBindMalformed(t *testing.T) {
	var in signup
	err := Bind(jsonRequest(`{`), &in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid json body")

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Body = nil
	requireBadRequest(t, Bind(r, &in), "missing request body")
}
