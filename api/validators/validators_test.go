package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
)

type sample struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","email":"a@b.co","extra":1}`))
	var dest sample
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","email":"nope"}`))
	var dest sample
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a valid email", details["email"])
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("productId", id.String())
	rc.URLParams.Add("bad", "not-a-uuid")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "productId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ParseUUIDParam(req, "missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParsePageParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?cursor=abc", nil)
	params, err := ParsePageParams(req)
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)
	assert.Equal(t, "abc", params.Cursor)

	req = httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	_, err = ParsePageParams(req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
