package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/Abhijit5011/Electromart/api/middleware"
	"github.com/Abhijit5011/Electromart/internal/dashboard"
	product "github.com/Abhijit5011/Electromart/internal/products"
	"github.com/Abhijit5011/Electromart/internal/profiles"
	"github.com/Abhijit5011/Electromart/pkg/db/dbtest"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/logger"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
	"github.com/Abhijit5011/Electromart/pkg/storage"
)

func newProductService(t *testing.T) product.Service {
	t.Helper()
	bucket := storage.New(memblob.OpenBucket(nil), "https://cdn.electromart.test", 1<<20)
	t.Cleanup(func() { _ = bucket.Close() })
	svc, err := product.NewService(product.NewRepository(dbtest.Open(t)), bucket, logger.New(logger.Options{ServiceName: "admin-test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	payload := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
}

func withParam(r *http.Request, key, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestProductCreateAndDelete(t *testing.T) {
	svc := newProductService(t)

	body := `{"name":"LED Bulb","description":"9W","price":"120","discount_price":"99","category":"Lighting",
		"specs":[{"key":"Wattage","value":"9W"}],"images":["bulb.png"],"rating":"4.5","stock_quantity":50,
		"delivery_charge":"30","delivery_days":3}`
	resp := httptest.NewRecorder()
	ProductCreate(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created product.ProductDTO
	decodeData(t, resp, &created)
	assert.Equal(t, "LED Bulb", created.Name)
	assert.Equal(t, []string{"https://cdn.electromart.test/products/bulb.png"}, created.Images)
	assert.Equal(t, "99", created.EffectivePrice.String())

	resp = httptest.NewRecorder()
	ProductDelete(svc, nil).ServeHTTP(resp, withParam(httptest.NewRequest(http.MethodDelete, "/", nil), "productId", created.ID.String()))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = httptest.NewRecorder()
	ProductDelete(svc, nil).ServeHTTP(resp, withParam(httptest.NewRequest(http.MethodDelete, "/", nil), "productId", created.ID.String()))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestProductCreateRequiresImages(t *testing.T) {
	svc := newProductService(t)
	body := `{"name":"LED Bulb","price":"120","category":"Lighting","images":[],"stock_quantity":1}`
	resp := httptest.NewRecorder()
	ProductCreate(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func multipartRequest(t *testing.T, filename, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/products/images", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestProductImageUpload(t *testing.T) {
	svc := newProductService(t)

	resp := httptest.NewRecorder()
	ProductImageUpload(svc, 1<<20, nil).ServeHTTP(resp, multipartRequest(t, "switch.png", "image/png", []byte("\x89PNG fake")))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var result product.UploadResult
	decodeData(t, resp, &result)
	assert.NotEmpty(t, result.Path)
	assert.True(t, strings.HasPrefix(result.URL, "https://cdn.electromart.test/products/"))

	resp = httptest.NewRecorder()
	ProductImageUpload(svc, 1<<20, nil).ServeHTTP(resp, multipartRequest(t, "notes.txt", "text/plain", []byte("hello")))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

type stubProfiles struct {
	toggled []uuid.UUID
}

func (s *stubProfiles) Me(context.Context, uuid.UUID) (*profiles.ProfileDTO, error) { return nil, nil }

func (s *stubProfiles) UpdateMe(context.Context, uuid.UUID, profiles.UpdateInput) (*profiles.ProfileDTO, error) {
	return nil, nil
}

func (s *stubProfiles) AdminList(context.Context, pagination.Params) (profiles.ProfilePage, error) {
	return profiles.ProfilePage{Items: []profiles.ProfileDTO{}}, nil
}

func (s *stubProfiles) ToggleBan(_ context.Context, adminID, userID uuid.UUID) (*profiles.ProfileDTO, error) {
	if adminID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admins cannot be banned")
	}
	s.toggled = append(s.toggled, userID)
	return &profiles.ProfileDTO{ID: userID, IsBanned: true}, nil
}

func (s *stubProfiles) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (s *stubProfiles) Details(_ context.Context, userID uuid.UUID) (profiles.UserDetails, error) {
	return profiles.UserDetails{Profile: profiles.ProfileDTO{ID: userID}}, nil
}

func TestUserToggleBan(t *testing.T) {
	svc := &stubProfiles{}
	adminID := uuid.New()
	target := uuid.New()

	req := withParam(httptest.NewRequest(http.MethodPost, "/", nil), "userId", target.String())
	req = req.WithContext(middleware.WithUserID(req.Context(), adminID.String()))
	resp := httptest.NewRecorder()
	UserToggleBan(svc, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []uuid.UUID{target}, svc.toggled)

	req = withParam(httptest.NewRequest(http.MethodPost, "/", nil), "userId", adminID.String())
	req = req.WithContext(middleware.WithUserID(req.Context(), adminID.String()))
	resp = httptest.NewRecorder()
	UserToggleBan(svc, nil).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

type stubDashboard struct {
	err error
}

func (s stubDashboard) Stats(context.Context) (dashboard.Stats, error) {
	return dashboard.Stats{TotalOrders: 3, PendingOrders: 1}, s.err
}

func TestDashboard(t *testing.T) {
	resp := httptest.NewRecorder()
	Dashboard(stubDashboard{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var stats dashboard.Stats
	decodeData(t, resp, &stats)
	assert.Equal(t, 3, stats.TotalOrders)

	resp = httptest.NewRecorder()
	Dashboard(stubDashboard{err: pkgerrors.New(pkgerrors.CodeDependency, "orders unavailable")}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}
