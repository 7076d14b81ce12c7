package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Abhijit5011/Electromart/api/middleware"
	internalorders "github.com/Abhijit5011/Electromart/internal/orders"
	"github.com/Abhijit5011/Electromart/pkg/enums"
	pkgerrors "github.com/Abhijit5011/Electromart/pkg/errors"
	"github.com/Abhijit5011/Electromart/pkg/pagination"
)

type stubOrdersService struct {
	orders     map[uuid.UUID]internalorders.OrderDTO
	lastStatus enums.OrderStatus
}

func (s *stubOrdersService) ListMyOrders(_ context.Context, userID uuid.UUID) ([]internalorders.OrderDTO, error) {
	out := []internalorders.OrderDTO{}
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *stubOrdersService) GetOrder(_ context.Context, userID, orderID uuid.UUID) (internalorders.OrderDTO, error) {
	o, ok := s.orders[orderID]
	if !ok || o.UserID != userID {
		return internalorders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return o, nil
}

func (s *stubOrdersService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (internalorders.OrderDTO, error) {
	o, err := s.GetOrder(ctx, userID, orderID)
	if err != nil {
		return o, err
	}
	if o.Status != enums.OrderStatusPlaced {
		return o, pkgerrors.New(pkgerrors.CodeStateConflict, "only placed orders can be cancelled")
	}
	o.Status = enums.OrderStatusCancelled
	s.orders[orderID] = o
	return o, nil
}

func (s *stubOrdersService) ListAllOrders(context.Context, pagination.Params) (internalorders.AdminOrderPage, error) {
	return internalorders.AdminOrderPage{Items: []internalorders.AdminOrderDTO{}}, nil
}

func (s *stubOrdersService) UpdateStatus(_ context.Context, _, orderID uuid.UUID, to enums.OrderStatus) (internalorders.OrderDTO, error) {
	s.lastStatus = to
	o := s.orders[orderID]
	o.Status = to
	return o, nil
}

func request(method string, userID uuid.UUID, orderID uuid.UUID, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", orderID.String())
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	ctx = middleware.WithUserID(ctx, userID.String())
	return req.WithContext(ctx)
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return payload.Error.Code
}

func TestCancelOrderOnlyFromPlaced(t *testing.T) {
	owner := uuid.New()
	placed := internalorders.OrderDTO{ID: uuid.New(), UserID: owner, Status: enums.OrderStatusPlaced}
	shipped := internalorders.OrderDTO{ID: uuid.New(), UserID: owner, Status: enums.OrderStatusShipped}
	svc := &stubOrdersService{orders: map[uuid.UUID]internalorders.OrderDTO{placed.ID: placed, shipped.ID: shipped}}

	resp := httptest.NewRecorder()
	CancelOrder(svc, nil).ServeHTTP(resp, request(http.MethodPost, owner, placed.ID, ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	CancelOrder(svc, nil).ServeHTTP(resp, request(http.MethodPost, owner, shipped.ID, ""))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %s", code)
	}
}

func TestDetailHidesOtherUsersOrders(t *testing.T) {
	order := internalorders.OrderDTO{ID: uuid.New(), UserID: uuid.New(), Status: enums.OrderStatusPlaced}
	svc := &stubOrdersService{orders: map[uuid.UUID]internalorders.OrderDTO{order.ID: order}}

	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, request(http.MethodGet, uuid.New(), order.ID, ""))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminUpdateStatusParsesStatus(t *testing.T) {
	order := internalorders.OrderDTO{ID: uuid.New(), UserID: uuid.New(), Status: enums.OrderStatusPlaced}
	svc := &stubOrdersService{orders: map[uuid.UUID]internalorders.OrderDTO{order.ID: order}}

	resp := httptest.NewRecorder()
	AdminUpdateStatus(svc, nil).ServeHTTP(resp, request(http.MethodPatch, uuid.New(), order.ID, `{"status":"shipping"}`))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	AdminUpdateStatus(svc, nil).ServeHTTP(resp, request(http.MethodPatch, uuid.New(), order.ID, `{"status":"Delivered"}`))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastStatus != enums.OrderStatusDelivered {
		t.Fatalf("expected Delivered got %s", svc.lastStatus)
	}
}

func TestListRendersEmptyArray(t *testing.T) {
	svc := &stubOrdersService{orders: map[uuid.UUID]internalorders.OrderDTO{}}
	resp := httptest.NewRecorder()
	List(svc, nil).ServeHTTP(resp, request(http.MethodGet, uuid.New(), uuid.New(), ""))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty array, got %s", resp.Body.String())
	}
}
