package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalorders "github.com/threadline-co/storefront-backend/internal/orders"
	"github.com/threadline-co/storefront-backend/pkg/db/models"
	"github.com/threadline-co/storefront-backend/pkg/enums"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
)

type stubOrderService struct {
	listFn   func(ctx context.Context, statusFilter string, limit, offset int) ([]models.Order, error)
	getFn    func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	updateFn func(ctx context.Context, id uuid.UUID, update internalorders.StatusUpdate) (*models.Order, error)
}

func (s stubOrderService) List(ctx context.Context, statusFilter string, limit, offset int) ([]models.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, statusFilter, limit, offset)
	}
	return nil, nil
}

func (s stubOrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return nil, nil
}

func (s stubOrderService) UpdateStatuses(ctx context.Context, id uuid.UUID, update internalorders.StatusUpdate) (*models.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, id, update)
	}
	return nil, nil
}

func TestAdminListOrdersPassesFilters(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		listFn: func(ctx context.Context, statusFilter string, limit, offset int) ([]models.Order, error) {
			if statusFilter != "needs_review" {
				t.Fatalf("unexpected status filter %q", statusFilter)
			}
			if limit != 10 || offset != 20 {
				t.Fatalf("unexpected paging limit=%d offset=%d", limit, offset)
			}
			return []models.Order{{ID: orderID, OrderStatus: enums.OrderStatusNeedsReview}}, nil
		},
	}

	handler := AdminListOrders(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/?status=needs_review&limit=10&offset=20", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Orders []models.Order `json:"orders"`
			Count  int            `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 1 || envelope.Data.Orders[0].ID != orderID {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAdminListOrdersRejectsBadLimit(t *testing.T) {
	handler := AdminListOrders(stubOrderService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/?limit=abc", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderDetail(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			if id != orderID {
				t.Fatalf("unexpected id %s", id)
			}
			return &models.Order{ID: orderID, SessionID: "cs_123"}, nil
		},
	}

	handler := AdminOrderDetail(svc, nil)
	req := withOrderParam(httptest.NewRequest(http.MethodGet, "/", nil), orderID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.SessionID != "cs_123" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAdminOrderDetail_InvalidID(t *testing.T) {
	handler := AdminOrderDetail(stubOrderService{}, nil)
	req := withOrderParam(httptest.NewRequest(http.MethodGet, "/", nil), "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminOrderDetail_NotFound(t *testing.T) {
	svc := stubOrderService{
		getFn: func(ctx context.Context, id uuid.UUID) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	handler := AdminOrderDetail(svc, nil)
	req := withOrderParam(httptest.NewRequest(http.MethodGet, "/", nil), uuid.NewString())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		updateFn: func(ctx context.Context, id uuid.UUID, update internalorders.StatusUpdate) (*models.Order, error) {
			if update.OrderStatus == nil || *update.OrderStatus != "shipped" {
				t.Fatalf("unexpected update %+v", update)
			}
			if update.PaymentStatus != nil {
				t.Fatalf("payment status should be untouched, got %v", *update.PaymentStatus)
			}
			return &models.Order{ID: orderID, OrderStatus: enums.OrderStatusShipped}, nil
		},
	}

	handler := AdminUpdateOrderStatus(svc, nil)
	body := strings.NewReader(`{"orderStatus":"shipped"}`)
	req := withOrderParam(httptest.NewRequest(http.MethodPatch, "/", body), orderID.String())
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data models.Order `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderStatus != enums.OrderStatusShipped {
		t.Fatalf("unexpected status %s", envelope.Data.OrderStatus)
	}
}

func TestAdminUpdateOrderStatus_UnknownField(t *testing.T) {
	handler := AdminUpdateOrderStatus(stubOrderService{}, nil)
	body := strings.NewReader(`{"orderStatus":"shipped","bogus":true}`)
	req := withOrderParam(httptest.NewRequest(http.MethodPatch, "/", body), uuid.NewString())
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func withOrderParam(req *http.Request, orderID string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("orderId", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}
