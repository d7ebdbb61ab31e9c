package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/threadline-co/storefront-backend/pkg/db/models"
)

type stubInventoryService struct {
	restockFn  func(ctx context.Context, sku string, qty int) (models.InventoryItem, error)
	lowStockFn func(ctx context.Context, threshold int) ([]models.InventoryItem, error)
}

func (s stubInventoryService) Restock(ctx context.Context, sku string, qty int) (models.InventoryItem, error) {
	if s.restockFn != nil {
		return s.restockFn(ctx, sku, qty)
	}
	return models.InventoryItem{}, nil
}

func (s stubInventoryService) LowStock(ctx context.Context, threshold int) ([]models.InventoryItem, error) {
	if s.lowStockFn != nil {
		return s.lowStockFn(ctx, threshold)
	}
	return nil, nil
}

func TestInventoryLowStockDefaultThreshold(t *testing.T) {
	svc := stubInventoryService{
		lowStockFn: func(ctx context.Context, threshold int) ([]models.InventoryItem, error) {
			if threshold != 5 {
				t.Fatalf("expected default threshold 5, got %d", threshold)
			}
			return []models.InventoryItem{{SKU: "MUG-B", AvailableQty: 2}}, nil
		},
	}

	handler := InventoryLowStock(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Items []models.InventoryItem `json:"items"`
			Count int                    `json:"count"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Count != 1 || envelope.Data.Items[0].SKU != "MUG-B" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestInventoryLowStockRejectsNegativeThreshold(t *testing.T) {
	handler := InventoryLowStock(stubInventoryService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/?threshold=-1", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestInventoryRestock(t *testing.T) {
	svc := stubInventoryService{
		restockFn: func(ctx context.Context, sku string, qty int) (models.InventoryItem, error) {
			if sku != "TEE-M" || qty != 25 {
				t.Fatalf("unexpected restock %s %d", sku, qty)
			}
			return models.InventoryItem{SKU: sku, AvailableQty: 30}, nil
		},
	}

	handler := InventoryRestock(svc, nil)
	req := withSKUParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"qty":25}`)), "TEE-M")
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data models.InventoryItem `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.AvailableQty != 30 {
		t.Fatalf("unexpected qty %d", envelope.Data.AvailableQty)
	}
}

func TestInventoryRestockRejectsNonPositiveQty(t *testing.T) {
	handler := InventoryRestock(stubInventoryService{}, nil)
	req := withSKUParam(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"qty":0}`)), "TEE-M")
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func withSKUParam(req *http.Request, sku string) *http.Request {
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("sku", sku)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
}
