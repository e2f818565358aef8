package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/sweettreats-backend/api/middleware"
	cartsvc "github.com/angelmondragon/sweettreats-backend/internal/cart"
	internalorders "github.com/angelmondragon/sweettreats-backend/internal/orders"
)

type stubOrdersService struct {
	orders   []cartsvc.Order
	err      error
	lastUser string
}

func (s *stubOrdersService) PlaceOrder(ctx context.Context, store internalorders.Checkouter, userID string, opts cartsvc.CheckoutOptions) (*cartsvc.Order, error) {
	return nil, errors.New("not implemented")
}

func (s *stubOrdersService) History(ctx context.Context, userID string) ([]cartsvc.Order, error) {
	s.lastUser = userID
	return s.orders, s.err
}

func order(id string, total int64) cartsvc.Order {
	return cartsvc.Order{
		ID:        id,
		UserID:    "user-1",
		Items:     []cartsvc.LineItem{},
		Subtotal:  decimal.NewFromInt(total),
		Total:     decimal.NewFromInt(total),
		Status:    cartsvc.OrderStatusPending,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

type listEnvelope struct {
	Data struct {
		Orders []struct {
			ID    string      `json:"id"`
			Total json.Number `json:"total"`
		} `json:"orders"`
		Total      int    `json:"total"`
		NextCursor string `json:"nextCursor"`
	} `json:"data"`
}

func TestListNewestFirst(t *testing.T) {
	svc := &stubOrdersService{orders: []cartsvc.Order{order("o-1", 100), order("o-2", 250), order("o-3", 75)}}
	handler := List(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=2", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if svc.lastUser != "user-1" {
		t.Fatalf("unexpected user %q", svc.lastUser)
	}
	if envelope.Data.Total != 3 {
		t.Fatalf("expected total 3 got %d", envelope.Data.Total)
	}
	if len(envelope.Data.Orders) != 2 {
		t.Fatalf("expected 2 orders got %d", len(envelope.Data.Orders))
	}
	if envelope.Data.Orders[0].ID != "o-3" || envelope.Data.Orders[1].ID != "o-2" {
		t.Fatalf("unexpected order ids: %+v", envelope.Data.Orders)
	}
	if envelope.Data.Orders[1].Total != "250.00" {
		t.Fatalf("unexpected total %s", envelope.Data.Orders[1].Total)
	}
	if envelope.Data.NextCursor == "" {
		t.Fatalf("expected next cursor")
	}

	next := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=2&cursor="+envelope.Data.NextCursor, nil)
	next = next.WithContext(middleware.WithUserID(next.Context(), "user-1"))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, next)

	var page listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(page.Data.Orders) != 1 || page.Data.Orders[0].ID != "o-1" {
		t.Fatalf("unexpected second page: %+v", page.Data.Orders)
	}
	if page.Data.NextCursor != "" {
		t.Fatalf("expected last page")
	}
}

func TestListRejectsBadCursor(t *testing.T) {
	handler := List(&stubOrdersService{orders: []cartsvc.Order{order("o-1", 100)}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?cursor=%25%25", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListRequiresUser(t *testing.T) {
	handler := List(&stubOrdersService{}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListRejectsBadLimit(t *testing.T) {
	handler := List(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?limit=500", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListPropagatesServiceErrors(t *testing.T) {
	handler := List(&stubOrdersService{err: errors.New("redis down")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), "user-1"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
