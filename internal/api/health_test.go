//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ashureev/pricewatch/internal/domain"
)

type stubWatchlist struct {
	count   int64
	pingErr error
}

func (s *stubWatchlist) ListAll(context.Context) ([]domain.TrackedItem, error)          { return nil, nil }
func (s *stubWatchlist) ListByOwner(context.Context, string) ([]domain.TrackedItem, error) {
	return nil, nil
}
func (s *stubWatchlist) Insert(context.Context, string, string, string, decimal.Decimal, string) (int64, error) {
	return 0, nil
}
func (s *stubWatchlist) UpdatePrice(context.Context, int64, decimal.Decimal, string) (string, error) {
	return "", nil
}
func (s *stubWatchlist) DeleteByID(context.Context, string, int64) (int64, error)  { return 0, nil }
func (s *stubWatchlist) DeleteByOwner(context.Context, string) (int64, error)      { return 0, nil }
func (s *stubWatchlist) Count(context.Context) (int64, error)                      { return s.count, nil }
func (s *stubWatchlist) Ping(context.Context) error                                { return s.pingErr }
func (s *stubWatchlist) Close() error                                              { return nil }

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	NewHealthHandler(&stubWatchlist{}).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}

func TestStatusReportsItemCount(t *testing.T) {
	r := chi.NewRouter()
	NewHealthHandler(&stubWatchlist{count: 7}).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var got map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["tracked_items"] != float64(7) {
		t.Errorf("Expected tracked_items=7, got %v", got["tracked_items"])
	}
}

func TestStatusDegradedWhenStoreUnreachable(t *testing.T) {
	r := chi.NewRouter()
	NewHealthHandler(&stubWatchlist{pingErr: errors.New("connection refused")}).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
