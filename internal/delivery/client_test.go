package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mercadoapps/filemonitor/internal/entity"
)

func testProducts() []entity.Product {
	return []entity.Product{
		{
			ID:       1,
			Name:     "ARROZ",
			Price:    decimal.RequireFromString("15.50"),
			Active:   true,
			Unit:     "X",
			Category: entity.Category{ID: 10, Name: "GRAOS"},
		},
	}
}

func TestSendProducts(t *testing.T) {
	t.Run("posts json batch", func(t *testing.T) {
		var gotPath, gotContentType string
		var gotBody []map[string]any

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotContentType = r.Header.Get("Content-Type")
			if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
				t.Errorf("decode request body: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		c := New(srv.URL, "/api/produtos", 2*time.Second, nil)
		if err := c.SendProducts(context.Background(), testProducts()); err != nil {
			t.Fatalf("SendProducts: %v", err)
		}
		if gotPath != "/api/produtos" {
			t.Errorf("path = %q", gotPath)
		}
		if gotContentType != "application/json" {
			t.Errorf("content type = %q", gotContentType)
		}
		if len(gotBody) != 1 || gotBody[0]["nome"] != "ARROZ" {
			t.Errorf("body = %v", gotBody)
		}
	})

	t.Run("non-2xx response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "duplicate product", http.StatusConflict)
		}))
		defer srv.Close()

		c := New(srv.URL, "/api/produtos", 2*time.Second, nil)
		err := c.SendProducts(context.Background(), testProducts())

		var dErr *Error
		if !errors.As(err, &dErr) {
			t.Fatalf("err = %v, want *Error", err)
		}
		if dErr.Status != http.StatusConflict {
			t.Errorf("Status = %d, want 409", dErr.Status)
		}
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		c := New("http://127.0.0.1:1", "/api/produtos", 500*time.Millisecond, nil)
		err := c.SendProducts(context.Background(), testProducts())

		var dErr *Error
		if !errors.As(err, &dErr) {
			t.Fatalf("err = %v, want *Error", err)
		}
		if dErr.Cause == nil {
			t.Error("Cause not set for transport failure")
		}
	})
}
