package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ashureev/pricewatch/internal/domain"
)

func TestPageReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("Expected User-Agent header")
		}
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	body, err := f.Page(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Page failed: %v", err)
	}
	if body != "<html><body>ok</body></html>" {
		t.Errorf("Unexpected body: %q", body)
	}
}

func TestPageNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	_, err := f.Page(context.Background(), srv.URL)
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("Expected ErrFetch, got %v", err)
	}
}

func TestPageUnreachableHost(t *testing.T) {
	f := New(time.Second)
	_, err := f.Page(context.Background(), "http://127.0.0.1:1/nothing")
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("Expected ErrFetch, got %v", err)
	}
}

func TestPageHonorsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := New(10 * time.Second)
	if _, err := f.Page(ctx, srv.URL); !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("Expected ErrFetch on canceled context, got %v", err)
	}
}
