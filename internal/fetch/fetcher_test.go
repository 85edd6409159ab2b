package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPFetcherReturnsBody(t *testing.T) {
	var hits atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		_, _ = w.Write([]byte("hello origin"))
	}))
	defer upstream.Close()

	body, err := NewHTTPFetcher(upstream.Client()).Fetch(context.Background(), upstream.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if body != "hello origin" {
		t.Fatalf("unexpected body %q", body)
	}
	if hits.Load() != 1 {
		t.Fatalf("expected exactly one upstream request, got %d", hits.Load())
	}
}

func TestHTTPFetcherKeepsNon2xxBodies(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	}))
	defer upstream.Close()

	body, err := NewHTTPFetcher(nil).Fetch(context.Background(), upstream.URL)
	if err != nil {
		t.Fatalf("non-2xx should still be a successful fetch: %v", err)
	}
	if body != "missing" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestHTTPFetcherNetworkError(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	_, err := NewHTTPFetcher(nil).Fetch(context.Background(), addr)
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork, got %v", err)
	}
}

func TestHTTPFetcherInvalidURL(t *testing.T) {
	_, err := NewHTTPFetcher(nil).Fetch(context.Background(), "://bad")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("expected ErrNetwork for malformed url, got %v", err)
	}
}

func TestHTTPFetcherRejectsBinaryBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe, 0x00})
	}))
	defer upstream.Close()

	_, err := NewHTTPFetcher(nil).Fetch(context.Background(), upstream.URL)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
}

func TestHTTPFetcherIgnoresCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("late"))
	}))
	defer upstream.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		cancel()
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	body, err := NewHTTPFetcher(nil).Fetch(ctx, upstream.URL)
	if err != nil {
		t.Fatalf("cancelled caller should not abort fetch: %v", err)
	}
	if body != "late" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestNewClientTimeout(t *testing.T) {
	if c := NewClient(0); c.Timeout != 0 {
		t.Fatalf("expected no overall timeout, got %s", c.Timeout)
	}
	if c := NewClient(45 * time.Second); c.Timeout != 45*time.Second {
		t.Fatalf("expected timeout 45s, got %s", c.Timeout)
	}
}
