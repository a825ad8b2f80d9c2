package icons

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predefined-icons" {
			t.Errorf("path = %q, want /predefined-icons", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"icons":[":sun:",":heart:",":ball:"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	codes, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(codes) != 3 {
		t.Fatalf("codes = %v, want 3 entries", codes)
	}
}

func TestClientFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("expected error on 503 response")
	}
}

func TestClientFetch_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Error("expected error on malformed body")
	}
}

func TestClientFetch_CancelledContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL)
	if _, err := c.Fetch(ctx); err == nil {
		t.Error("expected error when the caller context is cancelled")
	}
}
