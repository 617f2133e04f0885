package registration_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kaelvex/frontier/internal/metadata"
	"github.com/kaelvex/frontier/internal/registration"
)

func TestRegister_SuccessReturnsEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["user_agent"] != "frontier-test/1.0" {
			t.Errorf("unexpected user agent in request: %v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"host":   "cache.internal",
			"port":   9000,
		})
	}))
	defer srv.Close()

	c := registration.New(srv.URL, metadata.NoopSink{})
	ep, err := c.Register(context.Background(), "frontier-test/1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.Host != "cache.internal" || ep.Port != 9000 {
		t.Errorf("unexpected endpoint: %+v", ep)
	}
}

func TestRegister_RejectedStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "invalid"})
	}))
	defer srv.Close()

	c := registration.New(srv.URL, metadata.NoopSink{})
	_, err := c.Register(context.Background(), "frontier-test/1.0")
	if err == nil {
		t.Fatal("expected an error for a rejected registration")
	}
}

func TestRegister_MalformedReplyIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := registration.New(srv.URL, metadata.NoopSink{})
	_, err := c.Register(context.Background(), "frontier-test/1.0")
	if err == nil {
		t.Fatal("expected an error for a malformed reply")
	}
}

func TestRegister_NetworkFailureRetriesThenFails(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Fatal("expected hijackable ResponseWriter")
		}
		conn, _, _ := hj.Hijack()
		conn.Close() // simulate a connection reset, a retryable network failure
	}))
	defer srv.Close()

	c := registration.New(srv.URL, metadata.NoopSink{})
	_, err := c.Register(context.Background(), "frontier-test/1.0")
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if attempts < 2 {
		t.Errorf("expected more than one attempt for a retryable network failure, got %d", attempts)
	}
}
