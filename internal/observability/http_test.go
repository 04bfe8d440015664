package observability

import (
	"net/http/httptest"
	"testing"
)

func TestIPFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.RemoteAddr = "192.0.2.10:52311"
	if got := IPFromRequest(r); got != "192.0.2.10" {
		t.Fatalf("expected peer address, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	if got := IPFromRequest(r); got != "203.0.113.7" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	r.RemoteAddr = "bad-addr"
	if got := IPFromRequest(r); got != "bad-addr" {
		t.Fatalf("expected raw remote addr fallback, got %q", got)
	}
}

func TestHeaderHelpers(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("X-Device-Id", "dev-1")
	r.Header.Set("X-Request-Id", "req-1")

	if got := DeviceIDFromRequest(r); got != "dev-1" {
		t.Fatalf("device id = %q", got)
	}
	if got := RequestIDFromRequest(r); got != "req-1" {
		t.Fatalf("request id = %q", got)
	}
}
