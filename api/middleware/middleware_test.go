package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/sweettreats-backend/pkg/logger"
)

func TestCartScopeResolvesHeaders(t *testing.T) {
	var gotScope, gotUser string
	handler := CartScope(logger.Nop(), "default")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotScope = CartScopeFromContext(r.Context())
		gotUser = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotScope != "default" || gotUser != "" {
		t.Fatalf("unexpected scope=%q user=%q", gotScope, gotUser)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(CartScopeHeader, "tab-42")
	req.Header.Set(UserIDHeader, "ana@example.com")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if gotScope != "tab-42" || gotUser != "ana@example.com" {
		t.Fatalf("unexpected scope=%q user=%q", gotScope, gotUser)
	}
}

func TestCartScopeRejectsInvalidValues(t *testing.T) {
	handler := CartScope(nil, "default")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))

	for header, value := range map[string]string{
		CartScopeHeader: "tab one",
		UserIDHeader:    strings.Repeat("u", maxHeaderValueLen+1),
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set(header, value)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s=%q: expected 400 got %d", header, value, resp.Code)
		}
	}
}

func TestRequireUser(t *testing.T) {
	called := false
	handler := RequireUser(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if resp.Code != http.StatusBadRequest || called {
		t.Fatalf("expected rejection, got %d called=%v", resp.Code, called)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !called {
		t.Fatalf("expected handler to run for identified user")
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	handler := RequestID(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get(RequestIDHeader); got != "req-1" {
		t.Fatalf("expected echoed request id, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\r\nX-Injected: 1")
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if got := resp.Header().Get(RequestIDHeader); got == "" || strings.Contains(got, " ") {
		t.Fatalf("expected malformed request id to be replaced, got %q", got)
	}
}

func TestRequestIDReachesErrorBody(t *testing.T) {
	handler := RequestID(nil)(CartScope(nil, "default")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	req.Header.Set(CartScopeHeader, "tab one")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var body struct {
		Error struct {
			RequestID string `json:"requestId"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.RequestID != "req-7" {
		t.Fatalf("expected request id in error body, got %q", body.Error.RequestID)
	}
}

func TestRecovererWritesInternalError(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	handler := Recoverer(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("sugar rush")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req = req.WithContext(WithCartScope(req.Context(), "tab-9"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	out := buf.String()
	for _, want := range []string{"cart.request.panic", "sugar rush", `"cart_scope":"tab-9"`, `"path":"/api/v1/cart/items"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in log, got %s", want, out)
		}
	}
}

func TestRecovererRepanicsAbortHandler(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestLoggingRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &buf})
	handler := Logging(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected start and complete lines, got %d", len(lines))
	}
	var complete map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &complete); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if complete["message"] != "request.complete" || complete["status"] != float64(http.StatusTeapot) {
		t.Fatalf("unexpected log line %v", complete)
	}
}
