package app

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sha1n/relic-results/internal/config"
)

func newTestServer() *mcp.Server {
	return mcp.NewServer(&mcp.Implementation{Name: "test", Version: "1.0"}, nil)
}

func newSSEServer(t *testing.T, settings *config.Settings) *http.Server {
	t.Helper()
	srv, err := NewSSEServer(newTestServer(), settings)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return srv
}

var basicAuth = config.AuthSettings{
	Type:  config.AuthTypeBasic,
	Basic: config.BasicAuthSettings{Username: "admin", Password: "secret"},
}

func TestNewSSEServer(t *testing.T) {
	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{Type: config.AuthTypeNone},
	}

	srv := newSSEServer(t, settings)
	if srv == nil {
		t.Fatal("Expected server to be created")
	}
	if srv.Addr != "localhost:8080" {
		t.Errorf("Expected addr 'localhost:8080', got '%s'", srv.Addr)
	}
}

func TestNewSSEServer_AuthTypes(t *testing.T) {
	tests := []config.AuthSettings{
		{Type: config.AuthTypeNone},
		basicAuth,
		{Type: config.AuthTypeAPIKey, APIKeys: []string{"key1"}},
	}

	for _, auth := range tests {
		t.Run(auth.Type, func(t *testing.T) {
			srv := newSSEServer(t, &config.Settings{Host: "localhost", Port: 9090, Auth: auth})
			if srv.Handler == nil {
				t.Fatal("Expected handler to be set")
			}
		})
	}
}

func TestNewSSEServer_InvalidAuth(t *testing.T) {
	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{Type: config.AuthTypeBasic},
	}

	_, err := NewSSEServer(newTestServer(), settings)
	if err == nil {
		t.Error("Expected error for invalid auth settings")
	}
}

func TestNewSSEServer_HealthEndpoint(t *testing.T) {
	srv := newSSEServer(t, &config.Settings{Host: "localhost", Port: 8080})

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("Expected body 'ok', got '%s'", rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		t.Errorf("Expected Content-Type 'text/plain; charset=utf-8', got '%s'", rec.Header().Get("Content-Type"))
	}
}

func TestNewSSEServer_HealthEndpointBypassesAuth(t *testing.T) {
	srv := newSSEServer(t, &config.Settings{Host: "localhost", Port: 8080, Auth: basicAuth})

	// Test health endpoint without auth - should still work
	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /health without auth, got %d", rec.Code)
	}
}

func TestNewSSEServer_SSEEndpointRequiresAuth(t *testing.T) {
	srv := newSSEServer(t, &config.Settings{Host: "localhost", Port: 8080, Auth: basicAuth})

	// Test SSE endpoint without auth - should fail
	req := httptest.NewRequest("GET", "/sse", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for /sse without auth, got %d", rec.Code)
	}
}

func TestNewSSEServer_MetricsEndpointRequiresAPIKey(t *testing.T) {
	settings := &config.Settings{
		Host: "localhost",
		Port: 8080,
		Auth: config.AuthSettings{Type: config.AuthTypeAPIKey, APIKeys: []string{"key1"}},
	}
	srv := newSSEServer(t, settings)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for /metrics without key, got %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/metrics", nil)
	req.Header.Set("X-API-Key", "key1")
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /metrics with key, got %d", rec.Code)
	}
}

func TestNewSSEServer_MetricsEndpoint(t *testing.T) {
	srv := newSSEServer(t, &config.Settings{Host: "localhost", Port: 8080})

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("Expected Go runtime metrics in /metrics output")
	}
}

func TestStartSSEServer_InvalidAuth(t *testing.T) {
	settings := &config.Settings{
		Host: "127.0.0.1",
		Port: 0,
		Auth: config.AuthSettings{Type: config.AuthTypeAPIKey},
	}
	if err := StartSSEServer(context.Background(), newTestServer(), settings); err == nil {
		t.Error("Expected error for invalid auth settings")
	}
}

func TestStartSSEServer_StopsWithContext(t *testing.T) {
	// Reserve a free port
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	_ = l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- StartSSEServer(ctx, newTestServer(), &config.Settings{Host: "127.0.0.1", Port: port})
	}()

	// Wait for the server to come up
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", l.Addr().String(), 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Expected clean shutdown, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Server did not stop after context cancellation")
	}
}
