package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/cardforge/cardforge/config"
	"github.com/cardforge/cardforge/pkg/logger"
)

func TestNewHTTPServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "localhost"
	cfg.Server.Port = 8080
	cfg.Server.HTTP = config.HTTPConfig{
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	server := NewHTTPServer(cfg, logger.NewNop(), createTestHandlers(nil))

	if server == nil {
		t.Fatal("NewHTTPServer returned nil")
	}
	if server.router == nil || server.Handler() == nil {
		t.Error("Router not initialized")
	}
	if server.Addr() != "localhost:8080" {
		t.Errorf("Addr() = %q, want localhost:8080", server.Addr())
	}
	if server.server.ReadTimeout != 30*time.Second {
		t.Errorf("ReadTimeout = %v, want 30s", server.server.ReadTimeout)
	}
	if server.server.MaxHeaderBytes != 1<<16 {
		t.Errorf("MaxHeaderBytes = %v", server.server.MaxHeaderBytes)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestHTTPServer_StartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)

	server := NewHTTPServer(cfg, logger.NewNop(), createTestHandlers(nil))

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
	var resp *http.Response
	var err error
	for i := 0; i < 50; i++ {
		if resp, err = http.Get(url); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("Failed to connect to server: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Health check status = %v, want %v", resp.StatusCode, http.StatusOK)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Start() did not return after shutdown")
	}
}
