package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	platformgrpc "github.com/louisbranch/userapi/internal/platform/grpc"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		HTTPAddr:     "127.0.0.1:0",
		GRPCAddr:     "127.0.0.1:0",
		DatabaseURL:  filepath.Join(t.TempDir(), "nested", "users.db"),
		JWTSecret:    "test-secret",
		JWTTTL:       time.Hour,
		PasswordCost: bcrypt.MinCost,
	}
}

func TestServeLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := New(ctx, testConfig(t))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if s.GRPCAddr() == "" {
		t.Fatal("expected gRPC health listener")
	}

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	base := "http://" + s.Addr()
	resp, err := http.Get(base + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	var health struct {
		Status string `json:"status"`
	}
	err = json.NewDecoder(resp.Body).Decode(&health)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if resp.StatusCode != http.StatusOK || health.Status != "ok" {
		t.Fatalf("health = %d %q", resp.StatusCode, health.Status)
	}

	body := `{"name":"Ada","email":"ada@example.com","password":"secret123"}`
	resp, err = http.Post(base+"/api/auth/register", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d", resp.StatusCode)
	}

	probeCtx, probeCancel := context.WithTimeout(ctx, 2*time.Second)
	defer probeCancel()
	if err := platformgrpc.Probe(probeCtx, s.GRPCAddr(), HealthService, nil); err != nil {
		t.Fatalf("grpc probe: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeWithoutGRPC(t *testing.T) {
	cfg := testConfig(t)
	cfg.GRPCAddr = ""

	ctx, cancel := context.WithCancel(context.Background())
	s, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if s.GRPCAddr() != "" {
		t.Fatalf("GRPCAddr = %q, want empty", s.GRPCAddr())
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewRequiresSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.JWTSecret = " "
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for missing secret")
	}
}

func TestNewListenFailureClosesStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTPAddr = "127.0.0.1:-1"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected listen error")
	}
}

func TestConnectStoreInvalidDirIsPermanent(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("data"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := connectStore(ctx, filepath.Join(file, "users.db"))
	if !errors.Is(err, errInvalidStoragePath) {
		t.Fatalf("err = %v, want invalid storage path", err)
	}
	if ctx.Err() != nil {
		t.Fatal("expected connectStore to give up before the deadline")
	}
}

func TestOpenStoreDefaultsPath(t *testing.T) {
	t.Chdir(t.TempDir())
	store, err := openStore(context.Background(), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	if _, err := os.Stat(defaultDatabaseURL); err != nil {
		t.Fatalf("stat default db: %v", err)
	}
}
