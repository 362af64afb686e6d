package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	platformgrpc "github.com/louisbranch/userapi/internal/platform/grpc"
	"github.com/louisbranch/userapi/internal/platform/timeouts"
	"github.com/louisbranch/userapi/internal/services/auth/account"
	httpapi "github.com/louisbranch/userapi/internal/services/auth/api/http"
	"github.com/louisbranch/userapi/internal/services/auth/oauth"
	"github.com/louisbranch/userapi/internal/services/auth/password"
	"github.com/louisbranch/userapi/internal/services/auth/storage"
	"github.com/louisbranch/userapi/internal/services/auth/storage/postgres"
	authsqlite "github.com/louisbranch/userapi/internal/services/auth/storage/sqlite"
	"github.com/louisbranch/userapi/internal/services/auth/token"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the gRPC health entry that tracks store reachability.
const HealthService = "userapi.v1.Users"

const (
	defaultDatabaseURL   = "data/users.db"
	oauthCleanupInterval = 5 * time.Minute
	healthPollInterval   = 10 * time.Second
)

// Config holds everything needed to start the process.
type Config struct {
	// HTTPAddr is the REST listen address, for example ":5000".
	HTTPAddr string
	// GRPCAddr enables the gRPC health endpoint when non-empty.
	GRPCAddr string
	// DatabaseURL is a postgres:// URL or a SQLite file path.
	DatabaseURL  string
	JWTSecret    string
	JWTTTL       time.Duration
	PasswordCost int
	API          httpapi.Config
	OAuth        oauth.Config
}

// Server hosts the user API.
type Server struct {
	store        storage.Store
	bridge       *oauth.Bridge
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
}

// New opens the store and binds the listeners. Opening the store retries
// until it succeeds or ctx ends.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	tokens, err := token.NewService(token.Config{Secret: cfg.JWTSecret, TTL: cfg.JWTTTL})
	if err != nil {
		return nil, err
	}

	store, err := connectStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	accounts := account.NewService(store, password.NewHasher(cfg.PasswordCost), tokens)
	var bridge *oauth.Bridge
	var federation httpapi.Federation
	if cfg.OAuth.Enabled() {
		bridge = oauth.NewBridge(cfg.OAuth, store, store, accounts)
		federation = bridge
	} else {
		log.Printf("google sign-in disabled: client credentials not configured")
	}

	httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}

	s := &Server{
		store:        store,
		bridge:       bridge,
		httpListener: httpListener,
		httpServer: &http.Server{
			Handler:           httpapi.NewHandler(cfg.API, accounts, federation, store),
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}

	if strings.TrimSpace(cfg.GRPCAddr) != "" {
		grpcListener, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			_ = httpListener.Close()
			_ = store.Close()
			return nil, fmt.Errorf("listen on grpc addr %s: %w", cfg.GRPCAddr, err)
		}
		s.grpcListener = grpcListener
		s.grpcServer, s.health = platformgrpc.NewHealthServer(HealthService)
	}
	return s, nil
}

// Addr returns the HTTP listener address.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the gRPC health listener address, or "" when disabled.
func (s *Server) GRPCAddr() string {
	if s == nil || s.grpcListener == nil {
		return ""
	}
	return s.grpcListener.Addr().String()
}

// Run creates and serves a server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	s, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve starts the servers and blocks until one stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	serverCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.closeStore()

	if s.bridge != nil {
		go s.bridge.RunCleanup(serverCtx, oauthCleanupInterval)
	}

	log.Printf("HTTP server listening at %v", s.httpListener.Addr())
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	grpcErr := make(chan error, 1)
	if s.grpcServer != nil {
		s.updateHealth(serverCtx)
		go s.watchHealth(serverCtx, healthPollInterval)
		log.Printf("gRPC health listening at %v", s.grpcListener.Addr())
		go func() {
			grpcErr <- s.grpcServer.Serve(s.grpcListener)
		}()
	}

	shutdownHTTP := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown HTTP: %v", err)
		}
	}
	shutdownGRPC := func() {
		if s.grpcServer == nil {
			return
		}
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	}

	select {
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownGRPC()
		shutdownHTTP()
		return handleHTTPErr(<-httpErr)
	case err := <-httpErr:
		shutdownGRPC()
		return handleHTTPErr(err)
	case err := <-grpcErr:
		shutdownHTTP()
		<-httpErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

func handleHTTPErr(err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("serve HTTP: %w", err)
}

func (s *Server) watchHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.updateHealth(ctx)
		}
	}
}

func (s *Server) updateHealth(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, timeouts.StorePing)
	defer cancel()
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := s.store.Ping(pingCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("store ping: %v", err)
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(HealthService, status)
}

// connectStore opens the store, retrying every timeouts.StoreReconnect until
// it succeeds or ctx ends.
func connectStore(ctx context.Context, databaseURL string) (storage.Store, error) {
	attempt := 0
	store, err := backoff.Retry(ctx, func() (storage.Store, error) {
		attempt++
		store, err := openStore(ctx, databaseURL)
		if errors.Is(err, errInvalidStoragePath) {
			return nil, backoff.Permanent(err)
		}
		return store, err
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(timeouts.StoreReconnect)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Printf("open store (attempt %d): %v; retrying in %s", attempt, err, next)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}
	return store, nil
}

var errInvalidStoragePath = errors.New("invalid storage path")

func openStore(ctx context.Context, databaseURL string) (storage.Store, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		databaseURL = defaultDatabaseURL
	}
	if postgres.IsURL(databaseURL) {
		store, err := postgres.Open(ctx, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return store, nil
	}

	if dir := filepath.Dir(databaseURL); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create storage dir: %w", errInvalidStoragePath, err)
		}
	}
	store, err := authsqlite.Open(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	return store, nil
}

func (s *Server) closeStore() {
	if s == nil || s.store == nil {
		return
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}
