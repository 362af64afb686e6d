// Package auth parses user API command flags and launches the server.
package auth

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	entrypoint "github.com/louisbranch/userapi/internal/platform/cmd"
	"github.com/louisbranch/userapi/internal/platform/config"
	platformgrpc "github.com/louisbranch/userapi/internal/platform/grpc"
	"github.com/louisbranch/userapi/internal/platform/otel"
	"github.com/louisbranch/userapi/internal/platform/timeouts"
	httpapi "github.com/louisbranch/userapi/internal/services/auth/api/http"
	server "github.com/louisbranch/userapi/internal/services/auth/app"
	"github.com/louisbranch/userapi/internal/services/auth/oauth"
)

const healthcheckTimeout = 5 * time.Second

// Config holds the command configuration.
type Config struct {
	Port         int             `env:"PORT" envDefault:"5000"`
	GRPCPort     int             `env:"GRPC_PORT" envDefault:"0"`
	DatabaseURL  string          `env:"DATABASE_URL" envDefault:"data/users.db"`
	JWTSecret    string          `env:"JWT_SECRET"`
	JWTExpire    config.Duration `env:"JWT_EXPIRE" envDefault:"7d"`
	BcryptCost   int             `env:"BCRYPT_COST" envDefault:"10"`
	FrontendURLs []string        `env:"FRONTEND_URL" envDefault:"http://localhost:3000" envSeparator:","`
	RateLimitMax int             `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateWindow   time.Duration   `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	NodeEnv      string          `env:"NODE_ENV"`
	AppEnv       string          `env:"APP_ENV"`
	AccessLog    bool            `env:"ACCESS_LOG" envDefault:"true"`
	Version      string          `env:"APP_VERSION" envDefault:"1.0.0"`
	Telemetry    otel.Config

	// TrustedProxies lists proxy addresses or CIDRs allowed to set the
	// client address through forwarding headers.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	OAuth   oauth.Config
	proxies []netip.Prefix

	// Healthcheck probes a running instance instead of starting one.
	Healthcheck bool
}

// Production reports whether the process runs with production settings.
func (c Config) Production() bool {
	for _, value := range []string{c.AppEnv, c.NodeEnv} {
		if strings.EqualFold(strings.TrimSpace(value), "production") {
			return true
		}
	}
	return false
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	oauthCfg, err := oauth.LoadConfigFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.OAuth = oauthCfg
	if cfg.proxies, err = httpapi.ParseTrustedProxies(cfg.TrustedProxies); err != nil {
		return Config{}, err
	}

	fs.IntVar(&cfg.Port, "port", cfg.Port, "The HTTP server port")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", cfg.GRPCPort, "The gRPC health server port (0 disables it)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "A postgres:// URL or SQLite file path")
	fs.BoolVar(&cfg.Healthcheck, "healthcheck", false, "Probe the local instance and exit")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServerConfig maps the command configuration onto the server runtime.
func (c Config) ServerConfig() server.Config {
	cfg := server.Config{
		HTTPAddr:     fmt.Sprintf(":%d", c.Port),
		DatabaseURL:  c.DatabaseURL,
		JWTSecret:    c.JWTSecret,
		JWTTTL:       c.JWTExpire.Std(),
		PasswordCost: c.BcryptCost,
		API: httpapi.Config{
			AllowedOrigins: c.FrontendURLs,
			RateLimit:      c.RateLimitMax,
			RateWindow:     c.RateWindow,
			TrustedProxies: c.proxies,
			Production:     c.Production(),
			AccessLog:      c.AccessLog,
			Version:        c.Version,
		},
		OAuth: c.OAuth,
	}
	if c.GRPCPort > 0 {
		cfg.GRPCAddr = fmt.Sprintf(":%d", c.GRPCPort)
	}
	return cfg
}

// Run starts the server, or probes a running one when Healthcheck is set.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Healthcheck {
		return Healthcheck(ctx, cfg)
	}
	options := entrypoint.RunOptions{Telemetry: cfg.Telemetry, ShutdownTimeout: timeouts.Shutdown}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceAuth, options, func(ctx context.Context) error {
		return server.Run(ctx, cfg.ServerConfig())
	})
}

// Healthcheck checks the local HTTP health route and, when enabled, the gRPC
// health service.
func Healthcheck(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithTimeout(ctx, healthcheckTimeout)
	defer cancel()

	url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("http health: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http health: status %d", resp.StatusCode)
	}

	if cfg.GRPCPort > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.GRPCPort)
		if err := platformgrpc.Probe(ctx, addr, server.HealthService, nil); err != nil {
			return fmt.Errorf("grpc health: %w", err)
		}
	}
	return nil
}
