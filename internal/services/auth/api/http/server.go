package httpapi

import (
	"context"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	apperrors "github.com/louisbranch/userapi/internal/platform/errors"
	"github.com/louisbranch/userapi/internal/platform/errors/i18n"
	"github.com/louisbranch/userapi/internal/platform/timeouts"
	"github.com/louisbranch/userapi/internal/services/auth/account"
	"github.com/louisbranch/userapi/internal/services/auth/storage"
	"github.com/louisbranch/userapi/internal/services/auth/user"
	"github.com/unrolled/secure"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultRateLimit  = 100
	defaultRateWindow = time.Minute
	defaultVersion    = "1.0.0"
)

// Accounts is the account service surface the API calls.
type Accounts interface {
	Register(ctx context.Context, input account.RegisterInput) (account.Session, error)
	Login(ctx context.Context, email, password string) (account.Session, error)
	Authenticate(ctx context.Context, rawToken string) (user.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
	ListUsers(ctx context.Context, search string) ([]user.User, error)
	GetUser(ctx context.Context, userID string) (user.User, error)
	UpdateUser(ctx context.Context, userID string, input user.UpdateInput) (user.User, error)
	DeleteUser(ctx context.Context, userID string) error
}

// Federation runs third-party sign-in.
type Federation interface {
	Enabled() bool
	Start(ctx context.Context) (string, error)
	Complete(ctx context.Context, code, state string) (account.Session, error)
}

// Config controls the HTTP surface.
type Config struct {
	// AllowedOrigins lists the browser origins allowed by CORS.
	AllowedOrigins []string
	// TrustedProxies lists the peers whose forwarding headers name the client.
	// Requests from any other peer are keyed on their socket address.
	TrustedProxies []netip.Prefix
	// RateLimit is the number of requests one client IP may make per RateWindow.
	RateLimit  int
	RateWindow time.Duration
	// Production enables HSTS and other production-only headers.
	Production bool
	// AccessLog enables per-request logging.
	AccessLog bool
	Version   string
}

// Handler serves the REST API.
type Handler struct {
	config     Config
	accounts   Accounts
	federation Federation
	store      storage.Pinger
	root       http.Handler
}

// NewHandler builds the API router. federation may be nil when third-party
// sign-in is not configured.
func NewHandler(cfg Config, accounts Accounts, federation Federation, store storage.Pinger) *Handler {
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = defaultRateWindow
	}
	if strings.TrimSpace(cfg.Version) == "" {
		cfg.Version = defaultVersion
	}
	h := &Handler{
		config:     cfg,
		accounts:   accounts,
		federation: federation,
		store:      store,
	}
	h.root = otelhttp.NewHandler(h.routes(), "auth.http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

func (h *Handler) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(trustedRealIP(h.config.TrustedProxies))
	if h.config.AccessLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeouts.Request))
	r.Use(h.securityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.Limit(h.config.RateLimit, h.config.RateWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, r, apperrors.New(apperrors.CodeTooManyRequests, "rate limit exceeded"))
		}),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.New(apperrors.CodeRouteNotFound, "no route for "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apperrors.New(apperrors.CodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path))
	})

	r.Get("/", h.handleRoot)
	r.Get("/health", h.handleHealth)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Get("/google", h.handleGoogleStart)
		r.Get("/google/callback", h.handleGoogleCallback)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAuth)
			r.Get("/me", h.handleMe)
			r.Put("/password", h.handleChangePassword)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Use(requireRole(user.RoleAdmin))
		r.Get("/", h.handleListUsers)
		r.Get("/{id}", h.handleGetUser)
		r.Put("/{id}", h.handleUpdateUser)
		r.Delete("/{id}", h.handleDeleteUser)
	})

	return r
}

func (h *Handler) securityHeaders() func(http.Handler) http.Handler {
	options := secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		IsDevelopment:         !h.config.Production,
	}
	if h.config.Production {
		options.STSSeconds = 15552000
		options.STSIncludeSubdomains = true
	}
	return secure.New(options).Handler
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": catalogFor(r).Format(i18n.MsgAPIBanner, nil),
		"version": h.config.Version,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusOK, "ok"
	if h.store == nil {
		status, body = http.StatusServiceUnavailable, "down"
	} else {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.StorePing)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "down"
		}
	}
	writeJSON(w, status, map[string]string{"status": body})
}
