// Package web provides the HTTP API: auth, STT credential issuance,
// the streaming chat relay and the admin surface. All responses are
// JSON except the chat stream, which is a line-framed event stream.
package web

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/voxway/voxgate/adapters/metrics"
	"github.com/voxway/voxgate/app"
	"github.com/voxway/voxgate/ports"
)

// defaultCORSOrigins are the desktop client origins allowed when config
// supplies none. Webviews also send "Origin: null", handled separately.
var defaultCORSOrigins = []string{
	"http://localhost:1420",
	"http://127.0.0.1:1420",
	"tauri://localhost",
	"https://tauri.localhost",
	"http://tauri.localhost",
}

// Handler provides the API endpoints.
type Handler struct {
	auth      *app.AuthService
	chat      *app.ChatService
	stt       *app.STTService
	admin     *app.AdminService
	primary   ports.STTTokenProvider
	alternate ports.STTTokenProvider
	validate  *validator.Validate
	metrics   *metrics.Collector
	logger    zerolog.Logger
	version   string

	// originMu guards allowed so the CORS allowlist can be swapped on
	// config reload while requests are in flight.
	originMu sync.RWMutex
	allowed  map[string]bool
}

// Deps contains dependencies for the API handler.
type Deps struct {
	Auth      *app.AuthService
	Chat      *app.ChatService
	STT       *app.STTService
	Admin     *app.AdminService
	Primary   ports.STTTokenProvider
	Alternate ports.STTTokenProvider
	Metrics   *metrics.Collector
	Logger    zerolog.Logger
	Origins   []string
	Version   string
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	h := &Handler{
		auth:      deps.Auth,
		chat:      deps.Chat,
		stt:       deps.STT,
		admin:     deps.Admin,
		primary:   deps.Primary,
		alternate: deps.Alternate,
		validate:  validator.New(),
		metrics:   deps.Metrics,
		logger:    deps.Logger,
		version:   version,
	}
	h.UpdateOrigins(deps.Origins)
	return h
}

// UpdateOrigins replaces the CORS allowlist. An empty list restores
// the built-in desktop client origins. Safe to call on a live handler.
func (h *Handler) UpdateOrigins(origins []string) {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	h.originMu.Lock()
	h.allowed = allowed
	h.originMu.Unlock()
}

func (h *Handler) originAllowed(origin string) bool {
	h.originMu.RLock()
	defer h.originMu.RUnlock()
	return h.allowed[origin]
}

// Router returns the API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(h.corsHandler().Handler)
	if h.metrics != nil {
		r.Use(h.instrument)
	}

	r.Get("/health", h.Health)
	r.Get("/version", h.Version)
	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI over the generated OpenAPI document. The file is a
	// build artifact, not checked in; regenerate it with:
	//
	//	swag init -g cmd/voxgate/main.go -o docs/swagger --outputTypes json
	r.Get("/.well-known/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "docs/swagger/swagger.json")
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/.well-known/openapi.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)

		// Active-account endpoints.
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Use(h.requireActive)

			r.Get("/user/usage", h.Usage)
			r.Post("/stt/token", h.STTTokenAlternate)
			r.Post("/stt/token-primary", h.STTTokenPrimary)
			r.Post("/stt/report-usage", h.ReportUsage)
			r.Post("/stt/heartbeat", h.Heartbeat)
			r.Post("/ai/chat", h.Chat)
		})

		// Admin endpoints.
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate)
			r.Use(h.requireAdmin)

			r.Get("/admin/users", h.AdminListUsers)
			r.Post("/admin/users/invite", h.AdminInviteUser)
			r.Get("/admin/users/{id}", h.AdminGetUser)
			r.Patch("/admin/users/{id}", h.AdminPatchUser)
			r.Delete("/admin/users/{id}", h.AdminDeleteUser)
			r.Post("/admin/users/{id}/activate", h.AdminActivateUser)
			r.Get("/admin/dashboard", h.AdminDashboard)
			r.Get("/admin/costs", h.AdminCosts)
			r.Get("/admin/sessions", h.AdminSessions)
			r.Get("/admin/logs", h.AdminLogs)
			r.Get("/admin/providers", h.AdminProviders)
		})
	})

	return r
}

// corsHandler builds the cross-origin policy: a fixed allowlist plus
// the webview cases (tauri:// schemes, literal "null").
func (h *Handler) corsHandler() *cors.Cors {
	return cors.New(cors.Options{
		AllowOriginFunc: func(origin string) bool {
			if origin == "null" || strings.HasPrefix(origin, "tauri://") {
				return true
			}
			return h.originAllowed(origin)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           int((12 * time.Hour).Seconds()),
	})
}

// Health reports process liveness.
//
//	@Summary	Health check
//	@Tags		Infra
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Version reports the build version.
//
//	@Summary	Build version
//	@Tags		Infra
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/version [get]
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}
