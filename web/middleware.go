package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voxway/voxgate/domain/apierr"
)

// authenticate resolves the bearer token to a fresh user record and
// stores it in the request context.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.countAuthFailure("missing_token")
			writeError(w, h.logger, apierr.Unauthorized)
			return
		}

		user, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			h.countAuthFailure("invalid_token")
			writeError(w, h.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// requireActive rejects pending and banned accounts.
func (h *Handler) requireActive(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := getUser(r.Context())
		if !ok {
			writeError(w, h.logger, apierr.Unauthorized)
			return
		}
		if !user.IsActive() {
			h.countAuthFailure("not_active")
			writeError(w, h.logger, apierr.NotActive)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAdmin rejects non-admin accounts.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := getUser(r.Context())
		if !ok {
			writeError(w, h.logger, apierr.Unauthorized)
			return
		}
		if !user.IsAdmin {
			h.countAuthFailure("not_admin")
			writeError(w, h.logger, apierr.Forbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) countAuthFailure(reason string) {
	if h.metrics != nil {
		h.metrics.AuthFailures.WithLabelValues(reason).Inc()
	}
}

// requestLogger logs one line per request.
func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		h.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// instrument records request count and latency. The route pattern is
// used instead of the raw path to keep label cardinality bounded.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = "unmatched"
		}
		status := strconv.Itoa(ww.Status())
		h.metrics.RequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
		h.metrics.RequestDuration.WithLabelValues(r.Method, pattern, status).Observe(time.Since(start).Seconds())
	})
}
