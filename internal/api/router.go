package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/jobvault/internal/platform/logger"
)

// NewRouter assembles the HTTP routes for the job API.
func NewRouter(h *JobsHandler, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(chimiddleware.Recoverer)

	r.Post("/jobs", h.SubmitJob)
	r.Get("/jobs/{id}", h.GetJob)

	return r
}

// RequestLogger returns middleware that attaches a request-scoped logger
// (carrying the chi request id) to the context and logs one line per
// completed request.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLogger := log.With("request_id", chimiddleware.GetReqID(r.Context()))
			ctx := logger.WithLogger(r.Context(), reqLogger)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}
