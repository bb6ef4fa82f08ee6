package handlers

import (
	"context"
	"net/http"

	"netpulse/app/internal/models"
	"netpulse/app/internal/ratelimit"
	"netpulse/app/internal/security"
	"netpulse/app/internal/sink"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Sessions is the part of the monitor the API drives
type Sessions interface {
	Start(ctx context.Context, identifier string) (models.SessionView, error)
	Stop(identifier string) bool
	StopAll() int
	SetThreshold(identifier string, ms float64) bool
	PollOnce(ctx context.Context, identifier string) (bool, error)
	Session(identifier string) (models.SessionView, bool)
	Sessions() []models.SessionView
}

// Prober runs the one-shot check behind /check
type Prober interface {
	Probe(ctx context.Context, identifier string) (models.ProbeResult, error)
}

// Locator validates addresses for /validate_ip
type Locator interface {
	Validate(ctx context.Context, identifier string) (models.Location, error)
}

// Deps are the collaborators the routes need. Limiter is optional.
type Deps struct {
	Sessions  Sessions
	Prober    Prober
	Locator   Locator
	Dashboard *sink.Dashboard
	Hub       *sink.Hub
	Limiter   *ratelimit.Limiter
}

// NewRouter configures all HTTP routes and middlewares
func NewRouter(d Deps) http.Handler {
	limited := func(next http.Handler) http.Handler { return next }
	if d.Limiter != nil {
		limited = d.Limiter.Middleware(security.ClientIP)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(security.SecureHeaders)

	// Live stream, must not be buffered by gzip
	r.Get("/api/events", HandleEvents(d.Hub))

	r.Group(func(r chi.Router) {
		r.Use(GzipMiddleware)

		r.Get("/healthz", HandleHealth())

		// Map page endpoints
		r.With(limited).Get("/check", HandleCheck(d.Prober))
		r.Get("/validate_ip", HandleValidateIP(d.Locator))
		r.Get("/server_data", HandleServerData(d.Sessions))

		r.Route("/api/sessions", func(r chi.Router) {
			r.Get("/", HandleListSessions(d.Sessions))
			r.With(limited).Post("/", HandleStartSession(d.Sessions))
			r.Delete("/", HandleStopAll(d.Sessions))

			r.Get("/{id}", HandleGetSession(d.Sessions))
			r.Delete("/{id}", HandleStopSession(d.Sessions))
			r.Put("/{id}/threshold", HandleSetThreshold(d.Sessions))
			r.Post("/{id}/poll", HandlePollSession(d.Sessions))
		})

		r.Get("/api/dashboard", HandleDashboard(d.Dashboard))

		r.Route("/api/logs", func(r chi.Router) {
			r.Get("/", HandleGetLogs())
			r.Get("/stats", HandleGetLogStats())
			r.Delete("/", HandleClearLogs())
		})
	})

	return r
}
