package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/royalhouse/server/internal/api/handlers"
	"github.com/royalhouse/server/internal/api/middleware"
	"github.com/royalhouse/server/internal/audit"
	"github.com/royalhouse/server/internal/auth"
	"github.com/royalhouse/server/internal/config"
	"github.com/royalhouse/server/internal/metrics"
	"github.com/royalhouse/server/internal/storage/uploads"
	"github.com/royalhouse/server/web"
)

// Services are the domain services behind the API.
type Services struct {
	Administration handlers.AdministrationService
	Media          handlers.MediaService
	Updates        handlers.UpdatesService
	Admins         handlers.AdminsService
	Login          handlers.LoginService
}

// Dependencies is everything NewRouter wires together. Pool may be nil in
// tests; health checks then report the database as down.
type Dependencies struct {
	Config   config.Config
	Logger   zerolog.Logger
	Pool     *pgxpool.Pool
	DB       handlers.Pinger
	Sessions *auth.JWTManager
	Uploads  *uploads.LocalStore
	Services Services
	Build    BuildInfo
}

// Router is the assembled HTTP handler. Close releases background resources.
type Router struct {
	Handler     http.Handler
	rateLimiter *middleware.RateLimiter
}

func (r *Router) Close() {
	if r != nil && r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
}

func NewRouter(deps Dependencies) *Router {
	cfg := deps.Config
	env := cfg.Environment
	auditLogger := audit.NewLogger(deps.Logger)

	authHandler := handlers.NewAuthHandler(deps.Services.Login, deps.Sessions, deps.Sessions.Expiry(), auditLogger, env)
	administrationHandler := handlers.NewAdministrationHandler(deps.Services.Administration, auditLogger, env)
	mediaHandler := handlers.NewMediaHandler(deps.Services.Media, auditLogger, env)
	updatesHandler := handlers.NewUpdatesHandler(deps.Services.Updates, auditLogger, env)
	adminsHandler := handlers.NewAdminsHandler(deps.Services.Admins, auditLogger, env)
	uploadHandler := handlers.NewUploadHandler(deps.Uploads, auditLogger, env)
	healthChecker := handlers.NewHealthChecker(deps.Pool, deps.Uploads.Dir(), deps.Build.Version, deps.Build.GitCommit)

	requireSession := middleware.RequireSession(deps.Sessions, env)
	protected := func(h http.HandlerFunc) http.Handler {
		return requireSession(h)
	}

	mux := http.NewServeMux()

	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz(deps.DB))
	mux.Handle("/health", healthChecker.Health())
	mux.Handle("/version", VersionHandler(deps.Build))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/robots.txt", web.RobotsTxtHandler())

	mux.Handle(middleware.LoginPath, web.LoginHandler())
	mux.Handle(middleware.DashboardPath, web.DashboardHandler())
	mux.Handle(middleware.DashboardPath+"/", web.DashboardHandler())
	mux.Handle(uploads.URLPrefix, deps.Uploads.Handler())

	mux.Handle("/api/auth/send-otp", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.RequestCode),
	}))
	mux.Handle("/api/auth/verify-otp", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.VerifyCode),
	}))
	mux.Handle("/api/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Logout),
	}))
	mux.Handle("/api/auth/session", methodMux(map[string]http.Handler{
		http.MethodGet: http.HandlerFunc(authHandler.Session),
	}))

	// Reads stay public; the static site renders from them.
	mux.Handle("/api/administration", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(administrationHandler.List),
		http.MethodPost: protected(administrationHandler.Create),
	}))
	mux.Handle("/api/administration/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(administrationHandler.Get),
		http.MethodPut:    protected(administrationHandler.Update),
		http.MethodDelete: protected(administrationHandler.Delete),
	}))

	mux.Handle("/api/media", methodMux(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(mediaHandler.List),
		http.MethodPost:   protected(mediaHandler.Create),
		http.MethodPut:    protected(mediaHandler.Update),
		http.MethodDelete: protected(mediaHandler.Delete),
	}))
	mux.Handle("/api/media/{id}", methodMux(map[string]http.Handler{
		http.MethodPut:    protected(mediaHandler.Update),
		http.MethodDelete: protected(mediaHandler.Delete),
	}))

	mux.Handle("/api/updates", methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(updatesHandler.List),
		http.MethodPost: protected(updatesHandler.Create),
	}))
	mux.Handle("/api/updates/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    http.HandlerFunc(updatesHandler.Get),
		http.MethodPut:    protected(updatesHandler.Replace),
		http.MethodDelete: protected(updatesHandler.Delete),
	}))

	mux.Handle("/api/admins", methodMux(map[string]http.Handler{
		http.MethodGet:    protected(adminsHandler.List),
		http.MethodPost:   protected(adminsHandler.Add),
		http.MethodDelete: protected(adminsHandler.Remove),
	}))
	mux.Handle("/api/admins/{id}", methodMux(map[string]http.Handler{
		http.MethodDelete: protected(adminsHandler.Remove),
	}))

	mux.Handle("/api/upload", methodMux(map[string]http.Handler{
		http.MethodPost: protected(uploadHandler.Upload),
	}))

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	var handler http.Handler = mux
	handler = middleware.PageGate(deps.Sessions)(handler)
	handler = middleware.RequestSize(middleware.DefaultMaxBodySize, cfg.Uploads.MaxBytes)(handler)
	handler = rateLimiter.Middleware(handler)
	handler = middleware.CORS(cfg.CORS, deps.Logger)(handler)
	handler = middleware.SecurityHeaders(cfg.IsProduction())(handler)
	handler = middleware.RequestLogging(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(deps.Logger)(handler)

	return &Router{Handler: handler, rateLimiter: rateLimiter}
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		if r.Method == http.MethodHead {
			if handler, ok := handlers[http.MethodGet]; ok {
				handler.ServeHTTP(w, r)
				return
			}
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
