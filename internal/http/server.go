package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"salesdash/internal/cache"
	"salesdash/internal/log"
	"salesdash/internal/middleware/ratelimit"
	"salesdash/internal/middleware/security"
	"salesdash/internal/middleware/trace"
	"salesdash/internal/services"
	"salesdash/internal/session"
	appweb "salesdash/web"
)

// DefaultMaxUploadBytes bounds an upload when Options leaves it unset.
const DefaultMaxUploadBytes int64 = 10 << 20

// Options configures a Server. Service and Sessions are required.
type Options struct {
	Service        *services.DashboardService
	Sessions       *session.Store
	MaxUploadBytes int64
	// UploadLimit bounds uploads per client; zero uses ratelimit defaults.
	UploadLimit ratelimit.Config
	// Cleanup, when set, sweeps the upload limiter alongside other caches.
	Cleanup *cache.Manager
	Logger  *log.Logger
}

// Server serves the dashboard page, its htmx partials, the JSON API and
// exports.
type Server struct {
	http.Server

	templates *template.Template
	svc       *services.DashboardService
	sessions  *session.Store
	maxUpload int64
	logger    *log.Logger

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires every route. It fails
// only when the templates cannot be parsed.
func NewServer(addr string, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	t, err := template.New("pages").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates: t,
		svc:       opts.Service,
		sessions:  opts.Sessions,
		maxUpload: maxUpload,
		logger:    logger,
		detector:  security.NewDetector(),
		limiter:   ratelimit.NewLimiter(opts.UploadLimit),
		started:   time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ClientIP)
	if opts.Cleanup != nil {
		opts.Cleanup.Register(s.limiter)
	}

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := security.StaticAssetMiddleware(3600)(http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
		mux.Handle("/static/", static)
	}

	limitUploads := s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Too many uploads, please wait a minute").
			Retarget(targetUploadStatus).
			Write(w)
	})

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ui/dashboard", s.handleDashboardPartial)
	mux.Handle("/upload", limitUploads(http.HandlerFunc(s.handleUpload)))
	mux.HandleFunc("/reset", s.handleReset)
	mux.HandleFunc("/export", s.handleExport)
	mux.HandleFunc("/api/charts", s.handleCharts)
	mux.HandleFunc("/api/summary", s.handleSummary)
	mux.HandleFunc("/api/loads", s.handleLoads)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(s.flagSuspicious(mux))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// flagSuspicious logs requests that look like probes. They are still
// served; unknown paths 404 anyway.
func (s *Server) flagSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request",
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldClientIP, s.detector.ClientIP(r),
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully stops the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "HTTP server shutting down", log.FieldOperation, log.OpShutdown)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
