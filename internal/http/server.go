package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"agencycrm/internal/cache"
	"agencycrm/internal/core"
	"agencycrm/internal/log"
	"agencycrm/internal/middleware/ratelimit"
	"agencycrm/internal/middleware/security"
	"agencycrm/internal/middleware/trace"
	"agencycrm/internal/services"
	appweb "agencycrm/web"
)

// ReadyFunc reports whether the data backend can serve requests.
type ReadyFunc func(ctx context.Context) error

// Options configures NewServer. Records and Reports are required.
type Options struct {
	Addr               string
	Records            *services.RecordService
	Reports            *services.ReportService
	Ready              ReadyFunc
	Logger             *log.Logger
	RateLimitPerMinute int
	ReportCacheSize    int
	ReportCacheTTL     time.Duration
}

type Server struct {
	http.Server
	logger    *log.Logger
	templates *template.Template
	records   *services.RecordService
	reports   *services.ReportService
	ready     ReadyFunc

	// Progress reports keyed by actor and query; cleared on every write
	reportCache  *cache.LRUCache[services.ProgressReport]
	cacheManager *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// appMetrics holds application-level counters
type appMetrics struct {
	uptime         time.Time
	recordsCreated int64
	recordsDeleted int64
	statusChanges  int64
	cacheHits      int64
	cacheMisses    int64
}

var templateFuncs = template.FuncMap{
	"money": core.FormatAmount,
	"percent": func(p float64) string {
		return decimal.NewFromFloat(p).StringFixed(1) + "%"
	},
	"bar": func(p float64) int {
		switch {
		case p <= 0:
			return 0
		case p > 100:
			return 100
		case p < 2:
			return 2
		}
		return int(p + 0.5)
	},
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	if opts.ReportCacheSize <= 0 {
		opts.ReportCacheSize = 100
	}
	if opts.ReportCacheTTL <= 0 {
		opts.ReportCacheTTL = 5 * time.Minute
	}
	ready := opts.Ready
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}

	detector := security.NewDetector()
	s := &Server{
		logger:           logger,
		records:          opts.Records,
		reports:          opts.Reports,
		ready:            ready,
		reportCache:      cache.NewLRUCache[services.ProgressReport](opts.ReportCacheSize, opts.ReportCacheTTL),
		cacheManager:     cache.NewManager(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err.Error())
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err.Error())
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Records
	mux.HandleFunc("GET /api/{kind}", s.handleListRecords)
	mux.HandleFunc("POST /api/{kind}", s.handleCreateRecord)
	mux.HandleFunc("GET /api/{kind}/{id}", s.handleGetRecord)
	mux.HandleFunc("PATCH /api/{kind}/{id}", s.handlePatchRecord)
	mux.HandleFunc("DELETE /api/{kind}/{id}", s.handleDeleteRecord)
	mux.HandleFunc("GET /api/{kind}/{id}/financials", s.handleFinancials)
	mux.HandleFunc("POST /api/{kind}/{id}/payment-status", s.handleCyclePaymentStatus)
	mux.HandleFunc("POST /api/leads/{id}/quotation", s.handleConvertLead)

	// Reports
	mux.HandleFunc("GET /api/reports/progress", s.handleProgressReport)
	mux.HandleFunc("GET /ui/progress", s.handleProgressPartial)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.rateLimiter.Middleware(detector.ExtractClientIP, ratelimit.IsMutating,
		func(w http.ResponseWriter, r *http.Request) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, detector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
		})

	var handler http.Handler = mux
	handler = limit(handler)
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateReports drops every cached report after a record write.
func (s *Server) invalidateReports() {
	s.reportCache.Clear()
}
