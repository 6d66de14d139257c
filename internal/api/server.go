// Package api exposes the engines as a JSON HTTP service.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rgehrsitz/taxadvisor/internal/calculation"
	"github.com/rgehrsitz/taxadvisor/internal/config"
	"github.com/rgehrsitz/taxadvisor/internal/entity"
	"github.com/rgehrsitz/taxadvisor/internal/projection"
	"github.com/rgehrsitz/taxadvisor/internal/recommend"
	"github.com/rgehrsitz/taxadvisor/internal/scenario"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Services are the engines the handlers call. All of them are safe for
// concurrent use.
type Services struct {
	Tables      *config.TableSet
	Calc        *calculation.TaxCalculator
	Entities    *entity.Optimizer
	Projections *projection.Engine
	Advisor     *recommend.Engine
	Scenarios   *scenario.Analyzer
}

// NewServices wires every engine over one table set.
func NewServices(tables *config.TableSet, benchmarks entity.BenchmarkProvider, opts entity.Options) *Services {
	calc := calculation.NewTaxCalculator(tables)
	entities := entity.NewOptimizer(calc, benchmarks, opts)
	return &Services{
		Tables:      tables,
		Calc:        calc,
		Entities:    entities,
		Projections: projection.NewEngine(tables),
		Advisor:     recommend.NewEngine(calc, entities),
		Scenarios:   scenario.NewAnalyzer(calc),
	}
}

// Options configures the router's middleware.
type Options struct {
	AllowedOrigins []string
	RatePerSecond  float64
	Burst          int
	Timeout        time.Duration
	Logger         *zap.Logger
}

// OptionsFromConfig converts server settings into router options.
func OptionsFromConfig(cfg config.ServerConfig) Options {
	return Options{
		AllowedOrigins: cfg.AllowedOrigins,
		RatePerSecond:  cfg.RatePerSecond,
		Burst:          cfg.Burst,
		Timeout:        time.Duration(cfg.TimeoutSecs) * time.Second,
	}
}

type server struct {
	svc *Services
	log *zap.Logger
}

// NewRouter builds the HTTP handler. A non-positive RatePerSecond disables
// rate limiting.
func NewRouter(svc *Services, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	s := &server{svc: svc, log: log.Named("api")}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	}))
	if opts.RatePerSecond > 0 {
		burst := opts.Burst
		if burst < 1 {
			burst = 1
		}
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)))
	}
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/tables", s.handleTables)
		r.Get("/mutations", s.handleMutations)
		r.Post("/tax/compute", s.handleCompute)
		r.Post("/entities/compare", s.handleEntities)
		r.Post("/projections", s.handleProjection)
		r.Post("/recommendations", s.handleRecommendations)
		r.Post("/scenarios", s.handleScenario)
	})
	return r
}
