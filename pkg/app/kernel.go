package app

import (
	"net/http"
	"time"

	appgraphql "github.com/shashiranjanraj/vendo/app/graphql"
	"github.com/shashiranjanraj/vendo/app/routes"
	"github.com/shashiranjanraj/vendo/config"
	"github.com/shashiranjanraj/vendo/pkg/graphql"
	"github.com/shashiranjanraj/vendo/pkg/metrics"
	"github.com/shashiranjanraj/vendo/pkg/middleware"
	"github.com/shashiranjanraj/vendo/pkg/reqid"
	"github.com/shashiranjanraj/vendo/pkg/response"
	"github.com/shashiranjanraj/vendo/pkg/router"
)

// Kernel is the HTTP handler plus the resources it must release.
type Kernel struct {
	Router  *router.Router
	limiter *middleware.RateLimiter
}

// Handler returns the root HTTP handler.
func (k *Kernel) Handler() http.Handler { return k.Router.Handler() }

// Close stops the rate limiter's eviction loop.
func (k *Kernel) Close() {
	if k.limiter != nil {
		k.limiter.Stop()
	}
}

// Kernel builds the HTTP handler.
//
// Global middleware (outermost first):
//  1. Request ID: before anything logs
//  2. Logger: logs request_id from context
//  3. Recovery: a panic becomes a logged 500
//  4. Prometheus metrics
//  5. CORS
//  6. Rate limiter
func (a *Application) Kernel() (*Kernel, error) {
	r := router.New()
	limiter := middleware.NewRateLimiter(config.RateLimitPerMinute(), time.Minute)

	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.Recovery)
	r.Use(metrics.Middleware())
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(config.CORSAllowedOrigins()...)))
	r.Use(limiter.Middleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { response.NotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) { response.MethodNotAllowed(w) })

	a.registerRoutes(r)

	schema, err := appgraphql.NewSchema(a.Products, a.History)
	if err != nil {
		limiter.Stop()
		return nil, err
	}
	r.Post("/graphql", "graphql", graphql.Handler(schema))
	r.Get("/metrics", "metrics", metrics.Handler())

	return &Kernel{Router: r, limiter: limiter}, nil
}

func (a *Application) registerRoutes(r *router.Router) {
	routes.RegisterAPI(r, a.Controller)
}
