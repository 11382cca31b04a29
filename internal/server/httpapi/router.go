package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/luminary-catalog/luminary/internal/server/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the collaborators NewRouter wires together. Metrics,
// RateLimiter, Readiness and Gatherer are optional.
type Dependencies struct {
	Accounts    AccountService
	Genres      GenreService
	Verifier    auth.TokenVerifier
	Logger      logging.Logger
	Metrics     *HTTPMetrics
	RateLimiter *RateLimiter
	Readiness   ReadinessChecker
	CORSOrigins []string
	Gatherer    prometheus.Gatherer
}

// NewRouter builds the gin engine with every route registered.
//
//	POST   /auth/signup
//	POST   /auth/login
//	GET    /users/profile        (bearer)
//	PATCH  /users/profile        (bearer)
//	GET    /genres               (bearer)
//	GET    /genres/:id           (bearer)
//	POST   /genres               (bearer)
//	PATCH  /genres/:id           (bearer)
//	DELETE /genres/:id           (bearer)
//	GET    /health, /ready, /metrics
func NewRouter(deps Dependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Nop{}
	}

	h := &handlers{
		accounts:  deps.Accounts,
		genres:    deps.Genres,
		readiness: deps.Readiness,
		logger:    logger,
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		RequestID(),
		AccessLog(logger),
		deps.Metrics.Handler(),
		CORS(deps.CORSOrigins),
	)

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authGroup := r.Group("/auth", deps.RateLimiter.Handler())
	authGroup.POST("/signup", h.signup)
	authGroup.POST("/login", h.login)

	gate := RequireAuth(deps.Verifier, logger)

	users := r.Group("/users", gate)
	users.GET("/profile", h.profile)
	users.PATCH("/profile", h.updateProfile)

	genres := r.Group("/genres", gate)
	genres.GET("", h.listGenres)
	genres.GET("/:id", h.getGenre)
	genres.POST("", h.createGenre)
	genres.PATCH("/:id", h.updateGenre)
	genres.DELETE("/:id", h.deleteGenre)

	return r
}
