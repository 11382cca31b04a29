// Package server initializes and runs the Luminary catalog server.
// It opens the database, applies migrations, wires the services and runs the
// HTTP API and the gRPC health endpoint until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/luminary-catalog/luminary/internal/cryptox"
	"github.com/luminary-catalog/luminary/internal/logging"
	"github.com/luminary-catalog/luminary/internal/server/auth"
	"github.com/luminary-catalog/luminary/internal/server/config"
	"github.com/luminary-catalog/luminary/internal/server/httpapi"
	"github.com/luminary-catalog/luminary/internal/server/repositories/repomanager"
	"github.com/luminary-catalog/luminary/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	gs "github.com/luminary-catalog/luminary/internal/server/grpc"
)

const startupTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	redis    *redis.Client
	tokens   *auth.TokenService
	accounts *services.AccountService
	genres   *services.GenreService
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher := cryptox.NewArgon2Hasher(cryptox.DefaultParams())
	hasher.LegacyPlaintext = c.LegacyPlaintextPasswords
	if c.LegacyPlaintextPasswords {
		logger.Warn(ctx, "legacy plaintext password verification is enabled; this is deprecated and will be removed")
	}

	if c.UsesDefaultSecret() {
		logger.Warn(ctx, "JWT secret is the development default; set JWT_SECRET")
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.AccessTokenValidityDuration)

	app := &App{
		config:   c,
		logger:   logger,
		db:       db,
		tokens:   tokens,
		accounts: services.NewAccountService(db, rm, c, hasher, tokens, logger),
		genres:   services.NewGenreService(db, rm, c, logger),
	}

	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) router() (*gin.Engine, error) {
	metrics, err := httpapi.NewHTTPMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, err
	}

	var limiter *httpapi.RateLimiter
	if app.redis != nil {
		store := httpapi.NewRedisRateLimitStore(app.redis, "luminary:ratelimit")
		limiter = httpapi.NewRateLimiter(store, app.config.RateLimitRequests, app.config.RateLimitWindow, app.logger)
	}

	return httpapi.NewRouter(httpapi.Dependencies{
		Accounts:    app.accounts,
		Genres:      app.genres,
		Verifier:    app.tokens,
		Logger:      app.logger,
		Metrics:     metrics,
		RateLimiter: limiter,
		Readiness:   app.db,
		CORSOrigins: app.config.CORSOrigins,
		Gatherer:    prometheus.DefaultGatherer,
	}), nil
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	r, err := app.router()
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, r, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.tokens, app.db, app.genres)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	gin.SetMode(gin.ReleaseMode)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(ctx, "App stopped")
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
}
