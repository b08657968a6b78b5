package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"stayfinder/config"
	_ "stayfinder/docs" // swagger spec
	"stayfinder/infras/kafka"
	"stayfinder/infras/otel"
	"stayfinder/infras/postgres"
	"stayfinder/shared/constant"
	"stayfinder/transport/http/middleware"
	"stayfinder/transport/http/response"
	"stayfinder/transport/http/router"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	goRedis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"
)

type ServerState int32

const (
	ServerStateReady ServerState = iota + 1
	ServerStateInGracePeriod
	ServerStateInCleanupPeriod
)

const (
	defaultCleanupPeriod = 10 * time.Second
	healthCheckTimeout   = 2 * time.Second
	readHeaderTimeout    = 10 * time.Second
)

type HTTP struct {
	Config *config.Config
	Router router.Router

	app   middleware.AppMiddleware
	db    *postgres.Connection
	redis *goRedis.Client
	kafka kafka.Client
	otel  otel.Otel

	state   atomic.Int32
	handler http.Handler
	server  *http.Server
	once    sync.Once
	done    chan struct{}
}

func New(
	cfg *config.Config,
	r router.Router,
	app middleware.AppMiddleware,
	db *postgres.Connection,
	redis *goRedis.Client,
	kafka kafka.Client,
	otel otel.Otel,
) *HTTP {
	return &HTTP{
		Config: cfg,
		Router: r,
		app:    app,
		db:     db,
		redis:  redis,
		kafka:  kafka,
		otel:   otel,
		done:   make(chan struct{}),
	}
}

func (h *HTTP) State() ServerState {
	return ServerState(h.state.Load())
}

// Serve blocks until the server has shut down and every resource is closed.
func (h *HTTP) Serve() {
	h.setupRoutes()
	h.setupGracefulShutdown()
	h.state.Store(int32(ServerStateReady))

	h.server = &http.Server{
		Addr:              net.JoinHostPort(h.Config.Server.Host, h.Config.Server.Port),
		Handler:           h.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	log.Info().Str("port", h.Config.Server.Port).Msg("Starting up HTTP server.")

	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Failed to start HTTP server")
	}

	<-h.done
}

// Adaptor exposes the routes to a serverless runtime, which owns the process
// lifecycle itself.
func (h *HTTP) Adaptor() http.Handler {
	h.setupRoutes()
	h.state.Store(int32(ServerStateReady))

	return h.handler
}

func (h *HTTP) setupRoutes() {
	h.once.Do(func() {
		mux := chi.NewRouter()

		mux.Use(chiMiddleware.RequestID, chiMiddleware.RealIP, chiMiddleware.Recoverer)

		if corsConfig := h.Config.App.CORS; corsConfig.Enable {
			mux.Use(cors.Handler(cors.Options{
				AllowedOrigins:   corsConfig.AllowedOrigins,
				AllowedMethods:   corsConfig.AllowedMethods,
				AllowedHeaders:   corsConfig.AllowedHeaders,
				AllowCredentials: corsConfig.AllowCredentials,
				MaxAge:           corsConfig.MaxAgeSeconds,
			}))
		}

		mux.Use(h.app.Tracing, h.app.RateLimit())

		mux.Get("/health", h.health)
		mux.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

		h.Router.SetupRoutes(mux)

		h.handler = mux
	})
}

func (h *HTTP) health(w http.ResponseWriter, r *http.Request) {
	if h.State() != ServerStateReady {
		response.WithPreparingShutdown(w)

		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Write.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("health check: postgres unreachable")
		response.WithUnhealthy(w)

		return
	}

	if err := h.redis.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("health check: redis unreachable")
		response.WithUnhealthy(w)

		return
	}

	response.WithMessage(w, http.StatusOK, "OK")
}

func (h *HTTP) setupGracefulShutdown() {
	serverStateCh := make(chan os.Signal, 1)

	signal.Notify(serverStateCh, os.Interrupt, syscall.SIGTERM)

	go h.respondToSigterm(serverStateCh)
}

func (h *HTTP) respondToSigterm(done chan os.Signal) {
	<-done

	defer close(h.done)

	shutdownConfig := h.Config.Server.Shutdown
	cleanup := time.Duration(shutdownConfig.CleanupPeriodSeconds) * time.Second

	if cleanup <= 0 {
		cleanup = defaultCleanupPeriod
	}

	if h.Config.Server.Env == constant.ServerEnvDevelopment {
		log.Warn().Msg("Received SIGTERM. Shutting down now.")
	} else {
		log.Info().Int64("seconds", shutdownConfig.GracePeriodSeconds).Msg("Received SIGTERM. Entering grace period.")

		h.state.Store(int32(ServerStateInGracePeriod))

		time.Sleep(time.Duration(shutdownConfig.GracePeriodSeconds) * time.Second)
	}

	log.Info().Dur("timeout", cleanup).Msg("Entering cleanup period.")

	h.state.Store(int32(ServerStateInCleanupPeriod))

	ctx, cancel := context.WithTimeout(context.Background(), cleanup)
	defer cancel()

	if err := h.server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to drain HTTP server")
	}

	h.closeResources(ctx)

	log.Info().Msg("Cleaning up completed. Shutting down now.")
}

func (h *HTTP) closeResources(ctx context.Context) {
	if err := h.db.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close postgres")
	}

	if err := h.redis.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close redis")
	}

	if err := h.kafka.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close kafka writers")
	}

	if err := h.otel.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to flush traces")
	}
}
