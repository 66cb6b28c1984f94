package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jjudge-oj/roster/config"
	"github.com/jjudge-oj/roster/internal/db"
	"github.com/jjudge-oj/roster/internal/handlers"
	"github.com/jjudge-oj/roster/internal/metrics"
	"github.com/jjudge-oj/roster/internal/mq"
	"github.com/jjudge-oj/roster/internal/services"
	"github.com/jjudge-oj/roster/internal/storage"
	"github.com/jjudge-oj/roster/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	blobs      *storage.Storage
	queue      *mq.MQ
	logger     *zap.Logger
}

// New constructs a Server with its database, blob backend and optional
// event queue opened from cfg.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = blobs.Close()
		_ = dbConn.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	userRepo := store.NewUserRepository(dbConn, cfg.Database.Driver)
	userService := services.NewUserService(userRepo, blobs, logger).
		WithMetrics(collector)
	if queue != nil {
		userService.WithEvents(services.NewMQEventPublisher(queue, cfg.MQ.UserCreatedChannel))
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		handlers.RequestLogger(logger),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", metrics.Handler(registry))
	router.Route("/uploads", func(r chi.Router) {
		handlers.UploadRouter(r, blobs, logger)
	})
	handlers.UserRouter(router, userService, logger)

	port := cfg.ServerPort
	if port == 0 {
		port = 3000
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		zap.String("addr", httpServer.Addr),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Bool("events_enabled", queue != nil),
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		blobs:      blobs,
		queue:      queue,
		logger:     logger,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info("server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and then releases the queue, blob
// backend and database pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if qerr := s.queue.Close(); qerr != nil {
			s.logger.Warn("close queue failed", zap.Error(qerr))
		}
	}
	if s.blobs != nil {
		if berr := s.blobs.Close(); berr != nil {
			s.logger.Warn("close blob storage failed", zap.Error(berr))
		}
	}
	if s.db != nil {
		if dberr := s.db.Close(); dberr != nil && err == nil {
			err = dberr
		}
	}
	return err
}
