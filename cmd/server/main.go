package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/founddesk/be-lf-workrequests/internal/config"
	"github.com/founddesk/be-lf-workrequests/internal/directory"
	"github.com/founddesk/be-lf-workrequests/internal/events"
	"github.com/founddesk/be-lf-workrequests/internal/handler"
	"github.com/founddesk/be-lf-workrequests/internal/platform/database"
	platformevents "github.com/founddesk/be-lf-workrequests/internal/platform/events"
	"github.com/founddesk/be-lf-workrequests/internal/platform/logger"
	"github.com/founddesk/be-lf-workrequests/internal/repository"
	"github.com/founddesk/be-lf-workrequests/internal/routing"
	"github.com/founddesk/be-lf-workrequests/internal/service"
)

func main() {
	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
	})

	log.Info().Msg("Starting Work-Request Routing Service")

	policy, err := config.LoadPolicy(cfg.RoutingPolicyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load routing policy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Redis cache for the approver directory. The cache degrades to the
	// store, so a missing Redis only costs latency.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable; directory reads go straight to the database")
	}
	defer rdb.Close()

	// NATS JetStream. Event publication is observability-grade: the
	// service runs without it.
	var eventsConn *platformevents.Conn
	eventsConn, err = platformevents.Connect(cfg.NATSURL, events.Stream, events.Subjects())
	if err != nil {
		log.Warn().Err(err).Msg("NATS unavailable; lifecycle events will not be published")
		eventsConn = nil
	} else {
		defer eventsConn.Close()
	}
	publisher := events.NewPublisher(eventsConn, log)

	// Repositories and directory
	requestRepo := repository.NewWorkRequestRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	dir := directory.NewCachedDirectory(directory.NewStore(db), rdb, cfg.DirectoryCacheTTL, log)

	// Routing engine
	workloads := routing.NewWorkloadTracker()
	selectionLog := routing.ObserverFunc(func(e routing.SelectionEvent) {
		log.Info().
			Str("request_id", e.RequestID).
			Str("approver_id", e.ApproverID).
			Str("approver_name", e.ApproverName).
			Str("role", string(e.Role)).
			Str("priority", string(e.Priority)).
			Int("workload", e.Workload).
			Msg("Approver selected")
	})
	router := routing.NewRouter(
		routing.NewCandidateSelector(dir),
		routing.NewApproverSelector(workloads),
		routing.MultiObserver{selectionLog, events.NewSelectionObserver(publisher)},
	)
	monitor := routing.NewSLAMonitor(policy.WarningFraction)

	// Service and HTTP surface
	svc := service.NewWorkRequestService(requestRepo, auditRepo, router, workloads, monitor, policy, publisher, log)

	h := handler.NewHTTPHandler(svc, dir, log)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(handler.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.WriteTimeout))
	h.Routes(r)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Periodic SLA sweep
	go runSLASweep(ctx, svc, policy, log)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}

// runSLASweep runs the SLA monitor over open requests on the policy
// interval until ctx is cancelled.
func runSLASweep(ctx context.Context, svc *service.WorkRequestService, policy *config.RoutingPolicy, log zerolog.Logger) {
	interval := policy.SweepInterval()
	log.Info().Dur("interval", interval).Msg("Starting SLA sweep loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("SLA sweep loop stopped")
			return
		case <-ticker.C:
			if _, err := svc.SweepSLAs(ctx); err != nil {
				log.Error().Err(err).Msg("SLA sweep failed")
			}
		}
	}
}
