package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/datptitudu2/backendthuvienptit/internal/activity"
	"github.com/datptitudu2/backendthuvienptit/internal/auth"
	"github.com/datptitudu2/backendthuvienptit/internal/cache"
	"github.com/datptitudu2/backendthuvienptit/internal/circulation"
	"github.com/datptitudu2/backendthuvienptit/internal/config"
	"github.com/datptitudu2/backendthuvienptit/internal/database"
	activityRepo "github.com/datptitudu2/backendthuvienptit/internal/database/activity"
	"github.com/datptitudu2/backendthuvienptit/internal/database/notifications"
	"github.com/datptitudu2/backendthuvienptit/internal/database/users"
	http_controllers "github.com/datptitudu2/backendthuvienptit/internal/http"
	"github.com/datptitudu2/backendthuvienptit/internal/monitor"
	"github.com/datptitudu2/backendthuvienptit/internal/notify"
	"github.com/datptitudu2/backendthuvienptit/internal/scheduler"
	"github.com/datptitudu2/backendthuvienptit/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// activityCleanupJob is the scheduler job name of the retention cleanup.
const activityCleanupJob = "activity-cleanup"

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for SIGINT or SIGTERM, then give in-flight requests until the
	// timeout to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown")
	}

	// Stop background work after the server so that no new request can
	// enqueue into a stopped queue.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Info().Msg("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Info().Str("version", version).Msg("Starting library backend")

	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	ctx := context.Background()

	catalog := cache.New(cfg.Cache)
	if cfg.Cache.Enabled {
		if err := catalog.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("Redis is unreachable; catalog reads will fall through to the database")
		} else {
			log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("Catalog cache connected")
		}
	}
	defer catalog.Close()

	userRepo := users.NewRepository(db.DB)
	notifier := notify.NewService(notifications.NewRepository(db.DB), userRepo)
	activities := activity.NewService(activityRepo.NewRepository(db.DB))
	mon := monitor.New(db.DB, notifier, monitor.WithDueSoonWindow(cfg.Monitor.DueSoonWindow))
	retention := time.Duration(cfg.Activity.RetentionDays) * 24 * time.Hour

	// Low-stock sweeps after a borrow go through the task queue when it is
	// enabled, and run inline otherwise.
	var lowStock circulation.LowStockTrigger = mon
	cleanupActivities := func(ctx context.Context) error {
		_, err := activities.DeleteOldActivities(ctx, retention)
		return err
	}

	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(tasks.ConfigFrom(cfg.Tasks, cfg.Database))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize task queue")
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing task client")
			}
		}()

		taskClient.Register(
			tasks.NewLowStockSweepQueue(mon),
			tasks.NewCleanupActivitiesQueue(activities),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		taskClient.Start(taskCtx)

		lowStock = tasks.NewLowStockTrigger(taskClient)
		cleanupActivities = func(ctx context.Context) error {
			return tasks.EnqueueActivityCleanup(ctx, taskClient, cfg.Activity.RetentionDays)
		}
	}

	engine := circulation.NewEngine(db.DB, notifier, activities,
		circulation.WithLowStockTrigger(lowStock),
		circulation.WithCatalogInvalidator(catalog),
	)

	tokens, err := auth.NewTokenIssuer(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token issuer")
	}
	authService := auth.NewService(userRepo, tokens, cfg.Auth)
	if created, err := authService.EnsureAdmin(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create bootstrap admin")
	} else if created {
		log.Info().Str("email", cfg.Auth.AdminEmail).Msg("Bootstrap admin created")
	}

	var sched *scheduler.Scheduler
	if cfg.Monitor.Enabled {
		jobs := scheduler.MonitorJobs(mon, cfg.Monitor)
		if cfg.Activity.RetentionDays > 0 {
			jobs = append(jobs, scheduler.Job{
				Name:     activityCleanupJob,
				Schedule: cfg.Activity.CleanupSchedule,
				Run:      cleanupActivities,
			})
		}
		sched, err = scheduler.New(jobs...)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to configure scheduler")
		}
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	} else {
		log.Info().Msg("Periodic sweeps disabled (MONITOR_ENABLED=false)")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		DB:             db.DB,
		Health:         db,
		Engine:         engine,
		Notifier:       notifier,
		Activity:       activities,
		AuthService:    authService,
		AuthMiddleware: auth.NewMiddleware(authService),
		Cache:          catalog,
		Sweeps:         mon,
		Scheduler:      sched,
		EnableHSTS:     cfg.HTTP.EnableHSTS,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if sched != nil {
			sched.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		activities.Wait()
	}

	Serve(router, cfg, onShutdown)
}
