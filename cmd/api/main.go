// Command api runs the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"leadgate_backend/internal/engagement"
	enghandler "leadgate_backend/internal/engagement/handler"
	apphttp "leadgate_backend/internal/http"
	"leadgate_backend/internal/http/router"
	"leadgate_backend/internal/ledger"
	"leadgate_backend/internal/prospects"
	"leadgate_backend/internal/scheduler"
	"leadgate_backend/internal/scoring"
	"leadgate_backend/internal/scoring/ai"
	"leadgate_backend/internal/scoring/service"
	"leadgate_backend/internal/unlock"
	unlockrepo "leadgate_backend/internal/unlock/repository"
	"leadgate_backend/platform/config"
	"leadgate_backend/platform/db"
	"leadgate_backend/platform/events"
	"leadgate_backend/platform/httpkit"
	"leadgate_backend/platform/logger"
	"leadgate_backend/platform/validator"
)

const migrationsDir = "migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	log := logger.New(cfg.GetEnvironment())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "run migrations", func() error {
		return db.RunMigrations(ctx, cfg, migrationsDir)
	}); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	bus := events.NewInMemoryBus(log)
	validate := validator.New()

	// Optional Redis: without it the requester rate limiter is disabled
	// and engagement events are applied in-process.
	var redisClient *redis.Client
	var schedulerClient *scheduler.Client
	if cfg.GetRedisURL() != "" {
		redisOpts, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			log.Error("invalid redis url", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()

		schedulerClient, err = scheduler.NewClient(cfg, log)
		if err != nil {
			log.Error("scheduler client failed", "error", err)
			os.Exit(1)
		}
		defer schedulerClient.Close()
	} else {
		log.Warn("REDIS_URL not set, running without queue and requester rate limiting")
	}

	// Optional AI scorer: without it every score uses the deterministic
	// rubric.
	var assessor service.Assessor
	if cfg.IsAIScoringEnabled() {
		aiClient, err := ai.New(ctx, cfg)
		if err != nil {
			log.Error("gemini client failed", "error", err)
			os.Exit(1)
		}
		assessor = aiClient
	} else {
		log.Warn("GEMINI_API_KEY not set, scoring runs on the deterministic rubric only")
	}

	ledgerModule := ledger.NewModule(pool, bus, validate, log)
	entitlementRepo := unlockrepo.New(pool, ledgerModule.Repository())

	scoringModule := scoring.NewModule(cfg.GetPhoneRegion(), assessor, cfg.GetAIScoringTimeout(), validate, log)
	prospectsModule := prospects.NewModule(pool, entitlementRepo, scoringModule.Service(), bus, cfg.GetPhoneRegion(), validate, log)
	unlockModule := unlock.NewModule(entitlementRepo, ledgerModule.Service(), prospectsModule.Service(), bus, cfg.GetUnlockCostCredits(), validate, log)

	// Assign through the interface only when a client exists, so a nil
	// *scheduler.Client never hides inside a non-nil interface value.
	var enqueuer enghandler.Enqueuer
	if schedulerClient != nil {
		enqueuer = schedulerClient
	}
	engagementModule := engagement.NewModule(pool, enqueuer, bus, validate, log)
	engagementModule.RegisterHandlers(bus)

	app := &apphttp.App{
		Config:        cfg,
		Logger:        log,
		Health:        pool,
		EventBus:      bus,
		UnlockLimiter: httpkit.NewRequesterRateLimiter(redisClient, cfg.GetUnlockRateLimitPerMinute(), log),
		Modules: []apphttp.Module{
			scoringModule,
			prospectsModule,
			unlockModule,
			ledgerModule,
			engagementModule,
		},
	}

	server := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.GetHTTPAddr(), "env", cfg.GetEnvironment())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
}

// withRetry runs fn with exponential backoff, giving dependencies time to
// come up during deploys.
func withRetry(ctx context.Context, log *logger.Logger, name string, fn func() error) error {
	const attempts = 5
	delay := time.Second

	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		log.Warn(name+" failed, retrying", "attempt", i, "delay", delay.String(), "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return err
}
