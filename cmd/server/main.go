package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pausemo/api/internal/config"
	"github.com/pausemo/api/internal/content"
	"github.com/pausemo/api/internal/database"
	"github.com/pausemo/api/internal/handler"
	"github.com/pausemo/api/internal/jobs"
	"github.com/pausemo/api/internal/lock"
	"github.com/pausemo/api/internal/logger"
	"github.com/pausemo/api/internal/middleware"
	"github.com/pausemo/api/internal/repository"
	"github.com/pausemo/api/internal/service"
	"github.com/pausemo/api/migrations"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Initialize structured logging
	log, err := logger.New(logger.Options{
		Env:      cfg.Server.Env,
		Level:    cfg.Log.Level,
		Redact:   cfg.Log.Redact,
		HashSalt: cfg.Log.HashSalt,
	})
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Error("invalid timezone", "timezone", cfg.Engine.Timezone, "error", err)
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Namespace:       cfg.Database.Namespace,
		Database:        cfg.Database.Database,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	}, log)

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	log.Info("connected to database",
		"host", cfg.Database.Host,
		"database", cfg.Database.Database,
	)

	if cfg.Database.AutoMigrate {
		n, err := database.Migrate(ctx, db, migrations.Files, log)
		if err != nil {
			log.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		log.Info("schema up to date", "applied", n)
	}

	// Starter card catalog
	catalog, err := loadCatalog(cfg.Engine.CatalogPath)
	if err != nil {
		log.Error("failed to load card catalog", "path", cfg.Engine.CatalogPath, "error", err)
		os.Exit(1)
	}
	log.Info("card catalog loaded", "version", catalog.Version())

	// Keyed lock for effectiveness writes
	var locker service.KeyedLocker
	if cfg.UseRedis() {
		rdb := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Error("failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
			os.Exit(1)
		}
		locker = lock.NewRedisLocker(lock.RedisLockerConfig{
			Client: rdb,
			TTL:    cfg.Redis.LockTTL,
			Logger: log,
		})
		log.Info("using redis locks", "addr", cfg.Redis.Addr)
	} else {
		locker = lock.NewMemoryLocker()
		log.Info("using in-process locks")
	}

	// Initialize repositories
	cardRepo := repository.NewCardRepository(db)
	topicRepo := repository.NewTopicRepository(db)
	responseRepo := repository.NewResponseRepository(db)
	presentationRepo := repository.NewPresentationRepository(db)
	diagnosisRepo := repository.NewDiagnosisRepository(db)

	// Initialize services
	clock := service.SystemClock{}
	diagnosisService := service.NewDiagnosisService(service.DiagnosisServiceConfig{
		DiagnosisRepo: diagnosisRepo,
		Clock:         clock,
		Logger:        log,
	})
	topicService := service.NewTopicService(service.TopicServiceConfig{
		TopicRepo: topicRepo,
		CardRepo:  cardRepo,
		Catalog:   catalog,
		Clock:     clock,
		Logger:    log,
	})
	cardSelector := service.NewCardSelector(service.CardSelectorConfig{CardRepo: cardRepo})
	efficiencyService := service.NewEfficiencyService(service.EfficiencyServiceConfig{
		CardRepo:         cardRepo,
		ResponseRepo:     responseRepo,
		PresentationRepo: presentationRepo,
		Locker:           locker,
		Clock:            clock,
		Logger:           log,
	})
	questService := service.NewQuestService(service.QuestServiceConfig{
		TopicRepo:   topicRepo,
		Clock:       clock,
		Location:    loc,
		MaxAttempts: cfg.Engine.ProgressAttempts,
		Backoff:     cfg.Engine.ProgressBackoff,
		Logger:      log,
	})

	// Efficiency worker (recomputes cards answered in sessions)
	efficiencyWorker := jobs.NewEfficiencyWorker(jobs.EfficiencyWorkerConfig{
		Recomputer:  efficiencyService,
		Interval:    cfg.Engine.EfficiencyInterval,
		MaxAttempts: cfg.Engine.EfficiencyMaxAttempts,
		Backoff:     cfg.Engine.EfficiencyBackoff,
		Logger:      log,
	})
	efficiencyWorker.Start()
	defer efficiencyWorker.Stop()

	sessionManager := service.NewSessionManager(service.SessionManagerConfig{
		TopicRepo:        topicRepo,
		CardRepo:         cardRepo,
		ResponseRepo:     responseRepo,
		PresentationRepo: presentationRepo,
		DiagnosisRepo:    diagnosisRepo,
		Selector:         cardSelector,
		Progress:         questService,
		Efficiency:       efficiencyWorker,
		Clock:            clock,
		Location:         loc,
		GapMinimum:       cfg.Engine.GapMinimum,
		TTL:              cfg.Engine.SessionTTL,
		Logger:           log,
	})

	// Daily streak maintenance
	streakJob := jobs.NewStreakResetJob(questService, loc, log)
	streakJob.Start()
	defer streakJob.Stop()

	// Idle session sweeper
	sweeper := jobs.NewSessionSweeper(sessionManager, cfg.Engine.SweepInterval, log)
	sweeper.Start()
	defer sweeper.Stop()

	// Rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  cfg.RateLimit.Burst,
	})
	defer rateLimiter.Stop()

	// Create router and register routes
	mux := http.NewServeMux()
	handler.Register(mux, handler.Handlers{
		Health:    handler.NewHealthHandler(db),
		Diagnosis: handler.NewDiagnosisHandler(diagnosisService),
		Topic:     handler.NewTopicHandler(topicService, cardSelector),
		Session:   handler.NewSessionHandler(sessionManager),
		Card:      handler.NewCardHandler(efficiencyService),
	})

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.RateLimit(rateLimiter),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("starting server",
			"port", cfg.Server.Port,
			"env", cfg.Server.Env,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		log.Error("server error", "error", err)
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited", "open_sessions", sessionManager.ActiveCount())
}

func loadCatalog(path string) (*content.Catalog, error) {
	if path == "" {
		return content.Default()
	}
	return content.Load(path)
}
