package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/api"
	"github.com/soaringjerry/Clearlabel/internal/cache"
	"github.com/soaringjerry/Clearlabel/internal/config"
	dbstore "github.com/soaringjerry/Clearlabel/internal/db"
	"github.com/soaringjerry/Clearlabel/internal/logger"
	"github.com/soaringjerry/Clearlabel/internal/middleware"
	"github.com/soaringjerry/Clearlabel/internal/services"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	migrationsDir := flag.String("migrations", "", "directory of .sql migrations (embedded set when empty)")
	migrateOnly := flag.Bool("migrate-only", false, "apply migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store api.Store
	switch cfg.Database.Driver {
	case config.DriverMemory:
		if *migrateOnly {
			log.Fatal("-migrate-only requires the postgres driver")
		}
		log.Warn("using in-memory store; data is lost on restart")
		store = api.NewMemoryStore(api.SeedQuestions())
	default:
		db, err := openPostgres(ctx, cfg.Database.Postgres, *migrationsDir, cfg.Database.MigrateOnStart || *migrateOnly, log)
		if err != nil {
			log.Fatal("postgres init failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		if *migrateOnly {
			log.Info("migrations complete, exiting")
			return
		}
		pg, err := dbstore.NewPostgresStore(db)
		if err != nil {
			log.Fatal("postgres store init failed", zap.Error(err))
		}
		store = pg
	}

	var questionCache services.QuestionCache
	if cfg.Redis.Enabled {
		rc := cache.NewRedis(cfg.Redis)
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, question cache disabled", zap.Error(err))
			_ = rc.Close()
		} else {
			defer func() { _ = rc.Close() }()
			questionCache = rc
			log.Info("redis question cache enabled", zap.String("address", cfg.Redis.Address))
		}
	}

	gateway := services.NewGateway(services.GatewayConfig{
		BaseURL: cfg.AI.ServiceURL,
		Timeout: cfg.AI.Timeout,
	}, &http.Client{}, questionCache, log.Named("ai_gateway"))

	router := api.NewRouter(api.Options{
		Store:         store,
		Gateway:       gateway,
		Auth:          middleware.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		TokenTTL:      cfg.Auth.TokenTTL,
		EnrichReports: cfg.AI.EnrichReports,
		CORSOrigins:   cfg.Server.CORSOrigins,
		Version:       cfg.App.Version,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("clearlabel server listening",
			zap.String("address", cfg.Server.Address),
			zap.String("environment", cfg.App.Environment),
			zap.String("database", cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
