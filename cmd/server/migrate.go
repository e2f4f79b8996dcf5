package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/config"
	dbstore "github.com/soaringjerry/Clearlabel/internal/db"
)

// retryWithBackoff runs op until it succeeds or maxRetries attempts fail,
// doubling the delay between attempts.
func retryWithBackoff(ctx context.Context, op func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, name string) error {
	var err error
	delay := initialDelay
	for i := 0; i < maxRetries; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}
		log.Warn(name+" failed, retrying",
			zap.Error(err),
			zap.Int("attempt", i+1),
			zap.Duration("next_retry_in", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, maxRetries, err)
}

// openPostgres connects with retries and applies pending migrations when
// migrate is set.
func openPostgres(ctx context.Context, cfg config.PostgresConfig, migrationsDir string, migrate bool, log *zap.Logger) (*sql.DB, error) {
	db, err := dbstore.Open(cfg)
	if err != nil {
		return nil, err
	}
	err = retryWithBackoff(ctx, func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	}, 8, time.Second, log, "postgres connection")
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("postgres connected", zap.String("host", cfg.Host), zap.String("database", cfg.Database))

	if !migrate {
		return db, nil
	}
	applied, err := dbstore.RunMigrations(ctx, db, migrationsDir)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if len(applied) > 0 {
		log.Info("migrations applied", zap.Strings("files", applied))
	} else {
		log.Info("schema up to date")
	}
	return db, nil
}
