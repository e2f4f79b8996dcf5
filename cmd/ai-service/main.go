package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/soaringjerry/Clearlabel/internal/aiservice"
	"github.com/soaringjerry/Clearlabel/internal/config"
	"github.com/soaringjerry/Clearlabel/internal/logger"
)

func main() {
	configDir := flag.String("config", "configs", "directory holding config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format).Named("ai_service")
	defer func() { _ = log.Sync() }()

	var llm aiservice.Completer
	if c := aiservice.NewChatClient(cfg.LLM, &http.Client{}); c != nil {
		llm = c
		log.Info("language model enabled", zap.String("model", cfg.LLM.Model))
	} else {
		log.Warn("llm.api_key not set, serving static questions and rule based scores only")
	}

	srv := &http.Server{
		Addr:         cfg.AI.ListenAddress,
		Handler:      aiservice.NewServer(aiservice.NewService(llm, log), cfg.App.Version, log).Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 10*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("ai service listening", zap.String("address", cfg.AI.ListenAddress))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
