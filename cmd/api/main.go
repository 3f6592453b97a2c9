package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escapecall/internal/config"
	"escapecall/internal/httpapi"
	"escapecall/internal/reporting"
	"escapecall/internal/scheduler"
	"escapecall/internal/telephony"
	"escapecall/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	provider := telephony.NewTwilioProvider(telephony.TwilioConfig{
		AccountSID:        cfg.Twilio.AccountSID,
		AuthToken:         cfg.Twilio.AuthToken,
		FromNumber:        cfg.Twilio.FromNumber,
		Timeout:           cfg.Twilio.Timeout,
		RequestsPerSecond: cfg.Twilio.RateLimitRPS,
	})
	if err := provider.HealthCheck(rootCtx); err != nil {
		log.Error("telephony init failed", "err", err)
		os.Exit(1)
	}

	sched := scheduler.New(provider, scheduler.Config{
		DefaultMessage: cfg.Scheduler.DefaultMessage,
		RetentionCap:   cfg.Scheduler.RetentionCap,
		GatewayTimeout: cfg.Twilio.Timeout,
		Location:       cfg.Location(),
	}, log)
	sched.Start()

	handlers := httpapi.Handlers{
		Scheduler:      sched,
		Provider:       provider,
		Reports:        reporting.NewService(sched),
		DefaultMessage: cfg.Scheduler.DefaultMessage,
	}

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, handlers)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env, "provider", provider.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
	sched.Stop(shutdownCtx)
}
