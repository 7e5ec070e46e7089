package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"randomchat/backend/internal/api/handler"
	"randomchat/backend/internal/auth"
	"randomchat/backend/internal/chathub"
	"randomchat/backend/internal/config"
	"randomchat/backend/internal/logger"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	// 1. Chat engine and its background reaper
	hub := chathub.NewManagerService(chathub.Options{
		Logger:   zl,
		Settings: chathub.SettingsFromConfig(cfg),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		hub.Run(ctx)
	}()

	// 2. HTTP routing
	gin.SetMode(cfg.GinMode)
	signer := auth.NewSigner(cfg.JWTSecret, config.CredentialTTL, time.Now)
	h := handler.NewHandler(hub, signer, zl)
	r := handler.NewRouter(h)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Streams stay open indefinitely.
		WriteTimeout:   0,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
		BaseContext:    func(net.Listener) context.Context { return ctx },
	}

	go func() {
		zl.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("forced shutdown", zap.Error(err))
	}
	<-reaperDone
	zl.Info("server exited")
}
