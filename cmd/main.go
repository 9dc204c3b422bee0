package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"convo/internal/app/bus"
	"convo/internal/app/presence"
	"convo/internal/app/rooms"
	"convo/internal/app/server"
	"convo/internal/config"
	"convo/internal/core/services"
	"convo/internal/platform/logger"
	"convo/internal/platform/telemetry"
	"convo/internal/plugins/postgres"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	log := logger.NewLogger(*cfg)
	log.Info("starting application")

	otelShutdown, err := telemetry.InitTelemetry(ctx, *cfg)
	if err != nil {
		log.Error("failed to initialize telemetry", "err", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			log.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// Infra
	var pdb *sql.DB
	if pdb, err = postgres.New(ctx, *cfg.Postgres); err != nil {
		log.Error("postgres connection failed", "DSN", cfg.Postgres.DSN, "err", err)
		return
	}
	log.Info("postgres connected")
	defer pdb.Close()

	// Adapters
	userStore := postgres.NewUserStore(pdb)
	groupStore := postgres.NewGroupStore(pdb)
	msgStore := postgres.NewMessageStore(pdb)

	// Realtime core
	reg := presence.NewRegistry()
	router := rooms.NewRouter()
	txManager := services.NewTxManager(pdb)
	userSvc := services.NewUserService(log, userStore)
	groupSvc := services.NewGroupService(log, groupStore, txManager)
	b := bus.New(log, reg, router, groupSvc)
	delivery := services.NewDeliveryService(log, userStore, groupStore, msgStore, b, txManager)
	tokenSvc := services.NewTokenService(cfg.SecretToken, cfg.Service.Name)

	go b.Run(ctx)

	srv := server.NewServer(log, cfg.Service.Name, cfg.Service.Addr, userSvc, tokenSvc, delivery, groupSvc, b)
	if err := srv.Start(ctx); err != nil {
		log.Error("server stopped", "err", err)
	}
}
