package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "rccafe/docs"
	"rccafe/internal/config"
	"rccafe/internal/logger"
	"rccafe/internal/router"
	"rccafe/internal/storage"
	"rccafe/internal/tasks"
	"rccafe/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// @Title						RC Cafe venue API
// @Description				Bookings, memberships, loyalty points and live session timers
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	config.Set(cfg)
	logger.Init(cfg.LogLevel, cfg.LogPretty)
	if !cfg.LogPretty {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := storage.ConnectDatabase(cfg.DB); err != nil {
		log.Fatal().Err(err).Msg("connecting database")
	}
	if err := storage.Migrate(storage.DB); err != nil {
		log.Fatal().Err(err).Msg("migrating database")
	}

	storage.InitRedis(cfg.Redis)

	scheduler := tasks.InitScheduler()

	stopHub := make(chan struct{})
	go ws.HubInstance.Run(stopHub)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	<-scheduler.Stop().Done()
	close(stopHub)

	if storage.RedisClient != nil {
		_ = storage.RedisClient.Close()
	}
	if sqlDB, err := storage.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
