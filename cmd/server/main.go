package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/wellnesslog/internal/config"
	"github.com/wellnesslog/internal/db"
	"github.com/wellnesslog/internal/handler"
	"github.com/wellnesslog/internal/logging"
	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/router"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat, "wellnesslog")

	// 初始化数据库
	if err := db.Init(db.Options{Path: cfg.DatabasePath, URL: cfg.DatabaseURL}); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	store, err := predictor.NewFileStore(cfg.ModelDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare model directory")
	}
	opts := predictor.DefaultOptions()
	opts.RetrainEvery = cfg.ModelRetrainEvery
	opts.TrainTimeout = cfg.ModelTrainTimeout
	models := predictor.New(store, opts, log)
	models.LoadModels()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := handler.NewAPI(handler.Options{
		DB:          db.DB,
		Models:      models,
		Logger:      log,
		DefaultUser: cfg.DefaultUserID,
	})
	go bootstrapModels(ctx, api, models, cfg.DefaultUserID, log)

	if cfg.ModelWatch {
		go func() {
			err := store.Watch(ctx, func(kind predictor.Kind) {
				if err := models.Reload(kind); err != nil {
					log.Warn().Err(err).Str("kind", string(kind)).Msg("reload model failed")
					return
				}
				log.Info().Str("kind", string(kind)).Msg("model reloaded")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("model watcher stopped")
			}
		}()
	}

	// 设置并运行 Gin 服务器
	gin.SetMode(cfg.GinMode)
	r := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		CORSOrigin:    cfg.CORSOrigin,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.ListenAddr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to run server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server stopped")
}

// bootstrapModels 在没有持久化模型时，用默认用户已有的记录训练一次。
func bootstrapModels(ctx context.Context, api *handler.API, models *predictor.Predictor, userID string, log zerolog.Logger) {
	status := models.Status()
	if status.ScoreModelTrained && status.SequenceModelTrained {
		return
	}
	history, err := api.Entries().List(ctx, userID)
	if err != nil {
		log.Warn().Err(err).Msg("load history for bootstrap training failed")
		return
	}
	outcome := models.MaybeTrain(ctx, history)
	log.Info().
		Int("entries", len(history)).
		Bool("score_trained", outcome.ScoreTrained).
		Bool("sequence_trained", outcome.SequenceTrained).
		Msg("bootstrap training finished")
}
