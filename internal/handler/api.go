package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/wellnesslog/internal/predictor"
	"github.com/wellnesslog/internal/service"
	"github.com/wellnesslog/internal/wellness"
)

// modelProvider 是处理器使用的预测能力，由 predictor.Predictor 实现。
type modelProvider interface {
	service.Scorer
	ForecastNext(recent []wellness.Entry) predictor.Forecast
	Train(ctx context.Context, history []wellness.Entry) (predictor.TrainOutcome, error)
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db          *gorm.DB
	entries     *service.EntryService
	profiles    *service.ProfileService
	exports     *service.ExportService
	models      modelProvider
	log         zerolog.Logger
	defaultUser string
	now         func() time.Time
}

// Options 描述构造 API 所需的依赖。
type Options struct {
	DB          *gorm.DB
	Models      modelProvider
	Logger      zerolog.Logger
	DefaultUser string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	defaultUser := opts.DefaultUser
	if defaultUser == "" {
		defaultUser = "default_user"
	}
	return &API{
		db:          opts.DB,
		entries:     service.NewEntryService(opts.DB, opts.Models, opts.Logger),
		profiles:    service.NewProfileService(opts.DB),
		exports:     service.NewExportService(),
		models:      opts.Models,
		log:         opts.Logger.With().Str("component", "api").Logger(),
		defaultUser: defaultUser,
		now:         time.Now,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// Entries 返回记录服务，供脚本复用。
func (a *API) Entries() *service.EntryService {
	return a.entries
}
