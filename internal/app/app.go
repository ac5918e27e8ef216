// Package app wires repositories, storage, caches and services from config.
package app

import (
	"fmt"

	"github.com/andresuchdata/locallens/internal/cache"
	"github.com/andresuchdata/locallens/internal/config"
	"github.com/andresuchdata/locallens/internal/forecast"
	"github.com/andresuchdata/locallens/internal/repository"
	"github.com/andresuchdata/locallens/internal/service"
	"github.com/andresuchdata/locallens/internal/storage"
	"github.com/andresuchdata/locallens/internal/trend"
	"github.com/andresuchdata/locallens/internal/triage"
	"github.com/rs/zerolog/log"
)

type App struct {
	DB        *repository.DB
	Models    *forecast.ModelRepository
	Triage    *service.TriageService
	Inventory *service.InventoryService
	Trends    *service.TrendService
}

// New builds the services on top of an open database.
func New(cfg *config.Config, db *repository.DB) (*App, error) {
	models, err := NewModelRepository(cfg)
	if err != nil {
		return nil, err
	}

	synth, err := newSynthesizer(cfg.Forecast)
	if err != nil {
		return nil, err
	}

	forecasts, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("forecast cache unavailable, falling back to memory")
		forecasts = cache.NewMemoryForecastCache()
	}

	runner := forecast.NewRunner(models, synth, cfg.Forecast.HorizonDays).SetWorkers(cfg.Forecast.Workers)

	catalog := repository.NewCatalogRepository(db)
	inventory := repository.NewInventoryRepository(db)

	return &App{
		DB:     db,
		Models: models,
		Triage: service.NewTriageService(service.TriageDeps{
			Catalog:     catalog,
			Stock:       repository.NewStockRepository(db),
			Sales:       inventory,
			Runner:      runner,
			Models:      models,
			Forecasts:   forecasts,
			Allocator:   triage.NewAllocator(cfg.Forecast.StoreDivisor),
			HistoryDays: cfg.Forecast.HistoryDays,
		}),
		Inventory: service.NewInventoryService(catalog, inventory),
		Trends:    service.NewTrendService(catalog, repository.NewTrendRepository(db), synth),
	}, nil
}

// NewModelRepository opens the configured artifact store.
func NewModelRepository(cfg *config.Config) (*forecast.ModelRepository, error) {
	store, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to init model storage: %w", err)
	}
	return forecast.NewModelRepository(store, cfg.Storage.ModelsPrefix, forecast.NewModelCache()), nil
}

func newSynthesizer(cfg config.ForecastConfig) (*trend.Synthesizer, error) {
	table := trend.DefaultTable()
	if cfg.ShapesFile != "" {
		loaded, err := trend.LoadTable(cfg.ShapesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load trend shapes: %w", err)
		}
		table = loaded
	}
	return trend.NewSynthesizer(table, trend.NewNoiseSource(cfg.NoiseSeed), cfg.NoiseStdDev), nil
}
