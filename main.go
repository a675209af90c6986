package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unitcost/config"
	"unitcost/estimates"
	"unitcost/models"
	"unitcost/observability"
	"unitcost/scraper/portal"
	"unitcost/scraper/rates"
	"unitcost/services"
	"unitcost/storage"
	"unitcost/utils"
)

func main() {
	cfg := config.Load()
	logger := utils.NewLoggerWithLevel(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("=== Unit cost engine starting ===")

	if cfg.MetricsAddr != "" {
		observability.Start(cfg.MetricsAddr, logger)
		logger.Info("Metrics served on %s/metrics", cfg.MetricsAddr)
	}

	table, err := loadTable(cfg)
	if err != nil {
		logger.Error("Failed to load estimates table: %v", err)
		os.Exit(1)
	}
	logger.Info("Estimates table %s loaded (%d entries)", table.Version(), table.Len())

	buyer, err := buyerContext(cfg)
	if err != nil {
		logger.Error("Invalid buyer criteria: %v", err)
		os.Exit(1)
	}

	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		if !cfg.UseCacheOnFailure {
			os.Exit(1)
		}
	} else {
		defer store.Close()
	}

	var cache *storage.RedisCache
	if cfg.RedisAddr != "" {
		cache, err = storage.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
		if err != nil {
			logger.Warn("Redis unavailable, running without cache: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	if cfg.ScrapeOnStart && store != nil {
		refreshUnits(ctx, cfg, logger, store)
	}

	units, err := loadUnits(ctx, cfg, logger, store, cache)
	if err != nil {
		logger.Error("No units available: %v", err)
		os.Exit(1)
	}

	rate := loadRate(ctx, cfg, logger, cache)

	var history map[string]models.PriorState
	if store != nil {
		history, err = store.FetchPreviousDayStates(ctx, time.Now())
		if err != nil {
			logger.Warn("Previous-day states unavailable, change counts will be zero: %v", err)
			history = nil
		}
	}

	provider := estimates.NewProvider(table)
	normalizer := services.NewNormalizer(provider, logger)
	matcher := services.NewMatcher(normalizer, logger)
	aggregator := services.NewSnapshotAggregator(logger)
	reports := services.NewReportBuilder(logger)

	observability.RecordBreakdowns(normalizer.NormalizeAll(units))

	result := matcher.Rank(units, buyer, cfg.MatchLimit)
	observability.RecordRank(result)

	snapshot := aggregator.Snapshot(units, history, rate)
	observability.RecordSnapshot(snapshot)

	report := reports.Build(buyer, result, snapshot)
	reports.Print(os.Stdout, report)

	if err := writeMatches(cfg.CSVOutputPath, result.Matches); err != nil {
		logger.Error("CSV export failed: %v", err)
	} else {
		logger.Info("Matches exported to %s", cfg.CSVOutputPath)
	}

	if store != nil {
		if err := store.RecordStates(ctx, units, time.Now()); err != nil {
			logger.Error("Failed to record daily states: %v", err)
		}
	}

	fmt.Printf("  Done. Report %s | %d matches (%s)\n\n", report.ID, len(result.Matches), result.Status)
}

func loadTable(cfg *config.Config) (*estimates.Table, error) {
	if cfg.EstimatesFile == "" {
		return estimates.DefaultTable(), nil
	}
	return estimates.LoadFile(cfg.EstimatesFile)
}

func buyerContext(cfg *config.Config) (models.BuyerContext, error) {
	buyer := models.BuyerContext{
		MaxBudget:   models.FromMajor(cfg.BuyerMaxBudget),
		BudgetBasis: models.BudgetBasis(cfg.BuyerBudgetBasis),
		Bedrooms:    cfg.BuyerBedrooms,
		MinAreaM2:   cfg.BuyerMinAreaM2,
		Amenities:   cfg.BuyerAmenities,
	}
	switch buyer.BudgetBasis {
	case models.BudgetMonthly, models.BudgetUpfront:
	default:
		return buyer, fmt.Errorf("unknown budget basis %q", cfg.BuyerBudgetBasis)
	}
	if cfg.BuyerZone != "" {
		zone, err := models.ParseZone(cfg.BuyerZone)
		if err != nil {
			return buyer, err
		}
		buyer.TargetZone = zone
	}
	return buyer, nil
}

// refreshUnits scrapes the listing portal and stores the cleaned units.
// When the scrape covered every result page, stored units that are no
// longer listed are marked withdrawn.
func refreshUnits(ctx context.Context, cfg *config.Config, logger *utils.Logger, store *storage.PostgresStore) {
	scraper := portal.New(cfg, logger)
	raw, err := scraper.Scrape(ctx)
	if err != nil {
		logger.Error("Portal scrape failed: %v", err)
	}
	if len(raw) == 0 {
		logger.Warn("No units scraped, using stored inventory")
		return
	}

	units := services.NewCleaner(logger).Clean(raw)
	if err := store.UpsertUnits(ctx, units); err != nil {
		logger.Error("Failed to store scraped units: %v", err)
		return
	}
	logger.Info("Stored %d scraped units", len(units))

	if err != nil || !scraper.Exhausted() {
		logger.Info("Partial scrape, withdrawal detection skipped")
		return
	}
	n, err := store.MarkMissingWithdrawn(ctx, services.UnitIDs(raw))
	if err != nil {
		logger.Error("Failed to mark withdrawn units: %v", err)
		return
	}
	logger.Info("Marked %d delisted units as withdrawn", n)
}

// loadUnits reads inventory from Postgres. Cached units are used only when
// the store is unavailable and the cache fallback is enabled.
func loadUnits(ctx context.Context, cfg *config.Config, logger *utils.Logger, store *storage.PostgresStore, cache *storage.RedisCache) ([]models.Unit, error) {
	err := storage.ErrDataUnavailable
	if store != nil {
		var units []models.Unit
		units, err = store.FetchUnits(ctx, storage.UnitFilter{})
		if err == nil {
			if cache != nil {
				if cerr := cache.SaveUnits(ctx, units); cerr != nil {
					logger.Warn("Failed to cache units: %v", cerr)
				}
			}
			logger.Info("Loaded %d units from PostgreSQL", len(units))
			return units, nil
		}
	}

	if !errors.Is(err, storage.ErrDataUnavailable) || !cfg.UseCacheOnFailure || cache == nil {
		return nil, err
	}
	units, cerr := cache.LoadUnits(ctx)
	if cerr != nil {
		return nil, fmt.Errorf("%w (cache: %v)", err, cerr)
	}
	logger.Warn("Using %d cached units", len(units))
	return units, nil
}

// loadRate fetches the current quotes. Without a usable rate the snapshot
// falls back to nominal prices and is marked degraded.
func loadRate(ctx context.Context, cfg *config.Config, logger *utils.Logger, cache *storage.RedisCache) models.ExchangeRate {
	fetcher := rates.New(rates.Config{
		URL:              cfg.RatesURL,
		ParallelSelector: cfg.ParallelRateSelector,
		OfficialSelector: cfg.OfficialRateSelector,
		OfficialFallback: cfg.OfficialRateFallback,
		Timeout:          cfg.RatesTimeout,
	}, logger)

	rate, err := fetcher.FetchExchangeRate(ctx)
	if err != nil {
		logger.Warn("Exchange rate unavailable: %v", err)
		if cfg.UseCacheOnFailure && cache != nil {
			if cached, cerr := cache.LoadRate(ctx); cerr == nil {
				logger.Warn("Using cached exchange rate from %s", cached.Timestamp.Format(time.RFC3339))
				return cached
			}
		}
		return models.ExchangeRate{}
	}

	if cache == nil {
		return rate
	}
	prev, err := cache.ParallelAt(ctx, rate.Timestamp.Add(-24*time.Hour))
	if err != nil {
		logger.Warn("Rate history unavailable: %v", err)
	}
	rate.PreviousParallel = prev
	if err := cache.SaveRate(ctx, rate); err != nil {
		logger.Warn("Failed to cache exchange rate: %v", err)
	}
	return rate
}

func writeMatches(path string, matches []models.ScoredMatch) error {
	csvWriter, err := storage.NewCSVWriter(path)
	if err != nil {
		return err
	}
	return export(csvWriter, matches)
}

func export(w storage.MatchWriter, matches []models.ScoredMatch) error {
	if err := w.WriteMatches(matches); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
