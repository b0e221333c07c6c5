package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"bnb-living-costs/config"
	"bnb-living-costs/scraper/costofliving"
	"bnb-living-costs/services"
	"bnb-living-costs/storage"
	"bnb-living-costs/utils"
)

func main() {
	fetch := flag.Bool("fetch", false, "refresh cost-of-living indicators before the run")
	dataDir := flag.String("data", "", "override DATA_DIR")
	outDir := flag.String("out", "", "override OUTPUT_DIR")
	flag.Parse()

	cfg := config.Load()
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	logger := utils.NewLogger(cfg.LogLevel)
	registry := config.DefaultRegistry()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("=== Rental price vs cost of living analysis starting ===")
	logger.Info("Config: data: %s | output: %s | outlier filter: %v (%s) | postgres: %v",
		cfg.DataDir, cfg.OutputDir, cfg.FilterOutliers, cfg.OutlierColumn, cfg.PostgresEnabled)

	store := storage.NewJSONStore(cfg.ListingsDir(), cfg.IndicatorsDir())

	if *fetch {
		if cfg.RapidAPIKey == "" {
			logger.Error("RAPIDAPI_KEY is required with -fetch")
			os.Exit(1)
		}
		client := costofliving.New(cfg, logger)
		if err := client.FetchAll(ctx, registry, store); err != nil {
			logger.Error("Indicator fetch failed: %v", err)
			os.Exit(1)
		}
	}

	pipeline := services.NewPipeline(registry, store, store, services.PipelineOptions{
		FilterOutliers: cfg.FilterOutliers,
		OutlierColumn:  cfg.OutlierColumn,
	}, logger)

	result, err := pipeline.Run(ctx)
	if err != nil {
		logger.Error("Run aborted: %v", err)
		os.Exit(1)
	}

	services.NewReportPrinter(os.Stdout).Print(result)

	csvWriter, err := storage.NewCSVWriter(cfg.OutputDir)
	if err != nil {
		logger.Error("Failed to create CSV writer: %v", err)
		os.Exit(1)
	}
	xlsxWriter, err := storage.NewXLSXWriter(cfg.XLSXOutputPath)
	if err != nil {
		logger.Error("Failed to create XLSX writer: %v", err)
		os.Exit(1)
	}
	writers := []storage.ResultWriter{csvWriter, xlsxWriter}

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			logger.Error("Make sure Docker is running: docker compose up -d")
			os.Exit(1)
		}
		writers = append(writers, pgWriter)
	}

	failed := false
	for _, w := range writers {
		if err := w.Write(result); err != nil {
			logger.Error("Write failed: %v", err)
			failed = true
		}
	}

	if pgWriter != nil && !failed {
		stored, err := pgWriter.FetchListings(result.RunID)
		if err != nil {
			logger.Warn("Could not read back run %s: %v", result.RunID, err)
		} else {
			logger.Info("PostgreSQL holds %d listings for run %s", len(stored), result.RunID)
		}
	}

	for _, w := range writers {
		if err := w.Close(); err != nil {
			logger.Warn("Close failed: %v", err)
		}
	}
	if failed {
		os.Exit(1)
	}

	fmt.Printf("  Done. CSV → %s | XLSX → %s\n\n", cfg.OutputDir, cfg.XLSXOutputPath)
}
