package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mpetrov/glucolog/internal/config"
	"github.com/mpetrov/glucolog/internal/database"
	"github.com/mpetrov/glucolog/internal/domain"
	apperrors "github.com/mpetrov/glucolog/internal/errors"
	"github.com/mpetrov/glucolog/internal/healthapi"
	"github.com/mpetrov/glucolog/internal/logger"
	"github.com/mpetrov/glucolog/internal/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Glucolog...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.InitWithConfig(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	db, err := database.NewSQLiteDB(cfg.DB)
	if err != nil {
		logger.Fatalf("Failed to open database: %v", err)
	}
	logger.Info("Database opened and migrations completed", "path", cfg.DB.Path)

	readingService := services.NewReadingService(db)
	settingsService, err := services.NewSettingsService(db)
	if err != nil {
		logger.Fatalf("Failed to load settings: %v", err)
	}
	settingsService.Subscribe(func(ranges domain.BloodGlucoseRanges) {
		logger.Info("Glucose thresholds changed",
			"low", ranges.EffectiveLow(),
			"high", ranges.EffectiveHigh(),
			"custom", ranges.UseCustomRanges)
	})
	logger.Info("Services initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Sync.Enabled && cfg.Dexcom.Username != "" {
		if err := settingsService.SetSyncEnabled(ctx, true); err != nil {
			logger.Fatalf("Failed to enable sync: %v", err)
		}
		source := healthapi.NewDexcomClient(cfg.Dexcom.Username, cfg.Dexcom.Password)
		importService := services.NewImportService(source, readingService, settingsService)
		go runSyncLoop(ctx, importService, settingsService, cfg.Sync.Interval)
		logger.Info("Health sync loop started", "source", source.Name(), "interval", cfg.Sync.Interval)
	} else {
		logger.Info("Health sync disabled")
	}

	logger.Info("Glucolog is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	logger.Info("Shutting down")
}

func runSyncLoop(ctx context.Context, importer *services.ImportService, settings *services.SettingsService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	errHandler := apperrors.NewHandler(logger.GetLogger())

	for {
		if settings.SyncEnabled() {
			result, err := importer.Sync(ctx, time.Time{}, time.Now(), nil)
			if err != nil {
				errHandler.Handle(ctx, err)
				logger.Warn("Import aborted", "imported_before_failure", result.Imported)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
