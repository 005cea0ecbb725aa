package common

import (
	"context"
	"log"
	"os"
	"strings"

	"legato-ledger-go/internal/api"
	"legato-ledger-go/internal/database"
	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/pricing"
	"legato-ledger-go/internal/revenue"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
	}
}

type Services struct {
	DbService *database.Service
	Pricing   *pricing.Config
	Ledger    *api.LedgerService
}

func InitializeLogger(cfg models.LoggingConfig) (*zap.Logger, func()) {
	var logger *zap.Logger
	if cfg.File != "" {
		// Rotating file sink alongside stderr
		encoderCfg := zap.NewProductionEncoderConfig()
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
			}),
			zapcore.InfoLevel,
		)
		stderrCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(os.Stderr),
			zapcore.InfoLevel,
		)
		logger = zap.New(zapcore.NewTee(fileCore, stderrCore))
	} else {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the database, pricing catalog, split calculator,
// and ledger service together.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	catalog, err := pricing.Load(cfg.Pricing.File)
	if err != nil {
		dbService.Close()
		return nil, err
	}

	calculator := revenue.NewCalculator(splitTable(catalog))
	ledger := api.NewLedgerService(dbService, calculator, catalog)

	zap.L().Info("Services initialized",
		zap.String("database", cfg.Database.Path),
		zap.String("pricing_file", cfg.Pricing.File),
		zap.String("currency", catalog.Currency))

	return &Services{
		DbService: dbService,
		Pricing:   catalog,
		Ledger:    ledger,
	}, nil
}

// InitializeDatabaseOnly initializes just the database service.
// Useful for read-only operations like querying balances.
func InitializeDatabaseOnly(ctx context.Context, cfg *models.Config) (*database.Service, error) {
	dbService, err := database.NewService(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	return dbService, nil
}

func (cs *Services) Close() {
	if cs.DbService != nil {
		cs.DbService.Close()
	}
}

// splitTable converts the yaml split section into the calculator's table.
func splitTable(catalog *pricing.Config) revenue.SplitTable {
	table := revenue.SplitTable{Splits: make(map[string]revenue.Split, len(catalog.Splits))}
	for distributionType, split := range catalog.Splits {
		table.Splits[distributionType] = revenue.Split{
			WriterPercentage:   split.Writer,
			PlatformPercentage: split.Platform,
		}
	}
	if catalog.DefaultSplit != nil {
		table.Default = &revenue.Split{
			WriterPercentage:   catalog.DefaultSplit.Writer,
			PlatformPercentage: catalog.DefaultSplit.Platform,
		}
	}
	return table
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
