package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"legato-ledger-go/internal/common"
	"legato-ledger-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	demoFlag := flag.Bool("demo", false, "Seed demo users (two writers, one reader with starter coins)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet, config drives its sink
		log.Fatalf("Failed to load config: %v", err)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Logging)
	defer loggerCleanup()

	if *demoFlag {
		cfg.Database.CreateDemoUsers = true
	}

	zap.L().Info("Initializing ledger database",
		zap.String("path", cfg.Database.Path),
		zap.Bool("demo_users", cfg.Database.CreateDemoUsers))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	users, err := services.DbService.GetUsers(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read users from database", zap.Error(err))
	}

	common.PrintHeader("LEDGER SETUP", common.DefaultWidth)
	fmt.Printf("Database:     %s\n", cfg.Database.Path)
	fmt.Printf("Pricing file: %s\n", cfg.Pricing.File)
	fmt.Printf("Currency:     %s\n", services.Pricing.Currency)
	fmt.Printf("Users:        %d\n", len(users))
	fmt.Println()

	fmt.Println("Content pricing:")
	for contentType, content := range services.Pricing.Content {
		tier := content.SubscriberTier
		if tier == "" {
			tier = "none"
		}
		fmt.Printf("  %-12s %6d coins (subscriber tier: %s)\n", contentType, content.Coins, tier)
	}
	fmt.Println()

	fmt.Println("Revenue splits:")
	for distributionType, split := range services.Pricing.Splits {
		fmt.Printf("  %-20s writer %d%% / platform %d%%\n", distributionType, split.Writer, split.Platform)
	}
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Setup complete",
		zap.Int("users", len(users)),
		zap.Int("content_types", len(services.Pricing.Content)),
		zap.Int("split_types", len(services.Pricing.Splits)))
}
