package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"legato-ledger-go/internal/common"
	"legato-ledger-go/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// parseWeights parses "email=weight,email=weight" into writer ids.
func parseWeights(ctx context.Context, services *common.Services, arg string) (map[string]int64, error) {
	if arg == "" {
		return nil, fmt.Errorf("--weights is required, e.g. --weights writer1@example.com=3,writer2@example.com=1")
	}

	weights := make(map[string]int64)
	for _, pair := range strings.Split(arg, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid weight entry %q, expected email=weight", pair)
		}

		weight, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight for %s: %w", parts[0], err)
		}

		user, err := services.DbService.GetUserByEmail(ctx, parts[0])
		if err != nil {
			return nil, fmt.Errorf("resolving writer %s: %w", parts[0], err)
		}
		if user.Role != "writer" {
			return nil, fmt.Errorf("user %s is a %s, pool shares go to writers only", parts[0], user.Role)
		}

		weights[user.Id] = weight
	}
	return weights, nil
}

func main() {
	ctx := context.Background()

	poolFlag := flag.String("pool", "", "Subscription pool amount to distribute (required)")
	weightsFlag := flag.String("weights", "", "Comma-separated writer weights: email=weight,... (required)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.Logging)
	defer loggerCleanup()

	if *poolFlag == "" {
		zap.L().Fatal("--pool is required")
	}
	pool, err := decimal.NewFromString(*poolFlag)
	if err != nil {
		zap.L().Fatal("Invalid pool amount", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	weights, err := parseWeights(ctx, services, *weightsFlag)
	if err != nil {
		zap.L().Fatal("Invalid weights", zap.Error(err))
	}

	zap.L().Info("Distributing subscription pool",
		zap.String("pool", pool.String()),
		zap.Int("writers", len(weights)))

	result, err := services.Ledger.DistributeSubscriptionPool(ctx, pool, weights)
	if err != nil {
		zap.L().Fatal("Pool distribution failed", zap.Error(err))
	}

	common.PrintHeader("SUBSCRIPTION POOL DISTRIBUTION", common.DefaultWidth)
	fmt.Printf("Pool:     %s %s\n", result.Pool.String(), result.Currency)
	fmt.Printf("Writers:  %d\n", len(result.Shares))
	common.PrintBoxSeparator(78)
	for i, share := range result.Shares {
		symbol := common.BoxPrefix(i == len(result.Shares)-1)
		fmt.Printf("%s %-36s  weight %3d  gross %10s  writer %10s\n",
			symbol,
			share.WriterId,
			share.Weight,
			share.Gross.String(),
			share.WriterShare.String())
	}
	fmt.Println()
	fmt.Printf("Writer total:   %s\n", result.TotalWriterShare.String())
	fmt.Printf("Platform total: %s\n", result.TotalPlatformShare.String())
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("Subscription pool distributed",
		zap.String("writer_total", result.TotalWriterShare.String()),
		zap.String("platform_total", result.TotalPlatformShare.String()))
}
