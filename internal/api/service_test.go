package api

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"legato-ledger-go/internal/database"
	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/pricing"
	"legato-ledger-go/internal/revenue"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func testPricingConfig(t *testing.T) *pricing.Config {
	t.Helper()
	cfg := &pricing.Config{
		Currency:  "USD",
		CoinValue: "0.01",
		Content: map[string]pricing.ContentConfig{
			"chapter":     {Coins: 10, SubscriberTier: "basic"},
			"story":       {Coins: 50, SubscriberTier: "premium"},
			"bonus_scene": {Coins: 25},
		},
		Tiers: []string{"basic", "premium", "vip"},
		Splits: map[string]pricing.SplitConfig{
			"content_purchase": {Writer: 80, Platform: 20},
			"subscription":     {Writer: 85, Platform: 15},
		},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Invalid test pricing config: %v", err)
	}
	return cfg
}

func setupTestService(t *testing.T) (*LedgerService, *database.Service) {
	t.Helper()

	dbService, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:            filepath.Join(t.TempDir(), "ledger_test.db"),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
		ConnMaxIdleTime: time.Minute,
		PingTimeout:     5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	t.Cleanup(dbService.Close)

	catalog := testPricingConfig(t)
	table := revenue.SplitTable{Splits: map[string]revenue.Split{}}
	for distributionType, split := range catalog.Splits {
		table.Splits[distributionType] = revenue.Split{
			WriterPercentage:   split.Writer,
			PlatformPercentage: split.Platform,
		}
	}

	return NewLedgerService(dbService, revenue.NewCalculator(table), catalog), dbService
}

func createTestUser(t *testing.T, dbService *database.Service, id, role string) {
	t.Helper()
	_, err := dbService.CreateUser(context.Background(), id, "User "+id, id+"@example.com", role)
	if err != nil {
		t.Fatalf("Failed to create test user %s: %v", id, err)
	}
}

// fundUser credits coins through a fake gateway confirmation.
func fundUser(t *testing.T, service *LedgerService, userId string, coins int64) {
	t.Helper()
	_, err := service.RecordCoinPurchase(context.Background(), userId, coins,
		decimal.NewFromInt(coins).Div(decimal.NewFromInt(100)).Round(2), "USD", "gw_fund_"+userId)
	if err != nil {
		t.Fatalf("Failed to fund user %s: %v", userId, err)
	}
}

func coinBalance(t *testing.T, dbService *database.Service, userId string) int64 {
	t.Helper()
	balance, err := dbService.GetBalance(context.Background(), userId)
	if err != nil {
		t.Fatalf("Failed to get balance for %s: %v", userId, err)
	}
	if balance == nil {
		return 0
	}
	return balance.Balance
}

func TestHealthCheck(t *testing.T) {
	service, dbService := setupTestService(t)
	createTestUser(t, dbService, "reader1", "reader")

	if err := service.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
