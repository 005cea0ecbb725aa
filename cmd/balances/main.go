package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"legato-ledger-go/internal/common"
	"legato-ledger-go/internal/config"
	"legato-ledger-go/internal/database"
	"legato-ledger-go/internal/models"

	"go.uber.org/zap"
)

const historyLimit = 5

type balanceStats struct {
	totalUsers        int
	usersWithActivity int
	totalCoins        int64
}

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printTransaction(tx models.CoinTransaction, isLast bool) {
	symbol := common.BoxPrefix(isLast)
	fmt.Printf("%s %-14s %+7d coins  (%s, %s)\n",
		symbol,
		tx.TransactionType,
		tx.CoinAmount,
		tx.Status,
		tx.CreatedAt.Format("2006-01-02 15:04:05"))
}

func printUserBalance(user models.User, balance *models.CoinBalance, history []models.CoinTransaction) {
	fmt.Printf("\n┌─ %s (%s) [%s]\n", user.Name, user.Email, user.Role)
	fmt.Printf("│  ID: %s\n", user.Id)
	fmt.Printf("│  Balance: %d coins (earned %d, spent %d, v%d, last_tx: %s)\n",
		balance.Balance,
		balance.LifetimeEarned,
		balance.LifetimeSpent,
		balance.Version,
		formatTransactionId(balance.LastTransactionId))
	common.PrintBoxSeparator(78)

	if len(history) == 0 {
		fmt.Println("└  no transactions")
		return
	}
	for i, tx := range history {
		printTransaction(tx, i == len(history)-1)
	}
}

func processUser(ctx context.Context, dbService *database.Service, user models.User, verify bool) (bool, int64, error) {
	balance, err := dbService.GetBalance(ctx, user.Id)
	if err != nil {
		return false, 0, fmt.Errorf("failed to get balance: %w", err)
	}
	if balance == nil {
		return false, 0, nil
	}

	history, err := dbService.GetTransactionHistory(ctx, user.Id, historyLimit, 0)
	if err != nil {
		return false, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}

	printUserBalance(user, balance, history)

	if verify {
		if err := dbService.ReconcileBalance(ctx, user.Id); err != nil {
			fmt.Printf("   RECONCILIATION FAILED: %v\n", err)
			return true, balance.Balance, fmt.Errorf("reconciliation failed: %w", err)
		}
		fmt.Println("   reconciliation: ok")
	}
	return true, balance.Balance, nil
}

func selectUsers(ctx context.Context, dbService *database.Service, email string) ([]models.User, error) {
	if email != "" {
		user, err := dbService.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return []models.User{*user}, nil
	}
	return dbService.GetUsers(ctx)
}

func main() {
	ctx := context.Background()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	verifyFlag := flag.Bool("verify", false, "Reconcile each balance against its transaction log")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.Logging)
	defer loggerCleanup()

	logger.Info("Starting balance query")

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	users, err := selectUsers(ctx, dbService, *emailFlag)
	if err != nil {
		logger.Fatal("Failed to load users", zap.Error(err))
	}

	common.PrintHeader("COIN BALANCE REPORT", common.DefaultWidth)

	stats := balanceStats{}
	for _, user := range users {
		stats.totalUsers++

		hasBalance, coins, err := processUser(ctx, dbService, user, *verifyFlag)
		if err != nil {
			logger.Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}
		if hasBalance {
			stats.usersWithActivity++
			stats.totalCoins += coins
		}
	}

	summary := fmt.Sprintf("SUMMARY: %d coins held across %d users (%d users queried)",
		stats.totalCoins, stats.usersWithActivity, stats.totalUsers)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_with_activity", stats.usersWithActivity),
		zap.Int64("total_coins", stats.totalCoins))
}
