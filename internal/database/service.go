package database

import (
	"context"
	"database/sql"
	"fmt"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.Store.
var _ store.Store = (*Service)(nil)

type Service struct {
	db *sql.DB
}

func NewService(ctx context.Context, cfg models.DatabaseConfig) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db}
	if err := service.InitSchema(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if cfg.CreateDemoUsers {
		service.createDemoUsers(ctx)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) InitSchema() error {
	schema := `
	-- Users (readers and writers)
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'reader',
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);

	-- Coin Balances (current state - hot data)
	CREATE TABLE IF NOT EXISTS coin_balances (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		balance INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
		lifetime_earned INTEGER NOT NULL DEFAULT 0,
		lifetime_spent INTEGER NOT NULL DEFAULT 0,
		last_transaction_id TEXT,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_coin_balances_user ON coin_balances(user_id);

	-- Coin Transactions (append-only audit trail - cold data)
	CREATE TABLE IF NOT EXISTS coin_transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'completed',
		coin_amount INTEGER NOT NULL,
		balance_before INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		fiat_amount TEXT NOT NULL DEFAULT '0',
		currency TEXT NOT NULL DEFAULT '',
		related_content_id TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL DEFAULT '',
		counterparty_id TEXT NOT NULL DEFAULT '',
		external_transaction_id TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		completed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_coin_transactions_user ON coin_transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_coin_transactions_created_at ON coin_transactions(created_at);
	CREATE INDEX IF NOT EXISTS idx_coin_transactions_type ON coin_transactions(transaction_type);
	-- At most one successful purchase per (user, content)
	CREATE UNIQUE INDEX IF NOT EXISTS idx_coin_transactions_purchase
		ON coin_transactions(user_id, related_content_id)
		WHERE transaction_type = 'coin_spend' AND status = 'completed' AND related_content_id != '';
	-- Gateway-supplied ids are recorded at most once
	CREATE UNIQUE INDEX IF NOT EXISTS idx_coin_transactions_external_id
		ON coin_transactions(external_transaction_id)
		WHERE external_transaction_id != '';

	-- Revenue Distributions (one per revenue-generating transaction)
	CREATE TABLE IF NOT EXISTS revenue_distributions (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		writer_id TEXT NOT NULL,
		distribution_type TEXT NOT NULL,
		gross_amount TEXT NOT NULL,
		writer_share TEXT NOT NULL,
		platform_share TEXT NOT NULL,
		writer_percentage TEXT NOT NULL,
		platform_percentage TEXT NOT NULL,
		currency TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_revenue_distributions_writer ON revenue_distributions(writer_id);
	CREATE INDEX IF NOT EXISTS idx_revenue_distributions_created_at ON revenue_distributions(created_at);
	CREATE INDEX IF NOT EXISTS idx_revenue_distributions_transaction ON revenue_distributions(transaction_id);

	-- Payout Requests (pending -> completed | failed | cancelled)
	CREATE TABLE IF NOT EXISTS payout_requests (
		id TEXT PRIMARY KEY,
		writer_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_method TEXT NOT NULL DEFAULT '',
		payment_details TEXT NOT NULL DEFAULT '',
		external_payout_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		processed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_payout_requests_writer ON payout_requests(writer_id);
	CREATE INDEX IF NOT EXISTS idx_payout_requests_status ON payout_requests(status);
	CREATE INDEX IF NOT EXISTS idx_payout_requests_processed_at ON payout_requests(processed_at);

	-- Subscriptions (one active row per user)
	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		tier TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

const demoStarterCoins = 200

func (s *Service) createDemoUsers(ctx context.Context) {
	users := []struct {
		id    string
		name  string
		email string
		role  string
	}{
		{uuid.New().String(), "Adaeze Obi", "adaeze.obi@example.com", "writer"},
		{uuid.New().String(), "Bode Akintola", "bode.akintola@example.com", "writer"},
		{uuid.New().String(), "Chioma Eze", "chioma.eze@example.com", "reader"},
	}

	for _, user := range users {
		_, err := s.db.Exec(queryInsertUser, user.id, user.name, user.email, user.role)
		if err != nil {
			zap.L().Error("Failed to insert demo user", zap.String("name", user.name), zap.Error(err))
			continue
		}
		zap.L().Info("Demo user created", zap.String("id", user.id), zap.String("name", user.name), zap.String("role", user.role))

		if user.role != "reader" {
			continue
		}
		if _, err := s.AdjustCoinBalance(ctx, store.CoinTransactionParams{
			UserId:          user.id,
			TransactionType: "coin_purchase",
			CoinAmount:      demoStarterCoins,
			FiatAmount:      decimal.Zero,
			ExternalTxId:    "demo_grant_" + user.email,
			Reference:       "demo starter grant",
		}); err != nil {
			zap.L().Error("Failed to grant starter coins", zap.String("user_id", user.id), zap.Error(err))
		}
	}
}
