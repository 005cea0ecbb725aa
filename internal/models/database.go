package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a reader or writer on the platform
type User struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Role      string    `db:"role"` // reader or writer
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CoinBalance represents a user's current coin state (hot data).
// Invariant: Balance == LifetimeEarned - LifetimeSpent, always >= 0.
type CoinBalance struct {
	Id                string    `db:"id"`
	UserId            string    `db:"user_id"`
	Balance           int64     `db:"balance"`
	LifetimeEarned    int64     `db:"lifetime_earned"`
	LifetimeSpent     int64     `db:"lifetime_spent"`
	LastTransactionId string    `db:"last_transaction_id"`
	Version           int64     `db:"version"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// CoinTransaction represents an immutable ledger entry (cold data).
// Completed rows are never mutated; corrections are new refund rows.
type CoinTransaction struct {
	Id               string          `db:"id"`
	UserId           string          `db:"user_id"`
	TransactionType  string          `db:"transaction_type"`
	Status           string          `db:"status"`
	CoinAmount       int64           `db:"coin_amount"`
	BalanceBefore    int64           `db:"balance_before"`
	BalanceAfter     int64           `db:"balance_after"`
	FiatAmount       decimal.Decimal `db:"fiat_amount"`
	Currency         string          `db:"currency"`
	RelatedContentId string          `db:"related_content_id"`
	ContentType      string          `db:"content_type"`
	CounterpartyId   string          `db:"counterparty_id"`
	ExternalTxId     string          `db:"external_transaction_id"`
	Reference        string          `db:"reference"`
	CreatedAt        time.Time       `db:"created_at"`
	CompletedAt      time.Time       `db:"completed_at"`
}

// RevenueDistribution represents the writer/platform split of one
// revenue-generating transaction. Created once, immutable.
type RevenueDistribution struct {
	Id                 string          `db:"id"`
	TransactionId      string          `db:"transaction_id"`
	WriterId           string          `db:"writer_id"`
	DistributionType   string          `db:"distribution_type"`
	GrossAmount        decimal.Decimal `db:"gross_amount"`
	WriterShare        decimal.Decimal `db:"writer_share"`
	PlatformShare      decimal.Decimal `db:"platform_share"`
	WriterPercentage   decimal.Decimal `db:"writer_percentage"`
	PlatformPercentage decimal.Decimal `db:"platform_percentage"`
	Currency           string          `db:"currency"`
	CreatedAt          time.Time       `db:"created_at"`
}

// Payout request status lifecycle: pending -> completed | failed | cancelled.
const (
	PayoutStatusPending   = "pending"
	PayoutStatusCompleted = "completed"
	PayoutStatusFailed    = "failed"
	PayoutStatusCancelled = "cancelled"
)

// PayoutRequest represents a writer's request to convert earnings into an
// external transfer.
type PayoutRequest struct {
	Id               string          `db:"id"`
	WriterId         string          `db:"writer_id"`
	Amount           decimal.Decimal `db:"amount"`
	Currency         string          `db:"currency"`
	Status           string          `db:"status"`
	PaymentMethod    string          `db:"payment_method"`
	PaymentDetails   string          `db:"payment_details"`
	ExternalPayoutId string          `db:"external_payout_id"`
	CreatedAt        time.Time       `db:"created_at"`
	ProcessedAt      time.Time       `db:"processed_at"`
}

// Subscription represents a user's subscription tier membership.
type Subscription struct {
	Id        string    `db:"id"`
	UserId    string    `db:"user_id"`
	Tier      string    `db:"tier"` // basic, premium, vip
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DistributionTotals holds summed distribution amounts for a report window.
type DistributionTotals struct {
	Gross         decimal.Decimal
	WriterShare   decimal.Decimal
	PlatformShare decimal.Decimal
}
