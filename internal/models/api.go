package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Access methods reported by CheckAccess.
const (
	AccessMethodPurchased    = "previously_purchased"
	AccessMethodSubscription = "subscription"
	AccessMethodNone         = "none"
)

// AccessCheck represents the result of an access-gate lookup.
type AccessCheck struct {
	HasAccess     bool   `json:"has_access"`
	AccessMethod  string `json:"access_method"`
	RequiredCoins int64  `json:"required_coins"`
	UserBalance   int64  `json:"user_balance"`
	CanAfford     bool   `json:"can_afford"`
}

// PurchaseResult represents the outcome of a content purchase attempt.
type PurchaseResult struct {
	Success       bool   `json:"success"`
	TransactionId string `json:"transaction_id,omitempty"`
	ContentId     string `json:"content_id"`
	CoinsSpent    int64  `json:"coins_spent"`
	NewBalance    int64  `json:"new_balance"`
	CoinsNeeded   int64  `json:"coins_needed,omitempty"`
	Reason        string `json:"reason,omitempty"`
}

// SubscriptionCheck represents the result of a tier entitlement check.
type SubscriptionCheck struct {
	HasAccess          bool      `json:"has_access"`
	UserTier           string    `json:"user_tier,omitempty"`
	RequiredTier       string    `json:"required_tier"`
	SubscriptionActive bool      `json:"subscription_active"`
	ExpiresAt          time.Time `json:"expires_at,omitempty"`
}

// TransferResult represents the outcome of a tip or gift.
type TransferResult struct {
	Success          bool   `json:"success"`
	TransactionId    string `json:"transaction_id,omitempty"`
	SenderBalance    int64  `json:"sender_balance"`
	RecipientBalance int64  `json:"recipient_balance"`
	CoinsNeeded      int64  `json:"coins_needed,omitempty"`
	Reason           string `json:"reason,omitempty"`
}

// CoinPurchaseResult represents the outcome of recording a gateway-confirmed
// coin top-up.
type CoinPurchaseResult struct {
	Success       bool            `json:"success"`
	TransactionId string          `json:"transaction_id,omitempty"`
	CoinsCredited int64           `json:"coins_credited"`
	FiatAmount    decimal.Decimal `json:"fiat_amount"`
	Currency      string          `json:"currency"`
	NewBalance    int64           `json:"new_balance"`
	Duplicate     bool            `json:"duplicate,omitempty"`
}

// EarningsSummary aggregates a writer's earnings against completed payouts.
type EarningsSummary struct {
	WriterId           string          `json:"writer_id"`
	Currency           string          `json:"currency"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	TotalPaidOut       decimal.Decimal `json:"total_paid_out"`
	PendingPayout      decimal.Decimal `json:"pending_payout"`
	AvailableForPayout decimal.Decimal `json:"available_for_payout"`
}

// RevenueReport is a time-windowed roll-up of completed distributions and
// processed payouts.
type RevenueReport struct {
	PeriodStart            time.Time       `json:"period_start"`
	PeriodEnd              time.Time       `json:"period_end"`
	TotalRevenue           decimal.Decimal `json:"total_revenue"`
	TotalWriterShare       decimal.Decimal `json:"total_writer_share"`
	TotalPlatformShare     decimal.Decimal `json:"total_platform_share"`
	PayoutsTotalProcessed  decimal.Decimal `json:"payouts_total_processed"`
	Currency               string          `json:"currency"`
}

// PoolShare is one writer's slice of a subscription pool distribution.
type PoolShare struct {
	WriterId    string          `json:"writer_id"`
	Weight      int64           `json:"weight"`
	Gross       decimal.Decimal `json:"gross"`
	WriterShare decimal.Decimal `json:"writer_share"`
}

// PoolDistributionResult summarizes a subscription pool run.
type PoolDistributionResult struct {
	Pool               decimal.Decimal `json:"pool"`
	Currency           string          `json:"currency"`
	Shares             []PoolShare     `json:"shares"`
	TotalWriterShare   decimal.Decimal `json:"total_writer_share"`
	TotalPlatformShare decimal.Decimal `json:"total_platform_share"`
}
