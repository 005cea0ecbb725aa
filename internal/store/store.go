package store

import (
	"context"
	"errors"
	"time"

	"legato-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across the ledger core. Callers discriminate with
// errors.Is; none of these are wrapped away by the service layer.
var (
	ErrInsufficientBalance    = errors.New("insufficient coin balance")
	ErrInsufficientEarnings   = errors.New("insufficient earnings available for payout")
	ErrAlreadyPurchased       = errors.New("content already purchased")
	ErrAlreadyProcessed       = errors.New("payout request already processed")
	ErrPayoutNotFound         = errors.New("payout request not found")
	ErrInvalidAmount          = errors.New("amount must be positive")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrInvalidContentType     = errors.New("unknown content type")
	ErrSubscriptionExpired    = errors.New("subscription expired")
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrUserNotFound           = errors.New("user not found")
	ErrPurchaseNotFound       = errors.New("purchase not found")
)

// CoinTransactionParams contains the parameters for recording a coin movement.
type CoinTransactionParams struct {
	UserId           string
	TransactionType  string // coin_purchase, coin_spend, subscription, tip, gift, payout, refund
	CoinAmount       int64  // signed: negative for spends and tips sent
	FiatAmount       decimal.Decimal
	Currency         string
	RelatedContentId string
	ContentType      string
	CounterpartyId   string
	ExternalTxId     string
	Reference        string
}

// DistributionParams contains the parameters for recording a revenue split.
type DistributionParams struct {
	TransactionId      string
	WriterId           string
	DistributionType   string
	GrossAmount        decimal.Decimal
	WriterShare        decimal.Decimal
	PlatformShare      decimal.Decimal
	WriterPercentage   decimal.Decimal
	PlatformPercentage decimal.Decimal
	Currency           string
}

// PayoutRequestParams contains the parameters for creating a payout request.
type PayoutRequestParams struct {
	WriterId       string
	Amount         decimal.Decimal
	Currency       string
	PaymentMethod  string
	PaymentDetails string
}

// Store defines the persistence contract the service layer depends on.
// database.Service is the SQLite implementation.
type Store interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, userId, name, email, role string) (*models.User, error)

	// --- Coin balances ---
	GetOrCreateBalance(ctx context.Context, userId string) (*models.CoinBalance, error)
	GetBalance(ctx context.Context, userId string) (*models.CoinBalance, error)
	AdjustCoinBalance(ctx context.Context, params CoinTransactionParams) (*models.CoinTransaction, error)
	ReconcileBalance(ctx context.Context, userId string) error

	// --- Transactions ---
	GetTransactionById(ctx context.Context, transactionId string) (*models.CoinTransaction, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.CoinTransaction, error)

	// --- Content purchases ---
	GetPurchase(ctx context.Context, userId, contentId string) (*models.CoinTransaction, error)
	MarkPurchaseRefunded(ctx context.Context, transactionId string) error
	ReinstatePurchase(ctx context.Context, transactionId string) error

	// --- Revenue distributions ---
	RecordDistribution(ctx context.Context, params DistributionParams) (*models.RevenueDistribution, error)
	GetDistributionByTransactionId(ctx context.Context, transactionId string) (*models.RevenueDistribution, error)
	SumWriterShares(ctx context.Context, writerId, currency string) (decimal.Decimal, error)
	SumDistributions(ctx context.Context, periodStart, periodEnd time.Time) (models.DistributionTotals, error)

	// --- Payout requests ---
	InsertPayoutRequest(ctx context.Context, params PayoutRequestParams) (*models.PayoutRequest, error)
	GetPayoutRequest(ctx context.Context, payoutId string) (*models.PayoutRequest, error)
	GetPayoutRequestsByWriter(ctx context.Context, writerId string) ([]models.PayoutRequest, error)
	UpdatePayoutStatus(ctx context.Context, payoutId, fromStatus, toStatus, externalPayoutId string) (*models.PayoutRequest, error)
	SumCompletedPayouts(ctx context.Context, writerId, currency string) (decimal.Decimal, error)
	SumPendingPayouts(ctx context.Context, writerId, currency string) (decimal.Decimal, error)
	SumProcessedPayouts(ctx context.Context, periodStart, periodEnd time.Time) (decimal.Decimal, error)

	// --- Subscriptions ---
	GetSubscription(ctx context.Context, userId string) (*models.Subscription, error)
	GetActiveSubscription(ctx context.Context, userId string, now time.Time) (*models.Subscription, error)
	UpsertSubscription(ctx context.Context, userId, tier string, expiresAt time.Time) (*models.Subscription, error)

	// --- Lifecycle ---
	Close()
}
