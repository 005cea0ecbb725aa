package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/revenue"
	"legato-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CheckAccess decides whether a user may view a content item. Purchase
// history wins, then subscription tier entitlement, then the coin price is
// reported alongside the user's current balance. Read-only.
func (s *LedgerService) CheckAccess(ctx context.Context, userId, contentId, contentType string) (*models.AccessCheck, error) {
	price, err := s.catalog.PriceFor(contentType)
	if err != nil {
		return nil, err
	}

	purchase, err := s.db.GetPurchase(ctx, userId, contentId)
	if err != nil {
		return nil, err
	}
	if purchase != nil {
		return &models.AccessCheck{
			HasAccess:    true,
			AccessMethod: models.AccessMethodPurchased,
		}, nil
	}

	subscriberTier, err := s.catalog.SubscriberTierFor(contentType)
	if err != nil {
		return nil, err
	}
	if subscriberTier != "" {
		sub, err := s.db.GetActiveSubscription(ctx, userId, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if sub != nil && s.tierCovers(sub.Tier, subscriberTier) {
			return &models.AccessCheck{
				HasAccess:    true,
				AccessMethod: models.AccessMethodSubscription,
			}, nil
		}
	}

	var userBalance int64
	balance, err := s.db.GetBalance(ctx, userId)
	if err != nil {
		return nil, err
	}
	if balance != nil {
		userBalance = balance.Balance
	}

	return &models.AccessCheck{
		HasAccess:     false,
		AccessMethod:  models.AccessMethodNone,
		RequiredCoins: price,
		UserBalance:   userBalance,
		CanAfford:     userBalance >= price,
	}, nil
}

// PurchaseContentAccess spends coins to grant permanent access to a content
// item. Idempotent: a repeat purchase returns ErrAlreadyPurchased and leaves
// the balance untouched. writerId attributes the revenue split; if empty
// (catalog did not resolve an author) no distribution is recorded.
func (s *LedgerService) PurchaseContentAccess(ctx context.Context, userId, contentId, contentType, writerId string) (*models.PurchaseResult, error) {
	price, err := s.catalog.PriceFor(contentType)
	if err != nil {
		return nil, err
	}

	existing, err := s.db.GetPurchase(ctx, userId, contentId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		zap.L().Info("Duplicate purchase attempt",
			zap.String("user_id", userId),
			zap.String("content_id", contentId))
		return &models.PurchaseResult{
			Success:   false,
			ContentId: contentId,
			Reason:    "already_purchased",
		}, fmt.Errorf("%w: content %s", store.ErrAlreadyPurchased, contentId)
	}

	fiatValue := s.catalog.FiatValue(price)
	tx, err := s.db.AdjustCoinBalance(ctx, store.CoinTransactionParams{
		UserId:           userId,
		TransactionType:  "coin_spend",
		CoinAmount:       -price,
		FiatAmount:       fiatValue,
		Currency:         s.catalog.Currency,
		RelatedContentId: contentId,
		ContentType:      contentType,
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			var userBalance int64
			if balance, balErr := s.db.GetBalance(ctx, userId); balErr == nil && balance != nil {
				userBalance = balance.Balance
			}
			return &models.PurchaseResult{
				Success:     false,
				ContentId:   contentId,
				NewBalance:  userBalance,
				CoinsNeeded: price - userBalance,
				Reason:      "insufficient_balance",
			}, err
		}
		if errors.Is(err, store.ErrAlreadyPurchased) {
			// Lost a race against a concurrent purchase of the same content;
			// final state is the same as if only the first call happened.
			return &models.PurchaseResult{
				Success:   false,
				ContentId: contentId,
				Reason:    "already_purchased",
			}, err
		}
		return nil, err
	}

	if writerId != "" {
		if err := s.recordPurchaseDistribution(ctx, tx.Id, writerId, fiatValue); err != nil {
			// The purchase stands; attribution failure is surfaced for repair.
			zap.L().Error("Failed to record revenue distribution for purchase",
				zap.String("transaction_id", tx.Id),
				zap.String("writer_id", writerId),
				zap.Error(err))
			return nil, err
		}
	}

	zap.L().Info("Content purchased",
		zap.String("user_id", userId),
		zap.String("content_id", contentId),
		zap.String("content_type", contentType),
		zap.Int64("coins_spent", price),
		zap.Int64("new_balance", tx.BalanceAfter))

	return &models.PurchaseResult{
		Success:       true,
		TransactionId: tx.Id,
		ContentId:     contentId,
		CoinsSpent:    price,
		NewBalance:    tx.BalanceAfter,
	}, nil
}

func (s *LedgerService) recordPurchaseDistribution(ctx context.Context, transactionId, writerId string, gross decimal.Decimal) error {
	split, err := s.calc.Split(revenue.DistributionContentPurchase, gross)
	if err != nil {
		return err
	}
	_, err = s.db.RecordDistribution(ctx, store.DistributionParams{
		TransactionId:      transactionId,
		WriterId:           writerId,
		DistributionType:   revenue.DistributionContentPurchase,
		GrossAmount:        split.GrossAmount,
		WriterShare:        split.WriterShare,
		PlatformShare:      split.PlatformShare,
		WriterPercentage:   split.WriterPercentage,
		PlatformPercentage: split.PlatformPercentage,
		Currency:           s.catalog.Currency,
	})
	return err
}

// ValidateSubscriptionAccess compares the user's subscription tier against a
// required tier. The hierarchy is totally ordered (e.g. basic < premium <
// vip); a lapsed subscription reports ErrSubscriptionExpired.
func (s *LedgerService) ValidateSubscriptionAccess(ctx context.Context, userId, requiredTier string) (*models.SubscriptionCheck, error) {
	if _, ok := s.catalog.TierRank(requiredTier); !ok {
		return nil, fmt.Errorf("unknown subscription tier %q", requiredTier)
	}

	sub, err := s.db.GetSubscription(ctx, userId)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &models.SubscriptionCheck{
			HasAccess:          false,
			RequiredTier:       requiredTier,
			SubscriptionActive: false,
		}, nil
	}

	if !sub.ExpiresAt.After(time.Now().UTC()) {
		return &models.SubscriptionCheck{
			HasAccess:          false,
			UserTier:           sub.Tier,
			RequiredTier:       requiredTier,
			SubscriptionActive: false,
			ExpiresAt:          sub.ExpiresAt,
		}, fmt.Errorf("%w: lapsed at %s", store.ErrSubscriptionExpired, sub.ExpiresAt.Format(time.RFC3339))
	}

	return &models.SubscriptionCheck{
		HasAccess:          s.tierCovers(sub.Tier, requiredTier),
		UserTier:           sub.Tier,
		RequiredTier:       requiredTier,
		SubscriptionActive: true,
		ExpiresAt:          sub.ExpiresAt,
	}, nil
}

// tierCovers reports whether userTier ranks at or above requiredTier.
func (s *LedgerService) tierCovers(userTier, requiredTier string) bool {
	userRank, ok := s.catalog.TierRank(userTier)
	if !ok {
		return false
	}
	requiredRank, ok := s.catalog.TierRank(requiredTier)
	if !ok {
		return false
	}
	return userRank >= requiredRank
}
