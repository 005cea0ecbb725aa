package api

import (
	"context"
	"errors"
	"fmt"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordCoinPurchase credits coins after the external payment gateway has
// confirmed a fiat charge. The gateway's transaction id makes the credit
// idempotent: a replayed confirmation is a no-op reported as Duplicate.
func (s *LedgerService) RecordCoinPurchase(ctx context.Context, userId string, coins int64, fiatAmount decimal.Decimal, currency, externalTxId string) (*models.CoinPurchaseResult, error) {
	if coins <= 0 {
		return nil, fmt.Errorf("%w: coin purchase of %d coins", store.ErrInvalidAmount, coins)
	}
	if fiatAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: fiat amount %s", store.ErrInvalidAmount, fiatAmount.String())
	}
	if externalTxId == "" {
		return nil, fmt.Errorf("coin purchase requires the gateway transaction id")
	}

	tx, err := s.db.AdjustCoinBalance(ctx, store.CoinTransactionParams{
		UserId:          userId,
		TransactionType: "coin_purchase",
		CoinAmount:      coins,
		FiatAmount:      fiatAmount,
		Currency:        currency,
		ExternalTxId:    externalTxId,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			zap.L().Info("Duplicate coin purchase confirmation, skipping",
				zap.String("user_id", userId),
				zap.String("external_tx_id", externalTxId))
			var balance int64
			if current, balErr := s.db.GetBalance(ctx, userId); balErr == nil && current != nil {
				balance = current.Balance
			}
			return &models.CoinPurchaseResult{
				Success:    false,
				Duplicate:  true,
				NewBalance: balance,
			}, nil
		}
		return nil, err
	}

	zap.L().Info("Coin purchase recorded",
		zap.String("user_id", userId),
		zap.Int64("coins", coins),
		zap.String("fiat_amount", fiatAmount.String()),
		zap.String("currency", currency),
		zap.String("external_tx_id", externalTxId))

	return &models.CoinPurchaseResult{
		Success:       true,
		TransactionId: tx.Id,
		CoinsCredited: coins,
		FiatAmount:    fiatAmount,
		Currency:      currency,
		NewBalance:    tx.BalanceAfter,
	}, nil
}

// RefundContentPurchase reverses a completed purchase: the access grant is
// withdrawn, the coins come back as a refund credit, and the original
// revenue distribution is compensated with a negated row. The original
// transaction row is never rewritten beyond the refunded marker.
func (s *LedgerService) RefundContentPurchase(ctx context.Context, userId, contentId string) (*models.PurchaseResult, error) {
	purchase, err := s.db.GetPurchase(ctx, userId, contentId)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, fmt.Errorf("%w: user %s, content %s", store.ErrPurchaseNotFound, userId, contentId)
	}

	if err := s.db.MarkPurchaseRefunded(ctx, purchase.Id); err != nil {
		return nil, err
	}

	coins := -purchase.CoinAmount // purchase rows carry a negative spend
	credit, err := s.db.AdjustCoinBalance(ctx, store.CoinTransactionParams{
		UserId:           userId,
		TransactionType:  "refund",
		CoinAmount:       coins,
		FiatAmount:       purchase.FiatAmount,
		Currency:         purchase.Currency,
		RelatedContentId: contentId,
		ContentType:      purchase.ContentType,
		Reference:        fmt.Sprintf("Refund of purchase %s", purchase.Id),
	})
	if err != nil {
		// Reinstate the purchase so the user is not left without both
		// access and coins.
		zap.L().Error("Refund credit failed, reinstating purchase",
			zap.String("user_id", userId),
			zap.String("content_id", contentId),
			zap.String("purchase_transaction_id", purchase.Id),
			zap.Error(err))
		if restoreErr := s.db.ReinstatePurchase(ctx, purchase.Id); restoreErr != nil {
			zap.L().Error("Failed to reinstate refunded purchase",
				zap.String("purchase_transaction_id", purchase.Id),
				zap.Error(restoreErr))
		}
		return nil, fmt.Errorf("failed to credit refund: %w", err)
	}

	dist, err := s.db.GetDistributionByTransactionId(ctx, purchase.Id)
	if err != nil {
		return nil, err
	}
	if dist != nil {
		_, err = s.db.RecordDistribution(ctx, store.DistributionParams{
			TransactionId:      credit.Id,
			WriterId:           dist.WriterId,
			DistributionType:   "refund",
			GrossAmount:        dist.GrossAmount.Neg(),
			WriterShare:        dist.WriterShare.Neg(),
			PlatformShare:      dist.PlatformShare.Neg(),
			WriterPercentage:   dist.WriterPercentage,
			PlatformPercentage: dist.PlatformPercentage,
			Currency:           dist.Currency,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record compensating distribution: %w", err)
		}
	}

	zap.L().Info("Content purchase refunded",
		zap.String("user_id", userId),
		zap.String("content_id", contentId),
		zap.String("original_transaction_id", purchase.Id),
		zap.Int64("coins_returned", coins),
		zap.Int64("new_balance", credit.BalanceAfter))

	return &models.PurchaseResult{
		Success:       true,
		TransactionId: credit.Id,
		ContentId:     contentId,
		CoinsSpent:    -coins,
		NewBalance:    credit.BalanceAfter,
		Reason:        "refunded",
	}, nil
}
