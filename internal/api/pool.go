package api

import (
	"context"
	"fmt"
	"sort"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/revenue"
	"legato-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DistributeSubscriptionPool splits a subscription revenue pool across
// writers in proportion to their engagement weights. Each writer's gross is
// rounded to the currency's minimum unit; the rounding remainder goes to the
// last writer so the pool is allocated exactly. One distribution record is
// written per writer, all tagged with the same pool run id.
func (s *LedgerService) DistributeSubscriptionPool(ctx context.Context, pool decimal.Decimal, weights map[string]int64) (*models.PoolDistributionResult, error) {
	if pool.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: pool %s", store.ErrInvalidAmount, pool.String())
	}

	writerIds := make([]string, 0, len(weights))
	var totalWeight int64
	for writerId, weight := range weights {
		if weight < 0 {
			return nil, fmt.Errorf("negative weight %d for writer %s", weight, writerId)
		}
		if weight == 0 {
			continue
		}
		writerIds = append(writerIds, writerId)
		totalWeight += weight
	}
	if totalWeight == 0 {
		return nil, fmt.Errorf("subscription pool has no writers with positive weight")
	}
	sort.Strings(writerIds)

	runId := uuid.New().String()
	totalWeightDec := decimal.NewFromInt(totalWeight)

	result := &models.PoolDistributionResult{
		Pool:     pool,
		Currency: s.catalog.Currency,
		Shares:   make([]models.PoolShare, 0, len(writerIds)),
	}

	allocated := decimal.Zero
	for i, writerId := range writerIds {
		weight := weights[writerId]

		var gross decimal.Decimal
		if i == len(writerIds)-1 {
			gross = pool.Sub(allocated)
		} else {
			gross = pool.Mul(decimal.NewFromInt(weight)).Div(totalWeightDec).Round(2)
		}
		allocated = allocated.Add(gross)

		if gross.LessThanOrEqual(decimal.Zero) {
			zap.L().Debug("Skipping writer with zero pool share",
				zap.String("run_id", runId),
				zap.String("writer_id", writerId),
				zap.Int64("weight", weight))
			continue
		}

		split, err := s.calc.Split(revenue.DistributionSubscription, gross)
		if err != nil {
			return nil, fmt.Errorf("splitting pool share for writer %s: %w", writerId, err)
		}

		if _, err := s.db.RecordDistribution(ctx, store.DistributionParams{
			TransactionId:      runId,
			WriterId:           writerId,
			DistributionType:   revenue.DistributionSubscription,
			GrossAmount:        split.GrossAmount,
			WriterShare:        split.WriterShare,
			PlatformShare:      split.PlatformShare,
			WriterPercentage:   split.WriterPercentage,
			PlatformPercentage: split.PlatformPercentage,
			Currency:           s.catalog.Currency,
		}); err != nil {
			return nil, fmt.Errorf("recording pool distribution for writer %s: %w", writerId, err)
		}

		result.Shares = append(result.Shares, models.PoolShare{
			WriterId:    writerId,
			Weight:      weight,
			Gross:       gross,
			WriterShare: split.WriterShare,
		})
		result.TotalWriterShare = result.TotalWriterShare.Add(split.WriterShare)
		result.TotalPlatformShare = result.TotalPlatformShare.Add(split.PlatformShare)
	}

	zap.L().Info("Subscription pool distributed",
		zap.String("run_id", runId),
		zap.String("pool", pool.String()),
		zap.Int("writers", len(result.Shares)))

	return result, nil
}
