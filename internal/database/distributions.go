package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordDistribution persists the writer/platform split of one
// revenue-generating transaction. Rows are immutable once written.
func (s *Service) RecordDistribution(ctx context.Context, params store.DistributionParams) (*models.RevenueDistribution, error) {
	if !params.WriterShare.Add(params.PlatformShare).Equal(params.GrossAmount) {
		return nil, fmt.Errorf("distribution shares %s + %s do not sum to gross %s",
			params.WriterShare.String(), params.PlatformShare.String(), params.GrossAmount.String())
	}

	id := uuid.New().String()
	var dist models.RevenueDistribution
	var grossStr, writerStr, platformStr, writerPctStr, platformPctStr string
	err := s.db.QueryRowContext(ctx, queryInsertDistribution,
		id, params.TransactionId, params.WriterId, params.DistributionType,
		params.GrossAmount.String(), params.WriterShare.String(), params.PlatformShare.String(),
		params.WriterPercentage.String(), params.PlatformPercentage.String(), params.Currency).
		Scan(&dist.Id, &dist.TransactionId, &dist.WriterId, &dist.DistributionType,
			&grossStr, &writerStr, &platformStr, &writerPctStr, &platformPctStr,
			&dist.Currency, &dist.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert revenue distribution: %w", err)
	}

	if dist.GrossAmount, err = parseDecimal(grossStr, "gross_amount"); err != nil {
		return nil, err
	}
	if dist.WriterShare, err = parseDecimal(writerStr, "writer_share"); err != nil {
		return nil, err
	}
	if dist.PlatformShare, err = parseDecimal(platformStr, "platform_share"); err != nil {
		return nil, err
	}
	if dist.WriterPercentage, err = parseDecimal(writerPctStr, "writer_percentage"); err != nil {
		return nil, err
	}
	if dist.PlatformPercentage, err = parseDecimal(platformPctStr, "platform_percentage"); err != nil {
		return nil, err
	}

	zap.L().Info("Revenue distribution recorded",
		zap.String("distribution_id", dist.Id),
		zap.String("writer_id", dist.WriterId),
		zap.String("type", dist.DistributionType),
		zap.String("gross", dist.GrossAmount.String()),
		zap.String("writer_share", dist.WriterShare.String()),
		zap.String("platform_share", dist.PlatformShare.String()))

	return &dist, nil
}

// GetDistributionByTransactionId returns the distribution recorded for a
// ledger transaction, or nil if the transaction generated no revenue.
func (s *Service) GetDistributionByTransactionId(ctx context.Context, transactionId string) (*models.RevenueDistribution, error) {
	var dist models.RevenueDistribution
	var grossStr, writerStr, platformStr, writerPctStr, platformPctStr string
	err := s.db.QueryRowContext(ctx, queryGetDistributionByTransaction, transactionId).
		Scan(&dist.Id, &dist.TransactionId, &dist.WriterId, &dist.DistributionType,
			&grossStr, &writerStr, &platformStr, &writerPctStr, &platformPctStr,
			&dist.Currency, &dist.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get distribution for transaction %s: %w", transactionId, err)
	}

	if dist.GrossAmount, err = parseDecimal(grossStr, "gross_amount"); err != nil {
		return nil, err
	}
	if dist.WriterShare, err = parseDecimal(writerStr, "writer_share"); err != nil {
		return nil, err
	}
	if dist.PlatformShare, err = parseDecimal(platformStr, "platform_share"); err != nil {
		return nil, err
	}
	if dist.WriterPercentage, err = parseDecimal(writerPctStr, "writer_percentage"); err != nil {
		return nil, err
	}
	if dist.PlatformPercentage, err = parseDecimal(platformPctStr, "platform_percentage"); err != nil {
		return nil, err
	}

	return &dist, nil
}

// SumWriterShares returns the exact sum of a writer's shares in a currency.
func (s *Service) SumWriterShares(ctx context.Context, writerId, currency string) (decimal.Decimal, error) {
	return s.sumDecimalColumn(ctx, querySelectWriterShares, writerId, currency)
}

// SumDistributions returns exact distribution totals for a report window.
func (s *Service) SumDistributions(ctx context.Context, periodStart, periodEnd time.Time) (models.DistributionTotals, error) {
	totals := models.DistributionTotals{
		Gross:         decimal.Zero,
		WriterShare:   decimal.Zero,
		PlatformShare: decimal.Zero,
	}

	rows, err := s.db.QueryContext(ctx, querySelectDistributionsInRange, sqlTimestamp(periodStart), sqlTimestamp(periodEnd))
	if err != nil {
		return totals, fmt.Errorf("failed to query distributions in range: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	for rows.Next() {
		var grossStr, writerStr, platformStr string
		if err := rows.Scan(&grossStr, &writerStr, &platformStr); err != nil {
			return totals, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		gross, err := parseDecimal(grossStr, "gross_amount")
		if err != nil {
			return totals, err
		}
		writerShare, err := parseDecimal(writerStr, "writer_share")
		if err != nil {
			return totals, err
		}
		platformShare, err := parseDecimal(platformStr, "platform_share")
		if err != nil {
			return totals, err
		}
		totals.Gross = totals.Gross.Add(gross)
		totals.WriterShare = totals.WriterShare.Add(writerShare)
		totals.PlatformShare = totals.PlatformShare.Add(platformShare)
	}

	if err := rows.Err(); err != nil {
		return totals, fmt.Errorf("error iterating distribution rows: %w", err)
	}

	return totals, nil
}

// sumDecimalColumn sums a single decimal-string column in Go to avoid
// floating-point drift in SQL aggregation.
func (s *Service) sumDecimalColumn(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to query amounts: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	total := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return decimal.Zero, fmt.Errorf("failed to scan amount: %w", err)
		}
		amount, err := parseDecimal(amountStr, "amount")
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}

	if err := rows.Err(); err != nil {
		return decimal.Zero, fmt.Errorf("error iterating amount rows: %w", err)
	}

	return total, nil
}
