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

func scanPayoutRequest(row rowScanner) (*models.PayoutRequest, error) {
	var payout models.PayoutRequest
	var amountStr string
	err := row.Scan(&payout.Id, &payout.WriterId, &amountStr, &payout.Currency,
		&payout.Status, &payout.PaymentMethod, &payout.PaymentDetails,
		&payout.ExternalPayoutId, &payout.CreatedAt, &payout.ProcessedAt)
	if err != nil {
		return nil, err
	}
	payout.Amount, err = parseDecimal(amountStr, "amount")
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// InsertPayoutRequest creates a payout request in pending status.
// Earnings validation happens in the service layer.
func (s *Service) InsertPayoutRequest(ctx context.Context, params store.PayoutRequestParams) (*models.PayoutRequest, error) {
	id := uuid.New().String()
	payout, err := scanPayoutRequest(s.db.QueryRowContext(ctx, queryInsertPayoutRequest,
		id, params.WriterId, params.Amount.String(), params.Currency,
		params.PaymentMethod, params.PaymentDetails))
	if err != nil {
		return nil, fmt.Errorf("failed to insert payout request: %w", err)
	}

	zap.L().Info("Payout request created",
		zap.String("payout_id", payout.Id),
		zap.String("writer_id", payout.WriterId),
		zap.String("amount", payout.Amount.String()),
		zap.String("currency", payout.Currency))

	return payout, nil
}

func (s *Service) GetPayoutRequest(ctx context.Context, payoutId string) (*models.PayoutRequest, error) {
	payout, err := scanPayoutRequest(s.db.QueryRowContext(ctx, queryGetPayoutRequest, payoutId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrPayoutNotFound, payoutId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payout request: %w", err)
	}
	return payout, nil
}

func (s *Service) GetPayoutRequestsByWriter(ctx context.Context, writerId string) ([]models.PayoutRequest, error) {
	rows, err := s.db.QueryContext(ctx, queryGetPayoutRequestsByWriter, writerId)
	if err != nil {
		return nil, fmt.Errorf("failed to get payout requests: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var payouts []models.PayoutRequest
	for rows.Next() {
		payout, err := scanPayoutRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout request: %w", err)
		}
		payouts = append(payouts, *payout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payout rows: %w", err)
	}

	return payouts, nil
}

// UpdatePayoutStatus transitions a payout request from one status to another.
// The fromStatus guard makes the transition atomic: a request that has
// already left fromStatus is reported as ErrAlreadyProcessed.
func (s *Service) UpdatePayoutStatus(ctx context.Context, payoutId, fromStatus, toStatus, externalPayoutId string) (*models.PayoutRequest, error) {
	result, err := s.db.ExecContext(ctx, queryUpdatePayoutStatus, toStatus, externalPayoutId, payoutId, fromStatus)
	if err != nil {
		return nil, fmt.Errorf("failed to update payout status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish missing from already-transitioned
		existing, err := s.GetPayoutRequest(ctx, payoutId)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: payout %s is %s", store.ErrAlreadyProcessed, payoutId, existing.Status)
	}

	zap.L().Info("Payout request transitioned",
		zap.String("payout_id", payoutId),
		zap.String("from", fromStatus),
		zap.String("to", toStatus),
		zap.String("external_payout_id", externalPayoutId))

	return s.GetPayoutRequest(ctx, payoutId)
}

// SumCompletedPayouts returns the exact sum of a writer's completed payouts.
func (s *Service) SumCompletedPayouts(ctx context.Context, writerId, currency string) (decimal.Decimal, error) {
	return s.sumDecimalColumn(ctx, querySelectCompletedPayoutAmounts, writerId, currency)
}

// SumPendingPayouts returns the exact sum of a writer's pending payouts.
func (s *Service) SumPendingPayouts(ctx context.Context, writerId, currency string) (decimal.Decimal, error) {
	return s.sumDecimalColumn(ctx, querySelectPendingPayoutAmounts, writerId, currency)
}

// SumProcessedPayouts returns the exact sum of payouts processed in a window.
func (s *Service) SumProcessedPayouts(ctx context.Context, periodStart, periodEnd time.Time) (decimal.Decimal, error) {
	return s.sumDecimalColumn(ctx, querySelectProcessedPayoutAmountsInRange, sqlTimestamp(periodStart), sqlTimestamp(periodEnd))
}
