package api

import (
	"context"
	"fmt"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// GetWriterEarningsSummary reconciles a writer's accumulated shares against
// completed payouts in the configured currency.
func (s *LedgerService) GetWriterEarningsSummary(ctx context.Context, writerId string) (*models.EarningsSummary, error) {
	currency := s.catalog.Currency

	totalEarnings, err := s.db.SumWriterShares(ctx, writerId, currency)
	if err != nil {
		return nil, err
	}
	totalPaidOut, err := s.db.SumCompletedPayouts(ctx, writerId, currency)
	if err != nil {
		return nil, err
	}
	pendingPayout, err := s.db.SumPendingPayouts(ctx, writerId, currency)
	if err != nil {
		return nil, err
	}

	// A refund can negate a distribution that was already paid out, which
	// would push the difference below zero.
	available := totalEarnings.Sub(totalPaidOut)
	if available.IsNegative() {
		available = decimal.Zero
	}

	return &models.EarningsSummary{
		WriterId:           writerId,
		Currency:           currency,
		TotalEarnings:      totalEarnings,
		TotalPaidOut:       totalPaidOut,
		PendingPayout:      pendingPayout,
		AvailableForPayout: available,
	}, nil
}

// CreatePayoutRequest opens a pending payout for a writer. The amount is
// validated against availableForPayout at creation time; funds are not
// reserved, so the check is repeated when the request is processed.
func (s *LedgerService) CreatePayoutRequest(ctx context.Context, writerId string, amount decimal.Decimal, paymentMethod, paymentDetails string) (*models.PayoutRequest, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: payout of %s", store.ErrInvalidAmount, amount.String())
	}

	summary, err := s.GetWriterEarningsSummary(ctx, writerId)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(summary.AvailableForPayout) {
		shortfall := amount.Sub(summary.AvailableForPayout)
		return nil, fmt.Errorf("%w: requested %s %s, available %s (short %s)",
			store.ErrInsufficientEarnings, amount.String(), summary.Currency,
			summary.AvailableForPayout.String(), shortfall.String())
	}

	return s.db.InsertPayoutRequest(ctx, store.PayoutRequestParams{
		WriterId:       writerId,
		Amount:         amount,
		Currency:       summary.Currency,
		PaymentMethod:  paymentMethod,
		PaymentDetails: paymentDetails,
	})
}

// ProcessPayoutRequest transitions a pending request to completed after the
// external payout has been confirmed. Available earnings are re-validated
// here: concurrent requests can all sit pending against the same pool, but
// only funds still available at processing time can complete.
func (s *LedgerService) ProcessPayoutRequest(ctx context.Context, payoutId, externalPayoutId string) (*models.PayoutRequest, error) {
	payout, err := s.db.GetPayoutRequest(ctx, payoutId)
	if err != nil {
		return nil, err
	}
	if payout.Status != models.PayoutStatusPending {
		return nil, fmt.Errorf("%w: payout %s is %s", store.ErrAlreadyProcessed, payoutId, payout.Status)
	}

	summary, err := s.GetWriterEarningsSummary(ctx, payout.WriterId)
	if err != nil {
		return nil, err
	}
	if payout.Amount.GreaterThan(summary.AvailableForPayout) {
		zap.L().Warn("Payout no longer covered by available earnings",
			zap.String("payout_id", payoutId),
			zap.String("writer_id", payout.WriterId),
			zap.String("amount", payout.Amount.String()),
			zap.String("available", summary.AvailableForPayout.String()))
		return nil, fmt.Errorf("%w: payout %s for %s exceeds available %s",
			store.ErrInsufficientEarnings, payoutId,
			payout.Amount.String(), summary.AvailableForPayout.String())
	}

	return s.db.UpdatePayoutStatus(ctx, payoutId, models.PayoutStatusPending, models.PayoutStatusCompleted, externalPayoutId)
}

// FailPayoutRequest marks a pending request failed (external transfer was
// rejected). The earnings stay available for a new request.
func (s *LedgerService) FailPayoutRequest(ctx context.Context, payoutId, reason string) (*models.PayoutRequest, error) {
	zap.L().Info("Failing payout request",
		zap.String("payout_id", payoutId),
		zap.String("reason", reason))
	return s.db.UpdatePayoutStatus(ctx, payoutId, models.PayoutStatusPending, models.PayoutStatusFailed, "")
}

// CancelPayoutRequest cancels a pending request at the writer's request.
func (s *LedgerService) CancelPayoutRequest(ctx context.Context, payoutId string) (*models.PayoutRequest, error) {
	return s.db.UpdatePayoutStatus(ctx, payoutId, models.PayoutStatusPending, models.PayoutStatusCancelled, "")
}
