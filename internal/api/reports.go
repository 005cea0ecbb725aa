package api

import (
	"context"
	"fmt"
	"time"

	"legato-ledger-go/internal/models"
)

// GenerateRevenueReport rolls up completed distributions and processed
// payouts over [periodStart, periodEnd).
func (s *LedgerService) GenerateRevenueReport(ctx context.Context, periodStart, periodEnd time.Time) (*models.RevenueReport, error) {
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("report period end %s is not after start %s",
			periodEnd.Format(time.RFC3339), periodStart.Format(time.RFC3339))
	}

	totals, err := s.db.SumDistributions(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	payoutsProcessed, err := s.db.SumProcessedPayouts(ctx, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	return &models.RevenueReport{
		PeriodStart:           periodStart,
		PeriodEnd:             periodEnd,
		TotalRevenue:          totals.Gross,
		TotalWriterShare:      totals.WriterShare,
		TotalPlatformShare:    totals.PlatformShare,
		PayoutsTotalProcessed: payoutsProcessed,
		Currency:              s.catalog.Currency,
	}, nil
}
