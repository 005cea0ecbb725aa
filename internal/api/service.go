package api

import (
	"context"
	"fmt"

	"legato-ledger-go/internal/pricing"
	"legato-ledger-go/internal/revenue"
	"legato-ledger-go/internal/store"
)

// LedgerService is the service layer over the coin ledger: access gating,
// tips and gifts, coin top-ups, payout reconciliation, and reporting. It is
// constructed per process with explicit dependencies; there is no package
// state.
type LedgerService struct {
	db      store.Store
	calc    *revenue.Calculator
	catalog *pricing.Config
}

func NewLedgerService(db store.Store, calc *revenue.Calculator, catalog *pricing.Config) *LedgerService {
	return &LedgerService{
		db:      db,
		calc:    calc,
		catalog: catalog,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.db.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
