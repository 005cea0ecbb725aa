package api

import (
	"context"
	"errors"
	"testing"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestRecordCoinPurchase(t *testing.T) {
	service, dbService := setupTestService(t)
	createTestUser(t, dbService, "reader1", "reader")

	result, err := service.RecordCoinPurchase(context.Background(), "reader1",
		500, decimal.RequireFromString("4.99"), "USD", "gw_abc")
	if err != nil {
		t.Fatalf("RecordCoinPurchase failed: %v", err)
	}
	if !result.Success || result.CoinsCredited != 500 || result.NewBalance != 500 {
		t.Errorf("Unexpected coin purchase result: %+v", result)
	}
}

func TestRecordCoinPurchase_DuplicateConfirmation(t *testing.T) {
	service, dbService := setupTestService(t)
	createTestUser(t, dbService, "reader1", "reader")

	ctx := context.Background()

	if _, err := service.RecordCoinPurchase(ctx, "reader1",
		500, decimal.RequireFromString("4.99"), "USD", "gw_abc"); err != nil {
		t.Fatalf("First confirmation failed: %v", err)
	}

	// A replayed gateway webhook is a no-op, not an error
	result, err := service.RecordCoinPurchase(ctx, "reader1",
		500, decimal.RequireFromString("4.99"), "USD", "gw_abc")
	if err != nil {
		t.Fatalf("Replayed confirmation returned error: %v", err)
	}
	if result.Success || !result.Duplicate {
		t.Errorf("Expected duplicate result, got %+v", result)
	}
	if result.NewBalance != 500 {
		t.Errorf("Replay must not double-credit, balance %d", result.NewBalance)
	}
}

func TestRecordCoinPurchase_Validation(t *testing.T) {
	service, dbService := setupTestService(t)
	createTestUser(t, dbService, "reader1", "reader")

	ctx := context.Background()

	_, err := service.RecordCoinPurchase(ctx, "reader1", 0, decimal.RequireFromString("1.00"), "USD", "gw_1")
	if !errors.Is(err, store.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for zero coins, got %v", err)
	}

	_, err = service.RecordCoinPurchase(ctx, "reader1", 100, decimal.Zero, "USD", "gw_2")
	if !errors.Is(err, store.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount for zero fiat, got %v", err)
	}

	_, err = service.RecordCoinPurchase(ctx, "reader1", 100, decimal.RequireFromString("1.00"), "USD", "")
	if err == nil {
		t.Error("Expected error for missing gateway transaction id")
	}
}

func TestRefundContentPurchase(t *testing.T) {
	service, dbService := setupTestService(t)
	createTestUser(t, dbService, "reader1", "reader")
	createTestUser(t, dbService, "writer1", "writer")
	fundUser(t, service, "reader1", 100)

	ctx := context.Background()

	if _, err := service.PurchaseContentAccess(ctx, "reader1", "story-1", "story", "writer1"); err != nil {
		t.Fatalf("PurchaseContentAccess failed: %v", err)
	}

	refund, err := service.RefundContentPurchase(ctx, "reader1", "story-1")
	if err != nil {
		t.Fatalf("RefundContentPurchase failed: %v", err)
	}
	if !refund.Success || refund.NewBalance != 100 {
		t.Errorf("Expected balance restored to 100, got %+v", refund)
	}

	// Access is withdrawn
	check, err := service.CheckAccess(ctx, "reader1", "story-1", "story")
	if err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
	if check.HasAccess {
		t.Error("Refunded purchase must not retain access")
	}

	// The writer's earnings are compensated down to zero
	earnings, err := dbService.SumWriterShares(ctx, "writer1", "USD")
	if err != nil {
		t.Fatalf("SumWriterShares failed: %v", err)
	}
	if !earnings.IsZero() {
		t.Errorf("Expected writer earnings compensated to zero, got %s", earnings.String())
	}

	// Compensating distribution hangs off the refund credit
	dist, err := dbService.GetDistributionByTransactionId(ctx, refund.TransactionId)
	if err != nil {
		t.Fatalf("GetDistributionByTransactionId failed: %v", err)
	}
	if dist == nil {
		t.Fatal("Expected compensating distribution for the refund")
	}
	if !dist.GrossAmount.IsNegative() {
		t.Errorf("Expected negated gross, got %s", dist.GrossAmount.String())
	}

	// Ledger stays reconciled through the round trip
	if err := dbService.ReconcileBalance(ctx, "reader1"); err != nil {
		t.Errorf("ReconcileBalance failed after refund: %v", err)
	}

	// The reader can buy the same story again
	if _, err := service.PurchaseContentAccess(ctx, "reader1", "story-1", "story", "writer1"); err != nil {
		t.Errorf("Repurchase after refund should succeed: %v", err)
	}
}

// refundCreditFailingStore rejects every balance adjustment, standing in for
// a storage failure between the refund marker and the refund credit.
type refundCreditFailingStore struct {
	store.Store
}

func (f *refundCreditFailingStore) AdjustCoinBalance(ctx context.Context, params store.CoinTransactionParams) (*models.CoinTransaction, error) {
	return nil, errors.New("ledger storage unavailable")
}

func TestRefundContentPurchase_CreditFailureReinstatesPurchase(t *testing.T) {
	service, dbService := setupTestService(t)
	createTestUser(t, dbService, "reader1", "reader")
	createTestUser(t, dbService, "writer1", "writer")
	fundUser(t, service, "reader1", 100)

	ctx := context.Background()

	if _, err := service.PurchaseContentAccess(ctx, "reader1", "story-1", "story", "writer1"); err != nil {
		t.Fatalf("PurchaseContentAccess failed: %v", err)
	}

	failing := NewLedgerService(&refundCreditFailingStore{Store: dbService}, service.calc, service.catalog)
	_, err := failing.RefundContentPurchase(ctx, "reader1", "story-1")
	if err == nil {
		t.Fatal("Expected refund to fail when the credit cannot be applied")
	}

	// The user keeps access: the refund marker is rolled back
	check, err := service.CheckAccess(ctx, "reader1", "story-1", "story")
	if err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
	if !check.HasAccess {
		t.Error("Failed refund must not withdraw the access grant")
	}

	// No coins moved
	if balance := coinBalance(t, dbService, "reader1"); balance != 50 {
		t.Errorf("Expected balance unchanged at 50, got %d", balance)
	}

	// The writer's earnings are untouched
	earnings, err := dbService.SumWriterShares(ctx, "writer1", "USD")
	if err != nil {
		t.Fatalf("SumWriterShares failed: %v", err)
	}
	if !earnings.Equal(decimal.RequireFromString("0.40")) {
		t.Errorf("Expected writer earnings 0.40, got %s", earnings.String())
	}

	// A refund against healthy storage still goes through afterwards
	refund, err := service.RefundContentPurchase(ctx, "reader1", "story-1")
	if err != nil {
		t.Fatalf("RefundContentPurchase failed: %v", err)
	}
	if refund.NewBalance != 100 {
		t.Errorf("Expected balance restored to 100, got %d", refund.NewBalance)
	}
}

func TestRefundContentPurchase_NoPurchase(t *testing.T) {
	service, dbService := setupTestService(t)
	createTestUser(t, dbService, "reader1", "reader")

	_, err := service.RefundContentPurchase(context.Background(), "reader1", "story-1")
	if !errors.Is(err, store.ErrPurchaseNotFound) {
		t.Fatalf("Expected ErrPurchaseNotFound, got %v", err)
	}
}
