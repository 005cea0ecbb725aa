package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupPayoutTestDB(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	service := &Service{db: db}
	if err := service.InitSchema(); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func TestPayoutLifecycle(t *testing.T) {
	service, cleanup := setupPayoutTestDB(t)
	defer cleanup()

	ctx := context.Background()

	payout, err := service.InsertPayoutRequest(ctx, store.PayoutRequestParams{
		WriterId:      "writer1",
		Amount:        decimal.RequireFromString("40.00"),
		Currency:      "USD",
		PaymentMethod: "bank_transfer",
	})
	if err != nil {
		t.Fatalf("InsertPayoutRequest failed: %v", err)
	}
	if payout.Status != models.PayoutStatusPending {
		t.Errorf("Expected new payout to be pending, got %s", payout.Status)
	}

	completed, err := service.UpdatePayoutStatus(ctx, payout.Id,
		models.PayoutStatusPending, models.PayoutStatusCompleted, "ext_42")
	if err != nil {
		t.Fatalf("UpdatePayoutStatus failed: %v", err)
	}
	if completed.Status != models.PayoutStatusCompleted {
		t.Errorf("Expected completed, got %s", completed.Status)
	}
	if completed.ExternalPayoutId != "ext_42" {
		t.Errorf("Expected external id ext_42, got %s", completed.ExternalPayoutId)
	}

	// A completed request cannot transition again
	_, err = service.UpdatePayoutStatus(ctx, payout.Id,
		models.PayoutStatusPending, models.PayoutStatusCancelled, "")
	if !errors.Is(err, store.ErrAlreadyProcessed) {
		t.Errorf("Expected ErrAlreadyProcessed, got %v", err)
	}
}

func TestUpdatePayoutStatus_NotFound(t *testing.T) {
	service, cleanup := setupPayoutTestDB(t)
	defer cleanup()

	_, err := service.UpdatePayoutStatus(context.Background(), "missing",
		models.PayoutStatusPending, models.PayoutStatusCompleted, "ext")
	if !errors.Is(err, store.ErrPayoutNotFound) {
		t.Errorf("Expected ErrPayoutNotFound, got %v", err)
	}
}

func TestPayoutSums(t *testing.T) {
	service, cleanup := setupPayoutTestDB(t)
	defer cleanup()

	ctx := context.Background()

	amounts := []string{"10.00", "20.50", "5.25"}
	var ids []string
	for _, amount := range amounts {
		payout, err := service.InsertPayoutRequest(ctx, store.PayoutRequestParams{
			WriterId: "writer1",
			Amount:   decimal.RequireFromString(amount),
			Currency: "USD",
		})
		if err != nil {
			t.Fatalf("InsertPayoutRequest failed: %v", err)
		}
		ids = append(ids, payout.Id)
	}

	pending, err := service.SumPendingPayouts(ctx, "writer1", "USD")
	if err != nil {
		t.Fatalf("SumPendingPayouts failed: %v", err)
	}
	if !pending.Equal(decimal.RequireFromString("35.75")) {
		t.Errorf("Expected pending 35.75, got %s", pending.String())
	}

	// Complete the first two
	for _, id := range ids[:2] {
		if _, err := service.UpdatePayoutStatus(ctx, id,
			models.PayoutStatusPending, models.PayoutStatusCompleted, "ext_"+id); err != nil {
			t.Fatalf("UpdatePayoutStatus failed: %v", err)
		}
	}

	completedTotal, err := service.SumCompletedPayouts(ctx, "writer1", "USD")
	if err != nil {
		t.Fatalf("SumCompletedPayouts failed: %v", err)
	}
	if !completedTotal.Equal(decimal.RequireFromString("30.50")) {
		t.Errorf("Expected completed 30.50, got %s", completedTotal.String())
	}

	pending, err = service.SumPendingPayouts(ctx, "writer1", "USD")
	if err != nil {
		t.Fatalf("SumPendingPayouts failed: %v", err)
	}
	if !pending.Equal(decimal.RequireFromString("5.25")) {
		t.Errorf("Expected pending 5.25 after completions, got %s", pending.String())
	}

	now := time.Now().UTC()
	processed, err := service.SumProcessedPayouts(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("SumProcessedPayouts failed: %v", err)
	}
	if !processed.Equal(decimal.RequireFromString("30.50")) {
		t.Errorf("Expected processed 30.50 in window, got %s", processed.String())
	}
}

func TestGetPayoutRequestsByWriter(t *testing.T) {
	service, cleanup := setupPayoutTestDB(t)
	defer cleanup()

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.InsertPayoutRequest(ctx, store.PayoutRequestParams{
			WriterId: "writer1",
			Amount:   decimal.NewFromInt(int64(i + 1)),
			Currency: "USD",
		})
		if err != nil {
			t.Fatalf("InsertPayoutRequest failed: %v", err)
		}
	}
	_, err := service.InsertPayoutRequest(ctx, store.PayoutRequestParams{
		WriterId: "writer2",
		Amount:   decimal.NewFromInt(9),
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("InsertPayoutRequest failed: %v", err)
	}

	payouts, err := service.GetPayoutRequestsByWriter(ctx, "writer1")
	if err != nil {
		t.Fatalf("GetPayoutRequestsByWriter failed: %v", err)
	}
	if len(payouts) != 3 {
		t.Errorf("Expected 3 payouts for writer1, got %d", len(payouts))
	}
}
