package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"legato-ledger-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupDistributionTestDB(t *testing.T) (*Service, func()) {
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

func distributionParams(txId, writerId, gross, writerShare, platformShare string) store.DistributionParams {
	return store.DistributionParams{
		TransactionId:      txId,
		WriterId:           writerId,
		DistributionType:   "content_purchase",
		GrossAmount:        decimal.RequireFromString(gross),
		WriterShare:        decimal.RequireFromString(writerShare),
		PlatformShare:      decimal.RequireFromString(platformShare),
		WriterPercentage:   decimal.NewFromInt(80),
		PlatformPercentage: decimal.NewFromInt(20),
		Currency:           "USD",
	}
}

func TestRecordDistribution(t *testing.T) {
	service, cleanup := setupDistributionTestDB(t)
	defer cleanup()

	ctx := context.Background()

	dist, err := service.RecordDistribution(ctx, distributionParams("tx1", "writer1", "0.50", "0.40", "0.10"))
	if err != nil {
		t.Fatalf("RecordDistribution failed: %v", err)
	}

	if !dist.WriterShare.Add(dist.PlatformShare).Equal(dist.GrossAmount) {
		t.Errorf("Shares %s + %s do not sum to gross %s",
			dist.WriterShare.String(), dist.PlatformShare.String(), dist.GrossAmount.String())
	}

	found, err := service.GetDistributionByTransactionId(ctx, "tx1")
	if err != nil {
		t.Fatalf("GetDistributionByTransactionId failed: %v", err)
	}
	if found == nil || found.Id != dist.Id {
		t.Fatalf("Expected distribution %s, got %+v", dist.Id, found)
	}
	if !found.WriterShare.Equal(decimal.RequireFromString("0.40")) {
		t.Errorf("Expected writer share 0.40, got %s", found.WriterShare.String())
	}
}

func TestRecordDistribution_RejectsMismatchedShares(t *testing.T) {
	service, cleanup := setupDistributionTestDB(t)
	defer cleanup()

	_, err := service.RecordDistribution(context.Background(),
		distributionParams("tx1", "writer1", "1.00", "0.80", "0.21"))
	if err == nil {
		t.Fatal("Expected error when shares do not sum to gross")
	}
}

func TestGetDistributionByTransactionId_NoRevenue(t *testing.T) {
	service, cleanup := setupDistributionTestDB(t)
	defer cleanup()

	dist, err := service.GetDistributionByTransactionId(context.Background(), "plain-tip")
	if err != nil {
		t.Fatalf("GetDistributionByTransactionId failed: %v", err)
	}
	if dist != nil {
		t.Errorf("Expected nil for transaction without distribution, got %+v", dist)
	}
}

func TestSumWriterShares(t *testing.T) {
	service, cleanup := setupDistributionTestDB(t)
	defer cleanup()

	ctx := context.Background()

	// Three 1-cent splits at 33/67: exact decimal sums, no float drift
	for _, txId := range []string{"tx1", "tx2", "tx3"} {
		_, err := service.RecordDistribution(ctx, store.DistributionParams{
			TransactionId:      txId,
			WriterId:           "writer1",
			DistributionType:   "content_purchase",
			GrossAmount:        decimal.RequireFromString("0.01"),
			WriterShare:        decimal.RequireFromString("0.00"),
			PlatformShare:      decimal.RequireFromString("0.01"),
			WriterPercentage:   decimal.NewFromInt(33),
			PlatformPercentage: decimal.NewFromInt(67),
			Currency:           "USD",
		})
		if err != nil {
			t.Fatalf("RecordDistribution failed: %v", err)
		}
	}

	_, err := service.RecordDistribution(ctx, distributionParams("tx4", "writer1", "100.00", "80.00", "20.00"))
	if err != nil {
		t.Fatalf("RecordDistribution failed: %v", err)
	}

	// Another writer's shares must not leak in
	_, err = service.RecordDistribution(ctx, distributionParams("tx5", "writer2", "50.00", "40.00", "10.00"))
	if err != nil {
		t.Fatalf("RecordDistribution failed: %v", err)
	}

	total, err := service.SumWriterShares(ctx, "writer1", "USD")
	if err != nil {
		t.Fatalf("SumWriterShares failed: %v", err)
	}
	if !total.Equal(decimal.RequireFromString("80.00")) {
		t.Errorf("Expected writer1 total 80.00, got %s", total.String())
	}
}

func TestSumDistributions_Window(t *testing.T) {
	service, cleanup := setupDistributionTestDB(t)
	defer cleanup()

	ctx := context.Background()

	_, err := service.RecordDistribution(ctx, distributionParams("tx1", "writer1", "10.00", "8.00", "2.00"))
	if err != nil {
		t.Fatalf("RecordDistribution failed: %v", err)
	}
	_, err = service.RecordDistribution(ctx, distributionParams("tx2", "writer2", "5.00", "4.00", "1.00"))
	if err != nil {
		t.Fatalf("RecordDistribution failed: %v", err)
	}

	now := time.Now().UTC()
	totals, err := service.SumDistributions(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("SumDistributions failed: %v", err)
	}
	if !totals.Gross.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("Expected gross 15.00, got %s", totals.Gross.String())
	}
	if !totals.WriterShare.Equal(decimal.RequireFromString("12.00")) {
		t.Errorf("Expected writer share 12.00, got %s", totals.WriterShare.String())
	}
	if !totals.PlatformShare.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("Expected platform share 3.00, got %s", totals.PlatformShare.String())
	}

	// A window before the rows finds nothing
	empty, err := service.SumDistributions(ctx, now.Add(-2*time.Hour), now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("SumDistributions failed: %v", err)
	}
	if !empty.Gross.IsZero() {
		t.Errorf("Expected zero gross outside window, got %s", empty.Gross.String())
	}
}

func TestSumDistributions_WindowBoundaries(t *testing.T) {
	service, cleanup := setupDistributionTestDB(t)
	defer cleanup()

	ctx := context.Background()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	// created_at is populated by CURRENT_TIMESTAMP in the normal path and
	// stores no timezone suffix. Rows pinned to the exact boundaries must
	// compare correctly against the bound window edges.
	insert := func(id, createdAt string) {
		_, err := service.db.ExecContext(ctx, `
			INSERT INTO revenue_distributions (
				id, transaction_id, writer_id, distribution_type, gross_amount,
				writer_share, platform_share, writer_percentage, platform_percentage,
				currency, created_at
			) VALUES (?, ?, 'writer1', 'content_purchase', '1.00', '0.80', '0.20', '80', '20', 'USD', ?)`,
			id, "tx_"+id, createdAt)
		if err != nil {
			t.Fatalf("Failed to insert distribution row: %v", err)
		}
	}

	insert("at-start", "2026-06-01 00:00:00")
	insert("inside", "2026-06-15 12:30:00")
	insert("at-end", "2026-07-01 00:00:00")
	insert("before", "2026-05-31 23:59:59")

	totals, err := service.SumDistributions(ctx, start, end)
	if err != nil {
		t.Fatalf("SumDistributions failed: %v", err)
	}
	// Start is inclusive, end is exclusive: at-start and inside count
	if !totals.Gross.Equal(decimal.RequireFromString("2.00")) {
		t.Errorf("Expected gross 2.00 for [start, end), got %s", totals.Gross.String())
	}
}
