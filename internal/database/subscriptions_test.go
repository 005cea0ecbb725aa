package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

func setupSubscriptionTestDB(t *testing.T) (*Service, func()) {
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

func TestUpsertSubscription(t *testing.T) {
	service, cleanup := setupSubscriptionTestDB(t)
	defer cleanup()

	ctx := context.Background()
	expires := time.Now().UTC().Add(30 * 24 * time.Hour)

	sub, err := service.UpsertSubscription(ctx, "reader1", "basic", expires)
	if err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}
	if sub.Tier != "basic" {
		t.Errorf("Expected tier basic, got %s", sub.Tier)
	}

	// Upgrade replaces the row, one subscription per user
	upgraded, err := service.UpsertSubscription(ctx, "reader1", "premium", expires.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Upgrade failed: %v", err)
	}
	if upgraded.Tier != "premium" {
		t.Errorf("Expected tier premium after upgrade, got %s", upgraded.Tier)
	}
	if upgraded.Id != sub.Id {
		t.Errorf("Expected upsert to keep row id %s, got %s", sub.Id, upgraded.Id)
	}
}

func TestGetActiveSubscription(t *testing.T) {
	service, cleanup := setupSubscriptionTestDB(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	// No subscription at all
	sub, err := service.GetActiveSubscription(ctx, "reader1", now)
	if err != nil {
		t.Fatalf("GetActiveSubscription failed: %v", err)
	}
	if sub != nil {
		t.Errorf("Expected nil for unsubscribed user, got %+v", sub)
	}

	if _, err := service.UpsertSubscription(ctx, "reader1", "vip", now.Add(time.Hour)); err != nil {
		t.Fatalf("UpsertSubscription failed: %v", err)
	}

	sub, err = service.GetActiveSubscription(ctx, "reader1", now)
	if err != nil {
		t.Fatalf("GetActiveSubscription failed: %v", err)
	}
	if sub == nil || sub.Tier != "vip" {
		t.Fatalf("Expected active vip subscription, got %+v", sub)
	}

	// Lapsed at the expiry instant
	lapsed, err := service.GetActiveSubscription(ctx, "reader1", sub.ExpiresAt)
	if err != nil {
		t.Fatalf("GetActiveSubscription failed: %v", err)
	}
	if lapsed != nil {
		t.Errorf("Expected nil at expiry instant, got %+v", lapsed)
	}

	// The raw row is still there for history
	raw, err := service.GetSubscription(ctx, "reader1")
	if err != nil {
		t.Fatalf("GetSubscription failed: %v", err)
	}
	if raw == nil {
		t.Error("Expected raw subscription row to persist after lapse")
	}
}
