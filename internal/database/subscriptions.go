package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"legato-ledger-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetSubscription returns the user's subscription row regardless of expiry,
// or nil if the user never subscribed.
func (s *Service) GetSubscription(ctx context.Context, userId string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.QueryRowContext(ctx, queryGetSubscription, userId).Scan(
		&sub.Id, &sub.UserId, &sub.Tier, &sub.ExpiresAt, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return &sub, nil
}

// GetActiveSubscription returns the user's subscription if it has not
// expired at the supplied instant, or nil if absent or lapsed.
func (s *Service) GetActiveSubscription(ctx context.Context, userId string, now time.Time) (*models.Subscription, error) {
	sub, err := s.GetSubscription(ctx, userId)
	if err != nil || sub == nil {
		return sub, err
	}
	if !sub.ExpiresAt.After(now) {
		return nil, nil
	}
	return sub, nil
}

// UpsertSubscription creates or replaces a user's subscription row.
func (s *Service) UpsertSubscription(ctx context.Context, userId, tier string, expiresAt time.Time) (*models.Subscription, error) {
	id := uuid.New().String()
	if _, err := s.db.ExecContext(ctx, queryUpsertSubscription, id, userId, tier, expiresAt.UTC()); err != nil {
		return nil, fmt.Errorf("failed to upsert subscription: %w", err)
	}

	zap.L().Info("Subscription upserted",
		zap.String("user_id", userId),
		zap.String("tier", tier),
		zap.Time("expires_at", expiresAt))

	var sub models.Subscription
	err := s.db.QueryRowContext(ctx, queryGetSubscription, userId).Scan(
		&sub.Id, &sub.UserId, &sub.Tier, &sub.ExpiresAt, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read back subscription: %w", err)
	}
	return &sub, nil
}
