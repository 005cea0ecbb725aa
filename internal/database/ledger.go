package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxAdjustRetries bounds the automatic retry on optimistic-lock conflicts.
// Every other failure kind is terminal and surfaced immediately.
const maxAdjustRetries = 2

// AdjustCoinBalance atomically applies a signed coin delta to a user's
// balance and appends the matching ledger entry. A debit that exceeds the
// current balance fails with store.ErrInsufficientBalance and performs no
// mutation. Lost-update conflicts are retried a bounded number of times.
func (s *Service) AdjustCoinBalance(ctx context.Context, params store.CoinTransactionParams) (*models.CoinTransaction, error) {
	if params.CoinAmount == 0 {
		return nil, fmt.Errorf("%w: coin amount is zero", store.ErrInvalidAmount)
	}

	var lastErr error
	for attempt := 0; attempt <= maxAdjustRetries; attempt++ {
		tx, err := s.processCoinTransaction(ctx, params)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, store.ErrConcurrentModification) {
			return nil, err
		}
		lastErr = err
		zap.L().Warn("Balance version conflict, retrying",
			zap.String("user_id", params.UserId),
			zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// processCoinTransaction is a single attempt of the read-check-write cycle:
// dedup on the external id, read the balance row, verify sufficiency, insert
// the ledger entry, and bump the balance row under an optimistic version
// check. Everything runs inside one database transaction.
func (s *Service) processCoinTransaction(ctx context.Context, params store.CoinTransactionParams) (*models.CoinTransaction, error) {
	zap.L().Info("Processing coin transaction",
		zap.String("user_id", params.UserId),
		zap.String("type", params.TransactionType),
		zap.Int64("coin_amount", params.CoinAmount),
		zap.String("external_tx_id", params.ExternalTxId))

	// Check for duplicate external transaction id
	if params.ExternalTxId != "" {
		var existingTxId string
		err := s.db.QueryRowContext(ctx, queryCheckDuplicateTransaction, params.ExternalTxId).Scan(&existingTxId)
		if err == nil {
			zap.L().Warn("Duplicate external transaction id detected, skipping",
				zap.String("external_tx_id", params.ExternalTxId),
				zap.String("existing_internal_tx_id", existingTxId))
			return nil, fmt.Errorf("%w: external_transaction_id %s already exists", store.ErrDuplicateTransaction, params.ExternalTxId)
		} else if err != sql.ErrNoRows {
			return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	balance, err := getOrCreateBalanceTx(ctx, tx, params.UserId)
	if err != nil {
		return nil, err
	}

	// Sufficiency check before any mutation
	newBalance := balance.Balance + params.CoinAmount
	if newBalance < 0 {
		return nil, fmt.Errorf("%w: balance %d, requested %d",
			store.ErrInsufficientBalance, balance.Balance, -params.CoinAmount)
	}

	newEarned := balance.LifetimeEarned
	newSpent := balance.LifetimeSpent
	if params.CoinAmount > 0 {
		newEarned += params.CoinAmount
	} else {
		newSpent += -params.CoinAmount
	}

	transactionId := uuid.New().String()
	now := time.Now().UTC()

	record := &models.CoinTransaction{}
	var fiatStr string
	err = tx.QueryRowContext(ctx, queryInsertCoinTransaction,
		transactionId, params.UserId, params.TransactionType, "completed",
		params.CoinAmount, balance.Balance, newBalance,
		params.FiatAmount.String(), params.Currency,
		params.RelatedContentId, params.ContentType, params.CounterpartyId,
		params.ExternalTxId, params.Reference, now, now).
		Scan(&record.Id, &record.UserId, &record.TransactionType, &record.Status,
			&record.CoinAmount, &record.BalanceBefore, &record.BalanceAfter,
			&fiatStr, &record.Currency, &record.RelatedContentId, &record.ContentType,
			&record.CounterpartyId, &record.ExternalTxId, &record.Reference,
			&record.CreatedAt, &record.CompletedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, uniqueViolationError(err, params)
		}
		return nil, fmt.Errorf("failed to insert coin transaction: %w", err)
	}
	record.FiatAmount, err = parseDecimal(fiatStr, "fiat_amount")
	if err != nil {
		return nil, err
	}

	// Update balance row under optimistic version check
	result, err := tx.ExecContext(ctx, queryUpdateCoinBalance,
		newBalance, newEarned, newSpent, transactionId, params.UserId, balance.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to update coin balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("balance update failed - %w", store.ErrConcurrentModification)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Coin transaction processed successfully",
		zap.String("transaction_id", transactionId),
		zap.String("user_id", params.UserId),
		zap.String("type", params.TransactionType),
		zap.Int64("old_balance", balance.Balance),
		zap.Int64("new_balance", newBalance))

	return record, nil
}

// getOrCreateBalanceTx reads a user's balance row inside an open database
// transaction, creating a zero row on first touch.
func getOrCreateBalanceTx(ctx context.Context, tx *sql.Tx, userId string) (*models.CoinBalance, error) {
	var balance models.CoinBalance
	err := tx.QueryRowContext(ctx, queryGetCoinBalance, userId).Scan(
		&balance.Id, &balance.UserId, &balance.Balance,
		&balance.LifetimeEarned, &balance.LifetimeSpent,
		&balance.LastTransactionId, &balance.Version, &balance.UpdatedAt)
	if err == nil {
		return &balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get coin balance: %w", err)
	}

	balance = models.CoinBalance{
		Id:      uuid.New().String(),
		UserId:  userId,
		Version: 1,
	}
	if _, err := tx.ExecContext(ctx, queryInsertCoinBalance, balance.Id, userId); err != nil {
		return nil, fmt.Errorf("failed to create coin balance: %w", err)
	}
	return &balance, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// uniqueViolationError picks the sentinel for a UNIQUE failure on the ledger
// insert. A racing duplicate external id can slip past the pre-insert check
// and trip the external id index here; SQLite names the violated columns in
// the error text.
func uniqueViolationError(err error, params store.CoinTransactionParams) error {
	if strings.Contains(err.Error(), "external_transaction_id") {
		return fmt.Errorf("%w: external_transaction_id %s already exists", store.ErrDuplicateTransaction, params.ExternalTxId)
	}
	return fmt.Errorf("%w: content %s", store.ErrAlreadyPurchased, params.RelatedContentId)
}
