package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"go.uber.org/zap"
)

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoinTransaction(row rowScanner) (*models.CoinTransaction, error) {
	var tx models.CoinTransaction
	var fiatStr string
	err := row.Scan(&tx.Id, &tx.UserId, &tx.TransactionType, &tx.Status,
		&tx.CoinAmount, &tx.BalanceBefore, &tx.BalanceAfter,
		&fiatStr, &tx.Currency, &tx.RelatedContentId, &tx.ContentType,
		&tx.CounterpartyId, &tx.ExternalTxId, &tx.Reference,
		&tx.CreatedAt, &tx.CompletedAt)
	if err != nil {
		return nil, err
	}
	tx.FiatAmount, err = parseDecimal(fiatStr, "fiat_amount")
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *Service) GetTransactionById(ctx context.Context, transactionId string) (*models.CoinTransaction, error) {
	tx, err := scanCoinTransaction(s.db.QueryRowContext(ctx, queryGetTransactionById, transactionId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", transactionId, err)
	}
	return tx, nil
}

// GetTransactionHistory returns paginated transaction history for a user
func (s *Service) GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.CoinTransaction, error) {
	zap.L().Debug("Getting transaction history",
		zap.String("user_id", userId),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	rows, err := s.db.QueryContext(ctx, queryGetTransactionHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.CoinTransaction
	for rows.Next() {
		tx, err := scanCoinTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *tx)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// GetPurchase returns the completed coin-spend transaction granting a user
// access to a content item, or nil if no such purchase exists.
func (s *Service) GetPurchase(ctx context.Context, userId, contentId string) (*models.CoinTransaction, error) {
	tx, err := scanCoinTransaction(s.db.QueryRowContext(ctx, queryGetPurchase, userId, contentId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	return tx, nil
}

// MarkPurchaseRefunded flips a completed purchase row to refunded. This is
// the only permitted status mutation: it withdraws the access grant while
// the compensating refund credit is recorded as its own row.
func (s *Service) MarkPurchaseRefunded(ctx context.Context, transactionId string) error {
	result, err := s.db.ExecContext(ctx, queryMarkPurchaseRefunded, transactionId)
	if err != nil {
		return fmt.Errorf("failed to mark purchase refunded: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: transaction %s", store.ErrPurchaseNotFound, transactionId)
	}

	zap.L().Info("Purchase marked refunded", zap.String("transaction_id", transactionId))
	return nil
}

// ReinstatePurchase flips a refunded purchase row back to completed. It is
// the rollback for a refund whose credit could not be applied: the access
// grant returns so the user is not left without both access and coins.
func (s *Service) ReinstatePurchase(ctx context.Context, transactionId string) error {
	result, err := s.db.ExecContext(ctx, queryReinstatePurchase, transactionId)
	if err != nil {
		return fmt.Errorf("failed to reinstate purchase: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: transaction %s", store.ErrPurchaseNotFound, transactionId)
	}

	zap.L().Info("Purchase reinstated", zap.String("transaction_id", transactionId))
	return nil
}
