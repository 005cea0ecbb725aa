package api

import (
	"context"
	"errors"
	"fmt"

	"legato-ledger-go/internal/models"
	"legato-ledger-go/internal/store"

	"go.uber.org/zap"
)

// ProcessTip moves coins from a reader to a writer. The sender is debited
// before the recipient is credited; an insufficient sender balance aborts
// before any credit, so there is never a partial tip.
func (s *LedgerService) ProcessTip(ctx context.Context, senderId, recipientId string, coinAmount int64, message string) (*models.TransferResult, error) {
	return s.transferCoins(ctx, senderId, recipientId, coinAmount, "tip", message)
}

// ProcessGift is a tip variant recorded under its own transaction type.
func (s *LedgerService) ProcessGift(ctx context.Context, senderId, recipientId string, coinAmount int64, message string) (*models.TransferResult, error) {
	return s.transferCoins(ctx, senderId, recipientId, coinAmount, "gift", message)
}

func (s *LedgerService) transferCoins(ctx context.Context, senderId, recipientId string, coinAmount int64, transactionType, message string) (*models.TransferResult, error) {
	if coinAmount <= 0 {
		return nil, fmt.Errorf("%w: %s of %d coins", store.ErrInvalidAmount, transactionType, coinAmount)
	}
	if senderId == recipientId {
		return nil, fmt.Errorf("%w: sender and recipient are the same user", store.ErrInvalidAmount)
	}

	debit, err := s.db.AdjustCoinBalance(ctx, store.CoinTransactionParams{
		UserId:          senderId,
		TransactionType: transactionType,
		CoinAmount:      -coinAmount,
		CounterpartyId:  recipientId,
		Reference:       message,
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientBalance) {
			var senderBalance int64
			if balance, balErr := s.db.GetBalance(ctx, senderId); balErr == nil && balance != nil {
				senderBalance = balance.Balance
			}
			return &models.TransferResult{
				Success:       false,
				SenderBalance: senderBalance,
				CoinsNeeded:   coinAmount - senderBalance,
				Reason:        "insufficient_balance",
			}, err
		}
		return nil, err
	}

	credit, err := s.db.AdjustCoinBalance(ctx, store.CoinTransactionParams{
		UserId:          recipientId,
		TransactionType: transactionType,
		CoinAmount:      coinAmount,
		CounterpartyId:  senderId,
		Reference:       message,
	})
	if err != nil {
		// Credit the coins back to the sender so the debit is not stranded.
		zap.L().Error("Transfer credit failed, reversing debit",
			zap.String("sender_id", senderId),
			zap.String("recipient_id", recipientId),
			zap.Int64("coin_amount", coinAmount),
			zap.Error(err))
		if _, revErr := s.db.AdjustCoinBalance(ctx, store.CoinTransactionParams{
			UserId:          senderId,
			TransactionType: "refund",
			CoinAmount:      coinAmount,
			CounterpartyId:  recipientId,
			Reference:       fmt.Sprintf("Reversal of failed %s %s", transactionType, debit.Id),
		}); revErr != nil {
			zap.L().Error("Failed to reverse stranded transfer debit",
				zap.String("debit_transaction_id", debit.Id),
				zap.Error(revErr))
		}
		return nil, fmt.Errorf("failed to credit recipient: %w", err)
	}

	zap.L().Info("Coin transfer completed",
		zap.String("type", transactionType),
		zap.String("sender_id", senderId),
		zap.String("recipient_id", recipientId),
		zap.Int64("coin_amount", coinAmount),
		zap.Int64("sender_balance", debit.BalanceAfter),
		zap.Int64("recipient_balance", credit.BalanceAfter))

	return &models.TransferResult{
		Success:          true,
		TransactionId:    debit.Id,
		SenderBalance:    debit.BalanceAfter,
		RecipientBalance: credit.BalanceAfter,
	}, nil
}
