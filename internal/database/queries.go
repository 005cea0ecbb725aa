package database

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email, role) VALUES (?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, role, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1`

	// Coin balance queries
	queryGetCoinBalance = `
		SELECT id, user_id, balance, lifetime_earned, lifetime_spent,
		       COALESCE(last_transaction_id, ''), version, updated_at
		FROM coin_balances
		WHERE user_id = ?`

	queryInsertCoinBalance = `
		INSERT INTO coin_balances (id, user_id, balance, lifetime_earned, lifetime_spent, version)
		VALUES (?, ?, 0, 0, 0, 1)`

	queryUpdateCoinBalance = `
		UPDATE coin_balances
		SET balance = ?, lifetime_earned = ?, lifetime_spent = ?,
		    last_transaction_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ? AND version = ?`

	// Refunded spends still moved coins when they completed (the refund credit
	// is a separate row), so they stay part of the reconciliation sum.
	queryReconcileCoinBalance = `
		SELECT COALESCE(SUM(coin_amount), 0) AS calculated_balance
		FROM coin_transactions
		WHERE user_id = ? AND status IN ('completed', 'refunded')`

	// Coin transaction queries
	queryCheckDuplicateTransaction = `
		SELECT id FROM coin_transactions WHERE external_transaction_id = ? LIMIT 1`

	queryInsertCoinTransaction = `
		INSERT INTO coin_transactions (
			id, user_id, transaction_type, status, coin_amount, balance_before, balance_after,
			fiat_amount, currency, related_content_id, content_type, counterparty_id,
			external_transaction_id, reference, created_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, user_id, transaction_type, status, coin_amount, balance_before, balance_after,
		          fiat_amount, currency, related_content_id, content_type, counterparty_id,
		          external_transaction_id, reference, created_at, completed_at`

	queryGetTransactionById = `
		SELECT id, user_id, transaction_type, status, coin_amount, balance_before, balance_after,
		       fiat_amount, currency, related_content_id, content_type, counterparty_id,
		       external_transaction_id, reference, created_at, completed_at
		FROM coin_transactions
		WHERE id = ?`

	queryGetTransactionHistory = `
		SELECT id, user_id, transaction_type, status, coin_amount, balance_before, balance_after,
		       fiat_amount, currency, related_content_id, content_type, counterparty_id,
		       external_transaction_id, reference, created_at, completed_at
		FROM coin_transactions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	// Content purchase queries (derived view over coin_transactions)
	queryGetPurchase = `
		SELECT id, user_id, transaction_type, status, coin_amount, balance_before, balance_after,
		       fiat_amount, currency, related_content_id, content_type, counterparty_id,
		       external_transaction_id, reference, created_at, completed_at
		FROM coin_transactions
		WHERE user_id = ? AND related_content_id = ?
		  AND transaction_type = 'coin_spend' AND status = 'completed'
		LIMIT 1`

	queryMarkPurchaseRefunded = `
		UPDATE coin_transactions
		SET status = 'refunded'
		WHERE id = ? AND transaction_type = 'coin_spend' AND status = 'completed'`

	queryReinstatePurchase = `
		UPDATE coin_transactions
		SET status = 'completed'
		WHERE id = ? AND transaction_type = 'coin_spend' AND status = 'refunded'`

	// Revenue distribution queries
	queryInsertDistribution = `
		INSERT INTO revenue_distributions (
			id, transaction_id, writer_id, distribution_type, gross_amount,
			writer_share, platform_share, writer_percentage, platform_percentage, currency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id, transaction_id, writer_id, distribution_type, gross_amount,
		          writer_share, platform_share, writer_percentage, platform_percentage,
		          currency, created_at`

	queryGetDistributionByTransaction = `
		SELECT id, transaction_id, writer_id, distribution_type, gross_amount,
		       writer_share, platform_share, writer_percentage, platform_percentage,
		       currency, created_at
		FROM revenue_distributions
		WHERE transaction_id = ?
		LIMIT 1`

	// Share amounts are stored as decimal strings and summed in Go with
	// shopspring/decimal; SQL SUM over floats would leak rounding error.
	querySelectWriterShares = `
		SELECT writer_share
		FROM revenue_distributions
		WHERE writer_id = ? AND currency = ?`

	querySelectDistributionsInRange = `
		SELECT gross_amount, writer_share, platform_share
		FROM revenue_distributions
		WHERE created_at >= ? AND created_at < ?`

	// Payout request queries
	queryInsertPayoutRequest = `
		INSERT INTO payout_requests (id, writer_id, amount, currency, status, payment_method, payment_details)
		VALUES (?, ?, ?, ?, 'pending', ?, ?)
		RETURNING id, writer_id, amount, currency, status, payment_method, payment_details,
		          external_payout_id, created_at, COALESCE(processed_at, created_at)`

	queryGetPayoutRequest = `
		SELECT id, writer_id, amount, currency, status, payment_method, payment_details,
		       external_payout_id, created_at, COALESCE(processed_at, created_at)
		FROM payout_requests
		WHERE id = ?`

	queryGetPayoutRequestsByWriter = `
		SELECT id, writer_id, amount, currency, status, payment_method, payment_details,
		       external_payout_id, created_at, COALESCE(processed_at, created_at)
		FROM payout_requests
		WHERE writer_id = ?
		ORDER BY created_at DESC`

	queryUpdatePayoutStatus = `
		UPDATE payout_requests
		SET status = ?, external_payout_id = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`

	querySelectCompletedPayoutAmounts = `
		SELECT amount
		FROM payout_requests
		WHERE writer_id = ? AND currency = ? AND status = 'completed'`

	querySelectPendingPayoutAmounts = `
		SELECT amount
		FROM payout_requests
		WHERE writer_id = ? AND currency = ? AND status = 'pending'`

	querySelectProcessedPayoutAmountsInRange = `
		SELECT amount
		FROM payout_requests
		WHERE status = 'completed' AND processed_at >= ? AND processed_at < ?`

	// Subscription queries
	queryGetSubscription = `
		SELECT id, user_id, tier, expires_at, created_at, updated_at
		FROM subscriptions
		WHERE user_id = ?`

	queryUpsertSubscription = `
		INSERT INTO subscriptions (id, user_id, tier, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE
		SET tier = excluded.tier, expires_at = excluded.expires_at, updated_at = CURRENT_TIMESTAMP`
)
