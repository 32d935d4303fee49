package storage

import (
	"context"
	"fmt"
	"log/slog"

	"monohelper/internal/core"
)

const txColumns = `id, source_id, source_kind, time, description, mso, original_mso,
	amount, operation_amount, currency_code, commission_rate, cashback_amount,
	balance, hold, receipt_id, comment`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	err := row.Scan(&t.ID, &t.SourceID, &t.SourceKind, &t.Time, &t.Description,
		&t.MSO, &t.OriginalMSO, &t.Amount, &t.OperationAmount, &t.CurrencyCode,
		&t.CommissionRate, &t.CashbackAmount, &t.Balance, &t.Hold, &t.ReceiptID,
		&t.Comment)
	return t, err
}

// InsertTransaction stores a statement item idempotently. The returned flag
// is false when the row already existed, which is how webhook and poll
// deliveries of the same item dedup.
func (r *Repository) InsertTransaction(ctx context.Context, t core.Transaction) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO transactions
		 (`+txColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.SourceID, t.SourceKind, t.Time, t.Description, t.MSO, t.OriginalMSO,
		t.Amount, t.OperationAmount, t.CurrencyCode, t.CommissionRate, t.CashbackAmount,
		t.Balance, t.Hold, t.ReceiptID, t.Comment)
	if err != nil {
		return false, fmt.Errorf("insert transaction %s: %w", t.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert transaction %s rows: %w", t.ID, err)
	}
	created := n > 0
	if created {
		slog.DebugContext(ctx, "Transaction stored",
			"transaction_id", t.ID,
			"source_id", t.SourceID,
			"amount", t.Amount)
	}
	return created, nil
}

// TransactionFilter restricts transaction listings. A nil OwnerTgIDs means
// no owner restriction; SourceIDs and TimeFrom are optional.
type TransactionFilter struct {
	SourceKind core.SourceKind
	SourceIDs  []string
	OwnerTgIDs []int64
	TimeFrom   int64
}

// ListTransactions returns statement items matching the filter, newest first.
func (r *Repository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE source_kind = ?`
	args := []any{f.SourceKind}

	if f.OwnerTgIDs != nil {
		owner := `mono_cards`
		if f.SourceKind == core.SourceJar {
			owner = `mono_jars`
		}
		query += ` AND source_id IN (SELECT id FROM ` + owner +
			` WHERE account_tg_id IN (` + placeholders(len(f.OwnerTgIDs)) + `))`
		for _, id := range f.OwnerTgIDs {
			args = append(args, id)
		}
	}
	if len(f.SourceIDs) > 0 {
		query += ` AND source_id IN (` + placeholders(len(f.SourceIDs)) + `)`
		for _, id := range f.SourceIDs {
			args = append(args, id)
		}
	}
	if f.TimeFrom > 0 {
		query += ` AND time >= ?`
		args = append(args, f.TimeFrom)
	}
	query += ` ORDER BY time DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// JarTransactionTimes returns the raw unix timestamps of every transaction
// of one jar, for month discovery.
func (r *Repository) JarTransactionTimes(ctx context.Context, jarID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT time FROM transactions WHERE source_id = ? AND source_kind = ?`,
		jarID, core.SourceJar)
	if err != nil {
		return nil, fmt.Errorf("jar transaction times %s: %w", jarID, err)
	}
	defer rows.Close()

	var times []int64
	for rows.Next() {
		var ts int64
		if err := rows.Scan(&ts); err != nil {
			return nil, fmt.Errorf("scan transaction time: %w", err)
		}
		times = append(times, ts)
	}
	return times, rows.Err()
}

// JarTransactionsInWindow returns jar transactions in [from, to) ordered by
// time then id, the order month summaries are defined over.
func (r *Repository) JarTransactionsInWindow(ctx context.Context, jarID string, from, to int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions
		 WHERE source_id = ? AND source_kind = ? AND time >= ? AND time < ?
		 ORDER BY time, id`,
		jarID, core.SourceJar, from, to)
	if err != nil {
		return nil, fmt.Errorf("jar transactions window %s: %w", jarID, err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// CardTransactionsBetween returns the card transactions of one user in
// [from, to) ordered by time then id. Used by the daily report.
func (r *Repository) CardTransactionsBetween(ctx context.Context, tgID, from, to int64) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions
		 WHERE source_kind = ?
		   AND source_id IN (SELECT id FROM mono_cards WHERE account_tg_id = ?)
		   AND time >= ? AND time < ?
		 ORDER BY time, id`,
		core.SourceCard, tgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("card transactions of %d: %w", tgID, err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
