package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"monohelper/internal/core"
)

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// CreateAccount links a Monobank token to a user.
func (r *Repository) CreateAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mono_accounts (tg_id, token, is_active) VALUES (?, ?, ?)`,
		a.TgID, a.Token, a.Active)
	if err != nil {
		return fmt.Errorf("create account %d: %w", a.TgID, err)
	}

	slog.InfoContext(ctx, "Monobank account linked", "tg_id", a.TgID)
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, tgID int64) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT tg_id, token, is_active FROM mono_accounts WHERE tg_id = ?`, tgID).
		Scan(&a.TgID, &a.Token, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", tgID, err)
	}
	return a, nil
}

func (r *Repository) GetAccountByToken(ctx context.Context, token string) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT tg_id, token, is_active FROM mono_accounts WHERE token = ?`, token).
		Scan(&a.TgID, &a.Token, &a.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account by token: %w", err)
	}
	return a, nil
}

// ListActiveAccounts returns all accounts eligible for polling.
func (r *Repository) ListActiveAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tg_id, token, is_active FROM mono_accounts WHERE is_active = 1 ORDER BY tg_id`)
	if err != nil {
		return nil, fmt.Errorf("list active accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.TgID, &a.Token, &a.Active); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// ListAccounts returns every linked account regardless of state.
func (r *Repository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tg_id, token, is_active FROM mono_accounts ORDER BY tg_id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.TgID, &a.Token, &a.Active); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpsertCard inserts or fully refreshes a card row from a bank snapshot.
// A refreshed card is always reactivated.
func (r *Repository) UpsertCard(ctx context.Context, c core.Card) error {
	maskedPan, err := json.Marshal(c.MaskedPan)
	if err != nil {
		return fmt.Errorf("marshal masked pan: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO mono_cards (id, account_tg_id, send_id, currency_code, cashback_type,
		                         balance, credit_limit, masked_pan, type, iban, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		 ON CONFLICT (id) DO UPDATE SET
		     account_tg_id = excluded.account_tg_id,
		     send_id = excluded.send_id,
		     currency_code = excluded.currency_code,
		     cashback_type = excluded.cashback_type,
		     balance = excluded.balance,
		     credit_limit = excluded.credit_limit,
		     masked_pan = excluded.masked_pan,
		     type = excluded.type,
		     iban = excluded.iban,
		     is_active = 1`,
		c.ID, c.AccountTgID, c.SendID, c.CurrencyCode, c.CashbackType,
		c.Balance, c.CreditLimit, string(maskedPan), c.Type, c.IBAN)
	if err != nil {
		return fmt.Errorf("upsert card %s: %w", c.ID, err)
	}
	return nil
}

// UpsertJar inserts or refreshes a jar row. The budget flag and invested
// amount are local state and survive refreshes.
func (r *Repository) UpsertJar(ctx context.Context, j core.Jar) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mono_jars (id, account_tg_id, send_id, title, currency_code,
		                        balance, goal, is_budget, invested, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, 1)
		 ON CONFLICT (id) DO UPDATE SET
		     account_tg_id = excluded.account_tg_id,
		     send_id = excluded.send_id,
		     title = excluded.title,
		     currency_code = excluded.currency_code,
		     balance = excluded.balance,
		     goal = excluded.goal,
		     is_active = 1`,
		j.ID, j.AccountTgID, j.SendID, j.Title, j.CurrencyCode,
		j.Balance, j.Goal)
	if err != nil {
		return fmt.Errorf("upsert jar %s: %w", j.ID, err)
	}
	return nil
}

// DeactivateCardsExcept marks every card of an account inactive except the
// given ids. Used after a client-info snapshot so removed cards stop showing.
func (r *Repository) DeactivateCardsExcept(ctx context.Context, tgID int64, keep []string) error {
	return r.deactivateExcept(ctx, "mono_cards", tgID, keep)
}

// DeactivateJarsExcept is the jar counterpart of DeactivateCardsExcept.
func (r *Repository) DeactivateJarsExcept(ctx context.Context, tgID int64, keep []string) error {
	return r.deactivateExcept(ctx, "mono_jars", tgID, keep)
}

func (r *Repository) deactivateExcept(ctx context.Context, table string, tgID int64, keep []string) error {
	query := `UPDATE ` + table + ` SET is_active = 0 WHERE account_tg_id = ?`
	args := []any{tgID}
	if len(keep) > 0 {
		query += ` AND id NOT IN (` + placeholders(len(keep)) + `)`
		for _, id := range keep {
			args = append(args, id)
		}
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deactivate %s of %d: %w", table, tgID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.InfoContext(ctx, "Deactivated stale entities",
			"table", table,
			"account_tg_id", tgID,
			"count", n)
	}
	return nil
}

func scanCard(row interface{ Scan(...any) error }) (core.Card, error) {
	var c core.Card
	var maskedPan string
	err := row.Scan(&c.ID, &c.AccountTgID, &c.SendID, &c.CurrencyCode, &c.CashbackType,
		&c.Balance, &c.CreditLimit, &maskedPan, &c.Type, &c.IBAN, &c.Active)
	if err != nil {
		return core.Card{}, err
	}
	if err := json.Unmarshal([]byte(maskedPan), &c.MaskedPan); err != nil {
		return core.Card{}, fmt.Errorf("unmarshal masked pan of %s: %w", c.ID, err)
	}
	return c, nil
}

const cardColumns = `id, account_tg_id, send_id, currency_code, cashback_type,
	balance, credit_limit, masked_pan, type, iban, is_active`

func (r *Repository) GetCard(ctx context.Context, id string) (core.Card, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM mono_cards WHERE id = ?`, id)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Card{}, core.ErrNotFound
	}
	if err != nil {
		return core.Card{}, fmt.Errorf("get card %s: %w", id, err)
	}
	return c, nil
}

// ListCards returns active cards, restricted to the given owners when the
// slice is non-nil.
func (r *Repository) ListCards(ctx context.Context, ownerTgIDs []int64) ([]core.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM mono_cards WHERE is_active = 1`
	var args []any
	if ownerTgIDs != nil {
		query += ` AND account_tg_id IN (` + placeholders(len(ownerTgIDs)) + `)`
		for _, id := range ownerTgIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	var cards []core.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

const jarColumns = `id, account_tg_id, send_id, title, currency_code,
	balance, goal, is_budget, invested, is_active`

func scanJar(row interface{ Scan(...any) error }) (core.Jar, error) {
	var j core.Jar
	err := row.Scan(&j.ID, &j.AccountTgID, &j.SendID, &j.Title, &j.CurrencyCode,
		&j.Balance, &j.Goal, &j.Budget, &j.Invested, &j.Active)
	if err != nil {
		return core.Jar{}, err
	}
	return j, nil
}

func (r *Repository) GetJar(ctx context.Context, id string) (core.Jar, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jarColumns+` FROM mono_jars WHERE id = ?`, id)
	j, err := scanJar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Jar{}, core.ErrNotFound
	}
	if err != nil {
		return core.Jar{}, fmt.Errorf("get jar %s: %w", id, err)
	}
	return j, nil
}

// ListJars returns active jars, restricted to owners when ownerTgIDs is
// non-nil and to budget jars when budgetOnly is set.
func (r *Repository) ListJars(ctx context.Context, ownerTgIDs []int64, budgetOnly *bool) ([]core.Jar, error) {
	query := `SELECT ` + jarColumns + ` FROM mono_jars WHERE is_active = 1`
	var args []any
	if ownerTgIDs != nil {
		query += ` AND account_tg_id IN (` + placeholders(len(ownerTgIDs)) + `)`
		for _, id := range ownerTgIDs {
			args = append(args, id)
		}
	}
	if budgetOnly != nil {
		query += ` AND is_budget = ?`
		args = append(args, *budgetOnly)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jars: %w", err)
	}
	defer rows.Close()

	var jars []core.Jar
	for rows.Next() {
		j, err := scanJar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan jar: %w", err)
		}
		jars = append(jars, j)
	}
	return jars, rows.Err()
}

func (r *Repository) SetJarBudget(ctx context.Context, id string, budget bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mono_jars SET is_budget = ? WHERE id = ?`, budget, id)
	if err != nil {
		return fmt.Errorf("set jar budget %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) SetJarInvested(ctx context.Context, id string, invested int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE mono_jars SET invested = ? WHERE id = ?`, invested, id)
	if err != nil {
		return fmt.Errorf("set jar invested %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SourceOwner resolves a statement source id to its owner and kind.
func (r *Repository) SourceOwner(ctx context.Context, sourceID string) (int64, core.SourceKind, error) {
	var tgID int64
	err := r.db.QueryRowContext(ctx,
		`SELECT account_tg_id FROM mono_cards WHERE id = ?`, sourceID).Scan(&tgID)
	if err == nil {
		return tgID, core.SourceCard, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, "", fmt.Errorf("source owner card %s: %w", sourceID, err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT account_tg_id FROM mono_jars WHERE id = ?`, sourceID).Scan(&tgID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, "", core.ErrNotFound
	}
	if err != nil {
		return 0, "", fmt.Errorf("source owner jar %s: %w", sourceID, err)
	}
	return tgID, core.SourceJar, nil
}
