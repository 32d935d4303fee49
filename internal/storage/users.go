package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"monohelper/internal/core"
)

// CreateUser inserts a new user. Registering an existing tg_id is an error.
func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (tg_id, name, is_admin, is_active) VALUES (?, ?, ?, ?)`,
		u.TgID, u.Name, u.Admin, u.Active)
	if err != nil {
		return fmt.Errorf("create user %d: %w", u.TgID, err)
	}

	slog.InfoContext(ctx, "User created", "tg_id", u.TgID)
	return nil
}

func (r *Repository) GetUser(ctx context.Context, tgID int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT tg_id, name, is_admin, is_active FROM users WHERE tg_id = ?`, tgID).
		Scan(&u.TgID, &u.Name, &u.Admin, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", tgID, err)
	}
	return u, nil
}

// FamilyMembers returns the tg_ids directly linked to the given user.
func (r *Repository) FamilyMembers(ctx context.Context, tgID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_tg_id FROM family_links WHERE tg_id = ? ORDER BY member_tg_id`, tgID)
	if err != nil {
		return nil, fmt.Errorf("family members of %d: %w", tgID, err)
	}
	defer rows.Close()

	var members []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan family member: %w", err)
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// LinkFamily connects two users in both directions.
func (r *Repository) LinkFamily(ctx context.Context, a, b int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, pair := range [][2]int64{{a, b}, {b, a}} {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO family_links (tg_id, member_tg_id) VALUES (?, ?)
			 ON CONFLICT (tg_id, member_tg_id) DO NOTHING`,
			pair[0], pair[1])
		if err != nil {
			return fmt.Errorf("link family %d->%d: %w", pair[0], pair[1], err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit family link: %w", err)
	}

	slog.InfoContext(ctx, "Family link created", "tg_id", a, "member_tg_id", b)
	return nil
}

// CreateFamilyCode stores a short-lived linking code for a user, replacing
// any previous one.
func (r *Repository) CreateFamilyCode(ctx context.Context, code string, tgID, expiresAt int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM family_codes WHERE tg_id = ?`, tgID); err != nil {
		return fmt.Errorf("drop old family codes of %d: %w", tgID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO family_codes (code, tg_id, expires_at) VALUES (?, ?, ?)`,
		code, tgID, expiresAt); err != nil {
		return fmt.Errorf("create family code: %w", err)
	}

	return tx.Commit()
}

// GetFamilyCode returns the owner and expiry of a linking code.
func (r *Repository) GetFamilyCode(ctx context.Context, code string) (int64, int64, error) {
	var tgID, expiresAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT tg_id, expires_at FROM family_codes WHERE code = ?`, code).
		Scan(&tgID, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, core.ErrNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("get family code: %w", err)
	}
	return tgID, expiresAt, nil
}

func (r *Repository) DeleteFamilyCode(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM family_codes WHERE code = ?`, code); err != nil {
		return fmt.Errorf("delete family code: %w", err)
	}
	return nil
}

func (r *Repository) CreateFamilyInvite(ctx context.Context, invite core.FamilyInvite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO family_invites (id, inviter_tg_id, member_tg_id, status) VALUES (?, ?, ?, ?)`,
		invite.ID, invite.InviterTgID, invite.MemberTgID, invite.Status)
	if err != nil {
		return fmt.Errorf("create family invite: %w", err)
	}
	return nil
}

func (r *Repository) GetFamilyInvite(ctx context.Context, id string) (core.FamilyInvite, error) {
	var invite core.FamilyInvite
	err := r.db.QueryRowContext(ctx,
		`SELECT id, inviter_tg_id, member_tg_id, status FROM family_invites WHERE id = ?`, id).
		Scan(&invite.ID, &invite.InviterTgID, &invite.MemberTgID, &invite.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FamilyInvite{}, core.ErrNotFound
	}
	if err != nil {
		return core.FamilyInvite{}, fmt.Errorf("get family invite %s: %w", id, err)
	}
	return invite, nil
}

func (r *Repository) UpdateFamilyInviteStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE family_invites SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update family invite %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// UpsertReportSubscription enables or disables the daily report for a user.
// Returns whether a new subscription row was created.
func (r *Repository) UpsertReportSubscription(ctx context.Context, tgID int64, enabled bool) (bool, error) {
	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM report_subscriptions WHERE tg_id = ?`, tgID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check report subscription %d: %w", tgID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO report_subscriptions (tg_id, enabled) VALUES (?, ?)
		 ON CONFLICT (tg_id) DO UPDATE SET enabled = excluded.enabled`,
		tgID, enabled)
	if err != nil {
		return false, fmt.Errorf("upsert report subscription %d: %w", tgID, err)
	}
	return exists == 0, nil
}

// GetReportSubscription returns whether the user's daily report is enabled.
func (r *Repository) GetReportSubscription(ctx context.Context, tgID int64) (bool, error) {
	var enabled bool
	err := r.db.QueryRowContext(ctx,
		`SELECT enabled FROM report_subscriptions WHERE tg_id = ?`, tgID).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, core.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("get report subscription %d: %w", tgID, err)
	}
	return enabled, nil
}

// DeleteReportSubscription removes the subscription row entirely.
func (r *Repository) DeleteReportSubscription(ctx context.Context, tgID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM report_subscriptions WHERE tg_id = ?`, tgID)
	if err != nil {
		return fmt.Errorf("delete report subscription %d: %w", tgID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListReportSubscribers returns tg_ids with the daily report enabled.
func (r *Repository) ListReportSubscribers(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tg_id FROM report_subscriptions WHERE enabled = 1 ORDER BY tg_id`)
	if err != nil {
		return nil, fmt.Errorf("list report subscribers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan report subscriber: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
