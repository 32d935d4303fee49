package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"monohelper/internal/core"
)

// GetCurrency returns the currency with the given ISO numeric code.
func (r *Repository) GetCurrency(ctx context.Context, code int) (core.Currency, error) {
	var c core.Currency
	err := r.db.QueryRowContext(ctx,
		`SELECT code, name, flag, symbol FROM currencies WHERE code = ?`, code).
		Scan(&c.Code, &c.Name, &c.Flag, &c.Symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Currency{}, core.ErrNotFound
	}
	if err != nil {
		return core.Currency{}, fmt.Errorf("get currency %d: %w", code, err)
	}
	return c, nil
}

// GetOrCreateCurrency returns the currency for a code, creating a placeholder
// row named "XXX" when the code has never been seen. The second return value
// reports whether a row was created.
func (r *Repository) GetOrCreateCurrency(ctx context.Context, code int) (core.Currency, bool, error) {
	c, err := r.GetCurrency(ctx, code)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.Currency{}, false, err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO currencies (code, name) VALUES (?, ?) ON CONFLICT (code) DO NOTHING`,
		code, core.UnknownCurrencyName)
	if err != nil {
		return core.Currency{}, false, fmt.Errorf("create currency %d: %w", code, err)
	}

	slog.WarnContext(ctx, "Created placeholder for unknown currency", "currency_code", code)

	c, err = r.GetCurrency(ctx, code)
	if err != nil {
		return core.Currency{}, false, err
	}
	return c, true, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, symbol, user_defined FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Symbol, &c.UserDefined); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryByName returns one category by its unique name.
func (r *Repository) GetCategoryByName(ctx context.Context, name string) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, symbol, user_defined FROM categories WHERE name = ?`, name).
		Scan(&c.ID, &c.Name, &c.Symbol, &c.UserDefined)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, err)
	}
	return c, nil
}

// CreateCustomCategory creates a user-defined category and assigns it a
// synthetic MSO code derived from its row id.
func (r *Repository) CreateCustomCategory(ctx context.Context, name, symbol string) (core.Category, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Category{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO categories (name, symbol, user_defined) VALUES (?, ?, 1)`, name, symbol)
	if err != nil {
		return core.Category{}, fmt.Errorf("create custom category %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("custom category id: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO category_mso (category_id, mso) VALUES (?, ?)`,
		id, core.CustomMSOBase+int(id))
	if err != nil {
		return core.Category{}, fmt.Errorf("assign custom mso: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.Category{}, fmt.Errorf("commit custom category: %w", err)
	}

	slog.InfoContext(ctx, "Custom category created",
		"name", name,
		"mso", core.CustomMSOBase+int(id))

	return core.Category{ID: id, Name: name, Symbol: symbol, UserDefined: true}, nil
}

// GetOrCreateCategoryMSO resolves an MCC code to its category mapping,
// creating a mapping under the fallback category for unseen codes.
func (r *Repository) GetOrCreateCategoryMSO(ctx context.Context, mso int) (core.CategoryMSO, error) {
	m, err := r.getCategoryMSO(ctx, mso)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.CategoryMSO{}, err
	}

	fallback, err := r.GetCategoryByName(ctx, core.FallbackCategoryName)
	if err != nil {
		return core.CategoryMSO{}, fmt.Errorf("fallback category: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO category_mso (category_id, mso) VALUES (?, ?) ON CONFLICT (mso) DO NOTHING`,
		fallback.ID, mso)
	if err != nil {
		return core.CategoryMSO{}, fmt.Errorf("create category mso %d: %w", mso, err)
	}

	slog.InfoContext(ctx, "Mapped unknown MCC to fallback category", "mso", mso)

	return r.getCategoryMSO(ctx, mso)
}

func (r *Repository) getCategoryMSO(ctx context.Context, mso int) (core.CategoryMSO, error) {
	var m core.CategoryMSO
	err := r.db.QueryRowContext(ctx,
		`SELECT id, category_id, mso FROM category_mso WHERE mso = ?`, mso).
		Scan(&m.ID, &m.CategoryID, &m.MSO)
	if errors.Is(err, sql.ErrNoRows) {
		return core.CategoryMSO{}, core.ErrNotFound
	}
	if err != nil {
		return core.CategoryMSO{}, fmt.Errorf("get category mso %d: %w", mso, err)
	}
	return m, nil
}
