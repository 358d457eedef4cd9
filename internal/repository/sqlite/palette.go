package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
	"github.com/4hbab/pixel-market/internal/repository"
)

// ListPalette returns the user's palette rows left-joined with catalog
// metadata, ordered by block display name case-insensitively. The left
// join keeps rows whose block was deleted from (or never made it into)
// the catalog — the block fields come back empty rather than losing the
// holding.
func (db *DB) ListPalette(ctx context.Context, userID string, filter repository.PaletteFilter) ([]model.PaletteDetail, error) {
	query := `
		SELECT p.id, p.user_id, p.block_id, p.count, p.updated_at,
		       COALESCE(b.name, ''), COALESCE(b.tone, ''),
		       COALESCE(b.rarity, ''), COALESCE(b.rgb, '')
		  FROM palettes p
		  LEFT JOIN pixel_blocks b ON b.id = p.block_id
		 WHERE p.user_id = ?`
	args := []any{userID}
	if filter.Tone != "" {
		query += ` AND b.tone = ?`
		args = append(args, filter.Tone)
	}
	if filter.Rarity != "" {
		query += ` AND b.rarity = ?`
		args = append(args, filter.Rarity)
	}
	query += ` ORDER BY b.name COLLATE NOCASE`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing palette for user %s: %w", userID, err)
	}
	defer rows.Close()

	var items []model.PaletteDetail
	for rows.Next() {
		var d model.PaletteDetail
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.BlockID, &d.Count, &d.UpdatedAt,
			&d.Name, &d.Tone, &d.Rarity, &d.RGB,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning palette row: %w", err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating palette rows: %w", err)
	}
	return items, nil
}

func (db *DB) GetPaletteItem(ctx context.Context, id string) (*model.PaletteItem, error) {
	var p model.PaletteItem
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, block_id, count, updated_at FROM palettes WHERE id = ?`, id,
	).Scan(&p.ID, &p.UserID, &p.BlockID, &p.Count, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("palette", id)
		}
		return nil, fmt.Errorf("sqlite: getting palette %s: %w", id, err)
	}
	return &p, nil
}

func (db *DB) GetPaletteRow(ctx context.Context, userID, blockID string) (*model.PaletteItem, error) {
	var p model.PaletteItem
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, block_id, count, updated_at
		   FROM palettes WHERE user_id = ? AND block_id = ?`,
		userID, blockID,
	).Scan(&p.ID, &p.UserID, &p.BlockID, &p.Count, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("palette", model.PaletteID(blockID, userID))
		}
		return nil, fmt.Errorf("sqlite: getting palette row (%s, %s): %w", userID, blockID, err)
	}
	return &p, nil
}

// UpsertPalette sets the stored count for (user, block), creating the
// row on first grant. The derived id "{blockID}-{userID}" plus the
// UNIQUE(user_id, block_id) constraint guarantee at most one row per
// pair, so ON CONFLICT updates in place.
func (db *DB) UpsertPalette(ctx context.Context, userID, blockID string, count int) error {
	if count < 0 {
		count = 0
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO palettes (id, user_id, block_id, count, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, block_id)
		 DO UPDATE SET count = excluded.count, updated_at = excluded.updated_at`,
		model.PaletteID(blockID, userID),
		userID,
		blockID,
		count,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting palette (%s, %s): %w", userID, blockID, err)
	}
	return nil
}

// HasPalette reports whether the user holds any palette rows at all.
// Registration uses it to decide whether to grant the starter palette.
func (db *DB) HasPalette(ctx context.Context, userID string) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM palettes WHERE user_id = ? LIMIT 1`, userID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking palette for user %s: %w", userID, err)
	}
	return true, nil
}
