package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
)

func (db *DB) GetBlock(ctx context.Context, id string) (*model.PixelBlock, error) {
	var b model.PixelBlock
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, tone, rarity, rgb FROM pixel_blocks WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Tone, &b.Rarity, &b.RGB)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("block", id)
		}
		return nil, fmt.Errorf("sqlite: getting block %s: %w", id, err)
	}
	return &b, nil
}

func (db *DB) ListBlocks(ctx context.Context) ([]model.PixelBlock, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, tone, rarity, rgb FROM pixel_blocks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing blocks: %w", err)
	}
	defer rows.Close()

	var blocks []model.PixelBlock
	for rows.Next() {
		var b model.PixelBlock
		if err := rows.Scan(&b.ID, &b.Name, &b.Tone, &b.Rarity, &b.RGB); err != nil {
			return nil, fmt.Errorf("sqlite: scanning block row: %w", err)
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating blocks: %w", err)
	}
	return blocks, nil
}

// EnsureBlock is the catalog's idempotent insert-or-fetch. INSERT OR
// IGNORE makes concurrent ensures of the same block race-free: whoever
// inserts first wins, everyone reads back the same row. An existing row
// is never overwritten — caller-supplied metadata only matters on first
// reference.
func (db *DB) EnsureBlock(ctx context.Context, block *model.PixelBlock) (*model.PixelBlock, error) {
	if block.ID == "" {
		block.ID = model.BlockSlug(block.Name)
	}
	if block.ID == "" {
		return nil, apperror.ValidationFailed("block", "block id or name is required")
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO pixel_blocks (id, name, tone, rarity, rgb)
		 VALUES (?, ?, ?, ?, ?)`,
		block.ID,
		block.Name,
		block.Tone,
		block.Rarity,
		block.RGB,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: ensuring block %s: %w", block.ID, err)
	}

	return db.GetBlock(ctx, block.ID)
}
