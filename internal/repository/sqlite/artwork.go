package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
)

const artworkColumns = `id, user_id, title, status, price, data_json, buyer_id,
	created_at, updated_at, listed_at, sold_at`

// artworkScanner lets scanArtwork work for both *sql.Row and *sql.Rows.
type artworkScanner interface {
	Scan(dest ...any) error
}

func scanArtwork(s artworkScanner) (*model.Artwork, error) {
	var (
		a        model.Artwork
		price    sql.NullInt64
		data     sql.NullString
		buyerID  sql.NullString
		listedAt sql.NullTime
		soldAt   sql.NullTime
	)
	err := s.Scan(
		&a.ID, &a.OwnerID, &a.Title, &a.Status, &price, &data, &buyerID,
		&a.CreatedAt, &a.UpdatedAt, &listedAt, &soldAt,
	)
	if err != nil {
		return nil, err
	}
	if price.Valid {
		a.Price = &price.Int64
	}
	if data.Valid {
		a.Data = json.RawMessage(data.String)
	}
	if buyerID.Valid {
		a.BuyerID = &buyerID.String
	}
	if listedAt.Valid {
		a.ListedAt = &listedAt.Time
	}
	if soldAt.Valid {
		a.SoldAt = &soldAt.Time
	}
	return &a, nil
}

// CreateArtwork inserts a new draft. Status, price, and the sale fields
// are forced to their draft values regardless of what the caller set —
// the lifecycle starts at draft, always.
func (db *DB) CreateArtwork(ctx context.Context, artwork *model.Artwork) error {
	now := time.Now()
	artwork.ID = xid.New().String()
	artwork.Status = model.StatusDraft
	artwork.Price = nil
	artwork.BuyerID = nil
	artwork.CreatedAt = now
	artwork.UpdatedAt = now

	var data any
	if len(artwork.Data) > 0 {
		data = string(artwork.Data)
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO artworks (id, user_id, title, status, price, data_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, NULL, ?, ?, ?)`,
		artwork.ID,
		artwork.OwnerID,
		artwork.Title,
		artwork.Status,
		data,
		artwork.CreatedAt,
		artwork.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating artwork: %w", err)
	}
	return nil
}

func (db *DB) GetArtwork(ctx context.Context, id string) (*model.Artwork, error) {
	a, err := scanArtwork(db.conn.QueryRowContext(ctx,
		`SELECT `+artworkColumns+` FROM artworks WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("artwork", id)
		}
		return nil, fmt.Errorf("sqlite: getting artwork %s: %w", id, err)
	}
	return a, nil
}

func (db *DB) ListArtworksByOwner(ctx context.Context, ownerID, status string) ([]model.Artwork, error) {
	query := `SELECT ` + artworkColumns + ` FROM artworks WHERE user_id = ?`
	args := []any{ownerID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing artworks for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var artworks []model.Artwork
	for rows.Next() {
		a, err := scanArtwork(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning artwork row: %w", err)
		}
		artworks = append(artworks, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating artworks: %w", err)
	}
	return artworks, nil
}

// ListNonSoldWithData returns the owner's draft and listed artworks
// carrying a data payload — the artworks whose declared block usage
// reserves palette inventory.
func (db *DB) ListNonSoldWithData(ctx context.Context, ownerID string) ([]model.Artwork, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+artworkColumns+`
		   FROM artworks
		  WHERE user_id = ? AND status IN (?, ?) AND data_json IS NOT NULL`,
		ownerID, model.StatusDraft, model.StatusListed,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reserving artworks for owner %s: %w", ownerID, err)
	}
	defer rows.Close()

	var artworks []model.Artwork
	for rows.Next() {
		a, err := scanArtwork(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning artwork row: %w", err)
		}
		artworks = append(artworks, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating artworks: %w", err)
	}
	return artworks, nil
}

func (db *DB) ListListedFeed(ctx context.Context) ([]model.ListedArtwork, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT a.id, a.user_id, a.title, a.status, a.price, a.data_json, a.buyer_id,
		        a.created_at, a.updated_at, a.listed_at, a.sold_at, u.handle
		   FROM artworks a
		   JOIN users u ON u.id = a.user_id
		  WHERE a.status = ?
		  ORDER BY a.listed_at DESC`,
		model.StatusListed,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing feed: %w", err)
	}
	defer rows.Close()

	var feed []model.ListedArtwork
	for rows.Next() {
		var (
			item     model.ListedArtwork
			price    sql.NullInt64
			data     sql.NullString
			buyerID  sql.NullString
			listedAt sql.NullTime
			soldAt   sql.NullTime
		)
		if err := rows.Scan(
			&item.ID, &item.OwnerID, &item.Title, &item.Status, &price, &data, &buyerID,
			&item.CreatedAt, &item.UpdatedAt, &listedAt, &soldAt, &item.SellerHandle,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning feed row: %w", err)
		}
		if price.Valid {
			item.Price = &price.Int64
		}
		if data.Valid {
			item.Data = json.RawMessage(data.String)
		}
		if buyerID.Valid {
			item.BuyerID = &buyerID.String
		}
		if listedAt.Valid {
			item.ListedAt = &listedAt.Time
		}
		if soldAt.Valid {
			item.SoldAt = &soldAt.Time
		}
		feed = append(feed, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating feed: %w", err)
	}
	return feed, nil
}

// UpdateDraft persists title/data edits. The status guard keeps a
// concurrent list/sell from being clobbered by a stale edit.
func (db *DB) UpdateDraft(ctx context.Context, artwork *model.Artwork) error {
	artwork.UpdatedAt = time.Now()

	var data any
	if len(artwork.Data) > 0 {
		data = string(artwork.Data)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE artworks SET title = ?, data_json = ?, updated_at = ?
		  WHERE id = ? AND status = ?`,
		artwork.Title,
		data,
		artwork.UpdatedAt,
		artwork.ID,
		model.StatusDraft,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating artwork %s: %w", artwork.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("artwork", artwork.ID)
	}
	return nil
}

func (db *DB) SetListing(ctx context.Context, id string, price int64) error {
	now := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE artworks SET status = ?, price = ?, listed_at = ?, updated_at = ?
		  WHERE id = ?`,
		model.StatusListed, price, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: listing artwork %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("artwork", id)
	}
	return nil
}

func (db *DB) ClearListing(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE artworks SET status = ?, price = NULL, listed_at = NULL, updated_at = ?
		  WHERE id = ?`,
		model.StatusDraft, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: unlisting artwork %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound("artwork", id)
	}
	return nil
}

// MarkSold is the purchase's linearization point. The WHERE clause only
// matches while the artwork is still listed, so of two racing purchase
// transactions exactly one flips the row; the other sees (false, nil)
// and aborts. Ownership transfers here: user_id becomes the buyer.
func (db *DB) MarkSold(ctx context.Context, id, buyerID string) (bool, error) {
	now := time.Now()
	result, err := db.conn.ExecContext(ctx,
		`UPDATE artworks
		    SET status = ?, buyer_id = ?, user_id = ?, sold_at = ?, listed_at = NULL, updated_at = ?
		  WHERE id = ? AND status = ?`,
		model.StatusSold, buyerID, buyerID, now, now, id, model.StatusListed,
	)
	if err != nil {
		return false, fmt.Errorf("sqlite: marking artwork %s sold: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return rows > 0, nil
}
