package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
)

// InsertTransaction appends one immutable sale record. There is no
// update or delete counterpart on purpose — the transactions table is
// the audit trail.
func (db *DB) InsertTransaction(ctx context.Context, txn *model.Transaction) error {
	txn.ID = xid.New().String()
	txn.CreatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO transactions (id, artwork_id, seller_id, buyer_id, price, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.ArtworkID,
		txn.SellerID,
		txn.BuyerID,
		txn.Price,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting transaction for artwork %s: %w", txn.ArtworkID, err)
	}
	return nil
}

func (db *DB) ListTransactionsByArtwork(ctx context.Context, artworkID string) ([]model.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, artwork_id, seller_id, buyer_id, price, created_at
		   FROM transactions WHERE artwork_id = ? ORDER BY created_at DESC`,
		artworkID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing transactions for artwork %s: %w", artworkID, err)
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.ArtworkID, &t.SellerID, &t.BuyerID, &t.Price, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning transaction row: %w", err)
		}
		txns = append(txns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating transactions: %w", err)
	}
	return txns, nil
}

func (db *DB) GetCheckin(ctx context.Context, userID, day string) (*model.Checkin, error) {
	var c model.Checkin
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, day, granted_common, granted_rare, created_at
		   FROM checkins WHERE user_id = ? AND day = ?`,
		userID, day,
	).Scan(&c.UserID, &c.Day, &c.GrantedCommon, &c.GrantedRare, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("checkin", fmt.Sprintf("%s/%s", userID, day))
		}
		return nil, fmt.Errorf("sqlite: getting checkin (%s, %s): %w", userID, day, err)
	}
	return &c, nil
}

func (db *DB) InsertCheckin(ctx context.Context, checkin *model.Checkin) error {
	checkin.CreatedAt = time.Now()
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO checkins (user_id, day, granted_common, granted_rare, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		checkin.UserID,
		checkin.Day,
		checkin.GrantedCommon,
		checkin.GrantedRare,
		checkin.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting checkin (%s, %s): %w", checkin.UserID, checkin.Day, err)
	}
	return nil
}

func (db *DB) ListCheckinDays(ctx context.Context, userID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 14
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT day FROM checkins WHERE user_id = ? ORDER BY day DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing checkin days for user %s: %w", userID, err)
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("sqlite: scanning checkin day: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating checkin days: %w", err)
	}
	return days, nil
}
