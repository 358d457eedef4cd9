// Package repository declares the data-access interfaces the service
// layer programs against. The sqlite subpackage is the only
// implementation; tests substitute in-memory stores or mocks.
package repository

import (
	"context"

	"github.com/4hbab/pixel-market/internal/model"
)

// PaletteFilter narrows a palette listing by catalog metadata. Empty
// fields match everything. Pure pass-through predicates — filtering
// never affects reservation accounting.
type PaletteFilter struct {
	Tone   string
	Rarity string
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByHandle(ctx context.Context, handle string) (*model.User, error)
	UpdateHandle(ctx context.Context, id, handle string) error
	// AdjustBalance applies a signed delta to the user's balance.
	// Callers are responsible for checking sufficiency first, inside
	// the same transaction.
	AdjustBalance(ctx context.Context, id string, delta int64) error
}

type BlockRepository interface {
	GetBlock(ctx context.Context, id string) (*model.PixelBlock, error)
	ListBlocks(ctx context.Context) ([]model.PixelBlock, error)
	// EnsureBlock is an idempotent insert-or-fetch: if a catalog row
	// with block.ID exists it is returned untouched, otherwise block is
	// inserted and returned. The catalog is schema-on-write — blocks
	// enter it the first time anything references them.
	EnsureBlock(ctx context.Context, block *model.PixelBlock) (*model.PixelBlock, error)
}

type PaletteRepository interface {
	// ListPalette returns the user's palette rows left-joined with
	// catalog metadata, ordered by block name (case-insensitive).
	ListPalette(ctx context.Context, userID string, filter PaletteFilter) ([]model.PaletteDetail, error)
	GetPaletteItem(ctx context.Context, id string) (*model.PaletteItem, error)
	GetPaletteRow(ctx context.Context, userID, blockID string) (*model.PaletteItem, error)
	// UpsertPalette sets the stored count for (user, block), creating
	// the row on first grant. count must already be floored at zero.
	UpsertPalette(ctx context.Context, userID, blockID string, count int) error
	HasPalette(ctx context.Context, userID string) (bool, error)
}

type ArtworkRepository interface {
	CreateArtwork(ctx context.Context, artwork *model.Artwork) error
	GetArtwork(ctx context.Context, id string) (*model.Artwork, error)
	// ListArtworksByOwner returns the owner's artworks, optionally
	// filtered by status (empty = all), newest-updated first.
	ListArtworksByOwner(ctx context.Context, ownerID, status string) ([]model.Artwork, error)
	// ListNonSoldWithData returns the owner's draft and listed artworks
	// that carry a data payload — the input to reservation accounting.
	ListNonSoldWithData(ctx context.Context, ownerID string) ([]model.Artwork, error)
	ListListedFeed(ctx context.Context) ([]model.ListedArtwork, error)
	// UpdateDraft persists title/data edits on a draft artwork.
	UpdateDraft(ctx context.Context, artwork *model.Artwork) error
	// SetListing transitions to listed with the given price and stamps
	// listed_at.
	SetListing(ctx context.Context, id string, price int64) error
	// ClearListing transitions back to draft, clearing price and
	// listed_at.
	ClearListing(ctx context.Context, id string) error
	// MarkSold transitions the artwork to sold, records the buyer, and
	// transfers ownership — guarded by "status = listed" so that of two
	// concurrent purchases exactly one observes sold=true. The loser
	// gets (false, nil) and must abort its transaction.
	MarkSold(ctx context.Context, id, buyerID string) (sold bool, err error)
}

type TransactionRepository interface {
	InsertTransaction(ctx context.Context, txn *model.Transaction) error
	ListTransactionsByArtwork(ctx context.Context, artworkID string) ([]model.Transaction, error)
}

type CheckinRepository interface {
	GetCheckin(ctx context.Context, userID, day string) (*model.Checkin, error)
	InsertCheckin(ctx context.Context, checkin *model.Checkin) error
	// ListCheckinDays returns the user's check-in days, newest first.
	ListCheckinDays(ctx context.Context, userID string, limit int) ([]string, error)
}

// Store bundles every repository plus the transaction boundary. All
// multi-step mutations (purchase, reward draw, registration's starter
// grant) run through InTx.
type Store interface {
	UserRepository
	BlockRepository
	PaletteRepository
	ArtworkRepository
	TransactionRepository
	CheckinRepository

	// InTx runs fn against a Store whose operations all execute inside
	// a single database transaction: commit if fn returns nil, rollback
	// on error or panic. The scoped-unit-of-work shape means there is
	// exactly one rollback path instead of one per failure site.
	InTx(ctx context.Context, fn func(Store) error) error
}
