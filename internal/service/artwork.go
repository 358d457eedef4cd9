package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
	"github.com/4hbab/pixel-market/internal/repository"
)

const MaxTitleLength = 120

// ArtworkService owns the artwork lifecycle (draft → listed → sold) and
// the purchase transaction.
type ArtworkService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewArtworkService(store repository.Store, logger *slog.Logger) *ArtworkService {
	return &ArtworkService{store: store, logger: logger}
}

// Create saves a new draft artwork. The data payload is opaque beyond
// being well-formed JSON — its usage list only matters to reservation
// accounting and the purchase, both of which parse it tolerantly.
func (s *ArtworkService) Create(ctx context.Context, ownerID, title string, data json.RawMessage) (*model.Artwork, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(data) > 0 && !json.Valid(data) {
		return nil, apperror.ValidationFailed("data", "data must be valid JSON")
	}

	artwork := &model.Artwork{
		OwnerID: ownerID,
		Title:   title,
		Data:    data,
	}
	if err := s.store.CreateArtwork(ctx, artwork); err != nil {
		s.logger.Error("failed to create artwork",
			slog.String("ownerID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/artwork: creating artwork: %w", err)
	}

	s.logger.Info("artwork created",
		slog.String("id", artwork.ID),
		slog.String("ownerID", ownerID),
	)
	return artwork, nil
}

// Get returns one of the caller's artworks. Owner-scoped: someone
// else's artwork is reported as not found, not forbidden — the public
// read path is GetPublic.
func (s *ArtworkService) Get(ctx context.Context, ownerID, id string) (*model.Artwork, error) {
	artwork, err := s.store.GetArtwork(ctx, id)
	if err != nil {
		return nil, err
	}
	if artwork.OwnerID != ownerID {
		return nil, apperror.NotFound("artwork", id)
	}
	return artwork, nil
}

// GetPublic returns an artwork for unauthenticated viewing. Only listed
// and sold artworks are visible — drafts stay private.
func (s *ArtworkService) GetPublic(ctx context.Context, id string) (*model.Artwork, error) {
	artwork, err := s.store.GetArtwork(ctx, id)
	if err != nil {
		return nil, err
	}
	if artwork.Status != model.StatusListed && artwork.Status != model.StatusSold {
		return nil, apperror.NotFound("artwork", id)
	}
	return artwork, nil
}

func (s *ArtworkService) ListByOwner(ctx context.Context, ownerID, status string) ([]model.Artwork, error) {
	switch status {
	case "", model.StatusDraft, model.StatusListed, model.StatusSold:
	default:
		return nil, apperror.ValidationFailed("status", "status must be draft, listed, or sold")
	}
	artworks, err := s.store.ListArtworksByOwner(ctx, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("service/artwork: listing artworks: %w", err)
	}
	return artworks, nil
}

// Feed returns all listed artworks with their sellers' handles, newest
// listing first. Public — no caller identity involved.
func (s *ArtworkService) Feed(ctx context.Context) ([]model.ListedArtwork, error) {
	feed, err := s.store.ListListedFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("service/artwork: listing feed: %w", err)
	}
	return feed, nil
}

// Update edits a draft's title and/or data. Empty title means "keep the
// current one"; nil data keeps the current payload.
//
// State machine: edits are permitted only while draft. A listed artwork
// must be unlisted first (the error says so); a sold artwork is
// terminal and never editable.
func (s *ArtworkService) Update(ctx context.Context, ownerID, id, title string, data json.RawMessage) (*model.Artwork, error) {
	artwork, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	switch artwork.Status {
	case model.StatusListed:
		return nil, apperror.Conflict("listed artwork cannot be edited, unlist it first")
	case model.StatusSold:
		return nil, apperror.Conflict("sold artwork cannot be edited")
	}

	if title = strings.TrimSpace(title); title != "" {
		if len(title) > MaxTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
		}
		artwork.Title = title
	}
	if data != nil {
		if !json.Valid(data) {
			return nil, apperror.ValidationFailed("data", "data must be valid JSON")
		}
		artwork.Data = data
	}

	if err := s.store.UpdateDraft(ctx, artwork); err != nil {
		return nil, fmt.Errorf("service/artwork: updating artwork %s: %w", id, err)
	}

	s.logger.Info("artwork updated", slog.String("id", id))
	return artwork, nil
}

// List puts a draft up for sale at the given price (whole pixel coins,
// must be positive).
func (s *ArtworkService) List(ctx context.Context, ownerID, id string, price int64) (*model.Artwork, error) {
	if price <= 0 {
		return nil, apperror.ValidationFailed("price", "listing price must be a positive integer")
	}

	artwork, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	switch artwork.Status {
	case model.StatusListed:
		return nil, apperror.Conflict("artwork is already listed")
	case model.StatusSold:
		return nil, apperror.Conflict("sold artwork cannot be listed")
	}

	if err := s.store.SetListing(ctx, id, price); err != nil {
		return nil, fmt.Errorf("service/artwork: listing artwork %s: %w", id, err)
	}

	s.logger.Info("artwork listed",
		slog.String("id", id),
		slog.Int64("price", price),
	)
	return s.store.GetArtwork(ctx, id)
}

// Unlist takes a listed artwork off the market, clearing its price and
// listing timestamp. Idempotent escape hatch: unlisting a draft is a
// no-op success, whatever the price field holds. Only sold is refused —
// that state is terminal.
func (s *ArtworkService) Unlist(ctx context.Context, ownerID, id string) (*model.Artwork, error) {
	artwork, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if artwork.Status == model.StatusSold {
		return nil, apperror.Conflict("sold artwork cannot be unlisted")
	}

	if err := s.store.ClearListing(ctx, id); err != nil {
		return nil, fmt.Errorf("service/artwork: unlisting artwork %s: %w", id, err)
	}

	s.logger.Info("artwork unlisted", slog.String("id", id))
	return s.store.GetArtwork(ctx, id)
}

// Purchase executes the sale of a listed artwork to buyerID.
//
// Everything — precondition checks, balance transfer, palette
// re-allocation, state transition, sale record — happens inside one
// store transaction. Any error rolls the whole unit back; no partial
// effect is ever observable.
//
// The concurrency story has two layers. The preconditions are checked
// on a read taken inside the transaction, and MarkSold's UPDATE is
// guarded by "status = listed", so of two racing purchases exactly one
// flips the row; the loser's transaction aborts with "not purchasable"
// and its balance/palette writes roll back.
func (s *ArtworkService) Purchase(ctx context.Context, buyerID, artworkID string) (*model.Artwork, error) {
	var purchased *model.Artwork

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		artwork, err := tx.GetArtwork(ctx, artworkID)
		if err != nil {
			return err
		}

		// Precondition 1: exactly listed, with a price. This is also
		// what the loser of a purchase race observes after the winner
		// commits.
		if artwork.Status != model.StatusListed || artwork.Price == nil {
			return apperror.Conflict("artwork is not purchasable")
		}
		price := *artwork.Price
		sellerID := artwork.OwnerID

		// Precondition 2: no self-purchase.
		if sellerID == buyerID {
			return apperror.Conflict("cannot buy your own artwork")
		}

		// Precondition 3: the buyer can afford it. Checked on the
		// transactional read, so the debit below cannot overdraw.
		buyer, err := tx.GetUserByID(ctx, buyerID)
		if err != nil {
			return err
		}
		if buyer.Balance < price {
			return apperror.Conflict("insufficient balance")
		}
		if _, err := tx.GetUserByID(ctx, sellerID); err != nil {
			return err
		}

		// Lenient by design: a malformed usage payload means the sale
		// transfers no blocks, not that it fails.
		usage := model.ParseUsage(artwork.Data)

		if err := tx.AdjustBalance(ctx, buyerID, -price); err != nil {
			return err
		}
		if err := tx.AdjustBalance(ctx, sellerID, price); err != nil {
			return err
		}

		for _, entry := range usage {
			qty := entry.Quantity()
			if qty <= 0 {
				continue
			}
			block, err := ensureEntryBlock(ctx, tx, entry)
			if err != nil {
				return err
			}
			// Seller loses the blocks (floored at zero), buyer gains
			// them (row created on first grant).
			if err := adjustPalette(ctx, tx, sellerID, block.ID, -qty); err != nil {
				return err
			}
			if err := adjustPalette(ctx, tx, buyerID, block.ID, qty); err != nil {
				return err
			}
		}

		// Linearization point: only succeeds while still listed.
		sold, err := tx.MarkSold(ctx, artworkID, buyerID)
		if err != nil {
			return err
		}
		if !sold {
			return apperror.Conflict("artwork is not purchasable")
		}

		if err := tx.InsertTransaction(ctx, &model.Transaction{
			ArtworkID: artworkID,
			SellerID:  sellerID,
			BuyerID:   buyerID,
			Price:     price,
		}); err != nil {
			return err
		}

		purchased, err = tx.GetArtwork(ctx, artworkID)
		return err
	})
	if err != nil {
		if !isBusinessError(err) {
			s.logger.Error("purchase failed",
				slog.String("artworkID", artworkID),
				slog.String("buyerID", buyerID),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("artwork purchased",
		slog.String("artworkID", artworkID),
		slog.String("buyerID", buyerID),
		slog.Int64("price", *purchased.Price),
	)
	return purchased, nil
}

// ensureEntryBlock resolves a usage entry to a catalog block, creating
// the catalog row from the entry's embedded metadata on first
// reference.
func ensureEntryBlock(ctx context.Context, tx repository.Store, entry model.UsageEntry) (*model.PixelBlock, error) {
	rgb := entry.RGB
	if rgb == "" {
		rgb = "#000000"
	}
	return tx.EnsureBlock(ctx, &model.PixelBlock{
		ID:     entry.CatalogID(),
		Name:   entry.CatalogName(),
		Tone:   entry.Tone,
		Rarity: entry.Rarity,
		RGB:    rgb,
	})
}

// adjustPalette applies a signed delta to (userID, blockID), flooring
// at zero. An absent row is only created for positive deltas — there is
// nothing to take from a user who holds none.
func adjustPalette(ctx context.Context, tx repository.Store, userID, blockID string, delta int) error {
	row, err := tx.GetPaletteRow(ctx, userID, blockID)
	switch {
	case err == nil:
		newCount := row.Count + delta
		if newCount < 0 {
			newCount = 0
		}
		return tx.UpsertPalette(ctx, userID, blockID, newCount)
	case errors.Is(err, apperror.ErrNotFound):
		if delta > 0 {
			return tx.UpsertPalette(ctx, userID, blockID, delta)
		}
		return nil
	default:
		return err
	}
}

// isBusinessError reports whether err is an expected business-rule
// refusal rather than an infrastructure failure worth an error log.
func isBusinessError(err error) bool {
	return errors.Is(err, apperror.ErrConflict) ||
		errors.Is(err, apperror.ErrNotFound) ||
		errors.Is(err, apperror.ErrValidation)
}
