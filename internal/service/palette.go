// Package service contains the business logic layer: palette
// accounting, the artwork lifecycle and purchase transaction, the daily
// reward draw, and account management. Services accept interfaces from
// the repository package and return domain errors from apperror; they
// know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
	"github.com/4hbab/pixel-market/internal/repository"
)

// PaletteService computes block availability and applies manual count
// adjustments.
type PaletteService struct {
	store  repository.Store
	logger *slog.Logger
}

func NewPaletteService(store repository.Store, logger *slog.Logger) *PaletteService {
	return &PaletteService{store: store, logger: logger}
}

// BlockAvailability is one row of the availability listing: catalog
// metadata plus how much of the stored count is actually free.
//
// Available = max(0, Total − Reserved). Rows with Available == 0 are
// omitted from results entirely — the client treats the listing as "what
// can I still paint with".
type BlockAvailability struct {
	PaletteID string           `json:"id"`
	Block     model.PixelBlock `json:"block"`
	Available int              `json:"count"`
	Total     int              `json:"totalCount"`
	Reserved  int              `json:"reserved"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Availability returns the user's palette with reservation accounting
// applied: the stored count of each block minus the quantities declared
// by the user's other draft/listed artworks.
//
// excludeArtworkID skips one artwork's own usage — pass the artwork
// being edited so it doesn't double-count against itself. The tone and
// rarity filters are pass-through predicates on catalog metadata; they
// narrow the listing but never change the reservation math.
//
// Read-only: the reservation map is transient, rebuilt per call, never
// persisted. There is no reservation table to drift out of sync.
func (s *PaletteService) Availability(ctx context.Context, userID string, filter repository.PaletteFilter, excludeArtworkID string) ([]BlockAvailability, error) {
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	rows, err := s.store.ListPalette(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("service/palette: listing palette: %w", err)
	}

	reserved, err := s.reservedCounts(ctx, userID, rows, excludeArtworkID)
	if err != nil {
		return nil, err
	}

	result := make([]BlockAvailability, 0, len(rows))
	for _, row := range rows {
		hold := reserved[row.BlockID]
		available := row.Count - hold
		if available <= 0 {
			continue
		}
		result = append(result, BlockAvailability{
			PaletteID: row.ID,
			Block: model.PixelBlock{
				ID:     row.BlockID,
				Name:   row.Name,
				Tone:   row.Tone,
				Rarity: row.Rarity,
				RGB:    row.RGB,
			},
			Available: available,
			Total:     row.Count,
			Reserved:  hold,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return result, nil
}

// reservedCounts builds the per-block reservation map from the user's
// non-sold artworks. Malformed usage payloads count as empty, and
// entries whose block reference can't be resolved are dropped — bad
// per-record data degrades to "reserves nothing" rather than failing
// the listing.
func (s *PaletteService) reservedCounts(ctx context.Context, userID string, rows []model.PaletteDetail, excludeArtworkID string) (map[string]int, error) {
	artworks, err := s.store.ListNonSoldWithData(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/palette: listing reserving artworks: %w", err)
	}

	// Display name → block id, for the last link of the resolution
	// fallback chain. Only the user's own palette participates.
	nameIndex := make(map[string]string, len(rows))
	for _, row := range rows {
		if row.Name != "" {
			nameIndex[row.Name] = row.BlockID
		}
	}

	reserved := make(map[string]int)
	for _, artwork := range artworks {
		if excludeArtworkID != "" && artwork.ID == excludeArtworkID {
			continue
		}
		for _, entry := range model.ParseUsage(artwork.Data) {
			blockID := entry.ResolveBlockID(nameIndex)
			if blockID == "" {
				continue
			}
			qty := entry.Quantity()
			if qty <= 0 {
				continue
			}
			reserved[blockID] += qty
		}
	}
	return reserved, nil
}

// Adjust applies a signed delta to one of the caller's palette rows,
// floored at zero. Used by the editor's manual +/- controls.
func (s *PaletteService) Adjust(ctx context.Context, userID, paletteID string, delta int) (*model.PaletteItem, error) {
	paletteID = strings.TrimSpace(paletteID)
	if paletteID == "" {
		return nil, apperror.ValidationFailed("id", "palette ID is required")
	}

	item, err := s.store.GetPaletteItem(ctx, paletteID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		// Scoped like every owner lookup: another user's palette row
		// might as well not exist.
		return nil, apperror.NotFound("palette", paletteID)
	}

	newCount := item.Count + delta
	if newCount < 0 {
		newCount = 0
	}
	if err := s.store.UpsertPalette(ctx, item.UserID, item.BlockID, newCount); err != nil {
		return nil, fmt.Errorf("service/palette: adjusting palette %s: %w", paletteID, err)
	}

	s.logger.Info("palette adjusted",
		slog.String("paletteID", paletteID),
		slog.Int("delta", delta),
		slog.Int("count", newCount),
	)

	item.Count = newCount
	return item, nil
}
