package model

import (
	"fmt"
	"time"
)

// PaletteItem is one user's holding of one block type.
//
// Invariant: at most one row per (user, block) — enforced by the
// derived primary key "{blockID}-{userID}" (see PaletteID). Count is
// floored at zero on every mutation; a decrement can never drive it
// negative.
type PaletteItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	BlockID   string    `json:"blockId"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PaletteID builds the derived primary key for a (user, block) pair.
func PaletteID(blockID, userID string) string {
	return fmt.Sprintf("%s-%s", blockID, userID)
}

// PaletteDetail is a palette row left-joined with its catalog metadata,
// as returned by PaletteRepository.ListPalette. Block fields are zero
// values when the catalog row is missing (left join).
type PaletteDetail struct {
	PaletteItem
	Name   string `json:"name"`
	Tone   string `json:"tone"`
	Rarity string `json:"rarity"`
	RGB    string `json:"rgb"`
}
