package model

import "strings"

// Rarity tiers of the block catalog. The reward draw depends on these:
// a check-in grants 9 picks from the common tier and 1 from the rare
// tier. Uncommon blocks enter circulation only through trades.
const (
	RarityCommon   = "common"
	RarityUncommon = "uncommon"
	RarityRare     = "rare"
)

// PixelBlock is a catalog entry describing one kind of pixel block.
//
// The catalog is append-only and schema-on-write: blocks are created
// lazily the first time an artwork's usage payload or a starter palette
// references them (see BlockRepository.EnsureBlock). ID is derived from
// the human name with BlockSlug, so the same name always maps to the
// same catalog row.
type PixelBlock struct {
	ID     string `json:"id"`     // slug, e.g. "neon-cyan"
	Name   string `json:"name"`   // display name, e.g. "Neon Cyan"
	Tone   string `json:"tone"`   // e.g. "neon", "soft", "retro", "nature"
	Rarity string `json:"rarity"` // RarityCommon, RarityUncommon, RarityRare
	RGB    string `json:"rgb"`    // hex color, e.g. "#0ea5e9"
}

// BlockSlug derives a catalog identifier from a human-readable name:
// lowercase, runs of whitespace collapsed to single hyphens.
//
//	BlockSlug("Neon Cyan") == "neon-cyan"
//
// Deterministic slugging is what makes EnsureBlock idempotent — every
// call site derives the same ID from the same name instead of mutating
// strings ad hoc.
func BlockSlug(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "-"))
}
