package model

import (
	"encoding/json"
	"time"
)

// Artwork lifecycle states. Transitions:
//
//	draft → listed   (list, requires positive price)
//	listed → draft   (unlist, clears price)
//	listed → sold    (purchase — the only path in, irreversible)
//
// Invariant: Price is non-nil iff status is listed or sold.
const (
	StatusDraft  = "draft"
	StatusListed = "listed"
	StatusSold   = "sold"
)

// Artwork is a pixel-art piece. OwnerID is the CURRENT owner — it
// changes to the buyer when the artwork sells. BuyerID stays nil until
// the sale and then records who bought it.
//
// Data is the free-form artwork payload as submitted by the editor.
// The core only cares about its "usage" list (which palette blocks the
// artwork consumes); everything else in it is opaque. json.RawMessage
// keeps the bytes verbatim instead of round-tripping them through a
// map, so a payload we can't parse is stored as-is and simply treated
// as consuming nothing (see ParseUsage).
type Artwork struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"ownerId"`
	Title     string          `json:"title"`
	Status    string          `json:"status"`
	Price     *int64          `json:"price"`
	Data      json.RawMessage `json:"data"`
	BuyerID   *string         `json:"buyerId,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	ListedAt  *time.Time      `json:"listedAt,omitempty"`
	SoldAt    *time.Time      `json:"soldAt,omitempty"`
}

// ListedArtwork is a public feed row: a listed artwork joined with its
// seller's handle.
type ListedArtwork struct {
	Artwork
	SellerHandle string `json:"sellerHandle"`
}
