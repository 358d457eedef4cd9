package model

import (
	"encoding/json"
	"strings"
)

// UsageEntry is one line of an artwork's block-usage declaration: which
// catalog block the artwork consumes and how many. Editors have shipped
// several shapes of this payload over time, so all the identifying
// fields are optional — resolution tries them in a fixed order (see
// ResolveBlockID).
type UsageEntry struct {
	BlockID string  `json:"blockId"`
	BaseID  string  `json:"baseId"`
	ItemID  string  `json:"id"`
	Name    string  `json:"name"`
	Tone    string  `json:"tone"`
	Rarity  string  `json:"rarity"`
	RGB     string  `json:"rgb"`
	Count   float64 `json:"count"`
}

// Quantity returns the entry's block count truncated to an integer.
// Negative and zero quantities are meaningless and get skipped by every
// consumer.
func (e UsageEntry) Quantity() int {
	return int(e.Count)
}

// CatalogID derives the catalog identifier used to ensure the block
// exists during a purchase: the first non-empty of baseId, blockId,
// name — slugged — with "pix" as the last-resort placeholder.
func (e UsageEntry) CatalogID() string {
	base := e.BaseID
	if base == "" {
		base = e.BlockID
	}
	if base == "" {
		base = e.Name
	}
	if base == "" {
		base = "pix"
	}
	return BlockSlug(base)
}

// CatalogName returns the display name to record when the purchase has
// to create the catalog row from the entry's embedded metadata.
func (e UsageEntry) CatalogName() string {
	if e.Name != "" {
		return e.Name
	}
	if e.BaseID != "" {
		return e.BaseID
	}
	return "pixel"
}

// ResolveBlockID resolves the entry to a block identifier for
// reservation accounting. Fallback chain, first hit wins:
//
//  1. explicit blockId
//  2. explicit baseId
//  3. prefix of the item id before its first hyphen
//  4. display-name lookup in nameIndex (the user's own palette rows)
//
// Returns "" when nothing resolves; callers drop the entry rather than
// failing the request. Best-effort on purpose: a stale or hand-edited
// payload should degrade to "reserves nothing", not break the palette
// listing.
func (e UsageEntry) ResolveBlockID(nameIndex map[string]string) string {
	if e.BlockID != "" {
		return e.BlockID
	}
	if e.BaseID != "" {
		return e.BaseID
	}
	if e.ItemID != "" {
		if base, _, _ := strings.Cut(e.ItemID, "-"); base != "" {
			return base
		}
	}
	if e.Name != "" {
		if id, ok := nameIndex[e.Name]; ok {
			return id
		}
	}
	return ""
}

// usagePayload is the slice of the artwork data the core understands.
type usagePayload struct {
	Usage []UsageEntry `json:"usage"`
}

// ParseUsage extracts the usage list from an artwork's data payload.
//
// Leniency policy: a missing, empty, or structurally malformed payload
// yields an empty list, never an error. This is the explicit fallback
// branch the purchase and reservation paths rely on — bad per-record
// data must not make an otherwise valid request fail. Distinguish this
// from request validation, which still rejects malformed *input*.
func ParseUsage(data json.RawMessage) []UsageEntry {
	if len(data) == 0 {
		return nil
	}
	var payload usagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	return payload.Usage
}
