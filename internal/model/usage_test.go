package model

import (
	"encoding/json"
	"testing"
)

func TestParseUsage(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int // number of entries
	}{
		{
			name: "valid usage list",
			data: `{"usage":[{"blockId":"neon-cyan","count":5},{"blockId":"leaf","count":2}]}`,
			want: 2,
		},
		{
			name: "empty payload",
			data: ``,
			want: 0,
		},
		{
			name: "payload without usage key",
			data: `{"grid":[[0,1],[1,0]]}`,
			want: 0,
		},
		{
			name: "malformed JSON falls back to empty",
			data: `{"usage":[{"blockId":`,
			want: 0,
		},
		{
			name: "usage is not an array",
			data: `{"usage":"neon-cyan"}`,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseUsage(json.RawMessage(tt.data))
			if len(got) != tt.want {
				t.Errorf("ParseUsage() returned %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestResolveBlockID(t *testing.T) {
	nameIndex := map[string]string{"Neon Cyan": "neon-cyan"}

	tests := []struct {
		name  string
		entry UsageEntry
		want  string
	}{
		{
			name:  "explicit blockId wins",
			entry: UsageEntry{BlockID: "neon-cyan", BaseID: "other", ItemID: "x-1"},
			want:  "neon-cyan",
		},
		{
			name:  "baseId when blockId missing",
			entry: UsageEntry{BaseID: "soft-mint"},
			want:  "soft-mint",
		},
		{
			name:  "item id prefix before first hyphen",
			entry: UsageEntry{ItemID: "leaf-0042"},
			want:  "leaf",
		},
		{
			name:  "name lookup through the palette index",
			entry: UsageEntry{Name: "Neon Cyan"},
			want:  "neon-cyan",
		},
		{
			name:  "unresolvable entry drops to empty",
			entry: UsageEntry{Name: "Unknown Block"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.ResolveBlockID(nameIndex); got != tt.want {
				t.Errorf("ResolveBlockID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCatalogID(t *testing.T) {
	tests := []struct {
		name  string
		entry UsageEntry
		want  string
	}{
		{"baseId preferred", UsageEntry{BaseID: "Retro Green", BlockID: "x"}, "retro-green"},
		{"blockId second", UsageEntry{BlockID: "Soft Mint"}, "soft-mint"},
		{"name third", UsageEntry{Name: "Sky"}, "sky"},
		{"placeholder when nothing set", UsageEntry{}, "pix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.CatalogID(); got != tt.want {
				t.Errorf("CatalogID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBlockSlug(t *testing.T) {
	if got := BlockSlug("Neon  Cyan"); got != "neon-cyan" {
		t.Errorf("BlockSlug() = %q, want %q", got, "neon-cyan")
	}
	if got := BlockSlug("sky"); got != "sky" {
		t.Errorf("BlockSlug() = %q, want %q", got, "sky")
	}
}
