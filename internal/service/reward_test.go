package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
	"github.com/4hbab/pixel-market/internal/repository"
)

func newRewardService(t *testing.T, db repository.Store, seed int64) *RewardService {
	t.Helper()
	return NewRewardService(db, rand.New(rand.NewSource(seed)), testLogger())
}

func TestClaim_GrantsTenBlocks(t *testing.T) {
	db := newTestStore(t)
	svc := newRewardService(t, db, 1)
	ctx := context.Background()

	user := createUser(t, db, "daily", 0)
	createBlock(t, db, "leaf", "Leaf", model.RarityCommon)
	createBlock(t, db, "soft-mint", "Soft Mint", model.RarityCommon)
	createBlock(t, db, "neon-cyan", "Neon Cyan", model.RarityRare)

	result, err := svc.Claim(ctx, user.ID)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	if result.Totals.Common != 9 || result.Totals.Rare != 1 {
		t.Errorf("Totals = %+v, want 9 common and 1 rare", result.Totals)
	}

	total := 0
	for _, g := range result.Granted {
		if g.Count <= 0 {
			t.Errorf("grant %s has non-positive count %d", g.Block.ID, g.Count)
		}
		total += g.Count
	}
	if total != 10 {
		t.Errorf("total granted units = %d, want 10", total)
	}

	// Every granted unit landed in the palette.
	held := 0
	rows, err := db.ListPalette(ctx, user.ID, repository.PaletteFilter{})
	if err != nil {
		t.Fatalf("ListPalette() error = %v", err)
	}
	for _, row := range rows {
		held += row.Count
	}
	if held != 10 {
		t.Errorf("palette total = %d, want 10", held)
	}
}

func TestClaim_AggregatesBySingleBlock(t *testing.T) {
	db := newTestStore(t)
	svc := newRewardService(t, db, 1)
	ctx := context.Background()

	user := createUser(t, db, "daily", 0)
	// One common block and no rare: all ten picks collapse onto it.
	createBlock(t, db, "leaf", "Leaf", model.RarityCommon)

	result, err := svc.Claim(ctx, user.ID)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if len(result.Granted) != 1 {
		t.Fatalf("len(Granted) = %d, want 1 aggregated line", len(result.Granted))
	}
	if result.Granted[0].Block.ID != "leaf" || result.Granted[0].Count != 10 {
		t.Errorf("grant = %+v, want leaf x10", result.Granted[0])
	}
}

func TestClaim_SecondClaimSameDayIsConflict(t *testing.T) {
	db := newTestStore(t)
	svc := newRewardService(t, db, 1)
	ctx := context.Background()

	user := createUser(t, db, "daily", 0)
	createBlock(t, db, "leaf", "Leaf", model.RarityCommon)

	if _, err := svc.Claim(ctx, user.ID); err != nil {
		t.Fatalf("first Claim() error = %v", err)
	}

	_, err := svc.Claim(ctx, user.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Claim() error = %v, want ErrConflict", err)
	}

	// The refused claim must not have granted anything.
	rows, err := db.ListPalette(ctx, user.ID, repository.PaletteFilter{})
	if err != nil {
		t.Fatalf("ListPalette() error = %v", err)
	}
	total := 0
	for _, row := range rows {
		total += row.Count
	}
	if total != 10 {
		t.Errorf("palette total = %d after refused claim, want 10", total)
	}
}

func TestClaim_EmptyCommonTierIsConfigurationError(t *testing.T) {
	db := newTestStore(t)
	svc := newRewardService(t, db, 1)
	ctx := context.Background()

	user := createUser(t, db, "daily", 0)
	// Only a rare block — the draw cannot run.
	createBlock(t, db, "neon-cyan", "Neon Cyan", model.RarityRare)

	_, err := svc.Claim(ctx, user.ID)
	if !errors.Is(err, apperror.ErrConfiguration) {
		t.Errorf("Claim() error = %v, want ErrConfiguration", err)
	}

	// And nothing was recorded: tomorrow's fixed catalog means today is
	// still claimable.
	status, err := svc.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Claimed {
		t.Error("Claimed = true after failed draw")
	}
}

func TestStatus(t *testing.T) {
	db := newTestStore(t)
	svc := newRewardService(t, db, 1)
	ctx := context.Background()

	user := createUser(t, db, "daily", 0)
	createBlock(t, db, "leaf", "Leaf", model.RarityCommon)

	status, err := svc.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Claimed || status.Streak != 0 {
		t.Errorf("fresh status = %+v, want unclaimed with streak 0", status)
	}

	if _, err := svc.Claim(ctx, user.ID); err != nil {
		t.Fatalf("Claim() error = %v", err)
	}

	status, err = svc.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.Claimed || status.Streak != 1 {
		t.Errorf("status after claim = %+v, want claimed with streak 1", status)
	}
}

func TestCalcStreak(t *testing.T) {
	today := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days []string
		want int
	}{
		{"no history", nil, 0},
		{"claimed today only", []string{"2026-08-28"}, 1},
		{"three consecutive days", []string{"2026-08-28", "2026-08-27", "2026-08-26"}, 3},
		{"gap stops the walk", []string{"2026-08-28", "2026-08-26"}, 1},
		{"streak broken yesterday", []string{"2026-08-27", "2026-08-26"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calcStreak(tt.days, today); got != tt.want {
				t.Errorf("calcStreak(%v) = %d, want %d", tt.days, got, tt.want)
			}
		})
	}
}
