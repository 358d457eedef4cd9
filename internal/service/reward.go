package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
	"github.com/4hbab/pixel-market/internal/repository"
)

// A daily check-in always grants exactly ten blocks: nine drawn from
// the common tier and one from the rare tier.
const (
	commonPicks = 9
	rarePicks   = 1
)

const dayFormat = "2006-01-02"

// RewardService runs the daily check-in draw.
//
// The random source is injected so tests can seed it. *rand.Rand is not
// safe for concurrent use, hence the mutex around draws.
type RewardService struct {
	store  repository.Store
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRewardService(store repository.Store, rng *rand.Rand, logger *slog.Logger) *RewardService {
	return &RewardService{store: store, rng: rng, logger: logger}
}

// GrantedBlock is one aggregated grant line: a catalog block and how
// many units of it the draw produced.
type GrantedBlock struct {
	Block model.PixelBlock `json:"block"`
	Count int              `json:"count"`
}

// CheckinResult is a successful claim: the UTC day it was recorded
// under, the aggregated grants, and the fixed tier totals.
type CheckinResult struct {
	Date    string         `json:"date"`
	Granted []GrantedBlock `json:"granted"`
	Totals  CheckinTotals  `json:"totals"`
}

type CheckinTotals struct {
	Common int `json:"common"`
	Rare   int `json:"rare"`
}

// Claim performs the daily check-in for userID.
//
// Exactly once per (user, UTC day): the existence check on the checkins
// row, the draw, every palette increment, and the checkin insert are
// one store transaction, so a repeat call the same day gets "already
// claimed" and a failed grant leaves nothing behind.
//
// Draw: 9 uniform picks from the common tier, 1 from the rare tier
// (falling back to the common pool when no rare blocks exist),
// aggregated by block id — drawing the same block three times yields
// one grant line with count 3.
func (s *RewardService) Claim(ctx context.Context, userID string) (*CheckinResult, error) {
	day := time.Now().UTC().Format(dayFormat)

	var result *CheckinResult
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		_, err := tx.GetCheckin(ctx, userID, day)
		if err == nil {
			return apperror.Conflict("already claimed today")
		}
		if !errors.Is(err, apperror.ErrNotFound) {
			return err
		}

		blocks, err := tx.ListBlocks(ctx)
		if err != nil {
			return err
		}
		var common, rare []model.PixelBlock
		for _, b := range blocks {
			switch b.Rarity {
			case model.RarityCommon:
				common = append(common, b)
			case model.RarityRare:
				rare = append(rare, b)
			}
		}
		// Checked before any mutation: an empty common tier is a
		// catalog configuration problem, not a client error.
		if len(common) == 0 {
			return apperror.Configuration("block catalog has no common-rarity entries")
		}
		rarePool := rare
		if len(rarePool) == 0 {
			rarePool = common
		}

		counts := make(map[string]int)
		byID := make(map[string]model.PixelBlock, len(blocks))
		for _, b := range blocks {
			byID[b.ID] = b
		}
		s.mu.Lock()
		for i := 0; i < commonPicks; i++ {
			counts[common[s.rng.Intn(len(common))].ID]++
		}
		for i := 0; i < rarePicks; i++ {
			counts[rarePool[s.rng.Intn(len(rarePool))].ID]++
		}
		s.mu.Unlock()

		// Sorted for a stable grant order in responses and tests.
		ids := make([]string, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		granted := make([]GrantedBlock, 0, len(ids))
		for _, id := range ids {
			qty := counts[id]
			if err := adjustPalette(ctx, tx, userID, id, qty); err != nil {
				return err
			}
			granted = append(granted, GrantedBlock{Block: byID[id], Count: qty})
		}

		if err := tx.InsertCheckin(ctx, &model.Checkin{
			UserID:        userID,
			Day:           day,
			GrantedCommon: commonPicks,
			GrantedRare:   rarePicks,
		}); err != nil {
			return err
		}

		result = &CheckinResult{
			Date:    day,
			Granted: granted,
			Totals:  CheckinTotals{Common: commonPicks, Rare: rarePicks},
		}
		return nil
	})
	if err != nil {
		if !isBusinessError(err) && !errors.Is(err, apperror.ErrConfiguration) {
			s.logger.Error("check-in failed",
				slog.String("userID", userID),
				slog.String("error", err.Error()),
			)
		}
		return nil, fmt.Errorf("service/reward: claiming check-in: %w", err)
	}

	s.logger.Info("check-in claimed",
		slog.String("userID", userID),
		slog.String("day", day),
	)
	return result, nil
}

// CheckinStatus is the read path: whether today is already claimed and
// the current consecutive-day streak.
type CheckinStatus struct {
	Claimed bool `json:"claimed"`
	Streak  int  `json:"streak"`
}

// Status reports the user's claim state for today plus their streak
// over the recent check-in history.
func (s *RewardService) Status(ctx context.Context, userID string) (*CheckinStatus, error) {
	days, err := s.store.ListCheckinDays(ctx, userID, 14)
	if err != nil {
		return nil, fmt.Errorf("service/reward: listing checkin days: %w", err)
	}

	today := time.Now().UTC()
	claimed := len(days) > 0 && days[0] == today.Format(dayFormat)

	return &CheckinStatus{
		Claimed: claimed,
		Streak:  calcStreak(days, today),
	}, nil
}

// calcStreak counts consecutive check-in days walking backward from
// today. days must be sorted descending; the walk stops at the first
// gap, so a streak broken yesterday is zero.
func calcStreak(days []string, today time.Time) int {
	streak := 0
	cursor := today
	for _, day := range days {
		if day != cursor.Format(dayFormat) {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
