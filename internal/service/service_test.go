package service

// Service tests run against a real in-memory SQLite store rather than
// hand-written mocks: the interesting behavior here (transactions,
// guarded updates, upsert flooring) lives in the interplay between the
// service and the store, which a map-backed fake would not exercise.

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/4hbab/pixel-market/internal/model"
	"github.com/4hbab/pixel-market/internal/repository/sqlite"
)

func newTestStore(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createUser(t *testing.T, db *sqlite.DB, handle string, balance int64) *model.User {
	t.Helper()
	user := &model.User{
		Handle:       handle,
		Email:        handle + "@example.com",
		PasswordHash: "x",
		Balance:      balance,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", handle, err)
	}
	return user
}

func createBlock(t *testing.T, db *sqlite.DB, id, name, rarity string) *model.PixelBlock {
	t.Helper()
	block, err := db.EnsureBlock(context.Background(), &model.PixelBlock{
		ID: id, Name: name, Tone: "neon", Rarity: rarity, RGB: "#112233",
	})
	if err != nil {
		t.Fatalf("failed to create block %s: %v", id, err)
	}
	return block
}

func grantPalette(t *testing.T, db *sqlite.DB, userID, blockID string, count int) {
	t.Helper()
	if err := db.UpsertPalette(context.Background(), userID, blockID, count); err != nil {
		t.Fatalf("failed to grant palette (%s, %s): %v", userID, blockID, err)
	}
}
