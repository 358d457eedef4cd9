package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/model"
)

func TestCreateArtwork(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	owner := createUser(t, db, "creator", 0)

	artwork, err := svc.Create(context.Background(), owner.ID, "  Sunset  ", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if artwork.Title != "Sunset" {
		t.Errorf("Title = %q, want trimmed %q", artwork.Title, "Sunset")
	}
	if artwork.Status != model.StatusDraft {
		t.Errorf("Status = %q, want %q", artwork.Status, model.StatusDraft)
	}
}

func TestCreateArtwork_Validation(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	owner := createUser(t, db, "creator", 0)
	ctx := context.Background()

	tests := []struct {
		name  string
		title string
		data  json.RawMessage
	}{
		{"empty title", "   ", nil},
		{"title too long", strings.Repeat("x", MaxTitleLength+1), nil},
		{"invalid data", "ok", json.RawMessage(`{not json`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner.ID, tt.title, tt.data)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestGetArtwork_OwnerScoped(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()
	owner := createUser(t, db, "owner", 0)
	other := createUser(t, db, "other", 0)

	artwork, err := svc.Create(ctx, owner.ID, "Private", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Someone else's draft is reported as missing, not forbidden.
	_, err = svc.Get(ctx, other.ID, artwork.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get() by non-owner error = %v, want ErrNotFound", err)
	}
}

func TestGetPublic_DraftsHidden(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()
	owner := createUser(t, db, "owner", 0)

	artwork, err := svc.Create(ctx, owner.ID, "Draft", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = svc.GetPublic(ctx, artwork.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetPublic() on draft error = %v, want ErrNotFound", err)
	}

	if _, err := svc.List(ctx, owner.ID, artwork.ID, 10); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if _, err := svc.GetPublic(ctx, artwork.ID); err != nil {
		t.Errorf("GetPublic() on listed artwork error = %v", err)
	}
}

func TestUpdate_ListedIsConflict(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()
	owner := createUser(t, db, "owner", 0)

	artwork, err := svc.Create(ctx, owner.ID, "Locked", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.List(ctx, owner.ID, artwork.ID, 10); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	_, err = svc.Update(ctx, owner.ID, artwork.ID, "New Title", nil)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Update() on listed artwork error = %v, want ErrConflict", err)
	}

	// Unlisting re-opens the draft for edits.
	if _, err := svc.Unlist(ctx, owner.ID, artwork.ID); err != nil {
		t.Fatalf("Unlist() error = %v", err)
	}
	updated, err := svc.Update(ctx, owner.ID, artwork.ID, "New Title", nil)
	if err != nil {
		t.Fatalf("Update() after unlist error = %v", err)
	}
	if updated.Title != "New Title" {
		t.Errorf("Title = %q, want %q", updated.Title, "New Title")
	}
}

func TestList_Validation(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()
	owner := createUser(t, db, "owner", 0)

	artwork, err := svc.Create(ctx, owner.ID, "Cheap", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.List(ctx, owner.ID, artwork.ID, 0); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("List(price=0) error = %v, want ErrValidation", err)
	}
	if _, err := svc.List(ctx, owner.ID, artwork.ID, -5); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("List(price=-5) error = %v, want ErrValidation", err)
	}

	if _, err := svc.List(ctx, owner.ID, artwork.ID, 10); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if _, err := svc.List(ctx, owner.ID, artwork.ID, 20); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("List() twice error = %v, want ErrConflict", err)
	}
}

func TestUnlist_DraftIsNoop(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()
	owner := createUser(t, db, "owner", 0)

	artwork, err := svc.Create(ctx, owner.ID, "Never Listed", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	result, err := svc.Unlist(ctx, owner.ID, artwork.ID)
	if err != nil {
		t.Fatalf("Unlist() on draft error = %v", err)
	}
	if result.Status != model.StatusDraft {
		t.Errorf("Status = %q, want %q", result.Status, model.StatusDraft)
	}
}

// listArtwork is a purchase-test helper: creates a listed artwork for
// seller with the given price and data payload.
func listArtwork(t *testing.T, svc *ArtworkService, sellerID string, price int64, data json.RawMessage) *model.Artwork {
	t.Helper()
	ctx := context.Background()
	artwork, err := svc.Create(ctx, sellerID, "For Sale", data)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	artwork, err = svc.List(ctx, sellerID, artwork.ID, price)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return artwork
}

func TestPurchase_Success(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 150)
	block := createBlock(t, db, "neon-cyan", "Neon Cyan", model.RarityRare)
	grantPalette(t, db, seller.ID, block.ID, 8)

	data := json.RawMessage(`{"usage":[{"blockId":"neon-cyan","baseId":"neon-cyan","name":"Neon Cyan","count":5}]}`)
	artwork := listArtwork(t, svc, seller.ID, 100, data)

	purchased, err := svc.Purchase(ctx, buyer.ID, artwork.ID)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	if purchased.Status != model.StatusSold {
		t.Errorf("Status = %q, want %q", purchased.Status, model.StatusSold)
	}
	if purchased.OwnerID != buyer.ID {
		t.Errorf("OwnerID = %q, want buyer %q", purchased.OwnerID, buyer.ID)
	}

	// Balance transfer: buyer 150 − 100 = 50, seller 0 + 100 = 100.
	buyerAfter, err := db.GetUserByID(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("GetUserByID(buyer) error = %v", err)
	}
	if buyerAfter.Balance != 50 {
		t.Errorf("buyer balance = %d, want 50", buyerAfter.Balance)
	}
	sellerAfter, err := db.GetUserByID(ctx, seller.ID)
	if err != nil {
		t.Fatalf("GetUserByID(seller) error = %v", err)
	}
	if sellerAfter.Balance != 100 {
		t.Errorf("seller balance = %d, want 100", sellerAfter.Balance)
	}

	// Block transfer: seller 8 − 5 = 3, buyer 0 + 5 = 5.
	sellerRow, err := db.GetPaletteRow(ctx, seller.ID, block.ID)
	if err != nil {
		t.Fatalf("GetPaletteRow(seller) error = %v", err)
	}
	if sellerRow.Count != 3 {
		t.Errorf("seller block count = %d, want 3", sellerRow.Count)
	}
	buyerRow, err := db.GetPaletteRow(ctx, buyer.ID, block.ID)
	if err != nil {
		t.Fatalf("GetPaletteRow(buyer) error = %v", err)
	}
	if buyerRow.Count != 5 {
		t.Errorf("buyer block count = %d, want 5", buyerRow.Count)
	}

	// Exactly one sale record.
	txns, err := db.ListTransactionsByArtwork(ctx, artwork.ID)
	if err != nil {
		t.Fatalf("ListTransactionsByArtwork() error = %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("len(transactions) = %d, want 1", len(txns))
	}
	if txns[0].Price != 100 || txns[0].BuyerID != buyer.ID || txns[0].SellerID != seller.ID {
		t.Errorf("transaction = %+v, want price 100 seller/buyer recorded", txns[0])
	}
}

func TestPurchase_SellerShortOnBlocks(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 100)
	block := createBlock(t, db, "leaf", "Leaf", model.RarityCommon)
	grantPalette(t, db, seller.ID, block.ID, 2)

	// Usage declares 5 but the seller holds 2 — the debit floors at zero
	// and the sale still goes through.
	data := json.RawMessage(`{"usage":[{"blockId":"leaf","count":5}]}`)
	artwork := listArtwork(t, svc, seller.ID, 50, data)

	if _, err := svc.Purchase(ctx, buyer.ID, artwork.ID); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}

	sellerRow, err := db.GetPaletteRow(ctx, seller.ID, block.ID)
	if err != nil {
		t.Fatalf("GetPaletteRow(seller) error = %v", err)
	}
	if sellerRow.Count != 0 {
		t.Errorf("seller block count = %d, want 0 (floored)", sellerRow.Count)
	}
	buyerRow, err := db.GetPaletteRow(ctx, buyer.ID, block.ID)
	if err != nil {
		t.Fatalf("GetPaletteRow(buyer) error = %v", err)
	}
	if buyerRow.Count != 5 {
		t.Errorf("buyer block count = %d, want full declared 5", buyerRow.Count)
	}
}

func TestPurchase_MalformedUsageTransfersNothing(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()

	seller := createUser(t, db, "seller", 0)
	buyer := createUser(t, db, "buyer", 100)

	data := json.RawMessage(`{"usage":"not a list"}`)
	artwork := listArtwork(t, svc, seller.ID, 40, data)

	purchased, err := svc.Purchase(ctx, buyer.ID, artwork.ID)
	if err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	if purchased.Status != model.StatusSold {
		t.Errorf("Status = %q, want sold despite malformed usage", purchased.Status)
	}

	buyerAfter, err := db.GetUserByID(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if buyerAfter.Balance != 60 {
		t.Errorf("buyer balance = %d, want 60", buyerAfter.Balance)
	}
}

func TestPurchase_Conflicts(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()

	seller := createUser(t, db, "seller", 0)
	poor := createUser(t, db, "poor", 10)
	rich := createUser(t, db, "rich", 1000)

	artwork := listArtwork(t, svc, seller.ID, 100, nil)

	if _, err := svc.Purchase(ctx, seller.ID, artwork.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("self-purchase error = %v, want ErrConflict", err)
	}
	if _, err := svc.Purchase(ctx, poor.ID, artwork.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("insufficient-balance error = %v, want ErrConflict", err)
	}

	// Failed attempts must leave no trace.
	poorAfter, err := db.GetUserByID(ctx, poor.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if poorAfter.Balance != 10 {
		t.Errorf("poor balance = %d after failed purchase, want 10", poorAfter.Balance)
	}

	if _, err := svc.Purchase(ctx, rich.ID, artwork.ID); err != nil {
		t.Fatalf("Purchase() error = %v", err)
	}
	// Already sold.
	if _, err := svc.Purchase(ctx, rich.ID, artwork.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("purchase of sold artwork error = %v, want ErrConflict", err)
	}

	// A draft is not purchasable either.
	draft, err := svc.Create(ctx, seller.ID, "Not For Sale", nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Purchase(ctx, rich.ID, draft.ID); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("purchase of draft error = %v, want ErrConflict", err)
	}
}

func TestPurchase_ConcurrentSingleWinner(t *testing.T) {
	db := newTestStore(t)
	svc := NewArtworkService(db, testLogger())
	ctx := context.Background()

	seller := createUser(t, db, "seller", 0)
	a := createUser(t, db, "buyer-a", 500)
	b := createUser(t, db, "buyer-b", 500)

	artwork := listArtwork(t, svc, seller.ID, 100, nil)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, buyer := range []*model.User{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = svc.Purchase(ctx, buyer.ID, artwork.ID)
		}()
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, apperror.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected purchase error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d, want exactly one of each", wins, conflicts)
	}

	// The seller was paid exactly once.
	sellerAfter, err := db.GetUserByID(ctx, seller.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if sellerAfter.Balance != 100 {
		t.Errorf("seller balance = %d, want 100", sellerAfter.Balance)
	}
	txns, err := db.ListTransactionsByArtwork(ctx, artwork.ID)
	if err != nil {
		t.Fatalf("ListTransactionsByArtwork() error = %v", err)
	}
	if len(txns) != 1 {
		t.Errorf("len(transactions) = %d, want 1", len(txns))
	}
}
