package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/auth"
	"github.com/4hbab/pixel-market/internal/service"
)

// ArtworkHandler serves the artwork lifecycle: CRUD on the owner's
// artworks, the public feed, and the purchase endpoint.
type ArtworkHandler struct {
	artworks *service.ArtworkService
	logger   *slog.Logger
}

func NewArtworkHandler(artworks *service.ArtworkService, logger *slog.Logger) *ArtworkHandler {
	return &ArtworkHandler{artworks: artworks, logger: logger}
}

// HandleList returns the caller's artworks, optionally filtered by
// status.
//
// GET /api/artworks?status=draft|listed|sold
func (h *ArtworkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	artworks, err := h.artworks.ListByOwner(r.Context(), userID, r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artworks)
}

// HandleCreate saves a new draft.
//
// POST /api/artworks {title, data}
func (h *ArtworkHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req struct {
		Title string          `json:"title"`
		Data  json.RawMessage `json:"data"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	artwork, err := h.artworks.Create(r.Context(), userID, req.Title, req.Data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, artwork)
}

// HandleGet returns one of the caller's artworks.
//
// GET /api/artworks/{id}
func (h *ArtworkHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "artwork ID is required"))
		return
	}

	artwork, err := h.artworks.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artwork)
}

// HandleUpdate edits or transitions an artwork. One PATCH endpoint
// covers three operations, dispatched on the "action" field:
//
//	PATCH /api/artworks/{id} {title, data}            → edit draft
//	PATCH /api/artworks/{id} {action: "list", price}  → put up for sale
//	PATCH /api/artworks/{id} {action: "unlist"}       → take off market
func (h *ArtworkHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "artwork ID is required"))
		return
	}

	var req struct {
		Action string          `json:"action"`
		Title  string          `json:"title"`
		Data   json.RawMessage `json:"data"`
		Price  int64           `json:"price"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ctx := r.Context()
	switch req.Action {
	case "":
		artwork, err := h.artworks.Update(ctx, userID, id, req.Title, req.Data)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, artwork)
	case "list":
		artwork, err := h.artworks.List(ctx, userID, id, req.Price)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, artwork)
	case "unlist":
		artwork, err := h.artworks.Unlist(ctx, userID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, artwork)
	default:
		writeError(w, apperror.ValidationFailed("action", "action must be list or unlist"))
	}
}

// HandlePurchase buys a listed artwork.
//
// POST /api/artworks/{id}/purchase
func (h *ArtworkHandler) HandlePurchase(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "artwork ID is required"))
		return
	}

	artwork, err := h.artworks.Purchase(r.Context(), userID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artwork)
}

// HandleFeed returns all listed artworks with seller handles, newest
// listing first. Public.
//
// GET /artworks/feed/listed
func (h *ArtworkHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	feed, err := h.artworks.Feed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feed)
}

// HandleGetPublic returns a listed or sold artwork without
// authentication; drafts stay invisible.
//
// GET /artworks/public/{id}
func (h *ArtworkHandler) HandleGetPublic(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "artwork ID is required"))
		return
	}

	artwork, err := h.artworks.GetPublic(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artwork)
}
