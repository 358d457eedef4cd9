package handler

import (
	"log/slog"
	"net/http"

	"github.com/4hbab/pixel-market/internal/apperror"
	"github.com/4hbab/pixel-market/internal/auth"
	"github.com/4hbab/pixel-market/internal/repository"
	"github.com/4hbab/pixel-market/internal/service"
)

// PaletteHandler serves the block availability listing and manual count
// adjustments.
type PaletteHandler struct {
	palettes *service.PaletteService
	logger   *slog.Logger
}

func NewPaletteHandler(palettes *service.PaletteService, logger *slog.Logger) *PaletteHandler {
	return &PaletteHandler{palettes: palettes, logger: logger}
}

// HandleList returns the caller's palette with reservation accounting
// applied. Rows with nothing available are omitted.
//
// GET /api/palettes?tone=&rarity=&excludeArtworkId=
func (h *PaletteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	q := r.URL.Query()
	filter := repository.PaletteFilter{
		Tone:   q.Get("tone"),
		Rarity: q.Get("rarity"),
	}

	items, err := h.palettes.Availability(r.Context(), userID, filter, q.Get("excludeArtworkId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleAdjust applies a signed delta to one palette row.
//
// PATCH /api/palettes/{id} {delta}
func (h *PaletteHandler) HandleAdjust(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	id := r.PathValue("id")
	if id == "" {
		writeError(w, apperror.ValidationFailed("id", "palette ID is required"))
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	item, err := h.palettes.Adjust(r.Context(), userID, id, req.Delta)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
