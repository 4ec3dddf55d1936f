package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/statecraft-engine/internal/storage"
	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/engine"
)

// EndingSummary is one gallery entry. Conditions and dialogue are
// deliberately omitted so the gallery never spoils how an ending is
// reached.
type EndingSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

// EndingsHandler serves the endings gallery.
//
// GET /v1/endings           - All endings, nothing unlocked
// GET /v1/endings?playerId= - Unlock flags from the player record
type EndingsHandler struct {
	catalogs *catalog.Catalogs
	storage  storage.Storage
	logger   *slog.Logger
}

func NewEndingsHandler(logger *slog.Logger, catalogs *catalog.Catalogs, store storage.Storage) *EndingsHandler {
	return &EndingsHandler{
		catalogs: catalogs,
		storage:  store,
		logger:   logger,
	}
}

func (h *EndingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Method not allowed. Only GET is supported at /v1/endings."}); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	unlocked := map[string]bool{}
	if playerID := r.URL.Query().Get("playerId"); playerID != "" {
		if h.storage == nil {
			w.WriteHeader(statusFor(engine.ErrPersistenceUnavailable))
			if err := json.NewEncoder(w).Encode(ErrorResponse{Error: "Player unlock state is unavailable: no storage configured"}); err != nil {
				h.logger.Error("Failed to encode error response", "error", err)
			}
			return
		}
		rec, err := h.storage.LoadPlayerRecord(r.Context(), playerID)
		if err != nil {
			h.logger.Warn("Failed to load player record for endings gallery", "player_id", playerID, "error", err)
		} else if rec != nil {
			for _, id := range rec.UnlockedEndings {
				unlocked[id] = true
			}
		}
	}

	out := make([]EndingSummary, 0, len(h.catalogs.Endings))
	for _, en := range h.catalogs.Endings {
		out = append(out, EndingSummary{
			ID:          en.ID,
			Title:       en.Title,
			Type:        en.Type,
			Description: en.Description,
			Unlocked:    unlocked[en.ID],
		})
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(out); err != nil {
		h.logger.Error("Failed to encode endings response", "error", err)
	}
}
