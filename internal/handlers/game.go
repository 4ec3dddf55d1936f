package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/statecraft-engine/internal/session"
	"github.com/jwebster45206/statecraft-engine/internal/storage"
	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// GameHandler drives game sessions over HTTP.
//
// Routes:
//
//	POST   /v1/game                          - Create a new session
//	GET    /v1/game/{id}                     - Read session state
//	DELETE /v1/game/{id}                     - Drop the session
//	POST   /v1/game/{id}/navigate            - Move to a department
//	POST   /v1/game/{id}/toggle-policy       - Activate or deactivate a toggle policy
//	POST   /v1/game/{id}/enact-policy        - Apply a one-shot policy
//	POST   /v1/game/{id}/advance-turn        - End the action phase
//	POST   /v1/game/{id}/resolve-event       - Answer the pending event
//	POST   /v1/game/{id}/dismiss-report      - Acknowledge the turn report
//	POST   /v1/game/{id}/save                - Export a save snapshot
//	POST   /v1/game/{id}/load                - Restore from a snapshot
//	POST   /v1/game/{id}/cloud-save          - Persist the snapshot to storage
//	POST   /v1/game/{id}/cloud-load          - Restore the persisted snapshot
type GameHandler struct {
	registry *session.Registry
	storage  storage.Storage
	catalogs *catalog.Catalogs
	logger   *slog.Logger

	// newEngine is swappable so tests can inject a fixed random
	// source and clock.
	newEngine func() *engine.Engine
}

func NewGameHandler(logger *slog.Logger, catalogs *catalog.Catalogs, registry *session.Registry, store storage.Storage) *GameHandler {
	return &GameHandler{
		registry: registry,
		storage:  store,
		catalogs: catalogs,
		logger:   logger,
		newEngine: func() *engine.Engine {
			return engine.New(catalogs, nil, nil)
		},
	}
}

// SetEngineFactory overrides how new session engines are built, for
// seeded runs and tests.
func (h *GameHandler) SetEngineFactory(f func() *engine.Engine) {
	h.newEngine = f
}

type createRequest struct {
	PlayerID string `json:"playerId"`
}

type createResponse struct {
	SessionID string        `json:"sessionId"`
	State     *engine.State `json:"state"`
}

type actionRequest struct {
	DepartmentID string          `json:"departmentId,omitempty"`
	PolicyID     string          `json:"policyId,omitempty"`
	ChoiceID     string          `json:"choiceId,omitempty"`
	Snapshot     json.RawMessage `json:"snapshot,omitempty"`
}

type saveResponse struct {
	Snapshot *engine.Snapshot `json:"snapshot"`
}

func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/game"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a session.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid session ID format")
		return
	}
	sess := h.registry.Get(sessionID)
	if sess == nil {
		h.writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			sess.Lock()
			state := sess.Engine.State()
			sess.Unlock()
			h.writeJSON(w, http.StatusOK, state)
		case http.MethodDelete:
			h.registry.Delete(sessionID)
			w.WriteHeader(http.StatusNoContent)
		default:
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
		return
	}

	if r.Method != http.MethodPost {
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Game actions require POST.")
		return
	}
	h.handleAction(w, r, sess, parts[1])
}

func (h *GameHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	// An empty body is fine: anonymous session.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	eng := h.newEngine()
	state := eng.Start()

	// Known players carry their unlocked endings into every new
	// session. Best effort: a storage failure starts a clean session.
	if req.PlayerID != "" && h.storage != nil {
		rec, err := h.storage.LoadPlayerRecord(r.Context(), req.PlayerID)
		if err != nil {
			h.logger.Warn("Failed to read player record at session start", "player_id", req.PlayerID, "error", err)
		} else if rec != nil && len(rec.UnlockedEndings) > 0 {
			eng.MergeUnlockedEndings(rec.UnlockedEndings)
			state = eng.State()
		}
	}

	sess := h.registry.Create(req.PlayerID, eng)

	h.logger.Info("Session created", "session_id", sess.ID, "player_id", req.PlayerID)
	h.writeJSON(w, http.StatusCreated, createResponse{
		SessionID: sess.ID.String(),
		State:     state,
	})
}

func (h *GameHandler) handleAction(w http.ResponseWriter, r *http.Request, sess *session.Session, action string) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess.Lock()
	defer sess.Unlock()

	var (
		state *engine.State
		err   error
	)
	switch action {
	case "navigate":
		state, err = sess.Engine.NavigateTo(req.DepartmentID)
	case "toggle-policy":
		state, err = sess.Engine.TogglePolicy(req.PolicyID)
	case "enact-policy":
		state, err = sess.Engine.EnactPolicy(req.PolicyID)
	case "advance-turn":
		state, err = sess.Engine.AdvanceTurn()
	case "resolve-event":
		state, err = sess.Engine.ResolveEvent(req.ChoiceID)
	case "dismiss-report":
		state, err = sess.Engine.DismissReport()
	case "save":
		h.writeJSON(w, http.StatusOK, saveResponse{Snapshot: sess.Engine.Save()})
		return
	case "load":
		state, err = h.loadSnapshot(sess, req.Snapshot)
	case "cloud-save":
		h.handleCloudSave(r.Context(), w, sess)
		return
	case "cloud-load":
		h.handleCloudLoad(r.Context(), w, sess)
		return
	default:
		h.writeError(w, http.StatusNotFound, "Unknown game action: "+action)
		return
	}

	if err != nil {
		h.logger.Warn("Game action failed", "session_id", sess.ID, "action", action, "error", err)
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	if state.IsEnding {
		h.persistEndingsAsync(sess)
	}
	h.writeJSON(w, http.StatusOK, state)
}

func (h *GameHandler) loadSnapshot(sess *session.Session, raw json.RawMessage) (*engine.State, error) {
	snap, err := engine.DecodeSnapshot(raw)
	if err != nil {
		return nil, err
	}
	return sess.Engine.Load(snap)
}

func (h *GameHandler) handleCloudSave(ctx context.Context, w http.ResponseWriter, sess *session.Session) {
	if sess.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, "Cloud saves require a session with a player ID")
		return
	}
	if h.storage == nil {
		h.writeError(w, statusFor(engine.ErrPersistenceUnavailable), "Cloud saves are unavailable: no storage configured")
		return
	}
	rec := &storage.PlayerRecord{
		Snapshot:        sess.Engine.Save(),
		UnlockedEndings: sess.Engine.UnlockedEndings(),
	}
	if err := h.storage.SavePlayerRecord(ctx, sess.PlayerID, rec); err != nil {
		err = fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
		h.logger.Error("Cloud save failed", "session_id", sess.ID, "player_id", sess.PlayerID, "error", err)
		h.writeError(w, statusFor(err), "Failed to persist save data")
		return
	}
	h.writeJSON(w, http.StatusOK, sess.Engine.State())
}

func (h *GameHandler) handleCloudLoad(ctx context.Context, w http.ResponseWriter, sess *session.Session) {
	if sess.PlayerID == "" {
		h.writeError(w, http.StatusBadRequest, "Cloud loads require a session with a player ID")
		return
	}
	if h.storage == nil {
		h.writeError(w, statusFor(engine.ErrPersistenceUnavailable), "Cloud loads are unavailable: no storage configured")
		return
	}
	rec, err := h.storage.LoadPlayerRecord(ctx, sess.PlayerID)
	if err != nil {
		err = fmt.Errorf("%w: %v", engine.ErrPersistenceUnavailable, err)
		h.logger.Error("Cloud load failed", "session_id", sess.ID, "player_id", sess.PlayerID, "error", err)
		h.writeError(w, statusFor(err), "Failed to read save data")
		return
	}
	if rec == nil {
		h.writeError(w, http.StatusNotFound, "No cloud save found for this player")
		return
	}

	sess.Engine.MergeUnlockedEndings(rec.UnlockedEndings)
	var state *engine.State
	if rec.Snapshot != nil {
		state, err = sess.Engine.Load(rec.Snapshot)
		if err != nil {
			h.writeError(w, statusFor(err), err.Error())
			return
		}
	} else {
		state = sess.Engine.Start()
	}
	h.writeJSON(w, http.StatusOK, state)
}

// persistEndingsAsync merges the session's unlocked endings into the
// player record without blocking the response. Failures are logged
// and never surfaced: unlocks must not break gameplay.
func (h *GameHandler) persistEndingsAsync(sess *session.Session) {
	if sess.PlayerID == "" || h.storage == nil {
		return
	}
	playerID := sess.PlayerID
	unlocked := sess.Engine.UnlockedEndings()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rec, err := h.storage.LoadPlayerRecord(ctx, playerID)
		if err != nil {
			h.logger.Warn("Endings autosave read failed", "player_id", playerID, "error", err)
			return
		}
		if rec == nil {
			rec = &storage.PlayerRecord{}
		}
		rec.UnlockedEndings = unionEndings(rec.UnlockedEndings, unlocked)
		if err := h.storage.SavePlayerRecord(ctx, playerID, rec); err != nil {
			h.logger.Warn("Endings autosave write failed", "player_id", playerID, "error", err)
		}
	}()
}

func unionEndings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, id := range a {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidPhase):
		return http.StatusConflict
	case errors.Is(err, engine.ErrConditionsUnmet),
		errors.Is(err, engine.ErrIncompatiblePolicy),
		errors.Is(err, engine.ErrInsufficientResources),
		errors.Is(err, engine.ErrAlreadyEnacted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, engine.ErrInvalidSaveData):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrPersistenceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *GameHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *GameHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		h.logger.Error("Failed to encode error response", "error", err)
	}
}
