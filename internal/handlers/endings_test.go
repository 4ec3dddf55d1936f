package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/statecraft-engine/internal/storage"
)

func TestEndingsHandler_Gallery(t *testing.T) {
	catalogs := handlerCatalogs(t, nil)
	store := storage.NewMockStorage()
	h := NewEndingsHandler(testLogger(), catalogs, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/endings", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out []EndingSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "collapse", out[0].ID)
	assert.Equal(t, "Collapse", out[0].Title)
	assert.False(t, out[0].Unlocked)
}

func TestEndingsHandler_UnlockedFlags(t *testing.T) {
	catalogs := handlerCatalogs(t, nil)
	store := storage.NewMockStorage()
	require.NoError(t, store.SavePlayerRecord(context.Background(), "player-1", &storage.PlayerRecord{
		UnlockedEndings: []string{"collapse"},
	}))
	h := NewEndingsHandler(testLogger(), catalogs, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/endings?playerId=player-1", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var out []EndingSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.True(t, out[0].Unlocked)
}

func TestEndingsHandler_NoStorageConfigured(t *testing.T) {
	h := NewEndingsHandler(testLogger(), handlerCatalogs(t, nil), nil)

	// The plain gallery never touches the store.
	req := httptest.NewRequest(http.MethodGet, "/v1/endings", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Player unlock state needs one.
	req = httptest.NewRequest(http.MethodGet, "/v1/endings?playerId=player-1", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestEndingsHandler_MethodNotAllowed(t *testing.T) {
	h := NewEndingsHandler(testLogger(), handlerCatalogs(t, nil), storage.NewMockStorage())

	req := httptest.NewRequest(http.MethodPost, "/v1/endings", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
