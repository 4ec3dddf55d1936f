//go:build integration
// +build integration

// Integration tests drive a running statecraft-engine API end to end.
// Start the server (and Redis) first, then:
//
//	API_BASE_URL=http://localhost:8080 go test -tags integration ./integration/
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/jwebster45206/statecraft-engine/pkg/engine"
)

var (
	baseURL string
	client  = &http.Client{Timeout: 30 * time.Second}
)

func TestMain(m *testing.M) {
	baseURL = os.Getenv("API_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	fmt.Printf("Running Statecraft Engine Integration Tests\n")
	fmt.Printf("   API Base URL: %s\n", baseURL)

	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "API is not reachable at %s: %v\n", baseURL, err)
		os.Exit(1)
	}
	resp.Body.Close()

	os.Exit(m.Run())
}

type apiState struct {
	SessionID string `json:"sessionId"`
	State     *engine.State
}

func createSession(t *testing.T, playerID string) *apiState {
	t.Helper()
	body := "{}"
	if playerID != "" {
		body = fmt.Sprintf(`{"playerId":%q}`, playerID)
	}
	resp, raw := do(t, http.MethodPost, "/v1/game", []byte(body))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d: %s", resp.StatusCode, raw)
	}
	var created struct {
		SessionID string        `json:"sessionId"`
		State     *engine.State `json:"state"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("create session: bad response: %v", err)
	}
	t.Cleanup(func() {
		req, _ := http.NewRequest(http.MethodDelete, baseURL+"/v1/game/"+created.SessionID, nil)
		if resp, err := client.Do(req); err == nil {
			resp.Body.Close()
		}
	})
	return &apiState{SessionID: created.SessionID, State: created.State}
}

func action(t *testing.T, sessionID, name string, req map[string]any) (*engine.State, int, []byte) {
	t.Helper()
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal %s request: %v", name, err)
	}
	resp, raw := do(t, http.MethodPost, "/v1/game/"+sessionID+"/"+name, payload)
	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, raw
	}
	var state engine.State
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("%s: bad state response: %v", name, err)
	}
	return &state, resp.StatusCode, raw
}

func do(t *testing.T, method, path string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, raw
}

// playToReport advances one turn and resolves any events until the
// report phase is reached. Event draws are live RNG, so both paths are
// legal.
func playToReport(t *testing.T, sessionID string) *engine.State {
	t.Helper()
	state, status, raw := action(t, sessionID, "advance-turn", nil)
	if status != http.StatusOK {
		t.Fatalf("advance-turn: status %d: %s", status, raw)
	}
	for state.TurnPhase == engine.PhaseEvent {
		ev := state.CurrentEvent
		if ev == nil {
			t.Fatalf("event phase without a current event")
		}
		choice := ""
		for _, c := range ev.Choices {
			if c.Available {
				choice = c.ID
				break
			}
		}
		if choice == "" {
			t.Fatalf("event %s has no available choice", ev.ID)
		}
		state, status, raw = action(t, sessionID, "resolve-event", map[string]any{"choiceId": choice})
		if status != http.StatusOK {
			t.Fatalf("resolve-event: status %d: %s", status, raw)
		}
	}
	if state.TurnPhase != engine.PhaseReport {
		t.Fatalf("expected report phase, got %s", state.TurnPhase)
	}
	return state
}

func TestFullGameLoop(t *testing.T) {
	sess := createSession(t, "")
	if sess.State.CurrentTurn != 1 {
		t.Errorf("expected turn 1, got %d", sess.State.CurrentTurn)
	}
	if sess.State.TurnPhase != engine.PhaseAction {
		t.Errorf("expected action phase, got %s", sess.State.TurnPhase)
	}

	// Visit every department the catalog advertises.
	for _, dept := range sess.State.Departments {
		state, status, raw := action(t, sess.SessionID, "navigate", map[string]any{"departmentId": dept.ID})
		if status != http.StatusOK {
			t.Fatalf("navigate %s: status %d: %s", dept.ID, status, raw)
		}
		if state.CurrentView != dept.ID {
			t.Errorf("navigate %s: currentView = %s", dept.ID, state.CurrentView)
		}
	}

	// Play three full turns.
	for i := 0; i < 3; i++ {
		state := playToReport(t, sess.SessionID)
		dismissed, status, raw := action(t, sess.SessionID, "dismiss-report", nil)
		if status != http.StatusOK {
			t.Fatalf("dismiss-report: status %d: %s", status, raw)
		}
		if dismissed.TurnPhase != engine.PhaseAction {
			t.Errorf("after dismiss: phase %s", dismissed.TurnPhase)
		}
		if len(state.TurnReport) == 0 {
			t.Errorf("turn %d report is empty", state.CurrentTurn)
		}
	}
}

func TestPhaseGating(t *testing.T) {
	sess := createSession(t, "")

	_, status, _ := action(t, sess.SessionID, "dismiss-report", nil)
	if status != http.StatusConflict {
		t.Errorf("dismiss in action phase: status %d, want 409", status)
	}

	playToReport(t, sess.SessionID)
	_, status, _ = action(t, sess.SessionID, "advance-turn", nil)
	if status != http.StatusConflict {
		t.Errorf("advance in report phase: status %d, want 409", status)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	sess := createSession(t, "")
	playToReport(t, sess.SessionID)
	action(t, sess.SessionID, "dismiss-report", nil)

	_, raw := do(t, http.MethodPost, "/v1/game/"+sess.SessionID+"/save", []byte("{}"))
	var saved struct {
		Snapshot json.RawMessage `json:"snapshot"`
	}
	if err := json.Unmarshal(raw, &saved); err != nil || len(saved.Snapshot) == 0 {
		t.Fatalf("save: bad response: %v (%s)", err, raw)
	}

	fresh := createSession(t, "")
	loaded, status, body := action(t, fresh.SessionID, "load", map[string]any{"snapshot": json.RawMessage(saved.Snapshot)})
	if status != http.StatusOK {
		t.Fatalf("load: status %d: %s", status, body)
	}
	if loaded.CurrentTurn != 2 {
		t.Errorf("loaded turn = %d, want 2", loaded.CurrentTurn)
	}

	_, status, _ = action(t, fresh.SessionID, "load", map[string]any{"snapshot": json.RawMessage(`{"garbage":`)})
	if status != http.StatusBadRequest {
		t.Errorf("load garbage: status %d, want 400", status)
	}
}

func TestCloudSaveLoad(t *testing.T) {
	playerID := fmt.Sprintf("itest-%d", time.Now().UnixNano())
	sess := createSession(t, playerID)
	playToReport(t, sess.SessionID)
	action(t, sess.SessionID, "dismiss-report", nil)

	_, status, raw := action(t, sess.SessionID, "cloud-save", nil)
	if status != http.StatusOK {
		t.Fatalf("cloud-save: status %d: %s", status, raw)
	}

	fresh := createSession(t, playerID)
	restored, status, raw := action(t, fresh.SessionID, "cloud-load", nil)
	if status != http.StatusOK {
		t.Fatalf("cloud-load: status %d: %s", status, raw)
	}
	if restored.CurrentTurn != 2 {
		t.Errorf("restored turn = %d, want 2", restored.CurrentTurn)
	}

	anon := createSession(t, "")
	_, status, _ = action(t, anon.SessionID, "cloud-save", nil)
	if status != http.StatusBadRequest {
		t.Errorf("anonymous cloud-save: status %d, want 400", status)
	}
}

func TestEndingsGallery(t *testing.T) {
	resp, raw := do(t, http.MethodGet, "/v1/endings", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("endings: status %d: %s", resp.StatusCode, raw)
	}
	var endings []struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Type     string `json:"type"`
		Unlocked bool   `json:"unlocked"`
	}
	if err := json.Unmarshal(raw, &endings); err != nil {
		t.Fatalf("endings: bad response: %v", err)
	}
	if len(endings) == 0 {
		t.Fatal("endings gallery is empty")
	}
	for _, e := range endings {
		if e.ID == "" || e.Title == "" || e.Type == "" {
			t.Errorf("incomplete ending entry: %+v", e)
		}
	}
}
