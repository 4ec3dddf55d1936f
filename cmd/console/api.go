package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/jwebster45206/statecraft-engine/pkg/engine"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type createRequest struct {
	PlayerID string `json:"playerId,omitempty"`
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
	Snapshot json.RawMessage `json:"snapshot"`
}

type EndingSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Unlocked    bool   `json:"unlocked"`
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func createSession(client *http.Client, baseURL, playerID string) (string, *engine.State, error) {
	jsonData, err := json.Marshal(createRequest{PlayerID: playerID})
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(baseURL+"/v1/game", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return "", nil, apiError(resp.StatusCode, body, "failed to create session")
	}

	var created createResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return "", nil, fmt.Errorf("failed to parse session response: %w", err)
	}
	return created.SessionID, created.State, nil
}

func getState(client *http.Client, baseURL, sessionID string) (*engine.State, error) {
	resp, err := client.Get(fmt.Sprintf("%s/v1/game/%s", baseURL, sessionID))
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to get state")
	}

	var state engine.State
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state response: %w", err)
	}
	return &state, nil
}

// postAction performs one game action and returns the refreshed state.
func postAction(client *http.Client, baseURL, sessionID, action string, req actionRequest) (*engine.State, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := client.Post(
		fmt.Sprintf("%s/v1/game/%s/%s", baseURL, sessionID, action),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "action failed")
	}

	var state engine.State
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("failed to parse state response: %w", err)
	}
	return &state, nil
}

// exportSave returns the raw snapshot JSON for clipboard transport.
func exportSave(client *http.Client, baseURL, sessionID string) (json.RawMessage, error) {
	resp, err := client.Post(
		fmt.Sprintf("%s/v1/game/%s/save", baseURL, sessionID),
		"application/json", bytes.NewBufferString("{}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "save failed")
	}

	var saved saveResponse
	if err := json.Unmarshal(body, &saved); err != nil {
		return nil, fmt.Errorf("failed to parse save response: %w", err)
	}
	return saved.Snapshot, nil
}

func listEndings(client *http.Client, baseURL, playerID string) ([]EndingSummary, error) {
	url := baseURL + "/v1/endings"
	if playerID != "" {
		url += "?playerId=" + playerID
	}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body, "failed to list endings")
	}

	var endings []EndingSummary
	if err := json.Unmarshal(body, &endings); err != nil {
		return nil, fmt.Errorf("failed to parse endings response: %w", err)
	}
	return endings, nil
}

func apiError(status int, body []byte, context string) error {
	var errorResp ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("API returned status %d: %s", status, string(body))
	}
	return fmt.Errorf("%s: %s", context, errorResp.Error)
}
