package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ConsoleConfig holds settings for the terminal client.
type ConsoleConfig struct {
	APIBaseURL string
	PlayerID   string
	Timeout    time.Duration
}

func loadConsoleConfig() *ConsoleConfig {
	baseURL := os.Getenv("STATECRAFT_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &ConsoleConfig{
		APIBaseURL: baseURL,
		PlayerID:   os.Getenv("STATECRAFT_PLAYER_ID"),
		Timeout:    30 * time.Second,
	}
}

func main() {
	cfg := loadConsoleConfig()
	client := &http.Client{Timeout: cfg.Timeout}

	fmt.Printf("Connecting to %s...\n", cfg.APIBaseURL)
	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Cannot reach the API at %s. Is the server running?\n", cfg.APIBaseURL)
		os.Exit(1)
	}

	sessionID, state, err := createSession(client, cfg.APIBaseURL, cfg.PlayerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create session: %v\n", err)
		os.Exit(1)
	}

	ui := NewConsoleUI(client, cfg.APIBaseURL, sessionID, cfg.PlayerID, state)
	p := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Console error: %v\n", err)
		os.Exit(1)
	}
}
