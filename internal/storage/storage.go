// Package storage persists per-player data: cloud saves and the
// endings gallery. Session state itself lives in memory; storage only
// holds what must survive a process restart.
package storage

import (
	"context"
	"time"

	"github.com/jwebster45206/statecraft-engine/pkg/engine"
)

// PlayerRecord is the persisted per-player data: the latest cloud
// save snapshot plus the unlocked-endings gallery.
type PlayerRecord struct {
	PlayerID        string           `json:"playerId"`
	Snapshot        *engine.Snapshot `json:"snapshot,omitempty"`
	UnlockedEndings []string         `json:"unlockedEndings"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Storage defines persistence operations for player records.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error
	SavePlayerRecord(ctx context.Context, playerID string, rec *PlayerRecord) error
	// LoadPlayerRecord returns nil without error when no record exists.
	LoadPlayerRecord(ctx context.Context, playerID string) (*PlayerRecord, error)
}
