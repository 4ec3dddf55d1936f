package storage

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jwebster45206/statecraft-engine/pkg/engine"
	"github.com/jwebster45206/statecraft-engine/pkg/resource"
)

func newTestRedis(t *testing.T) *RedisStorage {
	t.Helper()
	mr := miniredis.RunT(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
	s := NewRedisStorage(mr.Addr(), logger)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close Redis storage: %v", err)
		}
	})
	return s
}

func TestRedisStorage_Ping(t *testing.T) {
	s := newTestRedis(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestRedisStorage_PlayerRecordRoundTrip(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()

	rec := &PlayerRecord{
		Snapshot: &engine.Snapshot{
			Version:   engine.CurrentSaveVersion,
			Resources: resource.Ledger{resource.Currency: 750},
			TurnPhase: engine.PhaseAction,
		},
		UnlockedEndings: []string{"total_collapse"},
	}
	if err := s.SavePlayerRecord(ctx, "player-1", rec); err != nil {
		t.Fatalf("SavePlayerRecord: %v", err)
	}

	loaded, err := s.LoadPlayerRecord(ctx, "player-1")
	if err != nil {
		t.Fatalf("LoadPlayerRecord: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected a record")
	}
	if loaded.PlayerID != "player-1" {
		t.Errorf("expected player id set on save, got %q", loaded.PlayerID)
	}
	if loaded.Snapshot == nil || loaded.Snapshot.Resources.Get(resource.Currency) != 750 {
		t.Errorf("snapshot lost in round trip: %+v", loaded.Snapshot)
	}
	if len(loaded.UnlockedEndings) != 1 || loaded.UnlockedEndings[0] != "total_collapse" {
		t.Errorf("endings lost in round trip: %v", loaded.UnlockedEndings)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be stamped")
	}
}

func TestRedisStorage_LoadMissingRecord(t *testing.T) {
	s := newTestRedis(t)

	loaded, err := s.LoadPlayerRecord(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadPlayerRecord: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil for a missing record, got %+v", loaded)
	}
}

func TestRedisStorage_SaveNilRecord(t *testing.T) {
	s := newTestRedis(t)
	if err := s.SavePlayerRecord(context.Background(), "player-1", nil); err == nil {
		t.Fatal("expected an error for a nil record")
	}
}
