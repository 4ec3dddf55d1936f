package engine

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/resource"
)

// CurrentSaveVersion tags snapshots produced by Save. Snapshots with a
// lower (or missing) version are treated as legacy: only the
// unlocked-endings set migrates forward.
const CurrentSaveVersion = 2

// Snapshot is the versioned serialization of every session field.
type Snapshot struct {
	Version         int                `json:"version"`
	Resources       resource.Ledger    `json:"resources"`
	ActivePolicies  []string           `json:"activePolicies"`
	Flags           map[string]bool    `json:"flags"`
	EventCooldowns  map[string]int     `json:"eventCooldowns"`
	EventHistory    []EventRecord      `json:"eventHistory"`
	UnlockedEndings []string           `json:"unlockedEndings"`
	TurnPhase       Phase              `json:"turnPhase"`
	CurrentView     string             `json:"currentView"`
	PendingEvents   []string           `json:"pendingEvents,omitempty"`
	EventCursor     int                `json:"eventCursor,omitempty"`
	TurnReport      map[string]float64 `json:"turnReport,omitempty"`
	History         []TurnRecord       `json:"history"`
	Ended           bool               `json:"ended,omitempty"`
	EndingID        string             `json:"endingId,omitempty"`
	SavedAt         time.Time          `json:"savedAt"`
}

// Save produces a snapshot of the session. It is a pure read.
func (e *Engine) Save() *Snapshot {
	return &Snapshot{
		Version:         CurrentSaveVersion,
		Resources:       e.ledger.Clone(),
		ActivePolicies:  append([]string{}, e.activePolicies...),
		Flags:           cloneFlags(e.flags),
		EventCooldowns:  cloneCooldowns(e.cooldowns),
		EventHistory:    append([]EventRecord{}, e.eventHistory...),
		UnlockedEndings: append([]string{}, e.unlockedEndings...),
		TurnPhase:       e.phase,
		CurrentView:     e.currentView,
		PendingEvents:   append([]string(nil), e.pendingEvents...),
		EventCursor:     e.eventCursor,
		TurnReport:      e.turnReport,
		History:         append([]TurnRecord{}, e.history...),
		Ended:           e.ended,
		EndingID:        e.endingID,
		SavedAt:         e.clock.Now(),
	}
}

// DecodeSnapshot parses raw snapshot bytes. Only malformed top-level
// data fails; missing fields are resolved by Load.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty snapshot", ErrInvalidSaveData)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSaveData, err)
	}
	return &snap, nil
}

// Load restores the session from a snapshot. Snapshots older than the
// current version reset the session and migrate only the
// unlocked-endings set. The unlocked-endings set is always unioned
// with what the engine already holds: loading never shrinks it.
func (e *Engine) Load(snap *Snapshot) (*State, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSaveData)
	}

	if snap.Version < CurrentSaveVersion {
		// Legacy save: fresh session, endings carried forward.
		e.MergeUnlockedEndings(snap.UnlockedEndings)
		return e.Start(), nil
	}

	e.ledger = resource.NewLedger()
	for k, v := range snap.Resources {
		e.ledger[k] = v
	}
	e.ledger.Clamp()

	e.activePolicies = append([]string{}, snap.ActivePolicies...)
	e.flags = cloneFlags(snap.Flags)
	if e.flags == nil {
		e.flags = make(map[string]bool)
	}
	e.cooldowns = cloneCooldowns(snap.EventCooldowns)
	if e.cooldowns == nil {
		e.cooldowns = make(map[string]int)
	}
	e.eventHistory = append([]EventRecord{}, snap.EventHistory...)
	e.MergeUnlockedEndings(snap.UnlockedEndings)
	if e.unlockedEndings == nil {
		e.unlockedEndings = []string{}
	}

	e.phase = snap.TurnPhase
	if e.phase != PhaseAction && e.phase != PhaseEvent && e.phase != PhaseReport {
		e.phase = PhaseAction
	}
	e.currentView = snap.CurrentView
	if e.catalogs.Department(e.currentView) == nil {
		e.currentView = catalog.DefaultView
	}
	// Snapshots can name events the catalog no longer carries. Those
	// entries are unresolvable and would wedge the event phase, so
	// they are pruned and the cursor shifted past the gaps.
	e.pendingEvents = e.pendingEvents[:0]
	cursor := snap.EventCursor
	for i, id := range snap.PendingEvents {
		if e.catalogs.Event(id) == nil {
			if i < snap.EventCursor {
				cursor--
			}
			continue
		}
		e.pendingEvents = append(e.pendingEvents, id)
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(e.pendingEvents) {
		cursor = len(e.pendingEvents)
	}
	e.eventCursor = cursor
	if e.phase == PhaseEvent && e.eventCursor >= len(e.pendingEvents) {
		e.phase = PhaseReport
	}
	e.turnReport = snap.TurnReport
	e.history = append([]TurnRecord{}, snap.History...)
	e.ended = snap.Ended
	e.endingID = snap.EndingID

	// Dialogue is presentation state and regenerates on load.
	e.dialogue = e.welcomeBackDialogue()
	return e.State(), nil
}

func (e *Engine) welcomeBackDialogue() *catalog.Dialogue {
	d := e.greetingFor(e.currentView)
	if d == nil {
		d = e.greetingFor(catalog.DefaultView)
	}
	return d
}

func cloneCooldowns(cooldowns map[string]int) map[string]int {
	if cooldowns == nil {
		return nil
	}
	out := make(map[string]int, len(cooldowns))
	for k, v := range cooldowns {
		out[k] = v
	}
	return out
}
