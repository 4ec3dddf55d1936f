package engine

import (
	"time"

	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/resource"
)

// Phase is the session's current stage within a turn's lifecycle.
type Phase string

const (
	PhaseAction Phase = "action"
	PhaseEvent  Phase = "event"
	PhaseReport Phase = "report"
)

// EventRecord is one resolved event in the session's history.
type EventRecord struct {
	EventID   string    `json:"event_id"`
	ChoiceID  string    `json:"choice_id"`
	Turn      int       `json:"turn"`
	Timestamp time.Time `json:"timestamp"`
}

// TurnRecord is one completed turn in the append-only history log.
type TurnRecord struct {
	Turn      int       `json:"turn"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Events    []string  `json:"events,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PolicyView is a policy annotated for the current view. The
// activation flags are computed live on every state read, never stored.
type PolicyView struct {
	catalog.Policy
	IsActive    bool `json:"isActive"`
	IsEnacted   bool `json:"isEnacted"`
	CanActivate bool `json:"canActivate"`
}

// ChoiceView is an event choice annotated with live availability.
type ChoiceView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Available bool   `json:"available"`
}

// EventView is the pending event presented during the event phase.
type EventView struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Dialogue catalog.Dialogue `json:"dialogue"`
	Choices  []ChoiceView     `json:"choices"`
}

// State is the full session snapshot returned by every operation.
// Presentation never needs to reconstruct derived fields.
type State struct {
	Resources       resource.Ledger      `json:"resources"`
	ActivePolicies  []string             `json:"activePolicies"`
	Flags           map[string]bool      `json:"flags"`
	TurnPhase       Phase                `json:"turnPhase"`
	CurrentView     string               `json:"currentView"`
	CurrentTurn     int                  `json:"currentTurn"`
	CurrentYear     int                  `json:"currentYear"`
	CurrentMonth    int                  `json:"currentMonth"`
	Departments     []catalog.Department `json:"departments"`
	CurrentDept     *catalog.Department  `json:"currentDepartment,omitempty"`
	Policies        []PolicyView         `json:"policies"`
	CurrentEvent    *EventView           `json:"currentEvent,omitempty"`
	TurnReport      map[string]float64   `json:"turnReport,omitempty"`
	Dialogue        *catalog.Dialogue    `json:"dialogue,omitempty"`
	IsEnding        bool                 `json:"isEnding"`
	EndingData      *catalog.Ending      `json:"endingData,omitempty"`
	UnlockedEndings []string             `json:"unlockedEndings"`
}
