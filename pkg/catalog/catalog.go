// Package catalog defines the immutable content catalogs consumed by
// the engine: departments, policies, events and endings. Catalogs are
// loaded once at process start from JSON files and never mutated.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Advisor is a department's narrative persona.
type Advisor struct {
	Name     string `json:"name"`
	Portrait string `json:"portrait"`
	Greeting string `json:"greeting"`
}

// Department is a navigable administrative area of the simulation.
type Department struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Advisor     Advisor `json:"advisor"`
	Category    string  `json:"category"`
}

// Policy types.
const (
	PolicyToggle = "toggle"
	PolicyEnact  = "enact"
)

// Policy is a player-selectable rule. Toggle policies carry a one-time
// activation cost plus per-turn upkeep and effects; enact policies
// apply their effects once (negative deltas act as costs).
type Policy struct {
	ID           string             `json:"id"`
	Department   string             `json:"department"`
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Type         string             `json:"type"`
	Conditions   ConditionSet       `json:"conditions,omitempty"`
	Cost         map[string]float64 `json:"cost,omitempty"`
	Upkeep       map[string]float64 `json:"upkeep,omitempty"`
	Effects      map[string]float64 `json:"effects,omitempty"`
	EnactEffects map[string]float64 `json:"enactEffects,omitempty"`
	Incompatible []string           `json:"incompatible,omitempty"`
}

// Dialogue is a spoken line with its speaker persona.
type Dialogue struct {
	Speaker  string `json:"speaker"`
	Portrait string `json:"portrait"`
	Text     string `json:"text"`
}

// Choice is one player response to an event.
type Choice struct {
	ID         string             `json:"id"`
	Text       string             `json:"text"`
	Effects    map[string]float64 `json:"effects,omitempty"`
	Flags      map[string]bool    `json:"flags,omitempty"`
	Conditions ConditionSet       `json:"conditions,omitempty"`
	Dialogue   string             `json:"dialogue"`
}

// DefaultEventCooldown applies when an event declares no cooldown.
const DefaultEventCooldown = 5

// Event is a randomly triggered situation requiring a player choice.
type Event struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Dialogue   Dialogue     `json:"dialogue"`
	Conditions ConditionSet `json:"triggerConditions,omitempty"`
	Cooldown   int          `json:"cooldown,omitempty"`
	Choices    []Choice     `json:"choices"`
}

// CooldownTurns returns the declared cooldown, defaulted when absent.
func (e Event) CooldownTurns() int {
	if e.Cooldown <= 0 {
		return DefaultEventCooldown
	}
	return e.Cooldown
}

// Ending types.
const (
	EndingVictory = "victory"
	EndingDefeat  = "defeat"
	EndingSpecial = "special"
)

// Ending is a terminal narrative state.
type Ending struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Type        string       `json:"type"`
	Priority    int          `json:"priority"`
	Conditions  ConditionSet `json:"conditions"`
	Description string       `json:"description"`
	Dialogue    Dialogue     `json:"dialogue"`
}

// DefaultView is the overview department shown on session start and
// after a report is dismissed.
const DefaultView = "central_command"

// Catalogs is the immutable content bundle. Slices preserve file
// declaration order, which fixes catalog iteration order for event
// selection and ending tie-breaks.
type Catalogs struct {
	Departments []Department
	Policies    []Policy
	Events      []Event
	Endings     []Ending

	departmentByID map[string]*Department
	policyByID     map[string]*Policy
	eventByID      map[string]*Event
}

// New builds a catalog bundle from already-decoded content. Load is
// the usual entry point; New exists for programmatic construction.
func New(departments []Department, policies []Policy, events []Event, endings []Ending) *Catalogs {
	c := &Catalogs{
		Departments: departments,
		Policies:    policies,
		Events:      events,
		Endings:     endings,
	}
	c.buildIndexes()
	return c
}

// Load reads all catalog files from dir and builds lookup indexes.
func Load(dir string) (*Catalogs, error) {
	c := &Catalogs{}
	if err := readJSON(filepath.Join(dir, "departments.json"), &c.Departments); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, "policies.json"), &c.Policies); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, "events.json"), &c.Events); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, "endings.json"), &c.Endings); err != nil {
		return nil, err
	}
	c.buildIndexes()
	return c, nil
}

func readJSON(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal catalog file %s: %w", path, err)
	}
	return nil
}

func (c *Catalogs) buildIndexes() {
	c.departmentByID = make(map[string]*Department, len(c.Departments))
	for i := range c.Departments {
		c.departmentByID[c.Departments[i].ID] = &c.Departments[i]
	}
	c.policyByID = make(map[string]*Policy, len(c.Policies))
	for i := range c.Policies {
		c.policyByID[c.Policies[i].ID] = &c.Policies[i]
	}
	c.eventByID = make(map[string]*Event, len(c.Events))
	for i := range c.Events {
		c.eventByID[c.Events[i].ID] = &c.Events[i]
	}
}

// Department returns the department with the given id, or nil.
func (c *Catalogs) Department(id string) *Department {
	return c.departmentByID[id]
}

// Policy returns the policy with the given id, or nil.
func (c *Catalogs) Policy(id string) *Policy {
	return c.policyByID[id]
}

// Event returns the event with the given id, or nil.
func (c *Catalogs) Event(id string) *Event {
	return c.eventByID[id]
}

// DepartmentPolicies returns the policies owned by a department, in
// declaration order.
func (c *Catalogs) DepartmentPolicies(departmentID string) []Policy {
	var out []Policy
	for _, p := range c.Policies {
		if p.Department == departmentID {
			out = append(out, p)
		}
	}
	return out
}
