package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCatalogDir(t *testing.T, departments, policies, events, endings string) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"departments.json": departments,
		"policies.json":    policies,
		"events.json":      events,
		"endings.json":     endings,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

const testDepartments = `[
	{"id": "central_command", "name": "Central Command",
	 "advisor": {"name": "Saebyeol", "portrait": "saebyeol", "greeting": "Reporting."}},
	{"id": "economic_bureau", "name": "Economic Bureau",
	 "advisor": {"name": "Ri", "portrait": "minister", "greeting": "Comrade."}}
]`

const testPolicies = `[
	{"id": "planned_economy", "department": "economic_bureau", "name": "Planned Economy",
	 "type": "toggle", "cost": {"currency": 100}, "upkeep": {"currency": -20},
	 "effects": {"gdpGrowth": 2}, "incompatible": ["open_markets"]},
	{"id": "open_markets", "department": "economic_bureau", "name": "Open Markets",
	 "type": "toggle", "conditions": {"diplomacy": {"min": 30}}},
	{"id": "grid_expansion", "department": "economic_bureau", "name": "Grid Expansion",
	 "type": "enact", "enactEffects": {"currency": -500, "powerSupply": 25}}
]`

const testEvents = `[
	{"id": "blackout", "name": "Blackout",
	 "dialogue": {"speaker": "Ri", "portrait": "minister", "text": "The grid failed."},
	 "triggerConditions": {"powerSupply": {"max": "powerConsumption"}, "probability": 0.8},
	 "cooldown": 3,
	 "choices": [
		{"id": "ration", "text": "Ration power", "effects": {"socialStability": -5}, "dialogue": "Done."},
		{"id": "import", "text": "Import energy", "effects": {"currency": -300},
		 "conditions": {"currency": {"min": 300}}, "dialogue": "Done."}
	 ]},
	{"id": "congress", "name": "Party Congress",
	 "dialogue": {"speaker": "Saebyeol", "portrait": "saebyeol", "text": "The congress convenes."},
	 "triggerConditions": {"probability": 0.2},
	 "choices": [{"id": "hardline", "text": "Stay the course", "dialogue": "Done."}]}
]`

const testEndings = `[
	{"id": "collapse", "title": "Collapse", "type": "defeat", "priority": 9,
	 "conditions": {"socialStability": {"max": 5}},
	 "dialogue": {"speaker": "Saebyeol", "portrait": "saebyeol", "text": "It is over."}}
]`

func TestLoad(t *testing.T) {
	dir := writeCatalogDir(t, testDepartments, testPolicies, testEvents, testEndings)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := len(c.Departments); got != 2 {
		t.Errorf("expected 2 departments, got %d", got)
	}
	if c.Department("economic_bureau") == nil {
		t.Error("department lookup failed")
	}
	if c.Department("missing") != nil {
		t.Error("expected nil for unknown department")
	}

	p := c.Policy("planned_economy")
	if p == nil {
		t.Fatal("policy lookup failed")
	}
	if p.Cost["currency"] != 100 || p.Upkeep["currency"] != -20 {
		t.Errorf("policy deltas not decoded: %+v", p)
	}
	if len(p.Incompatible) != 1 || p.Incompatible[0] != "open_markets" {
		t.Errorf("incompatible list not decoded: %+v", p.Incompatible)
	}

	ev := c.Event("blackout")
	if ev == nil {
		t.Fatal("event lookup failed")
	}
	if len(ev.Conditions.Bounds) != 1 || ev.Conditions.Bounds[0].Max.Resource != "powerConsumption" {
		t.Errorf("trigger conditions not decoded: %+v", ev.Conditions)
	}
	if ev.CooldownTurns() != 3 {
		t.Errorf("expected cooldown 3, got %d", ev.CooldownTurns())
	}
	if c.Event("congress").CooldownTurns() != DefaultEventCooldown {
		t.Errorf("expected default cooldown for event without one")
	}

	if len(c.Endings) != 1 || c.Endings[0].Priority != 9 {
		t.Errorf("endings not decoded: %+v", c.Endings)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for a missing catalog file")
	}
}

func TestDepartmentPolicies(t *testing.T) {
	dir := writeCatalogDir(t, testDepartments, testPolicies, testEvents, testEndings)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	got := c.DepartmentPolicies("economic_bureau")
	want := []string{"planned_economy", "open_markets", "grid_expansion"}
	if len(got) != len(want) {
		t.Fatalf("expected %d policies, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("policy %d: expected %q, got %q", i, id, got[i].ID)
		}
	}

	if len(c.DepartmentPolicies("central_command")) != 0 {
		t.Error("expected no policies for central_command")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		policies string
		events   string
		endings  string
		wantErrs []string
	}{
		{
			name:     "valid catalogs",
			policies: testPolicies,
			events:   testEvents,
			endings:  testEndings,
		},
		{
			name: "unknown department and resource",
			policies: `[{"id": "p1", "department": "ghost_bureau", "name": "P1",
				"type": "toggle", "effects": {"plutonium": 5}}]`,
			events:  testEvents,
			endings: testEndings,
			wantErrs: []string{
				`references undefined department "ghost_bureau"`,
				`targets unknown resource "plutonium"`,
			},
		},
		{
			name: "bad policy type and dangling incompatible",
			policies: `[{"id": "p1", "department": "economic_bureau", "name": "P1",
				"type": "decree", "incompatible": ["nope"]}]`,
			events:  testEvents,
			endings: testEndings,
			wantErrs: []string{
				`unknown type "decree"`,
				`undefined incompatible policy "nope"`,
			},
		},
		{
			name:     "event probability out of range",
			policies: testPolicies,
			events: `[{"id": "e1", "name": "E1",
				"dialogue": {"speaker": "x", "portrait": "x", "text": "x"},
				"triggerConditions": {"probability": 1.5},
				"choices": [{"id": "a", "text": "A", "dialogue": "d"}]}]`,
			endings:  testEndings,
			wantErrs: []string{`probability 1.5 outside [0,1]`},
		},
		{
			name:     "ending without conditions",
			policies: testPolicies,
			events:   testEvents,
			endings: `[{"id": "e1", "title": "E1", "type": "victory", "priority": 1,
				"conditions": {},
				"dialogue": {"speaker": "x", "portrait": "x", "text": "x"}}]`,
			wantErrs: []string{`has no conditions`},
		},
		{
			name:     "duplicate choice ids",
			policies: testPolicies,
			events: `[{"id": "e1", "name": "E1",
				"dialogue": {"speaker": "x", "portrait": "x", "text": "x"},
				"choices": [
					{"id": "a", "text": "A", "dialogue": "d"},
					{"id": "a", "text": "B", "dialogue": "d"}
				]}]`,
			endings:  testEndings,
			wantErrs: []string{`duplicate choice id "a"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCatalogDir(t, testDepartments, tt.policies, tt.events, tt.endings)
			c, err := Load(dir)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			err = c.Validate()
			if len(tt.wantErrs) == 0 {
				if err != nil {
					t.Fatalf("expected valid catalogs, got %v", err)
				}
				return
			}
			ve, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T (%v)", err, err)
			}
			joined := ve.Error()
			for _, want := range tt.wantErrs {
				if !strings.Contains(joined, want) {
					t.Errorf("expected error containing %q, got:\n%s", want, joined)
				}
			}
		})
	}
}
