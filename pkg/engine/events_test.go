package engine

import (
	"testing"

	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/resource"
)

func alwaysEvent(id string, probability float64) catalog.Event {
	p := probability
	return catalog.Event{
		ID:         id,
		Name:       id,
		Dialogue:   catalog.Dialogue{Speaker: "x", Portrait: "x", Text: "x"},
		Conditions: catalog.ConditionSet{Probability: &p},
		Choices:    []catalog.Choice{{ID: "ok", Text: "ok", Dialogue: "ok"}},
	}
}

func TestSelectEvents_Cap(t *testing.T) {
	c := catalog.New(nil, nil, []catalog.Event{
		alwaysEvent("first", 1),
		alwaysEvent("second", 1),
		alwaysEvent("third", 1),
	}, nil)
	view := condView{ledger: resource.NewLedger(), flags: map[string]bool{}}

	selected := selectEvents(c, view, map[string]int{}, stubRand{0.0})
	if len(selected) != MaxEventsPerTurn {
		t.Fatalf("expected %d events, got %d", MaxEventsPerTurn, len(selected))
	}
	// Declaration order decides which events make the cut.
	if selected[0].ID != "first" || selected[1].ID != "second" {
		t.Errorf("unexpected selection order: %s, %s", selected[0].ID, selected[1].ID)
	}
}

func TestSelectEvents_CooldownSkips(t *testing.T) {
	c := catalog.New(nil, nil, []catalog.Event{
		alwaysEvent("cooling", 1),
		alwaysEvent("ready", 1),
	}, nil)
	view := condView{ledger: resource.NewLedger(), flags: map[string]bool{}}

	selected := selectEvents(c, view, map[string]int{"cooling": 2}, stubRand{0.0})
	if len(selected) != 1 || selected[0].ID != "ready" {
		t.Fatalf("expected only the ready event, got %v", selected)
	}
}

func TestSelectEvents_TriggerConditions(t *testing.T) {
	gated := alwaysEvent("gated", 1)
	gated.Conditions = mustConds(`{"oil": {"min": 9999}, "probability": 1}`)
	c := catalog.New(nil, nil, []catalog.Event{gated, alwaysEvent("open", 1)}, nil)
	view := condView{ledger: resource.NewLedger(), flags: map[string]bool{}}

	selected := selectEvents(c, view, map[string]int{}, stubRand{0.0})
	if len(selected) != 1 || selected[0].ID != "open" {
		t.Fatalf("expected only the open event, got %v", selected)
	}
}

func TestSelectEvents_Probability(t *testing.T) {
	// No declared probability falls back to the default of 0.5.
	bare := alwaysEvent("bare", 0)
	bare.Conditions = catalog.ConditionSet{}
	c := catalog.New(nil, nil, []catalog.Event{bare}, nil)
	view := condView{ledger: resource.NewLedger(), flags: map[string]bool{}}

	if got := selectEvents(c, view, map[string]int{}, stubRand{0.4}); len(got) != 1 {
		t.Errorf("draw 0.4 against p=0.5 must select, got %v", got)
	}
	if got := selectEvents(c, view, map[string]int{}, stubRand{0.6}); len(got) != 0 {
		t.Errorf("draw 0.6 against p=0.5 must skip, got %v", got)
	}
	// A draw equal to the probability still selects.
	if got := selectEvents(c, view, map[string]int{}, stubRand{0.5}); len(got) != 1 {
		t.Errorf("draw 0.5 against p=0.5 must select, got %v", got)
	}
}

func TestSelectEvents_DrawSequence(t *testing.T) {
	c := catalog.New(nil, nil, []catalog.Event{
		alwaysEvent("a", 0.5),
		alwaysEvent("b", 0.5),
		alwaysEvent("c", 0.5),
	}, nil)
	view := condView{ledger: resource.NewLedger(), flags: map[string]bool{}}

	// One draw per eligible event: a skipped, b and c selected.
	rnd := &seqRand{vals: []float64{0.9, 0.1, 0.2}}
	selected := selectEvents(c, view, map[string]int{}, rnd)
	if len(selected) != 2 || selected[0].ID != "b" || selected[1].ID != "c" {
		t.Fatalf("unexpected selection: %v", selected)
	}
}

func TestDecrementCooldowns(t *testing.T) {
	cooldowns := map[string]int{"expiring": 1, "cooling": 3}
	decrementCooldowns(cooldowns)

	if _, ok := cooldowns["expiring"]; ok {
		t.Error("expected the expired entry to be dropped")
	}
	if cooldowns["cooling"] != 2 {
		t.Errorf("expected cooling at 2, got %d", cooldowns["cooling"])
	}
}
