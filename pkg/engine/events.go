package engine

import "github.com/jwebster45206/statecraft-engine/pkg/catalog"

// MaxEventsPerTurn caps how many events can trigger in a single turn.
// Re-balanceable constant.
const MaxEventsPerTurn = 2

// defaultEventProbability applies when an event declares none.
const defaultEventProbability = 0.5

// selectEvents filters the event catalog by cooldown, trigger
// conditions and probability, in catalog declaration order. A uniform
// [0,1) draw above the event's probability skips it.
func selectEvents(catalogs *catalog.Catalogs, view catalog.StateView, cooldowns map[string]int, rnd Rand) []*catalog.Event {
	var selected []*catalog.Event
	for i := range catalogs.Events {
		if len(selected) >= MaxEventsPerTurn {
			break
		}
		ev := &catalogs.Events[i]
		if cooldowns[ev.ID] > 0 {
			continue
		}
		if !ev.Conditions.Evaluate(view) {
			continue
		}
		p := defaultEventProbability
		if ev.Conditions.Probability != nil {
			p = *ev.Conditions.Probability
		}
		if rnd.Float64() > p {
			continue
		}
		selected = append(selected, ev)
	}
	return selected
}

// decrementCooldowns ticks every tracked cooldown down by one and
// drops entries that have expired.
func decrementCooldowns(cooldowns map[string]int) {
	for id, remaining := range cooldowns {
		remaining--
		if remaining <= 0 {
			delete(cooldowns, id)
		} else {
			cooldowns[id] = remaining
		}
	}
}
