package catalog

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/statecraft-engine/pkg/resource"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Validate checks the loaded catalogs for referential integrity:
// unique ids, known resource names in conditions and effects, known
// department and incompatible-policy references. Returns a
// *ValidationError when any error was found.
func (c *Catalogs) Validate() error {
	ve := c.Check()
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// Check runs the same validation as Validate but always returns the
// full report, warnings included.
func (c *Catalogs) Check() *ValidationError {
	ve := &ValidationError{}

	if c.Department(DefaultView) == nil {
		ve.Errors = append(ve.Errors, fmt.Sprintf("default view department %q not defined", DefaultView))
	}

	seen := map[string]bool{}
	for _, d := range c.Departments {
		if seen["dept:"+d.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate department id %q", d.ID))
		}
		seen["dept:"+d.ID] = true
	}

	for _, p := range c.Policies {
		if seen["policy:"+p.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate policy id %q", p.ID))
		}
		seen["policy:"+p.ID] = true

		if p.Type != PolicyToggle && p.Type != PolicyEnact {
			ve.Errors = append(ve.Errors, fmt.Sprintf("policy %q has unknown type %q", p.ID, p.Type))
		}
		if c.Department(p.Department) == nil {
			ve.Errors = append(ve.Errors, fmt.Sprintf("policy %q references undefined department %q", p.ID, p.Department))
		}
		for _, inc := range p.Incompatible {
			if c.Policy(inc) == nil {
				ve.Errors = append(ve.Errors, fmt.Sprintf("policy %q lists undefined incompatible policy %q", p.ID, inc))
			}
		}
		if p.Type == PolicyEnact && len(p.EnactEffects) == 0 {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("enact policy %q has no effects", p.ID))
		}
		validateConditions(fmt.Sprintf("policy %q", p.ID), p.Conditions, ve)
		validateDeltaKeys(fmt.Sprintf("policy %q cost", p.ID), p.Cost, ve)
		validateDeltaKeys(fmt.Sprintf("policy %q upkeep", p.ID), p.Upkeep, ve)
		validateDeltaKeys(fmt.Sprintf("policy %q effects", p.ID), p.Effects, ve)
		validateDeltaKeys(fmt.Sprintf("policy %q enactEffects", p.ID), p.EnactEffects, ve)
	}

	for _, ev := range c.Events {
		if seen["event:"+ev.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate event id %q", ev.ID))
		}
		seen["event:"+ev.ID] = true

		if len(ev.Choices) == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("event %q has no choices", ev.ID))
		}
		if p := ev.Conditions.Probability; p != nil && (*p < 0 || *p > 1) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("event %q probability %v outside [0,1]", ev.ID, *p))
		}
		validateConditions(fmt.Sprintf("event %q", ev.ID), ev.Conditions, ve)

		choiceIDs := map[string]bool{}
		for _, ch := range ev.Choices {
			if choiceIDs[ch.ID] {
				ve.Errors = append(ve.Errors, fmt.Sprintf("event %q has duplicate choice id %q", ev.ID, ch.ID))
			}
			choiceIDs[ch.ID] = true
			validateConditions(fmt.Sprintf("event %q choice %q", ev.ID, ch.ID), ch.Conditions, ve)
			validateDeltaKeys(fmt.Sprintf("event %q choice %q effects", ev.ID, ch.ID), ch.Effects, ve)
		}
	}

	for _, en := range c.Endings {
		if seen["ending:"+en.ID] {
			ve.Errors = append(ve.Errors, fmt.Sprintf("duplicate ending id %q", en.ID))
		}
		seen["ending:"+en.ID] = true

		if en.Type != EndingVictory && en.Type != EndingDefeat && en.Type != EndingSpecial {
			ve.Errors = append(ve.Errors, fmt.Sprintf("ending %q has unknown type %q", en.ID, en.Type))
		}
		if en.Conditions.IsEmpty() {
			ve.Errors = append(ve.Errors, fmt.Sprintf("ending %q has no conditions and would always match", en.ID))
		}
		validateConditions(fmt.Sprintf("ending %q", en.ID), en.Conditions, ve)
	}
	return ve
}

func validateConditions(ctx string, cs ConditionSet, ve *ValidationError) {
	for _, b := range cs.Bounds {
		if !knownResource(b.Resource) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s references unknown resource %q", ctx, b.Resource))
		}
		if b.Min != nil && b.Min.Resource != "" && !knownResource(b.Min.Resource) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s min bound references unknown resource %q", ctx, b.Min.Resource))
		}
		if b.Max != nil && b.Max.Resource != "" && !knownResource(b.Max.Resource) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s max bound references unknown resource %q", ctx, b.Max.Resource))
		}
	}
}

func validateDeltaKeys(ctx string, deltas map[string]float64, ve *ValidationError) {
	for key := range deltas {
		if !knownResource(key) {
			ve.Errors = append(ve.Errors, fmt.Sprintf("%s targets unknown resource %q", ctx, key))
		}
	}
}

func knownResource(name string) bool {
	if _, ok := resource.RangeFor(name); ok {
		return true
	}
	// Time counters are valid targets but carry no declared range.
	switch name {
	case resource.CurrentTurn, resource.CurrentYear, resource.CurrentMonth:
		return true
	}
	return false
}
