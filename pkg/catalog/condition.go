package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
)

// StateView provides the minimal read surface needed to evaluate
// conditions. This avoids an import cycle with the engine package.
type StateView interface {
	Resource(name string) float64
	Flag(name string) bool
}

// Ref is a bound reference: either a literal number or the name of
// another resource, resolved against its current value at evaluation.
type Ref struct {
	Literal  float64
	Resource string
}

// UnmarshalJSON accepts either a JSON number or a resource-name string.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		r.Literal = n
		r.Resource = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("bound must be a number or a resource name: %s", string(data))
	}
	r.Resource = s
	return nil
}

// MarshalJSON writes the resource name when set, the literal otherwise.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Resource != "" {
		return json.Marshal(r.Resource)
	}
	return json.Marshal(r.Literal)
}

// Resolve returns the concrete bound value against the given view.
func (r Ref) Resolve(view StateView) float64 {
	if r.Resource != "" {
		return view.Resource(r.Resource)
	}
	return r.Literal
}

// Bound constrains one resource to an optional [Min, Max] interval.
// A bound with neither limit is vacuously true.
type Bound struct {
	Resource string
	Min      *Ref
	Max      *Ref
}

// ConditionSet is a decoded condition descriptor: resource bounds plus
// optional flag requirements, combined with AND semantics. Probability
// is only meaningful on event triggers and is excluded from Evaluate.
type ConditionSet struct {
	Bounds      []Bound
	Flag        string
	NotFlag     string
	Probability *float64
}

// rawBound mirrors the {min, max} wire shape.
type rawBound struct {
	Min *Ref `json:"min,omitempty"`
	Max *Ref `json:"max,omitempty"`
}

// UnmarshalJSON decodes the config wire format: an object mapping
// resource names to {min, max} bounds, with the reserved keys "flag",
// "notFlag" and "probability". Decoding happens once at catalog load;
// evaluation never re-interprets JSON.
func (cs *ConditionSet) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("conditions must be an object: %w", err)
	}

	*cs = ConditionSet{}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		val := raw[name]
		switch name {
		case "flag":
			if err := json.Unmarshal(val, &cs.Flag); err != nil {
				return fmt.Errorf("flag condition: %w", err)
			}
		case "notFlag":
			if err := json.Unmarshal(val, &cs.NotFlag); err != nil {
				return fmt.Errorf("notFlag condition: %w", err)
			}
		case "probability":
			var p float64
			if err := json.Unmarshal(val, &p); err != nil {
				return fmt.Errorf("probability condition: %w", err)
			}
			cs.Probability = &p
		default:
			var rb rawBound
			if err := json.Unmarshal(val, &rb); err != nil {
				return fmt.Errorf("bound for %q: %w", name, err)
			}
			cs.Bounds = append(cs.Bounds, Bound{Resource: name, Min: rb.Min, Max: rb.Max})
		}
	}
	return nil
}

// MarshalJSON re-encodes the set in the wire format.
func (cs ConditionSet) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{}
	for _, b := range cs.Bounds {
		rb := rawBound{Min: b.Min, Max: b.Max}
		out[b.Resource] = rb
	}
	if cs.Flag != "" {
		out["flag"] = cs.Flag
	}
	if cs.NotFlag != "" {
		out["notFlag"] = cs.NotFlag
	}
	if cs.Probability != nil {
		out["probability"] = *cs.Probability
	}
	return json.Marshal(out)
}

// Evaluate reports whether every descriptor in the set holds against
// the view. An empty set is vacuously true. This is the single
// condition evaluator shared by policy activation, event triggering,
// choice availability and ending detection.
func (cs ConditionSet) Evaluate(view StateView) bool {
	for _, b := range cs.Bounds {
		v := view.Resource(b.Resource)
		if b.Min != nil && v < b.Min.Resolve(view) {
			return false
		}
		if b.Max != nil && v > b.Max.Resolve(view) {
			return false
		}
	}
	if cs.Flag != "" && !view.Flag(cs.Flag) {
		return false
	}
	if cs.NotFlag != "" && view.Flag(cs.NotFlag) {
		return false
	}
	return true
}

// IsEmpty reports whether the set has no descriptors at all.
func (cs ConditionSet) IsEmpty() bool {
	return len(cs.Bounds) == 0 && cs.Flag == "" && cs.NotFlag == "" && cs.Probability == nil
}
