// Package resource implements the national resource ledger: a mapping
// of named numeric resources with per-key range invariants.
package resource

// Resource keys. The set is fixed; unknown keys read as zero.
const (
	Currency         = "currency"
	PowerSupply      = "powerSupply"
	PowerConsumption = "powerConsumption"
	Oil              = "oil"
	Food             = "food"
	Electronics      = "electronics"
	Ores             = "ores"
	Diplomacy        = "diplomacy"
	SocialStability  = "socialStability"
	EqualityIndex    = "equalityIndex"
	PublicMorale     = "publicMorale"
	Education        = "education"
	Healthcare       = "healthcare"
	MilitaryStrength = "militaryStrength"
	PartyLoyalty     = "partyLoyalty"
	AIAutonomy       = "aiAutonomy"
	GDPGrowth        = "gdpGrowth"
	CurrentTurn      = "currentTurn"
	CurrentYear      = "currentYear"
	CurrentMonth     = "currentMonth"
)

// Range is the valid interval for a resource. HasMax false means the
// resource is unbounded above (stock resources).
type Range struct {
	Min    float64
	Max    float64
	HasMax bool
}

// ranges declares the valid interval per resource. Time counters are
// deliberately absent: they are monotonic and never clamped.
var ranges = map[string]Range{
	Currency:         {Min: 0},
	PowerSupply:      {Min: 0},
	PowerConsumption: {Min: 0},
	Oil:              {Min: 0},
	Food:             {Min: 0},
	Electronics:      {Min: 0},
	Ores:             {Min: 0},
	Diplomacy:        {Min: 0, Max: 100, HasMax: true},
	SocialStability:  {Min: 0, Max: 100, HasMax: true},
	EqualityIndex:    {Min: 0, Max: 1, HasMax: true},
	PublicMorale:     {Min: 0, Max: 100, HasMax: true},
	Education:        {Min: 0, Max: 100, HasMax: true},
	Healthcare:       {Min: 0, Max: 100, HasMax: true},
	MilitaryStrength: {Min: 0, Max: 100, HasMax: true},
	PartyLoyalty:     {Min: 0, Max: 100, HasMax: true},
	AIAutonomy:       {Min: 0, Max: 100, HasMax: true},
	GDPGrowth:        {Min: 0, Max: 100, HasMax: true},
}

// RangeFor returns the declared range for a resource key.
func RangeFor(key string) (Range, bool) {
	r, ok := ranges[key]
	return r, ok
}

// Ledger maps resource names to current values. Absent keys read as 0.
type Ledger map[string]float64

// Initial values for a fresh session.
func NewLedger() Ledger {
	return Ledger{
		Currency:         1000,
		PowerSupply:      100,
		PowerConsumption: 80,
		Oil:              500,
		Food:             300,
		Electronics:      30,
		Ores:             200,
		Diplomacy:        50,
		SocialStability:  70,
		EqualityIndex:    0.3,
		PublicMorale:     60,
		Education:        40,
		Healthcare:       40,
		MilitaryStrength: 50,
		PartyLoyalty:     70,
		AIAutonomy:       20,
		GDPGrowth:        5,
		CurrentTurn:      1,
		CurrentYear:      2045,
		CurrentMonth:     1,
	}
}

// Get returns the value for key, defaulting to 0 when absent. All
// reads go through this accessor so missing-key semantics are explicit.
func (l Ledger) Get(key string) float64 {
	return l[key]
}

// Apply adds amount to key and returns the applied (pre-clamp) delta.
// Clamping is deferred to Clamp so that a turn's deltas commute.
func (l Ledger) Apply(key string, amount float64) float64 {
	l[key] = l[key] + amount
	return amount
}

// Clamp applies the declared range to every resource. It is idempotent
// and must run at the end of every state-mutating operation, before
// the ledger is observed externally.
func (l Ledger) Clamp() {
	for key, r := range ranges {
		v := l[key]
		if v < r.Min {
			v = r.Min
		}
		if r.HasMax && v > r.Max {
			v = r.Max
		}
		l[key] = v
	}
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	out := make(Ledger, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}
