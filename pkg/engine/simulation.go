package engine

import (
	"math"

	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
	"github.com/jwebster45206/statecraft-engine/pkg/resource"
)

// Per-turn base economy deltas.
const (
	baseTaxIncome        = 50
	baseFoodConsumption  = -10
	baseOilProduction    = 5
	baseOreProduction    = 3
	basePowerDemandDrift = 1
)

// Feedback-loop thresholds.
const (
	foodShortageFloor     = 30
	equalityLowThreshold  = 0.2
	equalityHighThreshold = 0.7
	loyaltyLowThreshold   = 20
	moraleLowThreshold    = 20
	moraleHighThreshold   = 70
)

// simulateTurn computes one turn's resource deltas in place: base
// economy, active-policy upkeep and effects, feedback loops, GDP bonus
// income and the time advance. Clamping is deferred to the very end so
// the accumulated deltas commute.
//
// The returned report holds the net arithmetic delta per resource from
// everything except the time advance. When clamping truncates a value,
// the report still reflects the pre-clamp arithmetic.
func simulateTurn(ledger resource.Ledger, activePolicies []string, catalogs *catalog.Catalogs) map[string]float64 {
	report := make(map[string]float64)
	apply := func(res string, amount float64) {
		report[res] += ledger.Apply(res, amount)
	}

	// 1. Base economy.
	apply(resource.Currency, baseTaxIncome)
	apply(resource.Food, baseFoodConsumption)
	apply(resource.Oil, baseOilProduction)
	apply(resource.Ores, baseOreProduction)
	apply(resource.PowerConsumption, basePowerDemandDrift)

	// 2. Active toggle policies: upkeep first, then effects.
	for _, id := range activePolicies {
		p := catalogs.Policy(id)
		if p == nil {
			continue
		}
		for res, amount := range p.Upkeep {
			apply(res, amount)
		}
		for res, amount := range p.Effects {
			apply(res, amount)
		}
	}

	// 3. Feedback loops, evaluated against the ledger as accumulated
	// so far.
	if ledger.Get(resource.PowerSupply) < ledger.Get(resource.PowerConsumption) {
		apply(resource.SocialStability, -5)
		apply(resource.PublicMorale, -3)
	}
	if ledger.Get(resource.Food) < foodShortageFloor {
		apply(resource.SocialStability, -3)
		apply(resource.PublicMorale, -5)
	}
	if eq := ledger.Get(resource.EqualityIndex); eq < equalityLowThreshold {
		apply(resource.SocialStability, -2)
	} else if eq > equalityHighThreshold {
		apply(resource.SocialStability, 1)
		apply(resource.PublicMorale, 1)
	}
	if ledger.Get(resource.PartyLoyalty) < loyaltyLowThreshold {
		apply(resource.SocialStability, -2)
	}
	if morale := ledger.Get(resource.PublicMorale); morale < moraleLowThreshold {
		apply(resource.SocialStability, -1)
		apply(resource.GDPGrowth, -1)
	} else if morale > moraleHighThreshold {
		apply(resource.GDPGrowth, 1)
	}

	// 4. GDP growth converts into bonus income.
	if growth := ledger.Get(resource.GDPGrowth); growth > 0 {
		apply(resource.Currency, math.Floor(growth*2))
	}

	// 5. Time advance, excluded from the report.
	ledger.Apply(resource.CurrentTurn, 1)
	ledger.Apply(resource.CurrentMonth, 1)
	if ledger.Get(resource.CurrentMonth) > 12 {
		ledger[resource.CurrentMonth] = 1
		ledger.Apply(resource.CurrentYear, 1)
	}

	// 6. Clamp everything to declared ranges.
	ledger.Clamp()
	return report
}
