package engine

import (
	"sort"

	"github.com/jwebster45206/statecraft-engine/pkg/catalog"
)

// checkEndings scans the ending catalog by descending priority
// (stable, so ties keep declaration order) and returns the first
// ending whose conditions hold, or nil.
func checkEndings(catalogs *catalog.Catalogs, view catalog.StateView) *catalog.Ending {
	ordered := make([]*catalog.Ending, len(catalogs.Endings))
	for i := range catalogs.Endings {
		ordered[i] = &catalogs.Endings[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, ending := range ordered {
		if ending.Conditions.Evaluate(view) {
			return ending
		}
	}
	return nil
}
