package catalog

import (
	"github.com/paulmach/orb"

	"geoscore/geometry"
)

// resolveFirst runs the narrow-phase containment test over the broad-phase
// candidates in the order supplied and returns the index of the first region
// that covers pt, or -1 when none does.
//
// A candidate whose containment evaluation errors is skipped and scanning
// continues: one malformed geometry must not take down the whole query.
func resolveFirst(pt orb.Point, candidates []int, regions []*geometry.Region) int {
	for _, idx := range candidates {
		if idx < 0 || idx >= len(regions) {
			continue
		}
		ok, err := regions[idx].Covers(pt)
		if err != nil {
			continue
		}
		if ok {
			return idx
		}
	}
	return -1
}
