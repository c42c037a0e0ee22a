package progression

import (
	"strings"

	"github.com/citadel-app/citadel/internal/domain"
)

// RegionUnlockRatio is the share of a prerequisite region's locations that
// must be discovered before its dependent region opens.
const RegionUnlockRatio = 0.5

// homeDimension is the dimension of the root region.
const homeDimension = "Dimension C-137"

type regionRule struct {
	id       int
	name     string
	requires int
	match    func(domain.Location) bool
}

// regionRules is ordered by id; each region requires the previous one.
// A location may match more than one rule.
var regionRules = []regionRule{
	{
		id: 1, name: "Earth Dimension C-137",
		match: func(l domain.Location) bool {
			return l.Dimension == homeDimension ||
				strings.Contains(l.Name, "Earth") || strings.Contains(l.Name, "Smith")
		},
	},
	{
		id: 2, name: "Citadel of Ricks", requires: 1,
		match: func(l domain.Location) bool {
			return strings.Contains(l.Name, "Citadel") || strings.Contains(l.Name, "Rick")
		},
	},
	{
		id: 3, name: "Alien Worlds", requires: 2,
		match: func(l domain.Location) bool {
			return strings.Contains(l.Type, "Planet") || strings.Contains(l.Type, "Space")
		},
	},
	{
		id: 4, name: "Interdimensional Spaces", requires: 3,
		match: func(l domain.Location) bool {
			return l.Dimension != homeDimension && l.Dimension != "unknown" && l.Dimension != "" &&
				!strings.Contains(l.Name, "Earth")
		},
	},
}

// BuildRegions partitions locations into the region chain. The root region is
// always unlocked; other regions take their flag from unlocked.
func BuildRegions(locations []domain.Location, unlocked map[int]bool) []domain.Region {
	regions := make([]domain.Region, 0, len(regionRules))
	for _, rule := range regionRules {
		r := domain.Region{
			ID:               rule.id,
			Name:             rule.name,
			RequiredRegionID: rule.requires,
			LocationIDs:      []int{},
			Unlocked:         rule.requires == 0 || unlocked[rule.id],
		}
		for _, l := range locations {
			if rule.match(l) {
				r.LocationIDs = append(r.LocationIDs, l.ID)
			}
		}
		regions = append(regions, r)
	}
	return regions
}

// DiscoveredRatio returns the discovered share of a region's locations.
// An empty region reports 0 so it never opens its dependent.
func DiscoveredRatio(r domain.Region, discovered map[int]bool) float64 {
	if len(r.LocationIDs) == 0 {
		return 0
	}
	n := 0
	for _, id := range r.LocationIDs {
		if discovered[id] {
			n++
		}
	}
	return float64(n) / float64(len(r.LocationIDs))
}

// UnlockRegions re-evaluates every locked region in ascending id order and
// returns the ones that opened. Regions are updated in place, so one call can
// open a chain of regions when each link already meets the ratio.
func UnlockRegions(regions []domain.Region, discovered map[int]bool) []domain.Region {
	var opened []domain.Region
	for i := range regions {
		r := &regions[i]
		if r.Unlocked {
			continue
		}
		prereq := findRegion(regions, r.RequiredRegionID)
		if prereq == nil || !prereq.Unlocked {
			continue
		}
		if DiscoveredRatio(*prereq, discovered) >= RegionUnlockRatio {
			r.Unlocked = true
			opened = append(opened, *r)
		}
	}
	return opened
}

// LocationAccess reports whether a location is on the map at all and whether
// it belongs to at least one unlocked region.
func LocationAccess(regions []domain.Region, locationID int) (onMap, reachable bool) {
	for _, r := range regions {
		for _, id := range r.LocationIDs {
			if id != locationID {
				continue
			}
			onMap = true
			if r.Unlocked {
				return true, true
			}
		}
	}
	return onMap, false
}

func findRegion(regions []domain.Region, id int) *domain.Region {
	for i := range regions {
		if regions[i].ID == id {
			return &regions[i]
		}
	}
	return nil
}
