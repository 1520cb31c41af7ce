package orchestrator

import (
	"fmt"
	"sort"

	"riserroute/spatial"
)

// Zone is a set of domains routed together in one pass.
type Zone struct {
	ID      string
	Domains []string
}

// ZoneStrategy partitions domains into zones. Zones must not share domains.
type ZoneStrategy interface {
	Name() string
	Zones(domains []*spatial.RoutingDomain) []Zone
}

// ByLevel puts the domains of each building level in their own zone.
type ByLevel struct{}

func (ByLevel) Name() string { return "level" }

func (ByLevel) Zones(domains []*spatial.RoutingDomain) []Zone {
	byLevel := make(map[int][]string)
	for _, d := range domains {
		byLevel[d.Level] = append(byLevel[d.Level], d.ID)
	}
	levels := make([]int, 0, len(byLevel))
	for l := range byLevel {
		levels = append(levels, l)
	}
	sort.Ints(levels)

	zones := make([]Zone, 0, len(levels))
	for _, l := range levels {
		ids := byLevel[l]
		sort.Strings(ids)
		zones = append(zones, Zone{ID: fmt.Sprintf("L%d", l), Domains: ids})
	}
	return zones
}

// SingleZone routes every domain in one zone.
type SingleZone struct{}

func (SingleZone) Name() string { return "single" }

func (SingleZone) Zones(domains []*spatial.RoutingDomain) []Zone {
	if len(domains) == 0 {
		return nil
	}
	ids := make([]string, 0, len(domains))
	for _, d := range domains {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return []Zone{{ID: "all", Domains: ids}}
}

// StrategyByName returns the zone strategy registered under name.
func StrategyByName(name string) (ZoneStrategy, error) {
	switch name {
	case "", "level":
		return ByLevel{}, nil
	case "single":
		return SingleZone{}, nil
	default:
		return nil, fmt.Errorf("orchestrator: unknown zone strategy %q", name)
	}
}
