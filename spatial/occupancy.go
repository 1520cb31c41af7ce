package spatial

import (
	"fmt"
	"sort"
	"sync"

	"riserroute/core"
	"riserroute/geometry"
)

// OccupiedSegment is one reserved straight run in a domain.
type OccupiedSegment struct {
	RouteID     string
	ConnectorID string
	TargetID    string
	Trade       core.SystemType
	Diameter    float64
	Clearance   float64
	Priority    int
	Segment     geometry.Segment
}

// RouteMeta describes the route that owns a reservation.
type RouteMeta struct {
	RouteID     string
	ConnectorID string
	TargetID    string
	Trade       core.SystemType
	Diameter    float64
	Clearance   float64
	Priority    int
}

// Exemptions relax the no-overlap rule for explicitly allowed cases.
type Exemptions struct {
	// BundleTrades lists trades whose routes may run alongside each other.
	BundleTrades map[core.SystemType]bool
	// JoinRadius allows routes to the same target to converge within this distance of it.
	JoinRadius float64
}

// Query is a candidate segment to check against the ledger.
type Query struct {
	DomainID  string
	Segment   geometry.Segment
	Diameter  float64
	Clearance float64
	RouteID   string
	Trade     core.SystemType
	TargetID  string
	Join      *geometry.Point // target position when it lies in DomainID
}

// Conflict describes an existing reservation a candidate segment comes too close to.
type Conflict struct {
	Existing OccupiedSegment
	Distance float64
	Required float64
	Span     geometry.Segment // part of the candidate inside the required separation
}

// OccupancyMap is the per-domain ledger of reserved segments.
// A single mutex guards reserve and release; checks take the read lock.
type OccupancyMap struct {
	mu      sync.RWMutex
	domains map[string][]OccupiedSegment
	exempt  Exemptions
}

// NewOccupancyMap creates an empty ledger.
func NewOccupancyMap(exempt Exemptions) *OccupancyMap {
	return &OccupancyMap{
		domains: make(map[string][]OccupiedSegment),
		exempt:  exempt,
	}
}

// Required returns the minimum centre-line separation between two runs.
func Required(diameterA, diameterB, clearance float64) float64 {
	return (diameterA+diameterB)/2 + clearance
}

// IsAvailable reports whether the segment can be reserved, and the first conflicting route if not.
func (m *OccupancyMap) IsAvailable(domainID string, seg geometry.Segment, diameter, clearance float64) (bool, string) {
	conflicts := m.Check(Query{DomainID: domainID, Segment: seg, Diameter: diameter, Clearance: clearance})
	if len(conflicts) == 0 {
		return true, ""
	}
	return false, conflicts[0].Existing.RouteID
}

// Conflicts returns every reservation the segment comes too close to, ignoring exemptions.
func (m *OccupancyMap) Conflicts(domainID string, seg geometry.Segment, diameter, clearance float64) []OccupiedSegment {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []OccupiedSegment
	for _, existing := range m.domains[domainID] {
		req := Required(diameter, existing.Diameter, max(clearance, existing.Clearance))
		if geometry.SegmentDistance(seg, existing.Segment) < req-geometry.Epsilon {
			out = append(out, existing)
		}
	}
	return out
}

// Check returns the non-exempt conflicts of a candidate segment, in reservation order.
func (m *OccupancyMap) Check(q Query) []Conflict {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Conflict
	for _, existing := range m.domains[q.DomainID] {
		if q.RouteID != "" && existing.RouteID == q.RouteID {
			continue
		}
		req := Required(q.Diameter, existing.Diameter, max(q.Clearance, existing.Clearance))
		dist := geometry.SegmentDistance(q.Segment, existing.Segment)
		if dist >= req-geometry.Epsilon {
			continue
		}
		t0, t1, ok := geometry.ConflictSpan(q.Segment, existing.Segment, req-geometry.Epsilon)
		if !ok {
			t0, t1 = 0, 1
		}
		c := Conflict{
			Existing: existing,
			Distance: dist,
			Required: req,
			Span:     q.Segment.SubSegment(t0, t1),
		}
		if m.exempted(q, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (m *OccupancyMap) exempted(q Query, c Conflict) bool {
	if q.Trade != "" && q.Trade == c.Existing.Trade && m.exempt.BundleTrades[q.Trade] {
		return true
	}
	if q.Join == nil || m.exempt.JoinRadius <= 0 || q.TargetID == "" || c.Existing.TargetID != q.TargetID {
		return false
	}
	r := m.exempt.JoinRadius
	return geometry.Euclidean(c.Span.A, *q.Join) <= r && geometry.Euclidean(c.Span.B, *q.Join) <= r
}

// Reserve adds one segment to the ledger.
func (m *OccupancyMap) Reserve(domainID string, seg geometry.Segment, meta RouteMeta) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.domains[domainID] = append(m.domains[domainID], occupied(seg, meta))
}

// Commit reserves every in-domain segment of a route under one lock.
func (m *OccupancyMap) Commit(route core.Route, clearance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commit(route, clearance, "")
}

// CommitIn reserves the route's segments in one domain only.
func (m *OccupancyMap) CommitIn(domainID string, route core.Route, clearance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commit(route, clearance, domainID)
}

func (m *OccupancyMap) commit(route core.Route, clearance float64, only string) {
	meta := RouteMeta{
		RouteID:     route.ID,
		ConnectorID: route.ConnectorID,
		TargetID:    route.TargetID,
		Trade:       route.SystemType,
		Diameter:    route.Diameter,
		Clearance:   clearance,
		Priority:    route.Priority,
	}
	for _, s := range route.Segments {
		if s.Transition || s.Local().Orientation() == geometry.Degenerate {
			continue
		}
		if only != "" && s.DomainID != only {
			continue
		}
		m.domains[s.DomainID] = append(m.domains[s.DomainID], occupied(s.Local(), meta))
	}
}

// Release removes every segment owned by the route and returns how many were removed.
func (m *OccupancyMap) Release(routeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, segs := range m.domains {
		kept := segs[:0]
		for _, s := range segs {
			if s.RouteID == routeID {
				removed++
				continue
			}
			kept = append(kept, s)
		}
		m.domains[id] = kept
	}
	return removed
}

// ReleaseIn removes the route's segments from one domain only.
func (m *OccupancyMap) ReleaseIn(domainID, routeID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	segs := m.domains[domainID]
	kept := segs[:0]
	removed := 0
	for _, s := range segs {
		if s.RouteID == routeID {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	m.domains[domainID] = kept
	return removed
}

// Segments returns a copy of the reservations in a domain.
func (m *OccupancyMap) Segments(domainID string) []OccupiedSegment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]OccupiedSegment(nil), m.domains[domainID]...)
}

// Domains returns the ids of domains holding reservations, sorted.
func (m *OccupancyMap) Domains() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.domains))
	for id, segs := range m.domains {
		if len(segs) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// RouteIDs returns the distinct owners of reservations, sorted.
func (m *OccupancyMap) RouteIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	for _, segs := range m.domains {
		for _, s := range segs {
			seen[s.RouteID] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the total number of reserved segments.
func (m *OccupancyMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, segs := range m.domains {
		n += len(segs)
	}
	return n
}

// Partition copies the reservations of the given domains into an independent ledger.
// Workers routing disjoint domain sets each own one partition.
func (m *OccupancyMap) Partition(domainIDs []string) *OccupancyMap {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := NewOccupancyMap(m.exempt)
	for _, id := range domainIDs {
		if segs, ok := m.domains[id]; ok {
			p.domains[id] = append([]OccupiedSegment(nil), segs...)
		} else {
			p.domains[id] = nil
		}
	}
	return p
}

// Merge replaces the ledger of every domain owned by the partition with the partition's contents.
func (m *OccupancyMap) Merge(p *OccupancyMap) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, segs := range p.domains {
		m.domains[id] = append([]OccupiedSegment(nil), segs...)
	}
}

// MergeAll merges several partitions, rejecting any two that own the same domain.
func (m *OccupancyMap) MergeAll(parts ...*OccupancyMap) error {
	owner := make(map[string]int)
	for i, p := range parts {
		p.mu.RLock()
		for id := range p.domains {
			if j, dup := owner[id]; dup {
				p.mu.RUnlock()
				return fmt.Errorf("spatial: partitions %d and %d both own domain %s", j, i, id)
			}
			owner[id] = i
		}
		p.mu.RUnlock()
	}
	for _, p := range parts {
		m.Merge(p)
	}
	return nil
}

func occupied(seg geometry.Segment, meta RouteMeta) OccupiedSegment {
	return OccupiedSegment{
		RouteID:     meta.RouteID,
		ConnectorID: meta.ConnectorID,
		TargetID:    meta.TargetID,
		Trade:       meta.Trade,
		Diameter:    meta.Diameter,
		Clearance:   meta.Clearance,
		Priority:    meta.Priority,
		Segment:     seg,
	}
}
