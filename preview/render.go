package preview

import (
	"fmt"
	"math"
	"sort"

	"riserroute/core"
	"riserroute/geometry"
	"riserroute/spatial"
)

// Glyphs used for non-route cells.
const (
	RuneBlocked    = '#'
	RunePenetrable = '+'
	RuneConnector  = 'o'
	RuneTarget     = '@'
)

var tradeGlyphs = map[core.SystemType]rune{
	core.SanitaryDrain: 'S',
	core.StormDrain:    'T',
	core.Vent:          'V',
	core.DomesticHot:   'H',
	core.DomesticCold:  'C',
	core.FireSprinkler: 'F',
	core.HVACSupply:    'A',
	core.HVACReturn:    'R',
	core.Power:         'P',
	core.Lighting:      'L',
	core.Data:          'D',
}

// Glyph returns the letter a route of the given trade is drawn with.
func Glyph(sys core.SystemType) rune {
	if r, ok := tradeGlyphs[sys]; ok {
		return r
	}
	return '*'
}

// Options controls rasterization.
type Options struct {
	// CellsPerUnit is the number of character cells per domain length unit. Defaults to 1.
	CellsPerUnit float64
}

// Scene is everything drawn for a set of domains.
type Scene struct {
	Domains    []*spatial.RoutingDomain
	Routes     []core.Route
	Connectors []core.ConnectorInfo
	Targets    []core.RoutingTarget
}

// Page is one rendered domain.
type Page struct {
	DomainID string
	Title    string
	Matrix   *Matrix
}

type raster struct {
	d      *spatial.RoutingDomain
	k      float64
	height int
}

func (r raster) cell(p geometry.Point) (int, int) {
	x := int(math.Round((p[0] - r.d.Bounds.Min[0]) * r.k))
	y := int(math.Round((p[1] - r.d.Bounds.Min[1]) * r.k))
	return x, r.height - 1 - y
}

// Render draws one domain with the routes, connectors and targets that lie in it.
func Render(d *spatial.RoutingDomain, s Scene, opts Options) *Matrix {
	k := opts.CellsPerUnit
	if k <= 0 {
		k = 1
	}
	w := int(math.Round((d.Bounds.Max[0]-d.Bounds.Min[0])*k)) + 1
	h := int(math.Round((d.Bounds.Max[1]-d.Bounds.Min[1])*k)) + 1
	m := NewMatrix(w, h)
	if m == nil {
		return nil
	}
	r := raster{d: d, k: k, height: h}

	for _, o := range d.Obstacles {
		glyph := RuneBlocked
		if o.Penetrable {
			glyph = RunePenetrable
		}
		x1, y1 := r.cell(o.Bounds.Min)
		x2, y2 := r.cell(o.Bounds.Max)
		for y := y2; y <= y1; y++ {
			for x := x1; x <= x2; x++ {
				m.setClipped(x, y, Cell{Rune: glyph})
			}
		}
	}

	for _, route := range s.Routes {
		c := Cell{Rune: Glyph(route.SystemType), Trade: route.SystemType}
		for _, seg := range route.Segments {
			if seg.Transition || seg.DomainID != d.ID {
				continue
			}
			x1, y1 := r.cell(seg.Start)
			x2, y2 := r.cell(seg.End)
			m.DrawLine(x1, y1, x2, y2, c)
		}
	}

	for _, c := range s.Connectors {
		if c.DomainID == d.ID {
			x, y := r.cell(c.Position)
			m.setClipped(x, y, Cell{Rune: RuneConnector, Trade: c.SystemType})
		}
	}
	for _, t := range s.Targets {
		if t.DomainID == d.ID {
			x, y := r.cell(t.Position)
			m.setClipped(x, y, Cell{Rune: RuneTarget})
		}
	}
	return m
}

// Pages renders every domain of the scene, ordered by level then id.
func Pages(s Scene, opts Options) []Page {
	domains := append([]*spatial.RoutingDomain(nil), s.Domains...)
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Level != domains[j].Level {
			return domains[i].Level < domains[j].Level
		}
		return domains[i].ID < domains[j].ID
	})

	pages := make([]Page, 0, len(domains))
	for _, d := range domains {
		m := Render(d, s, opts)
		if m == nil {
			continue
		}
		pages = append(pages, Page{
			DomainID: d.ID,
			Title:    fmt.Sprintf("%s (%s, level %d)", d.ID, d.Kind, d.Level),
			Matrix:   m,
		})
	}
	return pages
}
