package engine

import (
	"github.com/talgya/tribal-village/internal/entropy"
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// spatialCell is the coarse index cell edge in tiles.
const spatialCell = 8

// Grid holds thing occupancy: one blocking layer, one overlay layer, and a
// coarse spatial index for range queries. Tile ground state lives in
// world.TileMap.
type Grid struct {
	W, H     int32
	blocking []*things.Thing
	overlay  []*things.Thing

	cellsW, cellsH int32
	cells          [][]*things.Thing
}

// NewGrid creates empty occupancy layers for a w×h map.
func NewGrid(w, h int32) *Grid {
	cw := (w + spatialCell - 1) / spatialCell
	ch := (h + spatialCell - 1) / spatialCell
	return &Grid{
		W:        w,
		H:        h,
		blocking: make([]*things.Thing, int(w)*int(h)),
		overlay:  make([]*things.Thing, int(w)*int(h)),
		cellsW:   cw,
		cellsH:   ch,
		cells:    make([][]*things.Thing, int(cw)*int(ch)),
	}
}

// InBounds reports whether p is on the grid.
func (g *Grid) InBounds(p world.Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.W && p.Y < g.H
}

func (g *Grid) idx(p world.Pos) int32 {
	return p.Y*g.W + p.X
}

func (g *Grid) cellIdx(p world.Pos) int32 {
	return (p.Y/spatialCell)*g.cellsW + p.X/spatialCell
}

// Blocking returns the blocking thing at p, or nil.
func (g *Grid) Blocking(p world.Pos) *things.Thing {
	if !g.InBounds(p) {
		return nil
	}
	return g.blocking[g.idx(p)]
}

// Overlay returns the overlay thing at p, or nil.
func (g *Grid) Overlay(p world.Pos) *things.Thing {
	if !g.InBounds(p) {
		return nil
	}
	return g.overlay[g.idx(p)]
}

// place registers t on its layer and the spatial index. The caller
// guarantees the cell is free on that layer.
func (g *Grid) place(t *things.Thing) {
	if !g.InBounds(t.Pos) {
		return
	}
	i := g.idx(t.Pos)
	if t.Kind.Overlay() {
		g.overlay[i] = t
	} else {
		g.blocking[i] = t
	}
	c := g.cellIdx(t.Pos)
	g.cells[c] = append(g.cells[c], t)
}

// clear removes t from its layer and the spatial index.
func (g *Grid) clear(t *things.Thing) {
	if !g.InBounds(t.Pos) {
		return
	}
	i := g.idx(t.Pos)
	if t.Kind.Overlay() {
		if g.overlay[i] == t {
			g.overlay[i] = nil
		}
	} else if g.blocking[i] == t {
		g.blocking[i] = nil
	}
	c := g.cellIdx(t.Pos)
	bucket := g.cells[c]
	for j, other := range bucket {
		if other == t {
			g.cells[c] = append(bucket[:j], bucket[j+1:]...)
			break
		}
	}
}

// Move relocates t to destination. The caller guarantees the destination
// is empty on t's layer or otherwise resolved.
func (g *Grid) Move(t *things.Thing, to world.Pos) {
	g.clear(t)
	t.Pos = to
	g.place(t)
}

// forRange calls fn for every indexed thing within Chebyshev distance
// [minR, maxR] of origin, in deterministic cell order. Returning false
// stops the walk.
func (g *Grid) forRange(origin world.Pos, minR, maxR int32, fn func(*things.Thing) bool) {
	x0 := (origin.X - maxR) / spatialCell
	y0 := (origin.Y - maxR) / spatialCell
	x1 := (origin.X + maxR) / spatialCell
	y1 := (origin.Y + maxR) / spatialCell
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 >= g.cellsW {
		x1 = g.cellsW - 1
	}
	if y1 >= g.cellsH {
		y1 = g.cellsH - 1
	}
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			for _, t := range g.cells[cy*g.cellsW+cx] {
				d := origin.Chebyshev(t.Pos)
				if d < minR || d > maxR {
					continue
				}
				if !fn(t) {
					return
				}
			}
		}
	}
}

// NearestEnemyAgent returns the closest live enemy agent within [minR,
// maxR] of origin, or nil. Ties resolve to the lowest agent id so volleys
// are reproducible.
func (g *Grid) NearestEnemyAgent(origin world.Pos, team int8, minR, maxR int32) *things.Thing {
	var best *things.Thing
	var bestD int32
	g.forRange(origin, minR, maxR, func(t *things.Thing) bool {
		if t.Kind != things.KindAgent || !t.Alive() || t.TeamID == team || t.TeamID < 0 {
			return true
		}
		d := origin.Chebyshev(t.Pos)
		if best == nil || d < bestD || (d == bestD && t.AgentID < best.AgentID) {
			best, bestD = t, d
		}
		return true
	})
	return best
}

// CollectEnemyAgents returns all live enemy agents within [minR, maxR],
// ordered by ascending agent id.
func (g *Grid) CollectEnemyAgents(origin world.Pos, team int8, minR, maxR int32) []*things.Thing {
	var out []*things.Thing
	g.forRange(origin, minR, maxR, func(t *things.Thing) bool {
		if t.Kind == things.KindAgent && t.Alive() && t.TeamID != team && t.TeamID >= 0 {
			out = append(out, t)
		}
		return true
	})
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].AgentID < out[j-1].AgentID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// CollectKind returns every thing of kind k within maxR of origin, ordered
// by ascending thing id.
func (g *Grid) CollectKind(origin world.Pos, k things.Kind, maxR int32) []*things.Thing {
	var out []*things.Thing
	g.forRange(origin, 0, maxR, func(t *things.Thing) bool {
		if t.Kind == k {
			out = append(out, t)
		}
		return true
	})
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ID < out[j-1].ID; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// NearestKind returns the closest thing of kind k within maxR, or nil.
// Ties resolve to the lowest thing id.
func (g *Grid) NearestKind(origin world.Pos, k things.Kind, maxR int32) *things.Thing {
	var best *things.Thing
	var bestD int32
	g.forRange(origin, 0, maxR, func(t *things.Thing) bool {
		if t.Kind != k {
			return true
		}
		d := origin.Chebyshev(t.Pos)
		if best == nil || d < bestD || (d == bestD && t.ID < best.ID) {
			best, bestD = t, d
		}
		return true
	})
	return best
}

// FindNearestSpiral walks expanding Chebyshev rings around origin and
// returns the first ring's matches resolved by a deterministic jitter from
// rng. Returns OffGrid when no tile matches within maxR.
func (g *Grid) FindNearestSpiral(origin world.Pos, maxR int32, rng *entropy.Stream, pred func(world.Pos) bool) world.Pos {
	if pred(origin) {
		return origin
	}
	var ring []world.Pos
	for r := int32(1); r <= maxR; r++ {
		ring = ring[:0]
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if maxAbs32(dx, dy) != r {
					continue
				}
				p := world.Pos{X: origin.X + dx, Y: origin.Y + dy}
				if g.InBounds(p) && pred(p) {
					ring = append(ring, p)
				}
			}
		}
		if len(ring) > 0 {
			return ring[rng.Intn(len(ring))]
		}
	}
	return world.OffGrid
}

func maxAbs32(a, b int32) int32 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}
