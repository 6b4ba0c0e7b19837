package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// actBuild resolves Verb 8: look up the build catalog, charge the team
// stockpile, and place the structure (or pave a road) on the first legal
// adjacent tile.
func (e *Env) actBuild(a *things.Thing, arg uint8) bool {
	if int(arg) >= len(things.BuildChoices) {
		return false
	}
	kind := things.BuildChoices[arg]

	var cost things.CostVector
	if kind == things.KindNone {
		cost = things.RoadCost
	} else {
		cost = things.BuildingFor(kind).Cost
	}
	if !e.canAfford(a.TeamID, cost) {
		return false
	}

	site := e.buildSite(a, kind)
	if !site.OnGrid() {
		return false
	}

	e.spend(a.TeamID, cost)
	if kind == things.KindNone {
		e.Tiles.SetTerrain(site, world.TerrainRoad)
		return true
	}

	b := e.SpawnBuilding(kind, a.TeamID, site)
	e.paveRoadTo(b)
	return true
}

// buildSite scans orientation-forward, then the four cardinals, then the
// four diagonals, returning the first legal placement tile.
func (e *Env) buildSite(a *things.Thing, kind things.Kind) world.Pos {
	scan := make([]world.Dir, 0, 9)
	scan = append(scan, a.Orientation)
	scan = append(scan, world.CardinalDirs[:]...)
	scan = append(scan, world.DirNW, world.DirNE, world.DirSW, world.DirSE)

	for _, dir := range scan {
		p := a.Pos.Add(dir.Delta())
		if e.buildLegal(p, kind) {
			return p
		}
	}
	return world.OffGrid
}

// buildLegal reports whether a structure (or road) may occupy p.
func (e *Env) buildLegal(p world.Pos, kind things.Kind) bool {
	tile := e.Tiles.At(p)
	if tile == nil || tile.Frozen {
		return false
	}
	if tile.Terrain.BlocksWalk() || tile.Terrain.IsWater() {
		// Docks are the exception: they sit on shallow water.
		if !(kind == things.KindDock && tile.Terrain == world.TerrainShallowWater) {
			return false
		}
	}
	if tile.HasDoor() {
		return false
	}
	if kind == things.KindNone {
		// Roads only re-pave bare ground.
		return e.grid.Blocking(p) == nil && tile.Terrain != world.TerrainRoad
	}
	return e.grid.Blocking(p) == nil && e.grid.Overlay(p) == nil
}

// paveRoadTo lays an L-shaped road from a new building toward the nearest
// friendly TownCenter or Altar: first along X, then along Y. Only bare
// ground is re-paved.
func (e *Env) paveRoadTo(b *things.Thing) {
	var anchor *things.Thing
	var anchorD int32
	consider := func(t *things.Thing) {
		if t == b || t.TeamID != b.TeamID || !t.Pos.OnGrid() {
			return
		}
		d := b.Pos.Chebyshev(t.Pos)
		if anchor == nil || d < anchorD || (d == anchorD && t.ID < anchor.ID) {
			anchor, anchorD = t, d
		}
	}
	for _, t := range e.byKind[things.KindTownCenter] {
		consider(t)
	}
	for _, t := range e.byKind[things.KindAltar] {
		consider(t)
	}
	if anchor == nil {
		return
	}

	pave := func(p world.Pos) {
		tile := e.Tiles.At(p)
		if tile == nil || tile.Terrain.BlocksWalk() || tile.Terrain.IsWater() {
			return
		}
		if tile.Terrain == world.TerrainRoad || e.grid.Blocking(p) != nil {
			return
		}
		e.Tiles.SetTerrain(p, world.TerrainRoad)
	}

	p := b.Pos
	for p.X != anchor.Pos.X {
		if p.X < anchor.Pos.X {
			p.X++
		} else {
			p.X--
		}
		pave(p)
	}
	for p.Y != anchor.Pos.Y {
		if p.Y < anchor.Pos.Y {
			p.Y++
		} else {
			p.Y--
		}
		pave(p)
	}
}
