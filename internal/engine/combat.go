package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// towerAttacks runs building-driven combat for GuardTowers, Castles and
// TownCenters after agent actions resolve.
func (e *Env) towerAttacks() {
	for _, kind := range things.TowerKinds {
		info := things.BuildingFor(kind)
		for _, tower := range e.byKind[kind] {
			if !tower.Alive() || !tower.Pos.OnGrid() || tower.TeamID < 0 {
				continue
			}
			e.towerVolley(tower, info)
		}
	}
}

// towerVolley fires the tower's main shot plus one bonus arrow per
// garrisoned unit, distributed round-robin across all in-range enemies.
// Targets killed mid-volley are skipped. Tumors and spawners in range are
// queued for removal instead of being shot twice.
func (e *Env) towerVolley(tower *things.Thing, info things.BuildingInfo) {
	minR := int32(2) // Dead zone of one tile
	if e.murderHoles[tower.TeamID] {
		minR = 1
	}

	target := e.grid.NearestEnemyAgent(tower.Pos, tower.TeamID, minR, info.TowerRange)
	if target != nil {
		e.damageAgent(nil, target, info.TowerDamage)
	}

	if arrows := len(tower.Garrison); arrows > 0 {
		enemies := e.grid.CollectEnemyAgents(tower.Pos, tower.TeamID, minR, info.TowerRange)
		if len(enemies) > 0 {
			for i := 0; i < arrows; i++ {
				victim := enemies[i%len(enemies)]
				if !victim.Alive() {
					continue
				}
				e.damageAgent(nil, victim, 1)
			}
		}
	}

	// Queue hostile growths for the tumor phase.
	for _, k := range []things.Kind{things.KindTumor, things.KindSpawner} {
		for _, t := range e.grid.CollectKind(tower.Pos, k, info.TowerRange) {
			e.towerQueued[t.ID] = struct{}{}
		}
	}

	// Leave a brief tint on the tower tile as the firing effect.
	if tile := e.Tiles.At(tower.Pos); tile != nil && tile.Tint < 2 {
		tile.Tint = 2
	}
}

// garrisonUnit stows an agent inside a building, taking it off both grids
// and the spatial index.
func (e *Env) garrisonUnit(b *things.Thing, a *things.Thing) bool {
	info := things.BuildingFor(b.Kind)
	if info.GarrisonCap == 0 || len(b.Garrison) >= info.GarrisonCap {
		return false
	}
	if b.TeamID != a.TeamID || !a.Alive() {
		return false
	}
	e.grid.clear(a)
	a.Pos = world.OffGrid
	a.IsGarrisoned = true
	b.Garrison = append(b.Garrison, a)
	return true
}

// razeBuilding destroys a structure, releasing its garrison first; units
// with no tile to stand on die with the building.
func (e *Env) razeBuilding(b *things.Thing) {
	e.ungarrisonAll(b)
	for _, a := range b.Garrison {
		// Already off-grid, so the death sweep won't see them; finalize
		// here.
		a.IsGarrisoned = false
		a.HP = 0
		e.terminated[a.AgentID] = 1
		e.stats[a.AgentID].Deaths++
		e.rewards[a.AgentID] += e.cfg.Rewards.DeathPenalty
	}
	b.Garrison = nil
	e.removeThing(b)
}

// ungarrisonAll releases every garrisoned unit onto tiles around the
// building; units that cannot be placed stay garrisoned.
func (e *Env) ungarrisonAll(b *things.Thing) {
	var kept []*things.Thing
	for _, a := range b.Garrison {
		placed := false
		for _, d := range world.Deltas {
			p := b.Pos.Add(d)
			if e.isEmpty(p, a.TeamID) {
				a.Pos = p
				a.IsGarrisoned = false
				e.grid.place(a)
				placed = true
				break
			}
		}
		if !placed {
			kept = append(kept, a)
		}
	}
	b.Garrison = kept
}
