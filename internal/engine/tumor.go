package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// spawnerTumorRadius is the reach within which a spawner counts its
// uncommitted tumors.
const spawnerTumorRadius = 6

// tumorSpawning first clears growths queued by tower fire, then lets every
// cooled-down spawner push out a new tumor while its local, uncommitted
// count sits below the per-spawner cap.
func (e *Env) tumorSpawning() {
	e.flushTowerQueue()

	for _, sp := range snapshot(e.byKind[things.KindSpawner]) {
		if !sp.Pos.OnGrid() {
			continue
		}
		if sp.Cooldown > 0 {
			sp.Cooldown--
			continue
		}
		uncommitted := 0
		for _, tu := range e.byKind[things.KindTumor] {
			if tu.HomeSpawner == sp.Pos && !tu.HasClaimedTerritory &&
				tu.Pos.Chebyshev(sp.Pos) <= spawnerTumorRadius {
				uncommitted++
			}
		}
		if uncommitted >= e.cfg.TumorsPerSpawner {
			continue
		}
		for _, d := range world.Deltas {
			p := sp.Pos.Add(d)
			if !e.isEmpty(p, -1) {
				continue
			}
			tu := &things.Thing{
				Kind: things.KindTumor, Pos: p, TeamID: -1,
				HP: 1, MaxHP: 1,
				HomeAltar: world.OffGrid, HomeSpawner: sp.Pos,
			}
			e.addThing(tu)
			break
		}
		rate := e.cfg.TumorSpawnRate
		if rate <= 0 {
			rate = 1
		}
		sp.Cooldown = int16(float64(e.cfg.SpawnerCooldown) / rate)
	}
}

// flushTowerQueue removes tumors and spawners hit by tower fire this tick.
func (e *Env) flushTowerQueue() {
	if len(e.towerQueued) == 0 {
		return
	}
	for _, kind := range []things.Kind{things.KindTumor, things.KindSpawner} {
		for _, t := range snapshot(e.byKind[kind]) {
			if _, hit := e.towerQueued[t.ID]; hit {
				e.removeThing(t)
			}
		}
	}
	clear(e.towerQueued)
}

// tumorBranching ages every tumor and lets mobile (non-planted) tumors of
// sufficient age branch into an adjacent tile that touches no other tumor.
// Branching plants the parent: it claims its territory and goes inert.
func (e *Env) tumorBranching() {
	for _, tu := range snapshot(e.byKind[things.KindTumor]) {
		if !tu.Pos.OnGrid() {
			continue
		}
		tu.TurnsAlive++
		if tu.HasClaimedTerritory || tu.TurnsAlive < e.cfg.TumorMinBranchAge {
			continue
		}
		if !e.rng.Chance(e.cfg.TumorBranchChance) {
			continue
		}

		var candidates []world.Pos
		var dirs []world.Dir
		for di, d := range world.Deltas {
			p := tu.Pos.Add(d)
			if !e.isEmpty(p, -1) {
				continue
			}
			if e.touchesOtherTumor(p, tu) {
				continue
			}
			candidates = append(candidates, p)
			dirs = append(dirs, world.Dir(di))
		}
		if len(candidates) == 0 {
			continue
		}
		pick := e.rng.Intn(len(candidates))
		child := &things.Thing{
			Kind: things.KindTumor, Pos: candidates[pick], TeamID: -1,
			HP: 1, MaxHP: 1,
			HomeAltar: world.OffGrid, HomeSpawner: tu.HomeSpawner,
			Orientation: dirs[pick],
		}
		e.addThing(child)
		tu.Orientation = dirs[pick]
		tu.HasClaimedTerritory = true
	}
}

// touchesOtherTumor reports whether p is Chebyshev-adjacent to any tumor
// besides exclude.
func (e *Env) touchesOtherTumor(p world.Pos, exclude *things.Thing) bool {
	for _, tu := range e.byKind[things.KindTumor] {
		if tu == exclude || !tu.Pos.OnGrid() {
			continue
		}
		if tu.Pos.Chebyshev(p) <= 1 {
			return true
		}
	}
	return false
}

// tumorLethalAdjacency kills agents and predators standing on a cardinal
// neighbor of a tumor, each with the configured probability. A shield band
// on the victim blocks the death. The tumor is consumed by each lethal
// interaction.
func (e *Env) tumorLethalAdjacency() {
	for _, tu := range snapshot(e.byKind[things.KindTumor]) {
		if !tu.Pos.OnGrid() {
			continue
		}
		consumed := false
		for _, dir := range world.CardinalDirs {
			t := e.grid.Blocking(tu.Pos.Add(dir.Delta()))
			if t == nil {
				continue
			}
			switch {
			case t.Kind == things.KindAgent && t.Alive():
				if t.ShieldCountdown > 0 {
					continue
				}
				if e.rng.Chance(e.cfg.TumorAdjacencyDeathChance) {
					t.HP = 0
					consumed = true
				}
			case t.Kind.IsPredator() && t.Alive():
				if e.rng.Chance(e.cfg.TumorAdjacencyDeathChance) {
					e.removeThing(t)
					consumed = true
				}
			}
			if consumed {
				break
			}
		}
		if consumed {
			e.removeThing(tu)
		}
	}
}

// snapshot copies a bucket so phases may mutate it while iterating.
func snapshot(in []*things.Thing) []*things.Thing {
	out := make([]*things.Thing, len(in))
	copy(out, in)
	return out
}
