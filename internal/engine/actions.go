package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// execute runs one decoded action for one agent. Rejected preconditions
// count as invalid and consume no further work.
func (e *Env) execute(a *things.Thing, verb Verb, arg uint8) {
	ok := false
	switch verb {
	case VerbNoop:
		ok = true
	case VerbMove:
		ok = e.actMove(a, arg)
	case VerbAttack:
		ok = e.actAttack(a, arg)
	case VerbUse:
		ok = e.actUse(a, arg)
	case VerbSwap:
		ok = e.actSwap(a, arg)
	case VerbPut:
		ok = e.actPut(a, arg)
	case VerbPlantLantern:
		ok = e.actPlantLantern(a, arg)
	case VerbPlantResource:
		ok = e.actPlantResource(a, arg)
	case VerbBuild:
		ok = e.actBuild(a, arg)
	case VerbOrient:
		ok = e.actOrient(a, arg)
	default:
		ok = false
	}
	if ok {
		e.stats[a.AgentID].Succeeded[verb]++
	} else {
		e.stats[a.AgentID].Invalid++
	}
}

// reward credits the acting agent.
func (e *Env) reward(a *things.Thing, r float32) {
	e.rewards[a.AgentID] += r
}

// harvestReward maps a gathered item to its shaped reward weight.
func (e *Env) harvestReward(a *things.Thing, it things.Item) {
	rw := &e.cfg.Rewards
	switch it {
	case things.ItemGold:
		e.reward(a, rw.Ore)
	case things.ItemWood:
		e.reward(a, rw.Wood)
	case things.ItemWheat:
		e.reward(a, rw.Wheat)
	case things.ItemWater:
		e.reward(a, rw.Water)
	case things.ItemFood, things.ItemMeat, things.ItemFish:
		e.reward(a, rw.Food)
	}
}

// ── Verb 1: Move ─────────────────────────────────────────────────────────

func (e *Env) actMove(a *things.Thing, arg uint8) bool {
	if arg >= uint8(world.NumDirs) {
		return false
	}
	dir := world.Dir(arg)
	a.Orientation = dir

	if !e.tryStep(a, dir) {
		return false
	}
	// Roads and cavalry classes grant a second free step in the same
	// direction if legal.
	onRoad := false
	if tile := e.Tiles.At(a.Pos); tile != nil && tile.Terrain == world.TerrainRoad {
		onRoad = true
	}
	if onRoad || things.StatsFor(a.Class).Cavalry {
		e.tryStep(a, dir) // Best effort; failure keeps the first step
	}
	return true
}

// tryStep attempts one tile of movement, applying the collision policies:
// friendly swap, harvest-in-place, lantern push, embark/disembark.
func (e *Env) tryStep(a *things.Thing, dir world.Dir) bool {
	from := a.Pos
	to := from.Add(dir.Delta())
	tile := e.Tiles.At(to)
	if tile == nil {
		return false
	}

	// Elevation delta of more than one step is unclimbable.
	if fromTile := e.Tiles.At(from); fromTile != nil {
		d := int(tile.Elevation) - int(fromTile.Elevation)
		if d > 1 || d < -1 {
			return false
		}
	}

	if tile.HasDoor() && tile.DoorTeam != a.TeamID {
		return false
	}

	// Terrain legality per unit class, with embark/disembark at docks.
	if a.Class == things.ClassBoat {
		if !tile.Terrain.IsWater() && tile.Terrain != world.TerrainBridge {
			return false
		}
	} else if tile.Terrain.IsWater() {
		// Embarking requires stepping off a Bridge tile, which serves as the dock.
		fromTile := e.Tiles.At(from)
		if fromTile == nil || fromTile.Terrain != world.TerrainBridge {
			return false
		}
	} else if tile.Terrain.BlocksWalk() {
		// Harvestable trees are the exception: stepping into one harvests
		// in place.
		if tile.Terrain == world.TerrainTree || tile.Terrain == world.TerrainPalm {
			return e.harvestTerrain(a, to)
		}
		return false
	}

	if occ := e.grid.Blocking(to); occ != nil {
		switch {
		case occ.Kind == things.KindAgent && occ.TeamID == a.TeamID && occ.Frozen == 0:
			// Friendly, non-frozen agent: swap positions.
			e.swapAgents(a, occ)
			return true
		case occ.Kind == things.KindTreeNode:
			e.harvestNode(a, occ)
			return true
		default:
			return false
		}
	}

	// Lantern overlay gets pushed ahead of the mover.
	if ov := e.grid.Overlay(to); ov != nil && ov.Kind == things.KindLantern {
		if !e.pushLantern(ov, dir) {
			return false
		}
	}

	e.grid.Move(a, to)
	e.applyClassShift(a)
	return true
}

// applyClassShift handles boat embark/disembark after a completed step.
func (e *Env) applyClassShift(a *things.Thing) {
	tile := e.Tiles.At(a.Pos)
	if tile == nil {
		return
	}
	if a.Class == things.ClassBoat && !tile.Terrain.IsWater() {
		a.Class = things.ClassVillager
		a.AttackDamage = things.StatsFor(a.Class).AttackDamage
	} else if a.Class != things.ClassBoat && tile.Terrain.IsWater() {
		a.Class = things.ClassBoat
		a.AttackDamage = things.StatsFor(a.Class).AttackDamage
	}
}

// swapAgents exchanges two agents' grid cells atomically.
func (e *Env) swapAgents(a, b *things.Thing) {
	pa, pb := a.Pos, b.Pos
	e.grid.clear(a)
	e.grid.clear(b)
	a.Pos, b.Pos = pb, pa
	e.grid.place(a)
	e.grid.place(b)
}

// pushLantern relocates a lantern one or two tiles along dir, or failing
// that into any adjacent legal tile, keeping lanterns at least three tiles
// apart (Chebyshev).
func (e *Env) pushLantern(l *things.Thing, dir world.Dir) bool {
	d := dir.Delta()
	candidates := []world.Pos{
		l.Pos.Add(d),
		{X: l.Pos.X + 2*d.DX, Y: l.Pos.Y + 2*d.DY},
	}
	for _, dd := range world.Deltas {
		candidates = append(candidates, l.Pos.Add(dd))
	}
	for _, p := range candidates {
		if e.lanternLegal(l, p) {
			e.grid.Move(l, p)
			return true
		}
	}
	return false
}

// lanternLegal reports whether a lantern may sit at p, ignoring l itself
// in the spacing check.
func (e *Env) lanternLegal(l *things.Thing, p world.Pos) bool {
	tile := e.Tiles.At(p)
	if tile == nil || tile.Terrain.BlocksWalk() || tile.Terrain.IsWater() {
		return false
	}
	if e.grid.Overlay(p) != nil {
		return false
	}
	for _, other := range e.byKind[things.KindLantern] {
		if other == l || !other.Pos.OnGrid() {
			continue
		}
		if other.Pos.Chebyshev(p) < 3 {
			return false
		}
	}
	return true
}

// ── Verb 4: Swap ─────────────────────────────────────────────────────────

func (e *Env) actSwap(a *things.Thing, arg uint8) bool {
	if arg >= uint8(world.NumDirs) {
		return false
	}
	target := a.Pos.Add(world.Dir(arg).Delta())
	occ := e.grid.Blocking(target)
	if occ == nil || occ.Kind != things.KindAgent || occ.TeamID != a.TeamID ||
		occ.Frozen > 0 || !occ.Alive() {
		return false
	}
	e.swapAgents(a, occ)
	return true
}

// ── Verb 5: Put ──────────────────────────────────────────────────────────

// actPut hands one item to an adjacent teammate; Armor first, then Bread,
// then the largest inventory stack that fits.
func (e *Env) actPut(a *things.Thing, arg uint8) bool {
	if arg >= uint8(world.NumDirs) {
		return false
	}
	target := a.Pos.Add(world.Dir(arg).Delta())
	occ := e.grid.Blocking(target)
	if occ == nil || occ.Kind != things.KindAgent || occ.TeamID != a.TeamID || !occ.Alive() {
		return false
	}

	give := func(it things.Item) bool {
		if a.Inventory.Count(it) == 0 {
			return false
		}
		if occ.Inventory.Add(it, 1) == 0 {
			return false
		}
		a.Inventory.Remove(it, 1)
		return true
	}

	if give(things.ItemArmor) || give(things.ItemBread) {
		return true
	}
	best := things.NumItems
	var bestCount int16
	for it := things.Item(0); it < things.NumItems; it++ {
		if n := a.Inventory.Count(it); n > bestCount && occ.Inventory.Count(it) < things.CarryCapPerItem {
			best, bestCount = it, n
		}
	}
	if best == things.NumItems {
		return false
	}
	return give(best)
}

// ── Verb 6: Plant-Lantern ────────────────────────────────────────────────

func (e *Env) actPlantLantern(a *things.Thing, arg uint8) bool {
	if arg >= uint8(world.NumDirs) {
		return false
	}
	if a.Inventory.Count(things.ItemLantern) == 0 {
		return false
	}
	target := a.Pos.Add(world.Dir(arg).Delta())
	tile := e.Tiles.At(target)
	if tile == nil || tile.Terrain.BlocksWalk() || tile.Terrain.IsWater() {
		return false
	}
	if e.grid.Overlay(target) != nil {
		return false
	}
	a.Inventory.Remove(things.ItemLantern, 1)
	e.addThing(&things.Thing{
		Kind: things.KindLantern, Pos: target, TeamID: a.TeamID,
		HP: 1, MaxHP: 1,
		HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
	})
	return true
}

// ── Verb 7: Plant-Resource ───────────────────────────────────────────────

// actPlantResource seeds Wheat or Tree on a Fertile tile. The argument's
// low three bits are the direction, the high bit selects Tree.
func (e *Env) actPlantResource(a *things.Thing, arg uint8) bool {
	dir := world.Dir(arg & 7)
	plantTree := arg >= 8

	var cost things.Item
	var kind things.Kind
	var yield int16
	if plantTree {
		cost, kind, yield = things.ItemWood, things.KindTreeNode, 5
	} else {
		cost, kind, yield = things.ItemWheat, things.KindWheatNode, 3
	}
	if a.Inventory.Count(cost) == 0 {
		return false
	}

	target := a.Pos.Add(dir.Delta())
	tile := e.Tiles.At(target)
	if tile == nil || tile.Terrain != world.TerrainFertile {
		return false
	}
	if e.grid.Blocking(target) != nil {
		return false
	}

	a.Inventory.Remove(cost, 1)
	e.Tiles.SetTerrain(target, world.TerrainEmpty)
	e.SpawnNode(kind, target, yield)
	return true
}

// ── Verb 9: Orient ───────────────────────────────────────────────────────

func (e *Env) actOrient(a *things.Thing, arg uint8) bool {
	if arg >= uint8(world.NumDirs) {
		return false
	}
	a.Orientation = world.Dir(arg)
	return true
}
