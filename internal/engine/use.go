package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// agentGain adds items to an agent under both the per-item cap and the
// shared stockpile-load cap. Returns how many were added.
func (e *Env) agentGain(a *things.Thing, it things.Item, n int16) int16 {
	if it.IsStockpile() {
		room := int16(things.AgentStockpileCap) - a.Inventory.StockpileLoad()
		if room <= 0 {
			return 0
		}
		if n > room {
			n = room
		}
	}
	return a.Inventory.Add(it, n)
}

// terrainItem maps harvestable terrain to the item it yields.
func terrainItem(t world.Terrain) things.Item {
	switch t {
	case world.TerrainWheat:
		return things.ItemWheat
	case world.TerrainTree, world.TerrainPalm:
		return things.ItemWood
	case world.TerrainStone, world.TerrainStalagmite:
		return things.ItemStone
	case world.TerrainGold:
		return things.ItemGold
	case world.TerrainBush, world.TerrainCactus:
		return things.ItemFood
	}
	return things.ItemFood
}

// harvestTerrain takes one unit from a resource tile, degrading it to its
// exhausted form (plus marker) when the yield runs out.
func (e *Env) harvestTerrain(a *things.Thing, p world.Pos) bool {
	tile := e.Tiles.At(p)
	if tile == nil || tile.Frozen || !tile.Terrain.IsResource() || tile.Yield == 0 {
		return false
	}
	it := terrainItem(tile.Terrain)
	if e.agentGain(a, it, 1) == 0 {
		return false
	}
	e.harvestReward(a, it)
	tile.Yield--
	if tile.Yield == 0 {
		old := tile.Terrain
		e.Tiles.SetTerrain(p, old.Exhausted())
		e.spawnHarvestMarker(old, p)
	}
	return true
}

// spawnHarvestMarker leaves Stump/Stubble behind an exhausted tile when
// the cell is free.
func (e *Env) spawnHarvestMarker(old world.Terrain, p world.Pos) {
	var kind things.Kind
	var residue things.Item
	switch old {
	case world.TerrainTree, world.TerrainPalm:
		kind, residue = things.KindStump, things.ItemBranch
	case world.TerrainWheat:
		kind, residue = things.KindStubble, things.ItemSeeds
	default:
		return
	}
	if e.grid.Blocking(p) != nil {
		return
	}
	m := &things.Thing{
		Kind: kind, Pos: p, TeamID: -1, HP: 1, MaxHP: 1,
		HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
	}
	m.Inventory[residue] = 1
	e.addThing(m)
}

// harvestNode takes one unit from a resource-node thing, removing it (and
// leaving its marker) when its internal yield is exhausted.
func (e *Env) harvestNode(a *things.Thing, node *things.Thing) bool {
	it := node.Kind.NodeItem()
	if node.Inventory.Count(it) == 0 {
		return false
	}
	if e.agentGain(a, it, 1) == 0 {
		return false
	}
	node.Inventory.Remove(it, 1)
	e.harvestReward(a, it)
	if node.Inventory.Count(it) == 0 {
		marker := node.Kind.ExhaustedMarker()
		pos := node.Pos
		e.removeThing(node)
		if marker != things.KindNone {
			m := &things.Thing{
				Kind: marker, Pos: pos, TeamID: -1, HP: 1, MaxHP: 1,
				HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
			}
			if marker == things.KindStump {
				m.Inventory[things.ItemBranch] = 1
			} else if marker == things.KindStubble {
				m.Inventory[things.ItemSeeds] = 1
			}
			e.addThing(m)
		}
	}
	return true
}

// ── Verb 3: Use ──────────────────────────────────────────────────────────

func (e *Env) actUse(a *things.Thing, arg uint8) bool {
	if arg >= uint8(world.NumDirs) {
		return false
	}
	dir := world.Dir(arg)
	a.Orientation = dir
	target := a.Pos.Add(dir.Delta())
	tile := e.Tiles.At(target)
	if tile == nil || tile.Frozen {
		return false
	}

	if t := e.grid.Blocking(target); t != nil {
		return e.useThing(a, t)
	}
	if ov := e.grid.Overlay(target); ov != nil {
		if ov.Kind == things.KindLantern {
			// Reclaim the lantern as a carried item.
			if a.Inventory.Count(things.ItemLantern) > 0 {
				return false
			}
			a.Inventory.Add(things.ItemLantern, 1)
			e.removeThing(ov)
			return true
		}
		return e.pickup(a, ov)
	}
	return e.useTerrain(a, target, tile)
}

// useTerrain applies the no-thing effects: drink, harvest, pour water,
// drop relic, eat bread.
func (e *Env) useTerrain(a *things.Thing, p world.Pos, tile *world.Tile) bool {
	if tile.Terrain.IsWater() {
		if e.agentGain(a, things.ItemWater, 1) == 0 {
			return false
		}
		e.harvestReward(a, things.ItemWater)
		return true
	}
	if tile.Terrain.IsResource() {
		return e.harvestTerrain(a, p)
	}
	if a.Inventory.Count(things.ItemWater) > 0 && tile.Terrain.Fertilizable() {
		a.Inventory.Remove(things.ItemWater, 1)
		e.Tiles.SetTerrain(p, world.TerrainFertile)
		return true
	}
	if a.Class == things.ClassMonk && a.Inventory.Count(things.ItemRelic) > 0 {
		if e.grid.Overlay(p) == nil {
			a.Inventory.Remove(things.ItemRelic, 1)
			relic := &things.Thing{
				Kind: things.KindRelic, Pos: p, TeamID: a.TeamID,
				HP: 1, MaxHP: 1,
				HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
			}
			relic.Inventory[things.ItemRelic] = 1
			e.addThing(relic)
			return true
		}
	}
	if a.Inventory.Count(things.ItemBread) > 0 {
		a.Inventory.Remove(things.ItemBread, 1)
		e.healBurst(a)
		return true
	}
	return false
}

// healBurst heals the eater and adjacent allies.
func (e *Env) healBurst(a *things.Thing) {
	heal := func(t *things.Thing) {
		t.HP += 3
		if t.HP > t.MaxHP {
			t.HP = t.MaxHP
		}
	}
	heal(a)
	for _, d := range world.Deltas {
		t := e.grid.Blocking(a.Pos.Add(d))
		if t != nil && t.Kind == things.KindAgent && t.TeamID == a.TeamID && t.Alive() {
			heal(t)
		}
	}
}

// useThing dispatches Use on an occupied tile.
func (e *Env) useThing(a *things.Thing, t *things.Thing) bool {
	if t.Kind.IsResourceNode() {
		return e.harvestNode(a, t)
	}
	if t.Kind.IsBuilding() {
		return e.useBuilding(a, t)
	}
	if t.Kind.IsMarker() {
		return e.pickup(a, t)
	}
	return false
}

// pickup moves a non-building thing's whole inventory onto the agent
// (subject to caps) and destroys the thing once empty.
func (e *Env) pickup(a *things.Thing, t *things.Thing) bool {
	moved := false
	for it := things.Item(0); it < things.NumItems; it++ {
		n := t.Inventory.Count(it)
		if n == 0 {
			continue
		}
		got := e.agentGain(a, it, n)
		if got > 0 {
			t.Inventory.Remove(it, got)
			e.harvestReward(a, it)
			moved = true
		}
	}
	if moved && t.Inventory.IsEmpty() {
		e.removeThing(t)
	}
	return moved
}

// marketTrade is one fixed-ratio conversion offered by a Market.
type marketTrade struct {
	give  things.Item
	giveN int32
	get   things.Item
	getN  int32
}

// marketTrades is consulted in order; the first affordable trade executes.
var marketTrades = []marketTrade{
	{things.ItemWood, 3, things.ItemGold, 1},
	{things.ItemFood, 2, things.ItemGold, 1},
	{things.ItemStone, 3, things.ItemGold, 1},
	{things.ItemGold, 1, things.ItemFood, 3},
}

// useBuilding dispatches on the building's registered use semantics.
func (e *Env) useBuilding(a *things.Thing, b *things.Thing) bool {
	info := things.BuildingFor(b.Kind)
	switch info.Use {
	case things.UseAltar:
		if b.TeamID != a.TeamID || b.Cooldown > 0 {
			return false
		}
		if a.Inventory.Remove(things.ItemBar, 1) == 0 {
			return false
		}
		b.Hearts++
		b.Cooldown = e.cfg.AltarCooldown
		e.reward(a, e.cfg.Rewards.Heart)
		return true

	case things.UseClayOven:
		if b.TeamID != a.TeamID || b.Cooldown > 0 {
			return false
		}
		if a.Inventory.Count(things.ItemWheat) == 0 {
			return false
		}
		if e.agentGain(a, things.ItemBread, 1) == 0 {
			return false
		}
		a.Inventory.Remove(things.ItemWheat, 1)
		b.Cooldown = e.cfg.OvenCooldown
		return true

	case things.UseWeavingLoom:
		if b.TeamID != a.TeamID || a.Inventory.Count(things.ItemLantern) > 0 {
			return false
		}
		if a.Inventory.Remove(things.ItemWheat, 1) == 0 &&
			a.Inventory.Remove(things.ItemWood, 1) == 0 {
			return false
		}
		a.Inventory.Add(things.ItemLantern, 1)
		e.reward(a, e.cfg.Rewards.Cloth)
		return true

	case things.UseBlacksmith, things.UseCraft:
		return e.craftAtStation(a, b)

	case things.UseMarket:
		if b.TeamID != a.TeamID || b.Cooldown > 0 {
			return false
		}
		for _, tr := range marketTrades {
			if e.stockpiles[a.TeamID][tr.give] < tr.giveN {
				continue
			}
			e.stockpiles[a.TeamID][tr.give] -= tr.giveN
			e.depositStockpile(a.TeamID, tr.get, tr.getN)
			b.Cooldown = e.cfg.MarketCooldown
			return true
		}
		return false

	case things.UseDropoff:
		// Granaries accept food only.
		return e.dropoff(a, b, []things.Item{things.ItemFood})

	case things.UseDropoffAndStorage, things.UseStorage:
		all := []things.Item{
			things.ItemFood, things.ItemWood, things.ItemStone,
			things.ItemGold, things.ItemWater,
		}
		if e.dropoff(a, b, all) {
			return true
		}
		// Storage is bidirectional: with nothing to deposit, withdraw food.
		if info.Use != things.UseDropoff && b.TeamID == a.TeamID &&
			e.stockpiles[a.TeamID][things.ItemFood] > 0 {
			if e.agentGain(a, things.ItemFood, 1) > 0 {
				e.stockpiles[a.TeamID][things.ItemFood]--
				return true
			}
		}
		return false

	case things.UseTrain, things.UseTrainAndCraft:
		if e.trainUnit(a, b, info) {
			return true
		}
		if info.Use == things.UseTrainAndCraft {
			return e.craftAtStation(a, b)
		}
		return false

	case things.UseMagma:
		if b.Cooldown > 0 {
			return false
		}
		if a.Inventory.Remove(things.ItemGold, 1) == 0 {
			return false
		}
		a.Inventory.Add(things.ItemBar, 1)
		b.Cooldown = e.cfg.MagmaCooldown
		e.reward(a, e.cfg.Rewards.Bar)
		return true

	case things.UseTemple:
		// Reproduction is resolved in the world tick; touching the temple
		// is a valid interaction with no immediate effect.
		return b.TeamID == a.TeamID

	case things.UseNone:
		// Garrisonable towers take the user in; a full garrison empties
		// out instead.
		if things.BuildingFor(b.Kind).GarrisonCap > 0 && b.TeamID == a.TeamID {
			if len(b.Garrison) >= things.BuildingFor(b.Kind).GarrisonCap {
				e.ungarrisonAll(b)
				return true
			}
			return e.garrisonUnit(b, a)
		}
		return false
	}
	return false
}

// craftRecipe is one station recipe: up to two item costs for one output.
type craftRecipe struct {
	out      things.Item
	in1      things.Item
	n1       int16
	in2      things.Item
	n2       int16
}

// craftRecipes are consulted in order at blacksmith-style stations.
var craftRecipes = []craftRecipe{
	{out: things.ItemSpear, in1: things.ItemBar, n1: 1, in2: things.ItemWood, n2: 1},
	{out: things.ItemArmor, in1: things.ItemBar, n1: 2},
}

func (e *Env) craftAtStation(a *things.Thing, b *things.Thing) bool {
	if b.TeamID != a.TeamID || b.Cooldown > 0 {
		return false
	}
	for _, rec := range craftRecipes {
		if a.Inventory.Count(rec.in1) < rec.n1 {
			continue
		}
		if rec.n2 > 0 && a.Inventory.Count(rec.in2) < rec.n2 {
			continue
		}
		if e.agentGain(a, rec.out, 1) == 0 {
			return false
		}
		a.Inventory.Remove(rec.in1, rec.n1)
		if rec.n2 > 0 {
			a.Inventory.Remove(rec.in2, rec.n2)
		}
		b.Cooldown = e.cfg.OvenCooldown
		switch rec.out {
		case things.ItemSpear:
			e.reward(a, e.cfg.Rewards.Spear)
		case things.ItemArmor:
			e.reward(a, e.cfg.Rewards.Armor)
		}
		return true
	}
	return false
}

// dropoff deposits the agent's carried stockpile items (restricted to the
// building's accepted set) into the team pool.
func (e *Env) dropoff(a *things.Thing, b *things.Thing, accepted []things.Item) bool {
	if b.TeamID != a.TeamID {
		return false
	}
	deposited := false
	for _, it := range accepted {
		n := int32(a.Inventory.Count(it))
		if n == 0 {
			continue
		}
		took := e.depositStockpile(a.TeamID, it, n)
		if took > 0 {
			a.Inventory.Remove(it, int16(took))
			deposited = true
		}
	}
	return deposited
}

// trainUnit produces a new unit of the building's declared class in a
// dormant agent slot, charged against the team stockpile and pop cap.
func (e *Env) trainUnit(a *things.Thing, b *things.Thing, info things.BuildingInfo) bool {
	if b.TeamID != a.TeamID || b.Cooldown > 0 {
		return false
	}
	if !e.canAfford(a.TeamID, info.TrainCost) {
		return false
	}
	if e.teamPopulation(a.TeamID) >= e.teamPopCap(a.TeamID) {
		return false
	}
	slot := e.dormantSlot(a.TeamID)
	if slot < 0 {
		return false
	}
	spawnAt := world.OffGrid
	for _, d := range world.Deltas {
		p := b.Pos.Add(d)
		if e.isEmpty(p, a.TeamID) {
			spawnAt = p
			break
		}
	}
	if !spawnAt.OnGrid() {
		return false
	}
	e.spend(a.TeamID, info.TrainCost)
	e.reviveSlot(slot, a.TeamID, info.TrainClass, spawnAt)
	b.Cooldown = e.cfg.OvenCooldown
	return true
}

// dormantSlot returns a dead/unspawned agent slot on the team, or -1.
func (e *Env) dormantSlot(team int8) int32 {
	lo := int32(int(team) * e.cfg.AgentsPerTeam)
	hi := lo + int32(e.cfg.AgentsPerTeam)
	for id := lo; id < hi; id++ {
		a := e.agents[id]
		if a == nil || (!a.Alive() && !a.IsGarrisoned) {
			return id
		}
	}
	return -1
}

// reviveSlot materializes an agent slot as a fresh unit of class at p.
func (e *Env) reviveSlot(agentID int32, team int8, class things.UnitClass, p world.Pos) *things.Thing {
	a := e.agents[agentID]
	if a == nil {
		a = e.SpawnAgent(agentID, team, class, p)
	} else {
		st := things.StatsFor(class)
		a.Class = class
		a.TeamID = team
		a.HP = st.MaxHP
		a.MaxHP = st.MaxHP
		a.AttackDamage = st.AttackDamage
		a.Inventory.Clear()
		a.ShieldCountdown = 0
		a.Frozen = 0
		a.IsGarrisoned = false
		a.Pos = p
		e.grid.place(a)
	}
	if altar := e.nearestTeamAltar(p, team); altar != nil {
		a.HomeAltar = altar.Pos
	}
	e.terminated[agentID] = 0
	return a
}
