package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tribal-village/internal/entropy"
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

func TestMoveRejectsAndSwaps(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 0, Y: 0})
	b := env.SpawnAgent(1, 0, things.ClassVillager, world.Pos{X: 1, Y: 0})

	// Moving off the map is invalid.
	step(env, act(VerbMove, argW))
	assert.Equal(t, world.Pos{X: 0, Y: 0}, a.Pos)
	assert.Equal(t, uint32(1), env.Stats()[0].Invalid)

	// Moving into a friendly agent swaps.
	step(env, act(VerbMove, argE))
	assert.Equal(t, world.Pos{X: 1, Y: 0}, a.Pos)
	assert.Equal(t, world.Pos{X: 0, Y: 0}, b.Pos)
	assert.Same(t, a, env.Grid().Blocking(world.Pos{X: 1, Y: 0}))
	assert.Same(t, b, env.Grid().Blocking(world.Pos{X: 0, Y: 0}))
}

func TestMoveBlockedByEnemyDoorAndWater(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})

	door := env.Tiles.At(world.Pos{X: 6, Y: 5})
	door.DoorTeam = 1
	door.DoorHP = 10
	step(env, act(VerbMove, argE))
	assert.Equal(t, world.Pos{X: 5, Y: 5}, a.Pos)

	env.Tiles.SetTerrain(world.Pos{X: 5, Y: 6}, world.TerrainWater)
	step(env, act(VerbMove, argS))
	assert.Equal(t, world.Pos{X: 5, Y: 5}, a.Pos)
	assert.Equal(t, uint32(2), env.Stats()[0].Invalid)
}

func TestRoadGrantsSecondStep(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 2, Y: 2})
	env.Tiles.SetTerrain(world.Pos{X: 3, Y: 2}, world.TerrainRoad)

	step(env, act(VerbMove, argE))
	assert.Equal(t, world.Pos{X: 4, Y: 2}, a.Pos)
}

func TestAttackKillsAndDropsCorpse(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassKnight, world.Pos{X: 5, Y: 5})
	victim := env.SpawnAgent(4, 1, things.ClassVillager, world.Pos{X: 6, Y: 5})
	victim.HP = 1
	victim.Inventory.Add(things.ItemWood, 2)

	step(env, act(VerbAttack, argE))

	assert.Equal(t, uint8(1), env.Terminated()[4])
	assert.Equal(t, uint32(1), env.Stats()[0].Kills)
	assert.Equal(t, world.DirE, a.Orientation)
	corpses := env.ThingsOf(things.KindCorpse)
	require.Len(t, corpses, 1)
	assert.Equal(t, world.Pos{X: 6, Y: 5}, corpses[0].Pos)
	assert.Equal(t, int16(2), corpses[0].Inventory.Count(things.ItemWood))
}

func TestArmorShieldConsumedOnHit(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	victim := env.SpawnAgent(4, 1, things.ClassVillager, world.Pos{X: 6, Y: 5})
	victim.Inventory.Add(things.ItemArmor, 1)

	step(env, act(VerbAttack, argE))

	assert.Equal(t, int16(0), victim.Inventory.Count(things.ItemArmor))
	assert.Positive(t, victim.ShieldCountdown)
	assert.Less(t, victim.HP, victim.MaxHP)
}

func TestAltarConquestTransfersDoors(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	altar := env.SpawnBuilding(things.KindAltar, 1, world.Pos{X: 6, Y: 5})
	altar.Hearts = 1
	door := env.Tiles.At(world.Pos{X: 10, Y: 10})
	door.DoorTeam = 1
	door.DoorHP = 5
	other := env.SpawnBuilding(things.KindHouse, 1, world.Pos{X: 12, Y: 12})

	step(env, act(VerbAttack, argE))

	assert.Equal(t, int8(0), altar.TeamID)
	assert.Equal(t, int8(0), door.DoorTeam)
	// Non-altar buildings keep their previous owner.
	assert.Equal(t, int8(1), other.TeamID)
}

func TestMonkConversion(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnBuilding(things.KindAltar, 0, world.Pos{X: 2, Y: 2})
	env.SpawnAgent(0, 0, things.ClassMonk, world.Pos{X: 5, Y: 5})
	enemy := env.SpawnAgent(4, 1, things.ClassVillager, world.Pos{X: 6, Y: 5})

	step(env, act(VerbAttack, argE))

	assert.Equal(t, int8(0), enemy.TeamID)
	assert.Equal(t, int8(0), enemy.TeamOverride)
	assert.Equal(t, world.Pos{X: 2, Y: 2}, enemy.HomeAltar)
	assert.Equal(t, uint32(1), env.Stats()[0].Conversions)
}

func TestSpearExtendsRangeAndIsConsumed(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	a.Inventory.Add(things.ItemSpear, 1)
	victim := env.SpawnAgent(4, 1, things.ClassVillager, world.Pos{X: 7, Y: 5})
	before := victim.HP

	step(env, act(VerbAttack, argE))

	assert.Less(t, victim.HP, before)
	assert.Equal(t, int16(0), a.Inventory.Count(things.ItemSpear))
}

func TestMarketTrade(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	env.SpawnBuilding(things.KindMarket, 0, world.Pos{X: 6, Y: 5})
	env.AddStockpile(0, things.ItemWood, 3)

	step(env, act(VerbUse, argE))

	assert.Equal(t, int32(0), env.Stockpile(0, things.ItemWood))
	assert.Equal(t, int32(1), env.Stockpile(0, things.ItemGold))
}

func TestPutPrefersArmor(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	giver := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	giver.Inventory.Add(things.ItemWood, 4)
	giver.Inventory.Add(things.ItemArmor, 1)
	taker := env.SpawnAgent(1, 0, things.ClassVillager, world.Pos{X: 6, Y: 5})

	step(env, act(VerbPut, argE))

	assert.Equal(t, int16(0), giver.Inventory.Count(things.ItemArmor))
	assert.Equal(t, int16(1), taker.Inventory.Count(things.ItemArmor))
	assert.Equal(t, int16(4), giver.Inventory.Count(things.ItemWood))
}

func TestPlantResourceOnFertile(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	a.Inventory.Add(things.ItemWheat, 1)
	env.Tiles.SetTerrain(world.Pos{X: 5, Y: 6}, world.TerrainFertile)

	step(env, act(VerbPlantResource, argS))

	nodes := env.ThingsOf(things.KindWheatNode)
	require.Len(t, nodes, 1)
	assert.Equal(t, world.Pos{X: 5, Y: 6}, nodes[0].Pos)
	assert.Equal(t, world.TerrainEmpty, env.Tiles.At(world.Pos{X: 5, Y: 6}).Terrain)
	assert.Equal(t, int16(0), a.Inventory.Count(things.ItemWheat))
}

func TestTowerShootsWithDeadZone(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnBuilding(things.KindGuardTower, 0, world.Pos{X: 5, Y: 5})
	adjacent := env.SpawnAgent(4, 1, things.ClassVillager, world.Pos{X: 6, Y: 5})
	far := env.SpawnAgent(5, 1, things.ClassVillager, world.Pos{X: 8, Y: 5})
	beforeAdj, beforeFar := adjacent.HP, far.HP

	step(env, act(VerbNoop, 0))

	// The adjacent enemy sits in the dead zone; the ranged one is hit.
	assert.Equal(t, beforeAdj, adjacent.HP)
	assert.Less(t, far.HP, beforeFar)

	env.SetMurderHoles(0, true)
	step(env, act(VerbNoop, 0))
	assert.Less(t, adjacent.HP, beforeAdj)
}

func TestTumorBranchClaimsParent(t *testing.T) {
	cfg := testConfig()
	cfg.TumorBranchChance = 1.0
	cfg.TumorMinBranchAge = 0
	env := newBareEnv(t, cfg)
	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 1, Y: 1})

	parent := env.addThing(&things.Thing{
		Kind: things.KindTumor, Pos: world.Pos{X: 10, Y: 10}, TeamID: -1,
		HP: 1, MaxHP: 1,
		HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
	})

	step(env, act(VerbNoop, 0))

	assert.True(t, parent.HasClaimedTerritory)
	assert.Len(t, env.ThingsOf(things.KindTumor), 2)

	// Planted tumors are inert: growth continues only through unclaimed
	// children.
	countBefore := len(env.ThingsOf(things.KindTumor))
	for i := 0; i < 3; i++ {
		step(env, act(VerbNoop, 0))
	}
	assert.True(t, parent.HasClaimedTerritory)
	assert.GreaterOrEqual(t, len(env.ThingsOf(things.KindTumor)), countBefore)
}

func TestSpawnerRespectsCap(t *testing.T) {
	cfg := testConfig()
	cfg.SpawnerCooldown = 1
	env := newBareEnv(t, cfg)
	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 1, Y: 1})

	env.addThing(&things.Thing{
		Kind: things.KindSpawner, Pos: world.Pos{X: 10, Y: 10}, TeamID: -1,
		HP: 10, MaxHP: 10,
		HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
	})

	for i := 0; i < 20; i++ {
		step(env, act(VerbNoop, 0))
	}

	uncommitted := 0
	for _, tu := range env.ThingsOf(things.KindTumor) {
		if tu.HomeSpawner == (world.Pos{X: 10, Y: 10}) && !tu.HasClaimedTerritory {
			uncommitted++
		}
	}
	assert.LessOrEqual(t, uncommitted, cfg.TumorsPerSpawner)
}

func TestGarrisonAndRelease(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	tower := env.SpawnBuilding(things.KindGuardTower, 0, world.Pos{X: 6, Y: 5})
	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})

	step(env, act(VerbUse, argE))

	require.Len(t, tower.Garrison, 1)
	assert.True(t, a.IsGarrisoned)
	assert.False(t, a.Pos.OnGrid())
	assert.Nil(t, env.Grid().Blocking(world.Pos{X: 5, Y: 5}))

	// Razing the tower releases the garrison onto adjacent tiles.
	enemy := env.SpawnAgent(4, 1, things.ClassBatteringRam, world.Pos{X: 8, Y: 5})
	enemy.AttackDamage = 100
	actions := make([]uint8, cfg.NumAgents())
	actions[4] = act(VerbAttack, argW)
	env.Step(actions)

	assert.Empty(t, env.ThingsOf(things.KindGuardTower))
	assert.False(t, a.IsGarrisoned)
	assert.True(t, a.Pos.OnGrid())
}

func TestTempleReproduction(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	altar := env.SpawnBuilding(things.KindAltar, 0, world.Pos{X: 2, Y: 2})
	altar.Hearts = 5
	env.SpawnBuilding(things.KindTemple, 0, world.Pos{X: 6, Y: 6})
	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 6})
	env.SpawnAgent(1, 0, things.ClassVillager, world.Pos{X: 7, Y: 6})

	step(env, act(VerbNoop, 0))

	require.Len(t, env.Interactions(), 1)
	rec := env.Interactions()[0]
	child := env.Agent(rec.Child)
	require.NotNil(t, child)
	assert.True(t, child.Alive())
	assert.Equal(t, int16(4), altar.Hearts)
	assert.Equal(t, things.ClassVillager, child.Class)
}

func TestObservationRebuildRoundTrip(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	env.SpawnBuilding(things.KindAltar, 0, world.Pos{X: 6, Y: 5})
	env.Tiles.SetTerrain(world.Pos{X: 4, Y: 5}, world.TerrainTree)

	for i := 0; i < 5; i++ {
		step(env, act(VerbMove, uint8(i%4)))
	}

	snapshot := append([]uint8(nil), env.Observations()...)
	env.RebuildObservations()
	assert.Equal(t, snapshot, env.Observations())
}

func TestDeterministicReplay(t *testing.T) {
	cfg := testConfig()
	cfg.MapWidth, cfg.MapHeight = 32, 32
	cfg.TumorBranchChance = 0.2
	cfg.TumorAdjacencyDeathChance = 0.3
	cfg.Rewards.SurvivalPenalty = -0.001

	run := func() (*Env, []float32) {
		env, err := NewEnvironment(cfg)
		require.NoError(t, err)
		env.Reset(99)
		policy := entropy.NewStream(123)
		actions := make([]uint8, cfg.NumAgents())
		var rewardTrace []float32
		for i := 0; i < 40; i++ {
			for j := range actions {
				actions[j] = uint8(policy.Intn(ARGC * int(NumVerbs)))
			}
			env.Step(actions)
			rewardTrace = append(rewardTrace, env.Rewards()...)
		}
		return env, rewardTrace
	}

	envA, traceA := run()
	envB, traceB := run()

	assert.Equal(t, envA.Observations(), envB.Observations())
	assert.Equal(t, envA.Terminated(), envB.Terminated())
	assert.Equal(t, envA.Stats(), envB.Stats())
	assert.Equal(t, traceA, traceB)
}

func TestResetPlacesMagmaVents(t *testing.T) {
	cfg := testConfig()
	cfg.MapWidth, cfg.MapHeight = 32, 32
	env, err := NewEnvironment(cfg)
	require.NoError(t, err)
	env.Reset(21)

	// Magma is the only mint for Bars; a generated world must carry at
	// least one neutral vent or altars can never gain hearts.
	vents := env.ThingsOf(things.KindMagma)
	require.NotEmpty(t, vents)
	for _, v := range vents {
		assert.Equal(t, int8(-1), v.TeamID)
		assert.True(t, v.Pos.OnGrid())
		assert.Same(t, v, env.Grid().Blocking(v.Pos))
	}

	// Each team start also carries its Granary.
	granaries := env.ThingsOf(things.KindGranary)
	require.Len(t, granaries, cfg.NumTeams)
	teams := map[int8]bool{}
	for _, g := range granaries {
		teams[g.TeamID] = true
	}
	assert.Len(t, teams, cfg.NumTeams)
}

func TestBuildWeavingLoomAndCraftLantern(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	env.AddStockpile(0, things.ItemWood, 15)

	var loomIndex uint8
	for i, k := range things.BuildChoices {
		if k == things.KindWeavingLoom {
			loomIndex = uint8(i)
		}
	}
	step(env, act(VerbBuild, loomIndex))

	looms := env.ThingsOf(things.KindWeavingLoom)
	require.Len(t, looms, 1)
	assert.Equal(t, int32(0), env.Stockpile(0, things.ItemWood))

	// The freshly built loom turns carried wood into a lantern.
	a.Inventory.Add(things.ItemWood, 1)
	dir := argN
	switch {
	case looms[0].Pos == (world.Pos{X: 5, Y: 4}):
		dir = argN
	case looms[0].Pos == (world.Pos{X: 5, Y: 6}):
		dir = argS
	case looms[0].Pos == (world.Pos{X: 4, Y: 5}):
		dir = argW
	case looms[0].Pos == (world.Pos{X: 6, Y: 5}):
		dir = argE
	}
	step(env, act(VerbUse, dir))
	assert.Equal(t, int16(1), a.Inventory.Count(things.ItemLantern))
}

func TestEpisodeTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSteps = 3
	env := newBareEnv(t, cfg)

	env.SpawnBuilding(things.KindAltar, 0, world.Pos{X: 3, Y: 3})
	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})

	for i := 0; i < 3; i++ {
		assert.False(t, env.Done())
		step(env, act(VerbNoop, 0))
	}

	assert.True(t, env.Done())
	assert.Equal(t, uint8(1), env.Truncated()[0])
	// Territory is scored once at truncation.
	assert.Positive(t, env.TerritoryScores()[0])
}

func TestFogHidesUnseenTiles(t *testing.T) {
	cfg := testConfig()
	cfg.ObsRadius = 3
	cfg.SightRadius = 1
	cfg.FogOfView = true
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	env.Tiles.SetTerrain(world.Pos{X: 6, Y: 5}, world.TerrainGold)
	env.Tiles.SetTerrain(world.Pos{X: 8, Y: 5}, world.TerrainGold)

	step(env, act(VerbNoop, 0))

	ow := int32(2*cfg.ObsRadius + 1)
	at := func(layer int, p world.Pos) uint8 {
		wx := p.X - 5 + cfg.ObsRadius
		wy := p.Y - 5 + cfg.ObsRadius
		return env.Observations()[(int32(layer)*ow+wy)*ow+wx]
	}

	// In sight: terrain is written. Beyond sight: the cell stays fogged.
	assert.Equal(t, uint8(world.TerrainGold)+1, at(LayerTerrain, world.Pos{X: 6, Y: 5}))
	assert.Zero(t, at(LayerTerrain, world.Pos{X: 8, Y: 5}))
}

func TestStockpileNeverNegative(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	env.SpawnBuilding(things.KindMarket, 0, world.Pos{X: 6, Y: 5})

	for i := 0; i < 5; i++ {
		step(env, act(VerbUse, argE))
	}
	for it := things.Item(0); it < things.NumStockpile; it++ {
		assert.GreaterOrEqual(t, env.Stockpile(0, it), int32(0))
	}
}
