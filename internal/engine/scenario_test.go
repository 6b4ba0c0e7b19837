package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/tribal-village/internal/config"
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// testConfig is a small, quiet world: no survival drain, no stochastic
// tumor effects, so scenario assertions stay exact.
func testConfig() config.EnvConfig {
	cfg := config.Default()
	cfg.MapWidth, cfg.MapHeight = 20, 20
	cfg.NumTeams = 2
	cfg.AgentsPerTeam = 4
	cfg.MaxSteps = 100
	cfg.ObsRadius = 3
	cfg.SightRadius = 3
	cfg.Rewards.SurvivalPenalty = 0
	cfg.TumorAdjacencyDeathChance = 0
	cfg.TumorBranchChance = 0
	return cfg
}

// newBareEnv returns an environment with an all-empty walkable map and no
// things; tests place their own scenario pieces.
func newBareEnv(t *testing.T, cfg config.EnvConfig) *Env {
	t.Helper()
	env, err := NewEnvironment(cfg)
	require.NoError(t, err)
	env.seed = 7
	return env
}

func act(v Verb, arg uint8) uint8 {
	return uint8(v)*ARGC + arg
}

// step runs one tick with only agent 0 acting.
func step(env *Env, action uint8) {
	actions := make([]uint8, env.Config().NumAgents())
	actions[0] = action
	env.Step(actions)
}

const (
	argN = uint8(world.DirN)
	argS = uint8(world.DirS)
	argW = uint8(world.DirW)
	argE = uint8(world.DirE)
)

func TestGatherAndSmelt(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	v := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	env.Tiles.SetTerrain(world.Pos{X: 6, Y: 5}, world.TerrainGold)
	env.SpawnBuilding(things.KindMagma, -1, world.Pos{X: 5, Y: 6})

	var total float32
	for _, a := range []uint8{act(VerbUse, argE), act(VerbUse, argS), act(VerbUse, argE), act(VerbUse, argS)} {
		step(env, a)
		total += env.Rewards()[0]
	}

	assert.Equal(t, int16(1), v.Inventory.Count(things.ItemGold))
	assert.Equal(t, int16(1), v.Inventory.Count(things.ItemBar))
	// The second smelt hits the magma cooldown and counts as invalid.
	assert.Equal(t, uint32(1), env.Stats()[0].Invalid)
	assert.InDelta(t, 2*cfg.Rewards.Ore+cfg.Rewards.Bar, total, 1e-6)
}

func TestAltarHeart(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	v := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	v.Inventory.Add(things.ItemBar, 1)
	altar := env.SpawnBuilding(things.KindAltar, 0, world.Pos{X: 5, Y: 6})
	altar.Hearts = 3

	step(env, act(VerbUse, argS))

	assert.Equal(t, int16(0), v.Inventory.Count(things.ItemBar))
	assert.Equal(t, int16(4), altar.Hearts)
	// The cooldown phase runs after agent actions within the same tick.
	assert.Equal(t, cfg.AltarCooldown-1, altar.Cooldown)
	assert.InDelta(t, cfg.Rewards.Heart, env.Rewards()[0], 1e-6)
}

func TestRespawnAtHomeAltar(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	altar := env.SpawnBuilding(things.KindAltar, 0, world.Pos{X: 10, Y: 10})
	altar.Hearts = 2
	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 14, Y: 14})
	a.HomeAltar = world.Pos{X: 10, Y: 10}
	a.HP = 0 // Dead at tick start

	step(env, act(VerbNoop, 0))

	require.True(t, a.Alive())
	assert.Equal(t, a.MaxHP, a.HP)
	assert.Equal(t, int16(1), altar.Hearts)
	assert.Equal(t, int32(1), a.Pos.Chebyshev(altar.Pos))
	assert.Equal(t, uint8(0), env.Terminated()[0])
	assert.Equal(t, uint32(1), env.Stats()[0].Deaths)
	assert.Equal(t, uint32(1), env.Stats()[0].Respawns)
}

func TestRespawnSkippedWithoutHearts(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	altar := env.SpawnBuilding(things.KindAltar, 0, world.Pos{X: 10, Y: 10})
	altar.Hearts = 0
	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 14, Y: 14})
	a.HomeAltar = world.Pos{X: 10, Y: 10}
	a.HP = 0

	step(env, act(VerbNoop, 0))

	assert.False(t, a.Alive())
	assert.Equal(t, uint8(1), env.Terminated()[0])
}

func TestTumorAdjacencyDeath(t *testing.T) {
	cfg := testConfig()
	cfg.TumorAdjacencyDeathChance = 1.0
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 7, Y: 7})
	env.addThing(&things.Thing{
		Kind: things.KindTumor, Pos: world.Pos{X: 7, Y: 8}, TeamID: -1,
		HP: 1, MaxHP: 1,
		HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
	})

	step(env, act(VerbNoop, 0))

	assert.Equal(t, uint8(1), env.Terminated()[0])
	assert.Equal(t, uint32(1), env.Stats()[0].Deaths)
	assert.Empty(t, env.ThingsOf(things.KindTumor))
}

func TestShieldBlocksTumorDeath(t *testing.T) {
	cfg := testConfig()
	cfg.TumorAdjacencyDeathChance = 1.0
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 7, Y: 7})
	a.ShieldCountdown = 3 // Survives this tick's countdown decrement
	env.addThing(&things.Thing{
		Kind: things.KindTumor, Pos: world.Pos{X: 7, Y: 8}, TeamID: -1,
		HP: 1, MaxHP: 1,
		HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
	})

	step(env, act(VerbNoop, 0))

	assert.True(t, a.Alive())
	assert.Len(t, env.ThingsOf(things.KindTumor), 1)
}

func TestLanternPush(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	a := env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 4, Y: 4})
	env.addThing(&things.Thing{
		Kind: things.KindLantern, Pos: world.Pos{X: 5, Y: 4}, TeamID: 0,
		HP: 1, MaxHP: 1,
		HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
	})

	step(env, act(VerbMove, argE))

	assert.Equal(t, world.Pos{X: 5, Y: 4}, a.Pos)
	lanterns := env.ThingsOf(things.KindLantern)
	require.Len(t, lanterns, 1)
	assert.Equal(t, world.Pos{X: 6, Y: 4}, lanterns[0].Pos)
}

func TestBuildGatedByCost(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})

	var tcIndex uint8
	for i, k := range things.BuildChoices {
		if k == things.KindTownCenter {
			tcIndex = uint8(i)
		}
	}
	step(env, act(VerbBuild, tcIndex))

	assert.Empty(t, env.ThingsOf(things.KindTownCenter))
	assert.Equal(t, uint32(1), env.Stats()[0].Invalid)
	assert.Equal(t, int32(0), env.Stockpile(0, things.ItemWood))
}

func TestBuildHousePlacesAndCharges(t *testing.T) {
	cfg := testConfig()
	env := newBareEnv(t, cfg)

	env.SpawnAgent(0, 0, things.ClassVillager, world.Pos{X: 5, Y: 5})
	env.AddStockpile(0, things.ItemWood, 20)

	var houseIndex uint8
	for i, k := range things.BuildChoices {
		if k == things.KindHouse {
			houseIndex = uint8(i)
		}
	}
	step(env, act(VerbBuild, houseIndex))

	houses := env.ThingsOf(things.KindHouse)
	require.Len(t, houses, 1)
	assert.Equal(t, int8(0), houses[0].TeamID)
	assert.Equal(t, int32(5), env.Stockpile(0, things.ItemWood))
	assert.Equal(t, int32(1), houses[0].Pos.Chebyshev(world.Pos{X: 5, Y: 5}))
}
