package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width, cfg.Height = 32, 32
	cfg.NumTeams = 4
	cfg.AgentsPerTeam = 8
	cfg.Seed = 123

	m1, p1 := Generate(cfg)
	m2, p2 := Generate(cfg)

	assert.Equal(t, m1.Tiles, m2.Tiles)
	assert.Equal(t, p1.Altars, p2.Altars)
	assert.Equal(t, p1.UnitTiles, p2.UnitTiles)
	assert.Equal(t, p1.Spawners, p2.Spawners)
	assert.Equal(t, p1.MagmaVents, p2.MagmaVents)
}

func TestGeneratePlacesMagmaVents(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width, cfg.Height = 48, 48
	cfg.Seed = 11

	m, plan := Generate(cfg)

	require.NotEmpty(t, plan.MagmaVents)
	for _, p := range plan.MagmaVents {
		assert.True(t, m.InBounds(p))
		tile := m.At(p)
		assert.False(t, tile.Terrain.BlocksWalk())
		assert.False(t, tile.Terrain.IsWater())
	}
}

func TestGenerateTeamStarts(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width, cfg.Height = 48, 48
	cfg.NumTeams = 4
	cfg.AgentsPerTeam = 6
	cfg.Seed = 7

	m, plan := Generate(cfg)

	require.Len(t, plan.Altars, 4)
	require.Len(t, plan.UnitTiles, 4)
	for team, altar := range plan.Altars {
		assert.True(t, m.InBounds(altar), "altar %d out of bounds", team)
		// The start apron is flattened to walkable ground.
		assert.Equal(t, TerrainGrass, m.At(altar).Terrain)
		assert.Len(t, plan.UnitTiles[team], 6)
		for _, p := range plan.UnitTiles[team] {
			assert.True(t, m.InBounds(p))
			assert.LessOrEqual(t, altar.Chebyshev(p), int32(3))
		}
	}
}

func TestResourceTilesCarryYield(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width, cfg.Height = 48, 48
	cfg.Seed = 5

	m, _ := Generate(cfg)

	resources := 0
	for i := range m.Tiles {
		tile := &m.Tiles[i]
		if tile.Terrain.IsResource() {
			resources++
			assert.Equal(t, tile.Terrain.ResourceYield(), tile.Yield)
		}
	}
	assert.Positive(t, resources, "generated map should scatter resource tiles")
}
