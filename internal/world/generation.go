// World generation using layered simplex noise. Generates elevation and
// moisture maps, derives biomes and terrain, scatters resource tiles, then
// lays out symmetric team starts and neutral fauna.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/tribal-village/internal/entropy"
)

// GenConfig holds map generation parameters. Generation runs on its own
// entropy stream, separate from the per-tick kernel stream.
type GenConfig struct {
	Width, Height int32
	Seed          uint64
	NumTeams      int
	AgentsPerTeam int
	WaterLevel    float64 // Elevation threshold for water
	MountainLevel float64 // Elevation threshold for mountains
	HerdCount      int // Cow herds scattered on plains
	PackCount      int // Wolf/bear packs scattered on forest/tundra
	SpawnerCount   int // Tumor spawners placed away from team starts
	MagmaVentCount int // Neutral smelters; the only source of Bars
}

// DefaultGenConfig returns the standard 64×64 eight-team layout.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:         64,
		Height:        64,
		NumTeams:      8,
		AgentsPerTeam: 16,
		WaterLevel:    0.22,
		MountainLevel: 0.78,
		HerdCount:      4,
		PackCount:      3,
		SpawnerCount:   4,
		MagmaVentCount: 6,
	}
}

// StartPlan is the generator's output beyond the tiles themselves: where the
// engine should materialize initial things. The generator stays ignorant of
// the entity model, so placements are plain coordinates.
type StartPlan struct {
	// Per-team structures. Index is the team id.
	Altars      []Pos
	TownCenters []Pos
	// Per-team villager tiles, AgentsPerTeam each, ring-packed around the
	// altar.
	UnitTiles [][]Pos

	// Neutral fauna, hostiles, and map features.
	Herds      [][]Pos // Cow positions per herd
	Packs      [][]Pos // Predator positions per pack
	Spawners   []Pos
	MagmaVents []Pos // Neutral Gold→Bar smelters; every altar economy needs one
}

// Generate builds a tile map and a start plan from the config. Identical
// configs produce identical maps.
func Generate(cfg GenConfig) (*TileMap, *StartPlan) {
	elevNoise := opensimplex.NewNormalized(int64(cfg.Seed))
	moistNoise := opensimplex.NewNormalized(int64(cfg.Seed) + 1)
	rng := entropy.NewStream(cfg.Seed ^ 0xa5a5a5a5a5a5a5a5)

	m := NewTileMap(cfg.Width, cfg.Height)

	for y := int32(0); y < cfg.Height; y++ {
		for x := int32(0); x < cfg.Width; x++ {
			fx, fy := float64(x), float64(y)
			elev := octaveNoise(elevNoise, fx, fy, 4, 0.06, 0.5)
			moist := octaveNoise(moistNoise, fx, fy, 3, 0.05, 0.5)

			tile := m.At(Pos{x, y})
			tile.Biome = deriveBiome(elev, moist, fy/float64(cfg.Height))
			terr := deriveTerrain(elev, moist, tile.Biome, cfg)
			m.SetTerrain(Pos{x, y}, terr)
			tile.Elevation = int8(elev * 4)
		}
	}

	scatterResources(m, rng)
	plan := layoutStarts(m, cfg, rng)
	return m, plan
}

func deriveBiome(elev, moist, lat float64) Biome {
	switch {
	case lat < 0.15:
		return BiomeTundra
	case elev > 0.7:
		return BiomeHighlands
	case moist < 0.3:
		return BiomeDesert
	case moist > 0.72:
		return BiomeWetland
	case moist > 0.55:
		return BiomeForest
	default:
		return BiomePlains
	}
}

func deriveTerrain(elev, moist float64, b Biome, cfg GenConfig) Terrain {
	if elev < cfg.WaterLevel {
		if elev > cfg.WaterLevel-0.05 {
			return TerrainShallowWater
		}
		return TerrainWater
	}
	if elev > cfg.MountainLevel {
		return TerrainMountain
	}
	switch b {
	case BiomeDesert:
		if moist < 0.15 {
			return TerrainDune
		}
		return TerrainSand
	case BiomeTundra:
		return TerrainSnow
	default:
		return TerrainGrass
	}
}

// scatterResources sprinkles harvestable terrain by biome. Densities are
// tuned so each quadrant of the map holds every resource class.
func scatterResources(m *TileMap, rng *entropy.Stream) {
	for y := int32(0); y < m.H; y++ {
		for x := int32(0); x < m.W; x++ {
			p := Pos{x, y}
			tile := m.At(p)
			var repl Terrain
			switch tile.Terrain {
			case TerrainGrass:
				switch {
				case tile.Biome == BiomeForest && rng.Chance(0.18):
					repl = TerrainTree
				case rng.Chance(0.03):
					repl = TerrainTree
				case rng.Chance(0.025):
					repl = TerrainWheat
				case rng.Chance(0.02):
					repl = TerrainBush
				case rng.Chance(0.012):
					repl = TerrainStone
				case rng.Chance(0.008):
					repl = TerrainGold
				}
			case TerrainSand, TerrainDune:
				switch {
				case rng.Chance(0.04):
					repl = TerrainPalm
				case rng.Chance(0.03):
					repl = TerrainCactus
				case rng.Chance(0.01):
					repl = TerrainGold
				}
			case TerrainSnow:
				switch {
				case rng.Chance(0.02):
					repl = TerrainStalagmite
				case rng.Chance(0.015):
					repl = TerrainStone
				}
			case TerrainMountain:
				if rng.Chance(0.05) {
					repl = TerrainStone
				}
			}
			if repl != TerrainEmpty {
				m.SetTerrain(p, repl)
			}
		}
	}
}

// layoutStarts rings team bases around the map center and drops fauna on
// matching biomes. Base tiles are flattened to grass so every start is
// playable regardless of noise.
func layoutStarts(m *TileMap, cfg GenConfig, rng *entropy.Stream) *StartPlan {
	plan := &StartPlan{
		Altars:      make([]Pos, cfg.NumTeams),
		TownCenters: make([]Pos, cfg.NumTeams),
		UnitTiles:   make([][]Pos, cfg.NumTeams),
	}

	cx, cy := float64(m.W)/2, float64(m.H)/2
	ringR := math.Min(cx, cy) * 0.62

	for t := 0; t < cfg.NumTeams; t++ {
		angle := 2 * math.Pi * float64(t) / float64(cfg.NumTeams)
		base := Pos{
			X: int32(cx + ringR*math.Cos(angle)),
			Y: int32(cy + ringR*math.Sin(angle)),
		}
		base = clampPos(m, base, 4)

		// Flatten a 7×7 apron so starts never spawn inside rock or water.
		for dy := int32(-3); dy <= 3; dy++ {
			for dx := int32(-3); dx <= 3; dx++ {
				p := Pos{base.X + dx, base.Y + dy}
				if m.InBounds(p) {
					m.SetTerrain(p, TerrainGrass)
				}
			}
		}

		plan.Altars[t] = base
		plan.TownCenters[t] = Pos{base.X + 2, base.Y}

		// Pack villager tiles in the rings around the altar, skipping the
		// two structure tiles.
		var units []Pos
		for r := int32(1); len(units) < cfg.AgentsPerTeam && r <= 3; r++ {
			for dy := -r; dy <= r && len(units) < cfg.AgentsPerTeam; dy++ {
				for dx := -r; dx <= r && len(units) < cfg.AgentsPerTeam; dx++ {
					if maxAbs(dx, dy) != r {
						continue
					}
					p := Pos{base.X + dx, base.Y + dy}
					if !m.InBounds(p) || p == plan.TownCenters[t] {
						continue
					}
					units = append(units, p)
				}
			}
		}
		plan.UnitTiles[t] = units
	}

	plan.Herds = scatterGroups(m, rng, cfg.HerdCount, 4, func(t *Tile) bool {
		return t.Biome == BiomePlains && t.Terrain == TerrainGrass
	})
	plan.Packs = scatterGroups(m, rng, cfg.PackCount, 3, func(t *Tile) bool {
		return (t.Biome == BiomeForest || t.Biome == BiomeTundra) &&
			!t.Terrain.BlocksWalk() && !t.Terrain.IsWater()
	})

	for i := 0; i < cfg.SpawnerCount; i++ {
		p := findOpenTile(m, rng, func(t *Tile) bool {
			return !t.Terrain.BlocksWalk() && !t.Terrain.IsWater()
		})
		if p.OnGrid() {
			plan.Spawners = append(plan.Spawners, p)
		}
	}

	// Magma vents favor the highlands; fall back to any open ground so
	// small maps still mint Bars.
	for i := 0; i < cfg.MagmaVentCount; i++ {
		p := findOpenTile(m, rng, func(t *Tile) bool {
			return t.Biome == BiomeHighlands && !t.Terrain.BlocksWalk() &&
				!t.Terrain.IsWater()
		})
		if !p.OnGrid() {
			p = findOpenTile(m, rng, func(t *Tile) bool {
				return !t.Terrain.BlocksWalk() && !t.Terrain.IsWater()
			})
		}
		if p.OnGrid() {
			plan.MagmaVents = append(plan.MagmaVents, p)
		}
	}
	return plan
}

// scatterGroups finds n cluster anchors matching the predicate and packs
// size members around each.
func scatterGroups(m *TileMap, rng *entropy.Stream, n, size int, ok func(*Tile) bool) [][]Pos {
	var groups [][]Pos
	for i := 0; i < n; i++ {
		anchor := findOpenTile(m, rng, ok)
		if !anchor.OnGrid() {
			continue
		}
		group := []Pos{anchor}
		for _, d := range Deltas {
			if len(group) >= size {
				break
			}
			p := anchor.Add(d)
			if tile := m.At(p); tile != nil && ok(tile) {
				group = append(group, p)
			}
		}
		groups = append(groups, group)
	}
	return groups
}

// findOpenTile samples random tiles until one matches, giving up after a
// bounded number of draws so degenerate maps still terminate.
func findOpenTile(m *TileMap, rng *entropy.Stream, ok func(*Tile) bool) Pos {
	for tries := 0; tries < 512; tries++ {
		p := Pos{int32(rng.Intn(int(m.W))), int32(rng.Intn(int(m.H)))}
		if ok(m.At(p)) {
			return p
		}
	}
	return OffGrid
}

func clampPos(m *TileMap, p Pos, margin int32) Pos {
	if p.X < margin {
		p.X = margin
	}
	if p.Y < margin {
		p.Y = margin
	}
	if p.X >= m.W-margin {
		p.X = m.W - margin - 1
	}
	if p.Y >= m.H-margin {
		p.Y = m.H - margin - 1
	}
	return p
}

func maxAbs(a, b int32) int32 {
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

// octaveNoise sums noise octaves with decaying amplitude for natural
// looking features.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	freq := frequency

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxValue
}
