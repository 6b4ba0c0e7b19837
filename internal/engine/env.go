// Package engine implements the simulation kernel: the per-tick state
// machine that applies agent actions, resolves combat and economy, runs mob
// AI, manages death and respawn, and packs per-agent observations. A Step
// is a pure function of (state, actions); it mutates the environment in
// place and is reproducible from (seed, action sequence).
package engine

import (
	"log/slog"

	"github.com/talgya/tribal-village/internal/config"
	"github.com/talgya/tribal-village/internal/entropy"
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// Env owns the complete world state for one environment instance. The host
// may run many Envs in parallel; a single Env is never shared.
type Env struct {
	cfg  config.EnvConfig
	seed uint64

	Tiles *world.TileMap
	grid  *Grid

	byKind [things.KindCount][]*things.Thing
	agents []*things.Thing // Fixed slots indexed by agent id; never removed
	nextID things.ID

	stockpiles  [][things.NumStockpile]int32 // Per team
	murderHoles []bool                       // Per-team tech flag

	currentStep int
	rng         *entropy.Stream

	// Tumors and spawners hit by tower fire this tick; removed during the
	// tumor phase and not targeted again until cleared.
	towerQueued map[things.ID]struct{}

	// Temple reproduction records (parent pair + child) accumulated over the
	// episode; cleared on reset.
	interactions []Interaction

	observations []uint8
	rewards      []float32
	terminated   []uint8
	truncated    []uint8
	stats        []AgentStats

	territoryScores []int32
	episodeDone     bool
}

// Interaction records a temple reproduction event for external consumers.
type Interaction struct {
	Tick    int   `json:"tick"`
	ParentA int32 `json:"parent_a"`
	ParentB int32 `json:"parent_b"`
	Child   int32 `json:"child"`
}

// NewEnvironment creates an environment with zeroed state. Call Reset
// before the first Step.
func NewEnvironment(cfg config.EnvConfig) (*Env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := cfg.NumAgents()
	e := &Env{
		cfg:          cfg,
		agents:       make([]*things.Thing, n),
		stockpiles:   make([][things.NumStockpile]int32, cfg.NumTeams),
		murderHoles:  make([]bool, cfg.NumTeams),
		towerQueued:  make(map[things.ID]struct{}),
		observations: make([]uint8, n*obsBytesPerAgent(cfg)),
		rewards:      make([]float32, n),
		terminated:   make([]uint8, n),
		truncated:    make([]uint8, n),
		stats:        make([]AgentStats, n),

		territoryScores: make([]int32, cfg.NumTeams),
	}
	e.clearWorld()
	return e, nil
}

// clearWorld resets tiles, occupancy, and all per-episode buffers without
// generating a map.
func (e *Env) clearWorld() {
	e.Tiles = world.NewTileMap(e.cfg.MapWidth, e.cfg.MapHeight)
	e.grid = NewGrid(e.cfg.MapWidth, e.cfg.MapHeight)
	for k := range e.byKind {
		e.byKind[k] = nil
	}
	for i := range e.agents {
		e.agents[i] = nil
	}
	e.nextID = 0
	for t := range e.stockpiles {
		e.stockpiles[t] = [things.NumStockpile]int32{}
		e.murderHoles[t] = false
		e.territoryScores[t] = 0
	}
	clear(e.towerQueued)
	e.interactions = nil
	e.currentStep = 0
	e.episodeDone = false
	clearBytes(e.observations)
	for i := range e.rewards {
		e.rewards[i] = 0
		e.terminated[i] = 1 // No agent exists until placed
		e.truncated[i] = 0
		e.stats[i] = AgentStats{}
	}
}

func clearBytes(b []uint8) {
	for i := range b {
		b[i] = 0
	}
}

// Reset reseeds the environment, generates a fresh map, materializes the
// starting things, and zeroes every per-episode buffer.
func (e *Env) Reset(seed uint64) {
	e.seed = seed
	e.clearWorld()

	gen := world.DefaultGenConfig()
	gen.Width, gen.Height = e.cfg.MapWidth, e.cfg.MapHeight
	gen.NumTeams = e.cfg.NumTeams
	gen.AgentsPerTeam = e.cfg.AgentsPerTeam
	gen.Seed = seed
	tiles, plan := world.Generate(gen)
	e.Tiles = tiles

	// Plan tiles can collide with team aprons; relocate instead of
	// dropping the placement.
	placeRNG := entropy.NewStream(seed ^ 0x706c616365)

	for t := 0; t < e.cfg.NumTeams; t++ {
		altar := e.SpawnBuilding(things.KindAltar, int8(t), plan.Altars[t])
		altar.Hearts = e.cfg.StartingHearts
		e.SpawnBuilding(things.KindTownCenter, int8(t), plan.TownCenters[t])

		// A Granary opposite the TownCenter keeps the food-only dropoff
		// in play; the loom took its build-menu slot.
		gp := e.openTileNear(world.Pos{X: plan.Altars[t].X - 2, Y: plan.Altars[t].Y}, placeRNG)
		if gp.OnGrid() {
			e.SpawnBuilding(things.KindGranary, int8(t), gp)
		}

		for s, p := range plan.UnitTiles[t] {
			p = e.openTileNear(p, placeRNG)
			if !p.OnGrid() {
				continue
			}
			id := int32(t*e.cfg.AgentsPerTeam + s)
			a := e.SpawnAgent(id, int8(t), things.ClassVillager, p)
			a.HomeAltar = plan.Altars[t]
		}
	}

	for h, herd := range plan.Herds {
		for _, p := range herd {
			if p = e.openTileNear(p, placeRNG); p.OnGrid() {
				e.SpawnMob(things.KindCow, int16(h), p)
			}
		}
	}
	for pk, pack := range plan.Packs {
		kind := things.KindWolf
		if pk%2 == 1 {
			kind = things.KindBear
		}
		for _, p := range pack {
			if p = e.openTileNear(p, placeRNG); p.OnGrid() {
				e.SpawnMob(kind, int16(pk), p)
			}
		}
	}
	for _, p := range plan.Spawners {
		p = e.openTileNear(p, placeRNG)
		if !p.OnGrid() {
			continue
		}
		sp := e.addThing(&things.Thing{
			Kind: things.KindSpawner, Pos: p, TeamID: -1,
			HP: 10, MaxHP: 10,
			HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
		})
		sp.Cooldown = e.cfg.SpawnerCooldown
	}

	// Neutral smelters: Magma is the only mint for Bars, so every altar
	// economy depends on at least one vent surviving placement.
	for _, p := range plan.MagmaVents {
		if p = e.openTileNear(p, placeRNG); p.OnGrid() {
			e.SpawnBuilding(things.KindMagma, -1, p)
		}
	}

	e.refreshObservations()
	slog.Info("environment reset",
		"seed", seed,
		"agents", e.liveAgentCount(),
		"map", e.cfg.MapWidth*e.cfg.MapHeight,
	)
}

// ── Thing lifecycle ──────────────────────────────────────────────────────

// addThing assigns an id and registers t in the kind bucket and grid.
func (e *Env) addThing(t *things.Thing) *things.Thing {
	e.nextID++
	t.ID = e.nextID
	e.byKind[t.Kind] = append(e.byKind[t.Kind], t)
	if t.Pos.OnGrid() {
		e.grid.place(t)
	}
	return t
}

// removeThing reverses addThing. Agents are never removed this way; they
// move to the terminated state instead.
func (e *Env) removeThing(t *things.Thing) {
	if t.Pos.OnGrid() {
		e.grid.clear(t)
	}
	bucket := e.byKind[t.Kind]
	for i, other := range bucket {
		if other == t {
			bucket[i] = bucket[len(bucket)-1]
			e.byKind[t.Kind] = bucket[:len(bucket)-1]
			break
		}
	}
	t.Pos = world.OffGrid
	t.HP = 0
}

// SpawnAgent places a live agent into its fixed slot. Test scenarios and
// Reset both go through here.
func (e *Env) SpawnAgent(agentID int32, team int8, class things.UnitClass, p world.Pos) *things.Thing {
	e.nextID++
	a := things.NewAgent(e.nextID, agentID, team, class, p)
	e.byKind[things.KindAgent] = append(e.byKind[things.KindAgent], a)
	if p.OnGrid() {
		e.grid.place(a)
	}
	e.agents[agentID] = a
	e.terminated[agentID] = 0
	return a
}

// SpawnBuilding places a structure and applies its fertile radius.
func (e *Env) SpawnBuilding(k things.Kind, team int8, p world.Pos) *things.Thing {
	e.nextID++
	b := things.NewBuilding(e.nextID, k, team, p)
	e.byKind[k] = append(e.byKind[k], b)
	if p.OnGrid() {
		// Clear resource terrain under structures so the tile stays sane.
		if tile := e.Tiles.At(p); tile != nil && tile.Terrain.BlocksWalk() {
			e.Tiles.SetTerrain(p, world.TerrainEmpty)
		}
		e.grid.place(b)
		e.applyFertileRadius(b)
	}
	return b
}

// SpawnMob places a neutral animal.
func (e *Env) SpawnMob(k things.Kind, group int16, p world.Pos) *things.Thing {
	e.nextID++
	m := things.NewMob(e.nextID, k, group, p)
	e.byKind[k] = append(e.byKind[k], m)
	if p.OnGrid() {
		e.grid.place(m)
	}
	return m
}

// SpawnNode places a resource node carrying yield harvests.
func (e *Env) SpawnNode(k things.Kind, p world.Pos, yield int16) *things.Thing {
	e.nextID++
	n := things.NewNode(e.nextID, k, p, yield)
	e.byKind[k] = append(e.byKind[k], n)
	if p.OnGrid() {
		e.grid.place(n)
	}
	return n
}

func (e *Env) applyFertileRadius(b *things.Thing) {
	r := things.BuildingFor(b.Kind).FertileRadius
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := world.Pos{X: b.Pos.X + dx, Y: b.Pos.Y + dy}
			if tile := e.Tiles.At(p); tile != nil && tile.Terrain.Fertilizable() {
				e.Tiles.SetTerrain(p, world.TerrainFertile)
			}
		}
	}
}

// openTileNear resolves a planned placement to a free tile: the tile
// itself when empty, otherwise the nearest empty tile by spiral search.
// Returns OffGrid when nothing is free within reach.
func (e *Env) openTileNear(p world.Pos, rng *entropy.Stream) world.Pos {
	if e.isEmpty(p, -1) {
		return p
	}
	return e.grid.FindNearestSpiral(p, 6, rng, func(q world.Pos) bool {
		return e.isEmpty(q, -1)
	})
}

// ── Predicates and helpers ───────────────────────────────────────────────

// isEmpty reports whether a ground unit of team can stand at p: in bounds,
// walkable terrain, no blocking thing, no enemy door.
func (e *Env) isEmpty(p world.Pos, team int8) bool {
	tile := e.Tiles.At(p)
	if tile == nil {
		return false
	}
	if tile.Terrain.BlocksWalk() || tile.Terrain.IsWater() {
		return false
	}
	if tile.HasDoor() && tile.DoorTeam != team {
		return false
	}
	return e.grid.Blocking(p) == nil
}

// teamOf returns the effective team of an agent slot.
func (e *Env) teamOf(agentID int32) int8 {
	a := e.agents[agentID]
	if a == nil {
		return int8(int(agentID) / e.cfg.AgentsPerTeam)
	}
	return a.TeamID
}

// Stockpile returns the team's pool count for a stockpile item.
func (e *Env) Stockpile(team int8, it things.Item) int32 {
	if team < 0 || !it.IsStockpile() {
		return 0
	}
	return e.stockpiles[team][it]
}

// stockpileCapacity is the building-scaled cap on each team resource pool.
func (e *Env) stockpileCapacity(team int8) int32 {
	capTotal := int32(things.BaseStockpileCapacity)
	for k := things.KindAltar; k <= things.KindDock; k++ {
		barrel := things.BuildingFor(k).BarrelCapacity
		if barrel == 0 {
			continue
		}
		for _, b := range e.byKind[k] {
			if b.TeamID == team && b.Alive() {
				capTotal += barrel
			}
		}
	}
	return capTotal
}

// depositStockpile adds n of it to the team pool, clamped to capacity.
// Returns the amount actually deposited.
func (e *Env) depositStockpile(team int8, it things.Item, n int32) int32 {
	if team < 0 || !it.IsStockpile() || n <= 0 {
		return 0
	}
	room := e.stockpileCapacity(team) - e.stockpiles[team][it]
	if room <= 0 {
		return 0
	}
	if n > room {
		n = room
	}
	e.stockpiles[team][it] += n
	return n
}

// AddStockpile force-adds resources for tests and scenario setup, clamped
// at capacity.
func (e *Env) AddStockpile(team int8, it things.Item, n int32) {
	e.depositStockpile(team, it, n)
}

// canAfford reports whether the team pool covers a cost vector.
func (e *Env) canAfford(team int8, cost things.CostVector) bool {
	if team < 0 {
		return false
	}
	for i, n := range cost {
		if e.stockpiles[team][i] < n {
			return false
		}
	}
	return true
}

// spend subtracts a cost vector the caller has already checked.
func (e *Env) spend(team int8, cost things.CostVector) {
	for i, n := range cost {
		e.stockpiles[team][i] -= n
	}
}

// teamPopulation counts live, non-garrisoned-or-not agents on a team.
func (e *Env) teamPopulation(team int8) int {
	n := 0
	for _, a := range e.byKind[things.KindAgent] {
		if a.Alive() && a.TeamID == team {
			n++
		}
	}
	return n
}

// teamPopCap sums building pop-cap contributions, bounded by the per-team
// agent slot count.
func (e *Env) teamPopCap(team int8) int {
	capTotal := 0
	for k := things.KindAltar; k <= things.KindDock; k++ {
		pc := things.BuildingFor(k).PopCap
		if pc == 0 {
			continue
		}
		for _, b := range e.byKind[k] {
			if b.TeamID == team && b.Alive() {
				capTotal += int(pc)
			}
		}
	}
	if capTotal > e.cfg.AgentsPerTeam {
		capTotal = e.cfg.AgentsPerTeam
	}
	return capTotal
}

func (e *Env) liveAgentCount() int {
	n := 0
	for _, a := range e.byKind[things.KindAgent] {
		if a.Alive() {
			n++
		}
	}
	return n
}

// SetMurderHoles toggles the team tech flag that removes tower dead zones.
func (e *Env) SetMurderHoles(team int8, on bool) {
	if team >= 0 && int(team) < len(e.murderHoles) {
		e.murderHoles[team] = on
	}
}

// ── Read-only accessors (§6) ─────────────────────────────────────────────

// Config returns the environment configuration.
func (e *Env) Config() config.EnvConfig { return e.cfg }

// CurrentStep returns the number of completed ticks this episode.
func (e *Env) CurrentStep() int { return e.currentStep }

// Done reports whether every agent is terminated or truncated.
func (e *Env) Done() bool { return e.episodeDone }

// Observations returns the packed per-agent observation buffer, row-major
// [agent][layer][y][x] bytes. The host must not mutate it between Steps.
func (e *Env) Observations() []uint8 { return e.observations }

// Rewards returns the per-agent reward accumulators for the last tick.
func (e *Env) Rewards() []float32 { return e.rewards }

// Terminated returns the per-agent termination flags.
func (e *Env) Terminated() []uint8 { return e.terminated }

// Truncated returns the per-agent truncation flags.
func (e *Env) Truncated() []uint8 { return e.truncated }

// Stats returns the per-agent action and lifecycle counters.
func (e *Env) Stats() []AgentStats { return e.stats }

// TerritoryScores returns the per-team end-of-episode territory scores;
// all zero until truncation.
func (e *Env) TerritoryScores() []int32 { return e.territoryScores }

// Interactions returns the temple reproduction records for the episode.
func (e *Env) Interactions() []Interaction { return e.interactions }

// Agent returns the thing in an agent slot (nil when never spawned).
func (e *Env) Agent(agentID int32) *things.Thing { return e.agents[agentID] }

// Grid exposes the occupancy layers for read-only inspection.
func (e *Env) Grid() *Grid { return e.grid }

// ThingsOf returns the live bucket for a kind. Callers must not mutate it.
func (e *Env) ThingsOf(k things.Kind) []*things.Thing { return e.byKind[k] }
