// Package config holds the environment's scalar knobs and reward weights,
// with defaults documented on the struct and optional TOML overrides.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Rewards are the per-event shaped reward weights. All rewards accumulate
// into the acting agent's slot during the tick they occur.
type Rewards struct {
	Heart     float32 `toml:"heart"`
	Ore       float32 `toml:"ore"`
	Bar       float32 `toml:"bar"`
	Wood      float32 `toml:"wood"`
	Water     float32 `toml:"water"`
	Wheat     float32 `toml:"wheat"`
	Spear     float32 `toml:"spear"`
	Armor     float32 `toml:"armor"`
	Food      float32 `toml:"food"`
	Cloth     float32 `toml:"cloth"`
	TumorKill float32 `toml:"tumor_kill"`

	// SurvivalPenalty applies to every alive agent each tick;
	// DeathPenalty applies once at the tick a unit dies.
	SurvivalPenalty float32 `toml:"survival_penalty"`
	DeathPenalty    float32 `toml:"death_penalty"`
}

// EnvConfig parameterizes one environment instance.
type EnvConfig struct {
	// Map geometry and population. Fixed for the environment's lifetime.
	MapWidth      int32 `toml:"map_width"`       // Default 64
	MapHeight     int32 `toml:"map_height"`      // Default 64
	NumTeams      int   `toml:"num_teams"`       // Default 8, max 16
	AgentsPerTeam int   `toml:"agents_per_team"` // Default 16

	// Episode length. All alive agents truncate at MaxSteps.
	MaxSteps int `toml:"max_steps"` // Default 10000

	// Observation window half-width; the window is (2r+1)² per agent.
	ObsRadius int32 `toml:"obs_radius"` // Default 7
	// SightRadius is how far an agent reveals tiles for its team; window
	// cells beyond every teammate's sight stay fogged when FogOfView is on.
	SightRadius int32 `toml:"sight_radius"` // Default 5
	// FogOfView zeroes tile layers a team has not yet seen this episode.
	FogOfView bool `toml:"fog_of_view"` // Default false

	// Tumor dynamics.
	TumorSpawnRate            float64 `toml:"tumor_spawn_rate"`             // Default 1.0; scales spawner cooldown
	TumorBranchChance         float64 `toml:"tumor_branch_chance"`          // Default 0.08
	TumorAdjacencyDeathChance float64 `toml:"tumor_adjacency_death_chance"` // Default 0.25
	TumorMinBranchAge         int16   `toml:"tumor_min_branch_age"`         // Default 10
	TumorsPerSpawner          int     `toml:"tumors_per_spawner"`           // Default 3
	SpawnerCooldown           int16   `toml:"spawner_cooldown"`             // Default 40 before rate scaling

	// Altar economy.
	AltarRespawnCost int16 `toml:"altar_respawn_cost"` // Hearts per respawn, default 1
	AltarCooldown    int16 `toml:"altar_cooldown"`     // Ticks between heart crafts, default 10
	StartingHearts   int16 `toml:"starting_hearts"`    // Default 10

	// Station cooldowns.
	MagmaCooldown  int16 `toml:"magma_cooldown"`  // Default 5
	OvenCooldown   int16 `toml:"oven_cooldown"`   // Default 5
	MarketCooldown int16 `toml:"market_cooldown"` // Default 8
	TempleCooldown int16 `toml:"temple_cooldown"` // Default 50

	// TerritoryReward is distributed per owned tile at truncation; 0
	// disables territory scoring rewards (the score itself is always
	// computed).
	TerritoryReward float32 `toml:"territory_reward"`

	Rewards Rewards `toml:"rewards"`
}

// Default returns the documented default configuration.
func Default() EnvConfig {
	return EnvConfig{
		MapWidth:      64,
		MapHeight:     64,
		NumTeams:      8,
		AgentsPerTeam: 16,
		MaxSteps:      10000,
		ObsRadius:     7,
		SightRadius:   5,

		TumorSpawnRate:            1.0,
		TumorBranchChance:         0.08,
		TumorAdjacencyDeathChance: 0.25,
		TumorMinBranchAge:         10,
		TumorsPerSpawner:          3,
		SpawnerCooldown:           40,

		AltarRespawnCost: 1,
		AltarCooldown:    10,
		StartingHearts:   10,

		MagmaCooldown:  5,
		OvenCooldown:   5,
		MarketCooldown: 8,
		TempleCooldown: 50,

		TerritoryReward: 0.001,

		Rewards: Rewards{
			Heart:     1.0,
			Ore:       0.02,
			Bar:       0.1,
			Wood:      0.01,
			Water:     0.01,
			Wheat:     0.01,
			Spear:     0.05,
			Armor:     0.05,
			Food:      0.01,
			Cloth:     0.05,
			TumorKill: 0.2,

			SurvivalPenalty: -0.0005,
			DeathPenalty:    -1.0,
		},
	}
}

// Load reads a TOML file over the defaults. Unknown keys are an error so
// typos in experiment configs fail loudly.
func Load(path string) (EnvConfig, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if undec := meta.Undecoded(); len(undec) > 0 {
		return cfg, fmt.Errorf("unknown config keys in %s: %v", path, undec)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects geometrically impossible configs.
func (c EnvConfig) Validate() error {
	if c.MapWidth < 8 || c.MapHeight < 8 {
		return fmt.Errorf("map %dx%d too small (min 8x8)", c.MapWidth, c.MapHeight)
	}
	if c.NumTeams < 1 || c.NumTeams > 16 {
		return fmt.Errorf("num_teams %d out of range [1,16]", c.NumTeams)
	}
	if c.AgentsPerTeam < 1 {
		return fmt.Errorf("agents_per_team %d out of range", c.AgentsPerTeam)
	}
	if c.ObsRadius < 1 {
		return fmt.Errorf("obs_radius %d out of range", c.ObsRadius)
	}
	if c.MaxSteps < 1 {
		return fmt.Errorf("max_steps %d out of range", c.MaxSteps)
	}
	return nil
}

// NumAgents returns the total agent slot count.
func (c EnvConfig) NumAgents() int {
	return c.NumTeams * c.AgentsPerTeam
}

// MustLoadOrDefault loads path when non-empty, exiting on error; otherwise
// returns defaults. CLI convenience.
func MustLoadOrDefault(path string) EnvConfig {
	if path == "" {
		return Default()
	}
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	return cfg
}
