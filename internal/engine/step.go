package engine

import (
	"github.com/talgya/tribal-village/internal/entropy"
	"github.com/talgya/tribal-village/internal/things"
)

// Step advances the world by one tick. actions holds one byte per agent
// slot (verb*ARGC + arg). The phase order below is the determinism
// contract: later phases see earlier phases' effects, and agents resolve
// in ascending agent id.
func (e *Env) Step(actions []uint8) {
	if e.episodeDone {
		return
	}

	// The tick's random stream derives from the step counter and the
	// environment seed; nothing else feeds it.
	e.rng = entropy.NewStream(uint64(e.currentStep) ^ e.seed)

	for i := range e.rewards {
		e.rewards[i] = 0
	}

	// 1. Upkeep: visual decay, shield countdown, deaths queued last tick.
	e.Tiles.DecayTints()
	e.tickShieldsAndCooldowns()
	e.enforceZeroHPDeaths()

	// 2. Agent actions in ascending agent id order.
	for id := 0; id < len(e.agents); id++ {
		a := e.agents[id]
		if a == nil || !a.Alive() || a.IsGarrisoned {
			continue
		}
		var act uint8
		if id < len(actions) {
			act = actions[id]
		}
		e.execute(a, Verb(act/ARGC), act%ARGC)
	}

	// 3. World combat and mobs.
	e.towerAttacks()
	e.tickBuildingCooldowns()
	e.mobStep()
	e.predatorMelee()
	e.tumorSpawning()

	// 4. Tumor dynamics, auras, deaths, reproduction, respawns.
	e.tumorBranching()
	e.tumorLethalAdjacency()
	e.auraEffects()
	e.enforceZeroHPDeaths()
	e.templeReproduction()
	e.respawnDead()

	// 5. Per-tick reward drains and the canonical observation rebuild.
	e.applySurvivalPenalty()
	e.refreshObservations()

	// 6. Episode bookkeeping.
	e.currentStep++
	if e.currentStep >= e.cfg.MaxSteps {
		e.truncateEpisode()
	}
	e.checkEpisodeDone()
}

// tickShieldsAndCooldowns advances agent shield bands and frozen counters.
func (e *Env) tickShieldsAndCooldowns() {
	for _, a := range e.byKind[things.KindAgent] {
		if a.ShieldCountdown > 0 {
			a.ShieldCountdown--
		}
		if a.Frozen > 0 {
			a.Frozen--
		}
		if a.Cooldown > 0 {
			a.Cooldown--
		}
	}
}

// tickBuildingCooldowns steps craft/production cooldowns for every
// structure kind, plus mobs' attack cooldowns.
func (e *Env) tickBuildingCooldowns() {
	for k := things.KindAltar; k <= things.KindDock; k++ {
		for _, b := range e.byKind[k] {
			if b.Cooldown > 0 {
				b.Cooldown--
			}
		}
	}
	for _, k := range []things.Kind{things.KindCow, things.KindWolf, things.KindBear} {
		for _, m := range e.byKind[k] {
			if m.Cooldown > 0 {
				m.Cooldown--
			}
		}
	}
}

// applySurvivalPenalty drains every alive agent by the configured per-tick
// amount.
func (e *Env) applySurvivalPenalty() {
	for _, a := range e.byKind[things.KindAgent] {
		if a.Alive() {
			e.rewards[a.AgentID] += e.cfg.Rewards.SurvivalPenalty
		}
	}
}

// truncateEpisode marks all alive agents truncated and scores territory
// once.
func (e *Env) truncateEpisode() {
	for id, a := range e.agents {
		if a != nil && a.Alive() {
			e.truncated[id] = 1
		}
	}
	e.scoreTerritory()
}

// checkEpisodeDone latches the episode-over flag once every agent slot is
// terminated or truncated.
func (e *Env) checkEpisodeDone() {
	for id := range e.agents {
		if e.terminated[id] == 0 && e.truncated[id] == 0 {
			return
		}
	}
	e.episodeDone = true
}
