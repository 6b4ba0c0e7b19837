package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// enforceZeroHPDeaths finalizes every agent whose HP reached zero: its
// inventory drops as a corpse, its tile clears, its termination flag sets,
// and the death penalty lands. The slot stays allocated for respawn.
func (e *Env) enforceZeroHPDeaths() {
	for _, a := range e.byKind[things.KindAgent] {
		if a.HP > 0 || !a.Pos.OnGrid() {
			continue
		}
		pos := a.Pos
		inv := a.Inventory
		e.grid.clear(a)
		a.Pos = world.OffGrid
		a.Inventory.Clear()

		if !inv.IsEmpty() && e.grid.Blocking(pos) == nil {
			corpse := &things.Thing{
				Kind: things.KindCorpse, Pos: pos, TeamID: -1,
				HP: 1, MaxHP: 1, Inventory: inv,
				HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
			}
			e.addThing(corpse)
		}

		e.terminated[a.AgentID] = 1
		e.stats[a.AgentID].Deaths++
		e.rewards[a.AgentID] += e.cfg.Rewards.DeathPenalty
	}
}

// auraEffects applies the passive per-tick class auras: tanks slowly
// regenerate, monks mend adjacent allies.
func (e *Env) auraEffects() {
	for _, a := range e.byKind[things.KindAgent] {
		if !a.Alive() || !a.Pos.OnGrid() {
			continue
		}
		switch a.Class {
		case things.ClassTank:
			if a.HP < a.MaxHP {
				a.HP++
			}
		case things.ClassMonk:
			for _, d := range world.Deltas {
				t := e.grid.Blocking(a.Pos.Add(d))
				if t != nil && t.Kind == things.KindAgent && t.TeamID == a.TeamID &&
					t.Alive() && t.HP < t.MaxHP {
					t.HP++
				}
			}
		}
	}
}

// templeReproduction materializes a child villager when two adjacent
// friendly non-Goblin agents flank a cooled-down Temple, the team has a
// free slot and pop headroom, and the team altar can fund it.
func (e *Env) templeReproduction() {
	for _, temple := range e.byKind[things.KindTemple] {
		if !temple.Alive() || !temple.Pos.OnGrid() || temple.Cooldown > 0 || temple.TeamID < 0 {
			continue
		}
		team := temple.TeamID

		var parents []*things.Thing
		for _, d := range world.Deltas {
			t := e.grid.Blocking(temple.Pos.Add(d))
			if t != nil && t.Kind == things.KindAgent && t.TeamID == team &&
				t.Alive() && t.Class != things.ClassGoblin {
				parents = append(parents, t)
				if len(parents) == 2 {
					break
				}
			}
		}
		if len(parents) < 2 {
			continue
		}
		if e.teamPopulation(team) >= e.teamPopCap(team) {
			continue
		}
		slot := e.dormantSlot(team)
		if slot < 0 {
			continue
		}
		altar := e.nearestTeamAltar(temple.Pos, team)
		if altar == nil || altar.Hearts < e.cfg.AltarRespawnCost {
			continue
		}
		birthTile := world.OffGrid
		for _, d := range world.Deltas {
			p := temple.Pos.Add(d)
			if e.isEmpty(p, team) {
				birthTile = p
				break
			}
		}
		if !birthTile.OnGrid() {
			continue
		}

		altar.Hearts -= e.cfg.AltarRespawnCost
		child := e.reviveSlot(slot, team, things.ClassVillager, birthTile)
		temple.Cooldown = e.cfg.TempleCooldown
		e.interactions = append(e.interactions, Interaction{
			Tick:    e.currentStep,
			ParentA: parents[0].AgentID,
			ParentB: parents[1].AgentID,
			Child:   child.AgentID,
		})
	}
}

// respawnDead brings dead agents back at their home altar: the altar must
// exist, hold enough hearts, have a free adjacent tile, and the team must
// sit under its pop cap. Otherwise the agent stays dead this tick.
func (e *Env) respawnDead() {
	for id := 0; id < len(e.agents); id++ {
		a := e.agents[id]
		if a == nil || a.Alive() || a.IsGarrisoned || !a.HomeAltar.OnGrid() {
			continue
		}
		altarThing := e.grid.Blocking(a.HomeAltar)
		if altarThing == nil || altarThing.Kind != things.KindAltar {
			continue
		}
		// A conquered home altar no longer funds the old team.
		team := a.TeamID
		if team < 0 || altarThing.TeamID != team {
			continue
		}
		if e.teamPopulation(team) >= e.teamPopCap(team) {
			continue
		}
		if altarThing.Hearts < e.cfg.AltarRespawnCost {
			continue
		}
		spawnAt := world.OffGrid
		for _, d := range world.Deltas {
			p := a.HomeAltar.Add(d)
			if e.isEmpty(p, team) {
				spawnAt = p
				break
			}
		}
		if !spawnAt.OnGrid() {
			continue
		}

		altarThing.Hearts -= e.cfg.AltarRespawnCost
		e.reviveSlot(int32(id), team, things.ClassVillager, spawnAt)
		a.HomeAltar = altarThing.Pos
		e.stats[id].Respawns++
	}
}
