package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// actAttack resolves Verb 2. Orientation updates even when the attack
// finds no target.
func (e *Env) actAttack(a *things.Thing, arg uint8) bool {
	if arg >= uint8(world.NumDirs) {
		return false
	}
	dir := world.Dir(arg)
	a.Orientation = dir

	switch a.Class {
	case things.ClassMonk:
		return e.monkConvert(a, dir)
	case things.ClassMangonel:
		return e.mangonelVolley(a, dir)
	case things.ClassBoat:
		return e.boatArc(a, dir)
	}

	attackRange := things.StatsFor(a.Class).AttackRange
	spearRange := false
	if attackRange < 2 && a.Inventory.Count(things.ItemSpear) > 0 {
		attackRange = 2
		spearRange = true
	}

	d := dir.Delta()
	for dist := int32(1); dist <= attackRange; dist++ {
		p := world.Pos{X: a.Pos.X + d.DX*dist, Y: a.Pos.Y + d.DY*dist}
		hit, blocked := e.strikeAt(a, p)
		if hit {
			if spearRange && dist >= 2 {
				a.Inventory.Remove(things.ItemSpear, 1)
			}
			return true
		}
		if blocked {
			return false
		}
	}
	return false
}

// strikeAt applies one attack to the tile at p. Returns (hit, blocked):
// blocked means something un-attackable stops the scan.
func (e *Env) strikeAt(a *things.Thing, p world.Pos) (bool, bool) {
	tile := e.Tiles.At(p)
	if tile == nil {
		return false, true
	}

	// Enemy doors absorb the hit before anything on the tile.
	if tile.HasDoor() && tile.DoorTeam != a.TeamID {
		tile.DoorHP -= a.AttackDamage
		if tile.DoorHP <= 0 {
			tile.DoorHP = 0
			tile.DoorTeam = -1
		}
		return true, false
	}

	t := e.grid.Blocking(p)
	if t == nil {
		return false, false
	}

	switch {
	case t.Kind == things.KindTumor || t.Kind == things.KindSpawner:
		e.removeThing(t)
		e.reward(a, e.cfg.Rewards.TumorKill)
		return true, false

	case t.Kind == things.KindAgent:
		if t.TeamID == a.TeamID {
			return false, true
		}
		e.damageAgent(a, t, a.AttackDamage)
		return true, false

	case t.Kind == things.KindAltar:
		if t.TeamID == a.TeamID {
			return false, true
		}
		t.Hearts--
		if t.Hearts <= 0 {
			e.conquerAltar(t, a.TeamID)
		}
		return true, false

	case t.Kind.IsMob():
		e.damageMob(a, t, a.AttackDamage)
		return true, false

	case t.Kind == things.KindTreeNode:
		e.harvestNode(a, t)
		return true, false

	case t.Kind.IsBuilding():
		if t.TeamID == a.TeamID {
			return false, true
		}
		t.HP -= a.AttackDamage
		if t.HP <= 0 {
			e.razeBuilding(t)
		}
		return true, false
	}

	return false, true
}

// damageAgent applies damage to an enemy agent, honoring the armor shield
// band: a held Armor is consumed on the first hit and opens a two-tick
// shield window.
func (e *Env) damageAgent(attacker, victim *things.Thing, dmg int16) {
	if victim.Inventory.Count(things.ItemArmor) > 0 && victim.ShieldCountdown == 0 {
		victim.Inventory.Remove(things.ItemArmor, 1)
		victim.ShieldCountdown = 2
	}
	victim.HP -= dmg
	if victim.HP <= 0 {
		victim.HP = 0
		if attacker != nil && attacker.Kind == things.KindAgent {
			e.stats[attacker.AgentID].Kills++
		}
	}
}

// damageMob hurts a neutral animal; a kill drops Meat to the attacker and
// leaves a Corpse carrying the remaining yield.
func (e *Env) damageMob(attacker, mob *things.Thing, dmg int16) {
	mob.HP -= dmg
	if mob.HP > 0 {
		return
	}
	if attacker != nil && attacker.Kind == things.KindAgent {
		got := e.agentGain(attacker, things.ItemMeat, 1)
		mob.Inventory.Remove(things.ItemMeat, got)
		e.harvestReward(attacker, things.ItemMeat)
		e.stats[attacker.AgentID].Kills++
	}
	pos := mob.Pos
	remaining := mob.Inventory
	e.removeThing(mob)
	if !remaining.IsEmpty() {
		corpse := &things.Thing{
			Kind: things.KindCorpse, Pos: pos, TeamID: -1,
			HP: 1, MaxHP: 1, Inventory: remaining,
			HomeAltar: world.OffGrid, HomeSpawner: world.OffGrid,
		}
		e.addThing(corpse)
	}
}

// conquerAltar transfers a razed-to-zero altar and the old team's doors to
// the conquering team. Other buildings keep their previous owner.
func (e *Env) conquerAltar(altar *things.Thing, newTeam int8) {
	oldTeam := altar.TeamID
	altar.TeamID = newTeam
	altar.Hearts = 0
	for i := range e.Tiles.Tiles {
		tile := &e.Tiles.Tiles[i]
		if tile.DoorTeam == oldTeam {
			tile.DoorTeam = newTeam
		}
	}
}

// monkConvert flips an adjacent enemy agent to the monk's team.
func (e *Env) monkConvert(monk *things.Thing, dir world.Dir) bool {
	p := monk.Pos.Add(dir.Delta())
	t := e.grid.Blocking(p)
	if t == nil || t.Kind != things.KindAgent || !t.Alive() || t.TeamID == monk.TeamID {
		return false
	}
	t.TeamOverride = monk.TeamID
	t.TeamID = monk.TeamID
	if altar := e.nearestTeamAltar(t.Pos, monk.TeamID); altar != nil {
		t.HomeAltar = altar.Pos
	} else {
		t.HomeAltar = world.OffGrid
	}
	e.stats[monk.AgentID].Conversions++
	return true
}

func (e *Env) nearestTeamAltar(origin world.Pos, team int8) *things.Thing {
	var best *things.Thing
	var bestD int32
	for _, alt := range e.byKind[things.KindAltar] {
		if alt.TeamID != team || !alt.Pos.OnGrid() {
			continue
		}
		d := origin.Chebyshev(alt.Pos)
		if best == nil || d < bestD || (d == bestD && alt.ID < best.ID) {
			best, bestD = alt, d
		}
	}
	return best
}

// mangonelVolley hits the cell two tiles forward plus its two perpendicular
// neighbors.
func (e *Env) mangonelVolley(a *things.Thing, dir world.Dir) bool {
	d := dir.Delta()
	center := world.Pos{X: a.Pos.X + 2*d.DX, Y: a.Pos.Y + 2*d.DY}
	perp := dir.Perpendicular()
	cells := [3]world.Pos{center, center.Add(perp[0]), center.Add(perp[1])}
	return e.areaStrike(a, cells[:])
}

// boatArc hits the three tiles in the forward arc at range one.
func (e *Env) boatArc(a *things.Thing, dir world.Dir) bool {
	d := dir.Delta()
	front := a.Pos.Add(d)
	perp := dir.Perpendicular()
	cells := [3]world.Pos{front, front.Add(perp[0]), front.Add(perp[1])}
	return e.areaStrike(a, cells[:])
}

// areaStrike damages every enemy agent, mob, tumor or spawner in the given
// cells; it succeeds when at least one target was hit.
func (e *Env) areaStrike(a *things.Thing, cells []world.Pos) bool {
	hit := false
	for _, p := range cells {
		t := e.grid.Blocking(p)
		if t == nil {
			continue
		}
		switch {
		case t.Kind == things.KindAgent && t.TeamID != a.TeamID && t.Alive():
			e.damageAgent(a, t, a.AttackDamage)
			hit = true
		case t.Kind.IsMob():
			e.damageMob(a, t, a.AttackDamage)
			hit = true
		case t.Kind == things.KindTumor || t.Kind == things.KindSpawner:
			e.removeThing(t)
			e.reward(a, e.cfg.Rewards.TumorKill)
			hit = true
		}
	}
	return hit
}
