package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// herdRadius is how far a mob may stray from its group centroid before it
// turns back.
const herdRadius = 4

// mobWanderChance is the per-tick probability an in-formation mob takes a
// random step.
const mobWanderChance = 0.15

// mobStep aggregates per-group centroids, picks a drift target per group,
// and steps every mob: back toward the centroid when farther than herdRadius
// from it, otherwise an occasional random wander or a step toward the drift
// target.
func (e *Env) mobStep() {
	for _, kind := range []things.Kind{things.KindCow, things.KindWolf, things.KindBear} {
		groups := map[int16][]*things.Thing{}
		var order []int16
		for _, m := range e.byKind[kind] {
			if !m.Alive() || !m.Pos.OnGrid() {
				continue
			}
			if _, ok := groups[m.HerdID]; !ok {
				order = append(order, m.HerdID)
			}
			groups[m.HerdID] = append(groups[m.HerdID], m)
		}
		// Iterate groups in first-seen order; map range order is not
		// deterministic.
		for _, gid := range order {
			members := groups[gid]
			centroid := groupCentroid(members)
			drift := e.driftTarget(kind, centroid)
			for _, m := range members {
				e.stepMob(m, centroid, drift)
			}
		}
	}
}

func groupCentroid(members []*things.Thing) world.Pos {
	var sx, sy int64
	for _, m := range members {
		sx += int64(m.Pos.X)
		sy += int64(m.Pos.Y)
	}
	n := int64(len(members))
	return world.Pos{X: int32(sx / n), Y: int32(sy / n)}
}

// driftTarget picks where a group wants to go: cows head for a random map
// corner, predators for the nearest prey around their centroid.
func (e *Env) driftTarget(kind things.Kind, centroid world.Pos) world.Pos {
	if kind == things.KindCow {
		corners := [4]world.Pos{
			{X: 1, Y: 1},
			{X: e.Tiles.W - 2, Y: 1},
			{X: 1, Y: e.Tiles.H - 2},
			{X: e.Tiles.W - 2, Y: e.Tiles.H - 2},
		}
		return corners[e.rng.Intn(4)]
	}
	if prey := e.grid.NearestEnemyAgent(centroid, -2, 0, 12); prey != nil {
		return prey.Pos
	}
	if cow := e.grid.NearestKind(centroid, things.KindCow, 12); cow != nil {
		return cow.Pos
	}
	return centroid
}

// stepMob moves one mob a single tile.
func (e *Env) stepMob(m *things.Thing, centroid, drift world.Pos) {
	var target world.Pos
	switch {
	case m.Pos.Chebyshev(centroid) > herdRadius:
		target = centroid
	case e.rng.Chance(mobWanderChance):
		d := world.Deltas[e.rng.Intn(int(world.NumDirs))]
		target = m.Pos.Add(d)
	default:
		target = drift
	}
	if target == m.Pos {
		return
	}
	step := world.Delta{DX: sign(target.X - m.Pos.X), DY: sign(target.Y - m.Pos.Y)}
	to := m.Pos.Add(step)
	if e.isEmpty(to, -1) {
		e.grid.Move(m, to)
	}
}

func sign(v int32) int32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// predatorMelee lets wolves and bears bite one adjacent agent or tumor per
// tick, gated by a short cooldown.
func (e *Env) predatorMelee() {
	for _, kind := range []things.Kind{things.KindWolf, things.KindBear} {
		dmg := int16(2)
		if kind == things.KindBear {
			dmg = 3
		}
		for _, p := range e.byKind[kind] {
			if !p.Alive() || !p.Pos.OnGrid() || p.Cooldown > 0 {
				continue
			}
			for _, d := range world.Deltas {
				t := e.grid.Blocking(p.Pos.Add(d))
				if t == nil {
					continue
				}
				if t.Kind == things.KindAgent && t.Alive() {
					e.damageAgent(nil, t, dmg)
					p.Cooldown = 2
					break
				}
				if t.Kind == things.KindTumor {
					e.removeThing(t)
					p.Cooldown = 2
					break
				}
			}
		}
	}
}
