package engine

import (
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// scoreTerritory runs once at truncation: a multi-source flood fill claims
// every reachable tile for the nearest team structure (altars and
// buildings seed the fill; ties claim nothing). The per-team score is
// owned tiles weighted by live unit count, and each surviving agent earns
// the configured per-tile territory reward.
func (e *Env) scoreTerritory() {
	w, h := e.Tiles.W, e.Tiles.H
	owner := make([]int8, int(w)*int(h))
	dist := make([]int32, int(w)*int(h))
	for i := range owner {
		owner[i] = -1
		dist[i] = -1
	}

	const contested = -2
	type seed struct {
		p    world.Pos
		team int8
	}
	var queue []seed

	for k := things.KindAltar; k <= things.KindDock; k++ {
		for _, b := range e.byKind[k] {
			if b.TeamID >= 0 && b.Alive() && b.Pos.OnGrid() {
				queue = append(queue, seed{b.Pos, b.TeamID})
			}
		}
	}
	for _, s := range queue {
		i := s.p.Y*w + s.p.X
		if dist[i] == 0 && owner[i] != s.team {
			owner[i] = contested
			continue
		}
		owner[i] = s.team
		dist[i] = 0
	}

	// BFS over passable terrain; equal-distance arrivals from different
	// teams mark the tile contested.
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		ci := cur.p.Y*w + cur.p.X
		if owner[ci] == contested {
			continue
		}
		for _, dir := range world.CardinalDirs {
			p := cur.p.Add(dir.Delta())
			tile := e.Tiles.At(p)
			if tile == nil || tile.Terrain.BlocksWalk() || tile.Terrain.IsWater() {
				continue
			}
			i := p.Y*w + p.X
			switch {
			case dist[i] < 0:
				dist[i] = dist[ci] + 1
				owner[i] = owner[ci]
				queue = append(queue, seed{p, owner[ci]})
			case dist[i] == dist[ci]+1 && owner[i] != owner[ci] && owner[i] != contested:
				owner[i] = contested
			}
		}
	}

	tilesOwned := make([]int32, e.cfg.NumTeams)
	for _, o := range owner {
		if o >= 0 {
			tilesOwned[o]++
		}
	}

	for t := 0; t < e.cfg.NumTeams; t++ {
		live := int32(e.teamPopulation(int8(t)))
		e.territoryScores[t] = tilesOwned[t] * live
	}

	if e.cfg.TerritoryReward == 0 {
		return
	}
	for _, a := range e.byKind[things.KindAgent] {
		if a.Alive() && a.TeamID >= 0 {
			e.rewards[a.AgentID] += e.cfg.TerritoryReward * float32(tilesOwned[a.TeamID])
		}
	}
}
