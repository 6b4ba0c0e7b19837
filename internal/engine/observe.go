package engine

import (
	"github.com/talgya/tribal-village/internal/config"
	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

// Observation layer indices. The tensor is row-major
// [agent][layer][y][x] of bytes; layers up to LayerDoor describe the tile
// under the window cell, the rest are broadcast fill layers for the
// observing agent.
const (
	LayerTerrain = iota
	LayerBiome
	LayerAgent     // 0 = none, else team+2
	LayerAgentClass
	LayerAgentHP
	LayerBlockingKind // Non-agent blocking thing
	LayerBlockingTeam
	LayerBlockingHP
	LayerOverlayKind
	LayerOverlayTeam
	LayerHearts
	LayerTint
	LayerDoor // 0 = none, else door team+2

	// Fill layers.
	LayerSelfFood
	LayerSelfWood
	LayerSelfStone
	LayerSelfGold
	LayerSelfWater
	LayerSelfOrient
	LayerTeamPop
	LayerTech

	NumLayers
)

// numCellLayers is the prefix of layers subject to the fog predicate.
const numCellLayers = LayerDoor + 1

func obsBytesPerAgent(cfg config.EnvConfig) int {
	ow := int(2*cfg.ObsRadius + 1)
	return NumLayers * ow * ow
}

// teamByte encodes a team id for a byte layer: 0 none, 1 neutral, else
// team+2.
func teamByte(team int8) uint8 {
	if team < 0 {
		return 1
	}
	return uint8(team) + 2
}

func clampByte(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// markVisibility records which tiles each team can currently see. Sight
// reaches cfg.SightRadius around every live agent; the observation window
// may be wider, and the fog predicate hides the difference.
func (e *Env) markVisibility() {
	r := e.cfg.SightRadius
	for _, a := range e.byKind[things.KindAgent] {
		if !a.Alive() || !a.Pos.OnGrid() {
			continue
		}
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				e.Tiles.MarkSeen(world.Pos{X: a.Pos.X + dx, Y: a.Pos.Y + dy}, a.TeamID)
			}
		}
	}
}

// refreshObservations is the end-of-tick canonical path: update team
// visibility, then do the full rebuild.
func (e *Env) refreshObservations() {
	e.markVisibility()
	e.rebuildObservations()
}

// RebuildObservations repacks the whole observation buffer from current
// state. It reads but never writes world state, so repeated calls produce
// identical bytes; the per-tick rebuild and this call are the same code
// path.
func (e *Env) RebuildObservations() {
	e.rebuildObservations()
}

func (e *Env) rebuildObservations() {
	clearBytes(e.observations)
	perAgent := obsBytesPerAgent(e.cfg)
	ow := int32(2*e.cfg.ObsRadius + 1)

	for id := 0; id < len(e.agents); id++ {
		a := e.agents[id]
		if a == nil || !a.Alive() || !a.Pos.OnGrid() || a.IsGarrisoned {
			continue
		}
		buf := e.observations[id*perAgent : (id+1)*perAgent]
		e.writeAgentWindow(buf, a, ow)
	}
}

func (e *Env) writeAgentWindow(buf []uint8, a *things.Thing, ow int32) {
	r := e.cfg.ObsRadius
	set := func(layer int, wx, wy int32, v uint8) {
		buf[(int32(layer)*ow+wy)*ow+wx] = v
	}

	for wy := int32(0); wy < ow; wy++ {
		for wx := int32(0); wx < ow; wx++ {
			p := world.Pos{X: a.Pos.X + wx - r, Y: a.Pos.Y + wy - r}
			tile := e.Tiles.At(p)
			if tile == nil {
				continue // Out-of-map cells stay zero
			}
			if e.cfg.FogOfView && !e.Tiles.SeenBy(p, a.TeamID) {
				continue // Unseen cells stay zero across all cell layers
			}

			set(LayerTerrain, wx, wy, uint8(tile.Terrain)+1)
			set(LayerBiome, wx, wy, uint8(tile.Biome)+1)
			set(LayerTint, wx, wy, tile.Tint)
			if tile.HasDoor() {
				set(LayerDoor, wx, wy, teamByte(tile.DoorTeam))
			}

			if t := e.grid.Blocking(p); t != nil {
				if t.Kind == things.KindAgent {
					set(LayerAgent, wx, wy, teamByte(t.TeamID))
					set(LayerAgentClass, wx, wy, uint8(t.Class)+1)
					set(LayerAgentHP, wx, wy, clampByte(int32(t.HP)))
				} else {
					set(LayerBlockingKind, wx, wy, uint8(t.Kind))
					set(LayerBlockingTeam, wx, wy, teamByte(t.TeamID))
					set(LayerBlockingHP, wx, wy, clampByte(int32(t.HP)))
					if t.Kind == things.KindAltar {
						set(LayerHearts, wx, wy, clampByte(int32(t.Hearts)))
					}
				}
			}
			if ov := e.grid.Overlay(p); ov != nil {
				set(LayerOverlayKind, wx, wy, uint8(ov.Kind))
				set(LayerOverlayTeam, wx, wy, teamByte(ov.TeamID))
			}
		}
	}

	// Broadcast fill layers.
	fill := func(layer int, v uint8) {
		base := int32(layer) * ow * ow
		for i := int32(0); i < ow*ow; i++ {
			buf[base+i] = v
		}
	}
	fill(LayerSelfFood, clampByte(int32(a.Inventory.Count(things.ItemFood))))
	fill(LayerSelfWood, clampByte(int32(a.Inventory.Count(things.ItemWood))))
	fill(LayerSelfStone, clampByte(int32(a.Inventory.Count(things.ItemStone))))
	fill(LayerSelfGold, clampByte(int32(a.Inventory.Count(things.ItemGold))))
	fill(LayerSelfWater, clampByte(int32(a.Inventory.Count(things.ItemWater))))
	fill(LayerSelfOrient, uint8(a.Orientation)+1)
	fill(LayerTeamPop, clampByte(int32(e.teamPopulation(a.TeamID))))
	var tech uint8
	if a.TeamID >= 0 && e.murderHoles[a.TeamID] {
		tech |= 1
	}
	fill(LayerTech, tech)
}
