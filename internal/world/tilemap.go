package world

// Tile is the per-cell ground state. Thing occupancy lives in the engine's
// grid layers, not here.
type Tile struct {
	Terrain   Terrain `json:"terrain"`
	Biome     Biome   `json:"biome"`
	Elevation int8    `json:"elevation"`
	Yield     uint8   `json:"yield"` // Remaining harvests for resource terrain

	// Door metadata. A door blocks enemies of DoorTeam while open to allies.
	// DoorTeam is -1 when the tile has no door.
	DoorTeam int8  `json:"door_team"`
	DoorHP   int16 `json:"door_hp"`

	// Tint is a visual-effect code that decays each tick; Frozen marks the
	// tile non-interactable for the current tick.
	Tint   uint8 `json:"tint"`
	Frozen bool  `json:"frozen"`

	// Seen is a per-team bitmask of teams that have had the tile within sight
	// radius of one of their live agents this episode. Drives the fog predicate.
	Seen uint16 `json:"seen"`
}

// HasDoor reports whether the tile carries a live door.
func (t *Tile) HasDoor() bool {
	return t.DoorTeam >= 0 && t.DoorHP > 0
}

// TileMap is the dense W×H ground layer.
type TileMap struct {
	W, H  int32
	Tiles []Tile // Row-major, index = y*W + x
}

// NewTileMap creates an all-empty map with doors cleared.
func NewTileMap(w, h int32) *TileMap {
	m := &TileMap{W: w, H: h, Tiles: make([]Tile, int(w)*int(h))}
	for i := range m.Tiles {
		m.Tiles[i].DoorTeam = -1
	}
	return m
}

// InBounds reports whether p is on the map.
func (m *TileMap) InBounds(p Pos) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < m.W && p.Y < m.H
}

// At returns the tile at p, or nil when p is off the map.
func (m *TileMap) At(p Pos) *Tile {
	if !m.InBounds(p) {
		return nil
	}
	return &m.Tiles[p.Y*m.W+p.X]
}

// SetTerrain stamps terrain at p and resets the tile's resource yield.
func (m *TileMap) SetTerrain(p Pos, t Terrain) {
	tile := m.At(p)
	if tile == nil {
		return
	}
	tile.Terrain = t
	tile.Yield = t.ResourceYield()
}

// MarkSeen records that team has observed the tile at p this episode.
func (m *TileMap) MarkSeen(p Pos, team int8) {
	if team < 0 {
		return
	}
	if tile := m.At(p); tile != nil {
		tile.Seen |= 1 << uint(team)
	}
}

// SeenBy reports whether team has observed the tile at p.
func (m *TileMap) SeenBy(p Pos, team int8) bool {
	if team < 0 {
		return true
	}
	tile := m.At(p)
	return tile != nil && tile.Seen&(1<<uint(team)) != 0
}

// DecayTints steps every tile's tint code toward zero. Frozen flags clear
// with the tint that produced them.
func (m *TileMap) DecayTints() {
	for i := range m.Tiles {
		t := &m.Tiles[i]
		if t.Tint > 0 {
			t.Tint--
		}
		if t.Tint == 0 {
			t.Frozen = false
		}
	}
}
