// Package world provides the tile map: terrain, biomes, per-tile state, and
// the deterministic map generator that seeds a fresh episode.
package world

import "fmt"

// Pos is a tile coordinate. X grows east, Y grows south.
type Pos struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// OffGrid marks a thing that currently occupies no tile (garrisoned units).
var OffGrid = Pos{-1, -1}

// OnGrid reports whether p is a real tile coordinate (bounds are checked by
// the grid, not here).
func (p Pos) OnGrid() bool {
	return p.X >= 0 && p.Y >= 0
}

// Add offsets p by d.
func (p Pos) Add(d Delta) Pos {
	return Pos{p.X + d.DX, p.Y + d.DY}
}

// Chebyshev returns max(|dx|, |dy|), the grid's distance metric.
func (p Pos) Chebyshev(q Pos) int32 {
	dx := p.X - q.X
	if dx < 0 {
		dx = -dx
	}
	dy := p.Y - q.Y
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Delta is a single-step offset.
type Delta struct {
	DX, DY int32
}

// Dir is one of the eight compass orientations.
type Dir uint8

// Direction order is part of the action encoding and never changes.
const (
	DirN Dir = iota
	DirS
	DirW
	DirE
	DirNW
	DirNE
	DirSW
	DirSE
	NumDirs
)

// Deltas maps each direction to its step offset.
var Deltas = [NumDirs]Delta{
	{0, -1},  // N
	{0, 1},   // S
	{-1, 0},  // W
	{1, 0},   // E
	{-1, -1}, // NW
	{1, -1},  // NE
	{-1, 1},  // SW
	{1, 1},   // SE
}

// CardinalDirs lists the four cardinal directions, in encoding order.
var CardinalDirs = [4]Dir{DirN, DirS, DirW, DirE}

// Delta returns the step offset for d.
func (d Dir) Delta() Delta {
	return Deltas[d]
}

// Perpendicular returns the two offsets at right angles to d, used for
// arc and area attacks.
func (d Dir) Perpendicular() [2]Delta {
	dd := Deltas[d]
	return [2]Delta{{-dd.DY, dd.DX}, {dd.DY, -dd.DX}}
}

var dirNames = [NumDirs]string{"N", "S", "W", "E", "NW", "NE", "SW", "SE"}

func (d Dir) String() string {
	if d < NumDirs {
		return dirNames[d]
	}
	return fmt.Sprintf("Dir(%d)", uint8(d))
}
