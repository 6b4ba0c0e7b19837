package engine

import (
	"strings"

	"github.com/talgya/tribal-village/internal/things"
	"github.com/talgya/tribal-village/internal/world"
)

var terrainGlyphs = map[world.Terrain]byte{
	world.TerrainEmpty:        '.',
	world.TerrainGrass:        ',',
	world.TerrainSand:         ':',
	world.TerrainSnow:         '_',
	world.TerrainDune:         ';',
	world.TerrainFertile:      '"',
	world.TerrainRoad:         '=',
	world.TerrainBridge:       '#',
	world.TerrainWater:        '~',
	world.TerrainShallowWater: '-',
	world.TerrainMountain:     '^',
	world.TerrainWheat:        'w',
	world.TerrainTree:         't',
	world.TerrainPalm:         'p',
	world.TerrainStone:        's',
	world.TerrainGold:         'g',
	world.TerrainBush:         'b',
	world.TerrainCactus:       'c',
	world.TerrainStalagmite:   'i',
}

var kindGlyphs = map[things.Kind]byte{
	things.KindAltar:      'A',
	things.KindTownCenter: 'C',
	things.KindHouse:      'H',
	things.KindWall:       'W',
	things.KindGuardTower: 'G',
	things.KindCastle:     'K',
	things.KindGranary:    'R',
	things.KindStorehouse: 'S',
	things.KindClayOven:   'O',
	things.KindWeavingLoom: 'L',
	things.KindBlacksmith: 'B',
	things.KindMarket:     'M',
	things.KindMagma:      'm',
	things.KindTemple:     'T',
	things.KindBarracks:   'X',
	things.KindDock:       'D',
	things.KindCow:        'o',
	things.KindWolf:       'v',
	things.KindBear:       'u',
	things.KindSpawner:    '&',
	things.KindTumor:      '*',
	things.KindWheatNode:  'w',
	things.KindTreeNode:   't',
	things.KindBushNode:   'b',
	things.KindStoneNode:  's',
	things.KindGoldNode:   'g',
	things.KindFishNode:   'f',
	things.KindLantern:    '!',
	things.KindRelic:      '?',
	things.KindCorpse:     '%',
	things.KindSkeleton:   'x',
	things.KindStump:      'n',
	things.KindStubble:    'q',
}

// Render draws the map as ASCII for debugging: agents show their team
// digit (mod 10), other things their kind glyph, bare tiles their terrain.
func (e *Env) Render() string {
	var sb strings.Builder
	sb.Grow(int(e.Tiles.W+1) * int(e.Tiles.H))
	for y := int32(0); y < e.Tiles.H; y++ {
		for x := int32(0); x < e.Tiles.W; x++ {
			p := world.Pos{X: x, Y: y}
			ch := terrainGlyphs[e.Tiles.At(p).Terrain]
			if ov := e.grid.Overlay(p); ov != nil {
				if g, ok := kindGlyphs[ov.Kind]; ok {
					ch = g
				}
			}
			if t := e.grid.Blocking(p); t != nil {
				if t.Kind == things.KindAgent {
					ch = byte('0' + int(t.TeamID)%10)
				} else if g, ok := kindGlyphs[t.Kind]; ok {
					ch = g
				}
			}
			sb.WriteByte(ch)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
