package things

import (
	"fmt"

	"github.com/talgya/tribal-village/internal/world"
)

// Kind tags the variant of a Thing.
type Kind uint8

const (
	KindNone Kind = iota
	KindAgent

	// Buildings.
	KindAltar
	KindTownCenter
	KindHouse
	KindWall
	KindGuardTower
	KindCastle
	KindGranary
	KindStorehouse
	KindClayOven
	KindWeavingLoom
	KindBlacksmith
	KindMarket
	KindMagma
	KindTemple
	KindBarracks
	KindDock

	// Mobs.
	KindCow
	KindWolf
	KindBear

	// Hostile growths.
	KindSpawner
	KindTumor

	// Resource nodes (things carrying their remaining yield in inventory).
	KindWheatNode
	KindTreeNode
	KindBushNode
	KindStoneNode
	KindGoldNode
	KindFishNode

	// Overlay things.
	KindLantern
	KindRelic

	// Markers left behind by harvesting and death.
	KindCorpse
	KindSkeleton
	KindStump
	KindStubble

	KindCount
)

var kindNames = [KindCount]string{
	"none", "agent",
	"altar", "town_center", "house", "wall", "guard_tower", "castle",
	"granary", "storehouse", "clay_oven", "weaving_loom", "blacksmith",
	"market", "magma", "temple", "barracks", "dock",
	"cow", "wolf", "bear",
	"spawner", "tumor",
	"wheat_node", "tree_node", "bush_node", "stone_node", "gold_node",
	"fish_node",
	"lantern", "relic",
	"corpse", "skeleton", "stump", "stubble",
}

// KindName returns a lowercase identifier for logs and the recorder.
func KindName(k Kind) string {
	if k < KindCount {
		return kindNames[k]
	}
	return "unknown"
}

// IsBuilding reports whether k is a structure.
func (k Kind) IsBuilding() bool {
	return k >= KindAltar && k <= KindDock
}

// IsMob reports whether k is a neutral animal.
func (k Kind) IsMob() bool {
	return k == KindCow || k == KindWolf || k == KindBear
}

// IsPredator reports whether k hunts agents and tumors.
func (k Kind) IsPredator() bool {
	return k == KindWolf || k == KindBear
}

// IsResourceNode reports whether Use on k harvests from its inventory.
func (k Kind) IsResourceNode() bool {
	return k >= KindWheatNode && k <= KindFishNode
}

// IsMarker reports whether k is a harvest-stage or death marker.
func (k Kind) IsMarker() bool {
	return k >= KindCorpse && k <= KindStubble
}

// Overlay reports whether k lives on the non-blocking overlay grid.
func (k Kind) Overlay() bool {
	return k == KindLantern || k == KindRelic
}

// Blocking reports whether k occupies the blocking grid when on a tile.
func (k Kind) Blocking() bool {
	return k != KindNone && !k.Overlay()
}

// NodeItem returns the item a resource node yields per harvest.
func (k Kind) NodeItem() Item {
	switch k {
	case KindWheatNode:
		return ItemWheat
	case KindTreeNode:
		return ItemWood
	case KindBushNode:
		return ItemFood
	case KindStoneNode:
		return ItemStone
	case KindGoldNode:
		return ItemGold
	case KindFishNode:
		return ItemFish
	}
	return ItemFood
}

// ExhaustedMarker returns the marker kind a depleted node or slain mob
// leaves behind, or KindNone when the thing just disappears.
func (k Kind) ExhaustedMarker() Kind {
	switch k {
	case KindTreeNode:
		return KindStump
	case KindWheatNode:
		return KindStubble
	case KindCow, KindWolf, KindBear:
		return KindSkeleton
	}
	return KindNone
}

// ID identifies a thing for the lifetime of an episode. IDs are never
// reused within an episode.
type ID uint32

// Thing is the single entity struct shared by every kind. Kind-specific
// fields sit below the common header and are meaningful only for the kinds
// noted on each group.
type Thing struct {
	ID          ID        `json:"id"`
	Kind        Kind      `json:"kind"`
	Pos         world.Pos `json:"pos"` // OffGrid while garrisoned
	TeamID      int8      `json:"team_id"` // -1 = neutral
	Orientation world.Dir `json:"orientation"`
	HP          int16     `json:"hp"`
	MaxHP       int16     `json:"max_hp"`
	Cooldown    int16     `json:"cooldown"`
	Inventory   Inventory `json:"inventory"`
	Frozen      uint8     `json:"frozen"`

	// Agent fields.
	AgentID         int32     `json:"agent_id"` // Global slot; encodes the default team
	HomeAltar       world.Pos `json:"home_altar"`
	Class           UnitClass `json:"class"`
	AttackDamage    int16     `json:"attack_damage"`
	ShieldCountdown int16     `json:"shield_countdown"`
	IsGarrisoned    bool      `json:"is_garrisoned"`
	// TeamOverride is set when a Monk converts the agent; -1 means the
	// default team from AgentID applies.
	TeamOverride int8 `json:"team_override"`

	// Altar fields.
	Hearts int16 `json:"hearts"`

	// Building fields.
	Garrison   []*Thing  `json:"-"`
	RallyPoint world.Pos `json:"rally_point"`

	// Spawner / tumor fields.
	HomeSpawner         world.Pos `json:"home_spawner"`
	HasClaimedTerritory bool      `json:"has_claimed_territory"`
	TurnsAlive          int16     `json:"turns_alive"`

	// Mob fields.
	HerdID int16 `json:"herd_id"`
}

// Alive reports whether the thing still has hit points.
func (t *Thing) Alive() bool {
	return t.HP > 0
}

func (t *Thing) String() string {
	return fmt.Sprintf("%s#%d%s", KindName(t.Kind), t.ID, t.Pos)
}

// NewAgent creates a live agent of the given class at p. agentID encodes
// the default team as agentID / agentsPerTeam.
func NewAgent(id ID, agentID int32, team int8, class UnitClass, p world.Pos) *Thing {
	st := StatsFor(class)
	return &Thing{
		ID:           id,
		Kind:         KindAgent,
		Pos:          p,
		TeamID:       team,
		HP:           st.MaxHP,
		MaxHP:        st.MaxHP,
		AgentID:      agentID,
		HomeAltar:    world.OffGrid,
		Class:        class,
		AttackDamage: st.AttackDamage,
		TeamOverride: -1,
	}
}

// NewBuilding creates a structure of kind k owned by team at p.
func NewBuilding(id ID, k Kind, team int8, p world.Pos) *Thing {
	info := BuildingFor(k)
	return &Thing{
		ID:          id,
		Kind:        k,
		Pos:         p,
		TeamID:      team,
		HP:          info.MaxHP,
		MaxHP:       info.MaxHP,
		RallyPoint:  world.OffGrid,
		HomeSpawner: world.OffGrid,
		HomeAltar:   world.OffGrid,
	}
}

// NewMob creates a neutral animal belonging to herd/pack group.
func NewMob(id ID, k Kind, group int16, p world.Pos) *Thing {
	hp := int16(8)
	if k.IsPredator() {
		hp = 12
	}
	t := &Thing{
		ID:          id,
		Kind:        k,
		Pos:         p,
		TeamID:      -1,
		HP:          hp,
		MaxHP:       hp,
		HerdID:      group,
		HomeAltar:   world.OffGrid,
		HomeSpawner: world.OffGrid,
	}
	// Mobs carry their meat yield like resource nodes carry theirs.
	t.Inventory[ItemMeat] = 2
	return t
}

// NewNode creates a resource node at p carrying its remaining yield.
func NewNode(id ID, k Kind, p world.Pos, yield int16) *Thing {
	t := &Thing{
		ID:          id,
		Kind:        k,
		Pos:         p,
		TeamID:      -1,
		HP:          1,
		MaxHP:       1,
		HomeAltar:   world.OffGrid,
		HomeSpawner: world.OffGrid,
	}
	t.Inventory[k.NodeItem()] = yield
	return t
}
