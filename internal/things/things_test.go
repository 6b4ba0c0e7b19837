package things

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/talgya/tribal-village/internal/world"
)

func TestInventoryCaps(t *testing.T) {
	var inv Inventory

	assert.Equal(t, int16(5), inv.Add(ItemWood, 9))
	assert.Equal(t, int16(5), inv.Count(ItemWood))
	assert.Equal(t, int16(0), inv.Add(ItemWood, 1))

	assert.Equal(t, int16(3), inv.Remove(ItemWood, 3))
	assert.Equal(t, int16(2), inv.Remove(ItemWood, 5))
	assert.Equal(t, int16(0), inv.Count(ItemWood))
}

func TestStockpileLoadCountsOnlyResources(t *testing.T) {
	var inv Inventory
	inv.Add(ItemFood, 2)
	inv.Add(ItemGold, 3)
	inv.Add(ItemBar, 4)
	inv.Add(ItemBread, 1)

	assert.Equal(t, int16(5), inv.StockpileLoad())
}

func TestItemClassSplit(t *testing.T) {
	for it := Item(0); it < NumStockpile; it++ {
		assert.True(t, it.IsStockpile(), ItemName(it))
	}
	for _, it := range []Item{ItemBar, ItemBread, ItemArmor, ItemSpear, ItemLantern, ItemCorpse} {
		assert.False(t, it.IsStockpile(), ItemName(it))
	}
}

func TestKindClassification(t *testing.T) {
	assert.True(t, KindAltar.IsBuilding())
	assert.True(t, KindDock.IsBuilding())
	assert.False(t, KindAgent.IsBuilding())
	assert.True(t, KindWolf.IsPredator())
	assert.False(t, KindCow.IsPredator())
	assert.True(t, KindCow.IsMob())
	assert.True(t, KindGoldNode.IsResourceNode())
	assert.True(t, KindLantern.Overlay())
	assert.True(t, KindRelic.Overlay())
	assert.False(t, KindLantern.Blocking())
	assert.True(t, KindStump.Blocking())
	assert.True(t, KindCorpse.IsMarker())
}

func TestBuildChoicesStaysStable(t *testing.T) {
	// Policies index into this catalog; the order is load-bearing.
	want := [10]Kind{
		KindNone, KindWall, KindHouse, KindTownCenter, KindGuardTower,
		KindWeavingLoom, KindClayOven, KindBlacksmith, KindMarket, KindTemple,
	}
	assert.Equal(t, want, BuildChoices)
}

func TestBuildingRegistryShape(t *testing.T) {
	for _, k := range TowerKinds {
		info := BuildingFor(k)
		assert.Positive(t, info.TowerRange, KindName(k))
		assert.Positive(t, info.TowerDamage, KindName(k))
	}
	assert.Equal(t, UseAltar, UseKindFor(KindAltar))
	assert.Equal(t, UseMagma, UseKindFor(KindMagma))
	assert.Positive(t, BuildingFor(KindGuardTower).GarrisonCap)
	// Unknown kinds resolve to a harmless zero profile.
	assert.Equal(t, int16(1), BuildingFor(KindAgent).MaxHP)
}

func TestNodeYieldLivesInInventory(t *testing.T) {
	n := NewNode(1, KindGoldNode, world.Pos{X: 2, Y: 2}, 4)
	assert.Equal(t, int16(4), n.Inventory.Count(ItemGold))
	assert.Equal(t, ItemGold, KindGoldNode.NodeItem())
	assert.Equal(t, KindStump, KindTreeNode.ExhaustedMarker())
	assert.Equal(t, KindSkeleton, KindWolf.ExhaustedMarker())
}

func TestNewAgentDefaults(t *testing.T) {
	a := NewAgent(1, 12, 1, ClassScout, world.Pos{X: 3, Y: 4})
	st := StatsFor(ClassScout)
	assert.Equal(t, st.MaxHP, a.HP)
	assert.Equal(t, st.AttackDamage, a.AttackDamage)
	assert.Equal(t, int8(-1), a.TeamOverride)
	assert.Equal(t, world.OffGrid, a.HomeAltar)
	assert.True(t, a.Alive())
	assert.True(t, st.Cavalry)
}
