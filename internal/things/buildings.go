package things

// UseKind declares what happens when an agent Uses a building.
type UseKind uint8

const (
	UseNone UseKind = iota
	UseAltar
	UseClayOven
	UseWeavingLoom
	UseBlacksmith
	UseMarket
	UseDropoff
	UseDropoffAndStorage
	UseStorage
	UseTrain
	UseTrainAndCraft
	UseCraft
	UseMagma
	UseTemple
)

// CostVector is a build or train price in stockpile resources, indexed
// Food, Wood, Stone, Gold.
type CostVector [4]int32

// BuildingInfo is the registry entry for one structure kind.
type BuildingInfo struct {
	MaxHP          int16
	Cost           CostVector
	PopCap         int32 // Contribution to the team population ceiling
	BarrelCapacity int32 // Contribution to the team stockpile capacity
	FertileRadius  int32 // Tiles turned Fertile on placement
	GarrisonCap    int
	Use            UseKind
	TrainClass     UnitClass
	TrainCost      CostVector

	// Tower combat. Range 0 means the building never attacks.
	TowerRange  int32
	TowerDamage int16
}

var buildingRegistry = map[Kind]BuildingInfo{
	KindAltar:      {MaxHP: 60, Cost: CostVector{0, 40, 20, 10}, PopCap: 4, Use: UseAltar},
	KindTownCenter: {MaxHP: 80, Cost: CostVector{0, 60, 40, 0}, PopCap: 10, BarrelCapacity: 100, GarrisonCap: 6, Use: UseDropoffAndStorage, TowerRange: 4, TowerDamage: 2},
	KindHouse:      {MaxHP: 25, Cost: CostVector{0, 15, 0, 0}, PopCap: 4},
	KindWall:       {MaxHP: 40, Cost: CostVector{0, 0, 5, 0}},
	KindGuardTower: {MaxHP: 45, Cost: CostVector{0, 20, 15, 0}, GarrisonCap: 4, TowerRange: 5, TowerDamage: 3},
	KindCastle:     {MaxHP: 120, Cost: CostVector{0, 0, 80, 30}, PopCap: 6, GarrisonCap: 10, TowerRange: 7, TowerDamage: 5},
	KindGranary:    {MaxHP: 30, Cost: CostVector{0, 20, 0, 0}, BarrelCapacity: 60, Use: UseDropoff},
	KindStorehouse: {MaxHP: 30, Cost: CostVector{0, 25, 5, 0}, BarrelCapacity: 80, Use: UseDropoffAndStorage},
	KindClayOven:   {MaxHP: 20, Cost: CostVector{0, 10, 10, 0}, Use: UseClayOven},
	KindWeavingLoom: {MaxHP: 20, Cost: CostVector{0, 15, 0, 0}, Use: UseWeavingLoom},
	KindBlacksmith: {MaxHP: 30, Cost: CostVector{0, 20, 10, 5}, Use: UseBlacksmith},
	KindMarket:     {MaxHP: 30, Cost: CostVector{0, 25, 0, 10}, Use: UseMarket},
	KindMagma:      {MaxHP: 50, Use: UseMagma},
	KindTemple:     {MaxHP: 40, Cost: CostVector{0, 30, 20, 10}, Use: UseTemple},
	KindBarracks:   {MaxHP: 40, Cost: CostVector{0, 30, 10, 0}, PopCap: 2, Use: UseTrain, TrainClass: ClassKnight, TrainCost: CostVector{20, 0, 0, 10}},
	KindDock:       {MaxHP: 30, Cost: CostVector{0, 30, 0, 0}, Use: UseTrain, TrainClass: ClassBoat, TrainCost: CostVector{10, 15, 0, 0}},
}

// BuildingFor returns the registry entry for k; unknown kinds get a zero
// profile with 1 HP so accidental lookups stay harmless.
func BuildingFor(k Kind) BuildingInfo {
	if info, ok := buildingRegistry[k]; ok {
		return info
	}
	return BuildingInfo{MaxHP: 1}
}

// UseKindFor returns the use semantics of a building kind.
func UseKindFor(k Kind) UseKind {
	return BuildingFor(k).Use
}

// TowerKinds lists the building kinds that attack each tick, in resolution
// order.
var TowerKinds = [3]Kind{KindGuardTower, KindCastle, KindTownCenter}

// BuildChoices is the stable build catalog indexed by the Build verb's
// argument. Policies depend on these positions; never reorder. The
// TownCenter already covers dropoff and storage, which is why the loom
// holds a slot and the Granary stays map-seeded only.
var BuildChoices = [10]Kind{
	KindNone, // Slot 0 paves a Road tile instead of placing a thing
	KindWall,
	KindHouse,
	KindTownCenter,
	KindGuardTower,
	KindWeavingLoom,
	KindClayOven,
	KindBlacksmith,
	KindMarket,
	KindTemple,
}

// RoadCost is the price of paving one Road tile via Build slot 0.
var RoadCost = CostVector{0, 1, 1, 0}

// BaseStockpileCapacity is every team's stockpile cap before barrel
// contributions from buildings.
const BaseStockpileCapacity = 50
