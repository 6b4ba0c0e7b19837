package things

// UnitClass determines an agent's movement and combat profile.
type UnitClass uint8

const (
	ClassVillager UnitClass = iota
	ClassScout
	ClassKnight
	ClassArcher
	ClassMonk
	ClassMangonel
	ClassBatteringRam
	ClassBoat
	ClassTank
	ClassGoblin
	NumClasses
)

var classNames = [NumClasses]string{
	"villager", "scout", "knight", "archer", "monk", "mangonel",
	"battering_ram", "boat", "tank", "goblin",
}

// ClassName returns a lowercase identifier for logs.
func ClassName(c UnitClass) string {
	if c < NumClasses {
		return classNames[c]
	}
	return "unknown"
}

// ClassStats declares the per-class combat and movement profile.
type ClassStats struct {
	MaxHP        int16
	AttackDamage int16
	AttackRange  int32
	// Cavalry reports whether the class takes a second free step each move.
	Cavalry bool
}

var classStats = [NumClasses]ClassStats{
	ClassVillager:     {MaxHP: 10, AttackDamage: 2, AttackRange: 1},
	ClassScout:        {MaxHP: 12, AttackDamage: 2, AttackRange: 2, Cavalry: true},
	ClassKnight:       {MaxHP: 20, AttackDamage: 5, AttackRange: 1, Cavalry: true},
	ClassArcher:       {MaxHP: 10, AttackDamage: 3, AttackRange: 3},
	ClassMonk:         {MaxHP: 10, AttackDamage: 0, AttackRange: 1},
	ClassMangonel:     {MaxHP: 14, AttackDamage: 4, AttackRange: 2},
	ClassBatteringRam: {MaxHP: 25, AttackDamage: 6, AttackRange: 2},
	ClassBoat:         {MaxHP: 15, AttackDamage: 3, AttackRange: 1},
	ClassTank:         {MaxHP: 30, AttackDamage: 3, AttackRange: 1},
	ClassGoblin:       {MaxHP: 8, AttackDamage: 3, AttackRange: 1},
}

// StatsFor returns the class profile.
func StatsFor(c UnitClass) ClassStats {
	if c < NumClasses {
		return classStats[c]
	}
	return classStats[ClassVillager]
}
