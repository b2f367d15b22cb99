package components

// Stage is an organism's maturity stage. The only transition is Immature to Mature.
type Stage uint8

const (
	Immature Stage = iota
	Mature
)

func (s Stage) String() string {
	if s == Mature {
		return "mature"
	}
	return "immature"
}

// Energy tracks an organism's energy store. Value never goes below zero.
type Energy struct {
	Value float64
}

// Spend deducts up to amount and returns what was actually paid.
func (e *Energy) Spend(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	if amount > e.Value {
		amount = e.Value
	}
	e.Value -= amount
	return amount
}

// Organism bundles identity, lineage and lifecycle state.
type Organism struct {
	ID         uint64 // Unique within a run, never reused
	ParentID   uint64 // 0 for founders
	Generation uint32
	BirthStep  int

	Stage        Stage
	GrowthSignal float64
	Age          int
	Cooldown     int // Steps until reproduction is allowed again

	Dead bool // Set by the death check, removed at end of step
}
