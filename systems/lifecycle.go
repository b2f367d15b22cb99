package systems

import "github.com/pthm-cable/lifecriteria/components"

// DeathCause names why an organism died.
type DeathCause uint8

const (
	Alive DeathCause = iota
	Starvation
	Dissolution
	OldAge
)

func (c DeathCause) String() string {
	switch c {
	case Starvation:
		return "starvation"
	case Dissolution:
		return "dissolution"
	case OldAge:
		return "old_age"
	default:
		return "alive"
	}
}

// BeginTurn ages the organism and counts down its reproduction cooldown.
func BeginTurn(org *components.Organism) {
	org.Age++
	if org.Cooldown > 0 {
		org.Cooldown--
	}
}

// CheckDeath marks the organism dead when energy or integrity reach zero, or
// it has reached maxAge (maxAge <= 0 disables age death). Starvation takes
// precedence over dissolution, then old age.
func CheckDeath(org *components.Organism, energy *components.Energy, b *components.Boundary, maxAge int) DeathCause {
	if org.Dead {
		return Alive
	}
	var cause DeathCause
	switch {
	case energy.Value <= 0:
		cause = Starvation
	case b.Integrity <= 0:
		cause = Dissolution
	case maxAge > 0 && org.Age >= maxAge:
		cause = OldAge
	default:
		return Alive
	}
	org.Dead = true
	return cause
}
