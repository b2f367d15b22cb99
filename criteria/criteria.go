// Package criteria defines the seven criteria of life, their per-run modes, and run conditions.
package criteria

import (
	"fmt"
	"math/bits"
	"strings"
)

// Criterion is one of the seven ablatable per-step modules.
type Criterion uint8

const (
	Metabolism Criterion = 1 << iota
	Homeostasis
	Boundary
	Growth
	Response
	Reproduction
	Evolution
)

// NumCriteria is the size of the closed criterion list.
const NumCriteria = 7

// Order is the fixed per-step application order.
var Order = [NumCriteria]Criterion{
	Metabolism,
	Homeostasis,
	Boundary,
	Growth,
	Response,
	Reproduction,
	Evolution,
}

// Index returns the position of c in Order.
func (c Criterion) Index() int {
	return bits.TrailingZeros8(uint8(c))
}

// Valid reports whether c is exactly one known criterion.
func (c Criterion) Valid() bool {
	return c != 0 && c&(c-1) == 0 && c <= Evolution
}

// String returns the lowercase criterion name.
func (c Criterion) String() string {
	if !c.Valid() {
		return fmt.Sprintf("criterion(%d)", uint8(c))
	}
	return registry[c.Index()].ID
}

// Parse resolves a criterion by name (case-insensitive).
func Parse(name string) (Criterion, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, info := range registry {
		if info.ID == name {
			return info.Criterion, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown criterion %q", ErrInvalidCondition, name)
}

// Set is a bitmask of criteria.
type Set uint8

// All contains every criterion.
const All Set = Set(Metabolism | Homeostasis | Boundary | Growth | Response | Reproduction | Evolution)

// SetOf builds a set from criteria.
func SetOf(cs ...Criterion) Set {
	var s Set
	for _, c := range cs {
		s = s.Add(c)
	}
	return s
}

// Has checks if the set contains a criterion.
func (s Set) Has(c Criterion) bool {
	return s&Set(c) != 0
}

// Add adds a criterion to the set.
func (s Set) Add(c Criterion) Set {
	return s | Set(c)
}

// Remove removes a criterion from the set.
func (s Set) Remove(c Criterion) Set {
	return s &^ Set(c)
}

// Len returns the number of criteria in the set.
func (s Set) Len() int {
	return bits.OnesCount8(uint8(s))
}

// Criteria lists the members in application order.
func (s Set) Criteria() []Criterion {
	var out []Criterion
	for _, c := range Order {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Names returns member names in application order.
func (s Set) Names() []string {
	cs := s.Criteria()
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.String()
	}
	return names
}

// Mode is how a criterion behaves in a run.
type Mode uint8

const (
	// Enabled runs the module normally.
	Enabled Mode = iota
	// Ablated removes the module's function and its energy cost.
	Ablated
	// Proxy removes the function but keeps the energy cost and resource draw.
	Proxy
)

func (m Mode) String() string {
	switch m {
	case Enabled:
		return "enabled"
	case Ablated:
		return "ablated"
	case Proxy:
		return "proxy"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// Modes holds one mode per criterion, indexed by Criterion.Index.
type Modes [NumCriteria]Mode

// Of returns the mode of c.
func (m Modes) Of(c Criterion) Mode {
	return m[c.Index()]
}

// Active reports whether c's function runs.
func (m Modes) Active(c Criterion) bool {
	return m[c.Index()] == Enabled
}
