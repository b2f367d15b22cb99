package criteria

import "fmt"

// Family groups conditions that are run and corrected together.
type Family string

const (
	FamilyFull        Family = "full"
	FamilySingle      Family = "single"
	FamilyPairwise    Family = "pairwise"
	FamilyPairwiseAll Family = "pairwise_all"
	FamilyProxy       Family = "proxy"
	FamilyAll         Family = "all"
)

// InteractionPairs are the pairs with a hypothesised feedback coupling.
var InteractionPairs = [][2]Criterion{
	{Metabolism, Homeostasis},
	{Metabolism, Response},
	{Reproduction, Growth},
	{Boundary, Homeostasis},
	{Response, Homeostasis},
	{Reproduction, Evolution},
}

// Singles returns one ablation per criterion in application order.
func Singles() []Condition {
	out := make([]Condition, 0, NumCriteria)
	for _, c := range Order {
		out = append(out, Single(c))
	}
	return out
}

// Pairs returns the interaction pairs.
func Pairs() []Condition {
	out := make([]Condition, 0, len(InteractionPairs))
	for _, p := range InteractionPairs {
		out = append(out, Pair(p[0], p[1]))
	}
	return out
}

// AllPairs returns every unordered pair of criteria.
func AllPairs() []Condition {
	var out []Condition
	for i := 0; i < NumCriteria; i++ {
		for j := i + 1; j < NumCriteria; j++ {
			out = append(out, Pair(Order[i], Order[j]))
		}
	}
	return out
}

// Proxies returns one proxy control per criterion.
func Proxies() []Condition {
	out := make([]Condition, 0, NumCriteria)
	for _, c := range Order {
		out = append(out, WithProxy(c))
	}
	return out
}

// ConditionsFor returns the baseline followed by the family's conditions.
// Pairwise and proxy families include the single ablations they are compared against.
func ConditionsFor(f Family) ([]Condition, error) {
	out := []Condition{Full()}
	switch f {
	case FamilyFull:
	case FamilySingle:
		out = append(out, Singles()...)
	case FamilyPairwise:
		out = append(out, Singles()...)
		out = append(out, Pairs()...)
	case FamilyPairwiseAll:
		out = append(out, Singles()...)
		out = append(out, AllPairs()...)
	case FamilyProxy:
		out = append(out, Singles()...)
		out = append(out, Proxies()...)
	case FamilyAll:
		out = append(out, Singles()...)
		out = append(out, Pairs()...)
		out = append(out, Proxies()...)
	default:
		return nil, fmt.Errorf("%w: unknown family %q", ErrInvalidCondition, f)
	}
	return out, nil
}
