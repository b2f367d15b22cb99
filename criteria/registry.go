package criteria

// Info describes a criterion for listings and reports.
type Info struct {
	Criterion   Criterion
	ID          string // Lowercase identifier used in condition names
	Name        string // Display name
	Description string // What the module does each step
	Ablation    string // What ablation leaves behind
	Proxy       string // What the proxy stand-in keeps
}

// registry is indexed by Criterion.Index.
var registry = [NumCriteria]Info{
	{
		Criterion:   Metabolism,
		ID:          "metabolism",
		Name:        "Metabolism",
		Description: "Draws resource from the occupied cell and converts it to energy, minus upkeep",
		Ablation:    "Upkeep only, no income",
		Proxy:       "Draws resource from the field but converts none of it",
	},
	{
		Criterion:   Homeostasis,
		ID:          "homeostasis",
		Name:        "Homeostasis",
		Description: "Moves regulatory variables toward genome setpoints",
		Ablation:    "Regulatory variables drift freely",
		Proxy:       "Pays the regulation cost without moving the variables",
	},
	{
		Criterion:   Boundary,
		ID:          "boundary",
		Name:        "Boundary",
		Description: "Repairs integrity at an energy cost gated by homeostatic alignment",
		Ablation:    "Decay only, fixed maximum lifetime",
		Proxy:       "Pays the repair cost, repairs nothing",
	},
	{
		Criterion:   Growth,
		ID:          "growth",
		Name:        "Growth",
		Description: "Invests surplus energy into maturation",
		Ablation:    "Organisms stay immature and cannot reproduce",
		Proxy:       "Pays the investment, signal never grows",
	},
	{
		Criterion:   Response,
		ID:          "response",
		Name:        "Response",
		Description: "Senses the resource gradient and moves toward richer cells",
		Ablation:    "Unbiased random movement at equal motor cost",
		Proxy:       "Random movement plus the sensing cost",
	},
	{
		Criterion:   Reproduction,
		ID:          "reproduction",
		Name:        "Reproduction",
		Description: "Spawns a child into a free neighbouring cell",
		Ablation:    "No offspring",
		Proxy:       "Pays the reproduction cost and waits the cooldown, no offspring",
	},
	{
		Criterion:   Evolution,
		ID:          "evolution",
		Name:        "Evolution",
		Description: "Mutates the child genome at birth",
		Ablation:    "Children are exact genome copies",
		Proxy:       "Draws the mutation noise but copies the genome exactly",
	},
}

// Registry returns all criteria in application order.
func Registry() []Info {
	out := make([]Info, NumCriteria)
	copy(out, registry[:])
	return out
}

// Describe returns the info for c.
func Describe(c Criterion) (Info, bool) {
	if !c.Valid() {
		return Info{}, false
	}
	return registry[c.Index()], true
}

// DisplayName returns the display name for c, falling back to its String form.
func DisplayName(c Criterion) string {
	if info, ok := Describe(c); ok {
		return info.Name
	}
	return c.String()
}
