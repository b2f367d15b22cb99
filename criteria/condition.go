package criteria

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pthm-cable/lifecriteria/config"
)

// ErrInvalidCondition is wrapped by every condition validation failure.
var ErrInvalidCondition = errors.New("invalid run condition")

// BaselineName names the full-system condition.
const BaselineName = "normal"

// Condition is the immutable ablation and perturbation setup for a batch of replicates.
type Condition struct {
	Name    string
	Ablated Set
	Proxy   Set // Subset of Ablated whose cost is kept

	// AblateFromStep delays the ablation; steps before it run the full system.
	AblateFromStep int

	// Environment overrides the config's environment schedule when non-nil.
	Environment *config.EnvironmentConfig
}

// Full is the unablated baseline.
func Full() Condition {
	return Condition{Name: BaselineName}
}

// Single ablates one criterion.
func Single(c Criterion) Condition {
	return Condition{Name: "no_" + c.String(), Ablated: SetOf(c)}
}

// Pair ablates two criteria together.
func Pair(a, b Criterion) Condition {
	return Condition{
		Name:    "no_" + a.String() + "_no_" + b.String(),
		Ablated: SetOf(a, b),
	}
}

// WithProxy ablates c but keeps its cost through a function-free stand-in.
func WithProxy(c Criterion) Condition {
	return Condition{Name: "proxy_" + c.String(), Ablated: SetOf(c), Proxy: SetOf(c)}
}

// From returns a copy whose ablation starts at step, renamed with an "_at<step>" suffix.
func (c Condition) From(step int) Condition {
	c.Name, _ = splitOnset(c.Name)
	c.AblateFromStep = step
	if step > 0 {
		c.Name = fmt.Sprintf("%s_at%d", c.Name, step)
	}
	return c
}

// WithEnvironment returns a copy with an environment schedule override.
func (c Condition) WithEnvironment(name string, env config.EnvironmentConfig) Condition {
	c.Environment = &env
	if name != "" {
		c.Name = c.Name + "_" + name
	}
	return c
}

// IsBaseline reports whether nothing is ablated.
func (c Condition) IsBaseline() bool {
	return c.Ablated == 0
}

// IsPair reports whether exactly two criteria are ablated.
func (c Condition) IsPair() bool {
	return c.Ablated.Len() == 2
}

// Modes returns the per-criterion modes at step.
func (c Condition) Modes(step int) Modes {
	var m Modes
	if step < c.AblateFromStep {
		return m
	}
	for _, cr := range Order {
		switch {
		case c.Proxy.Has(cr):
			m[cr.Index()] = Proxy
		case c.Ablated.Has(cr):
			m[cr.Index()] = Ablated
		}
	}
	return m
}

// Validate rejects conditions that name unknown criteria or impossible combinations.
func (c Condition) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidCondition)
	}
	if c.Ablated&^All != 0 {
		return fmt.Errorf("%w: %s ablates unknown criteria %08b", ErrInvalidCondition, c.Name, uint8(c.Ablated&^All))
	}
	if n := c.Ablated.Len(); n > 2 {
		return fmt.Errorf("%w: %s ablates %d criteria, at most a pair is supported", ErrInvalidCondition, c.Name, n)
	}
	if c.Proxy&^c.Ablated != 0 {
		return fmt.Errorf("%w: %s has proxies for criteria that are not ablated", ErrInvalidCondition, c.Name)
	}
	if c.AblateFromStep < 0 {
		return fmt.Errorf("%w: %s has negative ablate_from_step", ErrInvalidCondition, c.Name)
	}
	return nil
}

// LogValue implements slog.LogValuer.
func (c Condition) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("name", c.Name),
		slog.String("ablated", strings.Join(c.Ablated.Names(), ",")),
	}
	if c.Proxy != 0 {
		attrs = append(attrs, slog.String("proxy", strings.Join(c.Proxy.Names(), ",")))
	}
	if c.AblateFromStep > 0 {
		attrs = append(attrs, slog.Int("from_step", c.AblateFromStep))
	}
	return slog.GroupValue(attrs...)
}

// ParseCondition rebuilds a standard condition from its name:
// "normal", "no_<c>", "no_<a>_no_<b>", "proxy_<c>", each optionally followed
// by the "_at<step>" suffix From adds. Environment suffixes are not
// recoverable from names.
func ParseCondition(name string) (Condition, error) {
	base, step := splitOnset(name)
	c, err := parseBaseCondition(base)
	if err != nil {
		return Condition{}, err
	}
	return c.From(step), nil
}

// splitOnset separates a trailing "_at<step>" from a condition name.
// Names without a canonical positive step come back unchanged with step 0.
func splitOnset(name string) (string, int) {
	i := strings.LastIndex(name, "_at")
	if i < 0 {
		return name, 0
	}
	step, err := strconv.Atoi(name[i+3:])
	if err != nil || step <= 0 || strconv.Itoa(step) != name[i+3:] {
		return name, 0
	}
	return name[:i], step
}

func parseBaseCondition(name string) (Condition, error) {
	if name == BaselineName {
		return Full(), nil
	}
	if rest, ok := strings.CutPrefix(name, "proxy_"); ok {
		c, err := Parse(rest)
		if err != nil {
			return Condition{}, err
		}
		return WithProxy(c), nil
	}
	rest, ok := strings.CutPrefix(name, "no_")
	if !ok {
		return Condition{}, fmt.Errorf("%w: unrecognised condition name %q", ErrInvalidCondition, name)
	}
	parts := strings.Split(rest, "_no_")
	switch len(parts) {
	case 1:
		c, err := Parse(parts[0])
		if err != nil {
			return Condition{}, err
		}
		return Single(c), nil
	case 2:
		a, err := Parse(parts[0])
		if err != nil {
			return Condition{}, err
		}
		b, err := Parse(parts[1])
		if err != nil {
			return Condition{}, err
		}
		if a == b {
			return Condition{}, fmt.Errorf("%w: pair %q repeats a criterion", ErrInvalidCondition, name)
		}
		return Pair(a, b), nil
	default:
		return Condition{}, fmt.Errorf("%w: unrecognised condition name %q", ErrInvalidCondition, name)
	}
}
