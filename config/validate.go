package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

var (
	validFamilies     = []string{"full", "single", "pairwise", "pairwise_all", "proxy", "all"}
	validMetrics      = []string{"mean_alive", "final_alive", "auc"}
	validAlternatives = []string{"greater", "two-sided"}
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// Validate rejects configurations that cannot produce a meaningful world or experiment.
func (c *Config) Validate() error {
	w := c.World
	if w.Width <= 0 || w.Height <= 0 {
		return invalid("world dimensions must be positive, got %dx%d", w.Width, w.Height)
	}
	if w.InitialPopulation < 0 {
		return invalid("world.initial_population must be non-negative")
	}
	if w.InitialPopulation > w.Width*w.Height {
		return invalid("world.initial_population %d exceeds %d cells", w.InitialPopulation, w.Width*w.Height)
	}

	r := c.Resource
	if r.MaxConcentration <= 0 {
		return invalid("resource.max_concentration must be positive")
	}
	if r.InitialLevel < 0 || r.InitialLevel > r.MaxConcentration {
		return invalid("resource.initial_level must be in [0, max_concentration]")
	}
	if r.Patchiness < 0 || r.Patchiness > 1 {
		return invalid("resource.patchiness must be in [0, 1]")
	}
	if r.PatchFraction <= 0 || r.PatchFraction > 1 {
		return invalid("resource.patch_fraction must be in (0, 1]")
	}
	if r.InjectionRate < 0 || r.Diffusion < 0 {
		return invalid("resource rates must be non-negative")
	}

	e := c.Environment
	if e.ShiftStep < 0 || e.CyclePeriod < 0 || e.PerturbInterval < 0 {
		return invalid("environment schedule steps must be non-negative")
	}
	if e.ShiftFactor < 0 || e.CycleLowFactor < 0 {
		return invalid("environment factors must be non-negative")
	}
	if e.PerturbFraction < 0 || e.PerturbFraction > 1 {
		return invalid("environment.perturb_fraction must be in [0, 1]")
	}

	o := c.Organism
	if o.InitialEnergy <= 0 || o.MaxEnergy < o.InitialEnergy {
		return invalid("organism energy must satisfy 0 < initial_energy <= max_energy")
	}
	if o.MaxAge < 0 {
		return invalid("organism.max_age must be non-negative")
	}
	if c.Reproduction.ChildEnergy <= 0 || c.Reproduction.ChildEnergy > o.MaxEnergy {
		return invalid("reproduction.child_energy must be in (0, max_energy]")
	}
	if c.Reproduction.Cooldown < 0 || c.Reproduction.Cost < 0 {
		return invalid("reproduction cost and cooldown must be non-negative")
	}
	if c.Homeostasis.Tolerance <= 0 {
		return invalid("homeostasis.tolerance must be positive")
	}
	if c.Boundary.ViabilityFloor < 0 {
		return invalid("boundary.viability_floor must be non-negative")
	}
	if c.Metabolism.ImmatureEfficiency < 0 || c.Metabolism.ImmatureEfficiency > 1 {
		return invalid("metabolism.immature_efficiency must be in [0, 1]")
	}

	return c.Experiment.validate()
}

func (x ExperimentConfig) validate() error {
	if x.Steps <= 0 || x.Steps > MaxSteps {
		return invalid("experiment.steps must be in [1, %d], got %d", MaxSteps, x.Steps)
	}
	if x.SampleEvery <= 0 {
		return invalid("experiment.sample_every must be positive")
	}
	if x.Steps/x.SampleEvery+1 > MaxSamples {
		return invalid("experiment would record more than %d samples", MaxSamples)
	}
	if x.Workers < 0 || x.Timeout < 0 || x.StepCeiling < 0 {
		return invalid("experiment workers, timeout and step_ceiling must be non-negative")
	}
	if !oneOf(x.Family, validFamilies) {
		return invalid("unknown experiment.family %q", x.Family)
	}
	if !oneOf(x.Metric, validMetrics) {
		return invalid("unknown experiment.metric %q", x.Metric)
	}
	if !oneOf(x.Alternative, validAlternatives) {
		return invalid("unknown experiment.alternative %q", x.Alternative)
	}
	if x.Alpha <= 0 || x.Alpha >= 1 {
		return invalid("experiment.alpha must be in (0, 1)")
	}
	if x.Seeds.Calibration.Count < 0 || x.Seeds.Test.Count < 0 {
		return invalid("seed counts must be non-negative")
	}
	return nil
}
