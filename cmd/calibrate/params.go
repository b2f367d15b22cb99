package main

import (
	"math"

	"github.com/pthm-cable/lifecriteria/config"
)

// ParamSpec defines a single tunable parameter.
type ParamSpec struct {
	Name    string  // Config path
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Integer bool    // Rounded before use

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of tunable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of baseline calibration parameters.
// Bounds keep every criterion's cost and income within an order of magnitude
// of the defaults.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "resource.injection_rate", Min: 0.0005, Max: 0.004,
				get: func(c *config.Config) float64 { return c.Resource.InjectionRate },
				set: func(c *config.Config, v float64) { c.Resource.InjectionRate = v }},
			{Name: "metabolism.uptake_rate", Min: 0.02, Max: 0.12,
				get: func(c *config.Config) float64 { return c.Metabolism.UptakeRate },
				set: func(c *config.Config, v float64) { c.Metabolism.UptakeRate = v }},
			{Name: "metabolism.upkeep_cost", Min: 0.002, Max: 0.015,
				get: func(c *config.Config) float64 { return c.Metabolism.UpkeepCost },
				set: func(c *config.Config, v float64) { c.Metabolism.UpkeepCost = v }},
			{Name: "boundary.decay_base", Min: 0.005, Max: 0.03,
				get: func(c *config.Config) float64 { return c.Boundary.DecayBase },
				set: func(c *config.Config, v float64) { c.Boundary.DecayBase = v }},
			{Name: "boundary.repair_rate", Min: 0.008, Max: 0.04,
				get: func(c *config.Config) float64 { return c.Boundary.RepairRate },
				set: func(c *config.Config, v float64) { c.Boundary.RepairRate = v }},
			{Name: "growth.rate", Min: 0.002, Max: 0.02,
				get: func(c *config.Config) float64 { return c.Growth.Rate },
				set: func(c *config.Config, v float64) { c.Growth.Rate = v }},
			{Name: "reproduction.cost", Min: 0.05, Max: 0.5,
				get: func(c *config.Config) float64 { return c.Reproduction.Cost },
				set: func(c *config.Config, v float64) { c.Reproduction.Cost = v }},
			{Name: "reproduction.cooldown", Min: 5, Max: 60, Integer: true,
				get: func(c *config.Config) float64 { return float64(c.Reproduction.Cooldown) },
				set: func(c *config.Config, v float64) { c.Reproduction.Cooldown = int(v) }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Names returns the parameter names in vector order.
func (pv *ParamVector) Names() []string {
	names := make([]string, len(pv.Specs))
	for i, spec := range pv.Specs {
		names[i] = spec.Name
	}
	return names
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp bounds every value and rounds integer parameters.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := math.Max(spec.Min, math.Min(spec.Max, v[i]))
		if spec.Integer {
			val = math.Round(val)
		}
		clamped[i] = val
	}
	return clamped
}

// ApplyToConfig writes clamped values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		out[i] = spec.get(cfg)
	}
	return out
}
